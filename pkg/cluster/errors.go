package cluster

import "errors"

// Membership definition errors
var (
	ErrNoMembers      = errors.New("cluster must contain at least one member")
	ErrInvalidAddress = errors.New("member address cannot be empty")
	ErrSelfNotMember  = errors.New("this instance is missing from the member list")
	ErrMissingSelf    = errors.New("this instance address cannot be empty")
)
