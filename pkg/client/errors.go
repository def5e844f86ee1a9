package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady is matched by a StatusError carrying 503.
var ErrNotReady = errors.New("node cluster is not defined")

// StatusError is returned when a node answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotReady) match a 503 answer.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotReady && e.Code == http.StatusServiceUnavailable
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
