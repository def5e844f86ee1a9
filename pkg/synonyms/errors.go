package synonyms

import "errors"

var (
	// ErrInconsistentGroup means two groups being joined both contain the
	// same word. It signals a corrupted index and the union is not applied.
	ErrInconsistentGroup = errors.New("word present in both groups being merged")
)
