package middleware

import (
	"fmt"
	"net/http"
)

// BodySizeLimit caps request bodies at maxBytes. Requests that declare a
// larger Content-Length get 413 without reaching next; bodies of unknown
// length are wrapped so reading past the cap fails with *http.MaxBytesError.
// A non-positive maxBytes disables the limit.
func BodySizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("request body of %d bytes exceeds the %d byte limit", r.ContentLength, maxBytes))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
