package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-synonyms/pkg/client"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = client.RequestIDHeader

const maxRequestIDLength = 64

// GetRequestID returns the ID assigned by RequestID, or "" outside the chain.
func GetRequestID(r *http.Request) string {
	return client.RequestIDFromContext(r.Context())
}

// cleanRequestID truncates id and drops every byte outside [A-Za-z0-9._-].
func cleanRequestID(id string) string {
	out := make([]byte, 0, min(len(id), maxRequestIDLength))
	for i := 0; i < len(id) && len(out) < maxRequestIDLength; i++ {
		switch c := id[i]; {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		}
	}
	return string(out)
}

// RequestID tags each request with an ID, keeping a usable client supplied
// X-Request-ID and generating a UUID otherwise. The ID lands in the request
// context through client.WithRequestID, so replication calls made while
// serving the request send the same header to peers.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cleanRequestID(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(client.WithRequestID(r.Context(), id)))
		})
	}
}
