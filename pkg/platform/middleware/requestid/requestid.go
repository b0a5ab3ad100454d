// Package requestid assigns a correlation ID to every HTTP request so log
// lines, audit events, and error responses can be tied together.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"aidledger/pkg/requestcontext"
)

// Header carries the request ID on both requests and responses.
const Header = "X-Request-Id"

// Middleware reuses an incoming X-Request-Id when present, otherwise mints a
// fresh UUID, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
