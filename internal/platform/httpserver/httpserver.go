package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server tuned for the ledger API. Callback payloads
// are small, so short header and idle timeouts are safe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
