package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Header reads are bounded so a stalled client
// cannot hold a connection open indefinitely; the write deadline is looser
// because audit CSV exports can run large.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
