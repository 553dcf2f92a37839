package httpserver

import (
	"net/http"
	"time"
)

// New builds the ingest/admin server. Payloads are small JSON bodies
// and nothing streams, so reads and writes get hard deadlines; the
// write timeout leaves room for the handlers' own 30s context timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
}
