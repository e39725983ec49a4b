package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. Write timeouts are generous because a roster
// batch renders every certificate before the response is written.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
