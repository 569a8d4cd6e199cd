// Package httpserver constructs the API server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the compliance API server. Every endpoint exchanges small
// JSON documents; nothing streams, so the timeouts are tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
