package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with
// additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which path patterns it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers and middleware and serves the whole tree.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Logging logs each request's method and path at debug level.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
