package web

import "net/http"

// Router is a ServeMux that hands requests no pattern matches to a
// fallback handler, typically a rendered not-found page.
type Router struct {
	*http.ServeMux
	fallback http.Handler
}

// NewRouter creates a Router. Without a fallback it behaves exactly like
// http.ServeMux.
func NewRouter() *Router {
	return &Router{ServeMux: http.NewServeMux()}
}

// SetFallback configures the handler for unmatched routes.
func (r *Router) SetFallback(handler http.HandlerFunc) {
	r.fallback = handler
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.fallback != nil {
		if _, pattern := r.Handler(req); pattern == "" {
			r.fallback.ServeHTTP(w, req)
			return
		}
	}
	r.ServeMux.ServeHTTP(w, req)
}
