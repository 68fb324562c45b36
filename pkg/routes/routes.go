// Package routes declares HTTP routes as nested prefix groups and
// registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. A positive
// MaxBytes caps the request body; reads past it fail with
// *http.MaxBytesError.
type Route struct {
	Method   string
	Pattern  string
	Handler  http.HandlerFunc
	MaxBytes int64
}

// Group organizes routes under a common prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		register(mux, "", group)
	}
}

// pattern returns the ServeMux pattern for the route under prefix.
func (r Route) pattern(prefix string) string {
	if r.Method == "" {
		return prefix + r.Pattern
	}
	return r.Method + " " + prefix + r.Pattern
}

func (r Route) handler() http.Handler {
	if r.MaxBytes > 0 {
		return http.MaxBytesHandler(r.Handler, r.MaxBytes)
	}
	return r.Handler
}

func register(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		mux.Handle(route.pattern(prefix), route.handler())
	}
	for _, child := range group.Children {
		register(mux, prefix, child)
	}
}
