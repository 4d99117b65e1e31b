package server

import (
	"net/http"
	"strings"
)

type RouteDoc struct {
	Method      string `json:"method"`
	Pattern     string `json:"pattern"`
	Summary     string `json:"summary,omitempty"`
	ExampleBody string `json:"example_body,omitempty"`
	Auth        bool   `json:"auth"`
}

type RouteRegistry struct {
	routes []RouteDoc
}

func (rr *RouteRegistry) Add(doc RouteDoc) {
	rr.routes = append(rr.routes, doc)
}

func (rr *RouteRegistry) List() []RouteDoc {
	out := make([]RouteDoc, len(rr.routes))
	copy(out, rr.routes)
	return out
}

func splitMethodPattern(methodAndPattern string) (method, pattern string) {
	parts := strings.SplitN(methodAndPattern, " ", 2)
	method = parts[0]
	if len(parts) == 2 {
		pattern = parts[1]
	}
	return method, pattern
}

// Handle registers an open route and records it in the registry.
func Handle(mux *http.ServeMux, rr *RouteRegistry, methodAndPattern, summary, exampleBody string, h http.HandlerFunc) {
	method, pattern := splitMethodPattern(methodAndPattern)
	rr.Add(RouteDoc{Method: method, Pattern: pattern, Summary: summary, ExampleBody: exampleBody})
	mux.HandleFunc(methodAndPattern, h)
}

// HandleAuthed registers a route behind the given session middleware.
func HandleAuthed(mux *http.ServeMux, rr *RouteRegistry, guard func(http.Handler) http.Handler, methodAndPattern, summary, exampleBody string, h http.HandlerFunc) {
	method, pattern := splitMethodPattern(methodAndPattern)
	rr.Add(RouteDoc{Method: method, Pattern: pattern, Summary: summary, ExampleBody: exampleBody, Auth: true})
	mux.Handle(methodAndPattern, guard(h))
}
