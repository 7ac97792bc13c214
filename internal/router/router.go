package router

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
)

// wildcard marks a pattern that is matched as a regular expression
const wildcard = "*"

var ErrInvalidPattern = errors.New("invalid route pattern")

// Handler handles one request. Completion is signaled by sending on res.
type Handler interface {
	ServeHTTP(req *request.Request, res *response.Response)
}

// HandlerFunc adapts an ordinary function to a Handler
type HandlerFunc func(req *request.Request, res *response.Response)

func (f HandlerFunc) ServeHTTP(req *request.Request, res *response.Response) {
	f(req, res)
}

// Middleware wraps a handler
type Middleware func(Handler) Handler

// Chain applies middlewares so the first one given runs outermost
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Route represents a single registered route
type Route struct {
	Method  string
	Pattern string
	Handler Handler

	re *regexp.Regexp
}

// IsWildcard reports whether the pattern is matched as a regular expression
func (rt *Route) IsWildcard() bool {
	return rt.re != nil
}

func (rt *Route) matches(path string) bool {
	if rt.re != nil {
		return rt.re.MatchString(path)
	}
	return rt.Pattern == path
}

// Router maps a method to its routes in registration order. The first
// route that matches wins; there is no specificity ranking.
type Router struct {
	mu          sync.RWMutex
	routes      map[string][]*Route
	middlewares []Middleware
}

// New creates a new router
func New() *Router {
	return &Router{
		routes: make(map[string][]*Route),
	}
}

// Handle registers a route. Registering the same method and pattern again
// replaces the handler but keeps the route's original position.
func (r *Router) Handle(method, pattern string, handler Handler) error {
	if method == "" || pattern == "" {
		return fmt.Errorf("%w: empty method or pattern", ErrInvalidPattern)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s %s", ErrInvalidPattern, method, pattern)
	}

	route := &Route{
		Method:  strings.ToUpper(method),
		Pattern: pattern,
		Handler: handler,
	}

	if strings.Contains(pattern, wildcard) {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
		route.re = re
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.routes[route.Method]
	for i, existing := range table {
		if existing.Pattern == pattern {
			table[i] = route
			return nil
		}
	}
	r.routes[route.Method] = append(table, route)
	return nil
}

// HandleFunc registers a function as a route handler
func (r *Router) HandleFunc(method, pattern string, fn HandlerFunc) error {
	return r.Handle(method, pattern, fn)
}

// mustHandle backs the method shortcuts, which are meant for startup-time
// registration where a bad pattern is a programming error.
func (r *Router) mustHandle(method, pattern string, fn HandlerFunc) {
	if err := r.Handle(method, pattern, fn); err != nil {
		panic(err)
	}
}

// GET is a shortcut for HandleFunc("GET", ...)
func (r *Router) GET(pattern string, fn HandlerFunc) {
	r.mustHandle("GET", pattern, fn)
}

// POST is a shortcut for HandleFunc("POST", ...)
func (r *Router) POST(pattern string, fn HandlerFunc) {
	r.mustHandle("POST", pattern, fn)
}

// PUT is a shortcut for HandleFunc("PUT", ...)
func (r *Router) PUT(pattern string, fn HandlerFunc) {
	r.mustHandle("PUT", pattern, fn)
}

// DELETE is a shortcut for HandleFunc("DELETE", ...)
func (r *Router) DELETE(pattern string, fn HandlerFunc) {
	r.mustHandle("DELETE", pattern, fn)
}

// PATCH is a shortcut for HandleFunc("PATCH", ...)
func (r *Router) PATCH(pattern string, fn HandlerFunc) {
	r.mustHandle("PATCH", pattern, fn)
}

// Use adds middleware applied to every matched handler
func (r *Router) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, middlewares...)
}

// Match returns the first route registered for method whose pattern
// matches path. Wildcard patterns are searched anywhere in the path.
func (r *Router) Match(method, path string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes[method] {
		if route.matches(path) {
			return route, true
		}
	}
	return nil, false
}

// Dispatch runs the handler matching the request's method and path and
// reports whether one was found. The caller answers unmatched requests.
func (r *Router) Dispatch(req *request.Request, res *response.Response) bool {
	route, ok := r.Match(req.Method, req.Path)
	if !ok {
		return false
	}

	r.mu.RLock()
	middlewares := r.middlewares
	r.mu.RUnlock()

	Chain(route.Handler, middlewares...).ServeHTTP(req, res)
	return true
}

// Routes returns a snapshot of the table, grouped by method in sorted
// method order and in registration order within a method.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.routes))
	for method := range r.routes {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	var out []Route
	for _, method := range methods {
		for _, route := range r.routes[method] {
			out = append(out, *route)
		}
	}
	return out
}
