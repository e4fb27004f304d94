package router

import (
	"sort"
	"strings"
)

// Route is one named, immutable route definition. Controller and middleware
// references are opaque strings; nothing in this package interprets or
// invokes them.
type Route struct {
	name         string
	path         string
	controller   string
	middleware   string
	language     string
	methods      map[string]bool
	requirements map[string]string
}

// Name returns the unique name of the route.
func (r *Route) Name() string {
	return r.name
}

// Path returns the route's path template.
func (r *Route) Path() string {
	return r.path
}

// Controller returns the route's controller reference.
func (r *Route) Controller() string {
	return r.controller
}

// Middleware returns the route's middleware reference, or the empty string
// when none is declared.
func (r *Route) Middleware() string {
	return r.middleware
}

// Language returns the route's language declaration: either a fixed value or
// the name of a placeholder to resolve it from.
func (r *Route) Language() string {
	return r.language
}

// Methods returns the route's allowed methods, lower-cased and sorted.
func (r *Route) Methods() []string {
	methods := make([]string, 0, len(r.methods))
	for m := range r.methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// AllowsMethod reports whether the route accepts the given HTTP method,
// regardless of case.
func (r *Route) AllowsMethod(method string) bool {
	return r.methods[strings.ToLower(method)]
}

// Requirements returns a copy of the route's placeholder requirement
// patterns.
func (r *Route) Requirements() map[string]string {
	requirements := make(map[string]string, len(r.requirements))
	for name, pattern := range r.requirements {
		requirements[name] = pattern
	}
	return requirements
}

// Requirement returns the requirement pattern declared for a placeholder.
func (r *Route) Requirement(placeholder string) (string, bool) {
	pattern, ok := r.requirements[placeholder]
	return pattern, ok
}

// resolveLanguage resolves the route's language declaration against matched
// placeholder values: a declaration naming a placeholder yields the matched
// value, anything else is taken literally.
func (r *Route) resolveLanguage(params map[string]string) string {
	if value, ok := params[r.language]; ok {
		return value
	}
	return r.language
}

// Resolution is the result of matching a request path and method against the
// table: the winning route plus the values its placeholders captured.
type Resolution struct {
	Route    *Route
	Params   map[string]string
	Language string
}

// entry pairs a route with its compiled matcher.
type entry struct {
	route   *Route
	matcher *matcher
}

// table is the ordered, name-indexed route collection. It is immutable after
// construction; reloads build a whole new table.
type table struct {
	entries []*entry
	byName  map[string]*entry
}
