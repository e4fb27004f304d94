// Package router compiles route definitions into a matchable table and
// resolves request paths to routes and route names back to literal URIs.
package router

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/routeset/routeset/config"
)

// Router is the public facade over the compiled route table. It is safe for
// concurrent use: the table is immutable and reloads swap it atomically.
type Router struct {
	table   atomic.Pointer[table]
	logger  *zap.Logger
	metrics *routerMetrics
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics registers lookup and generation counters on the given
// registerer. Without this option no metrics are recorded.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Router) {
		r.metrics = newRouterMetrics(reg)
	}
}

// New builds a Router from an ordered sequence of route records. Declaration
// order is the matching precedence order. Any invalid record fails the whole
// construction; a partially built Router is never returned.
func New(records []config.Record, opts ...Option) (*Router, error) {
	r := &Router{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	r.table.Store(t)

	return r, nil
}

// NewFromFile builds a Router from a YAML route source, which may be a file
// or a directory.
func NewFromFile(path string, opts ...Option) (*Router, error) {
	r := &Router{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	records, err := config.Load(path, config.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	r.table.Store(t)

	return r, nil
}

// buildTable validates and compiles records into a table, preserving input
// order.
func buildTable(records []config.Record) (*table, error) {
	t := &table{byName: make(map[string]*entry, len(records))}

	for _, rec := range records {
		if _, exists := t.byName[rec.Name]; exists {
			return nil, &DuplicateRouteNameError{Name: rec.Name}
		}

		methods, err := parseMethods(rec.Name, rec.Methods)
		if err != nil {
			return nil, err
		}

		m, err := newMatcher(rec.Name, rec.Path, rec.Requirements)
		if err != nil {
			return nil, err
		}

		requirements := make(map[string]string, len(rec.Requirements))
		for name, pattern := range rec.Requirements {
			requirements[name] = pattern
		}

		e := &entry{
			route: &Route{
				name:         rec.Name,
				path:         rec.Path,
				controller:   rec.Controller,
				middleware:   rec.Middleware,
				language:     rec.Language,
				methods:      methods,
				requirements: requirements,
			},
			matcher: m,
		}

		t.entries = append(t.entries, e)
		t.byName[rec.Name] = e
	}

	return t, nil
}

// parseMethods normalizes a comma-separated method declaration into a
// lower-cased set.
func parseMethods(route, declaration string) (map[string]bool, error) {
	methods := make(map[string]bool)
	for _, method := range strings.Split(declaration, ",") {
		method = strings.ToLower(strings.TrimSpace(method))
		if method == "" {
			continue
		}
		methods[method] = true
	}
	if len(methods) == 0 {
		return nil, &EmptyMethodsError{Route: route}
	}
	return methods, nil
}

// GetRoute returns the first route, in declaration order, whose method set
// contains the given method and whose compiled template matches the given
// path. It never errors; a miss is reported as a false second value, and a
// path match with a disallowed method is indistinguishable from no match at
// all.
func (r *Router) GetRoute(path, method string) (*Route, bool) {
	res, ok := r.Resolve(path, method)
	if !ok {
		return nil, false
	}
	return res.Route, true
}

// Resolve is GetRoute plus the captured placeholder values and the resolved
// language of the match.
func (r *Router) Resolve(path, method string) (*Resolution, bool) {
	method = strings.ToLower(method)
	t := r.table.Load()

	for _, e := range t.entries {
		// Method membership is the cheap check; skip the matcher on a miss.
		if !e.route.methods[method] {
			continue
		}
		params, ok := e.matcher.match(path)
		if !ok {
			continue
		}

		r.logger.Debug("route matched",
			zap.String("route", e.route.name),
			zap.String("path", path),
		)
		r.metrics.recordLookup(true)

		return &Resolution{
			Route:    e.route,
			Params:   params,
			Language: e.route.resolveLanguage(params),
		}, true
	}

	r.metrics.recordLookup(false)
	return nil, false
}

// GetURI produces the literal URI for a named route by substituting the
// given parameter values into its template. Parameters not referenced by any
// placeholder are ignored.
func (r *Router) GetURI(name string, params map[string]string) (string, error) {
	t := r.table.Load()

	e, ok := t.byName[name]
	if !ok {
		err := &RouteNotFoundError{Name: name}
		r.metrics.recordGeneration(err)
		return "", err
	}

	uri, err := e.matcher.generate(name, params)
	r.metrics.recordGeneration(err)
	return uri, err
}

// Route returns the route with the given name.
func (r *Router) Route(name string) (*Route, bool) {
	e, ok := r.table.Load().byName[name]
	if !ok {
		return nil, false
	}
	return e.route, true
}

// Routes returns all routes in declaration order.
func (r *Router) Routes() []*Route {
	t := r.table.Load()
	routes := make([]*Route, len(t.entries))
	for i, e := range t.entries {
		routes[i] = e.route
	}
	return routes
}

// Reload builds a complete new table from the given records and atomically
// swaps it in. Lookups in flight keep using the table they started with. On
// error the current table stays in place untouched.
func (r *Router) Reload(records []config.Record) error {
	t, err := buildTable(records)
	if err != nil {
		return err
	}

	r.table.Store(t)
	r.logger.Info("route table reloaded", zap.Int("routes", len(t.entries)))
	return nil
}
