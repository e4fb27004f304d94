package router

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeset/routeset/config"
)

// testRecords mirrors the reference route file: a literal home route and a
// parameterized user route with a numeric id requirement.
func testRecords() []config.Record {
	return []config.Record{
		{
			Name:       "home",
			Path:       "/",
			Controller: "home_controller::index",
			Methods:    "get",
		},
		{
			Name:         "user",
			Path:         "/user/{id}",
			Controller:   "user_controller::crud",
			Middleware:   "user_middleware::test",
			Methods:      "get, post, delete, put",
			Requirements: map[string]string{"id": "^[0-9]+"},
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Len(t, r.Routes(), 2)
}

func TestNew_DuplicateRouteName(t *testing.T) {
	t.Parallel()

	records := []config.Record{
		{Name: "home", Path: "/", Methods: "get"},
		{Name: "home", Path: "/other", Methods: "get"},
	}

	_, err := New(records)
	require.Error(t, err)

	var dupErr *DuplicateRouteNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "home", dupErr.Name)
	assert.True(t, errors.Is(err, ErrInvalidRoute))
}

func TestNew_EmptyMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		methods string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"commas only", ", ,"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New([]config.Record{{Name: "home", Path: "/", Methods: tc.methods}})
			require.Error(t, err)

			var emptyErr *EmptyMethodsError
			require.ErrorAs(t, err, &emptyErr)
			assert.Equal(t, "home", emptyErr.Route)
		})
	}
}

func TestNew_UndeclaredRequirement(t *testing.T) {
	t.Parallel()

	records := []config.Record{{
		Name:         "user",
		Path:         "/user/{id}",
		Methods:      "get",
		Requirements: map[string]string{"slug": "[a-z]+"},
	}}

	_, err := New(records)
	require.Error(t, err)

	var undeclaredErr *UndeclaredRequirementError
	require.ErrorAs(t, err, &undeclaredErr)
	assert.Equal(t, "user", undeclaredErr.Route)
	assert.Equal(t, "slug", undeclaredErr.Placeholder)
}

func TestNew_InvalidRequirementPattern(t *testing.T) {
	t.Parallel()

	records := []config.Record{{
		Name:         "user",
		Path:         "/user/{id}",
		Methods:      "get",
		Requirements: map[string]string{"id": "[0-9"},
	}}

	_, err := New(records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRoute))
}

func TestRouter_GetRoute(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	tests := []struct {
		path     string
		method   string
		expected string
		match    bool
	}{
		{"/", "get", "home", true},
		{"/", "GET", "home", true},
		{"/", "post", "", false},
		{"/user/101", "get", "user", true},
		{"/user/101", "put", "user", true},
		{"/user/101", "patch", "", false},
		{"/user/abc", "get", "", false},
		{"/unknown", "get", "", false},
		{"/x", "get", "", false},
	}

	for _, tc := range tests {
		route, ok := r.GetRoute(tc.path, tc.method)
		if tc.match {
			require.True(t, ok, "%s %s should match", tc.method, tc.path)
			assert.Equal(t, tc.expected, route.Name(), "%s %s", tc.method, tc.path)
		} else {
			assert.False(t, ok, "%s %s should not match", tc.method, tc.path)
			assert.Nil(t, route)
		}
	}
}

func TestRouter_GetRoute_NormalizedFields(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	home, ok := r.GetRoute("/", "get")
	require.True(t, ok)
	assert.Equal(t, "home", home.Name())
	assert.Equal(t, "/", home.Path())
	assert.Equal(t, "home_controller::index", home.Controller())
	assert.Equal(t, "", home.Middleware())
	assert.Equal(t, []string{"get"}, home.Methods())

	user, ok := r.GetRoute("/user/101", "DELETE")
	require.True(t, ok)
	assert.Equal(t, []string{"delete", "get", "post", "put"}, user.Methods())
	assert.True(t, user.AllowsMethod("POST"))
	assert.False(t, user.AllowsMethod("patch"))

	pattern, ok := user.Requirement("id")
	require.True(t, ok)
	assert.Equal(t, "^[0-9]+", pattern)
	assert.Equal(t, map[string]string{"id": "^[0-9]+"}, user.Requirements())
}

func TestRouter_Precedence(t *testing.T) {
	t.Parallel()

	// Both templates match /user/special; the earlier declaration wins.
	records := []config.Record{
		{Name: "special", Path: "/user/special", Methods: "get"},
		{Name: "user", Path: "/user/{id}", Methods: "get"},
	}

	r, err := New(records)
	require.NoError(t, err)

	route, ok := r.GetRoute("/user/special", "get")
	require.True(t, ok)
	assert.Equal(t, "special", route.Name())

	route, ok = r.GetRoute("/user/other", "get")
	require.True(t, ok)
	assert.Equal(t, "user", route.Name())
}

func TestRouter_Precedence_DeclarationOrderNotSpecificity(t *testing.T) {
	t.Parallel()

	// Declared general-first: the general route shadows the specific one.
	records := []config.Record{
		{Name: "user", Path: "/user/{id}", Methods: "get"},
		{Name: "special", Path: "/user/special", Methods: "get"},
	}

	r, err := New(records)
	require.NoError(t, err)

	route, ok := r.GetRoute("/user/special", "get")
	require.True(t, ok)
	assert.Equal(t, "user", route.Name())
}

func TestRouter_Resolve(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	res, ok := r.Resolve("/user/101", "post")
	require.True(t, ok)
	assert.Equal(t, "user", res.Route.Name())
	assert.Equal(t, map[string]string{"id": "101"}, res.Params)

	res, ok = r.Resolve("/", "get")
	require.True(t, ok)
	assert.Empty(t, res.Params)

	_, ok = r.Resolve("/user/101", "patch")
	assert.False(t, ok)
}

func TestRouter_Resolve_Language(t *testing.T) {
	t.Parallel()

	records := []config.Record{
		{
			Name:         "about",
			Path:         "/{locale}/about",
			Methods:      "get",
			Requirements: map[string]string{"locale": "[a-z]{2}"},
			Language:     "locale",
		},
		{
			Name:     "legal",
			Path:     "/legal",
			Methods:  "get",
			Language: "en",
		},
	}

	r, err := New(records)
	require.NoError(t, err)

	// Language declared as a placeholder name resolves to the matched value.
	res, ok := r.Resolve("/de/about", "get")
	require.True(t, ok)
	assert.Equal(t, "de", res.Language)

	// Language declared as a literal is reported as-is.
	res, ok = r.Resolve("/legal", "get")
	require.True(t, ok)
	assert.Equal(t, "en", res.Language)
}

func TestRouter_GetURI(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	uri, err := r.GetURI("home", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "/", uri)

	uri, err = r.GetURI("user", map[string]string{"id": "101"})
	require.NoError(t, err)
	assert.Equal(t, "/user/101", uri)
}

func TestRouter_GetURI_RequirementMismatch(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	_, err = r.GetURI("user", map[string]string{"id": "abc"})
	require.Error(t, err)

	var mismatchErr *RequirementMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, "id", mismatchErr.Placeholder)
	assert.Equal(t, "abc", mismatchErr.Value)
	assert.Equal(t, "^[0-9]+", mismatchErr.Pattern)
}

func TestRouter_GetURI_RouteNotFound(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	_, err = r.GetURI("nonexistent", map[string]string{})
	require.Error(t, err)

	var notFoundErr *RouteNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "nonexistent", notFoundErr.Name)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRouter_GetURI_MissingParameter(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	_, err = r.GetURI("user", nil)
	require.Error(t, err)

	var missingErr *MissingParameterError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "id", missingErr.Placeholder)
}

func TestRouter_GetURI_SharedParameterBag(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	// Extra parameters are ignored, so one bag can serve several routes.
	bag := map[string]string{"id": "7", "page": "2", "sort": "asc"}

	uri, err := r.GetURI("user", bag)
	require.NoError(t, err)
	assert.Equal(t, "/user/7", uri)

	uri, err = r.GetURI("home", bag)
	require.NoError(t, err)
	assert.Equal(t, "/", uri)
}

func TestRouter_RoundTrip(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	params := map[string]string{"id": "8675309"}
	uri, err := r.GetURI("user", params)
	require.NoError(t, err)

	res, ok := r.Resolve(uri, "get")
	require.True(t, ok)
	assert.Equal(t, "user", res.Route.Name())
	assert.Equal(t, params, res.Params)
}

func TestRouter_Idempotence(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		route, ok := r.GetRoute("/user/101", "get")
		require.True(t, ok)
		assert.Equal(t, "user", route.Name())

		uri, err := r.GetURI("user", map[string]string{"id": "101"})
		require.NoError(t, err)
		assert.Equal(t, "/user/101", uri)
	}
}

func TestRouter_NameLookup(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	route, ok := r.Route("user")
	require.True(t, ok)
	assert.Equal(t, "user", route.Name())

	_, ok = r.Route("nonexistent")
	assert.False(t, ok)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "home", routes[0].Name())
	assert.Equal(t, "user", routes[1].Name())
}

func TestRouter_Reload(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	err = r.Reload([]config.Record{
		{Name: "status", Path: "/status", Methods: "get"},
	})
	require.NoError(t, err)

	_, ok := r.GetRoute("/", "get")
	assert.False(t, ok)

	route, ok := r.GetRoute("/status", "get")
	require.True(t, ok)
	assert.Equal(t, "status", route.Name())
}

func TestRouter_Reload_FailureKeepsCurrentTable(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	err = r.Reload([]config.Record{
		{Name: "broken", Path: "/x/{id}", Methods: "get", Requirements: map[string]string{"id": "["}},
	})
	require.Error(t, err)

	// The previous table must still be serving.
	route, ok := r.GetRoute("/", "get")
	require.True(t, ok)
	assert.Equal(t, "home", route.Name())
}

func TestRouter_ConcurrentLookups(t *testing.T) {
	t.Parallel()

	r, err := New(testRecords())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("%d%d", n, j)
				uri, err := r.GetURI("user", map[string]string{"id": id})
				assert.NoError(t, err)

				res, ok := r.Resolve(uri, "get")
				assert.True(t, ok)
				assert.Equal(t, id, res.Params["id"])
			}
		}(i)
	}
	wg.Wait()
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r, err := New(testRecords(), WithMetrics(reg))
	require.NoError(t, err)

	r.GetRoute("/", "get")
	r.GetRoute("/missing", "get")
	r.GetRoute("/user/101", "patch")

	_, _ = r.GetURI("user", map[string]string{"id": "101"})
	_, _ = r.GetURI("user", map[string]string{"id": "abc"})
	_, _ = r.GetURI("nonexistent", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.lookups.WithLabelValues(resultMatch)))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.metrics.lookups.WithLabelValues(resultNoMatch)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.generations.WithLabelValues(resultOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.metrics.generations.WithLabelValues(resultError)))
}

func BenchmarkRouter_GetRoute(b *testing.B) {
	records := []config.Record{
		{Name: "home", Path: "/", Methods: "get"},
		{Name: "users", Path: "/v1/users/{id}", Methods: "get, post", Requirements: map[string]string{"id": "[0-9]+"}},
		{Name: "orders", Path: "/v1/orders/{id}", Methods: "get", Requirements: map[string]string{"id": "[0-9]+"}},
		{Name: "products", Path: "/v1/products/{slug}", Methods: "get"},
		{Name: "health", Path: "/health", Methods: "get"},
	}

	r, err := New(records)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.GetRoute("/v1/users/123", "get")
	}
}

func BenchmarkRouter_GetURI(b *testing.B) {
	r, err := New(testRecords())
	if err != nil {
		b.Fatal(err)
	}

	params := map[string]string{"id": "101"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.GetURI("user", params); err != nil {
			b.Fatal(err)
		}
	}
}
