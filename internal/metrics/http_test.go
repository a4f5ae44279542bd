package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/quotes/Q-1718900000000-1", "/api/quotes/{id}"},
		{"/api/quotes/Q-1718900000000-12/document", "/api/quotes/{id}/document"},
		{"/admin/quotes/Q-1-2/approve", "/admin/quotes/{id}/approve"},
		{"/api/pricing", "/api/pricing"},
		{"/admin/quotes/summary", "/admin/quotes/summary"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

func TestMiddleware_PassesThroughStatus(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		status  int
		want    string
	}{
		{"mux pattern with method", "GET /api/quotes/{id}", "/api/quotes/Q-1-1", 200, "/api/quotes/{id}"},
		{"mux pattern without method", "/", "/anything", 404, "/"},
		{"no pattern", "", "/api/quotes/Q-1-1/document", 200, "/api/quotes/{id}/document"},
		{"no pattern not found", "", "/wp-login.php", 404, "unmatched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Pattern = tt.pattern
			assert.Equal(t, tt.want, routeLabel(req, tt.status))
		})
	}
}

func TestMiddleware_UsesMuxPattern(t *testing.T) {
	mux := http.NewServeMux()
	var seen string
	mux.HandleFunc("GET /api/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Pattern
	})

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/Q-1-1", nil)
	Middleware(mux).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "GET /api/quotes/{id}", seen)
	assert.Equal(t, "/api/quotes/{id}", routeLabel(req, http.StatusOK))
}
