package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// httptest.NewRecorder() captures the response without starting a real
// server. Combined with gin's test mode, this tests middleware in isolation.

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		header string
		query  string
		want   int
	}{
		{"valid header", []string{"test-key-1", "test-key-2"}, "test-key-1", "", http.StatusOK},
		{"valid query param", []string{"test-key"}, "", "test-key", http.StatusOK},
		{"missing", []string{"test-key"}, "", "", http.StatusUnauthorized},
		{"invalid", []string{"test-key"}, "wrong-key", "", http.StatusUnauthorized},
		{"no keys configured is open", nil, "", "", http.StatusOK},
		{"blank keys are ignored", []string{""}, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(APIKeyAuth(tt.keys))

			target := "/test"
			if tt.query != "" {
				target += "?api_key=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAdminKeyAuth_Valid(t *testing.T) {
	router := newRouter(AdminKeyAuth([]string{"admin-key"}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "admin-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAdminKeyAuth_Invalid(t *testing.T) {
	router := newRouter(AdminKeyAuth([]string{"admin-key"}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "not-admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
