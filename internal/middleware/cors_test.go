package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		allowed         []string
		method          string
		origin          string
		expectedStatus  int
		expectedOrigin  string
		withCredentials bool
	}{
		{name: "preflight with any origin", method: http.MethodOptions, origin: "https://ngo.example", expectedStatus: http.StatusNoContent, expectedOrigin: "*"},
		{name: "GET with any origin", method: http.MethodGet, expectedStatus: http.StatusOK, expectedOrigin: "*"},
		{
			name: "listed origin", allowed: []string{"https://ngo.example"}, method: http.MethodPost,
			origin: "https://ngo.example", expectedStatus: http.StatusOK, expectedOrigin: "https://ngo.example", withCredentials: true,
		},
		{
			name: "unlisted origin", allowed: []string{"https://ngo.example"}, method: http.MethodGet,
			origin: "https://evil.example", expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed...))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "test"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, corsAllowMethods, w.Header().Get("Access-Control-Allow-Methods"))
			if tt.withCredentials {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders(), NoCache())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
}
