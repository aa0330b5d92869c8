package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockParser struct {
	ParseFunc func(token string) (*service.Claims, error)
}

func (m *mockParser) ParseToken(token string) (*service.Claims, error) {
	return m.ParseFunc(token)
}

func newEngine(parser TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(parser, "/health", "/api/auth/"))
	handler := func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.UserID)
	}
	r.GET("/health", handler)
	r.POST("/api/auth/login", handler)
	r.GET("/api/projects", handler)
	return r
}

func TestAuth(t *testing.T) {
	parser := &mockParser{ParseFunc: func(token string) (*service.Claims, error) {
		if token == "good" {
			return &service.Claims{UserID: "jeff"}, nil
		}
		return nil, errors.New("bad token")
	}}
	r := newEngine(parser)

	cases := []struct {
		name   string
		method string
		path   string
		header string
		status int
		body   string
	}{
		{"health skipped", http.MethodGet, "/health", "", http.StatusOK, "anonymous"},
		{"login skipped", http.MethodPost, "/api/auth/login", "", http.StatusOK, "anonymous"},
		{"missing token", http.MethodGet, "/api/projects", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/projects", "Basic good", http.StatusUnauthorized, ""},
		{"invalid token", http.MethodGet, "/api/projects", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", http.MethodGet, "/api/projects", "Bearer good", http.StatusOK, "jeff"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
