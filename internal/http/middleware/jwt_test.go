package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sajda/internal/auth"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/middleware"
)

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		sub, _ := middleware.CurrentSubject(c)
		c.String(http.StatusOK, sub)
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := newRouter("secret")
	good, err := auth.GenerateJWT("user-9", "secret", time.Hour)
	require.NoError(t, err)
	forged, err := auth.GenerateJWT("user-9", "other", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "user-9", w.Body.String())
			}
		})
	}
}
