package jwtauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Sub: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", Middleware(testSecret), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": claims.Sub})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ValidToken(t *testing.T) {
	router := protectedRouter()
	token := signedToken(t, testSecret, time.Now().Add(time.Hour))

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sub":"admin"`)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	w := doRequest(protectedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	w := doRequest(protectedRouter(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_WrongSecret(t *testing.T) {
	token := signedToken(t, "other-secret", time.Now().Add(time.Hour))
	w := doRequest(protectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	token := signedToken(t, testSecret, time.Now().Add(-time.Hour))
	w := doRequest(protectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
