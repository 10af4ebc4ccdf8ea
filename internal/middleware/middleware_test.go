package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"multisig_wallet/internal/db/dbtest"
	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, secret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", bearer(t, 5), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	db := dbtest.Open(t)
	admin := domain.User{Username: "root", Password: "x", Role: domain.RoleAdmin}
	user := domain.User{Username: "alice", Password: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&user).Error)

	r := gin.New()
	r.GET("/admin", JWTAuthMiddleware(secret), AdminOnlyMiddleware(db), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for name, tt := range map[string]struct {
		userID uint
		status int
	}{
		"admin":   {admin.ID, http.StatusNoContent},
		"user":    {user.ID, http.StatusForbidden},
		"unknown": {999, http.StatusForbidden},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", bearer(t, tt.userID))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
