package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naviauto/api/internal/config"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
	"naviauto/api/internal/security"
)

type staticSessions struct {
	sessions map[string]models.Session
}

func (s *staticSessions) Get(_ context.Context, id string) (models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return sess, nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
			CookieName:    "naviauto_session",
		},
	}
}

func newAuthRouter(t *testing.T, cfg *config.AppConfig, sessions SessionLoader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/me", RequireSession(cfg, sessions), func(c *gin.Context) {
		sess, _ := SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"loginId": sess.LoginID, "sid": SessionIDFrom(c)})
	})
	r.GET("/admin", RequireSession(cfg, sessions), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func sessionCookie(t *testing.T, cfg *config.AppConfig, sid string) *http.Cookie {
	t.Helper()
	value, err := security.EncodeSessionCookie(cfg.Security.SessionSecret, sid, cfg.Security.SessionTTL)
	require.NoError(t, err)
	return &http.Cookie{Name: cfg.Security.CookieName, Value: value}
}

func TestRequireSession(t *testing.T) {
	cfg := testConfig()
	sessions := &staticSessions{sessions: map[string]models.Session{
		"sid-1": {UserID: 1, LoginID: "kim1", Role: models.UserRoleUser},
	}}
	router := newAuthRouter(t, cfg, sessions)

	t.Run("no cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "login_required")
	})

	t.Run("tampered cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: cfg.Security.CookieName, Value: "garbage"})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_session")
	})

	t.Run("valid cookie but session gone", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(sessionCookie(t, cfg, "sid-gone"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "session_expired")
	})

	t.Run("valid session", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(sessionCookie(t, cfg, "sid-1"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "kim1")
		assert.Contains(t, w.Body.String(), "sid-1")
	})
}

func TestRequireAdmin(t *testing.T) {
	cfg := testConfig()
	sessions := &staticSessions{sessions: map[string]models.Session{
		"sid-user":  {UserID: 1, LoginID: "kim1", Role: models.UserRoleUser},
		"sid-admin": {UserID: 2, LoginID: "boss", Role: models.UserRoleAdmin},
		// While impersonating, the effective role is the target's.
		"sid-imp": {UserID: 1, LoginID: "kim1", Role: models.UserRoleUser, AdminID: 2, IsImpersonated: true},
	}}
	router := newAuthRouter(t, cfg, sessions)

	cases := []struct {
		name string
		sid  string
		code int
	}{
		{"plain user forbidden", "sid-user", http.StatusForbidden},
		{"admin allowed", "sid-admin", http.StatusOK},
		{"impersonating admin forbidden", "sid-imp", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(sessionCookie(t, cfg, tc.sid))
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}
