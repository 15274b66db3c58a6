package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"naviauto/api/internal/config"
	"naviauto/api/internal/models"
	"naviauto/api/internal/security"
)

const (
	ctxSessionKey   = "session"
	ctxSessionIDKey = "session_id"
)

// SessionLoader resolves a session id to its server-side payload.
type SessionLoader interface {
	Get(ctx context.Context, id string) (models.Session, error)
}

// RequireSession authenticates the request from the session cookie:
// verify the cookie signature, then load the payload from the session
// store. Any failure is a uniform 401.
func RequireSession(cfg *config.AppConfig, sessions SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(cfg.Security.CookieName)
		if err != nil || value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
			return
		}

		sid, err := security.ParseSessionCookie(value, cfg.Security.SessionSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_session"})
			return
		}

		sess, err := sessions.Get(c.Request.Context(), sid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			return
		}

		c.Set(ctxSessionIDKey, sid)
		c.Set(ctxSessionKey, sess)

		c.Next()
	}
}

// RequireAdmin must run after RequireSession. Note the impersonation
// exit route must NOT sit behind this gate: while impersonating, the
// current role is the target's.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
			return
		}
		if sess.Role != models.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_only"})
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (models.Session, bool) {
	val, exists := c.Get(ctxSessionKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := val.(models.Session)
	return sess, ok
}

func SessionIDFrom(c *gin.Context) string {
	return c.GetString(ctxSessionIDKey)
}
