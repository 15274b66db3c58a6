package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"naviauto/api/internal/middleware"
	"naviauto/api/internal/models"
	"naviauto/api/internal/security"
	"naviauto/api/internal/service"
)

type registerRequest struct {
	LoginID  string  `json:"login_id" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
}

type userSummary struct {
	ID         int64  `json:"id"`
	UserHandle string `json:"user_id"`
	LoginID    string `json:"login_id"`
	Name       string `json:"name"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		LoginID:  req.LoginID,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"user": userSummary{
			ID:         user.ID,
			UserHandle: user.UserHandle,
			LoginID:    user.LoginID,
			Name:       user.Name,
		},
	})
}

type loginRequest struct {
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid, sess, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		LoginID:   req.LoginID,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	if err := h.setSessionCookie(c, sid); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                   true,
		"must_change_password": sess.MustChangePassword,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if value, err := c.Cookie(h.cfg.Security.CookieName); err == nil && value != "" {
		if sid, err := security.ParseSessionCookie(value, h.cfg.Security.SessionSecret); err == nil {
			_ = h.auth.Logout(c.Request.Context(), sid)
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) Me(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"user": gin.H{
			"id":                   sess.UserID,
			"user_id":              sess.UserHandle,
			"login_id":             sess.LoginID,
			"name":                 sess.Name,
			"role":                 sess.Role,
			"must_change_password": sess.MustChangePassword,
			"is_impersonated":      sess.IsImpersonated,
		},
	})
}

type profileResponse struct {
	ID            int64      `json:"id"`
	UserHandle    string     `json:"user_id"`
	LoginID       string     `json:"login_id"`
	Name          string     `json:"name"`
	Phone         *string    `json:"phone"`
	Email         *string    `json:"email"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	SuspendReason *string    `json:"suspend_reason"`
	JoinedAt      string     `json:"joined_at"`
	LastPaymentAt *string    `json:"last_payment_at"`
	PaidUntil     *string    `json:"paid_until"`
	ExpiresAt     string     `json:"expires_at"`
	SuspendedAt   *time.Time `json:"suspended_at"`
}

func toProfileResponse(u models.User) profileResponse {
	return profileResponse{
		ID:            u.ID,
		UserHandle:    u.UserHandle,
		LoginID:       u.LoginID,
		Name:          u.Name,
		Phone:         u.Phone,
		Email:         u.Email,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		SuspendReason: u.SuspendReason,
		JoinedAt:      u.JoinedAt.Format("2006-01-02"),
		LastPaymentAt: formatDate(u.LastPaymentAt),
		PaidUntil:     formatDate(u.PaidUntil),
		ExpiresAt:     u.ExpiresAt().Format("2006-01-02"),
		SuspendedAt:   u.SuspendedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func (h HandlerSet) MeDetail(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	user, err := h.auth.Profile(c.Request.Context(), sess.UserID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": toProfileResponse(user)})
}

type updateProfileRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), middleware.SessionIDFrom(c), sess, service.ProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": toProfileResponse(user)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), sess.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, sessionID string) error {
	value, err := security.EncodeSessionCookie(h.cfg.Security.SessionSecret, sessionID, h.cfg.Security.SessionTTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.Security.CookieName,
		value,
		int(h.cfg.Security.SessionTTL.Seconds()),
		"/",
		"",
		h.cfg.Security.CookieSecure,
		true,
	)
	return nil
}

func (h HandlerSet) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
}
