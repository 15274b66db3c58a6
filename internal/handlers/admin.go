package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"naviauto/api/internal/middleware"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
)

const adminListLimit = 50

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	q := c.Query("q")

	users, err := h.users.Search(c.Request.Context(), q, adminListLimit)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	out := make([]profileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfileResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

type adminUpdateRequest struct {
	Role          string  `json:"role"`
	IsActive      *bool   `json:"is_active"`
	PaidUntil     *string `json:"paid_until"`
	LastPaymentAt *string `json:"last_payment_at"`
	SuspendReason *string `json:"suspend_reason"`
}

func (h HandlerSet) AdminUpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.UserRoleUser
	if models.UserRole(req.Role) == models.UserRoleAdmin {
		role = models.UserRoleAdmin
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	paidUntil, err := parseDatePtr(req.PaidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid_until must be YYYY-MM-DD"})
		return
	}
	lastPaymentAt, err := parseDatePtr(req.LastPaymentAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last_payment_at must be YYYY-MM-DD"})
		return
	}

	// Reason only applies while suspending; re-activation clears it in
	// the same statement.
	var reason *string
	if !isActive && req.SuspendReason != nil && *req.SuspendReason != "" {
		reason = req.SuspendReason
	}

	user, err := h.users.AdminUpdate(c.Request.Context(), id, repository.AdminUpdateParams{
		Role:          role,
		IsActive:      isActive,
		PaidUntil:     paidUntil,
		LastPaymentAt: lastPaymentAt,
		SuspendReason: reason,
	})
	if err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": toProfileResponse(user)})
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h HandlerSet) BeginImpersonation(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	targetID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if _, err := h.impersonation.Begin(c.Request.Context(), middleware.SessionIDFrom(c), sess, targetID); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirectUrl": "/records"})
}

func (h HandlerSet) ExitImpersonation(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	if _, err := h.impersonation.End(c.Request.Context(), middleware.SessionIDFrom(c), sess); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirectUrl": "/admin"})
}
