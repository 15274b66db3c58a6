package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"naviauto/api/internal/service"
)

type findIDRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// FindLoginID handles the masked "find my login id" lookup. An empty
// result list and a populated one share the same response shape.
func (h HandlerSet) FindLoginID(c *gin.Context) {
	var req findIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.recovery.FindLoginIDs(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	results := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		results = append(results, gin.H{
			"login_id":  m.LoginID,
			"joined_at": m.JoinedAt.Format("2006-01-02"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "results": results})
}

type reissueRequest struct {
	LoginID string `json:"login_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
}

func (h HandlerSet) ReissueTempPassword(c *gin.Context) {
	var req reissueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tempPassword, err := h.recovery.ReissueTempPassword(c.Request.Context(), service.ReissueInput{
		LoginID: req.LoginID,
		Name:    req.Name,
		Email:   req.Email,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "temp_password": tempPassword})
}

type recoverLoginIDRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

func (h HandlerSet) RecoverLoginID(c *gin.Context) {
	var req recoverLoginIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	masked, found, err := h.recovery.FindLoginIDByPhone(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "login_id_masked": masked})
}

type resetRequestRequest struct {
	LoginID string `json:"login_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

func (h HandlerSet) RequestPasswordReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.recovery.RequestReset(c.Request.Context(), req.LoginID, req.Name, req.Phone)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	if token != "" && !h.cfg.IsProduction() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "dev_token": token})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type resetConfirmRequest struct {
	LoginID     string `json:"login_id" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h HandlerSet) ConfirmPasswordReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.recovery.ConfirmReset(c.Request.Context(), req.LoginID, req.Token, req.NewPassword); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
