package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"naviauto/api/internal/config"
	"naviauto/api/internal/middleware"
	"naviauto/api/internal/repository"
	"naviauto/api/internal/service"
	"naviauto/api/internal/storage"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	db            *pgxpool.Pool
	cache         *redis.Client
	auth          *service.AuthService
	recovery      *service.RecoveryService
	impersonation *service.ImpersonationService
	export        *service.ExportService
	users         *repository.UserRepository
	records       *repository.RecordRepository
	sessions      *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	sessionRepo := repository.NewSessionRepository(cache, cfg.Security.SessionTTL)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		db:            db,
		cache:         cache,
		auth:          service.NewAuthService(userRepo, sessionRepo, auditRepo, log),
		recovery:      service.NewRecoveryService(userRepo, cfg.Security, log),
		impersonation: service.NewImpersonationService(userRepo, sessionRepo, log),
		export:        service.NewExportService(recordRepo, store, log),
		users:         userRepo,
		records:       recordRepo,
		sessions:      sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/register", h.RegisterUser)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	router.POST("/find-id", h.FindLoginID)
	router.POST("/reset-password", h.ReissueTempPassword)

	recovery := router.Group("/recover")
	{
		recovery.POST("/login-id", h.RecoverLoginID)
		recovery.POST("/password/request", h.RequestPasswordReset)
		recovery.POST("/password/confirm", h.ConfirmPasswordReset)
	}

	me := router.Group("/me")
	me.Use(middleware.RequireSession(h.cfg, h.sessions))
	{
		me.GET("", h.Me)
		me.GET("/detail", h.MeDetail)
		me.PATCH("/profile", h.UpdateProfile)
		me.PATCH("/password", h.ChangePassword)
	}

	repairs := router.Group("/repairs")
	repairs.Use(middleware.RequireSession(h.cfg, h.sessions))
	{
		repairs.GET("", h.ListRecords)
		repairs.POST("", h.CreateRecord)
		repairs.PUT("", h.UpdateRecord)
		repairs.DELETE("/:id", h.DeleteRecord)
		repairs.POST("/:id/guide-done", h.MarkGuideDone)
		repairs.GET("/export", h.ExportRecords)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.RequireSession(h.cfg, h.sessions))
	{
		// Impersonation is authorized by role or by the session's admin
		// anchor, not by the current role alone: while impersonating,
		// the role is the target's, yet retargeting and exiting must
		// stay reachable. The service checks the anchor.
		admin.POST("/impersonate/:userId", h.BeginImpersonation)
		admin.POST("/exit-impersonate", h.ExitImpersonation)

		adminOnly := admin.Group("")
		adminOnly.Use(middleware.RequireAdmin())
		{
			adminOnly.GET("/users", h.AdminListUsers)
			adminOnly.PATCH("/users/:id", h.AdminUpdateUser)
		}
	}
}

// serviceError maps service failures onto the HTTP error taxonomy.
func (h HandlerSet) serviceError(c *gin.Context, err error) {
	var (
		vErr   *service.ValidationError
		expErr *service.AccountExpiredError
		rlErr  *service.RateLimitError
	)

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login id or password"})
	case errors.As(err, &expErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":      expErr.Error(),
			"expired_at": expErr.ExpiredAt.Format("2006-01-02"),
		})
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is suspended"})
	case errors.Is(err, service.ErrAdminRequired):
		c.JSON(http.StatusForbidden, gin.H{"error": "admin_only"})
	case errors.Is(err, service.ErrLoginIDTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "login id already exists"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrSelfImpersonation),
		errors.Is(err, service.ErrNoImpersonation),
		errors.Is(err, service.ErrRecoveryMismatch),
		errors.Is(err, service.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rlErr):
		c.Header("Retry-After", strconv.Itoa(int(rlErr.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rlErr.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
