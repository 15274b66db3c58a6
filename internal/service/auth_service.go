package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"naviauto/api/internal/ids"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
	"naviauto/api/internal/security"
)

const expiredSuspendReason = "subscription expired"

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByLoginID(ctx context.Context, loginID string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	Suspend(ctx context.Context, id int64, defaultReason string) error
	UpdateProfile(ctx context.Context, id int64, name string, phone, email *string) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash []byte) error
}

// SessionStore is the server-side session storage contract.
type SessionStore interface {
	Create(ctx context.Context, sess models.Session) (string, error)
	Get(ctx context.Context, id string) (models.Session, error)
	Replace(ctx context.Context, id string, sess models.Session) error
	Delete(ctx context.Context, id string) error
}

// AuditStore records authentication attempts.
type AuditStore interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	audit    AuditStore
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, audit AuditStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		log:      log,
	}
}

type RegisterInput struct {
	LoginID  string
	Password string
	Name     string
	Phone    *string
	Email    *string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.LoginID = strings.TrimSpace(input.LoginID)
	input.Name = strings.TrimSpace(input.Name)

	if input.LoginID == "" || input.Password == "" || input.Name == "" {
		return models.User{}, validationErr("login_id, password and name are required")
	}
	if len(input.Password) < 8 {
		return models.User{}, validationErr("password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		UserHandle:   ids.NewUserHandle(),
		LoginID:      input.LoginID,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		Role:         models.UserRoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return models.User{}, ErrLoginIDTaken
		}
		return models.User{}, err
	}
	return user, nil
}

type LoginInput struct {
	LoginID   string
	Password  string
	IPAddress string
	UserAgent string
}

// Login verifies credentials, lazily enforces subscription expiry and on
// success creates a server-side session, returning its id. "No such
// account" and "wrong password" are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, models.Session, error) {
	input.LoginID = strings.TrimSpace(input.LoginID)
	if input.LoginID == "" || input.Password == "" {
		return "", models.Session{}, validationErr("login_id and password are required")
	}

	user, err := s.users.FindByLoginID(ctx, input.LoginID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.auditLogin(ctx, input, nil, models.AuditOutcomeFailure, "unknown login id")
			return "", models.Session{}, ErrInvalidCredentials
		}
		return "", models.Session{}, err
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		s.auditLogin(ctx, input, &user.ID, models.AuditOutcomeFailure, "password mismatch")
		return "", models.Session{}, ErrInvalidCredentials
	}

	now := time.Now()
	if user.Expired(now) {
		if err := s.users.Suspend(ctx, user.ID, expiredSuspendReason); err != nil {
			s.log.Error().Err(err).Int64("user_id", user.ID).Msg("expiry suspension failed")
		}
		s.auditLogin(ctx, input, &user.ID, models.AuditOutcomeFailure, "subscription expired")
		return "", models.Session{}, &AccountExpiredError{ExpiredAt: user.ExpiresAt()}
	}

	if !user.IsActive {
		s.auditLogin(ctx, input, &user.ID, models.AuditOutcomeFailure, "account suspended")
		return "", models.Session{}, ErrAccountSuspended
	}

	sess := models.NewSession(user)
	sid, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return "", models.Session{}, err
	}

	s.auditLogin(ctx, input, &user.ID, models.AuditOutcomeSuccess, "login ok")
	return sid, sess, nil
}

func (s *AuthService) auditLogin(ctx context.Context, input LoginInput, userID *int64, outcome models.AuditOutcome, msg string) {
	err := s.audit.Append(ctx, models.AuditEntry{
		Kind:      models.AuditKindLogin,
		Outcome:   outcome,
		LoginID:   input.LoginID,
		UserID:    userID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Message:   msg,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("login_id", input.LoginID).Msg("audit append failed")
	}
}

// Logout destroys the session. Idempotent: a missing session is not an
// error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Msg("session delete failed")
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

type ProfileInput struct {
	Name  string
	Phone *string
	Email *string
}

// UpdateProfile persists the profile edit and refreshes the session's
// cached display name.
func (s *AuthService) UpdateProfile(ctx context.Context, sessionID string, sess models.Session, input ProfileInput) (models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.User{}, validationErr("name is required")
	}

	user, err := s.users.UpdateProfile(ctx, sess.UserID, input.Name, input.Phone, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	sess.Name = user.Name
	if err := s.sessions.Replace(ctx, sessionID, sess); err != nil {
		s.log.Warn().Err(err).Msg("session refresh failed")
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return validationErr("current and new password are required")
	}
	if err := security.ValidatePasswordPolicy(newPassword); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !security.VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}
