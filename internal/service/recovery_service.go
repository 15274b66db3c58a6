package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"naviauto/api/internal/config"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
	"naviauto/api/internal/security"
)

const findIDLimit = 10

// RecoveryStore is the slice of the user repository the recovery flows
// need.
type RecoveryStore interface {
	FindByLoginID(ctx context.Context, loginID string) (models.User, error)
	SearchByNameEmail(ctx context.Context, name, email string, limit int) ([]repository.MaskedCandidate, error)
	FindByNamePhone(ctx context.Context, name, phoneDigits string) (models.User, error)
	SetRecoveryFailure(ctx context.Context, id int64, failCount int, lockedUntil *time.Time) error
	IssueTempPassword(ctx context.Context, id int64, hash []byte) error
	SetResetToken(ctx context.Context, id int64, token string, ttl time.Duration) error
	FindByResetToken(ctx context.Context, loginID, token string) (models.User, error)
	ConsumeResetToken(ctx context.Context, id int64, hash []byte) error
}

type RecoveryService struct {
	users RecoveryStore
	cfg   config.SecurityConfig
	log   zerolog.Logger
}

func NewRecoveryService(users RecoveryStore, cfg config.SecurityConfig, log zerolog.Logger) *RecoveryService {
	return &RecoveryService{users: users, cfg: cfg, log: log}
}

type MaskedLogin struct {
	LoginID  string
	JoinedAt time.Time
}

// FindLoginIDs implements the "find my login id" lookup. It never
// distinguishes zero matches from some: the caller just gets a possibly
// empty masked list, newest first.
func (s *RecoveryService) FindLoginIDs(ctx context.Context, name, email string) ([]MaskedLogin, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, validationErr("name and email are required")
	}

	candidates, err := s.users.SearchByNameEmail(ctx, name, email, findIDLimit)
	if err != nil {
		return nil, err
	}

	out := make([]MaskedLogin, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, MaskedLogin{
			LoginID:  security.MaskLoginID(c.LoginID),
			JoinedAt: c.JoinedAt,
		})
	}
	return out, nil
}

// FindLoginIDByPhone is the phone-keyed single-result variant. A miss is
// reported as found=false, never as an error.
func (s *RecoveryService) FindLoginIDByPhone(ctx context.Context, name, phone string) (string, bool, error) {
	name = strings.TrimSpace(name)
	digits := security.NormalizePhone(phone)
	if name == "" || digits == "" {
		return "", false, validationErr("name and phone are required")
	}

	user, err := s.users.FindByNamePhone(ctx, name, digits)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return security.MaskLoginID(user.LoginID), true, nil
}

type ReissueInput struct {
	LoginID string
	Name    string
	Email   string
}

// ReissueTempPassword runs the shown-in-browser temporary password flow:
// per-account mismatch lockout, per-account issuance cooldown, and on
// success the plaintext temp password is returned to the caller.
func (s *RecoveryService) ReissueTempPassword(ctx context.Context, input ReissueInput) (string, error) {
	input.LoginID = strings.TrimSpace(input.LoginID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.LoginID == "" || input.Name == "" || input.Email == "" {
		return "", validationErr("login_id, name and email are required")
	}

	now := time.Now()

	user, err := s.users.FindByLoginID(ctx, input.LoginID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same wording as a profile mismatch so accounts cannot be
			// enumerated through this endpoint.
			return "", ErrRecoveryMismatch
		}
		return "", err
	}

	if user.PwResetLockedUntil != nil && now.Before(*user.PwResetLockedUntil) {
		return "", &RateLimitError{RetryAfter: user.PwResetLockedUntil.Sub(now)}
	}

	if !s.profileMatches(user, input) {
		failCount := user.PwResetFailCount
		if user.PwResetLockedUntil != nil {
			// A lapsed lock starts a fresh window.
			failCount = 0
		}
		failCount++

		var lockedUntil *time.Time
		if failCount >= s.cfg.ResetLockThreshold {
			t := now.Add(s.cfg.ResetLockDuration)
			lockedUntil = &t
		}
		if err := s.users.SetRecoveryFailure(ctx, user.ID, failCount, lockedUntil); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("recovery failure update failed")
		}
		if lockedUntil != nil {
			return "", &RateLimitError{RetryAfter: s.cfg.ResetLockDuration}
		}
		return "", ErrRecoveryMismatch
	}

	// A successful match clears the mismatch counter even when the
	// issuance below is refused by the cooldown.
	if user.PwResetFailCount > 0 || user.PwResetLockedUntil != nil {
		if err := s.users.SetRecoveryFailure(ctx, user.ID, 0, nil); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("recovery counter reset failed")
		}
	}

	if user.PwResetLastShownAt != nil {
		elapsed := now.Sub(*user.PwResetLastShownAt)
		if elapsed < s.cfg.ReissueCooldown {
			return "", &RateLimitError{RetryAfter: s.cfg.ReissueCooldown - elapsed, Cooldown: true}
		}
	}

	tempPassword, err := security.GenerateTempPassword(s.cfg.TempPasswordLen)
	if err != nil {
		return "", err
	}
	hash, err := security.HashPassword(tempPassword)
	if err != nil {
		return "", err
	}
	if err := s.users.IssueTempPassword(ctx, user.ID, hash); err != nil {
		return "", err
	}
	return tempPassword, nil
}

func (s *RecoveryService) profileMatches(user models.User, input ReissueInput) bool {
	if user.Name != input.Name {
		return false
	}
	if user.Email == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*user.Email), input.Email)
}

// RequestReset starts the token-based reset flow. The response shape
// never reveals whether the account exists; in non-production the token
// is echoed back for testability.
func (s *RecoveryService) RequestReset(ctx context.Context, loginID, name, phone string) (string, error) {
	loginID = strings.TrimSpace(loginID)
	name = strings.TrimSpace(name)
	digits := security.NormalizePhone(phone)
	if loginID == "" || name == "" || digits == "" {
		return "", validationErr("login_id, name and phone are required")
	}

	user, err := s.users.FindByNamePhone(ctx, name, digits)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}
	if user.LoginID != loginID {
		return "", nil
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return "", err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.cfg.ResetTokenTTL); err != nil {
		return "", err
	}

	// TODO: hand the token to an SMS/email sender once one exists.
	return token, nil
}

// ConfirmReset consumes a pending reset token and installs the new
// password.
func (s *RecoveryService) ConfirmReset(ctx context.Context, loginID, token, newPassword string) error {
	loginID = strings.TrimSpace(loginID)
	token = strings.ToUpper(strings.TrimSpace(token))
	if loginID == "" || token == "" || newPassword == "" {
		return validationErr("login_id, token and new_password are required")
	}
	if len(newPassword) < 8 {
		return validationErr("password must be at least 8 characters")
	}

	user, err := s.users.FindByResetToken(ctx, loginID, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.ConsumeResetToken(ctx, user.ID, hash)
}
