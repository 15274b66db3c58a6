package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
)

// ImpersonationStore only needs to look users up.
type ImpersonationStore interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type ImpersonationService struct {
	users    ImpersonationStore
	sessions SessionStore
	log      zerolog.Logger
}

func NewImpersonationService(users ImpersonationStore, sessions SessionStore, log zerolog.Logger) *ImpersonationService {
	return &ImpersonationService{users: users, sessions: sessions, log: log}
}

// Begin swaps the session's identity for the target user, anchoring the
// acting admin's id so the swap can be undone. Only one level is
// supported: starting again while already impersonating keeps the
// original anchor and just retargets. The caller is authorized by role
// or by an existing anchor, since while impersonating the session role
// is the target's.
func (s *ImpersonationService) Begin(ctx context.Context, sessionID string, sess models.Session, targetID int64) (models.Session, error) {
	if sess.Role != models.UserRoleAdmin && !sess.Impersonating() {
		return models.Session{}, ErrAdminRequired
	}

	adminID := sess.UserID
	if sess.Impersonating() {
		adminID = sess.AdminID
	}
	if targetID == adminID {
		return models.Session{}, ErrSelfImpersonation
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, err
	}

	next := models.NewSession(target)
	next.AdminID = adminID
	next.IsImpersonated = true

	if err := s.sessions.Replace(ctx, sessionID, next); err != nil {
		return models.Session{}, err
	}

	s.log.Info().
		Int64("admin_id", adminID).
		Int64("target_id", target.ID).
		Msg("impersonation started")
	return next, nil
}

// End restores the anchored admin identity. If the admin row vanished
// meanwhile there is nothing to restore to and the session stays as it
// is; the only way out then is a logout.
func (s *ImpersonationService) End(ctx context.Context, sessionID string, sess models.Session) (models.Session, error) {
	if !sess.Impersonating() {
		return models.Session{}, ErrNoImpersonation
	}

	admin, err := s.users.GetByID(ctx, sess.AdminID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, err
	}

	next := models.NewSession(admin)
	if err := s.sessions.Replace(ctx, sessionID, next); err != nil {
		return models.Session{}, err
	}

	s.log.Info().
		Int64("admin_id", admin.ID).
		Int64("target_id", sess.UserID).
		Msg("impersonation ended")
	return next, nil
}
