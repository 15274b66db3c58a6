package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TokenJanitor clears lapsed password-reset tokens. Account expiry is
// deliberately NOT swept here: it is enforced lazily at login.
type TokenJanitor interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron  *cron.Cron
	users TokenJanitor
	log   zerolog.Logger
}

func NewScheduler(users TokenJanitor, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		users: users,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeResetTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any running job to finish, up to a short grace period.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.users.ClearExpiredResetTokens(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reset token purge failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("cleared", n).Msg("expired reset tokens purged")
	}
}
