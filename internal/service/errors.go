package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrLoginIDTaken       = errors.New("login id already registered")
	ErrNotFound           = errors.New("not found")
	ErrAdminRequired      = errors.New("admin privileges required")
	ErrSelfImpersonation  = errors.New("cannot impersonate yourself")
	ErrNoImpersonation    = errors.New("no active impersonation")
	ErrRecoveryMismatch   = errors.New("account details do not match")
	ErrInvalidResetToken  = errors.New("reset code is invalid or expired")
)

// ValidationError marks user-correctable input failures so handlers can
// map them to a 400 without string matching.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AccountExpiredError carries the computed expiry date so the login
// response can echo it.
type AccountExpiredError struct {
	ExpiredAt time.Time
}

func (e *AccountExpiredError) Error() string {
	return fmt.Sprintf("account expired on %s", e.ExpiredAt.Format("2006-01-02"))
}

// RateLimitError covers both the mismatch lockout and the reissue
// cooldown on the recovery flow.
type RateLimitError struct {
	RetryAfter time.Duration
	Cooldown   bool
}

func (e *RateLimitError) Error() string {
	secs := int(e.RetryAfter.Round(time.Second).Seconds())
	if e.Cooldown {
		return fmt.Sprintf("temporary password was issued recently, retry in %d seconds", secs)
	}
	return fmt.Sprintf("too many failed attempts, retry in %d seconds", secs)
}
