package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// TrialDays is the free window granted at registration when no payment
// has been recorded yet.
const TrialDays = 30

type User struct {
	ID                  int64
	UserHandle          string
	LoginID             string
	PasswordHash        []byte
	Name                string
	Phone               *string
	Email               *string
	Role                UserRole
	IsActive            bool
	SuspendedAt         *time.Time
	SuspendReason       *string
	JoinedAt            time.Time
	LastPaymentAt       *time.Time
	PaidUntil           *time.Time
	MustChangePassword  bool
	PwResetLastShownAt  *time.Time
	PwResetFailCount    int
	PwResetLockedUntil  *time.Time
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ExpiresAt returns the account's hard expiry date: paid_until when set,
// otherwise joined_at plus the trial window.
func (u User) ExpiresAt() time.Time {
	if u.PaidUntil != nil {
		return *u.PaidUntil
	}
	return u.JoinedAt.AddDate(0, 0, TrialDays)
}

// Expired reports whether the account has lapsed as of now. Expiry is
// date-granular: the account is expired on the expiry day itself.
func (u User) Expired(now time.Time) bool {
	exp := u.ExpiresAt()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
	return !today.Before(expDay)
}
