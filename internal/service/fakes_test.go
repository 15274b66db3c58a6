package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
)

// fakeUserStore is an in-memory stand-in for the user repository. It
// persists mutations so multi-step flows (lockout counters, temp
// passwords) behave like the real table.
type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[int64]*models.User), nextID: 1}
	for _, u := range users {
		cp := u
		if cp.ID == 0 {
			cp.ID = f.nextID
		}
		if cp.ID >= f.nextID {
			f.nextID = cp.ID + 1
		}
		f.users[cp.ID] = &cp
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	for _, u := range f.users {
		if u.LoginID == user.LoginID {
			return models.User{}, repository.ErrDuplicateLogin
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.IsActive = true
	user.JoinedAt = today()
	paidUntil := today().AddDate(0, 0, models.TrialDays)
	user.PaidUntil = &paidUntil
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cp := user
	f.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUserStore) FindByLoginID(_ context.Context, loginID string) (models.User, error) {
	for _, u := range f.users {
		if u.LoginID == loginID {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (models.User, error) {
	if u, ok := f.users[id]; ok {
		return *u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) Suspend(_ context.Context, id int64, defaultReason string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = false
	if u.SuspendedAt == nil {
		now := time.Now()
		u.SuspendedAt = &now
	}
	if u.SuspendReason == nil {
		u.SuspendReason = &defaultReason
	}
	return nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id int64, name string, phone, email *string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	u.Name = name
	u.Phone = phone
	u.Email = email
	return *u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash []byte) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	return nil
}

func (f *fakeUserStore) SearchByNameEmail(_ context.Context, name, email string, limit int) ([]repository.MaskedCandidate, error) {
	var out []repository.MaskedCandidate
	for _, u := range f.users {
		if u.Name != name || u.Email == nil || !strings.EqualFold(*u.Email, email) {
			continue
		}
		out = append(out, repository.MaskedCandidate{LoginID: u.LoginID, JoinedAt: u.JoinedAt})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserStore) FindByNamePhone(_ context.Context, name, phoneDigits string) (models.User, error) {
	for _, u := range f.users {
		if u.Name != name || u.Phone == nil {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, *u.Phone)
		if digits == phoneDigits {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) SetRecoveryFailure(_ context.Context, id int64, failCount int, lockedUntil *time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PwResetFailCount = failCount
	u.PwResetLockedUntil = lockedUntil
	return nil
}

func (f *fakeUserStore) IssueTempPassword(_ context.Context, id int64, hash []byte) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	u.PasswordHash = hash
	u.MustChangePassword = true
	u.PwResetLastShownAt = &now
	u.PwResetFailCount = 0
	u.PwResetLockedUntil = nil
	return nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, id int64, token string, ttl time.Duration) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	expires := time.Now().Add(ttl)
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expires
	return nil
}

func (f *fakeUserStore) FindByResetToken(_ context.Context, loginID, token string) (models.User, error) {
	for _, u := range f.users {
		if u.LoginID != loginID || u.ResetToken == nil || *u.ResetToken != token {
			continue
		}
		if u.ResetTokenExpiresAt == nil || time.Now().After(*u.ResetTokenExpiresAt) {
			continue
		}
		return *u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) ConsumeResetToken(_ context.Context, id int64, hash []byte) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session
	nextID   int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, sess models.Session) (string, error) {
	f.nextID++
	id := fmt.Sprintf("sid-%d", f.nextID)
	f.sessions[id] = sess
	return id, nil
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (models.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeSessionStore) Replace(_ context.Context, id string, sess models.Session) error {
	f.sessions[id] = sess
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type fakeAuditStore struct {
	entries []models.AuditEntry
}

func (f *fakeAuditStore) Append(_ context.Context, entry models.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}

func datePtr(t time.Time) *time.Time {
	return &t
}
