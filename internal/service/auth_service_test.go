package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naviauto/api/internal/models"
	"naviauto/api/internal/security"
)

func newAuthFixture(t *testing.T, users ...models.User) (*AuthService, *fakeUserStore, *fakeSessionStore, *fakeAuditStore) {
	t.Helper()
	store := newFakeUserStore(users...)
	sessions := newFakeSessionStore()
	audit := &fakeAuditStore{}
	svc := NewAuthService(store, sessions, audit, zerolog.Nop())
	return svc, store, sessions, audit
}

func activeUser(t *testing.T, loginID, password string) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return models.User{
		UserHandle:   "U" + loginID,
		LoginID:      loginID,
		PasswordHash: hash,
		Name:         "Kim",
		Role:         models.UserRoleUser,
		IsActive:     true,
		JoinedAt:     today(),
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		LoginID:  "ABC123",
		Password: "Abcd1234!",
		Name:     "Kim",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, user.Role)
	require.NotNil(t, user.PaidUntil)
	assert.Equal(t, user.JoinedAt.AddDate(0, 0, 30), *user.PaidUntil)

	sid, sess, err := svc.Login(ctx, LoginInput{LoginID: "ABC123", Password: "Abcd1234!"})
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
	assert.Equal(t, user.ID, sess.UserID)
	assert.Equal(t, "Kim", sess.Name)
	assert.False(t, sess.IsImpersonated)

	stored, err := sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, sess, stored)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	var vErr *ValidationError

	_, err := svc.Register(ctx, RegisterInput{LoginID: "a", Password: "pw123456", Name: ""})
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Register(ctx, RegisterInput{LoginID: "a", Password: "short", Name: "Kim"})
	require.ErrorAs(t, err, &vErr)
}

func TestRegisterDuplicateLogin(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t, activeUser(t, "taken", "pw123456!"))

	_, err := svc.Register(context.Background(), RegisterInput{
		LoginID:  "taken",
		Password: "pw123456!",
		Name:     "Lee",
	})
	assert.ErrorIs(t, err, ErrLoginIDTaken)
}

func TestLoginEnumerationSafety(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t, activeUser(t, "known", "correct-pw1!"))
	ctx := context.Background()

	_, _, errUnknown := svc.Login(ctx, LoginInput{LoginID: "nobody", Password: "whatever1!"})
	_, _, errWrongPw := svc.Login(ctx, LoginInput{LoginID: "known", Password: "wrong-pw1!"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLoginExpiryTransition(t *testing.T) {
	user := activeUser(t, "expired", "pw123456!")
	yesterday := today().AddDate(0, 0, -1)
	user.PaidUntil = &yesterday

	svc, store, _, audit := newAuthFixture(t, user)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, LoginInput{LoginID: "expired", Password: "pw123456!"})

	var expErr *AccountExpiredError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, yesterday, expErr.ExpiredAt)
	assert.Contains(t, err.Error(), yesterday.Format("2006-01-02"))

	stored, getErr := store.FindByLoginID(ctx, "expired")
	require.NoError(t, getErr)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.SuspendedAt)
	require.NotNil(t, stored.SuspendReason)
	assert.Equal(t, "subscription expired", *stored.SuspendReason)

	require.NotEmpty(t, audit.entries)
	assert.Equal(t, models.AuditOutcomeFailure, audit.entries[len(audit.entries)-1].Outcome)
}

func TestLoginTrialWindowExpiry(t *testing.T) {
	// No paid_until: effective expiry is joined_at + 30 days.
	user := activeUser(t, "trial", "pw123456!")
	user.JoinedAt = today().AddDate(0, 0, -31)
	user.PaidUntil = nil

	svc, _, _, _ := newAuthFixture(t, user)

	_, _, err := svc.Login(context.Background(), LoginInput{LoginID: "trial", Password: "pw123456!"})

	var expErr *AccountExpiredError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, user.JoinedAt.AddDate(0, 0, 30), expErr.ExpiredAt)
}

func TestLoginSuspended(t *testing.T) {
	user := activeUser(t, "frozen", "pw123456!")
	user.IsActive = false
	now := time.Now()
	user.SuspendedAt = &now
	user.SuspendReason = strPtr("payment dispute")

	svc, _, _, _ := newAuthFixture(t, user)

	_, _, err := svc.Login(context.Background(), LoginInput{LoginID: "frozen", Password: "pw123456!"})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestLoginAuditsSuccess(t *testing.T) {
	svc, _, _, audit := newAuthFixture(t, activeUser(t, "kim1", "pw123456!"))

	_, _, err := svc.Login(context.Background(), LoginInput{
		LoginID:   "kim1",
		Password:  "pw123456!",
		IPAddress: "10.1.2.3",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, models.AuditKindLogin, entry.Kind)
	assert.Equal(t, models.AuditOutcomeSuccess, entry.Outcome)
	assert.Equal(t, "kim1", entry.LoginID)
	assert.Equal(t, "10.1.2.3", entry.IPAddress)
	assert.Equal(t, "test-agent", entry.UserAgent)
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t, activeUser(t, "kim1", "pw123456!"))
	ctx := context.Background()

	sid, _, err := svc.Login(ctx, LoginInput{LoginID: "kim1", Password: "pw123456!"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sid))
	_, err = sessions.Get(ctx, sid)
	require.Error(t, err)

	// Second logout of the same (now missing) session still succeeds.
	require.NoError(t, svc.Logout(ctx, sid))
	require.NoError(t, svc.Logout(ctx, ""))
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	svc, store, sessions, _ := newAuthFixture(t, activeUser(t, "kim1", "pw123456!"))
	ctx := context.Background()

	sid, sess, err := svc.Login(ctx, LoginInput{LoginID: "kim1", Password: "pw123456!"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, sid, sess, ProfileInput{
		Name:  "Kim Updated",
		Phone: strPtr("010-1234-5678"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kim Updated", updated.Name)

	refreshed, err := sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "Kim Updated", refreshed.Name)

	stored, err := store.GetByID(ctx, sess.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "010-1234-5678", *stored.Phone)
}

func TestUpdateProfileRequiresName(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t, activeUser(t, "kim1", "pw123456!"))

	var vErr *ValidationError
	_, err := svc.UpdateProfile(context.Background(), "sid", models.Session{UserID: 1}, ProfileInput{Name: "  "})
	require.ErrorAs(t, err, &vErr)
}

func TestChangePassword(t *testing.T) {
	svc, store, _, _ := newAuthFixture(t, activeUser(t, "kim1", "OldPass12!"))
	ctx := context.Background()

	t.Run("policy rejected", func(t *testing.T) {
		var vErr *ValidationError
		err := svc.ChangePassword(ctx, 1, "OldPass12!", "letters-only")
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, 1, "Nope12345!", "NewPass12!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, 1, "OldPass12!", "NewPass12!"))

		stored, err := store.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, security.VerifyPassword("NewPass12!", stored.PasswordHash))
		assert.False(t, security.VerifyPassword("OldPass12!", stored.PasswordHash))
		assert.False(t, stored.MustChangePassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.ChangePassword(ctx, 999, "OldPass12!", "NewPass12!")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
