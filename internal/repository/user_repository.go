package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"naviauto/api/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateLogin = errors.New("login id already exists")
)

const pgUniqueViolation = "23505"

const userColumns = `
	id, user_handle, login_id, pw_hash, name, phone, email, role,
	is_active, suspended_at, suspend_reason,
	joined_at, last_payment_at, paid_until,
	must_change_password, pw_reset_last_shown_at, pw_reset_fail_count,
	pw_reset_locked_until, reset_token, reset_token_expires_at,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.UserHandle,
		&u.LoginID,
		&u.PasswordHash,
		&u.Name,
		&u.Phone,
		&u.Email,
		&u.Role,
		&u.IsActive,
		&u.SuspendedAt,
		&u.SuspendReason,
		&u.JoinedAt,
		&u.LastPaymentAt,
		&u.PaidUntil,
		&u.MustChangePassword,
		&u.PwResetLastShownAt,
		&u.PwResetFailCount,
		&u.PwResetLockedUntil,
		&u.ResetToken,
		&u.ResetTokenExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO app_users (
			user_handle, login_id, pw_hash, name, phone, email, role, paid_until
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, CURRENT_DATE + $8
		)
		RETURNING` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.UserHandle,
		user.LoginID,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Email,
		user.Role,
		models.TrialDays,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.User{}, ErrDuplicateLogin
		}
		return models.User{}, err
	}
	return created, nil
}

func (r *UserRepository) FindByLoginID(ctx context.Context, loginID string) (models.User, error) {
	const query = `SELECT` + userColumns + ` FROM app_users WHERE login_id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, loginID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT` + userColumns + ` FROM app_users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// Suspend deactivates the account, stamping suspended_at and keeping any
// existing suspend reason. Used by the lazy expiry check at login.
func (r *UserRepository) Suspend(ctx context.Context, id int64, defaultReason string) error {
	const query = `
		UPDATE app_users
		SET is_active = FALSE,
		    suspended_at = COALESCE(suspended_at, NOW()),
		    suspend_reason = COALESCE(suspend_reason, $2),
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, defaultReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name string, phone, email *string) (models.User, error) {
	const query = `
		UPDATE app_users
		SET name = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, name, phone, email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash []byte) error {
	const query = `
		UPDATE app_users
		SET pw_hash = $2, must_change_password = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

type MaskedCandidate struct {
	LoginID  string
	JoinedAt time.Time
}

// SearchByNameEmail returns login-id candidates for the find-my-id flow,
// newest first.
func (r *UserRepository) SearchByNameEmail(ctx context.Context, name, email string, limit int) ([]MaskedCandidate, error) {
	const query = `
		SELECT login_id, joined_at
		FROM app_users
		WHERE name = $1 AND LOWER(COALESCE(email, '')) = LOWER($2)
		ORDER BY joined_at DESC, id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, name, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaskedCandidate
	for rows.Next() {
		var c MaskedCandidate
		if err := rows.Scan(&c.LoginID, &c.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByNamePhone matches on name plus digits-only phone comparison.
func (r *UserRepository) FindByNamePhone(ctx context.Context, name, phoneDigits string) (models.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM app_users
		WHERE name = $1
		  AND regexp_replace(COALESCE(phone, ''), '[^0-9]', '', 'g') = $2
		LIMIT 1
	`
	return scanUser(r.pool.QueryRow(ctx, query, name, phoneDigits))
}

// SetRecoveryFailure persists the reissue-flow mismatch counter and, when
// the threshold was reached, the lockout anchor.
func (r *UserRepository) SetRecoveryFailure(ctx context.Context, id int64, failCount int, lockedUntil *time.Time) error {
	const query = `
		UPDATE app_users
		SET pw_reset_fail_count = $2, pw_reset_locked_until = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, failCount, lockedUntil)
	return err
}

// IssueTempPassword replaces the credential with the temp-password hash
// and resets the recovery counters in one statement.
func (r *UserRepository) IssueTempPassword(ctx context.Context, id int64, hash []byte) error {
	const query = `
		UPDATE app_users
		SET pw_hash = $2,
		    must_change_password = TRUE,
		    pw_reset_last_shown_at = NOW(),
		    pw_reset_fail_count = 0,
		    pw_reset_locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id int64, token string, ttl time.Duration) error {
	const query = `
		UPDATE app_users
		SET reset_token = $2,
		    reset_token_expires_at = NOW() + $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, token, ttl)
	return err
}

// FindByResetToken matches a pending, unexpired confirm step.
func (r *UserRepository) FindByResetToken(ctx context.Context, loginID, token string) (models.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM app_users
		WHERE login_id = $1
		  AND reset_token = $2
		  AND reset_token_expires_at IS NOT NULL
		  AND reset_token_expires_at > NOW()
		LIMIT 1
	`
	return scanUser(r.pool.QueryRow(ctx, query, loginID, token))
}

// ConsumeResetToken replaces the credential and clears the token fields.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, id int64, hash []byte) error {
	const query = `
		UPDATE app_users
		SET pw_hash = $2,
		    reset_token = NULL,
		    reset_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, hash)
	return err
}

func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	const query = `
		UPDATE app_users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token IS NOT NULL AND reset_token_expires_at < NOW()
	`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Search lists users for the admin panel, matching name, phone or login
// id, newest first.
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM app_users
		WHERE ($1 = '' OR name ILIKE $2 OR COALESCE(phone, '') ILIKE $2 OR login_id ILIKE $2)
		ORDER BY id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, q, "%"+q+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type AdminUpdateParams struct {
	Role          models.UserRole
	IsActive      bool
	PaidUntil     *time.Time
	LastPaymentAt *time.Time
	SuspendReason *string
}

// AdminUpdate applies an admin edit. Suspension fields always move
// together with is_active: suspending stamps suspended_at (keeping an
// existing stamp) and records the reason, re-activating clears both.
func (r *UserRepository) AdminUpdate(ctx context.Context, id int64, p AdminUpdateParams) (models.User, error) {
	const query = `
		UPDATE app_users
		SET role = $2,
		    is_active = $3,
		    paid_until = $4,
		    last_payment_at = $5,
		    suspended_at = CASE WHEN $3 = FALSE THEN COALESCE(suspended_at, NOW()) ELSE NULL END,
		    suspend_reason = CASE WHEN $3 = FALSE THEN $6 ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, p.Role, p.IsActive, p.PaidUntil, p.LastPaymentAt, p.SuspendReason))
}
