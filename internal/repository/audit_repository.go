package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"naviauto/api/internal/models"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	const query = `
		INSERT INTO auth_audit_log (kind, outcome, login_id, user_id, ip_address, user_agent, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.Kind,
		entry.Outcome,
		entry.LoginID,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Message,
	)
	return err
}
