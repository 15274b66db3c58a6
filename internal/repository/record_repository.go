package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"naviauto/api/internal/models"
)

var ErrRecordNotFound = errors.New("record not found")

const recordColumns = `
	id, app_user_id, customer_id, repair_date, customer_name, customer_phone,
	card_company, installment_mon, card_amount, cash_amount, bank_amount,
	product_name, car_name, repair_detail, note, customer_type,
	guide_date, guide_done, guide_done_at, created_at, updated_at`

type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func scanRecord(row pgx.Row) (models.RepairRecord, error) {
	var rec models.RepairRecord
	err := row.Scan(
		&rec.ID,
		&rec.AppUserID,
		&rec.CustomerID,
		&rec.RepairDate,
		&rec.CustomerName,
		&rec.CustomerPhone,
		&rec.CardCompany,
		&rec.InstallmentMon,
		&rec.CardAmount,
		&rec.CashAmount,
		&rec.BankAmount,
		&rec.ProductName,
		&rec.CarName,
		&rec.RepairDetail,
		&rec.Note,
		&rec.CustomerType,
		&rec.GuideDate,
		&rec.GuideDone,
		&rec.GuideDoneAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RepairRecord{}, ErrRecordNotFound
		}
		return models.RepairRecord{}, err
	}
	return rec, nil
}

// RecordFilter narrows the owner-scoped listing. Zero values mean "no
// filter"; GuideDue selects protected-plan rows still awaiting their
// follow-up call.
type RecordFilter struct {
	From         string
	To           string
	Query        string
	CustomerType models.CustomerType
	GuideDue     bool
}

func (r *RecordRepository) List(ctx context.Context, ownerID int64, f RecordFilter) ([]models.RepairRecord, error) {
	sql := `SELECT` + recordColumns + ` FROM repair_payments WHERE app_user_id = $1`
	args := []any{ownerID}

	if f.From != "" {
		args = append(args, f.From)
		sql += fmt.Sprintf(" AND repair_date >= $%d::date", len(args))
	}
	if f.To != "" {
		args = append(args, f.To)
		sql += fmt.Sprintf(" AND repair_date <= $%d::date", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		sql += fmt.Sprintf(" AND (customer_name ILIKE $%d OR customer_phone ILIKE $%d)", len(args), len(args))
	}
	if f.CustomerType != "" {
		args = append(args, f.CustomerType)
		sql += fmt.Sprintf(" AND customer_type = $%d", len(args))
	}
	if f.GuideDue {
		args = append(args, models.CustomerTypeProtected)
		sql += fmt.Sprintf(" AND customer_type = $%d AND guide_done = FALSE", len(args))
	}

	sql += " ORDER BY repair_date DESC, id DESC"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RepairRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Create inserts a record. Protected-plan rows start their guide window
// at the repair date.
func (r *RecordRepository) Create(ctx context.Context, rec models.RepairRecord) (int64, error) {
	const query = `
		INSERT INTO repair_payments (
			app_user_id, customer_id, repair_date, customer_name, customer_phone,
			card_company, installment_mon, card_amount, cash_amount, bank_amount,
			product_name, car_name, repair_detail, note, customer_type,
			guide_date, guide_done, guide_done_at
		) VALUES (
			$1, $2, $3::date, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			CASE WHEN $15 = $16 THEN $3::date ELSE NULL END,
			FALSE,
			NULL
		)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		rec.AppUserID,
		rec.CustomerID,
		rec.RepairDate,
		rec.CustomerName,
		rec.CustomerPhone,
		rec.CardCompany,
		rec.InstallmentMon,
		rec.CardAmount,
		rec.CashAmount,
		rec.BankAmount,
		rec.ProductName,
		rec.CarName,
		rec.RepairDetail,
		rec.Note,
		rec.CustomerType,
		models.CustomerTypeProtected,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites an owner-scoped record. The repair date is immutable
// after creation. Switching a row onto the protected plan re-arms the
// guide window from the repair date; switching off clears it.
func (r *RecordRepository) Update(ctx context.Context, ownerID int64, rec models.RepairRecord) error {
	const query = `
		UPDATE repair_payments
		SET customer_id     = $3,
		    customer_name   = $4,
		    customer_phone  = $5,
		    card_company    = $6,
		    installment_mon = $7,
		    card_amount     = $8,
		    cash_amount     = $9,
		    bank_amount     = $10,
		    product_name    = $11,
		    car_name        = $12,
		    repair_detail   = $13,
		    note            = $14,
		    customer_type   = $15,
		    guide_date = CASE
		        WHEN $15 = $16 AND customer_type <> $16 THEN repair_date
		        WHEN $15 <> $16 THEN NULL
		        ELSE guide_date
		    END,
		    guide_done = CASE
		        WHEN $15 = $16 AND customer_type <> $16 THEN FALSE
		        WHEN $15 <> $16 THEN FALSE
		        ELSE guide_done
		    END,
		    guide_done_at = CASE
		        WHEN $15 = $16 AND customer_type <> $16 THEN NULL
		        WHEN $15 <> $16 THEN NULL
		        ELSE guide_done_at
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND app_user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query,
		rec.ID,
		ownerID,
		rec.CustomerID,
		rec.CustomerName,
		rec.CustomerPhone,
		rec.CardCompany,
		rec.InstallmentMon,
		rec.CardAmount,
		rec.CashAmount,
		rec.BankAmount,
		rec.ProductName,
		rec.CarName,
		rec.RepairDetail,
		rec.Note,
		rec.CustomerType,
		models.CustomerTypeProtected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM repair_payments WHERE id = $1 AND app_user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkGuideDone completes the one-shot follow-up guide on a
// protected-plan row. Returns ErrRecordNotFound when the row is missing,
// not owned, already guided or not on the protected plan.
func (r *RecordRepository) MarkGuideDone(ctx context.Context, ownerID, id int64) (models.RepairRecord, error) {
	const query = `
		UPDATE repair_payments
		SET guide_done = TRUE,
		    guide_done_at = NOW(),
		    guide_date = CURRENT_DATE,
		    updated_at = NOW()
		WHERE id = $1
		  AND app_user_id = $2
		  AND customer_type = $3
		  AND guide_done = FALSE
		RETURNING` + recordColumns
	return scanRecord(r.pool.QueryRow(ctx, query, id, ownerID, models.CustomerTypeProtected))
}
