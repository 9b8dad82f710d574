package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/loan-ledger/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, principal_paid, interest_paid, payment_date, installment_index, notes, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY created_at, id
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, loanID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []*domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	query := `
		INSERT INTO payments (id, loan_id, amount, principal_paid, interest_paid, payment_date, installment_index, notes, created_at)
		VALUES (:id, :loan_id, :amount, :principal_paid, :interest_paid, :payment_date, :installment_index, :notes, :created_at)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, payment := range payments {
		if _, err := tx.NamedExecContext(ctx, query, payment); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *paymentRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM payments WHERE id = ANY($1::uuid[])`

	res, err := r.db.ExecContext(ctx, query, pq.Array(idStrings(ids)))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *paymentRepository) UpdateNotes(ctx context.Context, payments []*domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	query := `UPDATE payments SET notes = $2 WHERE id = $1`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, payment := range payments {
		if _, err := tx.ExecContext(ctx, query, payment.ID, payment.Notes); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
