package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-ledger/internal/domain"
)

const insertLedgerEvent = `
	INSERT INTO ledger_events (id, loan_id, kind, installment_index, amount, days_overdue, ref, source, created_at)
	VALUES (:id, :loan_id, :kind, :installment_index, :amount, :days_overdue, :ref, :source, :created_at)
`

type ledgerEventRepository struct {
	db *sqlx.DB
}

func NewLedgerEventRepository(db *sqlx.DB) LedgerEventRepository {
	return &ledgerEventRepository{db: db}
}

func (r *ledgerEventRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT id, loan_id, kind, installment_index, amount, days_overdue, ref, source, created_at
		FROM ledger_events
		WHERE loan_id = $1
		ORDER BY created_at, id
	`

	var events []*domain.LedgerEvent
	err := r.db.SelectContext(ctx, &events, query, loanID)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *ledgerEventRepository) Append(ctx context.Context, events []*domain.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ledgerEventRepository) ReplacePartialPaid(ctx context.Context, loanID uuid.UUID, events []*domain.LedgerEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `DELETE FROM ledger_events WHERE loan_id = $1 AND kind = $2`
	if _, err := tx.ExecContext(ctx, query, loanID, domain.EventPartialPaid); err != nil {
		return err
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	return tx.Commit()
}

func insertEvents(ctx context.Context, tx *sqlx.Tx, events []*domain.LedgerEvent) error {
	for _, event := range events {
		if _, err := tx.NamedExecContext(ctx, insertLedgerEvent, event); err != nil {
			return err
		}
	}
	return nil
}
