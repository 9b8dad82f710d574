package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/loan-ledger/internal/domain"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

const loanColumns = `id, user_id, client_phone, principal_amount, interest_rate, interest_mode,
	payment_type, payment_frequency, installments, total_interest, total_paid,
	remaining_balance, status, due_date, start_date, installment_dates, notes,
	created_at, updated_at`

// loanRow carries installment_dates as a postgres DATE[] text array.
type loanRow struct {
	domain.Loan
	InstallmentDates pq.StringArray `db:"installment_dates"`
}

func (row *loanRow) toDomain() (*domain.Loan, error) {
	loan := row.Loan
	loan.InstallmentDates = make([]time.Time, 0, len(row.InstallmentDates))
	for _, raw := range row.InstallmentDates {
		date, err := utils.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("loan %s: installment date %q: %w", loan.ID, raw, err)
		}
		loan.InstallmentDates = append(loan.InstallmentDates, date)
	}
	return &loan, nil
}

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE id = $1
	`

	var row loanRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain()
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
		  AND ($2::uuid IS NULL OR id = $2::uuid)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`

	var rows []loanRow
	err := r.db.SelectContext(ctx, &rows, query, nullableID(filter.UserID), nullableID(filter.LoanID), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for i := range rows {
		loan, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

func (r *loanRepository) UpdateBalance(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET total_paid = $2, remaining_balance = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.TotalPaid,
		loan.RemainingBalance,
		loan.Status,
		loan.Notes,
		time.Now(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.WrapLoanNotFound(loan.ID.String())
	}

	return nil
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
