package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/segyhp/loan-ledger/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// List returns one page of loans matching the filter, ordered by creation
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// UpdateBalance persists total paid, remaining balance, status and notes
	UpdateBalance(ctx context.Context, loan *domain.Loan) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// ListByLoanID retrieves all payments for a loan in creation order
	ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// CreateBatch inserts payment rows in one transaction
	CreateBatch(ctx context.Context, payments []*domain.Payment) error

	// DeleteByIDs removes payment rows and returns how many were deleted
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// UpdateNotes rewrites the notes of the given payments in one transaction
	UpdateNotes(ctx context.Context, payments []*domain.Payment) error
}

// LedgerEventRepository defines the interface for ledger event operations
type LedgerEventRepository interface {
	// ListByLoanID retrieves all events of a loan in creation order
	ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEvent, error)

	// Append inserts events; existing rows are never modified
	Append(ctx context.Context, events []*domain.LedgerEvent) error

	// ReplacePartialPaid swaps the partial_paid events of a loan for a new set
	ReplacePartialPaid(ctx context.Context, loanID uuid.UUID, events []*domain.LedgerEvent) error
}
