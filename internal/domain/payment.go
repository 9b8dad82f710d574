package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one money movement against a loan.
// Notes may carry markers such as [PRE_RENEGOTIATION] or [INTEREST_ONLY_PAYMENT].
type Payment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	LoanID           uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	PrincipalPaid    decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	InterestPaid     decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	PaymentDate      time.Time       `json:"payment_date" db:"payment_date"`
	InstallmentIndex *int            `json:"installment_index,omitempty" db:"installment_index"`
	Notes            string          `json:"notes" db:"notes"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
