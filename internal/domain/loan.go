package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending = "pending"
	LoanStatusOverdue = "overdue"
	LoanStatusPaid    = "paid"
)

// Loan shapes
const (
	PaymentTypeSingle      = "single"
	PaymentTypeInstallment = "installment"
	PaymentTypeDaily       = "daily"
)

// Interest modes for installment loans
const (
	InterestModeSimple   = "simple_per_installment"
	InterestModeOnTotal  = "on_total"
	InterestModeCompound = "compound"
)

// Loan represents a loan entity.
//
// For daily loans TotalInterest holds the flat daily installment amount,
// not the interest of the whole contract.
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	ClientPhone      string          `json:"client_phone,omitempty" db:"client_phone"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	InterestMode     string          `json:"interest_mode" db:"interest_mode"`
	PaymentType      string          `json:"payment_type" db:"payment_type"`
	PaymentFrequency string          `json:"payment_frequency" db:"payment_frequency"`
	Installments     int             `json:"installments" db:"installments"`
	TotalInterest    decimal.Decimal `json:"total_interest" db:"total_interest"`
	TotalPaid        decimal.Decimal `json:"total_paid" db:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	Status           string          `json:"status" db:"status"`
	DueDate          *time.Time      `json:"due_date,omitempty" db:"due_date"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	InstallmentDates []time.Time     `json:"installment_dates" db:"-"`
	Notes            string          `json:"notes" db:"notes"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsDaily reports whether the loan uses the daily shape.
func (l *Loan) IsDaily() bool {
	return l.PaymentType == PaymentTypeDaily
}

// LoanFilter narrows a paginated loan scan.
type LoanFilter struct {
	UserID *uuid.UUID
	LoanID *uuid.UUID
	Limit  int
	Offset int
}

// LoanLedger is the reconciled view of a loan served to dashboards.
type LoanLedger struct {
	LoanID                  uuid.UUID               `json:"loan_id"`
	PaymentType             string                  `json:"payment_type"`
	TotalInterest           decimal.Decimal         `json:"total_interest"`
	TotalToReceive          decimal.Decimal         `json:"total_to_receive"`
	InstallmentValue        decimal.Decimal         `json:"installment_value"`
	PrincipalPerInstallment decimal.Decimal         `json:"principal_per_installment"`
	InterestPerInstallment  decimal.Decimal         `json:"interest_per_installment"`
	TotalPaid               decimal.Decimal         `json:"total_paid"`
	InterestReceived        decimal.Decimal         `json:"interest_received"`
	TotalPenalties          decimal.Decimal         `json:"total_penalties"`
	RemainingBalance        decimal.Decimal         `json:"remaining_balance"`
	Status                  string                  `json:"status"`
	PaidInstallments        int                     `json:"paid_installments"`
	NextDueDate             *time.Time              `json:"next_due_date,omitempty"`
	PartialPaid             []InstallmentAmount     `json:"partial_paid,omitempty"`
	PenaltiesByInstallment  map[int]decimal.Decimal `json:"penalties_by_installment,omitempty"`
	ComputedAt              time.Time               `json:"computed_at"`
}

// InstallmentAmount pairs a 0-based installment index with an amount.
type InstallmentAmount struct {
	Index  int             `json:"index"`
	Amount decimal.Decimal `json:"amount"`
}
