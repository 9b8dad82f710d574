package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger event kinds
const (
	EventPartialPaid        = "partial_paid"
	EventRenegotiation      = "renegotiation"
	EventDailyPenalty       = "daily_penalty"
	EventOverdueConfig      = "overdue_config"
	EventHistoricalContract = "historical_contract"
)

// Ledger event sources
const (
	EventSourceEngine      = "engine"
	EventSourceLegacyNotes = "legacy_notes"
)

// LedgerEvent is an append-only per-loan fact.
//
// Ref carries the textual argument of the fact: the ISO date of a
// renegotiation or the penalty type of an overdue configuration.
type LedgerEvent struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	LoanID           uuid.UUID       `json:"loan_id" db:"loan_id"`
	Kind             string          `json:"kind" db:"kind"`
	InstallmentIndex *int            `json:"installment_index,omitempty" db:"installment_index"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	DaysOverdue      *int            `json:"days_overdue,omitempty" db:"days_overdue"`
	Ref              string          `json:"ref" db:"ref"`
	Source           string          `json:"source" db:"source"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
