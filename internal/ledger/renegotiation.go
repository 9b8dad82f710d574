package ledger

import (
	"time"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/tags"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// RenegotiationPlan is the set of changes the renegotiation resolver would make.
type RenegotiationPlan struct {
	Renegotiated  bool
	Inferred      bool // reference date taken from created_at
	ReferenceDate time.Time
	// Marked holds copies of payments with PRE_RENEGOTIATION appended.
	Marked   []*domain.Payment
	Payments []*domain.Payment
	Result   Result
	Changes  []domain.Change
}

// NeedsWrite reports whether applying the plan changes anything.
func (p RenegotiationPlan) NeedsWrite() bool {
	return len(p.Changes) > 0
}

// PlanRenegotiation marks the payments that predate a renegotiation and
// reconciles the loan on the remaining ones.
//
// A payment is marked only when its date is strictly before the reference
// date. Marks are never removed.
func PlanRenegotiation(loan *domain.Loan, payments []*domain.Payment, facts Facts, today time.Time) RenegotiationPlan {
	plan := RenegotiationPlan{Payments: payments}

	switch {
	case facts.RenegotiationDate != nil:
		plan.Renegotiated = true
		plan.ReferenceDate = *facts.RenegotiationDate
	case facts.RenegotiationHint:
		plan.Renegotiated = true
		plan.Inferred = true
		plan.ReferenceDate = loan.CreatedAt
	default:
		return plan
	}

	updated := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if tags.Has(p.Notes, tags.PreRenegotiation) || !utils.IsBeforeDay(p.PaymentDate, plan.ReferenceDate) {
			updated = append(updated, p)
			continue
		}
		marked := *p
		marked.Notes = tags.AppendMarker(p.Notes, tags.PreRenegotiation)
		plan.Marked = append(plan.Marked, &marked)
		updated = append(updated, &marked)
		plan.Changes = append(plan.Changes, domain.Change{
			Field: "payment:" + p.ID.String(),
			From:  p.Notes,
			To:    marked.Notes,
		})
	}
	plan.Payments = updated

	// The stored balance is corrected even when nothing needed marking.
	plan.Result = Reconcile(loan, updated, facts, today)
	plan.Changes = append(plan.Changes, Diff(loan, facts, plan.Result)...)
	return plan
}
