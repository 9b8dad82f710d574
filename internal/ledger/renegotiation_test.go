package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/tags"
)

func TestPlanRenegotiation_MarksEarlierPayments(t *testing.T) {
	loan := installmentLoan(date(2024, 1, 10))
	loan.Notes = "[RENEGOTIATION_DATE:2024-03-01]"
	february := pay(loan, "200", date(2024, 2, 15), "")
	march := pay(loan, "300", date(2024, 3, 10), "")

	plan := PlanRenegotiation(loan, []*domain.Payment{february, march}, LoadFacts(loan, nil), today)

	assert.True(t, plan.Renegotiated)
	assert.False(t, plan.Inferred)
	require.Len(t, plan.Marked, 1)
	assert.Equal(t, february.ID, plan.Marked[0].ID)
	assert.True(t, tags.Has(plan.Marked[0].Notes, tags.PreRenegotiation))
	assert.Empty(t, february.Notes, "input payments are not mutated")
	assert.True(t, plan.Result.TotalPaid.Equal(d("300")))
	assert.True(t, plan.NeedsWrite())
}

func TestPlanRenegotiation_SameDayIsNotMarked(t *testing.T) {
	loan := installmentLoan(date(2024, 1, 10))
	loan.Notes = "[RENEGOTIATED_FROM:2024-03-01]"
	sameDay := pay(loan, "300", date(2024, 3, 1).Add(9*time.Hour), "")

	plan := PlanRenegotiation(loan, []*domain.Payment{sameDay}, LoadFacts(loan, nil), today)

	assert.True(t, plan.Renegotiated)
	assert.Empty(t, plan.Marked)
	assert.True(t, plan.Result.TotalPaid.Equal(d("300")))
}

func TestPlanRenegotiation_InferredFromFreeText(t *testing.T) {
	loan := installmentLoan(date(2024, 1, 10))
	loan.CreatedAt = date(2024, 4, 1)
	loan.Notes = "acordo [RENEGOTIATED]"
	before := pay(loan, "300", date(2024, 3, 20), "")

	plan := PlanRenegotiation(loan, []*domain.Payment{before}, LoadFacts(loan, nil), today)

	assert.True(t, plan.Inferred)
	assert.Equal(t, loan.CreatedAt, plan.ReferenceDate)
	require.Len(t, plan.Marked, 1)
}

func TestPlanRenegotiation_CorrectsStaleBalanceWithoutMarking(t *testing.T) {
	loan := installmentLoan(date(2024, 5, 10))
	loan.Notes = "[RENEGOTIATION_DATE:2024-03-01]"
	loan.TotalPaid = d("0")
	loan.RemainingBalance = d("999")
	payments := []*domain.Payment{pay(loan, "300", date(2024, 6, 10), "")}

	plan := PlanRenegotiation(loan, payments, LoadFacts(loan, nil), today)

	assert.Empty(t, plan.Marked)
	assert.True(t, plan.NeedsWrite())
	assert.True(t, plan.Result.RemainingBalance.Equal(d("1200")))
}

func TestPlanRenegotiation_NotRenegotiated(t *testing.T) {
	loan := installmentLoan(date(2024, 1, 10))
	payments := []*domain.Payment{pay(loan, "300", date(2024, 2, 1), "")}

	plan := PlanRenegotiation(loan, payments, LoadFacts(loan, nil), today)

	assert.False(t, plan.Renegotiated)
	assert.False(t, plan.NeedsWrite())
}

func TestPlanRenegotiation_MarksAreMonotonic(t *testing.T) {
	loan := installmentLoan(date(2024, 1, 10))
	loan.Notes = "[RENEGOTIATION_DATE:2024-03-01]"
	alreadyMarked := pay(loan, "200", date(2024, 4, 1), "manual [PRE_RENEGOTIATION]")
	later := pay(loan, "300", date(2024, 4, 2), "")

	first := PlanRenegotiation(loan, []*domain.Payment{alreadyMarked, later}, LoadFacts(loan, nil), today)
	extra := pay(loan, "100", date(2024, 5, 1), "")
	second := PlanRenegotiation(loan, append(first.Payments, extra), LoadFacts(loan, nil), today)

	for _, plan := range []RenegotiationPlan{first, second} {
		for _, p := range plan.Payments {
			if p.ID == alreadyMarked.ID {
				assert.True(t, tags.Has(p.Notes, tags.PreRenegotiation))
			}
		}
	}
	assert.True(t, second.Result.TotalPaid.Equal(d("400")))
}
