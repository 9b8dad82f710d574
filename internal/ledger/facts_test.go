package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-ledger/internal/domain"
)

func TestEventsFromNotes(t *testing.T) {
	loan := &domain.Loan{
		ID:    uuid.New(),
		Notes: "obs [PARTIAL_PAID:0:50] [RENEGOTIATED_FROM:2024-03-01] [DAILY_PENALTY:2:4.5] [OVERDUE_CONFIG:percentage:1] [CONTRATO_ANTIGO] [PRE_RENEGOTIATION] [BROKEN:1]",
	}

	events := EventsFromNotes(loan)

	require.Len(t, events, 5)
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
		assert.Equal(t, domain.EventSourceLegacyNotes, e.Source)
		assert.Equal(t, loan.ID, e.LoanID)
	}
	assert.Equal(t, []string{
		domain.EventPartialPaid,
		domain.EventRenegotiation,
		domain.EventDailyPenalty,
		domain.EventOverdueConfig,
		domain.EventHistoricalContract,
	}, kinds)
	assert.Equal(t, "2024-03-01", events[1].Ref)
	assert.Nil(t, events[2].DaysOverdue)
}

func TestLoadFacts(t *testing.T) {
	loan := &domain.Loan{
		ID:    uuid.New(),
		Notes: "[RENEGOTIATION_DATE:2024-01-01] [OVERDUE_CONFIG:fixed:5] [PARTIAL_PAID:1:20] Valor prometido 300",
	}
	stored := []*domain.LedgerEvent{
		{Kind: domain.EventRenegotiation, Ref: "2024-03-01"},
		{Kind: domain.EventOverdueConfig, Ref: "percentage", Amount: d("2")},
		{Kind: domain.EventPartialPaid, InstallmentIndex: intPtr(0), Amount: d("50")},
	}

	facts := LoadFacts(loan, stored)

	require.NotNil(t, facts.RenegotiationDate)
	assert.Equal(t, "2024-03-01", facts.RenegotiationDate.Format("2006-01-02"))
	require.NotNil(t, facts.Overdue)
	assert.Equal(t, "percentage", facts.Overdue.Type)
	assert.True(t, facts.RenegotiationHint)
	require.Len(t, facts.PartialPaid, 2)
	assert.Equal(t, 0, facts.PartialPaid[0].Index)
	assert.Equal(t, 1, facts.PartialPaid[1].Index)
}

func TestMergeEvents_MultisetUnion(t *testing.T) {
	penalty := func() *domain.LedgerEvent {
		return &domain.LedgerEvent{Kind: domain.EventDailyPenalty, InstallmentIndex: intPtr(1), Amount: d("5")}
	}
	stored := []*domain.LedgerEvent{penalty()}
	legacy := []*domain.LedgerEvent{penalty(), penalty()}

	merged := MergeEvents(stored, legacy)
	missing := MissingEvents(stored, legacy)

	assert.Len(t, merged, 2)
	assert.Len(t, missing, 1)
	assert.Empty(t, MissingEvents(merged, legacy))
}

func TestFacts_HasPenalty(t *testing.T) {
	facts := BuildFacts([]*domain.LedgerEvent{
		{Kind: domain.EventDailyPenalty, InstallmentIndex: intPtr(2), Amount: d("5"), DaysOverdue: intPtr(3)},
		{Kind: domain.EventDailyPenalty, InstallmentIndex: nil, Amount: d("5")},
	})

	assert.True(t, facts.HasPenalty(2, 3))
	assert.False(t, facts.HasPenalty(2, 7))
	assert.False(t, facts.HasPenalty(1, 3))
	assert.Len(t, facts.Penalties, 1)
}

func TestLegacyFacts_IgnoresRegeneratedPartials(t *testing.T) {
	loan := dailyLoan(date(2024, 6, 1))
	loan.Notes = "[OVERDUE_CONFIG:fixed:5]"
	regenerated := &domain.LedgerEvent{Kind: domain.EventPartialPaid, InstallmentIndex: intPtr(0), Amount: d("50"), Source: domain.EventSourceEngine}
	imported := &domain.LedgerEvent{Kind: domain.EventPartialPaid, InstallmentIndex: intPtr(1), Amount: d("50"), Source: domain.EventSourceLegacyNotes}

	all := LoadFacts(loan, []*domain.LedgerEvent{regenerated, imported})
	legacy := LegacyFacts(loan, []*domain.LedgerEvent{regenerated, imported})

	assert.Len(t, all.PartialPaid, 2)
	require.Len(t, legacy.PartialPaid, 1)
	assert.Equal(t, 1, legacy.PartialPaid[0].Index)
	assert.NotNil(t, legacy.Overdue)
}
