// Package ledger is the reconciliation engine: it derives balances and
// repair plans from a loan, its payment rows and its ledger events.
// Nothing in this package performs I/O.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/tags"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// Penalty is one accrued overdue charge.
type Penalty struct {
	Index  int
	Amount decimal.Decimal
	Days   int // 0 for legacy charges that did not record it
}

// OverduePolicy is the penalty configuration of a loan.
type OverduePolicy struct {
	Type string
	Rate decimal.Decimal
}

// Facts is the canonical view of a loan's per-installment facts, whatever
// their origin (ledger_events rows or legacy notes tags).
type Facts struct {
	PartialPaid        []domain.InstallmentAmount
	Penalties          []Penalty
	RenegotiationDate  *time.Time
	RenegotiationHint  bool
	Overdue            *OverduePolicy
	HistoricalContract bool
}

// LoadFacts merges stored events with the tags still embedded in the loan notes.
func LoadFacts(loan *domain.Loan, stored []*domain.LedgerEvent) Facts {
	facts := BuildFacts(MergeEvents(stored, EventsFromNotes(loan)))
	facts.RenegotiationHint = tags.HasRenegotiationHint(loan.Notes)
	return facts
}

// LegacyFacts is LoadFacts restricted to facts of legacy origin: the notes
// tags and the events imported from them. Partial-paid events regenerated
// by the reconciler mirror payment rows and are left out, so history checks
// only compare rows against what the legacy notes recorded.
func LegacyFacts(loan *domain.Loan, stored []*domain.LedgerEvent) Facts {
	var imported []*domain.LedgerEvent
	for _, e := range stored {
		if e.Source == domain.EventSourceLegacyNotes {
			imported = append(imported, e)
		}
	}
	return LoadFacts(loan, imported)
}

// BuildFacts folds events into Facts. Later events win for single-valued facts.
func BuildFacts(events []*domain.LedgerEvent) Facts {
	var facts Facts
	partial := make(map[int]decimal.Decimal)

	for _, e := range events {
		switch e.Kind {
		case domain.EventPartialPaid:
			if e.InstallmentIndex != nil {
				partial[*e.InstallmentIndex] = e.Amount
			}
		case domain.EventDailyPenalty:
			if e.InstallmentIndex == nil {
				continue
			}
			p := Penalty{Index: *e.InstallmentIndex, Amount: e.Amount}
			if e.DaysOverdue != nil {
				p.Days = *e.DaysOverdue
			}
			facts.Penalties = append(facts.Penalties, p)
		case domain.EventRenegotiation:
			date, err := utils.ParseDate(e.Ref)
			if err != nil {
				continue
			}
			if facts.RenegotiationDate == nil || date.After(*facts.RenegotiationDate) {
				facts.RenegotiationDate = &date
			}
		case domain.EventOverdueConfig:
			facts.Overdue = &OverduePolicy{Type: e.Ref, Rate: e.Amount}
		case domain.EventHistoricalContract:
			facts.HistoricalContract = true
		}
	}

	for index, amount := range partial {
		facts.PartialPaid = append(facts.PartialPaid, domain.InstallmentAmount{Index: index, Amount: amount})
	}
	sort.Slice(facts.PartialPaid, func(i, j int) bool {
		return facts.PartialPaid[i].Index < facts.PartialPaid[j].Index
	})
	return facts
}

// PenaltiesByIndex sums accrued penalties per installment.
func (f Facts) PenaltiesByIndex() map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal)
	for _, p := range f.Penalties {
		out[p.Index] = out[p.Index].Add(p.Amount)
	}
	return out
}

// TotalPenalties sums every accrued penalty.
func (f Facts) TotalPenalties() decimal.Decimal {
	total := decimal.Zero
	for _, p := range f.Penalties {
		total = total.Add(p.Amount)
	}
	return total
}

// HasPenalty reports whether a penalty was already charged for an
// installment at a given days-overdue milestone.
func (f Facts) HasPenalty(index, days int) bool {
	for _, p := range f.Penalties {
		if p.Index == index && p.Days == days {
			return true
		}
	}
	return false
}

// EventsFromNotes converts the recognized loan-level tags of the notes field
// into ledger events. Payment markers found on a loan are ignored.
func EventsFromNotes(loan *domain.Loan) []*domain.LedgerEvent {
	var events []*domain.LedgerEvent
	for _, t := range tags.ParseCanonical(loan.Notes) {
		e, ok := EventFromTag(loan.ID, t)
		if !ok {
			continue
		}
		e.Source = domain.EventSourceLegacyNotes
		e.CreatedAt = loan.CreatedAt
		events = append(events, e)
	}
	return events
}

// EventFromTag maps a canonical tag to a ledger event.
func EventFromTag(loanID uuid.UUID, t tags.Tag) (*domain.LedgerEvent, bool) {
	e := &domain.LedgerEvent{
		ID:     uuid.New(),
		LoanID: loanID,
		Amount: decimal.Zero,
		Source: domain.EventSourceEngine,
	}
	switch t.Kind {
	case tags.PartialPaid:
		e.Kind = domain.EventPartialPaid
		e.InstallmentIndex = intPtr(t.Index)
		e.Amount = t.Amount
	case tags.DailyPenalty:
		e.Kind = domain.EventDailyPenalty
		e.InstallmentIndex = intPtr(t.Index)
		e.Amount = t.Amount
		if t.Days > 0 {
			e.DaysOverdue = intPtr(t.Days)
		}
	case tags.RenegotiationDate, tags.RenegotiatedFrom:
		e.Kind = domain.EventRenegotiation
		e.Ref = utils.FormatDate(t.Date)
	case tags.OverdueConfig:
		e.Kind = domain.EventOverdueConfig
		e.Ref = t.Type
		e.Amount = t.Amount
	case tags.HistoricalContract, tags.ContratoAntigo:
		e.Kind = domain.EventHistoricalContract
	default:
		return nil, false
	}
	return e, true
}

// EventKey identifies an event by content, ignoring id, source and time.
func EventKey(e *domain.LedgerEvent) string {
	index, days := -1, 0
	if e.InstallmentIndex != nil {
		index = *e.InstallmentIndex
	}
	if e.DaysOverdue != nil {
		days = *e.DaysOverdue
	}
	return fmt.Sprintf("%s|%d|%s|%d|%s", e.Kind, index, e.Amount.StringFixed(2), days, e.Ref)
}

// MergeEvents is the multiset union of stored and legacy events: a legacy
// event is only added when the stored set holds fewer copies of it.
// Legacy events come first so stored ones win single-valued facts.
func MergeEvents(stored, legacy []*domain.LedgerEvent) []*domain.LedgerEvent {
	extra := MissingEvents(stored, legacy)
	out := make([]*domain.LedgerEvent, 0, len(extra)+len(stored))
	out = append(out, extra...)
	return append(out, stored...)
}

// MissingEvents returns the legacy events not yet present in stored,
// counting duplicates.
func MissingEvents(stored, legacy []*domain.LedgerEvent) []*domain.LedgerEvent {
	have := make(map[string]int, len(stored))
	for _, e := range stored {
		have[EventKey(e)]++
	}
	var out []*domain.LedgerEvent
	for _, e := range legacy {
		key := EventKey(e)
		if have[key] > 0 {
			have[key]--
			continue
		}
		out = append(out, e)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
