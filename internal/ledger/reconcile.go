package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/interest"
	"github.com/segyhp/loan-ledger/internal/tags"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// Payment classes for balance computation.
const (
	classCounted = iota
	classInterestOnly
	classExcluded
)

// Result is the reconciled state of a loan.
type Result struct {
	Breakdown        interest.Breakdown
	TotalPaid        decimal.Decimal
	InterestReceived decimal.Decimal
	TotalPenalties   decimal.Decimal
	RemainingBalance decimal.Decimal
	Status           string
	PaidInstallments int
	NextDueDate      *time.Time
	// PartialPaid is the regenerated per-installment paid state. Daily loans only.
	PartialPaid      []domain.InstallmentAmount
	CountedPayments  int
	ExcludedPayments int
}

// Reconcile recomputes total paid, remaining balance and status purely from
// the payment rows. It has no side effects and the same inputs always give
// the same result.
func Reconcile(loan *domain.Loan, payments []*domain.Payment, facts Facts, today time.Time) Result {
	ordered := orderByCreation(payments)
	breakdown := interest.TotalOwed(interest.TermsOf(loan))

	res := Result{
		Breakdown:        breakdown,
		TotalPaid:        decimal.Zero,
		InterestReceived: decimal.Zero,
		TotalPenalties:   decimal.Zero,
	}

	var counted []decimal.Decimal
	for _, p := range ordered {
		switch classify(p) {
		case classCounted:
			res.TotalPaid = res.TotalPaid.Add(p.Amount)
			counted = append(counted, p.Amount)
			res.CountedPayments++
		case classInterestOnly:
			res.InterestReceived = res.InterestReceived.Add(p.Amount)
			res.ExcludedPayments++
		default:
			res.ExcludedPayments++
		}
	}
	res.TotalPaid = utils.RoundCents(res.TotalPaid)
	res.InterestReceived = utils.RoundCents(res.InterestReceived)

	owed := breakdown.TotalToReceive
	penalties := facts.PenaltiesByIndex()
	if loan.PaymentType != domain.PaymentTypeSingle {
		// Single loans derive their obligation from the stored balance,
		// which already carries accrued penalties.
		res.TotalPenalties = utils.RoundCents(facts.TotalPenalties())
		owed = owed.Add(res.TotalPenalties)
	}
	res.RemainingBalance = utils.RoundCents(utils.NonNegative(owed.Sub(res.TotalPaid)))

	dates := DueDates(loan)
	if loan.PaymentType == domain.PaymentTypeSingle {
		if res.RemainingBalance.LessThanOrEqual(utils.Tolerance) {
			res.PaidInstallments = 1
		}
	} else {
		due := func(i int) decimal.Decimal {
			return breakdown.InstallmentValue.Add(penalties[i])
		}
		paid, entries := walkInstallments(counted, breakdown.Installments, due)
		res.PaidInstallments = paid
		if loan.IsDaily() {
			res.PartialPaid = entries
		}
	}

	res.NextDueDate = nextDueDate(loan, dates, res.PaidInstallments)
	switch {
	case res.RemainingBalance.LessThanOrEqual(utils.Tolerance):
		res.Status = domain.LoanStatusPaid
		res.NextDueDate = nil
	case res.NextDueDate != nil && utils.IsBeforeDay(*res.NextDueDate, today):
		res.Status = domain.LoanStatusOverdue
	default:
		res.Status = domain.LoanStatusPending
	}
	return res
}

// walkInstallments applies payment amounts in order against installments of
// the given due amounts. It returns the number of fully paid installments
// and one entry per fully paid installment plus a trailing partial one.
func walkInstallments(amounts []decimal.Decimal, n int, due func(int) decimal.Decimal) (int, []domain.InstallmentAmount) {
	var entries []domain.InstallmentAmount
	carry := decimal.Zero
	index := 0

	for _, amount := range amounts {
		carry = carry.Add(amount)
		for index < n {
			owed := due(index)
			if !owed.IsPositive() || carry.Add(utils.Tolerance).LessThanOrEqual(owed) {
				break
			}
			entries = append(entries, domain.InstallmentAmount{Index: index, Amount: utils.RoundCents(owed)})
			carry = utils.NonNegative(carry.Sub(owed))
			index++
		}
	}

	full := index
	if index < n && carry.GreaterThanOrEqual(utils.Tolerance) {
		entries = append(entries, domain.InstallmentAmount{Index: index, Amount: utils.RoundCents(carry)})
	}
	return full, entries
}

func nextDueDate(loan *domain.Loan, dates []time.Time, paid int) *time.Time {
	if paid < len(dates) {
		d := dates[paid]
		return &d
	}
	if loan.DueDate != nil {
		d := *loan.DueDate
		return &d
	}
	if len(dates) > 0 {
		d := dates[len(dates)-1]
		return &d
	}
	return nil
}

func classify(p *domain.Payment) int {
	switch {
	case tags.Has(p.Notes, tags.PreRenegotiation):
		return classExcluded
	case tags.Has(p.Notes, tags.InterestOnly):
		return classInterestOnly
	default:
		return classCounted
	}
}

func orderByCreation(payments []*domain.Payment) []*domain.Payment {
	ordered := append([]*domain.Payment(nil), payments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

// Apply returns a copy of loan carrying the reconciled fields.
// Daily loans also lose their legacy PARTIAL_PAID tags, replaced by events.
func Apply(loan *domain.Loan, res Result) *domain.Loan {
	updated := *loan
	updated.TotalPaid = res.TotalPaid
	updated.RemainingBalance = res.RemainingBalance
	updated.Status = res.Status
	if loan.IsDaily() {
		updated.Notes = tags.Remove(loan.Notes, tags.PartialPaid)
	}
	return &updated
}

// Diff lists the stored fields that disagree with a reconciled result.
func Diff(loan *domain.Loan, facts Facts, res Result) []domain.Change {
	var changes []domain.Change
	if !loan.TotalPaid.Equal(res.TotalPaid) {
		changes = append(changes, domain.Change{Field: "total_paid", From: loan.TotalPaid.StringFixed(2), To: res.TotalPaid.StringFixed(2)})
	}
	if !loan.RemainingBalance.Equal(res.RemainingBalance) {
		changes = append(changes, domain.Change{Field: "remaining_balance", From: loan.RemainingBalance.StringFixed(2), To: res.RemainingBalance.StringFixed(2)})
	}
	if loan.Status != res.Status {
		changes = append(changes, domain.Change{Field: "status", From: loan.Status, To: res.Status})
	}
	if loan.IsDaily() {
		if !samePartialPaid(facts.PartialPaid, res.PartialPaid) {
			changes = append(changes, domain.Change{Field: "partial_paid", From: describePartial(facts.PartialPaid), To: describePartial(res.PartialPaid)})
		} else if tags.Has(loan.Notes, tags.PartialPaid) {
			changes = append(changes, domain.Change{Field: "notes", From: "legacy PARTIAL_PAID tags", To: "ledger events"})
		}
	}
	return changes
}

// PartialPaidEvents converts a regenerated partial-paid state to events.
func PartialPaidEvents(loan *domain.Loan, res Result, now time.Time) []*domain.LedgerEvent {
	events := make([]*domain.LedgerEvent, 0, len(res.PartialPaid))
	for _, entry := range res.PartialPaid {
		e, _ := EventFromTag(loan.ID, tags.Tag{Kind: tags.PartialPaid, Index: entry.Index, Amount: entry.Amount})
		e.CreatedAt = now
		events = append(events, e)
	}
	return events
}

// Ledger builds the dashboard view of a reconciled loan.
func Ledger(loan *domain.Loan, facts Facts, res Result, now time.Time) *domain.LoanLedger {
	return &domain.LoanLedger{
		LoanID:                  loan.ID,
		PaymentType:             loan.PaymentType,
		TotalInterest:           res.Breakdown.TotalInterest,
		TotalToReceive:          res.Breakdown.TotalToReceive,
		InstallmentValue:        res.Breakdown.InstallmentValue,
		PrincipalPerInstallment: res.Breakdown.PrincipalPerInstallment,
		InterestPerInstallment:  res.Breakdown.InterestPerInstallment,
		TotalPaid:               res.TotalPaid,
		InterestReceived:        res.InterestReceived,
		TotalPenalties:          utils.RoundCents(facts.TotalPenalties()),
		RemainingBalance:        res.RemainingBalance,
		Status:                  res.Status,
		PaidInstallments:        res.PaidInstallments,
		NextDueDate:             res.NextDueDate,
		PartialPaid:             res.PartialPaid,
		PenaltiesByInstallment:  facts.PenaltiesByIndex(),
		ComputedAt:              now,
	}
}

func samePartialPaid(a, b []domain.InstallmentAmount) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index || !a[i].Amount.Equal(b[i].Amount) {
			return false
		}
	}
	return true
}

func describePartial(entries []domain.InstallmentAmount) string {
	out := ""
	for i, e := range entries {
		if i > 0 {
			out += " "
		}
		out += tags.Tag{Kind: tags.PartialPaid, Index: e.Index, Amount: e.Amount}.String()
	}
	return out
}
