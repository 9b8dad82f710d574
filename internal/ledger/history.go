package ledger

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/interest"
	"github.com/segyhp/loan-ledger/internal/tags"
)

var installmentRef = regexp.MustCompile(`(?i)\bparcela\s+(\d+)`)

// HistoryPlan lists the payment rows the history synthesizer would insert.
type HistoryPlan struct {
	TaggedInstallments int
	RealPayments       int
	Rows               []*domain.Payment
}

// Triggered reports whether tags record more installments than there are
// payment rows.
func (p HistoryPlan) Triggered() bool {
	return p.TaggedInstallments > p.RealPayments
}

// RealPaymentCount counts payment rows that stand for an installment,
// leaving out amortizations and interest-only payments.
func RealPaymentCount(payments []*domain.Payment) int {
	n := 0
	for _, p := range payments {
		if tags.Has(p.Notes, tags.Amortization) || tags.Has(p.Notes, tags.InterestOnly) {
			continue
		}
		n++
	}
	return n
}

// ReferencedIndex returns the installment a payment row is tied to, if any.
func ReferencedIndex(p *domain.Payment) (int, bool) {
	if p.InstallmentIndex != nil {
		return *p.InstallmentIndex, true
	}
	m := installmentRef.FindStringSubmatch(p.Notes)
	if m == nil {
		return 0, false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil || number < 1 {
		return 0, false
	}
	return number - 1, true
}

// PlanHistory rebuilds the payment rows of installments that only exist as
// PARTIAL_PAID tags.
//
// Tagged installments referenced by a row are left alone. Real rows that
// reference no installment are taken to cover the earliest unreferenced
// tags, so the plan never brings the row count above the tag count.
func PlanHistory(loan *domain.Loan, payments []*domain.Payment, facts Facts) HistoryPlan {
	plan := HistoryPlan{
		TaggedInstallments: len(facts.PartialPaid),
		RealPayments:       RealPaymentCount(payments),
	}
	if !plan.Triggered() {
		return plan
	}

	referenced := make(map[int]bool)
	unreferenced := 0
	for _, p := range payments {
		if tags.Has(p.Notes, tags.Amortization) || tags.Has(p.Notes, tags.InterestOnly) {
			continue
		}
		if index, ok := ReferencedIndex(p); ok {
			referenced[index] = true
			continue
		}
		unreferenced++
	}

	breakdown := interest.TotalOwed(interest.TermsOf(loan))
	for _, entry := range facts.PartialPaid {
		if referenced[entry.Index] {
			continue
		}
		if unreferenced > 0 {
			unreferenced--
			continue
		}
		principal, interestPaid := breakdown.Split(entry.Amount)
		date := dateAt(loan, loan.InstallmentDates, entry.Index)
		index := entry.Index
		plan.Rows = append(plan.Rows, &domain.Payment{
			ID:               uuid.New(),
			LoanID:           loan.ID,
			Amount:           entry.Amount,
			PrincipalPaid:    principal,
			InterestPaid:     interestPaid,
			PaymentDate:      date,
			InstallmentIndex: &index,
			Notes:            fmt.Sprintf("%s Parcela %d — recuperado", tags.Marker(tags.ContratoAntigo), entry.Index+1),
			CreatedAt:        date,
		})
	}
	return plan
}
