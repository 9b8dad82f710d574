package ledger

import (
	"sort"
	"time"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// DueDates returns the ordered installment due dates of a loan.
// Stored installment dates win; otherwise they are derived from the start
// date and frequency, and single loans fall back to their due date.
func DueDates(loan *domain.Loan) []time.Time {
	if len(loan.InstallmentDates) > 0 {
		dates := append([]time.Time(nil), loan.InstallmentDates...)
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return dates
	}
	if loan.PaymentType == domain.PaymentTypeSingle || loan.StartDate.IsZero() {
		if loan.DueDate != nil {
			return []time.Time{*loan.DueDate}
		}
		return nil
	}

	frequency := loan.PaymentFrequency
	if frequency == "" {
		frequency = utils.FrequencyMonthly
		if loan.IsDaily() {
			frequency = utils.FrequencyDaily
		}
	}
	n := loan.Installments
	if n < 1 {
		n = 1
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = utils.CalculateDueDate(loan.StartDate, frequency, i+1)
	}
	return dates
}

// dateAt returns the due date of installment index, falling back to the
// loan start date when the schedule is shorter.
func dateAt(loan *domain.Loan, dates []time.Time, index int) time.Time {
	if index >= 0 && index < len(dates) {
		return dates[index]
	}
	return loan.StartDate
}
