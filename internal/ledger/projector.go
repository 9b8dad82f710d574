package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/interest"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// MaxProjectedInstallments caps how far back a projection goes.
const MaxProjectedInstallments = 60

// ProjectionParams describe a loan that was running before it was entered.
type ProjectionParams struct {
	StartDate    time.Time
	Frequency    string
	Principal    decimal.Decimal
	Rate         decimal.Decimal
	InterestMode string
	// Installments is the contract length. When zero the number of
	// projected installments is used.
	Installments int
	// DailyAmount switches the projection to the daily loan shape.
	DailyAmount decimal.Decimal
	// Overrides replace the default interest of an installment, by index.
	Overrides map[int]decimal.Decimal
	Today     time.Time
}

// ProjectedInstallment is one installment that fell before today.
type ProjectedInstallment struct {
	Index      int             `json:"index"`
	Number     int             `json:"number"`
	DueDate    time.Time       `json:"due_date"`
	Interest   decimal.Decimal `json:"interest"`
	Overridden bool            `json:"overridden"`
}

// Projection is the result of ProjectHistoricalInstallments.
type Projection struct {
	Installments                  []ProjectedInstallment `json:"installments"`
	DefaultInterestPerInstallment decimal.Decimal        `json:"default_interest_per_installment"`
	TotalInterest                 decimal.Decimal        `json:"total_interest"`
}

// ProjectHistoricalInstallments lists the installment dates strictly before
// today and gives each one a default interest share. Principal is never
// touched: the projection only records interest already received.
func ProjectHistoricalInstallments(p ProjectionParams) Projection {
	frequency := p.Frequency
	if !utils.ValidFrequency(frequency) {
		frequency = utils.FrequencyMonthly
	}

	var dates []time.Time
	if !p.StartDate.IsZero() {
		for n := 1; len(dates) < MaxProjectedInstallments; n++ {
			due := utils.CalculateDueDate(p.StartDate, frequency, n)
			if !utils.IsBeforeDay(due, p.Today) {
				break
			}
			dates = append(dates, due)
		}
	}

	count := p.Installments
	if count < 1 {
		count = len(dates)
	}
	perInstallment := defaultInterestShare(p, count)

	out := Projection{
		Installments:                  make([]ProjectedInstallment, 0, len(dates)),
		DefaultInterestPerInstallment: perInstallment,
		TotalInterest:                 decimal.Zero,
	}
	for i, due := range dates {
		item := ProjectedInstallment{Index: i, Number: i + 1, DueDate: due, Interest: perInstallment}
		if override, ok := p.Overrides[i]; ok {
			item.Interest = utils.RoundCents(utils.NonNegative(override))
			item.Overridden = true
		}
		out.TotalInterest = out.TotalInterest.Add(item.Interest)
		out.Installments = append(out.Installments, item)
	}
	out.TotalInterest = utils.RoundCents(out.TotalInterest)
	return out
}

func defaultInterestShare(p ProjectionParams, count int) decimal.Decimal {
	if count < 1 {
		return decimal.Zero
	}
	if p.DailyAmount.IsPositive() {
		b := interest.TotalOwed(interest.Terms{
			PaymentType:         domain.PaymentTypeDaily,
			Principal:           p.Principal,
			Installments:        count,
			StoredTotalInterest: p.DailyAmount,
		})
		return b.InterestPerInstallment
	}
	b := interest.TotalOwed(interest.Terms{
		PaymentType:  domain.PaymentTypeInstallment,
		InterestMode: p.InterestMode,
		Principal:    p.Principal,
		Rate:         p.Rate,
		Installments: count,
	})
	return utils.RoundCents(b.TotalInterest.Div(decimal.NewFromInt(int64(count))))
}
