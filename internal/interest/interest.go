// Package interest computes what a borrower owes under each loan shape.
package interest

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// Terms are the inputs of the interest model for one loan.
type Terms struct {
	PaymentType  string
	InterestMode string
	Principal    decimal.Decimal
	Rate         decimal.Decimal // percent, 10 means 10%
	Installments int
	// StoredTotalInterest is the loan's total_interest column. For daily
	// loans it is the flat daily installment amount.
	StoredTotalInterest decimal.Decimal
	// TotalPaid and RemainingBalance are only read for single loans,
	// whose obligation is the lump they add up to.
	TotalPaid        decimal.Decimal
	RemainingBalance decimal.Decimal
}

// Breakdown is the result of the interest model.
type Breakdown struct {
	TotalInterest           decimal.Decimal `json:"total_interest"`
	TotalToReceive          decimal.Decimal `json:"total_to_receive"`
	InstallmentValue        decimal.Decimal `json:"installment_value"`
	PrincipalPerInstallment decimal.Decimal `json:"principal_per_installment"`
	InterestPerInstallment  decimal.Decimal `json:"interest_per_installment"`
	Installments            int             `json:"installments"`
}

// TermsOf extracts the interest terms of a loan.
func TermsOf(loan *domain.Loan) Terms {
	return Terms{
		PaymentType:         loan.PaymentType,
		InterestMode:        loan.InterestMode,
		Principal:           loan.PrincipalAmount,
		Rate:                loan.InterestRate,
		Installments:        loan.Installments,
		StoredTotalInterest: loan.TotalInterest,
		TotalPaid:           loan.TotalPaid,
		RemainingBalance:    loan.RemainingBalance,
	}
}

// TotalOwed computes total interest, total to receive and the per-installment
// split. It never fails: zero installments count as one and negative results
// are clamped to zero.
func TotalOwed(t Terms) Breakdown {
	n := t.Installments
	if n < 1 {
		n = 1
	}
	principal := utils.NonNegative(t.Principal)
	rate := utils.Percent(utils.NonNegative(t.Rate))

	switch t.PaymentType {
	case domain.PaymentTypeSingle:
		return single(t, principal)
	case domain.PaymentTypeDaily:
		return daily(t, principal, n)
	}

	var totalInterest decimal.Decimal
	switch t.InterestMode {
	case domain.InterestModeOnTotal:
		totalInterest = principal.Mul(rate)
	case domain.InterestModeCompound:
		growth := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(n)))
		totalInterest = principal.Mul(growth).Sub(principal)
	default:
		totalInterest = principal.Mul(rate).Mul(decimal.NewFromInt(int64(n)))
	}
	totalInterest = utils.RoundCents(utils.NonNegative(totalInterest))
	total := principal.Add(totalInterest)

	count := decimal.NewFromInt(int64(n))
	installmentValue := utils.RoundCents(total.Div(count))
	principalPer := utils.RoundCents(principal.Div(count))

	return Breakdown{
		TotalInterest:           totalInterest,
		TotalToReceive:          utils.RoundCents(total),
		InstallmentValue:        installmentValue,
		PrincipalPerInstallment: principalPer,
		InterestPerInstallment:  utils.NonNegative(installmentValue.Sub(principalPer)),
		Installments:            n,
	}
}

func single(t Terms, principal decimal.Decimal) Breakdown {
	total := utils.RoundCents(utils.NonNegative(t.RemainingBalance.Add(t.TotalPaid)))
	totalInterest := utils.NonNegative(total.Sub(principal))
	return Breakdown{
		TotalInterest:           totalInterest,
		TotalToReceive:          total,
		InstallmentValue:        total,
		PrincipalPerInstallment: utils.RoundCents(principal),
		InterestPerInstallment:  totalInterest,
		Installments:            1,
	}
}

func daily(t Terms, principal decimal.Decimal, n int) Breakdown {
	dailyAmount := utils.RoundCents(utils.NonNegative(t.StoredTotalInterest))
	total := dailyAmount.Mul(decimal.NewFromInt(int64(n)))
	principalPer := utils.RoundCents(principal.Div(decimal.NewFromInt(int64(n))))
	return Breakdown{
		TotalInterest:           utils.RoundCents(utils.NonNegative(total.Sub(principal))),
		TotalToReceive:          utils.RoundCents(total),
		InstallmentValue:        dailyAmount,
		PrincipalPerInstallment: principalPer,
		InterestPerInstallment:  utils.NonNegative(dailyAmount.Sub(principalPer)),
		Installments:            n,
	}
}

// PrincipalShare returns the fraction of an installment payment that repays
// principal, in [0, 1].
func (b Breakdown) PrincipalShare() decimal.Decimal {
	if !b.InstallmentValue.IsPositive() {
		return decimal.Zero
	}
	share := b.PrincipalPerInstallment.Div(b.InstallmentValue)
	if share.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return share
}

// Split divides a payment amount into principal and interest using the
// loan's per-installment proportions.
func (b Breakdown) Split(amount decimal.Decimal) (principal, interest decimal.Decimal) {
	principal = utils.RoundCents(amount.Mul(b.PrincipalShare()))
	return principal, amount.Sub(principal)
}
