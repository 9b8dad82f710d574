package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/tags"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// DefaultMilestones are the days-overdue at which a penalty is charged.
var DefaultMilestones = []int{1, 3, 7, 15, 30}

var thirty = decimal.NewFromInt(30)

// PenaltyCharge is one penalty to append for an installment.
type PenaltyCharge struct {
	Index             int
	DueDate           time.Time
	DaysOverdue       int
	InstallmentAmount decimal.Decimal
	Amount            decimal.Decimal
}

// PenaltyPlan is the outcome of one accrual run for a loan.
type PenaltyPlan struct {
	Configured   bool
	Policy       OverduePolicy
	Charges      []PenaltyCharge
	Total        decimal.Decimal
	NewRemaining decimal.Decimal
}

// ComputePenalty applies an overdue policy for a number of days overdue.
func ComputePenalty(policy OverduePolicy, installmentAmount, totalToReceive decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	rate := utils.NonNegative(policy.Rate)
	n := decimal.NewFromInt(int64(days))

	var amount decimal.Decimal
	switch policy.Type {
	case tags.PenaltyPercentage:
		amount = installmentAmount.Mul(utils.Percent(rate)).Mul(n)
	case tags.PenaltyPercentageTotal:
		amount = totalToReceive.Mul(utils.Percent(rate)).Div(thirty).Mul(n)
	case tags.PenaltyFixed:
		amount = rate.Mul(n)
	default:
		return decimal.Zero
	}
	return utils.RoundCents(utils.NonNegative(amount))
}

// PlanPenalties finds the unpaid installments whose days overdue is exactly
// one of the milestones and that were not charged for that milestone yet.
// Loans without an overdue configuration get an empty plan.
func PlanPenalties(loan *domain.Loan, payments []*domain.Payment, facts Facts, milestones []int, today time.Time) PenaltyPlan {
	plan := PenaltyPlan{Total: decimal.Zero, NewRemaining: loan.RemainingBalance}
	if facts.Overdue == nil {
		return plan
	}
	plan.Configured = true
	plan.Policy = *facts.Overdue
	if len(milestones) == 0 {
		milestones = DefaultMilestones
	}

	res := Reconcile(loan, payments, facts, today)
	if res.Status == domain.LoanStatusPaid {
		return plan
	}

	isMilestone := make(map[int]bool, len(milestones))
	for _, m := range milestones {
		isMilestone[m] = true
	}

	dates := DueDates(loan)
	for index := res.PaidInstallments; index < len(dates); index++ {
		days := utils.DaysBetween(dates[index], today)
		if !isMilestone[days] || facts.HasPenalty(index, days) {
			continue
		}
		amount := ComputePenalty(plan.Policy, res.Breakdown.InstallmentValue, res.Breakdown.TotalToReceive, days)
		if !amount.IsPositive() {
			continue
		}
		plan.Charges = append(plan.Charges, PenaltyCharge{
			Index:             index,
			DueDate:           dates[index],
			DaysOverdue:       days,
			InstallmentAmount: res.Breakdown.InstallmentValue,
			Amount:            amount,
		})
		plan.Total = plan.Total.Add(amount)
	}
	plan.NewRemaining = utils.RoundCents(loan.RemainingBalance.Add(plan.Total))
	return plan
}

// PenaltyEvents converts planned charges to append-only ledger events.
func PenaltyEvents(loan *domain.Loan, plan PenaltyPlan, now time.Time) []*domain.LedgerEvent {
	events := make([]*domain.LedgerEvent, 0, len(plan.Charges))
	for _, c := range plan.Charges {
		e, _ := EventFromTag(loan.ID, tags.Tag{Kind: tags.DailyPenalty, Index: c.Index, Amount: c.Amount, Days: c.DaysOverdue})
		e.CreatedAt = now
		events = append(events, e)
	}
	return events
}
