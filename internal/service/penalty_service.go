package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/ledger"
	"github.com/segyhp/loan-ledger/internal/notifier"
)

// PenaltyService charges overdue penalties at the configured milestones.
type PenaltyService struct {
	engine
}

func NewPenaltyService(deps Dependencies, opts Options) *PenaltyService {
	return &PenaltyService{engine: newEngine(deps, opts)}
}

// AccruePenalties appends a penalty event for every unpaid installment whose
// days overdue is exactly a milestone, adds the charges to the remaining
// balance and notifies the borrower.
func (s *PenaltyService) AccruePenalties(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowPenalties, req, s.accrue)
}

func (s *PenaltyService) accrue(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	state, err := s.load(ctx, loan)
	if err != nil {
		return domain.ItemReport{}, err
	}

	plan := ledger.PlanPenalties(loan, state.payments, state.facts, s.opts.PenaltyMilestones, s.today())
	if !plan.Configured {
		return skipped("no overdue configuration"), nil
	}
	if len(plan.Charges) == 0 {
		return skipped("no installment at a penalty milestone"), nil
	}

	changes := make([]domain.Change, 0, len(plan.Charges)+1)
	for _, c := range plan.Charges {
		changes = append(changes, domain.Change{
			Field: fmt.Sprintf("penalty:%d", c.Index+1),
			To:    fmt.Sprintf("%s at %d days overdue", c.Amount.StringFixed(2), c.DaysOverdue),
		})
	}
	changes = append(changes, domain.Change{
		Field: "remaining_balance",
		From:  loan.RemainingBalance.StringFixed(2),
		To:    plan.NewRemaining.StringFixed(2),
	})
	message := fmt.Sprintf("%d penalties totalling %s", len(plan.Charges), plan.Total.StringFixed(2))
	if dryRun {
		return planned(true, message, changes), nil
	}

	if err := s.deps.EventRepo.Append(ctx, ledger.PenaltyEvents(loan, plan, s.now())); err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	updated := *loan
	updated.RemainingBalance = plan.NewRemaining
	updated.Status = domain.LoanStatusOverdue
	if err := s.deps.LoanRepo.UpdateBalance(ctx, &updated); err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	s.deps.Metrics.PenaltiesCharged(len(plan.Charges))
	s.invalidate(ctx, loan.ID)

	s.notify(ctx, loan, state.facts, plan)
	return planned(false, message, changes), nil
}

// notify sends one notice per charge. Delivery failures never undo the charge.
func (s *PenaltyService) notify(ctx context.Context, loan *domain.Loan, facts ledger.Facts, plan ledger.PenaltyPlan) {
	total := facts.TotalPenalties().Add(plan.Total)
	for _, c := range plan.Charges {
		notice := notifier.PenaltyNotice{
			LoanID:            loan.ID,
			Phone:             loan.ClientPhone,
			InstallmentNumber: c.Index + 1,
			DueDate:           c.DueDate,
			DaysOverdue:       c.DaysOverdue,
			Penalty:           c.Amount,
			TotalPenalties:    total,
			RemainingBalance:  plan.NewRemaining,
		}
		if err := s.deps.Notifier.NotifyPenalty(ctx, notice); err != nil {
			s.deps.Metrics.NotificationFailed()
			s.deps.Logger.Warn("penalty notification failed",
				zap.String("loan_id", loan.ID.String()),
				zap.String("notifier", s.deps.Notifier.Name()),
				zap.Int("installment", c.Index+1),
				zap.Error(err))
		}
	}
}
