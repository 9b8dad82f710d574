package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/ledger"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// RepairService runs the repair workflows and serves reconciled ledgers.
type RepairService struct {
	engine
}

func NewRepairService(deps Dependencies, opts Options) *RepairService {
	return &RepairService{engine: newEngine(deps, opts)}
}

// ReconcileLoans recomputes total paid, remaining balance and status of the
// selected loans from their payment rows.
func (s *RepairService) ReconcileLoans(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowReconcile, req, s.reconcileLoan)
}

func (s *RepairService) reconcileLoan(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	state, err := s.load(ctx, loan)
	if err != nil {
		return domain.ItemReport{}, err
	}
	if gap, ok := s.historyGap(loan, state.payments, state.legacy); ok {
		return skipped(apperrors.WrapHistoryIncomplete(gap.TaggedInstallments, gap.RealPayments).Error()), nil
	}

	res := ledger.Reconcile(loan, state.payments, state.facts, s.today())
	changes := ledger.Diff(loan, state.facts, res)
	if len(changes) == 0 {
		return skipped("already consistent"), nil
	}
	if dryRun {
		return planned(true, "balance out of date", changes), nil
	}

	if err := s.applyReconcile(ctx, loan, res); err != nil {
		return domain.ItemReport{}, err
	}
	return planned(false, "balance corrected", changes), nil
}

// ResolveRenegotiations marks payments made before a renegotiation and
// reconciles renegotiated loans on the remaining payments.
func (s *RepairService) ResolveRenegotiations(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowRenegotiation, req, s.resolveRenegotiation)
}

func (s *RepairService) resolveRenegotiation(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	state, err := s.load(ctx, loan)
	if err != nil {
		return domain.ItemReport{}, err
	}

	plan := ledger.PlanRenegotiation(loan, state.payments, state.facts, s.today())
	if !plan.Renegotiated {
		return skipped("not renegotiated"), nil
	}
	if gap, ok := s.historyGap(loan, state.payments, state.legacy); ok {
		return skipped(apperrors.WrapHistoryIncomplete(gap.TaggedInstallments, gap.RealPayments).Error()), nil
	}
	if !plan.NeedsWrite() {
		return skipped("already consistent"), nil
	}

	message := fmt.Sprintf("renegotiated on %s, %d payments predate it", utils.FormatDate(plan.ReferenceDate), len(plan.Marked))
	if plan.Inferred {
		message += " (date inferred from creation)"
	}
	if dryRun {
		return planned(true, message, plan.Changes), nil
	}

	if err := s.deps.PaymentRepo.UpdateNotes(ctx, plan.Marked); err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	if err := s.applyReconcile(ctx, loan, plan.Result); err != nil {
		return domain.ItemReport{}, err
	}
	return planned(false, message, plan.Changes), nil
}

// RemoveDuplicates deletes accidental double entries of a payment and
// reconciles the affected loans.
func (s *RepairService) RemoveDuplicates(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowDuplicates, req, s.removeDuplicates)
}

func (s *RepairService) removeDuplicates(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	state, err := s.load(ctx, loan)
	if err != nil {
		return domain.ItemReport{}, err
	}

	groups := ledger.FindDuplicates(state.payments, s.opts.DuplicateWindow)
	if len(groups) == 0 {
		return skipped("no duplicates"), nil
	}
	remaining := ledger.WithoutDuplicates(state.payments, groups)
	if gap, ok := s.historyGap(loan, remaining, state.legacy); ok {
		return skipped(apperrors.WrapHistoryIncomplete(gap.TaggedInstallments, gap.RealPayments).Error()), nil
	}

	var changes []domain.Change
	for _, g := range groups {
		for _, p := range g.Remove {
			changes = append(changes, domain.Change{
				Field: "payment:" + p.ID.String(),
				From:  fmt.Sprintf("%s duplicate of %s", p.Amount.StringFixed(2), g.Keep.ID),
				To:    "deleted",
			})
		}
	}
	res := ledger.Reconcile(loan, remaining, state.facts, s.today())
	changes = append(changes, ledger.Diff(loan, state.facts, res)...)

	ids := ledger.RemovalIDs(groups)
	if dryRun {
		return planned(true, fmt.Sprintf("%d duplicate payments found, 0 deleted", len(ids)), changes), nil
	}

	deleted, err := s.deps.PaymentRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	if err := s.applyReconcile(ctx, loan, res); err != nil {
		return domain.ItemReport{}, err
	}
	return planned(false, fmt.Sprintf("%d duplicate payments deleted", deleted), changes), nil
}

// SynthesizeHistory recreates the payment rows of installments that only the
// legacy PARTIAL_PAID tags record, then reconciles.
func (s *RepairService) SynthesizeHistory(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowHistory, req, s.synthesizeHistory)
}

func (s *RepairService) synthesizeHistory(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	state, err := s.load(ctx, loan)
	if err != nil {
		return domain.ItemReport{}, err
	}

	plan := ledger.PlanHistory(loan, state.payments, state.legacy)
	if !plan.Triggered() || len(plan.Rows) == 0 {
		return skipped("payment history complete"), nil
	}

	changes := make([]domain.Change, 0, len(plan.Rows))
	for _, row := range plan.Rows {
		changes = append(changes, domain.Change{
			Field: "payment:new",
			To:    fmt.Sprintf("%s on %s: %s", row.Amount.StringFixed(2), utils.FormatDate(row.PaymentDate), row.Notes),
		})
	}
	payments := append(append([]*domain.Payment(nil), state.payments...), plan.Rows...)
	res := ledger.Reconcile(loan, payments, state.facts, s.today())
	changes = append(changes, ledger.Diff(loan, state.facts, res)...)

	message := fmt.Sprintf("%d installments tagged, %d payment rows, %d rows to recover", plan.TaggedInstallments, plan.RealPayments, len(plan.Rows))
	if dryRun {
		return planned(true, message, changes), nil
	}

	if err := s.deps.PaymentRepo.CreateBatch(ctx, plan.Rows); err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	if err := s.applyReconcile(ctx, loan, res); err != nil {
		return domain.ItemReport{}, err
	}
	return planned(false, message, changes), nil
}

// ImportLegacyTags copies the facts embedded in loan notes into the
// ledger_events table. Already imported facts are not copied twice.
func (s *RepairService) ImportLegacyTags(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return s.runBatch(ctx, domain.WorkflowLegacyTags, req, s.importLegacyTags)
}

func (s *RepairService) importLegacyTags(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error) {
	stored, err := s.deps.EventRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}

	missing := ledger.MissingEvents(stored, ledger.EventsFromNotes(loan))
	if len(missing) == 0 {
		return skipped("no legacy tags to import"), nil
	}

	changes := make([]domain.Change, 0, len(missing))
	for _, e := range missing {
		changes = append(changes, domain.Change{Field: "event:" + e.Kind, To: describeEvent(e)})
	}
	message := fmt.Sprintf("%d legacy facts to import", len(missing))
	if dryRun {
		return planned(true, message, changes), nil
	}

	if err := s.deps.EventRepo.Append(ctx, missing); err != nil {
		return domain.ItemReport{}, wrapDB(err)
	}
	s.invalidate(ctx, loan.ID)
	return planned(false, message, changes), nil
}

// GetLedger returns the reconciled view of one loan, from cache when fresh.
func (s *RepairService) GetLedger(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, error) {
	cached, hit, err := s.deps.Cache.Get(ctx, loanID)
	if err != nil {
		s.deps.Logger.Warn("ledger cache read failed", zap.String("loan_id", loanID.String()), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	loan, err := s.deps.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, wrapDB(err)
	}
	state, err := s.load(ctx, loan)
	if err != nil {
		return nil, err
	}

	res := ledger.Reconcile(loan, state.payments, state.facts, s.today())
	view := ledger.Ledger(loan, state.facts, res, s.now())

	if err := s.deps.Cache.Set(ctx, view); err != nil {
		s.deps.Logger.Warn("ledger cache write failed", zap.String("loan_id", loanID.String()), zap.Error(err))
	}
	return view, nil
}

// ProjectHistoricalInstallments projects the installments of a running loan
// that fall before today. A zero Today means the current day.
func (s *RepairService) ProjectHistoricalInstallments(params ledger.ProjectionParams) ledger.Projection {
	if params.Today.IsZero() {
		params.Today = s.today()
	}
	return ledger.ProjectHistoricalInstallments(params)
}

func describeEvent(e *domain.LedgerEvent) string {
	out := e.Amount.String()
	if e.InstallmentIndex != nil {
		out = fmt.Sprintf("installment %d: %s", *e.InstallmentIndex+1, out)
	}
	if e.DaysOverdue != nil {
		out += fmt.Sprintf(" at %d days", *e.DaysOverdue)
	}
	if e.Ref != "" {
		out += " " + e.Ref
	}
	return out
}
