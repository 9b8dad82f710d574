package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/loan-ledger/internal/domain"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
)

// itemFunc runs one workflow against one loan. Returning an error records
// the loan as failed; the batch carries on.
type itemFunc func(ctx context.Context, loan *domain.Loan, dryRun bool) (domain.ItemReport, error)

// runBatch folds fn over the loans selected by req, one page at a time, with
// at most opts.Workers loans in flight.
//
// Only failures to select loans abort the run. Item failures are recorded
// in the report.
func (e *engine) runBatch(ctx context.Context, workflow string, req domain.BatchRequest, fn itemFunc) (*domain.BatchReport, error) {
	start := time.Now()
	dryRun := req.IsDryRun()
	report := &domain.BatchReport{
		Workflow: workflow,
		DryRun:   dryRun,
		Details:  []domain.ItemReport{},
	}

	if req.LoanID != nil {
		loan, err := e.deps.LoanRepo.GetByID(ctx, *req.LoanID)
		if err != nil {
			return nil, wrapDB(err)
		}
		if req.UserID != nil && loan.UserID != *req.UserID {
			return nil, apperrors.WrapLoanNotFound(req.LoanID.String())
		}
		report.Add(e.runItem(ctx, workflow, loan, dryRun, fn))
	} else {
		filter := domain.LoanFilter{UserID: req.UserID, Limit: e.opts.PageSize}
		for {
			loans, err := e.deps.LoanRepo.List(ctx, filter)
			if err != nil {
				e.deps.Logger.Error("failed to list loans",
					zap.String("workflow", workflow),
					zap.Int("offset", filter.Offset),
					zap.Error(err))
				return nil, wrapDB(err)
			}

			results := make([]domain.ItemReport, len(loans))
			var g errgroup.Group
			g.SetLimit(e.opts.Workers)
			for i, loan := range loans {
				g.Go(func() error {
					results[i] = e.runItem(ctx, workflow, loan, dryRun, fn)
					return nil
				})
			}
			_ = g.Wait()

			for _, item := range results {
				report.Add(item)
			}
			if len(loans) < filter.Limit {
				break
			}
			filter.Offset += filter.Limit
		}
	}

	e.deps.Metrics.WorkflowDuration(workflow, time.Since(start))
	e.deps.Logger.Info("workflow finished",
		zap.String("workflow", workflow),
		zap.Bool("dry_run", dryRun),
		zap.Int("analyzed", report.TotalAnalyzed),
		zap.Int("fixed", report.Fixed),
		zap.Int("would_fix", report.WouldFix),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

func (e *engine) runItem(ctx context.Context, workflow string, loan *domain.Loan, dryRun bool, fn itemFunc) (item domain.ItemReport) {
	defer func() {
		if r := recover(); r != nil {
			item = e.failed(workflow, loan, fmt.Errorf("panic: %v", r))
		}
		e.deps.Metrics.WorkflowItem(workflow, item.Outcome, dryRun)
	}()

	if err := ctx.Err(); err != nil {
		return e.failed(workflow, loan, err)
	}
	item, err := fn(ctx, loan, dryRun)
	if err != nil {
		return e.failed(workflow, loan, err)
	}
	item.LoanID = loan.ID
	return item
}

func (e *engine) failed(workflow string, loan *domain.Loan, err error) domain.ItemReport {
	e.deps.Logger.Error("workflow item failed",
		zap.String("workflow", workflow),
		zap.String("loan_id", loan.ID.String()),
		zap.Error(err))
	return domain.ItemReport{LoanID: loan.ID, Outcome: domain.OutcomeError, Message: err.Error()}
}

func skipped(message string) domain.ItemReport {
	return domain.ItemReport{Outcome: domain.OutcomeSkipped, Message: message}
}

// planned is the report of a computed change set: would_fix on a dry run,
// fixed once applied.
func planned(dryRun bool, message string, changes []domain.Change) domain.ItemReport {
	outcome := domain.OutcomeFixed
	if dryRun {
		outcome = domain.OutcomeWouldFix
	}
	return domain.ItemReport{Outcome: outcome, Message: message, Changes: changes}
}

// wrapDB wraps storage errors, leaving business errors untouched.
func wrapDB(err error) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.WrapDatabaseError(err)
}
