// Package jobs holds the scheduled ledger jobs run by the scheduler binary.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/cache"
	"github.com/segyhp/loan-ledger/internal/domain"
)

// Job names, also used as lock keys.
const (
	PenaltyJob   = "penalty_accrual"
	ReconcileJob = "reconcile_sweep"
)

type PenaltyAccruer interface {
	AccruePenalties(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
}

type Reconciler interface {
	ReconcileLoans(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
}

// Runner runs each job over every loan, in apply mode, under a job lock.
type Runner struct {
	penalties PenaltyAccruer
	repairs   Reconciler
	lock      *cache.JobLock
	logger    *zap.Logger
	timeout   time.Duration
}

func NewRunner(penalties PenaltyAccruer, repairs Reconciler, lock *cache.JobLock, logger *zap.Logger, timeout time.Duration) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		penalties: penalties,
		repairs:   repairs,
		lock:      lock,
		logger:    logger,
		timeout:   timeout,
	}
}

// Register schedules both jobs on c. Specs use the six-field format.
func (r *Runner) Register(c *cron.Cron, penaltySpec, reconcileSpec string) error {
	if _, err := c.AddFunc(penaltySpec, func() { _ = r.RunPenalties(context.Background()) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(reconcileSpec, func() { _ = r.RunReconcile(context.Background()) }); err != nil {
		return err
	}
	return nil
}

// RunPenalties accrues overdue penalties across all loans.
func (r *Runner) RunPenalties(ctx context.Context) error {
	return r.run(ctx, PenaltyJob, r.penalties.AccruePenalties)
}

// RunReconcile reconciles every loan.
func (r *Runner) RunReconcile(ctx context.Context) error {
	return r.run(ctx, ReconcileJob, r.repairs.ReconcileLoans)
}

func (r *Runner) run(ctx context.Context, job string, fn func(context.Context, domain.BatchRequest) (*domain.BatchReport, error)) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	release, err := r.lock.Acquire(ctx, job)
	if err != nil {
		r.logger.Warn("job not started", zap.String("job", job), zap.Error(err))
		return err
	}
	defer release()

	apply := false
	start := time.Now()
	r.logger.Info("job started", zap.String("job", job))

	report, err := fn(ctx, domain.BatchRequest{DryRun: &apply})
	if err != nil {
		r.logger.Error("job failed", zap.String("job", job), zap.Error(err))
		return err
	}

	r.logger.Info("job finished",
		zap.String("job", job),
		zap.Int("analyzed", report.TotalAnalyzed),
		zap.Int("fixed", report.Fixed),
		zap.Int("would_fix", report.WouldFix),
		zap.Int("errors", report.Errors),
		zap.Duration("took", time.Since(start)))
	return nil
}
