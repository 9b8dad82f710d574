package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/config"
	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/ledger"
	"github.com/segyhp/loan-ledger/internal/metrics"
	"github.com/segyhp/loan-ledger/internal/notifier"
	"github.com/segyhp/loan-ledger/internal/repository"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// LedgerCache caches reconciled loan ledgers.
type LedgerCache interface {
	Get(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, bool, error)
	Set(ctx context.Context, ledger *domain.LoanLedger) error
	Invalidate(ctx context.Context, loanIDs ...uuid.UUID) error
}

// Dependencies are the collaborators shared by the ledger services.
// Cache, Notifier, Metrics and Logger are optional.
type Dependencies struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	EventRepo   repository.LedgerEventRepository
	Cache       LedgerCache
	Notifier    notifier.Notifier
	Metrics     *metrics.Recorder
	Logger      *zap.Logger
}

// Options tune batch execution and the engine parameters.
type Options struct {
	PageSize          int
	Workers           int
	DuplicateWindow   time.Duration
	PenaltyMilestones []int
	Location          *time.Location
}

// OptionsFromConfig maps application config onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:          cfg.Batch.PageSize,
		Workers:           cfg.Batch.Workers,
		DuplicateWindow:   cfg.GetDuplicateWindow(),
		PenaltyMilestones: cfg.GetPenaltyMilestones(),
		Location:          cfg.GetLocation(),
	}
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 200
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.DuplicateWindow <= 0 {
		o.DuplicateWindow = ledger.DefaultDuplicateWindow
	}
	if len(o.PenaltyMilestones) == 0 {
		o.PenaltyMilestones = ledger.DefaultMilestones
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	if d.Notifier == nil {
		d.Notifier = notifier.NoopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (*domain.LoanLedger, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(context.Context, *domain.LoanLedger) error { return nil }

func (noopCache) Invalidate(context.Context, ...uuid.UUID) error { return nil }

// engine holds what every workflow needs to load, reconcile and write a loan.
type engine struct {
	deps Dependencies
	opts Options
	now  func() time.Time
}

func newEngine(deps Dependencies, opts Options) engine {
	return engine{deps: deps.withDefaults(), opts: opts.withDefaults(), now: time.Now}
}

// today is the current calendar day in the configured timezone.
func (e *engine) today() time.Time {
	return utils.DateOnly(e.now().In(e.opts.Location))
}

// loanState is everything the pure engine reads for one loan.
type loanState struct {
	payments []*domain.Payment
	events   []*domain.LedgerEvent
	facts    ledger.Facts
	legacy   ledger.Facts
}

func (e *engine) load(ctx context.Context, loan *domain.Loan) (*loanState, error) {
	payments, err := e.deps.PaymentRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, wrapDB(err)
	}
	events, err := e.deps.EventRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, wrapDB(err)
	}
	return &loanState{
		payments: payments,
		events:   events,
		facts:    ledger.LoadFacts(loan, events),
		legacy:   ledger.LegacyFacts(loan, events),
	}, nil
}

// historyGap reports the legacy history still missing from payment rows.
// Reconciling such a loan would drop paid installments only the tags know about.
func (e *engine) historyGap(loan *domain.Loan, payments []*domain.Payment, legacy ledger.Facts) (ledger.HistoryPlan, bool) {
	plan := ledger.PlanHistory(loan, payments, legacy)
	return plan, plan.Triggered()
}

// applyReconcile writes a reconciled result: partial-paid events for daily
// loans, then the loan balance fields.
func (e *engine) applyReconcile(ctx context.Context, loan *domain.Loan, res ledger.Result) error {
	if loan.IsDaily() {
		events := ledger.PartialPaidEvents(loan, res, e.now())
		if err := e.deps.EventRepo.ReplacePartialPaid(ctx, loan.ID, events); err != nil {
			return wrapDB(err)
		}
	}
	if err := e.deps.LoanRepo.UpdateBalance(ctx, ledger.Apply(loan, res)); err != nil {
		return wrapDB(err)
	}
	e.invalidate(ctx, loan.ID)
	return nil
}

// invalidate drops cached ledgers. Cache failures are logged, never returned.
func (e *engine) invalidate(ctx context.Context, loanIDs ...uuid.UUID) {
	if err := e.deps.Cache.Invalidate(ctx, loanIDs...); err != nil {
		e.deps.Logger.Warn("failed to invalidate ledger cache", zap.Error(err))
	}
}
