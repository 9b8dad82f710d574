package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/mocks"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func boolPtr(b bool) *bool {
	return &b
}

type testDeps struct {
	loans    *mocks.MockLoanRepository
	payments *mocks.MockPaymentRepository
	events   *mocks.MockLedgerEventRepository
	cache    *mocks.MockLedgerCache
	notifier *mocks.MockNotifier
}

func newTestDeps() *testDeps {
	return &testDeps{
		loans:    &mocks.MockLoanRepository{},
		payments: &mocks.MockPaymentRepository{},
		events:   &mocks.MockLedgerEventRepository{},
		cache:    &mocks.MockLedgerCache{},
		notifier: &mocks.MockNotifier{},
	}
}

func (td *testDeps) dependencies() Dependencies {
	return Dependencies{
		LoanRepo:    td.loans,
		PaymentRepo: td.payments,
		EventRepo:   td.events,
		Cache:       td.cache,
		Notifier:    td.notifier,
	}
}

func newRepair(td *testDeps, opts Options) *RepairService {
	svc := NewRepairService(td.dependencies(), opts)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func newPenalty(td *testDeps, opts Options) *PenaltyService {
	svc := NewPenaltyService(td.dependencies(), opts)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// installmentLoan is 1000 at 10% simple per installment over 5 monthly installments.
func installmentLoan(start time.Time) *domain.Loan {
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = start.AddDate(0, i+1, 0)
	}
	return &domain.Loan{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		PrincipalAmount:  d("1000"),
		InterestRate:     d("10"),
		InterestMode:     domain.InterestModeSimple,
		PaymentType:      domain.PaymentTypeInstallment,
		PaymentFrequency: "monthly",
		Installments:     5,
		TotalInterest:    d("500"),
		TotalPaid:        decimal.Zero,
		RemainingBalance: d("1500"),
		Status:           domain.LoanStatusPending,
		StartDate:        start,
		InstallmentDates: dates,
		CreatedAt:        start,
	}
}

// dailyLoan is 1200 over 30 daily installments of 50.
func dailyLoan(start time.Time) *domain.Loan {
	dates := make([]time.Time, 30)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i+1)
	}
	return &domain.Loan{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		PrincipalAmount:  d("1200"),
		InterestRate:     d("0"),
		PaymentType:      domain.PaymentTypeDaily,
		PaymentFrequency: "daily",
		Installments:     30,
		TotalInterest:    d("50"),
		TotalPaid:        decimal.Zero,
		RemainingBalance: d("1500"),
		Status:           domain.LoanStatusPending,
		StartDate:        start,
		InstallmentDates: dates,
		CreatedAt:        start,
	}
}

func pay(loan *domain.Loan, amount string, createdAt time.Time, notes string) *domain.Payment {
	return &domain.Payment{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      d(amount),
		PaymentDate: createdAt,
		Notes:       notes,
		CreatedAt:   createdAt,
	}
}

// expectLoad wires the reads every workflow does for a loan.
func (td *testDeps) expectLoad(loan *domain.Loan, payments []*domain.Payment, events []*domain.LedgerEvent) {
	td.payments.On("ListByLoanID", mock.Anything, loan.ID).Return(payments, nil)
	td.events.On("ListByLoanID", mock.Anything, loan.ID).Return(events, nil)
}
