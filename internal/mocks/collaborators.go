package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/notifier"
)

type MockLedgerCache struct {
	mock.Mock
}

func (m *MockLedgerCache) Get(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, bool, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.LoanLedger), args.Bool(1), args.Error(2)
}

func (m *MockLedgerCache) Set(ctx context.Context, ledger *domain.LoanLedger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockLedgerCache) Invalidate(ctx context.Context, loanIDs ...uuid.UUID) error {
	args := m.Called(ctx, loanIDs)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPenalty(ctx context.Context, notice notifier.PenaltyNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	return "mock"
}
