package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/ledger"
)

type MockRepairService struct {
	mock.Mock
}

func (m *MockRepairService) batch(method string, ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	args := m.MethodCalled(method, ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}

func (m *MockRepairService) ReconcileLoans(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return m.batch("ReconcileLoans", ctx, req)
}

func (m *MockRepairService) ResolveRenegotiations(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return m.batch("ResolveRenegotiations", ctx, req)
}

func (m *MockRepairService) RemoveDuplicates(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return m.batch("RemoveDuplicates", ctx, req)
}

func (m *MockRepairService) SynthesizeHistory(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return m.batch("SynthesizeHistory", ctx, req)
}

func (m *MockRepairService) ImportLegacyTags(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	return m.batch("ImportLegacyTags", ctx, req)
}

func (m *MockRepairService) GetLedger(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanLedger), args.Error(1)
}

func (m *MockRepairService) ProjectHistoricalInstallments(params ledger.ProjectionParams) ledger.Projection {
	args := m.Called(params)
	return args.Get(0).(ledger.Projection)
}

type MockPenaltyService struct {
	mock.Mock
}

func (m *MockPenaltyService) AccruePenalties(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchReport), args.Error(1)
}
