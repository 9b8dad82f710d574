package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-ledger/internal/domain"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var loanColumnNames = []string{
	"id", "user_id", "client_phone", "principal_amount", "interest_rate", "interest_mode",
	"payment_type", "payment_frequency", "installments", "total_interest", "total_paid",
	"remaining_balance", "status", "due_date", "start_date", "installment_dates", "notes",
	"created_at", "updated_at",
}

func TestLoanRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLoanRepository(db)

	id := uuid.New()
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(loanColumnNames).AddRow(
		id.String(), uuid.New().String(), "+5511999999999", "1000.00", "10", domain.InterestModeSimple,
		domain.PaymentTypeInstallment, "monthly", 2, "200.00", "300.00",
		"900.00", domain.LoanStatusPending, nil, start, "{2024-02-10,2024-03-10}", "[OVERDUE_CONFIG:fixed:5]",
		start, start,
	)
	mock.ExpectQuery("SELECT (.+) FROM loans WHERE id = \\$1").WithArgs(id).WillReturnRows(rows)

	loan, err := repo.GetByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, loan.ID)
	assert.True(t, loan.PrincipalAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, loan.Installments)
	assert.Nil(t, loan.DueDate)
	require.Len(t, loan.InstallmentDates, 2)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), loan.InstallmentDates[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLoanRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM loans").WithArgs(id).WillReturnRows(sqlmock.NewRows(loanColumnNames))

	loan, err := repo.GetByID(context.Background(), id)

	assert.Nil(t, loan)
	assert.True(t, errors.Is(err, apperrors.ErrLoanNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLoanRepository(db)

	userID := uuid.New()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(loanColumnNames).
		AddRow(uuid.New().String(), userID.String(), "", "1200", "0", "", domain.PaymentTypeDaily, "daily", 30, "50", "0", "1500", domain.LoanStatusPending, nil, start, nil, "", start, start).
		AddRow(uuid.New().String(), userID.String(), "", "1000", "20", "", domain.PaymentTypeSingle, "", 1, "0", "0", "1200", domain.LoanStatusPending, start, start, "{}", "", start, start)
	mock.ExpectQuery("FROM loans.*LIMIT \\$3 OFFSET \\$4").
		WithArgs(userID.String(), nil, 200, 400).
		WillReturnRows(rows)

	loans, err := repo.List(context.Background(), domain.LoanFilter{UserID: &userID, Limit: 200, Offset: 400})

	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Empty(t, loans[0].InstallmentDates)
	require.NotNil(t, loans[1].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_UpdateBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLoanRepository(db)

	loan := &domain.Loan{
		ID:               uuid.New(),
		TotalPaid:        decimal.NewFromInt(600),
		RemainingBalance: decimal.NewFromInt(900),
		Status:           domain.LoanStatusOverdue,
		Notes:            "[OVERDUE_CONFIG:fixed:5]",
	}

	mock.ExpectExec("UPDATE loans").
		WithArgs(loan.ID, loan.TotalPaid, loan.RemainingBalance, loan.Status, loan.Notes, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateBalance(context.Background(), loan))

	mock.ExpectExec("UPDATE loans").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateBalance(context.Background(), loan)
	assert.True(t, errors.Is(err, apperrors.ErrLoanNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_ListByLoanID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	loanID := uuid.New()
	paidAt := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "loan_id", "amount", "principal_paid", "interest_paid", "payment_date", "installment_index", "notes", "created_at"}).
		AddRow(uuid.New().String(), loanID.String(), "50.00", "40.00", "10.00", paidAt, nil, "pix", paidAt).
		AddRow(uuid.New().String(), loanID.String(), "50.00", "40.00", "10.00", paidAt, 3, "[CONTRATO_ANTIGO] Parcela 4 — recuperado", paidAt)
	mock.ExpectQuery("FROM payments WHERE loan_id = \\$1 ORDER BY created_at, id").WithArgs(loanID).WillReturnRows(rows)

	payments, err := repo.ListByLoanID(context.Background(), loanID)

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Nil(t, payments[0].InstallmentIndex)
	require.NotNil(t, payments[1].InstallmentIndex)
	assert.Equal(t, 3, *payments[1].InstallmentIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	loanID := uuid.New()
	payments := []*domain.Payment{
		{ID: uuid.New(), LoanID: loanID, Amount: decimal.NewFromInt(50)},
		{ID: uuid.New(), LoanID: loanID, Amount: decimal.NewFromInt(20)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(context.Background(), payments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateBatch_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payments := []*domain.Payment{{ID: uuid.New()}, {ID: uuid.New()}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), payments)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_DeleteByIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mock.ExpectExec("DELETE FROM payments WHERE id = ANY").WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByIDs(context.Background(), ids)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_UpdateNotes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	p := &domain.Payment{ID: uuid.New(), Notes: "pix [PRE_RENEGOTIATION]"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET notes").WithArgs(p.ID, p.Notes).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateNotes(context.Background(), []*domain.Payment{p}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerEventRepository_ListByLoanID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerEventRepository(db)

	loanID := uuid.New()
	at := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "loan_id", "kind", "installment_index", "amount", "days_overdue", "ref", "source", "created_at"}).
		AddRow(uuid.New().String(), loanID.String(), domain.EventDailyPenalty, 0, "15.00", 3, "", domain.EventSourceEngine, at).
		AddRow(uuid.New().String(), loanID.String(), domain.EventOverdueConfig, nil, "5", nil, "fixed", domain.EventSourceLegacyNotes, at)
	mock.ExpectQuery("FROM ledger_events WHERE loan_id = \\$1").WithArgs(loanID).WillReturnRows(rows)

	events, err := repo.ListByLoanID(context.Background(), loanID)

	require.NoError(t, err)
	require.Len(t, events, 2)
	require.NotNil(t, events[0].DaysOverdue)
	assert.Equal(t, 3, *events[0].DaysOverdue)
	assert.Equal(t, "fixed", events[1].Ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerEventRepository_ReplacePartialPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerEventRepository(db)

	loanID := uuid.New()
	index := 0
	events := []*domain.LedgerEvent{
		{ID: uuid.New(), LoanID: loanID, Kind: domain.EventPartialPaid, InstallmentIndex: &index, Amount: decimal.NewFromInt(50), Source: domain.EventSourceEngine},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ledger_events WHERE loan_id = \\$1 AND kind = \\$2").
		WithArgs(loanID, domain.EventPartialPaid).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO ledger_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplacePartialPaid(context.Background(), loanID, events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerEventRepository_Append(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerEventRepository(db)

	require.NoError(t, repo.Append(context.Background(), nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_events").WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), []*domain.LedgerEvent{{ID: uuid.New(), Kind: domain.EventDailyPenalty}})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
