package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/internal/domain"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func monthlyDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, i+1, 0)
	}
	return dates
}

func dailyDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i+1)
	}
	return dates
}

// installmentLoan is 1000 at 10% simple per installment over 5 monthly installments.
func installmentLoan(start time.Time) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
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
		InstallmentDates: monthlyDates(start, 5),
		CreatedAt:        start,
	}
}

// dailyLoan is 1200 over 30 daily installments of 50.
func dailyLoan(start time.Time) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
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
		InstallmentDates: dailyDates(start, 30),
		CreatedAt:        start,
	}
}

func singleLoan(due time.Time) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
		PrincipalAmount:  d("1000"),
		InterestRate:     d("20"),
		PaymentType:      domain.PaymentTypeSingle,
		Installments:     1,
		TotalPaid:        decimal.Zero,
		RemainingBalance: d("1200"),
		Status:           domain.LoanStatusPending,
		DueDate:          &due,
		StartDate:        due.AddDate(0, -1, 0),
		CreatedAt:        due.AddDate(0, -1, 0),
	}
}

func pay(loan *domain.Loan, amount string, paidAt time.Time, notes string) *domain.Payment {
	return &domain.Payment{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      d(amount),
		PaymentDate: paidAt,
		Notes:       notes,
		CreatedAt:   paidAt,
	}
}
