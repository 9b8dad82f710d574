package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
)

func sampleNotice() PenaltyNotice {
	return PenaltyNotice{
		LoanID:            uuid.New(),
		Phone:             "+55 (11) 99999-0000",
		InstallmentNumber: 1,
		DueDate:           time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		DaysOverdue:       3,
		Penalty:           decimal.NewFromInt(15),
		TotalPenalties:    decimal.NewFromInt(15),
		RemainingBalance:  decimal.NewFromInt(1515),
	}
}

func TestWhatsAppNotifier_NotifyPenalty(t *testing.T) {
	var got templateMessage
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWhatsAppNotifier(Config{APIKey: "secret", BaseURL: server.URL + "/", Timeout: time.Second})
	notice := sampleNotice()

	err := n.NotifyPenalty(context.Background(), notice)

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "+5511999990000", got.Destination)
	assert.Equal(t, penaltyTemplate, got.TemplateName)
	assert.Equal(t, []string{"1", "12/06/2024", "3", "15.00", "1515.00"}, got.TemplateParams)
	assert.Equal(t, notice.LoanID, got.Payload.LoanID)
}

func TestWhatsAppNotifier_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not approved", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWhatsAppNotifier(Config{BaseURL: server.URL})

	err := n.NotifyPenalty(context.Background(), sampleNotice())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotificationFailed))
	assert.Contains(t, err.Error(), "template not approved")
}

func TestWhatsAppNotifier_MissingPhone(t *testing.T) {
	n := NewWhatsAppNotifier(Config{BaseURL: "http://127.0.0.1:1"})
	notice := sampleNotice()
	notice.Phone = " "

	err := n.NotifyPenalty(context.Background(), notice)

	assert.Equal(t, apperrors.ErrCodeNotifyError, apperrors.CodeOf(err))
}

func TestNew(t *testing.T) {
	n, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderNoop, n.Name())
	assert.NoError(t, n.NotifyPenalty(context.Background(), sampleNotice()))

	n, err = New(Config{Provider: ProviderWhatsApp, BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, ProviderWhatsApp, n.Name())

	_, err = New(Config{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+55 (11) 99999-0000", "+5511999990000"},
		{"11 99999 0000", "11999990000"},
		{"+", ""},
		{"", ""},
		{"55+11", "5511"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPhoneNumber(tt.input))
		})
	}
}
