package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
)

// Providers
const (
	ProviderNoop     = "noop"
	ProviderWhatsApp = "whatsapp"
)

const penaltyTemplate = "overdue_penalty"

// PenaltyNotice tells a borrower a penalty was charged on an installment.
type PenaltyNotice struct {
	LoanID            uuid.UUID       `json:"loan_id"`
	Phone             string          `json:"phone"`
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	DaysOverdue       int             `json:"days_overdue"`
	Penalty           decimal.Decimal `json:"penalty"`
	TotalPenalties    decimal.Decimal `json:"total_penalties"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
}

// Notifier delivers penalty notices. Delivery is best effort.
type Notifier interface {
	NotifyPenalty(ctx context.Context, notice PenaltyNotice) error
	Name() string
}

// Config holds configuration for a notifier provider
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// New returns the notifier for the configured provider.
func New(cfg Config) (Notifier, error) {
	switch cfg.Provider {
	case "", ProviderNoop:
		return NoopNotifier{}, nil
	case ProviderWhatsApp:
		return NewWhatsAppNotifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.Provider)
	}
}

// NoopNotifier drops every notice.
type NoopNotifier struct{}

func (NoopNotifier) NotifyPenalty(ctx context.Context, notice PenaltyNotice) error {
	return nil
}

func (NoopNotifier) Name() string {
	return ProviderNoop
}

// WhatsAppNotifier sends template messages through a WhatsApp business API.
type WhatsAppNotifier struct {
	config Config
	client *http.Client
}

func NewWhatsAppNotifier(cfg Config) *WhatsAppNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhatsAppNotifier{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type templateMessage struct {
	Destination    string        `json:"destination"`
	TemplateName   string        `json:"templateName"`
	TemplateParams []string      `json:"templateParams"`
	Payload        PenaltyNotice `json:"payload"`
}

// NotifyPenalty posts the notice as a template message.
func (n *WhatsAppNotifier) NotifyPenalty(ctx context.Context, notice PenaltyNotice) error {
	phone := FormatPhoneNumber(notice.Phone)
	if phone == "" {
		return apperrors.WrapNotifyError(fmt.Errorf("loan %s has no client phone", notice.LoanID))
	}

	msg := templateMessage{
		Destination:  phone,
		TemplateName: penaltyTemplate,
		TemplateParams: []string{
			fmt.Sprintf("%d", notice.InstallmentNumber),
			notice.DueDate.Format("02/01/2006"),
			fmt.Sprintf("%d", notice.DaysOverdue),
			notice.Penalty.StringFixed(2),
			notice.RemainingBalance.StringFixed(2),
		},
		Payload: notice,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return apperrors.WrapNotifyError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(n.config.BaseURL, "/")+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return apperrors.WrapNotifyError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if n.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.WrapNotifyError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.WrapNotifyError(fmt.Errorf("whatsapp API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return nil
}

func (n *WhatsAppNotifier) Name() string {
	return ProviderWhatsApp
}

// FormatPhoneNumber keeps the digits of a phone number, with a leading +
// when one was given.
func FormatPhoneNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
