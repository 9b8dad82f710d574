package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/internal/ledger"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
	"github.com/segyhp/loan-ledger/pkg/response"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// RepairService is what the ledger endpoints need from the repair workflows.
type RepairService interface {
	ReconcileLoans(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
	ResolveRenegotiations(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
	RemoveDuplicates(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
	SynthesizeHistory(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
	ImportLegacyTags(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
	GetLedger(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, error)
	ProjectHistoricalInstallments(params ledger.ProjectionParams) ledger.Projection
}

// PenaltyService accrues overdue penalties.
type PenaltyService interface {
	AccruePenalties(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
}

type batchFunc func(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)

type LedgerHandler struct {
	repairs   RepairService
	penalties PenaltyService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLedgerHandler(repairs RepairService, penalties PenaltyService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{
		repairs:   repairs,
		penalties: penalties,
		validator: validator.New(),
		logger:    logger,
	}
}

// BatchRequest is the body of every repair endpoint.
// At least one of user_id and loan_id is required.
type BatchRequest struct {
	UserID string `json:"user_id" validate:"required_without=LoanID,omitempty,uuid"`
	LoanID string `json:"loan_id" validate:"required_without=UserID,omitempty,uuid"`
	DryRun *bool  `json:"dry_run"`
}

// ProjectionRequest is the body of the historical installment projection.
type ProjectionRequest struct {
	StartDate    string                  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Frequency    string                  `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	Principal    decimal.Decimal         `json:"principal"`
	Rate         decimal.Decimal         `json:"rate"`
	InterestMode string                  `json:"interest_mode" validate:"omitempty,oneof=simple_per_installment on_total compound"`
	Installments int                     `json:"installments" validate:"gte=0,lte=1000"`
	DailyAmount  decimal.Decimal         `json:"daily_amount"`
	Overrides    map[int]decimal.Decimal `json:"overrides" validate:"omitempty,dive,keys,gte=0,endkeys"`
}

// RegisterRoutes mounts the ledger API under /api/v1.
func (h *LedgerHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/repairs/reconcile", h.batch(h.repairs.ReconcileLoans)).Methods(http.MethodPost)
	api.HandleFunc("/repairs/renegotiations", h.batch(h.repairs.ResolveRenegotiations)).Methods(http.MethodPost)
	api.HandleFunc("/repairs/duplicates", h.batch(h.repairs.RemoveDuplicates)).Methods(http.MethodPost)
	api.HandleFunc("/repairs/history", h.batch(h.repairs.SynthesizeHistory)).Methods(http.MethodPost)
	api.HandleFunc("/repairs/legacy-tags", h.batch(h.repairs.ImportLegacyTags)).Methods(http.MethodPost)
	api.HandleFunc("/penalties/accrue", h.batch(h.penalties.AccruePenalties)).Methods(http.MethodPost)
	api.HandleFunc("/projections/historical-installments", h.ProjectHistoricalInstallments).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/ledger", h.GetLedger).Methods(http.MethodGet)
}

func (h *LedgerHandler) batch(run batchFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeBatchRequest(r)
		if err != nil {
			h.writeError(w, err)
			return
		}

		report, err := run(r.Context(), req)
		if err != nil {
			h.writeError(w, err)
			return
		}
		response.Success(w, report)
	}
}

func (h *LedgerHandler) decodeBatchRequest(r *http.Request) (domain.BatchRequest, error) {
	var body BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.BatchRequest{}, apperrors.WrapInvalidBatchRequest("malformed JSON body")
	}
	if err := h.validator.Struct(body); err != nil {
		return domain.BatchRequest{}, apperrors.WrapInvalidBatchRequest(describeValidation(err))
	}

	req := domain.BatchRequest{DryRun: body.DryRun}
	if body.UserID != "" {
		id := uuid.MustParse(body.UserID)
		req.UserID = &id
	}
	if body.LoanID != "" {
		id := uuid.MustParse(body.LoanID)
		req.LoanID = &id
	}
	return req, nil
}

// ProjectHistoricalInstallments handles POST /api/v1/projections/historical-installments
func (h *LedgerHandler) ProjectHistoricalInstallments(w http.ResponseWriter, r *http.Request) {
	var body ProjectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, apperrors.WrapInvalidProjection("malformed JSON body"))
		return
	}
	if err := h.validator.Struct(body); err != nil {
		h.writeError(w, apperrors.WrapInvalidProjection(describeValidation(err)))
		return
	}
	if body.Principal.IsNegative() || body.Rate.IsNegative() || body.DailyAmount.IsNegative() {
		h.writeError(w, apperrors.WrapInvalidProjection("amounts must not be negative"))
		return
	}

	start, err := utils.ParseDate(body.StartDate)
	if err != nil {
		h.writeError(w, apperrors.WrapInvalidProjection(err.Error()))
		return
	}

	projection := h.repairs.ProjectHistoricalInstallments(ledger.ProjectionParams{
		StartDate:    start,
		Frequency:    body.Frequency,
		Principal:    body.Principal,
		Rate:         body.Rate,
		InterestMode: body.InterestMode,
		Installments: body.Installments,
		DailyAmount:  body.DailyAmount,
		Overrides:    body.Overrides,
	})
	response.Success(w, projection)
}

// GetLedger handles GET /api/v1/loans/{loanId}/ledger
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.WithCode(w, http.StatusBadRequest, apperrors.ErrCodeInvalidBatchRequest, "Invalid loan id", err)
		return
	}

	view, err := h.repairs.GetLedger(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, view)
}

func (h *LedgerHandler) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.ErrCodeLoanNotFound:
		response.WithCode(w, http.StatusNotFound, code, "Loan not found", err)
	case apperrors.ErrCodeInvalidBatchRequest, apperrors.ErrCodeInvalidProjection:
		response.WithCode(w, http.StatusBadRequest, code, "Invalid request", err)
	default:
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))
		response.WithCode(w, http.StatusInternalServerError, code, "Internal server error", err)
	}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
