package domain

import (
	"github.com/google/uuid"
)

// Workflow names, used in reports, logs and metrics.
const (
	WorkflowReconcile     = "reconcile"
	WorkflowRenegotiation = "renegotiation"
	WorkflowDuplicates    = "duplicates"
	WorkflowHistory       = "history"
	WorkflowLegacyTags    = "legacy_tags"
	WorkflowPenalties     = "penalties"
)

// Item outcomes
const (
	OutcomeFixed    = "fixed"
	OutcomeWouldFix = "would_fix"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

// BatchRequest selects the loans a repair workflow runs on.
// A nil DryRun means true: destructive workflows only write when asked explicitly.
type BatchRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	LoanID *uuid.UUID `json:"loan_id,omitempty"`
	DryRun *bool      `json:"dry_run,omitempty"`
}

// IsDryRun resolves the dry-run default.
func (r BatchRequest) IsDryRun() bool {
	return r.DryRun == nil || *r.DryRun
}

// BatchReport is the structured result of a repair workflow.
// Fixed counts applied changes only; a dry run reports pending ones under WouldFix.
type BatchReport struct {
	Workflow      string       `json:"workflow"`
	DryRun        bool         `json:"dry_run"`
	TotalAnalyzed int          `json:"total_analyzed"`
	Fixed         int          `json:"fixed"`
	WouldFix      int          `json:"would_fix"`
	Skipped       int          `json:"skipped"`
	Errors        int          `json:"errors"`
	Details       []ItemReport `json:"per_item_details"`
}

// ItemReport describes what happened, or would happen, to one loan.
type ItemReport struct {
	LoanID  uuid.UUID `json:"loan_id"`
	Outcome string    `json:"outcome"`
	Message string    `json:"message,omitempty"`
	Changes []Change  `json:"changes,omitempty"`
}

// Change is one field-level difference between stored and computed state.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Add folds an item into the report counters.
func (r *BatchReport) Add(item ItemReport) {
	r.TotalAnalyzed++
	switch item.Outcome {
	case OutcomeFixed:
		r.Fixed++
	case OutcomeWouldFix:
		r.WouldFix++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeError:
		r.Errors++
	}
	r.Details = append(r.Details, item)
}
