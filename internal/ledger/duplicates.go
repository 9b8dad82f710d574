package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-ledger/internal/domain"
	"github.com/segyhp/loan-ledger/pkg/utils"
)

// DefaultDuplicateWindow is the creation-time distance under which two
// otherwise identical payments are treated as one accidental double entry.
const DefaultDuplicateWindow = 5000 * time.Millisecond

// DuplicateGroup is a set of payment rows recorded more than once.
// Keep is the earliest row; Remove are the later copies.
type DuplicateGroup struct {
	LoanID uuid.UUID
	Keep   *domain.Payment
	Remove []*domain.Payment
}

// IsDuplicate reports whether a and b describe the same money movement.
func IsDuplicate(a, b *domain.Payment, window time.Duration) bool {
	if a.LoanID != b.LoanID || a.Notes != b.Notes {
		return false
	}
	if !utils.NearlyEqual(a.Amount, b.Amount) {
		return false
	}
	gap := a.CreatedAt.Sub(b.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap < window
}

// FindDuplicates groups duplicate payments. Payments are scanned in
// creation order and each one is compared with the kept row of the open
// groups of its loan, so no group spans more than the window.
func FindDuplicates(payments []*domain.Payment, window time.Duration) []DuplicateGroup {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	ordered := orderByCreation(payments)

	byLoan := make(map[uuid.UUID][]*DuplicateGroup)
	var groups []*DuplicateGroup

	for _, p := range ordered {
		matched := false
		for _, g := range byLoan[p.LoanID] {
			if IsDuplicate(g.Keep, p, window) {
				g.Remove = append(g.Remove, p)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		g := &DuplicateGroup{LoanID: p.LoanID, Keep: p}
		groups = append(groups, g)
		byLoan[p.LoanID] = append(byLoan[p.LoanID], g)
	}

	var out []DuplicateGroup
	for _, g := range groups {
		if len(g.Remove) > 0 {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Keep.CreatedAt.Before(out[j].Keep.CreatedAt)
	})
	return out
}

// RemovalIDs flattens the rows to delete.
func RemovalIDs(groups []DuplicateGroup) []uuid.UUID {
	var ids []uuid.UUID
	for _, g := range groups {
		for _, p := range g.Remove {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// WithoutDuplicates returns payments minus the rows scheduled for removal.
func WithoutDuplicates(payments []*domain.Payment, groups []DuplicateGroup) []*domain.Payment {
	drop := make(map[uuid.UUID]bool)
	for _, id := range RemovalIDs(groups) {
		drop[id] = true
	}
	out := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if !drop[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
