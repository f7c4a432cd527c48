package parcelsync

import (
	"github.com/google/uuid"

	"cog_mailing_sync/internal/reconcile"
)

// Outcome is what happened to one (parcel, role).
type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeApplied   Outcome = "applied"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFlagged   Outcome = "flagged"
)

// RoleReport is the result for one role.
type RoleReport struct {
	Role            reconcile.Role            `json:"role"`
	Outcome         Outcome                   `json:"outcome"`
	Classifications reconcile.Classifications `json:"classifications,omitempty"`
	Steps           []reconcile.AppliedStep   `json:"steps,omitempty"`
	Reason          string                    `json:"reason,omitempty"`
	ReviewItemID    uuid.UUID                 `json:"reviewItemId"`
}

// Report is the result for one parcel.
type Report struct {
	RunID       uuid.UUID    `json:"runId"`
	ParcelID    string       `json:"parcelId"`
	DryRun      bool         `json:"dryRun,omitempty"`
	SnapshotKey string       `json:"snapshotKey,omitempty"`
	Roles       []RoleReport `json:"roles"`
}

// Role returns the report for role, or false when it was not processed.
func (r Report) Role(role reconcile.Role) (RoleReport, bool) {
	for _, rr := range r.Roles {
		if rr.Role == role {
			return rr, true
		}
	}
	return RoleReport{}, false
}

// Counts tallies outcomes across roles.
func (r Report) Counts() map[Outcome]int {
	out := make(map[Outcome]int, 4)
	for _, rr := range r.Roles {
		out[rr.Outcome]++
	}
	return out
}
