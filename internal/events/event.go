// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"cog_mailing_sync/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Reconciliation Events
// =============================================================================

// RoleOutcome is the result of reconciling one role of a parcel.
type RoleOutcome struct {
	RoleID  int    `json:"roleId"`
	Outcome string `json:"outcome"`
	Steps   int    `json:"steps"`
}

// ParcelReconciled is published once per parcel after every role was processed.
type ParcelReconciled struct {
	BaseEvent
	RunID    uuid.UUID     `json:"runId"`
	ParcelID string        `json:"parcelId"`
	Roles    []RoleOutcome `json:"roles"`
}

func (e ParcelReconciled) EventName() string { return "reconcile.parcel.reconciled" }

// ReconcileFlagged is published when a (parcel, role) was sent to the review queue.
type ReconcileFlagged struct {
	BaseEvent
	RunID        uuid.UUID `json:"runId"`
	ParcelID     string    `json:"parcelId"`
	RoleID       int       `json:"roleId"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	ReviewItemID uuid.UUID `json:"reviewItemId"`
	SnapshotKey  string    `json:"snapshotKey,omitempty"`
}

func (e ReconcileFlagged) EventName() string { return "reconcile.role.flagged" }

// SyncRunCompleted is published when a batch run has processed every parcel.
type SyncRunCompleted struct {
	BaseEvent
	RunID     uuid.UUID     `json:"runId"`
	DryRun    bool          `json:"dryRun"`
	Processed int           `json:"processed"`
	Applied   int           `json:"applied"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Flagged   int           `json:"flagged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

func (e SyncRunCompleted) EventName() string { return "reconcile.run.completed" }
