// Package notification sends operator emails in response to domain events.
// Domain modules publish events and never talk to the mail server directly.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"cog_mailing_sync/internal/email"
	"cog_mailing_sync/internal/events"
	"cog_mailing_sync/internal/reconcile"
	"cog_mailing_sync/platform/logger"
)

// repeatWindow suppresses repeat emails for the same (parcel, role, kind).
// Reruns over an unresolved conflict would otherwise mail on every pass.
const repeatWindow = 12 * time.Hour

// Module handles all notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	operator string
	log      *logger.Logger
	sent     *cache.Cache
}

// New creates a new notification module. An empty operator address disables
// delivery.
func New(sender email.Sender, operatorEmail string, log *logger.Logger) *Module {
	return &Module{
		sender:   sender,
		operator: operatorEmail,
		log:      log,
		sent:     cache.New(repeatWindow, time.Hour),
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to the reconciliation events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReconcileFlagged{}.EventName(), m)
	bus.Subscribe(events.SyncRunCompleted{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if m.operator == "" {
		return nil
	}
	switch e := event.(type) {
	case events.ReconcileFlagged:
		return m.handleReconcileFlagged(ctx, e)
	case events.SyncRunCompleted:
		return m.handleSyncRunCompleted(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleReconcileFlagged(ctx context.Context, e events.ReconcileFlagged) error {
	key := fmt.Sprintf("%s:%d:%s", e.ParcelID, e.RoleID, e.Kind)
	if err := m.sent.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		m.log.Debug("review email suppressed", "parcel_id", e.ParcelID, "role_id", e.RoleID, "kind", e.Kind)
		return nil
	}

	err := m.sender.SendReviewFlaggedEmail(ctx, m.operator, email.ReviewFlagged{
		ParcelID:     e.ParcelID,
		Role:         reconcile.Role(e.RoleID).String(),
		Kind:         e.Kind,
		Message:      e.Message,
		ReviewItemID: e.ReviewItemID.String(),
		SnapshotKey:  e.SnapshotKey,
	})
	if err != nil {
		// Let the next occurrence try again.
		m.sent.Delete(key)
		return fmt.Errorf("send review email for parcel %s: %w", e.ParcelID, err)
	}
	m.log.Info("review email sent", "parcel_id", e.ParcelID, "role_id", e.RoleID, "kind", e.Kind)
	return nil
}

func (m *Module) handleSyncRunCompleted(ctx context.Context, e events.SyncRunCompleted) error {
	if e.Flagged == 0 && e.Failed == 0 {
		return nil
	}
	err := m.sender.SendRunSummaryEmail(ctx, m.operator, email.RunSummary{
		RunID:     e.RunID.String(),
		DryRun:    e.DryRun,
		Processed: e.Processed,
		Applied:   e.Applied,
		Unchanged: e.Unchanged,
		Skipped:   e.Skipped,
		Flagged:   e.Flagged,
		Failed:    e.Failed,
		Duration:  e.Duration.Round(time.Second).String(),
	})
	if err != nil {
		return fmt.Errorf("send run summary: %w", err)
	}
	return nil
}
