// Package parcelsync reconciles one parcel at a time: it fetches the Gaze
// snapshot, then for each mailing role runs the reconcile engine inside its
// own transaction and routes anything it refuses to settle to the review
// queue.
package parcelsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cog_mailing_sync/internal/events"
	"cog_mailing_sync/internal/gaze/transport"
	"cog_mailing_sync/internal/reconcile"
	"cog_mailing_sync/internal/review"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/logger"
)

// Registry fetches external addresses.
type Registry interface {
	FetchExternalAddresses(ctx context.Context, parcelID string) (transport.Snapshot, error)
}

// Archiver keeps raw external responses.
type Archiver interface {
	Put(ctx context.Context, snap transport.Snapshot) (string, error)
}

// HierarchyReader fetches the internal hierarchy of a parcel.
type HierarchyReader interface {
	FetchInternalHierarchy(ctx context.Context, parcelID string) (reconcile.InternalSnapshot, error)
}

// UnitOfWork runs fn in one transaction. A non-nil error from fn rolls back.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context, reader HierarchyReader, store reconcile.Store) error) error
}

// ReviewQueue receives flagged reconciliations.
type ReviewQueue interface {
	Enqueue(ctx context.Context, p review.EnqueueParams) (review.Item, bool, error)
}

// Deps are the collaborators of a Service. Archive and Bus are optional.
type Deps struct {
	Registry Registry
	Archive  Archiver
	Store    UnitOfWork
	Reviews  ReviewQueue
	Bus      events.Bus
	Log      *logger.Logger
}

// Options tune a Service.
type Options struct {
	// DryRun resolves and applies every plan, then rolls it back.
	DryRun bool
	// RunID tags reports, logs and events. A random one is used when zero.
	RunID uuid.UUID
}

// Service orchestrates the per-parcel reconciliation.
type Service struct {
	deps   Deps
	dryRun bool
	runID  uuid.UUID
}

var errDryRun = errors.New("dry run")

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &Service{deps: deps, dryRun: opts.DryRun, runID: runID}
}

// RunID returns the run identifier stamped on reports.
func (s *Service) RunID() uuid.UUID { return s.runID }

// SyncParcel reconciles both mailing roles of a parcel.
//
// A Gaze failure skips the parcel without error. A parcel unknown to Cog and
// any storage failure are returned as errors; the caller decides whether the
// batch continues.
func (s *Service) SyncParcel(ctx context.Context, parcelID string) (Report, error) {
	log := s.deps.Log.WithParcel(parcelID)
	report := Report{RunID: s.runID, ParcelID: parcelID, DryRun: s.dryRun}

	snap, err := s.deps.Registry.FetchExternalAddresses(ctx, parcelID)
	report.SnapshotKey = s.archive(ctx, log, snap)

	if err != nil {
		if !apperr.Is(err, apperr.KindUpstreamUnavailable) && !apperr.Is(err, apperr.KindInputRejected) {
			return report, fmt.Errorf("fetch external addresses: %w", err)
		}
		log.Warn("gaze lookup failed, skipping parcel", "kind", apperr.GetKind(err).String(), "error", err)
		for _, role := range reconcile.Roles {
			report.Roles = append(report.Roles, RoleReport{
				Role:    role,
				Outcome: OutcomeSkipped,
				Reason:  err.Error(),
			})
			s.deps.Log.ReconcileOutcome(parcelID, role.ID(), string(OutcomeSkipped), 0)
		}
		s.publishReconciled(ctx, report)
		return report, nil
	}

	for _, role := range reconcile.Roles {
		rr, err := s.syncRole(ctx, log, parcelID, snap.External, role, report.SnapshotKey)
		if err != nil {
			return report, err
		}
		report.Roles = append(report.Roles, rr)
		s.deps.Log.ReconcileOutcome(parcelID, role.ID(), string(rr.Outcome), len(rr.Steps))
	}

	s.publishReconciled(ctx, report)
	return report, nil
}

func (s *Service) syncRole(ctx context.Context, log *logger.Logger, parcelID string, external reconcile.ExternalSnapshot, role reconcile.Role, snapshotKey string) (RoleReport, error) {
	rr := RoleReport{Role: role}

	var (
		plan    reconcile.Plan
		result  reconcile.Result
		ok      bool
		planErr error
	)

	txErr := s.deps.Store.InTx(ctx, func(ctx context.Context, reader HierarchyReader, store reconcile.Store) error {
		internal, err := reader.FetchInternalHierarchy(ctx, parcelID)
		if err != nil {
			return err
		}

		plan, ok, planErr = reconcile.Prepare(reconcile.Input{
			ParcelID: parcelID,
			Role:     role,
			Parcel:   internal.Parcel,
			External: external.ForRole(role),
			Internal: internal.ForRole(role),
		})
		if planErr != nil || !ok || plan.IsNoop() {
			return nil
		}

		result, planErr = reconcile.Apply(ctx, store, plan)
		if planErr != nil {
			return planErr
		}
		if s.dryRun {
			return errDryRun
		}
		return nil
	})

	switch {
	case txErr != nil && errors.Is(txErr, errDryRun):
	case txErr != nil && planErr == nil:
		return rr, fmt.Errorf("reconcile %s role: %w", role, txErr)
	}

	rr.Classifications = plan.Classifications

	if planErr != nil {
		if !isFlaggable(planErr) {
			return rr, fmt.Errorf("reconcile %s role: %w", role, planErr)
		}
		return s.flag(ctx, log, parcelID, rr, plan.Classifications, planErr, snapshotKey)
	}

	if !ok {
		rr.Outcome = OutcomeUnchanged
		rr.Reason = "no address on either side"
		return rr, nil
	}
	if plan.IsNoop() {
		rr.Outcome = OutcomeUnchanged
		return rr, nil
	}

	rr.Outcome = OutcomeApplied
	rr.Steps = result.Steps
	return rr, nil
}

func (s *Service) flag(ctx context.Context, log *logger.Logger, parcelID string, rr RoleReport, cls reconcile.Classifications, cause error, snapshotKey string) (RoleReport, error) {
	kind := apperr.GetKind(cause).String()
	log.ReconcileFlagged(parcelID, rr.Role.ID(), kind, cause)

	item, created, err := s.deps.Reviews.Enqueue(ctx, review.EnqueueParams{
		ParcelID:        parcelID,
		RoleID:          rr.Role.ID(),
		Kind:            kind,
		Message:         cause.Error(),
		Details:         apperr.Details(cause),
		Classifications: cls,
		SnapshotKey:     snapshotKey,
	})
	if err != nil {
		return rr, fmt.Errorf("enqueue review item: %w", err)
	}

	rr.Outcome = OutcomeFlagged
	rr.Reason = cause.Error()
	rr.ReviewItemID = item.ID

	// An item still open from an earlier run was refreshed; the operator has
	// already been told about it.
	if created && s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.ReconcileFlagged{
			BaseEvent:    events.NewBaseEvent(),
			RunID:        s.runID,
			ParcelID:     parcelID,
			RoleID:       rr.Role.ID(),
			Kind:         kind,
			Message:      cause.Error(),
			ReviewItemID: item.ID,
			SnapshotKey:  snapshotKey,
		})
	}
	return rr, nil
}

func (s *Service) archive(ctx context.Context, log *logger.Logger, snap transport.Snapshot) string {
	if s.deps.Archive == nil || len(snap.Raw) == 0 {
		return ""
	}
	key, err := s.deps.Archive.Put(ctx, snap)
	if err != nil {
		log.Warn("archive gaze snapshot failed", "error", err)
		return ""
	}
	return key
}

func (s *Service) publishReconciled(ctx context.Context, report Report) {
	if s.deps.Bus == nil {
		return
	}
	roles := make([]events.RoleOutcome, 0, len(report.Roles))
	for _, rr := range report.Roles {
		roles = append(roles, events.RoleOutcome{RoleID: rr.Role.ID(), Outcome: string(rr.Outcome), Steps: len(rr.Steps)})
	}
	s.deps.Bus.Publish(ctx, events.ParcelReconciled{
		BaseEvent: events.NewBaseEvent(),
		RunID:     s.runID,
		ParcelID:  report.ParcelID,
		Roles:     roles,
	})
}

// isFlaggable reports whether err aborts only the current role and belongs
// in the review queue.
func isFlaggable(err error) bool {
	switch apperr.GetKind(err) {
	case apperr.KindConflict, apperr.KindPreconditionFailed, apperr.KindNotFound:
		return true
	default:
		return false
	}
}

// DryRun reports whether writes are rolled back.
func (s *Service) DryRun() bool { return s.dryRun }
