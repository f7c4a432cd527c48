package parcelsync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cog_mailing_sync/internal/events"
	"cog_mailing_sync/platform/logger"
)

const (
	defaultPageSize  = 500
	progressInterval = 100
)

// ParcelLister pages through active parcel ids in ascending order.
type ParcelLister interface {
	ListActiveParcelIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// Syncer reconciles one parcel. Satisfied by *Service.
type Syncer interface {
	SyncParcel(ctx context.Context, parcelID string) (Report, error)
	RunID() uuid.UUID
	DryRun() bool
}

// RunParams selects the parcels of a batch run.
type RunParams struct {
	// ParcelIDs, when set, replaces the Cog listing.
	ParcelIDs []string `validate:"dive,parcelid"`
	// SkipTo skips that many parcels before processing starts.
	SkipTo int `validate:"min=0"`
	// Limit stops the run after that many parcels. Zero means no limit.
	Limit    int `validate:"min=0"`
	PageSize int `validate:"min=0,max=10000"`
}

// RunSummary tallies a batch run. Role outcomes are counted per role.
type RunSummary struct {
	RunID     uuid.UUID
	DryRun    bool
	Processed int
	Applied   int
	Unchanged int
	Skipped   int
	Flagged   int
	Failed    int
	Duration  time.Duration
}

// Runner drives SyncParcel over many parcels, one at a time.
type Runner struct {
	sync   Syncer
	lister ParcelLister
	bus    events.Bus
	log    *logger.Logger
}

func NewRunner(sync Syncer, lister ParcelLister, bus events.Bus, log *logger.Logger) *Runner {
	return &Runner{sync: sync, lister: lister, bus: bus, log: log}
}

// Run processes parcels sequentially. A parcel that fails is logged and
// counted; the run continues. Run stops early only when ctx is done or the
// listing itself fails.
func (r *Runner) Run(ctx context.Context, p RunParams) (RunSummary, error) {
	started := time.Now()
	summary := RunSummary{RunID: r.sync.RunID(), DryRun: r.sync.DryRun()}
	log := &logger.Logger{Logger: r.log.With("run_id", summary.RunID.String())}
	log.Info("sync run started", "skip_to", p.SkipTo, "limit", p.Limit, "dry_run", summary.DryRun)

	seen := 0
	visit := func(parcelID string) bool {
		seen++
		if seen <= p.SkipTo {
			return true
		}
		if p.Limit > 0 && summary.Processed >= p.Limit {
			return false
		}
		r.syncOne(ctx, log, parcelID, &summary)
		if summary.Processed%progressInterval == 0 {
			log.Info("sync progress", "processed", summary.Processed, "flagged", summary.Flagged, "failed", summary.Failed)
		}
		return ctx.Err() == nil
	}

	var err error
	if len(p.ParcelIDs) > 0 {
		for _, id := range p.ParcelIDs {
			if !visit(id) {
				break
			}
		}
	} else {
		err = r.walk(ctx, p.PageSize, visit)
	}
	if err == nil {
		err = ctx.Err()
	}

	summary.Duration = time.Since(started)
	log.Info("sync run finished",
		"processed", summary.Processed,
		"applied", summary.Applied,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"flagged", summary.Flagged,
		"failed", summary.Failed,
		"duration", summary.Duration.String(),
	)

	if r.bus != nil {
		r.bus.Publish(ctx, events.SyncRunCompleted{
			BaseEvent: events.NewBaseEvent(),
			RunID:     summary.RunID,
			DryRun:    summary.DryRun,
			Processed: summary.Processed,
			Applied:   summary.Applied,
			Unchanged: summary.Unchanged,
			Skipped:   summary.Skipped,
			Flagged:   summary.Flagged,
			Failed:    summary.Failed,
			Duration:  summary.Duration,
		})
	}
	return summary, err
}

func (r *Runner) walk(ctx context.Context, pageSize int, visit func(string) bool) error {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	after := ""
	for {
		ids, err := r.lister.ListActiveParcelIDs(ctx, after, pageSize)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !visit(id) {
				return nil
			}
		}
		if len(ids) < pageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

func (r *Runner) syncOne(ctx context.Context, log *logger.Logger, parcelID string, summary *RunSummary) {
	summary.Processed++
	report, err := r.sync.SyncParcel(ctx, parcelID)
	if err != nil {
		summary.Failed++
		log.Error("parcel sync failed", "parcel_id", parcelID, "error", err)
		return
	}
	counts := report.Counts()
	summary.Applied += counts[OutcomeApplied]
	summary.Unchanged += counts[OutcomeUnchanged]
	summary.Skipped += counts[OutcomeSkipped]
	summary.Flagged += counts[OutcomeFlagged]
}
