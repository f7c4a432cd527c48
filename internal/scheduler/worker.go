package scheduler

import (
	"context"
	"fmt"

	"cog_mailing_sync/internal/parcelsync"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/logger"
	"cog_mailing_sync/platform/validator"

	"github.com/hibiken/asynq"
)

// ParcelSyncer reconciles one parcel.
type ParcelSyncer interface {
	SyncParcel(ctx context.Context, parcelID string) (parcelsync.Report, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sync   ParcelSyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sync ParcelSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	// Parcels are reconciled one at a time unless configured otherwise.
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(sync, log)
	w.server = server
	return w, nil
}

func newWorker(sync ParcelSyncer, log *logger.Logger) *Worker {
	w := &Worker{
		mux:  asynq.NewServeMux(),
		sync: sync,
		log:  log,
	}
	w.mux.HandleFunc(TaskParcelReconcile, w.handleParcelReconcile)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleParcelReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseParcelReconcilePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if !validator.ParcelID(payload.ParcelID) {
		return fmt.Errorf("%w: invalid parcel id %q", asynq.SkipRetry, payload.ParcelID)
	}

	report, err := w.sync.SyncParcel(ctx, payload.ParcelID)
	if err != nil {
		// A parcel unknown to Cog will not appear on retry.
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Warn("parcel not found, dropping task", "parcel_id", payload.ParcelID, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	counts := report.Counts()
	w.log.Debug("parcel task done",
		"parcel_id", payload.ParcelID,
		"applied", counts[parcelsync.OutcomeApplied],
		"flagged", counts[parcelsync.OutcomeFlagged],
	)
	return nil
}
