package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"cog_mailing_sync/internal/parcelsync"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/logger"
)

type fakeSyncer struct {
	parcels []string
	err     error
}

func (f *fakeSyncer) SyncParcel(_ context.Context, parcelID string) (parcelsync.Report, error) {
	f.parcels = append(f.parcels, parcelID)
	return parcelsync.Report{ParcelID: parcelID}, f.err
}

func TestNewParcelReconcileTask(t *testing.T) {
	if _, err := NewParcelReconcileTask(ParcelReconcilePayload{ParcelID: "  "}); err == nil {
		t.Fatal("expected error for blank parcel id")
	}

	task, err := NewParcelReconcileTask(ParcelReconcilePayload{ParcelID: "0028F00194000000"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskParcelReconcile || string(task.Payload()) != `{"parcelId":"0028F00194000000"}` {
		t.Fatalf("unexpected task %s %s", task.Type(), task.Payload())
	}
}

func TestHandleParcelReconcile(t *testing.T) {
	syncer := &fakeSyncer{}
	w := newWorker(syncer, logger.Discard())
	task, _ := NewParcelReconcileTask(ParcelReconcilePayload{ParcelID: "P1"})

	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syncer.parcels) != 1 || syncer.parcels[0] != "P1" {
		t.Fatalf("synced %v", syncer.parcels)
	}
}

func TestHandleParcelReconcileRetryPolicy(t *testing.T) {
	task, _ := NewParcelReconcileTask(ParcelReconcilePayload{ParcelID: "P1"})

	w := newWorker(&fakeSyncer{err: apperr.NotFound("parcel not found")}, logger.Discard())
	if err := w.mux.ProcessTask(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("missing parcel should skip retry, got %v", err)
	}

	w = newWorker(&fakeSyncer{err: errors.New("connection reset")}, logger.Discard())
	err := w.mux.ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient failures should be retried, got %v", err)
	}

	bad := asynq.NewTask(TaskParcelReconcile, []byte(`not json`))
	if err := w.mux.ProcessTask(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	if err != nil {
		t.Fatal(err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure tls config")
	}

	if _, err := redisClientOpt("://bad", false); err == nil {
		t.Fatal("expected parse error")
	}
}
