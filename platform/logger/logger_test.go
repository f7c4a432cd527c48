package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestReconcileFlaggedWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.ReconcileFlagged("0028F00194000000", 233, "conflict", errors.New("building number differs"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "reconcile_flagged" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if entry["parcel_id"] != "0028F00194000000" {
		t.Fatalf("unexpected parcel_id %v", entry["parcel_id"])
	}
	if entry["role_id"] != float64(233) {
		t.Fatalf("unexpected role_id %v", entry["role_id"])
	}
}

func TestWithContextAddsParcelAndRun(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, ParcelIDKey, "P1")
	log.WithContext(ctx).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["run_id"] != "run-1" || entry["parcel_id"] != "P1" {
		t.Fatalf("context values missing: %v", entry)
	}
}
