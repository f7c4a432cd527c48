package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadParcelList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parcels.yaml")
	if err := os.WriteFile(path, []byte("parcels:\n  - 0028F00194000000\n  - \"  \"\n  - 0001A00001000000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ids, err := readParcelList(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"0028F00194000000", "0001A00001000000"}) {
		t.Fatalf("got %v", ids)
	}

	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, []byte("parcels: []\n"), 0o600)
	if _, err := readParcelList(empty); err == nil {
		t.Fatal("expected error for an empty list")
	}
	if _, err := readParcelList(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

type pagedLister struct{ ids []string }

func (p pagedLister) ListActiveParcelIDs(_ context.Context, after string, limit int) ([]string, error) {
	var out []string
	for _, id := range p.ids {
		if id > after && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

func TestListParcelsStopsAtLimit(t *testing.T) {
	ids := make([]string, 2500)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%05d", i)
	}

	got, err := listParcels(context.Background(), pagedLister{ids: ids}, 0)
	if err != nil || len(got) != len(ids) {
		t.Fatalf("err=%v len=%d", err, len(got))
	}

	limited, _ := listParcels(context.Background(), pagedLister{ids: ids}, 10)
	if len(limited) != 1000 {
		t.Fatalf("expected a single page when the limit fits in it, got %d", len(limited))
	}
}

type fakeQueue struct {
	seen map[string]bool
	err  error
}

func (q *fakeQueue) EnqueueParcel(_ context.Context, id string) (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	if q.seen[id] {
		return false, nil
	}
	q.seen[id] = true
	return true, nil
}

func TestEnqueueAll(t *testing.T) {
	q := &fakeQueue{seen: map[string]bool{"B": true}}
	queued, dup, err := enqueueAll(context.Background(), q, []string{"A", "B", "C"})
	if err != nil || queued != 2 || dup != 1 {
		t.Fatalf("queued=%d dup=%d err=%v", queued, dup, err)
	}

	q.err = errors.New("redis down")
	if _, _, err := enqueueAll(context.Background(), q, []string{"D"}); err == nil {
		t.Fatal("expected error")
	}
}
