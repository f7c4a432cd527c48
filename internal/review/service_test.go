package review

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/logger"
)

type fakeStore struct {
	created []CreateParams
	items   map[uuid.UUID]Item
	offset  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[uuid.UUID]Item{}}
}

// Create mirrors the open-item upsert: one open item per (parcel, role, kind).
func (f *fakeStore) Create(_ context.Context, p CreateParams) (Item, bool, error) {
	f.created = append(f.created, p)
	for id, it := range f.items {
		if it.Status == StatusOpen && it.ParcelID == p.ParcelID && it.RoleID == p.RoleID && it.Kind == p.Kind {
			it.Message = p.Message
			f.items[id] = it
			return it, false, nil
		}
	}
	item := Item{ID: uuid.New(), ParcelID: p.ParcelID, RoleID: p.RoleID, Kind: p.Kind, Message: p.Message, Status: StatusOpen}
	f.items[item.ID] = item
	return item, true, nil
}

func (f *fakeStore) List(_ context.Context, status Status, limit, offset int) ([]Item, int, error) {
	f.offset = offset
	var out []Item
	for _, it := range f.items {
		if status == "" || it.Status == status {
			out = append(out, it)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, apperr.NotFound(errItemNotFound)
	}
	return it, nil
}

func (f *fakeStore) Acknowledge(_ context.Context, id uuid.UUID, operator string, note *string) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, apperr.NotFound(errItemNotFound)
	}
	if it.Status != StatusOpen {
		return Item{}, apperr.Conflict("review item already acknowledged")
	}
	it.Status = StatusAcknowledged
	it.ResolvedBy = &operator
	it.ResolutionNote = note
	f.items[id] = it
	return it, nil
}

type detail struct {
	Level string `json:"level"`
}

func TestEnqueueEncodesPayloads(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.Discard())

	_, _, err := svc.Enqueue(context.Background(), EnqueueParams{
		ParcelID:        "0028F00194000000",
		RoleID:          233,
		Kind:            "conflict",
		Message:         "unresolved differences at mailing_address",
		Details:         []detail{{Level: "mailing_address"}},
		Classifications: map[string]string{"building_number": "MISMATCH"},
		SnapshotKey:     "gaze/0028F00194000000/20261018T000000Z.json",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := store.created[0]
	if string(p.Details) != `[{"level":"mailing_address"}]` {
		t.Fatalf("unexpected details %s", p.Details)
	}
	var cls map[string]string
	if err := json.Unmarshal(p.Classifications, &cls); err != nil || cls["building_number"] != "MISMATCH" {
		t.Fatalf("unexpected classifications %s", p.Classifications)
	}
	if p.SnapshotKey == nil || !strings.HasPrefix(*p.SnapshotKey, "gaze/") {
		t.Fatal("snapshot key should be stored")
	}
}

func TestEnqueueDefaultsEmptyPayloads(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.Discard())

	var none []detail
	_, _, err := svc.Enqueue(context.Background(), EnqueueParams{ParcelID: "P", RoleID: 234, Kind: "precondition_failed", Details: none})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := store.created[0]
	if string(p.Details) != "[]" || string(p.Classifications) != "{}" {
		t.Fatalf("got details=%s classifications=%s", p.Details, p.Classifications)
	}
	if p.SnapshotKey != nil {
		t.Fatal("empty snapshot key should be stored as NULL")
	}
}

func TestEnqueueReusesOpenItem(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.Discard())
	ctx := context.Background()
	p := EnqueueParams{ParcelID: "P", RoleID: 233, Kind: "conflict", Message: "first run"}

	first, created, err := svc.Enqueue(ctx, p)
	if err != nil || !created {
		t.Fatalf("first enqueue: created=%v err=%v", created, err)
	}
	p.Message = "second run"
	second, created, err := svc.Enqueue(ctx, p)
	if err != nil || created {
		t.Fatalf("rerun should reuse the open item: created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Message != "second run" {
		t.Fatalf("expected the refreshed open item, got %+v", second)
	}

	open, total, _ := svc.List(ctx, StatusOpen, 1, 20)
	if total != 1 || len(open) != 1 {
		t.Fatalf("queue should hold one open item, got %d", total)
	}

	if _, err := svc.Acknowledge(ctx, first.ID, "ops@example.org", ""); err != nil {
		t.Fatal(err)
	}
	third, created, err := svc.Enqueue(ctx, p)
	if err != nil || !created || third.ID == first.ID {
		t.Fatalf("an acknowledged item must not absorb a new flag: created=%v err=%v", created, err)
	}

	other := p
	other.Kind = "precondition_failed"
	if _, created, _ := svc.Enqueue(ctx, other); !created {
		t.Fatal("a different kind is a separate item")
	}
}

func TestAcknowledge(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.Discard())
	ctx := context.Background()
	item, _, _ := svc.Enqueue(ctx, EnqueueParams{ParcelID: "P", RoleID: 233, Kind: "conflict"})

	if _, err := svc.Acknowledge(ctx, item.ID, "  ", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank operator, got %v", err)
	}

	got, err := svc.Acknowledge(ctx, item.ID, "ops@example.org", " checked deed ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusAcknowledged || *got.ResolvedBy != "ops@example.org" || *got.ResolutionNote != "checked deed" {
		t.Fatalf("unexpected item %+v", got)
	}

	if _, err := svc.Acknowledge(ctx, item.ID, "ops@example.org", ""); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second acknowledge, got %v", err)
	}
	if _, err := svc.Acknowledge(ctx, uuid.New(), "ops@example.org", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListComputesOffset(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.Discard())

	if _, _, err := svc.List(context.Background(), StatusOpen, 3, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.offset != 40 {
		t.Fatalf("offset = %d, want 40", store.offset)
	}
	_, _, _ = svc.List(context.Background(), "", 0, 20)
	if store.offset != 0 {
		t.Fatalf("page below 1 should read the first page, got offset %d", store.offset)
	}
}
