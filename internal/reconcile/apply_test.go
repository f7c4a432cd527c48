package reconcile

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"cog_mailing_sync/platform/apperr"
)

func TestApplyReusesExistingRowsByNaturalKey(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	zip := "15213"
	cszID, _ := store.CreateCityStateZip(ctx, "PITTSBURGH", "PA", &zip)
	streetID, _ := store.CreateStreet(ctx, cszID, "MAIN ST")
	store.calls = nil

	plan, err := prepare(t, mainStreetExternal(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := Apply(ctx, store, plan)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if res.CityStateZipID != cszID || res.StreetID != streetID {
		t.Fatalf("expected existing rows to be reused, got %+v", res)
	}
	want := []string{"find_csz", "find_street", "find_address", "create_address", "link"}
	if !reflect.DeepEqual(store.calls, want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	if res.Created() != 1 {
		t.Fatalf("expected only the mailing address to be created, got %d", res.Created())
	}
	if res.Steps[0].Outcome != OutcomeFound || res.Steps[3].Outcome != OutcomeLinked {
		t.Fatalf("unexpected outcomes %+v", res.Steps)
	}
}

func TestApplyNilZipMatchesOnlyNilZip(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	zip := "15213"
	withZip, _ := store.CreateCityStateZip(ctx, "PITTSBURGH", "PA", &zip)
	store.calls = nil

	ext := mainStreetExternal()
	ext.Zip = Absent()
	plan, err := prepare(t, ext, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := Apply(ctx, store, plan)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if res.CityStateZipID == withZip {
		t.Fatal("an absent zip must not match a row that has one")
	}
	if store.csz[res.CityStateZipID].zip != nil {
		t.Fatal("created row should have no zip")
	}
}

func TestApplyUsesExistingParentKeys(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	zip := "15213"
	cszID, _ := store.CreateCityStateZip(ctx, "Pittsburgh", "PA", &zip)
	streetID, _ := store.CreateStreet(ctx, cszID, "Main St")
	store.calls = nil

	in := &InternalHierarchy{
		Street:       StreetRow{Exists: true, ID: streetID, Name: Value("Main St")},
		CityStateZip: CityStateZipRow{Exists: true, ID: cszID, City: Value("Pittsburgh"), StateAbbr: Value("PA"), ZipCode: Value("15213")},
	}
	plan, err := prepare(t, mainStreetExternal(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := Apply(ctx, store, plan)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := store.addresses[res.MailingAddressID].streetID; got != streetID {
		t.Fatalf("mailing address hangs from street %d, want %d", got, streetID)
	}
	want := []string{"find_address", "create_address", "link"}
	if !reflect.DeepEqual(store.calls, want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "create_street"

	plan, err := prepare(t, mainStreetExternal(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := Apply(context.Background(), store, plan)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "ensure_street") {
		t.Fatalf("error should name the failing step: %v", err)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("expected only the first step to complete, got %+v", res.Steps)
	}
	for _, c := range store.calls {
		if c == "find_address" || c == "create_address" || c == "link" {
			t.Fatalf("no step after the failure may run, saw %s", c)
		}
	}
}

func TestApplyRejectsOutOfOrderStepsBeforeWriting(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: EnsureCityStateZip, City: "Pittsburgh", State: "PA"},
		{Kind: EnsureStreet, StreetName: "Main St"},
		{Kind: EnsureCityStateZip, City: "Erie", State: "PA"},
	}}

	store := newMemStore()
	_, err := Apply(context.Background(), store, plan)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("nothing should be written, got %v", store.calls)
	}
}

func TestApplyRejectsSkippedLevel(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: EnsureCityStateZip, City: "Pittsburgh", State: "PA"},
		{Kind: EnsureMailingAddress, BuildingNumber: "123"},
	}}

	store := newMemStore()
	_, err := Apply(context.Background(), store, plan)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("a city/state/zip key must never be used as a street key, got %v", store.calls)
	}
}

func TestApplyUsesExistingParentAcrossGap(t *testing.T) {
	store := newMemStore()
	store.csz[1] = memCityStateZip{city: "PITTSBURGH", state: "PA"}
	store.streets[7] = memStreet{cszID: 1, name: "MAIN ST"}

	plan := Plan{ParcelKey: 42, Role: RoleOwnerMailing, Steps: []Step{
		{Kind: EnsureMailingAddress, ParentID: 7, BuildingNumber: "123"},
		{Kind: LinkRole, ParcelKey: 42, Role: RoleOwnerMailing},
	}}
	res, err := Apply(context.Background(), store, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := store.addresses[res.MailingAddressID]
	if addr.streetID != 7 {
		t.Fatalf("address bound to street %d, want 7", addr.streetID)
	}
	if len(store.links) != 1 || store.links[0].addressID != res.MailingAddressID {
		t.Fatalf("unexpected links %+v", store.links)
	}
}

func TestApplyRequiresBoundParent(t *testing.T) {
	plan := Plan{Steps: []Step{{Kind: EnsureMailingAddress, BuildingNumber: "1"}}}

	store := newMemStore()
	_, err := Apply(context.Background(), store, plan)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("nothing should be written, got %v", store.calls)
	}
}

func TestApplyEmptyPlanIsNoop(t *testing.T) {
	store := newMemStore()
	res, err := Apply(context.Background(), store, Plan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Steps) != 0 || len(store.calls) != 0 {
		t.Fatal("expected no writes")
	}
}
