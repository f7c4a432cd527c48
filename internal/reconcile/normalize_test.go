package reconcile

import "testing"

func TestNormalizeBothAbsentShortCircuits(t *testing.T) {
	_, ok := Normalize(Input{ParcelID: "P", Role: RoleMortgageMailing})
	if ok {
		t.Fatal("expected nothing to reconcile when both sides are absent")
	}
}

func TestNormalizeSynthesizesEmptyExternal(t *testing.T) {
	in := &InternalHierarchy{
		Linkage:        LinkageRow{Exists: true, RoleID: 234, AddressID: 1},
		MailingAddress: MailingAddressRow{Exists: true, ID: 1, BuildingNumber: Value("12")},
	}
	n, ok := Normalize(Input{
		ParcelID: "P",
		Role:     RoleMortgageMailing,
		Parcel:   ParcelRow{Exists: true, Key: 1, ExternalID: Value("P")},
		Internal: in,
	})
	if !ok {
		t.Fatal("expected reconciliation to run with an empty external record")
	}
	for name, f := range map[string]Field{
		"number":     n.External.Number,
		"city":       n.External.City,
		"streetLine": n.External.StreetLine,
	} {
		if f.State() != StateAbsent {
			t.Errorf("%s: expected absent, got %s", name, f.State())
		}
	}
}

func TestNormalizeClearsFieldsOfMissingRows(t *testing.T) {
	// A street row that does not exist must not leak a stale value.
	in := &InternalHierarchy{
		Linkage:        LinkageRow{Exists: true, RoleID: 233, AddressID: 1},
		MailingAddress: MailingAddressRow{Exists: true, ID: 1, BuildingNumber: Null()},
		Street:         StreetRow{Exists: false, Name: Value("stale")},
	}
	n, _ := Normalize(Input{
		ParcelID: "P",
		Role:     RoleOwnerMailing,
		Parcel:   ParcelRow{Exists: true, Key: 1, ExternalID: Value("P")},
		External: &ExternalAddress{Number: Value("1")},
		Internal: in,
	})

	if n.Internal.Street.Name.State() != StateAbsent {
		t.Fatalf("expected absent street name, got %s", n.Internal.Street.Name.State())
	}
	if n.Internal.MailingAddress.BuildingNumber.State() != StateNull {
		t.Fatal("null column on an existing row must stay null")
	}
	if n.Internal.CityStateZip.City.State() != StateAbsent {
		t.Fatal("missing city/state/zip row should be absent")
	}
}

func TestStreetLineSkipsAbsentAndEmptyParts(t *testing.T) {
	tests := []struct {
		ext  ExternalAddress
		want Field
	}{
		{ExternalAddress{Street: Value("Main"), Type: Value("St")}, Value("Main St")},
		{ExternalAddress{Prefix: Value("E"), Street: Value("Carson"), Type: Value(""), Suffix: Value("Ext")}, Value("E Carson Ext")},
		{ExternalAddress{}, Absent()},
		{ExternalAddress{Street: Value("")}, Absent()},
	}
	for _, tc := range tests {
		got := streetLine(tc.ext)
		if got != tc.want {
			t.Errorf("streetLine = %s %q, want %s %q", got.State(), got.String(), tc.want.State(), tc.want.String())
		}
	}
}
