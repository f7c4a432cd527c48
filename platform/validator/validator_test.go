package validator

import (
	"strings"
	"testing"
)

func TestParcelIDRule(t *testing.T) {
	v := New()

	for _, id := range []string{"0028F00194000000", "12-345.6"} {
		if err := v.Var(id, "parcelid"); err != nil {
			t.Errorf("%q: unexpected error %v", id, err)
		}
	}
	for _, id := range []string{"", "0028 F001", "P\x00", strings.Repeat("9", 65)} {
		if err := v.Var(id, "parcelid"); err == nil {
			t.Errorf("%q: expected rejection", id)
		}
	}
}

func TestParcelIDRuleDivesIntoLists(t *testing.T) {
	type batch struct {
		IDs []string `validate:"dive,parcelid"`
	}
	v := New()
	if err := v.Struct(batch{IDs: []string{"A1", "B2"}}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := v.Struct(batch{IDs: []string{"A1", "B 2"}}); err == nil {
		t.Fatal("expected rejection of an id with whitespace")
	}
}
