package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetKindUnwrapsChain(t *testing.T) {
	base := Conflict("building number differs")
	wrapped := fmt.Errorf("reconcile owner: %w", base)

	if got := GetKind(wrapped); got != KindConflict {
		t.Fatalf("expected conflict kind through wrap, got %s", got)
	}
	if !Is(wrapped, KindConflict) {
		t.Fatal("Is should match wrapped conflict")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("plain errors should have unknown kind")
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	err := UpstreamUnavailable("owner info request failed", errors.New("dial tcp: timeout")).WithOp("gaze.OwnerInfo")
	want := "gaze.OwnerInfo: owner info request failed: dial tcp: timeout"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:            http.StatusNotFound,
		KindConflict:            http.StatusConflict,
		KindPreconditionFailed:  http.StatusPreconditionFailed,
		KindUpstreamUnavailable: http.StatusBadGateway,
		KindInputRejected:       http.StatusBadRequest,
		KindUnauthorized:        http.StatusUnauthorized,
	}
	for kind, want := range cases {
		if got := New(kind, "x").HTTPStatus(); got != want {
			t.Errorf("%s: got %d, want %d", kind, got, want)
		}
	}
}

func TestDetails(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("x").WithDetails([]string{"street"}))
	details, ok := Details(err).([]string)
	if !ok || len(details) != 1 || details[0] != "street" {
		t.Fatalf("unexpected details %#v", Details(err))
	}
}
