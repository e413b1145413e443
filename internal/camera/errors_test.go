package camera

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mantacam/internal/vmb"
)

func TestKindForStatusCoversEveryStatus(t *testing.T) {
	if n := len(Kinds()); n != 20 {
		t.Fatalf("expected 20 kinds, got %d", n)
	}
	for code := 0; code >= -19; code-- {
		st := vmb.Status(code)
		k := KindForStatus(st)
		if int(k) != -code {
			t.Fatalf("status %s mapped to %s", st, k)
		}
	}
	if k := KindForStatus(vmb.Status(-42)); k != KindOther {
		t.Fatalf("unknown status mapped to %s", k)
	}
}

func TestTranslate(t *testing.T) {
	if err := translate("op", vmb.StatusSuccess); err != nil {
		t.Fatalf("success translated to %v", err)
	}
	err := translate("open", vmb.StatusInvalidAccess)
	if !IsInvalidAccess(err) {
		t.Fatalf("expected invalid access, got %v", err)
	}
	if err.Error() != "camera: open: invalid_access" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	err = translate("open", vmb.Status(-99))
	if KindOf(err) != KindOther {
		t.Fatalf("expected other, got %v", err)
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := newError("feature", KindNotFound, "Bogus")
	wrapped := fmt.Errorf("lookup: %w", base)
	if !IsNotFound(wrapped) {
		t.Fatalf("wrapped not found not detected")
	}
	if !errors.Is(wrapped, &Error{Kind: KindNotFound}) {
		t.Fatalf("errors.Is by kind failed")
	}
	if errors.Is(wrapped, &Error{Kind: KindNotFound, Op: "open"}) {
		t.Fatalf("errors.Is matched a different op")
	}
	if KindOf(nil) != KindSuccess || KindOf(errors.New("x")) != KindOther {
		t.Fatalf("KindOf fallbacks wrong")
	}
	if KindTimeout.String() != "timeout" || ErrorKind(99).String() != "kind(99)" {
		t.Fatalf("unexpected kind names")
	}
}

func TestErrorsCountedBySource(t *testing.T) {
	api := sdkErrorsTotal.WithLabelValues("wrong_type", "api")
	sdk := sdkErrorsTotal.WithLabelValues("wrong_type", "sdk")
	api0, sdk0 := testutil.ToFloat64(api), testutil.ToFloat64(sdk)

	_ = newError("get_int", KindWrongType, "Gain is float")
	if got := testutil.ToFloat64(api) - api0; got != 1 {
		t.Fatalf("api errors grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(sdk) - sdk0; got != 0 {
		t.Fatalf("caller error counted as sdk fault")
	}

	_ = translate("get_int", vmb.StatusWrongType)
	if got := testutil.ToFloat64(sdk) - sdk0; got != 1 {
		t.Fatalf("sdk errors grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(api) - api0; got != 1 {
		t.Fatalf("driver status counted as api error")
	}
}
