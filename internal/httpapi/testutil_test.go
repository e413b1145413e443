package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mantacam/internal/camera"
	"mantacam/internal/control"
	"mantacam/internal/vmb/sim"
)

const mantaID = "DEV_000F31000001"

// newStack serves the real control service over a simulated driver.
func newStack(t *testing.T) (http.Handler, *sim.Driver) {
	t.Helper()
	drv := sim.New(sim.DefaultCatalog())
	sys := camera.NewSystem(camera.SystemConfig{Driver: drv, EndCaptureTimeout: 2 * time.Second})
	if err := sys.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc, err := control.New(control.Config{System: sys, Buffers: 2})
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
		_ = sys.Shutdown()
	})
	return NewMux(svc), drv
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want %d body=%s", rec.Code, want, rec.Body.String())
	}
}
