package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"mantacam/internal/camera"
	"mantacam/internal/control"
	"mantacam/internal/driver"
	"mantacam/internal/httpapi"
	"mantacam/internal/vmb/sim"
)

const (
	mantaID  = "DEV_000F31000001"
	alviumID = "DEV_1AB22C000002"
)

// writeCatalog writes cameras as a sim catalog YAML file at path.
func writeCatalog(t *testing.T, path string, cameras ...sim.CameraSpec) {
	t.Helper()
	cat := sim.DefaultCatalog()
	cat.Cameras = cameras
	b, err := yaml.Marshal(cat)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
}

// stack is the daemon assembled the way cmd/mantad does it, behind an
// httptest server.
type stack struct {
	srv *httptest.Server
}

// newStack starts the full stack over the sim driver. With a catalog path
// the catalog is loaded from disk and watched for changes.
func newStack(t *testing.T, catalog string) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	opts := driver.Options{Kind: driver.KindSim, Catalog: catalog}
	drv, err := driver.New(opts)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	sys := camera.NewSystem(camera.SystemConfig{Driver: drv, EndCaptureTimeout: 2 * time.Second})
	if err := sys.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc, err := control.New(control.Config{System: sys, DriverName: driver.KindSim, Buffers: 3})
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		_ = driver.Watch(ctx, drv, opts)
	}()
	httpapi.SetBaseContext(ctx)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(func() {
		cancel()
		srv.Close()
		<-watched
		svc.Close()
		_ = sys.Shutdown()
		httpapi.SetBaseContext(context.Background())
	})
	return &stack{srv: srv}
}

func (s *stack) url(path string) string { return s.srv.URL + path }

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rd)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return doJSON(t, http.MethodGet, url, nil)
}

// mustStatus fails unless resp has the wanted status code.
func mustStatus(t *testing.T, what string, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s: status=%d want %d body=%s", what, resp.StatusCode, want, body)
	}
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func catalogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cameras.yaml")
}
