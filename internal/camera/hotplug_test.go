package camera

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"mantacam/internal/vmb/sim"
)

type listEvent struct {
	id      string
	trigger UpdateTrigger
	cam     *Camera
}

type listRecorder struct {
	mu     sync.Mutex
	events []listEvent
	ch     chan struct{}
}

func newListRecorder() *listRecorder { return &listRecorder{ch: make(chan struct{}, 32)} }

func (r *listRecorder) CameraListChanged(c *Camera, tr UpdateTrigger) {
	r.mu.Lock()
	r.events = append(r.events, listEvent{c.ID(), tr, c})
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *listRecorder) wait(t *testing.T, n int) []listEvent {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]listEvent(nil), r.events...)
}

func TestHotPlugOrdering(t *testing.T) {
	s, drv, pub := newTestSystemWith(t, sim.Catalog{})
	rec := newListRecorder()
	if _, err := s.RegisterCameraListObserver(rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	drv.PlugIn(sim.CameraSpec{ID: "A", Width: 8, Height: 8})
	drv.PlugIn(sim.CameraSpec{ID: "B", Width: 8, Height: 8})
	drv.PlugOut("A")

	events := rec.wait(t, 3)
	var got []string
	for _, e := range events {
		got = append(got, e.id+":"+e.trigger.String())
	}
	want := []string{"A:plugged_in", "B:plugged_in", "A:plugged_out"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	if events[0].cam != events[2].cam {
		t.Fatalf("plugged-out event should carry the camera from plug-in")
	}
	if !events[2].cam.Detached() {
		t.Fatalf("plugged-out camera not detached")
	}

	cams, _ := s.Cameras()
	if len(cams) != 1 || cams[0] != events[1].cam {
		t.Fatalf("enumeration should return the cached camera B")
	}

	drv.PlugIn(sim.CameraSpec{ID: "A", Width: 8, Height: 8})
	events = rec.wait(t, 1)
	if events[3].cam == events[0].cam {
		t.Fatalf("replugged camera must be a new value")
	}
	n := 0
	for _, name := range pub.Names() {
		if name == EventCameraListChanged {
			n++
		}
	}
	if n != 4 {
		t.Fatalf("expected 4 list events published, got %d", n)
	}
}

func TestOpenStateChanged(t *testing.T) {
	s, drv, _ := newTestSystem(t)
	c, _ := s.CameraByID(mantaID)
	rec := newListRecorder()
	if _, err := s.RegisterCameraListObserver(rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	drv.SetExternallyOpened(mantaID, true)
	events := rec.wait(t, 1)
	if events[0].trigger != OpenStateChanged || events[0].cam != c {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if c.PermittedAccess() != AccessRead {
		t.Fatalf("permitted access not refreshed: %s", c.PermittedAccess())
	}
}

func TestObserverRegistration(t *testing.T) {
	s, drv, _ := newTestSystemWith(t, sim.Catalog{})
	_, err := s.RegisterCameraListObserver(nil)
	mustKind(t, err, KindBadParameter)

	first, second := newListRecorder(), newListRecorder()
	cancel, err := s.RegisterCameraListObserver(first)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.RegisterCameraListObserver(second); err != nil {
		t.Fatalf("register: %v", err)
	}
	drv.PlugIn(sim.CameraSpec{ID: "A", Width: 8, Height: 8})
	first.wait(t, 1)
	second.wait(t, 1)

	cancel()
	drv.PlugOut("A")
	second.wait(t, 1)
	if len(first.wait(t, 0)) != 1 {
		t.Fatalf("unregistered observer still notified")
	}

	_ = s.Shutdown()
	_, err = s.RegisterCameraListObserver(first)
	mustKind(t, err, KindApiNotStarted)
}
