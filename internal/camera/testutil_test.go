package camera

import (
	"sync"
	"testing"
	"time"

	"mantacam/internal/vmb/sim"
)

const (
	mantaID  = "DEV_000F31000001"
	alviumID = "DEV_1AB22C000002"
)

// newTestSystem starts a System over the default simulated catalog.
func newTestSystem(t *testing.T) (*System, *sim.Driver, *MemoryPublisher) {
	t.Helper()
	return newTestSystemWith(t, sim.DefaultCatalog())
}

func newTestSystemWith(t *testing.T, cat sim.Catalog) (*System, *sim.Driver, *MemoryPublisher) {
	t.Helper()
	drv := sim.New(cat)
	pub := NewMemoryPublisher()
	s := NewSystem(SystemConfig{Driver: drv, Publisher: pub, EndCaptureTimeout: 2 * time.Second})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		if s.State() == SystemStarted {
			_ = s.Shutdown()
		}
	})
	return s, drv, pub
}

// openCamera opens the camera id in mode and shrinks it to a small ROI so
// tests move little memory.
func openCamera(t *testing.T, s *System, id string, mode AccessMode) *Camera {
	t.Helper()
	c, err := s.CameraByID(id)
	if err != nil {
		t.Fatalf("camera %s: %v", id, err)
	}
	if err := c.Open(mode); err != nil {
		t.Fatalf("open %s: %v", id, err)
	}
	if mode == AccessFull || mode == AccessConfig {
		for name, v := range map[string]int64{"Width": 32, "Height": 16} {
			f, err := c.Feature(name)
			if err != nil {
				t.Fatalf("feature %s: %v", name, err)
			}
			if err := f.SetInt(v); err != nil {
				t.Fatalf("set %s: %v", name, err)
			}
		}
	}
	return c
}

func mustKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, got, err)
	}
}

// frameLog records deliveries from the driver goroutine.
type frameLog struct {
	mu    sync.Mutex
	ids   []uint64
	views []ImageView
	errs  []error
	ch    chan struct{}
}

func newFrameLog() *frameLog { return &frameLog{ch: make(chan struct{}, 256)} }

func (l *frameLog) FrameReceived(f *Frame) {
	v, err := f.ImageView()
	if err == nil {
		v.Data = append([]byte(nil), v.Data...)
	}
	l.mu.Lock()
	l.ids = append(l.ids, f.FrameID())
	l.views = append(l.views, v)
	l.errs = append(l.errs, err)
	l.mu.Unlock()
	select {
	case l.ch <- struct{}{}:
	default:
	}
}

func (l *frameLog) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-l.ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for frame %d of %d", i+1, n)
		}
	}
}

func (l *frameLog) snapshot() ([]uint64, []ImageView, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint64(nil), l.ids...), append([]ImageView(nil), l.views...), append([]error(nil), l.errs...)
}

func trigger(t *testing.T, c *Camera) {
	t.Helper()
	if err := c.RunCommand("TriggerSoftware"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
}

// startTriggered announces n frames observed by obs, starts capture in
// software-trigger mode and runs AcquisitionStart.
func startTriggered(t *testing.T, c *Camera, n int, obs FrameObserver) []*Frame {
	t.Helper()
	f, err := c.Feature("TriggerMode")
	if err != nil {
		t.Fatalf("TriggerMode: %v", err)
	}
	if err := f.SetString("On"); err != nil {
		t.Fatalf("set TriggerMode: %v", err)
	}
	frames, err := c.AllocateFrames(n)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	for _, fr := range frames {
		fr.RegisterObserver(obs)
		if err := c.AnnounceFrame(fr); err != nil {
			t.Fatalf("announce: %v", err)
		}
	}
	if err := c.StartCapture(); err != nil {
		t.Fatalf("start capture: %v", err)
	}
	for _, fr := range frames {
		if err := c.QueueFrame(fr); err != nil {
			t.Fatalf("queue: %v", err)
		}
	}
	if err := c.RunCommand("AcquisitionStart"); err != nil {
		t.Fatalf("AcquisitionStart: %v", err)
	}
	return frames
}

func stopCapture(t *testing.T, c *Camera) {
	t.Helper()
	_ = c.RunCommand("AcquisitionStop")
	if err := c.EndCapture(); err != nil {
		t.Fatalf("end capture: %v", err)
	}
	if err := c.RevokeAllFrames(); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within 3s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
