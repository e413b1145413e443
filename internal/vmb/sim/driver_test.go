package sim_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mantacam/internal/vmb"
	"mantacam/internal/vmb/sim"
)

const manta = "DEV_000F31000001"

func started(t *testing.T) *sim.Driver {
	t.Helper()
	d := sim.New(sim.DefaultCatalog())
	require.Equal(t, vmb.StatusSuccess, d.Startup())
	t.Cleanup(func() { d.Shutdown() })
	return d
}

func TestLifecycle(t *testing.T) {
	d := sim.New(sim.DefaultCatalog())
	_, st := d.Cameras()
	assert.Equal(t, vmb.StatusApiNotStarted, st)
	assert.Equal(t, vmb.StatusApiNotStarted, d.Shutdown())

	require.Equal(t, vmb.StatusSuccess, d.Startup())
	require.Equal(t, vmb.StatusSuccess, d.Startup())
	cams, st := d.Cameras()
	require.Equal(t, vmb.StatusSuccess, st)
	require.Len(t, cams, 2)
	assert.Equal(t, manta, cams[0].ID)
	assert.Equal(t, vmb.InterfaceEthernet, cams[0].InterfaceType)

	ifs, st := d.Interfaces()
	require.Equal(t, vmb.StatusSuccess, st)
	assert.Len(t, ifs, 2)

	require.Equal(t, vmb.StatusSuccess, d.Shutdown())
	assert.Equal(t, vmb.StatusApiNotStarted, d.Shutdown())
}

func TestEmptyCatalog(t *testing.T) {
	d := sim.New(sim.Catalog{})
	require.Equal(t, vmb.StatusSuccess, d.Startup())
	defer d.Shutdown()
	cams, st := d.Cameras()
	require.Equal(t, vmb.StatusSuccess, st)
	assert.Empty(t, cams)
	_, st = d.CameraInfo("DEV_1")
	assert.Equal(t, vmb.StatusNotFound, st)
}

func TestOpenAccess(t *testing.T) {
	d := started(t)

	_, st := d.Open("nope", vmb.AccessFull)
	assert.Equal(t, vmb.StatusNotFound, st)
	_, st = d.Open(manta, vmb.AccessNone)
	assert.Equal(t, vmb.StatusBadParameter, st)

	h, st := d.Open(manta, vmb.AccessRead)
	require.Equal(t, vmb.StatusSuccess, st)
	_, st = d.Open(manta, vmb.AccessFull)
	assert.Equal(t, vmb.StatusInvalidAccess, st, "second open")

	assert.Equal(t, vmb.StatusInvalidAccess, d.SetFeatureFloat(h, "Gain", 3))
	g, st := d.FeatureFloat(h, "Gain")
	require.Equal(t, vmb.StatusSuccess, st)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, vmb.StatusInvalidAccess, d.AnnounceFrame(h, &vmb.FrameBuffer{Buffer: make([]byte, 8)}))

	require.Equal(t, vmb.StatusSuccess, d.Close(h))
	assert.Equal(t, vmb.StatusBadHandle, d.Close(h))

	d.SetExternallyOpened(manta, true)
	_, st = d.Open(manta, vmb.AccessFull)
	assert.Equal(t, vmb.StatusInvalidAccess, st)
	h, st = d.Open(manta, vmb.AccessRead)
	require.Equal(t, vmb.StatusSuccess, st)
	require.Equal(t, vmb.StatusSuccess, d.Close(h))
}

func TestFeatures(t *testing.T) {
	d := started(t)
	h, st := d.Open(manta, vmb.AccessFull)
	require.Equal(t, vmb.StatusSuccess, st)

	_, st = d.FeatureInt(h, "Bogus")
	assert.Equal(t, vmb.StatusNotFound, st)
	_, st = d.FeatureInt(h, "Gain")
	assert.Equal(t, vmb.StatusWrongType, st)

	require.Equal(t, vmb.StatusSuccess, d.SetFeatureFloat(h, "ExposureTime", 1234.5))
	v, _ := d.FeatureFloat(h, "ExposureTime")
	assert.Equal(t, 1234.5, v)
	assert.Equal(t, vmb.StatusBadParameter, d.SetFeatureFloat(h, "Gain", 99))

	require.Equal(t, vmb.StatusSuccess, d.SetFeatureInt(h, "Width", 640))
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureInt(h, "Height", 480))
	ps, st := d.FeatureInt(h, "PayloadSize")
	require.Equal(t, vmb.StatusSuccess, st)
	assert.Equal(t, int64(640*480), ps)
	assert.Equal(t, vmb.StatusInvalidAccess, d.SetFeatureInt(h, "PayloadSize", 1))

	require.Equal(t, vmb.StatusSuccess, d.SetFeatureString(h, "PixelFormat", "Mono12p"))
	ps, _ = d.FeatureInt(h, "PayloadSize")
	assert.Equal(t, int64(640*12/8*480), ps)
	assert.Equal(t, vmb.StatusInvalidValue, d.SetFeatureString(h, "PixelFormat", "RGB8"))

	require.Equal(t, vmb.StatusSuccess, d.SetFeatureBool(h, "ReverseX", true))
	b, _ := d.FeatureBool(h, "ReverseX")
	assert.True(t, b)

	require.Equal(t, vmb.StatusSuccess, d.SetFeatureRaw(h, "UserData", []byte{1, 2, 3}))
	raw, _ := d.FeatureRaw(h, "UserData")
	assert.Equal(t, []byte{1, 2, 3}, raw)
	assert.Equal(t, vmb.StatusInvalidValue, d.SetFeatureRaw(h, "UserData", make([]byte, 65)))

	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "AcquisitionStart"))
	assert.Equal(t, vmb.StatusInvalidAccess, d.SetFeatureInt(h, "Width", 320), "locked while acquiring")
	done, st := d.CommandDone(h, "AcquisitionStart")
	require.Equal(t, vmb.StatusSuccess, st)
	assert.True(t, done)
	_, st = d.FeatureInt(h, "AcquisitionStart")
	assert.Equal(t, vmb.StatusWrongType, st)
}

type recorder struct {
	mu     sync.Mutex
	frames []vmb.FrameBuffer
	ch     chan struct{}
}

func newRecorder() *recorder { return &recorder{ch: make(chan struct{}, 64)} }

func (r *recorder) cb(_ vmb.Handle, fb *vmb.FrameBuffer) {
	r.mu.Lock()
	r.frames = append(r.frames, *fb)
	r.mu.Unlock()
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i+1)
		}
	}
}

func TestCaptureFIFO(t *testing.T) {
	d := started(t)
	h, st := d.Open(manta, vmb.AccessFull)
	require.Equal(t, vmb.StatusSuccess, st)
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureInt(h, "Width", 16))
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureInt(h, "Height", 8))
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureString(h, "TriggerMode", "On"))

	bufs := []*vmb.FrameBuffer{
		{Buffer: make([]byte, 128)},
		{Buffer: make([]byte, 128)},
		{Buffer: make([]byte, 64)},
	}
	for _, b := range bufs {
		require.Equal(t, vmb.StatusSuccess, d.AnnounceFrame(h, b))
	}
	assert.Equal(t, vmb.StatusInvalidCall, d.AnnounceFrame(h, bufs[0]))

	rec := newRecorder()
	assert.Equal(t, vmb.StatusInvalidCall, d.QueueFrame(h, bufs[0], rec.cb), "queue before capture")
	require.Equal(t, vmb.StatusSuccess, d.CaptureStart(h))
	for _, b := range bufs {
		require.Equal(t, vmb.StatusSuccess, d.QueueFrame(h, b, rec.cb))
	}
	assert.Equal(t, vmb.StatusInvalidCall, d.QueueFrame(h, bufs[0], rec.cb), "double queue")
	assert.Equal(t, vmb.StatusInvalidCall, d.RevokeFrame(h, bufs[1]), "revoke queued")
	assert.Equal(t, vmb.StatusInvalidCall, d.RevokeAllFrames(h), "revoke all while capturing")

	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "AcquisitionStart"))
	d.InjectIncomplete(manta, 1)
	for i := 0; i < 3; i++ {
		require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "TriggerSoftware"))
		rec.wait(t, 1)
	}

	rec.mu.Lock()
	got := rec.frames
	rec.mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, vmb.FrameIncomplete, got[0].Status)
	assert.Equal(t, vmb.FrameComplete, got[1].Status)
	assert.Equal(t, vmb.FrameTooSmall, got[2].Status)
	for i, fb := range got {
		assert.Equal(t, uint64(i+1), fb.FrameID)
		assert.Equal(t, uint32(16), fb.Width)
		assert.Equal(t, uint32(8), fb.Height)
	}
	assert.Equal(t, byte(1+1+2), got[1].Buffer[16+1], "pattern x+y+id")

	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "TriggerSoftware"))
	require.Eventually(t, func() bool { return d.Dropped(manta) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, vmb.StatusSuccess, d.CaptureEnd(h))
	assert.Equal(t, vmb.StatusInvalidCall, d.CaptureEnd(h))
	require.Equal(t, vmb.StatusSuccess, d.RevokeFrame(h, bufs[0]))
	require.Equal(t, vmb.StatusSuccess, d.RevokeAllFrames(h))
	require.Equal(t, vmb.StatusSuccess, d.Close(h))
}

func TestFreeRunning(t *testing.T) {
	d := started(t)
	h, st := d.Open(manta, vmb.AccessFull)
	require.Equal(t, vmb.StatusSuccess, st)
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureFloat(h, "AcquisitionFrameRate", 200))
	fb := &vmb.FrameBuffer{Buffer: make([]byte, 1292*964)}
	require.Equal(t, vmb.StatusSuccess, d.AnnounceFrame(h, fb))
	require.Equal(t, vmb.StatusSuccess, d.CaptureStart(h))

	rec := newRecorder()
	var requeue vmb.FrameCallback
	requeue = func(h vmb.Handle, fb *vmb.FrameBuffer) {
		rec.cb(h, fb)
		d.QueueFrame(h, fb, requeue)
	}
	require.Equal(t, vmb.StatusSuccess, d.QueueFrame(h, fb, requeue))
	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "AcquisitionStart"))
	rec.wait(t, 3)
	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "AcquisitionStop"))
	require.Equal(t, vmb.StatusSuccess, d.CaptureEnd(h))
	require.Equal(t, vmb.StatusSuccess, d.FlushQueue(h))
	require.Equal(t, vmb.StatusSuccess, d.RevokeAllFrames(h))
	require.Equal(t, vmb.StatusSuccess, d.Close(h))
}

func TestCaptureEndWaitsForFill(t *testing.T) {
	d := started(t)
	h, st := d.Open(manta, vmb.AccessFull)
	require.Equal(t, vmb.StatusSuccess, st)
	require.Equal(t, vmb.StatusSuccess, d.SetFeatureFloat(h, "AcquisitionFrameRate", 1000))
	fb := &vmb.FrameBuffer{Buffer: make([]byte, 1292*964)}
	require.Equal(t, vmb.StatusSuccess, d.AnnounceFrame(h, fb))
	require.Equal(t, vmb.StatusSuccess, d.RunCommand(h, "AcquisitionStart"))

	noop := func(vmb.Handle, *vmb.FrameBuffer) {}
	var last uint64
	for i := 0; i < 30; i++ {
		require.Equal(t, vmb.StatusSuccess, d.CaptureStart(h))
		require.Equal(t, vmb.StatusSuccess, d.QueueFrame(h, fb, noop))
		time.Sleep(2 * time.Millisecond)
		require.Equal(t, vmb.StatusSuccess, d.CaptureEnd(h))
		require.Equal(t, vmb.StatusSuccess, d.FlushQueue(h))
		// No write to fb may follow CaptureEnd and FlushQueue.
		id := fb.FrameID
		assert.GreaterOrEqual(t, id, last)
		last = id
		time.Sleep(time.Millisecond)
		assert.Equal(t, id, fb.FrameID, "buffer written after capture ended")
	}
	assert.NotZero(t, last)
	require.Equal(t, vmb.StatusSuccess, d.RevokeAllFrames(h))
	require.Equal(t, vmb.StatusSuccess, d.Close(h))
}

func TestHotPlugOrder(t *testing.T) {
	d := sim.New(sim.Catalog{})
	require.Equal(t, vmb.StatusSuccess, d.Startup())
	defer d.Shutdown()

	type ev struct {
		id      string
		trigger vmb.UpdateTrigger
	}
	events := make(chan ev, 16)
	require.Equal(t, vmb.StatusSuccess, d.RegisterCameraListCallback(func(info vmb.CameraInfo, tr vmb.UpdateTrigger) {
		events <- ev{info.ID, tr}
	}))

	a := sim.CameraSpec{ID: "A", Width: 8, Height: 8}
	b := sim.CameraSpec{ID: "B", Width: 8, Height: 8}
	d.PlugIn(a)
	d.PlugIn(b)
	d.PlugOut("A")
	d.SetExternallyOpened("B", true)

	want := []ev{
		{"A", vmb.TriggerPluggedIn},
		{"B", vmb.TriggerPluggedIn},
		{"A", vmb.TriggerPluggedOut},
		{"B", vmb.TriggerOpenStateChanged},
	}
	for i, w := range want {
		select {
		case got := <-events:
			assert.Equal(t, w, got, "event %d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	cams, _ := d.Cameras()
	require.Len(t, cams, 1)
	assert.Equal(t, "B", cams[0].ID)
	assert.Equal(t, vmb.AccessRead, cams[0].PermittedAccess)
}

func TestPlugOutInvalidatesHandle(t *testing.T) {
	d := started(t)
	h, st := d.Open(manta, vmb.AccessFull)
	require.Equal(t, vmb.StatusSuccess, st)
	d.PlugOut(manta)
	_, st = d.FeatureFloat(h, "Gain")
	assert.Equal(t, vmb.StatusBadHandle, st)
	_, st = d.Open(manta, vmb.AccessFull)
	assert.Equal(t, vmb.StatusNotFound, st)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cams.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interfaces:
  - id: eth1
    type: gige
cameras:
  - id: DEV_TEST
    model: Manta G-033B
    interface: eth1
    interface_type: gige
    width: 656
    height: 492
    pixel_format: mono12packed
    frame_rate: 30
`), 0o644))

	cat, err := sim.LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Cameras, 1)
	assert.Equal(t, "DEV_TEST", cat.Cameras[0].ID)
	assert.Equal(t, 30.0, cat.Cameras[0].FrameRate)

	require.NoError(t, os.WriteFile(path, []byte("cameras:\n  - id: X\n    width: 0\n    height: 1\n"), 0o644))
	_, err = sim.LoadCatalog(path)
	assert.Error(t, err)

	_, err = sim.LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchCatalogStopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cams.yaml")
	one := "cameras:\n  - {id: A, width: 16, height: 16}\n"
	require.NoError(t, os.WriteFile(path, []byte(one), 0o644))
	cat, err := sim.LoadCatalog(path)
	require.NoError(t, err)
	d := sim.New(cat)
	require.Equal(t, vmb.StatusSuccess, d.Startup())
	t.Cleanup(func() { d.Shutdown() })
	count := func() int {
		cams, _ := d.Cameras()
		return len(cams)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.WatchCatalog(ctx, d, path, zerolog.Nop()) }()
	time.Sleep(100 * time.Millisecond)

	two := one + "  - {id: B, width: 16, height: 16}\n"
	require.NoError(t, os.WriteFile(path, []byte(two), 0o644))
	require.Eventually(t, func() bool { return count() == 2 }, 3*time.Second, 10*time.Millisecond)

	// An edit still being debounced when the watch ends must not apply.
	require.NoError(t, os.WriteFile(path, []byte(one), 0o644))
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("WatchCatalog did not return after cancel")
	}
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 2, count())
}
