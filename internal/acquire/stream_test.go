package acquire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mantacam/internal/camera"
	"mantacam/internal/vmb"
	"mantacam/internal/vmb/sim"
)

const camID = "DEV_000F31000001"

func setup(t *testing.T, mode camera.AccessMode, features map[string]any) (*camera.System, *sim.Driver, *camera.Camera) {
	t.Helper()
	drv := sim.New(sim.DefaultCatalog())
	sys := camera.NewSystem(camera.SystemConfig{Driver: drv, EndCaptureTimeout: 2 * time.Second})
	require.NoError(t, sys.Start())
	t.Cleanup(func() { _ = sys.Shutdown() })

	cam, err := sys.CameraByID(camID)
	require.NoError(t, err)
	require.NoError(t, cam.Open(mode))
	for name, v := range features {
		f, err := cam.Feature(name)
		require.NoError(t, err)
		switch v := v.(type) {
		case int64:
			require.NoError(t, f.SetInt(v))
		case float64:
			require.NoError(t, f.SetFloat(v))
		case string:
			require.NoError(t, f.SetString(v))
		}
	}
	return sys, drv, cam
}

func triggered(t *testing.T) (*sim.Driver, *camera.Camera) {
	_, drv, cam := setup(t, camera.AccessFull, map[string]any{
		"Width": int64(32), "Height": int64(16), "TriggerMode": "On",
	})
	return drv, cam
}

func fire(t *testing.T, s *Stream, delivered uint64) {
	t.Helper()
	require.NoError(t, s.Camera().RunCommand("TriggerSoftware"))
	require.Eventually(t, func() bool { return s.Stats().Delivered >= delivered }, 3*time.Second, 5*time.Millisecond)
}

func TestStreamFreeRunning(t *testing.T) {
	_, _, cam := setup(t, camera.AccessFull, map[string]any{
		"Width": int64(32), "Height": int64(16), "AcquisitionFrameRate": 200.0,
	})
	s, err := Start(cam, Config{Buffers: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, camera.CameraCapturing, cam.State())
	assert.Equal(t, 2, cam.Announced())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	first, err := s.Next(ctx)
	require.NoError(t, err)
	second, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)
	assert.Greater(t, second.FrameID, first.FrameID)

	assert.Equal(t, 32, second.Width)
	assert.Equal(t, 16, second.Height)
	assert.Equal(t, 32, second.StrideBytes)
	assert.Equal(t, vmb.PixelMono8, second.PixelFormat)
	assert.Equal(t, vmb.FrameComplete, second.Status)
	require.Len(t, second.Data, 32*16)
	assert.Equal(t, byte(1+2+second.FrameID), second.Data[2*32+1])

	require.NoError(t, s.Stop())
	assert.Equal(t, camera.CameraOpen, cam.State())
	assert.Equal(t, 0, cam.Announced())
	assert.True(t, s.Stopped())

	// idempotent
	require.NoError(t, s.Stop())
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, ErrStopped)
	assert.NoError(t, cam.Close())
}

func TestImagesAreCopies(t *testing.T) {
	_, cam := triggered(t)
	s, err := Start(cam, Config{Buffers: 1})
	require.NoError(t, err)
	defer s.Stop()

	assert.Nil(t, s.Latest())
	fire(t, s, 1)
	a := s.Latest()
	require.NotNil(t, a)
	saved := append([]byte(nil), a.Data...)

	// the single buffer is re-queued and refilled with a different ramp
	fire(t, s, 2)
	b := s.Latest()
	require.NotNil(t, b)
	assert.NotEqual(t, a.FrameID, b.FrameID)
	assert.Equal(t, saved, a.Data)
	assert.NotEqual(t, a.Data[0], b.Data[0])
}

func TestDroppedWhenUnread(t *testing.T) {
	_, cam := triggered(t)
	s, err := Start(cam, Config{})
	require.NoError(t, err)
	defer s.Stop()
	assert.Equal(t, DefaultBuffers, cam.Announced())

	fire(t, s, 1)
	fire(t, s, 2)
	fire(t, s, 3)
	assert.Equal(t, uint64(2), s.Stats().Dropped)

	require.NotNil(t, s.Latest())
	fire(t, s, 4)
	st := s.Stats()
	assert.Equal(t, uint64(2), st.Dropped)
	assert.Equal(t, uint64(4), st.Delivered)
	assert.Equal(t, uint64(4*32*16), st.Bytes)
}

func TestNextHonoursContext(t *testing.T) {
	_, cam := triggered(t)
	s, err := Start(cam, Config{Buffers: 1})
	require.NoError(t, err)
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNextWakesOnStop(t *testing.T) {
	_, cam := triggered(t)
	s, err := Start(cam, Config{Buffers: 1})
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop())
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(3 * time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

func TestNextAfter(t *testing.T) {
	_, cam := triggered(t)
	s, err := Start(cam, Config{Buffers: 2})
	require.NoError(t, err)
	defer s.Stop()

	fire(t, s, 1)
	img, err := s.NextAfter(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), img.Seq)
}

func TestIncompleteFramesCounted(t *testing.T) {
	drv, cam := triggered(t)
	s, err := Start(cam, Config{Buffers: 1})
	require.NoError(t, err)
	defer s.Stop()

	drv.InjectIncomplete(camID, 1)
	fire(t, s, 1)
	st := s.Stats()
	assert.Equal(t, uint64(1), st.Incomplete)
	img := s.Latest()
	require.NotNil(t, img)
	assert.Equal(t, vmb.FrameIncomplete, img.Status)
}

func TestStartRequiresFullAccess(t *testing.T) {
	_, _, cam := setup(t, camera.AccessRead, nil)
	_, err := Start(cam, Config{Buffers: 2})
	require.Error(t, err)
	assert.True(t, camera.IsInvalidAccess(err), "got %v", err)
	assert.Equal(t, 0, cam.Announced())
	assert.Equal(t, camera.CameraOpen, cam.State())
}

func TestStartOnClosedCamera(t *testing.T) {
	_, _, cam := setup(t, camera.AccessFull, nil)
	require.NoError(t, cam.Close())
	_, err := Start(cam, Config{})
	assert.Equal(t, camera.KindDeviceNotOpen, camera.KindOf(err))
}

func TestStopAfterPlugOut(t *testing.T) {
	sys, drv, cam := setup(t, camera.AccessFull, map[string]any{
		"Width": int64(32), "Height": int64(16), "TriggerMode": "On",
	})
	cancel, err := sys.RegisterCameraListObserver(camera.CameraListObserverFunc(func(*camera.Camera, camera.UpdateTrigger) {}))
	require.NoError(t, err)
	defer cancel()

	s, err := Start(cam, Config{Buffers: 2})
	require.NoError(t, err)
	drv.PlugOut(camID)
	require.Eventually(t, cam.Detached, 3*time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Stop())
}

func TestStopRetriesAfterEndCaptureTimeout(t *testing.T) {
	drv := sim.New(sim.DefaultCatalog())
	sys := camera.NewSystem(camera.SystemConfig{Driver: drv, EndCaptureTimeout: 50 * time.Millisecond})
	require.NoError(t, sys.Start())
	t.Cleanup(func() { _ = sys.Shutdown() })
	cam, err := sys.CameraByID(camID)
	require.NoError(t, err)
	require.NoError(t, cam.Open(camera.AccessFull))
	mode, err := cam.Feature("TriggerMode")
	require.NoError(t, err)
	require.NoError(t, mode.SetString("On"))

	s, err := Start(cam, Config{Buffers: 1})
	require.NoError(t, err)
	entered := make(chan struct{})
	release := make(chan struct{})
	s.frames[0].RegisterObserver(camera.FrameObserverFunc(func(f *camera.Frame) {
		close(entered)
		<-release
		s.frameReceived(f)
	}))
	require.NoError(t, cam.RunCommand("TriggerSoftware"))
	select {
	case <-entered:
	case <-time.After(3 * time.Second):
		t.Fatal("no frame delivered")
	}

	err = s.Stop()
	assert.True(t, camera.IsTimeout(err), "got %v", err)
	assert.True(t, s.Stopped())
	assert.Equal(t, camera.CameraCapturing, cam.State())

	close(release)
	require.NoError(t, s.Stop())
	assert.Equal(t, camera.CameraOpen, cam.State())
	assert.Equal(t, 0, cam.Announced())
	assert.NoError(t, s.Stop())
	require.NoError(t, cam.Close())
}
