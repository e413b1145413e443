package camera

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFramesDeliveredInFillOrderAndRequeued(t *testing.T) {
	s, drv, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	log := newFrameLog()
	startTriggered(t, c, 3, log)

	for i := 0; i < 7; i++ {
		trigger(t, c)
		log.wait(t, 1)
	}
	ids, views, errs := log.snapshot()
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("frame %d has id %d", i, id)
		}
		if errs[i] != nil {
			t.Fatalf("frame %d view: %v", i, errs[i])
		}
		if views[i].Rows != 16 || views[i].Cols != 32 {
			t.Fatalf("frame %d view %dx%d", i, views[i].Cols, views[i].Rows)
		}
	}
	if drv.Dropped(mantaID) != 0 {
		t.Fatalf("implicit re-queue failed: %d triggers dropped", drv.Dropped(mantaID))
	}
	eventually(t, func() bool { return c.Stats().Queued == 3 })
	if st := c.Stats(); st.FramesDelivered != 7 || st.Announced != 3 {
		t.Fatalf("unexpected stats %+v", st)
	}
	stopCapture(t, c)
}

func TestObserverRevokesFrame(t *testing.T) {
	s, _, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	done := make(chan error, 1)
	obs := FrameObserverFunc(func(f *Frame) {
		done <- c.RevokeFrame(f)
	})
	frames := startTriggered(t, c, 1, obs)
	trigger(t, c)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("revoke from observer: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no frame delivered")
	}
	if err := c.EndCapture(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if frames[0].State() != BufferRevoked || c.Announced() != 0 {
		t.Fatalf("frame should stay revoked, got %s", frames[0].State())
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestEndCaptureWaitsForObserver(t *testing.T) {
	s, _, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	entered := make(chan struct{})
	release := make(chan struct{})
	var returned atomic.Bool
	obs := FrameObserverFunc(func(f *Frame) {
		close(entered)
		<-release
		returned.Store(true)
	})
	startTriggered(t, c, 1, obs)
	trigger(t, c)
	<-entered

	endDone := make(chan error, 1)
	go func() { endDone <- c.EndCapture() }()
	select {
	case err := <-endDone:
		t.Fatalf("EndCapture returned while observer running: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	if err := <-endDone; err != nil {
		t.Fatalf("end: %v", err)
	}
	if !returned.Load() {
		t.Fatalf("EndCapture returned before observer")
	}
	_ = c.RevokeAllFrames()
	_ = c.Close()
}

func TestEndCaptureTimeout(t *testing.T) {
	s, _, _ := newTestSystem(t)
	s.endTimeout = 30 * time.Millisecond
	c := openCamera(t, s, mantaID, AccessFull)
	entered := make(chan struct{})
	release := make(chan struct{})
	startTriggered(t, c, 1, FrameObserverFunc(func(*Frame) {
		close(entered)
		<-release
	}))
	trigger(t, c)
	<-entered
	mustKind(t, c.EndCapture(), KindTimeout)
	if c.State() != CameraCapturing {
		t.Fatalf("timed out EndCapture changed state to %s", c.State())
	}
	close(release)
	if err := c.EndCapture(); err != nil {
		t.Fatalf("second end: %v", err)
	}
	_ = c.RevokeAllFrames()
	_ = c.Close()
}

func TestObserverPanicDoesNotStopAcquisition(t *testing.T) {
	s, _, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	var n atomic.Int32
	got := make(chan struct{}, 4)
	startTriggered(t, c, 1, FrameObserverFunc(func(*Frame) {
		if n.Add(1) == 1 {
			panic("boom")
		}
		select {
		case got <- struct{}{}:
		default:
		}
	}))
	trigger(t, c)
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-got:
			stopCapture(t, c)
			return
		case <-deadline:
			t.Fatalf("acquisition stopped after observer panic")
		case <-time.After(20 * time.Millisecond):
			trigger(t, c)
		}
	}
}

func TestIncompleteFramesCounted(t *testing.T) {
	s, drv, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	log := newFrameLog()
	startTriggered(t, c, 2, log)
	drv.InjectIncomplete(mantaID, 1)
	trigger(t, c)
	log.wait(t, 1)
	trigger(t, c)
	log.wait(t, 1)
	if st := c.Stats(); st.FramesIncomplete != 1 || st.FramesDelivered != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	stopCapture(t, c)
}

func TestPlugOutWhileCapturing(t *testing.T) {
	s, drv, _ := newTestSystem(t)
	c := openCamera(t, s, mantaID, AccessFull)
	log := newFrameLog()
	frames := startTriggered(t, c, 2, log)
	gone := make(chan struct{})
	cancel, err := s.RegisterCameraListObserver(CameraListObserverFunc(func(cam *Camera, tr UpdateTrigger) {
		if tr == PluggedOut {
			close(gone)
		}
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer cancel()
	drv.PlugOut(mantaID)
	select {
	case <-gone:
	case <-time.After(3 * time.Second):
		t.Fatalf("no plugged-out event")
	}
	if c.State() != CameraClosed || !c.Detached() {
		t.Fatalf("camera not detached: %s", c.State())
	}
	for _, f := range frames {
		if f.State() != BufferRevoked {
			t.Fatalf("frame left %s", f.State())
		}
	}
	mustKind(t, c.Open(AccessFull), KindNotFound)
}

func TestEndCaptureQuiescesFreeRunningDriver(t *testing.T) {
	s, _, _ := newTestSystem(t)
	c := openCamera(t, s, alviumID, AccessFull)
	rate, err := c.Feature("AcquisitionFrameRate")
	if err != nil {
		t.Fatalf("AcquisitionFrameRate: %v", err)
	}
	if err := rate.SetFloat(1000); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	frames, err := c.AllocateFrames(2)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	for _, f := range frames {
		if err := c.AnnounceFrame(f); err != nil {
			t.Fatalf("announce: %v", err)
		}
	}
	if err := c.RunCommand("AcquisitionStart"); err != nil {
		t.Fatalf("AcquisitionStart: %v", err)
	}

	var last uint64
	for i := 0; i < 50; i++ {
		if err := c.StartCapture(); err != nil {
			t.Fatalf("cycle %d: start: %v", i, err)
		}
		for _, f := range frames {
			if err := c.QueueFrame(f); err != nil {
				t.Fatalf("cycle %d: queue: %v", i, err)
			}
		}
		time.Sleep(2 * time.Millisecond)
		if err := c.EndCapture(); err != nil {
			t.Fatalf("cycle %d: end: %v", i, err)
		}
		// The driver must be done with every buffer once EndCapture returns.
		for _, f := range frames {
			if f.State() != BufferAnnounced {
				t.Fatalf("cycle %d: frame left %s", i, f.State())
			}
			if id := f.FrameID(); id > last {
				last = id
			}
			_ = f.Width()
			_ = f.Status()
		}
	}
	if last == 0 {
		t.Fatalf("no frame filled in 50 capture cycles")
	}
	if err := c.RevokeAllFrames(); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
