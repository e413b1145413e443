package camera

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/vmb"
)

// Camera is the handle to one enumerated device. Its identity is fixed at
// enumeration; a replugged device is represented by a new Camera.
type Camera struct {
	sys  *System
	info vmb.CameraInfo
	log  zerolog.Logger

	mu        sync.Mutex
	state     CameraState
	handle    vmb.Handle
	mode      AccessMode
	permitted AccessMode
	detached  bool

	pool     []*Frame
	inflight int
	ending   bool
	drained  chan struct{}
	stats    CameraStats
}

func newCamera(s *System, info vmb.CameraInfo) *Camera {
	return &Camera{
		sys:       s,
		info:      info,
		log:       s.log.With().Str("camera", info.ID).Logger(),
		state:     CameraClosed,
		permitted: info.PermittedAccess,
	}
}

func (c *Camera) ID() string                   { return c.info.ID }
func (c *Camera) Name() string                 { return c.info.Name }
func (c *Camera) Model() string                { return c.info.Model }
func (c *Camera) Serial() string               { return c.info.Serial }
func (c *Camera) InterfaceID() string          { return c.info.InterfaceID }
func (c *Camera) InterfaceType() InterfaceType { return c.info.InterfaceType }

// PermittedAccess is the most recent set of access modes the driver reported.
func (c *Camera) PermittedAccess() AccessMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permitted
}

func (c *Camera) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AccessMode is the mode the camera is open in, or AccessNone.
func (c *Camera) AccessMode() AccessMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Detached reports whether the device was plugged out after enumeration.
func (c *Camera) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

func (c *Camera) Stats() CameraStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Announced = len(c.pool)
	for _, f := range c.pool {
		if f.State() == BufferQueued {
			st.Queued++
		}
	}
	return st
}

// Open opens the device in mode. Reopening after Close is allowed.
func (c *Camera) Open(mode AccessMode) error {
	const op = "open"
	switch mode {
	case AccessFull, AccessRead, AccessConfig, AccessLite:
	default:
		return newError(op, KindBadParameter, "access mode %s", mode)
	}
	if err := c.sys.requireStarted(op); err != nil {
		return err
	}
	c.mu.Lock()
	if c.state != CameraClosed {
		st := c.state
		c.mu.Unlock()
		return newError(op, KindInvalidCall, "camera is %s", st)
	}
	if c.detached {
		c.mu.Unlock()
		return newError(op, KindNotFound, "camera was plugged out")
	}
	c.state = CameraOpening
	c.mu.Unlock()

	h, st := c.sys.drv.Open(c.info.ID, mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := translate(op, st); err != nil {
		c.state = CameraClosed
		return err
	}
	c.handle = h
	c.mode = mode
	c.state = CameraOpen
	c.stats = CameraStats{}
	c.log.Info().Str("access", mode.String()).Msg("camera opened")
	c.sys.pub.Publish(Event{Name: EventCameraOpen, CameraID: c.info.ID, Fields: map[string]any{"access": mode.String()}})
	return nil
}

// Close releases the device. Every announced frame must have been revoked
// and capture must have ended.
func (c *Camera) Close() error {
	const op = "close"
	c.mu.Lock()
	switch {
	case c.state == CameraClosed:
		c.mu.Unlock()
		return newError(op, KindDeviceNotOpen, "")
	case c.state != CameraOpen:
		st := c.state
		c.mu.Unlock()
		return newError(op, KindInvalidCall, "camera is %s", st)
	case len(c.pool) > 0:
		n := len(c.pool)
		c.mu.Unlock()
		return newError(op, KindInvalidCall, "%d frames still announced", n)
	}
	c.state = CameraClosing
	h := c.handle
	c.mu.Unlock()

	st := c.sys.drv.Close(h)

	c.mu.Lock()
	defer c.mu.Unlock()
	err := translate(op, st)
	if err != nil && st != vmb.StatusBadHandle {
		c.state = CameraOpen
		return err
	}
	// A bad handle means the driver already dropped the device.
	c.state = CameraClosed
	c.handle = 0
	c.mode = AccessNone
	c.log.Info().Msg("camera closed")
	c.sys.pub.Publish(Event{Name: EventCameraClose, CameraID: c.info.ID})
	return err
}

// openHandle returns the driver handle while the camera is Open or Capturing.
func (c *Camera) openHandle(op string) (vmb.Handle, AccessMode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CameraOpen && c.state != CameraCapturing {
		return 0, AccessNone, newError(op, KindDeviceNotOpen, "camera is %s", c.state)
	}
	return c.handle, c.mode, nil
}

// StartCapture starts the capture engine and hands pre-armed frames to the
// driver in the order they were announced.
func (c *Camera) StartCapture() error {
	const op = "start_capture"
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case CameraOpen:
	case CameraClosed:
		return newError(op, KindDeviceNotOpen, "")
	default:
		return newError(op, KindInvalidCall, "camera is %s", c.state)
	}
	if c.mode != AccessFull {
		return newError(op, KindInvalidAccess, "capture needs full access, camera is open %s", c.mode)
	}
	if len(c.pool) == 0 {
		return newError(op, KindInvalidCall, "no frames announced")
	}
	if err := translate(op, c.sys.drv.CaptureStart(c.handle)); err != nil {
		return err
	}
	c.state = CameraCapturing
	c.ending = false
	var first error
	for _, f := range c.pool {
		f.mu.Lock()
		armed := f.state == BufferQueued
		f.mu.Unlock()
		if !armed {
			continue
		}
		if err := translate(op, c.sys.drv.QueueFrame(c.handle, &f.fb, f.cb)); err != nil {
			f.mu.Lock()
			f.state = BufferAnnounced
			f.mu.Unlock()
			if first == nil {
				first = err
			}
		}
	}
	c.log.Info().Int("frames", len(c.pool)).Msg("capture started")
	c.sys.pub.Publish(Event{Name: EventCaptureStart, CameraID: c.info.ID})
	return first
}

// EndCapture stops the capture engine, waits for running frame callbacks to
// return and moves every queued or filled frame back to Announced. It must
// not be called from a FrameObserver. If callbacks do not finish within the
// configured timeout it fails with KindTimeout and the camera stays
// Capturing; calling EndCapture again resumes the wait.
func (c *Camera) EndCapture() error {
	const op = "end_capture"
	c.mu.Lock()
	switch c.state {
	case CameraCapturing:
	case CameraClosed:
		c.mu.Unlock()
		return newError(op, KindDeviceNotOpen, "")
	default:
		st := c.state
		c.mu.Unlock()
		return newError(op, KindInvalidCall, "camera is %s", st)
	}
	already := c.ending
	c.ending = true
	var wait chan struct{}
	if c.inflight > 0 {
		if c.drained == nil {
			c.drained = make(chan struct{})
		}
		wait = c.drained
	}
	h := c.handle
	c.mu.Unlock()

	var first error
	if !already {
		first = translate(op, c.sys.drv.CaptureEnd(h))
		if err := translate(op, c.sys.drv.FlushQueue(h)); err != nil && first == nil {
			first = err
		}
	}
	if wait != nil {
		t := time.NewTimer(c.sys.endTimeout)
		defer t.Stop()
		select {
		case <-wait:
		case <-t.C:
			return newError(op, KindTimeout, "frame callbacks still running after %s", c.sys.endTimeout)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CameraCapturing {
		// Detached while waiting; nothing left to drain.
		return first
	}
	for _, f := range c.pool {
		f.mu.Lock()
		if f.state == BufferQueued || f.state == BufferFilled {
			f.state = BufferAnnounced
		}
		f.mu.Unlock()
	}
	c.state = CameraOpen
	c.ending = false
	c.log.Info().Uint64("frames", c.stats.FramesDelivered).Msg("capture ended")
	c.sys.pub.Publish(Event{Name: EventCaptureEnd, CameraID: c.info.ID, Fields: map[string]any{"frames": c.stats.FramesDelivered}})
	return first
}

// Feature looks up a feature by name on the open device.
func (c *Camera) Feature(name string) (*Feature, error) {
	const op = "feature"
	h, _, err := c.openHandle(op)
	if err != nil {
		return nil, err
	}
	info, st := c.sys.drv.FeatureInfo(h, name)
	if err := translate(op, st); err != nil {
		if e, ok := err.(*Error); ok {
			e.Msg = name
		}
		return nil, err
	}
	return &Feature{cam: c, info: info}, nil
}

// RunCommand runs the command feature name and returns once it is issued.
func (c *Camera) RunCommand(name string) error {
	f, err := c.Feature(name)
	if err != nil {
		return err
	}
	return f.RunCommand()
}

// PayloadSize is the number of bytes a frame buffer needs for the current
// image format.
func (c *Camera) PayloadSize() (int, error) {
	f, err := c.Feature("PayloadSize")
	if err != nil {
		return 0, err
	}
	n, err := f.Int()
	return int(n), err
}

// AllocateFrames returns n frames sized from PayloadSize. They are not
// announced.
func (c *Camera) AllocateFrames(n int) ([]*Frame, error) {
	if n <= 0 {
		return nil, newError("allocate_frames", KindBadParameter, "frame count %d", n)
	}
	size, err := c.PayloadSize()
	if err != nil {
		return nil, err
	}
	out := make([]*Frame, n)
	for i := range out {
		out[i] = NewFrame(size)
	}
	return out, nil
}

// detach is called when the driver reports the device gone. Any open handle
// is already invalid, so local state is dropped without driver calls.
func (c *Camera) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	if c.state == CameraClosed {
		return
	}
	for _, f := range c.pool {
		f.mu.Lock()
		f.state = BufferRevoked
		f.cam = nil
		f.mu.Unlock()
	}
	c.pool = nil
	announcedBuffers.WithLabelValues(c.info.ID).Set(0)
	c.state = CameraClosed
	c.handle = 0
	c.mode = AccessNone
	c.ending = false
	if c.drained != nil && c.inflight == 0 {
		close(c.drained)
		c.drained = nil
	}
	c.log.Warn().Msg("camera plugged out while open")
}

// teardown ends capture, revokes every frame and closes the camera. Used by
// System.Shutdown; errors are logged, not returned.
func (c *Camera) teardown() {
	if c.State() == CameraCapturing {
		_ = c.RunCommand("AcquisitionStop")
		if err := c.EndCapture(); err != nil {
			c.log.Warn().Err(err).Msg("end capture during shutdown")
		}
	}
	if c.State() != CameraOpen {
		return
	}
	if err := c.RevokeAllFrames(); err != nil {
		c.log.Warn().Err(err).Msg("revoke frames during shutdown")
	}
	if err := c.Close(); err != nil {
		c.log.Warn().Err(err).Msg("close during shutdown")
	}
}
