package camera

// Buffer discipline. A frame moves Free→Announced→Queued→Filled→Queued… and
// ends Revoked. The driver may write a Queued buffer at any time, so a Queued
// frame is never readable and never revocable. Camera.mu is taken before
// Frame.mu.

import "mantacam/internal/vmb"

// AnnounceFrame registers f's buffer with the driver.
func (c *Camera) AnnounceFrame(f *Frame) error {
	const op = "announce_frame"
	if f == nil {
		return newError(op, KindBadParameter, "nil frame")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CameraOpen && c.state != CameraCapturing {
		return newError(op, KindDeviceNotOpen, "camera is %s", c.state)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cam != nil || (f.state != BufferFree && f.state != BufferRevoked) {
		return newError(op, KindInvalidCall, "frame is %s", f.state)
	}
	if err := translate(op, c.sys.drv.AnnounceFrame(c.handle, &f.fb)); err != nil {
		return err
	}
	f.cam = c
	f.state = BufferAnnounced
	f.cb = func(h vmb.Handle, _ *vmb.FrameBuffer) { c.frameDone(h, f) }
	c.pool = append(c.pool, f)
	announcedBuffers.WithLabelValues(c.info.ID).Set(float64(len(c.pool)))
	return nil
}

// QueueFrame hands f to the driver for filling. While the camera is Open the
// frame is pre-armed and given to the driver by StartCapture. A FrameObserver
// may re-queue the frame it was handed.
func (c *Camera) QueueFrame(f *Frame) error {
	const op = "queue_frame"
	if f == nil {
		return newError(op, KindBadParameter, "nil frame")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cam != c {
		return newError(op, KindInvalidCall, "frame is not announced to this camera")
	}
	switch c.state {
	case CameraOpen:
		if f.state != BufferAnnounced {
			return newError(op, KindInvalidCall, "frame is %s", f.state)
		}
		f.state = BufferQueued
		return nil
	case CameraCapturing:
		if c.ending {
			return newError(op, KindInvalidCall, "capture is ending")
		}
		if f.state != BufferAnnounced && f.state != BufferFilled {
			return newError(op, KindInvalidCall, "frame is %s", f.state)
		}
		if err := translate(op, c.sys.drv.QueueFrame(c.handle, &f.fb, f.cb)); err != nil {
			return err
		}
		f.state = BufferQueued
		return nil
	case CameraClosed:
		return newError(op, KindDeviceNotOpen, "")
	}
	return newError(op, KindInvalidCall, "camera is %s", c.state)
}

// RevokeFrame withdraws f from the driver. Queued frames are rejected.
func (c *Camera) RevokeFrame(f *Frame) error {
	const op = "revoke_frame"
	if f == nil {
		return newError(op, KindBadParameter, "nil frame")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cam != c {
		return newError(op, KindInvalidCall, "frame is not announced to this camera")
	}
	if f.state == BufferQueued {
		return newError(op, KindInvalidCall, "frame is queued")
	}
	if err := translate(op, c.sys.drv.RevokeFrame(c.handle, &f.fb)); err != nil {
		return err
	}
	f.state = BufferRevoked
	f.cam = nil
	for i, p := range c.pool {
		if p == f {
			c.pool = append(c.pool[:i], c.pool[i+1:]...)
			break
		}
	}
	announcedBuffers.WithLabelValues(c.info.ID).Set(float64(len(c.pool)))
	return nil
}

// RevokeAllFrames withdraws every announced frame. It is rejected while
// capturing.
func (c *Camera) RevokeAllFrames() error {
	const op = "revoke_all_frames"
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case CameraOpen:
	case CameraClosed:
		return newError(op, KindDeviceNotOpen, "")
	default:
		return newError(op, KindInvalidCall, "camera is %s", c.state)
	}
	if err := translate(op, c.sys.drv.RevokeAllFrames(c.handle)); err != nil {
		return err
	}
	for _, f := range c.pool {
		f.mu.Lock()
		f.state = BufferRevoked
		f.cam = nil
		f.mu.Unlock()
	}
	c.pool = nil
	announcedBuffers.WithLabelValues(c.info.ID).Set(0)
	return nil
}

// Announced returns the number of frames currently announced.
func (c *Camera) Announced() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}
