package camera

import (
	"mantacam/internal/vmb"
)

// frameDone runs on the driver's acquisition goroutine each time a queued
// buffer of c has been filled. It republishes the frame to the frame's
// observer and re-queues the buffer once the observer returns, unless the
// observer re-queued or revoked it, or capture is ending.
func (c *Camera) frameDone(h vmb.Handle, f *Frame) {
	c.mu.Lock()
	f.mu.Lock()
	if c.state != CameraCapturing || c.ending || c.handle != h || f.cam != c || f.state != BufferQueued {
		f.mu.Unlock()
		c.mu.Unlock()
		return
	}
	f.state = BufferFilled
	obs := f.observer
	status := f.fb.Status
	id := f.fb.FrameID
	f.mu.Unlock()
	c.inflight++
	c.stats.FramesDelivered++
	if status != vmb.FrameComplete {
		c.stats.FramesIncomplete++
	}
	c.mu.Unlock()

	framesTotal.WithLabelValues(c.info.ID, status.String()).Inc()
	c.deliver(obs, f, id)

	c.mu.Lock()
	f.mu.Lock()
	requeue := f.state == BufferFilled && f.cam == c && c.state == CameraCapturing && !c.ending
	if requeue {
		f.state = BufferQueued
	}
	f.mu.Unlock()
	c.mu.Unlock()

	if requeue {
		if st := c.sys.drv.QueueFrame(h, &f.fb, f.cb); !st.OK() {
			c.mu.Lock()
			f.mu.Lock()
			if f.state == BufferQueued {
				f.state = BufferAnnounced
			}
			f.mu.Unlock()
			ending := c.ending
			if !ending {
				c.stats.RequeueFailures++
			}
			c.mu.Unlock()
			if !ending {
				requeueFailuresTotal.WithLabelValues(c.info.ID).Inc()
				c.log.Warn().Err(translate("queue_frame", st)).Uint64("frame_id", id).Msg("re-queue after delivery failed")
			}
		}
	}

	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 && c.drained != nil {
		close(c.drained)
		c.drained = nil
	}
	c.mu.Unlock()
}

// deliver calls the observer, containing a panic so the driver's goroutine
// survives a faulty observer.
func (c *Camera) deliver(obs FrameObserver, f *Frame, id uint64) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Uint64("frame_id", id).Msg("frame observer panicked")
		}
	}()
	obs.FrameReceived(f)
}
