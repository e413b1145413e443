package sim

import (
	"time"

	"mantacam/internal/vmb"
)

// engine is the acquisition goroutine of one capturing camera.
type engine struct {
	trig   chan struct{}
	reconf chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func (d *Driver) AnnounceFrame(h vmb.Handle, fb *vmb.FrameBuffer) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if fb == nil || len(fb.Buffer) == 0 {
		return vmb.StatusBadParameter
	}
	if dev.announced[fb] {
		return vmb.StatusInvalidCall
	}
	dev.announced[fb] = true
	return vmb.StatusSuccess
}

func (d *Driver) RevokeFrame(h vmb.Handle, fb *vmb.FrameBuffer) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if !dev.announced[fb] {
		return vmb.StatusBadParameter
	}
	for _, q := range dev.queue {
		if q.fb == fb {
			return vmb.StatusInvalidCall
		}
	}
	delete(dev.announced, fb)
	return vmb.StatusSuccess
}

func (d *Driver) RevokeAllFrames(h vmb.Handle) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if dev.capturing {
		return vmb.StatusInvalidCall
	}
	dev.queue = nil
	dev.announced = make(map[*vmb.FrameBuffer]bool)
	return vmb.StatusSuccess
}

func (d *Driver) CaptureStart(h vmb.Handle) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if dev.capturing {
		return vmb.StatusInvalidCall
	}
	e := &engine{
		trig:   make(chan struct{}, 64),
		reconf: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	dev.capturing = true
	dev.eng = e
	go d.run(dev, e)
	return vmb.StatusSuccess
}

// CaptureEnd stops the engine. It waits for a buffer being written, but not
// for a callback already in progress: the caller may be that callback.
func (d *Driver) CaptureEnd(h vmb.Handle) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if !dev.capturing {
		return vmb.StatusInvalidCall
	}
	dev.stopEngine()
	d.waitFill(dev)
	return vmb.StatusSuccess
}

func (d *Driver) QueueFrame(h vmb.Handle, fb *vmb.FrameBuffer, cb vmb.FrameCallback) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	if fb == nil || cb == nil {
		return vmb.StatusBadParameter
	}
	if !dev.announced[fb] || !dev.capturing {
		return vmb.StatusInvalidCall
	}
	for _, q := range dev.queue {
		if q.fb == fb {
			return vmb.StatusInvalidCall
		}
	}
	dev.queue = append(dev.queue, queued{fb: fb, cb: cb})
	return vmb.StatusSuccess
}

func (d *Driver) FlushQueue(h vmb.Handle) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, st := d.captureDevice(h)
	if !st.OK() {
		return st
	}
	dev.queue = nil
	dev.flushes++
	d.waitFill(dev)
	return vmb.StatusSuccess
}

// waitFill blocks until no buffer of dev is being written. A buffer taken
// before a flush or CaptureEnd is never handed to its callback afterwards.
// d.mu must be held; it is released while waiting.
func (d *Driver) waitFill(dev *device) {
	for dev.filling != nil {
		ch := dev.filling
		d.mu.Unlock()
		<-ch
		d.mu.Lock()
	}
}

// captureDevice resolves h for a streaming call; streaming needs full access.
// d.mu must be held.
func (d *Driver) captureDevice(h vmb.Handle) (*device, vmb.Status) {
	if !d.started {
		return nil, vmb.StatusApiNotStarted
	}
	dev, ok := d.handles[h]
	if !ok {
		return nil, vmb.StatusBadHandle
	}
	if dev.mode != vmb.AccessFull {
		return nil, vmb.StatusInvalidAccess
	}
	return dev, vmb.StatusSuccess
}

// reconfigure asks the engine to re-read trigger mode and frame rate.
// d.mu must be held.
func (dev *device) reconfigure() {
	if dev.eng == nil {
		return
	}
	select {
	case dev.eng.reconf <- struct{}{}:
	default:
	}
}

func (d *Driver) run(dev *device, e *engine) {
	defer close(e.done)
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	reset := func() {
		d.mu.Lock()
		rate := 0.0
		if dev.acquiring && dev.features["TriggerMode"].s == "Off" {
			rate = dev.features["AcquisitionFrameRate"].f
		}
		d.mu.Unlock()
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if rate > 0 {
			ticker = time.NewTicker(time.Duration(float64(time.Second) / rate))
			tick = ticker.C
		}
	}
	reset()
	for {
		select {
		case <-e.stop:
			return
		case <-e.reconf:
			reset()
		case <-e.trig:
			d.deliver(dev, e)
		case <-tick:
			d.deliver(dev, e)
		}
	}
}

// deliver fills the oldest queued buffer and invokes its callback on the
// engine goroutine. A trigger with nothing queued is counted as a drop.
func (d *Driver) deliver(dev *device, e *engine) {
	d.mu.Lock()
	if dev.eng != e || !dev.capturing {
		d.mu.Unlock()
		return
	}
	if len(dev.queue) == 0 {
		dev.dropped++
		d.mu.Unlock()
		return
	}
	q := dev.queue[0]
	dev.queue = dev.queue[1:]
	w, h, pf := dev.geometry()
	dev.frameID++
	id := dev.frameID
	handle := dev.handle
	incomplete := dev.incomplete > 0
	if incomplete {
		dev.incomplete--
	}
	flushes := dev.flushes
	filled := make(chan struct{})
	dev.filling = filled
	d.mu.Unlock()

	fill(q.fb, w, h, pf, id)
	if incomplete && q.fb.Status == vmb.FrameComplete {
		q.fb.Status = vmb.FrameIncomplete
	}

	d.mu.Lock()
	dev.filling = nil
	close(filled)
	live := dev.eng == e && dev.capturing && dev.flushes == flushes && dev.announced[q.fb]
	d.mu.Unlock()
	if live {
		q.cb(handle, q.fb)
	}
}

// fill writes a deterministic ramp: byte i of row y in frame n is i+y+n.
func fill(fb *vmb.FrameBuffer, w, h int, pf vmb.PixelFormat, id uint64) {
	fb.PixelFormat = pf
	fb.Width = uint32(w)
	fb.Height = uint32(h)
	fb.OffsetX, fb.OffsetY = 0, 0
	fb.FrameID = id
	fb.Timestamp = uint64(time.Now().UnixNano())
	size := pf.ImageSize(w, h)
	if len(fb.Buffer) < size {
		fb.Status = vmb.FrameTooSmall
		fb.ImageSize = 0
		return
	}
	row := pf.RowBytes(w)
	for y := 0; y < h; y++ {
		line := fb.Buffer[y*row : (y+1)*row]
		for i := range line {
			line[i] = byte(i + y + int(id))
		}
	}
	fb.ImageSize = uint32(size)
	fb.Status = vmb.FrameComplete
}

// InjectIncomplete marks the next n frames of camera id as incomplete.
func (d *Driver) InjectIncomplete(id string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dev, ok := d.devices[id]; ok {
		dev.incomplete += n
	}
}

// Dropped reports how many triggers of camera id found no queued buffer.
func (d *Driver) Dropped(id string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dev, ok := d.devices[id]; ok {
		return dev.dropped
	}
	return 0
}

// Queued reports how many buffers camera id currently has queued.
func (d *Driver) Queued(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dev, ok := d.devices[id]; ok {
		return len(dev.queue)
	}
	return 0
}
