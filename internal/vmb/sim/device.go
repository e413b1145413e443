package sim

import (
	"mantacam/internal/vmb"
)

type queued struct {
	fb *vmb.FrameBuffer
	cb vmb.FrameCallback
}

type device struct {
	spec     CameraSpec
	present  bool
	external bool

	handle   vmb.Handle
	mode     vmb.AccessMode
	features map[string]*feature

	announced  map[*vmb.FrameBuffer]bool
	queue      []queued
	capturing  bool
	acquiring  bool
	eng        *engine
	// filling is closed once the buffer taken off queue has been written.
	filling    chan struct{}
	flushes    uint64
	frameID    uint64
	dropped    uint64
	incomplete int
}

func newDevice(spec CameraSpec) *device {
	return &device{
		spec:      spec,
		present:   true,
		features:  newFeatures(spec),
		announced: make(map[*vmb.FrameBuffer]bool),
	}
}

func (dev *device) info() vmb.CameraInfo { return dev.spec.info(dev.external) }

// teardown releases everything tied to the open handle and returns the
// stopped engine, if any, so the caller can wait for it without d.mu held.
func (dev *device) teardown() *engine {
	e := dev.stopEngine()
	dev.handle = 0
	dev.mode = vmb.AccessNone
	dev.queue = nil
	dev.announced = make(map[*vmb.FrameBuffer]bool)
	dev.acquiring = false
	return e
}

func (dev *device) stopEngine() *engine {
	dev.capturing = false
	e := dev.eng
	if e != nil {
		close(e.stop)
		dev.eng = nil
	}
	return e
}

func (dev *device) pixelFormat() vmb.PixelFormat {
	pf, err := vmb.ParsePixelFormat(dev.features["PixelFormat"].s)
	if err != nil {
		return vmb.PixelMono8
	}
	return pf
}

func (dev *device) geometry() (int, int, vmb.PixelFormat) {
	return int(dev.features["Width"].i), int(dev.features["Height"].i), dev.pixelFormat()
}

func (dev *device) payloadSize() int64 {
	w, h, pf := dev.geometry()
	return int64(pf.ImageSize(w, h))
}

func (dev *device) canWrite() bool {
	return dev.mode == vmb.AccessFull || dev.mode == vmb.AccessConfig
}

// lookup resolves a feature for an accessor of type t. d.mu must be held.
func (d *Driver) lookup(h vmb.Handle, name string, t vmb.FeatureType, write bool) (*device, *feature, vmb.Status) {
	if !d.started {
		return nil, nil, vmb.StatusApiNotStarted
	}
	dev, ok := d.handles[h]
	if !ok {
		return nil, nil, vmb.StatusBadHandle
	}
	f, ok := dev.features[name]
	if !ok {
		return nil, nil, vmb.StatusNotFound
	}
	if t != f.info.Type && !(t == vmb.FeatureString && f.info.Type == vmb.FeatureEnum) {
		return nil, nil, vmb.StatusWrongType
	}
	if write {
		if !dev.canWrite() || !f.info.Writable() {
			return nil, nil, vmb.StatusInvalidAccess
		}
		if f.lockedWhileAcquiring && dev.acquiring {
			return nil, nil, vmb.StatusInvalidAccess
		}
	} else if !f.info.Readable() {
		return nil, nil, vmb.StatusInvalidAccess
	}
	return dev, f, vmb.StatusSuccess
}

func (d *Driver) FeatureInfo(h vmb.Handle, name string) (vmb.FeatureInfo, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return vmb.FeatureInfo{}, vmb.StatusApiNotStarted
	}
	dev, ok := d.handles[h]
	if !ok {
		return vmb.FeatureInfo{}, vmb.StatusBadHandle
	}
	f, ok := dev.features[name]
	if !ok {
		return vmb.FeatureInfo{}, vmb.StatusNotFound
	}
	return f.info, vmb.StatusSuccess
}

func (d *Driver) FeatureInt(h vmb.Handle, name string) (int64, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, f, st := d.lookup(h, name, vmb.FeatureInt, false)
	if !st.OK() {
		return 0, st
	}
	if f.get != nil {
		return f.get(dev), vmb.StatusSuccess
	}
	return f.i, vmb.StatusSuccess
}

func (d *Driver) SetFeatureInt(h vmb.Handle, name string, v int64) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureInt, true)
	if !st.OK() {
		return st
	}
	if !f.inRange(float64(v)) {
		return vmb.StatusBadParameter
	}
	f.i = v
	return vmb.StatusSuccess
}

func (d *Driver) FeatureFloat(h vmb.Handle, name string) (float64, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureFloat, false)
	if !st.OK() {
		return 0, st
	}
	return f.f, vmb.StatusSuccess
}

func (d *Driver) SetFeatureFloat(h vmb.Handle, name string, v float64) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, f, st := d.lookup(h, name, vmb.FeatureFloat, true)
	if !st.OK() {
		return st
	}
	if !f.inRange(v) {
		return vmb.StatusBadParameter
	}
	f.f = v
	if name == "AcquisitionFrameRate" {
		dev.reconfigure()
	}
	return vmb.StatusSuccess
}

func (d *Driver) FeatureBool(h vmb.Handle, name string) (bool, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureBool, false)
	if !st.OK() {
		return false, st
	}
	return f.b, vmb.StatusSuccess
}

func (d *Driver) SetFeatureBool(h vmb.Handle, name string, v bool) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureBool, true)
	if !st.OK() {
		return st
	}
	f.b = v
	return vmb.StatusSuccess
}

func (d *Driver) FeatureString(h vmb.Handle, name string) (string, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureString, false)
	if !st.OK() {
		return "", st
	}
	return f.s, vmb.StatusSuccess
}

func (d *Driver) SetFeatureString(h vmb.Handle, name string, v string) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, f, st := d.lookup(h, name, vmb.FeatureString, true)
	if !st.OK() {
		return st
	}
	if f.info.Type == vmb.FeatureEnum && !f.hasEntry(v) {
		return vmb.StatusInvalidValue
	}
	f.s = v
	if name == "TriggerMode" {
		dev.reconfigure()
	}
	return vmb.StatusSuccess
}

func (d *Driver) FeatureRaw(h vmb.Handle, name string) ([]byte, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureRaw, false)
	if !st.OK() {
		return nil, st
	}
	return append([]byte(nil), f.raw...), vmb.StatusSuccess
}

func (d *Driver) SetFeatureRaw(h vmb.Handle, name string, v []byte) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, st := d.lookup(h, name, vmb.FeatureRaw, true)
	if !st.OK() {
		return st
	}
	if len(v) > maxUserData {
		return vmb.StatusInvalidValue
	}
	f.raw = append([]byte(nil), v...)
	return vmb.StatusSuccess
}

func (d *Driver) RunCommand(h vmb.Handle, name string) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, _, st := d.lookup(h, name, vmb.FeatureCommand, true)
	if !st.OK() {
		return st
	}
	switch name {
	case "AcquisitionStart":
		dev.acquiring = true
		dev.reconfigure()
	case "AcquisitionStop":
		dev.acquiring = false
		dev.reconfigure()
	case "TriggerSoftware":
		if dev.acquiring && dev.eng != nil {
			select {
			case dev.eng.trig <- struct{}{}:
			default:
			}
		}
	}
	return vmb.StatusSuccess
}

func (d *Driver) CommandDone(h vmb.Handle, name string) (bool, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, _, st := d.lookup(h, name, vmb.FeatureCommand, true); !st.OK() {
		return false, st
	}
	return true, vmb.StatusSuccess
}
