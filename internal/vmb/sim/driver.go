// Package sim is an in-memory implementation of vmb.Driver. It behaves like
// the vendor SDK where the camera package depends on it: handles, access
// modes, typed features with range checks, the announce/queue/revoke buffer
// protocol, a per-camera acquisition goroutine that fills queued buffers in
// FIFO order, and a discovery goroutine that delivers hot-plug notifications
// in the order they were raised.
package sim

import (
	"sync"

	"mantacam/internal/vmb"
)

type listEvent struct {
	info    vmb.CameraInfo
	trigger vmb.UpdateTrigger
}

// Driver is a simulated vendor SDK.
type Driver struct {
	mu         sync.Mutex
	started    bool
	interfaces []InterfaceSpec
	devices    map[string]*device
	order      []string
	handles    map[vmb.Handle]*device
	nextHandle vmb.Handle

	listCb  vmb.CameraListCallback
	pending []listEvent
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

var _ vmb.Driver = (*Driver)(nil)

// New builds a driver exposing the cameras and interfaces of cat.
func New(cat Catalog) *Driver {
	d := &Driver{
		interfaces: append([]InterfaceSpec(nil), cat.Interfaces...),
		devices:    make(map[string]*device),
		handles:    make(map[vmb.Handle]*device),
	}
	for _, c := range cat.Cameras {
		d.addDevice(c)
	}
	return d
}

func (d *Driver) addDevice(spec CameraSpec) *device {
	dev := newDevice(spec)
	if _, ok := d.devices[spec.ID]; !ok {
		d.order = append(d.order, spec.ID)
	}
	d.devices[spec.ID] = dev
	return dev
}

func (d *Driver) Startup() vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return vmb.StatusSuccess
	}
	d.started = true
	d.wake = make(chan struct{}, 1)
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.discoveryLoop(d.wake, d.stop, d.done)
	return vmb.StatusSuccess
}

func (d *Driver) Shutdown() vmb.Status {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return vmb.StatusApiNotStarted
	}
	d.started = false
	var engines []*engine
	for _, dev := range d.devices {
		if e := dev.teardown(); e != nil {
			engines = append(engines, e)
		}
	}
	d.handles = make(map[vmb.Handle]*device)
	d.listCb = nil
	d.pending = nil
	close(d.stop)
	done := d.done
	d.mu.Unlock()

	<-done
	for _, e := range engines {
		<-e.done
	}
	return vmb.StatusSuccess
}

func (d *Driver) Interfaces() ([]vmb.InterfaceInfo, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil, vmb.StatusApiNotStarted
	}
	out := make([]vmb.InterfaceInfo, 0, len(d.interfaces))
	for _, i := range d.interfaces {
		out = append(out, vmb.InterfaceInfo{
			ID:              i.ID,
			Name:            i.Name,
			Serial:          i.Serial,
			Type:            vmb.ParseInterfaceType(i.Type),
			PermittedAccess: vmb.AccessFull | vmb.AccessRead,
		})
	}
	return out, vmb.StatusSuccess
}

func (d *Driver) Cameras() ([]vmb.CameraInfo, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil, vmb.StatusApiNotStarted
	}
	out := make([]vmb.CameraInfo, 0, len(d.order))
	for _, id := range d.order {
		if dev := d.devices[id]; dev.present {
			out = append(out, dev.info())
		}
	}
	return out, vmb.StatusSuccess
}

func (d *Driver) CameraInfo(id string) (vmb.CameraInfo, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return vmb.CameraInfo{}, vmb.StatusApiNotStarted
	}
	dev, ok := d.devices[id]
	if !ok || !dev.present {
		return vmb.CameraInfo{}, vmb.StatusNotFound
	}
	return dev.info(), vmb.StatusSuccess
}

func (d *Driver) RegisterCameraListCallback(cb vmb.CameraListCallback) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return vmb.StatusApiNotStarted
	}
	if cb == nil {
		return vmb.StatusBadParameter
	}
	d.listCb = cb
	return vmb.StatusSuccess
}

func (d *Driver) UnregisterCameraListCallback() vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return vmb.StatusApiNotStarted
	}
	d.listCb = nil
	return vmb.StatusSuccess
}

func (d *Driver) Open(id string, mode vmb.AccessMode) (vmb.Handle, vmb.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return 0, vmb.StatusApiNotStarted
	}
	dev, ok := d.devices[id]
	if !ok || !dev.present {
		return 0, vmb.StatusNotFound
	}
	switch mode {
	case vmb.AccessFull, vmb.AccessRead, vmb.AccessConfig, vmb.AccessLite:
	default:
		return 0, vmb.StatusBadParameter
	}
	if dev.handle != 0 {
		return 0, vmb.StatusInvalidAccess
	}
	if dev.external && mode != vmb.AccessRead && mode != vmb.AccessLite {
		return 0, vmb.StatusInvalidAccess
	}
	d.nextHandle++
	dev.handle = d.nextHandle
	dev.mode = mode
	d.handles[dev.handle] = dev
	return dev.handle, vmb.StatusSuccess
}

func (d *Driver) Close(h vmb.Handle) vmb.Status {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return vmb.StatusApiNotStarted
	}
	dev, ok := d.handles[h]
	if !ok {
		d.mu.Unlock()
		return vmb.StatusBadHandle
	}
	delete(d.handles, h)
	dev.teardown()
	d.waitFill(dev)
	d.mu.Unlock()
	return vmb.StatusSuccess
}

// PlugIn adds or re-attaches a camera and raises a PluggedIn notification.
func (d *Driver) PlugIn(spec CameraSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devices[spec.ID]
	if ok && dev.present {
		return
	}
	dev = d.addDevice(spec)
	d.notify(dev.info(), vmb.TriggerPluggedIn)
}

// PlugOut detaches a camera. An open handle to it becomes invalid.
func (d *Driver) PlugOut(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devices[id]
	if !ok || !dev.present {
		return
	}
	dev.present = false
	if dev.handle != 0 {
		delete(d.handles, dev.handle)
		dev.teardown()
	}
	d.notify(dev.info(), vmb.TriggerPluggedOut)
}

// SetExternallyOpened emulates another process taking (or releasing)
// exclusive access to the camera.
func (d *Driver) SetExternallyOpened(id string, held bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devices[id]
	if !ok || dev.external == held {
		return
	}
	dev.external = held
	if dev.present {
		d.notify(dev.info(), vmb.TriggerOpenStateChanged)
	}
}

// Reconcile plugs in cameras present in cat but not attached, and plugs out
// attached cameras missing from cat.
func (d *Driver) Reconcile(cat Catalog) {
	want := make(map[string]bool, len(cat.Cameras))
	for _, c := range cat.Cameras {
		want[c.ID] = true
		d.PlugIn(c)
	}
	d.mu.Lock()
	var gone []string
	for _, id := range d.order {
		if dev := d.devices[id]; dev.present && !want[id] {
			gone = append(gone, id)
		}
	}
	d.mu.Unlock()
	for _, id := range gone {
		d.PlugOut(id)
	}
}

// notify queues a hot-plug notification. d.mu must be held.
func (d *Driver) notify(info vmb.CameraInfo, trigger vmb.UpdateTrigger) {
	if !d.started {
		return
	}
	d.pending = append(d.pending, listEvent{info: info, trigger: trigger})
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Driver) discoveryLoop(wake, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-wake:
		}
		for {
			d.mu.Lock()
			if len(d.pending) == 0 || !d.started {
				d.mu.Unlock()
				break
			}
			ev := d.pending[0]
			d.pending = d.pending[1:]
			cb := d.listCb
			d.mu.Unlock()
			if cb != nil {
				cb(ev.info, ev.trigger)
			}
		}
	}
}
