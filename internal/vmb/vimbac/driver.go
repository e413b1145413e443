//go:build vimba

// Package vimbac binds vmb.Driver to Allied Vision's VimbaC library. Go
// buffers handed to AnnounceFrame are pinned for as long as the SDK may
// write into them; frame and discovery callbacks arrive on SDK threads and
// are forwarded through exported Go functions.
package vimbac

/*
#include <stdint.h>
#include <stdlib.h>
#include <VimbaC/Include/VimbaC.h>

VmbError_t queueFrame(VmbHandle_t camera, VmbFrame_t *frame);
VmbError_t registerDiscovery(void);
VmbError_t unregisterDiscovery(void);
void setFrameContext(VmbFrame_t *frame, uintptr_t h);
uintptr_t frameContext(const VmbFrame_t *frame);
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"unsafe"

	"mantacam/internal/vmb"
)

const stringFeatureMax = 512

// frameRec ties one announced Go buffer to its C frame descriptor.
type frameRec struct {
	fb     *vmb.FrameBuffer
	c      *C.VmbFrame_t
	pin    runtime.Pinner
	handle cgo.Handle

	mu sync.Mutex
	cb vmb.FrameCallback
}

// Driver talks to the real SDK. Only one may be started per process.
type Driver struct {
	mu     sync.Mutex
	frames map[vmb.Handle]map[*vmb.FrameBuffer]*frameRec
	listCb atomic.Pointer[vmb.CameraListCallback]
}

var _ vmb.Driver = (*Driver)(nil)

// active receives discovery callbacks; VimbaC has a single system handle.
var active atomic.Pointer[Driver]

// New returns a driver bound to libVimbaC.
func New() (*Driver, error) {
	return &Driver{frames: make(map[vmb.Handle]map[*vmb.FrameBuffer]*frameRec)}, nil
}

func status(e C.VmbError_t) vmb.Status { return vmb.Status(int32(e)) }

func chandle(h vmb.Handle) C.VmbHandle_t { return C.VmbHandle_t(unsafe.Pointer(h)) }

func (d *Driver) Startup() vmb.Status {
	st := status(C.VmbStartup())
	if st.OK() {
		active.Store(d)
		// GigE cameras are only reported after a discovery sweep.
		name := C.CString("GeVDiscoveryAllAuto")
		C.VmbFeatureCommandRun(C.gVimbaHandle, name)
		C.free(unsafe.Pointer(name))
	}
	return st
}

func (d *Driver) Shutdown() vmb.Status {
	if !active.CompareAndSwap(d, nil) {
		return vmb.StatusApiNotStarted
	}
	C.VmbShutdown()
	d.mu.Lock()
	for _, recs := range d.frames {
		for _, r := range recs {
			r.release()
		}
	}
	d.frames = make(map[vmb.Handle]map[*vmb.FrameBuffer]*frameRec)
	d.mu.Unlock()
	return vmb.StatusSuccess
}

func (d *Driver) Interfaces() ([]vmb.InterfaceInfo, vmb.Status) {
	var n C.VmbUint32_t
	if st := status(C.VmbInterfacesList(nil, 0, &n, C.sizeof_VmbInterfaceInfo_t)); !st.OK() {
		return nil, st
	}
	if n == 0 {
		return []vmb.InterfaceInfo{}, vmb.StatusSuccess
	}
	list := make([]C.VmbInterfaceInfo_t, n)
	var found C.VmbUint32_t
	if st := status(C.VmbInterfacesList(&list[0], n, &found, C.sizeof_VmbInterfaceInfo_t)); !st.OK() && st != vmb.StatusMoreData {
		return nil, st
	}
	out := make([]vmb.InterfaceInfo, 0, found)
	for _, i := range list[:min(int(found), len(list))] {
		out = append(out, vmb.InterfaceInfo{
			ID:              C.GoString(i.interfaceIdString),
			Name:            C.GoString(i.interfaceName),
			Serial:          C.GoString(i.serialString),
			Type:            vmb.InterfaceType(i.interfaceType),
			PermittedAccess: vmb.AccessMode(i.permittedAccess),
		})
	}
	return out, vmb.StatusSuccess
}

func (d *Driver) Cameras() ([]vmb.CameraInfo, vmb.Status) {
	var n C.VmbUint32_t
	if st := status(C.VmbCamerasList(nil, 0, &n, C.sizeof_VmbCameraInfo_t)); !st.OK() {
		return nil, st
	}
	if n == 0 {
		return []vmb.CameraInfo{}, vmb.StatusSuccess
	}
	list := make([]C.VmbCameraInfo_t, n)
	var found C.VmbUint32_t
	if st := status(C.VmbCamerasList(&list[0], n, &found, C.sizeof_VmbCameraInfo_t)); !st.OK() && st != vmb.StatusMoreData {
		return nil, st
	}
	ifTypes := d.interfaceTypes()
	out := make([]vmb.CameraInfo, 0, found)
	for _, c := range list[:min(int(found), len(list))] {
		out = append(out, cameraInfo(&c, ifTypes))
	}
	return out, vmb.StatusSuccess
}

func (d *Driver) CameraInfo(id string) (vmb.CameraInfo, vmb.Status) {
	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))
	var c C.VmbCameraInfo_t
	if st := status(C.VmbCameraInfoQuery(cid, &c, C.sizeof_VmbCameraInfo_t)); !st.OK() {
		return vmb.CameraInfo{}, st
	}
	return cameraInfo(&c, d.interfaceTypes()), vmb.StatusSuccess
}

func (d *Driver) interfaceTypes() map[string]vmb.InterfaceType {
	ifs, _ := d.Interfaces()
	out := make(map[string]vmb.InterfaceType, len(ifs))
	for _, i := range ifs {
		out[i.ID] = i.Type
	}
	return out
}

func cameraInfo(c *C.VmbCameraInfo_t, ifTypes map[string]vmb.InterfaceType) vmb.CameraInfo {
	iface := C.GoString(c.interfaceIdString)
	return vmb.CameraInfo{
		ID:              C.GoString(c.cameraIdString),
		Name:            C.GoString(c.cameraName),
		Model:           C.GoString(c.modelName),
		Serial:          C.GoString(c.serialString),
		InterfaceID:     iface,
		InterfaceType:   ifTypes[iface],
		PermittedAccess: vmb.AccessMode(c.permittedAccess),
	}
}

func (d *Driver) RegisterCameraListCallback(cb vmb.CameraListCallback) vmb.Status {
	if cb == nil {
		return vmb.StatusBadParameter
	}
	first := d.listCb.Swap(&cb) == nil
	if !first {
		return vmb.StatusSuccess
	}
	if st := status(C.registerDiscovery()); !st.OK() {
		d.listCb.Store(nil)
		return st
	}
	return vmb.StatusSuccess
}

func (d *Driver) UnregisterCameraListCallback() vmb.Status {
	if d.listCb.Swap(nil) == nil {
		return vmb.StatusSuccess
	}
	return status(C.unregisterDiscovery())
}

//export goDiscoveryEvent
func goDiscoveryEvent() {
	d := active.Load()
	if d == nil {
		return
	}
	cb := d.listCb.Load()
	if cb == nil {
		return
	}
	id, st := stringFeature(C.gVimbaHandle, "DiscoveryCameraIdent")
	if !st.OK() {
		return
	}
	kind, st := enumFeature(C.gVimbaHandle, "DiscoveryCameraEventType")
	if !st.OK() {
		return
	}
	var trigger vmb.UpdateTrigger
	switch kind {
	case "Detected":
		trigger = vmb.TriggerPluggedIn
	case "Missing":
		trigger = vmb.TriggerPluggedOut
	default:
		trigger = vmb.TriggerOpenStateChanged
	}
	info, st := d.CameraInfo(id)
	if !st.OK() {
		info = vmb.CameraInfo{ID: id}
	}
	(*cb)(info, trigger)
}

func (d *Driver) Open(id string, mode vmb.AccessMode) (vmb.Handle, vmb.Status) {
	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))
	var h C.VmbHandle_t
	if st := status(C.VmbCameraOpen(cid, C.VmbAccessMode_t(mode), &h)); !st.OK() {
		return 0, st
	}
	return vmb.Handle(uintptr(unsafe.Pointer(h))), vmb.StatusSuccess
}

func (d *Driver) Close(h vmb.Handle) vmb.Status {
	st := status(C.VmbCameraClose(chandle(h)))
	if st.OK() {
		d.mu.Lock()
		for _, r := range d.frames[h] {
			r.release()
		}
		delete(d.frames, h)
		d.mu.Unlock()
	}
	return st
}

func (d *Driver) FeatureInfo(h vmb.Handle, name string) (vmb.FeatureInfo, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var fi C.VmbFeatureInfo_t
	if st := status(C.VmbFeatureInfoQuery(chandle(h), cname, &fi, C.sizeof_VmbFeatureInfo_t)); !st.OK() {
		return vmb.FeatureInfo{}, st
	}
	return vmb.FeatureInfo{
		Name:        C.GoString(fi.name),
		Type:        vmb.FeatureType(fi.featureDataType),
		Flags:       vmb.FeatureFlags(fi.featureFlags),
		Category:    C.GoString(fi.category),
		DisplayName: C.GoString(fi.displayName),
		Unit:        C.GoString(fi.unit),
		Description: C.GoString(fi.description),
	}, vmb.StatusSuccess
}

func (d *Driver) FeatureInt(h vmb.Handle, name string) (int64, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var v C.VmbInt64_t
	st := status(C.VmbFeatureIntGet(chandle(h), cname, &v))
	return int64(v), st
}

func (d *Driver) SetFeatureInt(h vmb.Handle, name string, v int64) vmb.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return status(C.VmbFeatureIntSet(chandle(h), cname, C.VmbInt64_t(v)))
}

func (d *Driver) FeatureFloat(h vmb.Handle, name string) (float64, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var v C.double
	st := status(C.VmbFeatureFloatGet(chandle(h), cname, &v))
	return float64(v), st
}

func (d *Driver) SetFeatureFloat(h vmb.Handle, name string, v float64) vmb.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return status(C.VmbFeatureFloatSet(chandle(h), cname, C.double(v)))
}

func (d *Driver) FeatureBool(h vmb.Handle, name string) (bool, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var v C.VmbBool_t
	st := status(C.VmbFeatureBoolGet(chandle(h), cname, &v))
	return v != 0, st
}

func (d *Driver) SetFeatureBool(h vmb.Handle, name string, v bool) vmb.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var b C.VmbBool_t
	if v {
		b = 1
	}
	return status(C.VmbFeatureBoolSet(chandle(h), cname, b))
}

func (d *Driver) FeatureString(h vmb.Handle, name string) (string, vmb.Status) {
	fi, st := d.FeatureInfo(h, name)
	if !st.OK() {
		return "", st
	}
	if fi.Type == vmb.FeatureEnum {
		return enumFeature(chandle(h), name)
	}
	return stringFeature(chandle(h), name)
}

func (d *Driver) SetFeatureString(h vmb.Handle, name string, v string) vmb.Status {
	fi, st := d.FeatureInfo(h, name)
	if !st.OK() {
		return st
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cv := C.CString(v)
	defer C.free(unsafe.Pointer(cv))
	if fi.Type == vmb.FeatureEnum {
		return status(C.VmbFeatureEnumSet(chandle(h), cname, cv))
	}
	return status(C.VmbFeatureStringSet(chandle(h), cname, cv))
}

func stringFeature(h C.VmbHandle_t, name string) (string, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	buf := (*C.char)(C.malloc(stringFeatureMax))
	defer C.free(unsafe.Pointer(buf))
	var filled C.VmbUint32_t
	if st := status(C.VmbFeatureStringGet(h, cname, buf, stringFeatureMax, &filled)); !st.OK() {
		return "", st
	}
	return C.GoString(buf), vmb.StatusSuccess
}

func enumFeature(h C.VmbHandle_t, name string) (string, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var v *C.char
	if st := status(C.VmbFeatureEnumGet(h, cname, &v)); !st.OK() {
		return "", st
	}
	return C.GoString(v), vmb.StatusSuccess
}

func (d *Driver) FeatureRaw(h vmb.Handle, name string) ([]byte, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var n C.VmbUint32_t
	if st := status(C.VmbFeatureRawLengthQuery(chandle(h), cname, &n)); !st.OK() {
		return nil, st
	}
	if n == 0 {
		return []byte{}, vmb.StatusSuccess
	}
	buf := C.malloc(C.size_t(n))
	defer C.free(buf)
	var filled C.VmbUint32_t
	if st := status(C.VmbFeatureRawGet(chandle(h), cname, (*C.char)(buf), n, &filled)); !st.OK() {
		return nil, st
	}
	return C.GoBytes(buf, C.int(filled)), vmb.StatusSuccess
}

func (d *Driver) SetFeatureRaw(h vmb.Handle, name string, v []byte) vmb.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	buf := C.CBytes(v)
	defer C.free(buf)
	return status(C.VmbFeatureRawSet(chandle(h), cname, (*C.char)(buf), C.VmbUint32_t(len(v))))
}

func (d *Driver) RunCommand(h vmb.Handle, name string) vmb.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return status(C.VmbFeatureCommandRun(chandle(h), cname))
}

func (d *Driver) CommandDone(h vmb.Handle, name string) (bool, vmb.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var v C.VmbBool_t
	st := status(C.VmbFeatureCommandIsDone(chandle(h), cname, &v))
	return v != 0, st
}

func (d *Driver) AnnounceFrame(h vmb.Handle, fb *vmb.FrameBuffer) vmb.Status {
	if fb == nil || len(fb.Buffer) == 0 {
		return vmb.StatusBadParameter
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.frames[h][fb]; ok {
		return vmb.StatusInvalidCall
	}
	r := &frameRec{fb: fb, c: (*C.VmbFrame_t)(C.calloc(1, C.sizeof_VmbFrame_t))}
	r.pin.Pin(&fb.Buffer[0])
	r.c.buffer = unsafe.Pointer(&fb.Buffer[0])
	r.c.bufferSize = C.VmbUint32_t(len(fb.Buffer))
	r.handle = cgo.NewHandle(r)
	C.setFrameContext(r.c, C.uintptr_t(r.handle))
	if st := status(C.VmbFrameAnnounce(chandle(h), r.c, C.sizeof_VmbFrame_t)); !st.OK() {
		r.release()
		return st
	}
	if d.frames[h] == nil {
		d.frames[h] = make(map[*vmb.FrameBuffer]*frameRec)
	}
	d.frames[h][fb] = r
	return vmb.StatusSuccess
}

func (d *Driver) RevokeFrame(h vmb.Handle, fb *vmb.FrameBuffer) vmb.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.frames[h][fb]
	if !ok {
		return vmb.StatusBadParameter
	}
	if st := status(C.VmbFrameRevoke(chandle(h), r.c)); !st.OK() {
		return st
	}
	delete(d.frames[h], fb)
	r.release()
	return vmb.StatusSuccess
}

func (d *Driver) RevokeAllFrames(h vmb.Handle) vmb.Status {
	if st := status(C.VmbFrameRevokeAll(chandle(h))); !st.OK() {
		return st
	}
	d.mu.Lock()
	for _, r := range d.frames[h] {
		r.release()
	}
	delete(d.frames, h)
	d.mu.Unlock()
	return vmb.StatusSuccess
}

func (d *Driver) CaptureStart(h vmb.Handle) vmb.Status {
	return status(C.VmbCaptureStart(chandle(h)))
}

func (d *Driver) CaptureEnd(h vmb.Handle) vmb.Status {
	return status(C.VmbCaptureEnd(chandle(h)))
}

func (d *Driver) QueueFrame(h vmb.Handle, fb *vmb.FrameBuffer, cb vmb.FrameCallback) vmb.Status {
	if cb == nil {
		return vmb.StatusBadParameter
	}
	d.mu.Lock()
	r, ok := d.frames[h][fb]
	d.mu.Unlock()
	if !ok {
		return vmb.StatusInvalidCall
	}
	r.mu.Lock()
	r.cb = cb
	r.mu.Unlock()
	return status(C.queueFrame(chandle(h), r.c))
}

func (d *Driver) FlushQueue(h vmb.Handle) vmb.Status {
	return status(C.VmbCaptureQueueFlush(chandle(h)))
}

//export goFrameDone
func goFrameDone(h C.VmbHandle_t, f *C.VmbFrame_t) {
	r, ok := cgo.Handle(C.frameContext(f)).Value().(*frameRec)
	if !ok {
		return
	}
	fb := r.fb
	fb.Status = vmb.FrameStatus(f.receiveStatus)
	fb.PixelFormat = vmb.PixelFormat(f.pixelFormat)
	fb.Width = uint32(f.width)
	fb.Height = uint32(f.height)
	fb.OffsetX = uint32(f.offsetX)
	fb.OffsetY = uint32(f.offsetY)
	fb.ImageSize = uint32(f.imageSize)
	fb.FrameID = uint64(f.frameID)
	fb.Timestamp = uint64(f.timestamp)
	r.mu.Lock()
	cb := r.cb
	r.mu.Unlock()
	if cb != nil {
		cb(vmb.Handle(uintptr(unsafe.Pointer(h))), fb)
	}
}

func (r *frameRec) release() {
	if r.handle != 0 {
		r.handle.Delete()
		r.handle = 0
	}
	r.pin.Unpin()
	if r.c != nil {
		C.free(unsafe.Pointer(r.c))
		r.c = nil
	}
}
