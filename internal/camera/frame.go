package camera

import (
	"sync"

	"mantacam/internal/vmb"
)

// Frame owns one acquisition buffer and describes its contents after the
// driver fills it. A Frame is bound to at most one camera at a time, from
// AnnounceFrame until it is revoked.
type Frame struct {
	// fb is handed to the driver by pointer. The driver writes the buffer and
	// metadata only while the frame is Queued.
	fb vmb.FrameBuffer
	// cb is the driver callback for this frame, bound once at announce.
	cb vmb.FrameCallback

	mu       sync.Mutex
	state    BufferState
	cam      *Camera
	observer FrameObserver
}

// NewFrame allocates a frame with a buffer of size bytes.
func NewFrame(size int) *Frame {
	if size < 0 {
		size = 0
	}
	return &Frame{
		fb:       vmb.FrameBuffer{Buffer: make([]byte, size)},
		state:    BufferFree,
		observer: noopFrameObserver{},
	}
}

// RegisterObserver sets the observer notified when this frame is filled.
// A nil observer restores the built-in no-op.
func (f *Frame) RegisterObserver(o FrameObserver) {
	if o == nil {
		o = noopFrameObserver{}
	}
	f.mu.Lock()
	f.observer = o
	f.mu.Unlock()
}

// Camera returns the camera the frame is announced to, or nil.
func (f *Frame) Camera() *Camera {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cam
}

// State returns the buffer's ownership state.
func (f *Frame) State() BufferState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Size is the buffer capacity in bytes.
func (f *Frame) Size() int { return len(f.fb.Buffer) }

// The metadata accessors below report the last delivery. The driver writes
// these fields without f.mu while the frame is Queued, so they may only be
// read while the frame is Filled (inside FrameReceived) or Announced once
// EndCapture has returned.

func (f *Frame) Status() FrameStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fb.Status
}

func (f *Frame) FrameID() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fb.FrameID
}

func (f *Frame) Timestamp() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fb.Timestamp
}

func (f *Frame) PixelFormat() PixelFormat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fb.PixelFormat
}

func (f *Frame) Width() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.fb.Width)
}

func (f *Frame) Height() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.fb.Height)
}

// Offset returns the region-of-interest origin on the sensor.
func (f *Frame) Offset() (x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.fb.OffsetX), int(f.fb.OffsetY)
}

// ImageView describes a filled buffer without copying it. Row r starts at
// Data[r*StrideBytes]. For packed formats ElementSizeBytes is 1 and each row
// holds Cols*BitsPerPixel bits, rounded up to whole bytes.
type ImageView struct {
	Rows             int
	Cols             int
	StrideBytes      int
	ElementSizeBytes int
	BitsPerPixel     int
	PixelFormat      PixelFormat
	Data             []byte
}

// Row returns the bytes of row r.
func (v ImageView) Row(r int) []byte {
	return v.Data[r*v.StrideBytes : (r+1)*v.StrideBytes]
}

// ImageView returns a view over the buffer. It fails with KindInvalidCall
// unless the frame is Filled, and with KindIncomplete when the driver
// reported less image data than the geometry requires.
func (f *Frame) ImageView() (ImageView, error) {
	const op = "image_view"
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != BufferFilled {
		return ImageView{}, newError(op, KindInvalidCall, "frame is %s", f.state)
	}
	pf := f.fb.PixelFormat
	w, h := int(f.fb.Width), int(f.fb.Height)
	stride := pf.RowBytes(w)
	size := stride * h
	if size > len(f.fb.Buffer) {
		return ImageView{}, newError(op, KindIncomplete, "buffer holds %d of %d bytes", len(f.fb.Buffer), size)
	}
	elem := 1
	if !pf.Packed() {
		elem = pf.BitsPerPixel() / 8
	}
	return ImageView{
		Rows:             h,
		Cols:             w,
		StrideBytes:      stride,
		ElementSizeBytes: elem,
		BitsPerPixel:     pf.BitsPerPixel(),
		PixelFormat:      pf,
		Data:             f.fb.Buffer[:size:size],
	}, nil
}
