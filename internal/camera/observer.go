package camera

// FrameObserver is notified once per filled buffer, on the driver's
// acquisition goroutine. The frame is readable only until FrameReceived
// returns; copy out what must outlive the call. The buffer is re-queued
// automatically afterwards unless the observer re-queued or revoked it.
type FrameObserver interface {
	FrameReceived(f *Frame)
}

// FrameObserverFunc adapts a function to FrameObserver.
type FrameObserverFunc func(f *Frame)

func (fn FrameObserverFunc) FrameReceived(f *Frame) { fn(f) }

// CameraListObserver is notified, on the driver's discovery goroutine, when a
// camera is plugged in, plugged out, or its permitted access changes. A list
// obtained from System.Cameras may already be stale when this fires.
type CameraListObserver interface {
	CameraListChanged(c *Camera, trigger UpdateTrigger)
}

// CameraListObserverFunc adapts a function to CameraListObserver.
type CameraListObserverFunc func(c *Camera, trigger UpdateTrigger)

func (fn CameraListObserverFunc) CameraListChanged(c *Camera, trigger UpdateTrigger) { fn(c, trigger) }

type noopFrameObserver struct{}

func (noopFrameObserver) FrameReceived(*Frame) {}
