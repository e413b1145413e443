// Package vmb describes the vendor camera SDK surface consumed by the camera
// package. It is deliberately close to the Vimba C API: every call returns a
// Status, results come back as extra return values that are unspecified when
// the status is not StatusSuccess, and asynchronous notifications arrive on
// goroutines owned by the driver.
//
// Implementations:
//
//   - sim: in-memory cameras for tests and development.
//   - vimbac: cgo binding to libVimbaC, built with `-tags=vimba`.
package vmb

// FrameCallback is invoked by the driver, on a goroutine it owns, each time a
// queued buffer has been filled. Callbacks for one camera are serialized and
// arrive in fill order.
type FrameCallback func(h Handle, fb *FrameBuffer)

// CameraListCallback is invoked by the driver, on a goroutine it owns, when a
// camera appears, disappears or its permitted access changes.
type CameraListCallback func(info CameraInfo, trigger UpdateTrigger)

// Driver is the fixed vendor SDK surface.
type Driver interface {
	Startup() Status
	Shutdown() Status

	Interfaces() ([]InterfaceInfo, Status)
	Cameras() ([]CameraInfo, Status)
	CameraInfo(id string) (CameraInfo, Status)

	// RegisterCameraListCallback installs the single hot-plug callback.
	// Registering again replaces the previous callback.
	RegisterCameraListCallback(cb CameraListCallback) Status
	UnregisterCameraListCallback() Status

	Open(id string, mode AccessMode) (Handle, Status)
	Close(h Handle) Status

	FeatureInfo(h Handle, name string) (FeatureInfo, Status)
	FeatureInt(h Handle, name string) (int64, Status)
	SetFeatureInt(h Handle, name string, v int64) Status
	FeatureFloat(h Handle, name string) (float64, Status)
	SetFeatureFloat(h Handle, name string, v float64) Status
	FeatureBool(h Handle, name string) (bool, Status)
	SetFeatureBool(h Handle, name string, v bool) Status
	// FeatureString reads string and enum features.
	FeatureString(h Handle, name string) (string, Status)
	SetFeatureString(h Handle, name string, v string) Status
	FeatureRaw(h Handle, name string) ([]byte, Status)
	SetFeatureRaw(h Handle, name string, v []byte) Status
	RunCommand(h Handle, name string) Status
	CommandDone(h Handle, name string) (bool, Status)

	AnnounceFrame(h Handle, fb *FrameBuffer) Status
	RevokeFrame(h Handle, fb *FrameBuffer) Status
	RevokeAllFrames(h Handle) Status
	CaptureStart(h Handle) Status
	// CaptureEnd stops the capture engine. After it returns the driver writes
	// no buffer of h and starts no new frame callbacks; one already running
	// may still be in progress.
	CaptureEnd(h Handle) Status
	QueueFrame(h Handle, fb *FrameBuffer, cb FrameCallback) Status
	// FlushQueue discards every queued buffer without invoking callbacks,
	// including one the driver was filling when it was called.
	FlushQueue(h Handle) Status
}
