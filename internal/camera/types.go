package camera

import "mantacam/internal/vmb"

// Driver-level enumerations re-exported so callers need not import vmb.
type (
	AccessMode    = vmb.AccessMode
	UpdateTrigger = vmb.UpdateTrigger
	PixelFormat   = vmb.PixelFormat
	InterfaceType = vmb.InterfaceType
	FeatureType   = vmb.FeatureType
	FrameStatus   = vmb.FrameStatus
	FeatureInfo   = vmb.FeatureInfo
	Interface     = vmb.InterfaceInfo
)

const (
	AccessNone   = vmb.AccessNone
	AccessFull   = vmb.AccessFull
	AccessRead   = vmb.AccessRead
	AccessConfig = vmb.AccessConfig
	AccessLite   = vmb.AccessLite

	PluggedIn        = vmb.TriggerPluggedIn
	PluggedOut       = vmb.TriggerPluggedOut
	OpenStateChanged = vmb.TriggerOpenStateChanged
)

// SystemState is the lifecycle of a System.
type SystemState string

const (
	SystemUninitialized SystemState = "uninitialized"
	SystemStarted       SystemState = "started"
	SystemShutDown      SystemState = "shut_down"
)

// CameraState is the lifecycle of a Camera handle.
type CameraState string

const (
	CameraClosed    CameraState = "closed"
	CameraOpening   CameraState = "opening"
	CameraOpen      CameraState = "open"
	CameraCapturing CameraState = "capturing"
	CameraClosing   CameraState = "closing"
)

// BufferState is the ownership state of a Frame's buffer.
type BufferState string

const (
	BufferFree      BufferState = "free"
	BufferAnnounced BufferState = "announced"
	BufferQueued    BufferState = "queued"
	BufferFilled    BufferState = "filled"
	BufferRevoked   BufferState = "revoked"
)

// CameraStats counts acquisition activity since the camera was opened.
type CameraStats struct {
	FramesDelivered  uint64
	FramesIncomplete uint64
	RequeueFailures  uint64
	Announced        int
	Queued           int
}
