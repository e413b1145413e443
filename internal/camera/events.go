package camera

// Event names published by System and Camera.
const (
	EventSystemStart       = "system_start"
	EventSystemShutdown    = "system_shutdown"
	EventCameraOpen        = "camera_open"
	EventCameraClose       = "camera_close"
	EventCaptureStart      = "capture_start"
	EventCaptureEnd        = "capture_end"
	EventCameraListChanged = "camera_list_changed"
)

// Event represents a lifecycle event: name + camera ID and optional fields.
type Event struct {
	Name     string
	CameraID string
	Fields   map[string]any
}

// EventPublisher receives events. Implementations must be non-blocking:
// camera_list_changed is published from the driver's discovery goroutine.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
