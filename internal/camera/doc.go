// Package camera is the typed, callback-driven layer over a vmb.Driver. It is
// structured into small files by concern:
//
//   - system.go: System (device registry), SDK session lifecycle, enumeration.
//   - config.go: SystemConfig and package defaults; NewSystem applies defaults.
//   - camera.go: Camera handle, open/close state machine, capture start/stop.
//   - pool.go: announce/queue/revoke buffer discipline.
//   - frame.go: Frame and ImageView, the zero-copy view over a filled buffer.
//   - bridge.go: frame-filled callback from the driver to FrameObserver.
//   - hotplug.go: camera-list callback from the driver to CameraListObserver.
//   - feature.go: typed feature get/set and commands.
//   - errors.go: ErrorKind, Error and status translation.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// Driver callbacks run on goroutines the driver owns. Observers must return
// promptly and must not call Camera or System methods that perform device
// I/O from inside a callback; QueueFrame and RevokeFrame on the delivered
// frame are the exceptions.
package camera
