package types

import "encoding/json"

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: camera: open: invalid_access
	Error string `json:"error" example:"camera: open: invalid_access"`
	// Error kind when the failure came from the camera layer.
	// example: invalid_access
	Kind string `json:"kind,omitempty" example:"invalid_access"`
	// HTTP status code.
	// example: 403
	Code int `json:"code" example:"403"`
}

// InterfacesResponse is returned by GET /interfaces.
type InterfacesResponse struct {
	Interfaces []Interface `json:"interfaces"`
}

// CamerasResponse is returned by GET /cameras.
type CamerasResponse struct {
	Cameras []Camera `json:"cameras"`
}

// OpenRequest is the body of POST /cameras/{id}/open.
type OpenRequest struct {
	// Access mode: full, read, config or lite. Defaults to full.
	// example: full
	Access string `json:"access,omitempty" example:"full"`
}

// SetFeatureRequest is the body of PUT /cameras/{id}/features/{name}. The
// value is decoded according to the feature's declared type.
type SetFeatureRequest struct {
	Value json.RawMessage `json:"value" swaggertype:"string" example:"2500"`
}

// StreamRequest is the body of POST /cameras/{id}/stream.
type StreamRequest struct {
	// Number of frame buffers to announce. Zero selects the server default.
	// example: 3
	Buffers int `json:"buffers,omitempty" example:"3"`
}

// StreamStats counts frames moved by a stream.
type StreamStats struct {
	Delivered  uint64 `json:"delivered"`
	Incomplete uint64 `json:"incomplete"`
	Dropped    uint64 `json:"dropped"`
	Bytes      uint64 `json:"bytes"`
}

// StreamInfo describes a running acquisition stream.
type StreamInfo struct {
	ID       string      `json:"id"`
	CameraID string      `json:"camera_id"`
	Buffers  int         `json:"buffers"`
	Stats    StreamStats `json:"stats"`
	// Stopping is set when a stop failed and is waiting to be retried.
	Stopping bool `json:"stopping,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// System state: uninitialized, started, shut_down.
	// example: started
	State string `json:"state" example:"started"`
	// Driver backing the system.
	// example: sim
	Driver string `json:"driver" example:"sim"`
	// Cameras currently enumerated.
	// example: 2
	Cameras int `json:"cameras" example:"2"`
	// Cameras currently open by this process.
	// example: 1
	OpenCameras int          `json:"open_cameras" example:"1"`
	Streams     []StreamInfo `json:"streams"`
	// Hot-plug events seen since start.
	// example: 3
	CameraListEvents uint64 `json:"camera_list_events" example:"3"`
	// Subscribers to GET /events.
	Subscribers int    `json:"subscribers"`
	LastError   string `json:"last_error,omitempty"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
