package types

// CameraListEvent is one line of the GET /events NDJSON stream.
type CameraListEvent struct {
	// Unique event id.
	ID string `json:"id"`
	// plugged_in, plugged_out or open_state_changed.
	// example: plugged_in
	Trigger string `json:"trigger" example:"plugged_in"`
	Camera  Camera `json:"camera"`
	// example: 1700000000123
	TimeUnixMS int64 `json:"time_unix_ms" example:"1700000000123"`
}
