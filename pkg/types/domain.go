package types

// Interface is a transport interface cameras are attached through.
type Interface struct {
	// example: eth0
	ID string `json:"id" example:"eth0"`
	// example: Simulated GigE NIC
	Name   string `json:"name" example:"Simulated GigE NIC"`
	Serial string `json:"serial,omitempty"`
	// Transport kind: gige, usb, firewire, cl, csi2, pcie.
	// example: gige
	Type string `json:"type" example:"gige"`
}

// Camera describes an enumerated camera and its local handle state.
type Camera struct {
	// example: DEV_000F31000001
	ID string `json:"id" example:"DEV_000F31000001"`
	// example: Manta G-125B
	Name        string `json:"name" example:"Manta G-125B"`
	Model       string `json:"model,omitempty"`
	Serial      string `json:"serial,omitempty"`
	InterfaceID string `json:"interface_id,omitempty"`
	// example: gige
	InterfaceType string `json:"interface_type" example:"gige"`
	// Access modes another opener would currently be granted, e.g. "full|read|config".
	// example: full|read|config
	PermittedAccess string `json:"permitted_access" example:"full|read|config"`
	// Lifecycle state: closed, open, capturing.
	// example: open
	State string `json:"state" example:"open"`
	// Access mode the camera is open in, when open.
	// example: full
	AccessMode string `json:"access_mode,omitempty" example:"full"`
	// ID of the acquisition stream running on this camera, if any.
	StreamID string `json:"stream_id,omitempty"`
}

// Feature describes one device feature and, when readable, its value.
type Feature struct {
	// example: ExposureTime
	Name string `json:"name" example:"ExposureTime"`
	// Declared type: int, float, enum, string, bool, command, raw.
	// example: float
	Type        string `json:"type" example:"float"`
	Category    string `json:"category,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	// example: us
	Unit     string `json:"unit,omitempty" example:"us"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
	// Current value; raw features are base64 encoded.
	Value any `json:"value,omitempty" swaggertype:"string" example:"5000"`
}
