package vmb

import (
	"fmt"
	"strings"
)

// Handle identifies an open camera inside the driver.
type Handle uintptr

// AccessMode mirrors VmbAccessModeType. Values are bit flags so a camera's
// permitted access can be reported as a set.
type AccessMode uint32

const (
	AccessNone   AccessMode = 0
	AccessFull   AccessMode = 1
	AccessRead   AccessMode = 2
	AccessConfig AccessMode = 4
	AccessLite   AccessMode = 8
)

func (m AccessMode) String() string {
	switch m {
	case AccessNone:
		return "none"
	case AccessFull:
		return "full"
	case AccessRead:
		return "read"
	case AccessConfig:
		return "config"
	case AccessLite:
		return "lite"
	}
	var parts []string
	for _, f := range []AccessMode{AccessFull, AccessRead, AccessConfig, AccessLite} {
		if m&f != 0 {
			parts = append(parts, f.String())
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("access(%d)", uint32(m))
	}
	return strings.Join(parts, "|")
}

// Has reports whether every flag in o is set in m.
func (m AccessMode) Has(o AccessMode) bool { return o != AccessNone && m&o == o }

// ParseAccessMode accepts the lower-case names produced by String.
func ParseAccessMode(s string) (AccessMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return AccessNone, nil
	case "full", "":
		return AccessFull, nil
	case "read":
		return AccessRead, nil
	case "config":
		return AccessConfig, nil
	case "lite":
		return AccessLite, nil
	}
	return AccessNone, fmt.Errorf("unknown access mode %q", s)
}

// UpdateTrigger mirrors UpdateTriggerType: the reason a camera list callback fired.
type UpdateTrigger int

const (
	// A new camera was discovered.
	TriggerPluggedIn UpdateTrigger = 0
	// A camera disappeared from the bus.
	TriggerPluggedOut UpdateTrigger = 1
	// The possible opening mode of a camera changed.
	TriggerOpenStateChanged UpdateTrigger = 3
)

func (t UpdateTrigger) String() string {
	switch t {
	case TriggerPluggedIn:
		return "plugged_in"
	case TriggerPluggedOut:
		return "plugged_out"
	case TriggerOpenStateChanged:
		return "open_state_changed"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// InterfaceType mirrors VmbInterfaceType.
type InterfaceType int

const (
	InterfaceUnknown  InterfaceType = 0
	InterfaceFirewire InterfaceType = 1
	InterfaceEthernet InterfaceType = 2
	InterfaceUSB      InterfaceType = 3
	InterfaceCL       InterfaceType = 4
	InterfaceCSI2     InterfaceType = 5
)

func (t InterfaceType) String() string {
	switch t {
	case InterfaceFirewire:
		return "firewire"
	case InterfaceEthernet:
		return "gige"
	case InterfaceUSB:
		return "usb"
	case InterfaceCL:
		return "cl"
	case InterfaceCSI2:
		return "csi2"
	}
	return "unknown"
}

// ParseInterfaceType accepts the names produced by String.
func ParseInterfaceType(s string) InterfaceType {
	switch strings.ToLower(s) {
	case "firewire":
		return InterfaceFirewire
	case "gige", "ethernet":
		return InterfaceEthernet
	case "usb":
		return InterfaceUSB
	case "cl":
		return InterfaceCL
	case "csi2":
		return InterfaceCSI2
	}
	return InterfaceUnknown
}

// FeatureType mirrors VmbFeatureDataType.
type FeatureType int

const (
	FeatureUnknown FeatureType = 0
	FeatureInt     FeatureType = 1
	FeatureFloat   FeatureType = 2
	FeatureEnum    FeatureType = 3
	FeatureString  FeatureType = 4
	FeatureBool    FeatureType = 5
	FeatureCommand FeatureType = 6
	FeatureRaw     FeatureType = 7
	FeatureNone    FeatureType = 8
)

func (t FeatureType) String() string {
	switch t {
	case FeatureInt:
		return "int"
	case FeatureFloat:
		return "float"
	case FeatureEnum:
		return "enum"
	case FeatureString:
		return "string"
	case FeatureBool:
		return "bool"
	case FeatureCommand:
		return "command"
	case FeatureRaw:
		return "raw"
	case FeatureNone:
		return "none"
	}
	return "unknown"
}

// FeatureFlags mirrors VmbFeatureFlagsType.
type FeatureFlags uint32

const (
	FlagRead        FeatureFlags = 1
	FlagWrite       FeatureFlags = 2
	FlagVolatile    FeatureFlags = 8
	FlagModifyWrite FeatureFlags = 16
)

// FrameStatus mirrors VmbFrameStatusType.
type FrameStatus int32

const (
	FrameComplete   FrameStatus = 0
	FrameIncomplete FrameStatus = -1
	FrameTooSmall   FrameStatus = -2
	FrameInvalid    FrameStatus = -3
)

func (s FrameStatus) String() string {
	switch s {
	case FrameComplete:
		return "complete"
	case FrameIncomplete:
		return "incomplete"
	case FrameTooSmall:
		return "too_small"
	case FrameInvalid:
		return "invalid"
	}
	return fmt.Sprintf("frame_status(%d)", int32(s))
}

// CameraInfo is the identity block reported for an enumerated camera.
type CameraInfo struct {
	ID              string
	Name            string
	Model           string
	Serial          string
	InterfaceID     string
	InterfaceType   InterfaceType
	PermittedAccess AccessMode
}

// InterfaceInfo describes a transport layer interface (a USB host controller,
// a GigE NIC, ...).
type InterfaceInfo struct {
	ID              string
	Name            string
	Serial          string
	Type            InterfaceType
	PermittedAccess AccessMode
}

// FeatureInfo is the static description of a named feature.
type FeatureInfo struct {
	Name        string
	Type        FeatureType
	Flags       FeatureFlags
	Category    string
	DisplayName string
	Unit        string
	Description string
}

// Readable reports whether the feature can currently be read.
func (f FeatureInfo) Readable() bool { return f.Flags&FlagRead != 0 }

// Writable reports whether the feature can currently be written.
func (f FeatureInfo) Writable() bool { return f.Flags&FlagWrite != 0 }

// FrameBuffer is the driver-facing frame record (VmbFrame_t). The caller owns
// Buffer; the driver writes the remaining fields before invoking the frame
// callback.
type FrameBuffer struct {
	Buffer []byte

	Status      FrameStatus
	PixelFormat PixelFormat
	Width       uint32
	Height      uint32
	OffsetX     uint32
	OffsetY     uint32
	ImageSize   uint32
	FrameID     uint64
	Timestamp   uint64
}
