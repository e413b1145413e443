package sim

import (
	"mantacam/internal/vmb"
)

const (
	rw = vmb.FlagRead | vmb.FlagWrite
	ro = vmb.FlagRead
	wo = vmb.FlagWrite
)

const maxUserData = 64

// feature is one simulated device feature. Only the value field matching
// info.Type is meaningful.
type feature struct {
	info vmb.FeatureInfo

	i   int64
	f   float64
	b   bool
	s   string
	raw []byte

	min, max float64
	ranged   bool
	enum     []string

	// lockedWhileAcquiring rejects writes while the device streams.
	lockedWhileAcquiring bool
	// get overrides the stored value for derived features.
	get func(d *device) int64
}

func newFeatures(spec CameraSpec) map[string]*feature {
	var formats []string
	for _, pf := range vmb.PixelFormats() {
		formats = append(formats, pf.String())
	}
	fs := []*feature{
		{info: info("Width", vmb.FeatureInt, rw, "ImageFormatControl", ""), i: int64(spec.Width),
			min: 8, max: float64(spec.Width), ranged: true, lockedWhileAcquiring: true},
		{info: info("Height", vmb.FeatureInt, rw, "ImageFormatControl", ""), i: int64(spec.Height),
			min: 8, max: float64(spec.Height), ranged: true, lockedWhileAcquiring: true},
		{info: info("PixelFormat", vmb.FeatureEnum, rw, "ImageFormatControl", ""), s: spec.pixelFormat().String(),
			enum: formats, lockedWhileAcquiring: true},
		{info: info("PayloadSize", vmb.FeatureInt, ro, "ImageFormatControl", "B"), get: (*device).payloadSize},
		{info: info("ExposureTime", vmb.FeatureFloat, rw, "AcquisitionControl", "us"), f: 5000,
			min: 10, max: 10_000_000, ranged: true},
		{info: info("Gain", vmb.FeatureFloat, rw, "AnalogControl", "dB"), f: 0, min: 0, max: 40, ranged: true},
		{info: info("AcquisitionFrameRate", vmb.FeatureFloat, rw, "AcquisitionControl", "Hz"), f: spec.FrameRate,
			min: 0, max: 1000, ranged: true},
		{info: info("DeviceTemperature", vmb.FeatureFloat, ro, "DeviceControl", "C"), f: 42.5},
		{info: info("DeviceModelName", vmb.FeatureString, ro, "DeviceControl", ""), s: spec.Model},
		{info: info("DeviceUserID", vmb.FeatureString, rw, "DeviceControl", ""), s: ""},
		{info: info("ReverseX", vmb.FeatureBool, rw, "ImageFormatControl", ""), lockedWhileAcquiring: true},
		{info: info("TriggerMode", vmb.FeatureEnum, rw, "AcquisitionControl", ""), s: "Off", enum: []string{"Off", "On"}},
		{info: info("UserData", vmb.FeatureRaw, rw, "DeviceControl", ""), raw: []byte{}},
		{info: info("AcquisitionStart", vmb.FeatureCommand, wo, "AcquisitionControl", "")},
		{info: info("AcquisitionStop", vmb.FeatureCommand, wo, "AcquisitionControl", "")},
		{info: info("TriggerSoftware", vmb.FeatureCommand, wo, "AcquisitionControl", "")},
	}
	out := make(map[string]*feature, len(fs))
	for _, f := range fs {
		out[f.info.Name] = f
	}
	return out
}

func info(name string, t vmb.FeatureType, flags vmb.FeatureFlags, category, unit string) vmb.FeatureInfo {
	return vmb.FeatureInfo{Name: name, Type: t, Flags: flags, Category: category, DisplayName: name, Unit: unit}
}

func (f *feature) inRange(v float64) bool {
	return !f.ranged || (v >= f.min && v <= f.max)
}

func (f *feature) hasEntry(s string) bool {
	for _, e := range f.enum {
		if e == s {
			return true
		}
	}
	return false
}
