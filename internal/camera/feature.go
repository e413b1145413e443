package camera

import (
	"mantacam/internal/vmb"
)

// Feature is a named device parameter of a fixed declared type. Values are
// read and written through the driver on every call; nothing is cached.
// Range checks are left to the driver.
type Feature struct {
	cam  *Camera
	info vmb.FeatureInfo
}

func (f *Feature) Name() string      { return f.info.Name }
func (f *Feature) Type() FeatureType { return f.info.Type }
func (f *Feature) Info() FeatureInfo { return f.info }

// Commandable reports whether the feature is a command.
func (f *Feature) Commandable() bool { return f.info.Type == vmb.FeatureCommand }

// access checks the declared type against want and, for writes, the access
// mode the camera is open in. Both are caller errors detected before the
// driver is involved.
func (f *Feature) access(op string, write bool, want ...FeatureType) (vmb.Handle, error) {
	h, mode, err := f.cam.openHandle(op)
	if err != nil {
		return 0, err
	}
	ok := false
	for _, t := range want {
		if f.info.Type == t {
			ok = true
			break
		}
	}
	if !ok {
		return 0, newError(op, KindWrongType, "%s is %s", f.info.Name, f.info.Type)
	}
	if write && mode != AccessFull && mode != AccessConfig {
		return 0, newError(op, KindInvalidAccess, "%s: camera is open %s", f.info.Name, mode)
	}
	return h, nil
}

func (f *Feature) Float() (float64, error) {
	h, err := f.access("get_float", false, vmb.FeatureFloat)
	if err != nil {
		return 0, err
	}
	v, st := f.cam.sys.drv.FeatureFloat(h, f.info.Name)
	if err := translate("get_float", st); err != nil {
		return 0, err
	}
	return v, nil
}

func (f *Feature) SetFloat(v float64) error {
	h, err := f.access("set_float", true, vmb.FeatureFloat)
	if err != nil {
		return err
	}
	return translate("set_float", f.cam.sys.drv.SetFeatureFloat(h, f.info.Name, v))
}

func (f *Feature) Int() (int64, error) {
	h, err := f.access("get_int", false, vmb.FeatureInt)
	if err != nil {
		return 0, err
	}
	v, st := f.cam.sys.drv.FeatureInt(h, f.info.Name)
	if err := translate("get_int", st); err != nil {
		return 0, err
	}
	return v, nil
}

func (f *Feature) SetInt(v int64) error {
	h, err := f.access("set_int", true, vmb.FeatureInt)
	if err != nil {
		return err
	}
	return translate("set_int", f.cam.sys.drv.SetFeatureInt(h, f.info.Name, v))
}

func (f *Feature) Bool() (bool, error) {
	h, err := f.access("get_bool", false, vmb.FeatureBool)
	if err != nil {
		return false, err
	}
	v, st := f.cam.sys.drv.FeatureBool(h, f.info.Name)
	if err := translate("get_bool", st); err != nil {
		return false, err
	}
	return v, nil
}

func (f *Feature) SetBool(v bool) error {
	h, err := f.access("set_bool", true, vmb.FeatureBool)
	if err != nil {
		return err
	}
	return translate("set_bool", f.cam.sys.drv.SetFeatureBool(h, f.info.Name, v))
}

// StringValue reads a string feature or the current entry of an enum feature.
func (f *Feature) StringValue() (string, error) {
	h, err := f.access("get_string", false, vmb.FeatureString, vmb.FeatureEnum)
	if err != nil {
		return "", err
	}
	v, st := f.cam.sys.drv.FeatureString(h, f.info.Name)
	if err := translate("get_string", st); err != nil {
		return "", err
	}
	return v, nil
}

// SetString writes a string feature or selects an enum entry by name.
func (f *Feature) SetString(v string) error {
	h, err := f.access("set_string", true, vmb.FeatureString, vmb.FeatureEnum)
	if err != nil {
		return err
	}
	return translate("set_string", f.cam.sys.drv.SetFeatureString(h, f.info.Name, v))
}

func (f *Feature) Bytes() ([]byte, error) {
	h, err := f.access("get_raw", false, vmb.FeatureRaw)
	if err != nil {
		return nil, err
	}
	v, st := f.cam.sys.drv.FeatureRaw(h, f.info.Name)
	if err := translate("get_raw", st); err != nil {
		return nil, err
	}
	return v, nil
}

func (f *Feature) SetBytes(v []byte) error {
	h, err := f.access("set_raw", true, vmb.FeatureRaw)
	if err != nil {
		return err
	}
	return translate("set_raw", f.cam.sys.drv.SetFeatureRaw(h, f.info.Name, v))
}

// RunCommand issues a command feature. Commands may complete asynchronously;
// poll IsCommandDone when completion matters.
func (f *Feature) RunCommand() error {
	h, err := f.access("run_command", true, vmb.FeatureCommand)
	if err != nil {
		return err
	}
	return translate("run_command", f.cam.sys.drv.RunCommand(h, f.info.Name))
}

func (f *Feature) IsCommandDone() (bool, error) {
	h, err := f.access("command_done", true, vmb.FeatureCommand)
	if err != nil {
		return false, err
	}
	v, st := f.cam.sys.drv.CommandDone(h, f.info.Name)
	if err := translate("command_done", st); err != nil {
		return false, err
	}
	return v, nil
}

// Value is the set of Go types a feature can be read or written as.
type Value interface {
	float64 | int64 | string | bool | []byte
}

// Get reads f as T, failing with KindWrongType when T does not match the
// feature's declared type.
func Get[T Value](f *Feature) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *float64:
		*p, err = f.Float()
	case *int64:
		*p, err = f.Int()
	case *string:
		*p, err = f.StringValue()
	case *bool:
		*p, err = f.Bool()
	case *[]byte:
		*p, err = f.Bytes()
	}
	return out, err
}

// Set writes v to f, failing with KindWrongType when T does not match the
// feature's declared type.
func Set[T Value](f *Feature, v T) error {
	switch x := any(v).(type) {
	case float64:
		return f.SetFloat(x)
	case int64:
		return f.SetInt(x)
	case string:
		return f.SetString(x)
	case bool:
		return f.SetBool(x)
	case []byte:
		return f.SetBytes(x)
	}
	return newError("set", KindWrongType, "unsupported value type %T", v)
}
