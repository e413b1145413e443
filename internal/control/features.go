package control

import (
	"encoding/json"
	"fmt"

	"mantacam/internal/camera"
	"mantacam/internal/vmb"
	"mantacam/pkg/types"
)

// Feature describes feature name on camera id and reads its value when the
// feature is readable.
func (s *Service) Feature(id, name string) (types.Feature, error) {
	f, err := s.feature(id, name)
	if err != nil {
		return types.Feature{}, err
	}
	return s.describe(f)
}

// SetFeature decodes raw according to the feature's declared type, writes
// it and returns the feature as read back.
func (s *Service) SetFeature(id, name string, raw json.RawMessage) (types.Feature, error) {
	f, err := s.feature(id, name)
	if err != nil {
		return types.Feature{}, err
	}
	if len(raw) == 0 {
		return types.Feature{}, badRequest("value is required")
	}
	if err := s.noteErr(setJSON(f, raw)); err != nil {
		return types.Feature{}, err
	}
	s.log.Debug().Str("camera", id).Str("feature", name).RawJSON("value", raw).Msg("feature set")
	return s.describe(f)
}

// RunCommand runs command feature name on camera id.
func (s *Service) RunCommand(id, name string) error {
	f, err := s.feature(id, name)
	if err != nil {
		return err
	}
	return s.noteErr(f.RunCommand())
}

func (s *Service) feature(id, name string) (*camera.Feature, error) {
	c, err := s.sys.CameraByID(id)
	if err != nil {
		return nil, err
	}
	return c.Feature(name)
}

func (s *Service) describe(f *camera.Feature) (types.Feature, error) {
	info := f.Info()
	out := types.Feature{
		Name:        info.Name,
		Type:        info.Type.String(),
		Category:    info.Category,
		DisplayName: info.DisplayName,
		Unit:        info.Unit,
		Readable:    info.Readable(),
		Writable:    info.Writable(),
	}
	if !info.Readable() || f.Commandable() {
		return out, nil
	}
	v, err := getJSON(f)
	if err != nil {
		return types.Feature{}, s.noteErr(err)
	}
	out.Value = v
	return out, nil
}

func getJSON(f *camera.Feature) (any, error) {
	switch f.Type() {
	case vmb.FeatureInt:
		return camera.Get[int64](f)
	case vmb.FeatureFloat:
		return camera.Get[float64](f)
	case vmb.FeatureBool:
		return camera.Get[bool](f)
	case vmb.FeatureString, vmb.FeatureEnum:
		return camera.Get[string](f)
	case vmb.FeatureRaw:
		return camera.Get[[]byte](f)
	}
	return nil, nil
}

// setJSON coerces raw to the Go type of the feature. Raw features take a
// base64 string.
func setJSON(f *camera.Feature, raw json.RawMessage) error {
	switch f.Type() {
	case vmb.FeatureInt:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return badRequest(fmt.Sprintf("%s expects an integer", f.Name()))
		}
		return camera.Set(f, v)
	case vmb.FeatureFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return badRequest(fmt.Sprintf("%s expects a number", f.Name()))
		}
		return camera.Set(f, v)
	case vmb.FeatureBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return badRequest(fmt.Sprintf("%s expects a boolean", f.Name()))
		}
		return camera.Set(f, v)
	case vmb.FeatureString, vmb.FeatureEnum:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return badRequest(fmt.Sprintf("%s expects a string", f.Name()))
		}
		return camera.Set(f, v)
	case vmb.FeatureRaw:
		var v []byte
		if err := json.Unmarshal(raw, &v); err != nil {
			return badRequest(fmt.Sprintf("%s expects base64 data", f.Name()))
		}
		return camera.Set(f, v)
	case vmb.FeatureCommand:
		return badRequest(fmt.Sprintf("%s is a command; use the commands endpoint", f.Name()))
	}
	return badRequest(fmt.Sprintf("%s has unsupported type %s", f.Name(), f.Type()))
}
