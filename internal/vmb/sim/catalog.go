package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mantacam/internal/vmb"
)

// CameraSpec describes one simulated camera.
type CameraSpec struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	Model         string  `yaml:"model" json:"model"`
	Serial        string  `yaml:"serial" json:"serial"`
	Interface     string  `yaml:"interface" json:"interface"`
	InterfaceType string  `yaml:"interface_type" json:"interface_type"`
	Width         int     `yaml:"width" json:"width"`
	Height        int     `yaml:"height" json:"height"`
	PixelFormat   string  `yaml:"pixel_format" json:"pixel_format"`
	FrameRate     float64 `yaml:"frame_rate" json:"frame_rate"`
}

// InterfaceSpec describes one simulated transport interface.
type InterfaceSpec struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Serial string `yaml:"serial" json:"serial"`
	Type   string `yaml:"type" json:"type"`
}

// Catalog is the set of interfaces and cameras a Driver exposes.
type Catalog struct {
	Interfaces []InterfaceSpec `yaml:"interfaces" json:"interfaces"`
	Cameras    []CameraSpec    `yaml:"cameras" json:"cameras"`
}

// DefaultCatalog is used when no catalog file is configured: one GigE Manta
// streaming Mono8 and one USB camera streaming Mono12.
func DefaultCatalog() Catalog {
	return Catalog{
		Interfaces: []InterfaceSpec{
			{ID: "eth0", Name: "Simulated GigE NIC", Serial: "SIM-NIC-0", Type: "gige"},
			{ID: "usb0", Name: "Simulated USB3 host", Serial: "SIM-USB-0", Type: "usb"},
		},
		Cameras: []CameraSpec{
			{ID: "DEV_000F31000001", Name: "Manta G-125B", Model: "Manta G-125B", Serial: "50-0503300001",
				Interface: "eth0", InterfaceType: "gige", Width: 1292, Height: 964, PixelFormat: "Mono8", FrameRate: 10},
			{ID: "DEV_1AB22C000002", Name: "Alvium 1800 U-240m", Model: "1800 U-240m", Serial: "0402A0000002",
				Interface: "usb0", InterfaceType: "usb", Width: 1936, Height: 1216, PixelFormat: "Mono12", FrameRate: 10},
		},
	}
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	var cat Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return cat, err
	}
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return cat, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, c := range cat.Cameras {
		if err := c.validate(); err != nil {
			return Catalog{}, fmt.Errorf("camera %d: %w", i, err)
		}
	}
	return cat, nil
}

func (c CameraSpec) validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%s: width and height must be positive", c.ID)
	}
	if c.PixelFormat != "" {
		if _, err := vmb.ParsePixelFormat(c.PixelFormat); err != nil {
			return fmt.Errorf("%s: %w", c.ID, err)
		}
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("%s: negative frame rate", c.ID)
	}
	return nil
}

func (c CameraSpec) info(external bool) vmb.CameraInfo {
	name := c.Name
	if name == "" {
		name = c.ID
	}
	permitted := vmb.AccessFull | vmb.AccessRead | vmb.AccessConfig
	if external {
		permitted = vmb.AccessRead
	}
	return vmb.CameraInfo{
		ID:              c.ID,
		Name:            name,
		Model:           c.Model,
		Serial:          c.Serial,
		InterfaceID:     c.Interface,
		InterfaceType:   vmb.ParseInterfaceType(c.InterfaceType),
		PermittedAccess: permitted,
	}
}

func (c CameraSpec) pixelFormat() vmb.PixelFormat {
	if pf, err := vmb.ParsePixelFormat(c.PixelFormat); err == nil {
		return pf
	}
	return vmb.PixelMono8
}
