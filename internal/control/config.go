package control

import (
	"github.com/rs/zerolog"

	"mantacam/internal/acquire"
	"mantacam/internal/camera"
)

const defaultSubscriberBuffer = 16

// Config encapsulates the tunables of a Service.
type Config struct {
	// System must be started before New is called.
	System *camera.System
	// DriverName is reported by Status.
	DriverName string
	// Buffers is the default frame count for streams started without one.
	Buffers int
	// SubscriberBuffer is the channel capacity of each event subscriber.
	SubscriberBuffer int
	Logger           zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.Buffers <= 0 {
		c.Buffers = acquire.DefaultBuffers
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = defaultSubscriberBuffer
	}
	if c.DriverName == "" {
		c.DriverName = "sim"
	}
}
