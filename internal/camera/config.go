package camera

import (
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/vmb"
)

// Defaults applied when corresponding SystemConfig fields are unset.
const (
	defaultEndCaptureTimeout = 5 * time.Second
)

// SystemConfig encapsulates all tunables for System construction.
type SystemConfig struct {
	Driver vmb.Driver
	Logger zerolog.Logger
	// Publisher receives lifecycle events. Defaults to a no-op publisher.
	Publisher EventPublisher
	// EndCaptureTimeout bounds how long EndCapture waits for running frame
	// callbacks before failing with KindTimeout.
	EndCaptureTimeout time.Duration
}

// NewSystem constructs a System from SystemConfig. The driver is not started
// until Start.
func NewSystem(cfg SystemConfig) *System {
	s := &System{
		drv:     cfg.Driver,
		log:     cfg.Logger,
		pub:     cfg.Publisher,
		state:   SystemUninitialized,
		cameras: make(map[string]*Camera),
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	if cfg.EndCaptureTimeout <= 0 {
		s.endTimeout = defaultEndCaptureTimeout
	} else {
		s.endTimeout = cfg.EndCaptureTimeout
	}
	return s
}
