package camera

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/vmb"
)

// System is the device registry: it owns the driver session, enumerates
// interfaces and cameras, and fans hot-plug notifications out to observers.
// A process should create one System per driver.
type System struct {
	drv        vmb.Driver
	log        zerolog.Logger
	pub        EventPublisher
	endTimeout time.Duration

	mu        sync.Mutex
	state     SystemState
	cameras   map[string]*Camera
	observers []*listObserver
	listening bool
	nextObs   uint64
}

func (s *System) State() SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *System) requireStarted(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SystemStarted {
		return newError(op, KindApiNotStarted, "system is %s", s.state)
	}
	return nil
}

// Start starts the driver session. Starting a started System is a no-op;
// a System that was shut down may be started again.
func (s *System) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SystemStarted {
		return nil
	}
	if err := translate("start", s.drv.Startup()); err != nil {
		return err
	}
	s.state = SystemStarted
	s.log.Info().Msg("camera system started")
	s.pub.Publish(Event{Name: EventSystemStart})
	return nil
}

// Shutdown closes every camera still open, stops hot-plug delivery and ends
// the driver session. Cameras obtained before Shutdown must not be reused.
func (s *System) Shutdown() error {
	const op = "shutdown"
	s.mu.Lock()
	if s.state != SystemStarted {
		st := s.state
		s.mu.Unlock()
		return newError(op, KindApiNotStarted, "system is %s", st)
	}
	var open []*Camera
	for _, c := range s.cameras {
		if c.State() != CameraClosed {
			open = append(open, c)
		}
	}
	s.mu.Unlock()

	for _, c := range open {
		c.teardown()
	}

	// Callbacks already running see ShutDown and return; the driver waits for
	// them in Shutdown, so s.mu must not be held there.
	s.mu.Lock()
	listening := s.listening
	s.listening = false
	s.observers = nil
	s.state = SystemShutDown
	s.cameras = make(map[string]*Camera)
	s.mu.Unlock()

	if listening {
		_ = s.drv.UnregisterCameraListCallback()
	}
	err := translate(op, s.drv.Shutdown())
	s.log.Info().Int("closed", len(open)).Msg("camera system shut down")
	s.pub.Publish(Event{Name: EventSystemShutdown})
	return err
}

// Interfaces lists the transport interfaces the driver sees.
func (s *System) Interfaces() ([]Interface, error) {
	const op = "interfaces"
	if err := s.requireStarted(op); err != nil {
		return nil, err
	}
	list, st := s.drv.Interfaces()
	if err := translate(op, st); err != nil {
		return nil, err
	}
	return list, nil
}

// Cameras lists the cameras currently attached, in driver order. A camera
// keeps the same *Camera across calls until it is plugged out.
func (s *System) Cameras() ([]*Camera, error) {
	const op = "cameras"
	if err := s.requireStarted(op); err != nil {
		return nil, err
	}
	infos, st := s.drv.Cameras()
	if err := translate(op, st); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(infos))
	out := make([]*Camera, 0, len(infos))
	for _, info := range infos {
		seen[info.ID] = true
		out = append(out, s.cameraLocked(info))
	}
	for id, c := range s.cameras {
		if !seen[id] && c.State() == CameraClosed {
			delete(s.cameras, id)
		}
	}
	return out, nil
}

// CameraByID returns the camera with the given id, or a KindNotFound error.
func (s *System) CameraByID(id string) (*Camera, error) {
	const op = "camera_by_id"
	if err := s.requireStarted(op); err != nil {
		return nil, err
	}
	info, st := s.drv.CameraInfo(id)
	if err := translate(op, st); err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindNotFound {
			e.Msg = id
		}
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraLocked(info), nil
}

// cameraLocked returns the cached camera for info, creating it when absent or
// when the cached one was plugged out. s.mu must be held.
func (s *System) cameraLocked(info vmb.CameraInfo) *Camera {
	if c, ok := s.cameras[info.ID]; ok && !c.Detached() {
		c.mu.Lock()
		c.permitted = info.PermittedAccess
		c.mu.Unlock()
		return c
	}
	c := newCamera(s, info)
	s.cameras[info.ID] = c
	return c
}
