package camera

import (
	"mantacam/internal/vmb"
)

type listObserver struct {
	id  uint64
	obs CameraListObserver
}

// RegisterCameraListObserver adds o to the observers notified of hot-plug
// events, in registration order. The returned function unregisters o.
func (s *System) RegisterCameraListObserver(o CameraListObserver) (func(), error) {
	const op = "register_camera_list_observer"
	if o == nil {
		return nil, newError(op, KindBadParameter, "nil observer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SystemStarted {
		return nil, newError(op, KindApiNotStarted, "system is %s", s.state)
	}
	if !s.listening {
		if err := translate(op, s.drv.RegisterCameraListCallback(s.cameraListChanged)); err != nil {
			return nil, err
		}
		s.listening = true
	}
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, &listObserver{id: id, obs: o})
	return func() { s.unregisterObserver(id) }, nil
}

func (s *System) unregisterObserver(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, lo := range s.observers {
		if lo.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			break
		}
	}
	if len(s.observers) == 0 && s.listening && s.state == SystemStarted {
		_ = s.drv.UnregisterCameraListCallback()
		s.listening = false
	}
}

// cameraListChanged runs on the driver's discovery goroutine. It keeps the
// camera cache consistent with the event, then notifies observers in order.
func (s *System) cameraListChanged(info vmb.CameraInfo, trigger vmb.UpdateTrigger) {
	s.mu.Lock()
	if s.state != SystemStarted {
		s.mu.Unlock()
		return
	}
	var c *Camera
	switch trigger {
	case vmb.TriggerPluggedOut:
		c = s.cameras[info.ID]
		if c == nil {
			c = newCamera(s, info)
		}
		delete(s.cameras, info.ID)
	default:
		c = s.cameraLocked(info)
	}
	observers := make([]*listObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	if trigger == vmb.TriggerPluggedOut {
		c.detach()
	}

	hotplugTotal.WithLabelValues(trigger.String()).Inc()
	c.log.Info().Str("trigger", trigger.String()).Msg("camera list changed")
	s.pub.Publish(Event{Name: EventCameraListChanged, CameraID: info.ID, Fields: map[string]any{"trigger": trigger.String()}})
	for _, lo := range observers {
		s.notify(lo.obs, c, trigger)
	}
}

func (s *System) notify(o CameraListObserver, c *Camera, trigger UpdateTrigger) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("camera", c.ID()).Msg("camera list observer panicked")
		}
	}()
	o.CameraListChanged(c, trigger)
}
