package control

import (
	"time"

	"github.com/google/uuid"

	"mantacam/internal/camera"
	"mantacam/pkg/types"
)

// Subscribe returns a channel of hot-plug events and a function that ends
// the subscription. Events are dropped for a subscriber whose channel is
// full. The channel is closed by cancel or by Close.
func (s *Service) Subscribe() (<-chan types.CameraListEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan types.CameraListEvent, s.subBuf)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	subscribers.Set(float64(len(s.subs)))
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
			subscribers.Set(float64(len(s.subs)))
		}
	}
}

// cameraListChanged runs on the driver's discovery goroutine and must not
// block it.
func (s *Service) cameraListChanged(c *camera.Camera, trigger camera.UpdateTrigger) {
	if trigger == camera.PluggedOut {
		s.mu.Lock()
		st := s.streams[c.ID()]
		delete(s.streams, c.ID())
		s.mu.Unlock()
		if st != nil {
			_ = st.Stop()
			s.log.Warn().Str("camera", c.ID()).Msg("stream ended by plug-out")
		}
	}

	ev := types.CameraListEvent{
		ID:         uuid.NewString(),
		Trigger:    trigger.String(),
		Camera:     s.cameraDTO(c),
		TimeUnixMS: time.Now().UnixMilli(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events++
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.dropped++
			eventsDroppedTotal.Inc()
		}
	}
}
