// Package control exposes a camera.System to the HTTP layer: camera
// lifecycle, typed feature access from JSON, acquisition streams and a
// fan-out of hot-plug events.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/acquire"
	"mantacam/internal/camera"
	"mantacam/internal/vmb"
	"mantacam/pkg/types"
)

// Service is safe for concurrent use.
type Service struct {
	sys     *camera.System
	driver  string
	buffers int
	subBuf  int
	log     zerolog.Logger
	start   time.Time

	mu        sync.RWMutex
	streams   map[string]*acquire.Stream
	subs      map[uint64]chan types.CameraListEvent
	nextSub   uint64
	events    uint64
	dropped   uint64
	lastErr   string
	closed    bool
	cancelObs func()
}

// New builds a Service over cfg.System and subscribes to its hot-plug
// notifications.
func New(cfg Config) (*Service, error) {
	cfg.applyDefaults()
	s := &Service{
		sys:     cfg.System,
		driver:  cfg.DriverName,
		buffers: cfg.Buffers,
		subBuf:  cfg.SubscriberBuffer,
		log:     cfg.Logger,
		start:   time.Now(),
		streams: make(map[string]*acquire.Stream),
		subs:    make(map[uint64]chan types.CameraListEvent),
	}
	cancel, err := s.sys.RegisterCameraListObserver(camera.CameraListObserverFunc(s.cameraListChanged))
	if err != nil {
		return nil, err
	}
	s.cancelObs = cancel
	return s, nil
}

// Close stops every stream, drops the hot-plug subscription and closes all
// subscriber channels. The System itself is left to the caller.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	streams := s.streams
	s.streams = make(map[string]*acquire.Stream)
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	s.cancelObs()
	for id, st := range streams {
		if err := st.Stop(); err != nil {
			s.log.Warn().Err(err).Str("camera", id).Msg("stop stream on close")
		}
	}
}

// Ready reports whether the underlying system is started.
func (s *Service) Ready() bool { return s.sys.State() == camera.SystemStarted }

func (s *Service) noteErr(err error) error {
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
	}
	return err
}

func (s *Service) Interfaces() ([]types.Interface, error) {
	ifs, err := s.sys.Interfaces()
	if err != nil {
		return nil, s.noteErr(err)
	}
	out := make([]types.Interface, 0, len(ifs))
	for _, i := range ifs {
		out = append(out, types.Interface{ID: i.ID, Name: i.Name, Serial: i.Serial, Type: i.Type.String()})
	}
	return out, nil
}

func (s *Service) Cameras() ([]types.Camera, error) {
	cams, err := s.sys.Cameras()
	if err != nil {
		return nil, s.noteErr(err)
	}
	out := make([]types.Camera, 0, len(cams))
	for _, c := range cams {
		out = append(out, s.cameraDTO(c))
	}
	return out, nil
}

func (s *Service) Camera(id string) (types.Camera, error) {
	c, err := s.sys.CameraByID(id)
	if err != nil {
		return types.Camera{}, err
	}
	return s.cameraDTO(c), nil
}

func (s *Service) cameraDTO(c *camera.Camera) types.Camera {
	dto := types.Camera{
		ID:              c.ID(),
		Name:            c.Name(),
		Model:           c.Model(),
		Serial:          c.Serial(),
		InterfaceID:     c.InterfaceID(),
		InterfaceType:   c.InterfaceType().String(),
		PermittedAccess: c.PermittedAccess().String(),
		State:           string(c.State()),
	}
	if m := c.AccessMode(); m != camera.AccessNone {
		dto.AccessMode = m.String()
	}
	s.mu.RLock()
	if st := s.streams[c.ID()]; st != nil {
		dto.StreamID = st.ID()
	}
	s.mu.RUnlock()
	return dto
}

// Open opens camera id in the named access mode ("" means full).
func (s *Service) Open(id, access string) (types.Camera, error) {
	mode, err := vmb.ParseAccessMode(access)
	if err != nil {
		return types.Camera{}, badRequest(err.Error())
	}
	c, err := s.sys.CameraByID(id)
	if err != nil {
		return types.Camera{}, err
	}
	if err := c.Open(mode); err != nil {
		return types.Camera{}, s.noteErr(err)
	}
	s.log.Info().Str("camera", id).Str("access", mode.String()).Msg("camera opened")
	return s.cameraDTO(c), nil
}

// Close stops the camera's stream, if any, and closes it.
func (s *Service) Close(id string) error {
	c, err := s.sys.CameraByID(id)
	if err != nil {
		return err
	}
	if err := s.StopStream(id); err != nil && !IsNotAvailable(err) {
		return err
	}
	return s.noteErr(c.Close())
}

// StartStream starts an acquisition stream with buffers frames (0 selects
// the configured default).
func (s *Service) StartStream(id string, buffers int) (types.StreamInfo, error) {
	if buffers < 0 {
		return types.StreamInfo{}, badRequest("buffers must not be negative")
	}
	if buffers == 0 {
		buffers = s.buffers
	}
	c, err := s.sys.CameraByID(id)
	if err != nil {
		return types.StreamInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.StreamInfo{}, conflict("service is closed")
	}
	if st := s.streams[id]; st != nil {
		if st.Stopped() {
			return types.StreamInfo{}, conflict("stream on " + id + " is still stopping; retry the stop")
		}
		return types.StreamInfo{}, conflict("stream already running on " + id)
	}
	st, err := acquire.Start(c, acquire.Config{Buffers: buffers, Logger: s.log})
	if err != nil {
		s.lastErr = err.Error()
		return types.StreamInfo{}, err
	}
	s.streams[id] = st
	return streamInfo(st), nil
}

// StopStream stops the stream on camera id. The camera stays open. A stream
// whose stop failed stays registered so the stop can be retried.
func (s *Service) StopStream(id string) error {
	s.mu.RLock()
	st := s.streams[id]
	s.mu.RUnlock()
	if st == nil {
		return notAvailable("no stream on " + id)
	}
	if err := st.Stop(); err != nil {
		return s.noteErr(err)
	}
	s.mu.Lock()
	if s.streams[id] == st {
		delete(s.streams, id)
	}
	s.mu.Unlock()
	return nil
}

// Frame returns the latest image of the stream on camera id. With wait set
// it blocks for an image newer than the current one, bounded by ctx.
func (s *Service) Frame(ctx context.Context, id string, wait bool) (*acquire.Image, error) {
	s.mu.RLock()
	st := s.streams[id]
	s.mu.RUnlock()
	if st == nil {
		return nil, notAvailable("no stream on " + id)
	}
	if st.Stopped() {
		return nil, notAvailable("stream on " + id + " stopped")
	}
	if wait {
		img, err := st.Next(ctx)
		if err == acquire.ErrStopped {
			return nil, notAvailable("stream on " + id + " stopped")
		}
		return img, err
	}
	img := st.Latest()
	if img == nil {
		return nil, notAvailable("no frame received yet on " + id)
	}
	return img, nil
}

func streamInfo(st *acquire.Stream) types.StreamInfo {
	stats := st.Stats()
	return types.StreamInfo{
		ID:       st.ID(),
		CameraID: st.Camera().ID(),
		Buffers:  st.Buffers(),
		Stats: types.StreamStats{
			Delivered:  stats.Delivered,
			Incomplete: stats.Incomplete,
			Dropped:    stats.Dropped,
			Bytes:      stats.Bytes,
		},
		Stopping: st.Stopped(),
	}
}
