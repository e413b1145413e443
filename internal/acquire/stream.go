// Package acquire turns the camera frame callback into a pull API. A Stream
// copies every delivered frame into a single-slot mailbox that readers poll
// with Latest or block on with Next.
package acquire

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mantacam/internal/camera"
	"mantacam/internal/vmb"
)

// ErrStopped is returned by Next once the stream has been stopped.
var ErrStopped = errors.New("acquire: stream stopped")

// DefaultBuffers is the number of frames announced when Config.Buffers is unset.
const DefaultBuffers = 3

// Config controls a Stream.
type Config struct {
	Buffers int
	Logger  zerolog.Logger
}

// Image is a copy of one delivered frame. It stays valid after the frame
// buffer is re-queued.
type Image struct {
	Seq          uint64
	FrameID      uint64
	Timestamp    uint64
	Status       camera.FrameStatus
	PixelFormat  camera.PixelFormat
	Width        int
	Height       int
	OffsetX      int
	OffsetY      int
	StrideBytes  int
	BitsPerPixel int
	ReceivedAt   time.Time
	Data         []byte
}

// Stats counts stream activity since Start.
type Stats struct {
	Delivered  uint64 `json:"delivered"`
	Incomplete uint64 `json:"incomplete"`
	// Dropped counts images replaced in the mailbox before anyone read them.
	Dropped uint64 `json:"dropped"`
	Bytes   uint64 `json:"bytes"`
}

// Stream is a running acquisition on one camera.
type Stream struct {
	id     string
	cam    *camera.Camera
	log    zerolog.Logger
	frames []*camera.Frame

	mu      sync.Mutex
	latest  *Image
	read    bool
	seq     uint64
	wake    chan struct{}
	stopped bool
	stats   Stats

	// stopMu serializes Stop; halted is set once the camera is released.
	stopMu sync.Mutex
	halted bool
}

// Start announces cfg.Buffers frames sized from the camera's PayloadSize,
// starts capture and runs AcquisitionStart. The camera must be open with
// full access and the stream owns its frame pool until Stop: any frames
// announced to it are revoked on failure and on Stop.
func Start(cam *camera.Camera, cfg Config) (*Stream, error) {
	if cfg.Buffers <= 0 {
		cfg.Buffers = DefaultBuffers
	}
	s := &Stream{
		id:   uuid.NewString(),
		cam:  cam,
		wake: make(chan struct{}),
	}
	s.log = cfg.Logger.With().Str("camera", cam.ID()).Str("stream", s.id).Logger()

	frames, err := cam.AllocateFrames(cfg.Buffers)
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		f.RegisterObserver(camera.FrameObserverFunc(s.frameReceived))
		if err := cam.AnnounceFrame(f); err != nil {
			s.unwind(false)
			return nil, err
		}
		s.frames = append(s.frames, f)
	}
	for _, f := range s.frames {
		if err := cam.QueueFrame(f); err != nil {
			s.unwind(false)
			return nil, err
		}
	}
	if err := cam.StartCapture(); err != nil {
		s.unwind(false)
		return nil, err
	}
	if err := cam.RunCommand("AcquisitionStart"); err != nil {
		s.unwind(true)
		return nil, err
	}
	activeStreams.Inc()
	s.log.Info().Int("buffers", len(s.frames)).Msg("stream started")
	return s, nil
}

func (s *Stream) unwind(capturing bool) {
	if capturing {
		if err := s.cam.EndCapture(); err != nil {
			s.log.Warn().Err(err).Msg("end capture after failed start")
		}
	}
	if err := s.cam.RevokeAllFrames(); err != nil {
		s.log.Warn().Err(err).Msg("revoke frames after failed start")
	}
	s.frames = nil
}

func (s *Stream) ID() string             { return s.id }
func (s *Stream) Camera() *camera.Camera { return s.cam }
func (s *Stream) Buffers() int           { return len(s.frames) }

// frameReceived runs on the driver's delivery goroutine. It copies the image
// out and never blocks on readers.
func (s *Stream) frameReceived(f *camera.Frame) {
	view, err := f.ImageView()
	complete := err == nil && f.Status() == vmb.FrameComplete

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stats.Delivered++
	if !complete {
		s.stats.Incomplete++
		framesTotal.WithLabelValues("incomplete").Inc()
	}
	if err != nil {
		return
	}
	x, y := f.Offset()
	img := &Image{
		FrameID:      f.FrameID(),
		Timestamp:    f.Timestamp(),
		Status:       f.Status(),
		PixelFormat:  view.PixelFormat,
		Width:        view.Cols,
		Height:       view.Rows,
		OffsetX:      x,
		OffsetY:      y,
		StrideBytes:  view.StrideBytes,
		BitsPerPixel: view.BitsPerPixel,
		ReceivedAt:   time.Now(),
		Data:         append([]byte(nil), view.Data...),
	}
	if s.latest != nil && !s.read {
		s.stats.Dropped++
		framesTotal.WithLabelValues("dropped").Inc()
	}
	if complete {
		framesTotal.WithLabelValues("complete").Inc()
	}
	s.seq++
	img.Seq = s.seq
	s.latest = img
	s.read = false
	s.stats.Bytes += uint64(len(img.Data))
	close(s.wake)
	s.wake = make(chan struct{})
}

// Latest returns the most recent image, or nil before the first delivery.
func (s *Stream) Latest() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil {
		s.read = true
	}
	return s.latest
}

// Next blocks until an image newer than the current latest arrives.
func (s *Stream) Next(ctx context.Context) (*Image, error) {
	s.mu.Lock()
	after := s.seq
	s.mu.Unlock()
	return s.NextAfter(ctx, after)
}

// NextAfter blocks until an image with Seq greater than after is available
// and returns it.
func (s *Stream) NextAfter(ctx context.Context, after uint64) (*Image, error) {
	for {
		s.mu.Lock()
		if s.latest != nil && s.latest.Seq > after {
			img := s.latest
			s.read = true
			s.mu.Unlock()
			return img, nil
		}
		if s.stopped {
			s.mu.Unlock()
			return nil, ErrStopped
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stopped reports whether Stop has been called.
func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop runs AcquisitionStop, ends capture and revokes the stream's frames.
// Readers are woken on the first call. If ending capture or revoking fails,
// for instance when EndCapture times out on a slow observer, a later call
// retries; once it has succeeded further calls return nil. A camera that was
// plugged out has nothing left to stop.
func (s *Stream) Stop() error {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if s.halted {
		return nil
	}
	s.mu.Lock()
	first := !s.stopped
	if first {
		s.stopped = true
		close(s.wake)
		s.wake = make(chan struct{})
	}
	s.mu.Unlock()
	if first {
		activeStreams.Dec()
	}

	if s.cam.Detached() {
		s.halted = true
		s.log.Info().Msg("stream stopped, camera gone")
		return nil
	}
	if first {
		if err := s.cam.RunCommand("AcquisitionStop"); err != nil {
			s.log.Debug().Err(err).Msg("AcquisitionStop")
		}
	}
	if s.cam.State() == camera.CameraCapturing {
		if err := s.cam.EndCapture(); err != nil && !camera.IsKind(err, camera.KindDeviceNotOpen) {
			return err
		}
	}
	if err := s.cam.RevokeAllFrames(); err != nil && !camera.IsKind(err, camera.KindDeviceNotOpen) {
		return err
	}
	s.halted = true
	st := s.Stats()
	s.log.Info().Uint64("delivered", st.Delivered).Uint64("dropped", st.Dropped).Msg("stream stopped")
	return nil
}
