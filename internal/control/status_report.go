package control

import (
	"sort"
	"time"

	"mantacam/internal/camera"
	"mantacam/pkg/types"
)

// Status builds the report served by GET /status.
func (s *Service) Status() types.StatusResponse {
	resp := types.StatusResponse{
		State:          string(s.sys.State()),
		Driver:         s.driver,
		ServerTimeUnix: time.Now().Unix(),
		UptimeSeconds:  int64(time.Since(s.start).Seconds()),
	}
	if cams, err := s.sys.Cameras(); err == nil {
		resp.Cameras = len(cams)
		for _, c := range cams {
			if c.State() != camera.CameraClosed {
				resp.OpenCameras++
			}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	resp.CameraListEvents = s.events
	resp.Subscribers = len(s.subs)
	resp.LastError = s.lastErr
	resp.Streams = make([]types.StreamInfo, 0, len(s.streams))
	for _, st := range s.streams {
		resp.Streams = append(resp.Streams, streamInfo(st))
	}
	sort.Slice(resp.Streams, func(i, j int) bool { return resp.Streams[i].CameraID < resp.Streams[j].CameraID })
	return resp
}
