package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mantacam/internal/acquire"
	"mantacam/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Interfaces() ([]types.Interface, error)
	Cameras() ([]types.Camera, error)
	Camera(id string) (types.Camera, error)
	Open(id, access string) (types.Camera, error)
	Close(id string) error
	Feature(id, name string) (types.Feature, error)
	SetFeature(id, name string, value json.RawMessage) (types.Feature, error)
	RunCommand(id, name string) error
	StartStream(id string, buffers int) (types.StreamInfo, error)
	StopStream(id string) error
	Frame(ctx context.Context, id string, wait bool) (*acquire.Image, error)
	Subscribe() (<-chan types.CameraListEvent, func())
	Status() types.StatusResponse
	Ready() bool
}

type api struct{ svc Service }

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: frameHeaders,
			MaxAge:         300,
		}))
	}

	a := &api{svc: svc}
	r.Get("/interfaces", a.listInterfaces)
	r.Get("/cameras", a.listCameras)
	r.Get("/cameras/{id}", a.getCamera)
	r.Post("/cameras/{id}/open", a.openCamera)
	r.Post("/cameras/{id}/close", a.closeCamera)
	r.Get("/cameras/{id}/features/{name}", a.getFeature)
	r.Put("/cameras/{id}/features/{name}", a.setFeature)
	r.Post("/cameras/{id}/commands/{name}", a.runCommand)
	r.Post("/cameras/{id}/stream", a.startStream)
	r.Delete("/cameras/{id}/stream", a.stopStream)
	r.Get("/cameras/{id}/frame", a.getFrame)
	r.Get("/events", a.events)
	r.Get("/status", a.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not started"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// listInterfaces godoc
// @Summary  List transport interfaces
// @Tags     cameras
// @Produce  json
// @Success  200 {object} types.InterfacesResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /interfaces [get]
func (a *api) listInterfaces(w http.ResponseWriter, r *http.Request) {
	ifs, err := a.svc.Interfaces()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.InterfacesResponse{Interfaces: ifs})
}

// listCameras godoc
// @Summary  List cameras
// @Tags     cameras
// @Produce  json
// @Success  200 {object} types.CamerasResponse
// @Router   /cameras [get]
func (a *api) listCameras(w http.ResponseWriter, r *http.Request) {
	cams, err := a.svc.Cameras()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.CamerasResponse{Cameras: cams})
}

// getCamera godoc
// @Summary  Describe a camera
// @Tags     cameras
// @Produce  json
// @Param    id path string true "camera id"
// @Success  200 {object} types.Camera
// @Failure  404 {object} types.ErrorResponse
// @Router   /cameras/{id} [get]
func (a *api) getCamera(w http.ResponseWriter, r *http.Request) {
	cam, err := a.svc.Camera(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

// openCamera godoc
// @Summary  Open a camera
// @Tags     cameras
// @Accept   json
// @Produce  json
// @Param    id   path string            true  "camera id"
// @Param    body body types.OpenRequest false "access mode"
// @Success  200 {object} types.Camera
// @Failure  403 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /cameras/{id}/open [post]
func (a *api) openCamera(w http.ResponseWriter, r *http.Request) {
	var req types.OpenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cam, err := a.svc.Open(chi.URLParam(r, "id"), req.Access)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

// closeCamera godoc
// @Summary  Close a camera, stopping its stream first
// @Tags     cameras
// @Param    id path string true "camera id"
// @Success  204
// @Failure  409 {object} types.ErrorResponse
// @Router   /cameras/{id}/close [post]
func (a *api) closeCamera(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getFeature godoc
// @Summary  Read a feature
// @Tags     features
// @Produce  json
// @Param    id   path string true "camera id"
// @Param    name path string true "feature name"
// @Success  200 {object} types.Feature
// @Failure  404 {object} types.ErrorResponse
// @Router   /cameras/{id}/features/{name} [get]
func (a *api) getFeature(w http.ResponseWriter, r *http.Request) {
	f, err := a.svc.Feature(chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// setFeature godoc
// @Summary  Write a feature
// @Tags     features
// @Accept   json
// @Produce  json
// @Param    id   path string                  true "camera id"
// @Param    name path string                  true "feature name"
// @Param    body body types.SetFeatureRequest true "new value"
// @Success  200 {object} types.Feature
// @Failure  400 {object} types.ErrorResponse
// @Failure  403 {object} types.ErrorResponse
// @Router   /cameras/{id}/features/{name} [put]
func (a *api) setFeature(w http.ResponseWriter, r *http.Request) {
	var req types.SetFeatureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := a.svc.SetFeature(chi.URLParam(r, "id"), chi.URLParam(r, "name"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// runCommand godoc
// @Summary  Run a command feature
// @Tags     features
// @Param    id   path string true "camera id"
// @Param    name path string true "command name"
// @Success  204
// @Failure  400 {object} types.ErrorResponse
// @Router   /cameras/{id}/commands/{name} [post]
func (a *api) runCommand(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.RunCommand(chi.URLParam(r, "id"), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startStream godoc
// @Summary  Start acquisition
// @Tags     stream
// @Accept   json
// @Produce  json
// @Param    id   path string              true  "camera id"
// @Param    body body types.StreamRequest false "buffer count"
// @Success  201 {object} types.StreamInfo
// @Failure  409 {object} types.ErrorResponse
// @Router   /cameras/{id}/stream [post]
func (a *api) startStream(w http.ResponseWriter, r *http.Request) {
	var req types.StreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	info, err := a.svc.StartStream(chi.URLParam(r, "id"), req.Buffers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// stopStream godoc
// @Summary  Stop acquisition
// @Tags     stream
// @Param    id path string true "camera id"
// @Success  204
// @Failure  404 {object} types.ErrorResponse
// @Router   /cameras/{id}/stream [delete]
func (a *api) stopStream(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.StopStream(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var frameHeaders = []string{
	"X-Frame-Id", "X-Frame-Seq", "X-Frame-Status", "X-Frame-Timestamp",
	"X-Frame-Width", "X-Frame-Height", "X-Frame-Offset-X", "X-Frame-Offset-Y",
	"X-Frame-Stride", "X-Pixel-Format", "X-Bits-Per-Pixel",
}

// getFrame godoc
// @Summary      Fetch the latest image
// @Description  Returns raw pixel bytes; geometry is carried in X-Frame-* headers.
// @Description  With wait=1 the request blocks for an image newer than the current one.
// @Tags         stream
// @Produce      octet-stream
// @Param        id   path  string true  "camera id"
// @Param        wait query bool   false "wait for a new image"
// @Success      200 {file} binary
// @Failure      404 {object} types.ErrorResponse
// @Failure      504 {object} types.ErrorResponse
// @Router       /cameras/{id}/frame [get]
func (a *api) getFrame(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	ctx, cancel := requestContext(r)
	defer cancel()
	if wait {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, frameWaitTimeout)
		defer tcancel()
	}
	img, err := a.svc.Frame(ctx, chi.URLParam(r, "id"), wait)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.Itoa(len(img.Data)))
	h.Set("X-Frame-Id", strconv.FormatUint(img.FrameID, 10))
	h.Set("X-Frame-Seq", strconv.FormatUint(img.Seq, 10))
	h.Set("X-Frame-Status", img.Status.String())
	h.Set("X-Frame-Timestamp", strconv.FormatUint(img.Timestamp, 10))
	h.Set("X-Frame-Width", strconv.Itoa(img.Width))
	h.Set("X-Frame-Height", strconv.Itoa(img.Height))
	h.Set("X-Frame-Offset-X", strconv.Itoa(img.OffsetX))
	h.Set("X-Frame-Offset-Y", strconv.Itoa(img.OffsetY))
	h.Set("X-Frame-Stride", strconv.Itoa(img.StrideBytes))
	h.Set("X-Pixel-Format", img.PixelFormat.String())
	h.Set("X-Bits-Per-Pixel", strconv.Itoa(img.BitsPerPixel))
	w.WriteHeader(http.StatusOK)
	n, _ := w.Write(img.Data)
	frameBytesServed.Add(float64(n))
}

// events godoc
// @Summary      Stream camera list changes
// @Description  NDJSON, one types.CameraListEvent per line, until the client disconnects.
// @Tags         cameras
// @Produce      x-ndjson
// @Success      200 {object} types.CameraListEvent
// @Router       /events [get]
func (a *api) events(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	ch, unsubscribe := a.svc.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// status godoc
// @Summary  Service status
// @Tags     status
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func (a *api) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Status())
}
