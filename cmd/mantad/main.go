package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/acquire"
	"mantacam/internal/camera"
	"mantacam/internal/config"
	"mantacam/internal/control"
	"mantacam/internal/driver"
	"mantacam/internal/httpapi"
)

// defaults fills what neither file, env nor flags set.
var defaults = config.Config{
	Addr:                 ":8080",
	Driver:               driver.KindSim,
	Buffers:              acquire.DefaultBuffers,
	EndCaptureTimeoutMS:  5000,
	LogLevel:             "info",
	MaxBodyBytes:         1 << 20,
	FrameWaitTimeoutSecs: 5,
}

// options is the resolved daemon configuration.
type options struct {
	config.Config
	ConfigPath string
	HTTPLog    string
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overlay copies the set fields of src onto dst.
func overlay(dst *config.Config, src config.Config) {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.Driver != "" {
		dst.Driver = src.Driver
	}
	if src.Catalog != "" {
		dst.Catalog = src.Catalog
	}
	if src.Buffers > 0 {
		dst.Buffers = src.Buffers
	}
	if src.EndCaptureTimeoutMS > 0 {
		dst.EndCaptureTimeoutMS = src.EndCaptureTimeoutMS
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.CORSOrigins) > 0 {
		dst.CORSOrigins = src.CORSOrigins
	}
	if src.MaxBodyBytes > 0 {
		dst.MaxBodyBytes = src.MaxBodyBytes
	}
	if src.FrameWaitTimeoutSecs > 0 {
		dst.FrameWaitTimeoutSecs = src.FrameWaitTimeoutSecs
	}
}

// fromEnv reads MANTAD_* variables. Malformed numbers are reported.
func fromEnv(getenv func(string) string) (config.Config, error) {
	c := config.Config{
		Addr:        getenv("MANTAD_ADDR"),
		Driver:      getenv("MANTAD_DRIVER"),
		Catalog:     getenv("MANTAD_CATALOG"),
		LogLevel:    getenv("MANTAD_LOG_LEVEL"),
		CORSOrigins: splitCSV(getenv("MANTAD_CORS_ORIGINS")),
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"MANTAD_BUFFERS", &c.Buffers},
		{"MANTAD_END_CAPTURE_TIMEOUT_MS", &c.EndCaptureTimeoutMS},
		{"MANTAD_FRAME_WAIT_TIMEOUT_SECS", &c.FrameWaitTimeoutSecs},
	}
	for _, e := range ints {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v := getenv("MANTAD_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("MANTAD_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	return c, nil
}

// resolve applies defaults, then the config file, then the environment,
// then explicitly set flags.
func resolve(args []string, getenv func(string) string) (options, error) {
	fs := flag.NewFlagSet("mantad", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", getenv("MANTAD_CONFIG"), "Config file (.yaml, .json or .toml)")
	addr := fs.String("addr", "", "HTTP listen address, e.g. :8080")
	drv := fs.String("driver", "", "Camera driver: sim|vimba")
	catalog := fs.String("catalog", "", "YAML camera catalog for the sim driver (watched for changes)")
	buffers := fs.Int("buffers", 0, "Frame buffers announced per stream")
	endTimeout := fs.Int("end-capture-timeout-ms", 0, "How long EndCapture waits for frame callbacks")
	logLevel := fs.String("log-level", "", "Log level: debug|info|warn|error")
	cors := fs.String("cors-origins", "", "Comma-separated CORS origins (enables CORS)")
	maxBody := fs.Int64("max-body-bytes", 0, "Maximum JSON request body size")
	frameWait := fs.Int("frame-wait-timeout-secs", 0, "Maximum wait of GET /cameras/{id}/frame?wait=1")
	httpLog := fs.String("http-log", getenv("MANTAD_HTTP_LOG"), "Request log level: off|error|info|debug")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	o := options{Config: defaults, ConfigPath: *configPath, HTTPLog: *httpLog}
	if o.ConfigPath != "" {
		fileCfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return options{}, err
		}
		overlay(&o.Config, fileCfg)
	}
	envCfg, err := fromEnv(getenv)
	if err != nil {
		return options{}, err
	}
	overlay(&o.Config, envCfg)
	overlay(&o.Config, config.Config{
		Addr:                 *addr,
		Driver:               *drv,
		Catalog:              *catalog,
		Buffers:              *buffers,
		EndCaptureTimeoutMS:  *endTimeout,
		LogLevel:             *logLevel,
		CORSOrigins:          splitCSV(*cors),
		MaxBodyBytes:         *maxBody,
		FrameWaitTimeoutSecs: *frameWait,
	})
	return o, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("service", "mantad").Logger()
}

func main() {
	opts, err := resolve(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mantad:", err)
		os.Exit(2)
	}
	log := newLogger(opts.LogLevel)
	if err := serve(opts, log); err != nil {
		log.Fatal().Err(err).Msg("mantad exited")
	}
}

func serve(opts options, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dopts := driver.Options{Kind: opts.Driver, Catalog: opts.Catalog, Logger: log}
	drv, err := driver.New(dopts)
	if err != nil {
		return err
	}
	sys := camera.NewSystem(camera.SystemConfig{
		Driver:            drv,
		Logger:            log,
		EndCaptureTimeout: time.Duration(opts.EndCaptureTimeoutMS) * time.Millisecond,
	})
	if err := sys.Start(); err != nil {
		return fmt.Errorf("start camera system: %w", err)
	}
	defer func() {
		if err := sys.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("camera system shutdown")
		}
	}()
	svc, err := control.New(control.Config{System: sys, DriverName: opts.Driver, Buffers: opts.Buffers, Logger: log})
	if err != nil {
		return err
	}
	defer svc.Close()

	go func() {
		if err := driver.Watch(ctx, drv, dopts); err != nil {
			log.Error().Err(err).Str("catalog", opts.Catalog).Msg("catalog watch stopped")
		}
	}()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(opts.MaxBodyBytes)
	httpapi.SetFrameWaitTimeout(time.Duration(opts.FrameWaitTimeoutSecs) * time.Second)
	httpapi.SetCORSOptions(len(opts.CORSOrigins) > 0, opts.CORSOrigins, nil, nil)
	if opts.HTTPLog != "" {
		httpapi.SetDefaultLogLevel(opts.HTTPLog)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", opts.Addr).Str("driver", opts.Driver).Str("catalog", opts.Catalog).Msg("mantad listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}
	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
	return nil
}
