// Package cli implements mantactl, a command-line tool that drives cameras
// in-process through the camera and control packages.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"mantacam/internal/camera"
	"mantacam/internal/control"
	"mantacam/internal/driver"
)

// Config holds the persistent flags shared by every command.
type Config struct {
	Driver   string
	Catalog  string
	LogLevel string
}

// Swapped by tests to run against a driver they control.
var fnNewDriver = driver.New

// defaultConfig reads MANTACTL_* environment defaults.
func defaultConfig() *Config {
	return &Config{
		Driver:   envStr("MANTACTL_DRIVER", driver.KindSim),
		Catalog:  envStr("MANTACTL_CATALOG", ""),
		LogLevel: envStr("MANTACTL_LOG_LEVEL", "warn"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newLogger writes human-readable logs to w. Unknown levels fall back to warn.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

// session is one started System with a control Service on top.
type session struct {
	sys *camera.System
	svc *control.Service
	log zerolog.Logger
}

func openSession(cfg *Config, log zerolog.Logger) (*session, error) {
	drv, err := fnNewDriver(driver.Options{Kind: cfg.Driver, Catalog: cfg.Catalog, Logger: log})
	if err != nil {
		return nil, err
	}
	sys := camera.NewSystem(camera.SystemConfig{Driver: drv, Logger: log})
	if err := sys.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	svc, err := control.New(control.Config{System: sys, DriverName: cfg.Driver, Logger: log})
	if err != nil {
		_ = sys.Shutdown()
		return nil, err
	}
	return &session{sys: sys, svc: svc, log: log}, nil
}

func (s *session) close() {
	s.svc.Close()
	if err := s.sys.Shutdown(); err != nil {
		s.log.Warn().Err(err).Msg("shutdown")
	}
}

// MainWithArgs runs mantactl with explicit arguments and writers and returns
// the process exit code: 0 on success, 1 on a failed command, 2 on a usage
// error.
func MainWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmdWith(defaultConfig())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

// Main is the entry point for cmd/mantactl. Interrupts cancel the running
// command.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return MainWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// usageError marks argument mistakes the user can fix.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }
