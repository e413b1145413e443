// Package driver selects the vmb.Driver implementation a binary runs against.
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mantacam/internal/common/fsutil"
	"mantacam/internal/vmb"
	"mantacam/internal/vmb/sim"
	"mantacam/internal/vmb/vimbac"
)

const (
	KindSim   = "sim"
	KindVimba = "vimba"
)

// Options configures New.
type Options struct {
	// Kind is KindSim (default) or KindVimba.
	Kind string
	// Catalog is an optional YAML camera catalog for the simulated driver.
	Catalog string
	Logger  zerolog.Logger
}

// New builds the requested driver. The driver is not started.
func New(opts Options) (vmb.Driver, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindSim:
		cat := sim.DefaultCatalog()
		if opts.Catalog != "" {
			path, err := fsutil.ExpandHome(opts.Catalog)
			if err != nil {
				return nil, err
			}
			if cat, err = sim.LoadCatalog(path); err != nil {
				return nil, fmt.Errorf("load catalog: %w", err)
			}
		}
		opts.Logger.Debug().Str("driver", KindSim).Int("cameras", len(cat.Cameras)).Msg("driver selected")
		return sim.New(cat), nil
	case KindVimba:
		d, err := vimbac.New()
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug().Str("driver", KindVimba).Msg("driver selected")
		return d, nil
	}
	return nil, fmt.Errorf("unknown driver %q (want %s or %s)", opts.Kind, KindSim, KindVimba)
}

// Watch keeps a simulated driver in sync with its catalog file until ctx is
// done. It returns nil immediately for other drivers or when no catalog is set.
func Watch(ctx context.Context, d vmb.Driver, opts Options) error {
	sd, ok := d.(*sim.Driver)
	if !ok || opts.Catalog == "" {
		return nil
	}
	path, err := fsutil.ExpandHome(opts.Catalog)
	if err != nil {
		return err
	}
	return sim.WatchCatalog(ctx, sd, path, opts.Logger)
}
