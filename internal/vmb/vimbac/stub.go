//go:build !vimba

package vimbac

// This file is compiled when the 'vimba' build tag is NOT set, keeping
// default builds and CI free of cgo and the vendor SDK.

import (
	"errors"

	"mantacam/internal/vmb"
)

// ErrNotBuilt is returned by New in binaries built without VimbaC support.
var ErrNotBuilt = errors.New("vimba support not built (missing 'vimba' build tag)")

// Driver is never constructed in this build.
type Driver struct{ vmb.Driver }

// New fails fast: the SDK binding is not available in this build.
func New() (*Driver, error) { return nil, ErrNotBuilt }
