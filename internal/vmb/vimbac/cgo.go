//go:build vimba

package vimbac

// cgo link directives for the VimbaC binding.
// - VIMBA_HOME/VimbaC/Include and the matching DynamicLib directory are
//   expected in CGO_CFLAGS / CGO_LDFLAGS on hosts where the SDK is not
//   installed system-wide.
// - An rpath of $ORIGIN lets the binary pick up libVimbaC.so copied next to it.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -lVimbaC
*/
import "C"
