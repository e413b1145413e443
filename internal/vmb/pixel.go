package vmb

import (
	"fmt"
	"strings"
)

// PixelFormat is a GenICam PFNC pixel format code. Bits 16..23 carry the
// number of bits a pixel occupies in the buffer.
type PixelFormat uint32

const (
	PixelMono8        PixelFormat = 0x01080001
	PixelMono10p      PixelFormat = 0x010A0046
	PixelMono12       PixelFormat = 0x01100005
	PixelMono12Packed PixelFormat = 0x010C0006
	PixelMono12p      PixelFormat = 0x010C0047
	PixelMono14       PixelFormat = 0x01100025
	PixelMono16       PixelFormat = 0x01100007
)

var pixelNames = []struct {
	f    PixelFormat
	name string
}{
	{PixelMono8, "Mono8"},
	{PixelMono10p, "Mono10p"},
	{PixelMono12, "Mono12"},
	{PixelMono12Packed, "Mono12Packed"},
	{PixelMono12p, "Mono12p"},
	{PixelMono14, "Mono14"},
	{PixelMono16, "Mono16"},
}

// PixelFormats lists every format the binding knows by name.
func PixelFormats() []PixelFormat {
	out := make([]PixelFormat, len(pixelNames))
	for i, p := range pixelNames {
		out[i] = p.f
	}
	return out
}

func (p PixelFormat) String() string {
	for _, n := range pixelNames {
		if n.f == p {
			return n.name
		}
	}
	return fmt.Sprintf("PixelFormat(0x%08X)", uint32(p))
}

// ParsePixelFormat resolves a PFNC name such as "Mono12p" (case-insensitive).
func ParsePixelFormat(s string) (PixelFormat, error) {
	for _, n := range pixelNames {
		if strings.EqualFold(n.name, s) {
			return n.f, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

// BitsPerPixel is the number of bits one pixel occupies in the buffer.
func (p PixelFormat) BitsPerPixel() int { return int((uint32(p) >> 16) & 0xFF) }

// Packed reports whether pixels straddle byte boundaries.
func (p PixelFormat) Packed() bool { return p.BitsPerPixel()%8 != 0 }

// RowBytes is the number of bytes one row of width pixels occupies.
func (p PixelFormat) RowBytes(width int) int {
	return (width*p.BitsPerPixel() + 7) / 8
}

// ImageSize is the payload size of a width x height image.
func (p PixelFormat) ImageSize(width, height int) int {
	return p.RowBytes(width) * height
}
