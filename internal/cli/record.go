package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"mantacam/internal/acquire"
	"mantacam/internal/common/fsutil"
)

// FrameRecord is the on-disk form of one grabbed image. Integer keys keep
// records compact next to the pixel payload.
type FrameRecord struct {
	CameraID     string    `cbor:"1,keyasint"`
	Seq          uint64    `cbor:"2,keyasint"`
	FrameID      uint64    `cbor:"3,keyasint"`
	Timestamp    uint64    `cbor:"4,keyasint"`
	Status       string    `cbor:"5,keyasint"`
	PixelFormat  string    `cbor:"6,keyasint"`
	Width        int       `cbor:"7,keyasint"`
	Height       int       `cbor:"8,keyasint"`
	OffsetX      int       `cbor:"9,keyasint"`
	OffsetY      int       `cbor:"10,keyasint"`
	StrideBytes  int       `cbor:"11,keyasint"`
	BitsPerPixel int       `cbor:"12,keyasint"`
	ReceivedAt   time.Time `cbor:"13,keyasint"`
	Data         []byte    `cbor:"14,keyasint"`
}

var (
	recEncMode cbor.EncMode
	recDecMode cbor.DecMode
)

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	if recEncMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("frame record encoder: %v", err))
	}
	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	if recDecMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("frame record decoder: %v", err))
	}
}

func newRecord(camID string, img *acquire.Image) FrameRecord {
	return FrameRecord{
		CameraID:     camID,
		Seq:          img.Seq,
		FrameID:      img.FrameID,
		Timestamp:    img.Timestamp,
		Status:       img.Status.String(),
		PixelFormat:  img.PixelFormat.String(),
		Width:        img.Width,
		Height:       img.Height,
		OffsetX:      img.OffsetX,
		OffsetY:      img.OffsetY,
		StrideBytes:  img.StrideBytes,
		BitsPerPixel: img.BitsPerPixel,
		ReceivedAt:   img.ReceivedAt,
		Data:         img.Data,
	}
}

// EncodeRecord encodes r as deterministic CBOR.
func EncodeRecord(r FrameRecord) ([]byte, error) { return recEncMode.Marshal(r) }

// DecodeRecord decodes a record produced by EncodeRecord.
func DecodeRecord(b []byte) (FrameRecord, error) {
	var r FrameRecord
	if err := recDecMode.Unmarshal(b, &r); err != nil {
		return FrameRecord{}, err
	}
	return r, nil
}

// recordName is the file name of a record: camera id and frame id, zero
// padded so directory listings sort in capture order.
func recordName(r FrameRecord) string {
	return fmt.Sprintf("%s-%010d.cbor", r.CameraID, r.FrameID)
}

// writeRecord stores r under dir and returns the file path.
func writeRecord(dir string, r FrameRecord) (string, error) {
	b, err := EncodeRecord(r)
	if err != nil {
		return "", fmt.Errorf("encode frame %d: %w", r.FrameID, err)
	}
	path := filepath.Join(dir, recordName(r))
	if err := fsutil.WriteFileAtomic(path, b); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// readRecord loads a record written by writeRecord.
func readRecord(path string) (FrameRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FrameRecord{}, err
	}
	r, err := DecodeRecord(b)
	if err != nil {
		return FrameRecord{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}
