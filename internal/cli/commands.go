package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mantacam/internal/common/fsutil"
	"mantacam/pkg/types"
)

const defaultGrabTimeout = 5 * time.Second

type grabOptions struct {
	count   int
	dir     string
	buffers int
	timeout time.Duration
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdList(cmd *cobra.Command, s *session, asJSON bool) error {
	cams, err := s.svc.Cameras()
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), cams)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODEL\tSERIAL\tINTERFACE\tACCESS")
	for _, c := range cams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Model, c.Serial, c.InterfaceType, c.PermittedAccess)
	}
	return tw.Flush()
}

func cmdInterfaces(cmd *cobra.Command, s *session, asJSON bool) error {
	ifs, err := s.svc.Interfaces()
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), ifs)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tSERIAL")
	for _, i := range ifs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i.ID, i.Type, i.Name, i.Serial)
	}
	return tw.Flush()
}

// formatValue renders a feature value with its unit.
func formatValue(f types.Feature) string {
	var v string
	switch x := f.Value.(type) {
	case nil:
		v = "-"
	case []byte:
		v = fmt.Sprintf("%x", x)
	default:
		v = fmt.Sprint(x)
	}
	if f.Unit != "" && f.Value != nil {
		v += " " + f.Unit
	}
	return v
}

func cmdGet(cmd *cobra.Command, s *session, camID, name string, asJSON bool) error {
	if _, err := s.svc.Open(camID, "read"); err != nil {
		return err
	}
	f, err := s.svc.Feature(camID, name)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", f.Name, formatValue(f))
	return nil
}

// argValue turns a command-line value into JSON for the feature's type.
// Text types take the argument verbatim; the others parse it as JSON, so
// "6.5", "true" and "42" work unquoted.
func argValue(featureType, arg string) json.RawMessage {
	switch featureType {
	case "string", "enum", "raw":
		b, _ := json.Marshal(arg)
		return b
	}
	return json.RawMessage(arg)
}

func cmdSet(cmd *cobra.Command, s *session, camID, name, arg string) error {
	if _, err := s.svc.Open(camID, "full"); err != nil {
		return err
	}
	f, err := s.svc.Feature(camID, name)
	if err != nil {
		return err
	}
	if !json.Valid(argValue(f.Type, arg)) {
		return usageError{msg: fmt.Sprintf("%s is a %s feature; %q is not a valid value", name, f.Type, arg)}
	}
	f, err = s.svc.SetFeature(camID, name, argValue(f.Type, arg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", f.Name, formatValue(f))
	return nil
}

func cmdRun(cmd *cobra.Command, s *session, camID, name string) error {
	if _, err := s.svc.Open(camID, "full"); err != nil {
		return err
	}
	if err := s.svc.RunCommand(camID, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s done\n", name)
	return nil
}

func cmdGrab(cmd *cobra.Command, s *session, camID string, o grabOptions) error {
	if o.count < 1 {
		return usageError{msg: "--count must be at least 1"}
	}
	dir, err := fsutil.EnsureDir(o.dir)
	if err != nil {
		return err
	}
	if _, err := s.svc.Open(camID, "full"); err != nil {
		return err
	}
	info, err := s.svc.StartStream(camID, o.buffers)
	if err != nil {
		return err
	}
	s.log.Debug().Str("camera", camID).Str("stream", info.ID).Int("buffers", info.Buffers).Msg("stream started")
	defer func() {
		if err := s.svc.StopStream(camID); err != nil {
			s.log.Warn().Err(err).Str("camera", camID).Msg("stop stream")
		}
	}()

	for i := 0; i < o.count; i++ {
		ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
		img, err := s.svc.Frame(ctx, camID, true)
		cancel()
		if err != nil {
			return fmt.Errorf("frame %d of %d: %w", i+1, o.count, err)
		}
		path, err := writeRecord(dir, newRecord(camID, img))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %dx%d %s %s\n", path, img.Width, img.Height, img.PixelFormat, img.Status)
	}
	return nil
}

func cmdWatch(cmd *cobra.Command, s *session, count int, asJSON bool) error {
	events, cancel := s.svc.Subscribe()
	defer cancel()
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	seen := 0
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if asJSON {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			} else {
				ts := time.UnixMilli(ev.TimeUnixMS).Format(time.RFC3339)
				fmt.Fprintf(out, "%s  %-18s %s (%s)\n", ts, ev.Trigger, ev.Camera.ID, ev.Camera.Model)
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}

func cmdInspect(cmd *cobra.Command, path string) error {
	r, err := readRecord(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "camera     %s\n", r.CameraID)
	fmt.Fprintf(out, "frame      %d (seq %d, %s)\n", r.FrameID, r.Seq, r.Status)
	fmt.Fprintf(out, "format     %s %dx%d+%d+%d, %d bpp, stride %d\n",
		r.PixelFormat, r.Width, r.Height, r.OffsetX, r.OffsetY, r.BitsPerPixel, r.StrideBytes)
	fmt.Fprintf(out, "timestamp  %d\n", r.Timestamp)
	fmt.Fprintf(out, "received   %s\n", r.ReceivedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(out, "payload    %d bytes\n", len(r.Data))
	return nil
}
