package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jplansink/whisper-transcription-tool/internal/format"
)

// recordOptions carries the record command's flag values.
type recordOptions struct {
	duration time.Duration
	output   string
	device   string
}

// RecordCmd builds the record command. Dependencies come from env so
// tests can swap the recorder and clock.
func RecordCmd(env *Env) *cobra.Command {
	var opts recordOptions
	var rawDuration string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record audio from the microphone",
		Long: `Record microphone audio to a 16kHz mono WAV file, the format the
transcription engines consume directly.

Ctrl+C stops early; the file is finalized so the partial recording
stays usable.`,
		Example: `  whisper-transcribe record -d 30m
  whisper-transcribe record -d 1h -o interview.wav
  whisper-transcribe record -d 2h --device "USB Microphone"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseRecordingDuration(rawDuration)
			if err != nil {
				return err
			}
			opts.duration = d
			return runRecord(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&rawDuration, "duration", "d", "", "How long to record (e.g. 2h, 30m, 1h30m)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Destination file (default recording_<timestamp>.wav)")
	cmd.Flags().StringVar(&opts.device, "device", "", "Capture device name, see the devices command")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

// parseRecordingDuration validates a -d/--duration flag value. Zero and
// negative durations are rejected rather than treated as unlimited.
func parseRecordingDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w (use format like 2h, 30m, 1h30m)", raw, ErrInvalidDuration)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %w", ErrInvalidDuration)
	}
	return d, nil
}

// runRecord captures microphone audio into opts.output and prints the
// final path on stdout for shell pipelines.
func runRecord(ctx context.Context, env *Env, opts recordOptions) error {
	if opts.output == "" {
		opts.output = recordingName(env.Now)
	}
	warnNonWavExtension(env.Stderr, opts.output)
	if _, err := os.Stat(opts.output); err == nil {
		return fmt.Errorf("refusing to overwrite %s: %w", opts.output, ErrOutputExists)
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	recorder, err := env.RecorderFactory.NewRecorder(ffmpegPath, opts.device)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Recording for %s to %s... (press Ctrl+C to stop)\n",
		format.DurationCompact(opts.duration), opts.output)

	if err := recorder.Record(ctx, opts.duration, opts.output); err != nil {
		if ctx.Err() == nil {
			return err
		}
		// Ctrl+C: ffmpeg got a graceful stop, the partial file may be fine.
		fmt.Fprintln(env.Stderr, "Interrupted, letting ffmpeg finalize the file...")
	}

	size, err := sizeOf(opts.output)
	if err != nil {
		return fmt.Errorf("recording failed, no output file: %w", err)
	}

	fmt.Fprintf(env.Stderr, "Recording complete: %s, %s on disk\n", opts.output, format.Bytes(size))
	fmt.Fprintln(env.Stdout, opts.output)
	return nil
}

// recordingName names recordings after the wall clock,
// e.g. recording_20260307_090531.wav.
func recordingName(now func() time.Time) string {
	return "recording_" + now().Format("20060102_150405") + ".wav"
}

// sizeOf reports the on-disk size of path in bytes.
func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
