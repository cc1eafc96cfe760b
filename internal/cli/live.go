package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/format"
	"github.com/jplansink/whisper-transcription-tool/internal/interrupt"
	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// liveTranscribeTimeout caps the transcription of a partial recording after
// an interrupt, whose fresh context would otherwise never expire. Local
// models can be slow, so the cap is generous.
const liveTranscribeTimeout = time.Hour

// liveOptions holds the validated options for the live command.
type liveOptions struct {
	runFlags
	duration  time.Duration
	device    string
	keepAudio bool
	clipboard bool
}

// LiveCmd builds the live command, a timed recording fed straight into
// the transcription pipeline.
func LiveCmd(env *Env) *cobra.Command {
	var (
		flags       runFlags
		durationStr string
		device      string
		keepAudio   bool
		toClipboard bool
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Record audio and transcribe it in one step",
		Long: `Record microphone audio and transcribe it in a single operation.

This command combines 'record' and 'transcribe' for convenience. The audio
is recorded to a temporary file, then run through the same chunked
transcription as the transcribe command. Use --keep-audio to preserve the
recording next to the transcript.

Recording can be interrupted with Ctrl+C to stop early and transcribe what
was captured. Press Ctrl+C twice within 2 seconds to abort entirely.`,
		Example: `  whisper-transcribe live -d 30m
  whisper-transcribe live -d 1h -l pt -m medium --keep-audio
  whisper-transcribe live -d 2h --engine openai --clipboard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := parseRecordingDuration(durationStr)
			if err != nil {
				return err
			}
			return runLive(cmd, env, liveOptions{
				runFlags:  flags,
				duration:  duration,
				device:    device,
				keepAudio: keepAudio,
				clipboard: toClipboard,
			})
		},
	}

	cmd.Flags().StringVarP(&durationStr, "duration", "d", "", "How long to record (e.g. 2h, 30m, 1h30m)")
	cmd.Flags().StringVar(&device, "device", "", "Capture device name, see the devices command")
	addRunFlags(cmd, &flags)
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "Copy the final transcript to the clipboard")
	cmd.Flags().BoolVarP(&keepAudio, "keep-audio", "k", false, "Keep the recording next to the transcript")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

// runLive records from the microphone, then runs the transcription pipeline
// on the capture. The first Ctrl+C stops recording and opens a short
// decision window; a second Ctrl+C inside it aborts the run, otherwise the
// partial recording is transcribed.
func runLive(cmd *cobra.Command, env *Env, opts liveOptions) error {
	// A broken config never blocks the run, flags and defaults still apply.
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: could not load config: %v\n", err)
	}

	settings, err := resolveRunSettings(cmd, env, cfg, opts.runFlags)
	if err != nil {
		return err
	}

	// Double Ctrl+C detection: the first press cancels ctx to stop the
	// recording, the second aborts the whole run.
	handler, ctx := interrupt.NewHandler(cmd.Context(), interrupt.WithStderr(env.Stderr))
	defer handler.Stop()

	eng, err := buildEngine(env, settings)
	if err != nil {
		return err
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

	tempDir, err := os.MkdirTemp("", "whisper-live-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()
	audioPath := filepath.Join(tempDir, "recorded_audio.wav")

	fmt.Fprintf(env.Stderr, "Recording for %s. Press Ctrl+C to stop early.\n", format.DurationCompact(opts.duration))

	recordErr := recorder.Record(ctx, opts.duration, audioPath)

	runCtx := ctx
	if recordErr != nil || ctx.Err() != nil {
		if !handler.Interrupted() {
			return recordErr
		}

		// Interrupted. Transcribe the partial capture unless it is empty
		// or the user presses Ctrl+C again.
		size, statErr := sizeOf(audioPath)
		if statErr != nil || size == 0 {
			return context.Canceled
		}
		decision := handler.WaitForDecision("Press Ctrl+C again to discard, or wait 2s to transcribe what was captured...")
		if decision == interrupt.Abort {
			return context.Canceled
		}
		fmt.Fprintf(env.Stderr, "\nTranscribing the partial recording (%s)\n", format.Bytes(size))

		// The recording context is canceled; transcription gets a fresh one.
		transcribeCtx, cancel := context.WithTimeout(context.Background(), liveTranscribeTimeout)
		defer cancel()
		runCtx = transcribeCtx
	} else {
		// Verify the recording produced a non-empty file.
		size, statErr := sizeOf(audioPath)
		if statErr != nil {
			return fmt.Errorf("recording produced no output file")
		}
		if size == 0 {
			return fmt.Errorf("recording is empty, check the capture device")
		}
		fmt.Fprintf(env.Stderr, "Recording complete: %s\n", format.Bytes(size))
	}

	// Move the audio out of the temp dir if --keep-audio. The transcript is
	// then named after the saved recording.
	if opts.keepAudio {
		saved := recordingName(env.Now)
		if moveErr := moveFile(audioPath, saved); moveErr != nil {
			fmt.Fprintf(env.Stderr, "Warning: could not save the recording: %v\n", moveErr)
		} else {
			audioPath = saved
			fmt.Fprintf(env.Stderr, "Audio saved: %s\n", saved)
		}
	}

	runner, err := env.PipelineFactory.NewPipeline(eng, ffmpegPath)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Source:        audio.File{Path: audioPath},
		Language:      settings.language,
		ChunkDuration: settings.chunk,
		OutputDir:     settings.outputDir,
	}

	runErr := consumeRun(env, runner.Run(runCtx, req), opts.clipboard)
	if runErr != nil && opts.keepAudio {
		fmt.Fprintf(env.Stderr, "The recording is available at: %s\n", audioPath)
	}
	return runErr
}

// moveFile renames src to dst, falling back to copy-and-delete when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if os.Rename(src, dst) == nil {
		return nil
	}
	return copyFile(src, dst)
}

// copyFile replicates src at dst and deletes src afterwards.
// dst must not exist yet.
func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- src comes from our own temp dir
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode()) // #nosec G304 -- dst is the user's chosen path
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
