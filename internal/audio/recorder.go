package audio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
)

// Recorder captures audio from an input device into a file.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration, output string) error
}

// DeviceLister enumerates audio input devices.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]string, error)
}

// FFmpegRecorder captures microphone audio through an ffmpeg subprocess.
// Device handling is platform specific: avfoundation on macOS, dshow on
// Windows, PulseAudio or ALSA on Linux.
type FFmpegRecorder struct {
	ffmpegPath string
	device     string // empty means pick the default input device

	procs   processRunner
	sources sourceLister
}

var (
	_ Recorder     = (*FFmpegRecorder)(nil)
	_ DeviceLister = (*FFmpegRecorder)(nil)
)

// processRunner is the slice of the ffmpeg package the recorder needs,
// injectable for tests.
type processRunner interface {
	RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error)
	RunGraceful(ctx context.Context, ffmpegPath string, args []string, gracefulTimeout time.Duration) error
}

// sourceLister enumerates PulseAudio sources.
type sourceLister interface {
	ListSources(ctx context.Context) (string, error)
}

// RecorderOption adjusts an FFmpegRecorder.
type RecorderOption func(*FFmpegRecorder)

// WithProcessRunner replaces the ffmpeg process runner.
func WithProcessRunner(p processRunner) RecorderOption {
	return func(rec *FFmpegRecorder) { rec.procs = p }
}

// WithSourceLister replaces the pactl source lister.
func WithSourceLister(l sourceLister) RecorderOption {
	return func(rec *FFmpegRecorder) { rec.sources = l }
}

// NewFFmpegRecorder builds a recorder bound to the given ffmpeg binary.
// device selects a specific input (":0" or ":DeviceName" on macOS, "hw:0"
// or a PulseAudio source on Linux, the device name on Windows); leave it
// empty to auto-detect one.
func NewFFmpegRecorder(ffmpegPath, device string, opts ...RecorderOption) (*FFmpegRecorder, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpeg path is empty: %w", ffmpeg.ErrNotFound)
	}
	rec := &FFmpegRecorder{
		ffmpegPath:   ffmpegPath,
		device:       device,
		procs:   ffmpegExec{},
		sources: pactlExec{},
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec, nil
}

// finalizeTimeout bounds how long ffmpeg gets to flush the WAV header
// after a capture is interrupted.
const finalizeTimeout = 5 * time.Second

// Record captures duration worth of audio into output as 16kHz mono
// 16-bit PCM WAV, the format the transcription engines consume without a
// conversion pass. Cancelling ctx stops the capture early; ffmpeg is
// asked to finalize the file before exiting so a partial recording stays
// usable.
func (r *FFmpegRecorder) Record(ctx context.Context, duration time.Duration, output string) error {
	device := r.device
	if device == "" {
		var err error
		if device, err = r.defaultDevice(ctx); err != nil {
			return err
		}
	}

	format := captureFormat()
	args := recordArgs(format, deviceInputArg(format, device), duration, output)
	return r.procs.RunGraceful(ctx, r.ffmpegPath, args, finalizeTimeout)
}

// recordArgs assembles the ffmpeg invocation for a capture. The output
// path must stay last.
func recordArgs(format, inputArg string, duration time.Duration, output string) []string {
	args := []string{
		"-y",
		"-f", format,
		"-i", inputArg,
		"-t", strconv.Itoa(int(duration.Seconds())),
	}
	return append(append(args, pcmArgs()...), output)
}

// pcmArgs is the one place that fixes the capture encoding: 16-bit
// PCM, 16kHz, mono.
func pcmArgs() []string {
	return []string{"-c:a", "pcm_s16le", "-ar", "16000", "-ac", "1"}
}
