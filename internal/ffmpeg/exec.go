package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// RunGraceful runs ffmpeg and, when ctx is canceled, asks it to stop by
// writing 'q' to its stdin. That lets ffmpeg finalize the container
// (headers, trailer) instead of dying mid-write, and it behaves the same
// on Windows, macOS, and Linux, where signal delivery does not. A process
// that ignores the request for longer than timeout is killed and the call
// returns ErrTimeout.
func RunGraceful(ctx context.Context, ffmpegPath string, args []string, timeout time.Duration) error {
	cmd := exec.Command(ffmpegPath, args...)

	// ffmpeg reports nearly everything on stderr.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// stdin carries the 'q' stop request on cancellation.
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("launch ffmpeg: %w", err)
	}

	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	select {
	case err := <-waited:
		if err != nil {
			return fmt.Errorf("ffmpeg exited: %w\nstderr:\n%s", err, stderr.String())
		}
		return nil
	case <-ctx.Done():
		return stopGracefully(cmd, stdin, waited, timeout)
	}
}

// stopGracefully asks ffmpeg to quit and escalates to a kill once the
// timeout passes.
func stopGracefully(cmd *exec.Cmd, stdin io.WriteCloser, waited <-chan error, timeout time.Duration) error {
	_, _ = stdin.Write([]byte("q"))
	_ = stdin.Close()

	select {
	case <-waited:
		// A non-zero exit after 'q' is normal for an interrupted encode;
		// the output file is still finalized.
		return nil
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-waited
		return fmt.Errorf("%w: no clean exit within %v, killed", ErrTimeout, timeout)
	}
}

// captureFn runs a binary and returns whatever it printed to stderr.
type captureFn func(ctx context.Context, path string, args []string) (string, error)

// Executor captures ffmpeg diagnostic output, with the run function
// injectable for tests.
type Executor struct {
	capture captureFn
}

// ExecutorOption adjusts how an Executor runs commands.
type ExecutorOption func(*Executor)

// WithRunOutput replaces the capture function.
func WithRunOutput(fn captureFn) ExecutorOption {
	return func(e *Executor) { e.capture = fn }
}

// NewExecutor builds an Executor, defaulting to real process execution.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{capture: captureStderr}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput runs ffmpeg and returns its stderr, which carries device
// lists, probe results, and version banners.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.capture(ctx, ffmpegPath, args)
}

// captureStderr is the production capture function. The collected stderr
// comes back even when the exit status is non-zero: ffmpeg exits 1 for
// several informational invocations (-list_devices among them) and the
// output is the part callers want. The error is still returned so callers
// can log it.
func captureStderr(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// sharedExecutor backs the package-level RunOutput.
var sharedExecutor = sync.OnceValue(func() *Executor { return NewExecutor() })

// RunOutput runs ffmpeg with the shared executor and returns its stderr.
func RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return sharedExecutor().RunOutput(ctx, ffmpegPath, args)
}
