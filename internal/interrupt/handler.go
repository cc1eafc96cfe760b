// Package interrupt implements graceful Ctrl+C handling for recording and
// live transcription. The first interrupt cancels the run context so the
// command can finish with partial work; a second one within the decision
// window aborts the process.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Decision is the user's intent after the first Ctrl+C.
type Decision int

const (
	// Continue means finish with the partial work (e.g. transcribe what
	// was recorded so far).
	Continue Decision = iota
	// Abort means throw the partial work away and exit right now.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "Continue"
	case Abort:
		return "Abort"
	}
	return fmt.Sprintf("Decision(%d)", d)
}

// ExitInterrupt is the conventional exit code after SIGINT (128 + 2).
const ExitInterrupt = 130

// defaultWindow is how long after the first Ctrl+C a second one aborts.
const defaultWindow = 2 * time.Second

// abortNotice precedes the abort exit so the user sees why.
const abortNotice = "\nAborting."

// Handler turns SIGINT/SIGTERM into context cancellation and detects
// double Ctrl+C. The first signal cancels the context returned by
// NewHandler; a second signal within the window aborts the process with
// ExitInterrupt.
type Handler struct {
	mu          sync.Mutex
	interrupted bool
	aborted     bool
	stopped     bool
	firstPress  time.Time

	cancel context.CancelFunc
	abort  chan struct{} // closed on a second press inside the window
	done   chan struct{} // closed by Stop to end the listen goroutine

	sigCh <-chan os.Signal
	own   chan os.Signal // non-nil when the handler registered its own channel

	window time.Duration
	exit   func(int)
	stderr io.Writer
}

// Option configures a Handler.
type Option func(*Handler)

// WithSignals replaces the OS signal registration with the given channel.
func WithSignals(ch <-chan os.Signal) Option {
	return func(h *Handler) { h.sigCh = ch }
}

// WithExitFunc replaces os.Exit on the double Ctrl+C abort path.
func WithExitFunc(fn func(int)) Option {
	return func(h *Handler) { h.exit = fn }
}

// WithStderr redirects user-facing messages. The writer sees concurrent
// writes; os.Stderr is safe at the OS level.
func WithStderr(w io.Writer) Option {
	return func(h *Handler) { h.stderr = w }
}

// WithWindow overrides the decision window.
func WithWindow(d time.Duration) Option {
	return func(h *Handler) { h.window = d }
}

// NewHandler starts listening for SIGINT/SIGTERM and returns the handler
// plus a context that is canceled on the first interrupt. Call Stop when
// the command is done with it.
func NewHandler(parent context.Context, opts ...Option) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel: cancel,
		abort:  make(chan struct{}),
		done:   make(chan struct{}),
		window: defaultWindow,
		exit:   os.Exit,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.sigCh == nil {
		h.own = make(chan os.Signal, 2)
		signal.Notify(h.own, syscall.SIGINT, syscall.SIGTERM)
		h.sigCh = h.own
	}
	go h.listen()

	return h, ctx
}

// listen consumes signals until Stop or channel close.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-h.sigCh:
			if !ok {
				return
			}
			if h.onSignal(time.Now()) {
				fmt.Fprintln(h.stderr, abortNotice)
				h.exit(ExitInterrupt)
				return // exit may be stubbed in tests
			}
		}
	}
}

// onSignal applies one signal delivery to the handler state and reports
// whether it was a second press inside the window.
func (h *Handler) onSignal(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.stopped:
		return false
	case !h.interrupted:
		// First press: cancel the run context, let the command wind down.
		h.interrupted = true
		h.firstPress = now
		h.cancel()
		return false
	case now.Sub(h.firstPress) > h.window:
		// Stale press, the run is already winding down.
		return false
	}

	h.aborted = true
	close(h.abort)
	return true
}

// Interrupted reports whether at least one interrupt was received.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// WaitForDecision gives the user the rest of the window to press Ctrl+C a
// second time. It returns Abort if they do, Continue once the window
// expires, and Continue immediately when no interrupt was received at all.
// The message is displayed to explain the choice.
func (h *Handler) WaitForDecision(message string) Decision {
	h.mu.Lock()
	interrupted, aborted, firstPress := h.interrupted, h.aborted, h.firstPress
	h.mu.Unlock()

	if !interrupted {
		return Continue
	}
	if aborted {
		return Abort
	}

	remaining := h.window - time.Since(firstPress)
	if remaining <= 0 {
		return Continue
	}

	fmt.Fprintln(h.stderr, message)

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
		return Continue
	case <-h.abort:
		return Abort
	}
}

// Stop unregisters the signal handler and stops the listen goroutine.
// Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	already := h.stopped
	h.stopped = true
	h.mu.Unlock()
	if already {
		return
	}

	if h.own != nil {
		signal.Stop(h.own)
	}
	close(h.done)
}
