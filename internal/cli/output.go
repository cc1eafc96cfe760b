package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// warnNonWavExtension writes a warning to w if path has an extension that is
// not .wav. This alerts users that recordings are 16kHz mono WAV regardless
// of the file extension they specified.
func warnNonWavExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".wav" {
		_, _ = fmt.Fprintf(w, "Warning: output is 16kHz mono WAV regardless of %s extension\n", ext)
	}
}

// statusLine rewrites the current terminal line on w. The ANSI erase keeps a
// shorter status from leaving trailing characters of the previous one.
func statusLine(w io.Writer, s string) {
	_, _ = fmt.Fprintf(w, "\r\x1b[K%s", s)
}

// endStatusLine terminates the rewritten line so later output starts fresh.
func endStatusLine(w io.Writer) {
	_, _ = fmt.Fprintln(w)
}

// consumeRun drains a pipeline event stream, rewriting the status line on
// stderr after every chunk. On success the artifact path is printed to
// stdout and, when requested, the transcript is copied to the clipboard.
// On failure whatever was transcribed before the failure is printed so the
// partial text is not lost, and the failure is returned.
func consumeRun(env *Env, events <-chan pipeline.Event, toClipboard bool) error {
	var last pipeline.Event
	for ev := range events {
		last = ev
		statusLine(env.Stderr, ev.Status)
	}
	endStatusLine(env.Stderr)

	if last.Err != nil {
		if last.Preview != "" {
			_, _ = fmt.Fprintln(env.Stderr, "Partial transcript:")
			_, _ = fmt.Fprintln(env.Stderr, last.Preview)
		}
		return last.Err
	}

	_, _ = fmt.Fprintln(env.Stdout, last.Artifact)
	if toClipboard {
		copyToClipboard(env.Clipboard, env.Stderr, last.Preview)
	}
	return nil
}

// copyToClipboard copies text and reports the outcome on w. Clipboard
// failures are warnings, not errors: the transcript is already on disk.
func copyToClipboard(cb Clipboard, w io.Writer, text string) {
	if err := cb.WriteAll(text); err != nil {
		_, _ = fmt.Fprintf(w, "Warning: failed to copy to clipboard: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(w, "Copied to clipboard.")
}
