package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Temp directories owned by this package carry this marker so cleanup code
// can tell them apart from caller-owned paths.
const (
	tempDirPattern = "whisper-transcribe-*"
	tempDirMarker  = "whisper-transcribe-"
)

// recordedSourceName is the derived name for microphone captures, used as
// the transcript file stem.
const recordedSourceName = "recorded_audio"

// recordedFileName is the WAV file written for a recorded source.
const recordedFileName = "recorded.wav"

// Source is an audio input accepted by the pipeline. The interface is
// sealed: Recorded and File are the only implementations.
type Source interface {
	isSource()
}

// Recorded is raw audio captured from a microphone, not yet on disk.
type Recorded struct {
	SampleRate int       // Samples per second.
	Samples    []float64 // Mono samples in [-1, 1].
}

func (Recorded) isSource() {}

// File is an existing audio file on disk.
type File struct {
	Path string
}

func (File) isSource() {}

var (
	_ Source = Recorded{}
	_ Source = File{}
)

// Normalizer resolves a Source into a single playable file path plus a
// derived source name. Recorded sources are written to a temp WAV file;
// file sources pass through unchanged.
type Normalizer struct {
	// Swapped for mocks in tests, real OS calls otherwise.
	tempDir tempDirCreator
	files   fileRemover
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerTempDir sets the temp directory creator.
func WithNormalizerTempDir(t tempDirCreator) NormalizerOption {
	return func(n *Normalizer) { n.tempDir = t }
}

// WithNormalizerFileRemover sets the file remover used by cleanups.
func WithNormalizerFileRemover(f fileRemover) NormalizerOption {
	return func(n *Normalizer) { n.files = f }
}

// NewNormalizer creates a Normalizer with the given options.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		tempDir: osTempDir{},
		files:   osRemove{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves src to a playable path and a source name. The returned
// cleanup releases any temp files Normalize created; it is non-nil whenever
// err is nil and safe to call on every exit path.
func (n *Normalizer) Normalize(src Source) (path, name string, cleanup func(), err error) {
	switch s := src.(type) {
	case Recorded:
		return n.normalizeRecorded(s)
	case File:
		return s.Path, sourceNameFromPath(s.Path), func() {}, nil
	default:
		return "", "", nil, fmt.Errorf("unsupported source type %T", src)
	}
}

// normalizeRecorded writes the captured samples to recorded.wav in a fresh
// temp directory.
func (n *Normalizer) normalizeRecorded(src Recorded) (string, string, func(), error) {
	if len(src.Samples) == 0 {
		return "", "", nil, ErrNoSamples
	}

	dir, err := n.tempDir.MkdirTemp("", tempDirPattern)
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp directory: %w", err)
	}

	path := filepath.Join(dir, recordedFileName)
	if err := writeWAV(path, src.SampleRate, src.Samples); err != nil {
		_ = n.files.RemoveAll(dir) // best-effort cleanup; original error takes precedence
		return "", "", nil, fmt.Errorf("write recorded audio: %w", err)
	}

	cleanup := func() { _ = n.files.RemoveAll(dir) }
	return path, recordedSourceName, cleanup, nil
}

// sourceNameFromPath derives a transcript file stem from an audio file path:
// the base name without its extension.
func sourceNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
