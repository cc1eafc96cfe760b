package pipeline

import "errors"

// Sentinel errors carried by terminal failure events. Each marks the stage
// that failed; the underlying cause stays in the wrap chain.
var (
	// ErrInvalidInput indicates the audio source could not be normalized
	// (for example, a recording with no samples).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSegmentation indicates chunking the audio failed.
	ErrSegmentation = errors.New("segmentation failed")

	// ErrTranscription indicates a chunk could not be transcribed.
	ErrTranscription = errors.New("transcription failed")

	// ErrPersistence indicates the finished transcript could not be written.
	ErrPersistence = errors.New("persistence failed")
)
