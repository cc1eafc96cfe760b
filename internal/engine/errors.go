package engine

import "errors"

// Sentinel errors for engine selection and setup.
var (
	// ErrInvalidName indicates an unknown engine name.
	ErrInvalidName = errors.New("invalid engine name")

	// ErrInvalidSize indicates an unknown whisper model size.
	ErrInvalidSize = errors.New("invalid model size")

	// ErrSetup indicates a missing binary, model file, or credential.
	// Errors wrapping ErrSetup carry installation instructions.
	ErrSetup = errors.New("engine setup incomplete")

	// ErrTranscriptionFailed indicates the engine ran but produced no
	// usable transcription.
	ErrTranscriptionFailed = errors.New("transcription failed")
)
