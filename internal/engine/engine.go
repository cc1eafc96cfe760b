// Package engine defines the transcription engine contract and its two
// implementations: a local whisper.cpp CLI backend and the OpenAI
// transcription API.
//
// Engines consume a single WAV file (16kHz mono PCM, the format produced
// by the audio package) and return timestamped segments. Chunk-level
// concerns such as splitting, timestamp offsetting, and progress tracking
// belong to the pipeline package; engines only see one file at a time.
package engine

import (
	"context"
	"time"
)

// Segment is one timestamped span of transcribed speech within a single
// audio file. Timestamps are relative to the start of that file, not to
// the start of the original recording.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Engine transcribes one audio file into timestamped segments.
//
// The language parameter is an ISO 639-1 code ("en", "pt"). An empty
// string requests auto-detection. Implementations must honor context
// cancellation and return the context error when interrupted.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error)
}
