// Package pipeline orchestrates a transcription run: normalize the audio
// source, segment it into chunks, transcribe each chunk in order, and
// persist the assembled transcript.
//
// A run is a producer goroutine emitting Events on an unbuffered channel:
// one event per chunk, then exactly one terminal event, then close. All
// temporary resources (recorded audio, chunk files) are released on every
// exit path.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
	"github.com/jplansink/whisper-transcription-tool/internal/format"
)

// previewLineCount is how many transcript lines progress events show.
const previewLineCount = 10

// Request describes one transcription run.
type Request struct {
	Source        audio.Source  // Recorded samples or an audio file.
	Language      string        // ISO 639-1 base code; empty means auto-detect.
	ChunkDuration time.Duration // Zero disables chunking.
	OutputDir     string        // Transcript directory; empty means DefaultOutputDir.
}

// normalizer converts a Source into a transcribable file on disk.
type normalizer interface {
	Normalize(src audio.Source) (path, name string, cleanup func(), err error)
}

// segmenter splits an audio file into ordered chunks.
type segmenter interface {
	Segment(ctx context.Context, audioPath string, chunkDuration time.Duration) ([]audio.Chunk, error)
}

// persister writes the finished transcript.
type persister interface {
	Save(dir, sourceName, text string) (string, error)
}

var (
	_ normalizer = (*audio.Normalizer)(nil)
	_ segmenter  = (*audio.Segmenter)(nil)
	_ persister  = (*Persister)(nil)
)

// Pipeline runs transcriptions against a fixed engine. Collaborators are
// injectable; by default the segmenter is built on first use by resolving
// ffmpeg (downloading a managed copy when necessary).
type Pipeline struct {
	eng          engine.Engine
	normalizer   normalizer
	segmenter    segmenter
	persister    persister
	chunkCleanup func([]audio.Chunk) error
	clock        func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithNormalizer sets the audio source normalizer.
func WithNormalizer(n normalizer) PipelineOption {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithSegmenter sets the audio segmenter.
func WithSegmenter(s segmenter) PipelineOption {
	return func(p *Pipeline) { p.segmenter = s }
}

// WithPersister sets the transcript persister.
func WithPersister(ps persister) PipelineOption {
	return func(p *Pipeline) { p.persister = ps }
}

// WithChunkCleanup sets the chunk cleanup function.
func WithChunkCleanup(fn func([]audio.Chunk) error) PipelineOption {
	return func(p *Pipeline) { p.chunkCleanup = fn }
}

// WithClock sets the time source used for elapsed and ETA computation.
func WithClock(fn func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.clock = fn }
}

// New creates a Pipeline that transcribes with eng.
func New(eng engine.Engine, opts ...PipelineOption) (*Pipeline, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	p := &Pipeline{
		eng:          eng,
		normalizer:   audio.NewNormalizer(),
		persister:    NewPersister(),
		chunkCleanup: audio.CleanupChunks,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run starts a transcription run and returns its event channel. The channel
// is unbuffered, carries one event per chunk plus one terminal event, and is
// closed when the run ends. Cancel ctx to stop the run between chunks; the
// terminal event then carries the partial transcript and the context error.
func (p *Pipeline) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go p.run(ctx, req, events)
	return events
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)
	start := p.clock()

	path, sourceName, cleanup, err := p.normalizer.Normalize(req.Source)
	if err != nil {
		events <- failureEvent(fmt.Errorf("%w: %w", ErrInvalidInput, err), "")
		return
	}
	defer cleanup()

	seg, err := p.resolveSegmenter(ctx)
	if err != nil {
		events <- failureEvent(fmt.Errorf("%w: %w", ErrSegmentation, err), "")
		return
	}
	chunks, err := seg.Segment(ctx, path, req.ChunkDuration)
	if err != nil {
		events <- failureEvent(fmt.Errorf("%w: %w", ErrSegmentation, err), "")
		return
	}
	defer func() { _ = p.chunkCleanup(chunks) }()

	var lines []string
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			events <- failureEvent(interruptError(ctx.Err()), joinLines(lines))
			return
		}

		segments, err := p.eng.Transcribe(ctx, chunk.Path, req.Language)
		if err != nil {
			if ctx.Err() != nil {
				events <- failureEvent(interruptError(ctx.Err()), joinLines(lines))
				return
			}
			events <- failureEvent(fmt.Errorf("%w: %w", ErrTranscription, err), joinLines(lines))
			return
		}
		for _, s := range segments {
			lines = append(lines, formatLine(chunk.Start, s))
		}

		progress := Progress{
			Completed: i + 1,
			Total:     len(chunks),
			Elapsed:   p.clock().Sub(start),
		}
		events <- Event{
			Status: fmt.Sprintf("Chunk %d/%d | Elapsed: %s | ETA: %s",
				progress.Completed, progress.Total,
				format.DurationSeconds(progress.Elapsed),
				format.DurationSeconds(progress.ETA())),
			Preview: previewLines(lines),
		}
	}

	text := joinLines(lines)
	artifact, err := p.persister.Save(req.OutputDir, sourceName, text)
	if err != nil {
		events <- failureEvent(err, text)
		return
	}
	events <- Event{
		Status:   fmt.Sprintf("Done in %s", format.DurationSeconds(p.clock().Sub(start))),
		Preview:  text,
		Artifact: artifact,
	}
}

// resolveSegmenter returns the configured segmenter, building the default
// ffmpeg-backed one on demand.
func (p *Pipeline) resolveSegmenter(ctx context.Context) (segmenter, error) {
	if p.segmenter != nil {
		return p.segmenter, nil
	}
	ffmpegPath, err := ffmpeg.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return audio.NewSegmenter(ffmpegPath)
}

// formatLine renders one engine segment as a transcript line, shifting both
// timestamps by the chunk's position so they reflect the full recording.
func formatLine(offset time.Duration, s engine.Segment) string {
	return fmt.Sprintf("[%s - %s]: %s",
		format.Timecode(offset+s.Start),
		format.Timecode(offset+s.End),
		strings.TrimSpace(s.Text))
}

// previewLines joins the most recent transcript lines for display.
func previewLines(lines []string) string {
	if len(lines) > previewLineCount {
		lines = lines[len(lines)-previewLineCount:]
	}
	return joinLines(lines)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// failureEvent builds the terminal event for a failed run.
func failureEvent(err error, preview string) Event {
	return Event{Status: fmt.Sprintf("Failed: %v", err), Preview: preview, Err: err}
}

// interruptError marks a run stopped by its context.
func interruptError(cause error) error {
	return fmt.Errorf("transcription interrupted: %w", cause)
}
