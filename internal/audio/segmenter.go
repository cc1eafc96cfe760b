package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
)

// chunkFilePattern names segment files so that lexicographic order matches
// chronological order. Six digits keeps that true far beyond any realistic
// session length.
const chunkFilePattern = "chunk_%06d.wav"

// Chunk is one piece of the source audio produced by segmentation. Chunk
// files live until the caller releases them with CleanupChunks.
type Chunk struct {
	Path  string        // where the chunk file was written
	Index int           // zero-based position in the source audio
	Start time.Duration // offset of the chunk start in the source audio
	End   time.Duration // nominal end boundary; zero when the whole file is one chunk
}

// Segmenter splits an audio file into ordered fixed-duration chunks using
// the FFmpeg segment muxer. Chunks are written as 16kHz mono 16-bit PCM WAV,
// the format the transcription engines expect.
type Segmenter struct {
	ffmpegPath string

	// Swapped for mocks in tests, real OS calls otherwise.
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	statter fileStatter
	dir     dirReader
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithCommandRunner sets the command runner.
func WithCommandRunner(r commandRunner) SegmenterOption {
	return func(s *Segmenter) { s.cmd = r }
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) SegmenterOption {
	return func(s *Segmenter) { s.tempDir = t }
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) SegmenterOption {
	return func(s *Segmenter) { s.files = f }
}

// WithFileStatter sets the file statter.
func WithFileStatter(st fileStatter) SegmenterOption {
	return func(s *Segmenter) { s.statter = st }
}

// WithDirReader sets the directory reader.
func WithDirReader(d dirReader) SegmenterOption {
	return func(s *Segmenter) { s.dir = d }
}

// NewSegmenter creates a Segmenter. ffmpegPath must be a valid path to the
// FFmpeg binary.
func NewSegmenter(ffmpegPath string, opts ...SegmenterOption) (*Segmenter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpeg path is empty: %w", ffmpeg.ErrNotFound)
	}
	s := &Segmenter{
		ffmpegPath: ffmpegPath,
		cmd:        execRunner{},
		tempDir:    osTempDir{},
		files:      osRemove{},
		statter:    osStat{},
		dir:        osReadDir{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Segment splits audioPath into chunks of chunkDuration each; the last chunk
// may be shorter. A chunkDuration of zero disables splitting: the input file
// itself is returned as the single chunk and FFmpeg is never invoked.
// Release the returned chunk files with CleanupChunks.
func (s *Segmenter) Segment(ctx context.Context, audioPath string, chunkDuration time.Duration) ([]Chunk, error) {
	if chunkDuration < 0 {
		return nil, fmt.Errorf("%w: negative chunk duration %v", ErrSegmentationFailed, chunkDuration)
	}
	if _, err := s.statter.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	if chunkDuration == 0 {
		return []Chunk{{Path: audioPath, Index: 0}}, nil
	}

	tempDir, err := s.tempDir.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	args := segmentArgs(audioPath, chunkDuration, filepath.Join(tempDir, chunkFilePattern))
	output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		_ = s.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
		return nil, fmt.Errorf("%w: %v\nffmpeg output:\n%s", ErrSegmentationFailed, err, string(output))
	}

	chunks, err := s.collectChunks(tempDir, chunkDuration)
	if err != nil {
		_ = s.files.RemoveAll(tempDir)
		return nil, err
	}
	return chunks, nil
}

// segmentArgs constructs FFmpeg arguments for the segment muxer.
func segmentArgs(audioPath string, chunkDuration time.Duration, outPattern string) []string {
	return []string{
		"-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(int(chunkDuration.Seconds())),
		"-c:a", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPattern,
	}
}

// collectChunks lists the produced .wav files and assigns chunk metadata.
// Index follows lexicographic file order, which the zero-padded pattern
// makes chronological.
func (s *Segmenter) collectChunks(dir string, chunkDuration time.Duration) ([]Chunk, error) {
	entries, err := s.dir.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read chunk directory: %v", ErrSegmentationFailed, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".wav" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no chunks", ErrSegmentationFailed)
	}

	chunks := make([]Chunk, len(names))
	for i, name := range names {
		start := time.Duration(i) * chunkDuration
		chunks[i] = Chunk{
			Path:  filepath.Join(dir, name),
			Index: i,
			Start: start,
			End:   start + chunkDuration,
		}
	}
	return chunks, nil
}

// CleanupChunks removes chunk files and their parent temp directory.
// Call this after transcription is complete. Chunks outside a directory
// managed by this package (the unsegmented case, where the single chunk is
// the caller's own input file) are left untouched.
func CleanupChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tempDir := filepath.Dir(chunks[0].Path)
	if !strings.Contains(tempDir, tempDirMarker) {
		return nil
	}
	return os.RemoveAll(tempDir)
}
