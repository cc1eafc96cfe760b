package audio_test

// Nothing here spawns ffmpeg. Process execution, temp dir creation, and
// directory listing go through the fakes at the bottom of the file, so
// the tests pin down argument construction and failure handling without
// touching real media. CleanupChunks is the exception: its safety check
// is about real paths, so it runs against t.TempDir.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
)

func TestNewSegmenter(t *testing.T) {
	t.Parallel()

	if _, err := audio.NewSegmenter("/usr/bin/ffmpeg"); err != nil {
		t.Errorf("NewSegmenter() with a valid path: unexpected error %v", err)
	}
	if _, err := audio.NewSegmenter(""); err == nil {
		t.Error("NewSegmenter(\"\") error = nil, want error")
	}
}

func TestSegmenter_Segment(t *testing.T) {
	t.Parallel()

	t.Run("zero duration passes file through", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		seg, err := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStat{}),
		)
		if err != nil {
			t.Fatalf("NewSegmenter() error = %v", err)
		}

		chunks, err := seg.Segment(context.Background(), "/fake/audio.wav", 0)
		if err != nil {
			t.Fatalf("Segment() error = %v", err)
		}

		if len(chunks) != 1 {
			t.Fatalf("Segment() returned %d chunks, want 1", len(chunks))
		}
		got := chunks[0]
		if got.Path != "/fake/audio.wav" {
			t.Errorf("chunk path = %q, want original file", got.Path)
		}
		if got.Index != 0 || got.Start != 0 || got.End != 0 {
			t.Errorf("pass-through chunk = %+v, want zero index and times", got)
		}
		if len(runner.log) != 0 {
			t.Errorf("ffmpeg ran %d times, want 0 for pass-through", len(runner.log))
		}
	})

	t.Run("negative duration rejected", func(t *testing.T) {
		t.Parallel()

		seg, _ := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithFileStatter(fakeStat{}),
		)

		_, err := seg.Segment(context.Background(), "/fake/audio.wav", -time.Second)
		if !errors.Is(err, audio.ErrSegmentationFailed) {
			t.Errorf("Segment() error = %v, want ErrSegmentationFailed", err)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		seg, _ := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithFileStatter(fakeStat{err: errors.New("no such file")}),
		)

		_, err := seg.Segment(context.Background(), "/nonexistent.wav", time.Minute)
		if !errors.Is(err, audio.ErrFileNotFound) {
			t.Errorf("Segment() error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("successful segmentation", func(t *testing.T) {
		t.Parallel()

		scratch := "/tmp/whisper-transcribe-test123"
		runner := &fakeRunner{}
		listing := &fakeDir{
			entries: []os.DirEntry{
				// Out of order plus noise, collect must filter and sort.
				fakeEntry{name: "chunk_000001.wav"},
				fakeEntry{name: "notes.txt"},
				fakeEntry{name: "chunk_000000.wav"},
				fakeEntry{name: "sub", isDir: true},
				fakeEntry{name: "chunk_000002.wav"},
			},
		}

		seg, err := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithCommandRunner(runner),
			audio.WithTempDirCreator(fakeTempDir{dir: scratch}),
			audio.WithFileStatter(fakeStat{}),
			audio.WithDirReader(listing),
		)
		if err != nil {
			t.Fatalf("NewSegmenter() error = %v", err)
		}

		chunkDuration := 2 * time.Minute
		chunks, err := seg.Segment(context.Background(), "/fake/audio.wav", chunkDuration)
		if err != nil {
			t.Fatalf("Segment() error = %v", err)
		}

		if len(chunks) != 3 {
			t.Fatalf("Segment() returned %d chunks, want 3", len(chunks))
		}
		for i, c := range chunks {
			if c.Index != i {
				t.Errorf("chunk %d has Index = %d", i, c.Index)
			}
			wantStart := time.Duration(i) * chunkDuration
			if c.Start != wantStart {
				t.Errorf("chunk %d Start = %v, want %v", i, c.Start, wantStart)
			}
			if c.End != wantStart+chunkDuration {
				t.Errorf("chunk %d End = %v, want %v", i, c.End, wantStart+chunkDuration)
			}
			if filepath.Dir(c.Path) != scratch {
				t.Errorf("chunk %d path %q not in temp dir %q", i, c.Path, scratch)
			}
		}

		if len(runner.log) != 1 {
			t.Fatalf("ffmpeg ran %d times, want 1", len(runner.log))
		}
		joined := strings.Join(runner.log[0].argv, " ")
		if !strings.Contains(joined, "-f segment") {
			t.Errorf("ffmpeg args missing segment muxer: %v", runner.log[0].argv)
		}
	})

	t.Run("ffmpeg failure cleans up temp dir", func(t *testing.T) {
		t.Parallel()

		scratch := "/tmp/whisper-transcribe-fail456"
		runner := &fakeRunner{
			respond: func([]string) ([]byte, error) {
				return []byte("segment muxer exploded"), errors.New("exit status 1")
			},
		}
		remover := &fakeRemover{}

		seg, _ := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithCommandRunner(runner),
			audio.WithTempDirCreator(fakeTempDir{dir: scratch}),
			audio.WithFileRemover(remover),
			audio.WithFileStatter(fakeStat{}),
		)

		_, err := seg.Segment(context.Background(), "/fake/audio.wav", time.Minute)
		if !errors.Is(err, audio.ErrSegmentationFailed) {
			t.Fatalf("Segment() error = %v, want ErrSegmentationFailed", err)
		}
		if !strings.Contains(err.Error(), "segment muxer exploded") {
			t.Errorf("ffmpeg output missing from error: %v", err)
		}
		if !remover.sawRemoveAll(scratch) {
			t.Errorf("temp dir %q was not cleaned up", scratch)
		}
	})

	t.Run("no chunks produced cleans up temp dir", func(t *testing.T) {
		t.Parallel()

		scratch := "/tmp/whisper-transcribe-empty789"
		remover := &fakeRemover{}

		seg, _ := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithCommandRunner(&fakeRunner{}),
			audio.WithTempDirCreator(fakeTempDir{dir: scratch}),
			audio.WithFileRemover(remover),
			audio.WithFileStatter(fakeStat{}),
			audio.WithDirReader(&fakeDir{}),
		)

		_, err := seg.Segment(context.Background(), "/fake/audio.wav", time.Minute)
		if !errors.Is(err, audio.ErrSegmentationFailed) {
			t.Fatalf("Segment() error = %v, want ErrSegmentationFailed", err)
		}
		if !remover.sawRemoveAll(scratch) {
			t.Errorf("temp dir %q was not cleaned up", scratch)
		}
	})

	t.Run("temp dir creation failure", func(t *testing.T) {
		t.Parallel()

		seg, _ := audio.NewSegmenter(
			"/usr/bin/ffmpeg",
			audio.WithTempDirCreator(fakeTempDir{err: errors.New("disk full")}),
			audio.WithFileStatter(fakeStat{}),
		)

		_, err := seg.Segment(context.Background(), "/fake/audio.wav", time.Minute)
		if err == nil {
			t.Fatal("Segment() error = nil, want error")
		}
		if !strings.Contains(err.Error(), "temp directory") {
			t.Errorf("MkdirTemp failure not surfaced: %v", err)
		}
	})
}

func TestSegmentArgs(t *testing.T) {
	t.Parallel()

	args := audio.SegmentArgs("/input/talk.wav", 600, "/tmp/out/chunk_%06d.wav")

	if first, last := args[0], args[len(args)-1]; first != "-y" || last != "/tmp/out/chunk_%06d.wav" {
		t.Errorf("SegmentArgs() = %v, want -y first and the output pattern last", args)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i /input/talk.wav",
		"-f segment",
		"-segment_time 600",
		"-c:a pcm_s16le",
		"-ar 16000",
		"-ac 1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("SegmentArgs() = %v, missing %q", args, want)
		}
	}
}

func TestChunkCleanup(t *testing.T) {
	t.Parallel()

	t.Run("nil and empty are no-ops", func(t *testing.T) {
		t.Parallel()
		if err := audio.CleanupChunks(nil); err != nil {
			t.Errorf("CleanupChunks(nil) = %v, want nil", err)
		}
		if err := audio.CleanupChunks([]audio.Chunk{}); err != nil {
			t.Errorf("CleanupChunks(empty) = %v, want nil", err)
		}
	})

	t.Run("pass-through input file is left untouched", func(t *testing.T) {
		t.Parallel()

		// t.TempDir paths never contain the managed-dir marker.
		input := filepath.Join(t.TempDir(), "talk.wav")
		if err := os.WriteFile(input, []byte("RIFF"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := audio.CleanupChunks([]audio.Chunk{{Path: input}}); err != nil {
			t.Fatalf("CleanupChunks() error = %v", err)
		}
		if _, err := os.Stat(input); err != nil {
			t.Errorf("input file was removed: %v", err)
		}
	})

	t.Run("managed temp dir is removed", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), audio.TempDirMarker+"test")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		chunk := filepath.Join(dir, "chunk_000000.wav")
		if err := os.WriteFile(chunk, []byte("RIFF"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := audio.CleanupChunks([]audio.Chunk{{Path: chunk}}); err != nil {
			t.Fatalf("CleanupChunks() error = %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("temp dir still exists after cleanup")
		}
	})
}

// ffmpegCall is one recorded subprocess invocation.
type ffmpegCall struct {
	bin  string
	argv []string
}

// fakeRunner records every invocation and answers with respond, or with
// empty success when respond is nil.
type fakeRunner struct {
	respond func(args []string) ([]byte, error)
	log     []ffmpegCall
}

func (f *fakeRunner) CombinedOutput(_ context.Context, name string, args []string) ([]byte, error) {
	f.log = append(f.log, ffmpegCall{bin: name, argv: args})
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(args)
}

// fakeTempDir hands out a fixed directory path without creating it.
type fakeTempDir struct {
	dir string
	err error
}

func (f fakeTempDir) MkdirTemp(string, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.dir, nil
}

type fakeRemover struct {
	removeErr    error
	removeAllErr error
	removedAll   []string
}

func (f *fakeRemover) Remove(string) error { return f.removeErr }

func (f *fakeRemover) RemoveAll(path string) error {
	f.removedAll = append(f.removedAll, path)
	return f.removeAllErr
}

func (f *fakeRemover) sawRemoveAll(path string) bool {
	return slices.Contains(f.removedAll, path)
}

type fakeStat struct {
	err error
}

func (f fakeStat) Stat(string) (os.FileInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return stubInfo{}, nil
}

type stubInfo struct{}

func (stubInfo) Name() string       { return "probe.wav" }
func (stubInfo) Size() int64        { return 2048 }
func (stubInfo) Mode() os.FileMode  { return 0o600 }
func (stubInfo) ModTime() time.Time { return time.Time{} }
func (stubInfo) IsDir() bool        { return false }
func (stubInfo) Sys() any           { return nil }

type fakeDir struct {
	entries []os.DirEntry
	err     error
}

func (f *fakeDir) ReadDir(string) ([]os.DirEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeEntry struct {
	name  string
	isDir bool
}

func (e fakeEntry) Name() string               { return e.name }
func (e fakeEntry) IsDir() bool                { return e.isDir }
func (e fakeEntry) Type() os.FileMode          { return 0 }
func (e fakeEntry) Info() (os.FileInfo, error) { return stubInfo{}, nil }
