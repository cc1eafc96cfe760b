package audio

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
)

// Process execution and filesystem access go through these interfaces so
// segmenter and source tests can run without ffmpeg or a real microphone.

// commandRunner executes an external command and returns its combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// tempDirCreator allocates scratch directories.
type tempDirCreator interface {
	MkdirTemp(dir, pattern string) (string, error)
}

// fileStatter reports file metadata.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// fileRemover deletes files and directory trees.
type fileRemover interface {
	Remove(name string) error
	RemoveAll(path string) error
}

// dirReader lists directory entries.
type dirReader interface {
	ReadDir(name string) ([]os.DirEntry, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the segmenter, not taken from user input
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type osTempDir struct{}

func (osTempDir) MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }

type osStat struct{}

func (osStat) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

type osRemove struct{}

func (osRemove) Remove(name string) error { return os.Remove(name) }

func (osRemove) RemoveAll(path string) error { return os.RemoveAll(path) }

type osReadDir struct{}

func (osReadDir) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// ffmpegExec backs processRunner with the real ffmpeg process helpers.
type ffmpegExec struct{}

func (ffmpegExec) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return ffmpeg.RunOutput(ctx, ffmpegPath, args)
}

func (ffmpegExec) RunGraceful(ctx context.Context, ffmpegPath string, args []string, gracefulTimeout time.Duration) error {
	return ffmpeg.RunGraceful(ctx, ffmpegPath, args, gracefulTimeout)
}

// pactlExec backs sourceLister with the system pactl binary.
type pactlExec struct{}

func (pactlExec) ListSources(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sources", "short").Output()
	return string(out), err
}

var (
	_ commandRunner  = execRunner{}
	_ tempDirCreator = osTempDir{}
	_ fileStatter    = osStat{}
	_ fileRemover    = osRemove{}
	_ dirReader      = osReadDir{}
	_ processRunner  = ffmpegExec{}
	_ sourceLister   = pactlExec{}
)
