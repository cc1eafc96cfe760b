package engine

import (
	"context"
	"os"
	"os/exec"
)

// Process execution and filesystem access go through these interfaces so
// engine tests can run without a whisper binary installed.

type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

type tempDirCreator interface {
	MkdirTemp(dir, pattern string) (string, error)
}

type fileRemover interface {
	RemoveAll(path string) error
}

type fileReader interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

type envProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
	LookPath(file string) (string, error)
}

var (
	_ commandRunner  = execRunner{}
	_ tempDirCreator = osTempDir{}
	_ fileRemover    = osRemove{}
	_ fileReader     = osRead{}
	_ envProvider    = osEnv{}
)

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- binary and args are assembled by the engine itself
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type osTempDir struct{}

func (osTempDir) MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }

type osRemove struct{}

func (osRemove) RemoveAll(path string) error { return os.RemoveAll(path) }

type osRead struct{}

func (osRead) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osRead) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths come from engine-owned temp dirs
	return os.ReadFile(name)
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func (osEnv) UserHomeDir() (string, error) { return os.UserHomeDir() }

func (osEnv) LookPath(file string) (string, error) { return exec.LookPath(file) }
