package ffmpeg

import (
	"net/http"
	"os"
	"os/exec"
)

// The resolver reaches the filesystem, the process environment, and the
// network only through the interfaces below, so tests can substitute each
// one independently. Production code always gets the os-backed
// implementations.

// readFS is the read side of the filesystem: existence checks plus the
// small read of the version marker.
type readFS interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// writeFS is the write side: what installing a binary needs.
type writeFS interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(name string) error
	Chmod(name string, mode os.FileMode) error
	CreateTemp(dir, pattern string) (*os.File, error)
}

// requestDoer is the subset of http.Client the downloader uses.
type requestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// sysEnv exposes environment variables, the home directory, and PATH
// lookups.
type sysEnv interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
	LookPath(file string) (string, error)
}

var (
	_ readFS  = diskReader{}
	_ writeFS = diskWriter{}
	_ sysEnv  = realEnv{}
)

// diskReader reads the real filesystem.
type diskReader struct{}

func (diskReader) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (diskReader) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths derive from the install layout, not user input
	return os.ReadFile(name)
}

// diskWriter writes the real filesystem.
type diskWriter struct{}

func (diskWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (diskWriter) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (diskWriter) Remove(name string) error { return os.Remove(name) }

func (diskWriter) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

func (diskWriter) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

// realEnv reads the real process environment.
type realEnv struct{}

func (realEnv) Getenv(key string) string { return os.Getenv(key) }

func (realEnv) UserHomeDir() (string, error) { return os.UserHomeDir() }

func (realEnv) LookPath(file string) (string, error) { return exec.LookPath(file) }
