package pipeline

import "os"

// Disk writes go through this interface so persistence tests can run
// against an in-memory capture instead of a real directory tree.
type fileWriter interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osWriter struct{}

func (osWriter) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (osWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

var _ fileWriter = osWriter{}
