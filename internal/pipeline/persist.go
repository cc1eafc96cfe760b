package pipeline

import (
	"fmt"
	"path/filepath"
)

// DefaultOutputDir is where transcripts are written unless the request
// overrides it.
const DefaultOutputDir = "transcriptions"

// Persister writes finished transcripts to disk as
// <dir>/<sourceName>.txt, overwriting any previous transcript for the
// same source.
type Persister struct {
	files fileWriter
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithPersisterFileWriter sets the file writer.
func WithPersisterFileWriter(f fileWriter) PersisterOption {
	return func(p *Persister) { p.files = f }
}

// NewPersister creates a Persister backed by the real filesystem.
func NewPersister(opts ...PersisterOption) *Persister {
	p := &Persister{files: osWriter{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save writes text to <dir>/<sourceName>.txt and returns the written path.
// An empty dir selects DefaultOutputDir. The directory is created if
// missing. Failures wrap ErrPersistence.
func (p *Persister) Save(dir, sourceName, text string) (string, error) {
	if dir == "" {
		dir = DefaultOutputDir
	}
	if err := p.files.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrPersistence, dir, err)
	}
	path := filepath.Join(dir, sourceName+".txt")
	if err := p.files.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrPersistence, path, err)
	}
	return path, nil
}
