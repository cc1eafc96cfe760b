package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/config"
)

// lockedBuffer is an io.Writer safe for the concurrent writes a pipeline
// run produces.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*lockedBuffer)(nil)

// envMocks groups one mock per Env dependency so tests can assert on
// any of them after a run.
type envMocks struct {
	ffmpegResolver  *mockFFmpegResolver
	configLoader    *mockConfigLoader
	engineFactory   *mockEngineFactory
	pipelineFactory *mockPipelineFactory
	recorderFactory *mockRecorderFactory
	clipboard       *mockClipboard
}

func newEnvMocks() *envMocks {
	return &envMocks{
		ffmpegResolver:  &mockFFmpegResolver{},
		configLoader:    &mockConfigLoader{},
		engineFactory:   &mockEngineFactory{},
		pipelineFactory: &mockPipelineFactory{},
		recorderFactory: &mockRecorderFactory{},
		clipboard:       &mockClipboard{},
	}
}

type fixtureOptions struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	mocks  *envMocks
}

type fixtureOption func(*fixtureOptions)

// withGetenv overrides the environment lookup of the test Env.
func withGetenv(fn func(string) string) fixtureOption {
	return func(o *fixtureOptions) { o.getenv = fn }
}

// withMocks installs a prepared mock set into the test Env.
func withMocks(m *envMocks) fixtureOption {
	return func(o *fixtureOptions) { o.mocks = m }
}

// withStreams redirects the Env output into the given writers,
// usually a pair of lockedBuffers the test can inspect afterwards.
func withStreams(stdout, stderr io.Writer) fixtureOption {
	return func(o *fixtureOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// withClock freezes the Env clock at instant.
func withClock(instant time.Time) fixtureOption {
	return func(o *fixtureOptions) { o.now = frozenClock(instant) }
}

// newTestEnv builds an Env with every dependency mocked, buffered output,
// and a frozen clock. The mocks come back for assertions.
func newTestEnv(opts ...fixtureOption) (*Env, *envMocks) {
	o := fixtureOptions{
		stdout: &lockedBuffer{},
		stderr: &lockedBuffer{},
		getenv: apiKeyEnv,
		now:    frozenClock(time.Date(2026, 3, 7, 9, 5, 31, 0, time.UTC)),
		mocks:  newEnvMocks(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	env := &Env{
		Stdout:          o.stdout,
		Stderr:          o.stderr,
		Getenv:          o.getenv,
		Now:             o.now,
		FFmpegResolver:  o.mocks.ffmpegResolver,
		ConfigLoader:    o.mocks.configLoader,
		EngineFactory:   o.mocks.engineFactory,
		PipelineFactory: o.mocks.pipelineFactory,
		RecorderFactory: o.mocks.recorderFactory,
		Clipboard:       o.mocks.clipboard,
	}
	return env, o.mocks
}

// frozenClock freezes the clock at t.
func frozenClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// mapGetenv serves environment lookups from a map.
func mapGetenv(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

// apiKeyEnv supplies an API key so openai engine runs pass
// validation, and nothing else.
func apiKeyEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "unit-test-api-key"
	}
	return ""
}

// emptyEnv answers every lookup with the empty string.
func emptyEnv(string) string { return "" }

// writeAudioFixture writes a small nonempty file named name into a
// fresh temp dir and returns its path.
func writeAudioFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not real audio bytes"), 0o644); err != nil {
		t.Fatalf("write test audio file: %v", err)
	}
	return path
}

// configWith returns a loader that always yields cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{LoadFunc: func() (config.Config, error) { return cfg, nil }}
}
