package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// Env is the single injection point for everything a command touches
// outside its own logic: output streams, the process environment, the
// clock, and factories for the domain objects. Commands never reach for
// os.Stdout or time.Now directly, which is what makes them testable.
//
// Human-readable progress and warnings go to Stderr; machine-readable
// values such as artifact paths go to Stdout, so scripts can capture
// them. Build instances with DefaultEnv or NewEnv, never from a zero
// value.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	FFmpegResolver  FFmpegResolver
	ConfigLoader    ConfigLoader
	EngineFactory   EngineFactory
	PipelineFactory PipelineFactory
	RecorderFactory RecorderFactory
	Clipboard       Clipboard
}

// FFmpegResolver locates the ffmpeg binary and checks its version.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader reads the persistent configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// EngineFactory builds transcription engines.
type EngineFactory interface {
	NewWhisper(size engine.Size) (engine.Engine, error)
	NewOpenAI(apiKey string) (engine.Engine, error)
}

// PipelineRunner runs one transcription and streams its progress events.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) <-chan pipeline.Event
}

// PipelineFactory assembles a transcription pipeline around an engine.
type PipelineFactory interface {
	NewPipeline(eng engine.Engine, ffmpegPath string) (PipelineRunner, error)
}

// RecorderFactory builds audio recorders and device listers.
type RecorderFactory interface {
	NewRecorder(ffmpegPath, device string) (audio.Recorder, error)
	NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error)
}

// Clipboard copies text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// EnvOption overrides one Env field.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption { return func(e *Env) { e.Stdout = w } }

// WithStderr sets the writer that receives progress and warnings.
func WithStderr(w io.Writer) EnvOption { return func(e *Env) { e.Stderr = w } }

// WithGetenv sets the environment variable lookup.
func WithGetenv(fn func(string) string) EnvOption { return func(e *Env) { e.Getenv = fn } }

// WithNow sets the clock.
func WithNow(fn func() time.Time) EnvOption { return func(e *Env) { e.Now = fn } }

// WithFFmpegResolver sets the ffmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption { return func(e *Env) { e.FFmpegResolver = r } }

// WithConfigLoader replaces the persistent-config reader.
func WithConfigLoader(l ConfigLoader) EnvOption { return func(e *Env) { e.ConfigLoader = l } }

// WithEngineFactory sets the engine factory.
func WithEngineFactory(f EngineFactory) EnvOption { return func(e *Env) { e.EngineFactory = f } }

// WithPipelineFactory sets the pipeline factory.
func WithPipelineFactory(f PipelineFactory) EnvOption { return func(e *Env) { e.PipelineFactory = f } }

// WithRecorderFactory replaces how recorders get built.
func WithRecorderFactory(f RecorderFactory) EnvOption { return func(e *Env) { e.RecorderFactory = f } }

// WithClipboard sets the clipboard writer.
func WithClipboard(c Clipboard) EnvOption { return func(e *Env) { e.Clipboard = c } }

// DefaultEnv returns an Env wired to the real process environment and
// the production implementations of every dependency.
func DefaultEnv() *Env {
	return &Env{
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Getenv:          os.Getenv,
		Now:             time.Now,
		FFmpegResolver:  systemFFmpeg{},
		ConfigLoader:    fileConfig{},
		EngineFactory:   engineBuilder{},
		PipelineFactory: pipelineBuilder{},
		RecorderFactory: recorderBuilder{},
		Clipboard:       systemClipboard{},
	}
}

// NewEnv returns DefaultEnv with the given overrides applied.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Production implementations, each a thin shim over its package.

type systemFFmpeg struct{}

func (systemFFmpeg) Resolve(ctx context.Context) (string, error) { return ffmpeg.Resolve(ctx) }

func (systemFFmpeg) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

type fileConfig struct{}

func (fileConfig) Load() (config.Config, error) { return config.Load() }

type engineBuilder struct{}

func (engineBuilder) NewWhisper(size engine.Size) (engine.Engine, error) {
	return engine.NewWhisperCLI(size)
}

func (engineBuilder) NewOpenAI(apiKey string) (engine.Engine, error) {
	return engine.NewOpenAI(apiKey)
}

type pipelineBuilder struct{}

func (pipelineBuilder) NewPipeline(eng engine.Engine, ffmpegPath string) (PipelineRunner, error) {
	seg, err := audio.NewSegmenter(ffmpegPath)
	if err != nil {
		return nil, err
	}
	return pipeline.New(eng, pipeline.WithSegmenter(seg))
}

type recorderBuilder struct{}

func (recorderBuilder) NewRecorder(ffmpegPath, device string) (audio.Recorder, error) {
	return audio.NewFFmpegRecorder(ffmpegPath, device)
}

func (recorderBuilder) NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error) {
	return audio.NewFFmpegRecorder(ffmpegPath, "")
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

var (
	_ FFmpegResolver  = systemFFmpeg{}
	_ ConfigLoader    = fileConfig{}
	_ EngineFactory   = engineBuilder{}
	_ PipelineFactory = pipelineBuilder{}
	_ RecorderFactory = recorderBuilder{}
	_ Clipboard       = systemClipboard{}
)
