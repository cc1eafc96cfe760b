package cli

import (
	"context"
	"sync"
	"time"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// Hand-rolled mocks for the Env dependency interfaces. Each mock
// records its invocations and falls back to a sane default when the
// corresponding Func field is nil, so most tests override only the one
// behavior they care about.

// calls records invocations of a single mock method. Pipeline runs
// consume events on separate goroutines, so recording is locked.
type calls[T any] struct {
	mu   sync.Mutex
	list []T
}

func (c *calls[T]) add(v T) {
	c.mu.Lock()
	c.list = append(c.list, v)
	c.mu.Unlock()
}

func (c *calls[T]) all() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.list...)
}

func (c *calls[T]) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context) (string, error)
	CheckVersionFunc func(ctx context.Context, ffmpegPath string)

	resolves calls[struct{}]
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.resolves.add(struct{}{})
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	if m.CheckVersionFunc != nil {
		m.CheckVersionFunc(ctx, ffmpegPath)
	}
}

func (m *mockFFmpegResolver) ResolveCalls() int { return m.resolves.count() }

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	loads calls[struct{}]
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.loads.add(struct{}{})
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int { return m.loads.count() }

type mockEngineFactory struct {
	NewWhisperFunc func(size engine.Size) (engine.Engine, error)
	NewOpenAIFunc  func(apiKey string) (engine.Engine, error)

	// mockEngine, when set, is what the default factory hands out.
	mockEngine *mockEngine

	whisperSizes calls[engine.Size]
	openaiKeys   calls[string]
}

func (m *mockEngineFactory) NewWhisper(size engine.Size) (engine.Engine, error) {
	m.whisperSizes.add(size)
	if m.NewWhisperFunc != nil {
		return m.NewWhisperFunc(size)
	}
	return m.defaultEngine(), nil
}

func (m *mockEngineFactory) NewOpenAI(apiKey string) (engine.Engine, error) {
	m.openaiKeys.add(apiKey)
	if m.NewOpenAIFunc != nil {
		return m.NewOpenAIFunc(apiKey)
	}
	return m.defaultEngine(), nil
}

func (m *mockEngineFactory) defaultEngine() *mockEngine {
	if m.mockEngine != nil {
		return m.mockEngine
	}
	return &mockEngine{}
}

func (m *mockEngineFactory) NewWhisperCalls() []engine.Size { return m.whisperSizes.all() }

func (m *mockEngineFactory) NewOpenAICalls() []string { return m.openaiKeys.all() }

type engineTranscribeCall struct {
	AudioPath string
	Language  string
}

type mockEngine struct {
	TranscribeFunc func(ctx context.Context, audioPath, language string) ([]engine.Segment, error)

	transcribes calls[engineTranscribeCall]
}

func (m *mockEngine) Transcribe(ctx context.Context, audioPath, language string) ([]engine.Segment, error) {
	m.transcribes.add(engineTranscribeCall{AudioPath: audioPath, Language: language})
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, language)
	}
	return []engine.Segment{{Start: 0, End: 2 * time.Second, Text: "transcribed text"}}, nil
}

func (m *mockEngine) TranscribeCalls() []engineTranscribeCall { return m.transcribes.all() }

type pipelineFactoryCall struct {
	Engine     engine.Engine
	FFmpegPath string
}

type mockPipelineFactory struct {
	NewPipelineFunc func(eng engine.Engine, ffmpegPath string) (PipelineRunner, error)

	mockRunner *mockPipelineRunner

	pipelines calls[pipelineFactoryCall]
}

func (m *mockPipelineFactory) NewPipeline(eng engine.Engine, ffmpegPath string) (PipelineRunner, error) {
	m.pipelines.add(pipelineFactoryCall{Engine: eng, FFmpegPath: ffmpegPath})
	if m.NewPipelineFunc != nil {
		return m.NewPipelineFunc(eng, ffmpegPath)
	}
	if m.mockRunner != nil {
		return m.mockRunner, nil
	}
	return &mockPipelineRunner{}, nil
}

func (m *mockPipelineFactory) NewPipelineCalls() []pipelineFactoryCall { return m.pipelines.all() }

type mockPipelineRunner struct {
	RunFunc func(ctx context.Context, req pipeline.Request) <-chan pipeline.Event

	runs calls[pipeline.Request]
}

// Run defaults to a two-event stream resembling a one-chunk job, ending
// with a written artifact.
func (m *mockPipelineRunner) Run(ctx context.Context, req pipeline.Request) <-chan pipeline.Event {
	m.runs.add(req)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	return eventStream(
		pipeline.Event{Status: "Chunk 1/1 | Elapsed: 1s | ETA: 0s", Preview: "[0:00:00 - 0:00:02]: transcribed text"},
		pipeline.Event{Status: "Done in 1s", Preview: "[0:00:00 - 0:00:02]: transcribed text", Artifact: "transcriptions/out.txt"},
	)
}

func (m *mockPipelineRunner) RunCalls() []pipeline.Request { return m.runs.all() }

// eventStream returns an already-closed channel carrying the given events.
func eventStream(events ...pipeline.Event) <-chan pipeline.Event {
	ch := make(chan pipeline.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

type recorderCall struct {
	FFmpegPath string
	Device     string
}

type mockRecorderFactory struct {
	NewRecorderFunc     func(ffmpegPath, device string) (audio.Recorder, error)
	NewDeviceListerFunc func(ffmpegPath string) (audio.DeviceLister, error)

	mockRecorder     *mockRecorder
	mockDeviceLister *mockDeviceLister

	recorders calls[recorderCall]
	listers   calls[string]
}

func (m *mockRecorderFactory) NewRecorder(ffmpegPath, device string) (audio.Recorder, error) {
	m.recorders.add(recorderCall{FFmpegPath: ffmpegPath, Device: device})
	if m.NewRecorderFunc != nil {
		return m.NewRecorderFunc(ffmpegPath, device)
	}
	if m.mockRecorder != nil {
		return m.mockRecorder, nil
	}
	return &mockRecorder{}, nil
}

func (m *mockRecorderFactory) NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error) {
	m.listers.add(ffmpegPath)
	if m.NewDeviceListerFunc != nil {
		return m.NewDeviceListerFunc(ffmpegPath)
	}
	if m.mockDeviceLister != nil {
		return m.mockDeviceLister, nil
	}
	return &mockDeviceLister{}, nil
}

func (m *mockRecorderFactory) NewRecorderCalls() []recorderCall { return m.recorders.all() }

func (m *mockRecorderFactory) NewDeviceListerCalls() []string { return m.listers.all() }

type recordCall struct {
	Duration time.Duration
	Output   string
}

type mockRecorder struct {
	RecordFunc func(ctx context.Context, duration time.Duration, output string) error

	records calls[recordCall]
}

func (m *mockRecorder) Record(ctx context.Context, duration time.Duration, output string) error {
	m.records.add(recordCall{Duration: duration, Output: output})
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, duration, output)
	}
	return nil
}

func (m *mockRecorder) RecordCalls() []recordCall { return m.records.all() }

type mockDeviceLister struct {
	ListDevicesFunc func(ctx context.Context) ([]string, error)

	lists calls[struct{}]
}

func (m *mockDeviceLister) ListDevices(ctx context.Context) ([]string, error) {
	m.lists.add(struct{}{})
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx)
	}
	return []string{"Built-in Microphone"}, nil
}

func (m *mockDeviceLister) ListCalls() int { return m.lists.count() }

type mockClipboard struct {
	WriteAllFunc func(text string) error

	writes calls[string]
}

func (m *mockClipboard) WriteAll(text string) error {
	m.writes.add(text)
	if m.WriteAllFunc != nil {
		return m.WriteAllFunc(text)
	}
	return nil
}

func (m *mockClipboard) Writes() []string { return m.writes.all() }

var (
	_ FFmpegResolver     = (*mockFFmpegResolver)(nil)
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ EngineFactory      = (*mockEngineFactory)(nil)
	_ engine.Engine      = (*mockEngine)(nil)
	_ PipelineFactory    = (*mockPipelineFactory)(nil)
	_ PipelineRunner     = (*mockPipelineRunner)(nil)
	_ RecorderFactory    = (*mockRecorderFactory)(nil)
	_ audio.Recorder     = (*mockRecorder)(nil)
	_ audio.DeviceLister = (*mockDeviceLister)(nil)
	_ Clipboard          = (*mockClipboard)(nil)
)
