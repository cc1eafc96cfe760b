package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Environment variables honored by the whisper engine.
const (
	// EnvWhisperCLIPath overrides PATH lookup for the whisper-cli binary.
	EnvWhisperCLIPath = "WHISPER_CLI_PATH"

	// EnvWhisperModelDir overrides the default model directory
	// (~/.whisper-transcribe/models).
	EnvWhisperModelDir = "WHISPER_MODEL_DIR"
)

// whisperBinary is the whisper.cpp CLI binary name looked up in PATH.
const whisperBinary = "whisper-cli"

// modelDownloadURL is the base URL for official ggml model downloads.
const modelDownloadURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// setupError pairs a setup failure with instructions for fixing it.
type setupError struct {
	wrapped error
	help    string
}

func (e *setupError) Error() string { return fmt.Sprintf("%v: %s", e.wrapped, e.help) }

func (e *setupError) Unwrap() error { return e.wrapped }

var _ Engine = (*WhisperCLI)(nil)

// WhisperCLI transcribes audio locally by shelling out to the whisper.cpp
// CLI. The binary and a ggml model for the requested size must be installed;
// NewWhisperCLI reports what is missing and how to fix it.
type WhisperCLI struct {
	binaryPath string
	modelPath  string

	// Swapped for mocks in tests, real OS calls otherwise.
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	reader  fileReader
	env     envProvider
}

// WhisperOption configures a WhisperCLI.
type WhisperOption func(*WhisperCLI)

// WithCommandRunner sets the command runner.
func WithCommandRunner(r commandRunner) WhisperOption {
	return func(w *WhisperCLI) { w.cmd = r }
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) WhisperOption {
	return func(w *WhisperCLI) { w.tempDir = t }
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) WhisperOption {
	return func(w *WhisperCLI) { w.files = f }
}

// WithFileReader sets the file reader.
func WithFileReader(f fileReader) WhisperOption {
	return func(w *WhisperCLI) { w.reader = f }
}

// WithEnv sets the environment provider.
func WithEnv(e envProvider) WhisperOption {
	return func(w *WhisperCLI) { w.env = e }
}

// NewWhisperCLI resolves the whisper-cli binary and the ggml model for the
// given size. A zero size selects the base model. Errors wrap ErrSetup and
// include installation instructions.
func NewWhisperCLI(size Size, opts ...WhisperOption) (*WhisperCLI, error) {
	w := &WhisperCLI{
		cmd:     execRunner{},
		tempDir: osTempDir{},
		files:   osRemove{},
		reader:  osRead{},
		env:     osEnv{},
	}
	for _, opt := range opts {
		opt(w)
	}

	binary, err := w.resolveBinary()
	if err != nil {
		return nil, err
	}
	w.binaryPath = binary

	model, err := w.resolveModel(size.OrDefault())
	if err != nil {
		return nil, err
	}
	w.modelPath = model

	return w, nil
}

// BinaryPath returns the resolved whisper-cli binary path.
func (w *WhisperCLI) BinaryPath() string { return w.binaryPath }

// ModelPath returns the resolved ggml model path.
func (w *WhisperCLI) ModelPath() string { return w.modelPath }

// resolveBinary locates whisper-cli via WHISPER_CLI_PATH or PATH lookup.
func (w *WhisperCLI) resolveBinary() (string, error) {
	if path := w.env.Getenv(EnvWhisperCLIPath); path != "" {
		if _, err := w.reader.Stat(path); err != nil {
			return "", &setupError{
				wrapped: fmt.Errorf("%w: whisper-cli not found at %s", ErrSetup, path),
				help:    "check the " + EnvWhisperCLIPath + " environment variable",
			}
		}
		return path, nil
	}

	path, err := w.env.LookPath(whisperBinary)
	if err != nil {
		return "", &setupError{
			wrapped: fmt.Errorf("%w: whisper-cli not found in PATH", ErrSetup),
			help: "install whisper.cpp (brew install whisper-cpp) or set " +
				EnvWhisperCLIPath + " to the binary location",
		}
	}
	return path, nil
}

// resolveModel locates the ggml model file for the given size.
func (w *WhisperCLI) resolveModel(size Size) (string, error) {
	dir := w.env.Getenv(EnvWhisperModelDir)
	if dir == "" {
		home, err := w.env.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".whisper-transcribe", "models")
	}

	path := filepath.Join(dir, size.ModelFile())
	if _, err := w.reader.Stat(path); err != nil {
		return "", &setupError{
			wrapped: fmt.Errorf("%w: model %q not found at %s", ErrSetup, size, path),
			help: fmt.Sprintf("download it with: curl -L --create-dirs -o %s %s/%s",
				path, modelDownloadURL, size.ModelFile()),
		}
	}
	return path, nil
}

// Transcribe runs whisper-cli on the audio file and parses its JSON output
// into timestamped segments.
func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	dir, err := w.tempDir.MkdirTemp("", "whisper-engine-")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = w.files.RemoveAll(dir) }()

	outputBase := filepath.Join(dir, "transcription")
	args := transcribeArgs(w.modelPath, audioPath, language, outputBase)

	output, err := w.cmd.CombinedOutput(ctx, w.binaryPath, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v\nwhisper-cli output:\n%s", ErrTranscriptionFailed, err, output)
	}

	data, err := w.reader.ReadFile(outputBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: reading whisper output: %v", ErrTranscriptionFailed, err)
	}
	return parseWhisperJSON(data)
}

// transcribeArgs builds the whisper-cli argument list. The -oj flag selects
// JSON output written to outputBase + ".json".
func transcribeArgs(modelPath, audioPath, language, outputBase string) []string {
	// whisper-cli defaults to English when no language flag is given,
	// so auto-detection must be requested explicitly.
	if language == "" {
		language = "auto"
	}
	return []string{
		"-m", modelPath,
		"-f", audioPath,
		"-oj",
		"-of", outputBase,
		"--no-prints",
		"-l", language,
	}
}

// whisperOutput mirrors the JSON document whisper-cli writes with -oj.
// Offsets are milliseconds from the start of the input file.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper-cli JSON output into segments.
// Segments whose text is empty after trimming are dropped.
func parseWhisperJSON(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parsing whisper output: %v", ErrTranscriptionFailed, err)
	}

	segments := make([]Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: time.Duration(t.Offsets.From) * time.Millisecond,
			End:   time.Duration(t.Offsets.To) * time.Millisecond,
			Text:  text,
		})
	}
	return segments, nil
}
