package engine

// Test-only exports. This file gives external tests access to unexported
// internals without widening the public API.

// Aliases so external tests can name the dependency interfaces.
type (
	CommandRunner    = commandRunner
	TempDirCreator   = tempDirCreator
	FileRemover      = fileRemover
	FileReader       = fileReader
	EnvProvider      = envProvider
	AudioTranscriber = audioTranscriber
)

// NewTestWhisperCLI creates a WhisperCLI with pre-resolved paths and
// injected dependencies, bypassing binary and model resolution.
func NewTestWhisperCLI(binaryPath, modelPath string, cmd commandRunner, tempDir tempDirCreator, files fileRemover, reader fileReader) *WhisperCLI {
	return &WhisperCLI{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		cmd:        cmd,
		tempDir:    tempDir,
		files:      files,
		reader:     reader,
		env:        osEnv{},
	}
}

// NewTestOpenAI creates an OpenAI engine with an injected client for testing.
func NewTestOpenAI(client audioTranscriber, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		client:     client,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Unexported function handles for direct testing.
var (
	TranslateError   = translateError
	Retryable        = retryable
	ParseWhisperJSON = parseWhisperJSON
	TranscribeArgs   = transcribeArgs
	ResponseSegments = responseSegments
)
