package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/lang"
	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// Built-in defaults, used when neither a flag nor the config file nor an
// environment variable provides a value.
const (
	defaultEngine       = "whisper"
	defaultModel        = "base"
	defaultLanguage     = "en"
	defaultChunkSeconds = 120
)

// languageAuto is the flag value that requests language auto-detection.
const languageAuto = "auto"

// runFlags holds the raw transcription flag values shared by the transcribe
// and live commands.
type runFlags struct {
	model        string
	language     string
	chunkSeconds int
	engineName   string
	outputDir    string
}

// runSettings holds the resolved and validated transcription settings.
type runSettings struct {
	engine    engine.Name
	size      engine.Size
	language  string // base code, empty for auto-detect
	chunk     time.Duration
	outputDir string // empty means the pipeline default
	apiKey    string // set only for the openai engine
}

// addRunFlags registers the transcription flags shared by the transcribe and
// live commands.
func addRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVarP(&flags.model, "model", "m", defaultModel, "Whisper model size: tiny, base, small, medium, large")
	cmd.Flags().StringVarP(&flags.language, "language", "l", defaultLanguage, "Audio language (ISO 639-1 code, e.g., en, pt-BR; 'auto' to detect)")
	cmd.Flags().IntVarP(&flags.chunkSeconds, "chunk-duration", "c", defaultChunkSeconds, "Chunk length in seconds (0 = transcribe in one piece)")
	cmd.Flags().StringVar(&flags.engineName, "engine", defaultEngine, "Transcription engine: whisper, openai")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Transcript directory (default: transcriptions)")
}

// orConfig resolves one setting: the flag wins when the user set it, then
// the config value, then the flag's built-in default.
func orConfig(cmd *cobra.Command, name, flagValue, configValue string) string {
	if cmd.Flags().Changed(name) || configValue == "" {
		return flagValue
	}
	return configValue
}

// chunkSeconds resolves the chunk length the same way as orConfig, parsing
// the config value when it applies.
func chunkSeconds(cmd *cobra.Command, flagValue int, configValue string) (int, error) {
	if cmd.Flags().Changed("chunk-duration") || configValue == "" {
		return flagValue, nil
	}
	n, err := strconv.Atoi(configValue)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk-duration %q in config: %w", configValue, ErrInvalidDuration)
	}
	return n, nil
}

// resolveRunSettings merges flags with config values, validates the result,
// and checks the API key when the openai engine is selected.
// Validation order: engine -> model -> language -> chunk duration -> output dir -> API key
func resolveRunSettings(cmd *cobra.Command, env *Env, cfg config.Config, flags runFlags) (runSettings, error) {
	var settings runSettings

	// 1. Engine
	name, err := engine.ParseName(orConfig(cmd, "engine", flags.engineName, cfg.Engine))
	if err != nil {
		return settings, err
	}
	settings.engine = name

	// 2. Model size (used by the whisper engine only)
	size, err := engine.ParseSize(orConfig(cmd, "model", flags.model, cfg.Model))
	if err != nil {
		return settings, err
	}
	settings.size = size
	if name.IsOpenAI() && cmd.Flags().Changed("model") {
		fmt.Fprintln(env.Stderr, "Warning: --model is ignored by the openai engine")
	}

	// 3. Language
	language := orConfig(cmd, "language", flags.language, cfg.Language)
	if language == languageAuto {
		language = "" // engines auto-detect on empty
	}
	if err := lang.Validate(language); err != nil {
		return settings, err
	}
	settings.language = lang.BaseCode(language)

	// 4. Chunk duration
	seconds, err := chunkSeconds(cmd, flags.chunkSeconds, cfg.ChunkDuration)
	if err != nil {
		return settings, err
	}
	if seconds < 0 {
		return settings, fmt.Errorf("chunk duration must be zero or positive, got %d: %w", seconds, ErrInvalidDuration)
	}
	settings.chunk = time.Duration(seconds) * time.Second

	// 5. Output directory (validated here so the run cannot fail after
	// transcription on an unwritable directory)
	outputDir := orConfig(cmd, "output-dir", flags.outputDir, cfg.OutputDir)
	if outputDir != "" {
		outputDir = config.ExpandHome(outputDir)
		if err := config.PrepareOutputDir(outputDir); err != nil {
			return settings, err
		}
	}
	settings.outputDir = outputDir

	// 6. API key (openai engine only)
	if name.IsOpenAI() {
		settings.apiKey = env.Getenv(EnvOpenAIAPIKey)
		if settings.apiKey == "" {
			return settings, fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
		}
	}

	return settings, nil
}

// buildEngine constructs the transcription engine the settings select.
func buildEngine(env *Env, settings runSettings) (engine.Engine, error) {
	if settings.engine.IsOpenAI() {
		return env.EngineFactory.NewOpenAI(settings.apiKey)
	}
	return env.EngineFactory.NewWhisper(settings.size)
}

// TranscribeCmd builds the transcribe command.
func TranscribeCmd(env *Env) *cobra.Command {
	var flags runFlags
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Long: `Transcribe an audio file into timestamped text.

FFmpeg converts the input to 16kHz mono WAV and splits it into fixed-length
chunks, each chunk is transcribed in order, and the assembled transcript is
written to <output-dir>/<input-name>.txt. Progress and a time estimate are
reported after every chunk.

The whisper engine (default) runs whisper-cli locally and needs a model
file; the openai engine calls the hosted API and needs OPENAI_API_KEY.`,
		Example: `  whisper-transcribe transcribe interview.wav
  whisper-transcribe transcribe lecture.mp3 -m medium -l pt
  whisper-transcribe transcribe meeting.wav --engine openai --clipboard
  whisper-transcribe transcribe podcast.wav -c 300 -o ~/transcripts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], flags, toClipboard)
		},
	}

	addRunFlags(cmd, &flags)
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "Copy the final transcript to the clipboard")

	return cmd
}

// runTranscribe executes the transcription pipeline for one input file.
// Validation order: file exists -> engine -> model -> language -> chunk -> output dir -> API key
func runTranscribe(cmd *cobra.Command, env *Env, inputPath string, flags runFlags, toClipboard bool) error {
	ctx := cmd.Context()

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("stat input file: %w", err)
	}

	// A broken config never blocks the run, flags and defaults still apply.
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: could not load config: %v\n", err)
	}

	settings, err := resolveRunSettings(cmd, env, cfg, flags)
	if err != nil {
		return err
	}

	eng, err := buildEngine(env, settings)
	if err != nil {
		return err
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	runner, err := env.PipelineFactory.NewPipeline(eng, ffmpegPath)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Source:        audio.File{Path: inputPath},
		Language:      settings.language,
		ChunkDuration: settings.chunk,
		OutputDir:     settings.outputDir,
	}

	return consumeRun(env, runner.Run(ctx, req), toClipboard)
}
