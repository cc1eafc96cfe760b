package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/lang"
)

// configKeys is the set of settings config set/get accept.
var configKeys = []string{
	config.KeyEngine,
	config.KeyModel,
	config.KeyLanguage,
	config.KeyChunkDuration,
	config.KeyOutputDir,
}

// keyEnvVars pairs each setting with the environment variable that can
// override it.
var keyEnvVars = map[string]string{
	config.KeyEngine:        config.EnvEngine,
	config.KeyModel:         config.EnvModel,
	config.KeyLanguage:      config.EnvLanguage,
	config.KeyChunkDuration: config.EnvChunkDuration,
	config.KeyOutputDir:     config.EnvOutputDir,
}

// ConfigCmd builds the config command and its set/get/list subcommands.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and change stored defaults",
		Long: `Store defaults for the transcribe and live commands.

Settings live in ~/.config/whisper-transcribe/config. Environment
variables override the file, and command-line flags beat both.

Supported settings:
  engine          Transcription engine: whisper, openai (env: WHISPER_TRANSCRIBE_ENGINE)
  model           Whisper model size: tiny, base, small, medium, large (env: WHISPER_TRANSCRIBE_MODEL)
  language        Audio language, ISO 639-1 code or 'auto' (env: WHISPER_TRANSCRIBE_LANGUAGE)
  chunk-duration  Chunk length in seconds, 0 disables chunking (env: WHISPER_TRANSCRIBE_CHUNK_DURATION)
  output-dir      Transcript directory (env: WHISPER_TRANSCRIBE_OUTPUT_DIR)`,
		Example: `  whisper-transcribe config set model medium
  whisper-transcribe config set output-dir ~/Documents/transcripts
  whisper-transcribe config get model
  whisper-transcribe config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store one setting",
		Long: `Store one setting.

Values are validated before being stored: engine and model must name a
known engine or size, language must be a valid ISO 639-1 code (or 'auto'),
chunk-duration must be a non-negative number of seconds, and output-dir
will be created if it doesn't exist.`,
		Example: `  whisper-transcribe config set engine openai
  whisper-transcribe config set chunk-duration 300
  whisper-transcribe config set output-dir ~/Documents/transcripts`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Long: `Print one setting.

Looks the key up in the config file, then in its environment variable,
and prints whatever is found. Unset keys print nothing.`,
		Example: `  whisper-transcribe config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every stored setting",
		Long: `Show every stored setting.

Values coming from environment variables rather than the config file
are marked as such.`,
		Example: `  whisper-transcribe config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet validates and persists one setting. The stored value is
// the normalized form, so "OpenAI" lands on disk as "openai".
func runConfigSet(env *Env, key, value string) error {
	if !slices.Contains(configKeys, key) {
		return fmt.Errorf("unknown config key %q, valid keys are %v", key, configKeys)
	}

	normalized, err := normalizeConfigValue(key, value)
	if err != nil {
		return err
	}
	if err := config.Save(key, normalized); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, normalized)
	return nil
}

// normalizeConfigValue checks value against key's domain and returns
// the canonical spelling.
func normalizeConfigValue(key, value string) (string, error) {
	switch key {
	case config.KeyEngine:
		name, err := engine.ParseName(value)
		if err != nil {
			return "", err
		}
		return name.String(), nil

	case config.KeyModel:
		size, err := engine.ParseSize(value)
		if err != nil {
			return "", err
		}
		return size.String(), nil

	case config.KeyLanguage:
		if value == languageAuto {
			return value, nil
		}
		if err := lang.Validate(value); err != nil {
			return "", err
		}
		return lang.Normalize(value), nil

	case config.KeyChunkDuration:
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("invalid chunk-duration %q (whole seconds expected): %w", value, ErrInvalidDuration)
		}
		if n < 0 {
			return "", fmt.Errorf("chunk duration must be zero or positive, got %d: %w", n, ErrInvalidDuration)
		}
		return strconv.Itoa(n), nil

	case config.KeyOutputDir:
		// Store the expanded path so later loads need no ~ handling.
		dir := config.ExpandHome(value)
		if err := config.PrepareOutputDir(dir); err != nil {
			return "", fmt.Errorf("invalid output-dir: %w", err)
		}
		return dir, nil
	}

	return value, nil
}

// runConfigGet prints one setting, falling back to its environment
// variable when the config file has nothing.
func runConfigGet(env *Env, key string) error {
	if !slices.Contains(configKeys, key) {
		return fmt.Errorf("unknown config key %q, valid keys are %v", key, configKeys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(keyEnvVars[key])
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints every setting that has a value, marking the ones
// that come from the environment rather than the config file.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}
	for key, envVar := range keyEnvVars {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(envVar); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range configKeys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range slices.Sorted(maps.Keys(data)) {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}
