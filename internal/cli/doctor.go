package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
)

// doctorCheck is the outcome of one environment probe.
type doctorCheck struct {
	name   string
	ok     bool
	detail string
}

// DoctorCmd builds the doctor command.
func DoctorCmd(env *Env) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment is ready for transcription",
		Long: `Check the tools and credentials the other commands depend on.

Probes FFmpeg, the whisper-cli binary and its model file, the OpenAI API
key, and the configuration file, all concurrently. The command fails when
FFmpeg is missing or when neither engine is usable; a missing OPENAI_API_KEY
alone is fine as long as the whisper engine is set up (and vice versa).`,
		Example: `  whisper-transcribe doctor
  whisper-transcribe doctor -m medium`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), env, model)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Whisper model size to check for (default: configured model or base)")

	return cmd
}

// runDoctor probes the environment and prints one line per check.
// Probes run concurrently; each writes its fixed slot, so the report
// order is stable.
func runDoctor(ctx context.Context, env *Env, model string) error {
	cfg, cfgErr := env.ConfigLoader.Load()

	// The model to probe for: flag, then config, then the default size.
	if model == "" {
		model = cfg.Model
	}
	size := engine.BaseSize
	if model != "" {
		parsed, err := engine.ParseSize(model)
		if err != nil {
			return err
		}
		size = parsed
	}

	checks := make([]doctorCheck, 4)
	var g errgroup.Group

	g.Go(func() error {
		checks[0] = checkFFmpeg(ctx, env)
		return nil
	})
	g.Go(func() error {
		checks[1] = checkWhisperEngine(env, size)
		return nil
	})
	g.Go(func() error {
		checks[2] = checkOpenAIKey(env)
		return nil
	})
	g.Go(func() error {
		checks[3] = checkConfigFile(cfg, cfgErr)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range checks {
		mark := "ok"
		if !c.ok {
			mark = "FAIL"
		}
		fmt.Fprintf(env.Stdout, "%-4s %-8s %s\n", mark, c.name, c.detail)
	}

	// The config check never gates: commands only warn on a broken config.
	if !checks[0].ok || (!checks[1].ok && !checks[2].ok) {
		return fmt.Errorf("environment is not ready: transcription needs ffmpeg and at least one engine")
	}
	return nil
}

// checkFFmpeg probes for a usable ffmpeg binary. Resolve may download a
// managed copy, which is exactly what the other commands would do.
func checkFFmpeg(ctx context.Context, env *Env) doctorCheck {
	check := doctorCheck{name: "ffmpeg"}

	path, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		check.detail = err.Error()
		return check
	}
	env.FFmpegResolver.CheckVersion(ctx, path)

	check.ok = true
	check.detail = path
	return check
}

// checkWhisperEngine probes for the whisper-cli binary and the model file
// by constructing the engine, which resolves both.
func checkWhisperEngine(env *Env, size engine.Size) doctorCheck {
	check := doctorCheck{name: "whisper"}

	eng, err := env.EngineFactory.NewWhisper(size)
	if err != nil {
		check.detail = err.Error()
		return check
	}

	check.ok = true
	check.detail = fmt.Sprintf("%s model ready", size.OrDefault())
	if w, isCLI := eng.(*engine.WhisperCLI); isCLI {
		check.detail = fmt.Sprintf("%s (model %s)", w.BinaryPath(), w.ModelPath())
	}
	return check
}

// checkOpenAIKey probes for the hosted engine's API key.
func checkOpenAIKey(env *Env) doctorCheck {
	check := doctorCheck{name: "openai"}

	if env.Getenv(EnvOpenAIAPIKey) == "" {
		check.detail = EnvOpenAIAPIKey + " not set (needed for --engine openai only)"
		return check
	}

	check.ok = true
	check.detail = EnvOpenAIAPIKey + " set"
	return check
}

// checkConfigFile reports whether the configuration loaded cleanly.
func checkConfigFile(cfg config.Config, err error) doctorCheck {
	check := doctorCheck{name: "config"}

	if err != nil {
		check.detail = err.Error()
		return check
	}

	check.ok = true
	check.detail = "loaded"
	if cfg == (config.Config{}) {
		check.detail = "no settings (defaults apply)"
	}
	return check
}
