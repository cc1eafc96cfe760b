package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jplansink/whisper-transcription-tool/internal/apierr"
	"github.com/jplansink/whisper-transcription-tool/internal/audio"
	"github.com/jplansink/whisper-transcription-tool/internal/cli"
	"github.com/jplansink/whisper-transcription-tool/internal/config"
	"github.com/jplansink/whisper-transcription-tool/internal/engine"
	"github.com/jplansink/whisper-transcription-tool/internal/ffmpeg"
	"github.com/jplansink/whisper-transcription-tool/internal/interrupt"
	"github.com/jplansink/whisper-transcription-tool/internal/lang"
	"github.com/jplansink/whisper-transcription-tool/internal/pipeline"
)

// Set through -ldflags on release builds.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes, one per failure class. Interrupts exit with
// interrupt.ExitInterrupt (130) to match shell convention.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(cli.DefaultEnv()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree. Cobra's own error and usage
// printing is silenced because main prints the error once and turns
// it into an exit code.
func newRootCmd(env *cli.Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "whisper-transcribe",
		Short:         "Record and transcribe audio with local Whisper or the OpenAI API",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		cli.TranscribeCmd(env),
		cli.RecordCmd(env),
		cli.LiveCmd(env),
		cli.DevicesCmd(env),
		cli.ConfigCmd(env),
		cli.DoctorCmd(env),
	)
	return root
}

// exitClasses groups sentinel errors by the exit code their class
// carries. Scripts branch on these codes, so the grouping is part of
// the CLI contract.
var exitClasses = []struct {
	code      int
	sentinels []error
}{
	// The environment is missing a piece.
	{ExitSetup, []error{
		ffmpeg.ErrNotFound, ffmpeg.ErrUnsupportedPlatform,
		ffmpeg.ErrChecksumMismatch, ffmpeg.ErrDownloadFailed,
		engine.ErrSetup, cli.ErrAPIKeyMissing, audio.ErrNoAudioDevice,
	}},
	// The request itself is bad.
	{ExitValidation, []error{
		cli.ErrInvalidDuration, cli.ErrFileNotFound, cli.ErrOutputExists,
		lang.ErrInvalid, engine.ErrInvalidName, engine.ErrInvalidSize,
		config.ErrInvalidKey, config.ErrNotDirectory, config.ErrNotWritable,
		pipeline.ErrInvalidInput,
	}},
	// The run started and failed partway.
	{ExitTranscription, []error{
		pipeline.ErrSegmentation, pipeline.ErrTranscription, pipeline.ErrPersistence,
		engine.ErrTranscriptionFailed, apierr.ErrRateLimit, apierr.ErrQuotaExceeded,
		apierr.ErrTimeout, apierr.ErrAuthFailed,
	}},
}

// exitCode classifies err under the exit code contract above.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return interrupt.ExitInterrupt
	}
	if isUsageError(err) {
		return ExitUsage
	}
	for _, class := range exitClasses {
		for _, sentinel := range class.sentinels {
			if errors.Is(err, sentinel) {
				return class.code
			}
		}
	}
	return ExitGeneral
}

// isUsageError reports whether err came out of Cobra's flag and
// argument parsing. Cobra wraps no sentinels, so matching its stable
// message fragments is the only handle available.
func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, fragment := range []string{
		"required flag",
		"unknown flag",
		"unknown shorthand",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"accepts ",
		"requires at least",
		"requires at most",
		"unknown command",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
