package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DevicesCmd builds the devices command, which prints the audio inputs
// FFmpeg can capture from. The names feed the --device flag of record
// and live.
func DevicesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		Long: `Probe FFmpeg for audio capture devices and print their names.

Pass a name to --device when running record or live. Real microphones
sort first and virtual loopback devices last.`,
		Example: `  whisper-transcribe devices
  whisper-transcribe record -d 30m --device "MacBook Pro Microphone"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListDevices(cmd.Context(), env)
		},
	}
}

// runListDevices prints one device name per line on stdout so the
// output can feed scripts. Status messages go to stderr.
func runListDevices(ctx context.Context, env *Env) error {
	path, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}

	lister, err := env.RecorderFactory.NewDeviceLister(path)
	if err != nil {
		return err
	}

	names, err := lister.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(env.Stderr, "No audio input devices detected.")
		return nil
	}

	for _, name := range names {
		fmt.Fprintln(env.Stdout, name)
	}
	return nil
}
