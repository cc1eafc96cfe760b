package audio

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strings"
)

// hintedError pairs a sentinel with advice on how to get unblocked.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return fmt.Sprintf("%v: %s", e.err, e.hint) }

func (e *hintedError) Unwrap() error { return e.err }

// ListDevices returns the audio input devices ffmpeg can capture from,
// best candidates first. Entries carry a human-readable name where the
// platform provides one:
//
//	macOS    ":0\tMacBook Pro Microphone"
//	Windows  "Microphone (Realtek High Definition Audio)"
//	Linux    "alsa_input.pci-0000_00_1f.3.analog-stereo"
func (r *FFmpegRecorder) ListDevices(ctx context.Context) ([]string, error) {
	return r.probeDevices(ctx, true)
}

// defaultDevice picks the capture device to use when none was configured.
func (r *FFmpegRecorder) defaultDevice(ctx context.Context) (string, error) {
	devices, err := r.probeDevices(ctx, false)
	if err != nil {
		return "", &hintedError{
			err:  ErrNoAudioDevice,
			hint: fmt.Sprintf("run 'ffmpeg -f %s -list_devices true -i dummy' to see available devices, use --device to specify one", captureFormat()),
		}
	}
	if len(devices) == 0 {
		return "", &hintedError{
			err:  ErrNoAudioDevice,
			hint: "no audio input devices detected, check that a microphone is connected and enabled",
		}
	}
	// Ranking puts real microphones first, so the head is the best guess.
	return devices[0], nil
}

// probeDevices discovers input devices. With labeled set, entries are
// formatted for display; otherwise they are identifiers the ffmpeg -i
// flag accepts. On Linux, PulseAudio sources are preferred (their names
// serve as both label and identifier), falling back to ALSA defaults.
func (r *FFmpegRecorder) probeDevices(ctx context.Context, labeled bool) ([]string, error) {
	if runtime.GOOS == "linux" {
		if sources := r.pulseSources(ctx); len(sources) > 0 {
			return sources, nil
		}
	}

	// ffmpeg -list_devices exits non-zero because there is no input to
	// process, yet the listing lands on stderr. Only an empty stderr
	// marks a real failure such as a missing or unrunnable binary.
	format := captureFormat()
	stderr, err := r.procs.RunOutput(ctx, r.ffmpegPath, deviceProbeArgs(format))
	if err != nil && stderr == "" {
		return nil, err
	}

	switch format {
	case "avfoundation":
		devices := parseAVFoundation(stderr)
		if labeled {
			return avDeviceLabels(devices), nil
		}
		return avDeviceIDs(devices), nil
	case "dshow":
		// dshow names double as identifiers.
		return parseDShow(stderr), nil
	default:
		return alsaFallbackDevices(), nil
	}
}

// pulseSources lists PulseAudio sources, ranked. Empty when pactl is
// unavailable.
func (r *FFmpegRecorder) pulseSources(ctx context.Context) []string {
	out, err := r.sources.ListSources(ctx)
	if err != nil {
		return nil
	}
	return parsePactlSources(out)
}

// captureFormat names the ffmpeg input format for the current OS.
func captureFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "alsa"
	}
}

// deviceProbeArgs builds the ffmpeg invocation that lists input devices.
// ALSA has no -list_devices, so there we probe the default device instead.
func deviceProbeArgs(format string) []string {
	switch format {
	case "avfoundation":
		return []string{"-f", "avfoundation", "-list_devices", "true", "-i", ""}
	case "dshow":
		return []string{"-f", "dshow", "-list_devices", "true", "-i", "dummy"}
	default:
		return []string{"-f", "alsa", "-i", "default", "-t", "0", "-f", "null", "-"}
	}
}

// deviceInputArg normalizes a device name into the form the -i flag
// expects: ":name" for avfoundation, "audio=name" for dshow, verbatim
// for ALSA.
func deviceInputArg(format, device string) string {
	switch format {
	case "avfoundation":
		if !strings.HasPrefix(device, ":") {
			device = ":" + device
		}
	case "dshow":
		if !strings.HasPrefix(device, "audio=") {
			device = "audio=" + device
		}
	}
	return device
}

// virtualDeviceMarkers match loopback and screen-share audio devices
// that should never win auto-detection. All entries are lowercase.
var virtualDeviceMarkers = []string{
	// macOS
	"airbeamtv",
	"zoomaudiodevice",
	"microsoft teams audio",
	"blackhole",
	"soundflower",
	"loopback audio",
	// Windows
	"stereo mix",
	"wave out mix",
	"what u hear",
	"lo que escucha", // Spanish locale
	"cable output",
	"vb-audio virtual cable",
	"virtual-audio-capturer",
	"voicemeeter",
	// PulseAudio/PipeWire monitor sources
	".monitor",
}

func isVirtualDevice(name string) bool {
	name = strings.ToLower(name)
	for _, marker := range virtualDeviceMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// micMarkers are substrings that suggest a device is a physical input.
var micMarkers = []string{"micro", "input", "headset", "webcam", "usb audio", "capture"}

func isMicrophone(name string) bool {
	name = strings.ToLower(name)
	for _, marker := range micMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return strings.Contains(name, "analog-stereo") && !strings.Contains(name, ".monitor")
}

// rankDevices reorders device entries by how likely each is to be the
// microphone the user wants: real inputs first, then unclassified
// devices, then known virtual ones. name extracts the string to
// classify by.
func rankDevices[T any](entries []T, name func(T) string) []T {
	var mics, unknown, virtual []T
	for _, e := range entries {
		switch n := name(e); {
		case isVirtualDevice(n):
			virtual = append(virtual, e)
		case isMicrophone(n):
			mics = append(mics, e)
		default:
			unknown = append(unknown, e)
		}
	}
	return slices.Concat(mics, unknown, virtual)
}

func rankDeviceNames(names []string) []string {
	return rankDevices(names, func(s string) string { return s })
}

// avDevice is one audio entry from an avfoundation device listing.
type avDevice struct {
	index string
	name  string
}

// avListingEntry matches "[0] Device Name" at the end of a log line.
var avListingEntry = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)

// parseAVFoundation extracts the audio devices from macOS listing output
// and ranks them. ffmpeg prints sections like:
//
//	[AVFoundation indev @ 0x7fb1] AVFoundation video devices:
//	[AVFoundation indev @ 0x7fb1] [0] Studio Display Camera
//	[AVFoundation indev @ 0x7fb1] AVFoundation audio devices:
//	[AVFoundation indev @ 0x7fb1] [0] BlackHole 2ch
//	[AVFoundation indev @ 0x7fb1] [1] Studio Display Microphone
func parseAVFoundation(stderr string) []avDevice {
	var devices []avDevice
	inAudio := false
	for _, line := range strings.Split(stderr, "\n") {
		switch {
		case strings.Contains(line, "AVFoundation audio devices:"):
			inAudio = true
		case strings.Contains(line, "AVFoundation video devices:"):
			inAudio = false
		case inAudio:
			if m := avListingEntry.FindStringSubmatch(line); m != nil {
				devices = append(devices, avDevice{index: m[1], name: m[2]})
			}
		}
	}
	return rankDevices(devices, func(d avDevice) string { return d.name })
}

// avDeviceIDs renders devices as ":index" identifiers for the -i flag.
func avDeviceIDs(devices []avDevice) []string {
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = ":" + d.index
	}
	return ids
}

// avDeviceLabels renders devices as ":index\tname" display entries.
func avDeviceLabels(devices []avDevice) []string {
	labels := make([]string, len(devices))
	for i, d := range devices {
		labels[i] = ":" + d.index + "\t" + d.name
	}
	return labels
}

// quotedName matches the quoted device name on a dshow listing line;
// quotedAudioName additionally requires the "(audio)" type suffix.
var (
	quotedName      = regexp.MustCompile(`"([^"]+)"`)
	quotedAudioName = regexp.MustCompile(`"([^"]+)"\s+\(audio\)`)
)

// parseDShow extracts audio devices from Windows listing output and
// ranks them. Two listing dialects exist. Older builds group devices
// under section headers:
//
//	[dshow @ 0x2a4] DirectShow video devices
//	[dshow @ 0x2a4]  "USB2.0 HD UVC WebCam"
//	[dshow @ 0x2a4] DirectShow audio devices
//	[dshow @ 0x2a4]  "Microphone Array (Intel Smart Sound)"
//
// gyan.dev and some static builds tag each line with a type instead:
//
//	[dshow @ 0x2a4] "USB2.0 HD UVC WebCam" (video)
//	[dshow @ 0x2a4] "Headset Microphone (Jabra)" (audio)
func parseDShow(stderr string) []string {
	var devices []string
	sectioned := strings.Contains(stderr, "DirectShow audio devices")
	inAudio := false
	for _, line := range strings.Split(stderr, "\n") {
		// "Alternative name" lines repeat a device as a moniker path.
		if strings.Contains(line, "Alternative name") {
			continue
		}
		if !sectioned {
			if m := quotedAudioName.FindStringSubmatch(line); m != nil {
				devices = append(devices, m[1])
			}
			continue
		}
		switch {
		case strings.Contains(line, "DirectShow audio devices"):
			inAudio = true
		case strings.Contains(line, "DirectShow video devices"):
			inAudio = false
		case inAudio:
			if m := quotedName.FindStringSubmatch(line); m != nil {
				devices = append(devices, m[1])
			}
		}
	}
	return rankDeviceNames(devices)
}

// alsaFallbackDevices are the candidates tried when only bare ALSA is
// available; ffmpeg cannot enumerate ALSA inputs. `arecord -l` shows
// the real list, --device selects from it.
func alsaFallbackDevices() []string {
	return []string{"default", "hw:0", "plughw:0"}
}

// parsePactlSources extracts source names from `pactl list sources short`
// output and ranks them. The name is the second column:
//
//	42	alsa_output.usb-Focusrite_Scarlett_2i2-00.analog-stereo.monitor	module-alsa-card.c	s32le 2ch 48000Hz	IDLE
//	43	alsa_input.usb-Focusrite_Scarlett_2i2-00.analog-stereo	module-alsa-card.c	s32le 2ch 48000Hz	RUNNING
func parsePactlSources(output string) []string {
	var sources []string
	for _, line := range strings.Split(output, "\n") {
		if fields := strings.Fields(line); len(fields) >= 2 {
			sources = append(sources, fields[1])
		}
	}
	return rankDeviceNames(sources)
}
