package audio

import (
	"time"
)

// Test-only exports. Compiled into the test binary alone, so the public
// surface of the package stays unchanged.

// Source and WAV helpers.
var (
	SourceNameFromPath = sourceNameFromPath
	WriteWAV           = writeWAV
	SampleToInt16      = sampleToInt16
)

const (
	RecordedSourceName = recordedSourceName
	RecordedFileName   = recordedFileName
	TempDirMarker      = tempDirMarker
)

// SegmentArgs exposes segmentArgs with the chunk duration in seconds.
func SegmentArgs(audioPath string, chunkDurationSec int, outPattern string) []string {
	return segmentArgs(audioPath, time.Duration(chunkDurationSec)*time.Second, outPattern)
}

// Segmenter dependency interfaces, for building stubs outside the package.
type (
	CommandRunner  = commandRunner
	TempDirCreator = tempDirCreator
	FileRemover    = fileRemover
	FileStatter    = fileStatter
	DirReader      = dirReader
)

// Recorder internals: platform argument builders and device discovery.
var (
	CaptureFormat       = captureFormat
	DeviceInputArg      = deviceInputArg
	DeviceProbeArgs     = deviceProbeArgs
	PCMArgs             = pcmArgs
	IsVirtualDevice     = isVirtualDevice
	IsMicrophone        = isMicrophone
	RankDeviceNames     = rankDeviceNames
	ParseDShow          = parseDShow
	ALSAFallbackDevices = alsaFallbackDevices
	ParsePactlSources   = parsePactlSources
)

// RecordArgs exposes recordArgs with the duration in seconds.
func RecordArgs(format, inputArg string, durationSec int, output string) []string {
	return recordArgs(format, inputArg, time.Duration(durationSec)*time.Second, output)
}

// ParseAVFoundationIDs runs the avfoundation parse-and-rank path and
// renders identifiers (":index"); ParseAVFoundationLabels renders
// display entries (":index\tname"). avDevice is unexported, so both
// wrap the parser.
func ParseAVFoundationIDs(stderr string) []string {
	return avDeviceIDs(parseAVFoundation(stderr))
}

func ParseAVFoundationLabels(stderr string) []string {
	return avDeviceLabels(parseAVFoundation(stderr))
}

// Recorder dependency interfaces and options.
type (
	ProcessRunner = processRunner
	SourceLister  = sourceLister
)

var (
	ExportedWithProcessRunner = WithProcessRunner
	ExportedWithSourceLister  = WithSourceLister
)
