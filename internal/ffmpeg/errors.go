package ffmpeg

import "errors"

// Sentinel errors for resolution and execution failures. Callers match
// them with errors.Is to decide between setup and runtime exit codes.
var (
	// ErrNotFound means no usable ffmpeg binary could be located or fetched.
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrUnsupportedPlatform means no pinned build exists for this OS/arch.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrChecksumMismatch means a fetched file failed SHA-256 verification.
	ErrChecksumMismatch = errors.New("sha256 mismatch")

	// ErrDownloadFailed means the binary download did not complete.
	ErrDownloadFailed = errors.New("ffmpeg download failed")

	// ErrTimeout means ffmpeg ignored the quit request and had to be killed.
	ErrTimeout = errors.New("ffmpeg did not exit within timeout")
)
