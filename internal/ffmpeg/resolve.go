package ffmpeg

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Pinned ffmpeg build. Binaries come from the eugeneware/ffmpeg-static
// release of the same version; checksums are of the gzipped release
// assets.
const (
	pinnedVersion = "6.1.1"
	releaseBase   = "https://github.com/eugeneware/ffmpeg-static/releases/download/b6.1.1"

	// versionMarker records which build the install dir holds, so bumping
	// pinnedVersion triggers a re-download.
	versionMarker = ".version"

	// fetchTimeout bounds the whole download. The compressed binary is
	// 20-30MB; the allowance covers slow links.
	fetchTimeout = 10 * time.Minute

	// minMajor is the oldest ffmpeg the recorder and segmenter are known
	// to work with. Older builds have segment muxer and device listing
	// quirks.
	minMajor = 4

	binDirPerm = 0750
)

// envPathOverride names the environment variable that short-circuits all
// resolution.
const envPathOverride = "FFMPEG_PATH"

// downloadSpec points at one platform's release asset.
type downloadSpec struct {
	URL    string
	SHA256 string // digest of the gzipped asset
}

// platformDownload returns the release asset for an OS/arch pair, or
// ok=false when no pinned build exists for it.
func platformDownload(goos, goarch string) (downloadSpec, bool) {
	switch goos + "/" + goarch {
	case "darwin/arm64":
		return downloadSpec{
			URL:    releaseBase + "/ffmpeg-darwin-arm64.gz",
			SHA256: "8923876afa8db5585022d7860ec7e589af192f441c56793971276d450ed3bbfa",
		}, true
	case "darwin/amd64":
		return downloadSpec{
			URL:    releaseBase + "/ffmpeg-darwin-x64.gz",
			SHA256: "5d8fb6f280c428d0e82cd5ee68215f0734d64f88e37dcc9e082f818c9e5025f0",
		}, true
	case "linux/amd64":
		return downloadSpec{
			URL:    releaseBase + "/ffmpeg-linux-x64.gz",
			SHA256: "bfe8a8fc511530457b528c48d77b5737527b504a3797a9bc4866aeca69c2dffa",
		}, true
	case "windows/amd64":
		return downloadSpec{
			URL:    releaseBase + "/ffmpeg-win32-x64.gz",
			SHA256: "8883a3dffbd0a16cf4ef95206ea05283f78908dbfb118f73c83f4951dcc06d77",
		}, true
	}
	return downloadSpec{}, false
}

// releaseClient has explicit timeouts at every phase so a stalled
// download cannot hang the CLI.
var releaseClient = &http.Client{
	Timeout: fetchTimeout,
	Transport: &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 20 * time.Second}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	},
}

// Resolver locates a usable ffmpeg binary, downloading the pinned build
// when nothing else is available.
type Resolver struct {
	read     readFS
	write    writeFS
	http     requestDoer
	env      sysEnv
	stderr   io.Writer
	goos     string
	goarch   string
	download *downloadSpec // test override; nil selects by platform
}

// ResolverOption adjusts a Resolver.
type ResolverOption func(*Resolver)

// WithFileReader substitutes the filesystem read side.
func WithFileReader(r readFS) ResolverOption {
	return func(rr *Resolver) { rr.read = r }
}

// WithFileWriter substitutes the filesystem write side.
func WithFileWriter(w writeFS) ResolverOption {
	return func(rr *Resolver) { rr.write = w }
}

// WithHTTPClient substitutes the download client.
func WithHTTPClient(c requestDoer) ResolverOption {
	return func(rr *Resolver) { rr.http = c }
}

// WithEnvProvider substitutes environment and PATH lookups.
func WithEnvProvider(e sysEnv) ResolverOption {
	return func(rr *Resolver) { rr.env = e }
}

// WithStderr redirects status messages.
func WithStderr(w io.Writer) ResolverOption {
	return func(rr *Resolver) { rr.stderr = w }
}

// WithPlatform overrides the target OS/arch.
func WithPlatform(goos, goarch string) ResolverOption {
	return func(rr *Resolver) {
		rr.goos = goos
		rr.goarch = goarch
	}
}

// WithPlatformInfo overrides the release asset to download.
func WithPlatformInfo(spec downloadSpec) ResolverOption {
	return func(rr *Resolver) { rr.download = &spec }
}

// NewResolver builds a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		read:   diskReader{},
		write:  diskWriter{},
		http:   releaseClient,
		env:    realEnv{},
		stderr: os.Stderr,
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve locates ffmpeg, in order:
//
//  1. The FFMPEG_PATH environment variable. When set it must point at an
//     existing binary; resolution fails rather than silently using a
//     different copy.
//  2. The private install under ~/.whisper-transcribe/bin, when its
//     version marker matches the pinned build.
//  3. The system PATH.
//  4. Auto-download of the pinned build into the private install dir.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if override := r.env.Getenv(envPathOverride); override != "" {
		if _, err := r.read.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s is %q, which does not exist (unset it to allow auto-download)",
				ErrNotFound, envPathOverride, override)
		}
		return override, nil
	}

	ok, err := r.hasCurrentInstall()
	if err != nil {
		return "", err
	}
	if ok {
		return r.binaryPath()
	}

	if path, err := r.env.LookPath("ffmpeg"); err == nil {
		return path, nil
	}

	fmt.Fprintln(r.stderr, "ffmpeg not found, downloading a pinned build...")
	if err := r.install(ctx); err != nil {
		return "", fmt.Errorf("%w: automatic install failed: %v\n\n%s",
			ErrNotFound, err, r.installHelp())
	}
	return r.binaryPath()
}

// installRoot is the private directory this tool installs ffmpeg into.
func (r *Resolver) installRoot() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".whisper-transcribe", "bin"), nil
}

// binaryPath is where the private install puts the binary.
func (r *Resolver) binaryPath() (string, error) {
	root, err := r.installRoot()
	if err != nil {
		return "", err
	}
	name := "ffmpeg"
	if r.goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(root, name), nil
}

// hasCurrentInstall reports whether the private install exists and holds
// the pinned build. The Stat/ReadFile pair races with a concurrent
// install, which is harmless: the worst case is one redundant, idempotent
// download.
func (r *Resolver) hasCurrentInstall() (bool, error) {
	bin, err := r.binaryPath()
	if err != nil {
		return false, err
	}
	if _, err := r.read.Stat(bin); os.IsNotExist(err) {
		return false, nil
	}
	marker, err := r.read.ReadFile(filepath.Join(filepath.Dir(bin), versionMarker))
	if err != nil {
		return false, nil // marker missing, reinstall
	}
	return string(marker) == pinnedVersion, nil
}

// install downloads the pinned build and writes the version marker.
func (r *Resolver) install(ctx context.Context) error {
	spec := r.download
	if spec == nil {
		s, ok := platformDownload(r.goos, r.goarch)
		if !ok {
			return fmt.Errorf("%w: no pinned build for %s/%s (builds exist for darwin-arm64, darwin-amd64, linux-amd64, windows-amd64)",
				ErrUnsupportedPlatform, r.goos, r.goarch)
		}
		spec = &s
	}

	dest, err := r.binaryPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := r.write.MkdirAll(dir, binDirPerm); err != nil {
		return fmt.Errorf("create install directory %s: %w", dir, err)
	}

	if err := r.fetchBinary(ctx, *spec, dest); err != nil {
		_ = r.write.Remove(dest)
		return fmt.Errorf("fetch ffmpeg build: %w", err)
	}

	marker := filepath.Join(dir, versionMarker)
	if err := r.write.WriteFile(marker, []byte(pinnedVersion), 0644); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	return nil
}

// fetchBinary downloads the gzipped asset to a temp file, verifies its
// checksum, and extracts it to dest.
func (r *Resolver) fetchBinary(ctx context.Context, spec downloadSpec, dest string) error {
	tmp, err := r.write.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		_ = r.write.Remove(tmpPath)
	}()

	if err := r.fetchTo(ctx, spec.URL, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close downloaded file: %w", err)
	}
	closed = true

	if err := checkSHA256(tmpPath, spec.SHA256); err != nil {
		return err
	}
	if err := extractGzip(tmpPath, dest); err != nil {
		return err
	}

	if r.goos != "windows" {
		if err := r.write.Chmod(dest, 0755); err != nil {
			return fmt.Errorf("mark binary executable: %w", err)
		}
	}
	return nil
}

// fetchTo streams a URL into an open file.
func (r *Resolver) fetchTo(ctx context.Context, url string, dest *os.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrDownloadFailed, err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected HTTP %d from %s", ErrDownloadFailed, resp.StatusCode, url)
	}

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}

// installHelp returns manual install guidance for the current platform,
// shown when auto-download fails.
func (r *Resolver) installHelp() string {
	switch r.goos {
	case "darwin":
		return strings.Join([]string{
			"To install FFmpeg manually:",
			"  brew install ffmpeg",
			"",
			"Or download from https://evermeet.cx/ffmpeg/",
			"",
			"Or set FFMPEG_PATH environment variable to your ffmpeg binary.",
		}, "\n")
	case "linux":
		return strings.Join([]string{
			"To install FFmpeg manually:",
			"  Ubuntu/Debian: sudo apt install ffmpeg",
			"  Fedora:        sudo dnf install ffmpeg",
			"  Arch:          sudo pacman -S ffmpeg",
			"",
			"Or set FFMPEG_PATH environment variable to your ffmpeg binary.",
		}, "\n")
	case "windows":
		return strings.Join([]string{
			"To install FFmpeg manually:",
			"  winget install ffmpeg",
			"",
			"Or download from https://www.gyan.dev/ffmpeg/builds/",
			"",
			"Or set FFMPEG_PATH environment variable to your ffmpeg.exe.",
		}, "\n")
	}
	return "To install FFmpeg manually, download from https://ffmpeg.org/download.html\n" +
		"Or set FFMPEG_PATH environment variable to your ffmpeg binary."
}

// maxBinarySize caps decompression output. The real binary is ~80MB;
// anything past 200MB is a malformed or hostile archive.
const maxBinarySize = 200 * 1024 * 1024

// checkSHA256 verifies a file against an expected hex digest. It opens
// the file directly: the path is always one of our own temp files.
func checkSHA256(path, want string) error {
	f, err := os.Open(path) // #nosec G304 -- internal temp file
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}

	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// extractGzip decompresses src into dst. Output goes to a temp file in
// dst's directory first and is renamed into place, so a failed extract
// never leaves a half-written binary at dst.
func extractGzip(src, dst string) error {
	f, err := os.Open(src) // #nosec G304 -- internal temp file
	if err != nil {
		return fmt.Errorf("open gzip file: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read gzip header: %w", err)
	}
	defer func() { _ = zr.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".extract-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		_ = tmp.Close()
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	// The size cap stops decompression bombs.
	n, err := io.Copy(tmp, io.LimitReader(zr, maxBinarySize))
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if n >= maxBinarySize {
		return fmt.Errorf("decompressed output exceeds the %d byte cap", maxBinarySize)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close extracted file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("move binary into place: %w", err)
	}
	keep = true
	return nil
}

// sharedResolver backs the package-level Resolve.
var sharedResolver = sync.OnceValue(func() *Resolver { return NewResolver() })

// Resolve locates ffmpeg with the shared resolver.
func Resolve(ctx context.Context) (string, error) {
	return sharedResolver().Resolve(ctx)
}

// VersionChecker warns about ffmpeg builds older than the supported
// minimum.
type VersionChecker struct {
	exec   *Executor
	stderr io.Writer
}

// VersionCheckerOption adjusts a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor used to run ffmpeg -version.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(c *VersionChecker) { c.exec = e }
}

// WithVersionStderr sets where warnings are printed.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(c *VersionChecker) { c.stderr = w }
}

// NewVersionChecker builds a VersionChecker with production defaults.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	c := &VersionChecker{
		exec:   sharedExecutor(),
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check parses `ffmpeg -version` output and warns on stderr when the
// major version is below the supported minimum. It never fails the run;
// the return value reports whether a version could be read at all.
func (c *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	out, err := c.exec.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && out == "" {
		return false
	}

	major, ok := parseMajorVersion(out)
	if !ok {
		return false
	}

	if major < minMajor {
		fmt.Fprintf(c.stderr, "Warning: ffmpeg %d is older than the recommended minimum %d\n",
			major, minMajor)
	}
	return true
}

// parseMajorVersion reads the major version from the first line of
// `ffmpeg -version` output. Release builds print "ffmpeg version 6.1.1";
// some distributions prefix the number with "n".
func parseMajorVersion(out string) (int, bool) {
	line, _, _ := strings.Cut(out, "\n")
	rest, ok := strings.CutPrefix(line, "ffmpeg version ")
	if !ok {
		return 0, false
	}
	rest = strings.TrimPrefix(rest, "n")

	major, digits := 0, 0
	for _, c := range rest {
		if c < '0' || c > '9' {
			break
		}
		major = major*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return major, true
}

// CheckVersion runs the default version check, printing any warning to
// stderr.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	NewVersionChecker().Check(ctx, ffmpegPath)
}
