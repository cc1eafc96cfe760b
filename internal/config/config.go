package config

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config keys.
const (
	KeyEngine        = "engine"
	KeyModel         = "model"
	KeyLanguage      = "language"
	KeyChunkDuration = "chunk-duration"
	KeyOutputDir     = "output-dir"
)

// Environment fallbacks, read when the config file leaves a key unset.
const (
	EnvEngine        = "WHISPER_TRANSCRIBE_ENGINE"
	EnvModel         = "WHISPER_TRANSCRIBE_MODEL"
	EnvLanguage      = "WHISPER_TRANSCRIBE_LANGUAGE"
	EnvChunkDuration = "WHISPER_TRANSCRIBE_CHUNK_DURATION"
	EnvOutputDir     = "WHISPER_TRANSCRIBE_OUTPUT_DIR"
)

// Config carries the persisted settings as raw strings. Validation and
// defaulting happen in the CLI layer, together with flag resolution.
type Config struct {
	Engine        string
	Model         string
	Language      string
	ChunkDuration string
	OutputDir     string
}

// fields ties each key to its env fallback and its slot in Config, so
// Load stays a single loop as keys are added.
var fields = []struct {
	key  string
	env  string
	slot func(*Config) *string
}{
	{KeyEngine, EnvEngine, func(c *Config) *string { return &c.Engine }},
	{KeyModel, EnvModel, func(c *Config) *string { return &c.Model }},
	{KeyLanguage, EnvLanguage, func(c *Config) *string { return &c.Language }},
	{KeyChunkDuration, EnvChunkDuration, func(c *Config) *string { return &c.ChunkDuration }},
	{KeyOutputDir, EnvOutputDir, func(c *Config) *string { return &c.OutputDir }},
}

// configDir is XDG_CONFIG_HOME/whisper-transcribe when XDG_CONFIG_HOME
// is set, ~/.config/whisper-transcribe otherwise.
func configDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "whisper-transcribe"), nil
}

func filePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// Load reads the config file and fills unset keys from the environment.
// A missing file is not an error; the zero Config comes back.
func Load() (Config, error) {
	var cfg Config

	p, err := filePath()
	if err != nil {
		return cfg, err
	}

	values, err := parseEntries(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	for _, f := range fields {
		s := f.slot(&cfg)
		*s = values[f.key]
		if *s == "" {
			*s = os.Getenv(f.env)
		}
	}
	return cfg, nil
}

// parseEntries reads a key=value file. Blank lines and # comments are
// skipped; any other line without '=' is a syntax error.
func parseEntries(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- path derives from the config dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	values := make(map[string]string)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w at line %d: %q", ErrInvalidSyntax, n, line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return values, nil
}

// Save sets one key and rewrites the file. Other keys survive; comments
// do not, since the file is regenerated from the parsed entries.
func Save(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}

	p, err := filePath()
	if err != nil {
		return err
	}
	// #nosec G301 -- user config dir
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	values, err := parseEntries(p)
	if err != nil {
		values = map[string]string{}
	}
	values[key] = value

	return writeAll(p, values)
}

// validKey rejects keys that would corrupt the line format.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "=\n") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// writeAll regenerates the file with keys sorted, so saves are stable
// and diffs stay readable.
func writeAll(p string, values map[string]string) error {
	var b strings.Builder
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(&b, "%s=%s\n", key, values[key])
	}

	// #nosec G306 -- user config, not secret material
	if err := os.WriteFile(p, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// readAll loads every entry, treating a missing file as empty.
func readAll() (map[string]string, error) {
	p, err := filePath()
	if err != nil {
		return nil, err
	}
	values, err := parseEntries(p)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Get returns one value, or "" when the key or the file is absent.
func Get(key string) (string, error) {
	values, err := readAll()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// List returns every persisted entry.
func List() (map[string]string, error) {
	return readAll()
}

// PrepareOutputDir verifies that dir can hold transcripts, creating it
// when missing.
func PrepareOutputDir(dir string) error {
	if dir == "" {
		return errors.New("output directory cannot be empty")
	}

	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expand ~: %w", err)
		}
		dir = filepath.Join(home, rest)
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		// #nosec G301 -- user output dir
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat output directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	return probeWritable(dir)
}

// probeWritable creates and removes a marker file. Permission bits alone
// cannot answer writability across platforms and ACLs.
func probeWritable(dir string) error {
	probe := filepath.Join(dir, ".whisper-transcribe-write-test")
	f, err := os.Create(probe) // #nosec G304 -- path built from the validated dir
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	closeErr := f.Close()
	_ = os.Remove(probe)
	if closeErr != nil {
		return fmt.Errorf("%w: %v", ErrNotWritable, closeErr)
	}
	return nil
}

// ExpandHome substitutes a leading ~/ with the home directory. The path
// comes back unchanged when the home directory is unknown.
func ExpandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
