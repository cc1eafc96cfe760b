package engine

import (
	"fmt"
	"strings"
)

// Name represents a validated transcription engine choice.
// The zero value is invalid; obtain one through ParseName or the
// pre-parsed values below.
type Name struct {
	name string
}

var _ fmt.Stringer = Name{}

// Pre-parsed engine names for direct use.
var (
	WhisperName = Name{name: "whisper"}
	OpenAIName  = Name{name: "openai"}
)

// validNames maps known engine names to their Name value.
var validNames = map[string]Name{
	"whisper": WhisperName,
	"openai":  OpenAIName,
}

// ParseName validates a raw engine name and returns the corresponding
// Name value. Matching is case-insensitive and ignores surrounding
// whitespace.
func ParseName(raw string) (Name, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return Name{}, fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	n, ok := validNames[name]
	if !ok {
		return Name{}, fmt.Errorf("%w: %q (use 'whisper' or 'openai')", ErrInvalidName, raw)
	}
	return n, nil
}

// MustParseName is like ParseName but panics on invalid input.
// Intended for hardcoded names in tests and initialization.
func MustParseName(raw string) Name {
	n, err := ParseName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the canonical engine name.
func (n Name) String() string { return n.name }

// IsZero reports whether the name is the zero value.
func (n Name) IsZero() bool { return n.name == "" }

// IsWhisper reports whether the name selects the local whisper engine.
func (n Name) IsWhisper() bool { return n == WhisperName }

// IsOpenAI reports whether the name selects the OpenAI API engine.
func (n Name) IsOpenAI() bool { return n == OpenAIName }

// OrDefault returns n, or WhisperName when n is zero.
func (n Name) OrDefault() Name {
	if n.IsZero() {
		return WhisperName
	}
	return n
}
