package engine

import (
	"fmt"
	"strings"
)

// Size represents a validated whisper model size.
// The zero value is invalid; obtain one through ParseSize or the
// pre-parsed values below.
type Size struct {
	name string
}

var _ fmt.Stringer = Size{}

// Pre-parsed model sizes for direct use, smallest to largest.
var (
	TinySize   = Size{name: "tiny"}
	BaseSize   = Size{name: "base"}
	SmallSize  = Size{name: "small"}
	MediumSize = Size{name: "medium"}
	LargeSize  = Size{name: "large"}
)

// validSizes maps known size names to their Size value.
var validSizes = map[string]Size{
	"tiny":   TinySize,
	"base":   BaseSize,
	"small":  SmallSize,
	"medium": MediumSize,
	"large":  LargeSize,
}

// ParseSize validates a raw model size and returns the corresponding
// Size value. Matching is case-insensitive and ignores surrounding
// whitespace.
func ParseSize(raw string) (Size, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return Size{}, fmt.Errorf("%w: empty size", ErrInvalidSize)
	}
	s, ok := validSizes[name]
	if !ok {
		return Size{}, fmt.Errorf("%w: %q (use tiny, base, small, medium, or large)", ErrInvalidSize, raw)
	}
	return s, nil
}

// MustParseSize is like ParseSize but panics on invalid input.
// Intended for hardcoded sizes in tests and initialization.
func MustParseSize(raw string) Size {
	s, err := ParseSize(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the canonical size name.
func (s Size) String() string { return s.name }

// IsZero reports whether the size is the zero value.
func (s Size) IsZero() bool { return s.name == "" }

// ModelFile returns the ggml model file name for this size, following
// the whisper.cpp naming convention ("ggml-base.bin").
func (s Size) ModelFile() string {
	return "ggml-" + s.name + ".bin"
}

// OrDefault returns s, or BaseSize when s is zero.
func (s Size) OrDefault() Size {
	if s.IsZero() {
		return BaseSize
	}
	return s
}
