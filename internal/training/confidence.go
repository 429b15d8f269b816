// Package training schedules algorithm reviews with an SM-2 variant.
package training

import (
	"encoding"
	"errors"
	"fmt"
)

// ErrInvalidConfidence is returned for unknown confidence values.
var ErrInvalidConfidence = errors.New("invalid confidence")

// Confidence is the self-assessed result of one review.
type Confidence int

const (
	Failed Confidence = iota + 1 // Could not execute the algorithm.
	Light                        // Executed with hesitation.
	Full                         // Executed fluently.
)

var (
	confidenceNames  = [...]string{Failed: "failed", Light: "light", Full: "full"}
	confidenceByName = map[string]Confidence{
		"failed": Failed,
		"light":  Light,
		"full":   Full,
	}
)

var (
	_ fmt.Stringer             = Confidence(0)
	_ encoding.TextMarshaler   = Confidence(0)
	_ encoding.TextUnmarshaler = (*Confidence)(nil)
)

// String returns "full", "light" or "failed"; invalid values render as Confidence(n).
func (c Confidence) String() string {
	if c.IsValid() {
		return confidenceNames[c]
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// IsValid reports whether c is one of the defined levels.
func (c Confidence) IsValid() bool {
	return c >= Failed && c <= Full
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConfidence, int(c))
	}
	return []byte(confidenceNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	v, ok := confidenceByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidConfidence, text)
	}
	*c = v
	return nil
}

// ParseConfidence parses a confidence name.
func ParseConfidence(s string) (Confidence, error) {
	var c Confidence
	err := c.UnmarshalText([]byte(s))
	return c, err
}
