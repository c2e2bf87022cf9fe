package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSignature is a meter such as 3/8. Unlike Duration it is never reduced:
// 4/8 and 2/4 are different meters of equal length.
type TimeSignature struct {
	Numerator   int `cbor:"n" yaml:"numerator"`
	Denominator int `cbor:"d" yaml:"denominator"`
}

// ParseTimeSignature reads "n/d".
func ParseTimeSignature(value string) (TimeSignature, error) {
	numText, denText, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return TimeSignature{}, fmt.Errorf("time signature: %q must look like n/d", value)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numText))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("time signature: parse %q: %w", value, err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(denText))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("time signature: parse %q: %w", value, err)
	}
	ts := TimeSignature{Numerator: num, Denominator: den}
	if err := ts.Validate(); err != nil {
		return TimeSignature{}, err
	}
	return ts, nil
}

// ParseTimeSignatures parses every entry, reporting the first failure by index.
func ParseTimeSignatures(values []string) ([]TimeSignature, error) {
	out := make([]TimeSignature, 0, len(values))
	for idx, value := range values {
		ts, err := ParseTimeSignature(value)
		if err != nil {
			return nil, fmt.Errorf("time_signatures[%d]: %w", idx, err)
		}
		out = append(out, ts)
	}
	return out, nil
}

// Validate checks for a positive numerator and a power-of-two denominator.
func (ts TimeSignature) Validate() error {
	if ts.Numerator <= 0 {
		return fmt.Errorf("time signature: numerator must be > 0, got %d", ts.Numerator)
	}
	if !isPowerOfTwo(int64(ts.Denominator)) {
		return fmt.Errorf("time signature: denominator must be a power of two, got %d", ts.Denominator)
	}
	return nil
}

// Duration returns the length of one measure.
func (ts TimeSignature) Duration() Duration {
	return New(int64(ts.Numerator), int64(ts.Denominator))
}

// String renders "n/d".
func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}
