// Package duration implements the rational arithmetic used for note values,
// offsets and time signatures.
package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration is a reduced, non-negative rational number of whole notes.
// The zero value is a zero-length duration.
type Duration struct {
	num int64
	den int64
}

// Zero is the empty duration.
var Zero = Duration{}

// New returns num/den reduced to lowest terms. It panics when den is zero
// or the result is negative.
func New(num, den int64) Duration {
	if den == 0 {
		panic("duration: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	if num < 0 {
		panic(fmt.Sprintf("duration: negative value %d/%d", num, den))
	}
	if num == 0 {
		return Zero
	}
	g := gcd(num, den)
	return Duration{num: num / g, den: den / g}
}

// Parse reads "n/d" or a bare integer.
func Parse(value string) (Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Zero, fmt.Errorf("duration: empty value")
	}
	numText, denText, hasSlash := strings.Cut(trimmed, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numText), 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("duration: parse %q: %w", value, err)
	}
	den := int64(1)
	if hasSlash {
		den, err = strconv.ParseInt(strings.TrimSpace(denText), 10, 64)
		if err != nil {
			return Zero, fmt.Errorf("duration: parse %q: %w", value, err)
		}
	}
	if den <= 0 {
		return Zero, fmt.Errorf("duration: %q has non-positive denominator", value)
	}
	if num < 0 {
		return Zero, fmt.Errorf("duration: %q is negative", value)
	}
	return New(num, den), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(value string) Duration {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Num returns the reduced numerator.
func (d Duration) Num() int64 { return d.num }

// Den returns the reduced denominator (1 for zero).
func (d Duration) Den() int64 {
	if d.den == 0 {
		return 1
	}
	return d.den
}

// IsZero reports whether d has no length.
func (d Duration) IsZero() bool { return d.num == 0 }

// Add returns d + other.
func (d Duration) Add(other Duration) Duration {
	return New(d.num*other.Den()+other.num*d.Den(), d.Den()*other.Den())
}

// Sub returns d - other. It panics when the result would be negative.
func (d Duration) Sub(other Duration) Duration {
	return New(d.num*other.Den()-other.num*d.Den(), d.Den()*other.Den())
}

// Mul scales d by an integer factor.
func (d Duration) Mul(factor int64) Duration {
	return New(d.num*factor, d.Den())
}

// Div divides d by a positive integer.
func (d Duration) Div(divisor int64) Duration {
	return New(d.num, d.Den()*divisor)
}

// Ratio reports how many times other fits into d as a rational.
func (d Duration) Ratio(other Duration) (int64, int64) {
	r := New(d.num*other.Den(), d.Den()*other.num)
	return r.num, r.Den()
}

// Cmp returns -1, 0 or 1.
func (d Duration) Cmp(other Duration) int {
	left := d.num * other.Den()
	right := other.num * d.Den()
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

// Less reports d < other.
func (d Duration) Less(other Duration) bool { return d.Cmp(other) < 0 }

// Equal reports d == other.
func (d Duration) Equal(other Duration) bool { return d.Cmp(other) == 0 }

// Min returns the smaller duration.
func Min(a, b Duration) Duration {
	if b.Less(a) {
		return b
	}
	return a
}

// Sum adds all durations.
func Sum(values []Duration) Duration {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// String renders "n/d", or "n" for whole multiples.
func (d Duration) String() string {
	if d.Den() == 1 {
		return strconv.FormatInt(d.num, 10)
	}
	return fmt.Sprintf("%d/%d", d.num, d.den)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HasPowerOfTwoDenominator reports whether d can be written without tuplets.
func (d Duration) HasPowerOfTwoDenominator() bool {
	return isPowerOfTwo(d.Den())
}

// IsAssignable reports whether d is writable as a single note value: plain,
// dotted, double- or triple-dotted, no longer than a triple-dotted whole.
func (d Duration) IsAssignable() bool {
	if d.IsZero() || !isPowerOfTwo(d.Den()) {
		return false
	}
	switch d.num {
	case 1, 3, 7, 15:
	default:
		return false
	}
	// (num+1)/2 must divide den so the undotted base value is 1/n.
	base := (d.num + 1) / 2
	return d.Den()%base == 0
}

// Decompose splits d into assignable pieces, longest first, so that tied
// together they sound for exactly d.
func (d Duration) Decompose() ([]Duration, error) {
	if d.IsZero() {
		return nil, nil
	}
	if !isPowerOfTwo(d.Den()) {
		return nil, fmt.Errorf("duration: %s needs a tuplet", d)
	}
	var parts []Duration
	remaining := d
	for !remaining.IsZero() {
		part := largestAssignable(remaining)
		parts = append(parts, part)
		remaining = remaining.Sub(part)
	}
	return parts, nil
}

// LilyPond returns the note-value token ("4.", "8", "1...") for an
// assignable duration.
func (d Duration) LilyPond() (string, error) {
	if !d.IsAssignable() {
		return "", fmt.Errorf("duration: %s is not assignable", d)
	}
	halves := (d.num + 1) / 2
	base := d.Den() / halves
	dots := 0
	for n := d.num; n > 1; n = (n - 1) / 2 {
		dots++
	}
	return strconv.FormatInt(base, 10) + strings.Repeat(".", dots), nil
}

func largestAssignable(limit Duration) Duration {
	best := Zero
	bound := limit.Den()
	if bound < 8 {
		bound = 8
	}
	for den := int64(1); den <= bound; den *= 2 {
		for _, num := range []int64{15, 7, 3, 1} {
			candidate := New(num, den)
			if !candidate.IsAssignable() || limit.Less(candidate) {
				continue
			}
			if best.Less(candidate) {
				best = candidate
			}
		}
	}
	return best
}

func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
