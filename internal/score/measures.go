package score

import "fmt"

// Measures is an inclusive, 1-based measure range. Negative numbers count
// from the end (-1 is the last measure). The zero value means every measure.
type Measures struct {
	Start int `cbor:"start,omitempty" yaml:"start,omitempty"`
	Stop  int `cbor:"stop,omitempty" yaml:"stop,omitempty"`
}

// AllMeasures covers the whole score.
var AllMeasures = Measures{}

// Measure selects a single measure.
func Measure(n int) Measures {
	return Measures{Start: n, Stop: n}
}

// MeasureRange selects start through stop inclusive.
func MeasureRange(start, stop int) Measures {
	return Measures{Start: start, Stop: stop}
}

// IsAll reports whether the range is unrestricted.
func (m Measures) IsAll() bool {
	return m.Start == 0 && m.Stop == 0
}

// Resolve converts the range into concrete 1-based bounds for a score with
// count measures.
func (m Measures) Resolve(count int) (int, int, error) {
	if count == 0 {
		return 0, 0, fmt.Errorf("score: no measures")
	}
	if m.IsAll() {
		return 1, count, nil
	}
	start := normalizeMeasure(m.Start, count, 1)
	stop := normalizeMeasure(m.Stop, count, count)
	if start < 1 || start > count {
		return 0, 0, fmt.Errorf("score: measure %d out of range 1-%d", m.Start, count)
	}
	if stop < 1 || stop > count {
		return 0, 0, fmt.Errorf("score: measure %d out of range 1-%d", m.Stop, count)
	}
	if stop < start {
		return 0, 0, fmt.Errorf("score: measures %d-%d are reversed", m.Start, m.Stop)
	}
	return start, stop, nil
}

// String renders "all", "3" or "1-4".
func (m Measures) String() string {
	switch {
	case m.IsAll():
		return "all"
	case m.Start == m.Stop:
		return fmt.Sprintf("%d", m.Start)
	default:
		return fmt.Sprintf("%d-%d", m.Start, m.Stop)
	}
}

func normalizeMeasure(n, count, fallback int) int {
	switch {
	case n == 0:
		return fallback
	case n < 0:
		return count + n + 1
	default:
		return n
	}
}
