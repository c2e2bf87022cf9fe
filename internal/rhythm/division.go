// Package rhythm turns time spans into notes and rests: division makers
// partition a span, rhythm makers fill each division, and the rhythm command
// stitches the result into a voice, threading carry-over state so ties can
// continue across spans.
package rhythm

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

// Division is one contiguous slice of a span handed to a rhythm maker.
type Division struct {
	Start    duration.Duration
	Duration duration.Duration
}

// Stop returns the offset at which the division ends.
func (d Division) Stop() duration.Duration {
	return d.Start.Add(d.Duration)
}

// String renders "3/8@1/2".
func (d Division) String() string {
	return fmt.Sprintf("%s@%s", d.Duration, d.Start)
}

// MeasureDivisions returns one division per measure of span.
func MeasureDivisions(span score.Span) []Division {
	out := make([]Division, 0, len(span.TimeSignatures))
	offset := span.Start
	for _, ts := range span.TimeSignatures {
		d := ts.Duration()
		out = append(out, Division{Start: offset, Duration: d})
		offset = offset.Add(d)
	}
	return out
}

// DivisionMaker repartitions measure divisions. The output must cover the
// same total duration as the input.
type DivisionMaker interface {
	Divide(divisions []Division) ([]Division, error)
	String() string
}

// Measurewise keeps one division per measure.
type Measurewise struct{}

// Divide implements DivisionMaker.
func (Measurewise) Divide(divisions []Division) ([]Division, error) {
	return append([]Division(nil), divisions...), nil
}

func (Measurewise) String() string { return "measures" }

// SplitByDurations cuts every division into pieces of the given durations,
// cycling through them; the last piece of a division takes what is left.
type SplitByDurations struct {
	Durations []duration.Duration
}

// Divide implements DivisionMaker.
func (m SplitByDurations) Divide(divisions []Division) ([]Division, error) {
	if len(m.Durations) == 0 {
		return nil, fmt.Errorf("rhythm: split needs at least one duration")
	}
	for _, d := range m.Durations {
		if d.IsZero() {
			return nil, fmt.Errorf("rhythm: split duration must be positive")
		}
	}
	var out []Division
	for _, div := range divisions {
		offset := div.Start
		left := div.Duration
		for i := 0; !left.IsZero(); i++ {
			piece := duration.Min(m.Durations[i%len(m.Durations)], left)
			out = append(out, Division{Start: offset, Duration: piece})
			offset = offset.Add(piece)
			left = left.Sub(piece)
		}
	}
	return out, nil
}

func (m SplitByDurations) String() string {
	parts := make([]string, 0, len(m.Durations))
	for _, d := range m.Durations {
		parts = append(parts, d.String())
	}
	return "split(" + strings.Join(parts, ", ") + ")"
}

// FuseByCounts joins consecutive divisions in groups of the given sizes,
// cycling through them.
type FuseByCounts struct {
	Counts []int
}

// Divide implements DivisionMaker.
func (m FuseByCounts) Divide(divisions []Division) ([]Division, error) {
	if len(m.Counts) == 0 {
		return nil, fmt.Errorf("rhythm: fuse needs at least one count")
	}
	for _, c := range m.Counts {
		if c <= 0 {
			return nil, fmt.Errorf("rhythm: fuse count %d must be positive", c)
		}
	}
	var out []Division
	for i, group := 0, 0; i < len(divisions); group++ {
		n := m.Counts[group%len(m.Counts)]
		fused := Division{Start: divisions[i].Start}
		for j := 0; j < n && i < len(divisions); j++ {
			fused.Duration = fused.Duration.Add(divisions[i].Duration)
			i++
		}
		out = append(out, fused)
	}
	return out, nil
}

func (m FuseByCounts) String() string {
	return fmt.Sprintf("fuse(%v)", m.Counts)
}

// FuseAll joins every division into one.
type FuseAll struct{}

// Divide implements DivisionMaker.
func (FuseAll) Divide(divisions []Division) ([]Division, error) {
	if len(divisions) == 0 {
		return nil, nil
	}
	fused := Division{Start: divisions[0].Start}
	for _, div := range divisions {
		fused.Duration = fused.Duration.Add(div.Duration)
	}
	return []Division{fused}, nil
}

func (FuseAll) String() string { return "fuse()" }

// EvenSplit cuts every division into Parts equal pieces.
type EvenSplit struct {
	Parts int
}

// Divide implements DivisionMaker.
func (m EvenSplit) Divide(divisions []Division) ([]Division, error) {
	if m.Parts <= 0 {
		return nil, fmt.Errorf("rhythm: even split needs a positive part count, got %d", m.Parts)
	}
	var out []Division
	for _, div := range divisions {
		piece := div.Duration.Div(int64(m.Parts))
		offset := div.Start
		for i := 0; i < m.Parts; i++ {
			out = append(out, Division{Start: offset, Duration: piece})
			offset = offset.Add(piece)
		}
	}
	return out, nil
}

func (m EvenSplit) String() string {
	return fmt.Sprintf("even(%d)", m.Parts)
}
