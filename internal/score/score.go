// Package score holds the in-memory score object model that commands
// operate on: a fixed sequence of measures shared by named voices, each
// voice a flat list of leaves carrying presentational overrides.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/overture/internal/duration"
)

// Voice is a named sequence of leaves ordered by offset.
type Voice struct {
	Name   string  `cbor:"name"`
	Leaves []*Leaf `cbor:"leaves"`
}

// Index returns the position of leaf inside the voice, or -1.
func (v *Voice) Index(leaf *Leaf) int {
	for i, candidate := range v.Leaves {
		if candidate == leaf {
			return i
		}
	}
	return -1
}

// Previous returns the leaf before leaf, if any.
func (v *Voice) Previous(leaf *Leaf) *Leaf {
	idx := v.Index(leaf)
	if idx <= 0 {
		return nil
	}
	return v.Leaves[idx-1]
}

// Next returns the leaf after leaf, if any.
func (v *Voice) Next(leaf *Leaf) *Leaf {
	idx := v.Index(leaf)
	if idx < 0 || idx+1 >= len(v.Leaves) {
		return nil
	}
	return v.Leaves[idx+1]
}

// Duration sums the voice's leaves.
func (v *Voice) Duration() duration.Duration {
	total := duration.Zero
	for _, leaf := range v.Leaves {
		total = total.Add(leaf.Duration)
	}
	return total
}

// LeavesBetween returns the leaves starting in [start, stop).
func (v *Voice) LeavesBetween(start, stop duration.Duration) []*Leaf {
	var out []*Leaf
	for _, leaf := range v.Leaves {
		if leaf.Offset.Less(start) || !leaf.Offset.Less(stop) {
			continue
		}
		out = append(out, leaf)
	}
	return out
}

// Score is a set of voices over a shared list of measures.
type Score struct {
	Name           string                   `cbor:"name"`
	Template       string                   `cbor:"template,omitempty"`
	TimeSignatures []duration.TimeSignature `cbor:"time_signatures"`
	Voices         []*Voice                 `cbor:"voices"`
	// Abbreviations maps short voice names (e.g. "vn") to full names.
	Abbreviations map[string]string `cbor:"abbreviations,omitempty"`

	nextID  int
	nextSeq int
}

// New builds an empty score with the given measures and voice names.
func New(name string, timeSignatures []duration.TimeSignature, voiceNames ...string) *Score {
	s := &Score{
		Name:           name,
		TimeSignatures: append([]duration.TimeSignature(nil), timeSignatures...),
		Abbreviations:  map[string]string{},
	}
	for _, voiceName := range voiceNames {
		s.Voices = append(s.Voices, &Voice{Name: voiceName})
	}
	return s
}

// Voice returns the named voice, resolving abbreviations.
func (s *Score) Voice(name string) (*Voice, bool) {
	resolved, err := s.ResolveVoiceName(name)
	if err != nil {
		return nil, false
	}
	for _, v := range s.Voices {
		if v.Name == resolved {
			return v, true
		}
	}
	return nil, false
}

// VoiceNames returns the voice names in declaration order.
func (s *Score) VoiceNames() []string {
	names := make([]string, 0, len(s.Voices))
	for _, v := range s.Voices {
		names = append(names, v.Name)
	}
	return names
}

// ResolveVoiceName maps an abbreviation or full name to a known voice name.
func (s *Score) ResolveVoiceName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if full, ok := s.Abbreviations[trimmed]; ok {
		trimmed = full
	}
	for _, v := range s.Voices {
		if v.Name == trimmed {
			return trimmed, nil
		}
	}
	known := s.VoiceNames()
	sort.Strings(known)
	return "", fmt.Errorf("score: unknown voice name %q (known: %s)", name, strings.Join(known, ", "))
}

// MeasureCount returns the number of measures.
func (s *Score) MeasureCount() int {
	return len(s.TimeSignatures)
}

// MeasureStart returns the start offset of the 1-based measure number.
func (s *Score) MeasureStart(measure int) duration.Duration {
	offset := duration.Zero
	for i := 0; i < measure-1 && i < len(s.TimeSignatures); i++ {
		offset = offset.Add(s.TimeSignatures[i].Duration())
	}
	return offset
}

// MeasureAt returns the 1-based measure containing offset.
func (s *Score) MeasureAt(offset duration.Duration) int {
	start := duration.Zero
	for i, ts := range s.TimeSignatures {
		stop := start.Add(ts.Duration())
		if offset.Less(stop) {
			return i + 1
		}
		start = stop
	}
	return len(s.TimeSignatures)
}

// Duration returns the total length of all measures.
func (s *Score) Duration() duration.Duration {
	return s.MeasureStart(len(s.TimeSignatures) + 1)
}

// Span describes an inclusive measure range resolved to offsets.
type Span struct {
	FirstMeasure   int
	LastMeasure    int
	Start          duration.Duration
	Stop           duration.Duration
	TimeSignatures []duration.TimeSignature
}

// Duration returns the span's length.
func (sp Span) Duration() duration.Duration {
	return sp.Stop.Sub(sp.Start)
}

// Span resolves measures against the score. The zero Measures covers the
// whole score.
func (s *Score) Span(m Measures) (Span, error) {
	first, last, err := m.Resolve(s.MeasureCount())
	if err != nil {
		return Span{}, err
	}
	return Span{
		FirstMeasure:   first,
		LastMeasure:    last,
		Start:          s.MeasureStart(first),
		Stop:           s.MeasureStart(last + 1),
		TimeSignatures: append([]duration.TimeSignature(nil), s.TimeSignatures[first-1:last]...),
	}, nil
}

// NewLeaf allocates a leaf with a fresh identifier.
func (s *Score) NewLeaf(kind LeafKind, d duration.Duration) *Leaf {
	s.nextID++
	return &Leaf{ID: s.nextID, Kind: kind, Duration: d}
}

// Adopt gives leaves built outside the score fresh identifiers.
func (s *Score) Adopt(leaves ...*Leaf) {
	for _, leaf := range leaves {
		s.nextID++
		leaf.ID = s.nextID
	}
}

// NextSequence returns a monotonically increasing override sequence number.
// Declaration order across commands is preserved through it.
func (s *Score) NextSequence() int {
	s.nextSeq++
	return s.nextSeq
}

// ReplaceSpan swaps the leaves of voice starting inside span for leaves and
// assigns their offsets and measure numbers. Leaves must sound for exactly
// the span's duration. Leaves outside the span keep their positions, so a
// voice may be filled out of order.
func (s *Score) ReplaceSpan(v *Voice, span Span, leaves []*Leaf) error {
	total := duration.Zero
	for _, leaf := range leaves {
		total = total.Add(leaf.Duration)
	}
	if !total.Equal(span.Duration()) {
		return fmt.Errorf("score: voice %s measures %d-%d: music lasts %s, span lasts %s",
			v.Name, span.FirstMeasure, span.LastMeasure, total, span.Duration())
	}
	var before, after []*Leaf
	for _, leaf := range v.Leaves {
		switch {
		case leaf.Offset.Less(span.Start):
			before = append(before, leaf)
		case !leaf.Offset.Less(span.Stop):
			after = append(after, leaf)
		}
	}
	offset := span.Start
	for _, leaf := range leaves {
		leaf.Offset = offset
		leaf.Measure = s.MeasureAt(offset)
		offset = offset.Add(leaf.Duration)
	}
	merged := make([]*Leaf, 0, len(before)+len(leaves)+len(after))
	merged = append(merged, before...)
	merged = append(merged, leaves...)
	merged = append(merged, after...)
	v.Leaves = merged
	return nil
}

// Reindex recomputes measure numbers from offsets, e.g. after leaves were
// split in place.
func (s *Score) Reindex(v *Voice) {
	for _, leaf := range v.Leaves {
		leaf.Measure = s.MeasureAt(leaf.Offset)
	}
}

// Leaves returns every leaf in every voice, voice by voice.
func (s *Score) Leaves() []*Leaf {
	var out []*Leaf
	for _, v := range s.Voices {
		out = append(out, v.Leaves...)
	}
	return out
}

// Clone returns a deep copy of the score.
func (s *Score) Clone() *Score {
	clone := &Score{
		Name:           s.Name,
		Template:       s.Template,
		TimeSignatures: append([]duration.TimeSignature(nil), s.TimeSignatures...),
		Abbreviations:  make(map[string]string, len(s.Abbreviations)),
		nextID:         s.nextID,
		nextSeq:        s.nextSeq,
	}
	for key, value := range s.Abbreviations {
		clone.Abbreviations[key] = value
	}
	for _, v := range s.Voices {
		cv := &Voice{Name: v.Name}
		for _, leaf := range v.Leaves {
			cv.Leaves = append(cv.Leaves, leaf.Clone())
		}
		clone.Voices = append(clone.Voices, cv)
	}
	return clone
}
