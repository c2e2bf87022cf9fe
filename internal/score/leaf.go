package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/duration"
)

// LeafKind enumerates the leaf types a voice can hold.
type LeafKind string

const (
	KindNote             LeafKind = "note"
	KindChord            LeafKind = "chord"
	KindRest             LeafKind = "rest"
	KindMultimeasureRest LeafKind = "mmrest"
	KindSkip             LeafKind = "skip"
)

// ErrUnknownLeafKind is returned when a leaf kind name is not recognised.
var ErrUnknownLeafKind = errors.New("unknown leaf kind")

// ParseLeafKind resolves a case-insensitive kind name.
func ParseLeafKind(name string) (LeafKind, error) {
	kind := LeafKind(strings.ToLower(strings.TrimSpace(name)))
	if !kind.Valid() {
		return "", fmt.Errorf("score: %q: %w", name, ErrUnknownLeafKind)
	}
	return kind, nil
}

// Valid reports whether k is one of the known kinds.
func (k LeafKind) Valid() bool {
	switch k {
	case KindNote, KindChord, KindRest, KindMultimeasureRest, KindSkip:
		return true
	}
	return false
}

// IsPitched reports whether the kind sounds (notes and chords).
func (k LeafKind) IsPitched() bool {
	return k == KindNote || k == KindChord
}

// IsRest reports whether the kind is silent (rests, multimeasure rests, skips).
func (k LeafKind) IsRest() bool {
	return k == KindRest || k == KindMultimeasureRest || k == KindSkip
}

// Well-known indicators attached by commands.
const (
	IndicatorTieTo                 = "TIE_TO"
	IndicatorTieFrom               = "TIE_FROM"
	IndicatorLeftBrokenRepeatTieTo = "LEFT_BROKEN_REPEAT_TIE_TO"
	IndicatorRightBrokenTieFrom    = "RIGHT_BROKEN_TIE_FROM"
)

// Leaf is one note, chord, rest, multimeasure rest or skip inside a voice.
type Leaf struct {
	ID       int               `cbor:"id"`
	Kind     LeafKind          `cbor:"kind"`
	Duration duration.Duration `cbor:"dur"`
	// Measure is the 1-based measure the leaf starts in.
	Measure int               `cbor:"m"`
	Offset  duration.Duration `cbor:"off"`
	// Tie connects this leaf to the next one.
	Tie bool `cbor:"tie,omitempty"`
	// RepeatTie connects this leaf to the previous one.
	RepeatTie     bool       `cbor:"rtie,omitempty"`
	NotYetPitched bool       `cbor:"nyp,omitempty"`
	Tags          []string   `cbor:"tags,omitempty"`
	Indicators    []string   `cbor:"ind,omitempty"`
	Overrides     []Override `cbor:"ovr,omitempty"`
}

// Stop returns the offset at which the leaf ends.
func (l *Leaf) Stop() duration.Duration {
	return l.Offset.Add(l.Duration)
}

// HasTag reports whether tag was attached.
func (l *Leaf) HasTag(tag string) bool {
	return containsString(l.Tags, tag)
}

// AddTag attaches tag once.
func (l *Leaf) AddTag(tag string) {
	if tag == "" || l.HasTag(tag) {
		return
	}
	l.Tags = append(l.Tags, tag)
}

// HasIndicator reports whether indicator was attached.
func (l *Leaf) HasIndicator(indicator string) bool {
	return containsString(l.Indicators, indicator)
}

// Attach adds indicator once.
func (l *Leaf) Attach(indicator string) {
	if indicator == "" || l.HasIndicator(indicator) {
		return
	}
	l.Indicators = append(l.Indicators, indicator)
}

// Detach removes indicator if present.
func (l *Leaf) Detach(indicator string) {
	out := l.Indicators[:0]
	for _, existing := range l.Indicators {
		if existing != indicator {
			out = append(out, existing)
		}
	}
	l.Indicators = out
}

// AddOverride records an override on the leaf.
func (l *Leaf) AddOverride(o Override) {
	l.Overrides = append(l.Overrides, o)
}

// Property returns the effective value of context.grob.attribute: the value
// recorded with the highest sequence number wins.
func (l *Leaf) Property(context, grob, attribute string) (Value, bool) {
	var (
		best  Override
		found bool
	)
	for _, o := range l.Overrides {
		if o.Context != context || o.Grob != grob || o.Attribute != attribute {
			continue
		}
		if !found || o.Sequence > best.Sequence {
			best = o
			found = true
		}
	}
	return best.Value, found
}

// Clone returns a deep copy detached from the original.
func (l *Leaf) Clone() *Leaf {
	clone := *l
	clone.Tags = append([]string(nil), l.Tags...)
	clone.Indicators = append([]string(nil), l.Indicators...)
	clone.Overrides = append([]Override(nil), l.Overrides...)
	return &clone
}

// String renders a compact description such as "note 3/16 @1".
func (l *Leaf) String() string {
	return fmt.Sprintf("%s %s @%d", l.Kind, l.Duration, l.Measure)
}

// Override is one presentational property override recorded on a leaf.
type Override struct {
	Context   string `cbor:"ctx,omitempty"`
	Grob      string `cbor:"grob"`
	Attribute string `cbor:"attr"`
	Value     Value  `cbor:"val"`
	// Start marks the leaf where the override is emitted.
	Start bool `cbor:"start,omitempty"`
	// Revert marks the leaf after which the override is reverted.
	Revert bool `cbor:"revert,omitempty"`
	// Once emits \once \override on this leaf only.
	Once bool `cbor:"once,omitempty"`
	// After places the emitted override after the leaf instead of before it.
	After    bool   `cbor:"after,omitempty"`
	Tag      string `cbor:"tag,omitempty"`
	Origin   string `cbor:"origin,omitempty"`
	Sequence int    `cbor:"seq"`
}

// Path renders Context.Grob.attribute as LilyPond spells it.
func (o Override) Path() string {
	if o.Context == "" {
		return o.Grob + "." + o.Attribute
	}
	return o.Context + "." + o.Grob + "." + o.Attribute
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
