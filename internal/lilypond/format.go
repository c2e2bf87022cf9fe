// Package lilypond renders an interpreted score as LilyPond source.
package lilypond

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

// Tags written after emitted overrides and reverts.
const (
	TagOverrideStart = "OC1"
	TagOverrideStop  = "OC2"
	TagNotYetPitched = "NOT_YET_PITCHED_COLORING"
)

// DefaultVersion is written to the \version line when Options leaves it
// empty.
const DefaultVersion = "2.24.0"

// Options tunes the output.
type Options struct {
	// Indent is one nesting level; four spaces when empty.
	Indent string
	// LineWidth, in millimetres, emits a \paper block when positive.
	LineWidth int
	Version   string
	// ColorNotYetPitched highlights notes whose pitch is still the
	// placeholder.
	ColorNotYetPitched bool
}

func (o Options) withDefaults() Options {
	if o.Indent == "" {
		o.Indent = "    "
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	return o
}

type writer struct {
	b      strings.Builder
	indent string
	depth  int
}

func (w *writer) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat(w.indent, w.depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.depth++
}

func (w *writer) close(text string) {
	w.depth--
	w.line("%s", text)
}

// Format renders s. Voices are grouped onto staves by the score's template
// in template order; voices outside the template get a staff of their own.
func Format(s *score.Score, opts Options) (string, error) {
	opts = opts.withDefaults()
	w := &writer{indent: opts.Indent}
	w.line(`\version "%s"`, opts.Version)
	w.blank()
	if opts.LineWidth > 0 {
		w.open(`\paper {`)
		w.line(`line-width = %d\mm`, opts.LineWidth)
		w.close("}")
		w.blank()
	}
	w.open(`\score {`)
	w.open(`\context Score = "%s"`, scoreName(s))
	w.open("<<")
	if err := writeGlobal(w, s); err != nil {
		return "", err
	}
	for _, staff := range staves(s) {
		w.open(`\context Staff = "%s"`, staff.name)
		w.open("<<")
		for _, voice := range staff.voices {
			if err := writeVoice(w, s, voice, opts); err != nil {
				return "", err
			}
		}
		w.close(">>")
		w.depth--
	}
	w.close(">>")
	w.depth--
	w.close("}")
	return w.b.String(), nil
}

func scoreName(s *score.Score) string {
	if s.Name == "" {
		return "Score"
	}
	return s.Name
}

type staff struct {
	name   string
	voices []*score.Voice
}

func staves(s *score.Score) []staff {
	tmpl, err := score.LookupTemplate(s.Template)
	if err != nil || s.Template == "" {
		tmpl = score.Template{}
	}
	var out []staff
	index := map[string]int{}
	for _, voice := range s.Voices {
		name := tmpl.Staff(voice.Name)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, staff{name: name})
		}
		out[i].voices = append(out[i].voices, voice)
	}
	return out
}

// writeGlobal emits time signatures over spacer skips, one per measure.
func writeGlobal(w *writer, s *score.Score) error {
	w.open(`\context GlobalContext = "GlobalContext"`)
	w.open("{")
	var previous duration.TimeSignature
	for i, ts := range s.TimeSignatures {
		w.line("%% [GlobalContext measure %d]", i+1)
		if i == 0 || ts != previous {
			w.line(`\time %s`, ts)
		}
		w.line("s1 * %s", ts.Duration())
		previous = ts
	}
	w.close("}")
	w.depth--
	return nil
}

func writeVoice(w *writer, s *score.Score, voice *score.Voice, opts Options) error {
	w.open(`\context Voice = "%s"`, voice.Name)
	w.open("{")
	cursor := duration.Zero
	var previous *score.Leaf
	for i, leaf := range voice.Leaves {
		if cursor.Less(leaf.Offset) {
			w.line("s1 * %s", leaf.Offset.Sub(cursor))
			previous = nil
		}
		var next *score.Leaf
		if i+1 < len(voice.Leaves) && voice.Leaves[i+1].Offset.Equal(leaf.Stop()) {
			next = voice.Leaves[i+1]
		}
		if err := writeLeaf(w, leaf, previous, next, opts); err != nil {
			return fmt.Errorf("lilypond: voice %s: %w", voice.Name, err)
		}
		cursor = leaf.Stop()
		previous = leaf
	}
	if total := s.Duration(); cursor.Less(total) {
		w.line("s1 * %s", total.Sub(cursor))
	}
	w.close("}")
	w.depth--
	return nil
}

func writeLeaf(w *writer, leaf, previous, next *score.Leaf, opts Options) error {
	overrides := append([]score.Override(nil), leaf.Overrides...)
	sort.SliceStable(overrides, func(i, j int) bool { return overrides[i].Sequence < overrides[j].Sequence })

	for _, o := range overrides {
		if o.Start && !o.After {
			writeOverride(w, o)
		}
	}
	if opts.ColorNotYetPitched && leaf.NotYetPitched && leaf.Kind.IsPitched() {
		w.line(`\once \override NoteHead.color = #(x11-color 'gold) %%! %s`, TagNotYetPitched)
	}
	body, err := leafBody(leaf, previous, next)
	if err != nil {
		return err
	}
	w.line("%s", body)
	for _, o := range overrides {
		if o.Start && o.After {
			writeOverride(w, o)
		}
	}
	for _, o := range overrides {
		if o.Revert && !o.Once {
			w.line(`\revert %s%s`, o.Path(), tagSuffix(TagOverrideStop, o.Tag))
		}
	}
	return nil
}

func writeOverride(w *writer, o score.Override) {
	prefix := `\override `
	if o.Once {
		prefix = `\once \override `
	}
	w.line("%s%s = %s%s", prefix, o.Path(), o.Value.SchemeString(), tagSuffix(TagOverrideStart, o.Tag))
}

func tagSuffix(tags ...string) string {
	var b strings.Builder
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		b.WriteString(" %! ")
		b.WriteString(tag)
	}
	return b.String()
}

// tiesOut reports whether leaf is written with a tie into next. A
// right-broken tie only sounds when nothing pitched follows it directly or
// the following leaf continues it.
func tiesOut(leaf, next *score.Leaf) bool {
	if leaf == nil || !leaf.Kind.IsPitched() {
		return false
	}
	if leaf.Tie || leaf.HasIndicator(score.IndicatorTieTo) {
		return true
	}
	if !leaf.HasIndicator(score.IndicatorRightBrokenTieFrom) {
		return false
	}
	return next == nil || !next.Kind.IsPitched() || next.RepeatTie
}

func leafBody(leaf, previous, next *score.Leaf) (string, error) {
	var b strings.Builder
	switch leaf.Kind {
	case score.KindMultimeasureRest:
		b.WriteString(measureToken("R", leaf.Duration))
	case score.KindSkip:
		b.WriteString(measureToken("s", leaf.Duration))
	default:
		token, err := leaf.Duration.LilyPond()
		if err != nil {
			return "", err
		}
		switch leaf.Kind {
		case score.KindRest:
			b.WriteString("r")
		case score.KindChord:
			b.WriteString("<c'>")
		default:
			b.WriteString("c'")
		}
		b.WriteString(token)
	}

	var tags []string
	if leaf.Kind.IsPitched() {
		tiedIn := tiesOut(previous, leaf)
		switch {
		case leaf.HasIndicator(score.IndicatorLeftBrokenRepeatTieTo):
			b.WriteString(` \repeatTie`)
			tags = append(tags, score.IndicatorLeftBrokenRepeatTieTo)
		case (leaf.RepeatTie || leaf.HasIndicator(score.IndicatorTieFrom)) && !tiedIn:
			b.WriteString(` \repeatTie`)
		}
		if tiesOut(leaf, next) {
			b.WriteString(" ~")
			if !leaf.Tie && !leaf.HasIndicator(score.IndicatorTieTo) {
				tags = append(tags, score.IndicatorRightBrokenTieFrom)
			}
		}
	}
	tags = append(tags, leaf.Tags...)
	b.WriteString(tagSuffix(tags...))
	return b.String(), nil
}

// measureToken writes a whole-note value scaled to d: "R1" or "R1 * 3/8".
func measureToken(prefix string, d duration.Duration) string {
	if d.Equal(duration.New(1, 1)) {
		return prefix + "1"
	}
	return fmt.Sprintf("%s1 * %s", prefix, d)
}
