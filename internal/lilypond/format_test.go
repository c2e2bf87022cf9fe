package lilypond

import (
	"strings"
	"testing"

	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

func testScore(t *testing.T, sigs ...string) *score.Score {
	t.Helper()
	parsed, err := duration.ParseTimeSignatures(sigs)
	if err != nil {
		t.Fatalf("time signatures: %v", err)
	}
	tmpl, err := score.LookupTemplate("single-staff")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	return tmpl.Build("Score", parsed)
}

func place(t *testing.T, s *score.Score, m score.Measures, leaves ...*score.Leaf) {
	t.Helper()
	voice, _ := s.Voice("mv")
	span, err := s.Span(m)
	if err != nil {
		t.Fatalf("span: %v", err)
	}
	offset := span.Start
	for _, leaf := range leaves {
		leaf.Offset = offset
		offset = offset.Add(leaf.Duration)
	}
	s.Adopt(leaves...)
	if err := s.ReplaceSpan(voice, span, leaves); err != nil {
		t.Fatalf("replace: %v", err)
	}
}

func note(d string) *score.Leaf {
	return &score.Leaf{Kind: score.KindNote, Duration: duration.MustParse(d)}
}

func linesOf(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func indexOf(lines []string, want string) int {
	for i, line := range lines {
		if line == want {
			return i
		}
	}
	return -1
}

func TestFormatLayout(t *testing.T) {
	s := testScore(t, "2/4", "2/4", "3/8")
	place(t, s, score.Measure(1),
		&score.Leaf{Kind: score.KindNote, Duration: duration.MustParse("1/4"), Tie: true},
		&score.Leaf{Kind: score.KindNote, Duration: duration.MustParse("1/4"), RepeatTie: true},
	)
	place(t, s, score.Measure(3), &score.Leaf{Kind: score.KindMultimeasureRest, Duration: duration.MustParse("3/8")})

	out, err := Format(s, Options{LineWidth: 180})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := linesOf(out)
	for _, want := range []string{
		`\version "2.24.0"`,
		`line-width = 180\mm`,
		`\context Staff = "MusicStaff"`,
		`\context Voice = "MusicVoice"`,
		`c'4 ~`,
		`c'4`,
		`s1 * 1/2`,
		`R1 * 3/8`,
	} {
		if indexOf(lines, want) < 0 {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, `\repeatTie`) {
		t.Fatalf("repeat tie after a tied leaf should be implied:\n%s", out)
	}
	if strings.Count(out, `\time 2/4`) != 1 || strings.Count(out, `\time 3/8`) != 1 {
		t.Fatalf("time signatures should print on change only:\n%s", out)
	}
}

func TestFormatOverrides(t *testing.T) {
	s := testScore(t, "2/4")
	leaves := []*score.Leaf{note("1/8"), note("1/8"), note("1/4")}
	place(t, s, score.Measure(1), leaves...)
	seq := s.NextSequence()
	leaves[0].AddOverride(score.Override{Grob: "Stem", Attribute: "direction", Value: score.Dir(score.Up), Start: true, Sequence: seq})
	leaves[1].AddOverride(score.Override{Grob: "Stem", Attribute: "direction", Value: score.Dir(score.Up), Sequence: seq})
	leaves[2].AddOverride(score.Override{Grob: "Stem", Attribute: "direction", Value: score.Dir(score.Up), Revert: true, Sequence: seq})
	once := s.NextSequence()
	leaves[1].AddOverride(score.Override{Context: "Staff", Grob: "TimeSignature", Attribute: "transparent", Value: score.Bool(true), Start: true, Once: true, Sequence: once})
	leaves[2].AddOverride(score.Override{Grob: "TextScript", Attribute: "color", Value: score.Color("red"), Start: true, Once: true, After: true, Tag: "EXTRA", Sequence: s.NextSequence()})

	out, err := Format(s, Options{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := linesOf(out)
	start := indexOf(lines, `\override Stem.direction = #up %! OC1`)
	revert := indexOf(lines, `\revert Stem.direction %! OC2`)
	first := indexOf(lines, `c'8`)
	last := indexOf(lines, `c'4`)
	if start < 0 || revert < 0 || first < 0 || last < 0 {
		t.Fatalf("missing override lines:\n%s", out)
	}
	if !(start < first && last < revert) {
		t.Fatalf("override should wrap the notes:\n%s", out)
	}
	if strings.Count(out, `\override Stem.direction`) != 1 {
		t.Fatalf("override should start once:\n%s", out)
	}
	if indexOf(lines, `\once \override Staff.TimeSignature.transparent = ##t %! OC1`) < 0 {
		t.Fatalf("missing once override:\n%s", out)
	}
	after := indexOf(lines, `\once \override TextScript.color = #(x11-color 'red) %! OC1 %! EXTRA`)
	if after != last+1 {
		t.Fatalf("after override should follow its leaf (got %d, leaf %d):\n%s", after, last, out)
	}
	if strings.Contains(out, `\revert TextScript`) || strings.Contains(out, `\revert Staff.TimeSignature`) {
		t.Fatalf("once overrides are not reverted:\n%s", out)
	}
}

func TestFormatBrokenTies(t *testing.T) {
	s := testScore(t, "2/4")
	first := note("1/4")
	first.RepeatTie = true
	first.Attach(score.IndicatorLeftBrokenRepeatTieTo)
	second := note("1/4")
	second.Attach(score.IndicatorRightBrokenTieFrom)
	second.NotYetPitched = true
	place(t, s, score.Measure(1), first, second)

	out, err := Format(s, Options{Indent: "  ", ColorNotYetPitched: true})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := linesOf(out)
	if indexOf(lines, `c'4 \repeatTie %! LEFT_BROKEN_REPEAT_TIE_TO`) < 0 {
		t.Fatalf("missing left-broken repeat tie:\n%s", out)
	}
	if indexOf(lines, `c'4 ~ %! RIGHT_BROKEN_TIE_FROM`) < 0 {
		t.Fatalf("missing right-broken tie:\n%s", out)
	}
	if !strings.Contains(out, TagNotYetPitched) {
		t.Fatalf("missing not-yet-pitched colouring:\n%s", out)
	}
	if !strings.Contains(out, "\n  \\context Score = \"Score\"\n") {
		t.Fatalf("indent option ignored:\n%s", out)
	}
}

func TestFormatRightBrokenTieBeforeNextSpan(t *testing.T) {
	s := testScore(t, "3/8", "3/8")
	broken := note("3/8")
	broken.Attach(score.IndicatorRightBrokenTieFrom)
	place(t, s, score.Measure(1), broken)
	place(t, s, score.Measure(2), note("3/8"))

	out, err := Format(s, Options{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := linesOf(out)
	if strings.Contains(out, "~") {
		t.Fatalf("right-broken tie must not reach the next note:\n%s", out)
	}
	if strings.Count(strings.Join(lines, "\n"), "c'4.") != 2 {
		t.Fatalf("expected two dotted quarters:\n%s", out)
	}

	continued := note("3/8")
	continued.RepeatTie = true
	place(t, s, score.Measure(2), continued)
	out, err = Format(s, Options{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines = linesOf(out)
	if indexOf(lines, `c'4. ~ %! RIGHT_BROKEN_TIE_FROM`) < 0 || indexOf(lines, `c'4.`) < 0 {
		t.Fatalf("continued tie should be drawn once:\n%s", out)
	}
	if strings.Contains(out, `\repeatTie`) {
		t.Fatalf("repeat tie after a drawn tie should be implied:\n%s", out)
	}
}

func TestFormatRejectsUnassignable(t *testing.T) {
	s := testScore(t, "5/8")
	place(t, s, score.Measure(1), note("5/8"))
	if _, err := Format(s, Options{}); err == nil {
		t.Fatalf("expected error for 5/8 note")
	}
}
