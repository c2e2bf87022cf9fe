package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/selector"
)

// quarterScore builds two 4/4 measures of quarter notes in MusicVoice.
func quarterScore(t *testing.T) (*score.Score, *score.Voice) {
	t.Helper()
	sigs, err := duration.ParseTimeSignatures([]string{"4/4", "4/4"})
	if err != nil {
		t.Fatalf("time signatures: %v", err)
	}
	s := score.New("test", sigs, "MusicVoice")
	s.Abbreviations["mv"] = "MusicVoice"
	voice, _ := s.Voice("MusicVoice")
	span, _ := s.Span(score.AllMeasures)
	var leaves []*score.Leaf
	for i := 0; i < 8; i++ {
		leaves = append(leaves, s.NewLeaf(score.KindNote, duration.New(1, 4)))
	}
	if err := s.ReplaceSpan(voice, span, leaves); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return s, voice
}

type recordCommand struct {
	Base
	log *[]string
}

func (c *recordCommand) Apply(*Context) (Result, error) {
	*c.log = append(*c.log, c.info.Name)
	return Result{Status: StatusCompleted}, nil
}

type countingCommand struct {
	Base
	log *[]string
}

func (c *countingCommand) Apply(ctx *Context) (Result, error) {
	res, _, err := c.ApplyState(ctx, State{})
	return res, err
}

func (c *countingCommand) ApplyState(_ *Context, previous State) (Result, State, error) {
	if res, off := c.Deactivated(); off {
		return res, previous, nil
	}
	*c.log = append(*c.log, c.info.Name)
	next := previous
	next.Name = "count"
	next.Cursor++
	return Result{Status: StatusCompleted}, next, nil
}

func TestTagCommandTagsSelection(t *testing.T) {
	s, voice := quarterScore(t)
	cmd := Tag("solo", selector.Leaves().Slice(0, 3))
	res, err := cmd.Apply(NewContext(s, voice))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Status != StatusCompleted || res.Targets != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	for i, leaf := range voice.Leaves {
		if got, want := leaf.HasTag("solo"), i < 3; got != want {
			t.Fatalf("leaf %d tagged=%v, want %v", i, got, want)
		}
	}
}

func TestDeactivatedCommandLeavesScoreUnchanged(t *testing.T) {
	s, voice := quarterScore(t)
	before, err := score.Fingerprint(s)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	cmd, err := NewTagCommand(Info{Deactivate: true}, "hidden")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := cmd.Apply(NewContext(s, voice))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Status != StatusDeactivated {
		t.Fatalf("expected deactivated, got %s", res.Status)
	}
	after, _ := score.Fingerprint(s)
	if before != after {
		t.Fatalf("deactivated command changed the score")
	}
}

func TestEmptySelectionIsNoOp(t *testing.T) {
	s, voice := quarterScore(t)
	res, err := Tag("x", selector.Rests()).Apply(NewContext(s, voice))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Status != StatusNoOp {
		t.Fatalf("expected no-op, got %s", res.Status)
	}
}

func TestCommandMeasuresReplaceScope(t *testing.T) {
	s, voice := quarterScore(t)
	acc := NewAccumulator(s)
	cmd, _ := NewTagCommand(Info{Measures: score.Measure(2)}, "late")
	if err := acc.Add(Scope{Voice: "mv", Measures: score.Measure(1)}, cmd); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := acc.Interpret(nil); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	for _, leaf := range voice.Leaves {
		if got, want := leaf.HasTag("late"), leaf.Measure == 2; got != want {
			t.Fatalf("leaf %s tagged=%v", leaf, got)
		}
	}
}

func TestAccumulatorRejectsUnknownVoice(t *testing.T) {
	s, _ := quarterScore(t)
	acc := NewAccumulator(s)
	err := acc.Add(Scope{Voice: "PianoVoice"}, Tag("x", selector.Leaves()))
	if err == nil || !strings.Contains(err.Error(), "unknown voice name") {
		t.Fatalf("expected unknown voice error, got %v", err)
	}
	if err := acc.Add(Scope{Voice: "mv", Measures: score.Measure(5)}, Tag("x", selector.Leaves())); err == nil {
		t.Fatalf("expected out of range scope to fail")
	}
}

func TestAccumulatorAppliesStatefulFirst(t *testing.T) {
	s, _ := quarterScore(t)
	var log []string
	acc := NewAccumulator(s)
	plain := &recordCommand{Base: NewBase(Info{Name: "plain"}), log: &log}
	first := &countingCommand{Base: NewBase(Info{Name: "first"}), log: &log}
	second := &countingCommand{Base: NewBase(Info{Name: "second"}), log: &log}
	if err := acc.Add(Scope{Voice: "MusicVoice"}, plain, NewSuite("", first, second)); err != nil {
		t.Fatalf("add: %v", err)
	}
	report, err := acc.Interpret(nil)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got := strings.Join(log, ","); got != "first,second,plain" {
		t.Fatalf("unexpected order %s", got)
	}
	if got := report.States["MusicVoice"].Cursor; got != 2 {
		t.Fatalf("expected state threaded through both commands, cursor=%d", got)
	}
	if report.Outcomes[0].Entry.Command != plain {
		t.Fatalf("outcomes must follow declaration order")
	}
	if report.Count(StatusCompleted) != 3 {
		t.Fatalf("expected three completed outcomes")
	}
}

func TestAccumulatorFillsGapsBeforePlainCommands(t *testing.T) {
	s, _ := quarterScore(t)
	var log []string
	acc := NewAccumulator(s)
	plain := &recordCommand{Base: NewBase(Info{Name: "plain"}), log: &log}
	stateful := &countingCommand{Base: NewBase(Info{Name: "stateful"}), log: &log}
	if err := acc.Add(Scope{Voice: "mv"}, plain, stateful); err != nil {
		t.Fatalf("add: %v", err)
	}
	acc.FillGapsWith(func(*score.Score) (int, error) {
		log = append(log, "fill")
		return 3, nil
	})
	report, err := acc.Interpret(nil)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got := strings.Join(log, ","); got != "stateful,fill,plain" {
		t.Fatalf("unexpected order %s", got)
	}
	if report.Filled != 3 {
		t.Fatalf("expected filled count 3, got %d", report.Filled)
	}

	acc = NewAccumulator(s)
	if err := acc.Add(Scope{Voice: "mv"}, plain); err != nil {
		t.Fatalf("add: %v", err)
	}
	acc.FillGapsWith(func(*score.Score) (int, error) { return 0, errors.New("boom") })
	if _, err := acc.Interpret(nil); err == nil || !strings.Contains(err.Error(), "fill gaps") {
		t.Fatalf("expected fill error, got %v", err)
	}
}

func TestAccumulatorSeedsStates(t *testing.T) {
	s, _ := quarterScore(t)
	var log []string
	acc := NewAccumulator(s)
	acc.Seed(map[string]State{"mv": {Name: "count", Cursor: 5}, "Ghost": {Cursor: 1}})
	cmd := &countingCommand{Base: NewBase(Info{Name: "count"}), log: &log}
	off := &countingCommand{Base: NewBase(Info{Name: "off", Deactivate: true}), log: &log}
	if err := acc.Add(Scope{Voice: "MusicVoice"}, cmd, off); err != nil {
		t.Fatalf("add: %v", err)
	}
	report, err := acc.Interpret(nil)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got := report.States["MusicVoice"].Cursor; got != 6 {
		t.Fatalf("expected seeded cursor to advance to 6, got %d", got)
	}
	if _, ok := report.States["Ghost"]; ok {
		t.Fatalf("unknown voices must not be seeded")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	factory := func(cfg Config) (Command, error) {
		tag, _ := cfg["tag"].(string)
		cmd, err := NewTagCommand(Info{}, tag)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
	reg.MustRegister("tag", factory)
	reg.MustRegister("alias", factory)
	if err := reg.Register("tag", factory); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if got := strings.Join(reg.Names(), ","); got != "alias,tag" {
		t.Fatalf("unexpected names %s", got)
	}
	cmd, err := reg.Resolve("tag", Config{"tag": "solo"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Info().Name != "tag" {
		t.Fatalf("unexpected command %s", cmd.Info().Name)
	}
	if _, err := reg.Resolve("tag", Config{}); err == nil {
		t.Fatalf("expected factory error to surface")
	}
	if _, err := reg.Resolve("missing", nil); err == nil {
		t.Fatalf("expected unknown command to fail")
	}
}

func TestTieCorrections(t *testing.T) {
	s, voice := quarterScore(t)
	ctx := NewContext(s, voice)
	right, _ := NewTieCommand(Info{Selector: selector.Leaf(0)}, TieRight, false)
	if _, err := right.Apply(ctx); err != nil {
		t.Fatalf("tie right: %v", err)
	}
	if !voice.Leaves[0].Tie {
		t.Fatalf("expected first leaf tied to the second")
	}
	left, _ := NewTieCommand(Info{Selector: selector.Leaf(3)}, TieLeft, false)
	if _, err := left.Apply(ctx); err != nil {
		t.Fatalf("tie left: %v", err)
	}
	if !voice.Leaves[3].RepeatTie {
		t.Fatalf("expected repeat tie on the fourth leaf")
	}
	untie, _ := NewTieCommand(Info{Selector: selector.Leaf(0)}, TieRight, true)
	res, err := untie.Apply(ctx)
	if err != nil {
		t.Fatalf("untie: %v", err)
	}
	if voice.Leaves[0].Tie || res.Targets != 1 {
		t.Fatalf("expected tie removed, result %+v", res)
	}
	last, _ := NewTieCommand(Info{Selector: selector.Leaf(-1)}, TieRight, false)
	if res, _ := last.Apply(ctx); res.Status != StatusNoOp {
		t.Fatalf("last leaf has nothing to tie to, got %s", res.Status)
	}
	if _, err := ParseTieDirection("sideways"); err == nil {
		t.Fatalf("expected bad direction to fail")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	in := Metadata{
		Segment: "a",
		States: map[string]State{
			"MusicVoice": {Name: "talea", Cursor: 3, Remainder: duration.New(1, 16), IncompleteLastNote: true},
		},
	}
	data, err := EncodeMetadata(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.States["MusicVoice"] != in.States["MusicVoice"] {
		t.Fatalf("state mismatch: %+v", out.States["MusicVoice"])
	}
	if got := strings.Join(out.Voices(), ","); got != "MusicVoice" {
		t.Fatalf("unexpected voices %s", got)
	}
}
