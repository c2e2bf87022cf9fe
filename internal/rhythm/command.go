package rhythm

import (
	"fmt"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

// Options configures a rhythm command.
type Options struct {
	command.Info
	Maker Maker
	// Divisions repartitions the span's measures; nil keeps one division
	// per measure.
	Divisions DivisionMaker
	// Persist names the carry-over state. A previous state is continued only
	// when its name matches.
	Persist string
	// LeftBroken draws a continued tie as a left-broken repeat tie instead
	// of tying into the previous span.
	LeftBroken bool
	// RightBroken draws an unfinished last note as a right-broken tie.
	RightBroken bool
	TieFirst    bool
	TieLast     bool
	// SplitAtMeasureBoundaries cuts leaves that cross a bar line into tied
	// pieces.
	SplitAtMeasureBoundaries bool
	// RewriteRestFilled collapses divisions holding only rests into one rest.
	RewriteRestFilled bool
	// MultimeasureRests writes rest-only whole measures as multimeasure
	// rests.
	MultimeasureRests bool
}

// Command assigns generated rhythm to a time span.
type Command struct {
	command.Base
	opts Options
}

// New validates opts and builds the command.
func New(opts Options) (*Command, error) {
	if opts.Maker == nil {
		return nil, fmt.Errorf("rhythm: a rhythm maker is required")
	}
	if opts.Divisions == nil {
		opts.Divisions = Measurewise{}
	}
	info := opts.Info
	if info.Name == "" {
		info.Name = "rhythm"
	}
	if info.Description == "" {
		info.Description = opts.Maker.Name()
		if _, ok := opts.Divisions.(Measurewise); !ok {
			info.Description += " over " + opts.Divisions.String()
		}
	}
	opts.Info = info
	return &Command{Base: command.NewBase(info), opts: opts}, nil
}

// Default returns the rhythm used when nothing else is specified: one
// multimeasure rest per measure.
func Default() *Command {
	cmd, _ := New(Options{Maker: RestMaker{Multimeasure: true}, MultimeasureRests: true})
	return cmd
}

// Persist returns the command's persist name.
func (c *Command) Persist() string {
	return c.opts.Persist
}

// Apply implements command.Command with a fresh state.
func (c *Command) Apply(ctx *command.Context) (command.Result, error) {
	res, _, err := c.ApplyState(ctx, command.State{})
	return res, err
}

// ApplyState implements command.Stateful: it replaces the leaves of the
// scoped span with freshly made music and returns the state for the next
// rhythm command on the voice.
func (c *Command) ApplyState(ctx *command.Context, previous command.State) (command.Result, command.State, error) {
	if res, off := c.Deactivated(); off {
		return res, previous, nil
	}
	if ctx == nil || ctx.Score == nil || ctx.Voice == nil {
		return command.Result{Status: command.StatusFailed}, previous, fmt.Errorf("rhythm: context needs a score and a voice")
	}
	span, err := c.Span(ctx)
	if err != nil {
		return command.Result{Status: command.StatusFailed, Message: err.Error()}, previous, err
	}
	leaves, next, err := c.Make(span, previous)
	if err != nil {
		return command.Result{Status: command.StatusFailed, Message: err.Error()}, previous, err
	}
	before := precedingLeaf(ctx.Voice, span.Start)
	ctx.Score.Adopt(leaves...)
	if err := ctx.Score.ReplaceSpan(ctx.Voice, span, leaves); err != nil {
		return command.Result{Status: command.StatusFailed, Message: err.Error()}, previous, fmt.Errorf("rhythm: %w", err)
	}
	if len(leaves) > 0 && leaves[0].RepeatTie && before != nil && before.Kind.IsPitched() {
		before.Tie = true
	}
	ctx.Printf("rhythm: %s filled %s measures %d-%d with %d leaves", c.Info().Description, ctx.Voice.Name, span.FirstMeasure, span.LastMeasure, len(leaves))
	return command.Result{Status: command.StatusCompleted, Targets: len(leaves)}, next, nil
}

// Make produces the leaves for span without touching any voice. Offsets and
// measure numbers are relative to the span's measures; identifiers are left
// zero.
func (c *Command) Make(span score.Span, previous command.State) ([]*score.Leaf, command.State, error) {
	state := command.State{}
	continuing := c.continues(previous)
	if continuing {
		state = previous
	}
	divisions, err := c.opts.Divisions.Divide(MeasureDivisions(span))
	if err != nil {
		return nil, previous, err
	}
	if total := divisionsDuration(divisions); !total.Equal(span.Duration()) {
		return nil, previous, fmt.Errorf("rhythm: %s divisions last %s, span lasts %s", c.opts.Divisions, total, span.Duration())
	}
	groups, next, err := c.opts.Maker.Make(divisions, state)
	if err != nil {
		return nil, previous, fmt.Errorf("rhythm: %s: %w", c.opts.Maker.Name(), err)
	}
	if len(groups) != len(divisions) {
		return nil, previous, fmt.Errorf("rhythm: %s filled %d of %d divisions", c.opts.Maker.Name(), len(groups), len(divisions))
	}
	if c.opts.RewriteRestFilled {
		groups = rewriteRestFilled(groups, divisions, c.opts.MultimeasureRests)
	}
	events := flatten(groups)
	if c.opts.SplitAtMeasureBoundaries {
		events = splitAtBoundaries(events, span)
	}
	leaves, err := buildLeaves(events, span)
	if err != nil {
		return nil, previous, err
	}
	c.decorate(leaves, continuing && previous.IncompleteLastNote && !previous.BrokenAtEnd)

	next.Name = c.opts.Persist
	next.DivisionsConsumed = state.DivisionsConsumed + len(divisions)
	next.LogicalTies = state.LogicalTies + countLogicalTies(leaves)
	if c.opts.RightBroken && next.IncompleteLastNote && len(leaves) > 0 {
		leaves[len(leaves)-1].Attach(score.IndicatorRightBrokenTieFrom)
		next.BrokenAtEnd = true
	}
	return leaves, next, nil
}

func (c *Command) continues(previous command.State) bool {
	return previous.Continues(c.opts.Persist)
}

// decorate applies boundary ties, forced tie indicators and the
// not-yet-pitched marker.
func (c *Command) decorate(leaves []*score.Leaf, tieIn bool) {
	if len(leaves) == 0 {
		return
	}
	// A trailing tie is drawn by whatever continues the music, not here.
	leaves[len(leaves)-1].Tie = false
	first := leaves[0]
	if tieIn && first.Kind.IsPitched() {
		if c.opts.LeftBroken {
			first.Attach(score.IndicatorLeftBrokenRepeatTieTo)
		} else {
			first.RepeatTie = true
		}
	}
	var pitched []*score.Leaf
	for _, leaf := range leaves {
		if leaf.Kind.IsPitched() {
			leaf.NotYetPitched = true
			pitched = append(pitched, leaf)
		}
	}
	if len(pitched) == 0 {
		return
	}
	if c.opts.TieFirst {
		pitched[0].Attach(score.IndicatorTieTo)
	}
	if c.opts.TieLast {
		pitched[len(pitched)-1].Attach(score.IndicatorTieFrom)
	}
}

func precedingLeaf(voice *score.Voice, start duration.Duration) *score.Leaf {
	for i := len(voice.Leaves) - 1; i >= 0; i-- {
		leaf := voice.Leaves[i]
		if leaf.Stop().Equal(start) {
			return leaf
		}
		if leaf.Stop().Less(start) {
			return nil
		}
	}
	return nil
}

func divisionsDuration(divisions []Division) duration.Duration {
	total := duration.Zero
	for _, div := range divisions {
		total = total.Add(div.Duration)
	}
	return total
}

func flatten(groups [][]Event) []Event {
	var out []Event
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

func rewriteRestFilled(groups [][]Event, divisions []Division, multimeasure bool) [][]Event {
	out := make([][]Event, len(groups))
	for i, group := range groups {
		restOnly := len(group) > 0
		for _, ev := range group {
			if !ev.Rest {
				restOnly = false
				break
			}
		}
		if !restOnly {
			out[i] = group
			continue
		}
		out[i] = []Event{{Duration: divisions[i].Duration, Rest: true, Multimeasure: multimeasure}}
	}
	return out
}

// measureBounds returns the bar-line offsets strictly inside span.
func measureBounds(span score.Span) []duration.Duration {
	var out []duration.Duration
	offset := span.Start
	for i, ts := range span.TimeSignatures {
		offset = offset.Add(ts.Duration())
		if i < len(span.TimeSignatures)-1 {
			out = append(out, offset)
		}
	}
	return out
}

func splitAtBoundaries(events []Event, span score.Span) []Event {
	bounds := measureBounds(span)
	var out []Event
	offset := span.Start
	for _, ev := range events {
		start, stop := offset, offset.Add(ev.Duration)
		offset = stop
		cut := start
		for _, bound := range bounds {
			if !cut.Less(bound) || !bound.Less(stop) {
				continue
			}
			out = append(out, Event{Duration: bound.Sub(cut), Rest: ev.Rest, Tie: !ev.Rest, Multimeasure: ev.Multimeasure})
			cut = bound
		}
		ev.Duration = stop.Sub(cut)
		out = append(out, ev)
	}
	return out
}

// buildLeaves decomposes events into assignable leaves. Pieces of one note
// are tied together.
func buildLeaves(events []Event, span score.Span) ([]*score.Leaf, error) {
	var leaves []*score.Leaf
	offset := span.Start
	for _, ev := range events {
		if ev.Rest && ev.Multimeasure {
			if m, ok := wholeMeasure(span, offset, ev.Duration); ok {
				leaves = append(leaves, &score.Leaf{Kind: score.KindMultimeasureRest, Duration: ev.Duration, Offset: offset, Measure: m})
				offset = offset.Add(ev.Duration)
				continue
			}
		}
		pieces, err := ev.Duration.Decompose()
		if err != nil {
			return nil, fmt.Errorf("rhythm: %w", err)
		}
		for j, piece := range pieces {
			leaf := &score.Leaf{Kind: score.KindNote, Duration: piece, Offset: offset, Measure: measureAt(span, offset)}
			if ev.Rest {
				leaf.Kind = score.KindRest
			} else {
				leaf.Tie = j < len(pieces)-1 || ev.Tie
			}
			leaves = append(leaves, leaf)
			offset = offset.Add(piece)
		}
	}
	return leaves, nil
}

func wholeMeasure(span score.Span, offset, d duration.Duration) (int, bool) {
	start := span.Start
	for i, ts := range span.TimeSignatures {
		if start.Equal(offset) {
			return span.FirstMeasure + i, ts.Duration().Equal(d)
		}
		start = start.Add(ts.Duration())
	}
	return 0, false
}

func measureAt(span score.Span, offset duration.Duration) int {
	start := span.Start
	for i, ts := range span.TimeSignatures {
		start = start.Add(ts.Duration())
		if offset.Less(start) {
			return span.FirstMeasure + i
		}
	}
	return span.LastMeasure
}

func countLogicalTies(leaves []*score.Leaf) int {
	n := 0
	for i, leaf := range leaves {
		if !leaf.Kind.IsPitched() || leaf.RepeatTie {
			continue
		}
		if i > 0 && leaves[i-1].Kind.IsPitched() && leaves[i-1].Tie {
			continue
		}
		n++
	}
	return n
}
