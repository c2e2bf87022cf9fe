package rhythm

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/duration"
)

// Event is one note or rest produced by a rhythm maker before it is split
// into assignable leaves.
type Event struct {
	Duration duration.Duration
	Rest     bool
	// Tie joins this event to the next one.
	Tie bool
	// Multimeasure asks for a multimeasure rest; it only takes effect when
	// the event fills exactly one measure.
	Multimeasure bool
}

// Maker fills divisions with events, one slice per division. It receives
// the carry-over state to continue (the zero State for a fresh start) and
// returns the state to hand on. Makers set Cursor, Remainder and
// IncompleteLastNote; the command fills in the rest.
type Maker interface {
	Name() string
	Make(divisions []Division, state command.State) ([][]Event, command.State, error)
}

// NoteMaker fills each division with one note.
type NoteMaker struct{}

// Name implements Maker.
func (NoteMaker) Name() string { return "note" }

// Make implements Maker.
func (NoteMaker) Make(divisions []Division, state command.State) ([][]Event, command.State, error) {
	out := make([][]Event, len(divisions))
	for i, div := range divisions {
		out[i] = []Event{{Duration: div.Duration}}
	}
	return out, command.State{Cursor: state.Cursor}, nil
}

// RestMaker fills each division with one rest, or one multimeasure rest when
// Multimeasure is set and the division is a whole measure.
type RestMaker struct {
	Multimeasure bool
}

// Name implements Maker.
func (m RestMaker) Name() string {
	if m.Multimeasure {
		return "mmrest"
	}
	return "rest"
}

// Make implements Maker.
func (m RestMaker) Make(divisions []Division, state command.State) ([][]Event, command.State, error) {
	out := make([][]Event, len(divisions))
	for i, div := range divisions {
		out[i] = []Event{{Duration: div.Duration, Rest: true, Multimeasure: m.Multimeasure}}
	}
	return out, command.State{Cursor: state.Cursor}, nil
}

// EvenMaker fills each division with notes of 1/denominator, cycling through
// Denominators division by division. Whatever does not fit a whole note
// value is added to the last note. The cycle position persists in Cursor.
type EvenMaker struct {
	Denominators []int
}

// NewEvenMaker validates the denominators.
func NewEvenMaker(denominators ...int) (EvenMaker, error) {
	if len(denominators) == 0 {
		return EvenMaker{}, fmt.Errorf("rhythm: even maker needs at least one denominator")
	}
	for _, den := range denominators {
		if den <= 0 || den&(den-1) != 0 {
			return EvenMaker{}, fmt.Errorf("rhythm: even denominator %d is not a power of two", den)
		}
	}
	return EvenMaker{Denominators: append([]int(nil), denominators...)}, nil
}

// Name implements Maker.
func (m EvenMaker) Name() string {
	return fmt.Sprintf("even(%s)", joinInts(m.Denominators))
}

// Make implements Maker.
func (m EvenMaker) Make(divisions []Division, state command.State) ([][]Event, command.State, error) {
	if len(m.Denominators) == 0 {
		return nil, command.State{}, fmt.Errorf("rhythm: even maker needs at least one denominator")
	}
	cursor := state.Cursor
	out := make([][]Event, len(divisions))
	for i, div := range divisions {
		unit := duration.New(1, int64(m.Denominators[cursor%len(m.Denominators)]))
		cursor = (cursor + 1) % len(m.Denominators)
		if !unit.Less(div.Duration) {
			out[i] = []Event{{Duration: div.Duration}}
			continue
		}
		num, den := div.Duration.Ratio(unit)
		count := num / den
		events := make([]Event, count)
		for j := range events {
			events[j] = Event{Duration: unit}
		}
		rest := div.Duration.Sub(unit.Mul(count))
		events[len(events)-1].Duration = events[len(events)-1].Duration.Add(rest)
		out[i] = events
	}
	return out, command.State{Cursor: cursor}, nil
}

// TaleaMaker reads a cyclic list of counts over a denominator: count 3 over
// 16 is a dotted eighth, negative counts are rests. Counts flow across
// division boundaries; a note cut by a boundary is tied over it, and a count
// cut by the end of the span is carried in the state's Remainder.
type TaleaMaker struct {
	Counts      []int
	Denominator int
}

// NewTaleaMaker validates counts and denominator.
func NewTaleaMaker(counts []int, denominator int) (TaleaMaker, error) {
	if denominator <= 0 || denominator&(denominator-1) != 0 {
		return TaleaMaker{}, fmt.Errorf("rhythm: talea denominator %d is not a power of two", denominator)
	}
	nonZero := false
	for _, c := range counts {
		if c != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return TaleaMaker{}, fmt.Errorf("rhythm: talea needs at least one non-zero count")
	}
	return TaleaMaker{Counts: append([]int(nil), counts...), Denominator: denominator}, nil
}

// Name implements Maker.
func (m TaleaMaker) Name() string {
	return fmt.Sprintf("talea(%s/%d)", joinInts(m.Counts), m.Denominator)
}

// Make implements Maker.
func (m TaleaMaker) Make(divisions []Division, state command.State) ([][]Event, command.State, error) {
	if _, err := NewTaleaMaker(m.Counts, m.Denominator); err != nil {
		return nil, command.State{}, err
	}
	cursor := state.Cursor % len(m.Counts)
	pending := state.Remainder
	pendingRest := !state.IncompleteLastNote

	out := make([][]Event, len(divisions))
	for i, div := range divisions {
		left := div.Duration
		var events []Event
		for !left.IsZero() {
			if pending.IsZero() {
				count := m.Counts[cursor]
				cursor = (cursor + 1) % len(m.Counts)
				if count == 0 {
					continue
				}
				pendingRest = count < 0
				if count < 0 {
					count = -count
				}
				pending = duration.New(int64(count), int64(m.Denominator))
			}
			piece := duration.Min(pending, left)
			pending = pending.Sub(piece)
			left = left.Sub(piece)
			events = append(events, Event{Duration: piece, Rest: pendingRest, Tie: !pendingRest && !pending.IsZero()})
		}
		out[i] = events
	}
	next := command.State{Cursor: cursor, Remainder: pending}
	if !pending.IsZero() {
		next.IncompleteLastNote = !pendingRest
	}
	return out, next, nil
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}
