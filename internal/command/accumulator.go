package command

import (
	"fmt"

	"github.com/kingrea/overture/internal/score"
)

// Entry is one command bound to a resolved scope.
type Entry struct {
	Voice    string
	Measures score.Measures
	Command  Command
}

// Outcome pairs an entry with the result of applying it.
type Outcome struct {
	Entry  Entry
	Result Result
}

// Report is what Interpret returns.
type Report struct {
	Outcomes []Outcome
	// States holds the final carry-over state per voice.
	States map[string]State
	// Filled counts measures the gap filler wrote default music into.
	Filled int
}

// Count returns how many outcomes reported status.
func (r Report) Count(status Status) int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Result.Status == status {
			n++
		}
	}
	return n
}

// Accumulator collects scoped commands against one score and interprets
// them.
type Accumulator struct {
	score   *score.Score
	entries []Entry
	states  map[string]State
	filler  GapFiller
}

// GapFiller writes default music into the measures stateful commands left
// empty and returns how many it filled.
type GapFiller func(s *score.Score) (int, error)

// NewAccumulator prepares an accumulator for s.
func NewAccumulator(s *score.Score) *Accumulator {
	return &Accumulator{score: s, states: map[string]State{}}
}

// Score returns the score commands are applied to.
func (a *Accumulator) Score() *score.Score {
	return a.score
}

// Seed installs carry-over states, e.g. from a previous segment's metadata.
// Unknown voices are ignored.
func (a *Accumulator) Seed(states map[string]State) {
	for voice, state := range states {
		name, err := a.score.ResolveVoiceName(voice)
		if err != nil {
			continue
		}
		a.states[name] = state
	}
}

// Add binds commands to scope. Suites are flattened, the voice name may be
// an abbreviation, and a command's own measures replace the scope's.
func (a *Accumulator) Add(scope Scope, commands ...Command) error {
	voice, err := a.score.ResolveVoiceName(scope.Voice)
	if err != nil {
		return fmt.Errorf("command: scope %s: %w", scope, err)
	}
	if _, _, err := scope.Measures.Resolve(a.score.MeasureCount()); err != nil {
		return fmt.Errorf("command: scope %s: %w", scope, err)
	}
	for _, cmd := range Flatten(commands...) {
		info := cmd.Info()
		if err := info.Validate(); err != nil {
			return err
		}
		measures := scope.Measures
		if !info.Measures.IsAll() {
			measures = info.Measures
		}
		a.entries = append(a.entries, Entry{Voice: voice, Measures: measures, Command: cmd})
	}
	return nil
}

// FillGapsWith installs f to run after the stateful commands, so the
// leaves it creates are visible to every other command.
func (a *Accumulator) FillGapsWith(f GapFiller) {
	a.filler = f
}

// Entries returns the bound commands in declaration order.
func (a *Accumulator) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// Interpret applies stateful commands first, then the gap filler if one is
// installed, then every other command, each group in declaration order.
// Outcomes are reported in declaration order; on error, entries that never
// ran keep a zero Result.
func (a *Accumulator) Interpret(logger Logger) (Report, error) {
	var stateful, plain []int
	for i, entry := range a.entries {
		if _, ok := entry.Command.(Stateful); ok {
			stateful = append(stateful, i)
		} else {
			plain = append(plain, i)
		}
	}
	report := Report{Outcomes: make([]Outcome, len(a.entries))}
	if err := a.run(stateful, &report, logger); err != nil {
		return report, err
	}
	if a.filler != nil {
		filled, err := a.filler(a.score)
		if err != nil {
			report.States = a.snapshot()
			return report, fmt.Errorf("command: fill gaps: %w", err)
		}
		report.Filled = filled
		if logger != nil && filled > 0 {
			logger.Printf("command: filled %d silent measures", filled)
		}
	}
	if err := a.run(plain, &report, logger); err != nil {
		return report, err
	}
	report.States = a.snapshot()
	return report, nil
}

func (a *Accumulator) run(indexes []int, report *Report, logger Logger) error {
	for _, i := range indexes {
		entry := a.entries[i]
		res, err := a.apply(entry, logger)
		report.Outcomes[i] = Outcome{Entry: entry, Result: res}
		if err != nil {
			if logger != nil {
				logger.Printf("command: %s on %s %s failed: %v", entry.Command.Info().Label(), entry.Voice, entry.Measures, err)
			}
			report.States = a.snapshot()
			return fmt.Errorf("command: %s on %s measures %s: %w",
				entry.Command.Info().Name, entry.Voice, entry.Measures, err)
		}
		if logger != nil {
			logger.Printf("command: %s on %s %s: %s (%d leaves)", entry.Command.Info().Label(), entry.Voice, entry.Measures, res.Status, res.Targets)
		}
	}
	return nil
}

func (a *Accumulator) apply(entry Entry, logger Logger) (Result, error) {
	voice, ok := a.score.Voice(entry.Voice)
	if !ok {
		return Result{Status: StatusFailed}, fmt.Errorf("score: unknown voice name %q", entry.Voice)
	}
	ctx := &Context{Score: a.score, Voice: voice, Measures: entry.Measures, Logger: logger}
	if cmd, ok := entry.Command.(Stateful); ok {
		res, next, err := cmd.ApplyState(ctx, a.states[entry.Voice])
		if err != nil {
			return Result{Status: StatusFailed, Message: err.Error()}, err
		}
		if res.Status != StatusDeactivated {
			a.states[entry.Voice] = next
		}
		return res, nil
	}
	res, err := entry.Command.Apply(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}, err
	}
	return res, nil
}

func (a *Accumulator) snapshot() map[string]State {
	out := make(map[string]State, len(a.states))
	for voice, state := range a.states {
		out[voice] = state
	}
	return out
}
