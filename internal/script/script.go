// Package script reads score-building scripts: a template, a list of time
// signatures and an ordered list of scoped commands.
package script

import (
	"fmt"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/rhythm"
	"github.com/kingrea/overture/internal/score"
)

// Script declares one segment of music.
type Script struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty"`
	Template       string            `json:"template,omitempty" yaml:"template,omitempty"`
	TimeSignatures []string          `json:"time_signatures" yaml:"time_signatures"`
	Commands       []Entry           `json:"commands,omitempty" yaml:"commands,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	// FillGaps writes multimeasure rests into measures no rhythm reached.
	// Defaults to true.
	FillGaps *bool `json:"fill_gaps,omitempty" yaml:"fill_gaps,omitempty"`
}

// Clone returns a deep copy of the script.
func (s Script) Clone() Script {
	clone := Script{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Template:       s.Template,
		TimeSignatures: append([]string(nil), s.TimeSignatures...),
		Metadata:       cloneStringMap(s.Metadata),
	}
	if s.FillGaps != nil {
		fill := *s.FillGaps
		clone.FillGaps = &fill
	}
	if len(s.Commands) > 0 {
		clone.Commands = make([]Entry, len(s.Commands))
		for i, entry := range s.Commands {
			clone.Commands[i] = entry.Clone()
		}
	}
	return clone
}

// Validate ensures the script is self-consistent.
func (s Script) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("script: id is required")
	}
	if len(s.TimeSignatures) == 0 {
		return fmt.Errorf("script %s: at least one time signature is required", s.ID)
	}
	if _, err := duration.ParseTimeSignatures(s.TimeSignatures); err != nil {
		return fmt.Errorf("script %s: %w", s.ID, err)
	}
	tmpl, err := score.LookupTemplate(s.Template)
	if err != nil {
		return fmt.Errorf("script %s: %w", s.ID, err)
	}
	empty := tmpl.Build(s.ID, nil)
	for idx, entry := range s.Commands {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("script %s command[%d]: %w", s.ID, idx, err)
		}
		if _, err := empty.ResolveVoiceName(entry.Scope.Voice); err != nil {
			return fmt.Errorf("script %s command[%d]: %w", s.ID, idx, err)
		}
	}
	return nil
}

// Normalized clones the script, fills in the default template and the voice
// of single-voice templates, and validates the result.
func (s Script) Normalized() (Script, error) {
	clone := s.Clone()
	if clone.Template == "" {
		clone.Template = score.DefaultTemplate
	}
	if clone.Name == "" {
		clone.Name = clone.ID
	}
	if tmpl, err := score.LookupTemplate(clone.Template); err == nil && len(tmpl.Voices) == 1 {
		for i := range clone.Commands {
			if clone.Commands[i].Scope.Voice == "" {
				clone.Commands[i].Scope.Voice = tmpl.Voices[0].Name
			}
		}
	}
	if err := clone.Validate(); err != nil {
		return Script{}, err
	}
	return clone, nil
}

// ShouldFillGaps reports whether silent measures get multimeasure rests.
func (s Script) ShouldFillGaps() bool {
	return s.FillGaps == nil || *s.FillGaps
}

// Append adds entries, e.g. ones contributed by plugins, after the script's
// own commands.
func (s *Script) Append(entries ...Entry) {
	for _, entry := range entries {
		s.Commands = append(s.Commands, entry.Clone())
	}
}

// Score builds the empty score the script's template and meters describe.
func (s Script) Score() (*score.Score, error) {
	tmpl, err := score.LookupTemplate(s.Template)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.ID, err)
	}
	sigs, err := duration.ParseTimeSignatures(s.TimeSignatures)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.ID, err)
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return tmpl.Build(name, sigs), nil
}

// Build resolves every entry through reg and binds it to a fresh score.
func (s Script) Build(reg *command.Registry) (*command.Accumulator, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	sc, err := s.Score()
	if err != nil {
		return nil, err
	}
	acc := command.NewAccumulator(sc)
	for idx, entry := range s.Commands {
		cmd, err := reg.Resolve(entry.Command, entry.Config)
		if err != nil {
			return nil, fmt.Errorf("script %s command[%d] %s: %w", s.ID, idx, entry.Command, err)
		}
		scope, err := entry.Scope.Resolve()
		if err != nil {
			return nil, fmt.Errorf("script %s command[%d]: %w", s.ID, idx, err)
		}
		if err := acc.Add(scope, cmd); err != nil {
			return nil, fmt.Errorf("script %s command[%d]: %w", s.ID, idx, err)
		}
	}
	return acc, nil
}

// RunOptions tunes Run.
type RunOptions struct {
	Registry *command.Registry
	// Seed continues rhythm from a previous segment's final states.
	Seed   map[string]command.State
	Logger command.Logger
}

// Outcome is the product of running a script.
type Outcome struct {
	Script Script
	Score  *score.Score
	Report command.Report
	// Filled counts measures that received a gap-filling rest.
	Filled int
}

// Metadata packages the final rhythm states and the score fingerprint for
// the next segment.
func (o Outcome) Metadata() (command.Metadata, error) {
	hash, err := score.Fingerprint(o.Score)
	if err != nil {
		return command.Metadata{}, err
	}
	return command.Metadata{Segment: o.Script.ID, Fingerprint: hash.String(), States: o.Report.States}, nil
}

// Run builds and interprets the script. Silent measures receive the default
// rhythm right after the rhythm commands, so other commands can target them.
func Run(s Script, opts RunOptions) (Outcome, error) {
	acc, err := s.Build(opts.Registry)
	if err != nil {
		return Outcome{}, err
	}
	if len(opts.Seed) > 0 {
		acc.Seed(opts.Seed)
	}
	if s.ShouldFillGaps() {
		acc.FillGapsWith(rhythm.FillGaps)
	}
	report, err := acc.Interpret(opts.Logger)
	if err != nil {
		return Outcome{}, fmt.Errorf("script %s: %w", s.ID, err)
	}
	return Outcome{Script: s, Score: acc.Score(), Report: report, Filled: report.Filled}, nil
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	clone := make(map[string]string, len(values))
	for key, value := range values {
		clone[key] = value
	}
	return clone
}
