package script

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/override"
	"github.com/kingrea/overture/internal/rhythm"
	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/selector"
)

// DefaultRegistry returns a registry holding every built-in command: rhythm,
// override, tag, tie, untie and one entry per override preset.
func DefaultRegistry() *command.Registry {
	reg := command.NewRegistry()
	reg.MustRegister("rhythm", newRhythm)
	reg.MustRegister("override", newOverride)
	reg.MustRegister("tag", newTag)
	reg.MustRegister("tie", newTie(false))
	reg.MustRegister("untie", newTie(true))
	for _, name := range override.PresetNames() {
		preset, _ := override.LookupPreset(name)
		reg.MustRegister(name, newPreset(preset))
	}
	return reg
}

// infoSpec holds the keys every command accepts.
type infoSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Deactivate  bool     `yaml:"deactivate"`
	Tag         string   `yaml:"tag"`
	Measures    Measures `yaml:"measures"`
	Selector    string   `yaml:"selector"`
}

func (s infoSpec) info() (command.Info, error) {
	m, err := s.Measures.Range()
	if err != nil {
		return command.Info{}, err
	}
	info := command.Info{
		Name:        s.Name,
		Description: s.Description,
		Deactivate:  s.Deactivate,
		Tag:         s.Tag,
		Measures:    m,
	}
	if strings.TrimSpace(s.Selector) != "" {
		sel, err := selector.Parse(s.Selector)
		if err != nil {
			return command.Info{}, err
		}
		info.Selector = sel
	}
	return info, nil
}

// decode re-encodes cfg through YAML into target, rejecting unknown keys.
func decode(cfg command.Config, target any) error {
	if len(cfg) == 0 {
		return nil
	}
	payload, err := yaml.Marshal(map[string]any(cfg))
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(payload))
	dec.KnownFields(true)
	return dec.Decode(target)
}

type divisionSpec struct {
	Kind      string   `yaml:"kind"`
	Durations []string `yaml:"durations"`
	Counts    []int    `yaml:"counts"`
	Parts     int      `yaml:"parts"`
}

func (s *divisionSpec) maker() (rhythm.DivisionMaker, error) {
	if s == nil {
		return rhythm.Measurewise{}, nil
	}
	switch strings.ToLower(s.Kind) {
	case "", "measures", "measurewise":
		return rhythm.Measurewise{}, nil
	case "split":
		ds := make([]duration.Duration, 0, len(s.Durations))
		for _, raw := range s.Durations {
			d, err := duration.Parse(raw)
			if err != nil {
				return nil, err
			}
			ds = append(ds, d)
		}
		return rhythm.SplitByDurations{Durations: ds}, nil
	case "fuse":
		if len(s.Counts) == 0 {
			return rhythm.FuseAll{}, nil
		}
		return rhythm.FuseByCounts{Counts: s.Counts}, nil
	case "fuse_all":
		return rhythm.FuseAll{}, nil
	case "even", "even_split":
		return rhythm.EvenSplit{Parts: s.Parts}, nil
	default:
		return nil, fmt.Errorf("rhythm: unknown division kind %q", s.Kind)
	}
}

type rhythmSpec struct {
	infoSpec                 `yaml:",inline"`
	Maker                    string        `yaml:"maker"`
	Counts                   []int         `yaml:"counts"`
	Denominator              int           `yaml:"denominator"`
	Denominators             []int         `yaml:"denominators"`
	Divisions                *divisionSpec `yaml:"divisions"`
	Persist                  string        `yaml:"persist"`
	LeftBroken               bool          `yaml:"left_broken"`
	RightBroken              bool          `yaml:"right_broken"`
	TieFirst                 bool          `yaml:"tie_first"`
	TieLast                  bool          `yaml:"tie_last"`
	SplitAtMeasureBoundaries bool          `yaml:"split_at_measure_boundaries"`
	RewriteRestFilled        bool          `yaml:"rewrite_rest_filled"`
	MultimeasureRests        *bool         `yaml:"multimeasure_rests"`
}

func (s rhythmSpec) maker() (rhythm.Maker, error) {
	switch strings.ToLower(s.Maker) {
	case "note", "notes":
		return rhythm.NoteMaker{}, nil
	case "rest", "rests":
		return rhythm.RestMaker{}, nil
	case "", "mmrest", "mmrests":
		return rhythm.RestMaker{Multimeasure: true}, nil
	case "even":
		dens := s.Denominators
		if len(dens) == 0 && s.Denominator > 0 {
			dens = []int{s.Denominator}
		}
		return rhythm.NewEvenMaker(dens...)
	case "talea":
		return rhythm.NewTaleaMaker(s.Counts, s.Denominator)
	default:
		return nil, fmt.Errorf("rhythm: unknown maker %q", s.Maker)
	}
}

func newRhythm(cfg command.Config) (command.Command, error) {
	var spec rhythmSpec
	if err := decode(cfg, &spec); err != nil {
		return nil, fmt.Errorf("rhythm: %w", err)
	}
	info, err := spec.info()
	if err != nil {
		return nil, fmt.Errorf("rhythm: %w", err)
	}
	maker, err := spec.maker()
	if err != nil {
		return nil, err
	}
	divisions, err := spec.Divisions.maker()
	if err != nil {
		return nil, err
	}
	opts := rhythm.Options{
		Info:                     info,
		Maker:                    maker,
		Divisions:                divisions,
		Persist:                  spec.Persist,
		LeftBroken:               spec.LeftBroken,
		RightBroken:              spec.RightBroken,
		TieFirst:                 spec.TieFirst,
		TieLast:                  spec.TieLast,
		SplitAtMeasureBoundaries: spec.SplitAtMeasureBoundaries,
		RewriteRestFilled:        spec.RewriteRestFilled,
		MultimeasureRests:        true,
	}
	if spec.MultimeasureRests != nil {
		opts.MultimeasureRests = *spec.MultimeasureRests
	}
	cmd, err := rhythm.New(opts)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

type overrideSpec struct {
	infoSpec  `yaml:",inline"`
	Context   string   `yaml:"context"`
	Grob      string   `yaml:"grob"`
	Attribute string   `yaml:"attribute"`
	Value     any      `yaml:"value"`
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
	Once      bool     `yaml:"once"`
	After     bool     `yaml:"after"`
	// Forbid lists leaf kinds (note, chord, rest, mmrest, skip) the
	// override refuses.
	Forbid []string `yaml:"forbid"`
}

func newOverride(cfg command.Config) (command.Command, error) {
	var spec overrideSpec
	if err := decode(cfg, &spec); err != nil {
		return nil, fmt.Errorf("override: %w", err)
	}
	info, err := spec.info()
	if err != nil {
		return nil, fmt.Errorf("override: %w", err)
	}
	opts := override.Options{
		Info:      info,
		Context:   spec.Context,
		Grob:      spec.Grob,
		Attribute: spec.Attribute,
		Whitelist: spec.Whitelist,
		Blacklist: spec.Blacklist,
		Once:      spec.Once,
		After:     spec.After,
	}
	for _, name := range spec.Forbid {
		kind, err := score.ParseLeafKind(name)
		if err != nil {
			return nil, fmt.Errorf("override: forbid: %w", err)
		}
		opts.ForbidLeafKinds = append(opts.ForbidLeafKinds, kind)
	}
	cmd, err := override.Parse(opts, spec.Value)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

type presetSpec struct {
	infoSpec `yaml:",inline"`
	Value    any  `yaml:"value"`
	After    bool `yaml:"after"`
}

func newPreset(preset override.Preset) command.Factory {
	return func(cfg command.Config) (command.Command, error) {
		var spec presetSpec
		if err := decode(cfg, &spec); err != nil {
			return nil, fmt.Errorf("%s: %w", preset.Name, err)
		}
		info, err := spec.info()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", preset.Name, err)
		}
		raw := spec.Value
		if raw == nil {
			// transparency presets need no value
			raw = true
		}
		opts := preset.Options(info, score.Value{})
		opts.After = spec.After
		cmd, err := override.Parse(opts, raw)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
}

type tagSpec struct {
	infoSpec `yaml:",inline"`
	Tags     []string `yaml:"tags"`
}

func newTag(cfg command.Config) (command.Command, error) {
	var spec tagSpec
	if err := decode(cfg, &spec); err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	info, err := spec.info()
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	cmd, err := command.NewTagCommand(info, spec.Tags...)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

type tieSpec struct {
	infoSpec  `yaml:",inline"`
	Direction string `yaml:"direction"`
}

func newTie(untie bool) command.Factory {
	return func(cfg command.Config) (command.Command, error) {
		var spec tieSpec
		if err := decode(cfg, &spec); err != nil {
			return nil, fmt.Errorf("tie: %w", err)
		}
		info, err := spec.info()
		if err != nil {
			return nil, fmt.Errorf("tie: %w", err)
		}
		dir, err := command.ParseTieDirection(spec.Direction)
		if err != nil {
			return nil, err
		}
		cmd, err := command.NewTieCommand(info, dir, untie)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
}
