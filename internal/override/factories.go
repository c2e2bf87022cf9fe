package override

import (
	"fmt"
	"sort"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/selector"
)

// pitched-only grobs refuse multimeasure rests.
var noMMRests = []score.LeafKind{score.KindMultimeasureRest}

// Preset is a named override whose value is supplied at construction.
type Preset struct {
	Name            string
	Context         string
	Grob            string
	Attribute       string
	Once            bool
	ForbidLeafKinds []score.LeafKind
}

// Options fills in an override configuration for the preset.
func (p Preset) Options(info command.Info, value score.Value) Options {
	if info.Name == "" {
		info.Name = p.Name
	}
	return Options{
		Info:            info,
		Context:         p.Context,
		Grob:            p.Grob,
		Attribute:       p.Attribute,
		Value:           value,
		Once:            p.Once,
		ForbidLeafKinds: p.ForbidLeafKinds,
	}
}

var presets = map[string]Preset{
	"stem_direction":                     {Grob: "Stem", Attribute: "direction", ForbidLeafKinds: noMMRests},
	"tie_direction":                      {Grob: "Tie", Attribute: "direction"},
	"text_script_color":                  {Grob: "TextScript", Attribute: "color"},
	"text_script_staff_padding":          {Grob: "TextScript", Attribute: "staff-padding"},
	"tuplet_bracket_staff_padding":       {Grob: "TupletBracket", Attribute: "staff-padding"},
	"dynamic_line_spanner_staff_padding": {Grob: "DynamicLineSpanner", Attribute: "staff-padding"},
	"note_head_style":                    {Grob: "NoteHead", Attribute: "style", ForbidLeafKinds: noMMRests},
	"rest_position":                      {Grob: "Rest", Attribute: "staff-position"},
	"mmrest_transparent":                 {Grob: "MultiMeasureRest", Attribute: "transparent"},
	"bar_line_transparent":               {Context: "Score", Grob: "BarLine", Attribute: "transparent"},
	"time_signature_transparent":         {Context: "Staff", Grob: "TimeSignature", Attribute: "transparent", Once: true},
}

func init() {
	for name, p := range presets {
		p.Name = name
		presets[name] = p
	}
}

// LookupPreset finds a preset by its script name, e.g. "stem_direction".
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("override: unknown preset %q", name)
	}
	return p, nil
}

// PresetNames lists the presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func must(name string, value score.Value, sel selector.Selector) *Command {
	p, err := LookupPreset(name)
	if err != nil {
		panic(err)
	}
	cmd, err := New(p.Options(command.Info{Selector: sel}, value))
	if err != nil {
		panic(err)
	}
	return cmd
}

// StemDirection overrides Stem.direction.
func StemDirection(d score.Direction, sel selector.Selector) *Command {
	return must("stem_direction", score.Dir(d), sel)
}

// TieDirection overrides Tie.direction.
func TieDirection(d score.Direction, sel selector.Selector) *Command {
	return must("tie_direction", score.Dir(d), sel)
}

// TextScriptColor overrides TextScript.color with an x11 colour name.
func TextScriptColor(color string, sel selector.Selector) *Command {
	return must("text_script_color", score.Color(color), sel)
}

// TextScriptStaffPadding overrides TextScript.staff-padding.
func TextScriptStaffPadding(n float64, sel selector.Selector) *Command {
	return must("text_script_staff_padding", score.Number(n), sel)
}

// TupletBracketStaffPadding overrides TupletBracket.staff-padding.
func TupletBracketStaffPadding(n float64, sel selector.Selector) *Command {
	return must("tuplet_bracket_staff_padding", score.Number(n), sel)
}

// DynamicLineSpannerStaffPadding overrides DynamicLineSpanner.staff-padding.
func DynamicLineSpannerStaffPadding(n float64, sel selector.Selector) *Command {
	return must("dynamic_line_spanner_staff_padding", score.Number(n), sel)
}

// NoteHeadStyle overrides NoteHead.style.
func NoteHeadStyle(style string, sel selector.Selector) *Command {
	return must("note_head_style", score.Symbol(style), sel)
}

// RestPosition overrides Rest.staff-position.
func RestPosition(n float64, sel selector.Selector) *Command {
	return must("rest_position", score.Number(n), sel)
}

// MMRestTransparent hides multimeasure rests.
func MMRestTransparent(sel selector.Selector) *Command {
	return must("mmrest_transparent", score.Bool(true), sel)
}

// BarLineTransparent hides bar lines score-wide.
func BarLineTransparent(sel selector.Selector) *Command {
	return must("bar_line_transparent", score.Bool(true), sel)
}

// TimeSignatureTransparent hides the time signature once.
func TimeSignatureTransparent(sel selector.Selector) *Command {
	return must("time_signature_transparent", score.Bool(true), sel)
}
