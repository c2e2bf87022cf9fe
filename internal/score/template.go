package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/overture/internal/duration"
)

// VoiceSpec places one voice on a staff.
type VoiceSpec struct {
	Name         string
	Abbreviation string
	Staff        string
	Instrument   string
}

// Template is a fixed instrument layout.
type Template struct {
	Name        string
	Description string
	Voices      []VoiceSpec
}

var templates = map[string]Template{
	"single-staff": {
		Name:        "single-staff",
		Description: "One staff holding one music voice.",
		Voices: []VoiceSpec{
			{Name: "MusicVoice", Abbreviation: "mv", Staff: "MusicStaff"},
		},
	},
	"two-voice-staff": {
		Name:        "two-voice-staff",
		Description: "One staff holding two polyphonic voices.",
		Voices: []VoiceSpec{
			{Name: "MusicVoiceOne", Abbreviation: "v1", Staff: "MusicStaff"},
			{Name: "MusicVoiceTwo", Abbreviation: "v2", Staff: "MusicStaff"},
		},
	},
	"violin-solo": {
		Name:        "violin-solo",
		Description: "Solo violin.",
		Voices: []VoiceSpec{
			{Name: "ViolinMusicVoice", Abbreviation: "vn", Staff: "ViolinMusicStaff", Instrument: "Violin"},
		},
	},
	"string-trio": {
		Name:        "string-trio",
		Description: "Violin, viola and cello, one staff each.",
		Voices: []VoiceSpec{
			{Name: "ViolinMusicVoice", Abbreviation: "vn", Staff: "ViolinMusicStaff", Instrument: "Violin"},
			{Name: "ViolaMusicVoice", Abbreviation: "va", Staff: "ViolaMusicStaff", Instrument: "Viola"},
			{Name: "CelloMusicVoice", Abbreviation: "vc", Staff: "CelloMusicStaff", Instrument: "Cello"},
		},
	},
}

// DefaultTemplate is used when a script names none.
const DefaultTemplate = "single-staff"

// LookupTemplate finds a template by name.
func LookupTemplate(name string) (Template, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultTemplate
	}
	t, ok := templates[key]
	if !ok {
		return Template{}, fmt.Errorf("score: unknown template %q (known: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return t, nil
}

// TemplateNames returns the registered template names, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates an empty score laid out by the template.
func (t Template) Build(name string, timeSignatures []duration.TimeSignature) *Score {
	names := make([]string, 0, len(t.Voices))
	for _, spec := range t.Voices {
		names = append(names, spec.Name)
	}
	s := New(name, timeSignatures, names...)
	s.Template = t.Name
	for _, spec := range t.Voices {
		if spec.Abbreviation != "" {
			s.Abbreviations[spec.Abbreviation] = spec.Name
		}
	}
	return s
}

// Staff returns the staff name for a voice, falling back to the voice name.
func (t Template) Staff(voice string) string {
	for _, spec := range t.Voices {
		if spec.Name == voice && spec.Staff != "" {
			return spec.Staff
		}
	}
	return voice + "Staff"
}
