// Package override sets one named visual attribute on one named graphical
// object class (grob) across the leaves a selector picks out.
package override

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/overture/internal/score"
)

// Configuration errors returned by New.
var (
	ErrUnknownGrob      = errors.New("unknown grob")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownContext   = errors.New("unknown context")
	ErrNotWhitelisted   = errors.New("attribute not in whitelist")
	ErrBlacklisted      = errors.New("attribute is blacklisted")
	ErrValueKind        = errors.New("value kind not accepted")
)

// ErrForbiddenLeaf is returned by Apply when a selected leaf has a kind the
// command refuses to decorate.
var ErrForbiddenLeaf = errors.New("forbidden leaf kind")

const (
	kBool   = score.ValueBool
	kNumber = score.ValueNumber
	kDir    = score.ValueDirection
	kPair   = score.ValuePair
	kSymbol = score.ValueSymbol
	kColor  = score.ValueColor
	kString = score.ValueString
	kScheme = score.ValueScheme
)

type attrs map[string][]score.ValueKind

// shared by every grob.
var commonAttributes = attrs{
	"color":        {kColor},
	"transparent":  {kBool},
	"stencil":      {kBool, kScheme},
	"extra-offset": {kPair},
	"X-extent":     {kPair},
	"Y-extent":     {kPair},
	"X-offset":     {kNumber, kScheme},
	"Y-offset":     {kNumber, kScheme},
	"layer":        {kNumber},
	"whiteout":     {kBool, kNumber},
}

var grobAttributes = map[string]attrs{
	"Accidental": {
		"font-size":     {kNumber},
		"parenthesized": {kBool},
	},
	"Arpeggio": {
		"arpeggio-direction": {kDir},
		"positions":          {kPair},
	},
	"BarLine": {
		"hair-thickness": {kNumber},
		"kern":           {kNumber},
		"glyph-name":     {kString},
		"bar-extent":     {kPair},
	},
	"Beam": {
		"positions":      {kPair},
		"grow-direction": {kDir},
		"damping":        {kNumber},
		"direction":      {kDir},
	},
	"Clef": {
		"font-size": {kNumber},
	},
	"DynamicLineSpanner": {
		"staff-padding":          {kNumber},
		"padding":                {kNumber},
		"direction":              {kDir},
		"outside-staff-priority": {kNumber},
	},
	"DynamicText": {
		"self-alignment-X": {kNumber, kDir},
		"font-size":        {kNumber},
	},
	"Glissando": {
		"bound-details.left.padding":  {kNumber},
		"bound-details.right.padding": {kNumber},
		"thickness":                   {kNumber},
		"style":                       {kSymbol},
	},
	"Hairpin": {
		"circled-tip":   {kBool},
		"to-barline":    {kBool},
		"shorten-pair":  {kPair},
		"bound-padding": {kNumber},
	},
	"MultiMeasureRest": {
		"expand-limit":   {kNumber},
		"staff-position": {kNumber},
	},
	"MultiMeasureRestText": {
		"padding": {kNumber},
	},
	"NoteColumn": {
		"force-hshift":     {kNumber},
		"ignore-collision": {kBool},
	},
	"NoteHead": {
		"style":        {kSymbol},
		"duration-log": {kNumber},
		"font-size":    {kNumber},
		"no-ledgers":   {kBool},
	},
	"RehearsalMark": {
		"padding":                {kNumber},
		"font-size":              {kNumber},
		"self-alignment-X":       {kNumber, kDir},
		"outside-staff-priority": {kNumber},
	},
	"Rest": {
		"direction":      {kDir},
		"staff-position": {kNumber},
	},
	"Script": {
		"direction":              {kDir},
		"padding":                {kNumber},
		"staff-padding":          {kNumber},
		"outside-staff-priority": {kNumber},
		"font-size":              {kNumber},
	},
	"SpanBar": {
		"glyph-name": {kString},
	},
	"Stem": {
		"direction":      {kDir},
		"length":         {kNumber},
		"thickness":      {kNumber},
		"stemlet-length": {kNumber},
	},
	"StemTremolo": {
		"slope":          {kNumber},
		"beam-thickness": {kNumber},
	},
	"SustainPedalLineSpanner": {
		"staff-padding": {kNumber},
	},
	"TextScript": {
		"direction":              {kDir},
		"padding":                {kNumber},
		"staff-padding":          {kNumber},
		"outside-staff-priority": {kNumber},
		"font-size":              {kNumber},
		"self-alignment-X":       {kNumber, kDir},
		"parent-alignment-X":     {kNumber, kDir},
	},
	"TextSpanner": {
		"staff-padding":               {kNumber},
		"dash-period":                 {kNumber},
		"dash-fraction":               {kNumber},
		"direction":                   {kDir},
		"bound-details.left.padding":  {kNumber},
		"bound-details.right.padding": {kNumber},
	},
	"Tie": {
		"direction": {kDir},
	},
	"TimeSignature": {
		"font-size":        {kNumber},
		"style":            {kSymbol},
		"break-visibility": {kScheme},
	},
	"TrillSpanner": {
		"staff-padding":               {kNumber},
		"bound-details.right.padding": {kNumber},
	},
	"TupletBracket": {
		"direction":              {kDir},
		"padding":                {kNumber},
		"staff-padding":          {kNumber},
		"shorten-pair":           {kPair},
		"outside-staff-priority": {kNumber},
		"bracket-visibility":     {kBool},
	},
	"TupletNumber": {
		"text":      {kScheme, kString},
		"font-size": {kNumber},
	},
}

var grobAliases = map[string]string{
	"mmrest":            "MultiMeasureRest",
	"multimeasure_rest": "MultiMeasureRest",
	"mmrest_text":       "MultiMeasureRestText",
}

var knownContexts = []string{"Score", "StaffGroup", "GrandStaff", "PianoStaff", "Staff", "RhythmicStaff", "Voice"}

// Grob is a registered graphical object class.
type Grob struct {
	Name       string
	attributes attrs
}

// Attribute is one registered grob attribute and the value kinds it accepts.
type Attribute struct {
	Name  string
	Kinds []score.ValueKind
}

// Accepts reports whether kind is a legal value for the attribute.
func (a Attribute) Accepts(kind score.ValueKind) bool {
	for _, k := range a.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// LookupGrob resolves a grob by LilyPond or snake_case name.
func LookupGrob(name string) (Grob, error) {
	normalized := GrobName(name)
	specific, ok := grobAttributes[normalized]
	if !ok {
		return Grob{}, fmt.Errorf("override: %q: %w", name, ErrUnknownGrob)
	}
	merged := make(attrs, len(commonAttributes)+len(specific))
	for attr, kinds := range commonAttributes {
		merged[attr] = kinds
	}
	for attr, kinds := range specific {
		merged[attr] = kinds
	}
	return Grob{Name: normalized, attributes: merged}, nil
}

// Attribute resolves an attribute of the grob.
func (g Grob) Attribute(name string) (Attribute, error) {
	normalized := AttributeName(name)
	kinds, ok := g.attributes[normalized]
	if !ok {
		return Attribute{}, fmt.Errorf("override: %s.%s: %w", g.Name, name, ErrUnknownAttribute)
	}
	return Attribute{Name: normalized, Kinds: append([]score.ValueKind(nil), kinds...)}, nil
}

// Attributes lists the grob's attribute names, sorted.
func (g Grob) Attributes() []string {
	names := make([]string, 0, len(g.attributes))
	for name := range g.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grobs lists every registered grob name, sorted.
func Grobs() []string {
	names := make([]string, 0, len(grobAttributes))
	for name := range grobAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GrobName converts snake_case ("tuplet_bracket") to LilyPond spelling
// ("TupletBracket"). Names already in LilyPond spelling pass through; a
// case-insensitive match against the registry is tried last.
func GrobName(name string) string {
	trimmed := strings.TrimSpace(name)
	if alias, ok := grobAliases[strings.ToLower(trimmed)]; ok {
		return alias
	}
	if _, ok := grobAttributes[trimmed]; ok {
		return trimmed
	}
	camel := camelCase(trimmed)
	if _, ok := grobAttributes[camel]; ok {
		return camel
	}
	for known := range grobAttributes {
		if strings.EqualFold(known, trimmed) {
			return known
		}
	}
	return camel
}

// AttributeName converts snake_case ("staff_padding", "self_alignment_x") to
// LilyPond spelling ("staff-padding", "self-alignment-X"). Dotted paths such
// as "bound_details.right.padding" convert part by part.
func AttributeName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, part := range parts {
		tokens := strings.FieldsFunc(part, func(r rune) bool { return r == '_' || r == '-' })
		for j, token := range tokens {
			if strings.EqualFold(token, "x") || strings.EqualFold(token, "y") {
				tokens[j] = strings.ToUpper(token)
				continue
			}
			tokens[j] = strings.ToLower(token)
		}
		parts[i] = strings.Join(tokens, "-")
	}
	return strings.Join(parts, ".")
}

// ContextName normalises a LilyPond context name ("staff_group" to
// "StaffGroup"). The empty name means the bottom context.
func ContextName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", nil
	}
	camel := camelCase(trimmed)
	for _, known := range knownContexts {
		if strings.EqualFold(known, camel) {
			return known, nil
		}
	}
	return "", fmt.Errorf("override: context %q: %w", name, ErrUnknownContext)
}

func camelCase(name string) string {
	tokens := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, token := range tokens {
		if token == "" {
			continue
		}
		b.WriteString(strings.ToUpper(token[:1]))
		b.WriteString(token[1:])
	}
	return b.String()
}
