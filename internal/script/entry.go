package script

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/score"
)

// commonKeys may sit beside the command body and apply to any command.
var commonKeys = map[string]bool{
	"name":        true,
	"description": true,
	"deactivate":  true,
	"tag":         true,
	"measures":    true,
	"selector":    true,
}

// Measures is a script measure range: omitted for every measure, one number
// for a single measure, or [start, stop].
type Measures []int

// UnmarshalYAML accepts a bare number as well as a list.
func (m *Measures) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("measures: %w", err)
		}
		*m = Measures{n}
		return nil
	}
	var list []int
	if err := node.Decode(&list); err != nil {
		return fmt.Errorf("measures: %w", err)
	}
	*m = list
	return nil
}

// Range converts the script form into a score range.
func (m Measures) Range() (score.Measures, error) {
	switch len(m) {
	case 0:
		return score.AllMeasures, nil
	case 1:
		return score.Measure(m[0]), nil
	case 2:
		return score.MeasureRange(m[0], m[1]), nil
	default:
		return score.Measures{}, fmt.Errorf("measures: want one or two numbers, got %d", len(m))
	}
}

// Scope names the voice (or its abbreviation) and measures an entry binds to.
type Scope struct {
	Voice    string   `json:"voice" yaml:"voice"`
	Measures Measures `json:"measures,omitempty" yaml:"measures,omitempty,flow"`
}

// Resolve converts the scope into the accumulator's form.
func (s Scope) Resolve() (command.Scope, error) {
	m, err := s.Measures.Range()
	if err != nil {
		return command.Scope{}, fmt.Errorf("scope %s: %w", s.Voice, err)
	}
	return command.Scope{Voice: s.Voice, Measures: m}, nil
}

// Entry is one scoped command. In a script it is written either with the
// command name as key,
//
//	- scope: {voice: mv, measures: [1, 2]}
//	  override: {grob: stem, attribute: direction, value: up}
//	  selector: pleaves()
//
// or explicitly as {scope, command, config}. Common keys (name,
// description, deactivate, tag, measures, selector) may sit beside the body
// or inside it; the body wins.
type Entry struct {
	Scope   Scope
	Command string
	Config  command.Config
}

// Clone returns a copy of the entry with its own config map.
func (e Entry) Clone() Entry {
	clone := Entry{Scope: Scope{Voice: e.Scope.Voice}, Command: e.Command}
	if len(e.Scope.Measures) > 0 {
		clone.Scope.Measures = append(Measures(nil), e.Scope.Measures...)
	}
	if len(e.Config) > 0 {
		clone.Config = make(command.Config, len(e.Config))
		for key, value := range e.Config {
			clone.Config[key] = value
		}
	}
	return clone
}

// Validate ensures the entry names a command.
func (e Entry) Validate() error {
	if e.Command == "" {
		return fmt.Errorf("script: command is required")
	}
	if _, err := e.Scope.Measures.Range(); err != nil {
		return err
	}
	return nil
}

// UnmarshalYAML decodes both entry spellings.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("script: command entry must be a mapping")
	}
	fields := map[string]*yaml.Node{}
	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		fields[key] = node.Content[i+1]
		keys = append(keys, key)
	}

	var out Entry
	if scopeNode, ok := fields["scope"]; ok {
		if err := scopeNode.Decode(&out.Scope); err != nil {
			return fmt.Errorf("script: scope: %w", err)
		}
	}
	body := command.Config{}
	common := command.Config{}
	var kinds []string
	for _, key := range keys {
		value := fields[key]
		switch {
		case key == "scope":
			continue
		case key == "command":
			out.Command = strings.TrimSpace(value.Value)
		case key == "config":
			if err := value.Decode(&body); err != nil {
				return fmt.Errorf("script: config: %w", err)
			}
		case commonKeys[key] && value.Kind != yaml.MappingNode:
			var raw any
			if err := value.Decode(&raw); err != nil {
				return fmt.Errorf("script: %s: %w", key, err)
			}
			common[key] = raw
		case value.Kind == yaml.MappingNode:
			kinds = append(kinds, key)
		default:
			return fmt.Errorf("script: unknown entry key %q", key)
		}
	}
	switch {
	case len(kinds) > 1:
		sort.Strings(kinds)
		return fmt.Errorf("script: entry names several commands: %s", strings.Join(kinds, ", "))
	case len(kinds) == 1 && out.Command != "":
		return fmt.Errorf("script: entry sets command %q and a %s body", out.Command, kinds[0])
	case len(kinds) == 1:
		out.Command = kinds[0]
		if err := fields[kinds[0]].Decode(&body); err != nil {
			return fmt.Errorf("script: %s: %w", kinds[0], err)
		}
	}
	for key, value := range common {
		if _, set := body[key]; !set {
			body[key] = value
		}
	}
	if len(body) > 0 {
		out.Config = body
	}
	*e = out
	return nil
}

// MarshalYAML writes the explicit spelling.
func (e Entry) MarshalYAML() (any, error) {
	out := map[string]any{"command": e.Command}
	if e.Scope.Voice != "" || len(e.Scope.Measures) > 0 {
		out["scope"] = e.Scope
	}
	if len(e.Config) > 0 {
		out["config"] = map[string]any(e.Config)
	}
	return out, nil
}
