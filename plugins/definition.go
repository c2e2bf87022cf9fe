package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/script"
)

// Fragment is a reusable list of scoped commands loaded from a plugin file
// and appended to the scripts it applies to. Scripts limits the fragment to
// those script ids; empty applies it to every script.
type Fragment struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Scripts     []string       `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Commands    []script.Entry `json:"commands" yaml:"commands"`
}

// Normalized returns a trimmed, copy-on-write variant of the fragment.
func (f Fragment) Normalized() Fragment {
	clone := Fragment{
		ID:          strings.TrimSpace(f.ID),
		Description: strings.TrimSpace(f.Description),
	}
	for _, id := range f.Scripts {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			clone.Scripts = append(clone.Scripts, trimmed)
		}
	}
	if len(f.Commands) > 0 {
		clone.Commands = make([]script.Entry, len(f.Commands))
		for i, entry := range f.Commands {
			clone.Commands[i] = entry.Clone()
		}
	}
	return clone
}

// Validate ensures the fragment is well-formed.
func (f Fragment) Validate() error {
	normalized := f.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if len(normalized.Commands) == 0 {
		return fmt.Errorf("plugin %s: at least one command is required", normalized.ID)
	}
	for idx, entry := range normalized.Commands {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("plugin %s command[%d]: %w", normalized.ID, idx, err)
		}
	}
	return nil
}

// AppliesTo reports whether the fragment targets the script id.
func (f Fragment) AppliesTo(id string) bool {
	if len(f.Scripts) == 0 {
		return true
	}
	for _, candidate := range f.Scripts {
		if candidate == id {
			return true
		}
	}
	return false
}
