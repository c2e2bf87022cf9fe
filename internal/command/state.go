package command

import (
	"fmt"
	"sort"

	"github.com/kingrea/overture/internal/codec"
	"github.com/kingrea/overture/internal/duration"
)

// State is the carry-over a stateful command hands to its successor on the
// same voice. The zero State means "nothing to continue".
type State struct {
	// Name is the persist key; a successor only continues a state whose name
	// matches its own.
	Name              string `cbor:"name,omitempty"`
	DivisionsConsumed int    `cbor:"divisions,omitempty"`
	LogicalTies       int    `cbor:"ties,omitempty"`
	// Cursor is the next talea index.
	Cursor    int               `cbor:"cursor,omitempty"`
	Remainder duration.Duration `cbor:"rem"`
	// IncompleteLastNote marks music that ends mid-note and wants a tie into
	// the next span.
	IncompleteLastNote bool `cbor:"incomplete,omitempty"`
	// BrokenAtEnd marks music whose last tie was drawn as a right-broken tie.
	BrokenAtEnd bool `cbor:"broken,omitempty"`
}

// IsZero reports whether the state carries nothing.
func (s State) IsZero() bool {
	return s == State{}
}

// Continues reports whether s should seed a command persisting under name.
func (s State) Continues(name string) bool {
	return name != "" && s.Name == name
}

// Metadata is what one interpreted segment leaves behind for the next.
type Metadata struct {
	Segment     string           `cbor:"segment"`
	Fingerprint string           `cbor:"fingerprint,omitempty"`
	States      map[string]State `cbor:"states"`
}

// Voices returns the voice names with recorded states, sorted.
func (m Metadata) Voices() []string {
	names := make([]string, 0, len(m.States))
	for name := range m.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeMetadata serialises metadata with the deterministic codec.
func EncodeMetadata(m Metadata) ([]byte, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("command: encode metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata parses metadata written by EncodeMetadata.
func DecodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := codec.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("command: decode metadata: %w", err)
	}
	if m.States == nil {
		m.States = map[string]State{}
	}
	return m, nil
}
