// Package command defines the composer-facing unit of work applied to a
// realized score: a scoped, optionally deactivated, optionally tagged
// mutation of the leaves a selector picks out.
package command

import (
	"fmt"

	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/selector"
)

// Info describes a command's identity and scope.
type Info struct {
	// Name identifies the command kind, e.g. "override" or "rhythm".
	Name string
	// Description is a short human summary such as "Stem.direction = #up".
	Description string
	// Deactivate turns Apply into a no-op.
	Deactivate bool
	// Tag is attached to every record the command produces.
	Tag string
	// Measures narrows the command inside its scope. The zero value defers
	// to the scope's measures.
	Measures score.Measures
	Selector selector.Selector
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("command: name is required")
	}
	if i.Measures.Start > 0 && i.Measures.Stop > 0 && i.Measures.Stop < i.Measures.Start {
		return fmt.Errorf("command: %s measures %s are reversed", i.Name, i.Measures)
	}
	return nil
}

// Label renders "name" or "name: description" for logs.
func (i Info) Label() string {
	if i.Description == "" {
		return i.Name
	}
	return i.Name + ": " + i.Description
}

// Result captures the outcome of applying a command.
type Result struct {
	Status  Status
	Message string
	// Targets counts the leaves the command touched.
	Targets int
}

// Status enumerates command outcomes.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusNoOp        Status = "no-op"
	StatusDeactivated Status = "deactivated"
	StatusFailed      Status = "failed"
)

// Command is implemented by every score mutation.
type Command interface {
	Info() Info
	Apply(ctx *Context) (Result, error)
}

// Stateful is implemented by commands that consume and produce carry-over
// state, such as rhythm commands. The accumulator applies them before every
// other command and threads their state per voice.
type Stateful interface {
	Command
	ApplyState(ctx *Context, previous State) (Result, State, error)
}
