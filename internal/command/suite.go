package command

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/score"
)

// Scope binds commands to one voice and a measure range.
type Scope struct {
	Voice    string
	Measures score.Measures
}

// String renders "MusicVoice 1-4".
func (s Scope) String() string {
	return fmt.Sprintf("%s %s", s.Voice, s.Measures)
}

// Suite is an ordered list of commands applied one after another.
type Suite struct {
	Base
	commands []Command
}

// NewSuite groups commands under a shared name.
func NewSuite(name string, commands ...Command) *Suite {
	if name == "" {
		name = "suite"
	}
	labels := make([]string, 0, len(commands))
	for _, cmd := range commands {
		labels = append(labels, cmd.Info().Name)
	}
	return &Suite{
		Base:     NewBase(Info{Name: name, Description: strings.Join(labels, ", ")}),
		commands: append([]Command(nil), commands...),
	}
}

// Commands returns the suite's members with nested suites flattened.
func (s *Suite) Commands() []Command {
	return Flatten(s.commands...)
}

// Apply applies every member in order and stops at the first error.
func (s *Suite) Apply(ctx *Context) (Result, error) {
	total := 0
	for _, cmd := range s.Commands() {
		res, err := cmd.Apply(ctx)
		if err != nil {
			return Result{Status: StatusFailed, Message: err.Error(), Targets: total}, err
		}
		total += res.Targets
	}
	if total == 0 {
		return Result{Status: StatusNoOp, Message: s.info.Label() + " touched nothing"}, nil
	}
	return Result{Status: StatusCompleted, Targets: total}, nil
}

// Flatten expands suites into their members, preserving order.
func Flatten(commands ...Command) []Command {
	var out []Command
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if suite, ok := cmd.(*Suite); ok {
			out = append(out, suite.Commands()...)
			continue
		}
		out = append(out, cmd)
	}
	return out
}
