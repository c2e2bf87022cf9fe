package command

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/selector"
)

// TagCommand attaches tags to every selected leaf.
type TagCommand struct {
	Base
	tags []string
}

// NewTagCommand builds a tag command. At least one non-empty tag is needed.
func NewTagCommand(info Info, tags ...string) (*TagCommand, error) {
	var clean []string
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("command: tag needs at least one tag")
	}
	if info.Name == "" {
		info.Name = "tag"
	}
	if info.Description == "" {
		info.Description = strings.Join(clean, ", ")
	}
	return &TagCommand{Base: NewBase(info), tags: clean}, nil
}

// Tag is shorthand for NewTagCommand over sel; it panics on an empty tag.
func Tag(tag string, sel selector.Selector) *TagCommand {
	cmd, err := NewTagCommand(Info{Selector: sel}, tag)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Tags returns the tags the command attaches.
func (c *TagCommand) Tags() []string {
	return append([]string(nil), c.tags...)
}

// Apply implements Command.
func (c *TagCommand) Apply(ctx *Context) (Result, error) {
	if res, off := c.Deactivated(); off {
		return res, nil
	}
	leaves, err := c.Targets(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}, err
	}
	if len(leaves) == 0 {
		return c.NoOp(), nil
	}
	for _, leaf := range leaves {
		for _, tag := range c.tags {
			leaf.AddTag(tag)
		}
	}
	return Result{Status: StatusCompleted, Targets: len(leaves)}, nil
}
