package command

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/score"
)

// TieDirection says which neighbour a tie correction connects to.
type TieDirection string

const (
	// TieRight ties the selected leaf to the following pitched leaf.
	TieRight TieDirection = "right"
	// TieLeft ties the preceding pitched leaf into the selected leaf.
	TieLeft TieDirection = "left"
)

// ParseTieDirection accepts right/left and the to/from aliases.
func ParseTieDirection(value string) (TieDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "right", "to":
		return TieRight, nil
	case "left", "from":
		return TieLeft, nil
	default:
		return "", fmt.Errorf("command: unknown tie direction %q", value)
	}
}

// TieCommand adds or removes ties between selected pitched leaves and their
// neighbours.
type TieCommand struct {
	Base
	direction TieDirection
	untie     bool
}

// NewTieCommand builds a tie correction.
func NewTieCommand(info Info, direction TieDirection, untie bool) (*TieCommand, error) {
	if direction != TieRight && direction != TieLeft {
		return nil, fmt.Errorf("command: unknown tie direction %q", direction)
	}
	if info.Name == "" {
		info.Name = "tie"
		if untie {
			info.Name = "untie"
		}
	}
	if info.Description == "" {
		info.Description = string(direction)
	}
	return &TieCommand{Base: NewBase(info), direction: direction, untie: untie}, nil
}

// Apply implements Command.
func (c *TieCommand) Apply(ctx *Context) (Result, error) {
	if res, off := c.Deactivated(); off {
		return res, nil
	}
	leaves, err := c.Targets(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}, err
	}
	changed := 0
	for _, leaf := range leaves {
		if !leaf.Kind.IsPitched() {
			continue
		}
		if c.correct(ctx.Voice, leaf) {
			changed++
		}
	}
	if changed == 0 {
		return c.NoOp(), nil
	}
	return Result{Status: StatusCompleted, Targets: changed}, nil
}

func (c *TieCommand) correct(voice *score.Voice, leaf *score.Leaf) bool {
	switch c.direction {
	case TieRight:
		next := voice.Next(leaf)
		if c.untie {
			if !leaf.Tie {
				return false
			}
			leaf.Tie = false
			if next != nil {
				next.RepeatTie = false
			}
			return true
		}
		if next == nil || !next.Kind.IsPitched() || leaf.Tie {
			return false
		}
		leaf.Tie = true
		return true
	default:
		prev := voice.Previous(leaf)
		if c.untie {
			if !leaf.RepeatTie && (prev == nil || !prev.Tie) {
				return false
			}
			leaf.RepeatTie = false
			if prev != nil {
				prev.Tie = false
			}
			return true
		}
		if prev == nil || !prev.Kind.IsPitched() || leaf.RepeatTie {
			return false
		}
		leaf.RepeatTie = true
		return true
	}
}
