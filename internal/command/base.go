package command

import (
	"fmt"

	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/selector"
)

// Base provides common plumbing for commands: identity, scope narrowing and
// selector resolution.
type Base struct {
	info Info
}

// NewBase seeds the helper with command info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Command.Info.
func (b *Base) Info() Info {
	return b.info
}

// Deactivated reports the deactivated result when the command is switched
// off.
func (b *Base) Deactivated() (Result, bool) {
	if !b.info.Deactivate {
		return Result{}, false
	}
	return Result{Status: StatusDeactivated, Message: b.info.Label() + " deactivated"}, true
}

// Scope returns the measures the command applies to: its own measures when
// set, the context's otherwise.
func (b *Base) Scope(ctx *Context) score.Measures {
	if !b.info.Measures.IsAll() {
		return b.info.Measures
	}
	return ctx.Measures
}

// Span resolves Scope against the score.
func (b *Base) Span(ctx *Context) (score.Span, error) {
	span, err := ctx.Score.Span(b.Scope(ctx))
	if err != nil {
		return score.Span{}, fmt.Errorf("command: %s: %w", b.info.Name, err)
	}
	return span, nil
}

// Targets resolves the selector over the scoped leaves of the context voice.
func (b *Base) Targets(ctx *Context) ([]*score.Leaf, error) {
	if ctx == nil || ctx.Score == nil || ctx.Voice == nil {
		return nil, fmt.Errorf("command: %s: context needs a score and a voice", b.info.Name)
	}
	span, err := b.Span(ctx)
	if err != nil {
		return nil, err
	}
	leaves := ctx.Voice.LeavesBetween(span.Start, span.Stop)
	return b.info.Selector.SelectWithin(leaves, selector.BoundsOf(ctx.Voice, leaves)), nil
}

// NoOp reports an empty selection.
func (b *Base) NoOp() Result {
	return Result{Status: StatusNoOp, Message: fmt.Sprintf("%s selected nothing (%s)", b.info.Label(), b.info.Selector)}
}
