package command

import (
	"github.com/kingrea/overture/internal/score"
)

// Logger is the Printf subset commands and the accumulator log through.
// *logging.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// Context carries the score, the scoped voice and the resolved measures into
// every command application.
type Context struct {
	Score    *score.Score
	Voice    *score.Voice
	Measures score.Measures
	Logger   Logger
}

// NewContext builds a Context for voice over every measure.
func NewContext(s *score.Score, voice *score.Voice) *Context {
	return &Context{Score: s, Voice: voice}
}

// WithMeasures returns a copy scoped to measures.
func (ctx *Context) WithMeasures(m score.Measures) *Context {
	clone := *ctx
	clone.Measures = m
	return &clone
}

// WithLogger returns a copy that logs through logger.
func (ctx *Context) WithLogger(logger Logger) *Context {
	clone := *ctx
	clone.Logger = logger
	return &clone
}

// Span resolves the context's measures against the score.
func (ctx *Context) Span() (score.Span, error) {
	return ctx.Score.Span(ctx.Measures)
}

// Printf logs when a logger is configured.
func (ctx *Context) Printf(format string, args ...any) {
	if ctx == nil || ctx.Logger == nil {
		return
	}
	ctx.Logger.Printf(format, args...)
}
