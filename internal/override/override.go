package override

import (
	"fmt"
	"strings"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/score"
)

// Options configures an override command.
type Options struct {
	command.Info
	// Context is the LilyPond context the override lives in; empty means
	// the bottom (Voice) context.
	Context   string
	Grob      string
	Attribute string
	Value     score.Value
	// Whitelist, when set, names the only attributes this command may set.
	Whitelist []string
	Blacklist []string
	// Once emits \once \override on every selected leaf and never reverts.
	Once bool
	// After places the override after the leaf instead of before it.
	After bool
	// ForbidLeafKinds makes Apply fail when a selected leaf has one of
	// these kinds.
	ForbidLeafKinds []score.LeafKind
}

// Command sets one grob attribute across the selected leaves.
type Command struct {
	command.Base
	context   string
	grob      string
	attribute string
	value     score.Value
	once      bool
	after     bool
	forbidden []score.LeafKind
}

// New validates opts and builds the command. Every configuration error is
// reported here, never by Apply.
func New(opts Options) (*Command, error) {
	grob, err := LookupGrob(opts.Grob)
	if err != nil {
		return nil, err
	}
	attr, err := grob.Attribute(opts.Attribute)
	if err != nil {
		return nil, err
	}
	path := grob.Name + "." + attr.Name
	if len(opts.Whitelist) > 0 && !containsAttribute(opts.Whitelist, attr.Name) {
		return nil, fmt.Errorf("override: %s (allowed: %s): %w", path, strings.Join(opts.Whitelist, ", "), ErrNotWhitelisted)
	}
	if containsAttribute(opts.Blacklist, attr.Name) {
		return nil, fmt.Errorf("override: %s: %w", path, ErrBlacklisted)
	}
	if !attr.Accepts(opts.Value.Kind) {
		return nil, fmt.Errorf("override: %s takes %s, got %q: %w", path, kindList(attr.Kinds), opts.Value.Kind, ErrValueKind)
	}
	ctxName, err := ContextName(opts.Context)
	if err != nil {
		return nil, err
	}
	for _, kind := range opts.ForbidLeafKinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("override: %s forbids %q: %w", path, kind, score.ErrUnknownLeafKind)
		}
	}

	info := opts.Info
	if info.Name == "" {
		info.Name = "override"
	}
	if info.Description == "" {
		full := path
		if ctxName != "" {
			full = ctxName + "." + path
		}
		info.Description = full + " = " + opts.Value.SchemeString()
	}
	return &Command{
		Base:      command.NewBase(info),
		context:   ctxName,
		grob:      grob.Name,
		attribute: attr.Name,
		value:     opts.Value,
		once:      opts.Once,
		after:     opts.After,
		forbidden: append([]score.LeafKind(nil), opts.ForbidLeafKinds...),
	}, nil
}

// Parse builds a command from a raw script value, picking the value kind
// from the attribute's registration.
func Parse(opts Options, raw any) (*Command, error) {
	grob, err := LookupGrob(opts.Grob)
	if err != nil {
		return nil, err
	}
	attr, err := grob.Attribute(opts.Attribute)
	if err != nil {
		return nil, err
	}
	value, err := ParseValue(raw, attr.Kinds...)
	if err != nil {
		return nil, fmt.Errorf("override: %s.%s: %w", grob.Name, attr.Name, err)
	}
	opts.Value = value
	return New(opts)
}

// Grob returns the grob name in LilyPond spelling.
func (c *Command) Grob() string { return c.grob }

// Attribute returns the attribute name in LilyPond spelling.
func (c *Command) Attribute() string { return c.attribute }

// Value returns the value the command sets.
func (c *Command) Value() score.Value { return c.value }

// Apply records the override on every selected leaf. The first leaf starts
// the override and the last reverts it, unless the command is Once.
func (c *Command) Apply(ctx *command.Context) (command.Result, error) {
	if res, off := c.Deactivated(); off {
		return res, nil
	}
	leaves, err := c.Targets(ctx)
	if err != nil {
		return command.Result{Status: command.StatusFailed, Message: err.Error()}, err
	}
	if len(leaves) == 0 {
		return c.NoOp(), nil
	}
	for _, leaf := range leaves {
		if c.forbids(leaf.Kind) {
			err := fmt.Errorf("override: %s on %s: %w", c.path(), leaf, ErrForbiddenLeaf)
			return command.Result{Status: command.StatusFailed, Message: err.Error()}, err
		}
	}
	records := c.records(leaves)
	if c.inPlace(leaves, records) {
		return command.Result{Status: command.StatusNoOp, Message: c.path() + " already in place"}, nil
	}
	seq := ctx.Score.NextSequence()
	for i, leaf := range leaves {
		record := records[i]
		record.Sequence = seq
		leaf.AddOverride(record)
	}
	ctx.Printf("override: %s on %d leaves", c.Info().Description, len(leaves))
	return command.Result{Status: command.StatusCompleted, Targets: len(leaves)}, nil
}

func (c *Command) records(leaves []*score.Leaf) []score.Override {
	info := c.Info()
	out := make([]score.Override, len(leaves))
	for i := range leaves {
		out[i] = score.Override{
			Context:   c.context,
			Grob:      c.grob,
			Attribute: c.attribute,
			Value:     c.value,
			Once:      c.once,
			After:     c.after,
			Start:     c.once || i == 0,
			Revert:    !c.once && i == len(leaves)-1,
			Tag:       info.Tag,
			Origin:    info.Name,
		}
	}
	return out
}

// inPlace reports whether each leaf's most recent record on the same path
// already equals the record this command would add.
func (c *Command) inPlace(leaves []*score.Leaf, records []score.Override) bool {
	for i, leaf := range leaves {
		latest, ok := latestRecord(leaf, c.context, c.grob, c.attribute)
		if !ok {
			return false
		}
		latest.Sequence = 0
		if latest != records[i] {
			return false
		}
	}
	return true
}

func latestRecord(leaf *score.Leaf, context, grob, attribute string) (score.Override, bool) {
	var (
		best  score.Override
		found bool
	)
	for _, o := range leaf.Overrides {
		if o.Context != context || o.Grob != grob || o.Attribute != attribute {
			continue
		}
		if !found || o.Sequence > best.Sequence {
			best = o
			found = true
		}
	}
	return best, found
}

func (c *Command) forbids(kind score.LeafKind) bool {
	for _, k := range c.forbidden {
		if k == kind {
			return true
		}
	}
	return false
}

func (c *Command) path() string {
	if c.context == "" {
		return c.grob + "." + c.attribute
	}
	return c.context + "." + c.grob + "." + c.attribute
}

func containsAttribute(names []string, attr string) bool {
	for _, name := range names {
		if AttributeName(name) == attr {
			return true
		}
	}
	return false
}

func kindList(kinds []score.ValueKind) string {
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return strings.Join(names, " or ")
}
