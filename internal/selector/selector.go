// Package selector resolves which leaves of a scoped voice a command targets.
// Selectors are pure: they never mutate leaves and always return leaves in
// voice order.
package selector

import (
	"fmt"
	"math"

	"github.com/kingrea/overture/internal/score"
)

// End stands for "through the last item" in Slice.
const End = math.MaxInt

// Selector picks leaves out of a sequence. The zero Selector selects every
// leaf.
type Selector struct {
	name string
	fn   func([]*score.Leaf, Bounds) []*score.Leaf
}

// Bounds are the voice's leaves just outside a scoped sequence, so logical
// ties that cross the scope edge are recognised.
type Bounds struct {
	Before *score.Leaf
	After  *score.Leaf
}

// BoundsOf returns the neighbours of leaves inside v.
func BoundsOf(v *score.Voice, leaves []*score.Leaf) Bounds {
	if v == nil || len(leaves) == 0 {
		return Bounds{}
	}
	return Bounds{Before: v.Previous(leaves[0]), After: v.Next(leaves[len(leaves)-1])}
}

// New wraps fn as a named selector.
func New(name string, fn func([]*score.Leaf) []*score.Leaf) Selector {
	return Selector{name: name, fn: func(leaves []*score.Leaf, _ Bounds) []*score.Leaf { return fn(leaves) }}
}

func bounded(name string, fn func([]*score.Leaf, Bounds) []*score.Leaf) Selector {
	return Selector{name: name, fn: fn}
}

// Select applies the selector to leaves with no neighbours.
func (s Selector) Select(leaves []*score.Leaf) []*score.Leaf {
	return s.SelectWithin(leaves, Bounds{})
}

// SelectWithin applies the selector to leaves whose voice neighbours are b.
func (s Selector) SelectWithin(leaves []*score.Leaf, b Bounds) []*score.Leaf {
	if s.fn == nil {
		return append([]*score.Leaf(nil), leaves...)
	}
	return s.fn(leaves, b)
}

// String names the selector for logs.
func (s Selector) String() string {
	if s.name == "" {
		return "leaves()"
	}
	return s.name
}

// Leaves selects every leaf.
func Leaves() Selector {
	return filter("leaves()", func(*score.Leaf) bool { return true })
}

// Notes selects notes only.
func Notes() Selector {
	return filter("notes()", func(l *score.Leaf) bool { return l.Kind == score.KindNote })
}

// Rests selects rests and multimeasure rests.
func Rests() Selector {
	return filter("rests()", func(l *score.Leaf) bool {
		return l.Kind == score.KindRest || l.Kind == score.KindMultimeasureRest
	})
}

// MMRests selects multimeasure rests.
func MMRests() Selector {
	return filter("mmrests()", func(l *score.Leaf) bool { return l.Kind == score.KindMultimeasureRest })
}

// PLeaves selects pitched leaves (notes and chords).
func PLeaves() Selector {
	return filter("pleaves()", func(l *score.Leaf) bool { return l.Kind.IsPitched() })
}

// PHeads selects the first leaf of every pitched logical tie.
func PHeads() Selector {
	return bounded("pheads()", func(leaves []*score.Leaf, b Bounds) []*score.Leaf {
		var out []*score.Leaf
		for i, leaf := range leaves {
			if !leaf.Kind.IsPitched() {
				continue
			}
			prev := b.Before
			if i > 0 {
				prev = leaves[i-1]
			}
			if leaf.RepeatTie || (prev != nil && prev.Kind.IsPitched() && prev.Tie) {
				continue
			}
			out = append(out, leaf)
		}
		return out
	})
}

// PTails selects the last leaf of every pitched logical tie.
func PTails() Selector {
	return bounded("ptails()", func(leaves []*score.Leaf, b Bounds) []*score.Leaf {
		var out []*score.Leaf
		for i, leaf := range leaves {
			if !leaf.Kind.IsPitched() {
				continue
			}
			if leaf.Tie {
				continue
			}
			next := b.After
			if i+1 < len(leaves) {
				next = leaves[i+1]
			}
			if next != nil && next.Kind.IsPitched() && next.RepeatTie {
				continue
			}
			out = append(out, leaf)
		}
		return out
	})
}

// TLeaves selects leaves with leading and trailing rests trimmed.
func TLeaves() Selector {
	return New("tleaves()", func(leaves []*score.Leaf) []*score.Leaf {
		start, stop := 0, len(leaves)
		for start < stop && leaves[start].Kind.IsRest() {
			start++
		}
		for stop > start && leaves[stop-1].Kind.IsRest() {
			stop--
		}
		return append([]*score.Leaf(nil), leaves[start:stop]...)
	})
}

// Tagged selects leaves carrying tag.
func Tagged(tag string) Selector {
	return filter(fmt.Sprintf("tagged(%s)", tag), func(l *score.Leaf) bool { return l.HasTag(tag) })
}

// Leaf selects the nth leaf (negative counts from the end).
func Leaf(n int) Selector {
	return Leaves().Index(n).named(fmt.Sprintf("leaf(%d)", n))
}

// PLeaf selects the nth pitched leaf.
func PLeaf(n int) Selector {
	return PLeaves().Index(n).named(fmt.Sprintf("pleaf(%d)", n))
}

// Index narrows s to its nth result.
func (s Selector) Index(n int) Selector {
	inner := s
	return bounded(fmt.Sprintf("%s[%d]", s, n), func(leaves []*score.Leaf, b Bounds) []*score.Leaf {
		selected := inner.SelectWithin(leaves, b)
		idx := n
		if idx < 0 {
			idx += len(selected)
		}
		if idx < 0 || idx >= len(selected) {
			return nil
		}
		return []*score.Leaf{selected[idx]}
	})
}

// Slice narrows s to results [start:stop). Negative bounds count from the
// end; pass End to run through the last result.
func (s Selector) Slice(start, stop int) Selector {
	inner := s
	label := fmt.Sprintf("%s[%d:%d]", s, start, stop)
	if stop == End {
		label = fmt.Sprintf("%s[%d:]", s, start)
	}
	return bounded(label, func(leaves []*score.Leaf, b Bounds) []*score.Leaf {
		selected := inner.SelectWithin(leaves, b)
		lo := clampBound(start, len(selected))
		hi := clampBound(stop, len(selected))
		if hi <= lo {
			return nil
		}
		return append([]*score.Leaf(nil), selected[lo:hi]...)
	})
}

// Exclude drops leaves carrying tag.
func (s Selector) Exclude(tag string) Selector {
	inner := s
	return bounded(fmt.Sprintf("%s.exclude(%s)", s, tag), func(leaves []*score.Leaf, b Bounds) []*score.Leaf {
		var out []*score.Leaf
		for _, leaf := range inner.SelectWithin(leaves, b) {
			if !leaf.HasTag(tag) {
				out = append(out, leaf)
			}
		}
		return out
	})
}

func (s Selector) named(name string) Selector {
	s.name = name
	return s
}

func filter(name string, keep func(*score.Leaf) bool) Selector {
	return New(name, func(leaves []*score.Leaf) []*score.Leaf {
		var out []*score.Leaf
		for _, leaf := range leaves {
			if keep(leaf) {
				out = append(out, leaf)
			}
		}
		return out
	})
}

func clampBound(n, length int) int {
	if n == End {
		return length
	}
	if n < 0 {
		n += length
	}
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}
