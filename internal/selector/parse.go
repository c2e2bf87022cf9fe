package selector

import (
	"fmt"
	"strconv"
	"strings"
)

var plainSelectors = map[string]func() Selector{
	"leaves":  Leaves,
	"notes":   Notes,
	"rests":   Rests,
	"mmrests": MMRests,
	"pleaves": PLeaves,
	"pheads":  PHeads,
	"ptails":  PTails,
	"tleaves": TLeaves,
}

// indexed selectors take one integer argument: leaf(0), phead(-1).
var indexedSelectors = map[string]func() Selector{
	"leaf":  Leaves,
	"note":  Notes,
	"rest":  Rests,
	"pleaf": PLeaves,
	"phead": PHeads,
	"ptail": PTails,
}

// Parse reads a selector expression such as "pleaves[1:-1]", "leaf(0)",
// "baca.pheads()", "tagged(solo)" or "leaves.exclude(hidden)". An empty
// expression selects every leaf.
func Parse(expr string) (Selector, error) {
	text := strings.TrimSpace(expr)
	if text == "" {
		return Leaves(), nil
	}
	text = strings.TrimPrefix(text, "baca.")

	var excludes []string
	for {
		idx := strings.LastIndex(text, ".exclude(")
		if idx < 0 {
			break
		}
		if !strings.HasSuffix(text, ")") {
			return Selector{}, fmt.Errorf("selector: %q has unterminated exclude", expr)
		}
		tag := strings.TrimSpace(text[idx+len(".exclude(") : len(text)-1])
		if tag == "" {
			return Selector{}, fmt.Errorf("selector: %q excludes an empty tag", expr)
		}
		excludes = append(excludes, tag)
		text = text[:idx]
	}

	base, suffix := splitSubscripts(text)
	sel, err := parseBase(base)
	if err != nil {
		return Selector{}, fmt.Errorf("selector: %q: %w", expr, err)
	}
	for suffix != "" {
		if !strings.HasPrefix(suffix, "[") {
			return Selector{}, fmt.Errorf("selector: %q: unexpected %q", expr, suffix)
		}
		end := strings.Index(suffix, "]")
		if end < 0 {
			return Selector{}, fmt.Errorf("selector: %q: unterminated subscript", expr)
		}
		sel, err = applySubscript(sel, suffix[1:end])
		if err != nil {
			return Selector{}, fmt.Errorf("selector: %q: %w", expr, err)
		}
		suffix = strings.TrimSpace(suffix[end+1:])
	}
	for i := len(excludes) - 1; i >= 0; i-- {
		sel = sel.Exclude(excludes[i])
	}
	return sel, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(expr string) Selector {
	sel, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return sel
}

func splitSubscripts(text string) (string, string) {
	idx := strings.Index(text, "[")
	if idx < 0 {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx:])
}

func parseBase(base string) (Selector, error) {
	name, args, hasArgs := strings.Cut(base, "(")
	name = strings.TrimSpace(name)
	if hasArgs {
		if !strings.HasSuffix(args, ")") {
			return Selector{}, fmt.Errorf("unterminated argument list")
		}
		args = strings.TrimSpace(strings.TrimSuffix(args, ")"))
	}
	if name == "tagged" {
		if args == "" {
			return Selector{}, fmt.Errorf("tagged() needs a tag")
		}
		return Tagged(args), nil
	}
	if ctor, ok := plainSelectors[name]; ok {
		if args != "" {
			return Selector{}, fmt.Errorf("%s() takes no arguments", name)
		}
		return ctor(), nil
	}
	if ctor, ok := indexedSelectors[name]; ok {
		n, err := strconv.Atoi(args)
		if err != nil {
			return Selector{}, fmt.Errorf("%s() needs an integer index, got %q", name, args)
		}
		return ctor().Index(n).named(fmt.Sprintf("%s(%d)", name, n)), nil
	}
	return Selector{}, fmt.Errorf("unknown selector %q", name)
}

func applySubscript(sel Selector, body string) (Selector, error) {
	body = strings.TrimSpace(body)
	startText, stopText, isSlice := strings.Cut(body, ":")
	if !isSlice {
		n, err := strconv.Atoi(body)
		if err != nil {
			return Selector{}, fmt.Errorf("bad index %q", body)
		}
		return sel.Index(n), nil
	}
	start, stop := 0, End
	if s := strings.TrimSpace(startText); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Selector{}, fmt.Errorf("bad slice start %q", s)
		}
		start = n
	}
	if s := strings.TrimSpace(stopText); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Selector{}, fmt.Errorf("bad slice stop %q", s)
		}
		stop = n
	}
	return sel.Slice(start, stop), nil
}
