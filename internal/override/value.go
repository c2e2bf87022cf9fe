package override

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kingrea/overture/internal/score"
)

// ParseValue converts a raw script value (bool, number, string, or a
// two-element list) into the first of kinds it fits. A score.Value passes
// through unchanged.
func ParseValue(raw any, kinds ...score.ValueKind) (score.Value, error) {
	if v, ok := raw.(score.Value); ok {
		return v, nil
	}
	if len(kinds) == 0 {
		return score.Value{}, fmt.Errorf("override: no value kinds to parse %v into", raw)
	}
	for _, kind := range kinds {
		if v, ok := parseAs(kind, raw); ok {
			return v, nil
		}
	}
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return score.Value{}, fmt.Errorf("override: value %v is not a %s: %w", raw, strings.Join(names, " or "), ErrValueKind)
}

func parseAs(kind score.ValueKind, raw any) (score.Value, bool) {
	switch kind {
	case score.ValueBool:
		switch v := raw.(type) {
		case bool:
			return score.Bool(v), true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "#t", "##t":
				return score.Bool(true), true
			case "false", "#f", "##f":
				return score.Bool(false), true
			}
		}
	case score.ValueNumber:
		if n, ok := toNumber(raw); ok {
			return score.Number(n), true
		}
	case score.ValueDirection:
		if text, ok := raw.(string); ok {
			if d, err := score.ParseDirection(strings.TrimPrefix(strings.TrimSpace(text), "#")); err == nil {
				return score.Dir(d), true
			}
		}
	case score.ValuePair:
		if x, y, ok := toPair(raw); ok {
			return score.Pair(x, y), true
		}
	case score.ValueSymbol:
		if text, ok := raw.(string); ok {
			name := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(text), "#"), "'")
			if name != "" && !strings.ContainsAny(name, " ()\"") {
				return score.Symbol(name), true
			}
		}
	case score.ValueColor:
		if text, ok := raw.(string); ok {
			name := strings.TrimSpace(text)
			if name != "" && !strings.ContainsAny(name, " ()") {
				return score.Color(name), true
			}
		}
	case score.ValueString:
		if text, ok := raw.(string); ok {
			return score.String(text), true
		}
	case score.ValueScheme:
		if text, ok := raw.(string); ok {
			expr := strings.TrimPrefix(strings.TrimSpace(text), "#")
			if expr != "" {
				return score.Scheme(expr), true
			}
		}
	}
	return score.Value{}, false
}

func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(v), "#"), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// toPair accepts [x, y], "(x . y)" and "x,y".
func toPair(raw any) (float64, float64, bool) {
	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		x, okX := toNumber(v[0])
		y, okY := toNumber(v[1])
		return x, y, okX && okY
	case []float64:
		if len(v) != 2 {
			return 0, 0, false
		}
		return v[0], v[1], true
	case string:
		text := strings.TrimSpace(v)
		text = strings.TrimPrefix(text, "#'")
		text = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
		sep := ","
		if strings.Contains(text, " . ") {
			sep = " . "
		}
		left, right, ok := strings.Cut(text, sep)
		if !ok {
			return 0, 0, false
		}
		x, okX := toNumber(left)
		y, okY := toNumber(right)
		return x, y, okX && okY
	}
	return 0, 0, false
}
