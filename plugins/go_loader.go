package plugins

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goCommandsFuncName = "Commands"

// readGoFragment evaluates a Go plugin and turns the entries returned by its
// Commands() function into a fragment named after the file.
func readGoFragment(path, name string, _ []byte) (Fragment, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return Fragment{}, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return Fragment{}, fmt.Errorf("interpret: %w", err)
	}
	fnValue, err := i.Eval(goCommandsFuncName)
	if err != nil {
		return Fragment{}, fmt.Errorf("must define %s() []map[string]any: %w", goCommandsFuncName, err)
	}
	raw, err := invokeCommandsFunc(fnValue)
	if err != nil {
		return Fragment{}, err
	}
	// The entries go through the same YAML decoding as a fragment file.
	payload, err := yaml.Marshal(map[string]any{"commands": raw})
	if err != nil {
		return Fragment{}, fmt.Errorf("encode commands: %w", err)
	}
	return decodeFragment(payload, name)
}

func invokeCommandsFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", goCommandsFuncName)
	}
	fn := value
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goCommandsFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goCommandsFuncName)
	}
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok && e != nil {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", goCommandsFuncName)
	}
	entriesVal := results[0]
	if entries, ok := entriesVal.Interface().([]map[string]any); ok {
		return entries, nil
	}
	if entriesVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goCommandsFuncName)
	}
	out := make([]map[string]any, entriesVal.Len())
	for i := 0; i < entriesVal.Len(); i++ {
		m, ok := entriesVal.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goCommandsFuncName, i)
		}
		out[i] = m
	}
	return out, nil
}
