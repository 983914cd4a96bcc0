// Package flatten turns a nested tree of maps, slices and scalars into the
// single-level dotted parameter form used by query-style web apis.
//
//	{"A": 1, "B": {"C": "x"}, "D": [{"E": 2}], "F": ["y"]}
//
// becomes
//
//	{"A": 1, "B.C": "x", "D.member.1.E": 2, "F.1": "y"}
package flatten

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

// Params is a flattened tree: dotted path -> scalar.
type Params map[string]any

// Flatten walks value and returns its leaves keyed by path. Supported nodes
// are map[string]any, map[string]string, []any, []map[string]any and
// []string; supported leaves are strings, integers, floats and json.Number.
// Anything else (nil, bool, structs, pointers) fails with
// domain.ErrUnsupportedValue.
func Flatten(value any, prefix string) (Params, error) {
	out := make(Params)
	if err := walk(out, value, prefix); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(out Params, value any, prefix string) error {
	switch v := value.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if err := walk(out, v[k], join(prefix, k)); err != nil {
				return err
			}
		}
		return nil
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := put(out, join(prefix, k), v[k]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, elt := range v {
			if err := walk(out, elt, index(prefix, i, isMapping(elt))); err != nil {
				return err
			}
		}
		return nil
	case []map[string]any:
		for i, elt := range v {
			if err := walk(out, elt, index(prefix, i, true)); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for i, elt := range v {
			if err := put(out, index(prefix, i, false), elt); err != nil {
				return err
			}
		}
		return nil
	case string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return put(out, prefix, v)
	default:
		return fmt.Errorf("%w: %T at %q", domain.ErrUnsupportedValue, value, prefix)
	}
}

func put(out Params, key string, v any) error {
	if _, dup := out[key]; dup {
		return fmt.Errorf("%w: duplicate key %q", domain.ErrUnsupportedValue, key)
	}
	out[key] = v
	return nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func index(prefix string, i int, mapping bool) string {
	if mapping {
		prefix += ".member"
	}
	return prefix + "." + strconv.Itoa(i+1)
}

func isMapping(v any) bool {
	switch v.(type) {
	case map[string]any, map[string]string:
		return true
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values renders every scalar as text for form encoding.
func (p Params) Values() url.Values {
	vals := make(url.Values, len(p))
	for k, v := range p {
		vals.Set(k, render(v))
	}
	return vals
}

func render(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
