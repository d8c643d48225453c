// Package template implements the {{dotted.path}} substitution that glues
// step outputs into downstream step inputs. It is not a general template
// engine: the only construct is a placeholder resolved against the run
// context, and anything that does not resolve is left exactly as written.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Render replaces each {{path}} in s with the stringified value resolved
// from ctx. Paths are dot-separated key chains resolved through nested maps;
// whitespace inside the braces is ignored. A path that misses at the top
// level is retried one level down, inside each top-level value that is
// itself a map (children visited in sorted key order, so the winner is
// deterministic). Unresolved placeholders stay literal; nil values render
// as the empty string.
//
// Render is idempotent on fully resolved strings.
func Render(s string, ctx map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		path := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := resolve(path, ctx); ok {
			return stringify(v)
		}
		return m
	})
}

// RenderAny interpolates v recursively: strings are rendered, maps are
// traversed, list elements that are strings are rendered, and every other
// value passes through unchanged.
func RenderAny(v any, ctx map[string]any) any {
	switch t := v.(type) {
	case string:
		return Render(t, ctx)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = RenderAny(val, ctx)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			if s, ok := el.(string); ok {
				out[i] = Render(s, ctx)
			} else {
				out[i] = el
			}
		}
		return out
	default:
		return v
	}
}

// RenderMap interpolates every value of m, returning a new map. m is not
// modified.
func RenderMap(m map[string]any, ctx map[string]any) map[string]any {
	out, _ := RenderAny(m, ctx).(map[string]any)
	return out
}

func resolve(path string, ctx map[string]any) (any, bool) {
	segs := strings.Split(path, ".")
	if v, ok := lookup(segs, ctx); ok {
		return v, true
	}
	// One fallback level: the full path retried inside immediate child maps.
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		child, ok := ctx[k].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := lookup(segs, child); ok {
			return v, true
		}
	}
	return nil, false
}

func lookup(segs []string, m map[string]any) (any, bool) {
	var cur any = m
	for _, seg := range segs {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = mm[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		// Composite values (maps, slices) render as compact JSON.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
