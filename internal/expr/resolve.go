// Package expr implements the engine's expression surface: path
// references into the data context, string templating, condition
// evaluation and declarative data transformations.
//
// All resolution is pure: the same (expression, context) pair always
// yields the same value, and missing paths yield the Undefined sentinel
// rather than an error.
package expr

import (
	"fmt"
	"regexp"
	"strings"
)

// RefPrefix is the sigil that distinguishes a context reference from a
// literal, e.g. "$.order.total".
const RefPrefix = "$."

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the sentinel returned when a path does not resolve.
// It is a value, not an error: condition operators treat it explicitly.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Resolve evaluates a literal-or-reference expression against ctx.
//
//   - strings starting with "$." are dotted-path references
//   - strings containing "${...}" spans are templates
//   - everything else (including non-strings) is returned as-is
func Resolve(expr any, ctx map[string]any) any {
	s, ok := expr.(string)
	if !ok {
		return expr
	}
	if strings.HasPrefix(s, RefPrefix) {
		return Lookup(ctx, s[len(RefPrefix):])
	}
	if strings.Contains(s, "${") {
		return Interpolate(s, ctx)
	}
	return s
}

// Lookup walks a dot-separated path through nested maps, returning
// Undefined the moment any segment is missing or hits a non-object.
func Lookup(ctx map[string]any, path string) any {
	if path == "" {
		return Undefined
	}
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return Undefined
		}
		v, ok := m[seg]
		if !ok {
			return Undefined
		}
		cur = v
	}
	return cur
}

var templateSpan = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate replaces every "${path}" span in s with the stringified
// value at that path. Spans that do not resolve are left verbatim.
func Interpolate(s string, ctx map[string]any) string {
	return templateSpan.ReplaceAllStringFunc(s, func(span string) string {
		path := span[2 : len(span)-1]
		v := Lookup(ctx, path)
		if IsUndefined(v) {
			return span
		}
		return Stringify(v)
	})
}

// Stringify renders a resolved value as text, the coercion used by
// templating and the string comparison operators.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// SetPath writes v into ctx at the dot-separated path, creating
// intermediate objects as needed. A non-object intermediate is
// replaced by a fresh object.
func SetPath(ctx map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	cur := ctx
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}
