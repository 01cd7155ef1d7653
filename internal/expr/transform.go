package expr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avelin/dagflow/pkg/api"
)

// Transformation is one declarative map/filter/reduce/format operation.
// Source is resolved through Resolve against the data context; the
// result is written at Target (dotted path, intermediates created).
type Transformation struct {
	Type   string `mapstructure:"type" json:"type" yaml:"type"`
	Source string `mapstructure:"source" json:"source" yaml:"source"`
	Target string `mapstructure:"target" json:"target" yaml:"target"`

	// Mapping rewrites each array element for the map operation:
	// output field -> source path within the element.
	Mapping map[string]string `mapstructure:"mapping" json:"mapping,omitempty" yaml:"mapping,omitempty"`

	// Conditions keep matching elements for the filter operation; each
	// element is the evaluation context.
	Conditions []api.Condition `mapstructure:"conditions" json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Operation selects the reduce accumulator: sum, concat or merge.
	// Initial seeds the accumulator.
	Operation string `mapstructure:"operation" json:"operation,omitempty" yaml:"operation,omitempty"`
	Initial   any    `mapstructure:"initial" json:"initial,omitempty" yaml:"initial,omitempty"`

	// Format selects the cast for the format operation: string, number,
	// boolean, date, json or template (which expands Template).
	Format   string `mapstructure:"format" json:"format,omitempty" yaml:"format,omitempty"`
	Template string `mapstructure:"template" json:"template,omitempty" yaml:"template,omitempty"`
}

// Apply runs the transformations in order, writing each result into ctx.
func Apply(ts []Transformation, ctx map[string]any) error {
	for i, t := range ts {
		if t.Target == "" {
			return fmt.Errorf("transformation %d: target is required", i)
		}
		out, err := applyOne(t, ctx)
		if err != nil {
			return err
		}
		SetPath(ctx, t.Target, out)
	}
	return nil
}

func applyOne(t Transformation, ctx map[string]any) (any, error) {
	src := Resolve(t.Source, ctx)

	switch t.Type {
	case "map":
		items, err := asArray(t, src)
		if err != nil {
			return nil, err
		}
		return applyMap(items, t.Mapping), nil
	case "filter":
		items, err := asArray(t, src)
		if err != nil {
			return nil, err
		}
		return applyFilter(items, t.Conditions), nil
	case "reduce":
		items, err := asArray(t, src)
		if err != nil {
			return nil, err
		}
		return applyReduce(items, t.Operation, t.Initial)
	case "format":
		return applyFormat(src, t, ctx)
	default:
		return nil, fmt.Errorf("unknown transformation type %q", t.Type)
	}
}

func asArray(t Transformation, src any) ([]any, error) {
	items, ok := src.([]any)
	if !ok {
		return nil, fmt.Errorf("%s source %q did not resolve to an array", t.Type, t.Source)
	}
	return items, nil
}

func applyMap(items []any, mapping map[string]string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		if len(mapping) == 0 {
			out[i] = item
			continue
		}
		elem, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		mapped := make(map[string]any, len(mapping))
		for field, path := range mapping {
			v := Lookup(elem, path)
			if IsUndefined(v) {
				continue
			}
			mapped[field] = v
		}
		out[i] = mapped
	}
	return out
}

func applyFilter(items []any, conds []api.Condition) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		elem, ok := item.(map[string]any)
		if !ok {
			// Scalar elements are addressable as $.value.
			elem = map[string]any{"value": item}
		}
		if EvaluateAll(conds, elem) {
			out = append(out, item)
		}
	}
	return out
}

func applyReduce(items []any, op string, initial any) (any, error) {
	switch op {
	case "sum":
		acc, _ := ToFloat(initial)
		for _, item := range items {
			f, ok := ToFloat(item)
			if !ok {
				return nil, fmt.Errorf("reduce sum: element %v is not numeric", item)
			}
			acc += f
		}
		return acc, nil
	case "concat":
		var sb strings.Builder
		if initial != nil {
			sb.WriteString(Stringify(initial))
		}
		for _, item := range items {
			sb.WriteString(Stringify(item))
		}
		return sb.String(), nil
	case "merge":
		acc := make(map[string]any)
		if init, ok := initial.(map[string]any); ok {
			for k, v := range init {
				acc[k] = v
			}
		}
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("reduce merge: element %v is not an object", item)
			}
			for k, v := range m {
				acc[k] = v
			}
		}
		return acc, nil
	default:
		return nil, fmt.Errorf("unknown reduce operation %q", op)
	}
}

func applyFormat(src any, t Transformation, ctx map[string]any) (any, error) {
	switch t.Format {
	case "string":
		return Stringify(src), nil
	case "number":
		f, ok := ToFloat(src)
		if !ok {
			return nil, fmt.Errorf("format number: cannot convert %v", src)
		}
		return f, nil
	case "boolean":
		switch v := src.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("format boolean: cannot convert %q", v)
			}
			return b, nil
		default:
			if f, ok := ToFloat(src); ok {
				return f != 0, nil
			}
			return nil, fmt.Errorf("format boolean: cannot convert %v", src)
		}
	case "date":
		return formatDate(src)
	case "json":
		s, ok := src.(string)
		if !ok {
			return nil, fmt.Errorf("format json: source is not a string")
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("format json: %w", err)
		}
		return v, nil
	case "template":
		return Interpolate(t.Template, ctx), nil
	default:
		return nil, fmt.Errorf("unknown format %q", t.Format)
	}
}

// formatDate normalizes a timestamp-like value to an RFC 3339 string.
// Numbers are treated as Unix milliseconds.
func formatDate(src any) (any, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("format date: %w", err)
		}
		return ts.UTC().Format(time.RFC3339), nil
	default:
		if f, ok := ToFloat(src); ok {
			return time.UnixMilli(int64(f)).UTC().Format(time.RFC3339), nil
		}
		return nil, fmt.Errorf("format date: cannot convert %v", src)
	}
}

// ApplyOutputMapping copies values from a task result into the shared
// data context: for each (target, source) pair the source path is
// resolved against the result and written at target. Sources that do
// not resolve are skipped. This is the only path by which task output
// re-enters the context.
func ApplyOutputMapping(mapping map[string]string, result any, ctx map[string]any) {
	if len(mapping) == 0 {
		return
	}
	root, ok := result.(map[string]any)
	if !ok {
		// Scalar results are addressable as "result".
		root = map[string]any{"result": result}
	}
	for target, source := range mapping {
		v := Lookup(root, strings.TrimPrefix(source, RefPrefix))
		if IsUndefined(v) {
			continue
		}
		SetPath(ctx, target, api.CloneValue(v))
	}
}
