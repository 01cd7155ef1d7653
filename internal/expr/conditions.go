package expr

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/avelin/dagflow/pkg/api"
)

// EvaluateAll evaluates a conjunction of conditions against ctx.
// An empty (or nil) list is true.
func EvaluateAll(conds []api.Condition, ctx map[string]any) bool {
	for _, c := range conds {
		if !Evaluate(c, ctx) {
			return false
		}
	}
	return true
}

// Evaluate resolves both operands through Resolve and applies the named
// comparison. Unknown operators evaluate to false rather than raising.
func Evaluate(c api.Condition, ctx map[string]any) bool {
	left := Resolve(c.Left, ctx)
	if c.Operator == api.OpExists {
		return !IsUndefined(left)
	}
	right := Resolve(c.Right, ctx)

	switch c.Operator {
	case api.OpEq:
		return looseEqual(left, right)
	case api.OpNeq:
		return !looseEqual(left, right)
	case api.OpGt, api.OpGte, api.OpLt, api.OpLte:
		lf, lok := ToFloat(left)
		rf, rok := ToFloat(right)
		if !lok || !rok {
			return false
		}
		switch c.Operator {
		case api.OpGt:
			return lf > rf
		case api.OpGte:
			return lf >= rf
		case api.OpLt:
			return lf < rf
		default:
			return lf <= rf
		}
	case api.OpContains, api.OpStartsWith, api.OpEndsWith:
		if IsUndefined(left) || IsUndefined(right) {
			return false
		}
		ls, rs := Stringify(left), Stringify(right)
		switch c.Operator {
		case api.OpContains:
			return strings.Contains(ls, rs)
		case api.OpStartsWith:
			return strings.HasPrefix(ls, rs)
		default:
			return strings.HasSuffix(ls, rs)
		}
	default:
		return false
	}
}

// looseEqual compares numerically when both operands are number-like,
// otherwise by deep equality. This keeps 3 == 3.0 true regardless of
// how the context was decoded.
func looseEqual(a, b any) bool {
	if af, ok := ToFloat(a); ok {
		if bf, ok := ToFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// ToFloat coerces number-like values (including numeric strings) to
// float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
