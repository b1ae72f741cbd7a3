package jsonlogic

import (
	"math"
	"sync"

	"github.com/diegoholiveira/jsonlogic/v3"
)

var registerOnce sync.Once

// registerOperators adds the money helpers rule authors use on top of the
// standard operators. jsonlogic keeps operators in a package-level table.
func registerOperators() {
	registerOnce.Do(func() {
		jsonlogic.AddOperator("round", func(values, _ any) any {
			args := asArgs(values)
			if len(args) == 0 {
				return 0.0
			}
			precision := 0.0
			if len(args) > 1 {
				precision = toFloat64(args[1])
			}
			return Round(args[0], precision)
		})
		jsonlogic.AddOperator("sum", func(values, _ any) any {
			args := asArgs(values)
			if len(args) == 1 {
				if nested, ok := args[0].([]any); ok {
					args = nested
				}
			}
			return Sum(args...)
		})
	})
}

func Sum(args ...any) float64 {
	s := 0.0
	for _, a := range args {
		s += toFloat64(a)
	}
	return s
}

func Round(value any, precision any) float64 {
	p := int(toFloat64(precision))
	f := math.Pow(10, float64(p))
	return math.Round(toFloat64(value)*f) / f
}

func asArgs(values any) []any {
	if list, ok := values.([]any); ok {
		return list
	}
	return []any{values}
}

// truthy follows JsonLogic: false, null, 0, "" and empty arrays are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return true
	default:
		return toFloat64(val) != 0
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}
