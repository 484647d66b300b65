package record

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Diff compares a candidate patch against the current snapshot and returns
// the names of attributes whose value actually changes plus the merged next
// snapshot. Patch fields equal to the stored value are excluded: re-affirming
// a field with its current value is a true no-op and neither requires a
// justification nor creates a version.
func Diff(current, patch map[string]any) (changedFields []string, next map[string]any) {
	next = CloneAttributes(current)

	for name, value := range patch {
		existing, present := current[name]
		if present && valuesEqual(existing, value) {
			continue
		}
		changedFields = append(changedFields, name)
		next[name] = value
	}

	sort.Strings(changedFields)
	return changedFields, next
}

// CloneAttributes deep-copies an attribute map through JSON round-tripping so
// stored snapshots can never be mutated through aliased references. Attribute
// values are JSON-shaped by construction (they arrive from JSON patches and
// JSONB columns).
func CloneAttributes(attributes map[string]any) map[string]any {
	if len(attributes) == 0 {
		return map[string]any{}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		// Non-JSON-able values cannot have come through the wire; fall back
		// to a shallow copy rather than dropping data.
		out := make(map[string]any, len(attributes))
		for k, v := range attributes {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		out = make(map[string]any, len(attributes))
		for k, v := range attributes {
			out[k] = v
		}
	}
	return out
}

// valuesEqual performs deep equality with numeric normalization: 500000,
// 500000.0 and json.Number("500000") compare equal regardless of which
// decode path produced them.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, aok := toDecimal(a); aok {
		bn, bok := toDecimal(b)
		return bok && an.Equal(bn)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !valuesEqual(v, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		// Uncommon shapes (time.Time, decimal.Decimal, typed structs) are
		// compared through their canonical JSON form.
		aj, aerr := json.Marshal(a)
		bj, berr := json.Marshal(b)
		return aerr == nil && berr == nil && string(aj) == string(bj)
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Decimal{}, false
	}
}
