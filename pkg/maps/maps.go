// Package maps provides helpers for the order-preserving document trees that
// toolset definitions and intellisense configurations are built from.
//
// A tree is made of *Ordered nodes (JSON objects, key order preserved),
// []any nodes (JSON arrays) and scalar leaves (string, float64, bool, nil).
package maps

import (
	"encoding/json"

	"github.com/tidwall/jsonc"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Ordered is a JSON object whose key order survives decode/encode.
type Ordered = orderedmap.OrderedMap[string, any]

func New() *Ordered {
	return orderedmap.New[string, any]()
}

// ParseJSONC decodes a JSON-with-comments document into an ordered tree.
func ParseJSONC(data []byte) (*Ordered, error) {
	m := New()
	if err := json.Unmarshal(jsonc.ToJSON(data), m); err != nil {
		return nil, err
	}

	return m, nil
}

// Keys returns the keys of m in insertion order.
func Keys(m *Ordered) []string {
	if m == nil {
		return nil
	}

	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	return keys
}

// Clone deep-copies a tree. Scalars are shared (they are immutable), maps and
// slices are copied recursively.
func Clone(value any) any {
	switch v := value.(type) {
	case *Ordered:
		if v == nil {
			return (*Ordered)(nil)
		}

		out := New()
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Clone(pair.Value))
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}

		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)

		return out
	default:
		return value
	}
}

// CloneMap deep-copies an ordered map, tolerating nil.
func CloneMap(m *Ordered) *Ordered {
	if m == nil {
		return New()
	}

	return Clone(m).(*Ordered)
}

// ToPlain converts a tree into ordinary map[string]any/[]any values, for
// consumers that cannot digest ordered maps (expression environments,
// mapstructure projection). Key order is lost.
func ToPlain(value any) any {
	switch v := value.(type) {
	case *Ordered:
		if v == nil {
			return map[string]any(nil)
		}

		out := make(map[string]any, v.Len())
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToPlain(pair.Value)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = ToPlain(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ToPlain(item)
		}

		return out
	default:
		return value
	}
}

// Get looks up a dotted path ("include.paths") in a tree.
func Get(m *Ordered, path ...string) (any, bool) {
	if m == nil || len(path) == 0 {
		return nil, false
	}

	value, found := m.Get(path[0])
	if !found {
		return nil, false
	}

	if len(path) == 1 {
		return value, true
	}

	child, ok := value.(*Ordered)
	if !ok {
		return nil, false
	}

	return Get(child, path[1:]...)
}

// GetString returns the string at a dotted path, or "".
func GetString(m *Ordered, path ...string) string {
	value, found := Get(m, path...)
	if !found {
		return ""
	}

	s, _ := value.(string)

	return s
}

// GetMap returns the child object at key, or nil.
func GetMap(m *Ordered, key string) *Ordered {
	value, found := Get(m, key)
	if !found {
		return nil
	}

	child, _ := value.(*Ordered)

	return child
}

// EnsureMap returns the child object at key, creating it when absent or when
// the existing value is not an object.
func EnsureMap(m *Ordered, key string) *Ordered {
	if child, ok := m.Get(key); ok {
		if existing, ok := child.(*Ordered); ok {
			return existing
		}
	}

	child := New()
	m.Set(key, child)

	return child
}

// StringList coerces a scalar or list tree value into a string slice.
// Non-string list elements are skipped.
func StringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Equal reports deep equality of two tree values, treating ordered maps with
// the same pairs in the same order as equal.
func Equal(a, b any) bool {
	am, aok := a.(*Ordered)
	bm, bok := b.(*Ordered)

	if aok || bok {
		if !aok || !bok || am.Len() != bm.Len() {
			return false
		}

		bp := bm.Oldest()
		for ap := am.Oldest(); ap != nil; ap = ap.Next() {
			if ap.Key != bp.Key || !Equal(ap.Value, bp.Value) {
				return false
			}

			bp = bp.Next()
		}

		return true
	}

	as, aok := a.([]any)
	bs, bok := b.([]any)

	if aok || bok {
		if !aok || !bok || len(as) != len(bs) {
			return false
		}

		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}

		return true
	}

	return a == b
}
