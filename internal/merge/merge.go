// Package merge implements the fragment merge used to fold definition
// fragments into a working intellisense configuration.
//
// Source keys may carry directives: "remove:K" strips values from target key
// K, "prepend:K" merges into K but puts list values in front. A nil source
// value deletes the target key. Lists accumulate without duplicating values
// already present, so merging the same fragment twice is a no-op.
package merge

import (
	"strings"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// listSeparator is the BEL sentinel; a string containing it is pre-split
// into a list before merging.
const listSeparator = "\x07"

const (
	removePrefix  = "remove:"
	prependPrefix = "prepend:"
)

// Merge folds source into target, mutating and returning target.
func Merge(target, source *maps.Ordered) *maps.Ordered {
	if target == nil {
		target = maps.New()
	}

	if source == nil {
		return target
	}

	for pair := source.Oldest(); pair != nil; pair = pair.Next() {
		key, value := pair.Key, pair.Value

		switch {
		case strings.HasPrefix(key, removePrefix):
			removeKey(target, strings.TrimPrefix(key, removePrefix), value)
		case strings.HasPrefix(key, prependPrefix):
			mergeKey(target, strings.TrimPrefix(key, prependPrefix), value, true)
		default:
			mergeKey(target, key, value, false)
		}
	}

	return target
}

func removeKey(target *maps.Ordered, key string, value any) {
	existing, found := target.Get(key)
	if !found {
		return
	}

	victims := asList(value)

	existingList, isList := existing.([]any)
	if !isList || len(victims) == 0 {
		target.Delete(key)
		return
	}

	kept := make([]any, 0, len(existingList))

	for _, item := range existingList {
		removed := false

		for _, victim := range victims {
			if maps.Equal(item, victim) {
				removed = true
				break
			}
		}

		if !removed {
			kept = append(kept, item)
		}
	}

	target.Set(key, kept)
}

func mergeKey(target *maps.Ordered, key string, value any, prepend bool) {
	value = normalize(value)

	switch v := value.(type) {
	case nil:
		target.Delete(key)
	case []any:
		mergeList(target, key, v, prepend)
	case *maps.Ordered:
		existing, _ := target.Get(key)
		if child, ok := existing.(*maps.Ordered); ok {
			Merge(child, v)
			return
		}

		target.Set(key, Merge(maps.New(), v))
	default:
		target.Set(key, value)
	}
}

func mergeList(target *maps.Ordered, key string, values []any, prepend bool) {
	existing, found := target.Get(key)

	var current []any

	if found {
		switch e := existing.(type) {
		case []any:
			current = e
		default:
			// A scalar promotes to a single-element list.
			current = []any{e}
		}
	}

	fresh := make([]any, 0, len(values))

	for _, value := range values {
		present := false

		for _, item := range current {
			if maps.Equal(item, value) {
				present = true
				break
			}
		}

		if !present {
			fresh = append(fresh, maps.Clone(value))
		}
	}

	if prepend {
		target.Set(key, append(fresh, current...))
		return
	}

	target.Set(key, append(current, fresh...))
}

// normalize pre-splits BEL-joined strings into lists and converts stray
// unordered maps into ordered ones.
func normalize(value any) any {
	switch v := value.(type) {
	case string:
		if strings.Contains(v, listSeparator) {
			parts := strings.Split(v, listSeparator)
			out := make([]any, 0, len(parts))

			for _, part := range parts {
				if part != "" {
					out = append(out, part)
				}
			}

			return out
		}

		return v
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}

		return out
	case map[string]any:
		out := maps.New()
		for key, item := range v {
			out.Set(key, item)
		}

		return out
	default:
		return value
	}
}

func asList(value any) []any {
	switch v := normalize(value).(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}
