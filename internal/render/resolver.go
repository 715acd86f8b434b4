package render

import (
	"os"
	"strconv"
	"strings"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// Resolver supplies values for ${prefix:expression} tokens. A resolver
// returns (value, true) when it handled the token — the value may be a
// string, a string list, or nil for "resolved to nothing" — and false to let
// the token pass through untouched.
type Resolver interface {
	Resolve(prefix, expression string) (any, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(prefix, expression string) (any, bool)

func (f ResolverFunc) Resolve(prefix, expression string) (any, bool) {
	return f(prefix, expression)
}

// Layered returns a resolver that asks each resolver in turn and returns the
// first hit. Nil entries are skipped.
func Layered(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(prefix, expression string) (any, bool) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}

			if value, ok := r.Resolve(prefix, expression); ok {
				return value, true
			}
		}

		return nil, false
	})
}

// DataResolver resolves empty-prefix tokens against the top-level keys of a
// document, typically the named captures of a match or the working
// configuration.
func DataResolver(data *maps.Ordered) Resolver {
	return ResolverFunc(func(prefix, expression string) (any, bool) {
		if prefix != "" || data == nil {
			return nil, false
		}

		value, found := data.Get(expression)
		if !found {
			return nil, false
		}

		switch value.(type) {
		case *maps.Ordered:
			// Objects have no string rendering.
			return nil, false
		default:
			return value, true
		}
	})
}

// Stringify renders a resolved value into its string form. Lists join on the
// platform path list separator so PATH-style values round-trip.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, string(os.PathListSeparator))
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}

		return strings.Join(parts, string(os.PathListSeparator))
	default:
		return ""
	}
}
