// Package render expands ${prefix:expression} tokens in strings and document
// trees, and evaluates the small boolean expressions used by definitions.
package render

import (
	"regexp"
	"strings"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// maxPasses bounds the fixed-point iteration for nested templates.
const maxPasses = 10

// tokenPattern matches an innermost template token: one that contains no
// nested ${...}.
var tokenPattern = regexp.MustCompile(`\$\{([^${}]*)\}`)

// Render expands every template token in s using the given resolver. Tokens
// the resolver declines stay in place. Innermost tokens are expanded first
// and the string is re-scanned until it settles or the pass limit is hit.
func Render(s string, resolver Resolver) string {
	if resolver == nil || !strings.Contains(s, "${") {
		return s
	}

	for range maxPasses {
		progressed := false

		out := tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
			inner := token[2 : len(token)-1]

			prefix, expression := "", inner
			if before, after, found := strings.Cut(inner, ":"); found {
				prefix, expression = before, after
			}

			value, ok := resolver.Resolve(prefix, expression)
			if !ok {
				return token
			}

			progressed = true

			return Stringify(value)
		})

		if !progressed || !strings.Contains(out, "${") {
			return out
		}

		s = out
	}

	return s
}

// RenderList renders a string into a list: resolved list values stay lists,
// everything else renders to a single-element list. Used where a token may
// expand to several values (search locations, include paths).
func RenderList(s string, resolver Resolver) []string {
	// A lone token resolving to a list is the common multi-value case.
	if m := tokenPattern.FindStringSubmatch(s); m != nil && m[0] == s && resolver != nil {
		prefix, expression := "", m[1]
		if before, after, found := strings.Cut(m[1], ":"); found {
			prefix, expression = before, after
		}

		if value, ok := resolver.Resolve(prefix, expression); ok {
			if list := maps.StringList(value); list != nil {
				out := make([]string, 0, len(list))
				for _, item := range list {
					out = append(out, Render(item, resolver))
				}

				return out
			}
		}
	}

	return []string{Render(s, resolver)}
}

// Recursive renders every string leaf of a document tree, resolving
// empty-prefix tokens against data first and the resolver second. The
// structure is preserved; a new tree is returned.
func Recursive(value any, data *maps.Ordered, resolver Resolver) any {
	layered := Layered(DataResolver(data), resolver)

	return renderTree(value, layered)
}

func renderTree(value any, resolver Resolver) any {
	switch v := value.(type) {
	case string:
		return Render(v, resolver)
	case *maps.Ordered:
		out := maps.New()
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			// Keys render too: fragments use "${key}" to build macro maps
			// out of captures.
			out.Set(Render(pair.Key, resolver), renderTree(pair.Value, resolver))
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = renderTree(item, resolver)
		}

		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Render(item, resolver)
		}

		return out
	default:
		return value
	}
}
