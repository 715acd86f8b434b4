package render

import (
	"strings"

	"github.com/expr-lang/expr"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// Evaluate renders the expression and interprets the result as a boolean
// expression over the keys of data. Evaluation is sandboxed: only literals,
// identifiers, comparisons and logical operators are meaningful, and any
// parse or evaluation error yields false.
func Evaluate(expression string, data *maps.Ordered, resolver Resolver) bool {
	rendered := Render(expression, Layered(DataResolver(data), resolver))

	// Definitions are written in JavaScript syntax; fold the strict
	// operators into their plain forms.
	rendered = strings.ReplaceAll(rendered, "===", "==")
	rendered = strings.ReplaceAll(rendered, "!==", "!=")

	env, _ := maps.ToPlain(data).(map[string]any)
	if env == nil {
		env = map[string]any{}
	}

	program, err := expr.Compile(rendered, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return false
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false
	}

	return Truthy(result)
}

// Truthy reports whether a value counts as true: non-empty strings, non-zero
// numbers, true booleans, non-empty collections.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case *maps.Ordered:
		return v != nil && v.Len() > 0
	default:
		return true
	}
}
