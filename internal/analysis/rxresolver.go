package analysis

import "github.com/fearthecowboy/toolscout/internal/render"

// RxResolver layers the reserved regex shorthand tokens over a base
// resolver. Definitions use them to keep argument-matching patterns short:
//
//	${-/}             matches a - or / switch character
//	${key}            names an up-to-'=' capture
//	${value}          names a rest-of-argument capture
//	${keyEqualsValue} the two combined around a literal '='
func RxResolver(base render.Resolver) render.Resolver {
	return render.ResolverFunc(func(prefix, expression string) (any, bool) {
		if prefix == "" {
			switch expression {
			case "-/", "/-":
				return `[-/]`, true
			case "key":
				return `(?<key>[^=]+)`, true
			case "value":
				return `(?<value>.+)`, true
			case "keyEqualsValue":
				return `(?<key>[^=]+)=(?<value>.+)`, true
			}
		}

		return base.Resolve(prefix, expression)
	})
}
