package analysis

import (
	"regexp"

	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// commandRule is one compiled regexChain → fragment entry.
type commandRule struct {
	chain    []*regexp.Regexp
	fragment any
}

// runCommands rewrites the argv through the block's regex chains. Each chain
// must match consecutive arguments starting at the current head; a match
// merges its fragment (data context = union of named captures) and consumes
// the matched prefix, unless noConsume also copies it to the kept list.
// Unmatched heads are kept. The returned argv is the kept list.
func (a *Analyzer) runCommands(block *maps.Ordered, args []string, noConsume bool, config *maps.Ordered, resolver render.Resolver) []string {
	rules := compileRules(block, resolver)

	kept := make([]string, 0, len(args))

	for len(args) > 0 {
		rule, captures := matchHead(rules, args)
		if rule == nil {
			kept = append(kept, args[0])
			args = args[1:]

			continue
		}

		mergeFragment(config, rule.fragment, captures, resolver)

		if noConsume {
			kept = append(kept, args[:len(rule.chain)]...)
		}

		args = args[len(rule.chain):]
	}

	return kept
}

func compileRules(block *maps.Ordered, resolver render.Resolver) []commandRule {
	rx := RxResolver(resolver)

	var rules []commandRule

	for pair := block.Oldest(); pair != nil; pair = pair.Next() {
		var chain []*regexp.Regexp

		ok := true

		for _, part := range splitChain(pair.Key) {
			re, err := regexp.Compile("^(?:" + render.Render(part, rx) + ")$")
			if err != nil {
				ok = false
				break
			}

			chain = append(chain, re)
		}

		if ok && len(chain) > 0 {
			rules = append(rules, commandRule{chain: chain, fragment: pair.Value})
		}
	}

	return rules
}

// matchHead finds the first rule whose whole chain matches the front of the
// argv, returning it with the union of its named captures.
func matchHead(rules []commandRule, args []string) (*commandRule, *maps.Ordered) {
	for i := range rules {
		rule := &rules[i]
		if len(rule.chain) > len(args) {
			continue
		}

		captures := maps.New()
		matched := true

		for j, re := range rule.chain {
			m := re.FindStringSubmatch(args[j])
			if m == nil {
				matched = false
				break
			}

			for gi, name := range re.SubexpNames() {
				if name != "" && gi < len(m) {
					captures.Set(name, m[gi])
				}
			}
		}

		if matched {
			return rule, captures
		}
	}

	return nil, nil
}

// splitChain splits a regexChain key on its ';' separators, ignoring ones
// escaped as '\;'.
func splitChain(key string) []string {
	var (
		parts   []string
		current []byte
	)

	for i := 0; i < len(key); i++ {
		c := key[i]

		if c == '\\' && i+1 < len(key) && key[i+1] == ';' {
			current = append(current, ';')
			i++

			continue
		}

		if c == ';' {
			parts = append(parts, string(current))
			current = current[:0]

			continue
		}

		current = append(current, c)
	}

	return append(parts, string(current))
}
