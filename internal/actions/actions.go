// Package actions decodes the ordered, flagged keys of a definition section
// ("discover", "analysis") into a priority-sorted action stream.
//
// A key has the grammar <word>[:<flag>[,<flag>]*][#<comment>]. The first
// four letters of the word (case-insensitive) pick the action; unknown
// actions are dropped. Flags not declared for the action are dropped too.
package actions

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fearthecowboy/toolscout/pkg/maps"
	"github.com/fearthecowboy/toolscout/util"
)

// selectorLen is how much of the action word participates in matching.
const selectorLen = 4

// Spec declares one legal action and the flags it accepts.
type Spec struct {
	Name  string
	Flags []string
}

// Action is one decoded entry of a definition section.
type Action struct {
	// Name is the canonical action name from the matching Spec.
	Name string

	// Key is the map key the action was decoded from, with any trailing
	// #comment removed.
	Key string

	// Flags holds the retained flags; bare flags map to "".
	Flags map[string]string

	// Priority orders execution; lower runs first.
	Priority int

	// Block is the value stored under the key.
	Block any
}

// HasFlag reports whether the flag was present on the key.
func (a *Action) HasFlag(name string) bool {
	_, found := a.Flags[name]
	return found
}

// AppliesToLanguage applies the c/cpp/c++ filter flags: an action flagged for
// one language is skipped for the other. An action with no language flag
// applies to both.
func (a *Action) AppliesToLanguage(language string) bool {
	hasC := a.HasFlag("c")
	hasCpp := a.HasFlag("cpp") || a.HasFlag("c++")

	if !hasC && !hasCpp {
		return true
	}

	if language == "c" {
		return hasC
	}

	if language == "cpp" || language == "c++" {
		return hasCpp
	}

	return false
}

// Parse decodes a section into its action stream, sorted ascending by
// priority. Positional order breaks ties and supplies the default priority.
func Parse(section *maps.Ordered, specs []Spec) []Action {
	if section == nil {
		return nil
	}

	out := make([]Action, 0, section.Len())
	index := 0

	for pair := section.Oldest(); pair != nil; pair = pair.Next() {
		key := pair.Key

		// Strip the trailing comment.
		if hash := strings.Index(key, "#"); hash >= 0 {
			key = key[:hash]
		}

		word, flagList, _ := strings.Cut(key, ":")
		word = strings.TrimSpace(word)

		spec, found := matchSpec(word, specs)
		if !found {
			continue
		}

		action := Action{
			Name:     spec.Name,
			Key:      key,
			Flags:    map[string]string{},
			Priority: index,
			Block:    pair.Value,
		}

		if flagList != "" {
			for _, flag := range strings.Split(flagList, ",") {
				name, value, _ := strings.Cut(strings.TrimSpace(flag), "=")
				if !util.ListContainsElement(spec.Flags, name) {
					continue
				}

				action.Flags[name] = value
			}
		}

		if override, found := action.Flags["priority"]; found {
			if parsed, err := strconv.Atoi(override); err == nil {
				action.Priority = parsed
			}
		}

		out = append(out, action)
		index++
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})

	return out
}

func matchSpec(word string, specs []Spec) (Spec, bool) {
	selector := strings.ToLower(word)
	if len(selector) > selectorLen {
		selector = selector[:selectorLen]
	}

	if selector == "" {
		return Spec{}, false
	}

	for _, spec := range specs {
		if strings.HasPrefix(strings.ToLower(spec.Name), selector) {
			return spec, true
		}
	}

	return Spec{}, false
}
