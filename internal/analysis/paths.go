package analysis

import (
	"fmt"
	"os"
	"strings"

	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/pkg/maps"
	"github.com/fearthecowboy/toolscout/util"
)

// pathKeySuffixes marks the keys holding filesystem paths.
var pathKeySuffixes = []string{"paths", "files", "path", "file"}

// validatePaths walks the configuration and, for every path-typed key,
// renders each entry, resolves it to an absolute path, drops entries that do
// not exist on disk and removes duplicates preserving first occurrence.
// Delimiter-joined strings are split into lists first.
func validatePaths(config *maps.Ordered, resolver render.Resolver, baseDirectory string) {
	walkPathKeys(config, render.Layered(render.DataResolver(config), resolver), baseDirectory)
}

func walkPathKeys(node *maps.Ordered, resolver render.Resolver, baseDirectory string) {
	for pair := node.Oldest(); pair != nil; pair = pair.Next() {
		if child, ok := pair.Value.(*maps.Ordered); ok {
			walkPathKeys(child, resolver, baseDirectory)
			continue
		}

		if !isPathKey(pair.Key) {
			continue
		}

		wasString := false

		var entries []string

		switch value := pair.Value.(type) {
		case string:
			wasString = true
			entries = strings.Split(value, string(os.PathListSeparator))
		case []any:
			entries = maps.StringList(value)
		case []string:
			entries = value
		default:
			continue
		}

		var validated []string

		for _, entry := range entries {
			rendered := render.Render(entry, resolver)
			if rendered == "" {
				continue
			}

			absPath, err := util.CanonicalPath(rendered, baseDirectory)
			if err != nil || !util.FileExists(absPath) {
				continue
			}

			validated = append(validated, absPath)
		}

		validated = util.RemoveDuplicatesFromList(validated)

		// A scalar that validated to a single entry stays a scalar, so
		// compilerPath keeps its shape.
		if wasString && len(validated) == 1 {
			node.Set(pair.Key, validated[0])
			continue
		}

		list := make([]any, len(validated))
		for i, entry := range validated {
			list[i] = entry
		}

		node.Set(pair.Key, list)
	}
}

func isPathKey(key string) bool {
	lower := strings.ToLower(key)

	for _, suffix := range pathKeySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}

// postProcess derives parserArguments from the finished configuration:
// macro definitions first, then the include path families with the switch
// each one takes. Appending happens only when parserArguments is already a
// list.
func postProcess(config *maps.Ordered) {
	value, found := config.Get("parserArguments")
	if !found {
		return
	}

	list, ok := value.([]any)
	if !ok {
		return
	}

	if macros := maps.GetMap(config, "macros"); macros != nil {
		for pair := macros.Oldest(); pair != nil; pair = pair.Next() {
			list = append(list, fmt.Sprintf("-D%s=%s", pair.Key, render.Stringify(pair.Value)))
		}
	}

	include := maps.GetMap(config, "include")

	for _, path := range includeList(include, "builtInPaths") {
		list = append(list, "-I"+path)
	}

	for _, family := range []string{"systemPaths", "externalPaths"} {
		for _, path := range includeList(include, family) {
			list = append(list, "--sys_include", path)
		}
	}

	for _, family := range []string{"paths", "environmentPaths"} {
		for _, path := range includeList(include, family) {
			list = append(list, "--include_directory", path)
		}
	}

	config.Set("parserArguments", list)
}

func includeList(include *maps.Ordered, key string) []string {
	if include == nil {
		return nil
	}

	value, _ := include.Get(key)

	return maps.StringList(value)
}
