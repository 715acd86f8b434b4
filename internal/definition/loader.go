package definition

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/mattn/go-zglob"

	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/internal/merge"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// definitionGlob matches definition files under a configured root.
const definitionGlob = "toolset.*.json"

//go:embed definitions/toolset.*.json
var builtinFS embed.FS

// LoadAll loads every definition from the given roots, appends the built-in
// definitions for names not already present, resolves inheritance and
// applies conditions once with a bare resolver. Malformed files are logged
// and skipped; the returned error aggregates root-level I/O failures only.
func LoadAll(l log.Logger, opts *options.Options, roots []string) ([]*Definition, error) {
	var (
		out     []*Definition
		byName  = map[string]*Definition{}
		loadErr error
	)

	add := func(def *Definition) {
		name := def.Name()
		if name == "" {
			l.Warnf("Skipping definition with no name: %s", def.Path)
			return
		}

		if _, dup := byName[name]; dup {
			return
		}

		byName[name] = def
		out = append(out, def)
	}

	for _, root := range roots {
		matches, err := zglob.Glob(filepath.Join(root, definitionGlob))
		if err != nil {
			// A configured root that does not exist yet is not an error.
			if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
				continue
			}

			loadErr = errors.Append(loadErr, errors.WithStackTrace(err))

			continue
		}

		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				l.Warnf("Cannot read definition %s: %v", match, err)
				continue
			}

			def, err := Parse(match, data)
			if err != nil {
				l.Warnf("Cannot parse definition %s: %v", match, err)
				continue
			}

			add(def)
		}
	}

	for _, def := range loadBuiltins(l) {
		add(def)
	}

	resolveInherits(l, out, byName)

	// Conditions run once per definition, with no compiler bound yet.
	for _, def := range out {
		def.ApplyConditions(NewResolver(def, "", opts))
	}

	return out, loadErr
}

func loadBuiltins(l log.Logger) []*Definition {
	entries, err := builtinFS.ReadDir("definitions")
	if err != nil {
		return nil
	}

	var out []*Definition

	for _, entry := range entries {
		data, err := builtinFS.ReadFile("definitions/" + entry.Name())
		if err != nil {
			continue
		}

		def, err := Parse("", data)
		if err != nil {
			l.Warnf("Cannot parse built-in definition %s: %v", entry.Name(), err)
			continue
		}

		out = append(out, def)
	}

	return out
}

// resolveInherits flattens the inherits chains: for each definition, the
// bases are deep-merged in order into a fresh document and the child is
// merged last, so child values win on conflicts.
func resolveInherits(l log.Logger, defs []*Definition, byName map[string]*Definition) {
	resolved := map[string]*maps.Ordered{}

	var resolve func(def *Definition, stack map[string]bool) *maps.Ordered

	resolve = func(def *Definition, stack map[string]bool) *maps.Ordered {
		name := def.Name()

		if flat, done := resolved[name]; done {
			return flat
		}

		bases := def.Inherits()
		if len(bases) == 0 {
			resolved[name] = def.root
			return def.root
		}

		if stack[name] {
			l.Warnf("Definition %q has a circular inherits chain", name)
			resolved[name] = def.root

			return def.root
		}

		stack[name] = true
		defer delete(stack, name)

		flat := maps.New()

		for _, baseName := range bases {
			base, found := byName[baseName]
			if !found {
				l.Warnf("Definition %q inherits unknown definition %q", name, baseName)
				continue
			}

			merge.Merge(flat, maps.CloneMap(resolve(base, stack)))
		}

		merge.Merge(flat, def.root)
		flat.Delete("inherits")

		def.root = flat
		resolved[name] = flat

		return flat
	}

	for _, def := range defs {
		resolve(def, map[string]bool{})
	}
}
