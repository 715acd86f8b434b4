// Package discovery applies a definition's discover block to candidate
// binaries, producing identified toolsets.
package discovery

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/fearthecowboy/toolscout/internal/actions"
	"github.com/fearthecowboy/toolscout/internal/binscan"
	"github.com/fearthecowboy/toolscout/internal/definition"
	"github.com/fearthecowboy/toolscout/internal/finder"
	"github.com/fearthecowboy/toolscout/internal/merge"
	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/pkg/maps"
	"github.com/fearthecowboy/toolscout/util"
)

// executableExtensions is what counts as runnable on Windows.
var executableExtensions = []string{".exe", ".cmd", ".bat"}

// discoverSpecs is the legal action set of a discover block.
var discoverSpecs = []actions.Spec{
	{Name: "match", Flags: []string{"optional", "priority", "oneof"}},
	{Name: "expression", Flags: []string{"oneof", "optional", "priority", "folder", "file"}},
}

// Result is an identified compiler: its canonical path and a conditioned
// definition clone whose intellisense defaults carry the matched fragments.
type Result struct {
	CompilerPath string
	Definition   *definition.Definition
}

// Engine drives candidate search and per-candidate verification.
type Engine struct {
	opts *options.Options
}

func NewEngine(opts *options.Options) *Engine {
	return &Engine{opts: opts}
}

// Search runs discovery for every definition concurrently, calling emit for
// each identified toolset. emit must be safe for concurrent use. Failures of
// individual candidates are silent.
func (e *Engine) Search(ctx context.Context, l log.Logger, defs []*definition.Definition, emit func(*Result)) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, def := range defs {
		group.Go(func() error {
			e.searchDefinition(groupCtx, l, def, emit)
			return nil
		})
	}

	return group.Wait()
}

func (e *Engine) searchDefinition(ctx context.Context, l log.Logger, def *definition.Definition, emit func(*Result)) {
	binaries := def.Binaries()
	if len(binaries) == 0 {
		return
	}

	seek := finder.New(binaries, finder.Options{
		Executable:           true,
		ExecutableExtensions: executableExtensions,
		Concurrency:          e.opts.WalkerConcurrency,
	})

	seek.Scan(ctx, 0, util.SplitEnvPath(e.opts.Getenv("PATH"))...)

	resolver := definition.NewResolver(def, "", e.opts)
	for _, location := range def.Locations() {
		seek.Scan(ctx, e.opts.SearchDepth, render.RenderList(location, resolver)...)
	}

	seek.Scan(ctx, e.opts.SearchDepth, e.platformRoots()...)
	seek.Done()

	for candidate := range seek.Results() {
		if ctx.Err() != nil {
			return
		}

		if result, ok := e.Verify(ctx, l, def, candidate); ok {
			emit(result)
		}
	}
}

// platformRoots returns the extra OS-specific search roots.
func (e *Engine) platformRoots() []string {
	if e.opts.PlatformRoots != nil {
		return e.opts.PlatformRoots
	}

	switch runtime.GOOS {
	case "windows":
		var roots []string

		for _, name := range []string{"ProgramFiles", "ProgramW6432", "ProgramFiles(x86)", "ProgramFiles(Arm)"} {
			if value := e.opts.Getenv(name); value != "" {
				roots = append(roots, value)
			}
		}

		return roots
	case "linux":
		return []string{"/usr/lib/"}
	default:
		return nil
	}
}

// Identify runs discovery for a single candidate path against every
// definition whose discover.binary includes the candidate's stem. The first
// success wins.
func (e *Engine) Identify(ctx context.Context, l log.Logger, defs []*definition.Definition, candidate string) (*Result, bool) {
	stem := util.FileStem(candidate, executableExtensions)

	for _, def := range defs {
		if !binaryNameMatches(def.Binaries(), stem) {
			continue
		}

		if result, ok := e.Verify(ctx, l, def, candidate); ok {
			return result, true
		}
	}

	return nil, false
}

// Verify executes the discover action stream against one candidate binary.
// A candidate that completes every block becomes a Result; any failure
// yields (nil, false) without an error.
func (e *Engine) Verify(ctx context.Context, l log.Logger, def *definition.Definition, candidate string) (*Result, bool) {
	candidate, err := util.CanonicalPath(candidate, e.opts.WorkingDir)
	if err != nil || !util.IsFile(candidate) {
		return nil, false
	}

	def = def.Clone()
	resolver := definition.NewResolver(def, candidate, e.opts)
	def.ApplyConditions(resolver)

	working := maps.CloneMap(def.Intellisense())

	for _, action := range actions.Parse(def.Discover(), discoverSpecs) {
		block, ok := action.Block.(*maps.Ordered)
		if !ok {
			continue
		}

		passed := false

		switch action.Name {
		case "match":
			passed = e.runMatch(&action, block, candidate, working, resolver)
		case "expression":
			passed = e.runExpression(&action, block, working, resolver)
		}

		if !passed && !action.HasFlag("optional") {
			l.Debugf("Candidate %s failed %s block of %s", candidate, action.Name, def.Name())
			return nil, false
		}

		if ctx.Err() != nil {
			return nil, false
		}
	}

	// Settle self-referential tokens (${host.arch} and friends) now, so the
	// toolset identity derived from these fields is stable.
	if rendered, ok := render.Recursive(working, working, resolver).(*maps.Ordered); ok {
		working = rendered
	}

	def.SetIntellisense(working)

	return &Result{CompilerPath: candidate, Definition: def}, true
}

// runMatch greps the candidate binary with each entry's rendered regex and
// merges the fragment of every hit, using the named captures as data.
func (e *Engine) runMatch(action *actions.Action, block *maps.Ordered, candidate string, working *maps.Ordered, resolver render.Resolver) bool {
	oneof := action.HasFlag("oneof")
	matchedAll := true

	for pair := block.Oldest(); pair != nil; pair = pair.Next() {
		pattern := render.Render(pair.Key, resolver)

		found, err := binscan.Find(candidate, pattern)
		if err != nil || found == nil {
			if oneof {
				continue
			}

			matchedAll = false

			continue
		}

		mergeFragment(working, pair.Value, capturesToTree(found.Groups), resolver)

		if oneof {
			return true
		}
	}

	if oneof {
		return false
	}

	return matchedAll
}

// runExpression renders each entry's expression; a non-empty result is a
// success, further constrained to an existing directory or file under the
// folder/file flags.
func (e *Engine) runExpression(action *actions.Action, block *maps.Ordered, working *maps.Ordered, resolver render.Resolver) bool {
	oneof := action.HasFlag("oneof")
	passedAll := true

	for pair := block.Oldest(); pair != nil; pair = pair.Next() {
		rendered := render.Render(pair.Key, render.Layered(render.DataResolver(working), resolver))

		passed := rendered != ""

		if passed && action.HasFlag("folder") {
			passed = util.IsDir(rendered)
		}

		if passed && action.HasFlag("file") {
			passed = util.IsFile(rendered)
		}

		if !passed {
			if !oneof {
				passedAll = false
			}

			continue
		}

		mergeFragment(working, pair.Value, nil, resolver)

		if oneof {
			return true
		}
	}

	if oneof {
		return false
	}

	return passedAll
}

// mergeFragment renders a fragment with the given captures as data context
// and merges it into the working configuration.
func mergeFragment(working *maps.Ordered, fragment any, captures *maps.Ordered, resolver render.Resolver) {
	tree, ok := fragment.(*maps.Ordered)
	if !ok || tree.Len() == 0 {
		return
	}

	rendered, ok := render.Recursive(tree, captures, resolver).(*maps.Ordered)
	if !ok {
		return
	}

	merge.Merge(working, rendered)
}

func capturesToTree(groups map[string]string) *maps.Ordered {
	out := maps.New()
	for key, value := range groups {
		out.Set(key, value)
	}

	return out
}

func binaryNameMatches(binaries []string, stem string) bool {
	if runtime.GOOS == "windows" {
		return util.ListContainsElementFold(binaries, stem)
	}

	return util.ListContainsElement(binaries, stem)
}
