// Package analysis transforms a compiler invocation into an intellisense
// configuration by executing a toolset's analysis action stream: argv
// rewriting, compiler queries, expression-gated fragments and structured
// merging with user overrides.
package analysis

import (
	"context"
	"strings"

	"github.com/huandu/go-clone"

	"github.com/fearthecowboy/toolscout/internal/actions"
	"github.com/fearthecowboy/toolscout/internal/cache"
	"github.com/fearthecowboy/toolscout/internal/definition"
	"github.com/fearthecowboy/toolscout/internal/merge"
	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/pkg/maps"
	"github.com/fearthecowboy/toolscout/util"
)

// cacheKeySeparator joins argv elements into a cache key. A unit separator
// keeps ["a b"] and ["a","b"] from colliding.
const cacheKeySeparator = "\x1f"

// analysisSpecs is the legal action set of an analysis block.
var analysisSpecs = []actions.Spec{
	{Name: "task", Flags: []string{"priority", "c", "cpp", "c++"}},
	{Name: "command", Flags: []string{"priority", "c", "cpp", "c++", "no_consume"}},
	{Name: "query", Flags: []string{"priority", "c", "cpp", "c++"}},
	{Name: "expression", Flags: []string{"priority", "c", "cpp", "c++"}},
}

// Options adjusts one analysis call.
type Options struct {
	// BaseDirectory resolves relative paths in the invocation.
	BaseDirectory string

	// SourceFile is the translation unit being analyzed, if known.
	SourceFile string

	// Language forces the effective language ("c" or "cpp").
	Language string

	// Standard forces the language standard.
	Standard string

	// UserConfiguration is merged over the analyzed result. It is applied
	// to a clone, never to the cached configuration.
	UserConfiguration *maps.Ordered
}

// Analyzer applies one toolset's analysis block to compiler invocations.
type Analyzer struct {
	opts         *options.Options
	def          *definition.Definition
	compilerPath string

	// QueryCache maps rendered query commands to their captured output.
	QueryCache *cache.Cache[string]

	// AnalysisCache maps canonicalized argv to finished configurations.
	AnalysisCache *cache.Cache[*maps.Ordered]

	onUpdate func()
}

// New creates an analyzer for the given definition and compiler.
func New(opts *options.Options, def *definition.Definition, compilerPath string) *Analyzer {
	return &Analyzer{
		opts:          opts,
		def:           def,
		compilerPath:  compilerPath,
		QueryCache:    cache.NewCache[string]("queries"),
		AnalysisCache: cache.NewCache[*maps.Ordered]("analysis"),
	}
}

// OnUpdate registers a callback fired whenever a cache gains an entry,
// used to schedule persistent snapshots.
func (a *Analyzer) OnUpdate(fn func()) {
	a.onUpdate = fn
}

func (a *Analyzer) update() {
	if a.onUpdate != nil {
		a.onUpdate()
	}
}

// CacheKey returns the analysis cache key for an invocation.
func CacheKey(compilerArgs []string) string {
	return strings.Join(compilerArgs, cacheKeySeparator)
}

// Analyze produces the intellisense configuration for one compiler
// invocation. Results are cached per argv; cached results are never mutated
// — user overrides apply to a deep clone.
func (a *Analyzer) Analyze(ctx context.Context, l log.Logger, compilerArgs []string, aopts *Options) (*maps.Ordered, error) {
	if aopts == nil {
		aopts = &Options{}
	}

	resolver := definition.NewResolver(a.def, a.compilerPath, a.opts)

	key := CacheKey(compilerArgs)
	if cached, found := a.AnalysisCache.Get(ctx, key); found {
		return a.finish(cached, aopts, resolver), nil
	}

	config := a.seed(aopts)
	args := clone.Clone(compilerArgs).([]string)

	for _, action := range actions.Parse(a.def.Analysis(), analysisSpecs) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !action.AppliesToLanguage(maps.GetString(config, "language")) {
			continue
		}

		switch action.Name {
		case "task":
			for _, name := range maps.StringList(action.Block) {
				a.runTask(l, name, &args, aopts)
			}
		case "command":
			if block, ok := action.Block.(*maps.Ordered); ok {
				args = a.runCommands(block, args, action.HasFlag("no_consume"), config, resolver)
			}
		case "query":
			if block, ok := action.Block.(*maps.Ordered); ok {
				a.runQueries(ctx, l, block, config, aopts, resolver)
			}
		case "expression":
			if block, ok := action.Block.(*maps.Ordered); ok {
				a.runExpressions(block, config, resolver)
			}
		}
	}

	validatePaths(config, resolver, aopts.BaseDirectory)

	if rendered, ok := render.Recursive(config, config, resolver).(*maps.Ordered); ok {
		config = rendered
	}

	a.AnalysisCache.Put(ctx, key, maps.CloneMap(config))
	a.update()

	return a.finish(config, aopts, resolver), nil
}

// seed builds the starting configuration from the definition defaults and
// the call options.
func (a *Analyzer) seed(aopts *Options) *maps.Ordered {
	config := maps.CloneMap(a.def.Intellisense())

	language := util.FirstNonEmpty(aopts.Language, maps.GetString(config, "language"), "cpp")
	config.Set("language", language)

	if aopts.Standard != "" {
		config.Set("standard", aopts.Standard)
	}

	if _, found := config.Get("standard"); !found {
		config.Set("standard", "")
	}

	config.Set("compilerPath", a.compilerPath)

	if aopts.SourceFile != "" {
		config.Set("sourceFile", aopts.SourceFile)
	}

	return config
}

// finish clones a finished configuration, applies the user override,
// re-validates paths and derives parser arguments.
func (a *Analyzer) finish(config *maps.Ordered, aopts *Options, resolver render.Resolver) *maps.Ordered {
	out := maps.CloneMap(config)

	if aopts.UserConfiguration != nil {
		merge.Merge(out, aopts.UserConfiguration)
	}

	validatePaths(out, resolver, aopts.BaseDirectory)
	postProcess(out)

	return out
}

// runExpressions merges each fragment whose expression evaluates truthy
// against the current configuration.
func (a *Analyzer) runExpressions(block *maps.Ordered, config *maps.Ordered, resolver render.Resolver) {
	for pair := block.Oldest(); pair != nil; pair = pair.Next() {
		if !render.Evaluate(pair.Key, config, resolver) {
			continue
		}

		mergeFragment(config, pair.Value, config, resolver)
	}
}

// mergeFragment renders a fragment against the given data context and merges
// it into the configuration.
func mergeFragment(config *maps.Ordered, fragment any, data *maps.Ordered, resolver render.Resolver) {
	tree, ok := fragment.(*maps.Ordered)
	if !ok || tree.Len() == 0 {
		return
	}

	if rendered, ok := render.Recursive(tree, data, resolver).(*maps.Ordered); ok {
		merge.Merge(config, rendered)
	}
}
