// Package toolset is the public surface of the discovery and analysis
// engine: initialize an Engine, enumerate or identify toolsets, and ask a
// Toolset for the intellisense configuration of a compiler invocation.
package toolset

import (
	"context"
	"encoding/json"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/fearthecowboy/toolscout/internal/analysis"
	"github.com/fearthecowboy/toolscout/internal/definition"
	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/internal/registry"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/maps"
	"github.com/fearthecowboy/toolscout/util"
)

// AnalyzeOptions adjusts one GetIntellisenseConfiguration call.
type AnalyzeOptions = analysis.Options

// Toolset is one identified compiler: its canonical path, its conditioned
// definition, and the cached state accumulated by analysis.
type Toolset struct {
	CompilerPath string
	Definition   *definition.Definition

	analyzer *analysis.Analyzer
	opts     *options.Options
}

func newToolset(opts *options.Options, def *definition.Definition, compilerPath string, onUpdate func()) *Toolset {
	t := &Toolset{
		CompilerPath: compilerPath,
		Definition:   def,
		analyzer:     analysis.New(opts, def, compilerPath),
		opts:         opts,
	}

	t.analyzer.OnUpdate(onUpdate)

	return t
}

// Name is the stable identity "<definition>/<version>/<architecture>/<hostArchitecture>".
func (t *Toolset) Name() string {
	config := t.Definition.Intellisense()

	return strings.Join([]string{
		t.Definition.Name(),
		util.FirstNonEmpty(maps.GetString(config, "version"), t.Definition.Version()),
		maps.GetString(config, "architecture"),
		maps.GetString(config, "hostArchitecture"),
	}, "/")
}

// Version returns the detected compiler version, or nil when it does not
// parse as a semantic version.
func (t *Toolset) Version() *goversion.Version {
	raw := util.FirstNonEmpty(
		maps.GetString(t.Definition.Intellisense(), "version"),
		t.Definition.Version(),
	)

	v, err := goversion.NewVersion(raw)
	if err != nil {
		return nil
	}

	return v
}

// GetIntellisenseConfiguration analyzes a compiler invocation and returns
// the typed configuration. Results are cached per argv; repeated calls spawn
// no subprocesses.
func (t *Toolset) GetIntellisenseConfiguration(ctx context.Context, compilerArgs []string, aopts *AnalyzeOptions) (*IntelliSenseConfiguration, error) {
	tree, err := t.GetIntellisenseConfigurationTree(ctx, compilerArgs, aopts)
	if err != nil {
		return nil, err
	}

	return ConfigurationFromTree(tree)
}

// GetIntellisenseConfigurationTree is GetIntellisenseConfiguration without
// the typed projection, for callers that consume the document directly.
func (t *Toolset) GetIntellisenseConfigurationTree(ctx context.Context, compilerArgs []string, aopts *AnalyzeOptions) (*maps.Ordered, error) {
	return t.analyzer.Analyze(ctx, t.opts.Logger, compilerArgs, aopts)
}

// entry serializes the toolset for the persistent snapshot.
func (t *Toolset) entry() (*registry.Entry, error) {
	defData, err := json.Marshal(t.Definition)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	entry := &registry.Entry{
		CompilerPath: t.CompilerPath,
		Definition:   defData,
		Queries:      t.analyzer.QueryCache.Snapshot(),
		Analysis:     map[string]json.RawMessage{},
	}

	for key, tree := range t.analyzer.AnalysisCache.Snapshot() {
		data, err := json.Marshal(tree)
		if err != nil {
			continue
		}

		entry.Analysis[key] = data
	}

	return entry, nil
}

// toolsetFromEntry rehydrates a toolset from a snapshot entry. The compiler
// must still exist on disk.
func toolsetFromEntry(opts *options.Options, entry *registry.Entry, onUpdate func()) (*Toolset, error) {
	if entry == nil || entry.CompilerPath == "" || !util.IsFile(entry.CompilerPath) {
		return nil, errors.New("stale toolset entry")
	}

	def := &definition.Definition{}
	if err := json.Unmarshal(entry.Definition, def); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	t := newToolset(opts, def, entry.CompilerPath, onUpdate)

	ctx := context.Background()

	for key, value := range entry.Queries {
		t.analyzer.QueryCache.Put(ctx, key, value)
	}

	for key, data := range entry.Analysis {
		tree := maps.New()
		if err := json.Unmarshal(data, tree); err != nil {
			continue
		}

		t.analyzer.AnalysisCache.Put(ctx, key, tree)
	}

	return t, nil
}
