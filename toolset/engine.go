package toolset

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/fearthecowboy/toolscout/internal/definition"
	"github.com/fearthecowboy/toolscout/internal/discovery"
	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/internal/registry"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/util"
)

// ErrNotInitialized is returned by every Engine call made before Initialize
// completes.
var ErrNotInitialized = errors.New("toolset engine is not initialized")

// InitializeOptions adjusts Initialize.
type InitializeOptions struct {
	// Quick keeps the current registry and in-progress state instead of
	// resetting it.
	Quick bool

	// StoragePath overrides the directory holding the persistent snapshot.
	StoragePath string
}

// Engine owns the process-wide toolset registry. All mutation goes through
// its methods; Toolset values handed out are shared, not copied.
type Engine struct {
	l    log.Logger
	opts *options.Options

	initMutex   sync.Mutex
	initialized atomic.Bool

	definitions []*definition.Definition

	toolsets *xsync.MapOf[string, *Toolset]

	orderMutex sync.Mutex
	order      []string

	searches   *xsync.MapOf[string, chan struct{}]
	identifies *xsync.MapOf[string, *identifyCall]

	store    *registry.Store
	discover *discovery.Engine
}

type identifyCall struct {
	done   chan struct{}
	result *Toolset
	err    error
}

// NewEngine creates an engine. Call Initialize before anything else.
func NewEngine(l log.Logger, opts *options.Options) *Engine {
	if opts == nil {
		opts = options.NewOptions(l)
	}

	return &Engine{
		l:          l,
		opts:       opts,
		toolsets:   xsync.NewMapOf[string, *Toolset](),
		searches:   xsync.NewMapOf[string, chan struct{}](),
		identifies: xsync.NewMapOf[string, *identifyCall](),
		store:      registry.NewStore(l, opts.StoragePath),
		discover:   discovery.NewEngine(opts),
	}
}

// Initialize loads definitions from the given folders, rehydrates the
// persistent cache and marks the engine ready. It is idempotent and
// serializes concurrent calls.
func (e *Engine) Initialize(ctx context.Context, configFolders []string, iopts *InitializeOptions) (map[string]*Toolset, error) {
	e.initMutex.Lock()
	defer e.initMutex.Unlock()

	if iopts == nil {
		iopts = &InitializeOptions{}
	}

	if !iopts.Quick {
		e.reset()
	}

	if iopts.StoragePath != "" {
		e.opts.StoragePath = iopts.StoragePath
		e.store = registry.NewStore(e.l, iopts.StoragePath)
	}

	defs, err := definition.LoadAll(e.l, e.opts, configFolders)
	if err != nil {
		return nil, err
	}

	e.definitions = defs

	dropped := 0

	for path, entry := range e.store.Load() {
		t, err := toolsetFromEntry(e.opts, entry, e.scheduleWrite)
		if err != nil {
			dropped++
			continue
		}

		e.register(path, t)
	}

	if dropped > 0 {
		e.l.Debugf("Dropped %d stale cached toolsets", dropped)
	}

	e.initialized.Store(true)
	e.l.Infof("Initialized with %d definitions", len(defs))

	return e.snapshotMap(), nil
}

// GetToolsets runs discovery for every definition not already searched and
// returns the registry keyed by canonical compiler path.
func (e *Engine) GetToolsets(ctx context.Context) (map[string]*Toolset, error) {
	if !e.initialized.Load() {
		return nil, ErrNotInitialized
	}

	var waits []chan struct{}

	for _, def := range e.definitions {
		done := make(chan struct{})

		existing, loaded := e.searches.LoadOrStore(def.Name(), done)
		if loaded {
			waits = append(waits, existing)
			continue
		}

		waits = append(waits, done)

		go func(def *definition.Definition) {
			defer close(done)

			_ = e.discover.Search(ctx, e.l, []*definition.Definition{def}, func(result *discovery.Result) {
				e.registerResult(result)
			})
		}(def)
	}

	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, errors.WithStackTrace(ctx.Err())
		}
	}

	return e.snapshotMap(), nil
}

// IdentifyToolset resolves a candidate: an absolute path to an executable is
// discovered directly; anything else is treated as a '*' pattern over
// registered toolset names, newest version first. Concurrent calls for the
// same candidate share one computation. An unidentifiable candidate yields
// (nil, nil).
func (e *Engine) IdentifyToolset(ctx context.Context, candidate string) (*Toolset, error) {
	if !e.initialized.Load() {
		return nil, ErrNotInitialized
	}

	call := &identifyCall{done: make(chan struct{})}

	existing, loaded := e.identifies.LoadOrStore(candidate, call)
	if loaded {
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return nil, errors.WithStackTrace(ctx.Err())
		}
	}

	call.result, call.err = e.identify(ctx, candidate)

	close(call.done)
	e.identifies.Delete(candidate)

	return call.result, call.err
}

func (e *Engine) identify(ctx context.Context, candidate string) (*Toolset, error) {
	if filepath.IsAbs(candidate) && util.IsExecutable(candidate) {
		if result, ok := e.discover.Identify(ctx, e.l, e.definitions, candidate); ok {
			return e.registerResult(result), nil
		}

		return nil, nil
	}

	pattern, err := glob.Compile(candidate)
	if err != nil {
		return nil, nil
	}

	if match := e.matchPattern(pattern); match != nil {
		return match, nil
	}

	// Nothing registered matches; search and retry once.
	if _, err := e.GetToolsets(ctx); err != nil {
		return nil, err
	}

	return e.matchPattern(pattern), nil
}

// matchPattern returns the best registered toolset whose name matches:
// highest version first, insertion order breaking ties.
func (e *Engine) matchPattern(pattern glob.Glob) *Toolset {
	e.orderMutex.Lock()
	ordered := append([]string(nil), e.order...)
	e.orderMutex.Unlock()

	var matches []*Toolset

	for _, path := range ordered {
		if t, found := e.toolsets.Load(path); found && pattern.Match(t.Name()) {
			matches = append(matches, t)
		}
	}

	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		vi, vj := matches[i].Version(), matches[j].Version()

		if vi == nil || vj == nil {
			return vj == nil && vi != nil
		}

		return vi.GreaterThan(vj)
	})

	return matches[0]
}

// Reset clears the registry and all in-progress state.
func (e *Engine) Reset() {
	e.initMutex.Lock()
	defer e.initMutex.Unlock()

	e.reset()
	e.initialized.Store(false)
}

func (e *Engine) reset() {
	e.toolsets.Clear()
	e.searches.Clear()
	e.identifies.Clear()

	e.orderMutex.Lock()
	e.order = nil
	e.orderMutex.Unlock()
}

func (e *Engine) registerResult(result *discovery.Result) *Toolset {
	t := newToolset(e.opts, result.Definition, result.CompilerPath, e.scheduleWrite)
	return e.register(result.CompilerPath, t)
}

// register keys the toolset by canonical path; the first writer wins and
// later registrations for the same path return the existing toolset.
func (e *Engine) register(path string, t *Toolset) *Toolset {
	existing, loaded := e.toolsets.LoadOrStore(path, t)
	if loaded {
		return existing
	}

	e.orderMutex.Lock()
	e.order = append(e.order, path)
	e.orderMutex.Unlock()

	e.scheduleWrite()

	return t
}

func (e *Engine) scheduleWrite() {
	e.store.ScheduleWrite(e.buildSnapshot)
}

// FlushCache forces any pending snapshot write to disk.
func (e *Engine) FlushCache() error {
	return e.store.Flush()
}

func (e *Engine) buildSnapshot() map[string]*registry.Entry {
	out := map[string]*registry.Entry{}

	e.toolsets.Range(func(path string, t *Toolset) bool {
		entry, err := t.entry()
		if err == nil {
			out[path] = entry
		}

		return true
	})

	return out
}

func (e *Engine) snapshotMap() map[string]*Toolset {
	out := map[string]*Toolset{}

	e.toolsets.Range(func(path string, t *Toolset) bool {
		out[path] = t
		return true
	})

	return out
}
