// Package options holds the engine-wide settings threaded through discovery
// and analysis calls.
package options

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"dario.cat/mergo"
	"golang.org/x/sync/semaphore"

	"github.com/fearthecowboy/toolscout/pkg/log"
)

const (
	// DefaultSearchDepth is how deep large search roots are walked.
	DefaultSearchDepth = 10

	// DefaultWalkerConcurrency bounds concurrent directory reads.
	DefaultWalkerConcurrency = 32
)

// Options carries the settings for one engine instance.
type Options struct {
	// Logger receives engine diagnostics.
	Logger log.Logger

	// WorkingDir resolves ${workspaceFolder}/${cwd} and relative paths.
	WorkingDir string

	// StoragePath is the directory holding the persistent toolset snapshot.
	StoragePath string

	// SearchDepth is the walk depth for large search roots.
	SearchDepth int

	// WalkerConcurrency bounds concurrent directory reads in the finder.
	WalkerConcurrency int

	// SubprocessLimit bounds concurrent compiler invocations. Zero means
	// the host CPU count.
	SubprocessLimit int

	// Env is the environment visible to resolvers, queries and compiler
	// subprocesses, in "KEY=value" form. Nil means the process environment.
	Env []string

	// PlatformRoots overrides the OS-specific search roots. Nil means the
	// platform defaults; an empty non-nil slice disables them.
	PlatformRoots []string

	subproc *subprocLimiter
}

// subprocLimiter lives behind a pointer so Options values stay copyable.
type subprocLimiter struct {
	once sync.Once
	sem  *semaphore.Weighted
}

// NewOptions returns options with defaults filled in.
func NewOptions(l log.Logger) *Options {
	opts := &Options{Logger: l, subproc: &subprocLimiter{}}
	opts.fillDefaults()

	return opts
}

// NewOptionsForTest returns quiet options rooted in the given directory,
// suitable for unit tests.
func NewOptionsForTest(workingDir string) *Options {
	opts := NewOptions(log.Discard())
	opts.WorkingDir = workingDir
	opts.StoragePath = workingDir
	opts.PlatformRoots = []string{}

	return opts
}

func (opts *Options) fillDefaults() {
	cwd, _ := os.Getwd()

	defaults := Options{
		Logger:            log.Discard(),
		WorkingDir:        cwd,
		SearchDepth:       DefaultSearchDepth,
		WalkerConcurrency: DefaultWalkerConcurrency,
		SubprocessLimit:   runtime.NumCPU(),
		Env:               os.Environ(),
	}

	// mergo fills only the zero-valued fields, so caller settings win.
	_ = mergo.Merge(opts, defaults)
}

// Clone returns a copy sharing the logger and subprocess semaphore but with
// independent slices.
func (opts *Options) Clone() *Options {
	out := *opts
	out.Env = append([]string(nil), opts.Env...)

	if opts.PlatformRoots != nil {
		out.PlatformRoots = append([]string{}, opts.PlatformRoots...)
	}

	return &out
}

// LookupEnv returns the value of key from the options environment. The last
// occurrence wins, matching os/exec semantics.
func (opts *Options) LookupEnv(key string) (string, bool) {
	value, found := "", false

	for _, entry := range opts.Env {
		if k, v, ok := strings.Cut(entry, "="); ok && envKeyEqual(k, key) {
			value, found = v, true
		}
	}

	return value, found
}

// Getenv returns the value of key from the options environment, or "".
func (opts *Options) Getenv(key string) string {
	value, _ := opts.LookupEnv(key)
	return value
}

// SubprocessSemaphore returns the shared semaphore bounding compiler
// subprocesses. Clones share it.
func (opts *Options) SubprocessSemaphore() *semaphore.Weighted {
	if opts.subproc == nil {
		opts.subproc = &subprocLimiter{}
	}

	opts.subproc.once.Do(func() {
		limit := opts.SubprocessLimit
		if limit <= 0 {
			limit = runtime.NumCPU()
		}

		opts.subproc.sem = semaphore.NewWeighted(int64(limit))
	})

	return opts.subproc.sem
}

func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}
