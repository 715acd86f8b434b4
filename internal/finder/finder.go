// Package finder implements a bounded-depth, bounded-concurrency filesystem
// walk producing executable candidates matching a name set.
package finder

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/fearthecowboy/toolscout/util"
)

// Options configures a Finder.
type Options struct {
	// Executable requires candidates to be executable. On Windows this is
	// inferred from ExecutableExtensions.
	Executable bool

	// ExecutableExtensions lists the extensions stripped from stems on
	// Windows, e.g. [".exe", ".cmd"].
	ExecutableExtensions []string

	// Concurrency bounds concurrent directory reads.
	Concurrency int
}

// Finder streams matching file paths out of any number of scans. Scans may
// be added while results are being consumed; the result channel closes once
// Done has been called and every pending scan has drained.
type Finder struct {
	names      map[string]struct{}
	executable bool
	extensions []string

	sem *semaphore.Weighted
	out chan string

	pending sync.WaitGroup
	done    sync.Once

	seenMutex sync.Mutex
	seen      map[string]struct{}
}

// New creates a finder matching the given file stems.
func New(names []string, opts Options) *Finder {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 32
	}

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[foldName(name)] = struct{}{}
	}

	return &Finder{
		names:      set,
		executable: opts.Executable,
		extensions: opts.ExecutableExtensions,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		out:        make(chan string, 128),
		seen:       map[string]struct{}{},
	}
}

// Results returns the stream of qualifying absolute paths. Each path is
// emitted at most once across all scans.
func (f *Finder) Results() <-chan string {
	return f.out
}

// Scan walks each root to the given depth. Depth 0 reads only the root
// directory itself. Scan returns immediately; the walk proceeds in the
// background and is cancelled through ctx.
func (f *Finder) Scan(ctx context.Context, depth int, roots ...string) {
	for _, root := range roots {
		if root == "" {
			continue
		}

		f.pending.Add(1)
		go f.walk(ctx, root, depth)
	}
}

// Done declares that no further scans will be added. The result channel
// closes once the pending scans drain.
func (f *Finder) Done() {
	f.done.Do(func() {
		go func() {
			f.pending.Wait()
			close(f.out)
		}()
	})
}

func (f *Finder) walk(ctx context.Context, dir string, depth int) {
	defer f.pending.Done()

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return
	}

	entries, err := os.ReadDir(dir)
	f.sem.Release(1)

	if err != nil {
		// Unreadable directories are skipped, the walk continues elsewhere.
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if depth > 0 {
				f.pending.Add(1)
				go f.walk(ctx, path, depth-1)
			}

			continue
		}

		if !f.qualifies(path, entry.Name()) {
			continue
		}

		f.emit(ctx, path)
	}
}

func (f *Finder) qualifies(path, name string) bool {
	stem := util.FileStem(name, f.extensions)
	if _, found := f.names[foldName(stem)]; !found {
		return false
	}

	if !f.executable {
		return util.IsFile(path)
	}

	if runtime.GOOS == "windows" {
		return util.ListContainsElementFold(f.extensions, filepath.Ext(name)) && util.IsFile(path)
	}

	return util.IsExecutable(path)
}

func (f *Finder) emit(ctx context.Context, path string) {
	absPath, err := util.CanonicalPath(path, "")
	if err != nil {
		return
	}

	f.seenMutex.Lock()

	if _, dup := f.seen[absPath]; dup {
		f.seenMutex.Unlock()
		return
	}

	f.seen[absPath] = struct{}{}
	f.seenMutex.Unlock()

	select {
	case f.out <- absPath:
	case <-ctx.Done():
	}
}

func foldName(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(name)
	}

	return name
}
