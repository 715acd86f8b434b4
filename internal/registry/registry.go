// Package registry persists the discovered-toolset snapshot across
// sessions as <storagePath>/detected-toolsets.json.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/util"
)

// SnapshotFileName is the on-disk snapshot file.
const SnapshotFileName = "detected-toolsets.json"

// Entry is the serialized view of one toolset, keyed by its canonical
// compiler path in the snapshot object.
type Entry struct {
	CompilerPath string                     `json:"compilerPath"`
	Definition   json.RawMessage            `json:"definition"`
	Queries      map[string]string          `json:"queries,omitempty"`
	Analysis     map[string]json.RawMessage `json:"analysis,omitempty"`
}

// Store coalesces snapshot writes: any number of schedule calls collapse
// into a single pending write, and the file is swapped in atomically.
type Store struct {
	l   log.Logger
	dir string

	mutex    sync.Mutex
	idle     *sync.Cond
	dirty    bool
	writing  bool
	snapshot func() map[string]*Entry
}

// NewStore creates a store writing under dir. An empty dir disables
// persistence.
func NewStore(l log.Logger, dir string) *Store {
	s := &Store{l: l, dir: dir}
	s.idle = sync.NewCond(&s.mutex)

	return s
}

func (s *Store) path() string {
	return filepath.Join(s.dir, SnapshotFileName)
}

// Load reads the snapshot. A missing, unreadable or corrupt file is treated
// as absent.
func (s *Store) Load() map[string]*Entry {
	if s.dir == "" {
		return nil
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil
	}

	entries := map[string]*Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.l.Debugf("Ignoring corrupt toolset snapshot %s: %v", s.path(), err)
		return nil
	}

	return entries
}

// ScheduleWrite records that the registry changed. The snapshot function is
// invoked on the writer goroutine once per coalesced batch.
func (s *Store) ScheduleWrite(snapshot func() map[string]*Entry) {
	if s.dir == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.snapshot = snapshot
	s.dirty = true

	if s.writing {
		return
	}

	s.writing = true

	go s.flush()
}

// Flush waits out any in-flight write and writes any still-pending snapshot
// synchronously; used at shutdown and by tests.
func (s *Store) Flush() error {
	s.mutex.Lock()

	for s.writing {
		s.idle.Wait()
	}

	if !s.dirty || s.snapshot == nil {
		s.mutex.Unlock()
		return nil
	}

	s.dirty = false
	snapshot := s.snapshot
	s.mutex.Unlock()

	return s.write(snapshot)
}

func (s *Store) flush() {
	s.mutex.Lock()

	for s.dirty {
		s.dirty = false
		snapshot := s.snapshot
		s.mutex.Unlock()

		if err := s.write(snapshot); err != nil {
			s.l.Warnf("Cannot write toolset snapshot: %v", err)
		}

		s.mutex.Lock()
	}

	s.writing = false
	s.idle.Broadcast()
	s.mutex.Unlock()
}

func (s *Store) write(snapshot func() map[string]*Entry) error {
	entries := snapshot()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.WithStackTrace(err)
	}

	return util.WriteFileAtomic(s.path(), data)
}
