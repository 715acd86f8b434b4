package finder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))

	return path
}

func collect(t *testing.T, f *Finder) []string {
	t.Helper()

	var out []string

	timeout := time.After(10 * time.Second)

	for {
		select {
		case path, open := <-f.Results():
			if !open {
				return out
			}

			out = append(out, path)
		case <-timeout:
			t.Fatal("finder did not drain")
		}
	}
}

func TestScanFindsNamedExecutables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeExecutable(t, dir, "fakegcc")
	writeExecutable(t, dir, "unrelated")

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 0, dir)
	f.Done()

	found := collect(t, f)
	require.Len(t, found, 1)
	assert.Equal(t, want, found[0])
}

func TestScanDepthZeroDoesNotRecurse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "nested"), "fakegcc")

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 0, dir)
	f.Done()

	assert.Empty(t, collect(t, f))
}

func TestScanDepthReachesNestedDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeExecutable(t, filepath.Join(dir, "a", "b", "c"), "fakegcc")

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 3, dir)
	f.Done()

	found := collect(t, f)
	require.Len(t, found, 1)
	assert.Equal(t, want, found[0])
}

func TestScanSkipsNonExecutableFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fakegcc"), []byte("data"), 0644))

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 0, dir)
	f.Done()

	assert.Empty(t, collect(t, f))
}

func TestOverlappingScansEmitEachPathOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExecutable(t, dir, "fakegcc")

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 0, dir)
	f.Scan(context.Background(), 1, dir)
	f.Done()

	assert.Len(t, collect(t, f), 1)
}

func TestScanCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for i := range 50 {
		writeExecutable(t, filepath.Join(dir, "sub", string(rune('a'+i%26))), "fakegcc")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(ctx, 5, dir)
	f.Done()

	// A cancelled walk still drains and closes without hanging.
	collect(t, f)
}

func TestUnreadableRootIsSkipped(t *testing.T) {
	t.Parallel()

	f := New([]string{"fakegcc"}, Options{Executable: true})
	f.Scan(context.Background(), 0, filepath.Join(t.TempDir(), "missing"))
	f.Done()

	assert.Empty(t, collect(t, f))
}
