package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

func parse(t *testing.T, doc string) *maps.Ordered {
	t.Helper()

	m, err := maps.ParseJSONC([]byte(doc))
	require.NoError(t, err)

	return m
}

func TestMergeScalarOverwrites(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"standard": "C++14", "bits": 32}`)
	source := parse(t, `{"standard": "C++17"}`)

	Merge(target, source)

	assert.Equal(t, "C++17", maps.GetString(target, "standard"))
	assert.Equal(t, float64(32), mustGet(t, target, "bits"))
}

func TestMergeListAppendsWithoutDuplicating(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"include": {"paths": ["/a"]}}`)
	source := parse(t, `{"include": {"paths": ["/a", "/b"]}}`)

	Merge(target, source)

	assert.Equal(t, []string{"/a", "/b"}, maps.StringList(mustGet(t, maps.GetMap(target, "include"), "paths")))
}

func TestMergeScalarPromotesToList(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"flag": "one"}`)
	source := parse(t, `{"flag": ["two"]}`)

	Merge(target, source)

	assert.Equal(t, []string{"one", "two"}, maps.StringList(mustGet(t, target, "flag")))
}

func TestMergePrependPutsValuesFirst(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"paths": ["/a"]}`)
	source := parse(t, `{"prepend:paths": ["/b"]}`)

	Merge(target, source)

	assert.Equal(t, []string{"/b", "/a"}, maps.StringList(mustGet(t, target, "paths")))
}

func TestMergeRemoveListElement(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"paths": ["/a", "/b", "/c"]}`)
	source := parse(t, `{"remove:paths": ["/b"]}`)

	Merge(target, source)

	assert.Equal(t, []string{"/a", "/c"}, maps.StringList(mustGet(t, target, "paths")))
}

func TestMergeRemoveWholeKey(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"standard": "C++17"}`)
	source := parse(t, `{"remove:standard": null}`)

	Merge(target, source)

	_, found := target.Get("standard")
	assert.False(t, found)
}

func TestMergeNullDeletes(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"standard": "C++17", "keep": "x"}`)
	source := parse(t, `{"standard": null}`)

	Merge(target, source)

	_, found := target.Get("standard")
	assert.False(t, found)
	assert.Equal(t, "x", maps.GetString(target, "keep"))
}

func TestMergeBelSentinelSplitsIntoList(t *testing.T) {
	t.Parallel()

	target := maps.New()
	source := maps.New()
	source.Set("paths", "/a\x07/b")

	Merge(target, source)

	assert.Equal(t, []string{"/a", "/b"}, maps.StringList(mustGet(t, target, "paths")))
}

func TestMergeRecursesIntoObjects(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"include": {"paths": ["/a"], "systemPaths": ["/s"]}}`)
	source := parse(t, `{"include": {"paths": ["/b"]}}`)

	Merge(target, source)

	include := maps.GetMap(target, "include")
	assert.Equal(t, []string{"/a", "/b"}, maps.StringList(mustGet(t, include, "paths")))
	assert.Equal(t, []string{"/s"}, maps.StringList(mustGet(t, include, "systemPaths")))
}

func TestMergeIsIdempotentOnSource(t *testing.T) {
	t.Parallel()

	target := parse(t, `{"macros": {"A": "1"}, "paths": ["/a"]}`)
	source := parse(t, `{"macros": {"B": "2"}, "paths": ["/b"], "standard": "C++20"}`)

	once := maps.CloneMap(Merge(maps.CloneMap(target), source))
	twice := Merge(Merge(maps.CloneMap(target), source), source)

	assert.True(t, maps.Equal(once, twice))
}

func mustGet(t *testing.T, m *maps.Ordered, key string) any {
	t.Helper()

	value, found := m.Get(key)
	require.True(t, found, "key %q missing", key)

	return value
}
