package definition

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

func writeDefinition(t *testing.T, dir, name, doc string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "toolset."+name+".json"), []byte(doc), 0644))
}

func loadFrom(t *testing.T, roots ...string) map[string]*Definition {
	t.Helper()

	defs, err := LoadAll(log.Discard(), options.NewOptionsForTest(t.TempDir()), roots)
	require.NoError(t, err)

	byName := map[string]*Definition{}
	for _, def := range defs {
		byName[def.Name()] = def
	}

	return byName
}

func TestLoadParsesJSONWithComments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "sample", `// a compiler family
	{
		"name": "sample",
		"version": "2.0.0",
		"intellisense": { "language": "cpp" }, // defaults
		"discover": { "binary": "samplecc" }
	}`)

	defs := loadFrom(t, dir)
	def := defs["sample"]
	require.NotNil(t, def)

	assert.Equal(t, "2.0.0", def.Version())
	assert.Equal(t, []string{"samplecc"}, def.Binaries())
	assert.Equal(t, "cpp", maps.GetString(def.Intellisense(), "language"))
}

func TestLoadSkipsMalformedDefinitions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "broken", `{"name": "broken"`)
	writeDefinition(t, dir, "ok", `{"name": "ok", "discover": {"binary": "okcc"}}`)

	defs := loadFrom(t, dir)

	assert.Nil(t, defs["broken"])
	assert.NotNil(t, defs["ok"])
}

func TestInheritsChildWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "base", `{
		"name": "base",
		"intellisense": { "language": "cpp", "standard": "C++14" },
		"discover": { "binary": [ "basecc" ] }
	}`)
	writeDefinition(t, dir, "child", `{
		"name": "child",
		"inherits": "base",
		"intellisense": { "standard": "C++20" }
	}`)

	defs := loadFrom(t, dir)
	child := defs["child"]
	require.NotNil(t, child)

	assert.Equal(t, "C++20", maps.GetString(child.Intellisense(), "standard"))
	assert.Equal(t, "cpp", maps.GetString(child.Intellisense(), "language"))
	assert.Equal(t, []string{"basecc"}, child.Binaries())
	assert.Empty(t, child.Inherits(), "inherits is consumed by resolution")
}

func TestInheritsRemoveDirective(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "base", `{
		"name": "base2",
		"discover": { "binary": [ "basecc" ] }
	}`)
	writeDefinition(t, dir, "child", `{
		"name": "child2",
		"inherits": "base2",
		"discover": { "remove:binary": null, "binary": [ "childcc" ] }
	}`)

	defs := loadFrom(t, dir)
	child := defs["child2"]
	require.NotNil(t, child)

	assert.Equal(t, []string{"childcc"}, child.Binaries())
}

func TestConditionsApplyOnceAtLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "cond", `{
		"name": "cond",
		"intellisense": { "language": "cpp" },
		"conditions": {
			"'${host.os}'=='`+runtime.GOOS+`'": { "intellisense": { "standard": "C++23" } },
			"'${host.os}'=='never-an-os'": { "intellisense": { "standard": "C89" } }
		},
		"discover": { "binary": "condcc" }
	}`)

	defs := loadFrom(t, dir)
	def := defs["cond"]
	require.NotNil(t, def)

	assert.Equal(t, "C++23", maps.GetString(def.Intellisense(), "standard"))
	assert.Nil(t, def.Conditions(), "conditions are consumed once applied")
}

func TestBuiltinDefinitionsLoadAndConfiguredRootsWin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "gcc", `{
		"name": "gcc",
		"version": "99.0.0",
		"discover": { "binary": "gcc" }
	}`)

	defs := loadFrom(t, dir)

	require.NotNil(t, defs["gcc"])
	assert.Equal(t, "99.0.0", defs["gcc"].Version(), "the configured root shadows the built-in")

	assert.NotNil(t, defs["clang"])
	assert.NotNil(t, defs["msvc"])
}

func TestDefinitionCloneIsIndependent(t *testing.T) {
	t.Parallel()

	def, err := Parse("", []byte(`{"name": "x", "intellisense": {"standard": "C++17"}}`))
	require.NoError(t, err)

	copied := def.Clone()
	copied.Intellisense().Set("standard", "C++20")

	assert.Equal(t, "C++17", maps.GetString(def.Intellisense(), "standard"))
}
