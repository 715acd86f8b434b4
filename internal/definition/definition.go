// Package definition loads and models the declarative toolset definition
// files that drive discovery and analysis.
package definition

import (
	"encoding/json"
	"strings"

	"github.com/fearthecowboy/toolscout/internal/merge"
	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// Definition is one loaded toolset definition document.
type Definition struct {
	// Path is the file the definition came from, "" for embedded or
	// deserialized definitions.
	Path string

	root *maps.Ordered
}

// FromTree wraps an already-parsed document.
func FromTree(path string, root *maps.Ordered) *Definition {
	if root == nil {
		root = maps.New()
	}

	return &Definition{Path: path, root: root}
}

// Parse decodes a JSON-with-comments definition document.
func Parse(path string, data []byte) (*Definition, error) {
	root, err := maps.ParseJSONC(data)
	if err != nil {
		return nil, err
	}

	return FromTree(path, root), nil
}

// Root exposes the underlying document.
func (d *Definition) Root() *maps.Ordered {
	return d.root
}

// Name returns the definition identifier.
func (d *Definition) Name() string {
	return maps.GetString(d.root, "name")
}

// Version returns the definition version, if declared.
func (d *Definition) Version() string {
	return maps.GetString(d.root, "version")
}

// Inherits returns the names of the definitions this one inherits from.
func (d *Definition) Inherits() []string {
	value, _ := maps.Get(d.root, "inherits")
	return maps.StringList(value)
}

// Intellisense returns the partial default configuration, or nil.
func (d *Definition) Intellisense() *maps.Ordered {
	return maps.GetMap(d.root, "intellisense")
}

// Discover returns the discover section, or nil.
func (d *Definition) Discover() *maps.Ordered {
	return maps.GetMap(d.root, "discover")
}

// Analysis returns the analysis section, or nil.
func (d *Definition) Analysis() *maps.Ordered {
	return maps.GetMap(d.root, "analysis")
}

// Conditions returns the conditions section, or nil.
func (d *Definition) Conditions() *maps.Ordered {
	return maps.GetMap(d.root, "conditions")
}

// Binaries returns the candidate binary names from discover.binary.
func (d *Definition) Binaries() []string {
	value, _ := maps.Get(d.root, "discover", "binary")
	return maps.StringList(value)
}

// Locations returns the extra (unrendered) search roots from
// discover.locations.
func (d *Definition) Locations() []string {
	value, _ := maps.Get(d.root, "discover", "locations")
	return maps.StringList(value)
}

// Field looks up a dotted path in the document, for ${definition:...}
// tokens.
func (d *Definition) Field(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	return maps.Get(d.root, strings.Split(path, ".")...)
}

// Clone returns an independent deep copy.
func (d *Definition) Clone() *Definition {
	return &Definition{Path: d.Path, root: maps.CloneMap(d.root)}
}

// SetIntellisense replaces the default configuration, used after discovery
// folds matched fragments in.
func (d *Definition) SetIntellisense(config *maps.Ordered) {
	d.root.Set("intellisense", config)
}

// ApplyConditions evaluates each conditions entry once and merges the
// fragments of the matching ones into the document. The data context is the
// default intellisense configuration.
func (d *Definition) ApplyConditions(resolver render.Resolver) {
	conditions := d.Conditions()
	if conditions == nil {
		return
	}

	data := d.Intellisense()

	for pair := conditions.Oldest(); pair != nil; pair = pair.Next() {
		fragment, ok := pair.Value.(*maps.Ordered)
		if !ok {
			continue
		}

		if render.Evaluate(pair.Key, data, resolver) {
			merge.Merge(d.root, fragment)
		}
	}

	d.root.Delete("conditions")
}

// MarshalJSON serializes the underlying document.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

// UnmarshalJSON replaces the underlying document.
func (d *Definition) UnmarshalJSON(data []byte) error {
	root := maps.New()
	if err := json.Unmarshal(data, root); err != nil {
		return err
	}

	d.root = root

	return nil
}
