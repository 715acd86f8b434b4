package toolset

import (
	"github.com/mitchellh/mapstructure"

	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// IncludeConfiguration groups the include search path families.
type IncludeConfiguration struct {
	Paths            []string `mapstructure:"paths" json:"paths,omitempty"`
	SystemPaths      []string `mapstructure:"systemPaths" json:"systemPaths,omitempty"`
	BuiltInPaths     []string `mapstructure:"builtInPaths" json:"builtInPaths,omitempty"`
	ExternalPaths    []string `mapstructure:"externalPaths" json:"externalPaths,omitempty"`
	EnvironmentPaths []string `mapstructure:"environmentPaths" json:"environmentPaths,omitempty"`
	FrameworkPaths   []string `mapstructure:"frameworkPaths" json:"frameworkPaths,omitempty"`
}

// IntelliSenseConfiguration is the typed projection of an analyzed
// configuration. The engine itself works on the document tree; this record
// is the boundary type handed to consumers.
type IntelliSenseConfiguration struct {
	CompilerPath     string `mapstructure:"compilerPath" json:"compilerPath,omitempty"`
	Name             string `mapstructure:"name" json:"name,omitempty"`
	Version          string `mapstructure:"version" json:"version,omitempty"`
	Architecture     string `mapstructure:"architecture" json:"architecture,omitempty"`
	HostArchitecture string `mapstructure:"hostArchitecture" json:"hostArchitecture,omitempty"`
	Bits             int    `mapstructure:"bits" json:"bits,omitempty"`

	Language string `mapstructure:"language" json:"language,omitempty"`
	Standard string `mapstructure:"standard" json:"standard,omitempty"`

	Macros  map[string]string `mapstructure:"macros" json:"macros,omitempty"`
	Defines map[string]string `mapstructure:"defines" json:"defines,omitempty"`

	Include IncludeConfiguration `mapstructure:"include" json:"include,omitempty"`

	ForcedIncludeFiles []string `mapstructure:"forcedIncludeFiles" json:"forcedIncludeFiles,omitempty"`
	ParserArguments    []string `mapstructure:"parserArguments" json:"parserArguments,omitempty"`

	// Raw is the underlying document, which keeps the ordered macro and
	// define maps and any fields the record does not model.
	Raw *maps.Ordered `mapstructure:"-" json:"-"`
}

// ConfigurationFromTree projects a document tree into the typed record.
func ConfigurationFromTree(tree *maps.Ordered) (*IntelliSenseConfiguration, error) {
	plain, _ := maps.ToPlain(tree).(map[string]any)

	out := &IntelliSenseConfiguration{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	if err := decoder.Decode(plain); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	out.Raw = tree

	return out, nil
}
