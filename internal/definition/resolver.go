package definition

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/util"
)

// NewResolver builds the standard resolver for a definition: environment,
// definition fields, host facts and per-toolset values. compilerPath may be
// "" before a candidate is bound (the "bare" resolver used for conditions).
func NewResolver(def *Definition, compilerPath string, opts *options.Options) render.Resolver {
	return render.ResolverFunc(func(prefix, expression string) (any, bool) {
		switch prefix {
		case "env":
			return resolveEnv(opts, expression)
		case "definition":
			if value, found := def.Field(expression); found {
				return value, true
			}

			return nil, true
		case "config":
			// Reserved for host settings; empty by default.
			return "", true
		case "host", "host.os", "host.platform", "host.arch":
			return resolveHost(strings.TrimPrefix(prefix, "host."), expression)
		case "compilerPath.basename":
			return compilerBasename(compilerPath), true
		case "":
			return resolveBare(def, compilerPath, opts, expression)
		default:
			return nil, false
		}
	})
}

func resolveEnv(opts *options.Options, name string) (any, bool) {
	if strings.EqualFold(name, "home") {
		home, err := util.HomeDir()
		if err != nil {
			return "", true
		}

		return home, true
	}

	if value, found := opts.LookupEnv(name); found {
		return value, true
	}

	return "", true
}

func resolveHost(prefixField, expression string) (any, bool) {
	field := prefixField
	if field == "" || field == "host" {
		field = expression
	}

	switch field {
	case "os", "platform":
		return runtime.GOOS, true
	case "arch":
		return runtime.GOARCH, true
	default:
		return nil, false
	}
}

func resolveBare(def *Definition, compilerPath string, opts *options.Options, key string) (any, bool) {
	switch key {
	case "pathSeparator":
		return string(os.PathSeparator), true
	case "pathDelimiter":
		return string(os.PathListSeparator), true
	case "workspaceFolder", "cwd":
		return opts.WorkingDir, true
	case "name":
		return def.Name(), true
	case "binary", "compilerPath":
		if compilerPath == "" {
			return nil, false
		}

		return compilerPath, true
	case "compilerPath.basename":
		if compilerPath == "" {
			return nil, false
		}

		return compilerBasename(compilerPath), true
	case "host.os", "host.platform":
		return runtime.GOOS, true
	case "host.arch":
		return runtime.GOARCH, true
	}

	if intellisense := def.Intellisense(); intellisense != nil {
		if value, found := intellisense.Get(key); found {
			switch value.(type) {
			case string, float64, bool, []any, []string:
				return value, true
			}
		}
	}

	return nil, false
}

// compilerBasename is the file stem of the compiler: base name with the
// Windows executable extension stripped.
func compilerBasename(compilerPath string) string {
	base := filepath.Base(compilerPath)

	if runtime.GOOS == "windows" && strings.EqualFold(filepath.Ext(base), ".exe") {
		return base[:len(base)-len(".exe")]
	}

	return base
}
