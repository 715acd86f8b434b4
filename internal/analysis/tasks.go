package analysis

import (
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/util"
)

// runTask executes one named argv transformation in place. Unknown and
// reserved task names are no-ops.
func (a *Analyzer) runTask(l log.Logger, name string, args *[]string, aopts *Options) {
	switch name {
	case "inline-environment-variables":
		a.inlineEnvironmentVariables(args)
	case "inline-response-file":
		a.inlineResponseFiles(l, args, aopts.BaseDirectory)
	case "remove-linker-arguments":
		removeLinkerArguments(args)
	case "consume-lib-path", "zwCommandLineSwitch", "experimentalModuleNegative", "verifyIncludes":
		// Reserved task names; definitions may request them, nothing
		// happens yet.
	default:
		l.Debugf("Unknown analysis task %q ignored", name)
	}
}

// inlineEnvironmentVariables appends the tokens of CL and prepends the
// tokens of _CL_, the environment-variable channels cl.exe honors.
func (a *Analyzer) inlineEnvironmentVariables(args *[]string) {
	if value := a.opts.Getenv("CL"); value != "" {
		if tokens, err := shellwords.Parse(value); err == nil {
			*args = append(*args, tokens...)
		}
	}

	if value := a.opts.Getenv("_CL_"); value != "" {
		if tokens, err := shellwords.Parse(value); err == nil {
			*args = append(tokens, *args...)
		}
	}
}

// inlineResponseFiles replaces each @<path> argument with the tokenized
// contents of the file. Unreadable response files are left in place.
func (a *Analyzer) inlineResponseFiles(l log.Logger, args *[]string, baseDirectory string) {
	out := make([]string, 0, len(*args))

	for _, arg := range *args {
		if !strings.HasPrefix(arg, "@") {
			out = append(out, arg)
			continue
		}

		path := arg[1:]
		if !filepath.IsAbs(path) && baseDirectory != "" {
			path = filepath.Join(baseDirectory, path)
		}

		contents, err := util.ReadFileAsString(path)
		if err != nil {
			l.Debugf("Cannot read response file %s: %v", path, err)
			out = append(out, arg)

			continue
		}

		tokens, err := shellwords.Parse(contents)
		if err != nil {
			out = append(out, arg)
			continue
		}

		out = append(out, tokens...)
	}

	*args = out
}

// removeLinkerArguments truncates the argv at the first -link or /link
// switch; everything after it belongs to the linker.
func removeLinkerArguments(args *[]string) {
	for i, arg := range *args {
		if strings.EqualFold(arg, "-link") || strings.EqualFold(arg, "/link") {
			*args = (*args)[:i]
			return
		}
	}
}
