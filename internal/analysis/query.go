package analysis

import (
	"context"
	"os"
	"regexp"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/fearthecowboy/toolscout/internal/render"
	"github.com/fearthecowboy/toolscout/internal/shell"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/pkg/maps"
)

// runQueries executes each query command against the compiler and matches
// the captured output. Query output is cached per rendered command, so a
// repeated analysis never re-runs the compiler.
func (a *Analyzer) runQueries(ctx context.Context, l log.Logger, block *maps.Ordered, config *maps.Ordered, aopts *Options, resolver render.Resolver) {
	for pair := block.Oldest(); pair != nil; pair = pair.Next() {
		patterns, ok := pair.Value.(*maps.Ordered)
		if !ok {
			continue
		}

		captured := a.runQueryCommand(ctx, l, pair.Key, aopts, resolver)
		if captured == "" {
			continue
		}

		rx := RxResolver(render.Layered(render.DataResolver(config), resolver))

		for patternPair := patterns.Oldest(); patternPair != nil; patternPair = patternPair.Next() {
			matchQueryOutput(config, captured, patternPair.Key, patternPair.Value, rx, resolver)
		}
	}
}

// runQueryCommand renders and executes one query command, returning its
// combined output. Scratch files named by ${tmp:...} tokens are created
// empty before the run, folded into the output, and always deleted. A
// failing subprocess still contributes whatever it printed.
func (a *Analyzer) runQueryCommand(ctx context.Context, l log.Logger, template string, aopts *Options, resolver render.Resolver) string {
	scratch := newScratchSet()
	defer scratch.cleanup()

	rendered := render.Render(template, render.Layered(scratch.resolver(), resolver))

	if cached, found := a.QueryCache.Get(ctx, rendered); found {
		return cached
	}

	tokens, err := shellwords.Parse(rendered)
	if err != nil || len(tokens) == 0 {
		return ""
	}

	out, err := shell.RunCommandWithOutput(
		ctx, l, a.opts,
		aopts.BaseDirectory,
		shell.CompilerEnv(a.opts, a.compilerPath),
		tokens[0], tokens[1:]...,
	)
	if err != nil {
		l.Debugf("Query %q failed: %v", rendered, err)
	}

	captured := ""
	if out != nil {
		captured = out.Combined()
	}

	captured += scratch.contents()

	if ctx.Err() != nil {
		// A cancelled analysis leaves no cache entry behind.
		return ""
	}

	a.QueryCache.Put(ctx, rendered, captured)
	a.update()

	return captured
}

// matchQueryOutput applies one regex → fragment entry to the captured text,
// merging the fragment once per match. Multi-line capture values are
// pre-split into trimmed lists.
func matchQueryOutput(config *maps.Ordered, captured, pattern string, fragment any, rx render.Resolver, resolver render.Resolver) {
	re, err := regexp.Compile("(?m)" + render.Render(pattern, rx))
	if err != nil {
		return
	}

	names := re.SubexpNames()

	for _, m := range re.FindAllStringSubmatch(captured, -1) {
		captures := maps.New()

		for gi, name := range names {
			if name == "" || gi >= len(m) {
				continue
			}

			captures.Set(name, splitCaptureLines(m[gi]))
		}

		mergeFragment(config, fragment, captures, resolver)
	}
}

// splitCaptureLines turns a capture containing newlines into a trimmed,
// non-empty list; single-line captures stay strings.
func splitCaptureLines(value string) any {
	if !strings.Contains(value, "\n") {
		return value
	}

	var out []any

	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}

	return out
}

// scratchSet manages the ${tmp:...} scratch files of one query.
type scratchSet struct {
	files map[string]string
}

func newScratchSet() *scratchSet {
	return &scratchSet{files: map[string]string{}}
}

// resolver hands out one pre-created empty scratch path per distinct name.
func (s *scratchSet) resolver() render.Resolver {
	return render.ResolverFunc(func(prefix, expression string) (any, bool) {
		if prefix != "tmp" {
			return nil, false
		}

		if path, found := s.files[expression]; found {
			return path, true
		}

		file, err := os.CreateTemp("", "toolscout-"+expression+"-*")
		if err != nil {
			return "", true
		}

		file.Close()
		s.files[expression] = file.Name()

		return file.Name(), true
	})
}

// contents concatenates whatever the compiler wrote into the scratch files.
func (s *scratchSet) contents() string {
	var out strings.Builder

	for _, path := range s.files {
		data, err := os.ReadFile(path)
		if err == nil {
			out.Write(data)
		}
	}

	return out.String()
}

func (s *scratchSet) cleanup() {
	for _, path := range s.files {
		os.Remove(path)
	}
}
