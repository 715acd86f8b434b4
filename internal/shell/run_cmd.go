// Package shell runs compiler subprocesses with captured output.
package shell

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fearthecowboy/toolscout/internal/errors"
	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
)

// Output is the captured result of one subprocess run.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr concatenated, the form query matching
// operates on.
func (o *Output) Combined() string {
	return o.Stdout + o.Stderr
}

// RunCommandWithOutput executes command with args, capturing both output
// streams. Concurrency is bounded by the options subprocess semaphore and
// the process is killed when ctx is cancelled. On failure the output
// captured so far is still returned alongside the error.
func RunCommandWithOutput(
	ctx context.Context,
	l log.Logger,
	opts *options.Options,
	workingDir string,
	env []string,
	command string,
	args ...string,
) (*Output, error) {
	sem := opts.SubprocessSemaphore()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	defer sem.Release(1)

	l.Debugf("Running command: %s %s", command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, command, args...)

	if workingDir != "" {
		cmd.Dir = workingDir
	}

	if env == nil {
		env = opts.Env
	}

	cmd.Env = env

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}

		return out, errors.WithStackTrace(err)
	}

	return out, nil
}

// EnvWithPathPrefix returns env with dir prepended to its PATH entry, so a
// compiler finds the tools that live next to it.
func EnvWithPathPrefix(env []string, dir string) []string {
	if dir == "" {
		return env
	}

	pathKey := "PATH"
	out := make([]string, 0, len(env)+1)
	patched := false

	for _, entry := range env {
		key, value, found := strings.Cut(entry, "=")
		if !found || !envKeyEqual(key, pathKey) {
			out = append(out, entry)
			continue
		}

		out = append(out, key+"="+dir+string(os.PathListSeparator)+value)
		patched = true
	}

	if !patched {
		out = append(out, pathKey+"="+dir)
	}

	return out
}

// CompilerEnv builds the subprocess environment for a compiler at
// compilerPath: the options environment with the compiler's directory
// prefixed onto PATH.
func CompilerEnv(opts *options.Options, compilerPath string) []string {
	return EnvWithPathPrefix(opts.Env, filepath.Dir(compilerPath))
}

func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}
