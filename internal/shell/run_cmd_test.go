package shell

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
)

func TestRunCommandCapturesStdout(t *testing.T) {
	t.Parallel()

	opts := options.NewOptionsForTest(t.TempDir())

	out, err := RunCommandWithOutput(context.Background(), log.Discard(), opts, "", nil, "/bin/sh", "-c", "echo hello")
	require.NoError(t, err)

	assert.Equal(t, "hello\n", out.Stdout)
	assert.Empty(t, out.Stderr)
}

func TestRunCommandCapturesStderrAndFailure(t *testing.T) {
	t.Parallel()

	opts := options.NewOptionsForTest(t.TempDir())

	out, err := RunCommandWithOutput(context.Background(), log.Discard(), opts, "", nil, "/bin/sh", "-c", "echo oops >&2; exit 3")
	require.Error(t, err)
	require.NotNil(t, out, "captured output survives the failure")

	assert.Equal(t, "oops\n", out.Stderr)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, out.Combined(), "oops")
}

func TestRunCommandHonorsWorkingDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := options.NewOptionsForTest(dir)

	out, err := RunCommandWithOutput(context.Background(), log.Discard(), opts, dir, nil, "/bin/sh", "-c", "pwd")
	require.NoError(t, err)

	assert.Equal(t, dir, strings.TrimSpace(out.Stdout))
}

func TestRunCommandCancelled(t *testing.T) {
	t.Parallel()

	opts := options.NewOptionsForTest(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunCommandWithOutput(ctx, log.Discard(), opts, "", nil, "/bin/sh", "-c", "sleep 30")
	assert.Error(t, err)
}

func TestEnvWithPathPrefix(t *testing.T) {
	t.Parallel()

	env := []string{"HOME=/home/rex", "PATH=/usr/bin:/bin"}

	patched := EnvWithPathPrefix(env, "/opt/cc/bin")

	assert.Contains(t, patched, "PATH=/opt/cc/bin"+string(os.PathListSeparator)+"/usr/bin:/bin")
	assert.Contains(t, patched, "HOME=/home/rex")
}

func TestEnvWithPathPrefixAddsMissingPath(t *testing.T) {
	t.Parallel()

	patched := EnvWithPathPrefix([]string{"HOME=/home/rex"}, "/opt/cc/bin")

	assert.Contains(t, patched, "PATH=/opt/cc/bin")
}

func TestCompilerEnvPrefixesCompilerDir(t *testing.T) {
	t.Parallel()

	opts := options.NewOptionsForTest(t.TempDir())
	opts.Env = []string{"PATH=/usr/bin"}

	env := CompilerEnv(opts, "/opt/cc/bin/gcc")

	assert.Contains(t, env, "PATH=/opt/cc/bin"+string(os.PathListSeparator)+"/usr/bin")
}
