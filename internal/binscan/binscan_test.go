package binscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBinary(t *testing.T, chunks ...[]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "candidate.bin")

	var data []byte
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}

	require.NoError(t, os.WriteFile(path, data, 0755))

	return path
}

func TestFindBannerBetweenNulBytes(t *testing.T) {
	t.Parallel()

	path := writeBinary(t,
		[]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02},
		[]byte("garbage\x00"),
		[]byte("Microsoft (R) C/C++ Optimizing Compiler Version 19.36.32532 for x64"),
		[]byte{0x00, 0xff, 0xfe},
	)

	match, err := Find(path, `Microsoft \(R\) C/C\+\+ Optimizing Compiler Version (?<version>[\d\.]+) for (?<architecture>\w+)`)
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "19.36.32532", match.Groups["version"])
	assert.Equal(t, "x64", match.Groups["architecture"])
}

func TestFindIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	path := writeBinary(t, []byte("GCC Version 9.4.0\x00"))

	match, err := Find(path, `gcc version (?<version>[0-9.]+)`)
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "9.4.0", match.Groups["version"])
}

func TestFindNoMatch(t *testing.T) {
	t.Parallel()

	path := writeBinary(t, []byte("nothing to see here\x00"))

	match, err := Find(path, `clang version (?<version>[0-9.]+)`)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindAllStopsWhenTold(t *testing.T) {
	t.Parallel()

	path := writeBinary(t, []byte("v=1\x00v=2\x00v=3\x00"))

	var seen []string

	err := FindAll(path, `v=(?<n>\d)`, func(m *Match) bool {
		seen = append(seen, m.Groups["n"])
		return len(seen) < 2
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestFindMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Find(filepath.Join(t.TempDir(), "nope"), "x")
	assert.Error(t, err)
}
