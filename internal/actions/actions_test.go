package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

var testSpecs = []Spec{
	{Name: "match", Flags: []string{"optional", "priority", "oneof"}},
	{Name: "query", Flags: []string{"priority", "c", "cpp", "c++"}},
}

func parseSection(t *testing.T, doc string) *maps.Ordered {
	t.Helper()

	m, err := maps.ParseJSONC([]byte(doc))
	require.NoError(t, err)

	return m
}

func TestParsePositionalOrder(t *testing.T) {
	t.Parallel()

	section := parseSection(t, `{
		"match": {},
		"query": {},
		"match#second pass": {}
	}`)

	parsed := Parse(section, testSpecs)
	require.Len(t, parsed, 3)

	assert.Equal(t, []int{0, 1, 2}, []int{parsed[0].Priority, parsed[1].Priority, parsed[2].Priority})
	assert.Equal(t, "match", parsed[0].Name)
	assert.Equal(t, "query", parsed[1].Name)
	assert.Equal(t, "match", parsed[2].Name)
}

func TestParsePriorityFlagOverridesPosition(t *testing.T) {
	t.Parallel()

	section := parseSection(t, `{
		"query:priority=9": {},
		"match": {}
	}`)

	parsed := Parse(section, testSpecs)
	require.Len(t, parsed, 2)

	assert.Equal(t, "match", parsed[0].Name)
	assert.Equal(t, "query", parsed[1].Name)
}

func TestParseFourLetterSelector(t *testing.T) {
	t.Parallel()

	section := parseSection(t, `{
		"MATCHING#case and suffix ignored": {},
		"querying-the-compiler": {},
		"unknown-action": {}
	}`)

	parsed := Parse(section, testSpecs)
	require.Len(t, parsed, 2)

	assert.Equal(t, "match", parsed[0].Name)
	assert.Equal(t, "query", parsed[1].Name)
}

func TestParseKeepsOnlyLegalFlags(t *testing.T) {
	t.Parallel()

	section := parseSection(t, `{
		"match:oneof,bogus,optional": {}
	}`)

	parsed := Parse(section, testSpecs)
	require.Len(t, parsed, 1)

	assert.True(t, parsed[0].HasFlag("oneof"))
	assert.True(t, parsed[0].HasFlag("optional"))
	assert.False(t, parsed[0].HasFlag("bogus"))
}

func TestParseCommentStripped(t *testing.T) {
	t.Parallel()

	section := parseSection(t, `{
		"match:oneof#try the banner first": {}
	}`)

	parsed := Parse(section, testSpecs)
	require.Len(t, parsed, 1)

	assert.Equal(t, "match:oneof", parsed[0].Key)
	assert.True(t, parsed[0].HasFlag("oneof"))
}

func TestAppliesToLanguage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		flags    string
		language string
		expected bool
	}{
		{"", "c", true},
		{"", "cpp", true},
		{":c", "c", true},
		{":c", "cpp", false},
		{":cpp", "cpp", true},
		{":c++", "cpp", true},
		{":cpp", "c", false},
		{":c,cpp", "c", true},
	}

	for _, testCase := range testCases {
		section := parseSection(t, `{"query`+testCase.flags+`": {}}`)

		parsed := Parse(section, testSpecs)
		require.Len(t, parsed, 1)

		assert.Equal(t, testCase.expected, parsed[0].AppliesToLanguage(testCase.language),
			"flags %q language %q", testCase.flags, testCase.language)
	}
}
