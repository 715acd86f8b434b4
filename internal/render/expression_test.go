package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearthecowboy/toolscout/pkg/maps"
)

func data(t *testing.T, doc string) *maps.Ordered {
	t.Helper()

	m, err := maps.ParseJSONC([]byte(doc))
	require.NoError(t, err)

	return m
}

func TestEvaluateExpressions(t *testing.T) {
	t.Parallel()

	config := data(t, `{"language": "cpp", "standard": "", "bits": 64}`)

	testCases := []struct {
		expression string
		expected   bool
	}{
		{"language=='cpp'", true},
		{"language=='c'", false},
		{"language==='cpp'", true},
		{"language!=='c'", true},
		{"standard==''", true},
		{"bits==64", true},
		{"bits>32", true},
		{"language=='cpp' && standard==''", true},
		{"language=='c' || bits==64", true},
		{"!(language=='cpp')", false},
		{"", false},
		{"not a ) valid ( expression", false},
	}

	for _, testCase := range testCases {
		actual := Evaluate(testCase.expression, config, nil)
		assert.Equal(t, testCase.expected, actual, "expression %q", testCase.expression)
	}
}

func TestEvaluateRendersBeforeParsing(t *testing.T) {
	t.Parallel()

	config := data(t, `{"language": "cpp"}`)

	resolver := ResolverFunc(func(prefix, expression string) (any, bool) {
		if prefix == "host" && expression == "os" {
			return "linux", true
		}

		return nil, false
	})

	assert.True(t, Evaluate("'${host:os}'=='linux'", config, resolver))
	assert.False(t, Evaluate("'${host:os}'=='windows'", config, resolver))
}

func TestEvaluateUndefinedIdentifiersAreFalsy(t *testing.T) {
	t.Parallel()

	config := data(t, `{}`)

	assert.False(t, Evaluate("missing=='x'", config, nil))
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(float64(1)))
	assert.True(t, Truthy([]any{"a"}))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
}
