package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListContainsElement(t *testing.T) {
	t.Parallel()

	assert.True(t, ListContainsElement([]string{"a", "b"}, "b"))
	assert.False(t, ListContainsElement([]string{"a", "b"}, "B"))
	assert.False(t, ListContainsElement([]string{}, "a"))
}

func TestListContainsElementFold(t *testing.T) {
	t.Parallel()

	assert.True(t, ListContainsElementFold([]string{"Cl", "GCC"}, "cl"))
	assert.False(t, ListContainsElementFold([]string{"cl"}, "clang"))
}

func TestRemoveDuplicatesFromList(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"/a", "/b", "/c"},
		RemoveDuplicatesFromList([]string{"/a", "/b", "/a", "/c", "/b"}),
		"first occurrence wins and order is preserved")
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", FirstNonEmpty("", "", "x", "y"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}
