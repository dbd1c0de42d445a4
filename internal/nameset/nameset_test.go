package nameset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupExactMatches(t *testing.T) {
	names := [][]byte{
		[]byte("id"),
		[]byte("name"),
		[]byte("displayName"),
		[]byte("emails"),
		[]byte("active"),
	}
	s := Build(names)
	for i, n := range names {
		assert.Equal(t, i, s.Lookup(n), "name %q", n)
	}
}

func TestLookupNoMatchSameLength(t *testing.T) {
	names := [][]byte{[]byte("name"), []byte("type")}
	s := Build(names)
	assert.Equal(t, -1, s.Lookup([]byte("zzzz")))
}

func TestLookupNoMatchUnknownLength(t *testing.T) {
	names := [][]byte{[]byte("id"), []byte("name")}
	s := Build(names)
	assert.Equal(t, -1, s.Lookup([]byte("identifier")))
	assert.Equal(t, -1, s.Lookup([]byte("x")))
}

func TestLookupSingleMember(t *testing.T) {
	s := Build([][]byte{[]byte("value")})
	assert.Equal(t, 0, s.Lookup([]byte("value")))
	assert.Equal(t, -1, s.Lookup([]byte("other")))
}

func TestLookupLongNamesCrossingChunkBoundaries(t *testing.T) {
	names := [][]byte{
		[]byte("thisIsAVeryLongPropertyNameIndeedYes"),
		[]byte("thisIsAVeryLongPropertyNameIndeedNo!"),
	}
	s := Build(names)
	assert.Equal(t, 0, s.Lookup(names[0]))
	assert.Equal(t, 1, s.Lookup(names[1]))
}

func TestLookupEmptyName(t *testing.T) {
	s := Build([][]byte{[]byte("a")})
	assert.Equal(t, -1, s.Lookup(nil))
}
