package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemjson/elemjson/internal/escape"
)

func TestWriterObjectWithMembersAndSeparators(t *testing.T) {
	w := New[byte](0, escape.ModeDefault)
	require.True(t, w.BeginObject())
	w.WriteName([]byte(`"name"`))
	w.WriteString("Ada")
	w.WriteName([]byte(`"age"`))
	w.WriteBool(false)
	w.EndObject()
	s, err := w.String()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ada","age":false}`, s)
}

func TestWriterArrayValueSeparators(t *testing.T) {
	w := New[byte](0, escape.ModeDefault)
	require.True(t, w.BeginArray())
	w.BeginValue()
	w.WriteVerbatimBytes([]byte("1"))
	w.BeginValue()
	w.WriteVerbatimBytes([]byte("2"))
	w.EndArray()
	s, err := w.String()
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, s)
}

func TestWriterNullValue(t *testing.T) {
	w := New[byte](0, escape.ModeDefault)
	w.WriteNull()
	s, err := w.String()
	require.NoError(t, err)
	assert.Equal(t, `null`, s)
}

func TestWriterDepthExceededRecordsError(t *testing.T) {
	w := New[byte](1, escape.ModeDefault)
	require.True(t, w.BeginObject())
	w.WriteName([]byte(`"a"`))
	ok := w.BeginObject()
	assert.False(t, ok)
	_, err := w.String()
	assert.Error(t, err)
}

func TestWriterBytesReinterpretsUTF16Lane(t *testing.T) {
	w := New[uint16](0, escape.ModeDefault)
	w.WriteString("hi")
	b, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(b))
}

func TestWriterSymbolsReturnsNativeLane(t *testing.T) {
	w := New[uint16](0, escape.ModeDefault)
	w.WriteBool(true)
	units, err := w.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []uint16{'t', 'r', 'u', 'e'}, units)
}

func TestWriterStringEscapesValue(t *testing.T) {
	w := New[byte](0, escape.ModeDefault)
	w.WriteString(`a"b`)
	s, err := w.String()
	require.NoError(t, err)
	assert.Equal(t, `"a\"b"`, s)
}

func TestWriterWriteRawTextCrossesSymbolLane(t *testing.T) {
	w := New[uint16](0, escape.ModeDefault)
	w.WriteRawText(`{"a":1}`)
	units, err := w.Symbols()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(rune16ToString(units)))
}

func rune16ToString(units []uint16) []byte {
	out := make([]byte, len(units))
	for i, u := range units {
		out[i] = byte(u)
	}
	return out
}

func TestWriterFreshWriterReportsNoError(t *testing.T) {
	w := New[byte](0, escape.ModeDefault)
	assert.NoError(t, w.Err())
	_, err := w.String()
	require.NoError(t, err)
}
