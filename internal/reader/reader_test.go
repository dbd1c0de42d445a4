package reader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemjson/elemjson/internal/jsonerr"
)

func TestReadTokenBasicObject(t *testing.T) {
	r := New[byte]([]byte(`{"a":1,"b":[true,false,null]}`), Options{})
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenBeginObject, tt)

	name, err := r.PropertyNameUTF8()
	require.NoError(t, err)
	assert.Equal(t, "a", string(name))

	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tt)

	name, err = r.PropertyNameUTF8()
	require.NoError(t, err)
	assert.Equal(t, "b", string(name))

	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenBeginArray, tt)

	for _, want := range []TokenType{TokenTrue, TokenFalse, TokenNull} {
		tt, err = r.ReadToken()
		require.NoError(t, err)
		assert.Equal(t, want, tt)
	}

	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenEndArray, tt)

	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenEndObject, tt)
}

func TestReadTokenRejectsMismatchedContainer(t *testing.T) {
	r := New[byte]([]byte(`{]`), Options{})
	_, err := r.ReadToken()
	require.NoError(t, err)
	_, err = r.ReadToken()
	assert.Error(t, err)
}

func TestReadTokenRejectsTrailingCommaByDefault(t *testing.T) {
	r := New[byte]([]byte(`[1,2,]`), Options{})
	_, err := r.ReadToken() // '['
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = r.ReadToken() // 1, 2
		require.NoError(t, err)
	}
	_, err = r.ReadToken() // ']' with a dangling comma before it
	assert.Error(t, err)
}

func TestReadTokenAllowsTrailingCommaWhenConfigured(t *testing.T) {
	r := New[byte]([]byte(`[1,2,]`), Options{AllowTrailingCommas: true})
	var last TokenType
	var err error
	for {
		last, err = r.ReadToken()
		require.NoError(t, err)
		if last == TokenEndArray {
			break
		}
	}
	assert.Equal(t, TokenEndArray, last)
}

func TestCommentSkippedByDefaultDisallowed(t *testing.T) {
	r := New[byte]([]byte(`// hi
{}`), Options{})
	_, err := r.ReadToken()
	assert.Error(t, err)
}

func TestCommentSkipModeIgnoresComment(t *testing.T) {
	r := New[byte]([]byte(`{"a":1 // trailing comment
}`), Options{CommentHandling: CommentSkip})
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenBeginObject, tt)
	_, err = r.PropertyNameUTF8()
	require.NoError(t, err)
	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tt)
	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenEndObject, tt)
}

func TestCommentPreserveModeReturnsCommentToken(t *testing.T) {
	r := New[byte]([]byte(`/* note */{}`), Options{CommentHandling: CommentPreserve})
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenComment, tt)
	assert.Contains(t, r.CommentText(), "note")
	tt, err = r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenBeginObject, tt)
}

func TestDepthExceededFailsBeyondCeiling(t *testing.T) {
	r := New[byte]([]byte(`[[[[]]]]`), Options{MaxDepth: 2})
	_, err := r.ReadToken() // depth 1
	require.NoError(t, err)
	_, err = r.ReadToken() // depth 2
	require.NoError(t, err)
	_, err = r.ReadToken() // depth 3, exceeds ceiling
	assert.Error(t, err)
}

func TestLeadingBOMRejected(t *testing.T) {
	r := New[byte]([]byte("\xEF\xBB\xBF{}"), Options{})
	_, err := r.ReadToken()
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonerr.ErrBOMNotAllowed))
}

func TestLeadingBOMRejectedUTF16(t *testing.T) {
	r := New[uint16]([]uint16{0xFEFF, '{', '}'}, Options{})
	_, err := r.ReadToken()
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonerr.ErrBOMNotAllowed))
}

func TestNoBOMParsesNormally(t *testing.T) {
	r := New[byte]([]byte(`{}`), Options{})
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenBeginObject, tt)
}

func TestSegmentedReaderResumesAfterIncomplete(t *testing.T) {
	r := NewSegmented[byte](Options{})
	r.Feed([]byte(`{"a":1`))
	_, err := r.ReadToken()
	require.NoError(t, err)
	_, err = r.PropertyNameUTF8()
	require.NoError(t, err)
	_, err = r.ReadToken()
	require.Error(t, err) // number not yet known to be complete

	r.Feed([]byte(`23}`))
	r.SetFinal(true)
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tt)
	text, _, _ := r.NumberSpan()
	assert.Equal(t, "123", text)
}

func TestPeekNullDoesNotConsumeNonNullValue(t *testing.T) {
	r := New[byte]([]byte(`42`), Options{})
	isNull, err := r.PeekNull()
	require.NoError(t, err)
	assert.False(t, isNull)
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tt)
}

func TestSkipValueSkipsNestedStructure(t *testing.T) {
	r := New[byte]([]byte(`{"skip":{"a":[1,2,{"b":3}]},"after":true}`), Options{})
	_, err := r.ReadToken() // '{'
	require.NoError(t, err)
	_, err = r.PropertyNameUTF8() // "skip"
	require.NoError(t, err)
	require.NoError(t, r.SkipValue())
	name, err := r.PropertyNameUTF8()
	require.NoError(t, err)
	assert.Equal(t, "after", string(name))
	tt, err := r.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, TokenTrue, tt)
}
