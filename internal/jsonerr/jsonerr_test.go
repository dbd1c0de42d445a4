package jsonerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKindNotIdentity(t *testing.T) {
	specialized := ErrUnexpectedEOF.At(12)
	assert.True(t, errors.Is(specialized, ErrUnexpectedEOF))
	assert.False(t, errors.Is(specialized, ErrInvalidEscape))
}

func TestAtLineCarriesLineAndColumn(t *testing.T) {
	err := ErrTrailingCommaDisallowed.AtLine(40, 3, 7)
	assert.Equal(t, 40, err.Offset)
	assert.Equal(t, 3, err.Line)
	assert.Equal(t, 7, err.Column)
	assert.Contains(t, err.Error(), "line 3, column 7")
}

func TestWithExpectedAppearsInMessage(t *testing.T) {
	err := ErrUnexpectedToken.At(5).WithExpected("value")
	assert.Contains(t, err.Error(), "expected value")
}

func TestPrototypeUnmodifiedByDerivedCopies(t *testing.T) {
	_ = ErrUnexpectedEOF.At(99).WithExpected("string")
	assert.Equal(t, 0, ErrUnexpectedEOF.Offset)
	assert.Equal(t, "", ErrUnexpectedEOF.Expected)
}

func TestIncompleteMessageIgnoresPosition(t *testing.T) {
	err := ErrIncomplete.At(0)
	assert.Equal(t, "json: incomplete input", err.Error())
}
