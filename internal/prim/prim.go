// Package prim implements the primitive codecs: bit-exact
// encoding/decoding of integers, floats, decimal, bool, char, and the
// structured primitives (date/time, timespan, GUID, version, URI) built
// on top of them in the sibling files of this package.
//
// Every function here is a thin, allocation-conscious layer over
// internal/writer (append) and internal/reader (the already-classified
// current token); none of them owns buffering or token classification
// themselves.
package prim

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// WriteInt64 writes v as a JSON number with minimum digits.
func WriteInt64[S sym.Symbol](w *writer.Writer[S], v int64) {
	w.BeginValue()
	var buf [20]byte
	b := strconv.AppendInt(buf[:0], v, 10)
	w.WriteVerbatimBytes(b)
}

// WriteUint64 writes v as a JSON number with minimum digits.
func WriteUint64[S sym.Symbol](w *writer.Writer[S], v uint64) {
	w.BeginValue()
	var buf [20]byte
	b := strconv.AppendUint(buf[:0], v, 10)
	w.WriteVerbatimBytes(b)
}

// ReadInt64 reads the current TokenNumber as a signed 64-bit integer,
// rejecting any literal with a fraction or exponent.
func ReadInt64[S sym.Symbol](r *reader.Reader[S]) (int64, error) {
	text, hasFrac, hasExp := r.NumberSpan()
	if hasFrac || hasExp {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("integer")
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("integer")
	}
	return v, nil
}

// ReadUint64 reads the current TokenNumber as an unsigned 64-bit
// integer, rejecting any literal with a fraction, exponent, or sign.
func ReadUint64[S sym.Symbol](r *reader.Reader[S]) (uint64, error) {
	text, hasFrac, hasExp := r.NumberSpan()
	if hasFrac || hasExp || len(text) == 0 || text[0] == '-' {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("unsigned integer")
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("unsigned integer")
	}
	return v, nil
}

// WriteFloat64 writes v using the shortest decimal representation that
// round-trips exactly. Non-finite values are a format-error: the
// contract places the finiteness obligation on the caller.
func WriteFloat64[S sym.Symbol](w *writer.Writer[S], v float64) {
	if isNonFinite(v) {
		w.Fail(jsonerr.ErrNonFinite)
		return
	}
	w.BeginValue()
	buf := make([]byte, 0, 32)
	buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	w.WriteVerbatimBytes(buf)
}

// WriteFloat32 writes v using the shortest 32-bit round-trip
// representation.
func WriteFloat32[S sym.Symbol](w *writer.Writer[S], v float32) {
	if isNonFinite(float64(v)) {
		w.Fail(jsonerr.ErrNonFinite)
		return
	}
	w.BeginValue()
	buf := make([]byte, 0, 24)
	buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	w.WriteVerbatimBytes(buf)
}

func isNonFinite(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// ReadFloat64 parses the current TokenNumber as a double.
func ReadFloat64[S sym.Symbol](r *reader.Reader[S]) (float64, error) {
	text, _, _ := r.NumberSpan()
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("double")
	}
	return v, nil
}

// ReadFloat32 parses the current TokenNumber as a 32-bit float.
func ReadFloat32[S sym.Symbol](r *reader.Reader[S]) (float32, error) {
	text, _, _ := r.NumberSpan()
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("float")
	}
	return float32(v), nil
}

// WriteDecimal writes d as a raw JSON number, preserving its full
// precision: shopspring/decimal is arbitrary-precision and String()
// drops no digits.
func WriteDecimal[S sym.Symbol](w *writer.Writer[S], d decimal.Decimal) {
	w.BeginValue()
	w.WriteVerbatimBytes([]byte(d.String()))
}

// ReadDecimal parses the current TokenNumber as an arbitrary-precision
// decimal, delegating digit-exact parsing to shopspring/decimal.
func ReadDecimal[S sym.Symbol](r *reader.Reader[S]) (decimal.Decimal, error) {
	text, _, _ := r.NumberSpan()
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, jsonerr.ErrInvalidNumber.At(r.Offset()).WithValueType("decimal")
	}
	return d, nil
}

// WriteBool writes v as `true`/`false`.
func WriteBool[S sym.Symbol](w *writer.Writer[S], v bool) { w.WriteBool(v) }

// ReadBool returns the boolean value of the current TokenTrue/TokenFalse.
func ReadBool[S sym.Symbol](r *reader.Reader[S]) (bool, error) {
	switch r.TokenType() {
	case reader.TokenTrue:
		return true, nil
	case reader.TokenFalse:
		return false, nil
	default:
		return false, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("boolean")
	}
}

// Char is a named rune type identifying a member that serializes as a
// one-character JSON string rather than as the JSON number a bare Go
// rune/int32 field would produce.
type Char rune

// WriteChar writes a single rune as a one-character JSON string.
func WriteChar[S sym.Symbol](w *writer.Writer[S], c rune) {
	w.WriteString(string(c))
}

// ReadChar reads the current TokenString as exactly one decoded code
// point.
func ReadChar[S sym.Symbol](r *reader.Reader[S]) (rune, error) {
	s, err := r.StringValue()
	if err != nil {
		return 0, err
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("single-character string")
	}
	return runes[0], nil
}
