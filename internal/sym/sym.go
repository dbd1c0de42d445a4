// Package sym implements the symbol-width abstraction:
// every reader/writer/escape operation in this module is written once,
// generic over the symbol type, and monomorphized by the Go compiler for
// the UTF-8 byte lane and the UTF-16 code-unit lane. There is no third
// lane; instantiating with anything else fails to compile rather than
// surfacing an unsupported-symbol-width error at runtime.
package sym

import "unicode/utf16"

// Symbol is the type-parameter constraint identifying a wire symbol:
// a UTF-8 byte or a UTF-16 code unit.
type Symbol interface {
	~byte | ~uint16
}

// Width reports the symbol width in bytes: 1 for the UTF-8 lane, 2 for
// the UTF-16 lane.
func Width[S Symbol]() int {
	var zero S
	switch any(zero).(type) {
	case byte:
		return 1
	default:
		return 2
	}
}

// IsByteLane reports whether S is the UTF-8 byte lane.
func IsByteLane[S Symbol]() bool {
	var zero S
	_, ok := any(zero).(byte)
	return ok
}

// C converts an ASCII byte constant (a structural character such as
// '{', ':', '-') into the symbol lane. Valid for any code point < 0x80,
// which is every JSON structural character and literal digit.
func C[S Symbol](b byte) S { return S(b) }

// AppendString encodes a Go string into the symbol lane, appending to
// dst: straight bytes for the UTF-8 lane, UTF-16 code units (with
// surrogate pairs for non-BMP runes) for the UTF-16 lane.
func AppendString[S Symbol](dst []S, s string) []S {
	var zero S
	if _, ok := any(zero).(byte); ok {
		for i := 0; i < len(s); i++ {
			dst = append(dst, S(s[i]))
		}
		return dst
	}
	for _, r := range s {
		if r < 0x10000 {
			dst = append(dst, S(r))
			continue
		}
		r1, r2 := utf16.EncodeRune(r)
		dst = append(dst, S(r1), S(r2))
	}
	return dst
}

// AppendRune appends a single rune to dst in the symbol lane.
func AppendRune[S Symbol](dst []S, r rune) []S {
	var zero S
	if _, ok := any(zero).(byte); ok {
		var buf [4]byte
		n := encodeRuneUTF8(buf[:], r)
		for i := 0; i < n; i++ {
			dst = append(dst, S(buf[i]))
		}
		return dst
	}
	if r < 0x10000 {
		return append(dst, S(r))
	}
	r1, r2 := utf16.EncodeRune(r)
	return append(dst, S(r1), S(r2))
}

// String decodes a symbol slice back into a Go string.
func String[S Symbol](src []S) string {
	var zero S
	if _, ok := any(zero).(byte); ok {
		b := make([]byte, len(src))
		for i, v := range src {
			b[i] = byte(v)
		}
		return string(b)
	}
	u := make([]uint16, len(src))
	for i, v := range src {
		u[i] = uint16(v)
	}
	return string(utf16.Decode(u))
}

// Bytes converts a symbol slice to its UTF-8 byte representation
// regardless of lane; used by the property-name dispatcher, which
// always operates on UTF-8 bytes even when the reader is scanning the
// UTF-16 lane.
func Bytes[S Symbol](src []S) []byte {
	var zero S
	if _, ok := any(zero).(byte); ok {
		b := make([]byte, len(src))
		for i, v := range src {
			b[i] = byte(v)
		}
		return b
	}
	return []byte(String(src))
}

// encodeRuneUTF8 is a tiny local copy of utf8.EncodeRune avoiding an
// extra import alias collision in callers that also import unicode/utf8.
func encodeRuneUTF8(buf []byte, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = byte(r)
		return 1
	case r < 0x800:
		buf[0] = 0xC0 | byte(r>>6)
		buf[1] = 0x80 | byte(r)&0x3F
		return 2
	case r < 0x10000:
		buf[0] = 0xE0 | byte(r>>12)
		buf[1] = 0x80 | byte(r>>6)&0x3F
		buf[2] = 0x80 | byte(r)&0x3F
		return 3
	default:
		buf[0] = 0xF0 | byte(r>>18)
		buf[1] = 0x80 | byte(r>>12)&0x3F
		buf[2] = 0x80 | byte(r>>6)&0x3F
		buf[3] = 0x80 | byte(r)&0x3F
		return 4
	}
}
