// Package writer implements the output buffer: a growing, contiguous,
// pooled buffer generic over the symbol lane, exposing the
// append-primitive JSON operations, precomputed verbatim writes, and
// the WriteName operation the composite formatter generator uses to
// emit member names.
package writer

import (
	"sync"

	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/guard"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/sym"
)

var (
	bytePool = sync.Pool{New: func() any { b := make([]byte, 0, 256); return &b }}
	u16Pool  = sync.Pool{New: func() any { u := make([]uint16, 0, 256); return &u }}
)

func acquire[S sym.Symbol]() []S {
	var zero S
	if _, ok := any(zero).(byte); ok {
		p := bytePool.Get().(*[]byte)
		return any((*p)[:0]).([]S)
	}
	p := u16Pool.Get().(*[]uint16)
	return any((*p)[:0]).([]S)
}

func release[S sym.Symbol](buf []S) {
	var zero S
	if _, ok := any(zero).(byte); ok {
		b := any(buf).([]byte)
		bytePool.Put(&b)
		return
	}
	u := any(buf).([]uint16)
	u16Pool.Put(&u)
}

// Writer is the generic output buffer.
type Writer[S sym.Symbol] struct {
	buf       []S
	err       *jsonerr.Error
	depth     *guard.Guard
	haveValue bool // have we emitted a value/member since the last '{'/'['?
	escMode   escape.Mode
	done      bool // Bytes()/String() has been called; buffer returned to pool
}

// New returns a Writer ready for use, with the given recursion ceiling
// (0 selects guard.DefaultCeiling) and escape mode.
func New[S sym.Symbol](ceiling int, escMode escape.Mode) *Writer[S] {
	return &Writer[S]{
		buf:     acquire[S](),
		depth:   guard.New(ceiling),
		escMode: escMode,
	}
}

// Err returns the first error encountered, if any.
func (w *Writer[S]) Err() error {
	if w.err == nil {
		return nil
	}
	return w.err
}

func (w *Writer[S]) setError(err *jsonerr.Error) {
	if w.err == nil {
		w.err = err.At(len(w.buf))
	}
}

// Fail records err as the writer's first error, if none is already
// recorded. Used by primitive codecs that detect a format-error (e.g.
// a non-finite float) outside the writer's own append operations.
func (w *Writer[S]) Fail(err *jsonerr.Error) { w.setError(err) }

// Len reports the current number of symbols written.
func (w *Writer[S]) Len() int { return len(w.buf) }

func (w *Writer[S]) grow(extra int) {
	if cap(w.buf)-len(w.buf) >= extra {
		return
	}
	needed := len(w.buf) + extra
	newCap := cap(w.buf) * 2
	if newCap < needed {
		newCap = needed
	}
	next := make([]S, len(w.buf), newCap)
	copy(next, w.buf)
	w.buf = next
}

// WriteByte appends a single ASCII structural byte (e.g. ',', ':').
func (w *Writer[S]) WriteByte(b byte) {
	w.grow(1)
	w.buf = append(w.buf, sym.C[S](b))
}

// WriteVerbatim appends a precomputed symbol chunk, already in the
// writer's symbol lane, without escape processing. (The composite
// generator emits member names through WriteName instead.)
func (w *Writer[S]) WriteVerbatim(chunk []S) {
	w.grow(len(chunk))
	w.buf = append(w.buf, chunk...)
}

// WriteVerbatimBytes appends a precomputed ASCII byte chunk, converting
// it into the writer's symbol lane. Every byte must be < 0x80.
func (w *Writer[S]) WriteVerbatimBytes(chunk []byte) {
	w.grow(len(chunk))
	for _, b := range chunk {
		w.buf = append(w.buf, sym.C[S](b))
	}
}

// WriteNameSeparator writes `:`.
func (w *Writer[S]) WriteNameSeparator() { w.WriteByte(':') }

// WriteValueSeparator writes `,`.
func (w *Writer[S]) WriteValueSeparator() { w.WriteByte(',') }

// BeginValue must be called before writing any member/array-element
// value; it emits the separating comma when this is not the first value
// in the current container.
func (w *Writer[S]) BeginValue() {
	if w.haveValue {
		w.WriteValueSeparator()
	}
	w.haveValue = true
}

// WriteName writes `"name":` as a single operation, handling the
// preceding comma via BeginValue. escapedName is UTF-8 and may hold
// non-ASCII bytes; it is re-encoded into the writer's symbol lane.
func (w *Writer[S]) WriteName(escapedName []byte) {
	w.BeginValue()
	w.grow(len(escapedName))
	w.buf = sym.AppendString(w.buf, string(escapedName))
	w.WriteNameSeparator()
	w.haveValue = false // the value that follows is not itself comma-preceded
}

// BeginObject writes `{` and enters a nesting level, failing if the
// recursion ceiling would be exceeded.
func (w *Writer[S]) BeginObject() bool {
	w.BeginValue()
	if !w.depth.Enter() {
		w.setError(jsonerr.ErrWriteDepthExceeded)
		return false
	}
	w.WriteByte('{')
	w.haveValue = false
	return true
}

// EndObject writes `}` and exits the current nesting level.
func (w *Writer[S]) EndObject() {
	w.depth.Exit()
	w.WriteByte('}')
	w.haveValue = true
}

// BeginArray writes `[` and enters a nesting level, failing if the
// recursion ceiling would be exceeded.
func (w *Writer[S]) BeginArray() bool {
	w.BeginValue()
	if !w.depth.Enter() {
		w.setError(jsonerr.ErrWriteDepthExceeded)
		return false
	}
	w.WriteByte('[')
	w.haveValue = false
	return true
}

// EndArray writes `]` and exits the current nesting level.
func (w *Writer[S]) EndArray() {
	w.depth.Exit()
	w.WriteByte(']')
	w.haveValue = true
}

// WriteNull writes `null` as a value.
func (w *Writer[S]) WriteNull() {
	w.BeginValue()
	w.WriteVerbatimBytes(jsonNull)
}

// WriteRawText appends s, a pre-formed valid JSON value already in
// UTF-8 text form, re-encoding it into the writer's symbol lane without
// further escape processing. Crossing lanes through AppendString keeps
// multi-byte characters intact where a raw byte-for-byte copy would
// corrupt them on the UTF-16 lane.
func (w *Writer[S]) WriteRawText(s string) {
	w.BeginValue()
	w.grow(len(s))
	w.buf = sym.AppendString(w.buf, s)
}

// WriteString writes s as an escaped, quoted JSON string value.
func (w *Writer[S]) WriteString(s string) {
	w.BeginValue()
	src := sym.AppendString[S](nil, s)
	w.grow(len(src) + 2)
	w.buf = escape.AppendEscapedString(w.buf, src, w.escMode)
}

var (
	jsonNull  = []byte("null")
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
)

// WriteBool writes true/false as a value.
func (w *Writer[S]) WriteBool(v bool) {
	w.BeginValue()
	if v {
		w.WriteVerbatimBytes(jsonTrue)
	} else {
		w.WriteVerbatimBytes(jsonFalse)
	}
}

// Bytes finalizes the writer, copying the written range into a freshly
// allocated, owned byte slice and returning the pooled backing storage.
// The writer must not be used after calling Bytes or String.
func (w *Writer[S]) Bytes() ([]byte, error) {
	if w.err != nil {
		w.release()
		return nil, w.err
	}
	out := sym.Bytes(w.buf)
	w.release()
	return out, nil
}

// Symbols finalizes the writer into an owned slice of raw symbols in its
// native lane (UTF-8 bytes or UTF-16 code units), without the
// byte-reinterpretation Bytes() performs for the UTF-16 lane. Used by
// callers that want the wire form in its native code-unit width rather
// than always-UTF-8.
func (w *Writer[S]) Symbols() ([]S, error) {
	if w.err != nil {
		w.release()
		return nil, w.err
	}
	out := append([]S(nil), w.buf...)
	w.release()
	return out, nil
}

// String finalizes the writer into an owned Go string.
func (w *Writer[S]) String() (string, error) {
	if w.err != nil {
		w.release()
		return "", w.err
	}
	out := sym.String(w.buf)
	w.release()
	return out, nil
}

func (w *Writer[S]) release() {
	if w.done {
		return
	}
	w.done = true
	release(w.buf)
	w.buf = nil
}
