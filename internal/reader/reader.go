// Package reader implements the incremental JSON tokenizer: a
// forward-only, symbol-width-generic token scanner with whitespace
// skipping, string scanning delegated to internal/escape, number
// grammar validation, comment handling, trailing-comma tolerance, a
// bit-stack depth tracker, and a segmented mode whose incomplete-data
// protocol rolls state back to the last token boundary and resumes
// when more input arrives.
package reader

import (
	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/guard"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/sym"
)

// TokenType enumerates per-token outcomes.
type TokenType int

const (
	TokenNone TokenType = iota
	TokenBeginObject
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenPropertyName
	TokenString
	TokenNumber
	TokenTrue
	TokenFalse
	TokenNull
	TokenComment
	TokenEOF
)

// CommentHandling selects how `//` and `/* */` comments are treated.
type CommentHandling int

const (
	CommentDisallow CommentHandling = iota
	CommentSkip
	CommentPreserve
)

// Options configures a Reader.
type Options struct {
	MaxDepth            int // 0 selects guard.DefaultCeiling
	AllowTrailingCommas bool
	CommentHandling     CommentHandling
}

// bitStack is a compact container-kind stack: one bit per open
// container, 1 = object, 0 = array, backed by a small inline word plus
// an overflow slice.
type bitStack struct {
	inline   uint64
	overflow []bool
	n        int
}

func (s *bitStack) push(isObject bool) {
	if s.n < 64 {
		if isObject {
			s.inline |= 1 << uint(s.n)
		} else {
			s.inline &^= 1 << uint(s.n)
		}
	} else {
		s.overflow = append(s.overflow, isObject)
	}
	s.n++
}

func (s *bitStack) pop() (isObject bool, ok bool) {
	if s.n == 0 {
		return false, false
	}
	s.n--
	if s.n < 64 {
		return s.inline&(1<<uint(s.n)) != 0, true
	}
	idx := s.n - 64
	v := s.overflow[idx]
	s.overflow = s.overflow[:idx]
	return v, true
}

func (s *bitStack) current() (isObject bool, ok bool) {
	if s.n == 0 {
		return false, false
	}
	if s.n-1 < 64 {
		return s.inline&(1<<uint(s.n-1)) != 0, true
	}
	return s.overflow[len(s.overflow)-1], true
}

func (s *bitStack) depth() int { return s.n }

func (s *bitStack) snapshot() bitStack {
	cp := *s
	cp.overflow = append([]bool(nil), s.overflow...)
	return cp
}

// Reader is the generic forward-only token scanner.
type Reader[S sym.Symbol] struct {
	src   []S
	pos   int
	line  int
	col   int
	stack bitStack
	opts  Options
	depth *guard.Guard

	tokType  TokenType
	tokStart int
	tokEnd   int
	// numberHasExponent records whether the most recently scanned number
	// literal used exponent notation, for precise re-parse.
	numberHasExponent bool
	// numberHasFraction records a '.' in the literal.
	numberHasFraction bool

	// lastSkippedComma flags that the most recently skipped insignificant
	// token was a ',' (possibly with an intervening comment), so the
	// next container-end check can reject it as a disallowed trailing
	// comma.
	lastSkippedComma bool

	// final is false only for a SegmentedReader mid-stream: a partial
	// token rolls all state back and reports ErrIncomplete instead of a
	// parse error.
	final bool

	// bomChecked guards the one-time leading-BOM check so it runs
	// exactly once at the true start of the stream, not on every
	// ReadToken call and not again after a segmented reader's Feed
	// resets pos to 0.
	bomChecked bool

	err *jsonerr.Error
}

// New returns a whole-buffer Reader over src; it is always "final"
// (no incomplete-data protocol).
func New[S sym.Symbol](src []S, opts Options) *Reader[S] {
	return &Reader[S]{
		src:   src,
		line:  1,
		opts:  opts,
		depth: guard.New(opts.MaxDepth),
		final: true,
	}
}

// NewSegmented returns a Reader with no initial data, to be driven via
// Feed/SetFinal and the incomplete-data protocol: a partial token at
// the end of the current buffer reports ErrIncomplete instead of a
// parse error, and the next Feed resumes from the rolled-back
// position.
func NewSegmented[S sym.Symbol](opts Options) *Reader[S] {
	return &Reader[S]{
		line:  1,
		opts:  opts,
		depth: guard.New(opts.MaxDepth),
		final: false,
	}
}

// Feed appends more data for a segmented reader to continue from the
// position it rolled back to after the last ErrIncomplete.
func (r *Reader[S]) Feed(data []S) {
	if r.pos > 0 {
		r.src = append(r.src[r.pos:], data...)
		r.tokStart -= r.pos
		r.tokEnd -= r.pos
		r.pos = 0
	} else {
		r.src = append(r.src, data...)
	}
}

// SetFinal marks whether the current buffer is the last segment; once
// final, a partial token is a genuine parse error rather than
// ErrIncomplete.
func (r *Reader[S]) SetFinal(final bool) { r.final = final }

// Offset returns the current byte/symbol read position.
func (r *Reader[S]) Offset() int { return r.pos }

// Line returns the current 1-based line number.
func (r *Reader[S]) Line() int { return r.line }

// Column returns the current byte-in-line.
func (r *Reader[S]) Column() int { return r.col }

// Depth returns the current container nesting depth.
func (r *Reader[S]) Depth() int { return r.stack.depth() }

// TokenType returns the most recently read token's type.
func (r *Reader[S]) TokenType() TokenType { return r.tokType }

func (r *Reader[S]) errAt(proto *jsonerr.Error, offset int) *jsonerr.Error {
	return proto.AtLine(offset, r.line, r.col)
}

type snapshot struct {
	pos, line, col   int
	stack            bitStack
	tokType          TokenType
	tokStart, tokEnd int
	lastSkippedComma bool
	depth            int
}

func (r *Reader[S]) snapshot() snapshot {
	return snapshot{
		pos: r.pos, line: r.line, col: r.col,
		stack:    r.stack.snapshot(),
		tokType:  r.tokType,
		tokStart: r.tokStart, tokEnd: r.tokEnd,
		lastSkippedComma: r.lastSkippedComma,
		depth:            r.depth.Depth(),
	}
}

func (r *Reader[S]) restore(s snapshot) {
	r.pos, r.line, r.col = s.pos, s.line, s.col
	r.stack = s.stack
	r.tokType = s.tokType
	r.tokStart, r.tokEnd = s.tokStart, s.tokEnd
	r.lastSkippedComma = s.lastSkippedComma
	for r.depth.Depth() > s.depth {
		r.depth.Exit()
	}
}

func (r *Reader[S]) incomplete(snap snapshot) error {
	r.restore(snap)
	return jsonerr.ErrIncomplete
}

// peek returns the symbol at pos+offset and whether it exists.
func (r *Reader[S]) peek(offset int) (S, bool) {
	i := r.pos + offset
	if i >= len(r.src) {
		return 0, false
	}
	return r.src[i], true
}

func (r *Reader[S]) advance() {
	c := r.src[r.pos]
	r.pos++
	if c == sym.C[S]('\n') {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
}

func (r *Reader[S]) skipWhitespace() {
	for r.pos < len(r.src) {
		switch r.src[r.pos] {
		case sym.C[S](' '), sym.C[S]('\t'), sym.C[S]('\r'), sym.C[S]('\n'):
			r.advance()
		default:
			return
		}
	}
}

// checkBOM rejects a leading byte-order mark, once, at the true start
// of the stream. A segmented reader short on bytes to decide simply
// waits for the next Feed rather than erroring early.
func (r *Reader[S]) checkBOM() error {
	if r.bomChecked || r.pos != 0 {
		return nil
	}
	if sym.IsByteLane[S]() {
		if len(r.src) < 3 {
			if !r.final {
				return nil
			}
			r.bomChecked = true
			return nil
		}
		if r.src[0] == sym.C[S](0xEF) && r.src[1] == sym.C[S](0xBB) && r.src[2] == sym.C[S](0xBF) {
			r.bomChecked = true
			return r.errAt(jsonerr.ErrBOMNotAllowed, 0)
		}
		r.bomChecked = true
		return nil
	}
	if len(r.src) < 1 {
		if !r.final {
			return nil
		}
		r.bomChecked = true
		return nil
	}
	if uint16(r.src[0]) == 0xFEFF {
		r.bomChecked = true
		return r.errAt(jsonerr.ErrBOMNotAllowed, 0)
	}
	r.bomChecked = true
	return nil
}

// ReadToken scans and classifies the next token. It returns the token
// type, or an error (jsonerr.ErrIncomplete when a segmented reader hits
// a partial token at the end of its current buffer).
func (r *Reader[S]) ReadToken() (TokenType, error) {
	for {
		snap := r.snapshot()
		if err := r.checkBOM(); err != nil {
			return TokenNone, err
		}
		r.skipWhitespace()
		if r.pos >= len(r.src) {
			if !r.final {
				return TokenNone, r.incomplete(snap)
			}
			r.tokType = TokenEOF
			return TokenEOF, nil
		}

		c := r.src[r.pos]
		switch {
		case c == sym.C[S]('{'):
			return r.readBeginContainer(true)
		case c == sym.C[S]('['):
			return r.readBeginContainer(false)
		case c == sym.C[S]('}'):
			return r.readEndContainer(true)
		case c == sym.C[S](']'):
			return r.readEndContainer(false)
		case c == sym.C[S]('"'):
			return r.readString(snap)
		case c == sym.C[S]('-') || isDigit(c):
			return r.readNumber(snap)
		case c == sym.C[S]('t'):
			return r.readLiteral(snap, "true", TokenTrue)
		case c == sym.C[S]('f'):
			return r.readLiteral(snap, "false", TokenFalse)
		case c == sym.C[S]('n'):
			return r.readLiteral(snap, "null", TokenNull)
		case c == sym.C[S](','):
			r.advance()
			r.lastSkippedComma = true
			continue
		case c == sym.C[S](':'):
			r.advance()
			continue
		case c == sym.C[S]('/'):
			if err := r.scanComment(snap); err != nil {
				return TokenNone, err
			}
			if r.opts.CommentHandling == CommentPreserve {
				r.tokType = TokenComment
				return TokenComment, nil
			}
			continue // CommentSkip: loop back for the next real token
		default:
			r.err = r.errAt(jsonerr.ErrUnexpectedToken, r.pos)
			return TokenNone, r.err
		}
	}
}

func isDigit[S sym.Symbol](c S) bool { return c >= sym.C[S]('0') && c <= sym.C[S]('9') }

func (r *Reader[S]) readBeginContainer(isObject bool) (TokenType, error) {
	r.lastSkippedComma = false
	if !r.depth.Enter() {
		r.err = r.errAt(jsonerr.ErrDepthExceeded, r.pos)
		return TokenNone, r.err
	}
	r.stack.push(isObject)
	r.advance()
	if isObject {
		r.tokType = TokenBeginObject
	} else {
		r.tokType = TokenBeginArray
	}
	return r.tokType, nil
}

func (r *Reader[S]) readEndContainer(isObject bool) (TokenType, error) {
	wantObject, ok := r.stack.current()
	if !ok || wantObject != isObject {
		r.err = r.errAt(jsonerr.ErrMismatchedContainer, r.pos)
		return TokenNone, r.err
	}
	r.stack.pop()
	r.depth.Exit()
	r.advance()
	if r.lastSkippedComma && !r.opts.AllowTrailingCommas {
		r.lastSkippedComma = false
		r.err = r.errAt(jsonerr.ErrTrailingCommaDisallowed, r.pos)
		return TokenNone, r.err
	}
	r.lastSkippedComma = false
	if isObject {
		r.tokType = TokenEndObject
	} else {
		r.tokType = TokenEndArray
	}
	return r.tokType, nil
}

func (r *Reader[S]) readString(snap snapshot) (TokenType, error) {
	r.lastSkippedComma = false
	start := r.pos + 1
	u, err := escape.ScanString(r.src, start)
	if err != nil {
		if je, ok := err.(*jsonerr.Error); ok && je.Kind == jsonerr.KindUnexpectedEOF && !r.final {
			return TokenNone, r.incomplete(snap)
		}
		r.err, _ = err.(*jsonerr.Error)
		if r.err == nil {
			r.err = jsonerr.ErrUnexpectedEOF.At(r.pos)
		}
		return TokenNone, err
	}
	// advance past the value and the closing quote
	for r.pos <= u.End {
		r.advance()
	}
	r.tokStart, r.tokEnd = start, u.End
	r.tokType = TokenString
	return TokenString, nil
}

// StringValue returns the decoded value of the most recently read
// TokenString, including a property name read via PropertyNameUTF8.
func (r *Reader[S]) StringValue() (string, error) {
	u, err := escape.ScanString(r.src, r.tokStart)
	if err != nil {
		return "", err
	}
	return u.Value, nil
}

// PropertyNameUTF8 reads a property name token and returns its decoded
// value as UTF-8 bytes, regardless of the reader's symbol lane, for
// dispatch by the property-name matcher (which always compares UTF-8
// bytes, even for UTF-16 sources).
func (r *Reader[S]) PropertyNameUTF8() ([]byte, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return nil, err
	}
	if tt != TokenString {
		r.err = r.errAt(jsonerr.ErrUnexpectedToken.WithExpected("property name"), r.tokStart)
		return nil, r.err
	}
	u, err := escape.ScanString(r.src, r.tokStart)
	if err != nil {
		return nil, err
	}
	return []byte(u.Value), nil
}

func (r *Reader[S]) readNumber(snap snapshot) (TokenType, error) {
	r.lastSkippedComma = false
	start := r.pos
	i := r.pos
	n := len(r.src)
	hasExp, hasFrac := false, false

	if i < n && r.src[i] == sym.C[S]('-') {
		i++
	}
	if i >= n {
		if !r.final {
			return TokenNone, r.incomplete(snap)
		}
		r.err = r.errAt(jsonerr.ErrInvalidNumber, i)
		return TokenNone, r.err
	}
	if r.src[i] == sym.C[S]('0') {
		i++
	} else if isDigit(r.src[i]) {
		for i < n && isDigit(r.src[i]) {
			i++
		}
	} else {
		r.err = r.errAt(jsonerr.ErrInvalidNumber, i)
		return TokenNone, r.err
	}

	if i < n && r.src[i] == sym.C[S]('.') {
		hasFrac = true
		i++
		if i >= n || !isDigit(r.src[i]) {
			if i >= n && !r.final {
				return TokenNone, r.incomplete(snap)
			}
			r.err = r.errAt(jsonerr.ErrInvalidNumber, i)
			return TokenNone, r.err
		}
		for i < n && isDigit(r.src[i]) {
			i++
		}
	}

	if i < n && (r.src[i] == sym.C[S]('e') || r.src[i] == sym.C[S]('E')) {
		hasExp = true
		j := i + 1
		if j < n && (r.src[j] == sym.C[S]('+') || r.src[j] == sym.C[S]('-')) {
			j++
		}
		if j >= n || !isDigit(r.src[j]) {
			if j >= n && !r.final {
				return TokenNone, r.incomplete(snap)
			}
			r.err = r.errAt(jsonerr.ErrInvalidNumber, j)
			return TokenNone, r.err
		}
		for j < n && isDigit(r.src[j]) {
			j++
		}
		i = j
	}

	// If this isn't the final segment, we can't be sure the number
	// literal is complete (a following digit might be in the next
	// chunk); only safe to commit once we've seen a char that cannot
	// extend a number, or we've hit final.
	if !r.final && i >= n {
		return TokenNone, r.incomplete(snap)
	}

	for r.pos < i {
		r.advance()
	}
	r.tokStart, r.tokEnd = start, i
	r.numberHasExponent, r.numberHasFraction = hasExp, hasFrac
	r.tokType = TokenNumber
	return TokenNumber, nil
}

// NumberSpan returns the raw textual span of the most recently read
// number token plus whether it used fraction/exponent notation.
func (r *Reader[S]) NumberSpan() (text string, hasFraction, hasExponent bool) {
	return sym.String(r.src[r.tokStart:r.tokEnd]), r.numberHasFraction, r.numberHasExponent
}

func (r *Reader[S]) readLiteral(snap snapshot, lit string, tt TokenType) (TokenType, error) {
	r.lastSkippedComma = false
	n := len(r.src)
	if r.pos+len(lit) > n {
		if !r.final {
			return TokenNone, r.incomplete(snap)
		}
		r.err = r.errAt(jsonerr.ErrUnknownLiteral, r.pos)
		return TokenNone, r.err
	}
	for k := 0; k < len(lit); k++ {
		if r.src[r.pos+k] != sym.C[S](lit[k]) {
			r.err = r.errAt(jsonerr.ErrUnknownLiteral, r.pos)
			return TokenNone, r.err
		}
	}
	for k := 0; k < len(lit); k++ {
		r.advance()
	}
	r.tokType = tt
	return tt, nil
}

// scanComment consumes one `//...` or `/*...*/` comment, recording its
// span in tokStart/tokEnd. The caller decides whether to surface it as
// a TokenComment (CommentPreserve) or loop past it (CommentSkip).
func (r *Reader[S]) scanComment(snap snapshot) error {
	if r.opts.CommentHandling == CommentDisallow {
		r.err = r.errAt(jsonerr.ErrUnexpectedToken.WithExpected("value (comments disallowed)"), r.pos)
		return r.err
	}
	second, ok := r.peek(1)
	if !ok {
		if !r.final {
			return r.incomplete(snap)
		}
		r.err = r.errAt(jsonerr.ErrUnexpectedEOF, r.pos)
		return r.err
	}
	start := r.pos
	switch second {
	case sym.C[S]('/'):
		r.advance()
		r.advance()
		for r.pos < len(r.src) && r.src[r.pos] != sym.C[S]('\n') {
			r.advance()
		}
	case sym.C[S]('*'):
		r.advance()
		r.advance()
		closed := false
		for r.pos+1 < len(r.src) {
			if r.src[r.pos] == sym.C[S]('*') && r.src[r.pos+1] == sym.C[S]('/') {
				r.advance()
				r.advance()
				closed = true
				break
			}
			r.advance()
		}
		if !closed {
			if !r.final {
				return r.incomplete(snap)
			}
			r.err = r.errAt(jsonerr.ErrUnexpectedEOF.WithValueType("comment"), r.pos)
			return r.err
		}
	default:
		r.err = r.errAt(jsonerr.ErrUnexpectedToken, r.pos)
		return r.err
	}
	r.tokStart, r.tokEnd = start, r.pos
	return nil
}

// CommentText returns the raw text of the most recently read comment
// token (CommentPreserve mode only).
func (r *Reader[S]) CommentText() string {
	return sym.String(r.src[r.tokStart:r.tokEnd])
}

// More reports whether another value is available before the current
// container's closing delimiter, peeking past whitespace, one
// separating comma, and (when enabled) comments, without consuming
// anything.
func (r *Reader[S]) More() bool {
	snap := r.snapshot()
	seenComma := false
	for {
		r.skipWhitespace()
		if r.pos >= len(r.src) {
			break
		}
		c := r.src[r.pos]
		if c == sym.C[S](',') && !seenComma {
			seenComma = true
			r.advance()
			continue
		}
		if c == sym.C[S]('/') && r.opts.CommentHandling != CommentDisallow && r.skipCommentLite() {
			continue
		}
		break
	}
	more := r.pos < len(r.src) && r.src[r.pos] != sym.C[S]('}') && r.src[r.pos] != sym.C[S](']')
	r.restore(snap)
	return more
}

// skipCommentLite advances past one comment without error reporting; on
// a malformed or unterminated comment it reports false and leaves the
// position on the '/' so the next ReadToken surfaces the real error.
func (r *Reader[S]) skipCommentLite() bool {
	second, ok := r.peek(1)
	if !ok {
		return false
	}
	switch second {
	case sym.C[S]('/'):
		r.advance()
		r.advance()
		for r.pos < len(r.src) && r.src[r.pos] != sym.C[S]('\n') {
			r.advance()
		}
		return true
	case sym.C[S]('*'):
		r.advance()
		r.advance()
		for r.pos+1 < len(r.src) {
			if r.src[r.pos] == sym.C[S]('*') && r.src[r.pos+1] == sym.C[S]('/') {
				r.advance()
				r.advance()
				return true
			}
			r.advance()
		}
		return false
	default:
		return false
	}
}

// SkipValue advances past the entire next value, recursing through
// containers while tracking depth.
func (r *Reader[S]) SkipValue() error {
	tt, err := r.ReadToken()
	if err != nil {
		return err
	}
	switch tt {
	case TokenBeginObject:
		for {
			if !r.More() {
				if _, err := r.ReadToken(); err != nil { // consumes '}'
					return err
				}
				return nil
			}
			if _, err := r.PropertyNameUTF8(); err != nil {
				return err
			}
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	case TokenBeginArray:
		for {
			if !r.More() {
				if _, err := r.ReadToken(); err != nil { // consumes ']'
					return err
				}
				return nil
			}
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	default:
		return nil // primitive already consumed by ReadToken
	}
}

// PeekNull reports whether the next token is `null`. If so, it is
// consumed (the reader advances past it) so the caller can treat the
// member as absent. If not, the reader is left exactly as it was, so a
// formatter can re-read the same token via its own ReadToken call (used
// by the nullable-member wrapper to decide between "null" and
// delegating to the underlying value's formatter).
func (r *Reader[S]) PeekNull() (bool, error) {
	snap := r.snapshot()
	tt, err := r.ReadToken()
	if err != nil {
		return false, err
	}
	if tt == TokenNull {
		return true, nil
	}
	r.restore(snap)
	return false, nil
}

// RawSpan reads and returns the exact UTF-8 text of the next complete
// value (primitive or container), without interpreting it, for the
// untyped dynamic-value bridge.
func (r *Reader[S]) RawSpan() (string, error) {
	r.skipWhitespace()
	start := r.pos
	if err := r.SkipValue(); err != nil {
		return "", err
	}
	return sym.String(r.src[start:r.pos]), nil
}

// Err returns the first error encountered, if any.
func (r *Reader[S]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}
