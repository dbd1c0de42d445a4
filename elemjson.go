// Package elemjson is the thin public convenience surface over the
// core codec engine (internal/resolver, internal/formatter,
// internal/reader, internal/writer): Serialize/Deserialize generic
// entry points plus Marshal/Unmarshal for callers working with
// reflect.Value-shaped dynamic code, and the Resolver policy type.
//
// Everything here is deliberately small; the core lives in internal/.
package elemjson

import (
	"reflect"

	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/formatter"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/resolver"
	"github.com/elemjson/elemjson/internal/typedesc"
	"github.com/elemjson/elemjson/internal/writer"
)

// NamingConvention selects how an untagged struct field name becomes a
// JSON member name.
type NamingConvention = typedesc.NamingConvention

const (
	AsDeclared NamingConvention = typedesc.AsDeclared
	CamelCase  NamingConvention = typedesc.CamelCase
	SnakeCase  NamingConvention = typedesc.SnakeCase
	AdaCase    NamingConvention = typedesc.AdaCase
)

// EscapeMode selects which characters beyond the mandatory JSON set get
// escaped on write.
type EscapeMode = escape.Mode

const (
	EscapeDefault  EscapeMode = escape.ModeDefault
	EscapeNonASCII EscapeMode = escape.ModeEscapeNonASCII
	EscapeHTML     EscapeMode = escape.ModeEscapeHTML
)

// CommentHandling selects how `//` and `/* */` comments are treated on
// read.
type CommentHandling = reader.CommentHandling

const (
	CommentDisallow CommentHandling = reader.CommentDisallow
	CommentSkip     CommentHandling = reader.CommentSkip
	CommentPreserve CommentHandling = reader.CommentPreserve
)

// Option configures a Resolver. See With* below for the available
// policy fields.
type Option = formatter.Option

func WithNaming(c NamingConvention) Option         { return formatter.WithNaming(c) }
func WithExcludeNulls(b bool) Option               { return formatter.WithExcludeNulls(b) }
func WithEscapeMode(m EscapeMode) Option           { return formatter.WithEscapeMode(m) }
func WithAllowTrailingCommas(b bool) Option        { return formatter.WithAllowTrailingCommas(b) }
func WithCommentHandling(c CommentHandling) Option { return formatter.WithCommentHandling(c) }
func WithMaxDepth(d int) Option                    { return formatter.WithMaxDepth(d) }

// RegisterConstructor declares that values of T must be materialized via
// fn at deserialize time, called with one argument per member named in
// paramNames. Call during package initialization, before the first
// Serialize/Deserialize call for T.
func RegisterConstructor(t reflect.Type, paramNames []string, fn any) {
	typedesc.RegisterConstructor(t, paramNames, fn)
}

// Resolver maps every type it is asked about to one type description
// and one formatter pair per symbol lane, both lanes sharing the same
// naming/null/escape/comment/depth policy.
type Resolver struct {
	policy *formatter.Policy
	lane8  *resolver.Cache[byte]
	lane16 *resolver.Cache[uint16]
}

// NewResolver builds a Resolver from zero or more Options. Each call
// produces an independent formatter cache: two Resolvers with identical
// options do not share cached formatters (resolver identity, not merely
// resolver configuration, is part of the cache key).
func NewResolver(opts ...Option) *Resolver {
	p := formatter.NewPolicy(opts...)
	return &Resolver{
		policy: p,
		lane8:  resolver.New[byte](p),
		lane16: resolver.New[uint16](p),
	}
}

var defaultResolver = NewResolver()

func resolverOrDefault(res *Resolver) *Resolver {
	if res == nil {
		return defaultResolver
	}
	return res
}

func typeOf[T any](zero T) reflect.Type {
	t := reflect.TypeOf(zero)
	if t != nil {
		return t
	}
	return reflect.TypeOf((*T)(nil)).Elem()
}

func readerOptions(p *formatter.Policy) reader.Options {
	return reader.Options{
		MaxDepth:            p.MaxDepth,
		AllowTrailingCommas: p.AllowTrailingCommas,
		CommentHandling:     p.CommentHandling,
	}
}

// Serialize encodes v as UTF-8 JSON bytes. res may be nil to use the
// package default resolver (as-declared naming, default escape mode, no
// null exclusion, depth ceiling 64).
func Serialize[T any](v T, res *Resolver) ([]byte, error) {
	res = resolverOrDefault(res)
	f, err := res.lane8.Get(typeOf(v))
	if err != nil {
		return nil, err
	}
	w := writer.New[byte](res.policy.MaxDepth, res.policy.EscapeMode)
	f.Serialize(w, reflect.ValueOf(v), res.policy)
	return w.Bytes()
}

// SerializeToString encodes v as a JSON string.
func SerializeToString[T any](v T, res *Resolver) (string, error) {
	res = resolverOrDefault(res)
	f, err := res.lane8.Get(typeOf(v))
	if err != nil {
		return "", err
	}
	w := writer.New[byte](res.policy.MaxDepth, res.policy.EscapeMode)
	f.Serialize(w, reflect.ValueOf(v), res.policy)
	return w.String()
}

// SerializeUTF16 encodes v into the UTF-16 code-unit lane, for host code
// that keeps strings as 16-bit code units.
func SerializeUTF16[T any](v T, res *Resolver) ([]uint16, error) {
	res = resolverOrDefault(res)
	f, err := res.lane16.Get(typeOf(v))
	if err != nil {
		return nil, err
	}
	w := writer.New[uint16](res.policy.MaxDepth, res.policy.EscapeMode)
	f.Serialize(w, reflect.ValueOf(v), res.policy)
	return w.Symbols()
}

func assignResult[T any](val reflect.Value, t reflect.Type) (T, error) {
	var zero T
	if !val.IsValid() {
		return zero, nil
	}
	if val.Type() == t {
		return val.Interface().(T), nil
	}
	out := reflect.New(t).Elem()
	out.Set(val)
	return out.Interface().(T), nil
}

// Deserialize decodes UTF-8 JSON bytes into a value of type T.
func Deserialize[T any](data []byte, res *Resolver) (T, error) {
	var zero T
	res = resolverOrDefault(res)
	t := typeOf(zero)
	f, err := res.lane8.Get(t)
	if err != nil {
		return zero, err
	}
	r := reader.New[byte](data, readerOptions(res.policy))
	val, err := f.Deserialize(r, res.policy)
	if err != nil {
		return zero, err
	}
	return assignResult[T](val, t)
}

// DeserializeConsumed decodes the single JSON document at the start of
// data and additionally reports how many bytes of data it occupied,
// leaving any trailing whitespace or trailing garbage unread. The
// reported length includes whitespace inside the document but none
// after it.
func DeserializeConsumed[T any](data []byte, res *Resolver) (T, int, error) {
	var zero T
	res = resolverOrDefault(res)
	t := typeOf(zero)
	f, err := res.lane8.Get(t)
	if err != nil {
		return zero, 0, err
	}
	r := reader.New[byte](data, readerOptions(res.policy))
	val, err := f.Deserialize(r, res.policy)
	if err != nil {
		return zero, 0, err
	}
	out, err := assignResult[T](val, t)
	return out, r.Offset(), err
}

// DeserializeString decodes a JSON string into a value of type T.
func DeserializeString[T any](text string, res *Resolver) (T, error) {
	return Deserialize[T]([]byte(text), res)
}

// DeserializeUTF16 decodes a UTF-16 code-unit buffer into a value of
// type T.
func DeserializeUTF16[T any](data []uint16, res *Resolver) (T, error) {
	var zero T
	res = resolverOrDefault(res)
	t := typeOf(zero)
	f, err := res.lane16.Get(t)
	if err != nil {
		return zero, err
	}
	r := reader.New[uint16](data, readerOptions(res.policy))
	val, err := f.Deserialize(r, res.policy)
	if err != nil {
		return zero, err
	}
	return assignResult[T](val, t)
}

// Marshal encodes v, whose concrete type is taken from the interface
// value at call time, mirroring encoding/json.Marshal's non-generic
// signature for callers that only have a reflect.Value / any in hand.
func Marshal(v any, res *Resolver) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	res = resolverOrDefault(res)
	f, err := res.lane8.Get(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	w := writer.New[byte](res.policy.MaxDepth, res.policy.EscapeMode)
	f.Serialize(w, reflect.ValueOf(v), res.policy)
	return w.Bytes()
}

// Unmarshal decodes data into *v, the pointer's pointee type selecting
// the target formatter.
func Unmarshal(data []byte, v any, res *Resolver) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return jsonerr.ErrUnsupportedAbstract
	}
	res = resolverOrDefault(res)
	elemType := rv.Elem().Type()
	f, err := res.lane8.Get(elemType)
	if err != nil {
		return err
	}
	r := reader.New[byte](data, readerOptions(res.policy))
	val, err := f.Deserialize(r, res.policy)
	if err != nil {
		return err
	}
	if val.IsValid() {
		rv.Elem().Set(val)
	}
	return nil
}
