// Package formatter implements the formatter generator: given a
// reflect.Type, it assembles a pair of serializer/deserializer
// closures that read and write that type's JSON shape directly, with
// reflection confined to the one-time Build call (via
// internal/typedesc) rather than appearing on the per-value hot path.
//
// The dispatch decision is made once per (reflect.Type, symbol width)
// pair rather than re-examined on every call.
package formatter

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/prim"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/typedesc"
	"github.com/elemjson/elemjson/internal/writer"
)

// Formatter serializes/deserializes one reflect.Type to/from the given
// symbol lane. Deserialize assumes the reader has not yet read the
// value's first token; it reads everything the value needs, including
// that first token.
type Formatter[S sym.Symbol] interface {
	Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy)
	Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error)
}

// Getter resolves the Formatter for a reflect.Type, consulting (and
// populating) the resolver's cache. internal/resolver implements this;
// internal/formatter depends only on the interface, avoiding an import
// cycle between the two halves of the generator.
type Getter[S sym.Symbol] interface {
	Get(t reflect.Type) (Formatter[S], error)
}

// Policy carries the per-Resolver serialization choices: naming
// convention, null-exclusion, escape mode, trailing-comma tolerance,
// comment handling, and the recursion ceiling.
type Policy struct {
	Naming              typedesc.NamingConvention
	ExcludeNulls        bool
	EscapeMode          escape.Mode
	AllowTrailingCommas bool
	CommentHandling     reader.CommentHandling
	MaxDepth            int
}

// Option configures a Policy via NewPolicy.
type Option func(*Policy)

// WithNaming selects the naming convention used when a member has no
// explicit tag override.
func WithNaming(c typedesc.NamingConvention) Option { return func(p *Policy) { p.Naming = c } }

// WithExcludeNulls skips every zero-valued member on serialize, not
// only those tagged `omitempty`.
func WithExcludeNulls(b bool) Option { return func(p *Policy) { p.ExcludeNulls = b } }

// WithEscapeMode selects the write-side string escape mode.
func WithEscapeMode(m escape.Mode) Option { return func(p *Policy) { p.EscapeMode = m } }

// WithAllowTrailingCommas tolerates one trailing comma before a
// container's closing delimiter on read.
func WithAllowTrailingCommas(b bool) Option { return func(p *Policy) { p.AllowTrailingCommas = b } }

// WithCommentHandling selects how `//`/`/* */` comments are treated on
// read.
func WithCommentHandling(c reader.CommentHandling) Option {
	return func(p *Policy) { p.CommentHandling = c }
}

// WithMaxDepth overrides the recursion ceiling (0 selects the default).
func WithMaxDepth(d int) Option { return func(p *Policy) { p.MaxDepth = d } }

// NewPolicy builds a Policy from zero or more Options.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{}
	for _, o := range opts {
		o(p)
	}
	return p
}

var (
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
	dateTimeType = reflect.TypeOf(prim.DateTime{})
	timeSpanType = reflect.TypeOf(prim.TimeSpan{})
	versionType  = reflect.TypeOf(prim.Version{})
	charType     = reflect.TypeOf(prim.Char(0))
	uriType      = reflect.TypeOf(prim.URI(""))
)

// Build assembles the Formatter for t, dispatching on its reflect.Kind
// (or, for the small set of named structured-primitive types, on exact
// type identity) and recursing into getter.Get for any element/member
// type along the way — which is how a self-referential struct's own
// type resolves to its own in-progress cache slot rather than looping
// forever (see internal/resolver's two-phase thunk installation).
func Build[S sym.Symbol](getter Getter[S], t reflect.Type, policy *Policy) (Formatter[S], error) {
	switch t {
	case decimalType:
		return decimalFormatter[S]{}, nil
	case uuidType:
		return guidFormatter[S]{}, nil
	case dateTimeType:
		return dateTimeFormatter[S]{}, nil
	case timeSpanType:
		return timeSpanFormatter[S]{}, nil
	case versionType:
		return versionFormatter[S]{}, nil
	case charType:
		return charFormatter[S]{}, nil
	case uriType:
		return uriFormatter[S]{}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return stringFormatter[S]{t: t}, nil
	case reflect.Bool:
		return boolFormatter[S]{t: t}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intFormatter[S]{t: t}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintFormatter[S]{t: t}, nil
	case reflect.Float64:
		return float64Formatter[S]{t: t}, nil
	case reflect.Float32:
		return float32Formatter[S]{t: t}, nil

	case reflect.Pointer:
		elem, err := getter.Get(t.Elem())
		if err != nil {
			return nil, err
		}
		return &nullFormatter[S]{elem: elem, elemType: t.Elem()}, nil

	case reflect.Slice, reflect.Array:
		elem, err := getter.Get(t.Elem())
		if err != nil {
			return nil, err
		}
		return &listFormatter[S]{elem: elem, sliceType: t, elemType: t.Elem(), fixed: t.Kind() == reflect.Array}, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, jsonerr.ErrUnsupportedAbstract
		}
		val, err := getter.Get(t.Elem())
		if err != nil {
			return nil, err
		}
		return &mapFormatter[S]{value: val, mapType: t}, nil

	case reflect.Struct:
		return buildComposite(getter, t, policy)

	case reflect.Interface:
		return &runtimeDecisionFormatter[S]{getter: getter, emptyInterface: t.NumMethod() == 0}, nil

	default:
		return nil, jsonerr.ErrUnsupportedAbstract
	}
}
