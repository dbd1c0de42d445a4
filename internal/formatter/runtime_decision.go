package formatter

import (
	"reflect"
	"strconv"

	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/typedesc"
	"github.com/elemjson/elemjson/internal/writer"
)

// escapedKey applies the policy's naming convention and escape mode to a
// runtime string key (an extension-data entry name or a map[string]T
// key), since neither has a precomputed Member.EscapedName — unlike a
// declared member, its JSON name is only known at serialize time.
func escapedKey(name string, policy *Policy) []byte {
	jsonName := typedesc.ApplyConvention(name, policy.Naming)
	return escape.AppendEscapedString[byte](nil, []byte(jsonName), policy.EscapeMode)
}

// runtimeDecisionFormatter handles polymorphic (interface-typed)
// members: the value's actual type, not its declared type, picks the
// formatter at each write. On read, the declared member type is an
// interface, so there is no concrete type to construct; an empty
// interface decodes into the tagged-union dynamic value model, and any
// other (non-empty) interface type fails with unsupported-abstract.
// Resolving the concrete formatter through the cache means any type
// the cache can build -- not a fixed handful -- can fill a polymorphic
// member.
type runtimeDecisionFormatter[S sym.Symbol] struct {
	getter         Getter[S]
	emptyInterface bool
}

func (f *runtimeDecisionFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			w.WriteNull()
			return
		}
		v = v.Elem()
	}
	concrete, err := f.getter.Get(v.Type())
	if err != nil {
		w.Fail(toWriteErr(err))
		return
	}
	concrete.Serialize(w, v, policy)
}

func (f *runtimeDecisionFormatter[S]) Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error) {
	if !f.emptyInterface {
		return reflect.Value{}, jsonerr.ErrUnsupportedAbstract.At(r.Offset())
	}
	val, err := decodeDynamic[S](r, policy)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&val).Elem(), nil
}

func toWriteErr(err error) *jsonerr.Error {
	if je, ok := err.(*jsonerr.Error); ok {
		return je
	}
	return jsonerr.ErrUnsupportedAbstract
}

// decodeDynamic decodes the next value into the untyped model: a
// tagged union of {nil, bool, float64, string, []any, map[string]any}.
// It backs every empty-interface member and the map/extension-data
// value type when declared as `any`.
func decodeDynamic[S sym.Symbol](r *reader.Reader[S], policy *Policy) (any, error) {
	isNull, err := r.PeekNull()
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}

	tt, err := r.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tt {
	case reader.TokenTrue:
		return true, nil
	case reader.TokenFalse:
		return false, nil
	case reader.TokenString:
		return r.StringValue()
	case reader.TokenNumber:
		text, _, _ := r.NumberSpan()
		return jsonNumberToFloat(text), nil
	case reader.TokenBeginArray:
		var out []any
		for {
			if !r.More() {
				if _, err := r.ReadToken(); err != nil {
					return nil, err
				}
				return out, nil
			}
			ev, err := decodeDynamic[S](r, policy)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
	case reader.TokenBeginObject:
		out := make(map[string]any)
		for {
			if !r.More() {
				if _, err := r.ReadToken(); err != nil {
					return nil, err
				}
				return out, nil
			}
			nameBytes, err := r.PropertyNameUTF8()
			if err != nil {
				return nil, err
			}
			ev, err := decodeDynamic[S](r, policy)
			if err != nil {
				return nil, err
			}
			out[string(nameBytes)] = ev
		}
	default:
		return nil, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("value")
	}
}

func jsonNumberToFloat(text string) float64 {
	v, _ := strconv.ParseFloat(text, 64)
	return v
}
