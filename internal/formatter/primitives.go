package formatter

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/prim"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// The primitive formatters below are value types (not pointers): they
// hold no state beyond, at most, the declared reflect.Type they were
// built for, so a single instance can be shared across every value of
// that type without synchronization.

type stringFormatter[S sym.Symbol] struct{ t reflect.Type }

func (f stringFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	w.WriteString(v.String())
}

func (f stringFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("string")
	}
	s, err := r.StringValue()
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetString(s)
	return out, nil
}

type boolFormatter[S sym.Symbol] struct{ t reflect.Type }

func (f boolFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteBool(w, v.Bool())
}

func (f boolFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	if _, err := r.ReadToken(); err != nil {
		return reflect.Value{}, err
	}
	b, err := prim.ReadBool[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetBool(b)
	return out, nil
}

type intFormatter[S sym.Symbol] struct{ t reflect.Type }

func (f intFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteInt64(w, v.Int())
}

func (f intFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenNumber {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("integer")
	}
	n, err := prim.ReadInt64[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetInt(n)
	return out, nil
}

type uintFormatter[S sym.Symbol] struct{ t reflect.Type }

func (f uintFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteUint64(w, v.Uint())
}

func (f uintFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenNumber {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("unsigned integer")
	}
	n, err := prim.ReadUint64[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetUint(n)
	return out, nil
}

type float64Formatter[S sym.Symbol] struct{ t reflect.Type }

func (f float64Formatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteFloat64(w, v.Float())
}

func (f float64Formatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenNumber {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("number")
	}
	v, err := prim.ReadFloat64[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetFloat(v)
	return out, nil
}

type float32Formatter[S sym.Symbol] struct{ t reflect.Type }

func (f float32Formatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteFloat32(w, float32(v.Float()))
}

func (f float32Formatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenNumber {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("number")
	}
	v, err := prim.ReadFloat32[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(f.t).Elem()
	out.SetFloat(float64(v))
	return out, nil
}

type decimalFormatter[S sym.Symbol] struct{}

func (decimalFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteDecimal(w, v.Interface().(decimal.Decimal))
}

func (decimalFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenNumber {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("decimal")
	}
	d, err := prim.ReadDecimal[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(d), nil
}

type charFormatter[S sym.Symbol] struct{}

func (charFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteChar(w, rune(v.Int()))
}

func (charFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("single-character string")
	}
	c, err := prim.ReadChar[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(prim.Char(c)), nil
}

type uriFormatter[S sym.Symbol] struct{}

func (uriFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteURI(w, v.String())
}

func (uriFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("uri")
	}
	u, err := prim.ReadURI[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(prim.URI(u)), nil
}

type guidFormatter[S sym.Symbol] struct{}

func (guidFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteGUID(w, v.Interface().(uuid.UUID))
}

func (guidFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("guid")
	}
	u, err := prim.ReadGUID[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(u), nil
}

type dateTimeFormatter[S sym.Symbol] struct{}

func (dateTimeFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteDateTime(w, v.Interface().(prim.DateTime))
}

func (dateTimeFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("datetime")
	}
	dt, err := prim.ReadDateTime[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(dt), nil
}

type timeSpanFormatter[S sym.Symbol] struct{}

func (timeSpanFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteTimeSpan(w, v.Interface().(prim.TimeSpan))
}

func (timeSpanFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("timespan")
	}
	ts, err := prim.ReadTimeSpan[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(ts), nil
}

type versionFormatter[S sym.Symbol] struct{}

func (versionFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, _ *Policy) {
	prim.WriteVersion(w, v.Interface().(prim.Version))
}

func (versionFormatter[S]) Deserialize(r *reader.Reader[S], _ *Policy) (reflect.Value, error) {
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenString {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("version")
	}
	v2, err := prim.ReadVersion[S](r)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v2), nil
}
