package formatter

import (
	"reflect"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// nullFormatter wraps a pointer type's element formatter, writing and
// reading `null` for a nil pointer and delegating otherwise.
type nullFormatter[S sym.Symbol] struct {
	elem     Formatter[S]
	elemType reflect.Type
}

func (f *nullFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy) {
	if v.IsNil() {
		w.WriteNull()
		return
	}
	f.elem.Serialize(w, v.Elem(), policy)
}

func (f *nullFormatter[S]) Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error) {
	isNull, err := r.PeekNull()
	if err != nil {
		return reflect.Value{}, err
	}
	if isNull {
		return reflect.Zero(reflect.PointerTo(f.elemType)), nil
	}
	ev, err := f.elem.Deserialize(r, policy)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(f.elemType)
	ptr.Elem().Set(ev)
	return ptr, nil
}

// listFormatter handles a slice or fixed-size array, delegating each
// element to the element type's formatter.
type listFormatter[S sym.Symbol] struct {
	elem      Formatter[S]
	sliceType reflect.Type
	elemType  reflect.Type
	fixed     bool // true for a Go array (fixed length), false for a slice
}

func (f *listFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy) {
	if !w.BeginArray() {
		return
	}
	for i := 0; i < v.Len(); i++ {
		f.elem.Serialize(w, v.Index(i), policy)
	}
	w.EndArray()
}

func (f *listFormatter[S]) Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error) {
	if !f.fixed {
		isNull, err := r.PeekNull()
		if err != nil {
			return reflect.Value{}, err
		}
		if isNull {
			return reflect.Zero(f.sliceType), nil
		}
	}
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenBeginArray {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("array")
	}
	var elems []reflect.Value
	for {
		if !r.More() {
			if _, err := r.ReadToken(); err != nil {
				return reflect.Value{}, err
			}
			break
		}
		ev, err := f.elem.Deserialize(r, policy)
		if err != nil {
			return reflect.Value{}, err
		}
		elems = append(elems, ev)
	}
	if f.fixed {
		out := reflect.New(f.sliceType).Elem()
		for i := 0; i < out.Len() && i < len(elems); i++ {
			out.Index(i).Set(elems[i])
		}
		return out, nil
	}
	out := reflect.MakeSlice(f.sliceType, len(elems), len(elems))
	for i, ev := range elems {
		out.Index(i).Set(ev)
	}
	return out, nil
}

// mapFormatter handles a map[string]T, serialized as a JSON object.
// Only string-keyed maps are supported; any other key type is an
// unsupported-abstract at generation time (caught in Build before a
// mapFormatter is ever constructed).
type mapFormatter[S sym.Symbol] struct {
	value   Formatter[S]
	mapType reflect.Type
}

func (f *mapFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy) {
	if !w.BeginObject() {
		return
	}
	iter := v.MapRange()
	for iter.Next() {
		w.WriteName(escapedKey(iter.Key().String(), policy))
		f.value.Serialize(w, iter.Value(), policy)
	}
	w.EndObject()
}

func (f *mapFormatter[S]) Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error) {
	isNull, err := r.PeekNull()
	if err != nil {
		return reflect.Value{}, err
	}
	if isNull {
		return reflect.Zero(f.mapType), nil
	}
	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenBeginObject {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("object")
	}
	out := reflect.MakeMap(f.mapType)
	for {
		if !r.More() {
			if _, err := r.ReadToken(); err != nil {
				return reflect.Value{}, err
			}
			break
		}
		nameBytes, err := r.PropertyNameUTF8()
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := f.value.Deserialize(r, policy)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(string(nameBytes)), val)
	}
	return out, nil
}
