package formatter

import (
	"reflect"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/typedesc"
	"github.com/elemjson/elemjson/internal/writer"
)

// member pairs a typedesc.Member with the formatter its declared type
// resolves to, so the composite closures never touch the resolver cache
// on the hot path.
type member[S sym.Symbol] struct {
	typedesc.Member
	formatter Formatter[S]
}

// compositeFormatter assembles the serializer/deserializer pair for a
// struct type from a built typedesc.Description: `{`/`}` framing, a
// comma toggle (handled by writer.Writer.BeginValue/WriteName), per-
// member exclude-null/should-serialize skipping, extension-data
// iteration, and constructor-vs-property materialization.
type compositeFormatter[S sym.Symbol] struct {
	desc      *typedesc.Description
	members   []member[S]
	extension Formatter[S] // formatter for the extension map's value type, if any (runtime-decision when that type is an interface)
}

func buildComposite[S sym.Symbol](getter Getter[S], t reflect.Type, policy *Policy) (Formatter[S], error) {
	desc, err := typedesc.Build(t, policy.Naming)
	if err != nil {
		return nil, err
	}
	cf := &compositeFormatter[S]{desc: desc}
	cf.members = make([]member[S], len(desc.Members))
	for i, m := range desc.Members {
		f, err := getter.Get(m.Type)
		if err != nil {
			return nil, err
		}
		cf.members[i] = member[S]{Member: m, formatter: f}
	}
	if desc.Extension != nil {
		f, err := getter.Get(desc.Extension.Type.Elem())
		if err != nil {
			return nil, err
		}
		cf.extension = f
	}
	return cf, nil
}

// Serialize writes the struct as a JSON object, one member per
// readable field in declaration order. The writer's own
// BeginObject/EndObject already perform the recursion-depth check, so
// the formatter does not duplicate it.
func (f *compositeFormatter[S]) Serialize(w *writer.Writer[S], v reflect.Value, policy *Policy) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			w.WriteNull()
			return
		}
		v = v.Elem()
	}
	if !w.BeginObject() {
		return
	}

	predicateRecv := v
	if !predicateRecv.CanAddr() {
		c := reflect.New(predicateRecv.Type()).Elem()
		c.Set(predicateRecv)
		predicateRecv = c
	}
	shouldSerialize, hasPredicate := predicateRecv.Addr().Interface().(typedesc.ShouldSerializer)

	for _, m := range f.members {
		fv := v.FieldByIndex(m.Index)
		if (m.ExcludeNull || policy.ExcludeNulls) && fv.IsZero() {
			continue
		}
		if hasPredicate && !shouldSerialize.ShouldSerializeMember(m.JSONName) {
			continue
		}
		w.WriteName(m.EscapedName)
		m.formatter.Serialize(w, fv, policy)
	}

	if f.extension != nil {
		ext := v.FieldByIndex(f.desc.Extension.Index)
		if ext.IsValid() && !ext.IsNil() {
			declared := f.desc.Dispatch
			iter := ext.MapRange()
			for iter.Next() {
				name := iter.Key().String()
				if declared.Lookup([]byte(name)) >= 0 {
					continue // declared member wins over a colliding extension entry
				}
				w.WriteName(escapedKey(name, policy))
				f.extension.Serialize(w, iter.Value(), policy)
			}
		}
	}

	w.EndObject()
}

// Deserialize reads a JSON object, routing each property name through
// the dispatch tree to its member's formatter, collecting unmatched
// properties into the extension map when one is declared, and
// materializing the result through the registered constructor when the
// type has one.
func (f *compositeFormatter[S]) Deserialize(r *reader.Reader[S], policy *Policy) (reflect.Value, error) {
	isNull, err := r.PeekNull()
	if err != nil {
		return reflect.Value{}, err
	}
	if isNull {
		return reflect.Zero(f.desc.Type), nil
	}

	tt, err := r.ReadToken()
	if err != nil {
		return reflect.Value{}, err
	}
	if tt != reader.TokenBeginObject {
		return reflect.Value{}, jsonerr.ErrUnexpectedToken.At(r.Offset()).WithExpected("object")
	}

	var slots []reflect.Value
	out := reflect.New(f.desc.Type).Elem()
	if f.desc.Constructor != nil {
		slots = make([]reflect.Value, len(f.desc.Constructor.ParamMemberIndex))
		for i, memberIdx := range f.desc.Constructor.ParamMemberIndex {
			slots[i] = reflect.Zero(f.desc.Members[memberIdx].Type)
		}
	}

	var extMap reflect.Value
	if f.extension != nil {
		extMap = reflect.MakeMap(f.desc.Extension.Type)
	}

	slotForMember := map[int]int{}
	if f.desc.Constructor != nil {
		for slot, memberIdx := range f.desc.Constructor.ParamMemberIndex {
			slotForMember[memberIdx] = slot
		}
	}

	// Members decoded outside the constructor's parameter list are staged
	// on out and re-applied after the constructor runs; ctorExtra records
	// which, so fields the constructor itself initializes are not
	// clobbered with zero values.
	var ctorExtra []int

	for {
		if !r.More() {
			if _, err := r.ReadToken(); err != nil { // consumes '}'
				return reflect.Value{}, err
			}
			break
		}
		nameBytes, err := r.PropertyNameUTF8()
		if err != nil {
			return reflect.Value{}, err
		}
		idx := f.desc.Dispatch.Lookup(nameBytes)
		if idx < 0 {
			if f.extension != nil {
				val, err := f.extension.Deserialize(r, policy)
				if err != nil {
					return reflect.Value{}, err
				}
				extMap.SetMapIndex(reflect.ValueOf(string(nameBytes)), val)
				continue
			}
			if err := r.SkipValue(); err != nil {
				return reflect.Value{}, err
			}
			continue
		}
		m := f.members[idx]
		val, err := m.formatter.Deserialize(r, policy)
		if err != nil {
			return reflect.Value{}, err
		}
		if slot, ok := slotForMember[idx]; ok {
			slots[slot] = val
			continue
		}
		setMemberValue(out.FieldByIndex(m.Index), val)
		if f.desc.Constructor != nil {
			ctorExtra = append(ctorExtra, idx)
		}
	}

	if f.extension != nil && extMap.Len() > 0 {
		out.FieldByIndex(f.desc.Extension.Index).Set(extMap)
	}

	if f.desc.Constructor != nil {
		results := f.desc.Constructor.Fn.Call(slots)
		constructed := results[0]
		if constructed.Kind() == reflect.Pointer {
			constructed = constructed.Elem()
		}
		hasExt := f.extension != nil && extMap.Len() > 0
		if len(ctorExtra) == 0 && !hasExt {
			return constructed, nil
		}
		// Call results are unaddressable; copy before setting fields.
		merged := reflect.New(f.desc.Type).Elem()
		merged.Set(constructed)
		for _, idx := range ctorExtra {
			m := f.members[idx]
			merged.FieldByIndex(m.Index).Set(out.FieldByIndex(m.Index))
		}
		if hasExt {
			merged.FieldByIndex(f.desc.Extension.Index).Set(extMap)
		}
		return merged, nil
	}
	return out, nil
}

// setMemberValue assigns val into dst, taking the address of val when
// dst is a pointer and val is its pointee (the nullFormatter returns a
// *T for a *T member already, so this is usually a direct Set).
func setMemberValue(dst, val reflect.Value) {
	if dst.Type() == val.Type() {
		dst.Set(val)
		return
	}
	if dst.Kind() == reflect.Pointer && val.Type() == dst.Type().Elem() {
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(val)
		dst.Set(p)
		return
	}
	dst.Set(val.Convert(dst.Type()))
}
