// Package typedesc implements the type-description model: a
// per-(type, naming convention) member list built once via reflect and
// cached, carrying everything the composite formatter generator needs
// to assemble closures without further reflection at steady state.
package typedesc

import (
	"reflect"
	"strings"
	"sync"

	"github.com/elemjson/elemjson/internal/escape"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/nameset"
)

// Member describes one readable/writable field of a composite type.
type Member struct {
	// GoName is the declared Go field name.
	GoName string
	// JSONName is the name produced by the resolver's naming
	// convention (or the explicit tag override).
	JSONName string
	// EscapedName is the precomputed, quoted, escaped UTF-8 byte
	// representation of JSONName, ready for Writer.WriteName.
	EscapedName []byte
	// Index is the reflect.StructField.Index path, for
	// reflect.Value.FieldByIndex.
	Index []int
	// Type is the field's declared type.
	Type reflect.Type
	// ExcludeNull mirrors the `omitempty` tag option: skip the member
	// on serialize when its value is the zero value.
	ExcludeNull bool
	// IsNullable records whether the field is a pointer type.
	IsNullable bool
	// RecursionCandidate records whether this member's type can reach
	// the owning type transitively. The generated formatters do not read
	// it; nesting depth is checked by the writer's and reader's own
	// guards on every container.
	RecursionCandidate bool
}

// ExtensionMember identifies the single map[string]T field, if any,
// that receives JSON members not matched by any declared Member.
type ExtensionMember struct {
	Index []int
	Type  reflect.Type
}

// Constructor maps a registered constructor function's positional
// parameters onto member indices. Go has no language-level notion of a
// matching constructor to discover by reflection alone, so construction
// mapping is populated only for types explicitly registered via
// RegisterConstructor; every other type uses default (zero-value then
// field-assignment) materialization, which is the common case.
type Constructor struct {
	Fn               reflect.Value
	ParamMemberIndex []int
}

// Description is the built type description for one (struct type,
// naming convention) pair.
type Description struct {
	Type        reflect.Type
	Members     []Member
	Extension   *ExtensionMember
	Constructor *Constructor
	// Dispatch is the property-name dispatcher built from every
	// Member's JSONName, for O(name length) routing during
	// deserialization.
	Dispatch *nameset.Set
}

// ShouldSerializer lets a value opt a member out of serialization at
// write time. The
// composite formatter generator checks this against the value being
// serialized, not the type description, since the decision can depend
// on run-time state.
type ShouldSerializer interface {
	ShouldSerializeMember(jsonName string) bool
}

var (
	ctorRegistry sync.Map // reflect.Type -> ctorEntry
	descCache    sync.Map // cacheKey -> *Description
)

type ctorEntry struct {
	fn         reflect.Value
	paramNames []string
}

// RegisterConstructor declares that values of T must be materialized by
// calling fn with one argument per name in paramNames, each resolved
// against T's member set (by JSON name, then by Go field name). fn must
// be a function value returning T (or *T). Call during package
// initialization, before any Build(T) is requested.
func RegisterConstructor(t reflect.Type, paramNames []string, fn any) {
	ctorRegistry.Store(t, ctorEntry{fn: reflect.ValueOf(fn), paramNames: paramNames})
}

type cacheKey struct {
	t    reflect.Type
	conv NamingConvention
}

// Build returns the Description for t under the given naming
// convention, constructing and caching it on first use. t may be a
// struct type or a pointer to one.
func Build(t reflect.Type, conv NamingConvention) (*Description, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := cacheKey{t: t, conv: conv}
	if cached, ok := descCache.Load(key); ok {
		return cached.(*Description), nil
	}
	d, err := build(t, conv)
	if err != nil {
		return nil, err
	}
	actual, _ := descCache.LoadOrStore(key, d)
	return actual.(*Description), nil
}

func build(t reflect.Type, conv NamingConvention) (*Description, error) {
	if t.Kind() != reflect.Struct {
		return nil, jsonerr.ErrUnsupportedAbstract
	}
	d := &Description{Type: t}
	var names [][]byte

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tagVal, hasTag := f.Tag.Lookup("json")
		name, opts := parseTag(tagVal)
		if hasTag && name == "-" && len(opts) == 0 {
			continue
		}
		if hasOption(opts, "extension") {
			if f.Type.Kind() == reflect.Map && f.Type.Key().Kind() == reflect.String {
				d.Extension = &ExtensionMember{Index: append([]int(nil), f.Index...), Type: f.Type}
			}
			continue
		}

		jsonName := name
		if jsonName == "" {
			jsonName = applyConvention(f.Name, conv)
		}

		m := Member{
			GoName:             f.Name,
			JSONName:           jsonName,
			Index:              append([]int(nil), f.Index...),
			Type:               f.Type,
			ExcludeNull:        hasOption(opts, "omitempty"),
			IsNullable:         f.Type.Kind() == reflect.Pointer,
			RecursionCandidate: reaches(f.Type, t, map[reflect.Type]bool{}),
		}
		m.EscapedName = escape.AppendEscapedString[byte](nil, []byte(jsonName), escape.ModeDefault)

		names = append(names, []byte(jsonName))
		d.Members = append(d.Members, m)
	}

	// Two members resolving to the same JSON name (colliding tags, or
	// e.g. ID and Id both snake-casing to "id") make the member set
	// ambiguous; reject it here so the failure poisons the formatter
	// cache instead of panicking inside nameset.Build.
	seen := make(map[string]struct{}, len(d.Members))
	for _, m := range d.Members {
		if _, dup := seen[m.JSONName]; dup {
			return nil, jsonerr.ErrDuplicateMemberName.WithExpected(
				"distinct JSON name for member " + m.GoName)
		}
		seen[m.JSONName] = struct{}{}
	}

	d.Dispatch = nameset.Build(names)

	if entry, ok := ctorRegistry.Load(t); ok {
		ce := entry.(ctorEntry)
		mapping := make([]int, len(ce.paramNames))
		for i, pname := range ce.paramNames {
			idx := findMember(d.Members, pname)
			if idx < 0 {
				return nil, jsonerr.ErrNoViableConstructor
			}
			mapping[i] = idx
		}
		d.Constructor = &Constructor{Fn: ce.fn, ParamMemberIndex: mapping}
	}

	return d, nil
}

func findMember(members []Member, name string) int {
	for i, m := range members {
		if m.JSONName == name {
			return i
		}
	}
	for i, m := range members {
		if m.GoName == name {
			return i
		}
	}
	return -1
}

// parseTag splits a `json:"name,opt1,opt2"` tag value into its name and
// option list, following encoding/json's own convention so existing
// struct tags carry over unchanged.
func parseTag(tag string) (name string, options []string) {
	if tag == "" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(options []string, opt string) bool {
	for _, o := range options {
		if o == opt {
			return true
		}
	}
	return false
}

// reaches reports whether values of type ft can, transitively through
// struct fields, contain a value of type target.
func reaches(ft, target reflect.Type, visited map[reflect.Type]bool) bool {
	for ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array {
		ft = ft.Elem()
	}
	if ft.Kind() == reflect.Map {
		ft = ft.Elem()
		for ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Slice {
			ft = ft.Elem()
		}
	}
	if ft == target {
		return true
	}
	if ft.Kind() != reflect.Struct {
		return false
	}
	if visited[ft] {
		return false
	}
	visited[ft] = true
	for i := 0; i < ft.NumField(); i++ {
		if reaches(ft.Field(i).Type, target, visited) {
			return true
		}
	}
	return false
}
