package formatter

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemjson/elemjson/internal/prim"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/typedesc"
	"github.com/elemjson/elemjson/internal/writer"
)

// fixedGetter resolves every type through Build directly, with no
// caching and no cycle detection -- enough for tests that don't
// exercise self-referential types.
type fixedGetter[S interface{ ~byte | ~uint16 }] struct {
	policy *Policy
}

func (g *fixedGetter[S]) Get(t reflect.Type) (Formatter[S], error) {
	return Build[S](g, t, g.policy)
}

func newTestGetter(policy *Policy) *fixedGetter[byte] {
	if policy == nil {
		policy = NewPolicy()
	}
	return &fixedGetter[byte]{policy: policy}
}

type plainStruct struct {
	Name string
	Age  int `json:"age,omitempty"`
}

func serializeToString(t *testing.T, g *fixedGetter[byte], v any) string {
	t.Helper()
	f, err := g.Get(reflect.TypeOf(v))
	require.NoError(t, err)
	w := writer.New[byte](0, 0)
	f.Serialize(w, reflect.ValueOf(v), g.policy)
	s, err := w.String()
	require.NoError(t, err)
	return s
}

func TestCompositeSerializeBasicFields(t *testing.T) {
	g := newTestGetter(nil)
	s := serializeToString(t, g, plainStruct{Name: "Ada", Age: 30})
	assert.Equal(t, `{"Name":"Ada","age":30}`, s)
}

func TestCompositeSerializeOmitsExcludeNullZero(t *testing.T) {
	g := newTestGetter(nil)
	s := serializeToString(t, g, plainStruct{Name: "Ada"})
	assert.Equal(t, `{"Name":"Ada"}`, s)
}

func TestCompositeDeserializeBasicFields(t *testing.T) {
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(plainStruct{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`{"Name":"Ada","age":30}`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(plainStruct)
	assert.Equal(t, "Ada", out.Name)
	assert.Equal(t, 30, out.Age)
}

func TestCompositeDeserializeUnknownNameSkipped(t *testing.T) {
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(plainStruct{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`{"Name":"Ada","bogus":[1,2,3],"age":30}`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(plainStruct)
	assert.Equal(t, "Ada", out.Name)
	assert.Equal(t, 30, out.Age)
}

type withExtension struct {
	Name  string
	Extra map[string]string `json:"-,extension"`
}

func TestCompositeExtensionDataRoundTrip(t *testing.T) {
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(withExtension{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`{"Name":"Ada","color":"blue"}`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(withExtension)
	assert.Equal(t, "Ada", out.Name)
	assert.Equal(t, "blue", out.Extra["color"])

	w := writer.New[byte](0, 0)
	f.Serialize(w, reflect.ValueOf(out), g.policy)
	s, err := w.String()
	require.NoError(t, err)
	assert.Contains(t, s, `"Name":"Ada"`)
	assert.Contains(t, s, `"color":"blue"`)
}

type shouldSerializePerson struct {
	Name   string
	Secret string
}

func (p *shouldSerializePerson) ShouldSerializeMember(jsonName string) bool {
	return jsonName != "Secret"
}

func TestCompositeShouldSerializePredicateSkipsMember(t *testing.T) {
	g := newTestGetter(nil)
	s := serializeToString(t, g, shouldSerializePerson{Name: "Ada", Secret: "nope"})
	assert.Equal(t, `{"Name":"Ada"}`, s)
}

type withCtor struct {
	A string
	B int
}

func TestCompositeConstructorMaterialization(t *testing.T) {
	typedesc.RegisterConstructor(reflect.TypeOf(withCtor{}), []string{"A", "B"}, func(a string, b int) withCtor {
		return withCtor{A: a, B: b + 1}
	})
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(withCtor{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`{"A":"x","B":41}`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(withCtor)
	assert.Equal(t, "x", out.A)
	assert.Equal(t, 42, out.B)
}

type withPartialCtor struct {
	A     string
	B     int
	Note  string
	Extra map[string]string `json:"-,extension"`
}

func TestCompositeConstructorAppliesNonParameterMembers(t *testing.T) {
	typedesc.RegisterConstructor(reflect.TypeOf(withPartialCtor{}), []string{"A"}, func(a string) withPartialCtor {
		return withPartialCtor{A: a + "!"}
	})
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(withPartialCtor{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`{"A":"x","B":7,"Note":"n","color":"blue"}`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(withPartialCtor)
	assert.Equal(t, "x!", out.A)
	assert.Equal(t, 7, out.B)
	assert.Equal(t, "n", out.Note)
	assert.Equal(t, "blue", out.Extra["color"])
}

// Self-referential types (a struct reachable from its own field) need
// the two-phase thunk installation internal/resolver.Cache provides;
// fixedGetter has no cycle breaking, so that case is covered by
// internal/resolver's own tests instead.

type withCharAndURI struct {
	Initial prim.Char
	Home    prim.URI
}

func TestCompositeCharAndURIMembersRoundTrip(t *testing.T) {
	g := newTestGetter(nil)
	s := serializeToString(t, g, withCharAndURI{Initial: 'A', Home: "https://example.com/a?b=c"})
	assert.Equal(t, `{"Initial":"A","Home":"https://example.com/a?b=c"}`, s)

	f, err := g.Get(reflect.TypeOf(withCharAndURI{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(s), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	out := val.Interface().(withCharAndURI)
	assert.Equal(t, prim.Char('A'), out.Initial)
	assert.Equal(t, prim.URI("https://example.com/a?b=c"), out.Home)
}

func TestCompositeDeserializeNullYieldsZeroValue(t *testing.T) {
	g := newTestGetter(nil)
	f, err := g.Get(reflect.TypeOf(plainStruct{}))
	require.NoError(t, err)
	r := reader.New[byte]([]byte(`null`), reader.Options{})
	val, err := f.Deserialize(r, g.policy)
	require.NoError(t, err)
	assert.Equal(t, plainStruct{}, val.Interface().(plainStruct))
}
