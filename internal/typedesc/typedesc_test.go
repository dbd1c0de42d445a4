package typedesc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemjson/elemjson/internal/jsonerr"
)

type person struct {
	FirstName  string
	LastName   string
	Age        int    `json:"age,omitempty"`
	Secret     string `json:"-"`
	unexported string
	Extra      map[string]any `json:"-,extension"`
}

type node struct {
	Value    int
	Children []*node
}

func TestBuildBasicFields(t *testing.T) {
	d, err := Build(reflect.TypeOf(person{}), AsDeclared)
	require.NoError(t, err)
	names := map[string]Member{}
	for _, m := range d.Members {
		names[m.GoName] = m
	}
	_, hasSecret := names["Secret"]
	assert.False(t, hasSecret)
	_, hasUnexported := names["unexported"]
	assert.False(t, hasUnexported)
	assert.Contains(t, names, "FirstName")
	assert.Equal(t, "FirstName", names["FirstName"].JSONName)
	assert.True(t, names["Age"].ExcludeNull)
	require.NotNil(t, d.Extension)
}

func TestBuildCamelCaseConvention(t *testing.T) {
	d, err := Build(reflect.TypeOf(person{}), CamelCase)
	require.NoError(t, err)
	for _, m := range d.Members {
		if m.GoName == "FirstName" {
			assert.Equal(t, "firstName", m.JSONName)
		}
	}
}

func TestBuildSnakeCaseConvention(t *testing.T) {
	d, err := Build(reflect.TypeOf(person{}), SnakeCase)
	require.NoError(t, err)
	for _, m := range d.Members {
		if m.GoName == "FirstName" {
			assert.Equal(t, "first_name", m.JSONName)
		}
	}
}

func TestDispatchMatchesJSONNames(t *testing.T) {
	d, err := Build(reflect.TypeOf(person{}), AsDeclared)
	require.NoError(t, err)
	idx := d.Dispatch.Lookup([]byte("FirstName"))
	assert.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "FirstName", d.Members[idx].JSONName)
	assert.Equal(t, -1, d.Dispatch.Lookup([]byte("Nope")))
}

func TestRecursionCandidateDetected(t *testing.T) {
	d, err := Build(reflect.TypeOf(node{}), AsDeclared)
	require.NoError(t, err)
	for _, m := range d.Members {
		if m.GoName == "Children" {
			assert.True(t, m.RecursionCandidate)
		}
		if m.GoName == "Value" {
			assert.False(t, m.RecursionCandidate)
		}
	}
}

func TestBuildRejectsNonStruct(t *testing.T) {
	_, err := Build(reflect.TypeOf(42), AsDeclared)
	assert.Error(t, err)
}

type collidingTags struct {
	X int `json:"x"`
	Y int `json:"x"`
}

type collidingConvention struct {
	ID int
	Id int
}

func TestBuildRejectsDuplicateJSONNames(t *testing.T) {
	_, err := Build(reflect.TypeOf(collidingTags{}), AsDeclared)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonerr.ErrDuplicateMemberName))

	_, err = Build(reflect.TypeOf(collidingConvention{}), SnakeCase)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonerr.ErrDuplicateMemberName))
}

type withCtor struct {
	A string
	B int
}

func newWithCtor(a string, b int) withCtor { return withCtor{A: a, B: b} }

func TestRegisteredConstructorMapsParams(t *testing.T) {
	RegisterConstructor(reflect.TypeOf(withCtor{}), []string{"A", "B"}, newWithCtor)
	d, err := Build(reflect.TypeOf(withCtor{}), AsDeclared)
	require.NoError(t, err)
	require.NotNil(t, d.Constructor)
	assert.Len(t, d.Constructor.ParamMemberIndex, 2)
}
