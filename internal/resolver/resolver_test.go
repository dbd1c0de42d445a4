package resolver

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemjson/elemjson/internal/formatter"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/writer"
)

type leaf struct {
	Name string
}

type node struct {
	Value    int
	Children []*node
}

func TestCacheReturnsSameFormatterOnSecondGet(t *testing.T) {
	c := New[byte](formatter.NewPolicy())
	f1, err := c.Get(reflect.TypeOf(leaf{}))
	require.NoError(t, err)
	f2, err := c.Get(reflect.TypeOf(leaf{}))
	require.NoError(t, err)
	assert.Same(t, f1, f2)
}

func TestCacheResolvesSelfReferentialType(t *testing.T) {
	c := New[byte](formatter.NewPolicy())
	f, err := c.Get(reflect.TypeOf(node{}))
	require.NoError(t, err)

	r := reader.New[byte]([]byte(`{"Value":1,"Children":[{"Value":2,"Children":null}]}`), reader.Options{})
	val, err := f.Deserialize(r, formatter.NewPolicy())
	require.NoError(t, err)
	out := val.Interface().(node)
	assert.Equal(t, 1, out.Value)
	require.Len(t, out.Children, 1)
	assert.Equal(t, 2, out.Children[0].Value)
	assert.Nil(t, out.Children[0].Children)

	w := writer.New[byte](0, 0)
	f.Serialize(w, reflect.ValueOf(out), formatter.NewPolicy())
	s, err := w.String()
	require.NoError(t, err)
	assert.Contains(t, s, `"Value":1`)
	assert.Contains(t, s, `"Value":2`)
}

func TestCacheConcurrentGetBuildsOnce(t *testing.T) {
	c := New[byte](formatter.NewPolicy())
	const n = 32
	var wg sync.WaitGroup
	results := make([]formatter.Formatter[byte], n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := c.Get(reflect.TypeOf(leaf{}))
			require.NoError(t, err)
			results[i] = f
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestCacheGetUnsupportedTypeFails(t *testing.T) {
	c := New[byte](formatter.NewPolicy())
	_, err := c.Get(reflect.TypeOf(make(chan int)))
	assert.Error(t, err)
}

func TestCachePoisonedEntryReturnsErrorAgain(t *testing.T) {
	c := New[byte](formatter.NewPolicy())
	chanType := reflect.TypeOf(make(chan int))
	_, err1 := c.Get(chanType)
	require.Error(t, err1)
	_, err2 := c.Get(chanType)
	require.Error(t, err2)
}
