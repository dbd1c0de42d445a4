// Package resolver implements the formatter resolver and cache: it
// maps a reflect.Type to a materialized Formatter, caching entries by
// type identity for the lifetime of the Cache, and breaks cyclic type
// graphs (e.g. a Node whose Children field is []*Node) with two-phase
// slot installation: a cache slot is reserved and handed out as an
// indirecting thunk before the recursive Build call that would
// otherwise need it returns.
//
// Concurrent first-builds of the same type collapse onto one generator
// call via golang.org/x/sync/singleflight; first-build and poisoned-
// entry diagnostics are logged with github.com/rs/zerolog.
package resolver

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/elemjson/elemjson/internal/formatter"
	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// entry is one cache slot. It is itself a valid formatter.Formatter[S]:
// Serialize/Deserialize block on ready and then delegate, which is what
// lets a not-yet-built entry be installed as a thunk in a cyclic
// member's dispatch slot.
type entry[S sym.Symbol] struct {
	ready     chan struct{}
	formatter formatter.Formatter[S]
	err       error
}

func (e *entry[S]) Serialize(w *writer.Writer[S], v reflect.Value, p *formatter.Policy) {
	<-e.ready
	if e.err != nil {
		w.Fail(jsonerr.ErrUnsupportedAbstract.At(w.Len()))
		return
	}
	e.formatter.Serialize(w, v, p)
}

func (e *entry[S]) Deserialize(r *reader.Reader[S], p *formatter.Policy) (reflect.Value, error) {
	<-e.ready
	if e.err != nil {
		return reflect.Value{}, e.err
	}
	return e.formatter.Deserialize(r, p)
}

// Cache is the formatter cache for one (symbol width, resolver policy)
// pair: the full (target type, symbol width, resolver) key collapses to
// a per-Cache type map, since symbol width is the Cache's own type
// parameter and resolver identity is the Cache instance itself.
type Cache[S sym.Symbol] struct {
	policy *formatter.Policy

	mu      sync.Mutex
	entries map[reflect.Type]*entry[S]

	group singleflight.Group
}

// New returns an empty Cache for the given policy.
func New[S sym.Symbol](policy *formatter.Policy) *Cache[S] {
	return &Cache[S]{policy: policy, entries: make(map[reflect.Type]*entry[S])}
}

// Get returns the Formatter for t, building and caching it on first
// request. It implements formatter.Getter[S], so internal/formatter's
// Build can call back into the cache for member/element types without
// depending on this package.
func (c *Cache[S]) Get(t reflect.Type) (formatter.Formatter[S], error) {
	return c.get(t, nil)
}

// get threads visiting, the set of types already being built somewhere
// in the current call chain, so a self-referential member resolves to
// the in-progress entry (the thunk) instead of recursing into get
// again. Entry insertion happens inside the singleflight call, so
// concurrent first-callers for the same type all reach group.Do and
// collapse onto one Build; later callers find the installed entry on
// the fast path.
func (c *Cache[S]) get(t reflect.Type, visiting map[reflect.Type]*entry[S]) (formatter.Formatter[S], error) {
	if visiting != nil {
		if e, ok := visiting[t]; ok {
			return e, nil
		}
	}

	c.mu.Lock()
	e, ok := c.entries[t]
	c.mu.Unlock()
	if ok {
		<-e.ready
		if e.err != nil {
			return nil, e.err
		}
		return e.formatter, nil
	}

	key := t.PkgPath() + "|" + t.String()
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries[t]; ok {
			// a previous flight for this type already installed the entry
			c.mu.Unlock()
			<-e.ready
			if e.err != nil {
				return nil, e.err
			}
			return e.formatter, nil
		}
		e := &entry[S]{ready: make(chan struct{})}
		c.entries[t] = e
		c.mu.Unlock()

		nextVisiting := make(map[reflect.Type]*entry[S], len(visiting)+1)
		for k, ve := range visiting {
			nextVisiting[k] = ve
		}
		nextVisiting[t] = e
		sc := &scopedGetter[S]{cache: c, visiting: nextVisiting}

		f, err := formatter.Build[S](sc, t, c.policy)
		if err != nil {
			e.err = err
			logFirstBuildError(t, err)
		} else {
			e.formatter = f
			logFirstBuildOK(t)
		}
		close(e.ready)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(formatter.Formatter[S]), nil
}

// scopedGetter is the formatter.Getter[S] handed to one Build call: it
// carries the in-progress set for that call chain so nested Get calls
// can detect a cycle back to a type still under construction.
type scopedGetter[S sym.Symbol] struct {
	cache    *Cache[S]
	visiting map[reflect.Type]*entry[S]
}

func (s *scopedGetter[S]) Get(t reflect.Type) (formatter.Formatter[S], error) {
	return s.cache.get(t, s.visiting)
}
