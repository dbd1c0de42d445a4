// Package nameset implements the property-name dispatcher: given an
// incoming UTF-8 property-name span, select the member index it names
// in O(name length) without hashing, by comparing word-aligned byte
// chunks against a precomputed decision tree keyed first on name
// length and then on successive 8/4/2/1-byte chunks. Name matching is
// the hot path of every object read; integer-chunk compares let the
// processor short-circuit on the first differing chunk without the
// full scan a hash would need or the cache misses of a table.
package nameset

import "encoding/binary"

// Set is a built property-name dispatcher for one composite type's
// member set.
type Set struct {
	byLength map[int]*node
}

type node struct {
	// offset/size identify the next chunk to compare, in symbols from
	// the start of the name. size is 0 at a leaf.
	offset int
	size   int
	// children maps the chunk value at [offset:offset+size) to the
	// subtree for names agreeing on every chunk compared so far.
	children map[uint64]*node
	// member is set at a leaf: the single member index reached by
	// matching every chunk along the path here.
	member int
	// name is the leaf's original name bytes, used for the final
	// byte-for-byte confirmation (defends against any aliasing in
	// chunk extraction at odd offsets).
	name []byte
}

// Build constructs a Set from the unescaped UTF-8 JSON names of a
// composite type's members (the form the reader decodes property names
// into), names[i] naming member index i. Names must be
// pairwise distinct; the type-description builder rejects colliding
// JSON names before calling Build, so a duplicate here is a caller
// bug and panics.
func Build(names [][]byte) *Set {
	byLen := make(map[int][]int)
	for i, n := range names {
		byLen[len(n)] = append(byLen[len(n)], i)
	}
	s := &Set{byLength: make(map[int]*node, len(byLen))}
	for length, idxs := range byLen {
		s.byLength[length] = buildNode(names, idxs, 0)
	}
	return s
}

func chunkSizeFor(remaining int) int {
	switch {
	case remaining >= 8:
		return 8
	case remaining >= 4:
		return 4
	case remaining >= 2:
		return 2
	default:
		return 1
	}
}

func readChunk(name []byte, offset, size int) uint64 {
	switch size {
	case 8:
		return binary.LittleEndian.Uint64(name[offset:])
	case 4:
		return uint64(binary.LittleEndian.Uint32(name[offset:]))
	case 2:
		return uint64(binary.LittleEndian.Uint16(name[offset:]))
	default:
		return uint64(name[offset])
	}
}

func buildNode(names [][]byte, idxs []int, offset int) *node {
	if len(idxs) == 1 {
		idx := idxs[0]
		return &node{member: idx, name: names[idx]}
	}

	length := len(names[idxs[0]])
	if offset >= length {
		// Distinct names of equal length cannot actually reach here
		// (they would have split on an earlier chunk), but guard
		// against a malformed input set rather than index out of
		// range.
		panic("nameset: duplicate member name")
	}

	size := chunkSizeFor(length - offset)
	groups := make(map[uint64][]int)
	var order []uint64
	for _, idx := range idxs {
		v := readChunk(names[idx], offset, size)
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], idx)
	}

	children := make(map[uint64]*node, len(groups))
	for _, v := range order {
		children[v] = buildNode(names, groups[v], offset+size)
	}
	return &node{offset: offset, size: size, children: children}
}

// Lookup returns the member index named by name, or -1 if name matches
// no member of the set (the caller falls through to skip-value).
func (s *Set) Lookup(name []byte) int {
	n := s.byLength[len(name)]
	if n == nil {
		return -1
	}
	for n.children != nil {
		if n.offset+n.size > len(name) {
			return -1
		}
		v := readChunk(name, n.offset, n.size)
		next, ok := n.children[v]
		if !ok {
			return -1
		}
		n = next
	}
	if len(name) != len(n.name) {
		return -1
	}
	for i := range name {
		if name[i] != n.name[i] {
			return -1
		}
	}
	return n.member
}
