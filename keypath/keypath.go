// Package keypath implements the dotted + indexed KeyPath addressing scheme
// used to read, write and remove locations in a Store's object tree.
package keypath

import (
	"strconv"
	"strings"

	"github.com/MrtnvM/render-engine/value"
)

// SegmentKind discriminates a parsed path segment.
type SegmentKind int

const (
	SegField SegmentKind = iota
	SegIndex
	SegWildcard
)

// Segment is one element of a parsed KeyPath: a field name, optionally
// followed by one or more array indices (or a single wildcard index `[*]`,
// valid only in live-expression dependency declarations).
type Segment struct {
	Field   string
	Indices []int
	// Wildcard is true if this segment's trailing index is `[*]`.
	Wildcard bool
}

// Parse splits a dotted, possibly-indexed KeyPath string into segments. The
// root "$" and the empty string both parse to zero segments.
func Parse(path string) []Segment {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, parseSegment(part))
	}
	return segments
}

func parseSegment(part string) Segment {
	seg := Segment{}
	field := part
	for {
		open := strings.LastIndexByte(field, '[')
		if open < 0 || !strings.HasSuffix(field, "]") {
			break
		}
		idxStr := field[open+1 : len(field)-1]
		field = field[:open]
		if idxStr == "*" {
			seg.Wildcard = true
			seg.Indices = append(seg.Indices, -1)
			continue
		}
		n, err := strconv.Atoi(idxStr)
		if err != nil {
			break
		}
		seg.Indices = append(seg.Indices, n)
	}
	seg.Field = field
	// reverse since we peeled indices from the rightmost bracket inward
	for i, j := 0, len(seg.Indices)-1; i < j; i, j = i+1, j-1 {
		seg.Indices[i], seg.Indices[j] = seg.Indices[j], seg.Indices[i]
	}
	return seg
}

// Join reassembles segments back into their canonical dotted string, used
// when live expressions need a textual prefix comparison.
func Join(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		s := seg.Field
		for _, idx := range seg.Indices {
			if idx == -1 {
				s += "[*]"
			} else {
				s += "[" + strconv.Itoa(idx) + "]"
			}
		}
		parts[i] = s
	}
	return strings.Join(parts, ".")
}

// Get reads the value at path from root. It returns (nil, false) if any
// intermediate segment is absent or of the wrong kind; it never creates
// anything.
func Get(root value.Value, path string) (value.Value, bool) {
	return get(root, Parse(path))
}

func get(cur value.Value, segments []Segment) (value.Value, bool) {
	if len(segments) == 0 {
		if cur == nil {
			return nil, false
		}
		return cur, true
	}
	seg := segments[0]
	obj, ok := cur.(value.Object)
	if !ok {
		return nil, false
	}
	field, ok := obj[seg.Field]
	if !ok {
		return nil, false
	}
	for _, idx := range seg.Indices {
		if idx < 0 {
			return nil, false // wildcard cannot be resolved by Get
		}
		arr, ok := field.(value.Array)
		if !ok || idx >= len(arr) || idx < 0 {
			return nil, false
		}
		field = arr[idx]
	}
	return get(field, segments[1:])
}

// Exists reports whether path resolves to a present value (including an
// explicit null).
func Exists(root value.Value, path string) bool {
	_, ok := Get(root, path)
	return ok
}

// Set writes value v at path within root, returning the new root.
// Intermediate objects are auto-created as needed; an intermediate array is
// only auto-created if the first missing segment on that branch is an
// indexed one. root may be nil, in which case an empty Object is assumed.
func Set(root value.Value, path string, v value.Value) value.Value {
	segments := Parse(path)
	if len(segments) == 0 {
		return v
	}
	return setSegments(root, segments, v)
}

func setSegments(cur value.Value, segments []Segment, v value.Value) value.Value {
	seg := segments[0]
	obj, ok := cur.(value.Object)
	if !ok || obj == nil {
		obj = value.Object{}
	} else {
		clone := make(value.Object, len(obj))
		for k, vv := range obj {
			clone[k] = vv
		}
		obj = clone
	}

	if len(seg.Indices) == 0 {
		if len(segments) == 1 {
			obj[seg.Field] = v
			return obj
		}
		child := obj[seg.Field]
		obj[seg.Field] = setSegments(child, segments[1:], v)
		return obj
	}

	child := obj[seg.Field]
	obj[seg.Field] = setIndexed(child, seg.Indices, segments[1:], v)
	return obj
}

func setIndexed(cur value.Value, indices []int, rest []Segment, v value.Value) value.Value {
	idx := indices[0]
	if idx < 0 {
		return cur // wildcard not settable
	}
	arr, ok := cur.(value.Array)
	if !ok {
		arr = nil
	} else {
		clone := make(value.Array, len(arr))
		copy(clone, arr)
		arr = clone
	}
	for len(arr) <= idx {
		arr = append(arr, value.Null{})
	}
	if len(indices) > 1 {
		arr[idx] = setIndexed(arr[idx], indices[1:], rest, v)
		return arr
	}
	if len(rest) == 0 {
		arr[idx] = v
		return arr
	}
	arr[idx] = setSegments(arr[idx], rest, v)
	return arr
}

// Remove prunes the leaf key named by path from root, returning the new
// root and the value that was removed (Null{} if path was absent; removing
// a missing path is a no-op). It never prunes empty parents.
func Remove(root value.Value, path string) (value.Value, value.Value) {
	old, ok := Get(root, path)
	if !ok {
		old = value.Null{}
	}
	segments := Parse(path)
	if len(segments) == 0 {
		return value.Null{}, old
	}
	newRoot, _ := removeSegments(root, segments)
	return newRoot, old
}

func removeSegments(cur value.Value, segments []Segment) (value.Value, bool) {
	obj, ok := cur.(value.Object)
	if !ok {
		return cur, false
	}
	seg := segments[0]
	field, present := obj[seg.Field]
	if !present {
		return cur, false
	}
	clone := make(value.Object, len(obj))
	for k, v := range obj {
		clone[k] = v
	}

	if len(seg.Indices) == 0 && len(segments) == 1 {
		delete(clone, seg.Field)
		return clone, true
	}
	if len(seg.Indices) > 0 {
		newField, changed := removeIndexed(field, seg.Indices, segments[1:])
		if !changed {
			return cur, false
		}
		clone[seg.Field] = newField
		return clone, true
	}
	newField, changed := removeSegments(field, segments[1:])
	if !changed {
		return cur, false
	}
	clone[seg.Field] = newField
	return clone, true
}

func removeIndexed(cur value.Value, indices []int, rest []Segment) (value.Value, bool) {
	idx := indices[0]
	if idx < 0 {
		return cur, false
	}
	arr, ok := cur.(value.Array)
	if !ok || idx >= len(arr) {
		return cur, false
	}
	clone := make(value.Array, len(arr))
	copy(clone, arr)
	if len(indices) > 1 {
		newEl, changed := removeIndexed(clone[idx], indices[1:], rest)
		if !changed {
			return cur, false
		}
		clone[idx] = newEl
		return clone, true
	}
	if len(rest) == 0 {
		clone[idx] = value.Null{}
		return clone, true
	}
	newEl, changed := removeSegments(clone[idx], rest)
	if !changed {
		return cur, false
	}
	clone[idx] = newEl
	return clone, true
}

// MatchesWildcard reports whether dep contains a `[*]` wildcard segment and
// path shares the textual prefix preceding it.
func MatchesWildcard(dep, path string) bool {
	idx := strings.Index(dep, "[*]")
	if idx < 0 {
		return false
	}
	prefix := dep[:idx]
	return strings.HasPrefix(path, prefix)
}
