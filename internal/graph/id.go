package graph

import "fmt"

// ID identifies a task. Spec allows any equality-comparable, hashable value;
// Go slices and structs-containing-slices are not map-key-comparable, so
// IDs are kept as plain `any` and the Graph keys them internally by a
// canonical string rendering (see Key) rather than requiring ID itself to
// satisfy Go's comparable constraint.
type ID = any

// Tuple is a fixed-length, ordered structured ID: the first-class case used
// by Prefix (which prepends a token) and Inflate (which expands it into a
// nested mapping). A Tuple element may itself be any ID, including another
// Tuple.
type Tuple []any

// Key renders an ID into a string suitable for use as a Go map key,
// distinguishing both type and value so that, e.g., int(1) and "1" never
// collide. Tuples are rendered recursively so structurally equal tuples of
// equal-typed tokens always produce the same key.
func Key(id ID) string {
	return keyOf(id)
}

func keyOf(v any) string {
	switch t := v.(type) {
	case Tuple:
		s := "("
		for i, e := range t {
			if i > 0 {
				s += ","
			}
			s += keyOf(e)
		}
		return s + ")"
	default:
		return fmt.Sprintf("%T:%#v", v, v)
	}
}

// AsTuple reports whether id is a structured ID, returning its tokens.
func AsTuple(id ID) (Tuple, bool) {
	t, ok := id.(Tuple)
	return t, ok
}
