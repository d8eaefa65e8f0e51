// Package types implements the ground and container type system that
// coldispatch's column values are tagged with: a closed set of ground
// types (Int64, Float64, String, Bool, Nothing) plus the Nullable, Array,
// Tuple and Dictionary wrappers that compose over them.
package types

import "fmt"

// Kind identifies which concrete Type a value holds.
type Kind int

const (
	KindInt64 Kind = iota
	KindFloat64
	KindString
	KindBool
	KindNothing
	KindNullable
	KindArray
	KindTuple
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "Int64"
	case KindFloat64:
		return "Float64"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindNothing:
		return "Nothing"
	case KindNullable:
		return "Nullable"
	case KindArray:
		return "Array"
	case KindTuple:
		return "Tuple"
	case KindDictionary:
		return "Dictionary"
	default:
		return "Unknown"
	}
}

// Type is the closed sum type over ground and container types. Ground
// types carry no fields of their own; container types are built by the
// *Of constructors below.
type Type struct {
	kind  Kind
	inner *Type   // Nullable, Array, Dictionary
	elems []Type  // Tuple
	names []string
}

var (
	Int64   = Type{kind: KindInt64}
	Float64 = Type{kind: KindFloat64}
	String  = Type{kind: KindString}
	Bool    = Type{kind: KindBool}
	Nothing = Type{kind: KindNothing}
)

func (t Type) Kind() Kind { return t.kind }

// Elem returns the wrapped type of a Nullable, Array or Dictionary type.
// Panics if t is not one of those kinds.
func (t Type) Elem() Type {
	if t.inner == nil {
		panic(fmt.Sprintf("types: %s has no element type", t.kind))
	}
	return *t.inner
}

// Fields returns the child types of a Tuple type, and Names their
// corresponding names (empty strings for unnamed positions).
func (t Type) Fields() []Type    { return t.elems }
func (t Type) Names() []string   { return t.names }

func NullableOf(inner Type) Type {
	if inner.kind == KindNullable {
		panic("types: Nullable(Nullable(...)) is not allowed")
	}
	return Type{kind: KindNullable, inner: &inner}
}

func ArrayOf(elem Type) Type {
	return Type{kind: KindArray, inner: &elem}
}

func TupleOf(elems []Type, names []string) Type {
	if names != nil && len(names) != len(elems) {
		panic("types: TupleOf names/elems length mismatch")
	}
	return Type{kind: KindTuple, elems: elems, names: names}
}

func DictionaryOf(inner Type) Type {
	if inner.kind == KindDictionary {
		panic("types: Dictionary(Dictionary(...)) is not allowed")
	}
	return Type{kind: KindDictionary, inner: &inner}
}

// IsNullable reports whether t is a Nullable wrapper.
func IsNullable(t Type) bool { return t.kind == KindNullable }

// OnlyNull reports whether t is Nullable(Nothing) - a column that can only
// ever hold NULL.
func OnlyNull(t Type) bool {
	return t.kind == KindNullable && t.inner.kind == KindNothing
}

// IsDictionary reports whether t is a Dictionary wrapper.
func IsDictionary(t Type) bool { return t.kind == KindDictionary }

// StripDict removes a single outer Dictionary wrapper, recursing through
// Array and Tuple so a dictionary nested inside either is also uncovered.
// It is the identity for every other kind, including Nullable: a
// Dictionary nested inside a Nullable is left in place.
func StripDict(t Type) Type {
	switch t.kind {
	case KindDictionary:
		return StripDict(*t.inner)
	case KindArray:
		elem := StripDict(*t.inner)
		return ArrayOf(elem)
	case KindTuple:
		elems := make([]Type, len(t.elems))
		for i, e := range t.elems {
			elems[i] = StripDict(e)
		}
		return TupleOf(elems, t.names)
	default:
		return t
	}
}

// Equal reports structural equality between two types.
func Equal(a, b Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNullable, KindArray, KindDictionary:
		return Equal(*a.inner, *b.inner)
	case KindTuple:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.kind {
	case KindNullable:
		return fmt.Sprintf("Nullable(%s)", t.inner)
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.inner)
	case KindDictionary:
		return fmt.Sprintf("Dictionary(%s)", t.inner)
	case KindTuple:
		return fmt.Sprintf("Tuple%v", t.elems)
	default:
		return t.kind.String()
	}
}
