// Package column implements coldispatch's column value model: a small
// closed sum type (Vector, Const, Nullable, Dictionary, Array, Tuple)
// mirroring ClickHouse's IColumn hierarchy, plus the encoding-stripping and
// dictionary-remap operations the dispatch engine builds on.
package column

import (
	"fmt"
	"math"

	"github.com/coldispatch/coldispatch/internal/assert"
	"github.com/zeebo/xxh3"
)

// Column is the common interface every column variant implements. Beyond
// Len, behavior is reached through type switches in this package - the
// set of variants is closed, the way ClickHouse's IColumn subclasses and
// Arrow's Datum variants both are.
type Column interface {
	Len() int
	isColumn()
}

// Vector is the Plain column: a dense, ungrouped run of values with no
// null map and no constant/dictionary encoding.
type Vector[T any] struct {
	Values []T
}

func NewVector[T any](values []T) *Vector[T] { return &Vector[T]{Values: values} }

func (v *Vector[T]) Len() int { return len(v.Values) }
func (*Vector[T]) isColumn()  {}

// Const is Constant(value, length): a single logical value repeated over
// Length rows. IsNull marks a constant NULL (ClickHouse's
// ColumnConst::onlyNull()) - Value is nil in that case.
type Const struct {
	Value  Column
	Length int
	IsNull bool
}

func NewConst(value Column, length int) *Const {
	if value != nil && value.Len() != 1 {
		panic("column: Const value must hold exactly one row")
	}
	return &Const{Value: value, Length: length}
}

func NewConstNull(length int) *Const {
	return &Const{Length: length, IsNull: true}
}

func (c *Const) Len() int { return c.Length }
func (*Const) isColumn()  {}

// Nullable is Nullable(values, null_map): NullMap has one byte per row,
// 1 meaning the row is null. The wrapped Values column must not itself be
// a Const or a Nullable - see MaterializeConstant and block.WrapInNullable.
type Nullable struct {
	Values  Column
	NullMap []byte
}

func NewNullable(values Column, nullMap []byte) *Nullable {
	if len(nullMap) != values.Len() {
		panic("column: null map length must match values length")
	}
	if _, ok := values.(*Nullable); ok {
		panic("column: Nullable(Nullable(...)) is not allowed")
	}
	if _, ok := values.(*Const); ok {
		panic("column: Nullable(Const(...)) is not allowed, materialize the constant first")
	}
	return &Nullable{Values: values, NullMap: nullMap}
}

func (n *Nullable) Len() int { return len(n.NullMap) }
func (*Nullable) isColumn()  {}

// IsNull reports whether row i is null.
func (n *Nullable) IsNull(i int) bool { return n.NullMap[i] != 0 }

// Dictionary is Dictionary(dict, indexes): Indexes[i] selects a row of
// Dict. Shared marks a dictionary whose identity is stable across many
// blocks (e.g. a source column materialized once and reused by a scan) and
// is therefore eligible for the dictionary result cache.
type Dictionary struct {
	Dict    Column
	Indexes []int32
	Shared  bool

	hashHi, hashLo uint64
	hashed         bool
}

func NewDictionary(dict Column, indexes []int32, shared bool) *Dictionary {
	return &Dictionary{Dict: dict, Indexes: indexes, Shared: shared}
}

func (d *Dictionary) Len() int { return len(d.Indexes) }
func (*Dictionary) isColumn()  {}

// Size returns the dictionary's cardinality (not the number of indexes).
func (d *Dictionary) Size() int { return d.Dict.Len() }

// Hash returns a 128-bit content hash of the dictionary (not the
// indexes), split into two 64-bit halves since Go has no native uint128.
// The hash is computed on the first call and cached on this Dictionary
// value, so repeated dispatches over the same Dictionary value hash its
// contents only once.
func (d *Dictionary) Hash() (hi, lo uint64) {
	if d.hashed {
		return d.hashHi, d.hashLo
	}
	b := flatten(d.Dict)
	sum := xxh3.Hash128(b)
	d.hashHi, d.hashLo, d.hashed = sum.Hi, sum.Lo, true
	return d.hashHi, d.hashLo
}

func flatten(c Column) []byte {
	switch v := c.(type) {
	case *Vector[int64]:
		buf := make([]byte, 0, len(v.Values)*8)
		for _, x := range v.Values {
			buf = append(buf,
				byte(x), byte(x>>8), byte(x>>16), byte(x>>24),
				byte(x>>32), byte(x>>40), byte(x>>48), byte(x>>56))
		}
		return buf
	case *Vector[float64]:
		iv := &Vector[int64]{Values: make([]int64, len(v.Values))}
		for i, x := range v.Values {
			iv.Values[i] = int64(math.Float64bits(x))
		}
		return flatten(iv)
	case *Vector[bool]:
		buf := make([]byte, len(v.Values))
		for i, x := range v.Values {
			if x {
				buf[i] = 1
			}
		}
		return buf
	case *Vector[string]:
		buf := make([]byte, 0)
		for _, s := range v.Values {
			buf = append(buf, []byte(s)...)
			buf = append(buf, 0)
		}
		return buf
	default:
		panic(fmt.Sprintf("column: flatten: unsupported ground column %T", c))
	}
}

// ArrayCol is a nested array column: row i spans Offsets[i-1]..Offsets[i]
// of Inner (Offsets[-1] treated as 0).
type ArrayCol struct {
	Offsets []int64
	Inner   Column
}

func (a *ArrayCol) Len() int { return len(a.Offsets) }
func (*ArrayCol) isColumn()  {}

// TupleCol is a fixed-arity struct-of-arrays column.
type TupleCol struct {
	Children []Column
	Names    []string
}

func (t *TupleCol) Len() int {
	if len(t.Children) == 0 {
		return 0
	}
	return t.Children[0].Len()
}
func (*TupleCol) isColumn() {}

// StripDict removes dictionary encoding from c, recursing through Array,
// Const and Tuple wrappers per IFunction.cpp's
// recursiveRemoveLowCardinality(ColumnPtr): those wrappers are always
// rebuilt (even when nothing beneath them changes) but a plain, non-
// dictionary-bearing column is returned unchanged with no allocation -
// the required fast path.
func StripDict(c Column) Column {
	switch v := c.(type) {
	case *Dictionary:
		return materializeDictionary(v)
	case *ArrayCol:
		return &ArrayCol{Offsets: v.Offsets, Inner: StripDict(v.Inner)}
	case *Const:
		if v.IsNull {
			return v
		}
		return NewConst(StripDict(v.Value), v.Length)
	case *TupleCol:
		children := make([]Column, len(v.Children))
		for i, ch := range v.Children {
			children[i] = StripDict(ch)
		}
		return &TupleCol{Children: children, Names: v.Names}
	default:
		return c
	}
}

func materializeDictionary(d *Dictionary) Column {
	switch dict := d.Dict.(type) {
	case *Vector[int64]:
		return gatherVector(dict, d.Indexes)
	case *Vector[float64]:
		return gatherVector(dict, d.Indexes)
	case *Vector[bool]:
		return gatherVector(dict, d.Indexes)
	case *Vector[string]:
		return gatherVector(dict, d.Indexes)
	default:
		panic(fmt.Sprintf("column: materializeDictionary: unsupported dictionary type %T", d.Dict))
	}
}

func gatherVector[T any](dict *Vector[T], indexes []int32) *Vector[T] {
	out := make([]T, len(indexes))
	for i, idx := range indexes {
		out[i] = dict.Values[idx]
	}
	return &Vector[T]{Values: out}
}

// Index composes two index arrays the way a dictionary's own remap
// composes with a caller's selection: result[i] = a[b[i]]. Used both to
// apply a cache's IndexRemap to a caller's Indexes, and internally by
// UniqueInsertRange's callers.
func Index(a []int32, b []int32) []int32 {
	out := make([]int32, len(b))
	for i, idx := range b {
		out[i] = a[idx]
	}
	return out
}

// MaterializeConstant expands a Const to a full, one-value-per-row column.
// Panics if given a constant NULL - callers must handle that case
// (block.WrapInNullable's short circuit) before calling this.
func MaterializeConstant(c *Const) Column {
	if c.IsNull {
		panic("column: cannot materialize a constant NULL, wrap in Nullable instead")
	}
	switch v := c.Value.(type) {
	case *Vector[int64]:
		return repeat(v.Values[0], c.Length)
	case *Vector[float64]:
		return repeat(v.Values[0], c.Length)
	case *Vector[bool]:
		return repeat(v.Values[0], c.Length)
	case *Vector[string]:
		return repeat(v.Values[0], c.Length)
	default:
		panic(fmt.Sprintf("column: MaterializeConstant: unsupported ground column %T", c.Value))
	}
}

func repeat[T any](v T, n int) *Vector[T] {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return &Vector[T]{Values: out}
}

// UniqueInsertRange builds a fresh dictionary out of a flat column,
// returning (unique dictionary, per-row indexes into it) such that
// dict.Indexes[i] selects the row of the returned dictionary equal to
// values row i. Grounded on ClickHouse's
// IColumnUnique::uniqueInsertRangeFrom.
func UniqueInsertRange(values Column) (*Dictionary, error) {
	switch v := values.(type) {
	case *Vector[int64]:
		return uniqueInsert(v.Values)
	case *Vector[float64]:
		return uniqueInsert(v.Values)
	case *Vector[bool]:
		return uniqueInsert(v.Values)
	case *Vector[string]:
		return uniqueInsert(v.Values)
	default:
		return nil, fmt.Errorf("column: UniqueInsertRange: unsupported ground column %T", values)
	}
}

func uniqueInsert[T comparable](values []T) (*Dictionary, error) {
	seen := make(map[T]int32, len(values))
	var order []T
	indexes := make([]int32, len(values))
	for i, v := range values {
		idx, ok := seen[v]
		if !ok {
			idx = int32(len(order))
			seen[v] = idx
			order = append(order, v)
		}
		indexes[i] = idx
	}
	return NewDictionary(&Vector[T]{Values: order}, indexes, false), nil
}

// CheckInvariant panics if c's row count does not match n - a guard
// against a kernel returning a column of the wrong length (a bug in the
// kernel, not caller input). Nothing in this module calls it.
func CheckInvariant(c Column, n int) {
	assert.That(c.Len() == n, "column: expected %d rows, got %d (%T)", n, c.Len(), c)
}
