// Package block implements the row-group container (Position, Block) that
// flows through dispatch, and the null composer (WrapInNullable) that
// merges several arguments' null maps into one.
package block

import (
	"github.com/apache/arrow/go/v9/arrow/memory"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/internal/assert"
	"github.com/coldispatch/coldispatch/types"
)

// Position is one named, typed column slot in a Block.
type Position struct {
	Name   string
	Type   types.Type
	Column column.Column
}

// Block is an ordered set of Positions sharing a common row count (Const
// positions excepted, since a Const reports its own logical Length).
type Block struct {
	Positions []Position
}

// Rows returns the block's row count: the length of the first
// non-constant position, or the Const length if every position is
// constant.
func (b *Block) Rows() int {
	for _, p := range b.Positions {
		if _, ok := p.Column.(*column.Const); !ok {
			return p.Column.Len()
		}
	}
	if len(b.Positions) == 0 {
		return 0
	}
	return b.Positions[0].Column.Len()
}

// Append adds a new Position to the block and returns its index.
func (b *Block) Append(p Position) int {
	b.Positions = append(b.Positions, p)
	return len(b.Positions) - 1
}

// WrapInNullable composes the null maps of the argument columns named by
// args into a single Nullable(resultType, src) column of length
// inputRowsCount. Grounded line-for-line on IFunction.cpp::wrapInNullable:
//
//   - if src is itself a constant NULL, the whole result is a constant
//     NULL of the same length (no argument's null map matters);
//   - if src is itself already Nullable, it is unwrapped and its own null
//     map seeds the result before any argument is considered - a kernel
//     is free to return an already-Nullable result;
//   - the first null map to reach the result (src's own, if it was
//     Nullable, otherwise the first contributing argument's) is aliased
//     directly into the result (copy-on-write - the caller must not
//     mutate it in place);
//   - every subsequent null map is OR-merged into a private copy, made on
//     first merge;
//   - if no null map was contributed at all (src was not Nullable and no
//     Nullable-typed argument held a Nullable column, e.g. each was a
//     non-null Const), a fresh all-valid map is allocated through mem via
//     NewZeroNullMap.
func WrapInNullable(mem memory.Allocator, resultType types.Type, src column.Column, blk *Block, args []int, inputRowsCount int) (column.Column, error) {
	if c, ok := src.(*column.Const); ok && c.IsNull {
		return column.NewConstNull(inputRowsCount), nil
	}

	srcNotNullable := src
	var resultNullMap []byte
	owned := false

	if n, ok := src.(*column.Nullable); ok {
		srcNotNullable = n.Values
		resultNullMap = n.NullMap
	}

	for _, argIdx := range args {
		pos := blk.Positions[argIdx]
		if !types.IsNullable(pos.Type) {
			continue
		}
		nullable, ok := pos.Column.(*column.Nullable)
		if !ok {
			// a Nullable-typed position holding a Const NULL: every row is
			// null, matching wrapInNullable's constant-null argument case.
			if c, ok := pos.Column.(*column.Const); ok && c.IsNull {
				return column.NewConstNull(inputRowsCount), nil
			}
			continue
		}

		if resultNullMap == nil {
			resultNullMap = nullable.NullMap
			owned = false
			continue
		}

		if !owned {
			cp := make([]byte, len(resultNullMap))
			copy(cp, resultNullMap)
			resultNullMap = cp
			owned = true
		}
		for i, b := range nullable.NullMap {
			if b != 0 {
				resultNullMap[i] = 1
			}
		}
	}

	if resultNullMap == nil {
		resultNullMap = NewZeroNullMap(mem, inputRowsCount)
	}

	assert.That(len(resultNullMap) == inputRowsCount,
		"block: composed null map length %d does not match row count %d", len(resultNullMap), inputRowsCount)

	return column.NewNullable(srcNotNullable, resultNullMap), nil
}

// NewZeroNullMap allocates a fresh all-valid (all-zero) null map of n
// bytes through mem, mirroring KernelCtx.AllocateBitmap's allocator call
// shape with a byte-per-row payload instead of a bit-packed one.
func NewZeroNullMap(mem memory.Allocator, n int) []byte {
	buf := mem.Allocate(n)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
