package block_test

import (
	"testing"

	"github.com/apache/arrow/go/v9/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/types"
)

func mkBlock(positions ...block.Position) *block.Block {
	return &block.Block{Positions: positions}
}

func testMem() memory.Allocator { return memory.NewGoAllocator() }

func TestWrapInNullableConstNullShortCircuits(t *testing.T) {
	blk := mkBlock(block.Position{Name: "a", Type: types.NullableOf(types.Int64)})
	src := column.NewConstNull(3)

	got, err := block.WrapInNullable(testMem(), types.NullableOf(types.Int64), src, blk, nil, 3)
	require.NoError(t, err)
	c, ok := got.(*column.Const)
	require.True(t, ok)
	assert.True(t, c.IsNull)
	assert.Equal(t, 3, c.Len())
}

func TestWrapInNullableAliasesFirstNullMap(t *testing.T) {
	nullable := column.NewNullable(column.NewVector([]int64{1, 2, 3}), []byte{0, 1, 0})
	blk := mkBlock(block.Position{Name: "a", Type: types.NullableOf(types.Int64), Column: nullable})

	src := column.NewVector([]int64{10, 20, 30})
	got, err := block.WrapInNullable(testMem(), types.Int64, src, blk, []int{0}, 3)
	require.NoError(t, err)

	n, ok := got.(*column.Nullable)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 1, 0}, n.NullMap)
}

func TestWrapInNullableMergesMultipleMapsWithoutMutatingFirst(t *testing.T) {
	firstMap := []byte{0, 1, 0}
	n1 := column.NewNullable(column.NewVector([]int64{1, 2, 3}), firstMap)
	n2 := column.NewNullable(column.NewVector([]int64{4, 5, 6}), []byte{1, 0, 0})
	blk := mkBlock(
		block.Position{Name: "a", Type: types.NullableOf(types.Int64), Column: n1},
		block.Position{Name: "b", Type: types.NullableOf(types.Int64), Column: n2},
	)

	src := column.NewVector([]int64{100, 200, 300})
	got, err := block.WrapInNullable(testMem(), types.Int64, src, blk, []int{0, 1}, 3)
	require.NoError(t, err)

	n := got.(*column.Nullable)
	assert.Equal(t, []byte{1, 1, 0}, n.NullMap)
	assert.Equal(t, []byte{0, 1, 0}, firstMap, "the first argument's null map must not be mutated in place")
}

func TestWrapInNullableConstantNullArgumentShortCircuits(t *testing.T) {
	blk := mkBlock(block.Position{Name: "a", Type: types.NullableOf(types.Int64), Column: column.NewConstNull(3)})
	src := column.NewVector([]int64{1, 2, 3})

	got, err := block.WrapInNullable(testMem(), types.Int64, src, blk, []int{0}, 3)
	require.NoError(t, err)
	c := got.(*column.Const)
	assert.True(t, c.IsNull)
}

func TestWrapInNullableNoNullableArgsProducesAllZeroMap(t *testing.T) {
	blk := mkBlock(block.Position{Name: "a", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3})})
	src := column.NewVector([]int64{1, 2, 3})

	got, err := block.WrapInNullable(testMem(), types.Int64, src, blk, []int{0}, 3)
	require.NoError(t, err)
	n := got.(*column.Nullable)
	assert.Equal(t, []byte{0, 0, 0}, n.NullMap)
}

func TestWrapInNullableUnwrapsAlreadyNullableSrcAndSeedsItsMap(t *testing.T) {
	blk := mkBlock(block.Position{Name: "a", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3})})

	src := column.NewNullable(column.NewVector([]int64{10, 20, 30}), []byte{0, 1, 0})
	got, err := block.WrapInNullable(testMem(), types.NullableOf(types.Int64), src, blk, nil, 3)
	require.NoError(t, err)

	n, ok := got.(*column.Nullable)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 1, 0}, n.NullMap)
	v, ok := n.Values.(*column.Vector[int64])
	require.True(t, ok, "expected the src's nested column, not a re-wrapped Nullable")
	assert.Equal(t, []int64{10, 20, 30}, v.Values)
}

func TestWrapInNullableMergesArgMapIntoAlreadyNullableSrcWithoutMutatingSrc(t *testing.T) {
	srcMap := []byte{0, 1, 0}
	src := column.NewNullable(column.NewVector([]int64{10, 20, 30}), srcMap)

	argNullable := column.NewNullable(column.NewVector([]int64{1, 2, 3}), []byte{1, 0, 0})
	blk := mkBlock(block.Position{Name: "a", Type: types.NullableOf(types.Int64), Column: argNullable})

	got, err := block.WrapInNullable(testMem(), types.NullableOf(types.Int64), src, blk, []int{0}, 3)
	require.NoError(t, err)

	n := got.(*column.Nullable)
	assert.Equal(t, []byte{1, 1, 0}, n.NullMap)
	assert.Equal(t, []byte{0, 1, 0}, srcMap, "src's own null map must not be mutated in place")
}

func TestNewZeroNullMap(t *testing.T) {
	mem := memory.NewGoAllocator()
	buf := block.NewZeroNullMap(mem, 5)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
}
