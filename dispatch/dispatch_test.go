package dispatch_test

import (
	"testing"

	"github.com/apache/arrow/go/v9/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/builtin"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/dictcache"
	"github.com/coldispatch/coldispatch/dispatch"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

func newCtx() *kernel.Ctx {
	return &kernel.Ctx{Mem: memory.NewGoAllocator()}
}

func TestConstantsDefaultProducesConstantResult(t *testing.T) {
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.Int64, Column: column.NewConst(column.NewVector([]int64{2}), 5)},
		{Name: "b", Type: types.Int64, Column: column.NewConst(column.NewVector([]int64{3}), 5)},
		{Name: "sum", Type: types.Int64},
	}}

	err := dispatch.Execute(newCtx(), builtin.Add, nil, blk, []int{0, 1}, 2, 5)
	require.NoError(t, err)

	c, ok := blk.Positions[2].Column.(*column.Const)
	require.True(t, ok, "expected a Const result, got %T", blk.Positions[2].Column)
	assert.Equal(t, 5, c.Len())
	v := c.Value.(*column.Vector[int64])
	assert.Equal(t, []int64{5}, v.Values)
}

func TestNullsDefaultComposesNullMap(t *testing.T) {
	a := column.NewNullable(column.NewVector([]int64{1, 2, 3}), []byte{0, 1, 0})
	b := column.NewNullable(column.NewVector([]int64{10, 20, 30}), []byte{0, 0, 1})
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.NullableOf(types.Int64), Column: a},
		{Name: "b", Type: types.NullableOf(types.Int64), Column: b},
		{Name: "sum", Type: types.NullableOf(types.Int64)},
	}}

	err := dispatch.Execute(newCtx(), builtin.Add, nil, blk, []int{0, 1}, 2, 3)
	require.NoError(t, err)

	n, ok := blk.Positions[2].Column.(*column.Nullable)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 1, 1}, n.NullMap)
	v := n.Values.(*column.Vector[int64])
	assert.Equal(t, int64(11), v.Values[0])
}

func TestNullConstantShortCircuits(t *testing.T) {
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.NullableOf(types.Nothing), Column: column.NewConstNull(4)},
		{Name: "b", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3, 4})},
		{Name: "sum", Type: types.NullableOf(types.Int64)},
	}}

	err := dispatch.Execute(newCtx(), builtin.Add, nil, blk, []int{0, 1}, 2, 4)
	require.NoError(t, err)

	c, ok := blk.Positions[2].Column.(*column.Const)
	require.True(t, ok)
	assert.True(t, c.IsNull)
	assert.Equal(t, 4, c.Len())
}

func TestDictionaryMinimalEncodingBranch(t *testing.T) {
	dict := column.NewVector([]string{"aa", "bbb", "cccc"})
	dc := column.NewDictionary(dict, []int32{0, 2, 0}, false)

	blk := &block.Block{Positions: []block.Position{
		{Name: "s", Type: types.DictionaryOf(types.String), Column: dc},
		{Name: "len", Type: types.DictionaryOf(types.Int64)},
	}}

	err := dispatch.Execute(newCtx(), builtin.Length, nil, blk, []int{0}, 1, 3)
	require.NoError(t, err)

	result, ok := blk.Positions[1].Column.(*column.Dictionary)
	require.True(t, ok)
	materialized := column.StripDict(result).(*column.Vector[int64])
	assert.Equal(t, []int64{2, 4, 2}, materialized.Values)
}

func TestDictionaryCacheHitOnSecondCall(t *testing.T) {
	cache := dictcache.New(4)
	dict := column.NewVector([]string{"a", "bb"})

	block1 := &block.Block{Positions: []block.Position{
		{Name: "s", Type: types.DictionaryOf(types.String), Column: column.NewDictionary(dict, []int32{0, 1, 0}, true)},
		{Name: "u", Type: types.DictionaryOf(types.String)},
	}}
	require.NoError(t, dispatch.Execute(newCtx(), builtin.Upper, cache, block1, []int{0}, 1, 3))
	assert.Equal(t, 1, cache.Len())

	block2 := &block.Block{Positions: []block.Position{
		{Name: "s", Type: types.DictionaryOf(types.String), Column: column.NewDictionary(dict, []int32{1, 1, 0}, true)},
		{Name: "u", Type: types.DictionaryOf(types.String)},
	}}
	require.NoError(t, dispatch.Execute(newCtx(), builtin.Upper, cache, block2, []int{0}, 1, 3))
	assert.Equal(t, 1, cache.Len(), "second call over the same dictionary must hit, not grow the cache")

	got1 := column.StripDict(block1.Positions[1].Column).(*column.Vector[string])
	got2 := column.StripDict(block2.Positions[1].Column).(*column.Vector[string])
	assert.Equal(t, []string{"A", "BB", "A"}, got1.Values)
	assert.Equal(t, []string{"BB", "BB", "A"}, got2.Values)
}

func TestAlwaysConstantViolationIsIllegalColumn(t *testing.T) {
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3})},
		{Name: "b", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3})},
		{Name: "eq", Type: types.Bool},
	}}

	err := dispatch.Execute(newCtx(), builtin.EqualConstRight, nil, blk, []int{0, 1}, 2, 3)
	assert.ErrorIs(t, err, dispatch.ErrIllegalColumn)
}

func TestAlwaysConstantNullArgumentShortCircuitsInsteadOfPanicking(t *testing.T) {
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.Int64, Column: column.NewVector([]int64{1, 2, 3})},
		{Name: "b", Type: types.NullableOf(types.Int64), Column: column.NewConstNull(3)},
		{Name: "eq", Type: types.NullableOf(types.Bool)},
	}}

	err := dispatch.Execute(newCtx(), builtin.EqualConstRight, nil, blk, []int{0, 1}, 2, 3)
	require.NoError(t, err)

	c, ok := blk.Positions[2].Column.(*column.Const)
	require.True(t, ok, "expected a Const NULL result, got %T", blk.Positions[2].Column)
	assert.True(t, c.IsNull)
	assert.Equal(t, 3, c.Len())
}

func TestArityMismatch(t *testing.T) {
	blk := &block.Block{Positions: []block.Position{
		{Name: "a", Type: types.Int64, Column: column.NewVector([]int64{1})},
		{Name: "sum", Type: types.Int64},
	}}

	err := dispatch.Execute(newCtx(), builtin.Add, nil, blk, []int{0}, 1, 1)
	assert.ErrorIs(t, err, dispatch.ErrArityMismatch)
}

func TestGetReturnTypeNullableArgumentGivesNullableResult(t *testing.T) {
	rt, err := dispatch.GetReturnType(builtin.Add, []types.Type{types.NullableOf(types.Int64), types.Int64}, nil)
	require.NoError(t, err)
	assert.True(t, types.Equal(types.NullableOf(types.Int64), rt))
}

func TestGetReturnTypeDictionaryPassthrough(t *testing.T) {
	rt, err := dispatch.GetReturnType(builtin.Upper, []types.Type{types.DictionaryOf(types.String)}, nil)
	require.NoError(t, err)
	assert.True(t, types.Equal(types.DictionaryOf(types.String), rt))
}

// TestGetReturnTypeConstDictionaryArgumentStillCountsAsAnyDict guards
// against treating a Const-wrapped Dictionary argument as if it were not
// Dictionary-typed at all: it must still count toward anyDict (so the
// result is Dictionary-encoded) even though it is excluded from the
// fullDictCount/fullOrdinaryCount tally the cardinality check uses.
func TestGetReturnTypeConstDictionaryArgumentStillCountsAsAnyDict(t *testing.T) {
	dictCol := column.NewDictionary(column.NewVector([]string{"a"}), []int32{0}, true)
	argColumns := []column.Column{column.NewConst(dictCol, 3)}

	rt, err := dispatch.GetReturnType(builtin.Upper, []types.Type{types.DictionaryOf(types.String)}, argColumns)
	require.NoError(t, err)
	assert.True(t, types.Equal(types.DictionaryOf(types.String), rt))
}
