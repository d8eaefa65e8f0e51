package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coldispatch/coldispatch/types"
)

func TestStripDictGround(t *testing.T) {
	assert.True(t, types.Equal(types.Int64, types.StripDict(types.Int64)))
}

func TestStripDictDictionary(t *testing.T) {
	dt := types.DictionaryOf(types.String)
	assert.True(t, types.Equal(types.String, types.StripDict(dt)))
}

func TestStripDictNestedInArray(t *testing.T) {
	dt := types.ArrayOf(types.DictionaryOf(types.Int64))
	got := types.StripDict(dt)
	assert.True(t, types.Equal(types.ArrayOf(types.Int64), got))
}

func TestStripDictNestedInTuple(t *testing.T) {
	dt := types.TupleOf([]types.Type{types.DictionaryOf(types.Int64), types.String}, []string{"a", "b"})
	got := types.StripDict(dt)
	want := types.TupleOf([]types.Type{types.Int64, types.String}, []string{"a", "b"})
	assert.True(t, types.Equal(want, got))
}

func TestStripDictIdentityForNullable(t *testing.T) {
	dt := types.NullableOf(types.Int64)
	got := types.StripDict(dt)
	assert.True(t, types.Equal(dt, got))
}

func TestOnlyNull(t *testing.T) {
	assert.True(t, types.OnlyNull(types.NullableOf(types.Nothing)))
	assert.False(t, types.OnlyNull(types.NullableOf(types.Int64)))
	assert.False(t, types.OnlyNull(types.Int64))
}

func TestNullableOfNullablePanics(t *testing.T) {
	assert.Panics(t, func() {
		types.NullableOf(types.NullableOf(types.Int64))
	})
}
