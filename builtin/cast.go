package builtin

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/constraints"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

// toStringFunc is Int64 -> String or Float64 -> String, grounded on
// compute/exec/kernels/cast_numeric.go's numeric-to-string cast path.
type toStringFunc struct {
	from types.Type
}

func (f toStringFunc) Name() string {
	switch f.from.Kind() {
	case types.KindInt64:
		return "to_string_int64"
	case types.KindFloat64:
		return "to_string_float64"
	default:
		return "to_string"
	}
}

func (toStringFunc) Arity() kernel.Arity { return kernel.Unary() }

func (toStringFunc) Capabilities() kernel.CapabilityFlags {
	return kernel.CapabilityFlags{
		UseDefaultForConstants: true,
		UseDefaultForNulls:     true,
	}
}

func (f toStringFunc) ReturnTypeImpl(argTypes []types.Type) (types.Type, error) {
	if argTypes[0].Kind() != f.from.Kind() {
		return types.Type{}, fmt.Errorf("builtin: %s expects %s, got %s", f.Name(), f.from, argTypes[0])
	}
	return types.String, nil
}

func (f toStringFunc) ExecuteImpl(ctx *kernel.Ctx, blk *block.Block, args []int, resultIdx, nRows int) error {
	switch f.from.Kind() {
	case types.KindInt64:
		return execToString(blk, args[0], resultIdx, nRows, func(v int64) string {
			return strconv.FormatInt(v, 10)
		})
	case types.KindFloat64:
		return execToStringFloat(blk, args[0], resultIdx, nRows)
	default:
		return fmt.Errorf("builtin: unsupported source type %s", f.from)
	}
}

func execToString[T constraints.Integer](blk *block.Block, argIdx, resultIdx, nRows int, format func(T) string) error {
	v, ok := blk.Positions[argIdx].Column.(*column.Vector[T])
	if !ok {
		return fmt.Errorf("builtin: to_string: expected a Plain column, got %T", blk.Positions[argIdx].Column)
	}
	out := make([]string, nRows)
	for i := 0; i < nRows; i++ {
		out[i] = format(v.Values[i])
	}
	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

func execToStringFloat(blk *block.Block, argIdx, resultIdx, nRows int) error {
	v, ok := blk.Positions[argIdx].Column.(*column.Vector[float64])
	if !ok {
		return fmt.Errorf("builtin: to_string: expected a Plain Float64 column, got %T", blk.Positions[argIdx].Column)
	}
	out := make([]string, nRows)
	for i := 0; i < nRows; i++ {
		out[i] = strconv.FormatFloat(v.Values[i], 'g', -1, 64)
	}
	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

// ToStringInt64 is Int64 -> String.
var ToStringInt64 kernel.Function = toStringFunc{from: types.Int64}

// ToStringFloat64 is Float64 -> String.
var ToStringFloat64 kernel.Function = toStringFunc{from: types.Float64}
