// Package builtin provides a small set of demonstration functions that
// exercise every capability-flag combination coldispatch's dispatch
// engine supports, grounded on compute/exec/kernels/cast_numeric.go's
// generic-kernel-body pattern and compute/exec/builtin.go's
// registration convention.
package builtin

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

// binaryIntFunc is the shared generic body of Add, Multiply and Subtract:
// two ground-typed arguments in, one of the same type out, both the
// constants and nulls defaults enabled and dictionary support left off
// (a dictionary-encoded argument reaches ExecuteImpl as-is and is
// rejected there, not being a Plain column). groundType names the concrete Type each instantiation is
// bound to, since a type parameter alone carries no runtime Kind.
type binaryIntFunc[T constraints.Integer] struct {
	name       string
	op         func(a, b T) T
	groundType types.Type
}

func (f *binaryIntFunc[T]) Name() string        { return f.name }
func (f *binaryIntFunc[T]) Arity() kernel.Arity { return kernel.Binary() }

func (f *binaryIntFunc[T]) Capabilities() kernel.CapabilityFlags {
	return kernel.CapabilityFlags{
		UseDefaultForConstants: true,
		UseDefaultForNulls:     true,
	}
}

func (f *binaryIntFunc[T]) ReturnTypeImpl(argTypes []types.Type) (types.Type, error) {
	for _, t := range argTypes {
		if !types.Equal(t, f.groundType) {
			return types.Type{}, fmt.Errorf("builtin: %s expects %s arguments, got %s", f.name, f.groundType, t)
		}
	}
	return f.groundType, nil
}

func (f *binaryIntFunc[T]) ExecuteImpl(ctx *kernel.Ctx, blk *block.Block, args []int, resultIdx, nRows int) error {
	lhs, err := asVector[T](blk.Positions[args[0]].Column, nRows)
	if err != nil {
		return err
	}
	rhs, err := asVector[T](blk.Positions[args[1]].Column, nRows)
	if err != nil {
		return err
	}

	out := make([]T, nRows)
	for i := 0; i < nRows; i++ {
		out[i] = f.op(lhs[i], rhs[i])
	}
	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

func asVector[T any](c column.Column, n int) ([]T, error) {
	v, ok := c.(*column.Vector[T])
	if !ok {
		return nil, fmt.Errorf("builtin: expected a Plain column, got %T", c)
	}
	if len(v.Values) < n {
		return nil, fmt.Errorf("builtin: column has %d rows, need %d", len(v.Values), n)
	}
	return v.Values, nil
}

// Add is Int64 + Int64 -> Int64.
var Add kernel.Function = &binaryIntFunc[int64]{name: "add", op: func(a, b int64) int64 { return a + b }, groundType: types.Int64}

// Multiply is Int64 * Int64 -> Int64.
var Multiply kernel.Function = &binaryIntFunc[int64]{name: "multiply", op: func(a, b int64) int64 { return a * b }, groundType: types.Int64}

// Subtract is Int64 - Int64 -> Int64.
var Subtract kernel.Function = &binaryIntFunc[int64]{name: "subtract", op: func(a, b int64) int64 { return a - b }, groundType: types.Int64}
