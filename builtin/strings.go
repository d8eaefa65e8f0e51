package builtin

import (
	"fmt"
	"strings"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

// upperFunc is String -> String, uppercasing each row. It declares
// dictionary support with CanExecuteOnDefaultArguments: the dispatch
// engine may run it once over a shared dictionary's distinct values and
// cache the result, since uppercasing a dictionary's contents once and
// remapping indexes is equivalent to uppercasing every row directly.
type upperFunc struct{}

func (upperFunc) Name() string        { return "upper" }
func (upperFunc) Arity() kernel.Arity { return kernel.Unary() }

func (upperFunc) Capabilities() kernel.CapabilityFlags {
	return kernel.CapabilityFlags{
		UseDefaultForNulls:                   true,
		UseDefaultForDictionary:              true,
		CanExecuteOnDefaultArguments:         true,
		CanExecuteOnLowCardinalityDictionary: true,
	}
}

func (upperFunc) ReturnTypeImpl(argTypes []types.Type) (types.Type, error) {
	if argTypes[0].Kind() != types.KindString {
		return types.Type{}, fmt.Errorf("builtin: upper expects a String argument, got %s", argTypes[0])
	}
	return types.String, nil
}

func (upperFunc) ExecuteImpl(ctx *kernel.Ctx, blk *block.Block, args []int, resultIdx, nRows int) error {
	v, ok := blk.Positions[args[0]].Column.(*column.Vector[string])
	if !ok {
		return fmt.Errorf("builtin: upper expects a Plain String column, got %T", blk.Positions[args[0]].Column)
	}
	out := make([]string, nRows)
	for i := 0; i < nRows; i++ {
		out[i] = strings.ToUpper(v.Values[i])
	}
	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

// Upper is String -> String, uppercasing each row.
var Upper kernel.Function = upperFunc{}

// lengthFunc is String -> Int64. Unlike Upper, it does not declare
// CanExecuteOnDefaultArguments, so a dictionary argument is dispatched
// through the minimal-encoding branch of the outer entry (§4.D.1 step c)
// rather than the whole-dictionary/cache branch - a deliberate contrast
// used by the dispatch tests to exercise both branches.
type lengthFunc struct{}

func (lengthFunc) Name() string        { return "length" }
func (lengthFunc) Arity() kernel.Arity { return kernel.Unary() }

func (lengthFunc) Capabilities() kernel.CapabilityFlags {
	return kernel.CapabilityFlags{
		UseDefaultForNulls:      true,
		UseDefaultForDictionary: true,
	}
}

func (lengthFunc) ReturnTypeImpl(argTypes []types.Type) (types.Type, error) {
	if argTypes[0].Kind() != types.KindString {
		return types.Type{}, fmt.Errorf("builtin: length expects a String argument, got %s", argTypes[0])
	}
	return types.Int64, nil
}

func (lengthFunc) ExecuteImpl(ctx *kernel.Ctx, blk *block.Block, args []int, resultIdx, nRows int) error {
	v, ok := blk.Positions[args[0]].Column.(*column.Vector[string])
	if !ok {
		return fmt.Errorf("builtin: length expects a Plain String column, got %T", blk.Positions[args[0]].Column)
	}
	out := make([]int64, nRows)
	for i := 0; i < nRows; i++ {
		out[i] = int64(len(v.Values[i]))
	}
	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

// Length is String -> Int64.
var Length kernel.Function = lengthFunc{}
