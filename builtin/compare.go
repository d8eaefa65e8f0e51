package builtin

import (
	"fmt"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

// equalFunc is T, T -> Bool for T in {Int64, Float64, String, Bool}.
// alwaysConstRight, when true, produces the EqualConstRight variant that
// demonstrates AlwaysConstantArgs: its second argument must always be
// passed as a Const, letting a caller compare a whole column against one
// fixed value without ever materializing that value per-row. A null in
// an always-constant argument still participates in the nulls default
// normally (see SPEC_FULL.md's Open Question decision) - it is not
// exempted from nullability just because it is exempted from the
// constants default.
type equalFunc struct {
	alwaysConstRight bool
}

func (f equalFunc) Name() string {
	if f.alwaysConstRight {
		return "equal_const_right"
	}
	return "equal"
}

func (equalFunc) Arity() kernel.Arity { return kernel.Binary() }

func (f equalFunc) Capabilities() kernel.CapabilityFlags {
	caps := kernel.CapabilityFlags{
		UseDefaultForConstants: true,
		UseDefaultForNulls:     true,
	}
	if f.alwaysConstRight {
		caps.AlwaysConstantArgs = []int{1}
	}
	return caps
}

func (equalFunc) ReturnTypeImpl(argTypes []types.Type) (types.Type, error) {
	if !types.Equal(argTypes[0], argTypes[1]) {
		return types.Type{}, fmt.Errorf("builtin: equal expects matching argument types, got %s and %s", argTypes[0], argTypes[1])
	}
	return types.Bool, nil
}

func (equalFunc) ExecuteImpl(ctx *kernel.Ctx, blk *block.Block, args []int, resultIdx, nRows int) error {
	lhs := materializeIfConst(blk.Positions[args[0]].Column, nRows)
	rhs := materializeIfConst(blk.Positions[args[1]].Column, nRows)

	out := make([]bool, nRows)
	switch l := lhs.(type) {
	case *column.Vector[int64]:
		r := rhs.(*column.Vector[int64])
		for i := 0; i < nRows; i++ {
			out[i] = l.Values[i] == r.Values[i]
		}
	case *column.Vector[float64]:
		r := rhs.(*column.Vector[float64])
		for i := 0; i < nRows; i++ {
			out[i] = l.Values[i] == r.Values[i]
		}
	case *column.Vector[string]:
		r := rhs.(*column.Vector[string])
		for i := 0; i < nRows; i++ {
			out[i] = l.Values[i] == r.Values[i]
		}
	case *column.Vector[bool]:
		r := rhs.(*column.Vector[bool])
		for i := 0; i < nRows; i++ {
			out[i] = l.Values[i] == r.Values[i]
		}
	default:
		return fmt.Errorf("builtin: equal: unsupported ground column %T", lhs)
	}

	blk.Positions[resultIdx].Column = column.NewVector(out)
	return nil
}

// materializeIfConst expands a Const argument (as reached by an
// AlwaysConstantArgs position that bypassed the constants default) to n
// rows so ExecuteImpl bodies can treat every argument uniformly as a
// Plain column.
func materializeIfConst(c column.Column, n int) column.Column {
	if cst, ok := c.(*column.Const); ok {
		return column.MaterializeConstant(&column.Const{Value: cst.Value, Length: n, IsNull: cst.IsNull})
	}
	return c
}

// Equal is T, T -> Bool.
var Equal kernel.Function = equalFunc{}

// EqualConstRight is T, T -> Bool with its second argument always
// constant.
var EqualConstRight kernel.Function = equalFunc{alwaysConstRight: true}
