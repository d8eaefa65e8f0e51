// Package kernel defines the contract a callable function implements:
// its arity, its capability flags (which default behaviors the dispatch
// engine applies on its behalf), and the ExecuteImpl/ReturnTypeImpl
// methods dispatch invokes once every default has been applied.
//
// Grounded on compute/exec/functions/kernel.go's ScalarKernel/KernelCtx
// shape, generalized from Arrow's per-kernel enum fields to the boolean
// capability-flag struct spec.md's data model calls for (ClickHouse
// expresses the same capabilities as virtual method overrides on
// IFunction; this module follows the teacher's struct-field shape while
// keeping the ClickHouse-named semantics).
package kernel

import (
	"github.com/apache/arrow/go/v9/arrow/memory"
	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/types"
)

// Arity constrains how many arguments a function accepts.
type Arity struct {
	Variadic   bool
	FixedArity int
}

func Nullary() Arity        { return Arity{FixedArity: 0} }
func Unary() Arity          { return Arity{FixedArity: 1} }
func Binary() Arity         { return Arity{FixedArity: 2} }
func Ternary() Arity        { return Arity{FixedArity: 3} }
func VarArgs(min int) Arity { return Arity{Variadic: true, FixedArity: min} }

// Matches reports whether n arguments satisfies a.
func (a Arity) Matches(n int) bool {
	if a.Variadic {
		return n >= a.FixedArity
	}
	return n == a.FixedArity
}

// CapabilityFlags mirrors spec.md's data model exactly: each flag either
// opts a function into one of the dispatch engine's default behaviors, or
// declares which of its arguments must always be materialized as
// constants regardless of what the caller passes.
type CapabilityFlags struct {
	// UseDefaultForConstants: if every argument is Constant, dispatch
	// evaluates ExecuteImpl once over one row and rewraps the result as a
	// Constant instead of invoking the kernel over the full row count.
	UseDefaultForConstants bool

	// UseDefaultForNulls: if any argument is Nullable, dispatch strips the
	// null maps, composes their union, invokes ExecuteImpl over the
	// stripped values, and rewraps the result in Nullable with the
	// composed map. If any Nullable argument is a constant NULL, dispatch
	// short-circuits to a constant NULL result without invoking the
	// kernel at all.
	UseDefaultForNulls bool

	// UseDefaultForDictionary: if any argument is Dictionary-encoded,
	// dispatch strips the encoding, invokes ExecuteImpl (or the inner
	// pipeline) over plain columns, and, when the result position's type is
	// Dictionary-encoded, rebuilds a Dictionary result; otherwise the plain
	// result is written as-is.
	UseDefaultForDictionary bool

	// CanExecuteOnDictionary: the function is safe to run directly on a
	// dictionary's distinct values (rather than a materialized column)
	// when the result is itself dictionary-encodable. Declared per
	// spec.md's capability-flag list; the dispatch engine's outer entry
	// gates purely on UseDefaultForDictionary (spec.md §4.D.1 step 1), so
	// this flag is not yet consulted anywhere - it is here for a future
	// kernel that wants to advertise the distinction from
	// CanExecuteOnDefaultArguments without changing the outer gate.
	CanExecuteOnDictionary bool

	// CanExecuteOnDefaultArguments: when a dictionary argument is
	// present, the function may be run over the dictionary's full
	// distinct-value column (rather than a minimal encoding built just
	// for the rows in this block), which is what the dictionary result
	// cache keys on and reuses across blocks sharing that dictionary.
	CanExecuteOnDefaultArguments bool

	// CanExecuteOnLowCardinalityDictionary lets the return-type mirror
	// (dispatch.GetReturnType) report a Dictionary-encoded result type when
	// some argument is Dictionary-typed, at most one full (non-Const)
	// argument is Dictionary-encoded and no full argument is ordinary.
	// Execute does not consult it; use of the result cache depends on
	// CanExecuteOnDefaultArguments instead.
	CanExecuteOnLowCardinalityDictionary bool

	// AlwaysConstantArgs lists argument indexes (ordinals into the args
	// slice, not block positions) that must be constant on
	// every call - dispatch rejects a call where one of these positions
	// is not a Const with ErrIllegalColumn instead of trying to apply the
	// constants default to them.
	AlwaysConstantArgs []int
}

// Ctx carries the resources a kernel's ExecuteImpl needs: the allocator
// used for any output buffers it allocates itself. Modeled on
// compute/exec/functions/kernel.go's KernelCtx, trimmed to what this
// module's kernels actually consume - no KernelState, since coldispatch
// functions are stateless per spec.md's scope.
type Ctx struct {
	Mem memory.Allocator
}

// Function is the contract a callable implements. ExecuteImpl is invoked
// by the dispatch engine only after every capability default that
// applies has already been peeled off: no Nullable, Dictionary or (when
// UseDefaultForConstants is set) all-Constant arguments remain in blk's
// positions named by args unless the function opted out of stripping
// them by leaving the corresponding UseDefaultForNulls,
// UseDefaultForDictionary or UseDefaultForConstants flag false
// (AlwaysConstantArgs positions also stay Const).
type Function interface {
	Name() string
	Arity() Arity
	Capabilities() CapabilityFlags

	// ExecuteImpl computes nRows values starting at row 0 of each
	// argument position (arguments have already been sliced/stripped as
	// needed by the dispatch engine) and writes the result into
	// blk.Positions[resultIdx].Column.
	ExecuteImpl(ctx *Ctx, blk *block.Block, args []int, resultIdx, nRows int) error

	// ReturnTypeImpl computes the function's result type given its
	// argument types, mirroring whatever ExecuteImpl actually produces.
	// Called only after the return-type mirror (package dispatch) has
	// already stripped Nullable/Dictionary wrappers per its own rules.
	ReturnTypeImpl(argTypes []types.Type) (types.Type, error)
}

// Compilable is an optional peer interface a Function may additionally
// implement to advertise JIT-compilability to an external code generator.
// The dispatch engine never calls into it; no compiler backend exists in
// this module (see SPEC_FULL.md) so this is a declaration point only,
// mirroring IFunction::isCompilable being a pure query rather than
// something the interpreted executor itself invokes.
type Compilable interface {
	IsCompilableImpl(argTypes []types.Type) bool
}
