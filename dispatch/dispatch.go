// Package dispatch implements the two cascading dispatch entries and the
// return-type mirror that make up the core of coldispatch: the outer
// entry strips dictionary encoding (§4.D.1), the inner entry strips
// constants then nulls before finally invoking the kernel (§4.D.2), and
// GetReturnType mirrors both stripping passes purely at the type level
// (§4.E).
//
// Grounded on IFunction.cpp's PreparedFunctionImpl::execute and
// getReturnType/getReturnTypeWithoutDictionary for algorithmic semantics;
// on compute/exec/functions/exec.go's executeFunctionImpl for the Go
// entry-point shape and error-wrapping convention.
package dispatch

import (
	"fmt"

	"github.com/coldispatch/coldispatch/block"
	"github.com/coldispatch/coldispatch/column"
	"github.com/coldispatch/coldispatch/dictcache"
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/types"
)

// Execute is the outer dispatch entry (§4.D.1). fn is invoked with
// whichever encodings it opted not to handle itself already stripped;
// cache may be nil, in which case the dictionary result cache is simply
// never consulted (fn behaves as if no dictionary argument were ever
// shared).
func Execute(ctx *kernel.Ctx, fn kernel.Function, cache *dictcache.Cache, blk *block.Block, args []int, resultIdx, nRows int) error {
	if err := checkArity(fn, args); err != nil {
		return err
	}

	caps := fn.Capabilities()
	if !caps.UseDefaultForDictionary {
		return executeInner(ctx, fn, blk, args, resultIdx, nRows)
	}

	resultType := blk.Positions[resultIdx].Type
	if !types.IsDictionary(resultType) {
		return executeCaseB(ctx, fn, blk, args, resultIdx, nRows)
	}
	return executeCaseA(ctx, fn, cache, blk, args, resultIdx, nRows, caps)
}

// executeCaseB handles §4.D.1 Case B: the result is not dictionary
// encoded, so every dictionary argument is fully materialized before the
// inner entry runs.
func executeCaseB(ctx *kernel.Ctx, fn kernel.Function, blk *block.Block, args []int, resultIdx, nRows int) error {
	shadow := &block.Block{Positions: append([]block.Position(nil), blk.Positions...)}
	for _, idx := range args {
		pos := shadow.Positions[idx]
		shadow.Positions[idx] = block.Position{
			Name:   pos.Name,
			Type:   types.StripDict(pos.Type),
			Column: column.StripDict(pos.Column),
		}
	}

	if err := executeInner(ctx, fn, shadow, args, resultIdx, nRows); err != nil {
		return err
	}
	blk.Positions[resultIdx].Column = shadow.Positions[resultIdx].Column
	return nil
}

// executeCaseA handles §4.D.1 Case A: the result is dictionary encoded.
// Grounded line-for-line on IFunction.cpp::execute's dictionary branch and
// its replaceColumnsWithDictionaryByNestedAndGetDictionaryIndexes helper:
// callerIndexes is seeded from the dictionary argument's own per-row
// indexes and is only overwritten - not cleared - when the minimal
// encoding path runs, so the final result composition
// (resultIndexes.index(callerIndexes)) applies uniformly whether or not
// can_execute_on_default_arguments was used.
func executeCaseA(ctx *kernel.Ctx, fn kernel.Function, cache *dictcache.Cache, blk *block.Block, args []int, resultIdx, nRows int, caps kernel.CapabilityFlags) error {
	_, dictCol, err := findDictionaryArgument(blk, args)
	if err != nil {
		return err
	}

	strippedResultType := types.StripDict(blk.Positions[resultIdx].Type)
	useCache := caps.CanExecuteOnDefaultArguments && dictCol != nil && dictCol.Shared && cache != nil

	var key dictcache.Key
	if useCache {
		hi, lo := dictCol.Hash()
		key = dictcache.Key{Hi: hi, Lo: lo, Size: uint64(dictCol.Size())}
		if cached, ok := cache.Get(key); ok {
			result := column.NewDictionary(cached.Result, column.Index(cached.IndexRemap, dictCol.Indexes), true)
			blk.Positions[resultIdx].Column = result
			return nil
		}
	}

	shadow := &block.Block{Positions: append([]block.Position(nil), blk.Positions...)}
	var callerIndexes []int32
	shadowRows := nRows

	for _, idx := range args {
		pos := shadow.Positions[idx]
		switch v := pos.Column.(type) {
		case *column.Const:
			inner := column.StripDict(v.Value)
			n := nRows
			if dictCol != nil {
				n = dictCol.Size()
			}
			shadow.Positions[idx] = block.Position{
				Name:   pos.Name,
				Type:   types.StripDict(pos.Type),
				Column: column.NewConst(inner, n),
			}
		case *column.Dictionary:
			callerIndexes = v.Indexes
			if caps.CanExecuteOnDefaultArguments {
				shadow.Positions[idx] = block.Position{
					Name:   pos.Name,
					Type:   types.StripDict(pos.Type),
					Column: v.Dict,
				}
				shadowRows = v.Dict.Len()
			} else {
				materialized := column.StripDict(column.NewDictionary(v.Dict, v.Indexes, false))
				uniq, err := column.UniqueInsertRange(materialized)
				if err != nil {
					return err
				}
				callerIndexes = uniq.Indexes
				shadow.Positions[idx] = block.Position{
					Name:   pos.Name,
					Type:   types.StripDict(pos.Type),
					Column: uniq.Dict,
				}
				shadowRows = uniq.Dict.Len()
			}
		default:
			shadow.Positions[idx] = block.Position{
				Name:   pos.Name,
				Type:   types.StripDict(pos.Type),
				Column: column.StripDict(pos.Column),
			}
		}
	}

	shadow.Positions[resultIdx] = block.Position{
		Name: blk.Positions[resultIdx].Name,
		Type: strippedResultType,
	}

	if err := executeInner(ctx, fn, shadow, args, resultIdx, shadowRows); err != nil {
		return err
	}

	keys := shadow.Positions[resultIdx].Column
	if c, ok := keys.(*column.Const); ok {
		keys = column.MaterializeConstant(c)
	}

	resultDict, err := column.UniqueInsertRange(keys)
	if err != nil {
		return err
	}

	if callerIndexes == nil {
		// no dictionary argument was actually present (the result type is
		// dictionary-encoded for some other reason, e.g. an
		// always-constant dictionary result) - nothing to remap through.
		blk.Positions[resultIdx].Column = column.NewDictionary(resultDict.Dict, resultDict.Indexes, true)
		return nil
	}

	if useCache {
		canonical, _ := cache.GetOrSet(key, &dictcache.Value{
			DictHolder: dictCol.Dict,
			Result:     resultDict.Dict,
			IndexRemap: resultDict.Indexes,
		})
		resultDict.Dict = canonical.Result
		resultDict.Indexes = canonical.IndexRemap
	}

	result := column.NewDictionary(resultDict.Dict, column.Index(resultDict.Indexes, callerIndexes), useCache)
	blk.Positions[resultIdx].Column = result
	return nil
}

func findDictionaryArgument(blk *block.Block, args []int) (int, *column.Dictionary, error) {
	found := -1
	var dictCol *column.Dictionary
	for _, idx := range args {
		if d, ok := blk.Positions[idx].Column.(*column.Dictionary); ok {
			if found != -1 {
				return -1, nil, fmt.Errorf("%w: more than one dictionary-encoded argument", ErrLogicError)
			}
			found = idx
			dictCol = d
		}
	}
	return found, dictCol, nil
}

// executeInner is the inner dispatch entry (§4.D.2).
func executeInner(ctx *kernel.Ctx, fn kernel.Function, blk *block.Block, args []int, resultIdx, nRows int) error {
	caps := fn.Capabilities()

	for _, i := range caps.AlwaysConstantArgs {
		if i < 0 || i >= len(args) {
			continue
		}
		if _, ok := blk.Positions[args[i]].Column.(*column.Const); !ok {
			return fmt.Errorf("%w: argument %d must be constant", ErrIllegalColumn, i)
		}
	}

	if caps.UseDefaultForConstants && len(args) > 0 && allConstant(blk, args) {
		return executeConstantsDefault(ctx, fn, blk, args, resultIdx, nRows, caps)
	}

	if caps.UseDefaultForNulls && len(args) > 0 {
		hasNullConstant, hasNullable := scanNullability(blk, args)
		if hasNullConstant {
			blk.Positions[resultIdx].Column = column.NewConstNull(nRows)
			return nil
		}
		if hasNullable {
			return executeNullsDefault(ctx, fn, blk, args, resultIdx, nRows)
		}
	}

	return fn.ExecuteImpl(ctx, blk, args, resultIdx, nRows)
}

func allConstant(blk *block.Block, args []int) bool {
	for _, idx := range args {
		if _, ok := blk.Positions[idx].Column.(*column.Const); !ok {
			return false
		}
	}
	return true
}

func isAlwaysConstant(caps kernel.CapabilityFlags, idx int) bool {
	for _, a := range caps.AlwaysConstantArgs {
		if a == idx {
			return true
		}
	}
	return false
}

func executeConstantsDefault(ctx *kernel.Ctx, fn kernel.Function, blk *block.Block, args []int, resultIdx, nRows int, caps kernel.CapabilityFlags) error {
	tmp := &block.Block{Positions: append([]block.Position(nil), blk.Positions...)}
	unwrapped := false

	for i, idx := range args {
		if isAlwaysConstant(caps, i) {
			continue
		}
		pos := tmp.Positions[idx]
		c := pos.Column.(*column.Const)
		unwrapped = true
		var inner column.Column
		if c.IsNull {
			if caps.UseDefaultForNulls {
				blk.Positions[resultIdx].Column = column.NewConstNull(nRows)
				return nil
			}
			inner = column.NewConstNull(1)
		} else {
			inner = c.Value
		}
		tmp.Positions[idx] = block.Position{Name: pos.Name, Type: pos.Type, Column: inner}
	}

	if !unwrapped {
		return fmt.Errorf("%w: constants default has nothing to unwrap", ErrArityMismatch)
	}

	tmp.Positions[resultIdx] = block.Position{
		Name: blk.Positions[resultIdx].Name,
		Type: blk.Positions[resultIdx].Type,
	}

	if err := executeInner(ctx, fn, tmp, args, resultIdx, 1); err != nil {
		return err
	}

	blk.Positions[resultIdx].Column = column.NewConst(tmp.Positions[resultIdx].Column, nRows)
	return nil
}

func scanNullability(blk *block.Block, args []int) (hasNullConstant, hasNullable bool) {
	for _, idx := range args {
		t := blk.Positions[idx].Type
		if types.OnlyNull(t) {
			hasNullConstant = true
		}
		if types.IsNullable(t) {
			hasNullable = true
		}
	}
	return
}

func executeNullsDefault(ctx *kernel.Ctx, fn kernel.Function, blk *block.Block, args []int, resultIdx, nRows int) error {
	tmp := &block.Block{Positions: append([]block.Position(nil), blk.Positions...)}

	for _, idx := range args {
		pos := tmp.Positions[idx]
		if !types.IsNullable(pos.Type) {
			continue
		}
		switch v := pos.Column.(type) {
		case *column.Nullable:
			tmp.Positions[idx] = block.Position{Name: pos.Name, Type: pos.Type.Elem(), Column: v.Values}
		case *column.Const:
			if v.IsNull {
				// a Nullable-typed constant NULL that is not itself
				// OnlyNull-typed (e.g. an AlwaysConstantArgs position
				// exempted from the constants default): the whole result
				// is a constant NULL, exactly as scanNullability's
				// hasNullConstant short circuit handles the OnlyNull case.
				blk.Positions[resultIdx].Column = column.NewConstNull(nRows)
				return nil
			}
			tmp.Positions[idx] = block.Position{Name: pos.Name, Type: pos.Type.Elem(), Column: v}
		}
	}

	tmp.Positions[resultIdx] = block.Position{
		Name: blk.Positions[resultIdx].Name,
		Type: types.StripDict(blk.Positions[resultIdx].Type),
	}
	if types.IsNullable(tmp.Positions[resultIdx].Type) {
		tmp.Positions[resultIdx].Type = tmp.Positions[resultIdx].Type.Elem()
	}

	if err := executeInner(ctx, fn, tmp, args, resultIdx, nRows); err != nil {
		return err
	}

	wrapped, err := block.WrapInNullable(ctx.Mem, blk.Positions[resultIdx].Type, tmp.Positions[resultIdx].Column, blk, args, nRows)
	if err != nil {
		return err
	}
	blk.Positions[resultIdx].Column = wrapped
	return nil
}

func checkArity(fn kernel.Function, args []int) error {
	if !fn.Arity().Matches(len(args)) {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArityMismatch, fn.Name(), fn.Arity().FixedArity, len(args))
	}
	return nil
}

// GetReturnType is the return-type mirror (§4.E). argColumns is optional
// (nil is fine) and is consulted only to detect a Const wrapper, exactly
// as the source's getReturnType inspects arg.column to decide whether to
// strip a constant before the dictionary check.
func GetReturnType(fn kernel.Function, argTypes []types.Type, argColumns []column.Column) (types.Type, error) {
	caps := fn.Capabilities()

	if !caps.UseDefaultForDictionary {
		return innerReturnType(fn, argTypes, caps)
	}

	stripped := make([]types.Type, len(argTypes))
	fullDictCount, fullOrdinaryCount, anyDict := 0, 0, false
	for i, t := range argTypes {
		stripped[i] = types.StripDict(t)
		if types.IsDictionary(t) {
			anyDict = true
		}

		isConst := false
		if argColumns != nil && i < len(argColumns) {
			_, isConst = argColumns[i].(*column.Const)
		}
		if isConst {
			// a constant argument's type still counts toward anyDict (the
			// source sets has_low_cardinality unconditionally on type),
			// but never toward the full-dict/full-ordinary tallies below.
			continue
		}
		if types.IsDictionary(t) {
			fullDictCount++
		} else {
			fullOrdinaryCount++
		}
	}

	if caps.CanExecuteOnLowCardinalityDictionary && anyDict && fullDictCount <= 1 && fullOrdinaryCount == 0 {
		inner, err := innerReturnType(fn, stripped, caps)
		if err != nil {
			return types.Type{}, err
		}
		return types.DictionaryOf(inner), nil
	}

	return innerReturnType(fn, stripped, caps)
}

func innerReturnType(fn kernel.Function, argTypes []types.Type, caps kernel.CapabilityFlags) (types.Type, error) {
	if !fn.Arity().Matches(len(argTypes)) {
		return types.Type{}, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArityMismatch, fn.Name(), fn.Arity().FixedArity, len(argTypes))
	}

	if caps.UseDefaultForNulls {
		for _, t := range argTypes {
			if types.OnlyNull(t) {
				return types.NullableOf(types.Nothing), nil
			}
		}
	}

	anyNullable := false
	for _, t := range argTypes {
		if types.IsNullable(t) {
			anyNullable = true
			break
		}
	}
	if anyNullable {
		stripped := make([]types.Type, len(argTypes))
		for i, t := range argTypes {
			if types.IsNullable(t) {
				stripped[i] = t.Elem()
			} else {
				stripped[i] = t
			}
		}
		inner, err := fn.ReturnTypeImpl(stripped)
		if err != nil {
			return types.Type{}, err
		}
		return types.NullableOf(inner), nil
	}

	return fn.ReturnTypeImpl(argTypes)
}
