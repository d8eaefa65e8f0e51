package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldispatch/coldispatch/builtin"
	"github.com/coldispatch/coldispatch/registry"
	"github.com/coldispatch/coldispatch/types"
)

func TestRegisterInstallsEveryFunction(t *testing.T) {
	reg := registry.New()
	require.NoError(t, builtin.Register(reg))

	for _, name := range []string{
		"add", "multiply", "subtract",
		"upper", "length",
		"equal", "equal_const_right",
		"to_string_int64", "to_string_float64",
	} {
		fn, err := reg.GetFunction(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, fn.Name())
	}
}

func TestRegisterRejectsDuplicateWithoutOverwrite(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddFunction(builtin.Add, false))
	err := reg.AddFunction(builtin.Add, false)
	assert.Error(t, err)
}

func TestAddReturnTypeRejectsNonInt64(t *testing.T) {
	_, err := builtin.Add.ReturnTypeImpl([]types.Type{types.String, types.Int64})
	assert.Error(t, err)
}

func TestEqualReturnTypeRejectsMismatchedArgTypes(t *testing.T) {
	_, err := builtin.Equal.ReturnTypeImpl([]types.Type{types.Int64, types.String})
	assert.Error(t, err)
}
