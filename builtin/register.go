package builtin

import (
	"github.com/coldispatch/coldispatch/kernel"
	"github.com/coldispatch/coldispatch/registry"
)

// Register installs every demonstration function into reg. Grounded on
// compute/exec/builtin.go's registration pattern, exposed as an explicit
// function rather than a package init() since coldispatch has no single
// default registry the way the teacher's compute package does.
func Register(reg *registry.FunctionRegistry) error {
	fns := []kernel.Function{
		Add, Multiply, Subtract,
		Upper, Length,
		Equal, EqualConstRight,
		ToStringInt64, ToStringFloat64,
	}
	for _, fn := range fns {
		if err := reg.AddFunction(fn, false); err != nil {
			return err
		}
	}
	return nil
}
