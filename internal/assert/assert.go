// Package assert holds a single invariant-checking helper used throughout
// coldispatch in place of the arrow module's internal/debug.Assert, which
// this module cannot import from outside github.com/apache/arrow/go/v9.
package assert

import "fmt"

// That panics with msg (and its args, fmt.Sprintf-formatted) if cond is
// false. Reserved for conditions that indicate a bug in coldispatch itself,
// never for validating caller-supplied data - those paths return error.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
