// Package assert provides lightweight runtime assertions for the
// position/movegen packages. There is no build tag that disables them:
// DEBUG is a plain variable, true by default, and Assert itself always
// checks its condition.
package assert

import "fmt"

// DEBUG gates the cost of Assert at call sites: callers wrap Assert
// calls in `if assert.DEBUG { ... }` so the format arguments are not
// even evaluated when it is set to false.
var DEBUG = true

// Assert panics with the formatted message if cond is false, regardless
// of DEBUG.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
