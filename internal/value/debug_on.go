//go:build clever_debug

package value

import "fmt"

// debugAssertNonNegative panics when a Value's RefCount is driven below
// zero, which can only happen if some caller released a reference it never
// held. Gated behind clever_debug so production builds pay nothing for it.
func debugAssertNonNegative(v *Value) {
	panic(fmt.Sprintf("value: refcount underflow on %#v", v))
}
