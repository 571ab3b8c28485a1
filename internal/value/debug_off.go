//go:build !clever_debug

package value

// debugAssertNonNegative is a no-op in normal builds. Build with
// -tags clever_debug to turn a refcount underflow into a panic instead of a
// silently ignored release — see spec.md §9 on making refcount bugs
// "detectable by debug assertions".
func debugAssertNonNegative(v *Value) {}
