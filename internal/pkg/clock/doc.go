// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly, so code paths that reason about expiry windows can be
// tested with a deterministic time source.
package clock
