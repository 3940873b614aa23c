//go:build wasm

package internal

// goid has no wasm support, so the goroutine guard is a no-op there.
func goroutineID() int64 {
	return 0
}
