package runtime

import (
	_ "unsafe" // for go:linkname
)

// Uint32 returns a fast random uint32 value. Not for cryptographic use.
//
//go:linkname Uint32 runtime.fastrand
func Uint32() uint32

// Uint64 returns a fast random uint64 value built from two Uint32 draws.
func Uint64() uint64 {
	return uint64(Uint32())<<32 | uint64(Uint32())
}
