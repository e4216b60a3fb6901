// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// direct accesses the bus without any translation, the program runs on the
// part itself.
type direct struct{}

// Open returns the bare metal provider. The regions are ignored since the
// entire address space is already accessible.
func Open(regions ...Region) (Provider, error) {
	return direct{}, nil
}

func (direct) MustRead32(a uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(a)))
}

func (direct) MustWrite32(a uintptr, d uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(a)), d)
}

func (direct) Close() {
}
