// Copyright 2018-2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmio provides 32-bit access to memory-mapped peripherals.
//
// Every access goes straight to the bus: nothing is cached and accesses
// are issued in program order. Addresses are absolute physical addresses
// as found in the part's reference manual.
package mmio

// Provider is the raw register interface of a peripheral. Accesses that
// cannot be performed (unmapped or misaligned addresses) panic, there is
// no sane way to continue driving hardware after that.
type Provider interface {
	MustRead32(uintptr) uint32
	MustWrite32(uintptr, uint32)
	Close()
}

// Region is a window of physical address space that a Provider makes
// accessible.
type Region struct {
	Base uintptr
	Size int
}

func (r Region) contains(a uintptr) bool {
	return a >= r.Base && a-r.Base < uintptr(r.Size)
}
