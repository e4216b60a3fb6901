// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"encoding/binary"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

// ReadNative reads the double word at a, bytes in memory order.
func (f *Flash) ReadNative(a uintptr) [NativeUnit]byte {
	f.checkAccess("read", a, NativeUnit)
	return f.readNative(a)
}

func (f *Flash) readNative(a uintptr) (b [NativeUnit]byte) {
	for i := 0; i < NativeUnit; i += 4 {
		binary.NativeEndian.PutUint32(b[i:], f.mem.MustRead32(a+uintptr(i)))
	}
	return b
}

// WriteNative programs the double word at a, which must be erased. The
// words are stored in order, low address first.
func (u *Unlocked) WriteNative(a uintptr, words [NativeWords]uint32) error {
	u.active("write")
	u.f.checkAccess("write", a, NativeUnit)
	return observe("write_native", u.writeNative(a, words))
}

func (u *Unlocked) writeNative(a uintptr, words [NativeWords]uint32) error {
	s := u.f.ReadStatus()
	if err := s.Err(); err != nil {
		return &OpError{Op: "write", Addr: a, Page: -1, Status: s, Err: err}
	}
	u.f.modifyCR(0, reg.CR_PG)
	for i, w := range words {
		u.f.mem.MustWrite32(a+uintptr(4*i), w)
	}
	err := u.f.waitIdle("write")
	u.f.modifyCR(reg.CR_PG, 0)
	s = u.f.ReadStatus()
	if err == nil {
		err = s.result()
	}
	if err != nil {
		return &OpError{Op: "write", Addr: a, Page: -1, Status: s, Err: err}
	}
	return nil
}
