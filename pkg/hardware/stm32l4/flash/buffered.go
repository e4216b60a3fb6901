// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"encoding/binary"
)

// Read fills buf from flash starting at a.
func (f *Flash) Read(a uintptr, buf []byte) {
	f.checkAccess("read", a, len(buf))
	for i := 0; i < len(buf); i += NativeUnit {
		b := f.readNative(a + uintptr(i))
		copy(buf[i:], b[:])
	}
}

// Write programs data at a, one double word at a time. The target range
// must be erased. If a double word fails, the ones before it stay
// programmed and the error reports the failing address.
func (u *Unlocked) Write(a uintptr, data []byte) error {
	u.active("write")
	u.f.checkAccess("write", a, len(data))
	for i := 0; i < len(data); i += NativeUnit {
		var w [NativeWords]uint32
		for j := range w {
			w[j] = binary.NativeEndian.Uint32(data[i+4*j:])
		}
		if err := u.writeNative(a+uintptr(i), w); err != nil {
			return observe("write", err)
		}
	}
	return observe("write", nil)
}
