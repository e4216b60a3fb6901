// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

// IsLocked reports whether CR_LOCK is set. The bit is read every time, the
// lock may have been set behind our back by a reset of the controller.
func (f *Flash) IsLocked() bool {
	return f.mem.MustRead32(f.reg(reg.CR))&reg.CR_LOCK != 0
}

// Unlock writes the key sequence to FLASH_KEYR if the controller is locked.
// Whether that worked is visible through IsLocked.
func (f *Flash) Unlock() {
	// Writing the keys while unlocked stalls the bus until reset
	if !f.IsLocked() {
		return
	}
	f.mem.MustWrite32(f.reg(reg.KEYR), reg.KEY1)
	f.mem.MustWrite32(f.reg(reg.KEYR), reg.KEY2)
}

// Lock sets CR_LOCK. Once set, it can only be cleared with Unlock.
func (f *Flash) Lock() {
	f.modifyCR(0, reg.CR_LOCK)
}
