// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

// ErasePage sets every byte of page to ErasedByte.
func (u *Unlocked) ErasePage(page int) error {
	u.active("erase")
	u.f.checkPage("erase", page)
	return observe("erase_page", u.erasePage(page))
}

func (u *Unlocked) erasePage(page int) error {
	s := u.f.ReadStatus()
	if err := s.Err(); err != nil {
		return &OpError{Op: "erase", Page: page, Status: s, Err: err}
	}
	u.f.modifyCR(0, reg.CR_PER)
	u.f.modifyCR(reg.CR_PNB_MASK, uint32(page)<<reg.CR_PNB_SHIFT&reg.CR_PNB_MASK)
	u.f.modifyCR(0, reg.CR_STRT)
	err := u.f.waitIdle("erase_page")
	// STRT reads back set until the controller is done, it must not be
	// written as 1 again
	u.f.modifyCR(reg.CR_PER|reg.CR_STRT, 0)
	s = u.f.ReadStatus()
	if err == nil {
		err = s.result()
	}
	if err != nil {
		return &OpError{Op: "erase", Page: page, Status: s, Err: err}
	}
	return nil
}

// EraseAllPages erases the whole array with a single mass erase.
func (u *Unlocked) EraseAllPages() error {
	u.active("erase")
	return observe("erase_all", u.eraseAll())
}

func (u *Unlocked) eraseAll() error {
	s := u.f.ReadStatus()
	if err := s.Err(); err != nil {
		return &OpError{Op: "mass erase", Page: -1, Status: s, Err: err}
	}
	log.Infof("Mass erasing %d KiB of flash", u.f.Size()/1024)
	u.f.modifyCR(0, reg.CR_MER1)
	u.f.modifyCR(0, reg.CR_STRT)
	err := u.f.waitIdle("erase_all")
	u.f.modifyCR(reg.CR_MER1|reg.CR_STRT, 0)
	s = u.f.ReadStatus()
	if err == nil {
		err = s.result()
	}
	if err != nil {
		return &OpError{Op: "mass erase", Page: -1, Status: s, Err: err}
	}
	return nil
}

// EraseRange erases the pages covering [a, a+n). Both a and n must be
// page aligned. Pages are erased in ascending order and erasing stops at
// the first failure.
func (u *Unlocked) EraseRange(a uintptr, n int) error {
	u.active("erase")
	ps := u.f.part.PageSize
	if uintptr(a-u.f.part.FlashOrigin)%uintptr(ps) != 0 || n%ps != 0 {
		log.Panicf("flash: erase of %d bytes at %#08x is not page aligned", n, a)
	}
	u.f.checkRange("erase", a, n)
	first := int(a-u.f.part.FlashOrigin) / ps
	for p := first; p < first+n/ps; p++ {
		if err := u.erasePage(p); err != nil {
			return observe("erase_range", err)
		}
	}
	return observe("erase_range", nil)
}
