// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flashsim models the STM32L4x2 flash controller at the register
// level. A Controller implements mmio.Provider, so the flash driver runs
// against it unchanged.
//
// Modelled: the key sequence and key lockout, CR writes being ignored while
// locked, double word programming with its alignment, sequence, protection
// and not-erased errors, page and mass erase, write-one-to-clear status
// flags and BSY staying set for a number of status reads. The array is
// stored little endian like on the part.
package flashsim

import (
	"encoding/binary"
	"fmt"

	"github.com/nickray/stm32l4-hal/config"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

const (
	// IDCode of a revision Z (0x1001) STM32L43x/L44x
	DefaultIDCode uint32 = 0x10016435
	// Reset value of FLASH_OPTR with factory option bytes
	DefaultOptionBytes uint32 = 0xFFEFF8AA
)

type Controller struct {
	Part config.Part
	// Latency is the number of status reads that still see BSY after an
	// operation started
	Latency int
	// StuckBusy keeps BSY set for good once an operation starts
	StuckBusy bool
	// WriteProtected pages fail program and erase with WRPERR
	WriteProtected map[int]bool
	IDCode         uint32
	OptionBytes    uint32
	// OnStatusRead, if set, sees every value read from FLASH_SR
	OnStatusRead func(sr uint32)

	cr, sr     uint32
	keyStep    int
	keyLockout bool
	busy       int

	pending     bool
	pendingAddr uintptr
	pendingWord uint32

	writes int
	mem    []byte
}

// New returns a locked controller with an erased array of the size given
// by part.
func New(part config.Part) *Controller {
	c := &Controller{
		Part:           part,
		Latency:        1,
		WriteProtected: map[int]bool{},
		IDCode:         DefaultIDCode,
		OptionBytes:    DefaultOptionBytes,
		mem:            make([]byte, part.Size()),
	}
	for i := range c.mem {
		c.mem[i] = 0xff
	}
	c.Reset()
	return c
}

// Reset puts the registers in their reset state. The array is kept.
func (c *Controller) Reset() {
	c.cr = reg.CR_RESET
	c.sr = 0
	c.keyStep = 0
	c.keyLockout = false
	c.busy = 0
	c.pending = false
}

func (c *Controller) Close() {}

// ControlRegister returns FLASH_CR without going through the bus.
func (c *Controller) ControlRegister() uint32 { return c.cr }

// RegisterWrites returns the number of writes to flash controller
// registers so far.
func (c *Controller) RegisterWrites() int { return c.writes }

// SetStatus latches bits in FLASH_SR as if the hardware had set them.
func (c *Controller) SetStatus(bits uint32) { c.sr |= bits }

// Image returns a copy of the flash array.
func (c *Controller) Image() []byte {
	return append([]byte(nil), c.mem...)
}

func (c *Controller) inFlash(a uintptr) bool {
	return a >= c.Part.FlashOrigin && a < c.Part.FlashOrigin+uintptr(len(c.mem))
}

func (c *Controller) inRegisters(a uintptr) bool {
	return a >= c.Part.RegisterBase && a < c.Part.RegisterBase+0x400
}

func (c *Controller) MustRead32(a uintptr) uint32 {
	if a%4 != 0 {
		panic(fmt.Sprintf("flashsim: unaligned read at %#08x", a))
	}
	switch {
	case a == reg.DBGMCU_IDCODE:
		return c.IDCode
	case a == reg.FLASHSIZE_BASE:
		return uint32(len(c.mem) / 1024)
	case c.inFlash(a):
		return binary.LittleEndian.Uint32(c.mem[a-c.Part.FlashOrigin:])
	case c.inRegisters(a):
		switch a - c.Part.RegisterBase {
		case reg.SR:
			return c.readStatus()
		case reg.CR:
			return c.cr
		case reg.OPTR:
			return c.OptionBytes
		}
		return 0
	}
	panic(fmt.Sprintf("flashsim: read of unmapped address %#08x", a))
}

func (c *Controller) MustWrite32(a uintptr, d uint32) {
	if a%4 != 0 {
		panic(fmt.Sprintf("flashsim: unaligned write at %#08x", a))
	}
	switch {
	case c.inFlash(a):
		c.program(a, d)
	case c.inRegisters(a):
		c.writes++
		switch a - c.Part.RegisterBase {
		case reg.KEYR:
			c.writeKey(d)
		case reg.SR:
			c.sr &^= d & (reg.SR_ERRORS | reg.SR_EOP)
		case reg.CR:
			c.writeControl(d)
		}
	default:
		panic(fmt.Sprintf("flashsim: write of unmapped address %#08x", a))
	}
}

func (c *Controller) readStatus() uint32 {
	sr := c.sr
	if c.OnStatusRead != nil {
		c.OnStatusRead(sr)
	}
	if c.sr&reg.SR_BSY != 0 && !c.StuckBusy {
		c.busy--
		if c.busy <= 0 {
			c.finish()
		}
	}
	return sr
}

func (c *Controller) writeKey(d uint32) {
	if c.cr&reg.CR_LOCK == 0 {
		// On the part this is a bus error that hangs the core
		panic("flashsim: FLASH_KEYR written while unlocked")
	}
	if c.keyLockout {
		return
	}
	switch {
	case c.keyStep == 0 && d == reg.KEY1:
		c.keyStep = 1
	case c.keyStep == 1 && d == reg.KEY2:
		c.keyStep = 0
		c.cr &^= reg.CR_LOCK
	default:
		c.keyStep = 0
		c.keyLockout = true
	}
}

func (c *Controller) writeControl(d uint32) {
	if c.cr&reg.CR_LOCK != 0 {
		return
	}
	// STRT can only be set by software, the hardware clears it
	c.cr = d&^reg.CR_STRT | c.cr&reg.CR_STRT
	if d&reg.CR_STRT != 0 && c.sr&reg.SR_BSY == 0 {
		c.startErase()
	}
}

func (c *Controller) startErase() {
	if c.sr&reg.SR_ERRORS != 0 {
		c.sr |= reg.SR_PGSERR
		return
	}
	switch c.cr & (reg.CR_PG | reg.CR_PER | reg.CR_MER1) {
	case reg.CR_PER:
		page := int(c.cr&reg.CR_PNB_MASK) >> reg.CR_PNB_SHIFT
		if page >= c.Part.PageCount {
			c.sr |= reg.SR_PGSERR
			return
		}
		if c.WriteProtected[page] {
			c.sr |= reg.SR_WRPERR
			return
		}
		c.fill(page*c.Part.PageSize, c.Part.PageSize)
	case reg.CR_MER1:
		for _, wp := range c.WriteProtected {
			if wp {
				c.sr |= reg.SR_WRPERR
				return
			}
		}
		c.fill(0, len(c.mem))
	default:
		c.sr |= reg.SR_PGSERR
		return
	}
	c.cr |= reg.CR_STRT
	c.startBusy()
}

func (c *Controller) fill(off, n int) {
	for i := off; i < off+n; i++ {
		c.mem[i] = 0xff
	}
}

func (c *Controller) program(a uintptr, d uint32) {
	if c.cr&reg.CR_LOCK != 0 || c.cr&(reg.CR_PG|reg.CR_PER|reg.CR_MER1) != reg.CR_PG ||
		c.sr&reg.SR_ERRORS != 0 {
		c.pending = false
		c.sr |= reg.SR_PGSERR
		return
	}
	if !c.pending {
		if a%8 != 0 {
			c.sr |= reg.SR_PGAERR
			return
		}
		c.pending, c.pendingAddr, c.pendingWord = true, a, d
		return
	}
	c.pending = false
	if a != c.pendingAddr+4 {
		c.sr |= reg.SR_PGAERR
		return
	}
	off := c.pendingAddr - c.Part.FlashOrigin
	if c.WriteProtected[int(off)/c.Part.PageSize] {
		c.sr |= reg.SR_WRPERR
		return
	}
	dw := uint64(d)<<32 | uint64(c.pendingWord)
	if binary.LittleEndian.Uint64(c.mem[off:]) != ^uint64(0) && dw != 0 {
		c.sr |= reg.SR_PROGERR
		return
	}
	binary.LittleEndian.PutUint64(c.mem[off:], dw)
	c.startBusy()
}

func (c *Controller) startBusy() {
	if c.Latency <= 0 && !c.StuckBusy {
		c.finish()
		return
	}
	c.sr |= reg.SR_BSY
	c.busy = c.Latency
}

func (c *Controller) finish() {
	c.sr &^= reg.SR_BSY
	c.cr &^= reg.CR_STRT
	if c.cr&reg.CR_EOPIE != 0 {
		c.sr |= reg.SR_EOP
	}
}
