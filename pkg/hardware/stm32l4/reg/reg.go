// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reg holds the register map of the STM32L4x2 embedded flash
// controller and the few system registers used to identify the part.
//
// See RM0394 (STM32L41xxx/42xxx/43xxx/44xxx/45xxx/46xxx reference manual),
// section 3.7: FLASH registers.
package reg

const (
	FLASH_BASE   uintptr = 0x40022000
	FLASH_ORIGIN uintptr = 0x08000000

	// DBGMCU_IDCODE: MCU device ID code
	DBGMCU_IDCODE uintptr = 0xE0042000
	// Flash size data register, size in KB in the lower 16 bits
	FLASHSIZE_BASE uintptr = 0x1FFF75E0
)

// Offsets from FLASH_BASE
const (
	ACR     uintptr = 0x00
	PDKEYR  uintptr = 0x04
	KEYR    uintptr = 0x08
	OPTKEYR uintptr = 0x0C
	SR      uintptr = 0x10
	CR      uintptr = 0x14
	ECCR    uintptr = 0x18
	OPTR    uintptr = 0x20
)

const (
	// Writing KEY1 then KEY2 to FLASH_KEYR clears CR_LOCK. Any other
	// sequence locks the controller until the next reset.
	KEY1 uint32 = 0x45670123
	KEY2 uint32 = 0xCDEF89AB
)

// FLASH_SR bits
const (
	SR_EOP     uint32 = 1 << 0
	SR_OPERR   uint32 = 1 << 1
	SR_PROGERR uint32 = 1 << 3
	SR_WRPERR  uint32 = 1 << 4
	SR_PGAERR  uint32 = 1 << 5
	SR_SIZERR  uint32 = 1 << 6
	SR_PGSERR  uint32 = 1 << 7
	SR_MISERR  uint32 = 1 << 8
	SR_FASTERR uint32 = 1 << 9
	SR_RDERR   uint32 = 1 << 14
	SR_OPTVERR uint32 = 1 << 15
	SR_BSY     uint32 = 1 << 16

	// Flags cleared by writing 1
	SR_ERRORS = SR_OPERR | SR_PROGERR | SR_WRPERR | SR_PGAERR | SR_SIZERR |
		SR_PGSERR | SR_MISERR | SR_FASTERR | SR_RDERR | SR_OPTVERR
)

// FLASH_CR bits
const (
	CR_PG         uint32 = 1 << 0
	CR_PER        uint32 = 1 << 1
	CR_MER1       uint32 = 1 << 2
	CR_PNB_SHIFT         = 3
	CR_PNB_MASK   uint32 = 0xff << CR_PNB_SHIFT
	CR_STRT       uint32 = 1 << 16
	CR_OPTSTRT    uint32 = 1 << 17
	CR_FSTPG      uint32 = 1 << 18
	CR_EOPIE      uint32 = 1 << 24
	CR_ERRIE      uint32 = 1 << 25
	CR_OBL_LAUNCH uint32 = 1 << 27
	CR_OPTLOCK    uint32 = 1 << 30
	CR_LOCK       uint32 = 1 << 31

	// Value of FLASH_CR after reset
	CR_RESET = CR_LOCK | CR_OPTLOCK
)

// FLASH_OPTR boot configuration bits
const (
	OPTR_NBOOT1   uint32 = 1 << 23
	OPTR_NSWBOOT0 uint32 = 1 << 26
	OPTR_NBOOT0   uint32 = 1 << 27
)

// PNB is the largest page number the CR_PNB field can hold.
const PNB_MAX = int(CR_PNB_MASK >> CR_PNB_SHIFT)
