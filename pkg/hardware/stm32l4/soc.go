// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stm32l4 identifies STM32L4 parts and hands out their flash
// controller.
//
// Call stm32l4.Open() and Close() as the first and last thing before and
// after talking to the part. The flash controller can be taken once; give
// it back with ReleaseFlash before taking it again.
package stm32l4

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nickray/stm32l4-hal/config"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
	"github.com/nickray/stm32l4-hal/pkg/logger"
	"github.com/nickray/stm32l4-hal/pkg/mmio"
)

var log = logger.LogContainer.GetSimpleLogger()

var ErrFlashTaken = errors.New("flash controller already taken")

// Largest flash array of the supported parts
const maxFlashSize = 512 * 1024

type Soc struct {
	mem        mmio.Provider
	flashTaken atomic.Bool
}

// Regions returns the physical memory used by this package for part p.
func Regions(p config.Part) []mmio.Region {
	size := p.Size()
	if size == 0 {
		size = maxFlashSize
	}
	return []mmio.Region{
		{Base: p.RegisterBase, Size: 0x400},
		{Base: p.FlashOrigin, Size: size},
		{Base: reg.DBGMCU_IDCODE, Size: 4},
		{Base: reg.FLASHSIZE_BASE, Size: 4},
	}
}

// Open maps the part's registers and flash array and checks that it is a
// supported part.
func Open(p config.Part) (*Soc, error) {
	mem, err := mmio.Open(Regions(p)...)
	if err != nil {
		return nil, err
	}
	s := OpenWithMemory(mem)
	if _, err := s.ModelName(); err != nil {
		mem.Close()
		return nil, err
	}
	return s, nil
}

func OpenWithMemory(mem mmio.Provider) *Soc {
	return &Soc{mem: mem}
}

func (s *Soc) Close() {
	s.mem.Close()
}

// DeviceID returns the DEV_ID field of DBGMCU_IDCODE.
func (s *Soc) DeviceID() uint32 {
	return s.mem.MustRead32(reg.DBGMCU_IDCODE) & 0xfff
}

// Revision returns the REV_ID field of DBGMCU_IDCODE.
func (s *Soc) Revision() uint32 {
	return s.mem.MustRead32(reg.DBGMCU_IDCODE) >> 16
}

func (s *Soc) ModelName() (string, error) {
	switch id := s.DeviceID(); id {
	case 0x464:
		return "STM32L41x/L42x", nil
	case 0x435:
		return "STM32L43x/L44x", nil
	case 0x462:
		return "STM32L45x/L46x", nil
	default:
		return "", fmt.Errorf("unsupported device id %#03x", id)
	}
}

// FlashSizeKB returns the size of the flash array as programmed by the
// factory.
func (s *Soc) FlashSizeKB() int {
	return int(s.mem.MustRead32(reg.FLASHSIZE_BASE) & 0xffff)
}

// BootConfig is the boot selection from the user option bytes.
type BootConfig struct {
	NBoot0   bool
	NBoot1   bool
	NSWBoot0 bool
}

func (b BootConfig) String() string {
	var f []string
	if b.NSWBoot0 {
		f = append(f, "BOOT0 pin")
	} else {
		f = append(f, fmt.Sprintf("nBOOT0=%d", btoi(b.NBoot0)))
	}
	f = append(f, fmt.Sprintf("nBOOT1=%d", btoi(b.NBoot1)))
	return strings.Join(f, " ")
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Soc) BootConfig(p config.Part) BootConfig {
	o := s.mem.MustRead32(p.RegisterBase + reg.OPTR)
	return BootConfig{
		NBoot0:   o&reg.OPTR_NBOOT0 != 0,
		NBoot1:   o&reg.OPTR_NBOOT1 != 0,
		NSWBoot0: o&reg.OPTR_NSWBOOT0 != 0,
	}
}

// Flash hands out the flash controller. If cfg leaves the page count at
// zero it is taken from the flash size register.
func (s *Soc) Flash(cfg *config.Config) (*flash.Flash, error) {
	if !s.flashTaken.CompareAndSwap(false, true) {
		return nil, ErrFlashTaken
	}
	if err := cfg.Validate(); err != nil {
		s.flashTaken.Store(false)
		return nil, err
	}
	part := cfg.Part
	if part.PageCount == 0 {
		kb := s.FlashSizeKB()
		part.PageCount = kb * 1024 / part.PageSize
		if part.PageCount == 0 || part.PageCount > reg.PNB_MAX+1 {
			s.flashTaken.Store(false)
			return nil, fmt.Errorf("implausible flash size of %d KB", kb)
		}
		log.Debugf("Flash size %d KB, %d pages", kb, part.PageCount)
	}
	return flash.New(s.mem, flash.WithPart(part), flash.WithPoll(cfg.Poll)), nil
}

// ReleaseFlash takes back a controller handed out by Flash.
func (s *Soc) ReleaseFlash(f *flash.Flash) {
	f.Free()
	s.flashTaken.Store(false)
}
