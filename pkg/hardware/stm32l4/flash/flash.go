// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flash drives the embedded program flash controller of STM32L4x2
// parts.
//
// The controller comes out of reset locked. A *Flash can only read; to
// program or erase, obtain an *Unlocked with UnlockGuard and Close it when
// done, which restores the lock if the guard was the one to remove it:
//
//	u, err := f.UnlockGuard()
//	if err != nil {
//		return err
//	}
//	defer u.Close()
//	if err := u.ErasePage(100); err != nil {
//		return err
//	}
//	return u.Write(f.PageAddress(100), data)
//
// Addresses and lengths must be multiples of NativeUnit and lie inside
// the flash array. Violations are bugs in the caller and panic.
//
// All operations block until the controller is idle again. Nothing in
// here is safe for concurrent use: the controller has a single owner.
package flash

import (
	"github.com/jmhodges/clock"
	"github.com/nickray/stm32l4-hal/config"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
	"github.com/nickray/stm32l4-hal/pkg/logger"
	"github.com/nickray/stm32l4-hal/pkg/mmio"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	// NativeUnit is the read and program granularity in bytes
	NativeUnit = config.NativeUnit
	// NativeWords is the number of 32 bit accesses per native unit
	NativeWords = NativeUnit / 4
	// ErasedByte is the value of every byte of an erased page
	ErasedByte = 0xff
)

type Flash struct {
	mem  mmio.Provider
	part config.Part
	poll config.Poll
	clk  clock.Clock
}

type Option func(*Flash)

// WithPart sets the flash geometry and register location.
func WithPart(p config.Part) Option {
	return func(f *Flash) { f.part = p }
}

// WithPoll sets the bounds of busy waits.
func WithPoll(p config.Poll) Option {
	return func(f *Flash) { f.poll = p }
}

// WithClock sets the clock used for poll timeouts.
func WithClock(c clock.Clock) Option {
	return func(f *Flash) { f.clk = c }
}

// New takes ownership of the flash controller behind mem. Without options
// the part and poll bounds come from config.DefaultConfig. A part whose
// pages cannot all be addressed through CR_PNB panics.
func New(mem mmio.Provider, opts ...Option) *Flash {
	f := &Flash{
		mem:  mem,
		part: config.DefaultConfig.Part,
		poll: config.DefaultConfig.Poll,
		clk:  clock.New(),
	}
	for _, o := range opts {
		o(f)
	}
	p := f.part
	if p.PageCount <= 0 || p.PageCount > reg.PNB_MAX+1 {
		log.Panicf("flash: part with %d pages, the page number field holds %d", p.PageCount, reg.PNB_MAX+1)
	}
	if p.PageSize <= 0 || p.PageSize%NativeUnit != 0 {
		log.Panicf("flash: page size %d is not a positive multiple of %d", p.PageSize, NativeUnit)
	}
	return f
}

// Free gives up the controller and returns the raw register interface.
// The Flash must not be used afterwards.
func (f *Flash) Free() mmio.Provider {
	mem := f.mem
	f.mem = nil
	return mem
}

func (f *Flash) Part() config.Part {
	return f.part
}

// Size returns the size of the flash array in bytes.
func (f *Flash) Size() int {
	return f.part.Size()
}

// PageAddress returns the absolute address of the first byte of page.
func (f *Flash) PageAddress(page int) uintptr {
	f.checkPage("address", page)
	return f.part.FlashOrigin + uintptr(page*f.part.PageSize)
}

// PageOf returns the page that contains address a.
func (f *Flash) PageOf(a uintptr) int {
	f.checkRange("page lookup", a, 1)
	return int(a-f.part.FlashOrigin) / f.part.PageSize
}

func (f *Flash) reg(off uintptr) uintptr {
	return f.part.RegisterBase + off
}

// modifyCR does a read-modify-write of FLASH_CR.
func (f *Flash) modifyCR(clear, set uint32) {
	cr := f.mem.MustRead32(f.reg(reg.CR))
	f.mem.MustWrite32(f.reg(reg.CR), cr&^clear|set)
}

func (f *Flash) checkAccess(op string, a uintptr, n int) {
	if a%NativeUnit != 0 {
		log.Panicf("flash: %s at %#08x is not aligned to %d bytes", op, a, NativeUnit)
	}
	if n%NativeUnit != 0 {
		log.Panicf("flash: %s of %d bytes is not a multiple of %d bytes", op, n, NativeUnit)
	}
	f.checkRange(op, a, n)
}

func (f *Flash) checkRange(op string, a uintptr, n int) {
	start := f.part.FlashOrigin
	end := start + uintptr(f.Size())
	if a < start || a > end || n < 0 || uintptr(n) > end-a {
		log.Panicf("flash: %s of %d bytes at %#08x is outside of flash [%#08x, %#08x)", op, n, a, start, end)
	}
}

func (f *Flash) checkPage(op string, page int) {
	if page < 0 || page >= f.part.PageCount {
		log.Panicf("flash: %s of page %d, part has %d pages", op, page, f.part.PageCount)
	}
}
