// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stm32l4

import (
	"errors"
	"testing"

	"github.com/nickray/stm32l4-hal/config"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flashsim"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

func TestIdentify(t *testing.T) {
	for _, tc := range []struct {
		idcode uint32
		model  string
		rev    uint32
	}{
		{0x10016435, "STM32L43x/L44x", 0x1001},
		{0x20006464, "STM32L41x/L42x", 0x2000},
		{0x10006462, "STM32L45x/L46x", 0x1000},
		{0x10006415, "", 0x1000},
	} {
		sim := flashsim.New(config.DefaultConfig.Part)
		sim.IDCode = tc.idcode
		s := OpenWithMemory(sim)
		model, err := s.ModelName()
		if model != tc.model || (err != nil) != (tc.model == "") {
			t.Errorf("ModelName for %08x = %q, %v", tc.idcode, model, err)
		}
		if r := s.Revision(); r != tc.rev {
			t.Errorf("Revision for %08x = %04x, expected %04x", tc.idcode, r, tc.rev)
		}
	}
}

func TestBootConfig(t *testing.T) {
	sim := flashsim.New(config.DefaultConfig.Part)
	s := OpenWithMemory(sim)
	b := s.BootConfig(config.DefaultConfig.Part)
	if !b.NBoot0 || !b.NBoot1 || !b.NSWBoot0 {
		t.Errorf("Factory boot config = %+v", b)
	}
	sim.OptionBytes &^= reg.OPTR_NSWBOOT0 | reg.OPTR_NBOOT0
	b = s.BootConfig(config.DefaultConfig.Part)
	if got, want := b.String(), "nBOOT0=0 nBOOT1=1"; got != want {
		t.Errorf("String() = %q, expected %q", got, want)
	}
}

func TestFlashTakenOnce(t *testing.T) {
	sim := flashsim.New(config.DefaultConfig.Part)
	s := OpenWithMemory(sim)
	cfg := *config.DefaultConfig
	f, err := s.Flash(&cfg)
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if _, err := s.Flash(&cfg); !errors.Is(err, ErrFlashTaken) {
		t.Fatalf("Expected ErrFlashTaken, got %v", err)
	}
	s.ReleaseFlash(f)
	if _, err := s.Flash(&cfg); err != nil {
		t.Fatalf("Flash after release: %v", err)
	}
}

func TestFlashRejectsOversizedPart(t *testing.T) {
	s := OpenWithMemory(flashsim.New(config.DefaultConfig.Part))
	cfg := *config.DefaultConfig
	cfg.Part.PageCount = 512
	if _, err := s.Flash(&cfg); err == nil {
		t.Fatalf("512 page part accepted")
	}
	cfg.Part.PageCount = 128
	if _, err := s.Flash(&cfg); err != nil {
		t.Fatalf("Flash after rejected config: %v", err)
	}
}

func TestFlashSizeFromPart(t *testing.T) {
	part := config.DefaultConfig.Part
	part.PageCount = 64
	s := OpenWithMemory(flashsim.New(part))
	if kb := s.FlashSizeKB(); kb != 128 {
		t.Fatalf("FlashSizeKB = %d, expected 128", kb)
	}
	cfg := *config.DefaultConfig
	cfg.Part.PageCount = 0
	f, err := s.Flash(&cfg)
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if n := f.Part().PageCount; n != 64 {
		t.Fatalf("PageCount = %d, expected 64", n)
	}
}

func TestRegions(t *testing.T) {
	part := config.DefaultConfig.Part
	r := Regions(part)
	if r[1].Base != part.FlashOrigin || r[1].Size != part.Size() {
		t.Errorf("Flash region = %+v", r[1])
	}
	part.PageCount = 0
	if r := Regions(part); r[1].Size != maxFlashSize {
		t.Errorf("Flash region without page count = %+v", r[1])
	}
}
