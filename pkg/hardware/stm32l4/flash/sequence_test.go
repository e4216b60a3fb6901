// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"errors"
	"testing"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

func expectUnlock(fm *fakeMem) {
	fm.FakeReg(reg.CR, reg.CR_RESET)
	fm.FakeReg(reg.CR, reg.CR_RESET)
	fm.ExpectReg(reg.KEYR, reg.KEY1)
	fm.ExpectReg(reg.KEYR, reg.KEY2)
	fm.FakeReg(reg.CR, reg.CR_OPTLOCK)
}

func expectLock(fm *fakeMem) {
	fm.FakeReg(reg.CR, reg.CR_OPTLOCK)
	fm.ExpectReg(reg.CR, reg.CR_RESET)
}

func TestUnlockGuardSequence(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	expectUnlock(fm)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	expectLock(fm)
	u.Close()
	u.Close()
	fm.Done()
}

func TestUnlockGuardAlreadyUnlocked(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	u.Close()
	fm.Done()
}

func TestUnlockFailed(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, reg.CR_RESET)
	fm.FakeReg(reg.CR, reg.CR_RESET)
	fm.ExpectReg(reg.KEYR, reg.KEY1)
	fm.ExpectReg(reg.KEYR, reg.KEY2)
	fm.FakeReg(reg.CR, reg.CR_RESET)
	_, err := f.UnlockGuard()
	if !errors.Is(err, ErrUnlockFailed) {
		t.Fatalf("Expected ErrUnlockFailed, got %v", err)
	}
	fm.Done()
}

func TestUnlockWhenUnlockedWritesNothing(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	f.Unlock()
	fm.Done()
}

func TestWriteNativeSequence(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}

	a := f.PageAddress(100)
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, 0)
	fm.ExpectReg(reg.CR, reg.CR_PG)
	fm.ExpectWrite32(a, 0x04030201)
	fm.ExpectWrite32(a+4, 0x0d0c0b0a)
	fm.FakeReg(reg.SR, reg.SR_BSY)
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, reg.CR_PG)
	fm.ExpectReg(reg.CR, 0)
	fm.FakeReg(reg.SR, 0)
	if err := u.WriteNative(a, [NativeWords]uint32{0x04030201, 0x0d0c0b0a}); err != nil {
		t.Fatalf("Failed: %v", err)
	}
	fm.Done()
}

func TestWriteNativeBusyTouchesNothing(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}

	fm.FakeReg(reg.SR, reg.SR_BSY)
	err = u.WriteNative(f.PageAddress(0), [NativeWords]uint32{})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("Expected ErrBusy, got %v", err)
	}
	fm.Done()
}

func TestErasePageSequence(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, reg.CR_EOPIE)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}

	pnb := uint32(100) << reg.CR_PNB_SHIFT
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, reg.CR_EOPIE|7<<reg.CR_PNB_SHIFT)
	fm.ExpectReg(reg.CR, reg.CR_EOPIE|7<<reg.CR_PNB_SHIFT|reg.CR_PER)
	fm.FakeReg(reg.CR, reg.CR_EOPIE|7<<reg.CR_PNB_SHIFT|reg.CR_PER)
	fm.ExpectReg(reg.CR, reg.CR_EOPIE|pnb|reg.CR_PER)
	fm.FakeReg(reg.CR, reg.CR_EOPIE|pnb|reg.CR_PER)
	fm.ExpectReg(reg.CR, reg.CR_EOPIE|pnb|reg.CR_PER|reg.CR_STRT)
	fm.FakeReg(reg.SR, reg.SR_BSY)
	fm.FakeReg(reg.SR, reg.SR_BSY)
	fm.FakeReg(reg.SR, reg.SR_EOP)
	fm.FakeReg(reg.CR, reg.CR_EOPIE|pnb|reg.CR_PER)
	fm.ExpectReg(reg.CR, reg.CR_EOPIE|pnb)
	fm.FakeReg(reg.SR, reg.SR_EOP)
	if err := u.ErasePage(100); err != nil {
		t.Fatalf("Failed: %v", err)
	}
	fm.Done()
}

func TestPageNumberStaysInField(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}

	// 300 does not fit in PNB, only its low 8 bits may reach FLASH_CR
	pnb := uint32(300&0xff) << reg.CR_PNB_SHIFT
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, 0)
	fm.ExpectReg(reg.CR, reg.CR_PER)
	fm.FakeReg(reg.CR, reg.CR_PER)
	fm.ExpectReg(reg.CR, reg.CR_PER|pnb)
	fm.FakeReg(reg.CR, reg.CR_PER|pnb)
	fm.ExpectReg(reg.CR, reg.CR_PER|pnb|reg.CR_STRT)
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, reg.CR_PER|pnb)
	fm.ExpectReg(reg.CR, pnb)
	fm.FakeReg(reg.SR, 0)
	if err := u.erasePage(300); err != nil {
		t.Fatalf("Failed: %v", err)
	}
	fm.Done()
}

func TestEraseAllSequence(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.FakeReg(reg.CR, 0)
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}

	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, 0)
	fm.ExpectReg(reg.CR, reg.CR_MER1)
	fm.FakeReg(reg.CR, reg.CR_MER1)
	fm.ExpectReg(reg.CR, reg.CR_MER1|reg.CR_STRT)
	fm.FakeReg(reg.SR, 0)
	fm.FakeReg(reg.CR, reg.CR_MER1)
	fm.ExpectReg(reg.CR, 0)
	fm.FakeReg(reg.SR, reg.SR_WRPERR)
	err = u.EraseAllPages()
	if !errors.Is(err, ErrWriteProtection) {
		t.Fatalf("Expected ErrWriteProtection, got %v", err)
	}
	fm.Done()
}

func TestStatusPriority(t *testing.T) {
	for _, tc := range []struct {
		sr   uint32
		want error
	}{
		{0, nil},
		{reg.SR_EOP, nil},
		{reg.SR_PGAERR, nil},
		{reg.SR_WRPERR, ErrWriteProtection},
		{reg.SR_PROGERR | reg.SR_WRPERR, ErrProgramming},
		{reg.SR_BSY | reg.SR_PROGERR | reg.SR_WRPERR, ErrBusy},
	} {
		fm := fakeMemory(t)
		f := New(fm)
		fm.FakeReg(reg.SR, tc.sr)
		if err := f.Status(); err != tc.want {
			t.Errorf("Status with SR %08x = %v, expected %v", tc.sr, err, tc.want)
		}
		fm.Done()
	}
}

func TestClearStatus(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	fm.ExpectReg(reg.SR, reg.SR_ERRORS|reg.SR_EOP)
	f.ClearStatus()
	fm.Done()
}

func TestReadNativeSequence(t *testing.T) {
	fm := fakeMemory(t)
	f := New(fm)
	a := f.PageAddress(1) + 16
	fm.FakeRead32(a, 0x11223344)
	fm.FakeRead32(a+4, 0x55667788)
	b := f.ReadNative(a)
	fm.Done()

	var want [NativeUnit]byte
	nativeWords(want[:], 0x11223344, 0x55667788)
	if b != want {
		t.Fatalf("ReadNative = % x, expected % x", b, want)
	}
}
