// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"fmt"
	"strings"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
)

// Status is a raw read of FLASH_SR.
type Status uint32

func (s Status) Busy() bool                 { return uint32(s)&reg.SR_BSY != 0 }
func (s Status) ProgrammingError() bool     { return uint32(s)&reg.SR_PROGERR != 0 }
func (s Status) WriteProtectionError() bool { return uint32(s)&reg.SR_WRPERR != 0 }

// Err checks the flags that must be clear before an operation can start,
// in order of priority.
func (s Status) Err() error {
	switch {
	case s.Busy():
		return ErrBusy
	case s.ProgrammingError():
		return ErrProgramming
	case s.WriteProtectionError():
		return ErrWriteProtection
	}
	return nil
}

// result maps what is left in FLASH_SR after an operation completed. EOP
// is only set when the end of operation interrupt is enabled and does not
// indicate a failure.
func (s Status) result() error {
	switch {
	case s.Busy():
		return ErrBusy
	case s.WriteProtectionError():
		return ErrWriteProtection
	case uint32(s)&reg.SR_ERRORS != 0:
		return ErrProgramming
	}
	return nil
}

var statusFlags = []struct {
	bit  uint32
	name string
}{
	{reg.SR_BSY, "BSY"},
	{reg.SR_OPTVERR, "OPTVERR"},
	{reg.SR_RDERR, "RDERR"},
	{reg.SR_FASTERR, "FASTERR"},
	{reg.SR_MISERR, "MISERR"},
	{reg.SR_PGSERR, "PGSERR"},
	{reg.SR_SIZERR, "SIZERR"},
	{reg.SR_PGAERR, "PGAERR"},
	{reg.SR_WRPERR, "WRPERR"},
	{reg.SR_PROGERR, "PROGERR"},
	{reg.SR_OPERR, "OPERR"},
	{reg.SR_EOP, "EOP"},
}

func (s Status) String() string {
	b := fmt.Sprintf("%#08x", uint32(s))
	f := []string{}
	for _, flag := range statusFlags {
		if uint32(s)&flag.bit != 0 {
			f = append(f, flag.name)
		}
	}
	if len(f) == 0 {
		return b
	}
	return b + " " + strings.Join(f, ",")
}

// ReadStatus returns the current value of FLASH_SR.
func (f *Flash) ReadStatus() Status {
	return Status(f.mem.MustRead32(f.reg(reg.SR)))
}

// Status returns ErrBusy, ErrProgramming or ErrWriteProtection if the
// controller reports the condition, checked in that order, and nil
// otherwise.
func (f *Flash) Status() error {
	return f.ReadStatus().Err()
}

// ClearStatus clears all latched error flags and EOP. The controller
// refuses to start a new operation while a previous error is latched.
func (f *Flash) ClearStatus() {
	f.mem.MustWrite32(f.reg(reg.SR), reg.SR_ERRORS|reg.SR_EOP)
}
