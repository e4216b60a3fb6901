// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"testing"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
	pt "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOperationMetrics(t *testing.T) {
	f, sim := simulated(t)
	erases := pt.ToFloat64(opsTotal.WithLabelValues("erase_page"))
	wrp := pt.ToFloat64(errorsTotal.WithLabelValues("erase_page", "write_protection"))

	sim.WriteProtected[3] = true
	u, err := f.UnlockGuard()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	defer u.Close()
	if err := u.ErasePage(2); err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if err := u.ErasePage(3); err == nil {
		t.Fatalf("Erase of protected page succeeded")
	}

	if d := pt.ToFloat64(opsTotal.WithLabelValues("erase_page")) - erases; d != 2 {
		t.Errorf("erase_page operations went up by %v, expected 2", d)
	}
	if d := pt.ToFloat64(errorsTotal.WithLabelValues("erase_page", "write_protection")) - wrp; d != 1 {
		t.Errorf("erase_page write protection errors went up by %v, expected 1", d)
	}
	if n := pt.CollectAndCount(pollIterations); n == 0 {
		t.Errorf("No poll iterations recorded")
	}
}

func TestErrorKind(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{ErrBusy, "busy"},
		{ErrProgramming, "programming"},
		{ErrWriteProtection, "write_protection"},
		{ErrUnlockFailed, "unlock_failed"},
		{ErrTimeout, "timeout"},
		{&OpError{Op: "write", Err: ErrBusy}, "busy"},
	} {
		if got := errorKind(tc.err); got != tc.want {
			t.Errorf("errorKind(%v) = %q, expected %q", tc.err, got, tc.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	s := Status(reg.SR_BSY | reg.SR_PGAERR | reg.SR_EOP)
	if got, want := s.String(), "0x00010021 BSY,PGAERR,EOP"; got != want {
		t.Errorf("String() = %q, expected %q", got, want)
	}
	if got := Status(0).String(); got != "0x00000000" {
		t.Errorf("String() = %q", got)
	}
}

func TestOpErrorMessage(t *testing.T) {
	for _, tc := range []struct {
		err  *OpError
		want string
	}{
		{&OpError{Op: "erase", Page: 100, Err: ErrBusy}, "flash erase page 100: flash controller busy"},
		{&OpError{Op: "write", Addr: 0x08000010, Page: -1, Status: Status(reg.SR_PROGERR), Err: ErrProgramming},
			"flash write at 0x08000010: flash programming error (SR 0x00000008 PROGERR)"},
		{&OpError{Op: "unlock", Page: -1, Err: ErrUnlockFailed}, "flash unlock: flash controller failed to unlock"},
	} {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, expected %q", got, tc.want)
		}
	}
}
