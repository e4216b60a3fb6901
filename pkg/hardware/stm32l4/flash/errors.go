// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"errors"
	"fmt"
)

var (
	// ErrUnlockFailed means CR_LOCK was still set after the key sequence,
	// either the keys are wrong for the part or the controller is locked
	// out until the next reset.
	ErrUnlockFailed = errors.New("flash controller failed to unlock")
	// ErrTimeout means BSY did not clear within the configured poll bounds.
	ErrTimeout = errors.New("timed out waiting for flash controller")
	// ErrProgramming means the controller rejected the programming, e.g.
	// the double word was not erased.
	ErrProgramming = errors.New("flash programming error")
	// ErrWriteProtection means the target is write protected.
	ErrWriteProtection = errors.New("flash write protection error")
	// ErrBusy means another operation is still in progress.
	ErrBusy = errors.New("flash controller busy")
)

// OpError describes a failed operation. Err is one of the sentinel errors
// above.
type OpError struct {
	Op string
	// Addr is the start of the failing double word, if any
	Addr uintptr
	// Page is the failing page, or -1
	Page int
	// Status is FLASH_SR as read when the failure was detected
	Status Status
	Err    error
}

func (e *OpError) Error() string {
	s := "flash " + e.Op
	switch {
	case e.Page >= 0:
		s += fmt.Sprintf(" page %d", e.Page)
	case e.Addr != 0:
		s += fmt.Sprintf(" at %#08x", e.Addr)
	}
	s += ": " + e.Err.Error()
	if e.Status != 0 {
		s += " (SR " + e.Status.String() + ")"
	}
	return s
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrProgramming):
		return "programming"
	case errors.Is(err, ErrWriteProtection):
		return "write_protection"
	case errors.Is(err, ErrUnlockFailed):
		return "unlock_failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	}
	return "other"
}
