// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
)

// parseAddr accepts an absolute address or an offset into flash written
// with a leading "+".
func parseAddr(f *flash.Flash, s string) (uintptr, error) {
	rel := strings.HasPrefix(s, "+")
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %v", s, err)
	}
	if rel {
		return f.Part().FlashOrigin + uintptr(v), nil
	}
	return uintptr(v), nil
}

// checkRange reports what the driver would panic on.
func checkRange(f *flash.Flash, a uintptr, n int) error {
	if a%flash.NativeUnit != 0 || n%flash.NativeUnit != 0 {
		return fmt.Errorf("%#08x+%d is not aligned to %d bytes", a, n, flash.NativeUnit)
	}
	return checkBounds(f, a, n)
}

func checkBounds(f *flash.Flash, a uintptr, n int) error {
	p := f.Part()
	end := p.FlashOrigin + uintptr(f.Size())
	if a < p.FlashOrigin || a > end || n < 0 || uintptr(n) > end-a {
		return fmt.Errorf("%#08x+%d is outside of flash [%#08x, %#08x)", a, n, p.FlashOrigin, end)
	}
	return nil
}

// pad extends data with erased bytes to a whole number of double words.
func pad(data []byte) []byte {
	if r := len(data) % flash.NativeUnit; r != 0 {
		data = append(data, bytes.Repeat([]byte{flash.ErasedByte}, flash.NativeUnit-r)...)
	}
	return data
}

// pagesCovering returns the first page and page count covering [a, a+n).
func pagesCovering(f *flash.Flash, a uintptr, n int) (int, int) {
	if n == 0 {
		return f.PageOf(a), 0
	}
	first := f.PageOf(a)
	last := f.PageOf(a + uintptr(n) - 1)
	return first, last - first + 1
}

const busyRetries = 5

// retryBusy repeats op while the controller reports busy. A busy
// controller rejects operations before touching anything, so repeating
// them is safe.
func retryBusy(op func() error) error {
	e := backoff.NewExponentialBackOff()
	e.InitialInterval = 10 * time.Millisecond
	e.MaxElapsedTime = time.Second
	b := backoff.WithMaxRetries(e, busyRetries)
	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, flash.ErrBusy) {
			if err != nil {
				log.Debugf("Retrying: %v", err)
			}
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
