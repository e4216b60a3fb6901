// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
)

func selftestCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)
	var page int
	fs.IntVar(&page, "p", 100, "page to test")
	fs.Parse(args)

	if page < 0 || page >= t.flash.Part().PageCount {
		fatalUsage("page %d out of range, part has %d pages", page, t.flash.Part().PageCount)
	}
	if err := selftest(t.flash, page); err != nil {
		return err
	}
	fmt.Printf("Page %d: ok\n", page)
	return nil
}

// selftest erases, programs and verifies page, then restores its contents.
func selftest(f *flash.Flash, page int) error {
	a := f.PageAddress(page)
	ps := f.Part().PageSize
	orig := make([]byte, ps)
	f.Read(a, orig)

	pattern := make([]byte, ps)
	for i := range pattern {
		pattern[i] = byte(i) ^ byte(i>>8) ^ 0xa5
	}
	erased := bytes.Repeat([]byte{flash.ErasedByte}, ps)

	return f.WithUnlocked(func(u *flash.Unlocked) error {
		if err := erasePages(u, page, 1); err != nil {
			return err
		}
		if err := compare(f, a, erased); err != nil {
			return fmt.Errorf("after erase: %w", err)
		}
		if err := program(u, a, pattern, nil); err != nil {
			return err
		}
		if err := compare(f, a, pattern); err != nil {
			return fmt.Errorf("after program: %w", err)
		}
		if err := erasePages(u, page, 1); err != nil {
			return err
		}
		if bytes.Equal(orig, erased) {
			return nil
		}
		if err := program(u, a, orig, nil); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		return compare(f, a, orig)
	})
}
