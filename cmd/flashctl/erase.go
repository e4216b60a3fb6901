// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
)

func eraseCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	var (
		page   int
		addr   string
		length int
		all    bool
	)
	fs.IntVar(&page, "p", -1, "page to erase")
	fs.StringVar(&addr, "a", "", "erase the pages covering this address, or +offset into flash")
	fs.IntVar(&length, "n", 1, "with -a, number of bytes")
	fs.BoolVar(&all, "all", false, "mass erase the entire flash")
	fs.Parse(args)

	first, n := page, 1
	switch {
	case all:
	case page >= 0:
		if page >= t.flash.Part().PageCount {
			fatalUsage("page %d out of range, part has %d pages", page, t.flash.Part().PageCount)
		}
	case addr != "":
		a, err := parseAddr(t.flash, addr)
		if err != nil {
			fatalUsage("%v", err)
		}
		if length <= 0 {
			fatalUsage("length must be positive")
		}
		if err := checkBounds(t.flash, a, length); err != nil {
			fatalUsage("%v", err)
		}
		first, n = pagesCovering(t.flash, a, length)
	default:
		fatalUsage("one of -p, -a or -all is required")
	}

	return t.flash.WithUnlocked(func(u *flash.Unlocked) error {
		if all {
			return retryBusy(u.EraseAllPages)
		}
		return erasePages(u, first, n)
	})
}
