// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"
	"os"

	"github.com/spf13/afero"
)

func readCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	var (
		addr     string
		length   int
		filename string
	)
	fs.StringVar(&addr, "a", "+0", "start address, or +offset into flash")
	fs.IntVar(&length, "n", 0, "number of bytes, default is up to the end of flash")
	fs.StringVar(&filename, "f", "", "output file, default is a hex dump on stdout")
	fs.Parse(args)

	a, err := parseAddr(t.flash, addr)
	if err != nil {
		fatalUsage("%v", err)
	}
	if length == 0 {
		length = int(t.flash.Part().FlashOrigin + uintptr(t.flash.Size()) - a)
	}
	if err := checkRange(t.flash, a, length); err != nil {
		fatalUsage("%v", err)
	}

	buf := make([]byte, length)
	t.flash.Read(a, buf)
	if filename == "" {
		d := hex.Dumper(os.Stdout)
		defer d.Close()
		_, err := d.Write(buf)
		return err
	}
	return afero.WriteFile(afero.NewOsFs(), filename, buf, 0644)
}
