// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/machinebox/progress"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
	"github.com/spf13/afero"
)

func writeCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	var (
		addr     string
		filename string
		erase    bool
		verify   bool
	)
	fs.StringVar(&addr, "a", "+0", "start address, or +offset into flash")
	fs.StringVar(&filename, "f", "", "input file")
	fs.BoolVar(&erase, "e", false, "erase the pages covered by the input first")
	fs.BoolVar(&verify, "verify", true, "read back and compare after writing")
	fs.Parse(args)

	if filename == "" {
		fatalUsage("input file is required")
	}
	a, err := parseAddr(t.flash, addr)
	if err != nil {
		fatalUsage("%v", err)
	}
	data, err := afero.ReadFile(afero.NewOsFs(), filename)
	if err != nil {
		return fmt.Errorf("failed to read input: %v", err)
	}
	data = pad(data)
	if err := checkRange(t.flash, a, len(data)); err != nil {
		fatalUsage("%v", err)
	}

	return t.flash.WithUnlocked(func(u *flash.Unlocked) error {
		if erase {
			first, n := pagesCovering(t.flash, a, len(data))
			if err := erasePages(u, first, n); err != nil {
				return err
			}
		}
		if err := program(u, a, data, os.Stdout); err != nil {
			return err
		}
		if verify {
			return compare(t.flash, a, data)
		}
		return nil
	})
}

func erasePages(u *flash.Unlocked, first, n int) error {
	for p := first; p < first+n; p++ {
		if err := retryBusy(func() error { return u.ErasePage(p) }); err != nil {
			return err
		}
	}
	log.Infof("Erased %d pages starting at page %d", n, first)
	return nil
}

// program writes data one double word at a time, reporting progress to w
// if it is not nil.
func program(u *flash.Unlocked, a uintptr, data []byte, w io.Writer) error {
	r := progress.NewReader(bytes.NewReader(data))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress.NewTicker(ctx, r, int64(len(data)), 200*time.Millisecond) {
			if w != nil {
				fmt.Fprintf(w, "Programming %#08x: %d %%\r", a, int(p.Percent()))
			}
		}
	}()
	err := programFrom(u, a, r)
	cancel()
	<-done
	if err != nil {
		return err
	}
	if w != nil {
		fmt.Fprintf(w, "Programming %#08x: complete\n", a)
	}
	return nil
}

func programFrom(u *flash.Unlocked, a uintptr, r io.Reader) error {
	var dw [flash.NativeUnit]byte
	for off := uintptr(0); ; off += flash.NativeUnit {
		if _, err := io.ReadFull(r, dw[:]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		var words [flash.NativeWords]uint32
		for i := range words {
			words[i] = binary.NativeEndian.Uint32(dw[4*i:])
		}
		if err := retryBusy(func() error { return u.WriteNative(a+off, words) }); err != nil {
			return err
		}
	}
}

func compare(f *flash.Flash, a uintptr, want []byte) error {
	got := make([]byte, len(want))
	f.Read(a, got)
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("verify failed at %#08x: read %02x, expected %02x", a+uintptr(i), got[i], want[i])
		}
	}
	return nil
}
