// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
)

func infoCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	model, err := t.soc.ModelName()
	if err != nil {
		return err
	}
	p := t.flash.Part()
	fmt.Printf("Part:        %s rev %04x (device %03x)\n", model, t.soc.Revision(), t.soc.DeviceID())
	fmt.Printf("Flash:       %d KB at %#08x, %d pages of %d bytes\n", t.flash.Size()/1024, p.FlashOrigin, p.PageCount, p.PageSize)
	fmt.Printf("Registers:   %#08x\n", p.RegisterBase)
	fmt.Printf("Boot:        %s\n", t.soc.BootConfig(p))
	fmt.Printf("Locked:      %v\n", t.flash.IsLocked())
	fmt.Printf("Status:      %s\n", t.flash.ReadStatus())
	return nil
}

func statusCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Parse(args)

	s := t.flash.ReadStatus()
	fmt.Println(s)
	return t.flash.Status()
}

func clearCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	fs.Parse(args)

	t.flash.ClearStatus()
	fmt.Println(t.flash.ReadStatus())
	return nil
}

func lockCmd(t *target, args []string) error {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	fs.Parse(args)

	t.flash.Lock()
	if !t.flash.IsLocked() {
		return fmt.Errorf("controller did not lock")
	}
	return nil
}
