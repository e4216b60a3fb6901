// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"fmt"
	"testing"

	"github.com/nickray/stm32l4-hal/config"
)

type op struct {
	write   bool
	address uintptr
	data    uint32
}

// fakeMem replays a script of expected register accesses.
type fakeMem struct {
	t   *testing.T
	ops []op
}

func opstr(o *op) string {
	t := "read"
	if o.write {
		t = "write"
	}
	return fmt.Sprintf("{%s @ %08x = %08x}", t, o.address, o.data)
}

func (m *fakeMem) next(what string, a uintptr) op {
	m.t.Helper()
	if len(m.ops) == 0 {
		m.t.Fatalf("Unexpected %s on %08x", what, a)
	}
	o := m.ops[0]
	m.ops = m.ops[1:]
	return o
}

func (m *fakeMem) MustRead32(a uintptr) uint32 {
	m.t.Helper()
	o := m.next("read", a)
	if o.write || o.address != a {
		m.t.Errorf("Expected %s, got read on %08x", opstr(&o), a)
	}
	return o.data
}

func (m *fakeMem) MustWrite32(a uintptr, d uint32) {
	m.t.Helper()
	o := m.next("write", a)
	if !o.write || o.address != a || o.data != d {
		m.t.Errorf("Expected %s, got write of %08x on %08x", opstr(&o), d, a)
	}
}

func (m *fakeMem) ExpectWrite32(a uintptr, d uint32) {
	m.ops = append(m.ops, op{true, a, d})
}

func (m *fakeMem) FakeRead32(a uintptr, d uint32) {
	m.ops = append(m.ops, op{false, a, d})
}

// ExpectReg and FakeReg script accesses relative to the register block.
func (m *fakeMem) ExpectReg(off uintptr, d uint32) {
	m.ExpectWrite32(config.DefaultConfig.Part.RegisterBase+off, d)
}

func (m *fakeMem) FakeReg(off uintptr, d uint32) {
	m.FakeRead32(config.DefaultConfig.Part.RegisterBase+off, d)
}

// Done fails the test if part of the script was not replayed.
func (m *fakeMem) Done() {
	m.t.Helper()
	for i := range m.ops {
		m.t.Errorf("Expected %s, never happened", opstr(&m.ops[i]))
	}
}

func (m *fakeMem) Close() {
}

func fakeMemory(t *testing.T) *fakeMem {
	return &fakeMem{t, make([]op, 0)}
}
