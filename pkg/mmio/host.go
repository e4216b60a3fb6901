// Copyright 2018-2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !tinygo

package mmio

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/pmem"
)

type view struct {
	Region
	words []uint32
	v     *pmem.View
}

// hostMem keeps one /dev/mem view per region for the lifetime of the
// provider. Mapping on every access is too slow for page-sized transfers.
type hostMem struct {
	views []view
}

// Open maps the given regions of physical memory through /dev/mem.
func Open(regions ...Region) (Provider, error) {
	return openHostMemory(regions)
}

func openHostMemory(regions []Region) (*hostMem, error) {
	ps := unix.Getpagesize()
	m := &hostMem{}
	for _, r := range regions {
		// Round up so the last word of the region is always inside the view
		size := (r.Size + ps - 1) &^ (ps - 1)
		v, err := pmem.Map(uint64(r.Base), size)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("map %#08x+%#x: %w", r.Base, r.Size, err)
		}
		m.views = append(m.views, view{Region: r, words: v.Uint32(), v: v})
	}
	return m, nil
}

func (m *hostMem) word(a uintptr) *uint32 {
	if a%4 != 0 {
		panic(fmt.Sprintf("mmio: unaligned 32 bit access at %08x", a))
	}
	for i := range m.views {
		v := &m.views[i]
		if v.contains(a) {
			return &v.words[(a-v.Base)/4]
		}
	}
	panic(fmt.Sprintf("mmio: access to unmapped address %08x", a))
}

// The atomic operations compile to plain single-copy loads and stores which
// the compiler will not reorder, elide or merge.

func (m *hostMem) MustRead32(a uintptr) uint32 {
	return atomic.LoadUint32(m.word(a))
}

func (m *hostMem) MustWrite32(a uintptr, d uint32) {
	atomic.StoreUint32(m.word(a), d)
}

func (m *hostMem) Close() {
	for _, v := range m.views {
		if v.v == nil {
			continue
		}
		if err := v.v.Close(); err != nil {
			panic(err)
		}
	}
	m.views = nil
}
