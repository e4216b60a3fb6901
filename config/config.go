// Copyright 2018-2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/reg"
	"go.uber.org/zap/zapcore"
)

// NativeUnit is the number of bytes the flash controller reads and
// programs at once: one double word.
const NativeUnit = 8

// Part describes the flash array of one STM32L4 part.
type Part struct {
	Name         string
	FlashOrigin  uintptr
	RegisterBase uintptr
	PageSize     int `env:"FLASH_PAGE_SIZE"`
	// PageCount of 0 means the count is taken from the flash size register
	PageCount int `env:"FLASH_PAGE_COUNT"`
}

// Size returns the size of the flash array in bytes.
func (p Part) Size() int {
	return p.PageSize * p.PageCount
}

// Poll bounds every busy wait on the controller. A zero field disables
// that bound, both zero makes the wait unbounded.
type Poll struct {
	MaxIterations int           `env:"FLASH_POLL_MAX_ITERATIONS"`
	Timeout       time.Duration `env:"FLASH_POLL_TIMEOUT"`
}

type Config struct {
	Part Part
	Poll Poll

	LogFile     string        `env:"FLASH_LOG_FILE"`
	LogLevel    zapcore.Level `env:"FLASH_LOG_LEVEL"`
	MetricsAddr string        `env:"FLASH_METRICS_ADDR"`
	// SimImage selects the simulated controller backed by this image file
	// instead of the real hardware
	SimImage string `env:"FLASH_SIM_IMAGE"`
}

var DefaultConfig = &Config{
	// STM32L432/L442: 256 KB single bank, 2 KB pages. Other x2 parts differ
	// only in the page count which is read from the part at runtime.
	Part: Part{
		Name:         "STM32L4x2",
		FlashOrigin:  reg.FLASH_ORIGIN,
		RegisterBase: reg.FLASH_BASE,
		PageSize:     2048,
		PageCount:    128,
	},

	// A mass erase takes around 25ms on these parts, and a double word
	// program 90us. The bounds are far above both and only exist to turn a
	// wedged controller into an error instead of a hang.
	Poll: Poll{
		MaxIterations: 1 << 24,
		Timeout:       2 * time.Second,
	},

	LogLevel: zapcore.InfoLevel,
}

// Load returns a copy of DefaultConfig with FLASH_* environment variables
// applied on top.
func Load() (*Config, error) {
	c := *DefaultConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	p := &c.Part
	if p.PageSize <= 0 || p.PageSize%NativeUnit != 0 {
		return fmt.Errorf("page size %d is not a positive multiple of %d", p.PageSize, NativeUnit)
	}
	if p.PageCount < 0 || p.PageCount > reg.PNB_MAX+1 {
		return fmt.Errorf("page count %d does not fit the page number field", p.PageCount)
	}
	if p.FlashOrigin%NativeUnit != 0 {
		return fmt.Errorf("flash origin %#08x is not aligned to %d", p.FlashOrigin, NativeUnit)
	}
	if c.Poll.MaxIterations < 0 || c.Poll.Timeout < 0 {
		return fmt.Errorf("negative poll bound")
	}
	return nil
}
