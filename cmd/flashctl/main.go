// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// flashctl inspects and programs the flash of an STM32L4x2 part, or of a
// simulated one backed by an image file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"

	"github.com/nickray/stm32l4-hal/config"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flash"
	"github.com/nickray/stm32l4-hal/pkg/hardware/stm32l4/flashsim"
	"github.com/nickray/stm32l4-hal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var log = logger.LogContainer.GetSimpleLogger()

var (
	simImage    = flag.String("sim", "", "simulate the part, keeping its flash in this image file")
	metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address while running")
	logFile     = flag.String("log", "", "also write JSON logs to this file")
	verbose     = flag.Bool("v", false, "debug logging")
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
	flashctl [-sim image] [-metrics addr] [-log file] [-v] <command> [arguments]

Commands:
	info	 show part, flash geometry and boot configuration
	status	 show the flash status register
	clear	 clear latched flash errors
	lock	 lock the flash controller
	read	 read flash memory
	write	 write flash memory
	erase	 erase flash pages
	selftest erase, program and verify a page
`)
	os.Exit(2)
}

type command func(t *target, args []string) error

var commands = map[string]command{
	"info":     infoCmd,
	"status":   statusCmd,
	"clear":    clearCmd,
	"lock":     lockCmd,
	"read":     readCmd,
	"write":    writeCmd,
	"erase":    eraseCmd,
	"selftest": selftestCmd,
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}
	name := flag.Arg(0)
	if name == "help" {
		usage()
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", name)
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("configuration: %v", err)
	}
	applyFlags(cfg)
	logger.LogContainer.SetLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		if err := logger.LogContainer.SetLogFile(cfg.LogFile); err != nil {
			fatalf("log file: %v", err)
		}
	}

	t, err := openTarget(cfg, afero.NewOsFs())
	if err != nil {
		fatalf("%v", err)
	}
	err = run(cfg.MetricsAddr, func() error {
		return cmd(t, flag.Args()[1:])
	})
	if cerr := t.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fatalf("%s: %v", name, err)
	}
}

// applyFlags lets the command line win over the environment.
func applyFlags(cfg *config.Config) {
	if *simImage != "" {
		cfg.SimImage = *simImage
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *verbose {
		cfg.LogLevel = zapcore.DebugLevel
	}
}

// run executes fn, serving metrics next to it if addr is set.
func run(addr string, fn func() error) error {
	if addr == "" {
		return fn()
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer srv.Shutdown(ctx)
		return fn()
	})
	return g.Wait()
}

// target is the part being worked on.
type target struct {
	soc   *stm32l4.Soc
	flash *flash.Flash
	cfg   *config.Config
	close func() error
}

func openTarget(cfg *config.Config, fsys afero.Fs) (*target, error) {
	t := &target{cfg: cfg, close: func() error { return nil }}
	if cfg.SimImage == "" {
		soc, err := stm32l4.Open(cfg.Part)
		if err != nil {
			return nil, err
		}
		t.soc = soc
	} else {
		part := cfg.Part
		if part.PageCount == 0 {
			part.PageCount = config.DefaultConfig.Part.PageCount
		}
		sim := flashsim.New(part)
		err := sim.Load(fsys, cfg.SimImage)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err != nil {
			log.Infof("Starting with erased flash, %s does not exist", cfg.SimImage)
		}
		t.soc = stm32l4.OpenWithMemory(sim)
		t.close = func() error {
			return sim.Save(fsys, cfg.SimImage)
		}
	}
	f, err := t.soc.Flash(cfg)
	if err != nil {
		t.soc.Close()
		return nil, err
	}
	t.flash = f
	return t, nil
}

func (t *target) Close() error {
	t.soc.ReleaseFlash(t.flash)
	err := t.close()
	t.soc.Close()
	return err
}
