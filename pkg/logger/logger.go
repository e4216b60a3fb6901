// Copyright 2021-2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	LogContainer = logContainer{
		level: zap.NewAtomicLevelAt(zapcore.InfoLevel),
		sink:  &fileSink{},
	}
	loggerInit       sync.Once
	simpleLoggerInit sync.Once
)

type logContainer struct {
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger
	level        zap.AtomicLevel
	sink         *fileSink
}

// fileSink drops everything until a file is attached. Loggers are created
// during package initialization, long before flags are parsed.
type fileSink struct {
	mu    sync.Mutex
	out   zapcore.WriteSyncer
	close func()
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return len(p), nil
	}
	return s.out.Write(p)
}

func (s *fileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	return s.out.Sync()
}

func (s *fileSink) attach(path string) error {
	out, closeOut, err := zap.Open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.close != nil {
		s.close()
	}
	s.out, s.close = out, closeOut
	return nil
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(l.getCombinedCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = l.GetLogger().Sugar()
	})
	return l.simpleLogger
}

// SetLevel changes the level of all loggers handed out so far and in the
// future.
func (l *logContainer) SetLevel(lvl zapcore.Level) {
	l.level.SetLevel(lvl)
}

// SetLogFile makes all loggers additionally write JSON lines to path,
// replacing any previous file.
func (l *logContainer) SetLogFile(path string) error {
	return l.sink.attach(path)
}

// String mirrors zap.String
func (l *logContainer) String(key string, val string) zap.Field {
	return zap.String(key, val)
}

// Int mirrors zap.Int
func (l *logContainer) Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Uintptr mirrors zap.Uintptr
func (l *logContainer) Uintptr(key string, val uintptr) zap.Field {
	return zap.Uintptr(key, val)
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func (l *logContainer) getConsoleCore() zapcore.Core {
	return zapcore.NewCore(getConsoleEncoder(), zapcore.Lock(os.Stderr), l.level)
}

func (l *logContainer) getJsonCore() zapcore.Core {
	return zapcore.NewCore(getJsonEncoder(), l.sink, l.level)
}

func (l *logContainer) getCombinedCore() zapcore.Core {
	return zapcore.NewTee(l.getConsoleCore(), l.getJsonCore())
}
