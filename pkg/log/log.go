// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log holds the process-wide zap logger behind package-level helpers.
// Until NewLog runs every call goes to a nop logger.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	sugar  = logger.Sugar()
	level  = zap.NewAtomicLevel()
)

// Conf is the [log] section.
type Conf struct {
	Output     string `mapstructure:"output"` // stdout | file
	Format     string `mapstructure:"format"` // console | json
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	KeepDays   int    `mapstructure:"keepDays"`
	RotateSize int    `mapstructure:"rotateSize"` // MB
	RotateNum  int    `mapstructure:"rotateNum"`
}

// SetDefaults returns the defaults of every field.
func SetDefaults() *Conf {
	return &Conf{
		Output:     "stdout",
		Format:     FormatConsole,
		Path:       "./logs",
		Filename:   defaultFilename,
		Level:      "INFO",
		KeepDays:   7,
		RotateSize: 100,
		RotateNum:  10,
	}
}

// Validate checks the configuration and fills rotation defaults for file output.
func (c *Conf) Validate() error {
	switch c.Format {
	case "", FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Output {
	case "", "stdout":
	case "file":
		if c.Path == "" {
			return fmt.Errorf("log path is required when output is 'file'")
		}
		def := SetDefaults()
		if c.RotateSize <= 0 {
			c.RotateSize = def.RotateSize
		}
		if c.RotateNum <= 0 {
			c.RotateNum = def.RotateNum
		}
		if c.KeepDays <= 0 {
			c.KeepDays = def.KeepDays
		}
	default:
		return fmt.Errorf("unsupported log output: %s", c.Output)
	}
	return nil
}

// NewLog builds the logger, installs it as the package default and returns it.
func NewLog(conf *Conf) (*zap.Logger, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	var sink zapcore.WriteSyncer
	if conf.Output == "file" {
		var err error
		if sink, err = getFileLogWriter(conf); err != nil {
			return nil, fmt.Errorf("failed to create file log writer: %w", err)
		}
	} else {
		sink = zapcore.Lock(os.Stdout)
	}

	level.SetLevel(parseLevel(conf.Level))
	core := zapcore.NewCore(newEncoder(conf.Format), sink, level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	logger = l
	sugar = l.Sugar()
	mu.Unlock()

	sugar.Debugw("log initialized", "output", conf.Output, "format", conf.Format, "level", level.Level())
	return l, nil
}

// GetLogger returns the package sugared logger.
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func GetLevel() zapcore.Level {
	return level.Level()
}

// SetLevel changes the level of the running logger. Unknown names mean INFO.
func SetLevel(l string) {
	next := parseLevel(l)
	if next != level.Level() {
		level.SetLevel(next)
		GetLogger().Infow("log level changed", "level", next)
	}
}

// Sync flushes buffered entries.
func Sync() error {
	return GetLogger().Sync()
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder

	if format == FormatJSON {
		cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return l
}
