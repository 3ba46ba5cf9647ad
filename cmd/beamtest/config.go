// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
	"github.com/rich1111/beamtest"
	"github.com/rich1111/beamtest/programs"
)

// Config holds the command configuration.
type Config struct {
	Program    string `env:"BEAMTEST_PROGRAM"     envDefault:"march"`
	Serial     string `env:"BEAMTEST_SERIAL"`
	Baud       int    `env:"BEAMTEST_BAUD"        envDefault:"9600"`
	Size       int    `env:"BEAMTEST_SIZE"`
	Cadence    uint64 `env:"BEAMTEST_CADENCE"`
	Robust     bool   `env:"BEAMTEST_ROBUST"      envDefault:"true"`
	Echo       bool   `env:"BEAMTEST_ECHO"`
	Iterations uint64 `env:"BEAMTEST_ITERATIONS"`
	LogLevel   string `env:"BEAMTEST_LOG_LEVEL"   envDefault:"info"`
	Hardware   string `env:"BEAMTEST_HW"`
	Facility   string `env:"BEAMTEST_FACILITY"    envDefault:"bench"`
}

// ParseConfig reads the environment, then lets flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Program, "program", cfg.Program, "test program: "+strings.Join(programs.Names(), ", "))
	fs.StringVar(&cfg.Serial, "serial", cfg.Serial, "serial device for the report (stdout if empty)")
	fs.IntVar(&cfg.Baud, "baud", cfg.Baud, "serial baud rate")
	fs.IntVar(&cfg.Size, "size", cfg.Size, "array size or matrix side (0 for the program default)")
	fs.Uint64Var(&cfg.Cadence, "cadence", cfg.Cadence, "iterations between heartbeats (0 for the program default)")
	fs.BoolVar(&cfg.Robust, "robust", cfg.Robust, "print every fault record")
	fs.BoolVar(&cfg.Echo, "echo", cfg.Echo, "echo bytes received on the serial device")
	fs.Uint64Var(&cfg.Iterations, "iterations", cfg.Iterations, "stop after this many iterations (0 runs forever)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.Hardware, "hw", cfg.Hardware, "hardware identifier for the header")
	fs.StringVar(&cfg.Facility, "fac", cfg.Facility, "facility for the header")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Hardware == "" {
		cfg.Hardware = runtime.GOOS + "/" + runtime.GOARCH
	}
	if _, err := programs.Lookup(cfg.Program); err != nil {
		return Config{}, err
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.Echo && cfg.Serial == "" {
		return Config{}, fmt.Errorf("echo needs a serial device")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = beamtest.DefaultBaud
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	l, err := parseLevel(level)
	if err != nil {
		l = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      l,
		TimeFormat: time.TimeOnly,
	}))
}
