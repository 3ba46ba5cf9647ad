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

// Command beamtest runs one of the irradiation test programs and streams its
// YAML report to a serial device or stdout.
//
//	beamtest -program march -serial /dev/ttyUSB0
//	BEAMTEST_PROGRAM=static beamtest -iterations 1000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rich1111/beamtest"
	"github.com/rich1111/beamtest/programs"
)

func main() {
	cfg, err := ParseConfig(flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	uart, err := bringUp(cfg)
	if err != nil {
		log.Error("bring-up failed, halting", "err", err)
		beamtest.Trap()
	}
	defer uart.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, uart, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("test stopped", "err", err)
		os.Exit(1)
	}
}

// bringUp opens the report transport.
func bringUp(cfg Config) (*beamtest.UART, error) {
	if cfg.Serial == "" {
		return beamtest.NewUART(os.Stdout), nil
	}
	return beamtest.OpenUART(cfg.Serial, cfg.Baud)
}

func run(ctx context.Context, cfg Config, uart *beamtest.UART, log *slog.Logger) error {
	h, hdr, err := programs.Build(cfg.Program, programs.Options{
		Size:     cfg.Size,
		Cadence:  cfg.Cadence,
		Robust:   cfg.Robust,
		Hardware: cfg.Hardware,
		Facility: cfg.Facility,
		Sink:     uart,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer h.Close()

	if cfg.Echo {
		go func() {
			if err := beamtest.Echo(ctx, uart); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("echo stopped", "err", err)
			}
		}()
	}
	if err := h.Reporter().Header(hdr); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	log.Info("test started", "program", cfg.Program, "device", uart.Name(), "iterations", cfg.Iterations)
	err = h.Run(ctx, cfg.Iterations)
	t := h.Reporter().Totals()
	log.Info("test finished", "iterations", t.Iterations, "errors", t.TotalErrors, "iterations_with_errors", t.IterationsWithErrors)
	return err
}
