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

package beamtest

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

var (
	ErrNoMemory   = errors.New("no memory under test")
	ErrNoPattern  = errors.New("no pattern or march sequence")
	ErrNoReporter = errors.New("no reporter")
)

// Payload computes the values under test into live memory.
type Payload interface {
	// Init writes fresh inputs before the first iteration.
	Init(live Memory)
	// Produce runs the computation for one iteration.
	Produce(live Memory, iteration uint64)
}

// Restorer is implemented by payloads that keep inputs outside live memory
// and must regenerate them after an iteration with errors.
type Restorer interface {
	Restore(iteration uint64)
}

// Config describes one test program.
type Config struct {
	Memory   Memory
	Pattern  PatternSource
	March    *MarchSequence // when set, Pattern is not used
	Mode     Mode
	Payload  Payload
	SumCheck bool
	Reporter *Reporter
	Logger   *slog.Logger
	Closers  []io.Closer
}

// Harness runs the verify, classify, repair and count loop.
type Harness struct {
	mem      Memory
	ref      PatternSource
	march    *MarchSequence
	cmp      Comparator
	payload  Payload
	sumCheck bool
	rep      *Reporter
	log      *slog.Logger
	closers  []io.Closer

	iteration uint64
	start     Word
}

// NewHarness validates cfg and returns an initialized harness.
func NewHarness(cfg Config) (*Harness, error) {
	if cfg.Memory == nil || cfg.Memory.Len() == 0 {
		return nil, ErrNoMemory
	}
	if cfg.March != nil {
		if err := cfg.March.Validate(); err != nil {
			return nil, err
		}
	} else if cfg.Pattern == nil {
		return nil, ErrNoPattern
	}
	if cfg.Reporter == nil {
		return nil, ErrNoReporter
	}
	h := &Harness{
		mem:      cfg.Memory,
		ref:      cfg.Pattern,
		march:    cfg.March,
		cmp:      Comparator{Mode: cfg.Mode},
		payload:  cfg.Payload,
		sumCheck: cfg.SumCheck,
		rep:      cfg.Reporter,
		log:      cfg.Logger,
		closers:  cfg.Closers,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.Init()
	return h, nil
}

// Init rewrites all memory under test from scratch and restarts the
// iteration count. Residual contents are never trusted.
func (h *Harness) Init() {
	h.iteration = 0
	switch {
	case h.payload != nil:
		h.payload.Init(h.mem)
	case h.march != nil:
		h.start = h.march.Initial
		for i := 0; i < h.mem.Len(); i++ {
			h.mem.Store(i, h.start)
		}
	default:
		for i := 0; i < h.mem.Len(); i++ {
			h.mem.Store(i, h.ref.ValueAt(i, 0))
		}
	}
	h.log.Info("harness initialized", "cells", h.mem.Len(), "mode", h.cmp.Mode.String(), "march", h.march != nil)
}

// Iteration returns the number of completed iterations.
func (h *Harness) Iteration() uint64 {
	return h.iteration
}

// Reporter returns the reporter the harness records into.
func (h *Harness) Reporter() *Reporter {
	return h.rep
}

// Memory returns the memory under test.
func (h *Harness) Memory() Memory {
	return h.mem
}

// Step runs one iteration.
func (h *Harness) Step() error {
	it := h.iteration
	h.rep.BeginIteration(it)
	if h.payload != nil {
		h.payload.Produce(h.mem, it)
	}
	var err error
	if h.march != nil {
		err = h.sweep(it)
	} else {
		err = h.check(it)
	}
	if err != nil {
		return err
	}
	if h.rep.LocalErrors() > 0 {
		if r, ok := h.payload.(Restorer); ok {
			r.Restore(it)
		}
	}
	if err := h.rep.EndIteration(); err != nil {
		return err
	}
	h.iteration++
	return nil
}

// Run steps until ctx is done or limit iterations have run.
// A zero limit runs until ctx is done.
func (h *Harness) Run(ctx context.Context, limit uint64) error {
	for n := uint64(0); limit == 0 || n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) check(it uint64) error {
	n := h.mem.Len()
	var sum Word
	for i := 0; i < n; i++ {
		o, bad := h.cmp.Observe(h.mem, h.ref, i, it)
		sum += o.Live1
		if bad {
			if err := h.resolve(it, o, h.ref); err != nil {
				return err
			}
		}
	}
	h.rep.Checked(n)
	if h.sumCheck && h.rep.LocalErrors() == 0 {
		var want Word
		for i := 0; i < n; i++ {
			want += h.ref.ValueAt(i, it)
		}
		if sum != want {
			h.log.Debug("sum mismatch", "iteration", it, "want", want, "got", sum)
			return h.rep.Mismatch("S", want, sum)
		}
	}
	return nil
}

func (h *Harness) sweep(it uint64) error {
	ops := h.march.Ops(h.mem.Len(), h.start)
	for _, op := range ops {
		expected := Constant(op.Expected)
		if o, bad := h.cmp.Observe(h.mem, expected, op.Index, it); bad {
			if err := h.resolve(it, o, expected); err != nil {
				return err
			}
		}
		h.mem.Store(op.Index, op.Write)
	}
	h.rep.Checked(len(ops))
	h.start = h.march.Final()
	return nil
}

// resolve classifies a mismatch, repairs the live cell from the first
// reference read, and records the fault. A reference that disagreed with
// itself is restored first when it can be, and the live cell is then
// repaired from it instead.
func (h *Harness) resolve(it uint64, o Observation, ref PatternSource) error {
	cat := o.Category()
	fix := o.Ref1
	if cat == ReferenceUnstable || cat == AmbiguousMultiFault {
		if r, ok := ref.(Repairer); ok {
			r.Repair(o.Index)
			fix = ref.ValueAt(o.Index, it)
		}
	}
	h.mem.Store(o.Index, fix)
	h.log.Debug("fault", "iteration", it, "index", o.Index, "category", cat.String())
	return h.rep.Record(FaultRecord{Iteration: it, Category: cat, Observation: o})
}

// Close releases the regions owned by the harness.
func (h *Harness) Close() error {
	var errs []error
	for _, c := range h.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}
