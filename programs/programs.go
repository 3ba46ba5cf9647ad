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

// Package programs holds the ready-made test configurations. Each program
// only chooses sizes, a pattern source, a comparator mode and a heartbeat
// cadence; the loop itself is beamtest.Harness.
package programs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/rich1111/beamtest"
	"github.com/rich1111/beamtest/payload"
)

// ErrUnknownProgram is returned by Lookup for names not in the table.
var ErrUnknownProgram = errors.New("unknown program")

// Seeds for the generated tables.
const (
	staticSeed = 0x5eed
	qsortSeed  = 0x9507
	matrixSeed = 0xffff
)

// Options adjust a program at build time. Zero values keep the defaults.
type Options struct {
	Size     int
	Cadence  uint64
	Robust   bool
	Hardware string
	Facility string
	Sink     io.ByteWriter
	Logger   *slog.Logger
}

// Program is a named test configuration.
type Program struct {
	Name      string
	Test      string // name printed in the header
	SizeLabel string
	Size      int
	Cadence   uint64
	Version   string
	Extra     []beamtest.Field

	parts func(size int) (beamtest.Config, error)
}

var table = map[string]Program{
	"march": {
		Name: "march", Test: "cache_march", SizeLabel: "Array size", Size: 848, Cadence: 60, Version: "1.0",
		parts: marchParts,
	},
	"static": {
		Name: "static", Test: "cache_static", SizeLabel: "Array size", Size: 848, Cadence: 60, Version: "1.0",
		parts: staticParts,
	},
	"sum": {
		Name: "sum", Test: "cache", SizeLabel: "Array size", Size: 600, Cadence: 1000, Version: "0.1",
		parts: sumParts,
	},
	"mm": {
		Name: "mm", Test: "MM", SizeLabel: "Side matrix size", Size: 12, Cadence: 50, Version: "0.1",
		Extra: []beamtest.Field{{Key: "input change rate", Value: 50}},
		parts: matrixParts,
	},
	"mm_stored": {
		Name: "mm_stored", Test: "MM_rand_flash", SizeLabel: "Side matrix size", Size: 12, Cadence: 50, Version: "1.0",
		parts: storedMatrixParts,
	},
	"qsort": {
		Name: "qsort", Test: "qsort_flash", SizeLabel: "Array size", Size: 180, Cadence: 50, Version: "1.0",
		parts: sortParts,
	},
	"aes": {
		Name: "aes", Test: "aes", SizeLabel: "Vectors", Size: len(payload.Vectors), Cadence: 250, Version: "0.1",
		parts: aesParts,
	},
}

// Names returns the program names in sorted order.
func Names() []string {
	n := make([]string, 0, len(table))
	for k := range table {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Lookup returns the named program.
func Lookup(name string) (Program, error) {
	p, ok := table[name]
	if !ok {
		return Program{}, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return p, nil
}

// Build looks up a program and constructs its harness. The returned header
// describes the program as configured.
func Build(name string, o Options) (*beamtest.Harness, beamtest.Header, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, beamtest.Header{}, err
	}
	return p.Build(o)
}

// Build constructs the harness for p.
func (p Program) Build(o Options) (*beamtest.Harness, beamtest.Header, error) {
	size := p.Size
	if o.Size > 0 {
		size = o.Size
	}
	cadence := p.Cadence
	if o.Cadence > 0 {
		cadence = o.Cadence
	}
	if o.Sink == nil {
		return nil, beamtest.Header{}, fmt.Errorf("program %s: no output sink", p.Name)
	}
	cfg, err := p.parts(size)
	if err != nil {
		return nil, beamtest.Header{}, fmt.Errorf("program %s: %w", p.Name, err)
	}
	cfg.Reporter = beamtest.NewReporter(o.Sink, cadence, o.Robust)
	cfg.Logger = o.Logger
	if cfg.Logger != nil {
		cfg.Logger = cfg.Logger.With("program", p.Name)
	}
	h, err := beamtest.NewHarness(cfg)
	if err != nil {
		for _, c := range cfg.Closers {
			c.Close()
		}
		return nil, beamtest.Header{}, fmt.Errorf("program %s: %w", p.Name, err)
	}
	hdr := beamtest.Header{
		Hardware:  o.Hardware,
		Test:      p.Test,
		SizeLabel: p.SizeLabel,
		Size:      size,
		Extra:     p.Extra,
		Version:   p.Version,
		Facility:  o.Facility,
	}
	return h, hdr, nil
}

func marchParts(size int) (beamtest.Config, error) {
	mem, err := beamtest.NewRegion("sram", size)
	if err != nil {
		return beamtest.Config{}, err
	}
	m := beamtest.DefaultMarch()
	return beamtest.Config{
		Memory:  mem,
		March:   &m,
		Mode:    beamtest.Diagnostic,
		Closers: []io.Closer{mem},
	}, nil
}

func staticParts(size int) (beamtest.Config, error) {
	ref, err := beamtest.NewStoredPattern("flash", beamtest.StaticTable(size, staticSeed, 16))
	if err != nil {
		return beamtest.Config{}, err
	}
	mem, err := beamtest.NewRegion("sram", size)
	if err != nil {
		ref.Close()
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:  mem,
		Pattern: ref,
		Mode:    beamtest.Diagnostic,
		Closers: []io.Closer{mem, ref},
	}, nil
}

func sumParts(size int) (beamtest.Config, error) {
	mem, err := beamtest.NewRegion("sram", size)
	if err != nil {
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:   mem,
		Pattern:  beamtest.IndexPattern{},
		Mode:     beamtest.Simple,
		SumCheck: true,
		Closers:  []io.Closer{mem},
	}, nil
}

func matrixParts(side int) (beamtest.Config, error) {
	const changeRate = 50
	mp, err := payload.NewMatrixPayload(side, matrixSeed, changeRate)
	if err != nil {
		return beamtest.Config{}, err
	}
	mem, err := beamtest.NewRegion("results", side*side)
	if err != nil {
		mp.Close()
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:  mem,
		Pattern: payload.MatrixPattern{Side: side, Seed: matrixSeed, ChangeRate: changeRate},
		Mode:    beamtest.Simple,
		Payload: mp,
		Closers: []io.Closer{mem, mp},
	}, nil
}

func storedMatrixParts(side int) (beamtest.Config, error) {
	ref, err := beamtest.NewStoredPattern("golden", payload.MatrixTable(side, matrixSeed))
	if err != nil {
		return beamtest.Config{}, err
	}
	mp, err := payload.NewMatrixPayload(side, matrixSeed, 0)
	if err != nil {
		ref.Close()
		return beamtest.Config{}, err
	}
	mem, err := beamtest.NewRegion("results", side*side)
	if err != nil {
		ref.Close()
		mp.Close()
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:  mem,
		Pattern: ref,
		Mode:    beamtest.Diagnostic,
		Payload: mp,
		Closers: []io.Closer{mem, mp, ref},
	}, nil
}

func sortParts(size int) (beamtest.Config, error) {
	input := beamtest.StaticTable(size, qsortSeed, 16)
	mem, err := beamtest.NewRegion("array", size)
	if err != nil {
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:  mem,
		Pattern: payload.NewSortedPattern(input),
		Mode:    beamtest.Simple,
		Payload: payload.NewSortPayload(input),
		Closers: []io.Closer{mem},
	}, nil
}

func aesParts(n int) (beamtest.Config, error) {
	if n > len(payload.Vectors) {
		return beamtest.Config{}, fmt.Errorf("only %d vectors available", len(payload.Vectors))
	}
	v := payload.Vectors[:n]
	ref, err := beamtest.NewStoredPattern("vectors", payload.AESTable(v))
	if err != nil {
		return beamtest.Config{}, err
	}
	p := payload.NewAESPayload(v)
	mem, err := beamtest.NewRegion("ciphertext", p.Cells())
	if err != nil {
		ref.Close()
		return beamtest.Config{}, err
	}
	return beamtest.Config{
		Memory:  mem,
		Pattern: ref,
		Mode:    beamtest.Diagnostic,
		Payload: p,
		Closers: []io.Closer{mem, ref},
	}, nil
}
