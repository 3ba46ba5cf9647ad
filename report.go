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
	"fmt"
	"io"
)

// DefaultCadence is the number of iterations between heartbeats.
const DefaultCadence = 60

const eol = "\r\n"

// Field is an extra key/value line in the report header.
type Field struct {
	Key   string
	Value any
}

// Header describes the test at the top of the report document.
type Header struct {
	Hardware   string
	Test       string
	Mitigation string
	SizeLabel  string
	Size       int
	Extra      []Field
	Version    string
	Facility   string
}

// Counters are lifetime totals. They start at zero and are never reset.
type Counters struct {
	Iterations           uint64
	TotalErrors          uint64
	IterationsWithErrors uint64
	TotalChecks          uint64
	AggregateErrors      uint64
	Category             [numCategories]uint64
}

// Count returns the number of faults recorded under cat.
func (c Counters) Count(cat FaultCategory) uint64 {
	if cat < 0 || cat >= numCategories {
		return 0
	}
	return c.Category[cat]
}

// FaultRecord is one classified mismatch.
type FaultRecord struct {
	Iteration   uint64
	Category    FaultCategory
	Observation Observation
}

// Reporter counts faults and streams them as a YAML document.
// Records of one iteration are grouped under a single "- i:" block.
type Reporter struct {
	out     io.Writer
	cadence uint64
	robust  bool

	totals Counters

	iteration uint64
	local     int
	localCat  [numCategories]int
	inBlock   bool
}

// NewReporter writes to sink one byte at a time. With robust set every
// record is printed; otherwise only per-category counts are printed at the
// end of each iteration.
func NewReporter(sink io.ByteWriter, cadence uint64, robust bool) *Reporter {
	if cadence == 0 {
		cadence = DefaultCadence
	}
	return &Reporter{out: byteSink{sink}, cadence: cadence, robust: robust}
}

// Cadence returns the heartbeat interval.
func (r *Reporter) Cadence() uint64 {
	return r.cadence
}

// Header prints the document start.
func (r *Reporter) Header(h Header) error {
	printing := 0
	if r.robust {
		printing = 1
	}
	if _, err := fmt.Fprintf(r.out, eol+"---"+eol+"hw: %s"+eol+"test: %s"+eol+"mit: %s"+eol+"printing: %d"+eol,
		h.Hardware, h.Test, orNone(h.Mitigation), printing); err != nil {
		return err
	}
	if h.SizeLabel != "" {
		if _, err := fmt.Fprintf(r.out, "%s: %d"+eol, h.SizeLabel, h.Size); err != nil {
			return err
		}
	}
	for _, f := range h.Extra {
		if _, err := fmt.Fprintf(r.out, "%s: %v"+eol, f.Key, f.Value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(r.out, "ver: %s"+eol+"fac: %s"+eol+"d:"+eol, h.Version, h.Facility)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// BeginIteration starts a new iteration with no local errors.
func (r *Reporter) BeginIteration(iteration uint64) {
	r.iteration = iteration
	r.local = 0
	r.localCat = [numCategories]int{}
	r.inBlock = false
}

// Iteration returns the current iteration.
func (r *Reporter) Iteration() uint64 {
	return r.iteration
}

// LocalErrors returns the errors recorded in the current iteration.
func (r *Reporter) LocalErrors() int {
	return r.local
}

// Checked adds n cell comparisons to the lifetime total.
func (r *Reporter) Checked(n int) {
	r.totals.TotalChecks += uint64(n)
}

// Record counts a fault and prints it immediately.
func (r *Reporter) Record(rec FaultRecord) error {
	cat := rec.Category
	if cat < 0 || cat >= numCategories {
		cat = AmbiguousMultiFault
	}
	r.local++
	r.localCat[cat]++
	r.totals.Category[cat]++
	r.totals.TotalErrors++
	if !r.robust {
		return nil
	}
	if err := r.openBlock(); err != nil {
		return err
	}
	o := rec.Observation
	var err error
	if o.Redundant {
		_, err = fmt.Fprintf(r.out, "   %s: {i: %d, %d: %d, %d: %d}"+eol, cat, o.Index, o.Live1, o.Ref1, o.Live2, o.Ref2)
	} else {
		_, err = fmt.Fprintf(r.out, "   %s: {i: %d, %d: %d}"+eol, cat, o.Index, o.Live1, o.Ref1)
	}
	return err
}

// Mismatch records a failed aggregate check, such as a checksum, whose
// expected and observed values disagree.
func (r *Reporter) Mismatch(tag string, expected, got Word) error {
	r.local++
	r.totals.TotalErrors++
	r.totals.AggregateErrors++
	if err := r.openBlock(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.out, "   %s: {%d: %d}"+eol, tag, expected, got)
	return err
}

func (r *Reporter) openBlock() error {
	if r.inBlock {
		return nil
	}
	r.inBlock = true
	_, err := fmt.Fprintf(r.out, " - i: %d"+eol, r.iteration)
	return err
}

// EndIteration folds the iteration into the lifetime totals and prints a
// heartbeat when the iteration falls on the cadence.
func (r *Reporter) EndIteration() error {
	if !r.robust && r.local > 0 {
		if err := r.openBlock(); err != nil {
			return err
		}
		for cat, n := range r.localCat {
			if n == 0 {
				continue
			}
			if _, err := fmt.Fprintf(r.out, "   %s: %d"+eol, FaultCategory(cat), n); err != nil {
				return err
			}
		}
	}
	r.totals.Iterations++
	if r.local > 0 {
		r.totals.IterationsWithErrors++
	}
	r.inBlock = false
	if r.iteration%r.cadence == 0 {
		return r.Heartbeat()
	}
	return nil
}

// Heartbeat prints the running totals as a comment line.
func (r *Reporter) Heartbeat() error {
	_, err := fmt.Fprintf(r.out, "# %d, %d, %d, %d"+eol,
		r.iteration, r.totals.TotalErrors, r.totals.IterationsWithErrors, r.totals.TotalChecks)
	return err
}

// Totals returns a copy of the lifetime counters.
func (r *Reporter) Totals() Counters {
	return r.totals
}

// byteSink adapts a byte-at-a-time transport to io.Writer.
type byteSink struct {
	w io.ByteWriter
}

func (s byteSink) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := s.w.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
