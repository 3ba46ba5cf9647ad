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
	"strings"
	"testing"
)

func TestReporterHeader(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 60, true)
	err := r.Header(Header{
		Hardware:  "MSP430F2619",
		Test:      "cache_march",
		SizeLabel: "Array size",
		Size:      848,
		Extra:     []Field{{Key: "input change rate", Value: 50}},
		Version:   "1.0",
		Facility:  "LANSCE",
	})
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	want := "\r\n---\r\nhw: MSP430F2619\r\ntest: cache_march\r\nmit: none\r\nprinting: 1\r\n" +
		"Array size: 848\r\ninput change rate: 50\r\nver: 1.0\r\nfac: LANSCE\r\nd:\r\n"
	if out.String() != want {
		t.Errorf("header = %q, want %q", out.String(), want)
	}
}

func TestReporterGroupsIteration(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 1000, true)

	r.BeginIteration(7)
	upset := Observation{Index: 3, Live1: 1, Live2: 1, Ref1: 0, Ref2: 0, Redundant: true}
	set := Observation{Index: 9, Live1: 8, Live2: 5, Ref1: 5, Ref2: 5, Redundant: true}
	for _, o := range []Observation{upset, set} {
		if err := r.Record(FaultRecord{Iteration: 7, Category: o.Category(), Observation: o}); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.EndIteration(); err != nil {
		t.Fatal(err)
	}
	r.BeginIteration(8)
	if err := r.Record(FaultRecord{Iteration: 8, Category: MutUpset, Observation: Observation{Index: 1, Live1: 4, Ref1: 2}}); err != nil {
		t.Fatal(err)
	}

	want := " - i: 7\r\n" +
		"   MUT_UPSET: {i: 3, 1: 0, 1: 0}\r\n" +
		"   TRANSIENT_FIRST_READ: {i: 9, 8: 5, 5: 5}\r\n" +
		" - i: 8\r\n" +
		"   MUT_UPSET: {i: 1, 4: 2}\r\n"
	if out.String() != want {
		t.Errorf("report = %q, want %q", out.String(), want)
	}
}

func TestReporterCounters(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 60, true)

	r.BeginIteration(0)
	before := r.Totals()
	if err := r.Record(FaultRecord{Category: ReferenceUnstable}); err != nil {
		t.Fatal(err)
	}
	after := r.Totals()
	if after.TotalErrors != before.TotalErrors+1 {
		t.Errorf("total errors %d -> %d", before.TotalErrors, after.TotalErrors)
	}
	if after.Count(ReferenceUnstable) != before.Count(ReferenceUnstable)+1 {
		t.Errorf("category count %d -> %d", before.Count(ReferenceUnstable), after.Count(ReferenceUnstable))
	}
	for _, c := range Categories() {
		if c != ReferenceUnstable && after.Count(c) != 0 {
			t.Errorf("%s counted %d", c, after.Count(c))
		}
	}
	if r.LocalErrors() != 1 {
		t.Errorf("local errors = %d", r.LocalErrors())
	}
	if err := r.EndIteration(); err != nil {
		t.Fatal(err)
	}
	r.BeginIteration(1)
	if r.LocalErrors() != 0 {
		t.Errorf("local errors not reset: %d", r.LocalErrors())
	}
	if err := r.EndIteration(); err != nil {
		t.Fatal(err)
	}
	tot := r.Totals()
	if tot.Iterations != 2 || tot.IterationsWithErrors != 1 {
		t.Errorf("iterations %d, with errors %d", tot.Iterations, tot.IterationsWithErrors)
	}
}

func TestReporterHeartbeatCadence(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 60, true)
	for it := uint64(0); it <= 150; it++ {
		r.BeginIteration(it)
		r.Checked(10)
		if it%45 == 0 {
			if err := r.Record(FaultRecord{Iteration: it, Category: MutUpset}); err != nil {
				t.Fatal(err)
			}
		}
		if err := r.EndIteration(); err != nil {
			t.Fatal(err)
		}
	}
	var beats []string
	for _, line := range strings.Split(out.String(), "\r\n") {
		if strings.HasPrefix(line, "# ") {
			beats = append(beats, line)
		}
	}
	want := []string{"# 0, 1, 1, 10", "# 60, 2, 2, 610", "# 120, 3, 3, 1210"}
	if fmt.Sprint(beats) != fmt.Sprint(want) {
		t.Errorf("heartbeats = %q, want %q", beats, want)
	}
}

func TestReporterQuiet(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 100, false)
	r.BeginIteration(5)
	for i := 0; i < 3; i++ {
		if err := r.Record(FaultRecord{Iteration: 5, Category: MutUpset}); err != nil {
			t.Fatal(err)
		}
	}
	if out.String() != "" {
		t.Errorf("quiet reporter printed a record: %q", out.String())
	}
	if err := r.EndIteration(); err != nil {
		t.Fatal(err)
	}
	if want := " - i: 5\r\n   MUT_UPSET: 3\r\n"; out.String() != want {
		t.Errorf("report = %q, want %q", out.String(), want)
	}
}

func TestReporterMismatch(t *testing.T) {
	var out byteBuffer
	r := NewReporter(&out, 100, true)
	r.BeginIteration(3)
	if err := r.Mismatch("S", 179700, 179701); err != nil {
		t.Fatal(err)
	}
	if want := " - i: 3\r\n   S: {179700: 179701}\r\n"; out.String() != want {
		t.Errorf("report = %q, want %q", out.String(), want)
	}
	tot := r.Totals()
	if tot.TotalErrors != 1 || tot.AggregateErrors != 1 {
		t.Errorf("totals = %+v", tot)
	}
}

func TestReporterDefaultCadence(t *testing.T) {
	if c := NewReporter(&byteBuffer{}, 0, true).Cadence(); c != DefaultCadence {
		t.Errorf("cadence = %d", c)
	}
}
