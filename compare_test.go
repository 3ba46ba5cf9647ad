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
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	live := newGlitchMemory(0, 1, 9, 3, 7)
	got := Comparator{Mode: Simple}.Compare(live, IndexPattern{}, 0)
	if want := []int{2, 4}; !slices.Equal(got, want) {
		t.Errorf("Compare = %v, want %v", got, want)
	}
	if want := []Word{0, 1, 9, 3, 7}; !slices.Equal(live.cells, want) {
		t.Errorf("Compare modified memory: %v", live.cells)
	}
}

func TestObserveSimple(t *testing.T) {
	live := newGlitchMemory(0, 5)
	c := Comparator{Mode: Simple}

	if _, bad := c.Observe(live, IndexPattern{}, 0, 0); bad {
		t.Error("matching cell reported")
	}
	o, bad := c.Observe(live, IndexPattern{}, 1, 0)
	if !bad {
		t.Fatal("mismatch not reported")
	}
	if o.Redundant || o.Live2 != o.Live1 || o.Ref2 != o.Ref1 {
		t.Errorf("simple observation took second reads: %+v", o)
	}
	if len(o.Samples()) != 2 {
		t.Errorf("simple observation has %d samples", len(o.Samples()))
	}
	if live.loads != 2 {
		t.Errorf("simple mode made %d live loads, want 2", live.loads)
	}
}

func TestObserveDiagnostic(t *testing.T) {
	tests := []struct {
		name    string
		glitch  []Word // queued live reads of cell 1
		refBad  []Word // queued reference reads of cell 1
		cell    Word
		want    FaultCategory
		samples []Word
	}{
		{
			name: "upset", cell: 6, want: MutUpset,
			samples: []Word{6, 1, 6, 1},
		},
		{
			name: "first read transient", glitch: []Word{8}, cell: 1, want: TransientFirstRead,
			samples: []Word{8, 1, 1, 1},
		},
		{
			name: "both live reads glitched", glitch: []Word{4, 9}, cell: 1, want: AmbiguousMultiFault,
			samples: []Word{4, 1, 9, 1},
		},
		{
			name: "unstable reference", refBad: []Word{5}, cell: 1, want: ReferenceUnstable,
			samples: []Word{1, 5, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := newGlitchMemory(0, tt.cell)
			live.glitch[1] = tt.glitch
			ref := newFlakyRef(0, 1)
			ref.mem.glitch[1] = tt.refBad

			o, bad := Comparator{Mode: Diagnostic}.Observe(live, ref, 1, 0)
			if !bad {
				t.Fatal("mismatch not reported")
			}
			if !o.Redundant {
				t.Error("diagnostic observation not redundant")
			}
			var got []Word
			for _, s := range o.Samples() {
				got = append(got, s.Value)
			}
			if !slices.Equal(got, tt.samples) {
				t.Errorf("samples = %v, want %v", got, tt.samples)
			}
			if c := o.Category(); c != tt.want {
				t.Errorf("category = %s, want %s", c, tt.want)
			}
		})
	}
}

func TestObserveDiagnosticComputed(t *testing.T) {
	live := newGlitchMemory(0, 1, 2)
	live.glitch[2] = []Word{3}
	o, bad := Comparator{Mode: Diagnostic}.Observe(live, IndexPattern{}, 2, 0)
	if !bad {
		t.Fatal("mismatch not reported")
	}
	if o.Ref1 != 2 || o.Ref2 != 2 {
		t.Errorf("computed reference reads = %d, %d", o.Ref1, o.Ref2)
	}
	if o.Category() != TransientFirstRead {
		t.Errorf("category = %s", o.Category())
	}
}
