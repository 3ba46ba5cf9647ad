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

import "testing"

func TestMarchOpsCoverage(t *testing.T) {
	m := MarchSequence{
		Initial: 0,
		Passes:  []Pass{{Ascending, 0xFFFF}, {Descending, 0xAAAA}},
	}
	const n = 4
	ops := m.Ops(n, m.Initial)
	if len(ops) != n*len(m.Passes) {
		t.Fatalf("got %d ops, want %d", len(ops), n*len(m.Passes))
	}
	wantOrder := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}}
	for pass := range m.Passes {
		seen := map[int]int{}
		for k, op := range ops[pass*n : (pass+1)*n] {
			if op.Pass != pass {
				t.Errorf("op %d of pass %d tagged pass %d", k, pass, op.Pass)
			}
			if op.Index != wantOrder[pass][k] {
				t.Errorf("pass %d step %d visits %d, want %d", pass, k, op.Index, wantOrder[pass][k])
			}
			if op.Write != m.Passes[pass].Fill {
				t.Errorf("pass %d writes %#x, want %#x", pass, op.Write, m.Passes[pass].Fill)
			}
			seen[op.Index]++
		}
		for i := 0; i < n; i++ {
			if seen[i] != 1 {
				t.Errorf("pass %d visits index %d %d times", pass, i, seen[i])
			}
		}
	}
	for _, op := range ops[:n] {
		if op.Expected != 0 {
			t.Errorf("pass 1 expects %#x at %d, want 0", op.Expected, op.Index)
		}
	}
	for _, op := range ops[n:] {
		if op.Expected != 0xFFFF {
			t.Errorf("pass 2 expects %#x at %d, want 0xffff", op.Expected, op.Index)
		}
	}
}

func TestMarchChaining(t *testing.T) {
	m := DefaultMarch()
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.Final() != m.Initial {
		t.Errorf("default march ends on %#x, starts on %#x", m.Final(), m.Initial)
	}
	ops := m.Ops(3, m.Initial)
	for k := 3; k < len(ops); k++ {
		prev := m.Passes[ops[k].Pass-1].Fill
		if ops[k].Pass > 0 && ops[k].Expected != prev {
			t.Errorf("op %d expects %#x, previous pass filled %#x", k, ops[k].Expected, prev)
		}
	}
}

func TestMarchValidate(t *testing.T) {
	if err := (MarchSequence{}).Validate(); err == nil {
		t.Error("empty sequence validated")
	}
	bad := MarchSequence{Passes: []Pass{{Direction(7), 1}}}
	if err := bad.Validate(); err == nil {
		t.Error("bad direction validated")
	}
}
