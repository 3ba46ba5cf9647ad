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

import "errors"

// Direction is the order a march pass walks the address range.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "up"
	case Descending:
		return "down"
	default:
		return "unknown"
	}
}

// Pass is one sweep of a march test.
type Pass struct {
	Dir  Direction
	Fill Word
}

// MarchOp verifies one cell against Expected, then writes Write to it.
type MarchOp struct {
	Pass     int
	Index    int
	Expected Word
	Write    Word
}

// MarchSequence is a multi-pass address sweep. Each pass verifies the value
// written by the previous pass, so the whole sweep is one chained check.
type MarchSequence struct {
	Initial Word
	Passes  []Pass
}

// DefaultMarch is the four pass 0xFFFF/0xAAAA/0x5555/0x0000 march, ending
// on its initial value.
func DefaultMarch() MarchSequence {
	return MarchSequence{
		Initial: 0x0000,
		Passes: []Pass{
			{Ascending, 0xFFFF},
			{Descending, 0xAAAA},
			{Ascending, 0x5555},
			{Descending, 0x0000},
		},
	}
}

// Validate checks the sequence can be run.
func (m MarchSequence) Validate() error {
	if len(m.Passes) == 0 {
		return errors.New("march: no passes")
	}
	for _, p := range m.Passes {
		if p.Dir != Ascending && p.Dir != Descending {
			return errors.New("march: bad direction")
		}
	}
	return nil
}

// Final returns the value every cell holds after a full sweep.
func (m MarchSequence) Final() Word {
	if len(m.Passes) == 0 {
		return m.Initial
	}
	return m.Passes[len(m.Passes)-1].Fill
}

// Ops returns the operations of a full sweep over n cells, where every cell
// holds start before the first pass.
func (m MarchSequence) Ops(n int, start Word) []MarchOp {
	ops := make([]MarchOp, 0, n*len(m.Passes))
	expected := start
	for pi, p := range m.Passes {
		for k := 0; k < n; k++ {
			i := k
			if p.Dir == Descending {
				i = n - 1 - k
			}
			ops = append(ops, MarchOp{Pass: pi, Index: i, Expected: expected, Write: p.Fill})
		}
		expected = p.Fill
	}
	return ops
}
