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

// Mode selects how many reads the comparator takes on a mismatch.
type Mode int

const (
	// Simple takes one read from each side.
	Simple Mode = iota
	// Diagnostic rereads both sides after a mismatch.
	Diagnostic
)

func (m Mode) String() string {
	if m == Diagnostic {
		return "diagnostic"
	}
	return "simple"
}

// Source tags where a sample was read from.
type Source int

const (
	LiveSource Source = iota
	ReferenceSource
)

// ReadSample is one read of one side.
type ReadSample struct {
	Source  Source
	Attempt int
	Value   Word
}

// Observation holds the reads taken at one index.
type Observation struct {
	Index     int
	Live1     Word
	Live2     Word
	Ref1      Word
	Ref2      Word
	Redundant bool // Live2 and Ref2 are independent reads
}

// Samples returns the reads in the order they are reported.
func (o Observation) Samples() []ReadSample {
	s := []ReadSample{
		{LiveSource, 1, o.Live1},
		{ReferenceSource, 1, o.Ref1},
	}
	if o.Redundant {
		s = append(s, ReadSample{LiveSource, 2, o.Live2}, ReadSample{ReferenceSource, 2, o.Ref2})
	}
	return s
}

// Category classifies the observation.
func (o Observation) Category() FaultCategory {
	return Classify(o.Live1, o.Live2, o.Ref1, o.Ref2)
}

// Comparator finds cells that disagree with their reference. It never
// writes to either side.
type Comparator struct {
	Mode Mode
}

// Compare returns every index where live differs from ref.
func (c Comparator) Compare(live Memory, ref PatternSource, iteration uint64) []int {
	var bad []int
	for i := 0; i < live.Len(); i++ {
		if live.Load(i) != ref.ValueAt(i, iteration) {
			bad = append(bad, i)
		}
	}
	return bad
}

// Observe reads index i from both sides. It returns false when the first
// reads agree; the first live read is set either way.
func (c Comparator) Observe(live Memory, ref PatternSource, i int, iteration uint64) (Observation, bool) {
	o := Observation{Index: i}
	o.Live1 = live.Load(i)
	if rs, ok := ref.(RedundantSource); ok && c.Mode == Diagnostic {
		o.Ref1, o.Ref2 = rs.ValueAtRedundant(i)
		if o.Live1 == o.Ref1 {
			return o, false
		}
	} else {
		o.Ref1 = ref.ValueAt(i, iteration)
		if o.Live1 == o.Ref1 {
			return o, false
		}
		o.Ref2 = o.Ref1
		if c.Mode == Diagnostic {
			o.Ref2 = ref.ValueAt(i, iteration)
		}
	}
	if c.Mode == Diagnostic {
		o.Live2 = live.Load(i)
		o.Redundant = true
	} else {
		o.Live2 = o.Live1
	}
	return o, true
}
