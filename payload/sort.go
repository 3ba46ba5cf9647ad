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

// Package payload holds the computations whose results are checked by the
// harness. None of them know about faults; they only produce values.
package payload

import (
	"slices"

	"github.com/rich1111/beamtest"
)

// QuickSort sorts m ascending in place.
func QuickSort(m beamtest.Memory) {
	quickSort(m, 0, m.Len(), func(a, b beamtest.Word) bool { return a < b })
}

// QuickSortReverse sorts m descending in place.
func QuickSortReverse(m beamtest.Memory) {
	quickSort(m, 0, m.Len(), func(a, b beamtest.Word) bool { return a > b })
}

// quickSort partitions the n cells starting at lo around the middle cell.
func quickSort(m beamtest.Memory, lo, n int, before func(a, b beamtest.Word) bool) {
	if n < 2 {
		return
	}
	p := m.Load(lo + n/2)
	l, r := lo, lo+n-1
	for l <= r {
		switch {
		case before(m.Load(l), p):
			l++
		case before(p, m.Load(r)):
			r--
		default:
			t := m.Load(l)
			m.Store(l, m.Load(r))
			m.Store(r, t)
			l++
			r--
		}
	}
	quickSort(m, lo, r-lo+1, before)
	quickSort(m, l, lo+n-l, before)
}

// SortPayload sorts the live array ascending on even iterations and
// descending on odd ones.
type SortPayload struct {
	input []beamtest.Word
}

// NewSortPayload sorts copies of input.
func NewSortPayload(input []beamtest.Word) *SortPayload {
	return &SortPayload{input: slices.Clone(input)}
}

func (s *SortPayload) Init(live beamtest.Memory) {
	for i, v := range s.input {
		live.Store(i, v)
	}
}

func (s *SortPayload) Produce(live beamtest.Memory, iteration uint64) {
	if iteration%2 == 0 {
		QuickSort(live)
	} else {
		QuickSortReverse(live)
	}
}

// SortedPattern is the expected result of SortPayload.
type SortedPattern struct {
	forward []beamtest.Word
	reverse []beamtest.Word
}

// NewSortedPattern computes the ascending and descending orders of input.
func NewSortedPattern(input []beamtest.Word) SortedPattern {
	f := slices.Clone(input)
	slices.Sort(f)
	r := slices.Clone(f)
	slices.Reverse(r)
	return SortedPattern{forward: f, reverse: r}
}

func (p SortedPattern) ValueAt(index int, iteration uint64) beamtest.Word {
	if iteration%2 == 0 {
		return p.forward[index]
	}
	return p.reverse[index]
}
