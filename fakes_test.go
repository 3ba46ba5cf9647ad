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

// glitchMemory returns queued values on the next loads of a cell before
// falling back to the stored value, simulating read-path transients.
type glitchMemory struct {
	cells  []Word
	glitch map[int][]Word
	loads  int
}

func newGlitchMemory(cells ...Word) *glitchMemory {
	return &glitchMemory{cells: cells, glitch: map[int][]Word{}}
}

func (m *glitchMemory) Len() int { return len(m.cells) }

func (m *glitchMemory) Load(i int) Word {
	m.loads++
	if q := m.glitch[i]; len(q) > 0 {
		m.glitch[i] = q[1:]
		return q[0]
	}
	return m.cells[i]
}

func (m *glitchMemory) Store(i int, v Word) { m.cells[i] = v }

// flakyRef is a stored reference whose reads can be glitched, and which
// records repairs.
type flakyRef struct {
	mem      *glitchMemory
	table    []Word
	repaired []int
}

func newFlakyRef(table ...Word) *flakyRef {
	return &flakyRef{mem: newGlitchMemory(append([]Word(nil), table...)...), table: table}
}

func (r *flakyRef) ValueAt(i int, _ uint64) Word { return r.mem.Load(i) }

func (r *flakyRef) ValueAtRedundant(i int) (Word, Word) {
	a := r.mem.Load(i)
	b := r.mem.Load(i)
	return a, b
}

func (r *flakyRef) Repair(i int) {
	r.repaired = append(r.repaired, i)
	r.mem.cells[i] = r.table[i]
}

type byteBuffer struct {
	b []byte
}

func (b *byteBuffer) WriteByte(c byte) error {
	b.b = append(b.b, c)
	return nil
}

func (b *byteBuffer) String() string { return string(b.b) }
