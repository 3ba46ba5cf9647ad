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

package payload

import (
	"fmt"

	"github.com/rich1111/beamtest"
)

// inputBits is the width of generated matrix entries.
const inputBits = 15

// Multiply stores a×b into out. All three are side×side, row major.
// Sums wrap at the word width.
func Multiply(a, b, out beamtest.Memory, side int) {
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			var sum beamtest.Word
			for k := 0; k < side; k++ {
				sum += a.Load(i*side+k) * b.Load(k*side+j)
			}
			out.Store(i*side+j, sum)
		}
	}
}

// inputs draws both input matrices from one stream, alternating entries.
func inputs(side int, seed uint64) ([]beamtest.Word, []beamtest.Word) {
	rng := beamtest.NewRand(seed, inputBits)
	a := make([]beamtest.Word, side*side)
	b := make([]beamtest.Word, side*side)
	for i := range a {
		a[i] = rng.Next()
		b[i] = rng.Next()
	}
	return a, b
}

func epoch(iteration, changeRate uint64) uint64 {
	if changeRate == 0 {
		return 0
	}
	return iteration / changeRate
}

// MatrixPayload multiplies two input matrices held in their own regions.
// Inputs are regenerated from the seed after errors and, when a change rate
// is set, every changeRate iterations with a new seed.
type MatrixPayload struct {
	side       int
	seed       uint64
	changeRate uint64
	epoch      uint64
	a, b       *beamtest.Region
}

// NewMatrixPayload allocates the input regions.
func NewMatrixPayload(side int, seed, changeRate uint64) (*MatrixPayload, error) {
	if side <= 0 {
		return nil, fmt.Errorf("matrix: illegal side %d", side)
	}
	a, err := beamtest.NewRegion("matrix_a", side*side)
	if err != nil {
		return nil, err
	}
	b, err := beamtest.NewRegion("matrix_b", side*side)
	if err != nil {
		a.Close()
		return nil, err
	}
	return &MatrixPayload{side: side, seed: seed, changeRate: changeRate, a: a, b: b}, nil
}

// Inputs returns the two input regions.
func (m *MatrixPayload) Inputs() (*beamtest.Region, *beamtest.Region) {
	return m.a, m.b
}

func (m *MatrixPayload) load(e uint64) {
	m.epoch = e
	a, b := inputs(m.side, m.seed+e)
	for i := range a {
		m.a.Store(i, a[i])
		m.b.Store(i, b[i])
	}
}

func (m *MatrixPayload) Init(live beamtest.Memory) {
	m.load(0)
	Multiply(m.a, m.b, live, m.side)
}

func (m *MatrixPayload) Produce(live beamtest.Memory, iteration uint64) {
	if e := epoch(iteration, m.changeRate); e != m.epoch {
		m.load(e)
	}
	Multiply(m.a, m.b, live, m.side)
}

// Restore regenerates the inputs, since an error in the product may have
// come from an upset input.
func (m *MatrixPayload) Restore(iteration uint64) {
	m.load(epoch(iteration, m.changeRate))
}

// Close releases the input regions.
func (m *MatrixPayload) Close() error {
	errA := m.a.Close()
	errB := m.b.Close()
	if errA != nil {
		return errA
	}
	return errB
}

// MatrixPattern is the product MatrixPayload should compute, rederived from
// the seed on every access.
type MatrixPattern struct {
	Side       int
	Seed       uint64
	ChangeRate uint64
}

func (p MatrixPattern) ValueAt(index int, iteration uint64) beamtest.Word {
	a, b := inputs(p.Side, p.Seed+epoch(iteration, p.ChangeRate))
	row, col := index/p.Side, index%p.Side
	var sum beamtest.Word
	for k := 0; k < p.Side; k++ {
		sum += a[row*p.Side+k] * b[k*p.Side+col]
	}
	return sum
}

// MatrixTable returns the first epoch's product as a table for a stored
// reference.
func MatrixTable(side int, seed uint64) []beamtest.Word {
	p := MatrixPattern{Side: side, Seed: seed}
	t := make([]beamtest.Word, side*side)
	for i := range t {
		t[i] = p.ValueAt(i, 0)
	}
	return t
}
