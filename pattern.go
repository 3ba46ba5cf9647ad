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
	"math/rand/v2"
)

// PatternSource supplies the expected value of a cell.
type PatternSource interface {
	ValueAt(index int, iteration uint64) Word
}

// RedundantSource is a PatternSource held in storage that can itself be
// corrupted, so it can be read twice.
type RedundantSource interface {
	PatternSource
	ValueAtRedundant(index int) (Word, Word)
}

// Repairer is implemented by sources that can restore a stored value.
type Repairer interface {
	Repair(index int)
}

// Constant is the same value at every index.
type Constant Word

func (c Constant) ValueAt(int, uint64) Word { return Word(c) }

// IndexPattern holds each cell's own index.
type IndexPattern struct{}

func (IndexPattern) ValueAt(index int, _ uint64) Word { return Word(index) }

// RandomPattern is a pseudorandom value derived from the seed and index
// alone, so it is recomputed identically on every access.
type RandomPattern struct {
	Seed uint64
	Bits uint // value width, 0 means the full word
}

func (p RandomPattern) ValueAt(index int, _ uint64) Word {
	return mask(Word(mix(p.Seed+uint64(index)*0x9e3779b97f4a7c15)), p.Bits)
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func mask(v Word, bits uint) Word {
	if bits == 0 || bits >= 32 {
		return v
	}
	return v & (1<<bits - 1)
}

// Rand is a reseedable pseudorandom stream.
// Reseeding with the same seed reproduces the same sequence.
type Rand struct {
	src  *rand.PCG
	bits uint
}

// NewRand returns a stream seeded with seed producing bits-wide values.
func NewRand(seed uint64, bits uint) *Rand {
	return &Rand{src: rand.NewPCG(seed, ^seed), bits: bits}
}

// Reseed restarts the stream.
func (r *Rand) Reseed(seed uint64) {
	r.src.Seed(seed, ^seed)
}

// Next returns the next value of the stream.
func (r *Rand) Next() Word {
	return mask(Word(r.src.Uint64()>>32), r.bits)
}

// StaticTable returns n deterministic pseudorandom values.
func StaticTable(n int, seed uint64, bits uint) []Word {
	p := RandomPattern{Seed: seed, Bits: bits}
	t := make([]Word, n)
	for i := range t {
		t[i] = p.ValueAt(i, 0)
	}
	return t
}

// StoredPattern keeps a reference table in its own region, where it is as
// exposed to upsets as the memory under test.
type StoredPattern struct {
	table  []Word
	region *Region
}

// NewStoredPattern copies table into a newly allocated region.
func NewStoredPattern(name string, table []Word) (*StoredPattern, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("stored pattern %s: empty table", name)
	}
	r, err := NewRegion(name, len(table))
	if err != nil {
		return nil, err
	}
	s := &StoredPattern{table: append([]Word(nil), table...), region: r}
	for i, v := range s.table {
		r.Store(i, v)
	}
	return s, nil
}

// Len returns the table length.
func (s *StoredPattern) Len() int {
	return len(s.table)
}

// Region returns the storage holding the reference values.
func (s *StoredPattern) Region() *Region {
	return s.region
}

func (s *StoredPattern) ValueAt(index int, _ uint64) Word {
	return s.region.Load(index)
}

func (s *StoredPattern) ValueAtRedundant(index int) (Word, Word) {
	v1 := s.region.Load(index)
	v2 := s.region.Load(index)
	return v1, v2
}

// Repair rewrites the stored value at index from the original table.
func (s *StoredPattern) Repair(index int) {
	s.region.Store(index, s.table[index])
}

// Close releases the backing region.
func (s *StoredPattern) Close() error {
	return s.region.Close()
}
