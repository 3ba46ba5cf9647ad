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
	"log/slog"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Word is the value held by one cell of memory under test.
type Word uint32

const wordSize = int(unsafe.Sizeof(Word(0)))

// Memory is an addressable array of cells.
// Every Load is an independent read of the cell.
type Memory interface {
	Len() int
	Load(i int) Word
	Store(i int, v Word)
}

// Region is a block of cells backed by an anonymous memory mapping.
// If the mapping cannot be created, heap memory is used instead.
type Region struct {
	name  string
	mem   []byte // set only when mapped
	cells []uint32
}

// NewRegion allocates a region of n cells, all zero.
func NewRegion(name string, n int) (*Region, error) {
	if n <= 0 {
		return nil, fmt.Errorf("region %s: illegal size %d", name, n)
	}
	r := &Region{name: name}
	mem, err := unix.Mmap(-1, 0, n*wordSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err == nil {
		r.mem = mem
		r.cells = unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), n)
	} else {
		slog.Warn("region mapping unavailable, using heap", "region", name, "err", err)
		r.cells = make([]uint32, n)
	}
	return r, nil
}

// Name returns the name given at allocation.
func (r *Region) Name() string {
	return r.name
}

// Mapped reports whether the region lives in its own mapping.
func (r *Region) Mapped() bool {
	return r.mem != nil
}

// Len returns the number of cells.
func (r *Region) Len() int {
	return len(r.cells)
}

// Load reads cell i. Loads are atomic so that two consecutive
// loads of the same cell are never merged.
func (r *Region) Load(i int) Word {
	return Word(atomic.LoadUint32(&r.cells[i]))
}

// Store writes cell i.
func (r *Region) Store(i int, v Word) {
	atomic.StoreUint32(&r.cells[i], uint32(v))
}

// Fill writes every cell from the pattern for the given iteration.
func (r *Region) Fill(p PatternSource, iteration uint64) {
	for i := range r.cells {
		r.Store(i, p.ValueAt(i, iteration))
	}
}

// Close releases the mapping. The region must not be used afterwards.
func (r *Region) Close() error {
	r.cells = nil
	if r.mem != nil {
		err := unix.Munmap(r.mem)
		r.mem = nil
		if err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
	}
	return nil
}
