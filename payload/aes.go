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
	"crypto/aes"
	"encoding/binary"
	"encoding/hex"

	"github.com/rich1111/beamtest"
)

// Vector is one AES-128 known answer test.
type Vector struct {
	Key        []byte
	Plaintext  []byte
	Ciphertext []byte
}

// Vectors are the FIPS-197 AES-128 examples (appendix B and C.1).
var Vectors = []Vector{
	{
		Key:        mustHex("2b7e151628aed2a6abf7158809cf4f3c"),
		Plaintext:  mustHex("3243f6a8885a308d313198a2e0370734"),
		Ciphertext: mustHex("3925841d02dc09fbdc118597196a0b32"),
	},
	{
		Key:        mustHex("000102030405060708090a0b0c0d0e0f"),
		Plaintext:  mustHex("00112233445566778899aabbccddeeff"),
		Ciphertext: mustHex("69c4e0d86a7b0430d8cdb78070b4c55a"),
	},
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

const wordsPerBlock = aes.BlockSize / 4

// AESPayload encrypts each vector's plaintext into live memory, four words
// per block.
type AESPayload struct {
	vectors []Vector
}

// NewAESPayload encrypts the given vectors.
func NewAESPayload(v []Vector) *AESPayload {
	return &AESPayload{vectors: v}
}

// Cells returns the number of live cells the payload fills.
func (p *AESPayload) Cells() int {
	return len(p.vectors) * wordsPerBlock
}

func (p *AESPayload) Init(live beamtest.Memory) {
	for i := 0; i < p.Cells(); i++ {
		live.Store(i, 0)
	}
}

func (p *AESPayload) Produce(live beamtest.Memory, _ uint64) {
	var out [aes.BlockSize]byte
	for n, v := range p.vectors {
		c, err := aes.NewCipher(v.Key)
		if err != nil {
			// Only a bad key length gets here; leave the block unwritten
			// so the checker reports it.
			continue
		}
		c.Encrypt(out[:], v.Plaintext)
		storeBlock(live, n, out[:])
	}
}

func storeBlock(m beamtest.Memory, n int, b []byte) {
	for w := 0; w < wordsPerBlock; w++ {
		m.Store(n*wordsPerBlock+w, beamtest.Word(binary.BigEndian.Uint32(b[w*4:])))
	}
}

// AESTable returns the expected ciphertexts as words.
func AESTable(v []Vector) []beamtest.Word {
	t := make([]beamtest.Word, len(v)*wordsPerBlock)
	for n, vec := range v {
		for w := 0; w < wordsPerBlock; w++ {
			t[n*wordsPerBlock+w] = beamtest.Word(binary.BigEndian.Uint32(vec.Ciphertext[w*4:]))
		}
	}
	return t
}
