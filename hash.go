// hash.go: tabulation hash producing the (H1, H2) pair
//
// Go has a register-based calling convention for small result tuples, so
// hash returns (uint32, uint32) by value - zero-cost, and there is no need
// for a package-level mutable pair of registers to carry the result.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// maxKeyBytes bounds the per-byte tabulation tables; Config.KeySize is
// bounded to [4,64].
const maxKeyBytes = 64

// tabulationHasher holds two interleaved 256-entry 32-bit tables per key
// byte position, ~128 KiB total, allocated once per process and shared by
// every Table in the process.
type tabulationHasher struct {
	t1 [maxKeyBytes][256]uint32
	t2 [maxKeyBytes][256]uint32
}

var (
	sharedHasher     *tabulationHasher
	sharedHasherOnce sync.Once
)

// defaultHasher returns the process-wide tabulation hasher, seeding it from
// crypto/rand on first use. Randomized seeding defends against adversarial
// keys; determinism across runs is not required and two Tables
// in the same process share the table.
func defaultHasher() *tabulationHasher {
	sharedHasherOnce.Do(func() {
		sharedHasher = newTabulationHasher()
	})
	return sharedHasher
}

func newTabulationHasher() *tabulationHasher {
	h := &tabulationHasher{}
	var buf [4]byte
	for i := 0; i < maxKeyBytes; i++ {
		for j := 0; j < 256; j++ {
			if _, err := rand.Read(buf[:]); err != nil {
				// crypto/rand failing means the process entropy source is
				// broken; there is no safe fallback for keys an adversary
				// might exploit, so this is fatal rather than silently
				// falling back to a weak seed.
				panic("octomap: crypto/rand unavailable for hash table seeding: " + err.Error())
			}
			h.t1[i][j] = binary.LittleEndian.Uint32(buf[:])
			if _, err := rand.Read(buf[:]); err != nil {
				panic("octomap: crypto/rand unavailable for hash table seeding: " + err.Error())
			}
			h.t2[i][j] = binary.LittleEndian.Uint32(buf[:])
		}
	}
	return h
}

// hash computes (H1, H2) for a keySize-byte key. Because key length is a
// multiple of 4 and bounded by 64, this processes the key
// per-byte up to 64 times and XORs across byte positions.
func (h *tabulationHasher) hash(key []byte) (h1, h2 uint32) {
	for i, b := range key {
		h1 ^= h.t1[i][b]
		h2 ^= h.t2[i][b]
	}
	return h1, h2
}
