//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package node

import (
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/zeebo/blake3"
)

// Bundle holds masked input shares and term gammas. It is the unit
// of data handed from the dealer to a node.
type Bundle struct {
	// Shares map input IDs to masked shares modulo p.
	Shares map[string]*big.Int
	// Gammas map term IDs to compensating exponents modulo p-1.
	Gammas map[string]*big.Int
}

// NewBundle creates an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		Shares: make(map[string]*big.Int),
		Gammas: make(map[string]*big.Int),
	}
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	result := NewBundle()
	result.Merge(b)
	return result
}

// Merge copies all entries of o into the bundle. Existing entries
// with the same IDs are replaced.
func (b *Bundle) Merge(o *Bundle) {
	if o == nil {
		return
	}
	for id, v := range o.Shares {
		b.Shares[id] = new(big.Int).Set(v)
	}
	for id, v := range o.Gammas {
		b.Gammas[id] = new(big.Int).Set(v)
	}
}

// ShareIDs returns the input IDs of the shares in sorted order.
func (b *Bundle) ShareIDs() []string {
	return sortedKeys(b.Shares)
}

// GammaIDs returns the term IDs of the gammas in sorted order.
func (b *Bundle) GammaIDs() []string {
	return sortedKeys(b.Gammas)
}

// Empty tests if the bundle has no entries.
func (b *Bundle) Empty() bool {
	return len(b.Shares) == 0 && len(b.Gammas) == 0
}

// Digest returns a BLAKE3 digest over the bundle entries. The digest
// does not depend on the map iteration order.
func (b *Bundle) Digest() [32]byte {
	hasher := blake3.New()

	write := func(tag byte, m map[string]*big.Int) {
		var hdr [5]byte
		for _, id := range sortedKeys(m) {
			hdr[0] = tag
			binary.BigEndian.PutUint32(hdr[1:], uint32(len(id)))
			hasher.Write(hdr[:])
			hasher.Write([]byte(id))

			data := m[id].Bytes()
			binary.BigEndian.PutUint32(hdr[1:], uint32(len(data)))
			hasher.Write(hdr[:])
			hasher.Write(data)
		}
	}
	write('s', b.Shares)
	write('g', b.Gammas)

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}

func sortedKeys(m map[string]*big.Int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
