//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package mask implements the generation of the random exponents
// (masks) that blind the protocol inputs. The randomness is injected
// through a Source so that production code draws from a
// cryptographically secure generator and tests can supply
// deterministic, reproducible streams.
package mask

import (
	"crypto/rand"
	"io"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"

	"github.com/markkurossi/sop/env"
)

// Errors.
var (
	ErrOrderTooSmall = errors.New("group order too small for masks")
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// Source provides entropy streams for mask generation. The idx
// argument identifies the mask being generated. Implementations must
// allow concurrent calls for distinct indices.
type Source interface {
	Reader(idx int) io.Reader
}

// Generate returns a mask sampled uniformly from [1...order-1] with
// entropy from r.
func Generate(r io.Reader, order *big.Int) (*big.Int, error) {
	if order == nil || order.Cmp(bigTwo) < 0 {
		return nil, errors.Wrapf(ErrOrderTooSmall, "order=%v", order)
	}
	max := new(big.Int).Sub(order, bigOne)
	n, err := rand.Int(r, max)
	if err != nil {
		return nil, errors.Wrap(err, "mask: read entropy")
	}
	return n.Add(n, bigOne), nil
}

// Zeroize clears the mask value.
func Zeroize(m *big.Int) {
	if m == nil {
		return
	}
	words := m.Bits()
	for i := range words {
		words[i] = 0
	}
	m.SetInt64(0)
}

// Secure implements a Source reading from the configuration's
// entropy source. Reads are serialized so that a reader that is not
// safe for concurrent use can be shared between masks.
type Secure struct {
	m sync.Mutex
	r io.Reader
}

// NewSecure creates a new secure source from the configuration.
func NewSecure(config *env.Config) *Secure {
	return &Secure{
		r: config.GetRandom(),
	}
}

// Reader implements Source.Reader.
func (s *Secure) Reader(idx int) io.Reader {
	return &lockedReader{
		m: &s.m,
		r: s.r,
	}
}

type lockedReader struct {
	m *sync.Mutex
	r io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.m.Lock()
	defer l.m.Unlock()
	return io.ReadFull(l.r, p)
}

// Seeded implements a deterministic Source. Each mask index has its
// own ChaCha20 keystream, keyed with the seed and using the index as
// the nonce counter. The streams of different indices are
// independent so masks can be generated concurrently in any order
// and the result depends only on the seed.
type Seeded struct {
	key [chacha20.KeySize]byte
}

// NewSeeded creates a deterministic source from the seed. Seeds of
// length other than chacha20.KeySize are hashed to a key.
func NewSeeded(seed []byte) *Seeded {
	s := new(Seeded)
	if len(seed) == chacha20.KeySize {
		copy(s.key[:], seed)
	} else {
		s.key = blake3.Sum256(seed)
	}
	return s
}

// Reader implements Source.Reader.
func (s *Seeded) Reader(idx int) io.Reader {
	var nonce [chacha20.NonceSize]byte
	v := uint64(idx)
	for i := 0; i < 8; i++ {
		nonce[chacha20.NonceSize-1-i] = byte(v >> (8 * i))
	}
	cipher, err := chacha20.NewUnauthenticatedCipher(s.key[:], nonce[:])
	if err != nil {
		// Key and nonce sizes are constant.
		panic(err)
	}
	return &keystream{
		cipher: cipher,
	}
}

type keystream struct {
	cipher *chacha20.Cipher
}

func (ks *keystream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	ks.cipher.XORKeyStream(p, p)
	return len(p), nil
}
