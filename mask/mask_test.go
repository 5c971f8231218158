//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mask

import (
	"bytes"
	"crypto/rand"
	"io"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/markkurossi/sop/env"
)

func TestGenerateRange(t *testing.T) {
	for _, o := range []int64{2, 3, 100, 982451652} {
		order := big.NewInt(o)
		for i := 0; i < 200; i++ {
			m, err := Generate(rand.Reader, order)
			require.NoError(t, err)
			require.True(t, m.Sign() > 0, "mask %v <= 0", m)
			require.True(t, m.Cmp(order) < 0, "mask %v >= %v", m, order)
		}
	}

	// Order 2 has a single valid mask.
	m, err := Generate(rand.Reader, big.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, int64(1), m.Int64())
}

func TestGenerateCoverage(t *testing.T) {
	order := big.NewInt(8)
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		m, err := Generate(rand.Reader, order)
		require.NoError(t, err)
		seen[m.Int64()] = true
	}
	for v := int64(1); v < 8; v++ {
		require.True(t, seen[v], "mask %d never drawn", v)
	}
	require.False(t, seen[0])
}

func TestGenerateErrors(t *testing.T) {
	for _, o := range []int64{-1, 0, 1} {
		_, err := Generate(rand.Reader, big.NewInt(o))
		require.True(t, errors.Is(err, ErrOrderTooSmall), "order %d", o)
	}
	_, err := Generate(rand.Reader, nil)
	require.True(t, errors.Is(err, ErrOrderTooSmall))

	_, err = Generate(bytes.NewReader(nil), big.NewInt(100))
	require.Error(t, err)
	require.True(t, errors.Is(err, io.EOF), "%v", err)
}

func TestSeededDeterministic(t *testing.T) {
	order := big.NewInt(982451652)

	a := NewSeeded([]byte("seed"))
	b := NewSeeded([]byte("seed"))
	c := NewSeeded([]byte("other seed"))

	for idx := 0; idx < 16; idx++ {
		ma, err := Generate(a.Reader(idx), order)
		require.NoError(t, err)
		mb, err := Generate(b.Reader(idx), order)
		require.NoError(t, err)
		require.Equal(t, 0, ma.Cmp(mb), "index %d", idx)
	}

	var sa, sc [64]byte
	_, err := a.Reader(3).Read(sa[:])
	require.NoError(t, err)
	_, err = c.Reader(3).Read(sc[:])
	require.NoError(t, err)
	require.NotEqual(t, sa, sc)

	var s0, s1 [64]byte
	a.Reader(0).Read(s0[:])
	a.Reader(1).Read(s1[:])
	require.NotEqual(t, s0, s1)
}

func TestSeededConcurrent(t *testing.T) {
	order := big.NewInt(982451652)
	src := NewSeeded(make([]byte, 32))

	const count = 32
	expected := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		m, err := Generate(src.Reader(i), order)
		require.NoError(t, err)
		expected[i] = m
	}

	got := make([]*big.Int, count)
	var wg sync.WaitGroup
	for i := count - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = Generate(src.Reader(i), order)
		}(i)
	}
	wg.Wait()

	for i := 0; i < count; i++ {
		require.Equal(t, 0, expected[i].Cmp(got[i]), "index %d", i)
	}
}

func TestSecure(t *testing.T) {
	src := NewSecure(&env.Config{
		Rand: NewSeeded([]byte("secure")).Reader(0),
	})
	order := big.NewInt(100)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := Generate(src.Reader(i), order)
			if err != nil || m.Sign() <= 0 || m.Cmp(order) >= 0 {
				t.Errorf("invalid mask %v: %v", m, err)
			}
		}(i)
	}
	wg.Wait()

	_, err := Generate(NewSecure(nil).Reader(0), order)
	require.NoError(t, err)
}

func TestZeroize(t *testing.T) {
	m, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	words := m.Bits()

	Zeroize(m)
	require.Equal(t, 0, m.Sign())
	for _, w := range words {
		require.Zero(t, w)
	}
	Zeroize(nil)
}
