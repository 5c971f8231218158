//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package group implements the arithmetic context of the protocol: a
// prime modulus p, a base g of the multiplicative group of integers
// modulo p, and the implied group order p-1. All modular arithmetic
// of the dealer and the evaluator is expressed through a Group value.
package group

import (
	"fmt"
	"math/big"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
)

// Number of Miller-Rabin rounds for the primality check of p.
const primalityRounds = 20

// Errors.
var (
	ErrInvalidParameters = errors.New("invalid group parameters")
	ErrNotInvertible     = errors.New("element not invertible")
	ErrUnknownOrder      = errors.New("group order too large to factor")
)

var (
	bigOne = big.NewInt(1)
)

// Group defines an immutable multiplicative group modulo a prime.
type Group struct {
	p     *big.Int
	g     *big.Int
	order *big.Int
	gInv  *big.Int
}

// New creates a new group from the prime modulus p and base g. The
// function returns ErrInvalidParameters if p is not a prime, if g is
// not in the range ]1...p[, or if g is not coprime to p.
func New(p, g *big.Int) (*Group, error) {
	if p == nil || g == nil {
		return nil, errors.Wrap(ErrInvalidParameters, "nil parameter")
	}
	if p.Sign() <= 0 || !p.ProbablyPrime(primalityRounds) {
		return nil, errors.Wrapf(ErrInvalidParameters, "p=%v is not prime", p)
	}
	if g.Cmp(bigOne) <= 0 || g.Cmp(p) >= 0 {
		return nil, errors.Wrapf(ErrInvalidParameters,
			"g=%v not in ]1...%v[", g, p)
	}
	if new(big.Int).GCD(nil, nil, g, p).Cmp(bigOne) != 0 {
		return nil, errors.Wrapf(ErrInvalidParameters,
			"gcd(g=%v, p=%v) != 1", g, p)
	}
	gInv := new(big.Int).ModInverse(g, p)
	if gInv == nil {
		return nil, errors.Wrapf(ErrInvalidParameters,
			"g=%v not invertible modulo %v", g, p)
	}

	return &Group{
		p:     new(big.Int).Set(p),
		g:     new(big.Int).Set(g),
		order: new(big.Int).Sub(p, bigOne),
		gInv:  gInv,
	}, nil
}

// NewInt64 creates a new group from int64 parameters.
func NewInt64(p, g int64) (*Group, error) {
	return New(big.NewInt(p), big.NewInt(g))
}

// Toy returns the small demonstration group p=101, g=3.
func Toy() *Group {
	grp, err := NewInt64(101, 3)
	if err != nil {
		panic(err)
	}
	return grp
}

// Simulation returns the simulation group p=982451653, g=2.
func Simulation() *Group {
	grp, err := NewInt64(982451653, 2)
	if err != nil {
		panic(err)
	}
	return grp
}

func (grp *Group) String() string {
	return fmt.Sprintf("Z*(%v), g=%v", grp.p, grp.g)
}

// P returns the group modulus.
func (grp *Group) P() *big.Int {
	return new(big.Int).Set(grp.p)
}

// G returns the group base.
func (grp *Group) G() *big.Int {
	return new(big.Int).Set(grp.g)
}

// Order returns the group order p-1.
func (grp *Group) Order() *big.Int {
	return new(big.Int).Set(grp.order)
}

// ElementSize returns the fixed encoding size of group elements and
// exponents in bytes.
func (grp *Group) ElementSize() int {
	return (grp.p.BitLen() + 7) / 8
}

// Contains tests if x is a residue in [0...p[.
func (grp *Group) Contains(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(grp.p) < 0
}

// Reduce returns x mod p.
func (grp *Group) Reduce(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, grp.p)
}

// ReduceOrder returns e mod p-1.
func (grp *Group) ReduceOrder(e *big.Int) *big.Int {
	return new(big.Int).Mod(e, grp.order)
}

// Mul returns x*y mod p.
func (grp *Group) Mul(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Mod(r, grp.p)
}

// Add returns x+y mod p.
func (grp *Group) Add(x, y *big.Int) *big.Int {
	r := new(big.Int).Add(x, y)
	return r.Mod(r, grp.p)
}

// Exp returns x^e mod p. The exponent is reduced modulo the group
// order so negative exponents are interpreted as powers of the
// inverse of x. The result is undefined if x is not a unit.
func (grp *Group) Exp(x, e *big.Int) *big.Int {
	return new(big.Int).Exp(x, grp.ReduceOrder(e), grp.p)
}

// ExpG returns g^e mod p.
func (grp *Group) ExpG(e *big.Int) *big.Int {
	return grp.Exp(grp.g, e)
}

// Inverse returns the multiplicative inverse of x modulo p.
func (grp *Group) Inverse(x *big.Int) (*big.Int, error) {
	r := new(big.Int).ModInverse(grp.Reduce(x), grp.p)
	if r == nil {
		return nil, errors.Wrapf(ErrNotInvertible, "x=%v", x)
	}
	return r, nil
}

// InverseG returns g^-1 mod p.
func (grp *Group) InverseG() *big.Int {
	return new(big.Int).Set(grp.gInv)
}

// IsGenerator tests if g generates the full multiplicative group,
// that is, g is a primitive root modulo p. The protocol is correct
// for any unit g but masks hide the inputs best when g has the full
// order p-1. The check factors p-1 and it is implemented for moduli
// up to 32 bits. For larger moduli the function returns
// ErrUnknownOrder.
func (grp *Group) IsGenerator() (bool, error) {
	if grp.p.BitLen() > 32 {
		return false, errors.Wrapf(ErrUnknownOrder, "p has %d bits",
			grp.p.BitLen())
	}
	p := uint32(grp.p.Uint64())
	order := p - 1
	g := uint32(grp.g.Uint64())

	for _, term := range mathutil.FactorInt(order) {
		if mathutil.ModPowUint32(g, order/term.Prime, p) == 1 {
			return false, nil
		}
	}
	return true, nil
}
