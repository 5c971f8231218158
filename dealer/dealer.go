//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dealer implements the preprocessing phase of the protocol.
//
// For each private input x_i the dealer draws a random mask λ_i from
// [1...p-2] and computes the masked share
//
//	s_i = x_i · g^-λ_i mod p
//
// For each product term t with members M_t it computes the
// compensating exponent
//
//	γ_t = Σ_{i∈M_t} λ_i mod p-1
//
// The masks are cleared once the shares and gammas are computed and
// they never leave the dealer. Since g^γ_t · ∏ s_i = ∏ x_i, any party
// holding the shares and gammas of a term reconstructs the term's
// product without interaction.
package dealer

import (
	"math/big"
	"sync"

	"github.com/markkurossi/text/symbols"
	"github.com/pkg/errors"

	"github.com/markkurossi/sop/env"
	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/mask"
	"github.com/markkurossi/sop/node"
)

// Errors.
var (
	ErrUnknownInputReference = expr.ErrUnknownInput
	ErrDuplicateTerm         = expr.ErrDuplicateTerm
	ErrValueRange            = expr.ErrValueRange
	ErrNoNodes               = errors.New("no nodes")
)

// Dealer implements the preprocessing phase.
type Dealer struct {
	grp    *group.Group
	src    mask.Source
	config *env.Config
}

// New creates a new dealer for the group. The masks are drawn from
// the source. The config is optional and it controls debug output.
func New(grp *group.Group, src mask.Source, config *env.Config) *Dealer {
	return &Dealer{
		grp:    grp,
		src:    src,
		config: config,
	}
}

// Preprocess creates the shares and gammas for the inputs and terms
// with the group grp and the mask source src.
func Preprocess(inputs expr.Inputs, terms expr.Terms, grp *group.Group,
	src mask.Source) (*node.Bundle, error) {
	return New(grp, src, nil).Preprocess(inputs, terms)
}

// Preprocess creates the shares of the inputs and the gammas of the
// terms. The function validates its arguments before drawing any
// masks and it returns no partial results on failure. Terms without
// members get the gamma 0; they are rejected by the evaluator.
func (d *Dealer) Preprocess(inputs expr.Inputs, terms expr.Terms) (
	*node.Bundle, error) {

	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if err := terms.Resolve(inputs); err != nil {
		return nil, err
	}
	if err := inputs.Check(d.grp); err != nil {
		return nil, err
	}

	ids := inputs.IDs()
	index := make(map[string]int)
	for k, id := range ids {
		index[id] = k
	}

	masks := make([]*big.Int, len(ids))
	defer func() {
		for _, m := range masks {
			mask.Zeroize(m)
		}
	}()

	p := d.grp.P()
	order := d.grp.Order()
	gInv := d.grp.InverseG()

	// Masks and shares are independent across inputs.
	shares := make([]*big.Int, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for k, id := range ids {
		wg.Add(1)
		go func(k int, value *big.Int) {
			defer wg.Done()
			m, err := mask.Generate(d.src.Reader(k), order)
			if err != nil {
				errs[k] = err
				return
			}
			masks[k] = m
			// m is in [1, order-1].
			t := new(big.Int).Exp(gInv, m, p)
			shares[k] = d.grp.Mul(value, t)
			mask.Zeroize(t)
		}(k, inputs[id])
	}
	wg.Wait()

	for k, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", ids[k])
		}
	}
	d.config.Debugf("Dealer: %c for %d inputs\n", symbols.Lambda, len(ids))

	// All masks exist; gammas are independent across terms.
	gammas := make([]*big.Int, len(terms))
	for idx, t := range terms {
		wg.Add(1)
		go func(idx int, t expr.Term) {
			defer wg.Done()
			sum := new(big.Int)
			for _, member := range t.Members {
				sum.Add(sum, masks[index[member]])
			}
			gammas[idx] = sum.Mod(sum, order)
		}(idx, t)
	}
	wg.Wait()
	d.config.Debugf("Dealer: γ for %d terms\n", len(terms))

	result := node.NewBundle()
	for k, id := range ids {
		result.Shares[id] = shares[k]
	}
	for idx, t := range terms {
		result.Gammas[t.ID] = gammas[idx]
	}
	return result, nil
}

// Assign distributes the bundle's entries to n nodes. The k'th input
// in sorted ID order goes to node k mod n and the gamma of each term
// goes to the node holding the term's first member. Each returned
// bundle is an independent copy.
func Assign(b *node.Bundle, terms expr.Terms, n int) ([]*node.Bundle, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrNoNodes, "n=%d", n)
	}
	result := make([]*node.Bundle, n)
	for i := 0; i < n; i++ {
		result[i] = node.NewBundle()
	}

	owner := make(map[string]int)
	for k, id := range b.ShareIDs() {
		owner[id] = k % n
		result[k%n].Shares[id] = new(big.Int).Set(b.Shares[id])
	}
	for idx, t := range terms {
		gamma, ok := b.Gammas[t.ID]
		if !ok {
			continue
		}
		holder := idx % n
		if len(t.Members) > 0 {
			o, ok := owner[t.Members[0]]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownInputReference,
					"term %s: input %s", t.ID, t.Members[0])
			}
			holder = o
		}
		result[holder].Gammas[t.ID] = new(big.Int).Set(gamma)
	}
	return result, nil
}
