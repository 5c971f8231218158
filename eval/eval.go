//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package eval implements the non-interactive computation phase of
// the protocol. Each term is unmasked with its gamma,
//
//	y_t = g^γ_t · ∏_{i∈M_t} s_i mod p
//
// and the result is the sum of the term values modulo p. The
// evaluation of a term reads only the shares of the term's members
// and the term's own gamma.
package eval

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/markkurossi/sop/env"
	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
)

// Errors.
var (
	ErrEmptyTerm    = expr.ErrEmptyTerm
	ErrMissingShare = errors.New("missing share")
	ErrMissingGamma = errors.New("missing gamma")
)

// Source provides the shares and gammas for the evaluation.
type Source interface {
	Share(inputID string) (*big.Int, error)
	Gamma(termID string) (*big.Int, error)
}

// Maps implements Source over share and gamma maps.
type Maps struct {
	Shares map[string]*big.Int
	Gammas map[string]*big.Int
}

// Share implements Source.Share.
func (m Maps) Share(inputID string) (*big.Int, error) {
	v, ok := m.Shares[inputID]
	if !ok {
		return nil, errors.Errorf("share %s not found", inputID)
	}
	return v, nil
}

// Gamma implements Source.Gamma.
func (m Maps) Gamma(termID string) (*big.Int, error) {
	v, ok := m.Gammas[termID]
	if !ok {
		return nil, errors.Errorf("gamma %s not found", termID)
	}
	return v, nil
}

// Term computes the plaintext product of the term from the source.
func Term(grp *group.Group, src Source, t expr.Term) (*big.Int, error) {
	if len(t.Members) == 0 {
		return nil, errors.Wrapf(ErrEmptyTerm, "term %s", t.ID)
	}
	gamma, err := src.Gamma(t.ID)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingGamma, "term %s (%v)", t.ID, err)
	}
	partial := grp.ExpG(gamma)
	for _, member := range t.Members {
		share, err := src.Share(member)
		if err != nil {
			return nil, errors.Wrapf(ErrMissingShare, "term %s (%v)", t.ID, err)
		}
		partial = grp.Mul(partial, share)
	}
	return partial, nil
}

// Evaluate computes the sum-of-products of the terms from the
// source. The terms are evaluated concurrently. On failure the
// function returns the error of the first failing term in term order
// and no result.
func Evaluate(grp *group.Group, src Source, terms expr.Terms) (
	*big.Int, error) {
	return NewEvaluator(grp, nil).Evaluate(src, terms)
}

// EvaluateMaps computes the sum-of-products from share and gamma
// maps.
func EvaluateMaps(grp *group.Group, shares, gammas map[string]*big.Int,
	terms expr.Terms) (*big.Int, error) {
	return Evaluate(grp, Maps{Shares: shares, Gammas: gammas}, terms)
}

// Evaluator implements the computation phase.
type Evaluator struct {
	grp    *group.Group
	config *env.Config
}

// NewEvaluator creates a new evaluator for the group. The config is
// optional and it controls debug output.
func NewEvaluator(grp *group.Group, config *env.Config) *Evaluator {
	return &Evaluator{
		grp:    grp,
		config: config,
	}
}

// Evaluate computes the sum-of-products of the terms from the source.
func (e *Evaluator) Evaluate(src Source, terms expr.Terms) (*big.Int, error) {
	partials := make([]*big.Int, len(terms))
	errs := make([]error, len(terms))

	var wg sync.WaitGroup
	for idx, t := range terms {
		wg.Add(1)
		go func(idx int, t expr.Term) {
			defer wg.Done()
			partials[idx], errs[idx] = Term(e.grp, src, t)
		}(idx, t)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result := new(big.Int)
	for _, partial := range partials {
		result = e.grp.Add(result, partial)
	}
	e.config.Debugf("Evaluator: %d terms\n", len(terms))

	return result, nil
}
