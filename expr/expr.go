//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package expr defines sum-of-products expressions: the private
// inputs, the product terms over them, and the plaintext reference
// evaluation.
package expr

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/markkurossi/sop/group"
)

// Errors.
var (
	ErrEmptyTerm        = errors.New("empty term")
	ErrUnknownInput     = errors.New("unknown input reference")
	ErrDuplicateTerm    = errors.New("duplicate term")
	ErrInvalidTermID    = errors.New("invalid term ID")
	ErrValueRange       = errors.New("input value out of range")
	ErrDuplicateInputID = errors.New("duplicate input")
)

// Inputs maps input IDs to their private values.
type Inputs map[string]*big.Int

// IDs returns the input IDs in sorted order.
func (inputs Inputs) IDs() []string {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Check verifies that all input values are residues modulo p.
func (inputs Inputs) Check(grp *group.Group) error {
	for _, id := range inputs.IDs() {
		if !grp.Contains(inputs[id]) {
			return errors.Wrapf(ErrValueRange, "input %s=%v not in [0...%v[",
				id, inputs[id], grp.P())
		}
	}
	return nil
}

// Term defines a product of inputs.
type Term struct {
	ID      string
	Members []string
}

func (t Term) String() string {
	if len(t.Members) == 0 {
		return "1"
	}
	return strings.Join(t.Members, "*")
}

// Terms defines the sum of product terms.
type Terms []Term

func (terms Terms) String() string {
	parts := make([]string, len(terms))
	for idx, t := range terms {
		parts[idx] = t.String()
	}
	return strings.Join(parts, " + ")
}

// Validate checks that term IDs are non-empty and unique.
func (terms Terms) Validate() error {
	seen := make(map[string]bool)
	for idx, t := range terms {
		if len(t.ID) == 0 {
			return errors.Wrapf(ErrInvalidTermID, "term %d", idx)
		}
		if seen[t.ID] {
			return errors.Wrapf(ErrDuplicateTerm, "term %s", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// Resolve checks that all term members reference inputs.
func (terms Terms) Resolve(inputs Inputs) error {
	for _, t := range terms {
		for _, m := range t.Members {
			if _, ok := inputs[m]; !ok {
				return errors.Wrapf(ErrUnknownInput, "term %s: input %s",
					t.ID, m)
			}
		}
	}
	return nil
}

// Reference computes the sum-of-products over the plaintext inputs
// modulo p. It is the value the protocol reconstructs.
func Reference(grp *group.Group, inputs Inputs, terms Terms) (*big.Int, error) {
	sum := new(big.Int)
	for _, t := range terms {
		if len(t.Members) == 0 {
			return nil, errors.Wrapf(ErrEmptyTerm, "term %s", t.ID)
		}
		product := big.NewInt(1)
		for _, m := range t.Members {
			v, ok := inputs[m]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownInput, "term %s: input %s",
					t.ID, m)
			}
			product = grp.Mul(product, v)
		}
		sum = grp.Add(sum, product)
	}
	return sum, nil
}

// TermID returns the canonical ID of the idx'th term.
func TermID(idx int) string {
	return fmt.Sprintf("t%d", idx+1)
}
