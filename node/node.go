//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package node implements the protocol nodes. A node is a passive
// holder of masked shares and term gammas; it never needs another
// node's secret state and it does not take part in any message
// exchange during the computation phase.
package node

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/markkurossi/text/superscript"
	"github.com/pkg/errors"
)

// ErrNotFound is returned for entries not assigned to a node.
var ErrNotFound = errors.New("not found")

// Node holds a subset of shares and gammas.
type Node struct {
	id int

	m      sync.RWMutex
	shares map[string]*big.Int
	gammas map[string]*big.Int
}

// New creates a new node without any entries.
func New(id int) *Node {
	return &Node{
		id:     id,
		shares: make(map[string]*big.Int),
		gammas: make(map[string]*big.Int),
	}
}

// ID returns the node ID.
func (n *Node) ID() int {
	return n.id
}

func (n *Node) String() string {
	return fmt.Sprintf("N%s", superscript.Itoa(n.id))
}

// Assign copies the bundle entries into the node.
func (n *Node) Assign(b *Bundle) {
	if b == nil {
		return
	}
	n.m.Lock()
	defer n.m.Unlock()

	for id, v := range b.Shares {
		n.shares[id] = new(big.Int).Set(v)
	}
	for id, v := range b.Gammas {
		n.gammas[id] = new(big.Int).Set(v)
	}
}

// Share returns the share of the input.
func (n *Node) Share(inputID string) (*big.Int, error) {
	n.m.RLock()
	defer n.m.RUnlock()

	v, ok := n.shares[inputID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%v: share %s", n, inputID)
	}
	return new(big.Int).Set(v), nil
}

// Gamma returns the gamma of the term.
func (n *Node) Gamma(termID string) (*big.Int, error) {
	n.m.RLock()
	defer n.m.RUnlock()

	v, ok := n.gammas[termID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%v: gamma %s", n, termID)
	}
	return new(big.Int).Set(v), nil
}

// Bundle returns a copy of the node's entries.
func (n *Node) Bundle() *Bundle {
	n.m.RLock()
	defer n.m.RUnlock()

	return (&Bundle{
		Shares: n.shares,
		Gammas: n.gammas,
	}).Clone()
}

// Cluster implements share and gamma lookups over a set of nodes.
type Cluster []*Node

// Share returns the share of the input from the first node holding
// it.
func (c Cluster) Share(inputID string) (*big.Int, error) {
	for _, n := range c {
		if v, err := n.Share(inputID); err == nil {
			return v, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "share %s", inputID)
}

// Gamma returns the gamma of the term from the first node holding it.
func (c Cluster) Gamma(termID string) (*big.Int, error) {
	for _, n := range c {
		if v, err := n.Gamma(termID); err == nil {
			return v, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "gamma %s", termID)
}
