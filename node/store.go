//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package node

import (
	"sync"

	"github.com/pkg/errors"
)

// Store persists the bundles of nodes.
type Store interface {
	// Save replaces the bundle of the node.
	Save(nodeID int, b *Bundle) error
	// Load returns the bundle of the node or ErrNotFound.
	Load(nodeID int) (*Bundle, error)
}

// MapStore implements an in-memory Store.
type MapStore struct {
	m       sync.Mutex
	bundles map[int]*Bundle
}

// NewMapStore creates a new in-memory store.
func NewMapStore() *MapStore {
	return &MapStore{
		bundles: make(map[int]*Bundle),
	}
}

// Save implements Store.Save.
func (s *MapStore) Save(nodeID int, b *Bundle) error {
	s.m.Lock()
	defer s.m.Unlock()

	s.bundles[nodeID] = b.Clone()
	return nil
}

// Load implements Store.Load.
func (s *MapStore) Load(nodeID int) (*Bundle, error) {
	s.m.Lock()
	defer s.m.Unlock()

	b, ok := s.bundles[nodeID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "bundle of node %d", nodeID)
	}
	return b.Clone(), nil
}

// Restore loads the node's bundle from the store into a new node.
func Restore(store Store, nodeID int) (*Node, error) {
	b, err := store.Load(nodeID)
	if err != nil {
		return nil, err
	}
	n := New(nodeID)
	n.Assign(b)
	return n, nil
}
