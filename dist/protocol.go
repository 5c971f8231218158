//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dist implements the hand-off of shares and gammas from the
// dealer to the nodes. A node requests its bundle with its node ID
// and the dealer answers with the bundle entries encoded as
// fixed-width group elements, followed by a BLAKE3 digest of the
// bundle that the node verifies before accepting the bundle.
package dist

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/node"
	"github.com/markkurossi/sop/p2p"
)

// Operand defines protocol operands.
type Operand byte

// Network protocol messages.
const (
	OpFetch Operand = iota
	OpBundle
	OpError
)

var operands = map[Operand]string{
	OpFetch:  "Fetch",
	OpBundle: "Bundle",
	OpError:  "Error",
}

func (op Operand) String() string {
	name, ok := operands[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Operand %d}", op)
}

// Errors.
var (
	ErrProtocol = errors.New("protocol error")
	ErrDigest   = errors.New("bundle digest mismatch")
	ErrRemote   = errors.New("remote error")
)

// Maximum number of entries in a bundle.
const maxEntries = 1 << 20

// SendBundle sends the bundle to the connection. The connection is
// flushed.
func SendBundle(conn *p2p.Conn, grp *group.Group, b *node.Bundle) error {
	size := grp.ElementSize()

	if err := conn.SendByte(byte(OpBundle)); err != nil {
		return err
	}
	if err := conn.SendUint32(size); err != nil {
		return err
	}
	sections := []struct {
		ids []string
		m   map[string]*big.Int
	}{
		{b.ShareIDs(), b.Shares},
		{b.GammaIDs(), b.Gammas},
	}
	for _, section := range sections {
		if err := conn.SendUint32(len(section.ids)); err != nil {
			return err
		}
		for _, id := range section.ids {
			if err := conn.SendString(id); err != nil {
				return err
			}
			if err := conn.SendElement(section.m[id], size); err != nil {
				return errors.Wrapf(err, "entry %s", id)
			}
		}
	}
	digest := b.Digest()
	if err := conn.SendData(digest[:]); err != nil {
		return err
	}
	return conn.Flush()
}

// SendError sends an error message to the connection. The connection
// is flushed.
func SendError(conn *p2p.Conn, msg string) error {
	if err := conn.SendByte(byte(OpError)); err != nil {
		return err
	}
	if err := conn.SendString(msg); err != nil {
		return err
	}
	return conn.Flush()
}

// ReceiveBundle receives a bundle message from the connection. The
// function returns ErrRemote if the peer sent an error message.
func ReceiveBundle(conn *p2p.Conn, grp *group.Group) (*node.Bundle, error) {
	op, err := conn.ReceiveByte()
	if err != nil {
		return nil, err
	}
	switch Operand(op) {
	case OpBundle:

	case OpError:
		msg, err := conn.ReceiveString()
		if err != nil {
			return nil, err
		}
		return nil, errors.Wrap(ErrRemote, msg)

	default:
		return nil, errors.Wrapf(ErrProtocol, "unexpected operand %v",
			Operand(op))
	}

	size, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if size != grp.ElementSize() {
		return nil, errors.Wrapf(ErrProtocol, "element size %d, expected %d",
			size, grp.ElementSize())
	}

	b := node.NewBundle()
	limits := []*big.Int{grp.P(), grp.Order()}

	for idx, m := range []map[string]*big.Int{b.Shares, b.Gammas} {
		count, err := conn.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		if count > maxEntries {
			return nil, errors.Wrapf(ErrProtocol, "%d entries", count)
		}
		for i := 0; i < count; i++ {
			id, err := conn.ReceiveString()
			if err != nil {
				return nil, err
			}
			v, err := conn.ReceiveElement(size)
			if err != nil {
				return nil, err
			}
			if v.Cmp(limits[idx]) >= 0 {
				return nil, errors.Wrapf(ErrProtocol, "entry %s out of range",
					id)
			}
			if _, ok := m[id]; ok {
				return nil, errors.Wrapf(ErrProtocol, "duplicate entry %s", id)
			}
			m[id] = v
		}
	}

	digest, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	computed := b.Digest()
	if len(digest) != len(computed) || string(digest) != string(computed[:]) {
		return nil, ErrDigest
	}
	return b, nil
}

// Request requests the bundle of the node from the dealer.
func Request(conn *p2p.Conn, grp *group.Group, nodeID int) (
	*node.Bundle, error) {

	if err := conn.SendByte(byte(OpFetch)); err != nil {
		return nil, err
	}
	if err := conn.SendUint32(nodeID); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	return ReceiveBundle(conn, grp)
}
