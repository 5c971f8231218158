//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package dist

import (
	"context"
	"net"
	"time"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/node"
	"github.com/markkurossi/sop/p2p"
)

// RetryDelay specifies the delay between dealer connection attempts.
var RetryDelay = time.Second

// Fetch fetches the bundle of the node from the dealer at addr. The
// function keeps retrying the connection until the dealer accepts it
// or the context is done.
func Fetch(ctx context.Context, addr string, nodeID int, grp *group.Group) (
	*node.Bundle, error) {

	var dialer net.Dialer
	for {
		jww.DEBUG.Printf("%s: connecting to dealer %s...\n",
			node.New(nodeID), addr)
		nc, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn := p2p.NewConn(nc)
			b, err := Request(conn, grp, nodeID)
			conn.Close()
			if err != nil {
				return nil, err
			}
			jww.INFO.Printf("%s: received %d shares, %d gammas\n",
				node.New(nodeID), len(b.Shares), len(b.Gammas))
			return b, nil
		}
		jww.WARN.Printf("%s: connect to %s failed, retrying in %s\n",
			node.New(nodeID), addr, RetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
}
