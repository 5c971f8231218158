//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package dist

import (
	"net"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/node"
	"github.com/markkurossi/sop/p2p"
)

// Server serves node bundles to the nodes over TCP.
type Server struct {
	grp      *group.Group
	bundles  []*node.Bundle
	listener net.Listener
	wg       sync.WaitGroup
	m        sync.Mutex
	stats    p2p.IOStats
	served   int
}

// NewServer creates a new server listening at the address. The
// bundles are served by their index in the bundles slice.
func NewServer(addr string, grp *group.Group, bundles []*node.Bundle) (
	*Server, error) {

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		grp:      grp,
		bundles:  bundles,
		listener: listener,
		stats:    p2p.NewIOStats(),
	}
	s.wg.Add(1)
	go s.acceptLoop()

	jww.INFO.Printf("Dealer: listening at %s for %d nodes\n",
		listener.Addr(), len(bundles))
	return s, nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the server and waits for the pending requests.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

// Stats returns the I/O statistics of the served connections.
func (s *Server) Stats() p2p.IOStats {
	s.m.Lock()
	defer s.m.Unlock()
	return s.stats.Add(p2p.NewIOStats())
}

// Served returns the number of bundles served.
func (s *Server) Served() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.served
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				jww.ERROR.Printf("Dealer: accept failed: %s\n", err)
			}
			return
		}
		s.wg.Add(1)
		go func(nc net.Conn) {
			defer s.wg.Done()
			conn := p2p.NewConn(nc)
			if err := s.Serve(conn); err != nil {
				jww.WARN.Printf("Dealer: %s: %s\n", nc.RemoteAddr(), err)
			}
			s.m.Lock()
			s.stats = s.stats.Add(conn.Stats)
			s.m.Unlock()
			conn.Close()
		}(nc)
	}
}

// Serve serves one bundle request from the connection.
func (s *Server) Serve(conn *p2p.Conn) error {
	op, err := conn.ReceiveByte()
	if err != nil {
		return err
	}
	if Operand(op) != OpFetch {
		SendError(conn, "unexpected request")
		return errors.Wrapf(ErrProtocol, "unexpected operand %v", Operand(op))
	}
	id, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	if id < 0 || id >= len(s.bundles) {
		return SendError(conn, "unknown node "+node.New(id).String())
	}
	if err := SendBundle(conn, s.grp, s.bundles[id]); err != nil {
		return err
	}
	jww.INFO.Printf("Dealer: served %d shares, %d gammas to %s\n",
		len(s.bundles[id].Shares), len(s.bundles[id].Gammas), node.New(id))

	s.m.Lock()
	s.served++
	s.m.Unlock()

	return nil
}
