//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"io"
)

// Pipe creates an in-memory bidirectional connection. Anything sent
// to the first endpoint can be received from the second and vice
// versa. Closing an endpoint makes the peer's pending and future
// reads return io.EOF.
func Pipe() (*Conn, *Conn) {
	r0, w1 := io.Pipe()
	r1, w0 := io.Pipe()

	return NewConn(&pipe{r: r0, w: w0}), NewConn(&pipe{r: r1, w: w1})
}

type pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipe) Close() error {
	p.w.CloseWithError(io.EOF)
	return p.r.Close()
}

func (p *pipe) Read(data []byte) (int, error) {
	return p.r.Read(data)
}

func (p *pipe) Write(data []byte) (int, error) {
	return p.w.Write(data)
}
