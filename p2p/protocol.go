//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the buffered wire codec used to move shares
// and gammas between the dealer and the nodes.
package p2p

import (
	"encoding/binary"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024

	// MaxDataSize limits the size of received data items.
	MaxDataSize = 64 * 1024 * 1024
)

// ErrTooLarge is returned when a peer announces an oversized item.
var ErrTooLarge = errors.New("data item too large")

// Conn implements a protocol connection.
type Conn struct {
	conn      io.ReadWriter
	WriteBuf  []byte
	WritePos  int
	ReadBuf   []byte
	ReadStart int
	ReadEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerErr  error
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return result
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		ReadBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}
	go c.writer()
	c.WriteBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}
	for buf := range c.toWriter {
		if _, err := c.conn.Write(buf); err != nil {
			c.writerErr = err
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.WritePos == 0 {
		return nil
	}
	c.Stats.Sent.Add(uint64(c.WritePos))
	c.toWriter <- c.WriteBuf[0:c.WritePos]

	next := <-c.fromWriter
	if c.writerErr != nil {
		return c.writerErr
	}
	c.WriteBuf = next
	c.WritePos = 0
	c.Stats.Flushed.Add(1)

	return nil
}

// Fill fills the input buffer so that it holds at least n unread
// bytes. Any unused data in the buffer is moved to the beginning of
// the buffer.
func (c *Conn) Fill(n int) error {
	if c.ReadStart < c.ReadEnd {
		copy(c.ReadBuf[0:], c.ReadBuf[c.ReadStart:c.ReadEnd])
		c.ReadEnd -= c.ReadStart
	} else {
		c.ReadEnd = 0
	}
	c.ReadStart = 0

	if n > len(c.ReadBuf) {
		buf := make([]byte, n)
		copy(buf, c.ReadBuf[:c.ReadEnd])
		c.ReadBuf = buf
	}
	for c.ReadEnd < n {
		got, err := c.conn.Read(c.ReadBuf[c.ReadEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.ReadEnd += got
	}
	return nil
}

// Close flushes any pending data and closes the connection. The
// writer and the underlying connection are released even if the
// flush fails; the first error is returned.
func (c *Conn) Close() error {
	err := c.Flush()
	close(c.toWriter)
	for range c.fromWriter {
	}
	if err == nil {
		err = c.writerErr
	}
	if closer, ok := c.conn.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// reserve returns a write buffer slice of n bytes, flushing pending
// data if the buffer does not have space for it. The n must not
// exceed the write buffer size.
func (c *Conn) reserve(n int) ([]byte, error) {
	if c.WritePos+n > len(c.WriteBuf) {
		if err := c.Flush(); err != nil {
			return nil, err
		}
	}
	buf := c.WriteBuf[c.WritePos : c.WritePos+n]
	c.WritePos += n
	return buf, nil
}

// next returns the next n unread bytes.
func (c *Conn) next(n int) ([]byte, error) {
	if c.ReadStart+n > c.ReadEnd {
		if err := c.Fill(n); err != nil {
			return nil, err
		}
	}
	buf := c.ReadBuf[c.ReadStart : c.ReadStart+n]
	c.ReadStart += n
	return buf, nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	buf, err := c.reserve(1)
	if err != nil {
		return err
	}
	buf[0] = val
	return nil
}

// SendUint16 sends an uint16 value.
func (c *Conn) SendUint16(val int) error {
	buf, err := c.reserve(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf, uint16(val))
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	buf, err := c.reserve(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf, uint32(val))
	return nil
}

// SendData sends length-prefixed binary data.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	return c.sendRaw(val)
}

func (c *Conn) sendRaw(val []byte) error {
	for len(val) > 0 {
		n := len(val)
		if n > len(c.WriteBuf) {
			n = len(c.WriteBuf)
		}
		buf, err := c.reserve(n)
		if err != nil {
			return err
		}
		copy(buf, val[:n])
		val = val[n:]
	}
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// SendElement sends a non-negative integer as a fixed-width
// big-endian value of size bytes.
func (c *Conn) SendElement(val *big.Int, size int) error {
	if val.Sign() < 0 || (val.BitLen()+7)/8 > size {
		return errors.Errorf("element does not fit in %d bytes", size)
	}
	if size > len(c.WriteBuf) {
		return c.sendRaw(val.FillBytes(make([]byte, size)))
	}
	buf, err := c.reserve(size)
	if err != nil {
		return err
	}
	val.FillBytes(buf)
	return nil
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	buf, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReceiveUint16 receives an uint16 value.
func (c *Conn) ReceiveUint16() (int, error) {
	buf, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(buf)), nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	buf, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(buf)), nil
}

// ReceiveData receives length-prefixed binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if n > MaxDataSize {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", n)
	}
	buf, err := c.next(n)
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, buf)
	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveElement receives a fixed-width big-endian integer of size
// bytes.
func (c *Conn) ReceiveElement(size int) (*big.Int, error) {
	buf, err := c.next(size)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}
