/*
 * amigoemu - Framed message I/O over the bus-remotizer peer connection.
 *
 * Copyright 2026, Amigo Drive Emulator Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package wire implements the ASCII line-framed message protocol spoken
// between the emulator and the bus-remotizer peer: one letter, a colon,
// two hex digits, a terminator. A dedicated receiver goroutine feeds a
// thread-safe inbound queue; heartbeats are answered inline and never
// reach the queue.
package wire

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/hpamigo/amigoemu/util/debug"
)

// MsgType is the single ASCII letter that tags a framed message.
type MsgType byte

const (
	SignalClear MsgType = 'R' // bus signal bits cleared
	SignalSet   MsgType = 'S' // bus signal bits set
	DataByte    MsgType = 'D' // plain data byte
	EndByte     MsgType = 'E' // EOI-tagged data byte
	PPData      MsgType = 'P' // parallel-poll response byte (outbound only)
	PPRequest   MsgType = 'Q' // parallel-poll sample request (inbound only)
	EchoReq     MsgType = 'J' // heartbeat request
	EchoReply   MsgType = 'K' // heartbeat reply
)

// Msg is one decoded frame: a type tag plus its single data byte.
type Msg struct {
	Type MsgType
	Data byte
}

// ErrConnectionClosed is returned by Get once the peer connection has
// ended, either by orderly close or by a read error.
var ErrConnectionClosed = errors.New("wire: connection closed")

const (
	waitCh = iota
	waitColon
	wait1stHex
	wait2ndHex
	waitSep
	waitWS
)

func isSeparator(b byte) bool {
	switch b {
	case ',', ';', ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

func isType(b byte) bool {
	switch MsgType(b) {
	case SignalClear, SignalSet, DataByte, EndByte, PPData, PPRequest, EchoReq, EchoReply:
		return true
	default:
		return false
	}
}

// Link owns one peer connection: the framing receiver, the outbound
// sender, and the inbound queue consumers pull from.
type Link struct {
	conn net.Conn

	sendMu sync.Mutex

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Msg
	closed bool

	wg        sync.WaitGroup
	DebugMask int
}

// New wraps conn in a Link. Call Start to begin receiving.
func New(conn net.Conn) *Link {
	l := &Link{conn: conn}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start launches the receiver goroutine.
func (l *Link) Start() {
	l.wg.Add(1)
	go l.receive()
}

// Wait blocks until the receiver goroutine has exited.
func (l *Link) Wait() {
	l.wg.Wait()
}

func (l *Link) enqueue(m Msg) {
	l.mu.Lock()
	l.queue = append(l.queue, m)
	l.cond.Signal()
	l.mu.Unlock()
}

func (l *Link) closeQueue() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
}

// Get blocks until a message is available or the connection has ended,
// in which case it returns ErrConnectionClosed.
func (l *Link) Get() (Msg, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.queue) == 0 && !l.closed {
		l.cond.Wait()
	}
	if len(l.queue) != 0 {
		m := l.queue[0]
		l.queue = l.queue[1:]
		return m, nil
	}
	return Msg{}, ErrConnectionClosed
}

// receive runs the six-state inbound framing parser over the peer byte
// stream until the connection ends.
func (l *Link) receive() {
	defer l.wg.Done()
	defer l.closeQueue()

	r := bufio.NewReader(l.conn)
	state := waitCh
	var typ MsgType
	var hi byte

	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}

		switch state {
		case waitCh:
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				continue
			}
			if !isType(b) {
				state = waitWS
				continue
			}
			typ = MsgType(b)
			state = waitColon

		case waitColon:
			if b != ':' {
				state = waitWS
				continue
			}
			state = wait1stHex

		case wait1stHex:
			v, ok := hexVal(b)
			if !ok {
				state = waitWS
				continue
			}
			hi = v
			state = wait2ndHex

		case wait2ndHex:
			v, ok := hexVal(b)
			if !ok {
				state = waitWS
				continue
			}
			data := hi<<4 | v
			l.deliver(Msg{Type: typ, Data: data})
			state = waitSep

		case waitSep:
			if isSeparator(b) {
				state = waitCh
				continue
			}
			state = waitWS

		case waitWS:
			if isSeparator(b) {
				state = waitCh
			}
			// else keep consuming until a terminator or whitespace appears.
		}
	}
}

// deliver routes a completed frame either to the heartbeat reply path or
// to the inbound queue.
func (l *Link) deliver(m Msg) {
	debug.Debugf("wire", l.DebugMask, debug.Frame, "recv %c:%02x", byte(m.Type), m.Data)
	if m.Type == EchoReq {
		_ = l.send(Msg{Type: EchoReply, Data: 0})
		return
	}
	l.enqueue(m)
}

// send writes one frame under the send lock.
func (l *Link) send(m Msg) error {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	return l.writeLocked(m)
}

func (l *Link) writeLocked(m Msg) error {
	debug.Debugf("wire", l.DebugMask, debug.Frame, "send %c:%02x", byte(m.Type), m.Data)
	_, err := fmt.Fprintf(l.conn, "%c:%02x\n", byte(m.Type), m.Data)
	if err != nil {
		return errors.Wrap(err, "wire: write frame")
	}
	return nil
}

// Send transmits a single frame.
func (l *Link) Send(m Msg) error {
	return l.send(m)
}

// SendData transmits bytes as a run of DATA_BYTE frames, concatenated into
// a single write under the send lock so the peer observes them as a
// contiguous batch. If eoiAtEnd is set, the final byte is sent as an
// END_BYTE frame instead.
func (l *Link) SendData(data []byte, eoiAtEnd bool) error {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	var buf []byte
	for i, b := range data {
		typ := DataByte
		if eoiAtEnd && i == len(data)-1 {
			typ = EndByte
		}
		debug.Debugf("wire", l.DebugMask, debug.Frame, "send %c:%02x", byte(typ), b)
		buf = append(buf, fmt.Sprintf("%c:%02x\n", byte(typ), b)...)
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := l.conn.Write(buf); err != nil {
		return errors.Wrap(err, "wire: write frame")
	}
	return nil
}

// SendEndByte transmits a single END_BYTE frame.
func (l *Link) SendEndByte(b byte) error {
	return l.send(Msg{Type: EndByte, Data: b})
}

// SendPPState transmits a single PP_DATA frame.
func (l *Link) SendPPState(b byte) error {
	return l.send(Msg{Type: PPData, Data: b})
}
