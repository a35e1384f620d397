/*
 * amigoemu - IEEE-488 addressing state machine.
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

// Package ieee488 reconstructs addressed talker/listener dialogues and
// parallel-poll requests from a stream of wire.Msg values plus the
// eight-bit bus signal vector, reducing them to a small set of raw bus
// commands for the Amigo command layer to interpret.
package ieee488

import (
	"github.com/hpamigo/amigoemu/util/debug"
	"github.com/hpamigo/amigoemu/wire"
)

// Primary command group bytes.
const (
	pcgUNL       byte = 0x3F
	pcgUNT       byte = 0x5F
	pcgDevClear1 byte = 0x04
	pcgDevClear2 byte = 0x14
	pcgPPC       byte = 0x05
)

const (
	mlaBase byte = 0x20
	mtaBase byte = 0x40
	msaBase byte = 0x60
)

// Secondary-address tracker states.
const (
	saNone = iota
	saTPAS
	saLPAS
	saUNT
	saPACS
)

// Command emission states, entered while a secondary-addressed command is
// pending completion.
const (
	decIdle = iota
	decMTASA // pending Talk/Identify, waiting for ATN release
	decMLASA // pending Listen, accumulating payload until END_BYTE
)

// CommandKind tags a RawCommand's variant.
type CommandKind int

const (
	CmdIdentify CommandKind = iota
	CmdParallelPoll
	CmdDeviceClear
	CmdTalk
	CmdListen
)

// RawCommand is one reconstructed bus-level command.
type RawCommand struct {
	Kind   CommandKind
	SA     byte // Talk/Listen secondary address (low 5 bits)
	Enable bool // ParallelPoll: enable/disable
	Params []byte
}

// Decoder rebuilds RawCommand values from a stream of wire.Msg values and
// the current bus signal vector. It is driven one message at a time by
// the message-I/O consumer loop.
type Decoder struct {
	MyAddr byte // this device's bus primary address (0..30)

	signals  byte // last-known bus signal vector, bit 0 = ATN
	listener bool
	talker   bool
	saState  int
	decState int

	pending    RawCommand
	pendingSet bool

	ppAsserted bool // last PP-asserted state we've told the caller about

	DebugMask int

	Emit func(RawCommand)
}

// NewDecoder creates a Decoder with the initial signal vector (all bits
// asserted) and the emission callback fn.
func NewDecoder(myAddr byte, fn func(RawCommand)) *Decoder {
	return &Decoder{
		MyAddr: myAddr,
		signals: 0xFF,
		Emit:    fn,
	}
}

func (d *Decoder) atn() bool {
	return d.signals&0x01 == 0
}

func (d *Decoder) emit(cmd RawCommand) {
	debug.Debugf("bus", d.DebugMask, debug.Bus, "emit %+v", cmd)
	if d.Emit != nil {
		d.Emit(cmd)
	}
}

// dropPP asserts PP, if not already asserted, to signal the momentary
// bus-active condition on UNL/UNT/OTA, per the PP-drop rule.
func (d *Decoder) dropPP() {
	if !d.ppAsserted {
		d.ppAsserted = true
		d.emit(RawCommand{Kind: CmdParallelPoll, Enable: true})
	}
}

// Handle advances the decoder by one inbound message.
func (d *Decoder) Handle(m wire.Msg) {
	switch m.Type {
	case wire.SignalSet:
		d.signals |= m.Data
		d.checkATNRelease()
		return
	case wire.SignalClear:
		d.signals &^= m.Data
		d.checkATNRelease()
		return
	case wire.PPRequest:
		// PP replies are sent asynchronously on drive-state edges, not
		// in response to a request message.
		return
	case wire.DataByte, wire.EndByte:
		if d.atn() && m.Type == wire.DataByte {
			d.handleCommandByte(m.Data & 0x7F)
			return
		}
		d.handlePayloadByte(m)
		return
	default:
		return
	}
}

func (d *Decoder) handleCommandByte(b byte) {
	if b&0x60 != 0x60 {
		d.handlePrimary(b)
		return
	}
	d.handleSecondary(b & 0x1F)
}

func (d *Decoder) handlePrimary(b byte) {
	d.saState = saNone

	myMLA := mlaBase | d.MyAddr
	myMTA := mtaBase | d.MyAddr

	switch {
	case b == pcgUNL:
		wasListener := d.listener
		d.listener = false
		if wasListener {
			d.dropPP()
		}

	case b == pcgUNT:
		wasTalker := d.talker
		d.talker = false
		d.saState = saUNT
		if wasTalker {
			d.dropPP()
		}

	case b == myMLA:
		d.listener = true
		d.saState = saLPAS
		d.dropPPOnAddressChange()

	case b == myMTA:
		d.talker = true
		d.saState = saTPAS
		d.dropPPOnAddressChange()

	case b >= mtaBase && b <= 0x5E && d.listener:
		d.talker = false
		d.dropPP()

	case b == pcgDevClear2 || (b == pcgDevClear1 && d.listener):
		d.emit(RawCommand{Kind: CmdDeviceClear})

	case b == pcgPPC && d.listener:
		d.saState = saPACS
	}
}

// dropPPOnAddressChange implements the "re-emit ParallelPoll(false) on any
// MTA-new-talker or MLA-new-listener edge away from asserted PP" rule.
func (d *Decoder) dropPPOnAddressChange() {
	if d.ppAsserted {
		d.ppAsserted = false
		d.emit(RawCommand{Kind: CmdParallelPoll, Enable: false})
	}
}

func (d *Decoder) handleSecondary(sa byte) {
	switch d.saState {
	case saTPAS:
		d.pending = RawCommand{Kind: CmdTalk, SA: sa}
		d.pendingSet = true
		d.decState = decMTASA

	case saLPAS:
		d.pending = RawCommand{Kind: CmdListen, SA: sa, Params: nil}
		d.pendingSet = true
		d.decState = decMLASA

	case saUNT:
		if sa == d.MyAddr {
			d.pending = RawCommand{Kind: CmdIdentify}
			d.pendingSet = true
			d.decState = decMTASA
		}

	case saPACS:
		// Parallel-poll configure payload: accepted, discarded.

	default:
		// Secondary address with no preceding primary: ignore.
	}
}

func (d *Decoder) handlePayloadByte(m wire.Msg) {
	switch d.decState {
	case decMTASA:
		// Waiting purely for ATN release; data bytes here are unexpected
		// and ignored.
	case decMLASA:
		d.pending.Params = append(d.pending.Params, m.Data)
		if m.Type == wire.EndByte {
			d.finish()
		}
	}
}

func (d *Decoder) finish() {
	if d.pendingSet {
		d.emit(d.pending)
		d.pendingSet = false
	}
	d.decState = decIdle
}

// checkATNRelease is invoked whenever the bus signal vector might have
// changed ATN state; a pending DEC_MTA_SA command is emitted as soon as
// ATN de-asserts.
func (d *Decoder) checkATNRelease() {
	if d.decState == decMTASA && !d.atn() {
		d.finish()
	}
}
