/*
 * amigoemu - Amigo command taxonomy and decoder.
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

// Package amigo decodes Amigo-layer commands from raw IEEE-488 bus
// commands and executes them against per-unit drive state.
package amigo

import (
	"github.com/hpamigo/amigoemu/chs"
	"github.com/hpamigo/amigoemu/ieee488"
)

// Kind tags a decoded Command's variant.
type Kind int

const (
	KindIdentify Kind = iota
	KindParallelPoll
	KindDeviceClear
	KindUnkTalk
	KindSendData
	KindSendStatus
	KindDSJ
	KindUnkListen
	KindReceiveData
	KindSeek
	KindReqStatus
	KindVerify
	KindReqLogAddr
	KindEnd
	KindBuffWr
	KindBuffRd
	KindFormat
	KindAmigoClear
)

// Command is a decoded Amigo-layer command. Only the fields relevant to
// Kind are meaningful; this mirrors the source's per-subclass command
// objects as a single tagged payload, per the executor owning all
// mutation (see DESIGN.md).
type Command struct {
	Kind Kind

	Unit int // ReqStatus, Seek, Verify, BuffWr, BuffRd, Format
	SA   byte // UnkTalk, UnkListen: original secondary address

	CHS      chs.CHS // Seek
	SecCount uint16  // Verify
	Bytes    []byte  // ReceiveData, UnkListen (original payload)
	Override byte    // Format
	Filler   byte    // Format
	Enable   bool    // ParallelPoll
}

// PPEnable reports whether executing this command should assert parallel
// poll (the drive has work to report). Identify, ParallelPoll,
// DeviceClear and AmigoClear are the exceptions.
func (c Command) PPEnable() bool {
	switch c.Kind {
	case KindIdentify, KindParallelPoll, KindDeviceClear, KindAmigoClear:
		return false
	default:
		return true
	}
}

// Decode interprets a raw bus command's payload into a typed Amigo
// command, per the table in SPEC_FULL.md §4.4.
func Decode(raw ieee488.RawCommand) Command {
	switch raw.Kind {
	case ieee488.CmdIdentify:
		return Command{Kind: KindIdentify}
	case ieee488.CmdDeviceClear:
		return Command{Kind: KindDeviceClear}
	case ieee488.CmdParallelPoll:
		return Command{Kind: KindParallelPoll, Enable: raw.Enable}
	case ieee488.CmdTalk:
		return decodeTalk(raw.SA)
	case ieee488.CmdListen:
		return decodeListen(raw.SA, raw.Params)
	default:
		return Command{Kind: KindUnkListen, SA: raw.SA, Bytes: raw.Params}
	}
}

func decodeTalk(sa byte) Command {
	switch sa {
	case 0:
		return Command{Kind: KindSendData}
	case 8:
		return Command{Kind: KindSendStatus}
	case 0x10:
		return Command{Kind: KindDSJ}
	default:
		return Command{Kind: KindUnkTalk, SA: sa}
	}
}

func decodeListen(sa byte, params []byte) Command {
	switch sa {
	case 0:
		return Command{Kind: KindReceiveData, Bytes: params}

	case 8:
		if len(params) == 6 && (params[0] == 0x02 || params[0] == 0x0c) {
			return Command{
				Kind: KindSeek,
				Unit: int(params[1]),
				CHS:  chs.FromPacked([4]byte{params[2], params[3], params[4], params[5]}),
			}
		}
		if len(params) == 2 && params[0] == 0x03 {
			return Command{Kind: KindReqStatus, Unit: int(params[1])}
		}
		if len(params) == 4 && params[0] == 0x07 {
			return Command{
				Kind:     KindVerify,
				Unit:     int(params[1]),
				SecCount: uint16(params[2])<<8 | uint16(params[3]),
			}
		}
		if len(params) == 2 && params[0] == 0x14 {
			return Command{Kind: KindReqLogAddr, Unit: int(params[1])}
		}
		if len(params) == 2 && params[0] == 0x15 {
			return Command{Kind: KindEnd, Unit: int(params[1])}
		}

	case 9:
		if len(params) == 2 && params[0] == 0x08 {
			return Command{Kind: KindBuffWr, Unit: int(params[1])}
		}

	case 0xA:
		if len(params) == 2 && params[0] == 0x03 {
			return Command{Kind: KindReqStatus, Unit: int(params[1])}
		}
		if len(params) == 2 && params[0] == 0x05 {
			return Command{Kind: KindBuffRd, Unit: int(params[1])}
		}
		if len(params) == 2 && params[0] == 0x14 {
			return Command{Kind: KindReqLogAddr, Unit: int(params[1])}
		}

	case 0xB:
		if len(params) == 2 && params[0] == 0x05 {
			return Command{Kind: KindBuffRd, Unit: int(params[1])}
		}

	case 0xC:
		if len(params) == 5 && params[0] == 0x18 {
			return Command{
				Kind:     KindFormat,
				Unit:     int(params[1]),
				Override: params[2],
				Filler:   params[4],
			}
		}

	case 0x10:
		if len(params) == 1 {
			return Command{Kind: KindAmigoClear}
		}
	}

	return Command{Kind: KindUnkListen, SA: sa, Bytes: params}
}
