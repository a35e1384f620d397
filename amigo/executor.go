/*
 * amigoemu - Amigo command executor.
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

package amigo

import "github.com/hpamigo/amigoemu/util/debug"

// Execute runs one decoded Command against the drive. Identify,
// ParallelPoll, DeviceClear and AmigoClear sit outside the normal
// talk/listen sequencing: the rest re-arm PPEnabled before running and re-assert
// parallel poll afterward, same as the teacher's exec_cmd wrapper.
func (d *Drive) Execute(cmd Command) {
	switch cmd.Kind {
	case KindIdentify:
		d.cmdIdentify()
	case KindParallelPoll:
		d.cmdParallelPoll(cmd)
	case KindDeviceClear:
		d.cmdDeviceClear()
	case KindAmigoClear:
		d.cmdAmigoClear()
	default:
		d.PPEnabled = true
		d.dispatch(cmd)
		d.SetPP(true)
	}
}

func (d *Drive) dispatch(cmd Command) {
	switch cmd.Kind {
	case KindSeek:
		d.cmdSeek(cmd)
	case KindReqStatus:
		d.cmdReqStatus(cmd)
	case KindVerify:
		d.cmdVerify(cmd)
	case KindReqLogAddr:
		d.cmdReqLogAddr()
	case KindEnd:
		d.cmdEnd()
	case KindBuffWr:
		d.cmdBuffWr(cmd)
	case KindBuffRd:
		d.cmdBuffRd(cmd)
	case KindFormat:
		d.cmdFormat(cmd)
	case KindSendData:
		d.cmdSendData()
	case KindSendStatus:
		d.cmdSendStatus()
	case KindDSJ:
		d.cmdDSJ()
	case KindReceiveData:
		d.cmdReceiveData(cmd)
	case KindUnkTalk:
		d.cmdUnkTalk()
	case KindUnkListen:
		d.cmdUnkListen()
	}
}

func (d *Drive) cmdIdentify() {
	id := d.Model.Identify
	_ = d.io.SendData(id[:], true)
}

func (d *Drive) cmdParallelPoll(cmd Command) {
	d.SetPP(cmd.Enable)
}

// cmdDeviceClear and cmdAmigoClear share the same clear: every unit's A/C/F
// bits dropped, every cursor reset to 0, current_unit reset, sequencing
// idled, errors cleared. AmigoClear additionally requires the sequencing
// state to already be idle before it takes effect; DeviceClear is a raw
// bus-level reset and is never gated.
func (d *Drive) cmdDeviceClear() {
	d.clearAll()
}

func (d *Drive) cmdAmigoClear() {
	if !d.RequireSeqState(SeqIdle, false) {
		return
	}
	d.clearAll()
}

func (d *Drive) clearAll() {
	for _, u := range d.Units {
		u.A = false
		u.F = false
		u.C = false
		u.CurrentLBA = 0
	}
	d.CurrentUnit = 0
	d.SetSeqState(SeqIdle)
	d.ClearErrors()
}

func (d *Drive) cmdSeek(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	unit, ok := d.SelectUnitCheckF(cmd.Unit)
	if !ok {
		return
	}
	d.SetError(ErrAttention)
	unit.A = true
	d.debugf(debug.Unit, "seek unit %d -> %v", cmd.Unit, cmd.CHS)
	if err := unit.SetCurrentCHS(cmd.CHS, d.Model.Geometry); err != nil {
		unit.C = true
	} else {
		d.ClearDSJ()
	}
}

func (d *Drive) cmdReqStatus(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	var unit *Unit
	if cmd.Unit >= 0 && cmd.Unit < len(d.Units) {
		d.CurrentUnit = cmd.Unit
		unit = d.Units[d.CurrentUnit]
		d.Status[0] = d.Stat1
		d.Status[1] = byte(d.CurrentUnit)
		d.Status[2] = byte(unit.TTTT << 1)
		if unit.C || unit.SS != 0 {
			d.Status[2] |= 0x80
		}
		res := byte(unit.SS)
		if unit.A {
			res |= 0x80
		}
		if unit.W {
			res |= 0x40
		}
		if unit.F {
			res |= 0x08
		}
		if unit.C {
			res |= 0x04
		}
		d.Status[3] = res
	} else {
		d.Status[0] = ErrNoUnit
		d.Status[1] = byte(cmd.Unit)
		d.Status[2] = 0
		d.Status[3] = 0
		unit = d.Units[d.CurrentUnit]
	}
	unit.A = false
	unit.F = false
	unit.C = false
	d.ClearErrors()
	d.SetSeqState(SeqWaitSendStatus)
}

func (d *Drive) cmdVerify(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	unit, ok := d.SelectUnitCheckF(cmd.Unit)
	if !ok {
		return
	}
	maxLBA := d.Model.Geometry.MaxLBA()
	if cmd.SecCount == 0 {
		unit.CurrentLBA = maxLBA
	} else {
		newLBA := unit.CurrentLBA + uint32(cmd.SecCount)
		if newLBA > maxLBA {
			newLBA = maxLBA
		}
		unit.CurrentLBA = newLBA
	}
	d.ClearErrors()
}

func (d *Drive) cmdReqLogAddr() {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	c := d.Units[d.CurrentUnit].CurrentCHS(d.Model.Geometry)
	d.Status[0] = byte(c.C >> 8)
	d.Status[1] = byte(c.C)
	d.Status[2] = c.H
	d.Status[3] = c.S
	d.ClearErrors()
	d.SetSeqState(SeqWaitSendStatus)
}

func (d *Drive) cmdEnd() {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	d.ClearErrors()
	d.PPEnabled = false
}

func (d *Drive) cmdBuffWr(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	_, ok := d.SelectUnitCheckF(cmd.Unit)
	if ok && !d.DSJ1Holdoff() && !d.LBAOutOfRange() {
		d.SetSeqState(SeqWaitReceiveData)
	}
}

func (d *Drive) cmdBuffRd(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	unit, ok := d.SelectUnitCheckF(cmd.Unit)
	if !ok || d.DSJ1Holdoff() || d.LBAOutOfRange() {
		return
	}
	buf, err := unit.ReadImg()
	if err != nil {
		d.SetError(ErrIO)
		return
	}
	copy(d.Buffer[:], buf)
	d.ClearErrors()
	d.SetSeqState(SeqWaitSendData)
}

func (d *Drive) cmdFormat(cmd Command) {
	if !d.RequireSeqState(SeqIdle, false) || !d.IsDSJOk() {
		return
	}
	unit, ok := d.SelectUnitCheckF(cmd.Unit)
	if !ok {
		return
	}
	// Only bit 7 of Override is consulted; bit 0 is ignored.
	if !d.Model.IgnoreFmtFiller || cmd.Override&0x80 != 0 {
		fill := cmd.Filler
		if d.Model.IgnoreFmtFiller {
			fill = 0xFF
		}
		_ = unit.FormatImg(fill, d.Model.Geometry.MaxLBA())
	}
	unit.CurrentLBA = 0
	d.ClearErrors()
}

func (d *Drive) cmdSendData() {
	if !d.RequireSeqState(SeqWaitSendData, true) {
		return
	}
	_ = d.io.SendData(d.Buffer[:], false)
	d.SetSeqState(SeqIdle)
}

func (d *Drive) cmdSendStatus() {
	if !d.RequireSeqState(SeqWaitSendStatus, true) {
		return
	}
	_ = d.io.SendData(d.Status[:], false)
	d.SetSeqState(SeqIdle)
}

func (d *Drive) cmdDSJ() {
	if !d.RequireSeqState(SeqIdle, true) {
		return
	}
	_ = d.io.SendData([]byte{byte(d.DSJ)}, true)
	if d.DSJ == 2 {
		d.DSJ = 0
	}
	d.PPEnabled = false
	d.SetSeqState(SeqIdle)
}

func (d *Drive) cmdReceiveData(cmd Command) {
	if d.SeqState != SeqWaitReceiveData {
		d.SetSeqError(false)
		return
	}
	if d.LBAOutOfRange() {
		d.SetSeqState(SeqIdle)
		return
	}
	unit := d.Units[d.CurrentUnit]
	for i := range d.Buffer {
		d.Buffer[i] = 0
	}
	copy(d.Buffer[:], cmd.Bytes) // truncates if longer, pads with 0x00 if shorter
	_ = unit.WriteImg(d.Buffer[:])
	d.ClearErrors()
	d.SetSeqState(SeqIdle)
}

// cmdUnkTalk is a genuine no-op: a talk-addressed secondary we don't
// recognize is silently ignored rather than wedging the bus with an error.
func (d *Drive) cmdUnkTalk() {
}

func (d *Drive) cmdUnkListen() {
	d.SetError(ErrIO)
	d.SetSeqState(SeqIdle)
}
