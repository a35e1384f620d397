/*
 * amigoemu - Per-unit and per-drive state.
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

import (
	"github.com/hpamigo/amigoemu/chs"
	"github.com/hpamigo/amigoemu/image"
	"github.com/hpamigo/amigoemu/model"
	"github.com/hpamigo/amigoemu/util/debug"
)

// Sender is the outbound half of the peer link a Drive reports through.
// *wire.Link satisfies this.
type Sender interface {
	SendData(data []byte, eoiAtEnd bool) error
	SendPPState(b byte) error
}

// Unit holds the per-unit state of one drive spindle: its backing image,
// current cursor, and the status bits (A/W/F/C) ReqStatus reports.
type Unit struct {
	Img image.Image

	CurrentLBA uint32
	A          bool // attention: addressee has work to report
	W          bool // write-protect
	F          bool // flaw: unit not yet readied by a status request
	C          bool // positioning error
	SS         int  // unit-specific status nibble (0 normal, 3 not-ready)
	TTTT       int  // drive type code, always 6 for an Amigo disc
}

// NewUnit builds a Unit around img, which may be nil for an unpopulated
// unit. A nil image starts not-ready: F clear, SS=3, per the teacher's
// power-up state for a missing medium.
func NewUnit(img image.Image) *Unit {
	u := &Unit{Img: img, F: true, SS: 0, TTTT: 6}
	if !u.IsReady() {
		u.SS = 3
		u.F = false
	}
	return u
}

// IsReady reports whether the unit has a backing image attached.
func (u *Unit) IsReady() bool {
	return u.Img != nil
}

// IsLBAOk reports whether the current cursor still addresses a real
// sector of geom.
func (u *Unit) IsLBAOk(geom chs.Geometry) bool {
	return u.CurrentLBA < geom.MaxLBA()
}

// CurrentCHS returns the cursor as a CHS triple under geom.
func (u *Unit) CurrentCHS(geom chs.Geometry) chs.CHS {
	c, err := chs.FromLBA(u.CurrentLBA, geom)
	if err != nil {
		return chs.CHS{}
	}
	return c
}

// SetCurrentCHS moves the cursor to c. On an out-of-range c the cursor is
// left untouched; only a successful seek ever advances current_lba.
func (u *Unit) SetCurrentCHS(c chs.CHS, geom chs.Geometry) error {
	lba, err := c.ToLBA(geom)
	if err != nil {
		return err
	}
	u.CurrentLBA = lba
	return nil
}

// WriteImg writes data as the sector at the current cursor and advances
// the cursor, unconditionally, same as the teacher: out-of-range writes
// are the caller's responsibility to have already rejected.
func (u *Unit) WriteImg(data []byte) error {
	if !u.IsReady() {
		return nil
	}
	if err := u.Img.WriteSector(u.CurrentLBA, data); err != nil {
		return err
	}
	u.CurrentLBA++
	return nil
}

// ReadImg reads the sector at the current cursor and advances the cursor.
// An unready unit reads as a zeroed sector.
func (u *Unit) ReadImg() ([]byte, error) {
	buf := make([]byte, image.SectorSize)
	if !u.IsReady() {
		return buf, nil
	}
	if err := u.Img.ReadSector(u.CurrentLBA, buf); err != nil {
		return nil, err
	}
	u.CurrentLBA++
	return buf, nil
}

// FormatImg overwrites every sector of the unit's image with filler.
func (u *Unit) FormatImg(filler byte, sectors uint32) error {
	if !u.IsReady() {
		return nil
	}
	return u.Img.Fill(sectors, filler)
}

// Drive is the full state of one emulated Amigo drive: its fixed model
// data, its units, and the shared status/DSJ/sequencing state the
// executor mutates as it runs commands.
type Drive struct {
	Model model.Fixed
	Units []*Unit

	DSJ         int
	Stat1       byte
	CurrentUnit int
	FailedUnit  int

	PPEnabled bool
	PPState   bool

	Buffer [image.SectorSize]byte
	Status [4]byte

	SeqState int

	io        Sender
	DebugMask int
}

// Sequencing states, matching the teacher's cmd_seq_state values for the
// buffered command flow (the unbuffered-read/checkpoint states the
// original source also defines have no decodable command in this
// emulator and are not modeled).
const (
	SeqIdle            = 0
	SeqWaitSendStatus  = 1
	SeqWaitSendData    = 2
	SeqWaitReceiveData = 3
)

// Amigo status-byte error codes, as set by SetError.
const (
	ErrBadCmd    byte = 0x01
	ErrIO        byte = 0x0A
	ErrStat2     byte = 0x13
	ErrNoUnit    byte = 0x17
	ErrAttention byte = 0x1F
)

// NewDrive builds a Drive for m, populating up to m.Units units from
// images in order; any unit beyond len(images) starts with no backing
// image. DSJ starts at 2 (power-up, not yet reported) as in the teacher.
func NewDrive(m model.Fixed, images []image.Image, sender Sender) *Drive {
	units := make([]*Unit, m.Units)
	for i := 0; i < m.Units; i++ {
		var img image.Image
		if i < len(images) {
			img = images[i]
		}
		units[i] = NewUnit(img)
	}
	return &Drive{
		Model:     m,
		Units:     units,
		DSJ:       2,
		PPEnabled: true,
		io:        sender,
	}
}

func (d *Drive) debugf(mask int, format string, a ...interface{}) {
	debug.Debugf("amigo", d.DebugMask, mask, format, a...)
}

// SetPP updates the asserted parallel-poll state, gated by PPEnabled, and
// tells the peer only when the reported state actually changes.
func (d *Drive) SetPP(newState bool) {
	newState = d.PPEnabled && newState
	if newState != d.PPState {
		d.PPState = newState
		b := byte(0)
		if d.PPState {
			b = 0x80
		}
		_ = d.io.SendPPState(b)
	}
}

// IsDSJOk reports whether a command may proceed: DSJ=2 (not yet reported
// to the host) blocks every command gated by it.
func (d *Drive) IsDSJOk() bool {
	return d.DSJ != 2
}

// SetError records a failure against the currently selected unit.
func (d *Drive) SetError(stat1 byte) {
	d.Stat1 = stat1
	d.FailedUnit = d.CurrentUnit
	if d.DSJ != 2 {
		d.DSJ = 1
	}
}

// ClearDSJ resets DSJ to 0 unless it is still the power-up sentinel 2.
func (d *Drive) ClearDSJ() {
	if d.DSJ != 2 {
		d.DSJ = 0
	}
}

// ClearErrors resets Stat1 and DSJ to the idle/no-error state.
func (d *Drive) ClearErrors() {
	d.Stat1 = 0
	d.DSJ = 0
}

// SelectUnit makes unit the current unit if it exists, else fails it with
// NoUnit. Unlike SelectUnitCheckF, it does not look at the F bit.
func (d *Drive) SelectUnit(unit int) (*Unit, bool) {
	if unit < 0 || unit >= len(d.Units) {
		d.SetError(ErrNoUnit)
		return nil, false
	}
	d.CurrentUnit = unit
	return d.Units[unit], true
}

// SelectUnitCheckF is SelectUnit plus the readiness gate every
// data-moving command (Seek, Verify, BuffWr, BuffRd, Format) requires:
// a unit whose F bit is still set, or with no image at all, fails Stat2.
func (d *Drive) SelectUnitCheckF(unit int) (*Unit, bool) {
	u, ok := d.SelectUnit(unit)
	if !ok {
		return nil, false
	}
	if u.F || !u.IsReady() {
		d.SetError(ErrStat2)
		return nil, false
	}
	return u, true
}

// DSJ1Holdoff reports whether an unacknowledged DSJ=1 error other than
// BadCmd/IO should block further data movement until the host reads
// status.
func (d *Drive) DSJ1Holdoff() bool {
	return d.DSJ == 1 && d.Stat1 != ErrBadCmd && d.Stat1 != ErrIO
}

// LBAOutOfRange checks the current unit's cursor and, if it has run off
// the end of the geometry, raises Attention on it.
func (d *Drive) LBAOutOfRange() bool {
	u := d.Units[d.CurrentUnit]
	if !u.IsLBAOk(d.Model.Geometry) {
		u.A = true
		u.C = true
		d.SetError(ErrAttention)
		return true
	}
	return false
}

// SetSeqState sets the sequencing state directly.
func (d *Drive) SetSeqState(state int) {
	d.SeqState = state
}

// SetSeqError resets sequencing to idle on a sequencing violation, raises
// an I/O error if DSJ was clean, and for a talker command answers with
// an end byte so the host doesn't hang waiting for data.
func (d *Drive) SetSeqError(talker bool) {
	d.SetSeqState(SeqIdle)
	if d.DSJ == 0 {
		d.SetError(ErrIO)
	}
	if talker {
		d.SendEndByte()
	}
}

// RequireSeqState enforces that the sequencing state is exactly req
// before a command proceeds, raising a sequencing error otherwise.
func (d *Drive) RequireSeqState(req int, talker bool) bool {
	if d.SeqState != req {
		d.SetSeqError(talker)
		return false
	}
	d.SetSeqState(req)
	return true
}

// SendEndByte answers with the single-byte 0x01 end-of-data marker the
// teacher's protocol uses to close out a talker command with nothing
// else to send.
func (d *Drive) SendEndByte() {
	_ = d.io.SendData([]byte{0x01}, true)
}
