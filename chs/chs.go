/*
 * amigoemu - Cylinder/head/sector geometry and LBA conversion.
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

// Package chs converts between cylinder/head/sector addresses and linear
// block addresses for a fixed drive geometry.
package chs

import (
	"github.com/pkg/errors"
)

// ErrOutOfRange is the sentinel cause for any CHS/LBA component that falls
// outside the bounds of a Geometry.
var ErrOutOfRange = errors.New("chs: component out of range")

// Geometry gives the maximum-exclusive bounds of a drive: cylinders, heads
// and sectors per track.
type Geometry struct {
	Cylinders uint16
	Heads     uint8
	Sectors   uint8
}

// MaxLBA returns the exclusive upper bound of linear block addresses this
// geometry can express.
func (g Geometry) MaxLBA() uint32 {
	return uint32(g.Cylinders) * uint32(g.Heads) * uint32(g.Sectors)
}

// CHS is a cylinder/head/sector triple.
type CHS struct {
	C uint16
	H uint8
	S uint8
}

// New builds a CHS triple from its three components.
func New(c uint16, h, s uint8) CHS {
	return CHS{C: c, H: h, S: s}
}

// FromPacked decodes the 4-byte big-endian packed form [c_hi, c_lo, h, s].
func FromPacked(b [4]byte) CHS {
	return CHS{
		C: uint16(b[0])<<8 | uint16(b[1]),
		H: b[2],
		S: b[3],
	}
}

// Packed encodes the CHS as the 4-byte big-endian form [c_hi, c_lo, h, s].
func (c CHS) Packed() [4]byte {
	return [4]byte{byte(c.C >> 8), byte(c.C), c.H, c.S}
}

// ToLBA converts c to a linear block address under geom. The bound is
// strict: a component equal to the matching geometry component is already
// out of range.
func (c CHS) ToLBA(geom Geometry) (uint32, error) {
	if c.C >= geom.Cylinders {
		return 0, errors.Wrapf(ErrOutOfRange, "cylinder %d >= %d", c.C, geom.Cylinders)
	}
	if c.H >= geom.Heads {
		return 0, errors.Wrapf(ErrOutOfRange, "head %d >= %d", c.H, geom.Heads)
	}
	if c.S >= geom.Sectors {
		return 0, errors.Wrapf(ErrOutOfRange, "sector %d >= %d", c.S, geom.Sectors)
	}
	lba := (uint32(c.C)*uint32(geom.Heads) + uint32(c.H)) * uint32(geom.Sectors) + uint32(c.S)
	return lba, nil
}

// FromLBA converts a linear block address back to a CHS triple under geom.
func FromLBA(lba uint32, geom Geometry) (CHS, error) {
	if lba > geom.MaxLBA() {
		return CHS{}, errors.Wrapf(ErrOutOfRange, "lba %d > max %d", lba, geom.MaxLBA())
	}
	s := lba % uint32(geom.Sectors)
	h := (lba / uint32(geom.Sectors)) % uint32(geom.Heads)
	c := lba / (uint32(geom.Sectors) * uint32(geom.Heads))
	return CHS{C: uint16(c), H: uint8(h), S: uint8(s)}, nil
}
