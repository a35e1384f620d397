/*
 * amigoemu - Per-unit block-image abstraction.
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

// Package image defines the block-image abstraction the Amigo command
// executor reads and writes sectors through, plus a default os.File
// backed implementation. The on-disk format is a flat array of
// SectorSize-byte sectors; anything fancier is a collaborator's problem,
// not the protocol core's.
package image

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// SectorSize is the fixed Amigo sector size in bytes.
const SectorSize = 256

// Image is the block-image abstraction a drive unit reads and writes
// fixed-size sectors through.
type Image interface {
	// ReadSector reads one SectorSize-byte sector at lba into buf.
	ReadSector(lba uint32, buf []byte) error
	// WriteSector writes one SectorSize-byte sector at lba from buf.
	WriteSector(lba uint32, buf []byte) error
	// Fill overwrites every sector of the image with filler.
	Fill(sectors uint32, filler byte) error
	// Close releases any underlying resource.
	Close() error
}

// FileImage is a flat-file-backed Image: sector lba occupies bytes
// [lba*SectorSize, (lba+1)*SectorSize) of the file.
type FileImage struct {
	f *os.File
}

// Open opens or creates path as a flat sector-addressable image file.
func Open(path string) (*FileImage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "image: open %s", path)
	}
	return &FileImage{f: f}, nil
}

// ReadSector reads a sector, treating any region past the current end of
// a sparse image file as zero-filled rather than an error.
func (im *FileImage) ReadSector(lba uint32, buf []byte) error {
	off := int64(lba) * SectorSize
	n, err := im.f.ReadAt(buf[:SectorSize], off)
	for i := n; i < SectorSize; i++ {
		buf[i] = 0
	}
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "image: read sector %d", lba)
	}
	return nil
}

func (im *FileImage) WriteSector(lba uint32, buf []byte) error {
	off := int64(lba) * SectorSize
	if _, err := im.f.WriteAt(buf[:SectorSize], off); err != nil {
		return errors.Wrapf(err, "image: write sector %d", lba)
	}
	return nil
}

func (im *FileImage) Fill(sectors uint32, filler byte) error {
	buf := make([]byte, SectorSize)
	for i := range buf {
		buf[i] = filler
	}
	for lba := uint32(0); lba < sectors; lba++ {
		if err := im.WriteSector(lba, buf); err != nil {
			return err
		}
	}
	return nil
}

func (im *FileImage) Close() error {
	return im.f.Close()
}
