/*
 * amigoemu - Drive model registry.
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

// Package model holds the fixed per-model drive data (identify bytes,
// geometry, unit count, format-filler policy) and a small register-by-init
// table, the same idiom the teacher uses for its per-peripheral model
// files (each model registers itself from an init function).
package model

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/hpamigo/amigoemu/chs"
)

// Fixed is the constant data describing one drive model.
type Fixed struct {
	Name            string
	Identify        [2]byte
	Geometry        chs.Geometry
	Units           int
	IgnoreFmtFiller bool
}

var registry = map[string]Fixed{}

// Register adds a model to the registry. Call from an init function in
// a model's own file, one file per model.
func Register(f Fixed) {
	registry[strings.ToLower(f.Name)] = f
}

// ErrUnknownModel is returned by Lookup for a model name with no
// registered Fixed data.
var ErrUnknownModel = errors.New("model: unknown model")

// Lookup returns the Fixed data for name, case-insensitively.
func Lookup(name string) (Fixed, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return Fixed{}, errors.Wrapf(ErrUnknownModel, "%q", name)
	}
	return f, nil
}
