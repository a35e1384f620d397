/*
 * amigoemu - Masked debug logging.
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

// Package debug provides masked, per-subsystem debug logging, the same
// style as the teacher's device-level debug helpers, retargeted from
// per-device-number masks to per-subsystem masks (wire framing, bus
// decode, Amigo command decode/exec).
package debug

import (
	"fmt"
	"io"
	"os"
)

// Debug level bits, one per subsystem, ORed into a caller-owned mask.
const (
	Frame = 1 << iota // wire: individual frame send/recv
	Bus               // ieee488: bus command decode
	Amigo             // amigo: decoded command + sequencing
	Unit              // amigo: per-unit state changes
)

var out io.Writer = os.Stderr

// SetOutput redirects debug output; passing nil discards it.
func SetOutput(w io.Writer) {
	if w == nil {
		out = io.Discard
		return
	}
	out = w
}

// Debugf logs a formatted message tagged with module if level is set in
// mask, otherwise it is a no-op.
func Debugf(module string, mask int, level int, format string, a ...interface{}) {
	if (mask & level) == 0 {
		return
	}
	fmt.Fprintf(out, module+": "+format+"\n", a...)
}
