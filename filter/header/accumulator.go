/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package header

import "encoding/binary"

// accumulator collects a fixed number of bytes across any number of feed
// calls, since a length or content field may straddle several OnRecv calls.
type accumulator struct {
	buf  []byte
	need int
}

func (a *accumulator) reset(need int) {
	a.buf = a.buf[:0]
	a.need = need
}

// feed appends one byte and reports whether need bytes have now arrived.
func (a *accumulator) feed(b byte) bool {
	a.buf = append(a.buf, b)
	return len(a.buf) >= a.need
}

// done reports whether need bytes have already arrived without feeding
// another one; true for a zero-length field as soon as it is reset.
func (a *accumulator) done() bool {
	return len(a.buf) >= a.need
}

func (a *accumulator) u16() uint16 {
	return binary.BigEndian.Uint16(a.buf)
}

func (a *accumulator) bytes() []byte {
	return a.buf
}
