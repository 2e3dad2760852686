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

package buffer

// Buffer is a position/limit/capacity view over a byte slice, modeled on
// java.nio.ByteBuffer. It starts in "fill" mode: Put appends at position,
// up to limit. Flip switches it to "drain" mode: limit becomes the former
// position, position resets to zero, and Get reads from position up to
// limit. Buffer is not safe for concurrent use; callers that share a
// Buffer across goroutines must serialize access externally.
type Buffer struct {
	data []byte
	pos  int
	lim  int
}

// New allocates a Buffer with the given capacity, ready to be filled.
func New(capacity int) *Buffer {
	return &Buffer{
		data: make([]byte, capacity),
		pos:  0,
		lim:  capacity,
	}
}

// Wrap returns a Buffer in drain mode over an existing slice: position zero,
// limit and capacity equal to len(b). The slice is not copied.
func Wrap(b []byte) *Buffer {
	return &Buffer{
		data: b,
		pos:  0,
		lim:  len(b),
	}
}

// Cap returns the buffer's total capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Position returns the current position.
func (b *Buffer) Position() int {
	return b.pos
}

// SetPosition moves the position, clamped to [0, limit].
func (b *Buffer) SetPosition(p int) {
	if p < 0 {
		p = 0
	}
	if p > b.lim {
		p = b.lim
	}
	b.pos = p
}

// Limit returns the current limit.
func (b *Buffer) Limit() int {
	return b.lim
}

// Remaining returns the number of bytes between position and limit.
func (b *Buffer) Remaining() int {
	return b.lim - b.pos
}

// HasRemaining reports whether Remaining() > 0.
func (b *Buffer) HasRemaining() bool {
	return b.pos < b.lim
}

// Clear resets the buffer to fill mode: position zero, limit at capacity.
// It does not erase previous content.
func (b *Buffer) Clear() *Buffer {
	b.pos = 0
	b.lim = len(b.data)
	return b
}

// Flip switches the buffer from fill mode to drain mode.
func (b *Buffer) Flip() *Buffer {
	b.lim = b.pos
	b.pos = 0
	return b
}

// Rewind resets position to zero without touching the limit, allowing the
// same drained content to be re-read.
func (b *Buffer) Rewind() *Buffer {
	b.pos = 0
	return b
}

// Compact moves any unread bytes (position..limit) to the start of the
// backing array and switches back to fill mode with position at the moved
// length and limit at capacity. Used when a partial record must be
// retained across calls.
func (b *Buffer) Compact() *Buffer {
	n := copy(b.data, b.data[b.pos:b.lim])
	b.pos = n
	b.lim = len(b.data)
	return b
}

// Put copies as many bytes from p as fit before the limit, returning the
// count copied. Bytes of p beyond what fits are left for the caller to
// resubmit, per the module-wide buffer ownership contract.
func (b *Buffer) Put(p []byte) int {
	n := copy(b.data[b.pos:b.lim], p)
	b.pos += n
	return n
}

// PutByte appends a single byte if there is remaining capacity, reporting
// whether it succeeded.
func (b *Buffer) PutByte(c byte) bool {
	if b.pos >= b.lim {
		return false
	}
	b.data[b.pos] = c
	b.pos++
	return true
}

// Get drains up to len(p) bytes into p, returning the count copied.
func (b *Buffer) Get(p []byte) int {
	n := copy(p, b.data[b.pos:b.lim])
	b.pos += n
	return n
}

// Bytes returns the unread slice between position and limit. The slice
// aliases the buffer's backing array and is only valid until the next
// mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data[b.pos:b.lim]
}

// Grow returns a new Buffer with double the capacity, preserving the
// unread bytes of b in fill mode. Used by the TLS filter when an unwrap or
// wrap call reports overflow.
func (b *Buffer) Grow() *Buffer {
	n := New(b.Cap() * 2)
	if b.Cap() == 0 {
		n = New(4096)
	}
	copy(n.data, b.data[b.pos:b.lim])
	n.pos = b.lim - b.pos
	return n
}
