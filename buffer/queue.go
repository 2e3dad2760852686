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

// DefaultChunkSize is the capacity of each link in a Queue's backing list.
const DefaultChunkSize = 4096

type chunk struct {
	data []byte
	r    int
	w    int
	next *chunk
}

func (c *chunk) remaining() int {
	return c.w - c.r
}

func (c *chunk) free() int {
	return len(c.data) - c.w
}

// Queue is a FIFO of bytes backed by a singly linked list of fixed-size
// chunks. It is not safe for concurrent use: callers sharing a Queue
// across goroutines must hold an external mutex, as every filter in this
// module does (sendLock / recvLock).
type Queue struct {
	chunkSize int
	head      *chunk
	tail      *chunk
	size      int
}

// NewQueue builds an empty Queue whose chunks are chunkSize bytes long.
func NewQueue(chunkSize int) *Queue {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Queue{chunkSize: chunkSize}
}

// Len returns the number of bytes currently queued.
func (q *Queue) Len() int {
	return q.size
}

// HasRemaining reports whether the queue holds at least one byte. It
// reflects actual pending bytes, never a stale chunk left empty by a
// prior drain.
func (q *Queue) HasRemaining() bool {
	return q.size > 0
}

func (q *Queue) appendChunk() *chunk {
	c := &chunk{data: make([]byte, q.chunkSize)}
	if q.tail == nil {
		q.head = c
		q.tail = c
	} else {
		q.tail.next = c
		q.tail = c
	}
	return c
}

// PutBuffer copies every remaining byte of buf into the queue, draining
// buf's position to its limit.
func (q *Queue) PutBuffer(buf *Buffer) {
	for buf.HasRemaining() {
		if q.tail == nil || q.tail.free() == 0 {
			q.appendChunk()
		}
		c := q.tail
		n := buf.Get(c.data[c.w:])
		c.w += n
		q.size += n
	}
}

// PutByte appends a single byte to the tail of the queue.
func (q *Queue) PutByte(b byte) {
	if q.tail == nil || q.tail.free() == 0 {
		q.appendChunk()
	}
	c := q.tail
	c.data[c.w] = b
	c.w++
	q.size++
}

// dropConsumedHead removes head chunks that have been fully read.
func (q *Queue) dropConsumedHead() {
	for q.head != nil && q.head.remaining() == 0 {
		if q.head == q.tail {
			q.head = nil
			q.tail = nil
			break
		}
		q.head = q.head.next
	}
}

// GetByte pops one byte from the head of the queue. ok is false if the
// queue is empty.
func (q *Queue) GetByte() (b byte, ok bool) {
	q.dropConsumedHead()
	if q.head == nil {
		return 0, false
	}
	b = q.head.data[q.head.r]
	q.head.r++
	q.size--
	q.dropConsumedHead()
	return b, true
}

// GetBuffer drains up to max bytes (or all remaining bytes if max <= 0)
// into a newly allocated Buffer, returned in drain mode (ready for Get /
// Bytes). It returns nil if the queue is empty.
func (q *Queue) GetBuffer(max int) *Buffer {
	if q.size == 0 {
		return nil
	}
	n := q.size
	if max > 0 && max < n {
		n = max
	}
	out := New(n)
	for n > 0 {
		q.dropConsumedHead()
		c := q.head
		k := c.remaining()
		if k > n {
			k = n
		}
		out.Put(c.data[c.r : c.r+k])
		c.r += k
		q.size -= k
		n -= k
	}
	q.dropConsumedHead()
	return out.Flip()
}

// Unget pushes a single byte back onto the front of the queue, for the
// rare case a reader consumed one byte too many while probing a sentinel.
func (q *Queue) Unget(b byte) {
	c := &chunk{data: make([]byte, q.chunkSize)}
	c.data[0] = b
	c.w = 1
	c.next = q.head
	q.head = c
	if q.tail == nil {
		q.tail = c
	}
	q.size++
}

// NewByteBuffer allocates a Buffer sized to this queue's chunk size, ready
// to be filled (e.g. by a network layer read).
func (q *Queue) NewByteBuffer() *Buffer {
	return New(q.chunkSize)
}
