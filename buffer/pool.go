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

import "sync"

// DefaultBufferSize is the default capacity of a pooled Buffer.
const DefaultBufferSize = 32 * 1024

// Pool is a bounded free-list of fixed-size Buffers. Acquire returns a
// cleared Buffer, allocating a fresh one when the pool is empty. Release
// returns a Buffer to the pool, or drops it silently when the pool is
// already at capacity. Pool is safe for concurrent use.
type Pool interface {
	// Acquire returns a cleared Buffer of the pool's configured size.
	Acquire() *Buffer
	// Release returns buf to the pool. buf must not be used by the caller
	// afterward. Releasing the same Buffer twice is undefined behavior
	// and is not detected.
	Release(buf *Buffer)
	// Size returns the capacity of buffers handed out by this pool.
	Size() int
}

type pool struct {
	size int
	mu   sync.Mutex
	free []*Buffer
	max  int
}

// NewPool builds a Pool that hands out Buffers of the given size and keeps
// at most max idle buffers on its free list.
func NewPool(size, max int) Pool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if max <= 0 {
		max = 256
	}
	return &pool{
		size: size,
		free: make([]*Buffer, 0, max),
		max:  max,
	}
}

func (p *pool) Acquire() *Buffer {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		return New(p.size)
	}
	b := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.mu.Unlock()
	return b.Clear()
}

func (p *pool) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.max {
		return
	}
	p.free = append(p.free, buf)
}

func (p *pool) Size() int {
	return p.size
}
