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

package network

import (
	"net"
	"sync"
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
	libhub "github.com/nabbar/remoting/hub"
	libstk "github.com/nabbar/remoting/stack"
)

// Base is embedded by both network-layer variants. It holds the socket,
// the owning hub, the stack position assigned at Init, and the outbound
// backlog: anything handed to DoSend before Init runs is queued here and
// replayed, in order, once the layer starts.
type Base struct {
	Conn net.Conn
	Hub  libhub.Hub

	mu  sync.Mutex
	pos *libstk.Position

	outMu   sync.Mutex
	out     *libbuf.Queue
	pending *libbuf.Buffer

	sendClosed atomic.Bool
	closeOnce  sync.Once
}

// NewBase builds a Base over conn, using hub's buffer pool.
func NewBase(conn net.Conn, hub libhub.Hub) *Base {
	return &Base{
		Conn: conn,
		Hub:  hub,
		out:  libbuf.NewQueue(libbuf.DefaultChunkSize),
	}
}

// Init records the stack position assigned to this layer.
func (b *Base) Init(pos *libstk.Position) {
	b.mu.Lock()
	b.pos = pos
	b.mu.Unlock()
}

// Position returns the stack position recorded by Init, or nil before it
// has run.
func (b *Base) Position() *libstk.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// IsSendOpen reports whether the send half is still usable.
func (b *Base) IsSendOpen() bool {
	return !b.sendClosed.Load()
}

// MarkSendClosed flips the send-open flag. Idempotent.
func (b *Base) MarkSendClosed() {
	b.sendClosed.Store(true)
}

// Enqueue appends buf's remaining bytes to the outbound backlog under
// lock, taking ownership of buf, and reports whether the backlog was
// empty (pending included) beforehand.
func (b *Base) Enqueue(buf *libbuf.Buffer) (wasEmpty bool) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	wasEmpty = b.pending == nil && !b.out.HasRemaining()
	b.out.PutBuffer(buf)
	return wasEmpty
}

// HasQueued reports whether any backlog remains, drained or not.
func (b *Base) HasQueued() bool {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	return b.pending != nil || b.out.HasRemaining()
}

// DrainTo writes as much of the backlog as conn.Write accepts without
// blocking longer than conn allows. It returns empty=true once the whole
// backlog has been flushed, or stops at the first partial write or error.
func (b *Base) DrainTo(conn net.Conn) (empty bool, err error) {
	b.outMu.Lock()
	defer b.outMu.Unlock()

	for {
		if b.pending == nil || !b.pending.HasRemaining() {
			b.pending = b.out.GetBuffer(-1)
			if b.pending == nil {
				return true, nil
			}
		}

		n, werr := conn.Write(b.pending.Bytes())
		if n > 0 {
			b.pending.SetPosition(b.pending.Position() + n)
		}
		if werr != nil {
			return false, werr
		}
		if b.pending.HasRemaining() {
			return false, nil
		}
		b.pending = nil
	}
}

// CloseOnce runs fn exactly once across the lifetime of this Base.
func (b *Base) CloseOnce(fn func()) {
	b.closeOnce.Do(fn)
}
