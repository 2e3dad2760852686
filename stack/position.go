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

package stack

import (
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
)

// Position is one node in a Stack's chain: the layer it carries, and the
// mutable links to its neighbors. nextRecv points toward the application
// (up); nextSend points toward the network (down). Links are guarded by
// the owning Stack's lock; everything else on Position is independently
// atomic so the hot OnRecv/DoSend path never blocks on it.
type Position struct {
	stack *Stack
	layer Layer

	recvLayer RecvLayer
	sendLayer SendLayer

	nextRecv *Position
	nextSend *Position

	recvClosed atomic.Bool
	sendClosed atomic.Bool
	removed    atomic.Bool
}

func newPosition(s *Stack, l Layer) *Position {
	p := &Position{stack: s, layer: l}
	p.recvLayer, _ = l.(RecvLayer)
	p.sendLayer, _ = l.(SendLayer)
	return p
}

// Layer returns the layer carried by this position.
func (p *Position) Layer() Layer { return p.layer }

// Stack returns the Stack this position belongs to.
func (p *Position) Stack() *Stack { return p.stack }

// IsRemoved reports whether Remove has been called on this position.
func (p *Position) IsRemoved() bool { return p.removed.Load() }

// Remove marks the position for removal. The physical splice happens
// lazily, the next time a neighbor traverses past it.
func (p *Position) Remove() { p.removed.Store(true) }

// OnRecv delivers buf to the next higher position that is still open for
// receive, taking ownership of buf.
func (p *Position) OnRecv(buf *libbuf.Buffer) error {
	n := p.resolveRecv()
	if n == nil || !n.recvLayer.IsRecvOpen() {
		return ErrClosed
	}
	return n.recvLayer.OnRecv(buf)
}

// DoSend delivers buf to the next lower position that is still open for
// send, taking ownership of buf.
func (p *Position) DoSend(buf *libbuf.Buffer) error {
	n := p.resolveSend()
	if n == nil || !n.sendLayer.IsSendOpen() {
		return ErrClosed
	}
	return n.sendLayer.DoSend(buf)
}

// OnRecvClosed notifies this position's own receive direction has ended
// and propagates the notification to the next higher active position.
// Idempotent. If this is the stack's network position, it also fires the
// stack listener exactly once.
func (p *Position) OnRecvClosed(cause error) {
	if !p.recvClosed.CompareAndSwap(false, true) {
		return
	}
	if n := p.resolveRecv(); n != nil && n.recvLayer.IsRecvOpen() {
		n.recvLayer.OnRecvClosed(cause)
	}
	if p.stack.network() == p {
		p.stack.fireClosed(cause)
	}
}

// DoCloseSend notifies this position's own send direction has ended and
// propagates the notification to the next lower active position.
// Idempotent.
func (p *Position) DoCloseSend() error {
	if !p.sendClosed.CompareAndSwap(false, true) {
		return nil
	}
	n := p.resolveSend()
	if n != nil && n.sendLayer.IsSendOpen() {
		return n.sendLayer.DoCloseSend()
	}
	return nil
}

// resolveRecv returns the nearest higher position that is neither removed
// nor recv-incapable, splicing past anything it skips.
func (p *Position) resolveRecv() *Position {
	s := p.stack
	s.mu.RLock()
	cur := p.nextRecv
	for cur != nil && (cur.removed.Load() || cur.recvLayer == nil) {
		cur = cur.nextRecv
	}
	skipped := cur != p.nextRecv
	s.mu.RUnlock()
	if skipped {
		s.spliceRecv(p, cur)
	}
	return cur
}

// resolveSend returns the nearest lower position that is neither removed
// nor send-incapable, splicing past anything it skips.
func (p *Position) resolveSend() *Position {
	s := p.stack
	s.mu.RLock()
	cur := p.nextSend
	for cur != nil && (cur.removed.Load() || cur.sendLayer == nil) {
		cur = cur.nextSend
	}
	skipped := cur != p.nextSend
	s.mu.RUnlock()
	if skipped {
		s.spliceSend(p, cur)
	}
	return cur
}
