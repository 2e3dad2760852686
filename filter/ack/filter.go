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

package ack

import (
	"sync"
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
	libhub "github.com/nabbar/remoting/hub"
	libstk "github.com/nabbar/remoting/stack"
)

// Filter is the ACK filter. It satisfies stack.Layer, stack.RecvLayer and
// stack.SendLayer.
type Filter struct {
	hub  libhub.Hub
	cfg  Config
	pos  *libstk.Position
	sent []byte
	want []byte

	sendLock  sync.Mutex
	sendQueue *libbuf.Queue
	sendOpen  bool

	recvLock sync.Mutex
	recvGot  []byte
	recvOpen bool
	recvDone bool

	aborted    atomic.Bool
	abortCause atomic.Value

	timeout libhub.Timeout
}

// New builds an ACK filter driven by hub's scheduler for its handshaking
// deadline.
func New(cfg Config, hub libhub.Hub) *Filter {
	return &Filter{
		hub:       hub,
		cfg:       cfg,
		sent:      cfg.sentinel(),
		want:      cfg.sentinel(),
		sendQueue: libbuf.NewQueue(libbuf.DefaultChunkSize),
		sendOpen:  true,
		recvOpen:  true,
	}
}

func (f *Filter) Name() string { return "ack" }

func (f *Filter) Init(pos *libstk.Position) error {
	f.pos = pos
	return nil
}

// Start schedules the handshaking timeout and pushes this side's sentinel
// downward unconditionally; application bytes stay queued until the peer's
// sentinel has been validated.
func (f *Filter) Start() error {
	f.timeout = f.hub.ExecuteLater(f.onTimeout, f.cfg.timeout())
	return f.pos.DoSend(libbuf.Wrap(f.sent))
}

func (f *Filter) onTimeout() {
	f.recvLock.Lock()
	done := f.recvDone
	f.recvLock.Unlock()
	if done {
		return
	}
	f.abort(errTimeout())
}

// DoSend queues buf until this side's own recv validation of the peer's
// sentinel has completed, then forwards straight through.
func (f *Filter) DoSend(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}

	f.recvLock.Lock()
	ready := f.recvDone
	f.recvLock.Unlock()

	if ready {
		return f.pos.DoSend(buf)
	}

	f.sendLock.Lock()
	f.sendQueue.PutBuffer(buf)
	f.sendLock.Unlock()
	return nil
}

func (f *Filter) DoCloseSend() error {
	f.sendLock.Lock()
	open := f.sendOpen
	f.sendOpen = false
	f.sendLock.Unlock()
	if !open {
		return nil
	}
	return f.pos.DoCloseSend()
}

func (f *Filter) IsSendOpen() bool {
	if f.aborted.Load() {
		return false
	}
	f.sendLock.Lock()
	defer f.sendLock.Unlock()
	return f.sendOpen
}

// OnRecv consumes bytes into the expected sentinel until it is complete,
// aborting on the first mismatching byte; once complete it flushes the
// queued outbound backlog and forwards any leftover bytes of buf upward.
func (f *Filter) OnRecv(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}

	f.recvLock.Lock()
	if f.recvDone {
		f.recvLock.Unlock()
		return f.pos.OnRecv(buf)
	}

	for buf.HasRemaining() && len(f.recvGot) < len(f.want) {
		b := buf.Bytes()
		c := b[0]
		buf.SetPosition(buf.Position() + 1)

		idx := len(f.recvGot)
		if c != f.want[idx] {
			f.recvLock.Unlock()
			err := errMismatch(idx, c, f.want[idx])
			f.abort(err)
			return err
		}
		f.recvGot = append(f.recvGot, c)
	}

	if len(f.recvGot) < len(f.want) {
		f.recvLock.Unlock()
		return nil
	}

	f.recvDone = true
	f.recvLock.Unlock()

	if f.timeout != nil {
		f.timeout.Cancel()
	}

	f.sendLock.Lock()
	for {
		qb := f.sendQueue.GetBuffer(-1)
		if qb == nil {
			break
		}
		f.sendLock.Unlock()
		if err := f.pos.DoSend(qb); err != nil {
			f.sendLock.Lock()
			break
		}
		f.sendLock.Lock()
	}
	f.sendLock.Unlock()

	if buf.HasRemaining() {
		return f.pos.OnRecv(buf)
	}
	return nil
}

func (f *Filter) OnRecvClosed(cause error) {
	f.recvLock.Lock()
	f.recvOpen = false
	f.recvLock.Unlock()
	if f.timeout != nil {
		f.timeout.Cancel()
	}
	f.pos.OnRecvClosed(cause)
}

func (f *Filter) IsRecvOpen() bool {
	if f.aborted.Load() {
		return false
	}
	f.recvLock.Lock()
	defer f.recvLock.Unlock()
	return f.recvOpen
}

func (f *Filter) cause() error {
	if c, ok := f.abortCause.Load().(error); ok {
		return c
	}
	return errAborted()
}

// abort is terminal: IsRecvOpen and IsSendOpen return false forever after.
func (f *Filter) abort(cause error) {
	if !f.aborted.CompareAndSwap(false, true) {
		return
	}
	f.abortCause.Store(cause)
	if f.timeout != nil {
		f.timeout.Cancel()
	}
	f.pos.OnRecvClosed(cause)
	_ = f.pos.DoCloseSend()
}
