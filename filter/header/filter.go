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

import (
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
	liberr "github.com/nabbar/remoting/errors"
	libhub "github.com/nabbar/remoting/hub"
	libstk "github.com/nabbar/remoting/stack"
)

type recvState int

const (
	stateHeaderLen recvState = iota
	stateHeaderContent
	stateResponseLen
	stateResponseContent
	stateAbortingBye
	stateDone
)

// byeToken is sent raw, with no length prefix, to confirm that a refusal
// has been seen and the connection can be torn down.
var byeToken = []byte("BYE")

// Filter is the connection-header filter. It satisfies stack.Layer,
// stack.RecvLayer and stack.SendLayer.
type Filter struct {
	hub libhub.Hub
	cfg Config
	pos *libstk.Position

	ownHeader []byte

	sendLock  sync.Mutex
	sendQueue *libbuf.Queue
	sendOpen  bool

	recvLock    sync.Mutex
	recvOpen    bool
	state       recvState
	acc         accumulator
	ownDecision error

	aborted    atomic.Bool
	abortCause atomic.Value

	timeout libhub.Timeout
}

// New builds a connection-header filter driven by hub's scheduler for its
// handshake and bye-confirmation deadlines.
func New(cfg Config, hub libhub.Hub) *Filter {
	return &Filter{
		hub:       hub,
		cfg:       cfg,
		sendQueue: libbuf.NewQueue(libbuf.DefaultChunkSize),
		sendOpen:  true,
		recvOpen:  true,
	}
}

func (f *Filter) Name() string { return "header" }

func (f *Filter) Init(pos *libstk.Position) error {
	f.pos = pos
	return nil
}

// Start encodes this side's own headers and sends them downward immediately,
// then arms the handshake timeout.
func (f *Filter) Start() error {
	content, err := encodeProperties(f.cfg.Headers)
	if err != nil {
		return err
	}
	f.ownHeader = content

	f.recvLock.Lock()
	f.acc.reset(2)
	f.recvLock.Unlock()

	f.timeout = f.hub.ExecuteLater(f.onTimeout, f.cfg.timeout())
	return f.sendFramed(content)
}

func (f *Filter) onTimeout() {
	f.recvLock.Lock()
	done := f.state == stateDone
	f.recvLock.Unlock()
	if done {
		return
	}
	f.abort(errTimeout())
}

func frameOf(content []byte) *libbuf.Buffer {
	b := libbuf.New(2 + len(content))
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(content)))
	b.Put(l[:])
	b.Put(content)
	b.Flip()
	return b
}

func (f *Filter) sendFramed(content []byte) error {
	return f.pos.DoSend(frameOf(content))
}

func (f *Filter) sendRaw(content []byte) error {
	return f.pos.DoSend(libbuf.Wrap(append([]byte(nil), content...)))
}

// DoSend queues buf until the handshake has completed successfully, then
// forwards straight through. Once completed this filter has removed itself
// from the stack and DoSend is no longer reached for new calls.
func (f *Filter) DoSend(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}

	f.recvLock.Lock()
	ready := f.state == stateDone
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

// OnRecv drives the receive side of the handshake state machine, one byte
// at a time, until either the handshake completes (and this filter removes
// itself from the stack) or it aborts.
func (f *Filter) OnRecv(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}

	f.recvLock.Lock()
	for {
		if f.state == stateDone {
			aborted := f.aborted.Load()
			f.recvLock.Unlock()
			if !aborted && buf.HasRemaining() {
				return f.pos.OnRecv(buf)
			}
			return nil
		}

		if f.acc.done() {
			if err := f.completeFrame(); err != nil {
				f.recvLock.Unlock()
				return err
			}
			continue
		}

		if !buf.HasRemaining() {
			break
		}

		b := buf.Bytes()[0]
		buf.SetPosition(buf.Position() + 1)

		if f.acc.feed(b) {
			if err := f.completeFrame(); err != nil {
				f.recvLock.Unlock()
				return err
			}
		}
	}
	f.recvLock.Unlock()
	return nil
}

// completeFrame is called with recvLock held, once the accumulator for the
// current state has the bytes it needs.
func (f *Filter) completeFrame() error {
	switch f.state {
	case stateHeaderLen:
		n := f.acc.u16()
		f.state = stateHeaderContent
		f.acc.reset(int(n))

	case stateHeaderContent:
		content := append([]byte(nil), f.acc.bytes()...)
		headers, err := parseProperties(content)
		if err != nil {
			f.ownDecision = err
		} else {
			f.ownDecision = f.cfg.listener().OnReceiveHeaders(headers)
		}
		if err := f.sendFramed([]byte(responseWire(f.ownDecision))); err != nil {
			return err
		}
		f.state = stateResponseLen
		f.acc.reset(2)

	case stateResponseLen:
		n := f.acc.u16()
		f.state = stateResponseContent
		f.acc.reset(int(n))

	case stateResponseContent:
		resp := string(f.acc.bytes())
		return f.onRemoteResponse(resp)

	case stateAbortingBye:
		f.finishAbortingLocked(f.ownCauseLocked())
	}
	return nil
}

// onRemoteResponse is called with recvLock held, once the remote's response
// to our own header has fully arrived.
func (f *Filter) onRemoteResponse(resp string) error {
	if f.ownDecision == nil {
		if resp == "OK" {
			f.completeSuccessLocked()
			return nil
		}
		cause := remoteRefusalCause(resp)
		if cause == nil {
			cause = errMalformed()
		}
		_ = f.sendRaw(byeToken)
		f.finishAbortingLocked(cause)
		return nil
	}

	f.state = stateAbortingBye
	f.acc.reset(len(byeToken))

	f.recvLock.Unlock()
	if f.timeout != nil {
		f.timeout.Cancel()
	}
	f.timeout = f.hub.ExecuteLater(f.onTimeout, f.cfg.timeout())
	f.recvLock.Lock()
	return nil
}

func (f *Filter) ownCauseLocked() error {
	return ownRefusalCause(f.ownDecision)
}

// completeSuccessLocked marks the handshake as finished, flushes any
// application bytes queued during the handshake, and removes this filter
// from the stack so later traffic bypasses it entirely.
func (f *Filter) completeSuccessLocked() {
	f.state = stateDone
	if f.timeout != nil {
		f.timeout.Cancel()
	}
	f.flushSendQueue()
	f.pos.Remove()
}

func (f *Filter) flushSendQueue() {
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
}

// finishAbortingLocked is called with recvLock held, and must release it
// before calling abort so abort's own propagation (which does not touch
// recvLock) cannot be observed as still "in the handshake" by a concurrent
// caller of IsRecvOpen/IsSendOpen.
func (f *Filter) finishAbortingLocked(cause error) {
	f.state = stateDone
	f.recvLock.Unlock()
	f.abort(cause)
	f.recvLock.Lock()
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
	return errMalformed()
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

// responseWire renders decision as the wire text sent back to the peer in
// reply to its header: "OK" on acceptance, "ERROR: <reason>" for a
// transient refusal, "FATAL: <reason>" for a permanent one.
func responseWire(decision error) string {
	if decision == nil {
		return "OK"
	}
	var perm *permanentRefusal
	if errors.As(decision, &perm) {
		return "FATAL: " + perm.reason
	}
	var trans *transientRefusal
	if errors.As(decision, &trans) {
		return "ERROR: " + trans.reason
	}
	return "ERROR: " + decision.Error()
}

// remoteRefusalCause turns the remote's non-OK response text into an error,
// or nil if resp is not a recognized refusal (a malformed response).
func remoteRefusalCause(resp string) error {
	switch {
	case strings.HasPrefix(resp, "FATAL: "):
		return liberr.New(ErrorRefusedPermanent.Uint16(), getMessage(ErrorRefusedPermanent)+": "+strings.TrimPrefix(resp, "FATAL: "))
	case strings.HasPrefix(resp, "ERROR: "):
		return liberr.New(ErrorRefusedTransient.Uint16(), getMessage(ErrorRefusedTransient)+": "+strings.TrimPrefix(resp, "ERROR: "))
	default:
		return nil
	}
}

// ownRefusalCause turns this side's own listener decision into the cause
// reported to the application once the peer's bye confirmation arrives.
func ownRefusalCause(decision error) error {
	if decision == nil {
		return errMalformed()
	}
	var perm *permanentRefusal
	if errors.As(decision, &perm) {
		return liberr.New(ErrorRefusedPermanent.Uint16(), getMessage(ErrorRefusedPermanent)+": "+perm.reason)
	}
	var trans *transientRefusal
	if errors.As(decision, &trans) {
		return liberr.New(ErrorRefusedTransient.Uint16(), getMessage(ErrorRefusedTransient)+": "+trans.reason)
	}
	return liberr.New(ErrorRefusedTransient.Uint16(), getMessage(ErrorRefusedTransient)+": "+decision.Error())
}
