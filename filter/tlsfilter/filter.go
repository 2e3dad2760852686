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

package tlsfilter

import (
	"crypto/tls"
	"io"
	"net"
	"sync"
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
	libhub "github.com/nabbar/remoting/hub"
	libstk "github.com/nabbar/remoting/stack"
)

type sessionState int32

const (
	stateHandshaking sessionState = iota
	stateEstablished
	stateTornDown
)

// Filter wraps a position's bytes in a TLS session. It satisfies
// stack.Layer, stack.RecvLayer and stack.SendLayer.
type Filter struct {
	hub libhub.Hub
	cfg Config
	pos *libstk.Position

	// raw is our end of the in-process pipe; inner is tls.Conn's end.
	raw   net.Conn
	inner net.Conn
	tconn *tls.Conn

	state atomic.Int32

	sendLock  sync.Mutex
	sendQueue *libbuf.Queue
	sendOpen  bool

	recvOpen atomic.Bool

	aborted    atomic.Bool
	abortCause atomic.Value

	timeout libhub.Timeout

	closeOnce sync.Once
}

// New builds a TLS filter. The handshake begins once Start is called and
// runs on its own goroutine so OnRecv/DoSend never block on the network's
// dispatch goroutine for the handshake's duration.
func New(cfg Config, hub libhub.Hub) *Filter {
	raw, inner := net.Pipe()

	f := &Filter{
		hub:       hub,
		cfg:       cfg,
		raw:       raw,
		inner:     inner,
		sendQueue: libbuf.NewQueue(libbuf.DefaultChunkSize),
		sendOpen:  true,
	}
	f.recvOpen.Store(true)

	if cfg.IsClient {
		f.tconn = tls.Client(inner, cfg.tlsConfig())
	} else {
		f.tconn = tls.Server(inner, cfg.tlsConfig())
	}
	return f
}

func (f *Filter) Name() string { return "tls" }

func (f *Filter) Init(pos *libstk.Position) error {
	f.pos = pos
	return nil
}

// Start arms the handshake timeout, launches the ciphertext-drain pump (raw
// side -> network) and the handshake/plaintext-read pump (tls.Conn -> app).
func (f *Filter) Start() error {
	f.timeout = f.hub.ExecuteLater(f.onTimeout, f.cfg.timeout())
	go f.pumpCiphertextOut()
	go f.runHandshakeAndRead()
	return nil
}

func (f *Filter) onTimeout() {
	if sessionState(f.state.Load()) == stateHandshaking {
		f.abort(errHandshakeTimeout())
	}
}

// pumpCiphertextOut drains whatever the tls.Conn writes to its pipe (its
// handshake flight or encrypted application data) and forwards it downward
// toward the network layer.
func (f *Filter) pumpCiphertextOut() {
	buf := libbuf.New(DefaultPumpChunkSize)
	for {
		buf.Clear()
		n, err := f.raw.Read(buf.Bytes())
		if n > 0 {
			buf.SetPosition(n)
			buf.Flip()
			out := libbuf.New(n)
			out.Put(buf.Bytes())
			out.Flip()
			if sendErr := f.pos.DoSend(out); sendErr != nil {
				f.abort(sendErr)
				return
			}
			if n == buf.Cap() {
				buf = buf.Grow()
			}
		}
		if err != nil {
			if !f.aborted.Load() && sessionState(f.state.Load()) != stateTornDown {
				f.abort(errClosed())
			}
			return
		}
	}
}

// runHandshakeAndRead performs the handshake, consults the listener, then
// loops decrypting application data for as long as the session lives.
func (f *Filter) runHandshakeAndRead() {
	if err := f.tconn.Handshake(); err != nil {
		f.abort(errHandshake(err))
		return
	}

	if f.timeout != nil {
		f.timeout.Cancel()
	}

	if err := f.cfg.listener().OnHandshakeComplete(f.tconn.ConnectionState()); err != nil {
		f.abort(errRejected(err))
		return
	}

	f.state.Store(int32(stateEstablished))
	f.flushSendQueue()

	buf := libbuf.New(DefaultPumpChunkSize)
	for {
		buf.Clear()
		n, err := f.tconn.Read(buf.Bytes())
		if n > 0 {
			buf.SetPosition(n)
			buf.Flip()
			in := libbuf.New(n)
			in.Put(buf.Bytes())
			in.Flip()
			if recvErr := f.pos.OnRecv(in); recvErr != nil {
				f.abort(recvErr)
				return
			}
			if n == buf.Cap() {
				buf = buf.Grow()
			}
		}
		if err != nil {
			if err == io.EOF {
				f.teardown(io.EOF)
			} else {
				f.abort(errClosed())
			}
			return
		}
	}
}

// OnRecv feeds raw bytes coming up from the network into the TLS session;
// the handshake or read pump on the other end of the pipe drains it.
func (f *Filter) OnRecv(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}
	if _, err := f.raw.Write(buf.Bytes()); err != nil {
		f.abort(errClosed())
		return err
	}
	return nil
}

func (f *Filter) OnRecvClosed(cause error) {
	f.recvOpen.Store(false)
	_ = f.raw.Close()
	f.teardown(cause)
}

func (f *Filter) IsRecvOpen() bool {
	return f.recvOpen.Load() && !f.aborted.Load()
}

// DoSend queues buf until the handshake is established, then hands it to
// tls.Conn.Write, which the ciphertext pump drains downward.
func (f *Filter) DoSend(buf *libbuf.Buffer) error {
	if f.aborted.Load() {
		return f.cause()
	}
	if sessionState(f.state.Load()) != stateEstablished {
		f.sendLock.Lock()
		f.sendQueue.PutBuffer(buf)
		f.sendLock.Unlock()
		return nil
	}
	_, err := f.tconn.Write(buf.Bytes())
	return err
}

func (f *Filter) flushSendQueue() {
	f.sendLock.Lock()
	for {
		qb := f.sendQueue.GetBuffer(-1)
		if qb == nil {
			break
		}
		f.sendLock.Unlock()
		if _, err := f.tconn.Write(qb.Bytes()); err != nil {
			f.sendLock.Lock()
			break
		}
		f.sendLock.Lock()
	}
	f.sendLock.Unlock()
}

// DoCloseSend sends a close_notify and propagates the shutdown downward.
func (f *Filter) DoCloseSend() error {
	f.sendLock.Lock()
	open := f.sendOpen
	f.sendOpen = false
	f.sendLock.Unlock()
	if !open {
		return nil
	}
	_ = f.tconn.CloseWrite()
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

func (f *Filter) cause() error {
	if c, ok := f.abortCause.Load().(error); ok {
		return c
	}
	return errClosed()
}

// teardown ends the session without treating it as a handshake/protocol
// failure: the remote went away, or this side's own recv direction closed.
func (f *Filter) teardown(cause error) {
	f.closeOnce.Do(func() {
		f.state.Store(int32(stateTornDown))
		if f.timeout != nil {
			f.timeout.Cancel()
		}
		_ = f.inner.Close()
		f.pos.OnRecvClosed(cause)
		_ = f.pos.DoCloseSend()
	})
}

// abort is terminal and reports cause to both directions.
func (f *Filter) abort(cause error) {
	if !f.aborted.CompareAndSwap(false, true) {
		return
	}
	f.abortCause.Store(cause)
	f.state.Store(int32(stateTornDown))
	if f.timeout != nil {
		f.timeout.Cancel()
	}
	_ = f.inner.Close()
	_ = f.raw.Close()
	f.pos.OnRecvClosed(cause)
	_ = f.pos.DoCloseSend()
}
