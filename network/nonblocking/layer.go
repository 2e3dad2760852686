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

// Package nonblocking is the hub-registered network layer: it turns
// readiness events from an I/O hub into upward OnRecv deliveries and
// drains its outbound backlog on write-ready, never blocking a goroutine
// on socket I/O itself.
package nonblocking

import (
	"errors"
	"io"
	"net"
	"sync"

	libbuf "github.com/nabbar/remoting/buffer"
	libhub "github.com/nabbar/remoting/hub"
	libnet "github.com/nabbar/remoting/network"
	libstk "github.com/nabbar/remoting/stack"
)

// Layer is the non-blocking network layer. It satisfies stack.Layer and
// stack.SendLayer, and hub.ReadyListener.
type Layer struct {
	*libnet.Base

	mu  sync.Mutex
	tok libhub.Token
}

// New builds a non-blocking network layer over conn, registered with hub
// once the owning stack starts it.
func New(conn net.Conn, hub libhub.Hub) *Layer {
	return &Layer{Base: libnet.NewBase(conn, hub)}
}

func (l *Layer) Name() string { return "network-nonblocking" }

func (l *Layer) Init(pos *libstk.Position) error {
	l.Base.Init(pos)
	return nil
}

func (l *Layer) Start() error {
	tok, err := l.Hub.Register(l.Conn, l, false, false, true, false)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.tok = tok
	l.mu.Unlock()

	if l.HasQueued() {
		l.armWrite()
	}
	return nil
}

func (l *Layer) token() libhub.Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tok
}

func (l *Layer) armWrite() {
	if t := l.token(); t != nil {
		t.AddInterestWrite()
	}
}

// Ready implements hub.ReadyListener.
func (l *Layer) Ready(accept, connect, read, write bool) {
	if read {
		l.onReadable()
	}
	if write {
		l.onWritable()
	}
}

// onReadable runs the one read this ready event paid for. Read interest
// arrives already cleared by the hub, so the watcher will not poll again
// until this re-arms it below: that is what keeps a second Ready(read=true)
// for the same token from ever overlapping this one.
func (l *Layer) onReadable() {
	buf := l.Hub.Acquire()
	n, err := l.Conn.Read(buf.Bytes())
	if n > 0 {
		buf.SetPosition(n)
		buf.Flip()
		if pos := l.Position(); pos != nil {
			_ = pos.OnRecv(buf)
		}
	}
	l.Hub.Release(buf)

	if err != nil {
		l.closeRecv(closeCause(err))
		return
	}

	if t := l.token(); t != nil {
		t.AddInterestRead()
	}
}

// onWritable drains as much backlog as the socket accepts right now. Write
// interest arrives already cleared; it only comes back (via armWrite) if
// the backlog is not empty once this call returns, so a partial write
// re-arms and an empty one simply stays quiescent.
func (l *Layer) onWritable() {
	empty, err := l.DrainTo(l.Conn)
	if err != nil {
		l.closeRecv(closeCause(err))
		return
	}
	if !empty {
		l.armWrite()
	}
}

func closeCause(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

func (l *Layer) closeRecv(cause error) {
	if pos := l.Position(); pos != nil {
		pos.OnRecvClosed(cause)
	}
	if t := l.token(); t != nil {
		t.Unregister()
	}
}

// DoSend appends buf to the outbound backlog and arms write interest if
// the backlog was empty. It never blocks.
func (l *Layer) DoSend(buf *libbuf.Buffer) error {
	if !l.IsSendOpen() {
		return libstk.ErrClosed
	}
	wasEmpty := l.Enqueue(buf)
	if wasEmpty {
		l.armWrite()
	}
	return nil
}

// DoCloseSend half-closes the socket's write side when the platform
// supports it, and marks the layer's send direction closed either way.
func (l *Layer) DoCloseSend() error {
	l.MarkSendClosed()
	if cw, ok := l.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
