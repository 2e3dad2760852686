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

// Package blocking is the goroutine-pair network layer: one reader task
// blocked in Conn.Read for the life of the stack, and a writer task
// spawned on demand whenever the outbound backlog transitions from empty
// to non-empty, grounded on this module's own goroutine-per-connection
// handler style.
package blocking

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

// Layer is the blocking network layer. It satisfies stack.Layer and
// stack.SendLayer.
type Layer struct {
	*libnet.Base

	writerMu      sync.Mutex
	writerRunning bool
}

// New builds a blocking network layer over conn. hub is used only for its
// buffer pool; no registration with the selector ever happens.
func New(conn net.Conn, hub libhub.Hub) *Layer {
	return &Layer{Base: libnet.NewBase(conn, hub)}
}

func (l *Layer) Name() string { return "network-blocking" }

func (l *Layer) Init(pos *libstk.Position) error {
	l.Base.Init(pos)
	return nil
}

// Start launches the reader task. It waits for the stack's start barrier
// before its first read so every layer has finished Start first.
func (l *Layer) Start() error {
	pos := l.Position()
	go l.readLoop(pos)
	if l.HasQueued() {
		l.spawnWriter()
	}
	return nil
}

func (l *Layer) readLoop(pos *libstk.Position) {
	if pos != nil {
		<-pos.Stack().Started()
	}

	for {
		buf := l.Hub.Acquire()
		n, err := l.Conn.Read(buf.Bytes())
		if n > 0 {
			buf.SetPosition(n)
			buf.Flip()
			if pos != nil {
				_ = pos.OnRecv(buf)
			}
		}
		l.Hub.Release(buf)

		if err != nil {
			if pos != nil {
				pos.OnRecvClosed(closeCause(err))
			}
			return
		}
	}
}

func closeCause(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

// DoSend appends buf to the outbound backlog, spawning the writer task if
// none is currently running. Before Init the backlog is only queued; Start
// spawns the writer for it.
func (l *Layer) DoSend(buf *libbuf.Buffer) error {
	if !l.IsSendOpen() {
		return libstk.ErrClosed
	}
	wasEmpty := l.Enqueue(buf)
	if wasEmpty && l.Position() != nil {
		l.spawnWriter()
	}
	return nil
}

func (l *Layer) spawnWriter() {
	l.writerMu.Lock()
	if l.writerRunning {
		l.writerMu.Unlock()
		return
	}
	l.writerRunning = true
	l.writerMu.Unlock()
	go l.writeLoop()
}

func (l *Layer) writeLoop() {
	defer func() {
		l.writerMu.Lock()
		l.writerRunning = false
		l.writerMu.Unlock()
	}()

	for {
		empty, err := l.DrainTo(l.Conn)
		if err != nil {
			if pos := l.Position(); pos != nil {
				pos.OnRecvClosed(closeCause(err))
			}
			return
		}
		if empty {
			return
		}
	}
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
