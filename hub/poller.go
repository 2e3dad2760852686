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

//go:build unix

package hub

import (
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// pollEvent is what a per-connection watcher reports back to the selector
// goroutine; it is never touched outside that goroutine once received.
type pollEvent struct {
	tok     *token
	accept  bool
	connect bool
	read    bool
	write   bool
}

// watcher is this module's selector entry for one registered connection.
// There is no portable way to epoll an arbitrary net.Conn from outside the
// runtime, so instead of reimplementing one, the watcher rides the
// runtime's own netpoller (which is epoll on Linux, kqueue on BSD/Darwin):
// it asks the connection's raw fd whether it is readable with a
// MSG_PEEK recv, which blocks inside the runtime poller — cheaply, no OS
// thread spent — until data is actually available, and never consumes the
// bytes it sees. Write readiness is treated as immediate: TCP send
// buffers are almost always writable, and genuine backpressure surfaces
// to the network layer as a short write or EAGAIN at the moment it
// actually writes.
type watcher struct {
	conn   net.Conn
	raw    syscall.RawConn
	tok    *token
	events chan<- pollEvent
	stopCh chan struct{}
	stopOn sync.Once
	mu     sync.RWMutex
	accept bool
	connt  bool
	read   bool
	write  bool
}

// pollRecheckInterval bounds how long the watcher can be parked waiting
// for readability before it wakes to notice a stop request or an
// interest change (e.g. RemoveInterestRead).
const pollRecheckInterval = 200 * time.Millisecond

func newWatcher(conn net.Conn, tok *token, events chan<- pollEvent) *watcher {
	w := &watcher{
		conn:   conn,
		tok:    tok,
		events: events,
		stopCh: make(chan struct{}),
	}
	if sc, ok := conn.(syscall.Conn); ok {
		if raw, err := sc.SyscallConn(); err == nil {
			w.raw = raw
		}
	}
	return w
}

func (w *watcher) setInterest(accept, connt, read, write bool) {
	w.mu.Lock()
	w.accept, w.connt, w.read, w.write = accept, connt, read, write
	w.mu.Unlock()
}

func (w *watcher) interest() (accept, connt, read, write bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.accept, w.connt, w.read, w.write
}

func (w *watcher) stop() {
	w.stopOn.Do(func() { close(w.stopCh) })
}

func (w *watcher) run() {
	// accept/connect are already true by the time a net.Conn exists in
	// Go: net.Dial blocks until connected and net.Listener.Accept blocks
	// until a peer arrives, so both are reported once, immediately,
	// rather than polled for.
	if accept, connt, _, _ := w.interest(); accept || connt {
		if !w.emit(pollEvent{tok: w.tok, accept: accept, connect: connt}) {
			return
		}
	}

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		_, _, wantRead, wantWrite := w.interest()

		if wantWrite {
			if !w.emit(pollEvent{tok: w.tok, write: true}) {
				return
			}
		}

		if !wantRead {
			select {
			case <-w.stopCh:
				return
			case <-time.After(pollRecheckInterval):
				continue
			}
		}

		ready, stop := w.waitReadable()
		if stop {
			return
		}
		if ready {
			if !w.emit(pollEvent{tok: w.tok, read: true}) {
				return
			}
		}
	}
}

// waitReadable blocks (via the runtime poller, not an OS thread) until the
// connection has bytes to read, hits EOF, or pollRecheckInterval elapses,
// whichever comes first. ready is true in both the data-available and the
// EOF case: either way the network layer's own Read will observe the
// right outcome without this watcher ever consuming a byte.
func (w *watcher) waitReadable() (ready bool, stop bool) {
	if w.raw == nil {
		// No raw-fd access (e.g. a net.Pipe half): fall back to a short
		// deadline read-probe on a throwaway buffer of length zero, which
		// net.Conn implementations treat as a pure readiness wait.
		_ = w.conn.SetReadDeadline(time.Now().Add(pollRecheckInterval))
		_, err := w.conn.Read(nil)
		_ = w.conn.SetReadDeadline(time.Time{})
		if err == nil {
			return true, false
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false, false
		}
		return true, false
	}

	_ = w.conn.SetReadDeadline(time.Now().Add(pollRecheckInterval))
	defer w.conn.SetReadDeadline(time.Time{})

	var buf [1]byte
	var gotReady, gotEOF bool
	_ = w.raw.Read(func(fd uintptr) bool {
		n, _, errno := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK)
		if errno == unix.EAGAIN || errno == unix.EWOULDBLOCK {
			return false
		}
		if errno != nil {
			gotReady = true
			return true
		}
		if n == 0 {
			gotEOF = true
		}
		gotReady = true
		return true
	})

	select {
	case <-w.stopCh:
		return false, true
	default:
	}

	return gotReady || gotEOF, false
}

func (w *watcher) emit(ev pollEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.stopCh:
		return false
	}
}
