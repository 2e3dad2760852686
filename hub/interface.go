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

package hub

import (
	"net"
	"time"

	libbuf "github.com/nabbar/remoting/buffer"
)

// ReadyListener is bound to a registered connection and notified whenever
// the selector observes one or more of the four operations it is
// interested in.
type ReadyListener interface {
	Ready(accept, connect, read, write bool)
}

// ReadyFunc adapts a plain function to ReadyListener.
type ReadyFunc func(accept, connect, read, write bool)

func (f ReadyFunc) Ready(accept, connect, read, write bool) { f(accept, connect, read, write) }

// Token is returned by Register and lets the owner adjust its interest
// set or unregister. Every method is safe to call from any goroutine.
type Token interface {
	AddInterestAccept()
	RemoveInterestAccept()
	AddInterestConnect()
	RemoveInterestConnect()
	AddInterestRead()
	RemoveInterestRead()
	AddInterestWrite()
	RemoveInterestWrite()
	Unregister()
}

// Timeout is a cancellable, future-returning scheduled task handle.
type Timeout interface {
	// Cancel prevents the task from running if it has not started yet.
	// Cancellation after the task has begun executing is a no-op. It
	// returns true if the cancellation actually prevented execution.
	Cancel() bool
	// Done is closed once the task has run or been cancelled.
	Done() <-chan struct{}
}

// Hub multiplexes readiness events for many connections on one selector
// goroutine, schedules delayed tasks with millisecond precision, and
// dispatches both to a bounded worker pool.
type Hub interface {
	// Execute enqueues task on the worker pool, unordered with respect to
	// other Execute calls.
	Execute(task func())
	// ExecuteOnSelector enqueues task to run inline on the selector
	// goroutine before its next iteration.
	ExecuteOnSelector(task func())
	// ExecuteLater schedules task to run once after delay, dispatched to
	// the worker pool when it fires.
	ExecuteLater(task func(), delay time.Duration) Timeout
	// Register attaches listener to conn with the given initial interest
	// mask. The returned Token lets the caller adjust that interest set.
	Register(conn net.Conn, listener ReadyListener, accept, connect, read, write bool) (Token, error)
	// Unregister cancels conn's registration and detaches its listener.
	Unregister(conn net.Conn)
	// Acquire returns a cleared buffer from the hub's pool.
	Acquire() *libbuf.Buffer
	// Release returns buf to the hub's pool.
	Release(buf *libbuf.Buffer)
	// Close shuts the selector down. Pending Timeouts are cancelled and
	// any blocked callers receive ErrShutdown.
	Close() error
}
