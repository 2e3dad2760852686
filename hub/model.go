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
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	libbuf "github.com/nabbar/remoting/buffer"
	libfds "github.com/nabbar/remoting/ioutils/fileDescriptor"
)

// WatchdogEnvVar is the tunable system property controlling the selector
// watchdog wakeup interval, in milliseconds. Absent or invalid, it
// defaults to 1000ms.
const WatchdogEnvVar = "REMOTING_SELECTOR_WATCHDOG_MS"

func watchdogInterval() time.Duration {
	if v := os.Getenv(WatchdogEnvVar); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Second
}

// MinFileDescriptorEnvVar raises the process's open-file-descriptor limit
// to at least this many when a hub is constructed, since each registered
// connection holds a watcher goroutine parked on its own fd. Unset or
// non-positive, no attempt is made and the process limit is left alone.
const MinFileDescriptorEnvVar = "REMOTING_HUB_MIN_FD"

func raiseFileDescriptorLimit() {
	v := os.Getenv(MinFileDescriptorEnvVar)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	_, _, _ = libfds.SystemFileDescriptor(n)
}

type token struct {
	hub      *hubImpl
	conn     net.Conn
	watcher  *watcher
	listener ReadyListener
	removed  atomic.Bool
}

func (t *token) AddInterestAccept()     { t.change(func(a, c, r, w *bool) { *a = true }) }
func (t *token) RemoveInterestAccept()  { t.change(func(a, c, r, w *bool) { *a = false }) }
func (t *token) AddInterestConnect()    { t.change(func(a, c, r, w *bool) { *c = true }) }
func (t *token) RemoveInterestConnect() { t.change(func(a, c, r, w *bool) { *c = false }) }
func (t *token) AddInterestRead()       { t.change(func(a, c, r, w *bool) { *r = true }) }
func (t *token) RemoveInterestRead()    { t.change(func(a, c, r, w *bool) { *r = false }) }
func (t *token) AddInterestWrite()      { t.change(func(a, c, r, w *bool) { *w = true }) }
func (t *token) RemoveInterestWrite()   { t.change(func(a, c, r, w *bool) { *w = false }) }

// change applies a single interest-bit mutation on the selector goroutine,
// the Go analogue of spec's pending interest-ops queue drained each
// selector iteration.
func (t *token) change(mutate func(accept, connect, read, write *bool)) {
	t.hub.ExecuteOnSelector(func() {
		if t.removed.Load() {
			return
		}
		a, c, r, w := t.watcher.interest()
		mutate(&a, &c, &r, &w)
		t.watcher.setInterest(a, c, r, w)
	})
}

// clearDispatchedInterest drops the read/write interest bits a ready event
// is about to hand to a worker. It must only be called from the selector
// goroutine, before the event reaches dispatchReady's workers.submit: the
// watcher then leaves that condition alone until the listener re-arms it
// once its own I/O for this round has finished, which is what keeps two
// Ready calls for the same token from ever running side by side.
func (t *token) clearDispatchedInterest(read, write bool) {
	if !read && !write {
		return
	}
	a, c, r, w := t.watcher.interest()
	if read {
		r = false
	}
	if write {
		w = false
	}
	t.watcher.setInterest(a, c, r, w)
}

func (t *token) Unregister() {
	t.hub.ExecuteOnSelector(func() {
		t.hub.doUnregister(t)
	})
}

type hubImpl struct {
	pool          libbuf.Pool
	workers       *workerPool
	sched         *scheduler
	selectorTasks chan func()
	pollEvents    chan pollEvent
	closeCh       chan struct{}
	closeOnce     sync.Once
	closed        atomic.Bool
	watchdog      time.Duration

	mu    sync.Mutex
	conns map[*token]struct{}
}

// New builds a Hub with workers goroutines in its worker pool and a
// buffer pool handing out buffers of bufferSize bytes.
func New(workers, bufferSize int) Hub {
	raiseFileDescriptorLimit()

	h := &hubImpl{
		pool:          libbuf.NewPool(bufferSize, 256),
		workers:       newWorkerPool(workers),
		sched:         newScheduler(),
		selectorTasks: make(chan func(), 256),
		pollEvents:    make(chan pollEvent, 256),
		closeCh:       make(chan struct{}),
		watchdog:      watchdogInterval(),
		conns:         make(map[*token]struct{}),
	}
	go h.loop()
	return h
}

func (h *hubImpl) Acquire() *libbuf.Buffer    { return h.pool.Acquire() }
func (h *hubImpl) Release(buf *libbuf.Buffer) { h.pool.Release(buf) }

func (h *hubImpl) Execute(task func()) {
	if task == nil {
		return
	}
	if h.closed.Load() {
		return
	}
	h.workers.submit(task)
}

func (h *hubImpl) ExecuteOnSelector(task func()) {
	if task == nil {
		return
	}
	if h.closed.Load() {
		return
	}
	select {
	case h.selectorTasks <- task:
	case <-h.closeCh:
	}
}

func (h *hubImpl) ExecuteLater(task func(), delay time.Duration) Timeout {
	t := h.sched.schedule(delay, task)
	if h.closed.Load() {
		t.Cancel()
	}
	return t
}

func (h *hubImpl) Register(conn net.Conn, listener ReadyListener, accept, connect, read, write bool) (Token, error) {
	if h.closed.Load() {
		return nil, ErrShutdown
	}
	tok := &token{hub: h, conn: conn, listener: listener}
	w := newWatcher(conn, tok, h.pollEvents)
	tok.watcher = w
	w.setInterest(accept, connect, read, write)

	done := make(chan error, 1)
	ok := h.trySelectorTask(func() {
		if h.closed.Load() {
			done <- ErrShutdown
			return
		}
		h.mu.Lock()
		h.conns[tok] = struct{}{}
		h.mu.Unlock()
		go w.run()
		done <- nil
	})
	if !ok {
		return nil, ErrShutdown
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return tok, nil
}

func (h *hubImpl) trySelectorTask(task func()) bool {
	select {
	case h.selectorTasks <- task:
		return true
	case <-h.closeCh:
		return false
	}
}

func (h *hubImpl) Unregister(conn net.Conn) {
	h.mu.Lock()
	var found *token
	for tok := range h.conns {
		if tok.conn == conn {
			found = tok
			break
		}
	}
	h.mu.Unlock()
	if found != nil {
		found.Unregister()
	}
}

// doUnregister runs only on the selector goroutine.
func (h *hubImpl) doUnregister(t *token) {
	if !t.removed.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	delete(h.conns, t)
	h.mu.Unlock()
	t.watcher.stop()
}

func (h *hubImpl) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.closeCh)
		h.mu.Lock()
		for t := range h.conns {
			t.watcher.stop()
		}
		h.conns = make(map[*token]struct{})
		h.mu.Unlock()
		h.workers.stop()
		for _, t := range h.sched.popExpired(time.Now().Add(1 << 62)) {
			t.Cancel()
		}
	})
	return nil
}

func (h *hubImpl) loop() {
	wd := time.NewTicker(h.watchdog)
	defer wd.Stop()

	var errCount int
	var errWindowStart time.Time

	for {
		h.runExpiredTimers()

		if h.drainSelectorTasks() {
			select {
			case <-h.closeCh:
				return
			case ev := <-h.pollEvents:
				h.dispatchReady(ev)
			default:
			}
			continue
		}

		select {
		case <-h.closeCh:
			return
		case fn := <-h.selectorTasks:
			h.runGuarded(fn, &errCount, &errWindowStart)
		case ev := <-h.pollEvents:
			h.dispatchReady(ev)
		case <-wd.C:
		}
	}
}

func (h *hubImpl) drainSelectorTasks() bool {
	did := false
	for {
		select {
		case fn := <-h.selectorTasks:
			h.runGuarded(fn, nil, nil)
			did = true
		default:
			return did
		}
	}
}

// runGuarded runs fn inline on the selector goroutine, isolating it from
// panics (the overheat guard) so one bad listener cannot take the
// selector thread down. After a panic the selector yields; once more than
// three panics fall within a 100ms window it sleeps for 1ms instead, so it
// does not spin hot.
func (h *hubImpl) runGuarded(fn func(), errCount *int, windowStart *time.Time) {
	defer func() {
		if r := recover(); r != nil {
			if errCount == nil {
				return
			}
			now := time.Now()
			if windowStart.IsZero() || now.Sub(*windowStart) > 100*time.Millisecond {
				*windowStart = now
				*errCount = 0
			}
			*errCount++
			if *errCount > 3 {
				time.Sleep(time.Millisecond)
			} else {
				runtime.Gosched()
			}
		}
	}()
	fn()
}

// runExpiredTimers dispatches every scheduler task whose deadline has
// passed to the worker pool, skipping any that lost a race with Cancel.
func (h *hubImpl) runExpiredTimers() {
	for _, t := range h.sched.popExpired(time.Now()) {
		if !t.markFired() {
			continue
		}
		fn, done := t.fn, t.done
		h.workers.submit(func() {
			defer func() { _ = recover() }()
			fn()
			close(done)
		})
	}
}

func (h *hubImpl) dispatchReady(ev pollEvent) {
	if ev.tok.removed.Load() {
		return
	}
	ev.tok.clearDispatchedInterest(ev.read, ev.write)
	listener := ev.tok.listener
	_ = h.workers.submit(func() {
		listener.Ready(ev.accept, ev.connect, ev.read, ev.write)
	})
}
