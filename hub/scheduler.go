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
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// timerTask is one entry in the scheduler's min-heap, ordered by absolute
// deadline as required by spec (a Timeout handle compared by deadline).
type timerTask struct {
	deadline time.Time
	fn       func()
	index    int
	done     chan struct{}
	fired    int32
	started  int32
}

func (t *timerTask) Cancel() bool {
	if !atomic.CompareAndSwapInt32(&t.started, 0, 1) {
		return false
	}
	if atomic.CompareAndSwapInt32(&t.fired, 0, 1) {
		close(t.done)
		return true
	}
	return false
}

func (t *timerTask) Done() <-chan struct{} {
	return t.done
}

// markFired transitions the task into "ready to run" state. It returns
// false if the task was already cancelled.
func (t *timerTask) markFired() bool {
	return atomic.CompareAndSwapInt32(&t.fired, 0, 1)
}

type timerHeap []*timerTask

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*timerTask)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// scheduler is the hub's delayed-task queue: a min-heap guarded by a
// mutex, drained by the selector goroutine each iteration.
type scheduler struct {
	mu sync.Mutex
	h  timerHeap
}

func newScheduler() *scheduler {
	s := &scheduler{}
	heap.Init(&s.h)
	return s
}

func (s *scheduler) schedule(delay time.Duration, fn func()) *timerTask {
	t := &timerTask{deadline: time.Now().Add(delay), fn: fn, done: make(chan struct{})}
	s.mu.Lock()
	heap.Push(&s.h, t)
	s.mu.Unlock()
	return t
}

// popExpired removes and returns every task whose deadline is not after
// now. Cancelled tasks are returned too; the caller skips them through
// markFired.
func (s *scheduler) popExpired(now time.Time) []*timerTask {
	var out []*timerTask
	s.mu.Lock()
	for s.h.Len() > 0 && !s.h[0].deadline.After(now) {
		t := heap.Pop(&s.h).(*timerTask)
		out = append(out, t)
	}
	s.mu.Unlock()
	return out
}

// nextDeadline returns the deadline of the earliest pending task and true,
// or the zero time and false if the scheduler is empty.
func (s *scheduler) nextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h.Len() == 0 {
		return time.Time{}, false
	}
	return s.h[0].deadline, true
}
