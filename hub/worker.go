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

import "sync"

// workerPool is a bounded pool of goroutines draining a job queue buffered
// to 1024 entries; submit blocks while that queue is full. It is the
// executor backing Hub.Execute.
type workerPool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = 4
	}
	p := &workerPool{
		jobs:   make(chan func(), 1024),
		closed: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.safeRun(job)
		}
	}
}

// safeRun isolates the worker goroutine from a panicking job, matching
// the hub's rule that listener exceptions must not take down the pool.
func (p *workerPool) safeRun(job func()) {
	defer func() {
		_ = recover()
	}()
	job()
}

func (p *workerPool) submit(job func()) bool {
	select {
	case <-p.closed:
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.closed:
		return false
	}
}

func (p *workerPool) stop() {
	p.once.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}
