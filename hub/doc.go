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

// Package hub implements the I/O hub: one selector goroutine that
// multiplexes readiness across every registered connection, a min-heap
// timer scheduler for delayed tasks, and a bounded worker pool that runs
// ready handlers, scheduled tasks and selector-queued continuations.
//
// The selector goroutine never itself does blocking socket I/O; readiness
// detection is delegated to one watcher goroutine per registered
// connection, the idiomatic Go substitute for an OS selector (see
// newWatcher in poller.go). Everything else — the registration queue, the
// interest-change queue, the selector-task queue and the scheduled-task
// heap — is drained by the single selector goroutine in the order
// described by the module's design: registrations, then interest
// changes, then selector tasks, then a poll for ready events, with
// expired timers dispatched first each iteration.
package hub
