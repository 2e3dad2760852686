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

package stack

import "sync"

// Stack composes a network layer, an ordered sequence of filters, and an
// application layer into one pipeline. Each Stack owns its own start
// barrier and close notification - there is no process-wide instance.
type Stack struct {
	name      string
	positions []*Position
	listener  Listener

	mu sync.RWMutex

	startedCh   chan struct{}
	startedOnce sync.Once
	closedOnce  sync.Once
}

// New builds a Stack named name from a network layer, zero or more filters
// in wire order, and an application layer, linking their positions.
func New(name string, network Layer, filters []Layer, application Layer, listener Listener) *Stack {
	s := &Stack{
		name:      name,
		listener:  listener,
		startedCh: make(chan struct{}),
	}

	layers := make([]Layer, 0, len(filters)+2)
	layers = append(layers, network)
	layers = append(layers, filters...)
	layers = append(layers, application)

	s.positions = make([]*Position, len(layers))
	for i, l := range layers {
		s.positions[i] = newPosition(s, l)
	}
	for i, p := range s.positions {
		if i > 0 {
			p.nextSend = s.positions[i-1]
		}
		if i < len(s.positions)-1 {
			p.nextRecv = s.positions[i+1]
		}
	}
	return s
}

// Name returns the stack's name.
func (s *Stack) Name() string { return s.name }

// Positions returns the stack's positions in network-to-application order.
// The slice itself must not be mutated; use Position.Remove to retire one.
func (s *Stack) Positions() []*Position {
	out := make([]*Position, len(s.positions))
	copy(out, s.positions)
	return out
}

func (s *Stack) network() *Position {
	if len(s.positions) == 0 {
		return nil
	}
	return s.positions[0]
}

// Init walks every position low-to-high, calling each layer's Init.
func (s *Stack) Init() error {
	for _, p := range s.positions {
		if err := p.layer.Init(p); err != nil {
			return err
		}
	}
	return nil
}

// Start walks every position low-to-high, calling each layer's Start. If a
// layer's Start fails, the stack propagates OnRecvClosed(cause) to the
// next higher position before returning the error. The start barrier is
// closed whether Start succeeds or fails, so anything waiting on Started
// is never stuck.
func (s *Stack) Start() error {
	defer s.startedOnce.Do(func() { close(s.startedCh) })

	for _, p := range s.positions {
		if err := p.layer.Start(); err != nil {
			if n := p.resolveRecv(); n != nil && n.recvLayer.IsRecvOpen() {
				n.recvLayer.OnRecvClosed(err)
			}
			return err
		}
	}
	return nil
}

// Started is closed once Start has returned, successfully or not. Layers
// that spawn their own tasks during Start (a blocking reader, say) use it
// to wait until every layer has finished initializing.
func (s *Stack) Started() <-chan struct{} {
	return s.startedCh
}

func (s *Stack) fireClosed(cause error) {
	s.closedOnce.Do(func() {
		if s.listener != nil {
			s.listener.OnClosed(s, cause)
		}
	})
}

// spliceRecv re-walks from's nextRecv chain under the write lock and pins
// the shortcut found by a concurrent resolveRecv. target is the value the
// caller observed under the read lock; re-walking here guards against a
// second removal racing in between.
func (s *Stack) spliceRecv(from, target *Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := from.nextRecv
	for cur != nil && (cur.removed.Load() || cur.recvLayer == nil) {
		cur = cur.nextRecv
	}
	from.nextRecv = cur
}

func (s *Stack) spliceSend(from, target *Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := from.nextSend
	for cur != nil && (cur.removed.Load() || cur.sendLayer == nil) {
		cur = cur.nextSend
	}
	from.nextSend = cur
}
