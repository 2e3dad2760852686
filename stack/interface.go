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

import (
	libbuf "github.com/nabbar/remoting/buffer"
)

// RecvLayer is implemented by layers that accept data travelling upward,
// from the network toward the application.
type RecvLayer interface {
	// OnRecv delivers buf to this layer. The layer owns buf for the
	// duration of the call and must not retain it afterward.
	OnRecv(buf *libbuf.Buffer) error
	// OnRecvClosed notifies the layer that no further OnRecv will occur.
	// Idempotent: only the first call has any effect.
	OnRecvClosed(cause error)
	// IsRecvOpen reports whether OnRecv may still be called.
	IsRecvOpen() bool
}

// SendLayer is implemented by layers that accept data travelling downward,
// from the application toward the network.
type SendLayer interface {
	// DoSend delivers buf to this layer, which takes ownership of it.
	DoSend(buf *libbuf.Buffer) error
	// DoCloseSend notifies the layer to close its send direction.
	// Idempotent: only the first call has any effect.
	DoCloseSend() error
	// IsSendOpen reports whether DoSend may still be called.
	IsSendOpen() bool
}

// Layer is the minimal contract every stack member implements. A layer
// implements RecvLayer, SendLayer, or both, discovered via type assertion -
// the network layer and the application layer implement both; most filters
// do too, but a layer is free to be one-directional.
type Layer interface {
	// Init is called once, low-to-high, before Start, with this layer's
	// Position in the owning Stack.
	Init(pos *Position) error
	// Start is called once, low-to-high, after every layer has been
	// initialized.
	Start() error
	// Name identifies the layer for diagnostics.
	Name() string
}

// Listener is notified exactly once when a stack's receive direction has
// finally closed, network layer included.
type Listener interface {
	OnClosed(s *Stack, cause error)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(s *Stack, cause error)

func (f ListenerFunc) OnClosed(s *Stack, cause error) { f(s, cause) }
