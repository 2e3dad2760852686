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

package app

import (
	libstk "github.com/nabbar/remoting/stack"
)

// Layer is the contract a stack's topmost position must satisfy: it is a
// plain stack.Layer that also moves bytes in both directions. transport.Dial
// and transport.Listen accept any value satisfying Layer in place of Echo.
type Layer interface {
	libstk.Layer
	libstk.RecvLayer
	libstk.SendLayer
}

// Factory builds one Layer per accepted connection. transport.Listen calls
// it once per accepted connection so concurrent sessions never share state.
type Factory func() Layer

// Handler processes one inbound message. pos is the application's own
// Position, already open for DoSend should the handler want to reply.
type Handler interface {
	OnMessage(pos *libstk.Position, data []byte) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(pos *libstk.Position, data []byte) error

func (f HandlerFunc) OnMessage(pos *libstk.Position, data []byte) error { return f(pos, data) }
