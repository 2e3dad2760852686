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
	libbuf "github.com/nabbar/remoting/buffer"
	libstk "github.com/nabbar/remoting/stack"
)

// NewEcho builds an App whose Handler sends every received message straight
// back down the stack it came from. It is used by the other packages' tests
// and is transport.Listen's default application when a caller gives it no
// Factory of its own.
func NewEcho() *App {
	return New("echo", HandlerFunc(func(pos *libstk.Position, data []byte) error {
		out := libbuf.New(len(data))
		out.Put(data)
		out.Flip()
		return pos.DoSend(out)
	}))
}

// EchoFactory is a ready-made Factory producing a fresh NewEcho Layer for
// every accepted connection.
func EchoFactory() Layer { return NewEcho() }
