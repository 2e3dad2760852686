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
	"sync"
	"sync/atomic"

	libbuf "github.com/nabbar/remoting/buffer"
	libstk "github.com/nabbar/remoting/stack"
)

// App is the generic topmost layer: every inbound message is handed to a
// Handler, and DoSend/DoCloseSend simply relay downward since nothing sits
// above the application in a Stack. It satisfies Layer.
type App struct {
	name string
	h    Handler
	pos  *libstk.Position

	recvOpen atomic.Bool

	sendLock sync.Mutex
	sendOpen bool
}

// New builds an App that dispatches every received message to h.
func New(name string, h Handler) *App {
	a := &App{name: name, h: h, sendOpen: true}
	a.recvOpen.Store(true)
	return a
}

func (a *App) Name() string { return a.name }

func (a *App) Init(pos *libstk.Position) error {
	a.pos = pos
	return nil
}

func (a *App) Start() error { return nil }

// OnRecv hands data to the Handler. The buffer is only valid for the
// duration of the call, so the bytes are copied before the Handler
// (which may run asynchronously relative to the network's read loop)
// ever sees them.
func (a *App) OnRecv(buf *libbuf.Buffer) error {
	if !a.recvOpen.Load() {
		return nil
	}
	data := append([]byte(nil), buf.Bytes()...)
	return a.h.OnMessage(a.pos, data)
}

// OnRecvClosed is monotonic: only the first call has any effect.
func (a *App) OnRecvClosed(cause error) {
	a.recvOpen.Store(false)
}

func (a *App) IsRecvOpen() bool { return a.recvOpen.Load() }

// DoSend relays buf toward the network; there is nothing above the
// application to gate on, so this is a direct pass-through.
func (a *App) DoSend(buf *libbuf.Buffer) error {
	return a.pos.DoSend(buf)
}

func (a *App) DoCloseSend() error {
	a.sendLock.Lock()
	open := a.sendOpen
	a.sendOpen = false
	a.sendLock.Unlock()
	if !open {
		return nil
	}
	return a.pos.DoCloseSend()
}

func (a *App) IsSendOpen() bool {
	a.sendLock.Lock()
	defer a.sendLock.Unlock()
	return a.sendOpen
}
