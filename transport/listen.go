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

package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"

	libapp "github.com/nabbar/remoting/app"
	libhub "github.com/nabbar/remoting/hub"
	liblog "github.com/nabbar/remoting/logger"
	libstk "github.com/nabbar/remoting/stack"
)

// listener is the io.Closer Listen hands back. Closing it stops accepting
// new connections; connections already accepted are not closed by it.
// When Listen built the Hub itself, Close also closes that Hub, which the
// stacks of every accepted connection share.
type listener struct {
	ln     net.Listener
	hub    libhub.Hub
	owned  bool
	closed atomic.Bool
	wg     sync.WaitGroup
}

func (l *listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.ln.Close()
	l.wg.Wait()
	if l.owned {
		_ = l.hub.Close()
	}
	return err
}

// Listen accepts connections on cfg.Address/cfg.Network and, for each one,
// builds a Stack wired per cfg with a fresh application Layer from
// factory. A nil factory defaults to app.EchoFactory. Listen returns as
// soon as the net.Listener is up; accepting runs on its own goroutine
// until the returned io.Closer is closed or ctx is cancelled.
func Listen(ctx context.Context, cfg Config, factory libapp.Factory) (io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = libapp.EchoFactory
	}

	ln, err := net.Listen(cfg.Network, cfg.Address)
	if err != nil {
		return nil, errListen(err)
	}

	h, owned := cfg.hub()
	cfg.Hub = h
	log := cfg.logger()
	log.Info("transport listening", map[string]interface{}{"network": cfg.Network, "address": cfg.Address})

	l := &listener{ln: ln, hub: h, owned: owned}

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	l.wg.Add(1)
	go l.acceptLoop(cfg, factory, log)

	return l, nil
}

func (l *listener) acceptLoop(cfg Config, factory libapp.Factory, log liblog.Logger) {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.closed.Load() {
				return
			}
			log.Error("transport accept failed", map[string]interface{}{"error": err.Error()})
			return
		}

		log.Info("transport accepted connection", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		go l.serve(cfg, conn, factory(), log)
	}
}

// serve is intentionally not tracked by l.wg: Close stops the accept loop
// and returns once it has, but does not wait for already-accepted
// connections to finish their own, independent lifetimes.
func (l *listener) serve(cfg Config, conn net.Conn, application libapp.Layer, log liblog.Logger) {
	remote := conn.RemoteAddr().String()

	listenerHook := libstk.ListenerFunc(func(s *libstk.Stack, cause error) {
		if cause != nil {
			log.Error("transport connection closed", map[string]interface{}{"remote": remote, "error": cause.Error()})
		} else {
			log.Info("transport connection closed", map[string]interface{}{"remote": remote})
		}
	})

	s, _, _ := cfg.buildStack("accept:"+remote, conn, application, listenerHook)

	if err := s.Init(); err != nil {
		log.Error("transport stack init failed", map[string]interface{}{"remote": remote, "error": err.Error()})
		_ = conn.Close()
		return
	}
	if err := s.Start(); err != nil {
		log.Error("transport stack start failed", map[string]interface{}{"remote": remote, "error": err.Error()})
		_ = conn.Close()
		return
	}

	log.Info("transport stack started", map[string]interface{}{"remote": remote})
}
