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
	"net"
	"time"

	libapp "github.com/nabbar/remoting/app"
	liback "github.com/nabbar/remoting/filter/ack"
	libhdr "github.com/nabbar/remoting/filter/header"
	libtls "github.com/nabbar/remoting/filter/tlsfilter"
	libhub "github.com/nabbar/remoting/hub"
	libnbk "github.com/nabbar/remoting/network/blocking"
	libnnb "github.com/nabbar/remoting/network/nonblocking"
	libstk "github.com/nabbar/remoting/stack"
)

// filters returns the configured filters in wire order: TLS nearest the
// network (everything above it deals only in plaintext), then the header
// exchange, then the ACK handshake nearest the application.
func (c Config) filters(h libhub.Hub) []libstk.Layer {
	var out []libstk.Layer
	if c.TLS != nil {
		out = append(out, libtls.New(*c.TLS, h))
	}
	if c.Header != nil {
		out = append(out, libhdr.New(*c.Header, h))
	}
	if c.Ack != nil {
		out = append(out, liback.New(*c.Ack, h))
	}
	return out
}

func (c Config) network(conn net.Conn, h libhub.Hub) libstk.Layer {
	if c.NonBlocking {
		return libnnb.New(conn, h)
	}
	return libnbk.New(conn, h)
}

// buildStack assembles conn into a named Stack using cfg's filters and the
// given application layer. If cfg.IdleTimeout is positive, conn carries
// that deadline until the stack finishes starting every layer, armed and
// cleared here rather than inside the network layer so the guard applies
// equally to Dial and Listen and to every filter in between.
func (c Config) buildStack(name string, conn net.Conn, application libapp.Layer, listener libstk.Listener) (*libstk.Stack, libhub.Hub, bool) {
	h, owned := c.hub()

	if d := c.idleTimeout(); d > 0 {
		_ = conn.SetDeadline(time.Now().Add(d))
	}

	s := libstk.New(name, c.network(conn, h), c.filters(h), application, listener)

	if d := c.idleTimeout(); d > 0 {
		go func() {
			<-s.Started()
			_ = conn.SetDeadline(time.Time{})
		}()
	}

	return s, h, owned
}
