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

package tlsfilter

import (
	"crypto/tls"
	"time"

	libcrt "github.com/nabbar/remoting/certificates"
)

// DefaultTimeout bounds how long the handshake may take before the filter
// aborts the position.
const DefaultTimeout = 15 * time.Second

// DefaultPumpChunkSize is the size of the intermediate buffer used to drain
// ciphertext out of the internal pipe toward the network layer.
const DefaultPumpChunkSize = 16 * 1024

// Listener is given the peer's negotiated TLS state once the handshake
// completes, and may still refuse the session (e.g. for a client
// certificate it does not recognize).
type Listener interface {
	OnHandshakeComplete(state tls.ConnectionState) error
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(state tls.ConnectionState) error

func (f ListenerFunc) OnHandshakeComplete(state tls.ConnectionState) error { return f(state) }

var acceptAll = ListenerFunc(func(tls.ConnectionState) error { return nil })

// Config configures a Filter.
type Config struct {
	// TLSConfig supplies the certificates and cipher policy. See the
	// certificates package for construction helpers.
	TLSConfig libcrt.TLSConfig

	// ServerName is passed to TLSConfig.TLS to select the certificate
	// chain and is used as the TLS client's expected server name.
	ServerName string

	// IsClient selects tls.Client over tls.Server.
	IsClient bool

	// Listener is consulted once the handshake itself succeeds. A nil
	// Listener accepts every session the TLS handshake accepts.
	Listener Listener

	// Timeout bounds the handshake. Defaults to DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify is only consulted when TLSConfig is nil; it lets a
	// client dial a peer without a trust anchor for it (internal service
	// mesh links, local loop tests). Ignored once a real TLSConfig is set,
	// whose own root pool governs verification.
	InsecureSkipVerify bool
}

func (c Config) listener() Listener {
	if c.Listener == nil {
		return acceptAll
	}
	return c.Listener
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) tlsConfig() *tls.Config {
	if c.TLSConfig == nil {
		return &tls.Config{ServerName: c.ServerName, InsecureSkipVerify: c.InsecureSkipVerify}
	}
	return c.TLSConfig.TLS(c.ServerName)
}
