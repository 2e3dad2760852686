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
	"net"

	libapp "github.com/nabbar/remoting/app"
	libstk "github.com/nabbar/remoting/stack"
)

// Dial connects to cfg.Address over cfg.Network, wires the configured
// filters around it and hands the plaintext to application. The returned
// Stack is already Init'd and Start'd; Dial returns once every layer's
// Start has run, which for the TLS/header/ack filters is before their
// own negotiation completes - that negotiation continues in the
// background and DoSend on the topmost position simply queues until it
// finishes.
func Dial(ctx context.Context, cfg Config, application libapp.Layer) (*libstk.Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.dialTimeout()}
	conn, err := dialer.DialContext(ctx, cfg.Network, cfg.Address)
	if err != nil {
		return nil, errDial(err)
	}

	log := cfg.logger()
	log.Info("transport dial connected", map[string]interface{}{"network": cfg.Network, "address": cfg.Address})

	s, h, owned := cfg.buildStack("dial:"+cfg.Address, conn, application, nil)

	if err = s.Init(); err != nil {
		_ = conn.Close()
		if owned {
			_ = h.Close()
		}
		return nil, errDial(err)
	}

	if err = s.Start(); err != nil {
		_ = conn.Close()
		if owned {
			_ = h.Close()
		}
		return nil, errDial(err)
	}

	// A self-owned Hub lives as long as the process: Dial's signature
	// returns only the Stack, with no Close hook to drain it through.
	// Callers that care about the Hub's lifecycle should set cfg.Hub
	// themselves and close it once every Stack built from it is done.
	_ = owned

	return s, nil
}
