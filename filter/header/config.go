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

package header

import "time"

// DefaultTimeout is used when Config.Timeout is zero or negative, both for
// the overall handshake deadline and for the aborting sub-state's
// confirmation wait.
const DefaultTimeout = 10 * time.Second

// Listener decides whether to accept the remote peer's header. Returning
// nil accepts. Returning a Transient or Permanent error refuses with that
// reason; any other error is reported to the peer as a transient refusal
// carrying the error's message.
type Listener interface {
	OnReceiveHeaders(headers map[string]string) error
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(headers map[string]string) error

func (f ListenerFunc) OnReceiveHeaders(headers map[string]string) error { return f(headers) }

// acceptAll is used when Config.Listener is nil.
var acceptAll = ListenerFunc(func(map[string]string) error { return nil })

// Config configures a Filter.
type Config struct {
	Headers  map[string]string `mapstructure:"headers" json:"headers" yaml:"headers" toml:"headers"`
	Listener Listener          `mapstructure:"-" json:"-" yaml:"-" toml:"-"`
	Timeout  time.Duration     `mapstructure:"timeout" json:"timeout" yaml:"timeout" toml:"timeout"`
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
