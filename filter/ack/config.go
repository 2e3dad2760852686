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

package ack

import "time"

// DefaultSentinel is the three-byte ASCII "ACK" sequence sent in both
// directions when Config.Sentinel is left empty.
var DefaultSentinel = []byte{0x41, 0x43, 0x4B}

// DefaultTimeout is used when Config.Timeout is zero or negative.
const DefaultTimeout = 10 * time.Second

// Config configures a Filter. Sentinel is compared byte for byte in both
// directions; peers that disagree on it must use matching configuration.
type Config struct {
	Sentinel []byte        `mapstructure:"sentinel" json:"sentinel" yaml:"sentinel" toml:"sentinel"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" toml:"timeout"`
}

func (c Config) sentinel() []byte {
	if len(c.Sentinel) == 0 {
		return DefaultSentinel
	}
	return c.Sentinel
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
