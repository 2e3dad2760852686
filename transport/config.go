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
	"time"

	libval "github.com/go-playground/validator/v10"

	libdur "github.com/nabbar/remoting/duration"
	liback "github.com/nabbar/remoting/filter/ack"
	libhdr "github.com/nabbar/remoting/filter/header"
	libtls "github.com/nabbar/remoting/filter/tlsfilter"
	libhub "github.com/nabbar/remoting/hub"
	liblog "github.com/nabbar/remoting/logger"
)

// DefaultDialTimeout bounds how long Dial waits for the TCP/unix connect
// itself, before any filter even starts negotiating.
const DefaultDialTimeout = 10 * time.Second

// DefaultHubWorkers and DefaultHubBufferSize size the Hub Config builds
// for itself when the caller supplies none of its own.
const (
	DefaultHubWorkers    = 4
	DefaultHubBufferSize = 32 * 1024
)

// Config describes one endpoint of a transport connection, dialed or
// listened on. Network/Address follow net.Dial's conventions ("tcp",
// "tcp4", "tcp6", "unix" with a matching address). The three filter
// sub-configs are optional: a nil pointer omits that filter from the
// stack entirely, so a Config with every filter nil yields a bare
// network-to-application pipe.
type Config struct {
	Network string `validate:"required" mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address string `validate:"required" mapstructure:"address" json:"address" yaml:"address" toml:"address"`

	// NonBlocking selects the event-loop network layer (network/nonblocking)
	// over the one-goroutine-per-connection one (network/blocking).
	NonBlocking bool `mapstructure:"nonBlocking" json:"nonBlocking" yaml:"nonBlocking" toml:"nonBlocking"`

	DialTimeout libdur.Duration `mapstructure:"dialTimeout" json:"dialTimeout" yaml:"dialTimeout" toml:"dialTimeout"`

	// IdleTimeout, when positive, is set as the connection's deadline from
	// the moment it is dialed/accepted until every layer has finished
	// Start - a connection whose filters never finish negotiating within
	// this window is dropped by the network layer's own read error path.
	IdleTimeout libdur.Duration `mapstructure:"idleTimeout" json:"idleTimeout" yaml:"idleTimeout" toml:"idleTimeout"`

	TLS    *libtls.Config `validate:"-" mapstructure:"-" json:"-" yaml:"-" toml:"-"`
	Header *libhdr.Config `validate:"-" mapstructure:"-" json:"-" yaml:"-" toml:"-"`
	Ack    *liback.Config `validate:"-" mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// Hub is reused across every stack Dial/Listen builds from this Config.
	// A nil Hub is built once from HubWorkers/HubBufferSize and owned by
	// whatever Dial/Listen call created it.
	Hub libhub.Hub `validate:"-" mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	HubWorkers    int `mapstructure:"hubWorkers" json:"hubWorkers" yaml:"hubWorkers" toml:"hubWorkers"`
	HubBufferSize int `mapstructure:"hubBufferSize" json:"hubBufferSize" yaml:"hubBufferSize" toml:"hubBufferSize"`

	// Logger receives one structured entry per listen, dial, accept, stack
	// start or start failure, and per closed accepted connection. A nil
	// Logger builds
	// its own from context.Background at the default level.
	Logger liblog.Logger `validate:"-" mapstructure:"-" json:"-" yaml:"-" toml:"-"`
}

// Validate checks the struct tags above; it never inspects Hub, TLS,
// Header, Ack or Logger, which are validated by their own packages.
func (c Config) Validate() error {
	if er := libval.New().Struct(c); er != nil {
		return errConfigInvalid(er)
	}
	return nil
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return DefaultDialTimeout
	}
	return c.DialTimeout.Time()
}

func (c Config) idleTimeout() time.Duration {
	return c.IdleTimeout.Time()
}

func (c Config) hubWorkers() int {
	if c.HubWorkers <= 0 {
		return DefaultHubWorkers
	}
	return c.HubWorkers
}

func (c Config) hubBufferSize() int {
	if c.HubBufferSize <= 0 {
		return DefaultHubBufferSize
	}
	return c.HubBufferSize
}

func (c Config) hub() (libhub.Hub, bool) {
	if c.Hub != nil {
		return c.Hub, false
	}
	return libhub.New(c.hubWorkers(), c.hubBufferSize()), true
}

func (c Config) logger() liblog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return liblog.New(context.Background())
}
