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

package hub

import (
	"errors"

	liberr "github.com/nabbar/remoting/errors"
)

const (
	ErrorShutdown liberr.CodeError = iota + liberr.MinPkgHub
	ErrorTimeout
	ErrorRegisterClosed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorShutdown)
	liberr.RegisterIdFctMessage(ErrorShutdown, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorShutdown:
		return "hub is closed"
	case ErrorTimeout:
		return "scheduled task deadline elapsed"
	case ErrorRegisterClosed:
		return "cannot register a channel on a closed hub"
	}

	return ""
}

// ErrShutdown is returned by Register once the hub's Close has been called.
// Execute and ExecuteOnSelector return no error: after Close they drop the
// task without running it. ExecuteLater after Close returns a Timeout that
// is already cancelled.
var ErrShutdown = errors.New("hub: shutdown")
