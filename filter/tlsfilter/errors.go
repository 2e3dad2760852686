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
	"fmt"

	liberr "github.com/nabbar/remoting/errors"
)

const (
	ErrorHandshake liberr.CodeError = iota + liberr.MinPkgFilterTLS
	ErrorHandshakeTimeout
	ErrorRejected
	ErrorClosed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorHandshake)
	liberr.RegisterIdFctMessage(ErrorHandshake, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorHandshake:
		return "TLS handshake failed"
	case ErrorHandshakeTimeout:
		return "TLS handshake timed out"
	case ErrorRejected:
		return "TLS session rejected by listener"
	case ErrorClosed:
		return "TLS session closed"
	}

	return ""
}

func errHandshake(cause error) error {
	return liberr.New(ErrorHandshake.Uint16(), fmt.Sprintf("%s: %s", getMessage(ErrorHandshake), cause))
}

func errHandshakeTimeout() error {
	return liberr.New(ErrorHandshakeTimeout.Uint16(), getMessage(ErrorHandshakeTimeout))
}

func errRejected(cause error) error {
	return liberr.New(ErrorRejected.Uint16(), fmt.Sprintf("%s: %s", getMessage(ErrorRejected), cause))
}

func errClosed() error {
	return liberr.New(ErrorClosed.Uint16(), getMessage(ErrorClosed))
}
