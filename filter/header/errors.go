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

import (
	liberr "github.com/nabbar/remoting/errors"
)

const (
	ErrorMalformed liberr.CodeError = iota + liberr.MinPkgFilterHead
	ErrorTimeout
	ErrorRefusedTransient
	ErrorRefusedPermanent
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorMalformed)
	liberr.RegisterIdFctMessage(ErrorMalformed, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorMalformed:
		return "Malformed connection header"
	case ErrorTimeout:
		return "connection refused: header handshake timeout"
	case ErrorRefusedTransient:
		return "connection refused"
	case ErrorRefusedPermanent:
		return "connection refused permanently"
	}

	return ""
}

// transientRefusal is returned by a Listener to refuse the remote header
// while leaving the door open for a future reconnect.
type transientRefusal struct{ reason string }

func (e *transientRefusal) Error() string { return e.reason }

// Transient builds a refusal that the filter reports to the peer as
// "ERROR: <reason>".
func Transient(reason string) error { return &transientRefusal{reason: reason} }

// permanentRefusal is returned by a Listener to refuse the remote header
// with no expectation of a future retry succeeding.
type permanentRefusal struct{ reason string }

func (e *permanentRefusal) Error() string { return e.reason }

// Permanent builds a refusal that the filter reports to the peer as
// "FATAL: <reason>".
func Permanent(reason string) error { return &permanentRefusal{reason: reason} }

func errTimeout() error {
	return liberr.New(ErrorTimeout.Uint16(), getMessage(ErrorTimeout))
}

func errMalformed() error {
	return liberr.New(ErrorMalformed.Uint16(), getMessage(ErrorMalformed))
}
