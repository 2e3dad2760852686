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
	"fmt"

	liberr "github.com/nabbar/remoting/errors"
)

const (
	ErrorConfigInvalid liberr.CodeError = iota + liberr.MinPkgTransport
	ErrorDial
	ErrorListen
	ErrorAccept
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorConfigInvalid)
	liberr.RegisterIdFctMessage(ErrorConfigInvalid, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorConfigInvalid:
		return "transport config is invalid"
	case ErrorDial:
		return "transport dial failed"
	case ErrorListen:
		return "transport listen failed"
	case ErrorAccept:
		return "transport accept failed"
	}

	return ""
}

func errConfigInvalid(cause error) error {
	return liberr.New(ErrorConfigInvalid.Uint16(), fmt.Sprintf("%s: %s", getMessage(ErrorConfigInvalid), cause))
}

func errDial(cause error) error {
	return liberr.New(ErrorDial.Uint16(), fmt.Sprintf("%s: %s", getMessage(ErrorDial), cause))
}

func errListen(cause error) error {
	return liberr.New(ErrorListen.Uint16(), fmt.Sprintf("%s: %s", getMessage(ErrorListen), cause))
}
