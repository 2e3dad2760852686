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

import (
	"fmt"

	liberr "github.com/nabbar/remoting/errors"
)

const (
	ErrorMismatch liberr.CodeError = iota + liberr.MinPkgFilterAck
	ErrorTimeout
	ErrorAborted
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorMismatch)
	liberr.RegisterIdFctMessage(ErrorMismatch, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorMismatch:
		return "connection refused: ack sentinel mismatch"
	case ErrorTimeout:
		return "connection refused: ack timeout"
	case ErrorAborted:
		return "connection refused: ack filter aborted"
	}

	return ""
}

func errMismatch(index int, observed, expected byte) error {
	return liberr.New(ErrorMismatch.Uint16(), fmt.Sprintf(
		"connection refused: ack mismatch at byte %d: observed 0x%02X expected 0x%02X",
		index, observed, expected,
	))
}

func errTimeout() error {
	return liberr.New(ErrorTimeout.Uint16(), getMessage(ErrorTimeout))
}

func errAborted() error {
	return liberr.New(ErrorAborted.Uint16(), getMessage(ErrorAborted))
}
