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

// Package buffer provides the pooled byte buffer and chunked byte queue used
// by every I/O path in this module: the hub, the network layers and every
// filter share the same buffer lifecycle so that a slice of bytes crossing a
// layer boundary has one, and only one, owner at a time.
//
// A Buffer is a position/limit/capacity view over a []byte, the same shape
// as java.nio.ByteBuffer: Put appends, Flip turns a filled buffer into a
// drainable one, Get drains, Clear resets for reuse. A Pool hands out
// cleared Buffers of a fixed size and takes them back. A Queue is a FIFO of
// bytes backed by a singly linked list of fixed-size chunks, used by filters
// that must buffer application data until a handshake completes.
package buffer
