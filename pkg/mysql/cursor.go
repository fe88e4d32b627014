// Copyright 2024 - 2025 SQLTap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

import "bytes"

// Cursor is a non-owning reader over a packet payload. Every read either
// succeeds and advances the offset past the bytes it consumed, or fails
// and leaves the offset exactly where it was, so a read that returned
// ErrNeedMoreData can be retried after the caller appended more bytes.
//
// The cursor never copies the underlying slice. Byte-slice results alias
// the payload and are only valid while the payload is.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current offset from the start of the payload.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, ErrNeedMoreData
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// Uint16 reads a 2-byte little-endian integer.
func (c *Cursor) Uint16() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, ErrNeedMoreData
	}
	p := c.data[c.pos:]
	v := uint16(p[0]) | uint16(p[1])<<8
	c.pos += 2
	return v, nil
}

// Uint24 reads a 3-byte little-endian integer into the low bits of a uint32.
func (c *Cursor) Uint24() (uint32, error) {
	if c.Remaining() < 3 {
		return 0, ErrNeedMoreData
	}
	p := c.data[c.pos:]
	v := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	c.pos += 3
	return v, nil
}

// Uint32 reads a 4-byte little-endian integer.
func (c *Cursor) Uint32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, ErrNeedMoreData
	}
	p := c.data[c.pos:]
	v := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
	c.pos += 4
	return v, nil
}

// Uint64 reads an 8-byte little-endian integer.
func (c *Cursor) Uint64() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, ErrNeedMoreData
	}
	p := c.data[c.pos:]
	v := uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24 |
		uint64(p[4])<<32 | uint64(p[5])<<40 | uint64(p[6])<<48 | uint64(p[7])<<56
	c.pos += 8
	return v, nil
}

// Bytes reads exactly n bytes. The result aliases the payload.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrMalformed
	}
	if c.Remaining() < n {
		return nil, ErrNeedMoreData
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// StringNul reads up to, and consumes, the next NUL byte. The terminator
// is not part of the result. A payload with no NUL left is treated as
// truncated, not malformed.
func (c *Cursor) StringNul() (string, error) {
	idx := bytes.IndexByte(c.data[c.pos:], 0)
	if idx < 0 {
		return "", ErrNeedMoreData
	}
	v := string(c.data[c.pos : c.pos+idx])
	c.pos += idx + 1
	return v, nil
}

// Skip advances past n bytes without reading them.
func (c *Cursor) Skip(n int) error {
	if n < 0 {
		return ErrMalformed
	}
	if c.Remaining() < n {
		return ErrNeedMoreData
	}
	c.pos += n
	return nil
}

// Rest consumes and returns everything left in the payload. Reading the
// rest of an already exhausted payload yields an empty slice, not an error.
func (c *Cursor) Rest() []byte {
	v := c.data[c.pos:]
	c.pos = len(c.data)
	return v
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, ErrNeedMoreData
	}
	return c.data[c.pos], nil
}

// LenEncInt reads a length-encoded integer, see DecodeLenEncInt for the
// wire format.
func (c *Cursor) LenEncInt() (uint64, error) {
	v, n, err := DecodeLenEncInt(c.data[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// LenEncBytes reads a length-encoded integer followed by that many bytes.
func (c *Cursor) LenEncBytes() ([]byte, error) {
	start := c.pos
	n, err := c.LenEncInt()
	if err != nil {
		return nil, err
	}
	if n > uint64(c.Remaining()) {
		c.pos = start
		return nil, ErrNeedMoreData
	}
	v := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return v, nil
}
