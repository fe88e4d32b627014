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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorTypedReads(t *testing.T) {
	c := NewCursor([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	})

	v8, err := c.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x01), v8)

	v16, err := c.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0302), v16)

	v32, err := c.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x07060504), v32)

	v64, err := c.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0f0e0d0c0b0a0908), v64)

	require.Equal(t, 0, c.Remaining())
}

func TestCursorTruncatedReadKeepsOffset(t *testing.T) {
	c := NewCursor([]byte{0xaa, 0xbb, 0xcc})
	_, err := c.Uint8()
	require.NoError(t, err)
	pos := c.Pos()

	_, err = c.Uint32()
	require.ErrorIs(t, err, ErrNeedMoreData)
	require.Equal(t, pos, c.Pos())

	_, err = c.Bytes(5)
	require.ErrorIs(t, err, ErrNeedMoreData)
	require.Equal(t, pos, c.Pos())

	// the retry with enough bytes would start from the same place
	v16, err := c.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xccbb), v16)
}

func TestCursorStringNul(t *testing.T) {
	c := NewCursor([]byte("5.7.0\x00rest"))
	s, err := c.StringNul()
	require.NoError(t, err)
	require.Equal(t, "5.7.0", s)
	require.Equal(t, []byte("rest"), c.Rest())

	// no terminator means the string is still in flight
	c = NewCursor([]byte("incomplete"))
	_, err = c.StringNul()
	require.ErrorIs(t, err, ErrNeedMoreData)
	require.Equal(t, 0, c.Pos())
}

func TestCursorLenEncBytes(t *testing.T) {
	payload := AppendLenEncBytes(nil, []byte("hello"))
	c := NewCursor(payload)
	v, err := c.LenEncBytes()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)
	require.Equal(t, 0, c.Remaining())

	// declared length longer than the buffer: retry-safe
	c = NewCursor([]byte{0x05, 'h', 'i'})
	_, err = c.LenEncBytes()
	require.ErrorIs(t, err, ErrNeedMoreData)
	require.Equal(t, 0, c.Pos())
}

func TestCursorSkipAndPeek(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	require.NoError(t, c.Skip(2))

	b, err := c.Peek()
	require.NoError(t, err)
	require.Equal(t, uint8(3), b)
	require.Equal(t, 2, c.Pos())

	require.ErrorIs(t, c.Skip(2), ErrNeedMoreData)
	require.Equal(t, 2, c.Pos())
}
