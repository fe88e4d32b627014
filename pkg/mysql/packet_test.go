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

func TestHeaderRoundTrip(t *testing.T) {
	for _, c := range []struct {
		length int32
		seq    uint8
	}{
		{0, 0},
		{1, 1},
		{0xABCDEF, 0x7f},
		{MaxPayloadLength, 255},
	} {
		enc := AppendHeader(nil, c.length, c.seq)
		require.Len(t, enc, HeaderLength)
		length, seq, err := DecodeHeader(enc)
		require.NoError(t, err)
		require.Equal(t, c.length, length)
		require.Equal(t, c.seq, seq)
	}
}

func TestHeaderShortBuffer(t *testing.T) {
	_, _, err := DecodeHeader([]byte{0x01, 0x00})
	require.ErrorIs(t, err, ErrNeedMoreData)
}

func TestDecodePacket(t *testing.T) {
	frame := EncodePacket(3, []byte("abc"))
	pkt, n, err := DecodePacket(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)
	require.Equal(t, int32(3), pkt.Length)
	require.Equal(t, uint8(3), pkt.SequenceID)
	require.Equal(t, []byte("abc"), pkt.Payload)

	// header complete, body still in flight
	_, _, err = DecodePacket(frame[:5])
	require.ErrorIs(t, err, ErrNeedMoreData)
}
