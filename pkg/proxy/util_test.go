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

package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqltap/sqltap/pkg/mysql"
)

func TestPacketClassifiers(t *testing.T) {
	ok := mysql.EncodePacket(1, (&mysql.OKResponse{}).Encode())
	require.True(t, isOKPacket(ok))
	require.False(t, isErrPacket(ok))

	e := mysql.EncodePacket(1, (&mysql.ErrResponse{Code: 1064, Message: "syntax"}).Encode())
	require.True(t, isErrPacket(e))
	require.False(t, isOKPacket(e))

	eof := mysql.EncodePacket(1, []byte{0xfe, 0x00, 0x00, 0x02, 0x00})
	require.True(t, isEOFPacket(eof))
	// an auth switch request also starts with 0xfe but is longer
	sw := mysql.EncodePacket(1, (&mysql.AuthSwitchRequest{
		PluginName: mysql.AuthNativePassword,
		Seed:       []byte("01234567890123456789"),
	}).Encode())
	require.False(t, isEOFPacket(sw))

	empty := mysql.AppendHeader(nil, 0, 0)
	require.True(t, isEmptyPacket(empty))
	require.False(t, isEmptyPacket(ok))
}

func TestPacketConversion(t *testing.T) {
	p := &mysql.Packet{Length: 3, SequenceID: 7, Payload: []byte("abc")}
	bs := packetToBytes(p)
	require.Equal(t, mysql.EncodePacket(7, []byte("abc")), bs)

	got := bytesToPacket(bs)
	require.Equal(t, p, got)

	// packets without payload still carry their header
	require.Equal(t, mysql.AppendHeader(nil, 0, 9),
		packetToBytes(&mysql.Packet{SequenceID: 9}))
	require.Nil(t, bytesToPacket([]byte{0x01}))
}
