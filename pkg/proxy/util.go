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
	"github.com/sqltap/sqltap/pkg/mysql"
)

// isOKPacket returns true if the framed packet is an OK packet.
func isOKPacket(p []byte) bool {
	return len(p) > mysql.HeaderLength && p[mysql.HeaderLength] == mysql.OKHeader
}

// isErrPacket returns true if the framed packet is an ERR packet.
func isErrPacket(p []byte) bool {
	return len(p) > mysql.HeaderLength && p[mysql.HeaderLength] == mysql.ErrHeader
}

// isEOFPacket returns true if the framed packet is an EOF packet.
// EOF packets are at most 9 bytes, anything longer starting with 0xfe
// is a result row or an auth switch request.
func isEOFPacket(p []byte) bool {
	return len(p) > mysql.HeaderLength && len(p) <= mysql.HeaderLength+5 &&
		p[mysql.HeaderLength] == mysql.EOFHeader
}

// isEmptyPacket returns true if the packet has a header and no payload.
func isEmptyPacket(p []byte) bool {
	return len(p) == mysql.HeaderLength
}

// packetToBytes convert Packet to bytes.
func packetToBytes(p *mysql.Packet) []byte {
	if p == nil || len(p.Payload) == 0 {
		return makeEmptyPacket(p)
	}
	return mysql.EncodePacket(p.SequenceID, p.Payload)
}

// bytesToPacket convert bytes to Packet.
func bytesToPacket(bs []byte) *mysql.Packet {
	p, _, err := mysql.DecodePacket(bs)
	if err != nil {
		return nil
	}
	return p
}

func makeEmptyPacket(p *mysql.Packet) []byte {
	var seq uint8
	if p != nil {
		seq = p.SequenceID
	}
	return mysql.AppendHeader(nil, 0, seq)
}
