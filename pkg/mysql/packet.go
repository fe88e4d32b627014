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

// HeaderLength is the size of the packet header: 3-byte little-endian
// payload length plus 1-byte sequence id.
const HeaderLength = 4

// MaxPayloadLength is the largest payload a single frame can carry; a
// logical packet of this size continues in the next frame.
const MaxPayloadLength = 1<<24 - 1

// Packet is one framed protocol packet.
type Packet struct {
	Length     int32
	SequenceID uint8
	Payload    []byte
}

// DecodeHeader reads a packet header from the start of p. The byte
// split is done by hand since the length and sequence share a 32-bit
// word only by convention, not by host layout.
func DecodeHeader(p []byte) (length int32, seq uint8, err error) {
	if len(p) < HeaderLength {
		return 0, 0, ErrNeedMoreData
	}
	length = int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
	seq = p[3]
	return length, seq, nil
}

// AppendHeader appends a 4-byte packet header to dst.
func AppendHeader(dst []byte, length int32, seq uint8) []byte {
	return append(dst, byte(length), byte(length>>8), byte(length>>16), seq)
}

// DecodePacket reads one complete frame from the start of p and returns
// it with the number of bytes consumed. The payload aliases p.
func DecodePacket(p []byte) (*Packet, int, error) {
	length, seq, err := DecodeHeader(p)
	if err != nil {
		return nil, 0, err
	}
	total := HeaderLength + int(length)
	if len(p) < total {
		return nil, 0, ErrNeedMoreData
	}
	return &Packet{
		Length:     length,
		SequenceID: seq,
		Payload:    p[HeaderLength:total],
	}, total, nil
}

// AppendPacket appends the framed encoding of payload to dst.
func AppendPacket(dst []byte, seq uint8, payload []byte) []byte {
	dst = AppendHeader(dst, int32(len(payload)), seq)
	return append(dst, payload...)
}

// EncodePacket frames payload into a fresh buffer.
func EncodePacket(seq uint8, payload []byte) []byte {
	return AppendPacket(make([]byte, 0, HeaderLength+len(payload)), seq, payload)
}
