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
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fagongzi/goetty/v2/buf"
	"github.com/fagongzi/goetty/v2/codec"

	"github.com/sqltap/sqltap/pkg/mysql"
)

// mysqlCodec splits the inbound byte stream into whole MySQL frames for
// the accept and dial sessions. Decoded messages are *mysql.Packet;
// Encode accepts *mysql.Packet or raw pre-framed []byte.
type mysqlCodec struct{}

// NewMySQLCodec creates a codec for goetty sessions carrying MySQL
// traffic.
func NewMySQLCodec() codec.Codec {
	return &mysqlCodec{}
}

func (c *mysqlCodec) Decode(in *buf.ByteBuf) (interface{}, bool, error) {
	data := in.RawBuf()[in.GetReadIndex():in.GetWriteIndex()]
	pkt, n, err := mysql.DecodePacket(data)
	if err != nil {
		if mysql.IsNeedMoreData(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// detach the payload from the read buffer before the index moves
	payload := make([]byte, len(pkt.Payload))
	copy(payload, pkt.Payload)
	pkt.Payload = payload
	in.SetReadIndex(in.GetReadIndex() + n)
	return pkt, true, nil
}

func (c *mysqlCodec) Encode(data interface{}, out *buf.ByteBuf, _ io.Writer) error {
	var framed []byte
	switch data := data.(type) {
	case *mysql.Packet:
		framed = packetToBytes(data)
	case []byte:
		framed = data
	default:
		return errors.Newf("unsupported message type %T", data)
	}

	index := out.GetWriteIndex()
	out.Grow(len(framed))
	copy(out.RawBuf()[index:], framed)
	out.SetWriteIndex(index + len(framed))
	return nil
}
