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
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqltap/sqltap/pkg/mysql"
)

func testObserver() *observer {
	return newObserver(zap.NewNop(), newCounterSet())
}

func TestMsgBufPreRecv(t *testing.T) {
	defer leaktest.AfterTest(t)()

	frame := mysql.EncodePacket(0, []byte("hello"))
	b := newMsgBuf("test", bytes.NewReader(frame), 0, mysql.ClientToServer, testObserver())

	size, err := b.preRecv()
	require.NoError(t, err)
	require.Equal(t, len(frame), size)
}

func TestMsgBufReceive(t *testing.T) {
	defer leaktest.AfterTest(t)()

	var stream []byte
	stream = append(stream, mysql.EncodePacket(0, []byte("first"))...)
	stream = append(stream, mysql.EncodePacket(1, []byte("second"))...)
	b := newMsgBuf("test", bytes.NewReader(stream), 0, mysql.ClientToServer, testObserver())

	msg, err := b.receive()
	require.NoError(t, err)
	require.Equal(t, []byte("first"), msg[mysql.HeaderLength:])

	msg, err = b.receive()
	require.NoError(t, err)
	require.Equal(t, []byte("second"), msg[mysql.HeaderLength:])

	_, err = b.receive()
	require.ErrorIs(t, err, io.EOF)
}

func TestMsgBufSendTo(t *testing.T) {
	defer leaktest.AfterTest(t)()

	ob := testObserver()
	frame := mysql.EncodePacket(0, append([]byte{byte(mysql.COM_QUERY)}, "select 1"...))
	b := newMsgBuf("test", bytes.NewReader(frame), 0, mysql.ClientToServer, ob)

	var dst bytes.Buffer
	require.NoError(t, b.sendTo(&dst))
	require.Equal(t, frame, dst.Bytes())

	// the observer saw the packet before it was forwarded
	packets, bs := ob.stats(mysql.ClientToServer)
	require.Equal(t, uint64(1), packets)
	require.Equal(t, uint64(len(frame)), bs)
}

func TestMsgBufSendToBigPacket(t *testing.T) {
	defer leaktest.AfterTest(t)()

	// a packet larger than the whole buffer must still be forwarded
	payload := make([]byte, defaultBufLen+defaultExtraBufLen+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := mysql.EncodePacket(0, payload)

	ob := testObserver()
	// push the observer into the command phase so the oversized frame
	// is legal traffic
	ob.sess.Downgrade()

	b := newMsgBuf("test", bytes.NewReader(frame), 0, mysql.ClientToServer, ob)
	var dst bytes.Buffer
	require.NoError(t, b.sendTo(&dst))
	require.Equal(t, frame, dst.Bytes())
}

func TestMySQLConnOverPipe(t *testing.T) {
	defer leaktest.AfterTest(t)()

	local, remote := net.Pipe()
	defer func() {
		_ = local.Close()
		_ = remote.Close()
	}()

	conn := newMySQLConn("client", local, 0, mysql.ClientToServer, testObserver())
	frame := mysql.EncodePacket(3, []byte("abc"))
	go func() {
		_, _ = remote.Write(frame)
	}()

	msg, err := conn.receive()
	require.NoError(t, err)
	require.Equal(t, frame, msg)
}
