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
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/sqltap/sqltap/pkg/mysql"
)

const (
	// the default message buffer size, 8K.
	defaultBufLen = 8192
	// defaultExtraBufLen is the default extra buffer size, 2K.
	defaultExtraBufLen = 2048
)

// MySQLConn contains a buffer to save data which may be only part
// of a packet.
type MySQLConn struct {
	net.Conn
	*msgBuf
}

// newMySQLConn creates a new MySQLConn for one side of a tunnel. dir is
// the direction of traffic read from c, ob receives every frame the
// buffer manages to hold in full.
func newMySQLConn(name string, c net.Conn, sz int, dir mysql.Direction, ob *observer) *MySQLConn {
	return &MySQLConn{
		Conn:   c,
		msgBuf: newMsgBuf(name, c, sz, dir, ob),
	}
}

// msgBuf holds a buffer to save MySQL packets read from src. Packets
// that fit are handed to the observer before they are forwarded;
// packets that do not are forwarded in pieces and only counted.
type msgBuf struct {
	// for debug
	name string
	src  io.Reader

	dir mysql.Direction
	ob  *observer

	// buf keeps data which is read from src. It can contain multiple
	// packets. The available part of the buffer is [0:availLen]. The rest
	// [availLen:] is spare room used to complete a packet whose tail has
	// not arrived yet.
	buf []byte
	// availLen is the available length of the buffer.
	availLen int
	extraLen int
	// begin, end is the range that the data is available in the buf.
	begin, end int
	// writeMu serializes writes of whole packets to the peer conn.
	writeMu sync.Mutex
}

// newMsgBuf creates a new message buffer.
func newMsgBuf(name string, src io.Reader, bufLen int, dir mysql.Direction, ob *observer) *msgBuf {
	var availLen, extraLen int
	if bufLen < mysql.HeaderLength {
		availLen = defaultBufLen
		extraLen = defaultExtraBufLen
		bufLen = availLen + extraLen
	} else {
		availLen = bufLen
	}
	return &msgBuf{
		name:     name,
		src:      src,
		dir:      dir,
		ob:       ob,
		buf:      make([]byte, bufLen),
		availLen: availLen,
		extraLen: extraLen,
	}
}

// readAvail returns the length of buffered, unconsumed data.
func (b *msgBuf) readAvail() int {
	return b.end - b.begin
}

// writeAvail returns the room left in the available part.
func (b *msgBuf) writeAvail() int {
	return b.availLen - b.end
}

// preRecv receives at least a packet header from src and returns the
// full size of the packet, header included. It blocks until the header
// arrived.
func (b *msgBuf) preRecv() (int, error) {
	if err := b.receiveAtLeast(mysql.HeaderLength); err != nil {
		return 0, err
	}

	bodyLen, _, err := mysql.DecodeHeader(b.buf[b.begin:b.end])
	if err != nil {
		return 0, err
	}
	if bodyLen < 0 || bodyLen > mysql.MaxPayloadLength {
		return 0, errors.Newf("protocol error: body length %d", bodyLen)
	}
	return int(bodyLen) + mysql.HeaderLength, nil
}

// sendTo forwards exactly one packet from the buffer to dst. The packet
// is observed first when it is fully buffered; a packet larger than the
// buffer is forwarded in pieces and reported as raw bytes. Forwarding
// never depends on the observer's verdict.
func (b *msgBuf) sendTo(dst io.Writer) error {
	l, err := b.preRecv()
	if err != nil {
		return err
	}
	// A packet that fits is buffered whole so the observer sees it in
	// one piece. Only packets larger than the buffer flow through in
	// fragments.
	if l <= b.availLen {
		if err := b.receiveAtLeast(l); err != nil {
			return err
		}
	}
	readPos := b.begin
	writePos := readPos + l
	dataLeft := 0
	if writePos > b.end {
		dataLeft = writePos - b.end
		writePos = b.end
	}
	b.begin = writePos
	if writePos-readPos < mysql.HeaderLength {
		panic(fmt.Sprintf("%d bytes have to be read", mysql.HeaderLength))
	}

	// If the spare part can hold the missing tail, pull it in so the
	// observer sees the whole packet.
	if dataLeft > 0 && dataLeft < b.extraLen {
		n, err := io.ReadFull(b.src, b.buf[writePos:writePos+dataLeft])
		if err != nil {
			return err
		}
		if n < dataLeft {
			return io.ErrShortWrite
		}
		writePos += n
		dataLeft = 0
	}
	if dataLeft == 0 {
		b.ob.onFrame(b.dir, b.buf[readPos:writePos])
	} else {
		b.ob.onRawBytes(b.dir, l)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	n, err := dst.Write(b.buf[readPos:writePos])
	if err != nil {
		return err
	}
	if n < writePos-readPos {
		return io.ErrShortWrite
	}

	// The buffer does not hold all packet data, so continue to relay
	// the remainder without buffering it.
	if dataLeft > 0 {
		m, err := io.CopyN(dst, b.src, int64(dataLeft))
		if err != nil {
			return err
		}
		if int(m) < dataLeft {
			return io.ErrShortWrite
		}
	}
	return nil
}

// receive reads one whole packet and returns it. This is used in tests.
func (b *msgBuf) receive() ([]byte, error) {
	size, err := b.preRecv()
	if err != nil {
		return nil, err
	}

	if size <= b.availLen {
		if err := b.receiveAtLeast(size); err != nil {
			return nil, err
		}
		ret := b.buf[b.begin : b.begin+size]
		b.begin += size
		return ret, nil
	}

	// Packet cannot fit, allocate new space for it.
	msg := make([]byte, size)
	n := copy(msg, b.buf[b.begin:b.end])
	b.begin += n
	if _, err := io.ReadFull(b.src, msg[n:]); err != nil {
		return nil, err
	}
	return msg, nil
}

func (b *msgBuf) receiveAtLeast(n int) error {
	if n < 0 || n > b.availLen {
		return errors.Newf("invalid receive bytes size %d", n)
	}
	// Buffer already has n bytes.
	if b.readAvail() >= n {
		return nil
	}
	minReadSize := n - b.readAvail()
	if b.writeAvail() < minReadSize {
		b.end = copy(b.buf, b.buf[b.begin:b.end])
		b.begin = 0
	}
	c, err := io.ReadAtLeast(b.src, b.buf[b.end:b.availLen], minReadSize)
	b.end += c
	return err
}

// writeDataDirectly writes a whole packet to dst without buffering it.
// The lock keeps it from interleaving with a packet sendTo is writing
// in two steps.
func (b *msgBuf) writeDataDirectly(dst io.Writer, data []byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err := dst.Write(data)
	return err
}
