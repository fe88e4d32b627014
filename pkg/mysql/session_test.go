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

var testCaps = CLIENT_PROTOCOL_41 | CLIENT_SECURE_CONNECTION | CLIENT_PLUGIN_AUTH

func testGreetingFrame(seq uint8) []byte {
	g := &Greeting{
		ProtocolVersion: 10,
		ServerVersion:   "5.7.0",
		ConnectionID:    1,
		Charset:         0x21,
		StatusFlags:     SERVER_STATUS_AUTOCOMMIT,
		Capabilities:    testCaps,
		AuthPluginName:  AuthNativePassword,
		Seed:            []byte("abcdefghijklmnopqrst"),
	}
	return EncodePacket(seq, g.Encode())
}

func testLoginFrame(seq uint8) []byte {
	l := &Login{
		Capabilities:   testCaps,
		MaxPacketSize:  1 << 24,
		Charset:        0x21,
		Username:       "root",
		AuthResponse:   []byte("01234567890123456789"),
		AuthPluginName: AuthNativePassword,
	}
	return EncodePacket(seq, l.Encode())
}

func testOKFrame(seq uint8) []byte {
	ok := &OKResponse{StatusFlags: SERVER_STATUS_AUTOCOMMIT}
	return EncodePacket(seq, ok.Encode())
}

func TestSessionHappyPath(t *testing.T) {
	s := NewSession()
	require.Equal(t, PhaseInit, s.Phase())

	pkt, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)
	require.Equal(t, PhaseGreetingSent, s.Phase())
	g := pkt.(*Greeting)
	require.Equal(t, "5.7.0", g.ServerVersion)
	require.Equal(t, uint32(1), s.ConnectionID())

	pkt, err = s.Observe(ClientToServer, testLoginFrame(1))
	require.NoError(t, err)
	require.Equal(t, PhaseLoginReceived, s.Phase())
	require.Equal(t, "root", s.Username())
	require.Equal(t, testCaps, s.Capabilities())
	_ = pkt.(*Login)

	pkt, err = s.Observe(ServerToClient, testOKFrame(2))
	require.NoError(t, err)
	require.Equal(t, PhaseCommand, s.Phase())
	_ = pkt.(*OKResponse)

	// commands restart the client sequence at zero
	query := EncodePacket(0, append([]byte{byte(COM_QUERY)}, "select 1"...))
	pkt, err = s.Observe(ClientToServer, query)
	require.NoError(t, err)
	cmd := pkt.(*CommandPacket)
	require.Equal(t, COM_QUERY, cmd.Cmd)

	// server result frames are counted, not decoded
	resp := EncodePacket(1, []byte{0x01})
	pkt, err = s.Observe(ServerToClient, resp)
	require.NoError(t, err)
	require.Nil(t, pkt)

	require.Equal(t, uint64(2), s.Packets(ClientToServer))
	require.Equal(t, uint64(3), s.Packets(ServerToClient))
}

func TestSessionAuthSwitch(t *testing.T) {
	s := NewSession()
	_, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)
	_, err = s.Observe(ClientToServer, testLoginFrame(1))
	require.NoError(t, err)

	sw := &AuthSwitchRequest{
		PluginName: AuthNativePassword,
		Seed:       []byte("01234567890123456789"),
	}
	pkt, err := s.Observe(ServerToClient, EncodePacket(2, sw.Encode()))
	require.NoError(t, err)
	require.Equal(t, PhaseAuthSwitchRequested, s.Phase())
	require.Equal(t, AuthNativePassword, s.AuthPluginName())
	_ = pkt.(*AuthSwitchRequest)

	resp := &SwitchResponse{AuthData: []byte("98765432109876543210")}
	pkt, err = s.Observe(ClientToServer, EncodePacket(3, resp.Encode()))
	require.NoError(t, err)
	require.Equal(t, PhaseAuthSwitchResponseReceived, s.Phase())
	_ = pkt.(*SwitchResponse)

	_, err = s.Observe(ServerToClient, testOKFrame(4))
	require.NoError(t, err)
	require.Equal(t, PhaseCommand, s.Phase())
}

func TestSessionAuthFailed(t *testing.T) {
	s := NewSession()
	_, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)
	_, err = s.Observe(ClientToServer, testLoginFrame(1))
	require.NoError(t, err)

	e := &ErrResponse{Code: 1045, SQLState: "28000", Message: "denied"}
	pkt, err := s.Observe(ServerToClient, EncodePacket(2, e.Encode()))
	require.NoError(t, err)
	require.Equal(t, PhaseAuthFailed, s.Phase())
	_ = pkt.(*ErrResponse)
	require.True(t, s.Phase().Terminal())
}

func TestSessionMalformedResponseErrors(t *testing.T) {
	s := NewSession()
	_, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)
	_, err = s.Observe(ClientToServer, testLoginFrame(1))
	require.NoError(t, err)

	// 0x07 is not a valid login response marker
	_, err = s.Observe(ServerToClient, EncodePacket(2, []byte{0x07, 0x00}))
	require.ErrorIs(t, err, ErrMalformed)
	require.Equal(t, PhaseErrored, s.Phase())

	// errored sessions keep counting but never decode again
	before := s.Bytes(ClientToServer)
	pkt, err := s.Observe(ClientToServer, []byte("garbage"))
	require.NoError(t, err)
	require.Nil(t, pkt)
	require.Equal(t, before+uint64(len("garbage")), s.Bytes(ClientToServer))
	require.Equal(t, PhaseErrored, s.Phase())
}

func TestSessionSequenceSkip(t *testing.T) {
	s := NewSession()
	_, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)

	// client skips sequence 1
	_, err = s.Observe(ClientToServer, testLoginFrame(2))
	require.ErrorIs(t, err, ErrProtocolViolation)
	require.Equal(t, PhaseErrored, s.Phase())
}

func TestSessionWrongDirection(t *testing.T) {
	s := NewSession()
	// client speaking first is not a MySQL handshake
	_, err := s.Observe(ClientToServer, testLoginFrame(0))
	require.ErrorIs(t, err, ErrProtocolViolation)
	require.Equal(t, PhaseErrored, s.Phase())
}

func TestSessionCommandSequenceReset(t *testing.T) {
	s := NewSession()
	_, err := s.Observe(ServerToClient, testGreetingFrame(0))
	require.NoError(t, err)
	_, err = s.Observe(ClientToServer, testLoginFrame(1))
	require.NoError(t, err)
	_, err = s.Observe(ServerToClient, testOKFrame(2))
	require.NoError(t, err)

	// a command that keeps the handshake sequence going is a violation
	query := EncodePacket(3, []byte{byte(COM_PING)})
	_, err = s.Observe(ClientToServer, query)
	require.ErrorIs(t, err, ErrProtocolViolation)
	require.Equal(t, PhaseErrored, s.Phase())
}

func TestSessionSequenceWraps(t *testing.T) {
	s := NewSession()
	s.expectSeq = 255
	s.phase = PhaseGreetingSent
	s.serverCaps = testCaps

	_, err := s.Observe(ClientToServer, testLoginFrame(255))
	require.NoError(t, err)
	require.Equal(t, uint8(0), s.expectSeq)
}
