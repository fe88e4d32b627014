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

import "github.com/cockroachdb/errors"

// Direction tells the session which side of the connection a frame came
// from.
type Direction uint8

const (
	ClientToServer Direction = iota
	ServerToClient
)

func (d Direction) String() string {
	if d == ClientToServer {
		return "client"
	}
	return "server"
}

// Phase is the connection lifecycle state the session believes the
// traffic is in.
type Phase uint8

const (
	// PhaseInit: nothing seen yet, the server speaks first.
	PhaseInit Phase = iota
	// PhaseGreetingSent: greeting decoded, waiting for the client login.
	PhaseGreetingSent
	// PhaseLoginReceived: login decoded, waiting for the server verdict.
	PhaseLoginReceived
	// PhaseAuthSwitchRequested: server asked for another auth round.
	PhaseAuthSwitchRequested
	// PhaseAuthSwitchResponseReceived: client answered the switch,
	// waiting for the server verdict again.
	PhaseAuthSwitchResponseReceived
	// PhaseCommand: authenticated; client commands start at sequence 0.
	PhaseCommand
	// PhaseAuthFailed: server rejected the login. Terminal.
	PhaseAuthFailed
	// PhaseErrored: tracking gave up. Terminal, frames are only counted.
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseGreetingSent:
		return "greeting_sent"
	case PhaseLoginReceived:
		return "login_received"
	case PhaseAuthSwitchRequested:
		return "auth_switch_requested"
	case PhaseAuthSwitchResponseReceived:
		return "auth_switch_response_received"
	case PhaseCommand:
		return "command"
	case PhaseAuthFailed:
		return "auth_failed"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase can never be left.
func (p Phase) Terminal() bool {
	return p == PhaseErrored || p == PhaseAuthFailed
}

// Session tracks one MySQL connection through its handshake into the
// command phase. It is a passive observer: it decodes frames handed to
// it and never performs I/O. Callers feed it from a single goroutine.
//
// Any decode failure, unexpected packet or sequence mismatch moves the
// session to PhaseErrored, after which Observe only counts bytes. The
// caller keeps forwarding traffic regardless, tracking loss is never
// connection loss.
type Session struct {
	phase     Phase
	expectSeq uint8

	serverCaps Capability
	clientCaps Capability
	authPlugin string

	connectionID  uint32
	serverVersion string
	username      string
	database      string

	packets [2]uint64
	bytes   [2]uint64
}

// NewSession returns a session in PhaseInit.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) Phase() Phase { return s.phase }

// Capabilities returns the negotiated capability set, the intersection
// of what the server offered and the client requested. Zero until the
// login has been seen.
func (s *Session) Capabilities() Capability {
	return s.serverCaps & s.clientCaps
}

func (s *Session) AuthPluginName() string { return s.authPlugin }
func (s *Session) ConnectionID() uint32   { return s.connectionID }
func (s *Session) ServerVersion() string  { return s.serverVersion }
func (s *Session) Username() string       { return s.username }
func (s *Session) Database() string       { return s.database }

// Packets returns the number of frames seen from dir.
func (s *Session) Packets(dir Direction) uint64 { return s.packets[dir] }

// Bytes returns the number of frame bytes seen from dir, headers
// included.
func (s *Session) Bytes(dir Direction) uint64 { return s.bytes[dir] }

// Downgrade moves the session to PhaseErrored. Callers use it when the
// byte stream can no longer be tracked for reasons outside the decoder,
// e.g. a handshake frame too large to buffer.
func (s *Session) Downgrade() {
	s.phase = PhaseErrored
}

// Observe feeds one complete frame (header and payload) to the tracker
// and returns the decoded packet, if any. In a terminal phase, and for
// server frames during the command phase, it returns (nil, nil): the
// bytes were counted but carry no tracked packet.
//
// A non-nil error always means the session just became PhaseErrored.
// ErrNeedMoreData is never returned; short frames are the caller's bug
// and are reported as malformed.
func (s *Session) Observe(dir Direction, frame []byte) (interface{}, error) {
	s.packets[dir]++
	s.bytes[dir] += uint64(len(frame))

	if s.phase.Terminal() {
		return nil, nil
	}

	pkt, n, err := DecodePacket(frame)
	if err != nil || n != len(frame) {
		return nil, s.fail(errors.Wrap(ErrMalformed, "frame does not hold exactly one packet"))
	}

	switch s.phase {
	case PhaseInit:
		return s.onGreeting(dir, pkt)
	case PhaseGreetingSent:
		return s.onLogin(dir, pkt)
	case PhaseLoginReceived, PhaseAuthSwitchResponseReceived:
		return s.onLoginResponse(dir, pkt)
	case PhaseAuthSwitchRequested:
		return s.onSwitchResponse(dir, pkt)
	case PhaseCommand:
		return s.onCommand(dir, pkt)
	default:
		return nil, s.fail(errors.Wrapf(ErrProtocolViolation, "phase %s", s.phase))
	}
}

func (s *Session) fail(err error) error {
	s.phase = PhaseErrored
	return err
}

func (s *Session) checkSeq(pkt *Packet) error {
	if pkt.SequenceID != s.expectSeq {
		return s.fail(errors.Wrapf(ErrProtocolViolation,
			"sequence %d, expected %d", pkt.SequenceID, s.expectSeq))
	}
	s.expectSeq++ // wraps mod 256 by type
	return nil
}

func (s *Session) onGreeting(dir Direction, pkt *Packet) (interface{}, error) {
	if dir != ServerToClient {
		return nil, s.fail(errors.Wrap(ErrProtocolViolation, "greeting must come from the server"))
	}
	if err := s.checkSeq(pkt); err != nil {
		return nil, err
	}
	g, err := DecodeGreeting(pkt.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	s.serverCaps = g.Capabilities
	s.authPlugin = g.AuthPluginName
	s.connectionID = g.ConnectionID
	s.serverVersion = g.ServerVersion
	s.phase = PhaseGreetingSent
	return g, nil
}

func (s *Session) onLogin(dir Direction, pkt *Packet) (interface{}, error) {
	if dir != ClientToServer {
		return nil, s.fail(errors.Wrap(ErrProtocolViolation, "login must come from the client"))
	}
	if err := s.checkSeq(pkt); err != nil {
		return nil, err
	}
	l, err := DecodeLogin(pkt.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	s.clientCaps = l.Capabilities
	if l.AuthPluginName != "" {
		s.authPlugin = l.AuthPluginName
	}
	s.username = l.Username
	s.database = l.Database
	s.phase = PhaseLoginReceived
	return l, nil
}

func (s *Session) onLoginResponse(dir Direction, pkt *Packet) (interface{}, error) {
	if dir != ServerToClient {
		return nil, s.fail(errors.Wrap(ErrProtocolViolation, "login response must come from the server"))
	}
	if err := s.checkSeq(pkt); err != nil {
		return nil, err
	}
	r, err := DecodeLoginResponse(pkt.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	switch r := r.(type) {
	case *OKResponse:
		s.phase = PhaseCommand
		s.expectSeq = 0 // commands restart the sequence
	case *ErrResponse:
		s.phase = PhaseAuthFailed
	case *AuthSwitchRequest:
		s.authPlugin = r.PluginName
		s.phase = PhaseAuthSwitchRequested
	}
	return r, nil
}

func (s *Session) onSwitchResponse(dir Direction, pkt *Packet) (interface{}, error) {
	if dir != ClientToServer {
		return nil, s.fail(errors.Wrap(ErrProtocolViolation, "switch response must come from the client"))
	}
	if err := s.checkSeq(pkt); err != nil {
		return nil, err
	}
	r, err := DecodeSwitchResponse(pkt.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	s.phase = PhaseAuthSwitchResponseReceived
	return r, nil
}

func (s *Session) onCommand(dir Direction, pkt *Packet) (interface{}, error) {
	if dir != ClientToServer {
		// Server result sets are not decoded, only counted.
		return nil, nil
	}
	if pkt.SequenceID != 0 {
		return nil, s.fail(errors.Wrapf(ErrProtocolViolation,
			"command sequence %d, expected 0", pkt.SequenceID))
	}
	cmd, err := DecodeCommand(pkt.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	return cmd, nil
}
