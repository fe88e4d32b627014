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

// Login is the Handshake Response 41 packet the client answers the
// greeting with. ConnectAttrs keeps the attribute block as raw bytes so
// re-encoding is byte-exact; ParseConnectAttrs decodes it on demand.
type Login struct {
	Capabilities   Capability
	MaxPacketSize  uint32
	Charset        uint8
	Username       string
	AuthResponse   []byte
	Database       string
	AuthPluginName string
	ConnectAttrs   []byte
}

const loginReservedLen = 23

// DecodeLogin decodes a client handshake response payload. The shape of
// the auth response field depends on the client's declared capabilities,
// so those are read first and gate every later branch.
func DecodeLogin(payload []byte) (*Login, error) {
	c := NewCursor(payload)
	l := &Login{}

	caps, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	l.Capabilities = Capability(caps)
	if l.Capabilities&CLIENT_PROTOCOL_41 == 0 {
		return nil, ErrMalformed
	}
	if l.MaxPacketSize, err = c.Uint32(); err != nil {
		return nil, err
	}
	if l.Charset, err = c.Uint8(); err != nil {
		return nil, err
	}
	if err = c.Skip(loginReservedLen); err != nil {
		return nil, err
	}
	if l.Username, err = c.StringNul(); err != nil {
		return nil, err
	}

	switch {
	case l.Capabilities&CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA != 0:
		if l.AuthResponse, err = c.LenEncBytes(); err != nil {
			return nil, err
		}
	case l.Capabilities&CLIENT_SECURE_CONNECTION != 0:
		n, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		if l.AuthResponse, err = c.Bytes(int(n)); err != nil {
			return nil, err
		}
	default:
		s, err := c.StringNul()
		if err != nil {
			return nil, err
		}
		l.AuthResponse = []byte(s)
	}

	if l.Capabilities&CLIENT_CONNECT_WITH_DB != 0 {
		if l.Database, err = c.StringNul(); err != nil {
			return nil, err
		}
	}
	if l.Capabilities&CLIENT_PLUGIN_AUTH != 0 {
		if l.AuthPluginName, err = c.StringNul(); err != nil {
			return nil, err
		}
	}
	if l.Capabilities&CLIENT_CONNECT_ATTRS != 0 {
		if l.ConnectAttrs, err = c.LenEncBytes(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Encode renders the login as a packet payload using the same
// capability-gated layout DecodeLogin reads.
func (l *Login) Encode() []byte {
	dst := make([]byte, 0, 64+len(l.Username)+len(l.AuthResponse)+
		len(l.Database)+len(l.AuthPluginName)+len(l.ConnectAttrs))

	caps := uint32(l.Capabilities)
	dst = append(dst, byte(caps), byte(caps>>8), byte(caps>>16), byte(caps>>24))
	dst = append(dst,
		byte(l.MaxPacketSize), byte(l.MaxPacketSize>>8),
		byte(l.MaxPacketSize>>16), byte(l.MaxPacketSize>>24))
	dst = append(dst, l.Charset)
	dst = append(dst, make([]byte, loginReservedLen)...)
	dst = append(dst, l.Username...)
	dst = append(dst, 0)

	switch {
	case l.Capabilities&CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA != 0:
		dst = AppendLenEncBytes(dst, l.AuthResponse)
	case l.Capabilities&CLIENT_SECURE_CONNECTION != 0:
		dst = append(dst, byte(len(l.AuthResponse)))
		dst = append(dst, l.AuthResponse...)
	default:
		dst = append(dst, l.AuthResponse...)
		dst = append(dst, 0)
	}

	if l.Capabilities&CLIENT_CONNECT_WITH_DB != 0 {
		dst = append(dst, l.Database...)
		dst = append(dst, 0)
	}
	if l.Capabilities&CLIENT_PLUGIN_AUTH != 0 {
		dst = append(dst, l.AuthPluginName...)
		dst = append(dst, 0)
	}
	if l.Capabilities&CLIENT_CONNECT_ATTRS != 0 {
		dst = AppendLenEncBytes(dst, l.ConnectAttrs)
	}
	return dst
}

// ParseConnectAttrs decodes the raw attribute block into key/value
// pairs. Attributes a client sent malformed are dropped rather than
// failing the whole login.
func (l *Login) ParseConnectAttrs() map[string]string {
	if len(l.ConnectAttrs) == 0 {
		return nil
	}
	attrs := make(map[string]string)
	c := NewCursor(l.ConnectAttrs)
	for c.Remaining() > 0 {
		k, err := c.LenEncBytes()
		if err != nil {
			break
		}
		v, err := c.LenEncBytes()
		if err != nil {
			break
		}
		attrs[string(k)] = string(v)
	}
	return attrs
}
