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

// Greeting is the Handshake V10 packet the server sends first on every
// connection. Seed holds the full auth challenge, part 1 and part 2
// concatenated without the trailing NUL.
type Greeting struct {
	ProtocolVersion uint8
	ServerVersion   string
	ConnectionID    uint32
	Charset         uint8
	StatusFlags     uint16
	Capabilities    Capability
	AuthPluginName  string
	Seed            []byte
}

const (
	greetingSeedPart1Len = 8
	greetingSeedPart2Min = 13
	greetingReservedLen  = 10
)

// DecodeGreeting decodes a server greeting payload.
func DecodeGreeting(payload []byte) (*Greeting, error) {
	c := NewCursor(payload)
	g := &Greeting{}

	var err error
	if g.ProtocolVersion, err = c.Uint8(); err != nil {
		return nil, err
	}
	if g.ServerVersion, err = c.StringNul(); err != nil {
		return nil, err
	}
	if g.ConnectionID, err = c.Uint32(); err != nil {
		return nil, err
	}
	part1, err := c.Bytes(greetingSeedPart1Len)
	if err != nil {
		return nil, err
	}
	g.Seed = append([]byte{}, part1...)
	if err = c.Skip(1); err != nil { // filler
		return nil, err
	}
	lower, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	if g.Charset, err = c.Uint8(); err != nil {
		return nil, err
	}
	if g.StatusFlags, err = c.Uint16(); err != nil {
		return nil, err
	}
	upper, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	g.Capabilities = Capability(uint32(lower) | uint32(upper)<<16)
	declared, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(greetingReservedLen); err != nil {
		return nil, err
	}

	if g.Capabilities&CLIENT_SECURE_CONNECTION != 0 {
		n := greetingSeedPart2Min
		if int(declared)-greetingSeedPart1Len > n {
			n = int(declared) - greetingSeedPart1Len
		}
		part2, err := c.Bytes(n)
		if err != nil {
			return nil, err
		}
		if len(part2) > 0 && part2[len(part2)-1] == 0 {
			part2 = part2[:len(part2)-1]
		}
		g.Seed = append(g.Seed, part2...)
	}
	if g.Capabilities&CLIENT_PLUGIN_AUTH != 0 {
		if g.AuthPluginName, err = c.StringNul(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Encode renders the greeting as a packet payload. Seed part 2 is
// written with a trailing NUL and the declared auth data length covers
// the seed plus that terminator, the convention modern servers use.
func (g *Greeting) Encode() []byte {
	dst := make([]byte, 0, 64+len(g.ServerVersion)+len(g.Seed)+len(g.AuthPluginName))
	dst = append(dst, g.ProtocolVersion)
	dst = append(dst, g.ServerVersion...)
	dst = append(dst, 0)
	dst = append(dst,
		byte(g.ConnectionID), byte(g.ConnectionID>>8),
		byte(g.ConnectionID>>16), byte(g.ConnectionID>>24))

	seed := g.Seed
	if len(seed) < greetingSeedPart1Len {
		padded := make([]byte, greetingSeedPart1Len)
		copy(padded, seed)
		seed = padded
	}
	dst = append(dst, seed[:greetingSeedPart1Len]...)
	dst = append(dst, 0) // filler

	caps := uint32(g.Capabilities)
	dst = append(dst, byte(caps), byte(caps>>8))
	dst = append(dst, g.Charset)
	dst = append(dst, byte(g.StatusFlags), byte(g.StatusFlags>>8))
	dst = append(dst, byte(caps>>16), byte(caps>>24))
	if g.Capabilities&CLIENT_SECURE_CONNECTION != 0 {
		dst = append(dst, byte(len(seed)+1))
	} else {
		dst = append(dst, 0)
	}
	dst = append(dst, make([]byte, greetingReservedLen)...)

	if g.Capabilities&CLIENT_SECURE_CONNECTION != 0 {
		part2 := seed[greetingSeedPart1Len:]
		dst = append(dst, part2...)
		dst = append(dst, 0)
		// short seeds still occupy the minimum slot
		for n := len(part2) + 1; n < greetingSeedPart2Min; n++ {
			dst = append(dst, 0)
		}
	}
	if g.Capabilities&CLIENT_PLUGIN_AUTH != 0 {
		dst = append(dst, g.AuthPluginName...)
		dst = append(dst, 0)
	}
	return dst
}
