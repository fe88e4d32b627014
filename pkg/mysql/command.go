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

// CommandPacket is a command-phase client packet: one command code and
// the command's opaque argument bytes.
type CommandPacket struct {
	Cmd  Command
	Data []byte
}

// DecodeCommand decodes a command-phase client payload. An empty
// payload decodes to the COM_NULL sentinel rather than failing, since a
// client can legally flush an empty buffer.
func DecodeCommand(payload []byte) (*CommandPacket, error) {
	c := NewCursor(payload)
	cmd, err := c.Uint8()
	if err != nil {
		return &CommandPacket{Cmd: COM_NULL}, nil
	}
	return &CommandPacket{Cmd: Command(cmd), Data: c.Rest()}, nil
}

// Encode renders the command payload. COM_NULL encodes to an empty
// buffer, mirroring how it decodes.
func (p *CommandPacket) Encode() []byte {
	if p.Cmd == COM_NULL {
		return []byte{}
	}
	dst := make([]byte, 0, 1+len(p.Data))
	dst = append(dst, byte(p.Cmd))
	return append(dst, p.Data...)
}
