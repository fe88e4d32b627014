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

// LoginResponse is the closed set of packets a server answers a login or
// auth switch response with. The first payload byte selects the variant.
type LoginResponse interface {
	loginResponse()

	// Encode renders the response as a packet payload.
	Encode() []byte
}

// OKResponse reports successful authentication.
type OKResponse struct {
	AffectedRows uint64
	LastInsertID uint64
	StatusFlags  uint16
	Warnings     uint16
	Info         []byte
}

// ErrResponse rejects the login. SQLState is empty when the server sent
// the pre-4.1 form without the '#' marker.
type ErrResponse struct {
	Code     uint16
	SQLState string
	Message  string
}

// AuthSwitchRequest asks the client to restart authentication with a
// different plugin and a fresh seed.
type AuthSwitchRequest struct {
	PluginName string
	Seed       []byte
}

func (*OKResponse) loginResponse()        {}
func (*ErrResponse) loginResponse()       {}
func (*AuthSwitchRequest) loginResponse() {}

const sqlStateLen = 5

// DecodeLoginResponse decodes a server response to a login or auth
// switch response packet. Unknown markers are malformed.
func DecodeLoginResponse(payload []byte) (LoginResponse, error) {
	c := NewCursor(payload)
	marker, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	switch marker {
	case OKHeader:
		return decodeOK(c)
	case ErrHeader:
		return decodeErr(c)
	case AuthSwitchHeader:
		return decodeAuthSwitch(c)
	default:
		return nil, ErrMalformed
	}
}

func decodeOK(c *Cursor) (*OKResponse, error) {
	r := &OKResponse{}
	var err error
	if r.AffectedRows, err = c.LenEncInt(); err != nil {
		return nil, err
	}
	if r.LastInsertID, err = c.LenEncInt(); err != nil {
		return nil, err
	}
	if r.StatusFlags, err = c.Uint16(); err != nil {
		return nil, err
	}
	if r.Warnings, err = c.Uint16(); err != nil {
		return nil, err
	}
	r.Info = c.Rest()
	return r, nil
}

func decodeErr(c *Cursor) (*ErrResponse, error) {
	r := &ErrResponse{}
	var err error
	if r.Code, err = c.Uint16(); err != nil {
		return nil, err
	}
	if b, err := c.Peek(); err == nil && b == '#' {
		_ = c.Skip(1)
		state, err := c.Bytes(sqlStateLen)
		if err != nil {
			return nil, err
		}
		r.SQLState = string(state)
	}
	r.Message = string(c.Rest())
	return r, nil
}

func decodeAuthSwitch(c *Cursor) (*AuthSwitchRequest, error) {
	r := &AuthSwitchRequest{}
	var err error
	if r.PluginName, err = c.StringNul(); err != nil {
		return nil, err
	}
	r.Seed = c.Rest()
	return r, nil
}

// Encode renders the OK packet payload.
func (r *OKResponse) Encode() []byte {
	dst := make([]byte, 0, 16+len(r.Info))
	dst = append(dst, OKHeader)
	dst = AppendLenEncInt(dst, r.AffectedRows)
	dst = AppendLenEncInt(dst, r.LastInsertID)
	dst = append(dst, byte(r.StatusFlags), byte(r.StatusFlags>>8))
	dst = append(dst, byte(r.Warnings), byte(r.Warnings>>8))
	return append(dst, r.Info...)
}

// Encode renders the ERR packet payload.
func (r *ErrResponse) Encode() []byte {
	dst := make([]byte, 0, 16+len(r.Message))
	dst = append(dst, ErrHeader)
	dst = append(dst, byte(r.Code), byte(r.Code>>8))
	if r.SQLState != "" {
		dst = append(dst, '#')
		dst = append(dst, r.SQLState...)
	}
	return append(dst, r.Message...)
}

// Encode renders the auth switch request payload.
func (r *AuthSwitchRequest) Encode() []byte {
	dst := make([]byte, 0, 2+len(r.PluginName)+len(r.Seed))
	dst = append(dst, AuthSwitchHeader)
	dst = append(dst, r.PluginName...)
	dst = append(dst, 0)
	return append(dst, r.Seed...)
}
