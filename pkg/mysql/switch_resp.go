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

// SwitchResponse is the client's answer to an auth switch request. The
// payload is opaque plugin data; an empty payload is valid.
type SwitchResponse struct {
	AuthData []byte
}

// DecodeSwitchResponse decodes a client auth switch response payload.
func DecodeSwitchResponse(payload []byte) (*SwitchResponse, error) {
	c := NewCursor(payload)
	return &SwitchResponse{AuthData: c.Rest()}, nil
}

// Encode renders the switch response payload.
func (s *SwitchResponse) Encode() []byte {
	return append([]byte{}, s.AuthData...)
}
