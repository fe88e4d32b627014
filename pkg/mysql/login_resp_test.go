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

func TestLoginResponseOK(t *testing.T) {
	ok := &OKResponse{
		AffectedRows: 3,
		LastInsertID: 1000,
		StatusFlags:  SERVER_STATUS_AUTOCOMMIT,
		Warnings:     1,
		Info:         []byte("Records: 3"),
	}
	got, err := DecodeLoginResponse(ok.Encode())
	require.NoError(t, err)
	require.Equal(t, ok, got)
}

func TestLoginResponseErr(t *testing.T) {
	e := &ErrResponse{
		Code:     1045,
		SQLState: "28000",
		Message:  "Access denied for user 'root'@'localhost'",
	}
	got, err := DecodeLoginResponse(e.Encode())
	require.NoError(t, err)
	require.Equal(t, e, got)

	// pre-4.1 form without the sqlstate marker
	legacy := []byte{ErrHeader, 0x15, 0x04}
	legacy = append(legacy, "denied"...)
	got, err = DecodeLoginResponse(legacy)
	require.NoError(t, err)
	require.Equal(t, &ErrResponse{Code: 1045, Message: "denied"}, got)
}

func TestLoginResponseAuthSwitch(t *testing.T) {
	seed := []byte("01234567890123456789") // 20 bytes
	payload := []byte{AuthSwitchHeader}
	payload = append(payload, AuthNativePassword...)
	payload = append(payload, 0)
	payload = append(payload, seed...)

	got, err := DecodeLoginResponse(payload)
	require.NoError(t, err)
	sw, isSwitch := got.(*AuthSwitchRequest)
	require.True(t, isSwitch)
	require.Equal(t, AuthNativePassword, sw.PluginName)
	require.Equal(t, seed, sw.Seed)
	require.Equal(t, payload, sw.Encode())
}

func TestLoginResponseUnknownMarker(t *testing.T) {
	_, err := DecodeLoginResponse([]byte{0x07, 0x00, 0x00})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeLoginResponse(nil)
	require.ErrorIs(t, err, ErrNeedMoreData)
}
