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

var (
	// ErrNeedMoreData indicates that the buffer does not yet hold enough
	// bytes for the attempted read. The cursor is left untouched, so the
	// same read can be retried verbatim once more bytes have arrived.
	ErrNeedMoreData = errors.New("need more data")

	// ErrMalformed indicates a structurally invalid field, e.g. a reserved
	// length-encoded integer tag or an unknown response marker. The packet
	// can never become valid by receiving more bytes.
	ErrMalformed = errors.New("malformed packet")

	// ErrProtocolViolation indicates a packet that decoded fine but arrived
	// in the wrong connection phase or with the wrong sequence number.
	ErrProtocolViolation = errors.New("protocol violation")
)

// IsNeedMoreData returns true if the error means the read should be
// retried after more bytes arrive.
func IsNeedMoreData(err error) bool {
	return errors.Is(err, ErrNeedMoreData)
}

// IsMalformed returns true if the error permanently disqualifies the
// current packet.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// IsProtocolViolation returns true if the error was raised by the session
// tracker rather than by byte-level decoding.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrProtocolViolation)
}
