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
	"sync/atomic"

	"go.uber.org/zap"
)

// counterSet contains all items that need to be tracked in the proxy.
type counterSet struct {
	connAccepted     atomic.Int64
	connTotal        atomic.Int64
	clientDisconnect atomic.Int64
	serverDisconnect atomic.Int64
	dialFailed       atomic.Int64
	authFailed       atomic.Int64
	sessionsErrored  atomic.Int64
}

func newCounterSet() *counterSet {
	return &counterSet{}
}

// updateWithErr updates the counterSet according to the error.
func (s *counterSet) updateWithErr(err error) {
	if err == nil {
		return
	}
	switch getErrorCode(err) {
	case codeClientDisconnect:
		s.clientDisconnect.Add(1)
	case codeServerDisconnect:
		s.serverDisconnect.Add(1)
	case codeDialFailed:
		s.dialFailed.Add(1)
	}
}

// fields renders the counters as zap fields for the periodic stats log.
func (s *counterSet) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("accepted connections", s.connAccepted.Load()),
		zap.Int64("total connections", s.connTotal.Load()),
		zap.Int64("client disconnect", s.clientDisconnect.Load()),
		zap.Int64("server disconnect", s.serverDisconnect.Load()),
		zap.Int64("dial failed", s.dialFailed.Load()),
		zap.Int64("auth failed", s.authFailed.Load()),
		zap.Int64("sessions errored", s.sessionsErrored.Load()),
	}
}
