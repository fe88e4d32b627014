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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sqltap/sqltap/pkg/mysql"
	"github.com/sqltap/sqltap/pkg/util/metric"
)

// observer owns the protocol session of one tunnel. The two pipes feed
// it concurrently, so all session access goes through its mutex. It is
// strictly passive: whatever it concludes about a frame, the frame has
// already been queued for forwarding.
type observer struct {
	logger *zap.Logger
	cs     *counterSet

	mu         sync.Mutex
	sess       *mysql.Session
	start      time.Time
	downgraded bool
}

func newObserver(logger *zap.Logger, cs *counterSet) *observer {
	return &observer{
		logger: logger,
		cs:     cs,
		sess:   mysql.NewSession(),
	}
}

// onFrame hands one complete frame to the session tracker.
func (o *observer) onFrame(dir mysql.Direction, frame []byte) {
	metric.PacketCounter.WithLabelValues(dir.String()).Inc()
	metric.ByteCounter.WithLabelValues(dir.String()).Add(float64(len(frame)))

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.start.IsZero() {
		o.start = time.Now()
	}
	prev := o.sess.Phase()
	pkt, err := o.sess.Observe(dir, frame)
	if err != nil {
		o.downgrade(prev, err)
		return
	}
	if cur := o.sess.Phase(); cur != prev {
		o.logger.Debug("session phase changed",
			zap.String("from", prev.String()),
			zap.String("to", cur.String()))
	}

	switch pkt := pkt.(type) {
	case *mysql.Greeting:
		o.logger.Debug("greeting observed",
			zap.Uint32("conn id", pkt.ConnectionID),
			zap.String("server version", pkt.ServerVersion),
			zap.String("auth plugin", pkt.AuthPluginName))
	case *mysql.Login:
		o.logger.Debug("login observed",
			zap.String("username", pkt.Username),
			zap.String("database", pkt.Database))
	case *mysql.OKResponse:
		if prev == mysql.PhaseLoginReceived || prev == mysql.PhaseAuthSwitchResponseReceived {
			metric.HandshakeCompletedCounter.Inc()
			metric.HandshakeDurationHistogram.Observe(time.Since(o.start).Seconds())
			o.logger.Debug("authentication succeeded",
				zap.String("username", o.sess.Username()))
		}
	case *mysql.ErrResponse:
		if o.sess.Phase() == mysql.PhaseAuthFailed {
			metric.AuthFailedCounter.Inc()
			o.cs.authFailed.Add(1)
			o.logger.Debug("authentication failed",
				zap.Uint16("code", pkt.Code),
				zap.String("message", pkt.Message))
		}
	case *mysql.AuthSwitchRequest:
		metric.AuthSwitchCounter.Inc()
		o.logger.Debug("auth switch requested",
			zap.String("plugin", pkt.PluginName))
	case *mysql.CommandPacket:
		metric.CommandCounter.WithLabelValues(pkt.Cmd.String()).Inc()
	}
}

// onRawBytes accounts a frame that was forwarded in pieces and never
// fully buffered. Only command-phase payloads can get that big, and the
// observer stops expecting anything specific once it has seen one.
func (o *observer) onRawBytes(dir mysql.Direction, n int) {
	metric.PacketCounter.WithLabelValues(dir.String()).Inc()
	metric.ByteCounter.WithLabelValues(dir.String()).Add(float64(n))

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.Phase() == mysql.PhaseCommand || o.sess.Phase().Terminal() {
		return
	}
	// a handshake packet should never exceed the buffer
	prev := o.sess.Phase()
	o.sess.Downgrade()
	o.downgrade(prev, mysql.ErrMalformed)
}

// downgrade marks the session errored. Decoding stops, forwarding does
// not.
func (o *observer) downgrade(prev mysql.Phase, err error) {
	metric.DecodeFailCounter.Inc()
	if !o.downgraded {
		o.downgraded = true
		metric.SessionErroredCounter.Inc()
		o.cs.sessionsErrored.Add(1)
		o.logger.Warn("session tracking downgraded to byte counting",
			zap.String("phase", prev.String()),
			zap.Error(err))
	}
}

// phase returns the tracker phase.
func (o *observer) phase() mysql.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.Phase()
}

// stats returns packet and byte counts for dir.
func (o *observer) stats(dir mysql.Direction) (packets, bytes uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.Packets(dir), o.sess.Bytes(dir)
}

// session snapshot helpers for the close log.
func (o *observer) closeFields() []zap.Field {
	o.mu.Lock()
	defer o.mu.Unlock()
	return []zap.Field{
		zap.String("phase", o.sess.Phase().String()),
		zap.String("username", o.sess.Username()),
		zap.Uint32("conn id", o.sess.ConnectionID()),
		zap.Uint64("client packets", o.sess.Packets(mysql.ClientToServer)),
		zap.Uint64("server packets", o.sess.Packets(mysql.ServerToClient)),
		zap.Uint64("client bytes", o.sess.Bytes(mysql.ClientToServer)),
		zap.Uint64("server bytes", o.sess.Bytes(mysql.ServerToClient)),
	}
}
