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

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sqltap"

var (
	ConnAcceptedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "connections_accepted_total",
			Help:      "Count of accepted client connections.",
		})

	DisconnectCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "disconnect_total",
			Help:      "Count of connection closes by which side went away.",
		}, []string{"side"})

	PacketCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "packets_total",
			Help:      "Count of forwarded MySQL packets per direction.",
		}, []string{"direction"})

	ByteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "bytes_total",
			Help:      "Count of forwarded bytes per direction, headers included.",
		}, []string{"direction"})

	HandshakeDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "handshake_duration_seconds",
			Help:      "Time from greeting to authentication verdict.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2.0, 20),
		})

	HandshakeCompletedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "handshakes_completed_total",
			Help:      "Count of sessions that reached the command phase.",
		})

	AuthSwitchCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "auth_switches_total",
			Help:      "Count of auth switch requests observed.",
		})

	AuthFailedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "auth_failed_total",
			Help:      "Count of logins the server rejected.",
		})

	DecodeFailCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "decode_fail_total",
			Help:      "Count of frames that failed protocol decoding.",
		})

	SessionErroredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "errored_total",
			Help:      "Count of sessions downgraded to raw byte counting.",
		})

	CommandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Count of command-phase client packets by command.",
		}, []string{"command"})
)

// Register registers all proxy collectors with the registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		ConnAcceptedCounter,
		DisconnectCounter,
		PacketCounter,
		ByteCounter,
		HandshakeDurationHistogram,
		HandshakeCompletedCounter,
		AuthSwitchCounter,
		AuthFailedCounter,
		DecodeFailCounter,
		SessionErroredCounter,
		CommandCounter,
	)
}
