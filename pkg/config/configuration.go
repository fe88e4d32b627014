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

package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/sqltap/sqltap/pkg/logutil"
)

const (
	defaultListenAddress  = "0.0.0.0:6001"
	defaultDialTimeout    = 3 * time.Second
	defaultStatsInterval  = time.Minute
	defaultWorkerPoolSize = 4096
)

// Duration is a time.Duration that parses from a toml string like "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Parameters holds the whole proxy configuration.
type Parameters struct {
	// ListenAddress is the address the proxy accepts clients on.
	ListenAddress string `toml:"listen-address"`
	// BackendAddress is the MySQL server the proxy forwards to.
	BackendAddress string `toml:"backend-address"`
	// DialTimeout bounds the backend dial per connection.
	DialTimeout Duration `toml:"dial-timeout"`
	// BufferSize is the per-direction packet buffer size in bytes.
	// Zero picks the built-in default.
	BufferSize int `toml:"buffer-size"`
	// MetricsAddress serves prometheus metrics when set, e.g.
	// "127.0.0.1:7001".
	MetricsAddress string `toml:"metrics-address"`
	// StatsInterval is how often per-proxy counters are logged.
	StatsInterval Duration `toml:"stats-interval"`
	// WorkerPoolSize caps the goroutines used to run tunnel pipes.
	WorkerPoolSize int `toml:"worker-pool-size"`

	Log logutil.LogConfig `toml:"log"`
}

// SetDefaultValues fills the unset fields.
func (p *Parameters) SetDefaultValues() {
	if p.ListenAddress == "" {
		p.ListenAddress = defaultListenAddress
	}
	if p.DialTimeout.Duration == 0 {
		p.DialTimeout.Duration = defaultDialTimeout
	}
	if p.StatsInterval.Duration == 0 {
		p.StatsInterval.Duration = defaultStatsInterval
	}
	if p.WorkerPoolSize == 0 {
		p.WorkerPoolSize = defaultWorkerPoolSize
	}
	p.Log.SetDefaultValues()
}

// Validate checks the parameters that have no sensible default.
func (p *Parameters) Validate() error {
	if p.BackendAddress == "" {
		return errors.New("backend-address is required")
	}
	if p.BufferSize < 0 {
		return errors.Newf("buffer-size must not be negative, got %d", p.BufferSize)
	}
	return nil
}

// Load reads parameters from a toml file, applies defaults and
// validates them.
func Load(path string) (*Parameters, error) {
	var p Parameters
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", path)
	}
	p.SetDefaultValues()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
