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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetDefaultValues(t *testing.T) {
	p := &Parameters{BackendAddress: "127.0.0.1:3306"}
	p.SetDefaultValues()
	require.NoError(t, p.Validate())

	require.Equal(t, defaultListenAddress, p.ListenAddress)
	require.Equal(t, defaultDialTimeout, p.DialTimeout.Duration)
	require.Equal(t, defaultStatsInterval, p.StatsInterval.Duration)
	require.Equal(t, defaultWorkerPoolSize, p.WorkerPoolSize)
	require.Equal(t, "info", p.Log.Level)
}

func TestValidate(t *testing.T) {
	p := &Parameters{}
	p.SetDefaultValues()
	require.Error(t, p.Validate())

	p.BackendAddress = "127.0.0.1:3306"
	p.BufferSize = -1
	require.Error(t, p.Validate())
}

func TestLoad(t *testing.T) {
	content := `
listen-address = "127.0.0.1:6001"
backend-address = "127.0.0.1:3306"
dial-timeout = "5s"
buffer-size = 16384
metrics-address = "127.0.0.1:7001"

[log]
level = "debug"
format = "json"
`
	path := filepath.Join(t.TempDir(), "sqltap.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6001", p.ListenAddress)
	require.Equal(t, "127.0.0.1:3306", p.BackendAddress)
	require.Equal(t, 5*time.Second, p.DialTimeout.Duration)
	require.Equal(t, 16384, p.BufferSize)
	require.Equal(t, "127.0.0.1:7001", p.MetricsAddress)
	require.Equal(t, "debug", p.Log.Level)
	require.Equal(t, "json", p.Log.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
