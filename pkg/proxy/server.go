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
	"context"
	"time"

	"github.com/fagongzi/goetty/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/sqltap/sqltap/pkg/config"
	"github.com/sqltap/sqltap/pkg/util/metric"
)

// Server accepts client connections and runs one observing tunnel per
// connection to the configured backend.
type Server struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	logger    *zap.Logger
	cfg       *config.Parameters
	app       goetty.NetApplication
	// pool runs the pipe goroutines of all tunnels.
	pool *ants.Pool
	// counterSet counts the events in proxy.
	counterSet *counterSet
}

// NewServer creates the proxy server.
func NewServer(ctx context.Context, cfg *config.Parameters, logger *zap.Logger) (*Server, error) {
	cfg.SetDefaultValues()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	pool, err := ants.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		cancel()
		return nil, err
	}
	s := &Server{
		ctx:        ctx,
		ctxCancel:  cancel,
		logger:     logger,
		cfg:        cfg,
		pool:       pool,
		counterSet: newCounterSet(),
	}

	app, err := goetty.NewApplication(cfg.ListenAddress, nil,
		goetty.WithAppLogger(logger),
		goetty.WithAppHandleSessionFunc(s.handle),
		goetty.WithAppSessionOptions(
			goetty.WithSessionCodec(NewMySQLCodec()),
			goetty.WithSessionLogger(logger),
		),
	)
	if err != nil {
		cancel()
		pool.Release()
		return nil, err
	}
	s.app = app

	go s.statsLoop()
	return s, nil
}

// Start starts the proxy server.
func (s *Server) Start() error {
	s.logger.Info("proxy server listening",
		zap.String("address", s.cfg.ListenAddress),
		zap.String("backend", s.cfg.BackendAddress))
	return s.app.Start()
}

// Close closes the proxy server.
func (s *Server) Close() error {
	s.ctxCancel()
	s.pool.Release()
	err := s.app.Stop()
	s.logger.Info("proxy server stopped", s.counterSet.fields()...)
	return err
}

// handle runs for the lifetime of one client connection.
func (s *Server) handle(rs goetty.IOSession) error {
	s.counterSet.connAccepted.Add(1)
	s.counterSet.connTotal.Add(1)
	metric.ConnAcceptedCounter.Inc()
	defer s.counterSet.connAccepted.Add(-1)

	logger := s.logger.With(
		zap.Uint64("session id", rs.ID()),
		zap.String("client addr", rs.RemoteAddress()))
	logger.Debug("client connection accepted")

	backend, err := s.dialBackend()
	if err != nil {
		s.counterSet.dialFailed.Add(1)
		logger.Error("failed to connect to backend",
			zap.String("backend", s.cfg.BackendAddress), zap.Error(err))
		return withCode(err, codeDialFailed)
	}

	t := newTunnel(s.ctx, logger, s.counterSet,
		withSubmitter(s.pool.Submit),
		withBufferSize(s.cfg.BufferSize))
	defer func() {
		_ = t.Close()
	}()
	if err := t.run(rs.RawConn(), backend.RawConn()); err != nil {
		return err
	}

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case err := <-t.errC:
		if getErrorCode(err) != codeNone {
			s.counterSet.updateWithErr(err)
			logger.Debug("tunnel ended", zap.Error(err))
			return nil
		}
		return err
	}
}

// dialBackend builds the server side connection of a tunnel.
func (s *Server) dialBackend() (goetty.IOSession, error) {
	c := goetty.NewIOSession(
		goetty.WithSessionCodec(NewMySQLCodec()),
		goetty.WithSessionLogger(s.logger),
	)
	if err := c.Connect(s.cfg.BackendAddress, s.cfg.DialTimeout.Duration); err != nil {
		return nil, err
	}
	return c, nil
}

// statsLoop logs the proxy counters periodically.
func (s *Server) statsLoop() {
	interval := s.cfg.StatsInterval.Duration
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.logger.Info("proxy counter", s.counterSet.fields()...)
		}
	}
}
