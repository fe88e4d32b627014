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
	"io"
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/sqltap/sqltap/pkg/mysql"
	"github.com/sqltap/sqltap/pkg/util/metric"
)

const (
	connClientName = "client"
	connServerName = "server"

	pipeClientToServer = "c2s"
	pipeServerToClient = "s2c"
)

// errPipeClosed indicates that the pipe has been closed.
var errPipeClosed = errors.New("pipe has been closed")

type tunnelOption func(*tunnel)

// withSubmitter runs the pipe goroutines on a worker pool instead of
// bare goroutines.
func withSubmitter(submit func(func()) error) tunnelOption {
	return func(t *tunnel) {
		t.submit = submit
	}
}

// withBufferSize overrides the per-direction packet buffer size.
func withBufferSize(sz int) tunnelOption {
	return func(t *tunnel) {
		t.bufferSize = sz
	}
}

// tunnel forwards the byte stream between one client and its backend
// server, observing every packet that flows through. It owns two pipes,
// one per direction, each run in its own goroutine.
type tunnel struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	logger    *zap.Logger
	// errC is a channel indicates the tunnel error.
	errC chan error
	// closeOnce controls the close function to close tunnel only once.
	closeOnce sync.Once
	// counterSet counts the events in proxy.
	counterSet *counterSet
	// ob watches the protocol session of this tunnel.
	ob *observer
	// submit schedules the pipe goroutines.
	submit func(func()) error
	// bufferSize is the per-direction packet buffer size, 0 for the
	// default.
	bufferSize int

	mu struct {
		sync.Mutex
		// started indicates that the tunnel has started.
		started bool
		// clientConn is the connection between client and proxy.
		clientConn *MySQLConn
		// serverConn is the connection between proxy and server.
		serverConn *MySQLConn
		// csp is a pipe from client to server.
		csp *pipe
		// scp is a pipe from server to client.
		scp *pipe
	}
}

// newTunnel creates a tunnel.
func newTunnel(ctx context.Context, logger *zap.Logger, cs *counterSet, opts ...tunnelOption) *tunnel {
	ctx, cancel := context.WithCancel(ctx)
	t := &tunnel{
		ctx:        ctx,
		ctxCancel:  cancel,
		logger:     logger,
		errC:       make(chan error, 1),
		counterSet: cs,
		ob:         newObserver(logger, cs),
		submit: func(task func()) error {
			go task()
			return nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// run starts the tunnel, making the data between client and server flow
// in it.
func (t *tunnel) run(clientConn, serverConn net.Conn) error {
	digThrough := func() error {
		t.mu.Lock()
		defer t.mu.Unlock()

		if t.ctx.Err() != nil {
			return t.ctx.Err()
		}
		t.mu.clientConn = newMySQLConn(
			connClientName, clientConn, t.bufferSize, mysql.ClientToServer, t.ob)
		t.mu.serverConn = newMySQLConn(
			connServerName, serverConn, t.bufferSize, mysql.ServerToClient, t.ob)

		// Create the pipes from client to server and server to client.
		t.mu.csp = t.newPipe(pipeClientToServer, t.mu.clientConn, t.mu.serverConn)
		t.mu.scp = t.newPipe(pipeServerToClient, t.mu.serverConn, t.mu.clientConn)
		return nil
	}

	if err := digThrough(); err != nil {
		return errors.Wrap(err, "set up tunnel failed")
	}
	if err := t.kickoff(); err != nil {
		return errors.Wrap(err, "kickoff pipe failed")
	}

	t.mu.Lock()
	t.mu.started = true
	t.mu.Unlock()
	return nil
}

// getPipes returns the pipes.
func (t *tunnel) getPipes() (*pipe, *pipe) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mu.csp, t.mu.scp
}

// getConns returns the client connection and server connection.
func (t *tunnel) getConns() (*MySQLConn, *MySQLConn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mu.clientConn, t.mu.serverConn
}

// setError tries to set the tunnel error if there is no error.
func (t *tunnel) setError(err error) {
	select {
	case t.errC <- err:
		_ = t.Close()
	default:
	}
}

// kickoff starts up the two pipes.
func (t *tunnel) kickoff() error {
	csp, scp := t.getPipes()
	if err := t.submit(func() {
		if err := csp.kickoff(t.ctx); err != nil {
			metric.DisconnectCounter.WithLabelValues("client").Inc()
			t.setError(withCode(err, codeClientDisconnect))
		}
	}); err != nil {
		return err
	}
	if err := t.submit(func() {
		if err := scp.kickoff(t.ctx); err != nil {
			metric.DisconnectCounter.WithLabelValues("server").Inc()
			t.setError(withCode(err, codeServerDisconnect))
		}
	}); err != nil {
		return err
	}
	if err := csp.waitReady(t.ctx); err != nil {
		return err
	}
	if err := scp.waitReady(t.ctx); err != nil {
		return err
	}
	return nil
}

// Close closes the tunnel.
func (t *tunnel) Close() error {
	t.closeOnce.Do(func() {
		if t.ctxCancel != nil {
			t.ctxCancel()
		}
		cc, sc := t.getConns()
		if cc != nil {
			_ = cc.Close()
		}
		if sc != nil {
			_ = sc.Close()
		}
		t.logger.Info("tunnel closed", t.ob.closeFields()...)
	})
	return nil
}

// pipe must be created through newPipe.
type pipe struct {
	name   string
	logger *zap.Logger

	// source connection and destination connection wrapped
	// by a message buffer.
	src *MySQLConn
	dst *MySQLConn

	mu struct {
		sync.Mutex
		// cond is used to wait for the pipe to start.
		cond *sync.Cond
		// closed indicates that the pipe is closed.
		closed bool
		// started indicates that the pipe has started.
		started bool
	}
}

// newPipe creates a pipe.
func (t *tunnel) newPipe(name string, src, dst *MySQLConn) *pipe {
	p := &pipe{
		name:   name,
		logger: t.logger.With(zap.String("pipe-direction", name)),
		src:    src,
		dst:    dst,
	}
	p.mu.cond = sync.NewCond(&p.mu)
	return p
}

// kickoff starts up the pipe and the data flows in it until one side
// goes away.
func (p *pipe) kickoff(ctx context.Context) (e error) {
	start := func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.mu.closed {
			return errPipeClosed
		}
		p.mu.started = true
		p.mu.cond.Broadcast()
		return nil
	}
	finish := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if e != nil {
			p.mu.closed = true
		}
		p.mu.started = false
		p.mu.cond.Broadcast()
	}
	defer finish()

	if err := start(); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.src.sendTo(p.dst); err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			return errors.Wrapf(err, "forward message, name %s", p.name)
		}
	}
}

// waitReady waits until the pipe goroutine has started.
func (p *pipe) waitReady(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.mu.started {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.mu.closed {
			return errPipeClosed
		}
		p.mu.cond.Wait()
	}
	return nil
}
