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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sqltap/sqltap/pkg/config"
	"github.com/sqltap/sqltap/pkg/logutil"
	"github.com/sqltap/sqltap/pkg/proxy"
	"github.com/sqltap/sqltap/pkg/util/metric"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "sqltap",
		Short: "A transparent observing proxy for the MySQL wire protocol",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start the proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}
	start.Flags().StringVarP(&configFile, "config", "c", "./sqltap.toml",
		"toml configuration used to start sqltap")

	root.AddCommand(start)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runStart() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := logutil.Setup(cfg.Log); err != nil {
		return err
	}
	logger := logutil.GetGlobalLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddress != "" {
		startMetricsServer(cfg.MetricsAddress, logger)
	}

	s, err := proxy.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}

	waitSignalToStop(logger)
	return s.Close()
}

func startMetricsServer(addr string, logger *zap.Logger) {
	registry := prometheus.NewRegistry()
	metric.Register(registry)
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

func waitSignalToStop(logger *zap.Logger) {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigchan
	logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
}
