// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shdr-stream/obspipeline/internal/config"
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/ingress/natsadapter"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/internal/obsmetrics"
	"github.com/shdr-stream/obspipeline/internal/pipeline"
	"github.com/shdr-stream/obspipeline/internal/sink"
)

var (
	flagListenAddr string
	flagJSONLog    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start ingesting from NATS and serving /metrics",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListenAddr, "listen", ":9110", "address the /metrics HTTP server listens on")
	serveCmd.Flags().StringVar(&flagJSONLog, "replay-log", "", "if set, also append every delivered observation to this JSON-lines file")
}

func runServe(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		return err
	}
	cfg, err := config.Init(json.RawMessage(raw))
	if err != nil {
		return err
	}

	model, err := devicemodel.Load(flagModelFile)
	if err != nil {
		return err
	}

	rt, err := pipeline.NewRuntime(model, cfg)
	if err != nil {
		return err
	}

	collector := obsmetrics.New()
	promSink := sink.NewPrometheus(rt.Buffer, collector, "")
	defer promSink.Close()

	if flagJSONLog != "" {
		f, err := os.OpenFile(flagJSONLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logSink := sink.NewJSONLines(rt.Buffer, f)
		defer logSink.Close()
	}

	conn, err := natsadapter.Connect(cfg.Nats)
	if err != nil {
		return err
	}
	defer conn.Close()

	adapter := natsadapter.New(conn, 4)
	for _, sub := range cfg.NatsSubscriptions {
		src := rt.Source(sub.SubscribeTo, nil)
		if sub.Device != "" {
			src.Options.Device = sub.Device
		}
		adapter.Route(sub.SubscribeTo, src)
	}

	ctx := rt.Start()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		if err := adapter.Run(ctx, &wg); err != nil {
			obslog.Errorf("[OBSAGENT]> nats adapter stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: flagListenAddr, Handler: mux}

	var httpWg sync.WaitGroup
	httpWg.Add(1)
	go func() {
		defer httpWg.Done()
		obslog.Infof("[OBSAGENT]> serving /metrics on %s", flagListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.Errorf("[OBSAGENT]> metrics server: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	obslog.Info("[OBSAGENT]> shutting down")
	server.Shutdown(context.Background())
	rt.Shutdown(&wg)
	httpWg.Wait()
	return nil
}
