// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package natsadapter feeds SHDR lines received over NATS into a pipeline
// Source, grounded on pkg/nats's Client.Subscribe callback shape and
// internal/memorystore/lineprotocol.go's worker-pool fan-out: each subject
// gets its own bounded channel and dedicated drain goroutine, so one slow or
// bursty subject cannot starve another's Source, while lines for a single
// subject are always delivered to that subject's Source strictly in
// receive order -- required by §5's "each adapter source owns a serial
// execution context", which a shared fan-in worker pool across subjects
// would violate.
package natsadapter

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/nats-io/nats.go"

	"github.com/shdr-stream/obspipeline/internal/config"
)

// lineSource is the subset of *pipeline.Source the adapter depends on,
// narrowed to avoid an import-cycle-prone dependency on the full Source
// type and to keep the adapter trivially testable with a fake.
type lineSource interface {
	ProcessLine(raw string)
}

// Adapter subscribes to a set of NATS subjects and routes each message's
// payload, split on newlines, to the Source registered for its subject.
type Adapter struct {
	conn       *nats.Conn
	queueDepth int

	mu     sync.Mutex
	routes map[string]lineSource
	subs   []*nats.Subscription
}

// Connect dials the configured NATS server, mirroring pkg/nats.NewClient's
// option wiring (auth, reconnect/error logging) without the teacher's
// package-level singleton, since a pipeline runtime may own more than one
// connection in tests.
func Connect(cfg config.NatsServer) (*nats.Conn, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("natsadapter: server address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			cclog.Warnf("[NATSADAPTER]> disconnected: %v", err)
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		cclog.Infof("[NATSADAPTER]> reconnected to %s", nc.ConnectedUrl())
	}))
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		cclog.Errorf("[NATSADAPTER]> %v", err)
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsadapter: connect failed: %w", err)
	}
	cclog.Infof("[NATSADAPTER]> connected to %s", cfg.Address)
	return nc, nil
}

// New creates an Adapter over an already-connected NATS connection.
// queueDepth sets the per-subject channel depth (the teacher's ReceiveNats
// takes a similar buffering knob for its fan-in worker pool).
func New(conn *nats.Conn, queueDepth int) *Adapter {
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &Adapter{conn: conn, queueDepth: queueDepth, routes: make(map[string]lineSource)}
}

// Route registers src as the destination for messages on subject. Run
// subscribes to the routes registered before it starts; a route added
// after Run has started is not subscribed.
func (a *Adapter) Route(subject string, src lineSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[subject] = src
}

// Run subscribes to every routed subject, each on its own bounded channel
// and drain goroutine, until ctx is cancelled, then unsubscribes and
// drains. wg mirrors memorystore.Init's lifecycle convention: the caller
// Adds before calling Run in a goroutine and Run calls Done on return.
func (a *Adapter) Run(ctx context.Context, wg *sync.WaitGroup) error {
	defer wg.Done()

	var drainWg sync.WaitGroup

	a.mu.Lock()
	for subject, src := range a.routes {
		msgs := make(chan *nats.Msg, a.queueDepth)
		sub, err := a.conn.Subscribe(subject, func(m *nats.Msg) {
			select {
			case msgs <- m:
			case <-ctx.Done():
			}
		})
		if err != nil {
			a.mu.Unlock()
			return fmt.Errorf("natsadapter: subscribe to %q failed: %w", subject, err)
		}
		a.subs = append(a.subs, sub)
		cclog.Infof("[NATSADAPTER]> subscribed to %q", subject)

		drainWg.Add(1)
		go func(src lineSource, msgs chan *nats.Msg) {
			defer drainWg.Done()
			a.drain(src, msgs)
		}(src, msgs)

		go func(msgs chan *nats.Msg) {
			<-ctx.Done()
			close(msgs)
		}(msgs)
	}
	a.mu.Unlock()

	<-ctx.Done()

	a.mu.Lock()
	for _, sub := range a.subs {
		if err := sub.Unsubscribe(); err != nil {
			cclog.Warnf("[NATSADAPTER]> unsubscribe failed: %v", err)
		}
	}
	a.subs = nil
	a.mu.Unlock()

	drainWg.Wait()
	return nil
}

// drain decodes each message's payload into lines and feeds them to src in
// receive order, one subject per goroutine, preserving the single-source
// serial-delivery guarantee of §5 while subjects still drain concurrently
// with each other.
func (a *Adapter) drain(src lineSource, msgs <-chan *nats.Msg) {
	for m := range msgs {
		for _, line := range bytes.Split(m.Data, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			src.ProcessLine(string(line))
		}
	}
}
