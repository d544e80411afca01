// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/shdr-stream/obspipeline/internal/config"
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

// Runtime owns every Source for a running agent plus the ring buffer they
// share, and manages their goroutine lifecycle the way memorystore.Init /
// memorystore.Shutdown manage the checkpoint/archive/retention workers: a
// stored context.CancelFunc cancelled from Shutdown, with callers Adding to
// a shared sync.WaitGroup before starting background work (§5, §6).
type Runtime struct {
	Buffer *ringbuffer.RingBuffer

	model   devicemodel.DeviceModel
	cfg     config.Config
	sources map[string]*Source

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRuntime creates a Runtime with a ring buffer sized from cfg.BufferSize
// (falling back to ringbuffer.DefaultCapacity for an unset/zero value).
func NewRuntime(model devicemodel.DeviceModel, cfg config.Config) (*Runtime, error) {
	capacity := cfg.BufferSize
	if capacity == 0 {
		capacity = ringbuffer.DefaultCapacity
	}
	rb, err := ringbuffer.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("pipeline: runtime: %w", err)
	}
	return &Runtime{
		Buffer:  rb,
		model:   model,
		cfg:     cfg,
		sources: make(map[string]*Source),
	}, nil
}

// Source returns the named Source, creating one bound to the shared ring
// buffer and device model on first use. Every adapter connection (one NATS
// subscription, one replay file) gets its own Source, matching §5's "each
// adapter source owns a serial execution context".
func (r *Runtime) Source(name string, externalCommand func(key, value string)) *Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[name]; ok {
		return s
	}
	s := NewSource(name, r.model, r.Buffer, r.cfg, externalCommand)
	r.sources[name] = s
	obslog.Infof("[PIPELINE]> source %q started", name)
	return s
}

// Start arms the Runtime's internal cancellation context. The returned
// context is passed to every background worker (NATS adapters, replay
// readers) the caller spawns against wg; Shutdown cancels it.
func (r *Runtime) Start() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	return ctx
}

// Shutdown cancels the Start context, waits on wg, and closes every
// Source's Strand; work still queued on a strand is dropped, not drained.
func (r *Runtime) Shutdown(wg *sync.WaitGroup) {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if wg != nil {
		wg.Wait()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, s := range r.sources {
		s.Close()
		obslog.Infof("[PIPELINE]> source %q stopped", name)
	}
}
