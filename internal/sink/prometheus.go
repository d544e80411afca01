// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"github.com/shdr-stream/obspipeline/internal/obsmetrics"
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

// Prometheus subscribes to a RingBuffer and updates obsmetrics' gauges and
// delivery counter from every observation it sees, so a scraper always
// reflects the buffer's true high-water mark rather than a value computed
// on the query path (§6.1's "prometheus sink").
type Prometheus struct {
	source string
	cancel func()
	done   chan struct{}
}

// NewPrometheus starts consuming rb immediately, labeling every metric
// with source (the adapter/source name this buffer's observations came
// from, or "" for a buffer shared across sources).
func NewPrometheus(rb *ringbuffer.RingBuffer, collector *obsmetrics.Collector, source string) *Prometheus {
	ch, cancel := rb.Subscribe(256)
	p := &Prometheus{source: source, cancel: cancel, done: make(chan struct{})}
	go p.run(rb, ch, collector)
	return p
}

func (p *Prometheus) run(rb *ringbuffer.RingBuffer, ch <-chan *observation.Observation, collector *obsmetrics.Collector) {
	defer close(p.done)
	for obs := range ch {
		collector.ObservationsOut.WithLabelValues(p.source, obs.Kind.String()).Inc()
		collector.RingBufferLast.Set(float64(obs.Sequence))
		collector.RingBufferFirst.Set(float64(rb.First()))
	}
}

// Close unsubscribes from the ring buffer.
func (p *Prometheus) Close() {
	p.cancel()
	<-p.done
}
