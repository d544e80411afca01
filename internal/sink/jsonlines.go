// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sink holds ring-buffer consumers: components that Subscribe to a
// ringbuffer.RingBuffer and do something with every delivered observation,
// the way the teacher's metricdata layer fans a single in-memory buffer out
// to multiple independent readers.
package sink

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

// record is the replay-log line shape: a flattened, JSON-friendly
// projection of Observation that keeps the Value's single meaningful field
// unambiguous instead of round-tripping the tagged union as-is.
type record struct {
	Sequence  uint64    `json:"sequence"`
	Kind      string    `json:"kind"`
	DataItem  string    `json:"dataItem"`
	Device    string    `json:"device,omitempty"`
	Timestamp string    `json:"timestamp"`
	ValueKind string    `json:"valueKind"`
	String    string    `json:"string,omitempty"`
	Int       *int64    `json:"int,omitempty"`
	Double    *float64  `json:"double,omitempty"`
	Vector    []float64 `json:"vector,omitempty"`
}

func toRecord(obs *observation.Observation) record {
	r := record{
		Sequence:  obs.Sequence,
		Kind:      obs.Kind.String(),
		DataItem:  obs.DataItemID,
		Device:    obs.Device,
		Timestamp: obs.Timestamp.UTC().Format("2006-01-02T15:04:05.999999999Z"),
		ValueKind: obs.Value.Kind.String(),
	}
	switch obs.Value.Kind {
	case observation.ValueString:
		r.String = obs.Value.Str
	case observation.ValueInt64:
		v := obs.Value.Int
		r.Int = &v
	case observation.ValueDouble:
		v := float64(obs.Value.Double)
		r.Double = &v
	case observation.ValueVector:
		r.Vector = make([]float64, len(obs.Value.Vector))
		for i, f := range obs.Value.Vector {
			r.Vector[i] = float64(f)
		}
	}
	return r
}

// JSONLines subscribes to a RingBuffer and writes one JSON object per
// delivered observation to w, newline-delimited, for replay and offline
// inspection (§6.1's "replay-log sink").
type JSONLines struct {
	w      io.Writer
	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

// NewJSONLines starts consuming rb immediately on its own goroutine.
// Writes are serialized with a mutex since the encoder is not otherwise
// safe for concurrent use, though RingBuffer fans out on a single channel
// per subscriber so no concurrent writers are expected in practice.
func NewJSONLines(rb *ringbuffer.RingBuffer, w io.Writer) *JSONLines {
	ch, cancel := rb.Subscribe(256)
	s := &JSONLines{w: w, cancel: cancel, done: make(chan struct{})}
	go s.run(ch)
	return s
}

func (s *JSONLines) run(ch <-chan *observation.Observation) {
	defer close(s.done)
	enc := json.NewEncoder(s.w)
	for obs := range ch {
		s.mu.Lock()
		if err := enc.Encode(toRecord(obs)); err != nil {
			obslog.Warnf("[SINK]> jsonlines: write failed: %v", err)
		}
		s.mu.Unlock()
	}
}

// Close unsubscribes from the ring buffer and waits for the in-flight
// write, if any, to finish.
func (s *JSONLines) Close() {
	s.cancel()
	<-s.done
}
