// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

// Sequencer is the terminal transform of every flow (§4.10): it hands the
// observation to the ring buffer, which assigns the sequence number,
// updates the checkpoint, and notifies subscribers atomically.
type Sequencer struct {
	RingBuffer *ringbuffer.RingBuffer
}

// NewSequencer creates a Sequencer delivering into rb.
func NewSequencer(rb *ringbuffer.RingBuffer) *Sequencer {
	return &Sequencer{RingBuffer: rb}
}

// Guard always RUNs: every surviving observation reaches delivery.
func (s *Sequencer) Guard(*observation.Observation) Verdict { return RUN }

// Apply delivers obs and returns it (now carrying its assigned Sequence).
func (s *Sequencer) Apply(obs *observation.Observation) (*observation.Observation, error) {
	s.RingBuffer.Deliver(obs)
	return obs, nil
}
