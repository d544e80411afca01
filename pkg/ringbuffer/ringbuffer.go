// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringbuffer implements the sequencer and ring buffer described in
// §4.10: a fixed-capacity circular array of delivered observations indexed
// by sequence number modulo capacity, a per-data-item checkpoint of the
// latest delivered observation, and a lock-free snapshot read path for
// sinks. It is adapted from cc-backend's pkg/metricstore buffer pooling and
// snapshot-read idioms (buffer.go, level.go), collapsed from a
// growable-per-metric buffer chain into the spec's single fixed-size array
// shared by every data item, since the core here orders a single stream of
// heterogeneous observations rather than per-metric time series.
package ringbuffer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shdr-stream/obspipeline/pkg/observation"
)

var (
	// ErrGap is returned by At/Range when the requested sequence has already
	// been evicted from the ring buffer (§5 Backpressure, §7 BufferOverrun).
	ErrGap = errors.New("[RINGBUFFER]> sequence no longer available, resynchronize from checkpoint")
	// ErrNotFound is returned by At for a sequence that has never been
	// delivered (greater than the current last sequence).
	ErrNotFound = errors.New("[RINGBUFFER]> sequence not yet delivered")
	// ErrInvalidCapacity is returned by New for a non-power-of-two capacity.
	ErrInvalidCapacity = errors.New("[RINGBUFFER]> capacity must be a power of two")
)

// DefaultCapacity matches the spec's BufferSize default (§6).
const DefaultCapacity = 131072

// Checkpoint is a point-in-time snapshot of the latest delivered observation
// per data item (§3).
type Checkpoint map[string]*observation.Observation

// RingBuffer is the process-wide sequencer and delivery buffer. All writes
// (one per delivered observation, regardless of source) are serialized
// through a single mutex (§4.10, §5); reads use the lock-free snapshot
// protocol described in At/Range.
type RingBuffer struct {
	mu   sync.Mutex
	data []*observation.Observation

	// first/last are read without the mutex by the snapshot protocol; they
	// are only ever written while mu is held.
	first atomic.Uint64
	last  atomic.Uint64

	checkpoint sync.Map // data item id -> *observation.Observation

	subMu       sync.Mutex
	subscribers map[int]chan *observation.Observation
	nextSubID   int
}

// New creates a RingBuffer with the given capacity, which must be a power
// of two (§6 BufferSize).
func New(capacity int) (*RingBuffer, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}
	return &RingBuffer{
		data:        make([]*observation.Observation, capacity),
		subscribers: make(map[int]chan *observation.Observation),
	}, nil
}

func (r *RingBuffer) cap() uint64 { return uint64(len(r.data)) }

// Deliver assigns obs the next sequence number, inserts it into the ring
// buffer, updates the checkpoint, and notifies subscribers -- the atomic
// step (a)-(e) of §4.10. It is the only mutating entry point into the ring
// buffer and is safe for concurrent use by multiple source strands.
func (r *RingBuffer) Deliver(obs *observation.Observation) uint64 {
	r.mu.Lock()
	seq := r.last.Load() + 1
	obs.Sequence = seq
	r.data[seq%r.cap()] = obs
	r.last.Store(seq)
	if first := r.first.Load(); first == 0 {
		r.first.Store(seq)
	} else if seq-first >= r.cap() {
		r.first.Store(seq - r.cap() + 1)
	}
	r.checkpoint.Store(obs.DataItemID, obs)
	// Notifying under mu keeps subscriber delivery in sequence order across
	// concurrent Deliver calls; notify never blocks.
	r.notify(obs)
	r.mu.Unlock()
	return seq
}

// Current returns a snapshot of the checkpoint: the latest delivered
// observation for every data item seen so far (§6 "current()").
func (r *RingBuffer) Current() Checkpoint {
	snap := make(Checkpoint)
	r.checkpoint.Range(func(key, value any) bool {
		snap[key.(string)] = value.(*observation.Observation)
		return true
	})
	return snap
}

// CurrentFor returns the latest delivered observation for a single data
// item, and ok=false if none has ever been delivered.
func (r *RingBuffer) CurrentFor(dataItemID string) (*observation.Observation, bool) {
	v, ok := r.checkpoint.Load(dataItemID)
	if !ok {
		return nil, false
	}
	return v.(*observation.Observation), true
}

// At returns the observation delivered at the given sequence, using the
// lock-free snapshot protocol from §4.10: copy first/last, and if the
// sequence still falls in range after reading the slot, the read is valid;
// if first advanced past it mid-read (the slot was overwritten), the read is
// retried once against the refreshed first/last before giving up with
// ErrGap.
func (r *RingBuffer) At(seq uint64) (*observation.Observation, error) {
	for attempt := 0; attempt < 2; attempt++ {
		first := r.first.Load()
		last := r.last.Load()
		if seq == 0 || seq > last {
			return nil, ErrNotFound
		}
		if seq < first {
			return nil, ErrGap
		}
		obs := r.data[seq%r.cap()]
		if r.first.Load() <= seq {
			return obs, nil
		}
		// first advanced past seq while we were reading it: the slot may
		// already hold a newer observation. Retry once against the fresh
		// cursor before reporting a gap.
	}
	return nil, ErrGap
}

// RangeIterator lazily yields observations in [from, to] in sequence order.
// It is restartable: calling Range again with (lastSeq+1, to) resumes where
// a previous iterator left off (§6 "range()").
type RangeIterator struct {
	rb      *RingBuffer
	next    uint64
	to      uint64
	filter  map[string]bool
}

// Range returns an iterator over delivered observations with sequence in
// [from, to]. If filterSet is non-nil, only observations whose DataItemID is
// present in filterSet are yielded.
func (r *RingBuffer) Range(from, to uint64, filterSet map[string]bool) *RangeIterator {
	return &RangeIterator{rb: r, next: from, to: to, filter: filterSet}
}

// Next returns the next matching observation, or ok=false when the range is
// exhausted. A non-nil error means a gap was encountered (the caller should
// resynchronize via Current and restart with a fresh "from").
func (it *RangeIterator) Next() (obs *observation.Observation, ok bool, err error) {
	for it.next <= it.to {
		seq := it.next
		it.next++
		o, err := it.rb.At(seq)
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if it.filter != nil && !it.filter[o.DataItemID] {
			continue
		}
		return o, true, nil
	}
	return nil, false, nil
}

// LastReturnedSequence reports the sequence the iterator should be resumed
// from on a later call to Range, i.e. one past the last sequence consumed.
func (it *RangeIterator) LastReturnedSequence() uint64 { return it.next }

// Subscribe registers a callback channel that receives every observation
// delivered from this point forward, in sequence order (§6 "subscribe()").
// Delivery to subscribers never blocks the producer (§5 Backpressure): a
// slow subscriber simply misses observations once its channel is full,
// which it can detect the same way a polling sink does, by comparing its
// own cursor against Current()/At().
func (r *RingBuffer) Subscribe(buffer int) (ch <-chan *observation.Observation, cancel func()) {
	c := make(chan *observation.Observation, buffer)
	r.subMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = c
	r.subMu.Unlock()

	return c, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub)
		}
	}
}

func (r *RingBuffer) notify(obs *observation.Observation) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, sub := range r.subscribers {
		select {
		case sub <- obs:
		default:
		}
	}
}

// First returns the oldest sequence still held in the buffer (0 if empty).
func (r *RingBuffer) First() uint64 { return r.first.Load() }

// Last returns the most recently delivered sequence (0 if empty).
func (r *RingBuffer) Last() uint64 { return r.last.Load() }

// Len returns the ring buffer's fixed capacity.
func (r *RingBuffer) Len() int { return len(r.data) }
