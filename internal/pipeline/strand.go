// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "sync"

// Strand is the Go stand-in for the original's
// boost::asio::io_context::strand (§5): a serial execution context backed
// by a single goroutine draining a work queue, so every Transform for one
// source runs without per-source locking and timer continuations (§4.8)
// are serialized the same way as ordinary line processing.
type Strand struct {
	work chan func()
	done chan struct{}
	once sync.Once
}

// NewStrand creates a Strand with the given work-queue depth and starts its
// goroutine.
func NewStrand(queueDepth int) *Strand {
	s := &Strand{
		work: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Strand) run() {
	for {
		select {
		case fn, ok := <-s.work:
			if !ok {
				return
			}
			select {
			case <-s.done:
				return
			default:
			}
			fn()
		case <-s.done:
			return
		}
	}
}

// Post enqueues fn to run on the strand's goroutine. A late Post after
// Close is a no-op, matching §5's "callback observes cancellation and
// returns" shutdown-race policy.
func (s *Strand) Post(fn func()) {
	select {
	case s.work <- fn:
	case <-s.done:
	}
}

// Close stops the strand; pending work already queued is dropped, matching
// §5's cancellation semantics (any in-flight delivery completes, but no new
// continuations run).
func (s *Strand) Close() {
	s.once.Do(func() { close(s.done) })
}
