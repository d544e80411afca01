// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline assembles the observation pipeline (§2, §4): the
// tokenizer, timestamp extractor, token mapper, unit converter,
// duplicate/delta/period filters, condition chainer, and sequencer, wired
// together as a directed acyclic graph of Transform nodes rooted at a
// per-source Strand.
package pipeline

import "github.com/shdr-stream/obspipeline/pkg/observation"

// Verdict is the outcome of a Transform's guard predicate (§4.1).
type Verdict int

const (
	// RUN calls Apply and forwards its result to the matching next node.
	RUN Verdict = iota
	// SKIP bypasses this node's Apply, forwarding the entity unchanged.
	SKIP
	// STOP drops the entity silently.
	STOP
)

// Guard decides whether a Transform runs, is skipped, or stops the flow for
// a given observation (§4.1).
type Guard func(*observation.Observation) Verdict

// Apply performs the transform's work, producing zero or one successor
// observation. A nil result (with nil error) suppresses the flow, exactly
// like the source's "produces no successor" case.
type Apply func(*observation.Observation) (*observation.Observation, error)

// Transform is one node of the pipeline DAG: a guard predicate, an apply
// operation, and a next-map keyed by the successor's observation Kind
// (§4.1). The type-keyed next-map mirrors the original's
// std::type_index-keyed TransformMap, generalized to Go's tagged-variant
// Kind discriminant (design note §9).
type Transform struct {
	Name  string
	guard Guard
	apply Apply
	next  map[observation.Kind]*Transform
}

// NewTransform builds a node. guard may be nil, meaning "always RUN".
func NewTransform(name string, guard Guard, apply Apply) *Transform {
	return &Transform{Name: name, guard: guard, apply: apply, next: make(map[observation.Kind]*Transform)}
}

// Bind registers successor as the next node to receive observations of the
// given kind, mirroring Transform::bind<T> in source/transform.hpp.
func (t *Transform) Bind(kind observation.Kind, successor *Transform) {
	t.next[kind] = successor
}

// BindAll registers successor for every kind listed.
func (t *Transform) BindAll(successor *Transform, kinds ...observation.Kind) {
	for _, k := range kinds {
		t.Bind(k, successor)
	}
}

// Process runs the guard, applies the transform if warranted, and forwards
// the result (or the original observation, for SKIP) to whichever next node
// is bound for its kind. Returns the terminal observation (possibly nil, if
// dropped) and the first error encountered.
func (t *Transform) Process(obs *observation.Observation) (*observation.Observation, error) {
	verdict := RUN
	if t.guard != nil {
		verdict = t.guard(obs)
	}

	var out *observation.Observation
	switch verdict {
	case STOP:
		return nil, nil
	case SKIP:
		out = obs
	default: // RUN
		var err error
		out, err = t.apply(obs)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
	}

	succ, ok := t.next[out.Kind]
	if !ok {
		return out, nil
	}
	return succ.Process(out)
}
