// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "github.com/shdr-stream/obspipeline/pkg/observation"

// ConditionChainer threads each data item's active-fault chain and applies
// the Normal/Unavailable reset semantics of §4.9. Chains are copy-on-write
// (design note §9): every update replaces the stored ConditionChain value
// rather than mutating it, so a reference handed to a sink earlier remains
// a consistent snapshot.
type ConditionChainer struct {
	arena  *observation.ConditionArena
	chains map[string]observation.ConditionChain
}

// NewConditionChainer creates a chainer backed by its own arena.
func NewConditionChainer() *ConditionChainer {
	return &ConditionChainer{arena: observation.NewConditionArena(), chains: make(map[string]observation.ConditionChain)}
}

// Guard RUNs only for Condition observations.
func (c *ConditionChainer) Guard(obs *observation.Observation) Verdict {
	if obs.Kind != observation.KindCondition || obs.Condition == nil {
		return SKIP
	}
	return RUN
}

// Apply implements §4.9's state machine, emitting an observation whose
// ConditionPayload carries the new chain and a back-reference to the
// previous head.
func (c *ConditionChainer) Apply(obs *observation.Observation) (*observation.Observation, error) {
	id := obs.DataItemID
	chain := c.chains[id]
	prevHead, hadPrev := chain.Head()
	level := obs.Condition.Level
	code := obs.Condition.NativeCode

	var newChain observation.ConditionChain

	switch {
	case level == observation.ConditionUnavailable:
		h := c.arena.Alloc(observation.ConditionNode{Level: observation.ConditionUnavailable})
		newChain = observation.ConditionChain{Handles: []int{h}}

	case level == observation.ConditionNormal && code == "":
		newChain = observation.ConditionChain{}

	case level == observation.ConditionNormal:
		newChain = chain.WithoutCode(c.arena, code)

	default: // Warning or Fault
		newChain = upsertHead(chain, c.arena, observation.ConditionNode{
			Level:          level,
			NativeCode:     code,
			NativeSeverity: obs.Properties.Severity,
			Qualifier:      obs.Properties.Qualifier,
			Text:           obs.Value.Str,
		})
	}

	c.chains[id] = newChain

	// The emitted observation always reflects the new head of the chain
	// (§4.9): an empty chain after a removal still surfaces as Normal, but
	// a removal that leaves another fault/warning at the head (e.g.
	// removing A from [B,A]) surfaces that node, not a bare Normal(A).
	emitLevel := observation.ConditionNormal
	var emitCode string
	if h, ok := newChain.Head(); ok {
		head := c.arena.Get(h)
		emitLevel = head.Level
		emitCode = head.NativeCode
	}

	out := obs.Clone()
	out.Condition = &observation.ConditionPayload{
		Level:      emitLevel,
		NativeCode: emitCode,
		Chain:      newChain,
		PrevHead:   prevHead,
		HadPrev:    hadPrev,
	}
	return out, nil
}

// upsertHead updates the node carrying node.NativeCode in place (moving it
// to the head) or prepends a new node, per §4.9's Warning/Fault branch.
func upsertHead(chain observation.ConditionChain, arena *observation.ConditionArena, node observation.ConditionNode) observation.ConditionChain {
	rest := chain.WithoutCode(arena, node.NativeCode)
	h := arena.Alloc(node)
	handles := make([]int, 0, len(rest.Handles)+1)
	handles = append(handles, h)
	handles = append(handles, rest.Handles...)
	return observation.ConditionChain{Handles: handles}
}
