// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package observation

import "sync"

// ConditionLevel is the severity of a single condition-chain node (§3, §4.9).
type ConditionLevel int

const (
	ConditionNormal ConditionLevel = iota
	ConditionWarning
	ConditionFault
	ConditionUnavailable
)

func (l ConditionLevel) String() string {
	switch l {
	case ConditionNormal:
		return "Normal"
	case ConditionWarning:
		return "Warning"
	case ConditionFault:
		return "Fault"
	case ConditionUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// ConditionNode is one entry of a condition chain: an active fault/warning
// for a data item. Nodes are allocated from a ConditionArena and referenced
// by handle (design note §9: replaces the source's shared_from_this /
// back-pointer chain with arena-owned integer handles).
type ConditionNode struct {
	Level          ConditionLevel
	NativeCode     string
	NativeSeverity string
	Qualifier      string
	Text           string
}

// ConditionArena owns the backing storage for condition nodes. Handles are
// stable for the lifetime of the arena; nodes are never mutated in place
// once allocated (update-in-place from §4.9 allocates a fresh node and
// the chain is repointed to the new handle), so a handle observed by a
// reader is always consistent.
type ConditionArena struct {
	mu    sync.Mutex
	nodes []ConditionNode
}

// NewConditionArena creates an empty arena.
func NewConditionArena() *ConditionArena {
	return &ConditionArena{}
}

// Alloc stores n and returns a stable handle for it.
func (a *ConditionArena) Alloc(n ConditionNode) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

// Get returns the node for handle h.
func (a *ConditionArena) Get(h int) ConditionNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nodes[h]
}

// ConditionChain is the ordered list of handles for a single data item's
// active (non-Normal) conditions, head first. It is copy-on-write: every
// update to a data item's chain produces a new ConditionChain value with a
// freshly allocated Handles slice, so a reader holding an older ConditionChain
// value continues to see a self-consistent snapshot (§4.9, §4.10).
type ConditionChain struct {
	Handles []int
}

// Head returns the arena handle for the chain's head node, and ok=false for
// an empty (fully Normal) chain.
func (c ConditionChain) Head() (int, bool) {
	if len(c.Handles) == 0 {
		return 0, false
	}
	return c.Handles[0], true
}

// WithoutCode returns a new chain with the node carrying nativeCode removed,
// leaving relative order of the remaining handles untouched.
func (c ConditionChain) WithoutCode(arena *ConditionArena, nativeCode string) ConditionChain {
	out := make([]int, 0, len(c.Handles))
	for _, h := range c.Handles {
		if arena.Get(h).NativeCode != nativeCode {
			out = append(out, h)
		}
	}
	return ConditionChain{Handles: out}
}

// indexOfCode returns the position of the node with nativeCode, or -1.
func (c ConditionChain) indexOfCode(arena *ConditionArena, nativeCode string) int {
	for i, h := range c.Handles {
		if arena.Get(h).NativeCode == nativeCode {
			return i
		}
	}
	return -1
}

// ConditionPayload is the Condition-specific observation payload: the level
// and code of the update that produced this observation, plus the handle of
// what was previously the chain head so sinks can reconstruct the chain that
// was active immediately before this update (§3: "back-reference to the
// previous active condition").
type ConditionPayload struct {
	Level      ConditionLevel
	NativeCode string
	Chain      ConditionChain
	PrevHead   int
	HadPrev    bool
}
