package observation

import "testing"

func TestConditionArenaAllocIsStable(t *testing.T) {
	arena := NewConditionArena()
	h1 := arena.Alloc(ConditionNode{Level: ConditionFault, NativeCode: "A"})
	h2 := arena.Alloc(ConditionNode{Level: ConditionWarning, NativeCode: "B"})
	if arena.Get(h1).NativeCode != "A" {
		t.Errorf("handle %d should still resolve to node A", h1)
	}
	if arena.Get(h2).NativeCode != "B" {
		t.Errorf("handle %d should still resolve to node B", h2)
	}
}

func TestConditionChainHeadEmpty(t *testing.T) {
	var c ConditionChain
	if _, ok := c.Head(); ok {
		t.Errorf("empty chain should report ok=false")
	}
}

func TestConditionChainWithoutCodePreservesOrder(t *testing.T) {
	arena := NewConditionArena()
	ha := arena.Alloc(ConditionNode{NativeCode: "A"})
	hb := arena.Alloc(ConditionNode{NativeCode: "B"})
	hc := arena.Alloc(ConditionNode{NativeCode: "C"})
	chain := ConditionChain{Handles: []int{ha, hb, hc}}

	out := chain.WithoutCode(arena, "B")
	if len(out.Handles) != 2 || out.Handles[0] != ha || out.Handles[1] != hc {
		t.Fatalf("withoutCode(B) = %v, want [A, C] handles", out.Handles)
	}

	// original chain must be untouched (copy-on-write).
	if len(chain.Handles) != 3 {
		t.Errorf("original chain was mutated, len = %d", len(chain.Handles))
	}
}

func TestConditionChainIndexOfCode(t *testing.T) {
	arena := NewConditionArena()
	ha := arena.Alloc(ConditionNode{NativeCode: "A"})
	hb := arena.Alloc(ConditionNode{NativeCode: "B"})
	chain := ConditionChain{Handles: []int{ha, hb}}

	if idx := chain.indexOfCode(arena, "B"); idx != 1 {
		t.Errorf("indexOfCode(B) = %d, want 1", idx)
	}
	if idx := chain.indexOfCode(arena, "Z"); idx != -1 {
		t.Errorf("indexOfCode(Z) = %d, want -1", idx)
	}
}
