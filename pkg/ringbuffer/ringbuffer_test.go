package ringbuffer

import (
	"testing"

	"github.com/shdr-stream/obspipeline/pkg/observation"
)

func mustNew(t *testing.T, capacity int) *RingBuffer {
	t.Helper()
	rb, err := New(capacity)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return rb
}

func obs(id string) *observation.Observation {
	return &observation.Observation{Kind: observation.KindSample, DataItemID: id, Value: observation.Int64Value(1)}
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := New(3); err != ErrInvalidCapacity {
		t.Fatalf("New(3) err = %v, want ErrInvalidCapacity", err)
	}
}

func TestDeliverAssignsMonotonicSequence(t *testing.T) {
	rb := mustNew(t, 4)
	s1 := rb.Deliver(obs("a"))
	s2 := rb.Deliver(obs("b"))
	if s1 != 1 || s2 != 2 {
		t.Fatalf("sequences = %d, %d, want 1, 2", s1, s2)
	}
}

func TestAtRoundTrip(t *testing.T) {
	rb := mustNew(t, 4)
	o := obs("x")
	seq := rb.Deliver(o)
	got, err := rb.At(seq)
	if err != nil {
		t.Fatalf("At(%d): %v", seq, err)
	}
	if got.DataItemID != "x" {
		t.Errorf("At(%d).DataItemID = %q, want x", seq, got.DataItemID)
	}
}

func TestAtNotYetDelivered(t *testing.T) {
	rb := mustNew(t, 4)
	rb.Deliver(obs("a"))
	if _, err := rb.At(99); err != ErrNotFound {
		t.Fatalf("At(99) err = %v, want ErrNotFound", err)
	}
}

func TestAtGapAfterWrapAround(t *testing.T) {
	rb := mustNew(t, 4)
	for i := 0; i < 10; i++ {
		rb.Deliver(obs("a"))
	}
	// Capacity 4, 10 deliveries: sequences 1..10, first should now be 7.
	if rb.First() != 7 {
		t.Fatalf("First() = %d, want 7", rb.First())
	}
	if _, err := rb.At(3); err != ErrGap {
		t.Fatalf("At(3) err = %v, want ErrGap", err)
	}
	if _, err := rb.At(7); err != nil {
		t.Fatalf("At(7) err = %v, want nil", err)
	}
}

func TestCurrentReflectsLatestPerDataItem(t *testing.T) {
	rb := mustNew(t, 8)
	rb.Deliver(obs("a"))
	second := obs("a")
	second.Value = observation.Int64Value(2)
	rb.Deliver(second)

	snap := rb.Current()
	got, ok := snap["a"]
	if !ok {
		t.Fatalf("Current() missing data item a")
	}
	if got.Value.Int != 2 {
		t.Errorf("Current()[a].Value.Int = %d, want 2", got.Value.Int)
	}
}

func TestRangeIteratesInOrder(t *testing.T) {
	rb := mustNew(t, 8)
	for _, id := range []string{"a", "b", "c"} {
		rb.Deliver(obs(id))
	}
	it := rb.Range(1, 3, nil)
	var got []string
	for {
		o, ok, err := it.Next()
		if err != nil {
			t.Fatalf("unexpected gap: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, o.DataItemID)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Range yielded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Range()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRangeFilterByDataItem(t *testing.T) {
	rb := mustNew(t, 8)
	rb.Deliver(obs("a"))
	rb.Deliver(obs("b"))
	rb.Deliver(obs("a"))

	it := rb.Range(1, 3, map[string]bool{"b": true})
	o, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("expected one match, err=%v ok=%v", err, ok)
	}
	if o.DataItemID != "b" {
		t.Errorf("filtered Range yielded %q, want b", o.DataItemID)
	}
	if _, ok, _ := it.Next(); ok {
		t.Errorf("expected only one match for filter {b}")
	}
}

func TestSubscribeReceivesNewDeliveries(t *testing.T) {
	rb := mustNew(t, 8)
	ch, cancel := rb.Subscribe(4)
	defer cancel()

	rb.Deliver(obs("a"))
	select {
	case o := <-ch:
		if o.DataItemID != "a" {
			t.Errorf("received %q, want a", o.DataItemID)
		}
	default:
		t.Fatalf("expected a delivery on the subscriber channel")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	rb := mustNew(t, 8)
	ch, cancel := rb.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Errorf("channel should be closed after cancel")
	}
}
