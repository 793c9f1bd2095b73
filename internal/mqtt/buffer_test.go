package mqtt

import "testing"

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		if rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}}) {
			t.Fatalf("push %d dropped a message", i)
		}
	}
	if rb.len() != 5 {
		t.Fatalf("len: got %d, want 5", rb.len())
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}
	if rb.drainAll() != nil {
		t.Error("second drain should be empty")
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	capacity := 5
	rb := newRingBuffer(capacity)

	drops := 0
	for i := 0; i < capacity+3; i++ {
		if rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}}) {
			drops++
		}
	}
	if drops != 3 || rb.dropped != 3 {
		t.Errorf("drops: got %d (counter %d), want 3", drops, rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	for i := range got {
		if want := byte(i + 3); got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
	if rb.dropped != 0 {
		t.Error("drain should reset the drop counter")
	}
}

func TestRingBufferReusableAfterDrain(t *testing.T) {
	rb := newRingBuffer(3)
	for cycle := 0; cycle < 3; cycle++ {
		for i := 0; i < 4; i++ {
			rb.push(bufferedMsg{payload: []byte{byte(cycle*10 + i)}})
		}
		got := rb.drainAll()
		if len(got) != 3 {
			t.Fatalf("cycle %d: got %d items", cycle, len(got))
		}
		if first := got[0].payload[0]; first != byte(cycle*10+1) {
			t.Errorf("cycle %d: oldest kept = %d, want %d", cycle, first, cycle*10+1)
		}
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	rb.push(bufferedMsg{payload: []byte{1}})
	rb.push(bufferedMsg{payload: []byte{2}})
	got := rb.drainAll()
	if len(got) != 1 || got[0].payload[0] != 2 {
		t.Errorf("got %v, want only the newest message", got)
	}
}
