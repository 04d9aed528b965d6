package pipeline

import "testing"

func TestTimerRingReadsPreviousFrame(t *testing.T) {
	ring := NewTimerRing([]uint32{1, 2}, []uint32{3, 4})

	if _, ok := ring.Pending(); ok {
		t.Fatal("expected nothing pending before the first frame")
	}

	first := ring.Issue()
	ring.Advance()
	if _, ok := ring.Pending(); ok {
		t.Fatal("expected nothing pending after one frame: the next set was never written")
	}

	second := ring.Issue()
	if second[0] == first[0] {
		t.Fatal("consecutive frames must write different query sets")
	}
	ring.Advance()

	pending, ok := ring.Pending()
	if !ok || pending[0] != first[0] {
		t.Fatalf("expected the first frame's set pending, got %v, %v", pending, ok)
	}
	if ring.Issue()[0] != first[0] {
		t.Error("expected the pending set to be reused next")
	}
}

func TestTimerRingNil(t *testing.T) {
	var ring *TimerRing
	if ring.Issue() != nil {
		t.Error("nil ring should issue nothing")
	}
	ring.Advance()
	if _, ok := ring.Pending(); ok {
		t.Error("nil ring should have nothing pending")
	}
	if ring.Sets() != nil {
		t.Error("nil ring should have no sets")
	}
}
