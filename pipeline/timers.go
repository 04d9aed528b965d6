package pipeline

// TimerRing rotates sets of per-pass timer queries so a frame's results are
// read while a later frame is issued. With two sets the results lag one
// frame and reading them never waits on the GPU.
type TimerRing struct {
	sets    [][]uint32
	issued  []bool
	current int
}

// NewTimerRing wraps already generated query sets. Every set must hold one
// query per pass.
func NewTimerRing(sets ...[]uint32) *TimerRing {
	return &TimerRing{sets: sets, issued: make([]bool, len(sets))}
}

// Issue returns the set this frame writes into.
func (t *TimerRing) Issue() []uint32 {
	if t == nil || len(t.sets) == 0 {
		return nil
	}
	return t.sets[t.current]
}

// Advance marks the current set issued and moves to the next one.
func (t *TimerRing) Advance() {
	if t == nil || len(t.sets) == 0 {
		return
	}
	t.issued[t.current] = true
	t.current = (t.current + 1) % len(t.sets)
}

// Pending returns the oldest issued set, the one the next Issue will reuse.
// ok is false until that set has been written at least once.
func (t *TimerRing) Pending() ([]uint32, bool) {
	if t == nil || len(t.sets) == 0 || !t.issued[t.current] {
		return nil, false
	}
	return t.sets[t.current], true
}

// Sets returns every query set, for deletion.
func (t *TimerRing) Sets() [][]uint32 {
	if t == nil {
		return nil
	}
	return t.sets
}
