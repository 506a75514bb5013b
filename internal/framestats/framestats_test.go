package framestats

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeQueries struct {
	next      uint32
	begun     int
	ended     int
	disjoint  bool
	available map[uint32]bool
	results   map[uint32]uint64
	deleted   map[uint32]int
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		available: map[uint32]bool{},
		results:   map[uint32]uint64{},
		deleted:   map[uint32]int{},
	}
}

func (f *fakeQueries) Create() (uint32, bool) {
	f.next++
	return f.next, true
}
func (f *fakeQueries) Begin(uint32)                  { f.begun++ }
func (f *fakeQueries) End()                          { f.ended++ }
func (f *fakeQueries) ResultAvailable(q uint32) bool { return f.available[q] }
func (f *fakeQueries) Disjoint() bool                { return f.disjoint }
func (f *fakeQueries) Result(q uint32) uint64        { return f.results[q] }
func (f *fakeQueries) Delete(q uint32)               { f.deleted[q]++ }

func TestFPSFromEndFrameDelta(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewWithClock(clock.now)
	tr.Init(nil)

	tr.BeginFrame()
	clock.advance(4 * time.Millisecond)
	tr.EndFrame()

	// 4ms of CPU work, but 20ms between frames because of vsync.
	clock.advance(12 * time.Millisecond)
	tr.BeginFrame()
	clock.advance(4 * time.Millisecond)
	s := tr.EndFrame()

	if s.FPS < 49.9 || s.FPS > 50.1 {
		t.Errorf("Expected 50 fps, got %f", s.FPS)
	}
	if s.CPUMs < 3.99 || s.CPUMs > 4.01 {
		t.Errorf("Expected 4ms cpu, got %f", s.CPUMs)
	}
}

func TestZeroDeltaKeepsPreviousFPS(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewWithClock(clock.now)
	tr.Init(nil)
	clock.advance(10 * time.Millisecond)
	first := tr.EndFrame()
	second := tr.EndFrame()
	if second.FPS != first.FPS {
		t.Errorf("Expected fps %f to carry over, got %f", first.FPS, second.FPS)
	}
}

func TestGPUNilWithoutTimerQueries(t *testing.T) {
	tr := New()
	tr.Init(nil)
	for i := 0; i < 5; i++ {
		tr.BeginFrame()
		if s := tr.EndFrame(); s.GPUMs != nil {
			t.Fatalf("Expected nil gpu time, got %v", *s.GPUMs)
		}
	}
	tr.Dispose()
}

func TestGPUQueriesResolveLate(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	api := newFakeQueries()
	tr := NewWithClock(clock.now)
	tr.Init(api)

	tr.BeginFrame()
	if s := tr.EndFrame(); s.GPUMs != nil {
		t.Fatal("Expected no gpu time before any query resolves")
	}
	tr.BeginFrame()
	tr.EndFrame()

	// Both queries finish; the newest value is reported.
	api.available[1], api.results[1] = true, 2_000_000
	api.available[2], api.results[2] = true, 3_000_000
	tr.BeginFrame()
	s := tr.EndFrame()
	if s.GPUMs == nil || *s.GPUMs != 3 {
		t.Fatalf("Expected 3ms gpu time, got %v", s.GPUMs)
	}
	if api.deleted[1] != 1 || api.deleted[2] != 1 {
		t.Errorf("Expected retired queries deleted once, got %v", api.deleted)
	}
}

func TestDisjointQueriesAreNotRetired(t *testing.T) {
	api := newFakeQueries()
	tr := New()
	tr.Init(api)
	api.disjoint = true
	api.available[1], api.results[1] = true, 1_000_000

	tr.BeginFrame()
	if s := tr.EndFrame(); s.GPUMs != nil {
		t.Error("Expected disjoint result to be ignored")
	}
	if api.deleted[1] != 0 {
		t.Error("Expected disjoint query to stay pending")
	}

	tr.Dispose()
	if api.deleted[1] != 1 {
		t.Errorf("Expected dispose to delete pending query, got %d", api.deleted[1])
	}
	if tr.GPUTimingAvailable() {
		t.Error("Expected tracker to be idle after dispose")
	}
}
