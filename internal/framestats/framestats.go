// Package framestats measures frame rate, CPU time and, where the backend
// exposes timer queries, GPU time.
package framestats

import (
	"time"
)

// QueryAPI is the subset of a timer-query extension the tracker needs.
// Query handles are opaque to the tracker.
type QueryAPI interface {
	Create() (uint32, bool)
	Begin(q uint32)
	End()
	ResultAvailable(q uint32) bool
	Disjoint() bool
	// Result returns elapsed GPU time in nanoseconds.
	Result(q uint32) uint64
	Delete(q uint32)
}

// Sample is one frame's measurement. GPUMs is nil when no GPU timing is available.
type Sample struct {
	FPS   float64  `json:"fps"`
	CPUMs float64  `json:"cpu"`
	GPUMs *float64 `json:"gpu"`
}

type gpuTimer struct {
	api     QueryAPI
	current uint32
	active  bool
	pending []uint32
	lastMs  *float64
}

func (g *gpuTimer) begin() {
	if g.active {
		return
	}
	q, ok := g.api.Create()
	if !ok {
		return
	}
	g.current = q
	g.active = true
	g.api.Begin(q)
}

func (g *gpuTimer) end() {
	if !g.active {
		return
	}
	g.api.End()
	g.pending = append(g.pending, g.current)
	g.active = false
	g.collect()
}

// collect retires every finished query, newest first, without blocking.
func (g *gpuTimer) collect() {
	if len(g.pending) == 0 {
		return
	}
	disjoint := g.api.Disjoint()
	retired := false
	for i := len(g.pending) - 1; i >= 0; i-- {
		q := g.pending[i]
		if !g.api.ResultAvailable(q) || disjoint {
			continue
		}
		// Newest first: the first value retired this cycle is the one reported.
		if !retired {
			ms := float64(g.api.Result(q)) / 1e6
			g.lastMs = &ms
			retired = true
		}
		g.api.Delete(q)
		g.pending = append(g.pending[:i], g.pending[i+1:]...)
	}
}

func (g *gpuTimer) latest() *float64 {
	g.collect()
	if g.lastMs == nil {
		return nil
	}
	v := *g.lastMs
	return &v
}

func (g *gpuTimer) dispose() {
	for _, q := range g.pending {
		g.api.Delete(q)
	}
	if g.active {
		g.api.End()
		g.api.Delete(g.current)
		g.active = false
	}
	g.pending = nil
}

// Tracker is idle until Init and then measures every BeginFrame/EndFrame pair.
type Tracker struct {
	now       func() time.Time
	lastFrame time.Time
	cpuStart  time.Time
	last      Sample
	gpu       *gpuTimer
}

// New returns a tracker using the wall clock.
func New() *Tracker {
	return NewWithClock(time.Now)
}

// NewWithClock returns a tracker reading time from now.
func NewWithClock(now func() time.Time) *Tracker {
	t := &Tracker{now: now}
	t.lastFrame = now()
	return t
}

// Init starts tracking a new renderer. api may be nil when the backend has
// no timer queries.
func (t *Tracker) Init(api QueryAPI) {
	t.Dispose()
	t.lastFrame = t.now()
	if api != nil {
		t.gpu = &gpuTimer{api: api}
	}
}

// GPUTimingAvailable reports whether GPU time will be measured.
func (t *Tracker) GPUTimingAvailable() bool {
	return t.gpu != nil
}

func (t *Tracker) BeginFrame() {
	t.cpuStart = t.now()
	if t.gpu != nil {
		t.gpu.begin()
	}
}

// EndFrame closes the frame. FPS comes from the time between consecutive
// EndFrame calls so presentation and vsync waits are included.
func (t *Tracker) EndFrame() Sample {
	if t.gpu != nil {
		t.gpu.end()
	}
	now := t.now()
	delta := now.Sub(t.lastFrame)
	t.lastFrame = now

	fps := t.last.FPS
	if delta > 0 {
		fps = float64(time.Second) / float64(delta)
	}
	cpu := float64(now.Sub(t.cpuStart)) / float64(time.Millisecond)
	if cpu < 0 {
		cpu = 0
	}
	var gpu *float64
	if t.gpu != nil {
		gpu = t.gpu.latest()
	}
	t.last = Sample{FPS: fps, CPUMs: cpu, GPUMs: gpu}
	return t.last
}

// Last returns the most recent sample.
func (t *Tracker) Last() Sample {
	return t.last
}

// Dispose releases all outstanding queries.
func (t *Tracker) Dispose() {
	if t.gpu != nil {
		t.gpu.dispose()
		t.gpu = nil
	}
}
