package testbed

import (
	"fmt"
	"time"

	"GopherTestbed/internal/benchmark"
	"GopherTestbed/internal/lighting"
	"GopherTestbed/internal/pipeline"
)

const memoryInterval = time.Second

// Frame applies finished loads, advances the camera and renders one frame.
// It is a no-op while no renderer is running.
func (d *Driver) Frame(now time.Time) error {
	d.Poll()
	if !d.running || d.rend == nil {
		return nil
	}
	dt := float32(now.Sub(d.lastFrame).Seconds())
	d.lastFrame = now

	sc, camera := d.stage.Scene, d.stage.Camera
	d.stats.BeginFrame()

	benchmarking := d.bench.State().Active
	if benchmarking {
		progress, done := d.bench.Advance(now)
		pos, target := benchmark.CameraPath(progress)
		camera.SetPosition(pos.X(), pos.Y(), pos.Z())
		camera.LookAt(target)
		if done {
			d.status = "Benchmark complete. Metrics ready to export."
			if d.controls != nil {
				d.controls.SetTarget(target)
			}
		}
	} else if d.controls != nil {
		d.controls.Update(dt)
	}

	err := d.rend.Render(sc, camera)
	sample := d.stats.EndFrame()

	info := d.rend.Info()
	if d.memoryAt.IsZero() || now.Sub(d.memoryAt) >= memoryInterval {
		d.memoryMB = benchmark.HeapMB() + info.MemoryMB
		d.memoryAt = now
	}
	d.bench.UpdateMetrics(sample, benchmark.RenderCounts{DrawCalls: info.DrawCalls, Triangles: info.Triangles}, d.memoryMB)
	if benchmarking {
		d.bench.Record(sample)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", d.label, err)
	}
	return nil
}

// Resize follows the viewport. A zero-sized viewport, as seen while a
// window is minimized or being replaced, is ignored.
func (d *Driver) Resize(width, height int) {
	size := pipeline.Size{Width: width, Height: height}
	if size.Empty() {
		return
	}
	d.viewport = size
	if d.stage.Camera != nil {
		d.stage.Camera.SetAspectRatio(float32(width) / float32(height))
	}
	if d.rend != nil {
		d.rend.SetSize(size)
	}
	if d.bundle != nil {
		d.bundle.SetSize(size)
		pipeline.ApplyPostProcessing(d.bundle, d.rendering, d.backend, size, d.stage.Scene)
	}
	lighting.SyncReflectors(d.stage.Scene, d.rendering.ScreenSpaceReflections, size)
}

// StartBenchmark starts a timed run along the benchmark camera path. It
// reports false while a run is already active.
func (d *Driver) StartBenchmark() bool {
	if d.rend == nil || !d.bench.Start(d.now()) {
		return false
	}
	d.status = fmt.Sprintf("Benchmark running (%s)...", d.bench.State().Duration)
	return true
}

func (d *Driver) Metrics() benchmark.Metrics { return d.bench.Metrics() }

func (d *Driver) BenchmarkState() benchmark.State { return d.bench.State() }
