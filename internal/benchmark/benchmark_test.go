package benchmark

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gpu(v float64) *float64 { return &v }

func TestRunLifecycle(t *testing.T) {
	r := NewRunner(0)
	assert.Equal(t, DefaultDuration, r.State().Duration)

	t0 := time.Unix(1000, 0)
	require.True(t, r.Start(t0))
	assert.False(t, r.Start(t0), "a run is already active")

	r.Record(framestats.Sample{FPS: 60, CPUMs: 4})
	r.Record(framestats.Sample{FPS: 30, CPUMs: 12.346})
	r.Record(framestats.Sample{FPS: 45.4, CPUMs: 6})

	progress, done := r.Advance(t0.Add(6 * time.Second))
	assert.InDelta(t, 0.5, progress, 1e-9)
	assert.False(t, done)
	assert.True(t, r.State().Active)
	assert.Equal(t, 3, r.State().SampleCount)

	progress, done = r.Advance(t0.Add(13 * time.Second))
	assert.Equal(t, 1.0, progress)
	assert.True(t, done)
	assert.False(t, r.State().Active)

	r.UpdateMetrics(framestats.Sample{FPS: 59.6, CPUMs: 3, GPUMs: gpu(1.5)}, RenderCounts{DrawCalls: 12, Triangles: 3400}, 42.5)

	rep, ok := r.Report("OpenGL", "High", settings.DefaultRenderingSettings(), settings.DefaultSceneSettings())
	require.True(t, ok)
	assert.Equal(t, 45.0, rep.AvgFPS)
	assert.Equal(t, 30.0, rep.MinFPS)
	assert.Equal(t, 12.35, rep.MaxFrameTimeMs)
	assert.Equal(t, 12, rep.DrawCalls)
	assert.Equal(t, 3400, rep.Triangles)
	assert.Equal(t, 42.5, rep.MemoryMB)
	require.NotNil(t, rep.GPUMs)
	assert.Equal(t, 1.5, *rep.GPUMs)

	require.True(t, r.Start(t0.Add(20*time.Second)), "a finished run can restart")
	_, ok = r.Report("OpenGL", "High", settings.DefaultRenderingSettings(), settings.DefaultSceneSettings())
	assert.False(t, ok, "restart clears samples")
}

func TestMetricsTrackExtremes(t *testing.T) {
	r := NewRunner(time.Second)
	r.UpdateMetrics(framestats.Sample{FPS: 60.2, CPUMs: 5.555}, RenderCounts{}, 0)
	r.UpdateMetrics(framestats.Sample{FPS: 20, CPUMs: 9}, RenderCounts{}, 0)
	r.UpdateMetrics(framestats.Sample{FPS: 50, CPUMs: 2}, RenderCounts{DrawCalls: 3}, 0)

	m := r.Metrics()
	assert.Equal(t, 50.0, m.FPS)
	assert.Equal(t, 20.0, m.MinFPS)
	assert.Equal(t, 9.0, m.MaxFrameTime)
	assert.Equal(t, 2.0, m.CPUMs)
	assert.Equal(t, 3, m.DrawCalls)
	assert.Nil(t, m.GPUMs)

	r.ResetMetrics()
	assert.Equal(t, Metrics{}, r.Metrics())
}

func TestCameraPathIsClosed(t *testing.T) {
	p0, target := CameraPath(0)
	p1, _ := CameraPath(1)
	assert.InDelta(t, p0.X(), p1.X(), 1e-4)
	assert.InDelta(t, p0.Y(), p1.Y(), 1e-4)
	assert.InDelta(t, p0.Z(), p1.Z(), 1e-4)
	assert.InDelta(t, 8, p0.X(), 1e-5)
	assert.InDelta(t, 5.2, p0.Y(), 1e-5)
	assert.Equal(t, float32(1.2), target.Y())

	quarter, _ := CameraPath(0.25)
	assert.InDelta(t, 9.2, quarter.Z(), 1e-4)
	assert.InDelta(t, 4-1.2, quarter.Y(), 1e-4)
	assert.InDelta(t, 0, quarter.X(), 1e-4)
}

func TestReportJSONShape(t *testing.T) {
	r := NewRunner(time.Second)
	r.Start(time.Unix(0, 0))
	r.Record(framestats.Sample{FPS: 60, CPUMs: 1})
	rep, ok := r.Report("WebGPU", "Custom", settings.DefaultRenderingSettings(), settings.DefaultSceneSettings())
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"renderer", "preset", "avgFps", "minFps", "maxFrameTimeMs", "drawCalls", "triangles", "memoryMb", "gpuMs", "settings"} {
		assert.Contains(t, doc, key)
	}
	assert.Nil(t, doc["gpuMs"], "no GPU timing exports null")
	s := doc["settings"].(map[string]any)
	assert.Contains(t, s, "rendering")
	assert.Contains(t, s, "scene")
}

func TestFileNameAndHeap(t *testing.T) {
	assert.Equal(t, "benchmark-1500.json", FileName("benchmark", time.UnixMilli(1500)))
	mb := HeapMB()
	assert.Positive(t, mb)
	assert.Equal(t, mb, math.Round(mb*10)/10)
}
