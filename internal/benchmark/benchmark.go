// Package benchmark keeps the live metrics panel, runs the timed camera
// path benchmark and builds the exported report.
package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"slices"
	"time"

	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultDuration is the length of one benchmark run.
const DefaultDuration = 12 * time.Second

// Metrics is the live readout refreshed every frame.
type Metrics struct {
	FPS          float64  `json:"fps"`
	MinFPS       float64  `json:"minFps"`
	CPUMs        float64  `json:"cpuMs"`
	MaxFrameTime float64  `json:"maxFrameTime"`
	DrawCalls    int      `json:"drawCalls"`
	Triangles    int      `json:"triangles"`
	MemoryMB     float64  `json:"memoryMb"`
	GPUMs        *float64 `json:"gpuMs"`
}

// RenderCounts is the renderer accounting folded into Metrics.
type RenderCounts struct {
	DrawCalls int
	Triangles int
}

// State is the progress of the current run.
type State struct {
	Active      bool          `json:"active"`
	Progress    float64       `json:"progress"`
	SampleCount int           `json:"sampleCount"`
	Duration    time.Duration `json:"duration"`
}

// Report is the exported benchmark document.
type Report struct {
	Renderer       string         `json:"renderer"`
	Preset         string         `json:"preset"`
	AvgFPS         float64        `json:"avgFps"`
	MinFPS         float64        `json:"minFps"`
	MaxFrameTimeMs float64        `json:"maxFrameTimeMs"`
	DrawCalls      int            `json:"drawCalls"`
	Triangles      int            `json:"triangles"`
	MemoryMB       float64        `json:"memoryMb"`
	GPUMs          *float64       `json:"gpuMs"`
	Settings       ReportSettings `json:"settings"`
}

type ReportSettings struct {
	Rendering settings.RenderingSettings `json:"rendering"`
	Scene     settings.SceneSettings     `json:"scene"`
}

// Runner owns the metrics and the samples of the current run. It is used
// from the render loop only.
type Runner struct {
	metrics Metrics
	state   State
	start   time.Time

	fps       []float64
	frameTime []float64
}

func NewRunner(duration time.Duration) *Runner {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Runner{state: State{Duration: duration}}
}

func (r *Runner) Metrics() Metrics { return r.metrics }

func (r *Runner) State() State { return r.state }

// Start begins a run at now. It refuses to start while a run is active.
func (r *Runner) Start(now time.Time) bool {
	if r.state.Active {
		return false
	}
	r.fps = r.fps[:0]
	r.frameTime = r.frameTime[:0]
	r.start = now
	r.state = State{Active: true, Duration: r.state.Duration}
	logger.Log.Info("Benchmark started", zap.Duration("duration", r.state.Duration))
	return true
}

// Advance updates progress at now and reports whether the run just ended.
func (r *Runner) Advance(now time.Time) (float64, bool) {
	if !r.state.Active {
		return r.state.Progress, false
	}
	progress := min(now.Sub(r.start).Seconds()/r.state.Duration.Seconds(), 1)
	r.state.Progress = progress
	r.state.Active = progress < 1
	r.state.SampleCount = len(r.fps)
	if progress >= 1 {
		logger.Log.Info("Benchmark complete", zap.Int("samples", len(r.fps)))
	}
	return progress, progress >= 1
}

// Record adds a frame sample to the run.
func (r *Runner) Record(s framestats.Sample) {
	r.fps = append(r.fps, s.FPS)
	r.frameTime = append(r.frameTime, s.CPUMs)
	r.state.SampleCount = len(r.fps)
}

// UpdateMetrics folds one frame into the live readout.
func (r *Runner) UpdateMetrics(s framestats.Sample, counts RenderCounts, memoryMB float64) {
	fps := math.Round(s.FPS)
	m := &r.metrics
	if m.MinFPS == 0 {
		m.MinFPS = fps
	} else {
		m.MinFPS = min(m.MinFPS, fps)
	}
	m.FPS = fps
	m.CPUMs = round2(s.CPUMs)
	m.MaxFrameTime = max(m.MaxFrameTime, s.CPUMs)
	m.DrawCalls = counts.DrawCalls
	m.Triangles = counts.Triangles
	m.MemoryMB = memoryMB
	m.GPUMs = s.GPUMs
}

// ResetMetrics clears the running minimum and maximum, as after a backend switch.
func (r *Runner) ResetMetrics() { r.metrics = Metrics{} }

// Report builds the export for the finished or current run. It returns
// false when no samples were recorded.
func (r *Runner) Report(renderer, preset string, rendering settings.RenderingSettings, sceneSettings settings.SceneSettings) (*Report, bool) {
	if len(r.fps) == 0 {
		return nil, false
	}
	var sum float64
	for _, v := range r.fps {
		sum += v
	}
	return &Report{
		Renderer:       renderer,
		Preset:         preset,
		AvgFPS:         math.Round(sum / float64(len(r.fps))),
		MinFPS:         math.Round(slices.Min(r.fps)),
		MaxFrameTimeMs: round2(slices.Max(r.frameTime)),
		DrawCalls:      r.metrics.DrawCalls,
		Triangles:      r.metrics.Triangles,
		MemoryMB:       r.metrics.MemoryMB,
		GPUMs:          r.metrics.GPUMs,
		Settings:       ReportSettings{Rendering: rendering, Scene: sceneSettings},
	}, true
}

// CameraPath returns the camera position and look target at progress t in
// [0, 1]: a wobbling orbit around the origin.
func CameraPath(t float64) (mgl32.Vec3, mgl32.Vec3) {
	angle := t * math.Pi * 2
	radius := 8 + math.Sin(angle)*1.2
	pos := mgl32.Vec3{
		float32(math.Cos(angle) * radius),
		float32(4 + math.Cos(angle*2)*1.2),
		float32(math.Sin(angle) * radius),
	}
	return pos, mgl32.Vec3{0, 1.2, 0}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FileName returns a timestamped export name such as benchmark-1700000000000.json.
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d.json", prefix, now.UnixMilli())
}

// HeapMB returns the live Go heap in megabytes, rounded to one decimal.
func HeapMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return math.Round(float64(ms.Alloc)/1024/1024*10) / 10
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
