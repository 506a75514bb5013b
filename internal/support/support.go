// Package support decides which rendering controls the active backend and
// scene can honor, and normalizes settings down to that subset.
package support

import (
	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/settings"
)

// ControlKey names a boolean rendering control.
type ControlKey string

const (
	AmbientOcclusion       ControlKey = "ambientOcclusion"
	ScreenSpaceReflections ControlKey = "screenSpaceReflections"
	DepthOfField           ControlKey = "depthOfField"
	FilmGrain              ControlKey = "filmGrain"
	Vignette               ControlKey = "vignette"
	ChromaticAberration    ControlKey = "chromaticAberration"
	LensFlares             ControlKey = "lensFlares"
	PathTracing            ControlKey = "pathTracing"
	RayTracing             ControlKey = "rayTracing"
	GlobalIllumination     ControlKey = "globalIllumination"
	VolumetricLighting     ControlKey = "volumetricLighting"
)

// Controls lists every control key in display order.
var Controls = []ControlKey{
	AmbientOcclusion,
	ScreenSpaceReflections,
	DepthOfField,
	FilmGrain,
	Vignette,
	ChromaticAberration,
	LensFlares,
	PathTracing,
	RayTracing,
	GlobalIllumination,
	VolumetricLighting,
}

// Label returns the display name of a control.
func (k ControlKey) Label() string {
	switch k {
	case AmbientOcclusion:
		return "SSAO"
	case ScreenSpaceReflections:
		return "SSR"
	case DepthOfField:
		return "Depth of Field"
	case FilmGrain:
		return "Film Grain"
	case Vignette:
		return "Vignette"
	case ChromaticAberration:
		return "Chromatic Aberration"
	case LensFlares:
		return "Lens Flares"
	case PathTracing:
		return "Path Tracing"
	case RayTracing:
		return "Ray Tracing"
	case GlobalIllumination:
		return "Global Illumination"
	case VolumetricLighting:
		return "Volumetric Lighting"
	default:
		return string(k)
	}
}

// Get reads the control's value from s.
func (k ControlKey) Get(s *settings.RenderingSettings) bool {
	if p := k.field(s); p != nil {
		return *p
	}
	return false
}

func (k ControlKey) field(s *settings.RenderingSettings) *bool {
	switch k {
	case AmbientOcclusion:
		return &s.AmbientOcclusion
	case ScreenSpaceReflections:
		return &s.ScreenSpaceReflections
	case DepthOfField:
		return &s.DepthOfField
	case FilmGrain:
		return &s.FilmGrain
	case Vignette:
		return &s.Vignette
	case ChromaticAberration:
		return &s.ChromaticAberration
	case LensFlares:
		return &s.LensFlares
	case PathTracing:
		return &s.PathTracing
	case RayTracing:
		return &s.RayTracing
	case GlobalIllumination:
		return &s.GlobalIllumination
	case VolumetricLighting:
		return &s.VolumetricLighting
	}
	return nil
}

type backendRow struct {
	opengl, webgpu bool
	hint           string
}

// matrix is the single source of backend availability.
var matrix = map[ControlKey]backendRow{
	AmbientOcclusion:       {opengl: true, webgpu: true},
	ScreenSpaceReflections: {opengl: true, webgpu: true},
	DepthOfField:           {opengl: true, webgpu: true},
	FilmGrain:              {opengl: true, webgpu: true},
	Vignette:               {opengl: true, webgpu: false, hint: "Not available in WebGPU"},
	ChromaticAberration:    {opengl: true, webgpu: false, hint: "Not available in WebGPU"},
	LensFlares:             {opengl: true, webgpu: false, hint: "Not available in WebGPU"},
	PathTracing:            {opengl: true, webgpu: false, hint: "Not available in WebGPU"},
	RayTracing:             {hint: "Not implemented yet"},
	GlobalIllumination:     {hint: "Not implemented yet"},
	VolumetricLighting:     {hint: "Not implemented yet"},
}

// Backend availability for antialiasing modes. MSAA on WebGPU is further
// restricted by the requested effects that remain available.
var antiAliasingMatrix = map[settings.AntiAliasingMode]struct{ opengl, webgpu bool }{
	settings.AntiAliasingNone: {true, true},
	settings.AntiAliasingMSAA: {true, true},
	settings.AntiAliasingFXAA: {true, true},
	settings.AntiAliasingSMAA: {true, true},
	settings.AntiAliasingTAA:  {true, true},
}

// RenderingSupport is the derived availability for one backend and settings.
type RenderingSupport struct {
	AntiAliasing map[settings.AntiAliasingMode]bool
	Controls     map[ControlKey]bool
	Hints        map[ControlKey]string

	// Requested effects that rule out WebGPU MSAA while they stay available,
	// and MSAA's backend availability before them.
	msaaConflicts []ControlKey
	msaaBase      bool
}

// Available reports whether control k may be on.
func (s RenderingSupport) Available(k ControlKey) bool {
	return s.Controls[k]
}

// AntiAliasingAvailable reports whether mode may be selected.
func (s RenderingSupport) AntiAliasingAvailable(mode settings.AntiAliasingMode) bool {
	return s.AntiAliasing[mode]
}

// Hint returns the explanation attached to an unavailable control.
func (s RenderingSupport) Hint(k ControlKey) string {
	return s.Hints[k]
}

func (s RenderingSupport) clone() RenderingSupport {
	c := RenderingSupport{
		AntiAliasing:  make(map[settings.AntiAliasingMode]bool, len(s.AntiAliasing)),
		Controls:      make(map[ControlKey]bool, len(s.Controls)),
		Hints:         make(map[ControlKey]string, len(s.Hints)),
		msaaConflicts: s.msaaConflicts,
		msaaBase:      s.msaaBase,
	}
	for k, v := range s.AntiAliasing {
		c.AntiAliasing[k] = v
	}
	for k, v := range s.Controls {
		c.Controls[k] = v
	}
	for k, v := range s.Hints {
		c.Hints[k] = v
	}
	return c
}

// GetAvailability computes the support map for backend and the requested
// settings. It is a pure function of its inputs.
func GetAvailability(backend settings.RendererMode, s *settings.RenderingSettings) RenderingSupport {
	webgpu := backend == settings.RendererWebGPU
	out := RenderingSupport{
		AntiAliasing: make(map[settings.AntiAliasingMode]bool, len(antiAliasingMatrix)),
		Controls:     make(map[ControlKey]bool, len(matrix)),
		Hints:        make(map[ControlKey]string),
	}

	for _, k := range Controls {
		row := matrix[k]
		ok := row.opengl
		if webgpu {
			ok = row.webgpu
		}
		out.Controls[k] = ok
		if !ok && row.hint != "" {
			out.Hints[k] = row.hint
		}
	}

	// Reflections conflict with the traced lighting paths. The requested
	// state counts, not the availability, so the user sees why.
	switch {
	case s.RayTracing:
		out.Controls[ScreenSpaceReflections] = false
		out.Hints[ScreenSpaceReflections] = "Ray Tracing is enabled"
	case s.PathTracing:
		out.Controls[ScreenSpaceReflections] = false
		out.Hints[ScreenSpaceReflections] = "Path Tracing is enabled"
	}

	for mode, row := range antiAliasingMatrix {
		ok := row.opengl
		if webgpu {
			ok = row.webgpu
		}
		out.AntiAliasing[mode] = ok
	}
	if webgpu {
		for _, k := range []ControlKey{AmbientOcclusion, DepthOfField, ScreenSpaceReflections} {
			if k.Get(s) {
				out.msaaConflicts = append(out.msaaConflicts, k)
			}
		}
		out.msaaBase = out.AntiAliasing[settings.AntiAliasingMSAA]
		out.gateMSAA()
	}
	return out
}

// gateMSAA closes MSAA while any conflicting effect will actually run, so an
// effect cleared for lack of support does not also cost MSAA.
func (s RenderingSupport) gateMSAA() {
	if len(s.msaaConflicts) == 0 {
		return
	}
	ok := s.msaaBase
	for _, k := range s.msaaConflicts {
		if s.Controls[k] {
			ok = false
		}
	}
	s.AntiAliasing[settings.AntiAliasingMSAA] = ok
}

// ControlConstraint is a scene-imposed restriction on one control.
type ControlConstraint struct {
	Supported bool
	Hint      string
}

// ControlConstraints maps controls to scene restrictions. Missing keys are unconstrained.
type ControlConstraints map[ControlKey]ControlConstraint

// MergeControlConstraints ANDs scene constraints into support. Constraints
// only narrow availability; when the result is unavailable the scene hint wins.
func MergeControlConstraints(support RenderingSupport, constraints ControlConstraints) RenderingSupport {
	if len(constraints) == 0 {
		return support
	}
	out := support.clone()
	for k, c := range constraints {
		available := out.Controls[k] && c.Supported
		out.Controls[k] = available
		if available {
			continue
		}
		if !c.Supported && c.Hint != "" {
			out.Hints[k] = c.Hint
		}
	}
	out.gateMSAA()
	return out
}

// NormalizeSettingsForSupport clears every control that is unavailable and
// moves an unavailable antialiasing mode to a supported one. It returns s
// itself when nothing had to change, so callers can compare pointers.
func NormalizeSettingsForSupport(s *settings.RenderingSettings, support RenderingSupport) *settings.RenderingSettings {
	var out *settings.RenderingSettings
	edit := func() *settings.RenderingSettings {
		if out == nil {
			out = s.Clone()
		}
		return out
	}

	for _, k := range Controls {
		if k.Get(s) && !support.Available(k) {
			*k.field(edit()) = false
		}
	}

	if !support.AntiAliasingAvailable(s.AntiAliasing) {
		mode := settings.AntiAliasingNone
		if support.AntiAliasingAvailable(settings.AntiAliasingFXAA) {
			mode = settings.AntiAliasingFXAA
		}
		if mode != s.AntiAliasing {
			edit().AntiAliasing = mode
		}
	}

	if out == nil {
		return s
	}
	return out
}

// ResolveRendererMode returns the backend that can actually run for a request.
func ResolveRendererMode(requested settings.RendererMode, caps capabilities.Summary) settings.RendererMode {
	if requested == settings.RendererWebGPU && caps.AdvancedBackendAvailable {
		return settings.RendererWebGPU
	}
	return settings.RendererOpenGL
}
