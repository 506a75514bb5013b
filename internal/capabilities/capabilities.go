// Package capabilities detects which graphics backends the host can run and
// the hardware limits the reconcilers clamp against.
package capabilities

import "strings"

// Summary is the read-only result of probing the host once at startup.
type Summary struct {
	AdvancedBackendAvailable bool     `json:"advancedBackendAvailable"`
	FallbackVersion          string   `json:"fallbackVersion"`
	MaxTextureSize           int      `json:"maxTextureSize"`
	MaxAnisotropy            int      `json:"maxAnisotropy"`
	MSAASampleCount          int      `json:"msaaSampleCount"`
	ShaderPrecision          string   `json:"shaderPrecision"`
	CompressedTextureFormats []string `json:"compressedTextureFormats"`
	GPUTimerAvailable        bool     `json:"gpuTimerAvailable"`

	// Details gathered along the way, shown by the host.
	VulkanAvailable bool   `json:"vulkanAvailable"`
	DeviceName      string `json:"deviceName,omitempty"`

	// Vulkan device limits. They never raise the OpenGL limits above, which
	// are the ones the renderers sample with.
	VulkanMaxTextureSize int `json:"vulkanMaxTextureSize,omitempty"`
	VulkanMaxAnisotropy  int `json:"vulkanMaxAnisotropy,omitempty"`
}

// Probe detects host capabilities.
type Probe interface {
	Detect() Summary
}

// Static is a probe that reports a fixed summary.
type Static Summary

func (s Static) Detect() Summary { return Summary(s) }

// Fallback returns the summary assumed when nothing could be probed:
// OpenGL only with conservative limits.
func Fallback() Summary {
	return Summary{
		FallbackVersion: "4.1",
		MaxTextureSize:  4096,
		MaxAnisotropy:   1,
		MSAASampleCount: 4,
		ShaderPrecision: "highp",
	}
}

// ClampAnisotropy limits a requested anisotropy level to what the device supports.
func (s Summary) ClampAnisotropy(requested int) int {
	limit := s.MaxAnisotropy
	if limit < 1 {
		limit = 1
	}
	if requested < 1 {
		return 1
	}
	if requested > limit {
		return limit
	}
	return requested
}

// String renders a one-line description for logs.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("OpenGL ")
	b.WriteString(s.FallbackVersion)
	if s.AdvancedBackendAvailable {
		b.WriteString(", WebGPU")
	}
	if s.VulkanAvailable {
		b.WriteString(", Vulkan")
	}
	if s.DeviceName != "" {
		b.WriteString(" on ")
		b.WriteString(s.DeviceName)
	}
	return b.String()
}
