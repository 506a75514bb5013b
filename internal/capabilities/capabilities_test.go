package capabilities

import "testing"

func TestStaticProbe(t *testing.T) {
	want := Fallback()
	want.AdvancedBackendAvailable = true
	got := Static(want).Detect()
	if !got.AdvancedBackendAvailable || got.MaxTextureSize != want.MaxTextureSize {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestFallbackIsOpenGLOnly(t *testing.T) {
	s := Fallback()
	if s.AdvancedBackendAvailable {
		t.Error("Expected fallback summary without WebGPU")
	}
	if s.GPUTimerAvailable {
		t.Error("Expected fallback summary without GPU timers")
	}
}

func TestClampAnisotropy(t *testing.T) {
	s := Summary{MaxAnisotropy: 16}
	cases := map[int]int{0: 1, 1: 1, 8: 8, 32: 16}
	for in, want := range cases {
		if got := s.ClampAnisotropy(in); got != want {
			t.Errorf("ClampAnisotropy(%d): expected %d, got %d", in, want, got)
		}
	}
	if got := (Summary{}).ClampAnisotropy(8); got != 1 {
		t.Errorf("Expected unknown limit to clamp to 1, got %d", got)
	}
}

func TestCompressedFormatNames(t *testing.T) {
	got := compressedFormatNames([]int32{0x83F0, 0x83F0, 0x1234})
	if len(got) != 2 || got[0] != "s3tc-dxt1-rgb" || got[1] != "0x1234" {
		t.Errorf("Expected [s3tc-dxt1-rgb 0x1234], got %v", got)
	}
}

func TestVulkanLimitsKeepOpenGLLimits(t *testing.T) {
	s := Fallback()
	setVulkanLimits(&s, 16384, 16, "Test GPU")
	if s.MaxTextureSize != 4096 || s.MaxAnisotropy != 1 {
		t.Errorf("Expected OpenGL limits 4096/1, got %d/%d", s.MaxTextureSize, s.MaxAnisotropy)
	}
	if s.VulkanMaxTextureSize != 16384 || s.VulkanMaxAnisotropy != 16 {
		t.Errorf("Expected Vulkan limits 16384/16, got %d/%d", s.VulkanMaxTextureSize, s.VulkanMaxAnisotropy)
	}
	if s.DeviceName != "Test GPU" {
		t.Errorf("Expected device name from Vulkan, got %q", s.DeviceName)
	}

	s.DeviceName = "GL Renderer"
	setVulkanLimits(&s, 8192, 8, "Other")
	if s.DeviceName != "GL Renderer" {
		t.Errorf("Expected OpenGL device name to win, got %q", s.DeviceName)
	}
}
