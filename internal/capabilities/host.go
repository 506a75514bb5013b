package capabilities

import (
	"fmt"
	"strings"

	"GopherTestbed/internal/logger"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// EXT_texture_filter_anisotropic, core only since 4.6.
const maxTextureMaxAnisotropy = 0x84FF

// Host probes the real machine. GLFW must already be initialized and Detect
// must run on the main thread.
type Host struct {
	// SkipWebGPU disables the adapter request, for hosts where it is known to hang.
	SkipWebGPU bool
}

func (h Host) Detect() Summary {
	s := Fallback()

	if err := probeOpenGL(&s); err != nil {
		logger.Log.Warn("OpenGL probe failed", zap.Error(err))
	}

	vulkanOK, err := probeVulkan(&s)
	if err != nil {
		logger.Log.Debug("Vulkan probe failed", zap.Error(err))
	}
	s.VulkanAvailable = vulkanOK

	if !h.SkipWebGPU {
		if err := probeWebGPU(); err != nil {
			logger.Log.Info("WebGPU unavailable", zap.Error(err))
		} else {
			s.AdvancedBackendAvailable = true
		}
	}

	logger.Log.Debug("Host limits",
		zap.Int("maxTextureSize", s.MaxTextureSize),
		zap.Int("maxAnisotropy", s.MaxAnisotropy),
		zap.Int("vulkanMaxTextureSize", s.VulkanMaxTextureSize),
		zap.Int("vulkanMaxAnisotropy", s.VulkanMaxAnisotropy),
		zap.Int("msaaSamples", s.MSAASampleCount),
		zap.Bool("gpuTimer", s.GPUTimerAvailable))
	return s
}

func probeOpenGL(s *Summary) error {
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	defer glfw.DefaultWindowHints()

	win, err := glfw.CreateWindow(1, 1, "probe", nil, nil)
	if err != nil {
		return fmt.Errorf("create probe window: %w", err)
	}
	defer win.Destroy()

	previous := glfw.GetCurrentContext()
	win.MakeContextCurrent()
	defer func() {
		if previous != nil {
			previous.MakeContextCurrent()
		} else {
			glfw.DetachCurrentContext()
		}
	}()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("load OpenGL: %w", err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	s.FallbackVersion = fmt.Sprintf("%d.%d", major, minor)
	s.DeviceName = gl.GoStr(gl.GetString(gl.RENDERER))

	var v int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &v)
	s.MaxTextureSize = int(v)
	gl.GetIntegerv(gl.MAX_SAMPLES, &v)
	s.MSAASampleCount = int(v)

	if hasExtension("GL_EXT_texture_filter_anisotropic") || hasExtension("GL_ARB_texture_filter_anisotropic") {
		var a float32
		gl.GetFloatv(maxTextureMaxAnisotropy, &a)
		s.MaxAnisotropy = int(a)
	}

	var rng [2]int32
	var precision int32
	gl.GetShaderPrecisionFormat(gl.FRAGMENT_SHADER, gl.HIGH_FLOAT, &rng[0], &precision)
	if precision > 0 {
		s.ShaderPrecision = "highp"
	} else {
		s.ShaderPrecision = "mediump"
	}

	var n int32
	gl.GetIntegerv(gl.NUM_COMPRESSED_TEXTURE_FORMATS, &n)
	if n > 0 {
		formats := make([]int32, n)
		gl.GetIntegerv(gl.COMPRESSED_TEXTURE_FORMATS, &formats[0])
		s.CompressedTextureFormats = compressedFormatNames(formats)
	}

	// ARB_timer_query is core from 3.3.
	s.GPUTimerAvailable = major > 3 || (major == 3 && minor >= 3)
	return nil
}

func hasExtension(name string) bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		if gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))) == name {
			return true
		}
	}
	return false
}

var compressedFormats = map[int32]string{
	0x83F0: "s3tc-dxt1-rgb",
	0x83F1: "s3tc-dxt1-rgba",
	0x83F2: "s3tc-dxt3",
	0x83F3: "s3tc-dxt5",
	0x8DBB: "rgtc1",
	0x8DBD: "rgtc2",
	0x8E8C: "bptc-unorm",
	0x8E8F: "bptc-float",
	0x9274: "etc2-rgb8",
	0x9278: "etc2-rgba8",
	0x93B0: "astc-4x4",
}

func compressedFormatNames(formats []int32) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range formats {
		name, ok := compressedFormats[f]
		if !ok {
			name = fmt.Sprintf("0x%04X", f)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func probeVulkan(s *Summary) (bool, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return false, fmt.Errorf("vulkan loader: %w", err)
	}
	if err := vk.Init(); err != nil {
		return false, fmt.Errorf("vulkan init: %w", err)
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:            vk.StructureTypeApplicationInfo,
			ApiVersion:       uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName: "GopherTestbed\x00",
			PEngineName:      "GopherTestbed\x00",
		},
	}, nil, &instance)
	if err := vk.Error(ret); err != nil {
		return false, fmt.Errorf("create instance: %w", err)
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return false, fmt.Errorf("init instance: %w", err)
	}

	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return false, fmt.Errorf("enumerate devices: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, devices)); err != nil {
		return false, fmt.Errorf("enumerate devices: %w", err)
	}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(devices[0], &props)
	props.Deref()
	props.Limits.Deref()
	setVulkanLimits(s,
		int(props.Limits.MaxImageDimension2D),
		int(props.Limits.MaxSamplerAnisotropy),
		strings.TrimRight(string(props.DeviceName[:]), "\x00"))
	return true, nil
}

// setVulkanLimits records the first Vulkan device. The OpenGL limits are
// left alone.
func setVulkanLimits(s *Summary, maxTextureSize, maxAnisotropy int, device string) {
	s.VulkanMaxTextureSize = maxTextureSize
	s.VulkanMaxAnisotropy = maxAnisotropy
	if s.DeviceName == "" {
		s.DeviceName = device
	}
}

func probeWebGPU() error {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return fmt.Errorf("create instance")
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	adapter.Release()
	return nil
}
