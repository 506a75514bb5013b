package renderer

import (
	"fmt"
	"time"
	"unsafe"

	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/linmath"
	"go.uber.org/zap"
)

const wgslScene = `
struct Uniforms {
    viewProj : mat4x4<f32>,
    model : mat4x4<f32>,
    color : vec4<f32>,
    params : vec4<f32>,
    keyDir : vec4<f32>,
    keyColor : vec4<f32>,
    ambient : vec4<f32>,
};

@group(0) @binding(0) var<uniform> u : Uniforms;

struct VertexOut {
    @builtin(position) position : vec4<f32>,
    @location(0) normal : vec3<f32>,
};

struct GBufferOut {
    @location(0) color : vec4<f32>,
    @location(1) normal : vec4<f32>,
};

@vertex
fn vs_main(@location(0) position : vec3<f32>, @location(1) uv : vec2<f32>, @location(2) normal : vec3<f32>) -> VertexOut {
    var out : VertexOut;
    out.position = u.viewProj * u.model * vec4<f32>(position, 1.0);
    out.normal = (u.model * vec4<f32>(normal, 0.0)).xyz;
    return out;
}

fn shade(in : VertexOut) -> vec3<f32> {
    if (u.params.w > 0.5) {
        return u.color.rgb;
    }
    let n = normalize(in.normal);
    let l = normalize(-u.keyDir.xyz);
    let diffuse = u.color.rgb * (1.0 - u.color.a);
    return diffuse * (u.ambient.rgb + u.keyColor.rgb * max(dot(n, l), 0.0));
}

@fragment
fn fs_main(in : VertexOut) -> @location(0) vec4<f32> {
    return vec4<f32>(shade(in), 1.0);
}

@fragment
fn fs_gbuffer(in : VertexOut) -> GBufferOut {
    var out : GBufferOut;
    out.color = vec4<f32>(shade(in), 1.0);
    out.normal = vec4<f32>(normalize(in.normal), u.color.a);
    return out;
}
`

// sceneTargetFormat is the HDR format of the offscreen color and normal
// targets the post pass reads.
const sceneTargetFormat = wgpu.TextureFormatRGBA16Float

// uniformFloats is the Uniforms struct size in float32s.
const uniformFloats = 16 + 16 + 4*5

type wgpuMesh struct {
	vertex, index *wgpu.Buffer
	count         uint32
	bytes         int64
}

type wgpuDraw struct {
	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// WebGPURenderer draws the scene pass into offscreen targets, then runs the
// graph pipeline's composed node chain in one fullscreen post pass.
type WebGPURenderer struct {
	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	format   wgpu.TextureFormat
	alpha    wgpu.CompositeAlphaMode
	size     pipeline.Size

	depth      *wgpu.Texture
	depthView  *wgpu.TextureView
	color      *wgpu.Texture
	colorView  *wgpu.TextureView
	normal     *wgpu.Texture
	normalView *wgpu.TextureView

	module          *wgpu.ShaderModule
	bindLayout      *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipeline        *wgpu.RenderPipeline
	gbufferPipeline *wgpu.RenderPipeline

	postModule    *wgpu.ShaderModule
	postLayout    *wgpu.BindGroupLayout
	postPipeLay   *wgpu.PipelineLayout
	postPipeline  *wgpu.RenderPipeline
	postUniform   *wgpu.Buffer
	postSampler   *wgpu.Sampler
	postBindGroup *wgpu.BindGroup
	manualGamma   bool
	start         time.Time

	meshes map[*scene.Geometry]*wgpuMesh
	draws  map[*scene.Mesh]*wgpuDraw

	graph       *pipeline.GraphPipeline
	toneMapping settings.ToneMapping
	exposure    float32

	info        Info
	bufferBytes int64
}

// WebGPUOpener opens WebGPU renderers on windows from windows.
func WebGPUOpener(windows WindowSource) Opener {
	return func(opts Options) (Renderer, error) {
		return NewWebGPURenderer(windows, opts)
	}
}

// NewWebGPURenderer requests an adapter and device for a surface on the
// host window.
func NewWebGPURenderer(windows WindowSource, opts Options) (*WebGPURenderer, error) {
	window, err := windows.Acquire(settings.RendererWebGPU, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	r := &WebGPURenderer{
		window:   window,
		exposure: 1,
		start:    time.Now(),
		meshes:   make(map[*scene.Geometry]*wgpuMesh),
		draws:    make(map[*scene.Mesh]*wgpuDraw),
	}

	var undo Unwind
	defer undo.Unwind()

	r.instance = wgpu.CreateInstance(nil)
	undo.Add(r.instance.Release)
	r.surface = r.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	undo.Add(r.surface.Release)

	r.adapter, err = r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: r.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request adapter: %v", ErrBackendUnavailable, err)
	}
	undo.Add(r.adapter.Release)

	r.device, err = r.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Testbed Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %v", ErrBackendUnavailable, err)
	}
	undo.Add(r.device.Release)
	r.queue = r.device.GetQueue()

	caps := r.surface.GetCapabilities(r.adapter)
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("%w: surface reports no formats", ErrBackendUnavailable)
	}
	r.format = caps.Formats[0]
	r.alpha = caps.AlphaModes[0]
	r.manualGamma = r.format != wgpu.TextureFormatBGRA8UnormSrgb && r.format != wgpu.TextureFormatRGBA8UnormSrgb

	if err := r.createPipeline(); err != nil {
		return nil, err
	}
	undo.Add(r.releasePipeline)
	if err := r.createPostPipeline(); err != nil {
		return nil, err
	}
	undo.Add(r.releasePostPipeline)

	width, height := window.GetFramebufferSize()
	size := pipeline.Size{Width: width, Height: height}
	if size.Empty() {
		size = pipeline.Size{Width: 1, Height: 1}
	}
	if err := r.configure(size); err != nil {
		return nil, err
	}
	undo.Add(r.releaseTargets)

	undo.Discard()
	logger.Log.Info("WebGPU renderer initialized",
		zap.String("format", fmt.Sprint(r.format)),
		zap.Int("width", size.Width),
		zap.Int("height", size.Height))
	return r, nil
}

func (r *WebGPURenderer) createPipeline() error {
	var err error
	r.module, err = r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "scene.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgslScene},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	r.bindLayout, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "scene uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: uniformFloats * 4,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	r.pipelineLayout, err = r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "scene",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	colorTarget := wgpu.ColorTargetState{Format: sceneTargetFormat, WriteMask: wgpu.ColorWriteMaskAll}
	r.pipeline, err = r.scenePipeline("scene Render Pipeline", "fs_main", colorTarget)
	if err != nil {
		return err
	}
	r.gbufferPipeline, err = r.scenePipeline("scene G-Buffer Pipeline", "fs_gbuffer", colorTarget, colorTarget)
	if err != nil {
		return err
	}
	return nil
}

func (r *WebGPURenderer) scenePipeline(label, entry string, targets ...wgpu.ColorTargetState) (*wgpu.RenderPipeline, error) {
	rp, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: r.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     r.module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 8 * 4,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 3 * 4, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 5 * 4, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     r.module,
			EntryPoint: entry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return rp, nil
}

func (r *WebGPURenderer) releasePipeline() {
	if r.gbufferPipeline != nil {
		r.gbufferPipeline.Release()
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	if r.pipelineLayout != nil {
		r.pipelineLayout.Release()
	}
	if r.bindLayout != nil {
		r.bindLayout.Release()
	}
	if r.module != nil {
		r.module.Release()
	}
}

// createPostPipeline builds the fullscreen pass that runs the graph's node
// chain over the scene targets and writes the surface.
func (r *WebGPURenderer) createPostPipeline() error {
	var err error
	r.postModule, err = r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "post.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgslPost},
	})
	if err != nil {
		return fmt.Errorf("create post shader module: %w", err)
	}

	texture := func(binding uint32, sample wgpu.TextureSampleType) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sample,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}
	}
	r.postLayout, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "post bindings",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: graphUniformFloats * 4,
				},
			},
			texture(1, wgpu.TextureSampleTypeFloat),
			texture(2, wgpu.TextureSampleTypeFloat),
			texture(3, wgpu.TextureSampleTypeDepth),
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create post bind group layout: %w", err)
	}

	r.postPipeLay, err = r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "post",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.postLayout},
	})
	if err != nil {
		return fmt.Errorf("create post pipeline layout: %w", err)
	}

	r.postPipeline, err = r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "post Render Pipeline",
		Layout: r.postPipeLay,
		Vertex: wgpu.VertexState{
			Module:     r.postModule,
			EntryPoint: "vs_post",
		},
		Fragment: &wgpu.FragmentState{
			Module:     r.postModule,
			EntryPoint: "fs_post",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create post render pipeline: %w", err)
	}

	r.postUniform, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Post Uniforms",
		Size:  graphUniformFloats * 4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create post uniforms: %w", err)
	}

	r.postSampler, err = r.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Post Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create post sampler: %w", err)
	}
	return nil
}

func (r *WebGPURenderer) releasePostPipeline() {
	if r.postSampler != nil {
		r.postSampler.Release()
	}
	if r.postUniform != nil {
		r.postUniform.Release()
	}
	if r.postPipeline != nil {
		r.postPipeline.Release()
	}
	if r.postPipeLay != nil {
		r.postPipeLay.Release()
	}
	if r.postLayout != nil {
		r.postLayout.Release()
	}
	if r.postModule != nil {
		r.postModule.Release()
	}
}

func (r *WebGPURenderer) configure(size pipeline.Size) error {
	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.format,
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   r.alpha,
	})

	r.releaseTargets()
	var err error
	if r.depth, r.depthView, err = r.target("Depth Texture", wgpu.TextureFormatDepth24Plus, size); err != nil {
		return err
	}
	if r.color, r.colorView, err = r.target("Scene Color", sceneTargetFormat, size); err != nil {
		return err
	}
	if r.normal, r.normalView, err = r.target("Scene Normal", sceneTargetFormat, size); err != nil {
		return err
	}

	r.postBindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Post Bind Group",
		Layout: r.postLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.postUniform, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: r.colorView},
			{Binding: 2, TextureView: r.normalView},
			{Binding: 3, TextureView: r.depthView},
			{Binding: 4, Sampler: r.postSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create post bind group: %w", err)
	}
	r.size = size
	return nil
}

// target creates a size-dependent render target the post pass can sample.
func (r *WebGPURenderer) target(label string, format wgpu.TextureFormat, size pipeline.Size) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(size.Width),
			Height:             uint32(size.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (r *WebGPURenderer) releaseTargets() {
	if r.postBindGroup != nil {
		r.postBindGroup.Release()
		r.postBindGroup = nil
	}
	for _, t := range []struct {
		tex  **wgpu.Texture
		view **wgpu.TextureView
	}{{&r.depth, &r.depthView}, {&r.color, &r.colorView}, {&r.normal, &r.normalView}} {
		if *t.view != nil {
			(*t.view).Release()
			*t.view = nil
		}
		if *t.tex != nil {
			(*t.tex).Release()
			*t.tex = nil
		}
	}
}

// targetBytes estimates the offscreen targets: depth, two RGBA16F targets
// and the surface.
func (r *WebGPURenderer) targetBytes() int64 {
	return int64(r.size.Width*r.size.Height) * (4 + 8 + 8 + 4)
}

func (r *WebGPURenderer) Backend() settings.RendererMode { return settings.RendererWebGPU }

func (r *WebGPURenderer) Label() string { return settings.RendererWebGPU.Label() }

func (r *WebGPURenderer) SetSize(size pipeline.Size) {
	if size.Empty() || size == r.size || r.device == nil {
		return
	}
	if err := r.configure(size); err != nil {
		logger.Log.Error("Reconfiguring surface failed", zap.Error(err))
	}
}

func (r *WebGPURenderer) SetPipeline(bundle pipeline.Bundle) {
	graph, _ := bundle.(*pipeline.GraphPipeline)
	r.graph = graph
}

func (r *WebGPURenderer) SetToneMapping(curve settings.ToneMapping, exposure float32) {
	r.toneMapping = curve
	r.exposure = exposure
}

// SetShadowMap is a no-op: the graph scene pass renders unshadowed.
func (r *WebGPURenderer) SetShadowMap(bool, scene.ShadowMapType) {}

func (r *WebGPURenderer) Info() Info { return r.info }

// TimerQueries returns nil; timestamp queries are not requested on the device.
func (r *WebGPURenderer) TimerQueries() framestats.QueryAPI { return nil }

// Render encodes the scene pass and the graph post pass, then presents the
// surface texture.
func (r *WebGPURenderer) Render(sc *scene.Scene, camera *scene.PerspectiveCamera) error {
	if sc == nil || camera == nil || r.device == nil {
		return nil
	}
	gbuffer := r.graph != nil && needsGBuffer(r.graph.ActiveTargets)
	if r.graph != nil && r.graph.NeedsUpdate {
		logger.Log.Debug("Graph output changed",
			zap.Stringer("output", r.graph.Output),
			zap.Bool("gbuffer", gbuffer))
		r.graph.NeedsUpdate = false
	}
	f := buildFrame(sc, camera)
	r.info = Info{Triangles: f.triangles}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create surface view: %w", err)
	}
	defer view.Release()

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	bg := sc.Background
	attachments := []wgpu.RenderPassColorAttachment{{
		View:       r.colorView,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{R: float64(bg.X()), G: float64(bg.Y()), B: float64(bg.Z()), A: 1},
	}}
	scenePipeline := r.pipeline
	if gbuffer {
		attachments = append(attachments, wgpu.RenderPassColorAttachment{
			View:    r.normalView,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		})
		scenePipeline = r.gbufferPipeline
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: attachments,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	viewProj := camera.ViewProjectionZeroToOne()
	pass.SetPipeline(scenePipeline)
	for _, item := range f.items {
		if err := r.draw(pass, item, &viewProj, f.lights); err != nil {
			logger.Log.Warn("Skipping mesh", zap.String("mesh", item.mesh.Name), zap.Error(err))
		}
	}
	pass.End()

	uniforms := graphUniforms(r.graph, graphFrame{
		size:        r.size,
		seconds:     float32(time.Since(r.start).Seconds()),
		curve:       r.toneMapping,
		exposure:    r.exposure,
		near:        camera.Near,
		far:         camera.Far,
		manualGamma: r.manualGamma,
	})
	r.queue.WriteBuffer(r.postUniform, 0, floatBytes(uniforms))

	post := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	post.SetPipeline(r.postPipeline)
	post.SetBindGroup(0, r.postBindGroup, nil)
	post.Draw(3, 1, 0, 0)
	post.End()
	r.info.DrawCalls++

	commands, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	defer commands.Release()
	r.queue.Submit(commands)
	r.surface.Present()

	r.info.MemoryMB = float64(r.bufferBytes+r.targetBytes()) / (1024 * 1024)
	return nil
}

func (r *WebGPURenderer) draw(pass *wgpu.RenderPassEncoder, item drawItem, viewProj *linmath.Mat4x4, lights frameLights) error {
	gm, err := r.upload(item.mesh.Geometry)
	if err != nil {
		return err
	}
	d, err := r.drawState(item.mesh)
	if err != nil {
		return err
	}

	mat := item.mesh.Material
	if mat == nil {
		mat = defaultMaterial
	}
	var keyColor mgl32.Vec3
	if lights.key != nil {
		keyColor = lights.key.Color.Mul(lights.key.Intensity)
	}
	unlit := float32(0)
	if mat.Kind == scene.MaterialBasic {
		unlit = 1
	}
	data := make([]float32, 0, uniformFloats)
	for _, col := range viewProj {
		data = append(data, col[:]...)
	}
	data = append(data, item.world[:]...)
	data = append(data,
		mat.Color.X(), mat.Color.Y(), mat.Color.Z(), mat.Metalness,
		mat.Roughness, 0, 0, unlit,
		lights.keyDirection.X(), lights.keyDirection.Y(), lights.keyDirection.Z(), 0,
		keyColor.X(), keyColor.Y(), keyColor.Z(), 0,
		lights.ambient.X(), lights.ambient.Y(), lights.ambient.Z(), 0,
	)
	r.queue.WriteBuffer(d.uniform, 0, floatBytes(data))

	pass.SetBindGroup(0, d.bindGroup, nil)
	pass.SetVertexBuffer(0, gm.vertex, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(gm.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(gm.count, 1, 0, 0, 0)
	r.info.DrawCalls++
	return nil
}

func (r *WebGPURenderer) upload(g *scene.Geometry) (*wgpuMesh, error) {
	if gm, ok := r.meshes[g]; ok {
		return gm, nil
	}
	vertices := floatBytes(interleave(g))
	indices := triangleIndices(g)
	indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)

	vb, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Vertex Buffer",
		Size:  uint64(len(vertices)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.queue.WriteBuffer(vb, 0, vertices)

	ib, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Index Buffer",
		Size:  uint64(len(indexBytes)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	r.queue.WriteBuffer(ib, 0, indexBytes)

	gm := &wgpuMesh{vertex: vb, index: ib, count: uint32(len(indices)), bytes: int64(len(vertices) + len(indexBytes))}
	r.meshes[g] = gm
	r.bufferBytes += gm.bytes
	g.SetRelease(func() {
		vb.Release()
		ib.Release()
		r.bufferBytes -= gm.bytes
		delete(r.meshes, g)
	})
	return gm, nil
}

func (r *WebGPURenderer) drawState(m *scene.Mesh) (*wgpuDraw, error) {
	if d, ok := r.draws[m]; ok {
		return d, nil
	}
	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name + " Uniforms",
		Size:  uniformFloats * 4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.Name + " Bind Group",
		Layout: r.bindLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	d := &wgpuDraw{uniform: buf, bindGroup: bg}
	r.draws[m] = d
	r.bufferBytes += uniformFloats * 4
	return d, nil
}

func floatBytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// Dispose releases the device and everything created on it.
func (r *WebGPURenderer) Dispose() {
	if r.device == nil {
		return
	}
	for _, d := range r.draws {
		d.bindGroup.Release()
		d.uniform.Release()
	}
	for g, gm := range r.meshes {
		gm.vertex.Release()
		gm.index.Release()
		g.SetRelease(nil)
	}
	r.draws = map[*scene.Mesh]*wgpuDraw{}
	r.meshes = map[*scene.Geometry]*wgpuMesh{}
	r.releaseTargets()
	r.releasePostPipeline()
	r.releasePipeline()
	r.device.Release()
	r.adapter.Release()
	r.surface.Release()
	r.instance.Release()
	r.device = nil
	logger.Log.Info("WebGPU renderer disposed")
}
