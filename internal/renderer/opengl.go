package renderer

import (
	"fmt"
	"time"

	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// WindowSource hands out the host window a backend draws into. It replaces
// the window when the backend or the sample count changes.
type WindowSource interface {
	Acquire(mode settings.RendererMode, samples int) (*glfw.Window, error)
}

type glMesh struct {
	vao, vbo, ebo uint32
	count         int32
	bytes         int64
}

type glTarget struct {
	fbo, color, depth uint32
	// multisampled scene target, resolved into fbo
	msFBO, msColor, msDepth uint32
}

// OpenGLRenderer draws the scene into an offscreen target and runs the
// discrete pass chain as one fullscreen resolve.
type OpenGLRenderer struct {
	window  *glfw.Window
	samples int
	size    pipeline.Size

	sceneShader  *Shader
	shadowShader *Shader
	postShader   *Shader
	textures     *TextureManager

	meshes     map[*scene.Geometry]*glMesh
	grids      map[*scene.Grid]*glMesh
	reflectors map[*scene.RenderTarget]*glReflector
	target     glTarget
	emptyVAO   uint32

	shadowFBO, shadowTex uint32
	shadowSize           int32

	passes         *pipeline.DiscretePasses
	toneMapping    settings.ToneMapping
	exposure       float32
	shadowsEnabled bool
	shadowType     scene.ShadowMapType

	timerAvailable bool
	info           Info
	bufferBytes    int64
	start          time.Time
}

// OpenGLOpener opens OpenGL renderers on windows from windows.
func OpenGLOpener(windows WindowSource) Opener {
	return func(opts Options) (Renderer, error) {
		return NewOpenGLRenderer(windows, opts)
	}
}

// NewOpenGLRenderer creates the GL context state for one backend build.
func NewOpenGLRenderer(windows WindowSource, opts Options) (*OpenGLRenderer, error) {
	samples := 0
	if UsesMSAA(settings.RendererOpenGL, opts.Settings) {
		samples = max(opts.Caps.MSAASampleCount, 4)
	}
	window, err := windows.Acquire(settings.RendererOpenGL, samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		logger.Log.Error("OpenGL initialization failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	rend := &OpenGLRenderer{
		window:         window,
		samples:        samples,
		meshes:         make(map[*scene.Geometry]*glMesh),
		grids:          make(map[*scene.Grid]*glMesh),
		reflectors:     make(map[*scene.RenderTarget]*glReflector),
		shadowSize:     2048,
		exposure:       1,
		shadowsEnabled: true,
		shadowType:     scene.ShadowMapPCFSoft,
		timerAvailable: opts.Caps.GPUTimerAvailable,
		start:          time.Now(),
	}
	rend.textures = NewTextureManager(glTextureUploader{maxAnisotropy: opts.Caps.MaxAnisotropy})

	var undo Unwind
	defer undo.Unwind()

	rend.sceneShader = newShader("scene", sceneVertexSource, sceneFragmentSource)
	rend.shadowShader = newShader("shadow", shadowVertexSource, shadowFragmentSource)
	rend.postShader = newShader("post", postVertexSource, postFragmentSource)
	for _, s := range []*Shader{rend.sceneShader, rend.shadowShader, rend.postShader} {
		if err := s.Compile(); err != nil {
			return nil, err
		}
		undo.Add(s.Delete)
	}

	gl.GenVertexArrays(1, &rend.emptyVAO)
	undo.Add(func() { gl.DeleteVertexArrays(1, &rend.emptyVAO) })

	if err := rend.createShadowTarget(); err != nil {
		return nil, err
	}
	undo.Add(rend.deleteShadowTarget)

	width, height := window.GetFramebufferSize()
	size := pipeline.Size{Width: width, Height: height}
	if size.Empty() {
		size = pipeline.Size{Width: 1, Height: 1}
	}
	if err := rend.resizeTargets(size); err != nil {
		return nil, err
	}

	undo.Discard()
	logger.Log.Info("OpenGL render initialized",
		zap.Int("samples", samples),
		zap.Int("width", size.Width),
		zap.Int("height", size.Height))
	return rend, nil
}

func (rend *OpenGLRenderer) Backend() settings.RendererMode { return settings.RendererOpenGL }

func (rend *OpenGLRenderer) Label() string { return settings.RendererOpenGL.Label() }

// SetSize resizes the offscreen targets. Zero sizes are ignored.
func (rend *OpenGLRenderer) SetSize(size pipeline.Size) {
	if size.Empty() || size == rend.size {
		return
	}
	if err := rend.resizeTargets(size); err != nil {
		logger.Log.Error("Resizing render targets failed", zap.Error(err))
	}
}

func (rend *OpenGLRenderer) SetPipeline(bundle pipeline.Bundle) {
	passes, _ := bundle.(*pipeline.DiscretePasses)
	rend.passes = passes
}

func (rend *OpenGLRenderer) SetToneMapping(curve settings.ToneMapping, exposure float32) {
	rend.toneMapping = curve
	rend.exposure = exposure
}

func (rend *OpenGLRenderer) SetShadowMap(enabled bool, kind scene.ShadowMapType) {
	rend.shadowsEnabled = enabled
	rend.shadowType = kind
}

func (rend *OpenGLRenderer) Info() Info { return rend.info }

func (rend *OpenGLRenderer) TimerQueries() framestats.QueryAPI {
	if !rend.timerAvailable {
		return nil
	}
	return glTimerQueries{}
}

// Render draws one frame and presents it.
func (rend *OpenGLRenderer) Render(sc *scene.Scene, camera *scene.PerspectiveCamera) error {
	if sc == nil || camera == nil {
		return nil
	}
	f := buildFrame(sc, camera)
	rend.info = Info{Triangles: f.triangles}
	lightVP := lightViewProjection(f.lights)

	castShadows := rend.shadowsEnabled && f.lights.key != nil && f.lights.key.CastShadow
	if castShadows {
		rend.renderShadowMap(f, lightVP)
	}

	rend.sceneShader.Use()
	u := rend.sceneShader.uniforms
	u.SetMat4("viewProjection", camera.ViewProjection())
	u.SetMat4("lightViewProjection", lightVP)
	u.SetVec3("viewPos", camera.Position)
	u.SetVec3("ambientColor", f.lights.ambient)
	u.SetVec3("keyDirection", f.lights.keyDirection)
	if key := f.lights.key; key != nil {
		u.SetVec3("keyColor", key.Color.Mul(key.Intensity))
		u.SetFloat("shadowBias", key.ShadowBias)
		u.SetFloat("shadowRadius", max(key.ShadowRadius, 1))
	} else {
		u.SetVec3("keyColor", mgl32.Vec3{})
	}
	if point := f.lights.point; point != nil {
		u.SetVec3("pointPosition", f.lights.pointWorld)
		u.SetVec3("pointColor", point.Color.Mul(point.Intensity))
		u.SetFloat("pointDistance", point.Distance)
	} else {
		u.SetVec3("pointColor", mgl32.Vec3{})
	}
	shadowMode := int32(0)
	if castShadows {
		shadowMode = shadowModeIndex(rend.shadowType)
	}
	u.SetInt("shadowMode", shadowMode)
	u.SetInt("textureSampler", 0)
	u.SetInt("environmentSampler", 1)
	u.SetInt("shadowSampler", 2)
	u.SetInt("reflectorSampler", 3)
	u.SetVec2("viewportSize", float32(rend.size.Width), float32(rend.size.Height))
	u.SetVec4("clipPlane", mgl32.Vec4{})

	gl.ActiveTexture(gl.TEXTURE2)
	gl.BindTexture(gl.TEXTURE_2D, rend.shadowTex)

	envHandle, err := rend.textures.Acquire(sc.Environment)
	if err != nil {
		logger.Log.Warn("Environment upload failed", zap.Error(err))
	}
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, envHandle)
	u.SetBool("hasEnvironment", envHandle != 0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
	rend.renderReflections(f, camera)

	sceneFBO := rend.target.fbo
	if rend.target.msFBO != 0 {
		sceneFBO = rend.target.msFBO
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, sceneFBO)
	gl.Viewport(0, 0, int32(rend.size.Width), int32(rend.size.Height))
	gl.ClearColor(sc.Background.X(), sc.Background.Y(), sc.Background.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	for _, item := range f.items {
		rend.drawMesh(item)
	}
	rend.drawGrids(f)

	if rend.target.msFBO != 0 {
		w, h := int32(rend.size.Width), int32(rend.size.Height)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, rend.target.msFBO)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, rend.target.fbo)
		gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT|gl.DEPTH_BUFFER_BIT, gl.NEAREST)
	}

	rend.resolve(camera, f)
	rend.window.SwapBuffers()
	return nil
}

func (rend *OpenGLRenderer) drawMesh(item drawItem) {
	gm, err := rend.upload(item.mesh.Geometry)
	if err != nil {
		logger.Log.Warn("Mesh upload failed", zap.String("mesh", item.mesh.Name), zap.Error(err))
		return
	}
	u := rend.sceneShader.uniforms
	u.SetMat4("model", item.world)
	u.SetBool("receiveShadow", item.mesh.ReceiveShadow)

	mat := item.mesh.Material
	if mat == nil {
		mat = defaultMaterial
	}
	u.SetVec3("baseColor", mat.Color)
	u.SetVec3("emissive", mat.Emissive)
	u.SetFloat("metalness", mat.Metalness)
	u.SetFloat("roughness", mat.Roughness)
	u.SetFloat("envIntensity", mat.EnvMapIntensity)
	u.SetBool("unlit", mat.Kind == scene.MaterialBasic)

	mapHandle, err := rend.textures.Acquire(mat.Map)
	if err != nil {
		logger.Log.Warn("Texture upload failed", zap.String("material", mat.Name), zap.Error(err))
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, mapHandle)
	u.SetBool("hasMap", mapHandle != 0)

	var reflector uint32
	if rt := item.mesh.Reflector; rt != nil && rend.reflecting() {
		if r, ok := rend.reflectors[rt]; ok {
			reflector = r.color
		}
	}
	gl.ActiveTexture(gl.TEXTURE3)
	gl.BindTexture(gl.TEXTURE_2D, reflector)
	u.SetBool("hasReflector", reflector != 0)

	gl.BindVertexArray(gm.vao)
	gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	rend.info.DrawCalls++
}

func (rend *OpenGLRenderer) drawGrids(f *frame) {
	u := rend.sceneShader.uniforms
	u.SetBool("unlit", true)
	u.SetBool("hasMap", false)
	u.SetVec3("emissive", mgl32.Vec3{})
	for _, g := range f.grids {
		gm := rend.uploadGrid(g)
		u.SetMat4("model", g.WorldMatrix())
		u.SetVec3("baseColor", g.Color)
		gl.BindVertexArray(gm.vao)
		gl.DrawArrays(gl.LINES, 0, gm.count)
		gl.BindVertexArray(0)
		rend.info.DrawCalls++
	}
}

func (rend *OpenGLRenderer) renderShadowMap(f *frame, lightVP mgl32.Mat4) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, rend.shadowFBO)
	gl.Viewport(0, 0, rend.shadowSize, rend.shadowSize)
	gl.ClearColor(1, 1, 1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)

	rend.shadowShader.Use()
	u := rend.shadowShader.uniforms
	u.SetMat4("lightViewProjection", lightVP)
	u.SetBool("variance", rend.shadowType == scene.ShadowMapVSM)
	for _, item := range f.items {
		if !item.mesh.CastShadow {
			continue
		}
		gm, err := rend.upload(item.mesh.Geometry)
		if err != nil {
			continue
		}
		u.SetMat4("model", item.world)
		gl.BindVertexArray(gm.vao)
		gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
		rend.info.DrawCalls++
	}
	gl.BindVertexArray(0)
}

// resolve runs the pass chain into the default framebuffer.
func (rend *OpenGLRenderer) resolve(camera *scene.PerspectiveCamera, f *frame) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(rend.size.Width), int32(rend.size.Height))
	gl.Disable(gl.DEPTH_TEST)

	rend.postShader.Use()
	u := rend.postShader.uniforms
	u.SetInt("colorSampler", 0)
	u.SetInt("depthSampler", 1)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, rend.target.color)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, rend.target.depth)

	state := postStateFor(rend.passes, rend.toneMapping, rend.exposure)
	state.flares = projectFlares(f, camera)
	state.apply(u, rend.size, float32(time.Since(rend.start).Seconds()))

	gl.BindVertexArray(rend.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	rend.info.DrawCalls++
	rend.info.MemoryMB = float64(rend.textures.GetStats().Bytes+rend.bufferBytes+rend.targetBytes()) / (1024 * 1024)
}

func (rend *OpenGLRenderer) upload(g *scene.Geometry) (*glMesh, error) {
	if gm, ok := rend.meshes[g]; ok {
		return gm, nil
	}
	data := interleave(g)
	indices := triangleIndices(g)
	if len(data) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}

	gm := &glMesh{count: int32(len(indices))}
	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(8 * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)

	gm.bytes = int64(len(data)*4 + len(indices)*4)
	rend.bufferBytes += gm.bytes
	rend.meshes[g] = gm
	g.SetRelease(func() { rend.freeMesh(g) })
	return gm, nil
}

func (rend *OpenGLRenderer) uploadGrid(g *scene.Grid) *glMesh {
	if gm, ok := rend.grids[g]; ok {
		return gm
	}
	lines := gridLines(g)
	data := make([]float32, 0, len(lines)*8)
	for _, p := range lines {
		data = append(data, p[0], p[1], p[2], 0, 0, 0, 1, 0)
	}
	gm := &glMesh{count: int32(len(lines))}
	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)
	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	stride := int32(8 * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)
	gm.bytes = int64(len(data) * 4)
	rend.bufferBytes += gm.bytes
	rend.grids[g] = gm
	return gm
}

func (rend *OpenGLRenderer) freeMesh(g *scene.Geometry) {
	gm, ok := rend.meshes[g]
	if !ok {
		return
	}
	deleteMesh(gm)
	rend.bufferBytes -= gm.bytes
	delete(rend.meshes, g)
}

func deleteMesh(gm *glMesh) {
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	if gm.ebo != 0 {
		gl.DeleteBuffers(1, &gm.ebo)
	}
}

func (rend *OpenGLRenderer) createShadowTarget() error {
	gl.GenTextures(1, &rend.shadowTex)
	gl.BindTexture(gl.TEXTURE_2D, rend.shadowTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG32F, rend.shadowSize, rend.shadowSize, 0, gl.RG, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	var depth uint32
	gl.GenRenderbuffers(1, &depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, rend.shadowSize, rend.shadowSize)

	gl.GenFramebuffers(1, &rend.shadowFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rend.shadowFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rend.shadowTex, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, depth)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteRenderbuffers(1, &depth)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("shadow framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (rend *OpenGLRenderer) deleteShadowTarget() {
	gl.DeleteFramebuffers(1, &rend.shadowFBO)
	gl.DeleteTextures(1, &rend.shadowTex)
	rend.shadowFBO, rend.shadowTex = 0, 0
}

func (rend *OpenGLRenderer) resizeTargets(size pipeline.Size) error {
	rend.deleteTargets()
	w, h := int32(size.Width), int32(size.Height)
	t := &rend.target

	gl.GenTextures(1, &t.color)
	gl.BindTexture(gl.TEXTURE_2D, t.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, w, h, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.GenTextures(1, &t.depth)
	gl.BindTexture(gl.TEXTURE_2D, t.depth)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, w, h, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.color, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.depth, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("scene framebuffer incomplete: 0x%x", status)
	}

	if rend.samples > 0 {
		samples := int32(rend.samples)
		gl.GenRenderbuffers(1, &t.msColor)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.msColor)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, gl.RGBA16F, w, h)
		gl.GenRenderbuffers(1, &t.msDepth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.msDepth)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, gl.DEPTH_COMPONENT24, w, h)

		gl.GenFramebuffers(1, &t.msFBO)
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.msFBO)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, t.msColor)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.msDepth)
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fmt.Errorf("multisampled framebuffer incomplete: 0x%x", status)
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	rend.size = size
	return nil
}

func (rend *OpenGLRenderer) targetBytes() int64 {
	pixels := int64(rend.size.Width) * int64(rend.size.Height)
	perPixel := int64(8 + 4)
	if rend.samples > 0 {
		perPixel += int64(rend.samples) * (8 + 4)
	}
	return pixels*perPixel + int64(rend.shadowSize)*int64(rend.shadowSize)*8 + rend.reflectorBytes()
}

func (rend *OpenGLRenderer) deleteTargets() {
	t := &rend.target
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		gl.DeleteTextures(1, &t.color)
		gl.DeleteTextures(1, &t.depth)
	}
	if t.msFBO != 0 {
		gl.DeleteFramebuffers(1, &t.msFBO)
		gl.DeleteRenderbuffers(1, &t.msColor)
		gl.DeleteRenderbuffers(1, &t.msDepth)
	}
	*t = glTarget{}
}

// Dispose frees every GL object this renderer created. Scene textures and
// geometries stay valid and upload again into the next renderer.
func (rend *OpenGLRenderer) Dispose() {
	if rend.window == nil {
		return
	}
	rend.window.MakeContextCurrent()
	for g, gm := range rend.meshes {
		deleteMesh(gm)
		g.SetRelease(nil)
	}
	for _, gm := range rend.grids {
		deleteMesh(gm)
	}
	rend.meshes = map[*scene.Geometry]*glMesh{}
	rend.grids = map[*scene.Grid]*glMesh{}
	rend.textures.LogStats()
	rend.textures.Clear()
	rend.freeReflectors()
	rend.deleteTargets()
	rend.deleteShadowTarget()
	gl.DeleteVertexArrays(1, &rend.emptyVAO)
	for _, s := range []*Shader{rend.sceneShader, rend.shadowShader, rend.postShader} {
		s.Delete()
	}
	rend.window = nil
	logger.Log.Info("OpenGL renderer disposed")
}

var defaultMaterial = scene.NewStandardMaterial("default", mgl32.Vec3{0.8, 0.8, 0.8})

func shadowModeIndex(t scene.ShadowMapType) int32 {
	switch t {
	case scene.ShadowMapBasic:
		return 1
	case scene.ShadowMapPCF:
		return 2
	case scene.ShadowMapVSM:
		return 4
	default:
		return 3
	}
}
