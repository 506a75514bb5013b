package renderer

import (
	"fmt"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// glReflector backs one scene.RenderTarget of a reflective floor proxy.
type glReflector struct {
	fbo, color, depth uint32
	width, height     int
}

// reflectionMatrix mirrors world space about the horizontal plane y = planeY.
func reflectionMatrix(planeY float32) mgl32.Mat4 {
	return mgl32.Translate3D(0, planeY, 0).
		Mul4(mgl32.Scale3D(1, -1, 1)).
		Mul4(mgl32.Translate3D(0, -planeY, 0))
}

// reflectionSources returns the items drawn into proxy's reflector: every
// item but the proxy, limited to selects when the pass names its sources.
func reflectionSources(items []drawItem, proxy *scene.Mesh, selects []*scene.Mesh) []drawItem {
	var allowed map[*scene.Mesh]bool
	if selects != nil {
		allowed = make(map[*scene.Mesh]bool, len(selects))
		for _, m := range selects {
			allowed[m] = true
		}
	}
	var out []drawItem
	for _, item := range items {
		if item.mesh == proxy || item.mesh.Reflector != nil {
			continue
		}
		if allowed != nil && !allowed[item.mesh] {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (rend *OpenGLRenderer) reflecting() bool {
	return rend.passes != nil && rend.passes.Reflection.Enabled
}

// renderReflections draws the mirrored scene into every proxy's target.
// The scene program must be bound with its per-frame uniforms set.
func (rend *OpenGLRenderer) renderReflections(f *frame, camera *scene.PerspectiveCamera) {
	if !rend.reflecting() {
		return
	}
	u := rend.sceneShader.uniforms
	for _, item := range f.items {
		rt := item.mesh.Reflector
		if rt == nil {
			continue
		}
		r, err := rend.reflectorFor(rt)
		if err != nil {
			logger.Log.Warn("Reflector target unavailable", zap.String("mesh", item.mesh.Name), zap.Error(err))
			continue
		}
		planeY := worldPosition(item.world).Y()

		gl.BindFramebuffer(gl.FRAMEBUFFER, r.fbo)
		gl.Viewport(0, 0, int32(r.width), int32(r.height))
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		gl.Enable(gl.CLIP_DISTANCE0)
		u.SetMat4("viewProjection", camera.ViewProjection().Mul4(reflectionMatrix(planeY)))
		u.SetVec4("clipPlane", mgl32.Vec4{0, 1, 0, -planeY})

		for _, src := range reflectionSources(f.items, item.mesh, rend.passes.Reflection.Selects) {
			rend.drawMesh(src)
		}

		gl.Disable(gl.CLIP_DISTANCE0)
	}
	u.SetMat4("viewProjection", camera.ViewProjection())
	u.SetVec4("clipPlane", mgl32.Vec4{})
}

// reflectorFor returns the GL target behind rt, allocating or resizing it.
// The scene target's release hook frees it.
func (rend *OpenGLRenderer) reflectorFor(rt *scene.RenderTarget) (*glReflector, error) {
	r, ok := rend.reflectors[rt]
	if ok && r.width == rt.Width && r.height == rt.Height {
		return r, nil
	}
	if ok {
		deleteReflector(r)
		delete(rend.reflectors, rt)
	}

	r = &glReflector{width: max(rt.Width, 1), height: max(rt.Height, 1)}
	w, h := int32(r.width), int32(r.height)
	gl.GenTextures(1, &r.color)
	gl.BindTexture(gl.TEXTURE_2D, r.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, w, h, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.GenRenderbuffers(1, &r.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, r.depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, w, h)

	gl.GenFramebuffers(1, &r.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.color, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, r.depth)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		deleteReflector(r)
		return nil, fmt.Errorf("reflector framebuffer incomplete: 0x%x", status)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	rend.reflectors[rt] = r
	rt.SetRelease(func() {
		if cur, ok := rend.reflectors[rt]; ok && cur == r {
			deleteReflector(r)
			delete(rend.reflectors, rt)
		}
	})
	return r, nil
}

func (rend *OpenGLRenderer) reflectorBytes() int64 {
	var total int64
	for _, r := range rend.reflectors {
		total += int64(r.width) * int64(r.height) * (8 + 4)
	}
	return total
}

func (rend *OpenGLRenderer) freeReflectors() {
	for rt, r := range rend.reflectors {
		deleteReflector(r)
		rt.SetRelease(nil)
	}
	rend.reflectors = map[*scene.RenderTarget]*glReflector{}
}

func deleteReflector(r *glReflector) {
	gl.DeleteFramebuffers(1, &r.fbo)
	gl.DeleteTextures(1, &r.color)
	gl.DeleteRenderbuffers(1, &r.depth)
}
