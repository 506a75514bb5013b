package renderer

import (
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/settings"
)

// Stage codes read by wgslPost, in the order the graph composes them.
const (
	graphStageAO   = 1
	graphStageDOF  = 2
	graphStageSSR  = 3
	graphStageFXAA = 4
	graphStageSMAA = 5
	graphStageTAA  = 6
	graphStageFilm = 7
)

const maxGraphStages = 8

// graphUniformFloats is the Post struct size in float32s.
const graphUniformFloats = 4 * 7

var graphStageCodes = map[pipeline.NodeKind]float32{
	pipeline.NodeAO:         graphStageAO,
	pipeline.NodeDOF:        graphStageDOF,
	pipeline.NodeReflection: graphStageSSR,
	pipeline.NodeFXAA:       graphStageFXAA,
	pipeline.NodeSMAA:       graphStageSMAA,
	pipeline.NodeTAA:        graphStageTAA,
	pipeline.NodeFilmGrain:  graphStageFilm,
}

// graphFrame is what the post pass needs besides the graph itself.
type graphFrame struct {
	size        pipeline.Size
	seconds     float32
	curve       settings.ToneMapping
	exposure    float32
	near, far   float32
	manualGamma bool
}

// graphNodes returns the effect nodes upstream-first, without the scene pass.
func graphNodes(out *pipeline.Node) []*pipeline.Node {
	var rev []*pipeline.Node
	for n := out; n != nil; n = n.Input {
		if n.Kind == pipeline.NodeScenePass {
			continue
		}
		rev = append(rev, n)
	}
	nodes := make([]*pipeline.Node, len(rev))
	for i, n := range rev {
		nodes[len(rev)-1-i] = n
	}
	return nodes
}

// graphUniforms packs the composed node chain into the Post uniform block.
// A nil graph runs only tone mapping.
func graphUniforms(g *pipeline.GraphPipeline, f graphFrame) []float32 {
	u := make([]float32, graphUniformFloats)
	u[0], u[1], u[2], u[3] = float32(f.size.Width), float32(f.size.Height), f.seconds, f.exposure
	u[4], u[5], u[6] = float32(toneMappingIndex(f.curve)), f.near, f.far
	// Defaults for parameters a node may omit.
	u[14] = 1
	if f.manualGamma {
		u[17] = 1
	}
	if g == nil {
		return u
	}

	count := 0
	for _, n := range graphNodes(g.Output) {
		code, ok := graphStageCodes[n.Kind]
		if !ok || count == maxGraphStages {
			continue
		}
		u[20+count] = code
		count++

		switch n.Kind {
		case pipeline.NodeAO:
			u[8] = n.Params["radius"]
		case pipeline.NodeDOF:
			u[9], u[10], u[11] = n.Params["focus"], n.Params["aperture"], n.Params["maxBlur"]
		case pipeline.NodeReflection:
			u[12], u[13] = n.Params["maxDistance"], n.Params["thickness"]
		case pipeline.NodeSMAA:
			u[14] = n.Params["scale"]
		case pipeline.NodeTAA:
			u[15] = n.Params["sampleLevel"]
		case pipeline.NodeFilmGrain:
			u[16] = n.Params["intensity"]
		}
	}
	u[7] = float32(count)
	return u
}

// needsGBuffer reports whether the scene pass must write the normal and
// metalness target alongside color.
func needsGBuffer(targets []pipeline.Target) bool {
	for _, t := range targets {
		if t != pipeline.TargetColor {
			return true
		}
	}
	return false
}

const wgslPost = `
struct Post {
    frame : vec4<f32>,   // resolution, time, exposure
    view : vec4<f32>,    // tone mapping, near, far, stage count
    ao : vec4<f32>,      // ao radius, dof focus, dof aperture, dof max blur
    ssr : vec4<f32>,     // max distance, thickness, smaa scale, taa sample level
    film : vec4<f32>,    // intensity, manual gamma
    stages0 : vec4<f32>,
    stages1 : vec4<f32>,
};

@group(0) @binding(0) var<uniform> post : Post;
@group(0) @binding(1) var colorTex : texture_2d<f32>;
@group(0) @binding(2) var normalTex : texture_2d<f32>;
@group(0) @binding(3) var depthTex : texture_depth_2d;
@group(0) @binding(4) var linearSampler : sampler;

struct FullscreenOut {
    @builtin(position) position : vec4<f32>,
    @location(0) uv : vec2<f32>,
};

@vertex
fn vs_post(@builtin(vertex_index) i : u32) -> FullscreenOut {
    let p = vec2<f32>(f32((i << 1u) & 2u), f32(i & 2u));
    var out : FullscreenOut;
    out.position = vec4<f32>(p * 2.0 - 1.0, 0.0, 1.0);
    out.uv = vec2<f32>(p.x, 1.0 - p.y);
    return out;
}

fn texel() -> vec2<f32> {
    return 1.0 / post.frame.xy;
}

fn coord(uv : vec2<f32>) -> vec2<i32> {
    let size = vec2<i32>(textureDimensions(depthTex));
    return clamp(vec2<i32>(uv * vec2<f32>(size)), vec2<i32>(0), size - vec2<i32>(1));
}

fn linearDepth(uv : vec2<f32>) -> f32 {
    let d = textureLoad(depthTex, coord(uv), 0);
    let n = post.view.y;
    let f = post.view.z;
    return n * f / (f - d * (f - n));
}

fn gbuffer(uv : vec2<f32>) -> vec4<f32> {
    return textureLoad(normalTex, coord(uv), 0);
}

fn sampleColor(uv : vec2<f32>) -> vec3<f32> {
    return textureSampleLevel(colorTex, linearSampler, uv, 0.0).rgb;
}

fn stageCode(i : i32) -> i32 {
    if (i < 4) {
        return i32(post.stages0[i]);
    }
    return i32(post.stages1[i - 4]);
}

fn ambientOcclusion(uv : vec2<f32>, color : vec3<f32>) -> vec3<f32> {
    let n = gbuffer(uv).xyz;
    if (dot(n, n) < 0.01) {
        return color;
    }
    let center = linearDepth(uv);
    var occlusion = 0.0;
    for (var i = 0; i < 8; i++) {
        let a = f32(i) * 0.785398;
        let o = vec2<f32>(cos(a), sin(a)) * post.ao.x * texel() * 4.0;
        occlusion += step(0.02, center - linearDepth(uv + o));
    }
    return color * (1.0 - occlusion / 16.0);
}

fn depthOfField(uv : vec2<f32>, color : vec3<f32>) -> vec3<f32> {
    let maxBlur = max(post.ao.w, 0.0001);
    let coc = clamp(abs(linearDepth(uv) - post.ao.y) * post.ao.z * 100.0, 0.0, post.ao.w);
    var blur = vec3<f32>(0.0);
    for (var i = 0; i < 8; i++) {
        let a = f32(i) * 0.785398;
        blur += sampleColor(uv + vec2<f32>(cos(a), sin(a)) * coc);
    }
    return mix(color, blur / 8.0, clamp(coc / maxBlur, 0.0, 1.0));
}

fn reflections(uv : vec2<f32>, color : vec3<f32>) -> vec3<f32> {
    let g = gbuffer(uv);
    if (g.y < 0.7) {
        return color;
    }
    let mirrored = vec2<f32>(uv.x, 1.0 - uv.y);
    let gap = linearDepth(uv) - linearDepth(mirrored);
    if (gap < post.ssr.y || gap > post.ssr.x) {
        return color;
    }
    return color + sampleColor(mirrored) * (0.08 + 0.2 * g.w);
}

fn antialias(uv : vec2<f32>, color : vec3<f32>, scale : f32) -> vec3<f32> {
    let t = texel() * scale;
    let n = sampleColor(uv + vec2<f32>(0.0, t.y));
    let s = sampleColor(uv - vec2<f32>(0.0, t.y));
    let e = sampleColor(uv + vec2<f32>(t.x, 0.0));
    let w = sampleColor(uv - vec2<f32>(t.x, 0.0));
    let lumaW = vec3<f32>(0.299, 0.587, 0.114);
    let lc = dot(color, lumaW);
    let range = max(max(dot(n, lumaW), dot(s, lumaW)), max(dot(e, lumaW), dot(w, lumaW))) - lc;
    if (abs(range) < 0.0312) {
        return color;
    }
    return (color * 4.0 + n + s + e + w) / 8.0;
}

fn temporal(uv : vec2<f32>, color : vec3<f32>) -> vec3<f32> {
    let taps = i32(exp2(post.ssr.w));
    var sum = color;
    for (var i = 0; i < taps; i++) {
        let a = f32(i) * 2.399963 + post.frame.z * 7.0;
        sum += sampleColor(uv + vec2<f32>(cos(a), sin(a)) * texel() * 0.5);
    }
    return sum / f32(taps + 1);
}

fn filmGrain(uv : vec2<f32>, color : vec3<f32>) -> vec3<f32> {
    let grain = fract(sin(dot(uv * post.frame.xy + post.frame.z, vec2<f32>(12.9898, 78.233))) * 43758.5453);
    return color + color * (grain - 0.5) * post.film.x;
}

fn tonemap(c0 : vec3<f32>) -> vec3<f32> {
    let curve = i32(post.view.x);
    let c = c0 * post.frame.w;
    switch curve {
        case 2: {
            return c / (vec3<f32>(1.0) + c);
        }
        case 3: {
            let x = max(vec3<f32>(0.0), c - 0.004);
            return pow((x * (6.2 * x + 0.5)) / (x * (6.2 * x + 1.7) + 0.06), vec3<f32>(2.2));
        }
        case 4: {
            return clamp((c * (2.51 * c + 0.03)) / (c * (2.43 * c + 0.59) + 0.14), vec3<f32>(0.0), vec3<f32>(1.0));
        }
        case 5: {
            let peak = max(c.r, max(c.g, c.b));
            if (peak <= 0.8) {
                return c;
            }
            return c * (0.8 + 0.2 * (1.0 - exp(-(peak - 0.8)))) / peak;
        }
        case 1: {
            return c;
        }
        default: {
            return c0;
        }
    }
}

@fragment
fn fs_post(in : FullscreenOut) -> @location(0) vec4<f32> {
    let uv = in.uv;
    var color = sampleColor(uv);
    let count = i32(post.view.w);
    for (var i = 0; i < count; i++) {
        switch stageCode(i) {
            case 1: {
                color = ambientOcclusion(uv, color);
            }
            case 2: {
                color = depthOfField(uv, color);
            }
            case 3: {
                color = reflections(uv, color);
            }
            case 4: {
                color = antialias(uv, color, 1.0);
            }
            case 5: {
                color = antialias(uv, color, post.ssr.z);
            }
            case 6: {
                color = temporal(uv, color);
            }
            case 7: {
                color = filmGrain(uv, color);
            }
            default: {
            }
        }
    }
    color = tonemap(color);
    if (post.film.y > 0.5) {
        color = pow(max(color, vec3<f32>(0.0)), vec3<f32>(1.0 / 2.2));
    }
    return vec4<f32>(color, 1.0);
}
`
