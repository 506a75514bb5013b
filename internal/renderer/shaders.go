package renderer

import (
	"fmt"
	"strings"

	"GopherTestbed/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	name           string
	vertexSource   string
	fragmentSource string
	program        uint32
	uniforms       *UniformCache
}

func newShader(name, vertexSource, fragmentSource string) *Shader {
	return &Shader{name: name, vertexSource: vertexSource, fragmentSource: fragmentSource}
}

// Compile builds the program. The uniform cache is reset with it.
func (shader *Shader) Compile() error {
	vs, err := GenShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s vertex shader: %w", shader.name, err)
	}
	fs, err := GenShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return fmt.Errorf("%s fragment shader: %w", shader.name, err)
	}
	program, err := GenShaderProgram(vs, fs)
	if err != nil {
		return fmt.Errorf("%s program: %w", shader.name, err)
	}
	shader.program = program
	shader.uniforms = NewUniformCache(program)
	return nil
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) Delete() {
	if shader.program != 0 {
		gl.DeleteProgram(shader.program)
		shader.program = 0
	}
}

func GenShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		logger.Log.Error("Failed to compile", zap.Uint32("shaderType", shaderType), zap.String("log", log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func GenShaderProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		logger.Log.Error("Failed to link program", zap.String("log", log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link failed: %s", strings.TrimRight(log, "\x00"))
	}
	logger.Log.Debug("Shader program linked", zap.Uint32("program", program))
	return program, nil
}

var sceneVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inTexCoord;
layout(location = 2) in vec3 inNormal;

uniform mat4 model;
uniform mat4 viewProjection;
uniform mat4 lightViewProjection;
uniform vec4 clipPlane;

out vec2 fragTexCoord;
out vec3 Normal;
out vec3 FragPos;
out vec4 LightSpacePos;

void main() {
    vec4 world = model * vec4(inPosition, 1.0);
    FragPos = world.xyz;
    Normal = mat3(model) * inNormal;
    fragTexCoord = inTexCoord;
    LightSpacePos = lightViewProjection * world;
    gl_ClipDistance[0] = dot(world, clipPlane);
    gl_Position = viewProjection * world;
}
`

var sceneFragmentSource = `#version 410 core
in vec2 fragTexCoord;
in vec3 Normal;
in vec3 FragPos;
in vec4 LightSpacePos;

uniform sampler2D textureSampler;
uniform sampler2D environmentSampler;
uniform sampler2D shadowSampler;
uniform sampler2D reflectorSampler;

uniform bool hasMap;
uniform bool hasReflector;
uniform vec2 viewportSize;
uniform bool hasEnvironment;
uniform bool unlit;
uniform bool receiveShadow;
uniform int shadowMode; // 0 off, 1 basic, 2 pcf, 3 pcf soft, 4 vsm
uniform float shadowBias;
uniform float shadowRadius;

uniform vec3 baseColor;
uniform vec3 emissive;
uniform float metalness;
uniform float roughness;
uniform float envIntensity;

uniform vec3 ambientColor;
uniform vec3 keyDirection;
uniform vec3 keyColor;
uniform vec3 pointPosition;
uniform vec3 pointColor;
uniform float pointDistance;
uniform vec3 viewPos;

out vec4 FragColor;

const float PI = 3.14159265;

vec2 equirect(vec3 dir) {
    return vec2(atan(dir.z, dir.x) / (2.0 * PI) + 0.5, acos(clamp(dir.y, -1.0, 1.0)) / PI);
}

float shadowFactor() {
    if (shadowMode == 0 || !receiveShadow) {
        return 1.0;
    }
    vec3 proj = LightSpacePos.xyz / LightSpacePos.w * 0.5 + 0.5;
    if (proj.z > 1.0) {
        return 1.0;
    }
    float current = proj.z - shadowBias;
    if (shadowMode == 1) {
        return current > texture(shadowSampler, proj.xy).r ? 0.0 : 1.0;
    }
    if (shadowMode == 4) {
        vec2 moments = texture(shadowSampler, proj.xy).rg;
        if (current <= moments.x) {
            return 1.0;
        }
        float variance = max(moments.y - moments.x * moments.x, 0.00002);
        float d = current - moments.x;
        return variance / (variance + d * d);
    }
    int taps = shadowMode == 3 ? 2 : 1;
    vec2 texel = shadowRadius / vec2(textureSize(shadowSampler, 0));
    float lit = 0.0;
    float count = 0.0;
    for (int x = -taps; x <= taps; x++) {
        for (int y = -taps; y <= taps; y++) {
            lit += current > texture(shadowSampler, proj.xy + vec2(x, y) * texel).r ? 0.0 : 1.0;
            count += 1.0;
        }
    }
    return lit / count;
}

void main() {
    vec3 albedo = baseColor;
    if (hasMap) {
        albedo *= texture(textureSampler, fragTexCoord).rgb;
    }
    if (unlit) {
        FragColor = vec4(albedo + emissive, 1.0);
        return;
    }

    vec3 n = normalize(Normal);
    vec3 v = normalize(viewPos - FragPos);
    vec3 diffuse = albedo * (1.0 - metalness);
    vec3 f0 = mix(vec3(0.04), albedo, metalness);
    float shininess = mix(256.0, 4.0, roughness);

    vec3 l = normalize(-keyDirection);
    vec3 h = normalize(l + v);
    float nl = max(dot(n, l), 0.0);
    vec3 color = (diffuse / PI + f0 * pow(max(dot(n, h), 0.0), shininess)) * keyColor * nl * PI * shadowFactor();

    vec3 toPoint = pointPosition - FragPos;
    float dist = length(toPoint);
    float falloff = pointDistance > 0.0 ? clamp(1.0 - dist / pointDistance, 0.0, 1.0) : 1.0;
    color += diffuse * pointColor * max(dot(n, normalize(toPoint)), 0.0) * falloff * falloff;

    color += diffuse * ambientColor;
    if (hasEnvironment) {
        vec3 r = reflect(-v, n);
        vec3 env = textureLod(environmentSampler, equirect(r), roughness * 6.0).rgb;
        vec3 irr = textureLod(environmentSampler, equirect(n), 6.0).rgb;
        color += (diffuse * irr + f0 * env * (1.0 - roughness)) * envIntensity;
    }
    if (hasReflector) {
        vec3 mirrored = texture(reflectorSampler, gl_FragCoord.xy / viewportSize).rgb;
        color = mix(color, mirrored, 0.5 * (1.0 - roughness));
    }
    FragColor = vec4(color + emissive, 1.0);
}
`

var shadowVertexSource = `#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 model;
uniform mat4 lightViewProjection;
void main() {
    gl_Position = lightViewProjection * model * vec4(inPosition, 1.0);
}
`

var shadowFragmentSource = `#version 410 core
uniform bool variance;
out vec4 FragColor;
void main() {
    float d = gl_FragCoord.z;
    FragColor = variance ? vec4(d, d * d, 0.0, 1.0) : vec4(d, 0.0, 0.0, 1.0);
}
`

var postVertexSource = `#version 410 core
out vec2 uv;
void main() {
    vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    uv = p;
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
`

// postFragmentSource runs every enabled discrete stage in one fullscreen
// pass, in the same order as the pass chain.
var postFragmentSource = `#version 410 core
in vec2 uv;
uniform sampler2D colorSampler;
uniform sampler2D depthSampler;
uniform vec2 resolution;
uniform float time;

uniform bool aoEnabled;
uniform float aoRadius;
uniform bool reflectionsEnabled;
uniform bool fxaaEnabled;
uniform bool smaaEnabled;
uniform float smaaScale;
uniform bool taaEnabled;
uniform int taaSampleLevel;
uniform bool dofEnabled;
uniform float dofFocus;
uniform float dofAperture;
uniform float dofMaxBlur;
uniform bool filmEnabled;
uniform float filmIntensity;
uniform bool vignetteEnabled;
uniform float vignetteOffset;
uniform float vignetteDarkness;
uniform bool chromaticEnabled;
uniform float chromaticAmount;
uniform int flareCount;
uniform vec2 flarePos[4];
uniform vec3 flareColor[4];
uniform float flareSize[4];
uniform int toneMapping; // 0 none, 1 linear, 2 reinhard, 3 cineon, 4 aces, 5 neutral
uniform float exposure;

out vec4 FragColor;

float linearDepth(vec2 p) {
    float z = texture(depthSampler, p).r * 2.0 - 1.0;
    return (2.0 * 0.1 * 200.0) / (200.0 + 0.1 - z * (200.0 - 0.1));
}

vec3 sampleColor(vec2 p) {
    if (chromaticEnabled) {
        vec2 off = vec2(chromaticAmount, 0.0);
        return vec3(texture(colorSampler, p + off).r, texture(colorSampler, p).g, texture(colorSampler, p - off).b);
    }
    return texture(colorSampler, p).rgb;
}

vec3 antialias(vec2 p) {
    vec2 texel = 1.0 / resolution;
    if (smaaEnabled) {
        texel *= smaaScale;
    }
    vec3 c = sampleColor(p);
    vec3 n = sampleColor(p + vec2(0.0, texel.y));
    vec3 s = sampleColor(p - vec2(0.0, texel.y));
    vec3 e = sampleColor(p + vec2(texel.x, 0.0));
    vec3 w = sampleColor(p - vec2(texel.x, 0.0));
    vec3 lumaW = vec3(0.299, 0.587, 0.114);
    float lc = dot(c, lumaW);
    float range = max(max(dot(n, lumaW), dot(s, lumaW)), max(dot(e, lumaW), dot(w, lumaW))) - lc;
    if (abs(range) < 0.0312) {
        return c;
    }
    return (c * 4.0 + n + s + e + w) / 8.0;
}

// temporal jitters 2^taaSampleLevel sub-texel taps around p, rotating the
// pattern every frame.
vec3 temporal(vec2 p) {
    vec2 texel = 1.0 / resolution;
    int taps = 1 << clamp(taaSampleLevel, 0, 5);
    vec3 sum = sampleColor(p);
    for (int i = 0; i < taps; i++) {
        float a = float(i) * 2.399963 + time * 7.0;
        sum += sampleColor(p + vec2(cos(a), sin(a)) * texel * 0.5);
    }
    return sum / float(taps + 1);
}

vec3 tonemap(vec3 c) {
    c *= exposure;
    if (toneMapping == 2) {
        return c / (1.0 + c);
    }
    if (toneMapping == 3) {
        vec3 x = max(vec3(0.0), c - 0.004);
        return pow((x * (6.2 * x + 0.5)) / (x * (6.2 * x + 1.7) + 0.06), vec3(2.2));
    }
    if (toneMapping == 4) {
        return clamp((c * (2.51 * c + 0.03)) / (c * (2.43 * c + 0.59) + 0.14), 0.0, 1.0);
    }
    if (toneMapping == 5) {
        float peak = max(c.r, max(c.g, c.b));
        return peak > 0.8 ? c * (0.8 + (1.0 - 0.8) * (1.0 - exp(-(peak - 0.8)))) / peak : c;
    }
    return toneMapping == 0 ? c / max(exposure, 0.0001) : c;
}

void main() {
    vec3 color = taaEnabled ? temporal(uv) : ((fxaaEnabled || smaaEnabled) ? antialias(uv) : sampleColor(uv));
    vec2 texel = 1.0 / resolution;

    if (aoEnabled) {
        float center = linearDepth(uv);
        float occlusion = 0.0;
        for (int i = 0; i < 8; i++) {
            float a = float(i) * 0.785398;
            vec2 o = vec2(cos(a), sin(a)) * aoRadius * texel * 4.0;
            occlusion += step(0.02, center - linearDepth(uv + o));
        }
        color *= 1.0 - occlusion / 16.0;
    }

    if (reflectionsEnabled) {
        float d = linearDepth(uv);
        vec2 mirrored = vec2(uv.x, 1.0 - uv.y);
        if (d > linearDepth(mirrored)) {
            color += sampleColor(mirrored) * 0.08;
        }
    }

    if (dofEnabled) {
        float coc = clamp(abs(linearDepth(uv) - dofFocus) * dofAperture * 100.0, 0.0, dofMaxBlur);
        vec3 blur = vec3(0.0);
        for (int i = 0; i < 8; i++) {
            float a = float(i) * 0.785398;
            blur += sampleColor(uv + vec2(cos(a), sin(a)) * coc);
        }
        color = mix(color, blur / 8.0, clamp(coc / max(dofMaxBlur, 0.0001), 0.0, 1.0));
    }

    if (filmEnabled) {
        float grain = fract(sin(dot(uv * resolution + time, vec2(12.9898, 78.233))) * 43758.5453);
        color += color * (grain - 0.5) * filmIntensity;
    }

    if (vignetteEnabled) {
        vec2 q = (uv - 0.5) * vec2(vignetteOffset);
        color = mix(color, vec3(1.0 - vignetteDarkness), dot(q, q));
    }

    for (int i = 0; i < 4; i++) {
        if (i >= flareCount) {
            break;
        }
        float r = length((uv - flarePos[i]) * resolution) / max(flareSize[i], 1.0);
        color += flareColor[i] * max(0.0, 1.0 - r) * 0.6;
    }

    color = tonemap(color);
    FragColor = vec4(pow(max(color, 0.0), vec3(1.0 / 2.2)), 1.0);
}
`
