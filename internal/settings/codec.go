package settings

import (
	"encoding/json"
	"fmt"
)

// DecodeRenderingSettings decodes data over DefaultRenderingSettings so that
// knobs missing from older payloads keep their defaults.
func DecodeRenderingSettings(data []byte) (*RenderingSettings, error) {
	s := DefaultRenderingSettings()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode rendering settings: %w", err)
		}
	}
	s.sanitize()
	return &s, nil
}

// DecodeSceneSettings decodes data over DefaultSceneSettings.
func DecodeSceneSettings(data []byte) (*SceneSettings, error) {
	s := DefaultSceneSettings()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode scene settings: %w", err)
		}
	}
	s.sanitize()
	return &s, nil
}

// UnmarshalJSON merges a preset payload over the defaults.
func (p *Preset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string          `json:"name"`
		Rendering json.RawMessage `json:"rendering"`
		Scene     json.RawMessage `json:"scene"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rendering, err := DecodeRenderingSettings(raw.Rendering)
	if err != nil {
		return err
	}
	sceneSettings, err := DecodeSceneSettings(raw.Scene)
	if err != nil {
		return err
	}
	p.Name = raw.Name
	p.Rendering = *rendering
	p.Scene = *sceneSettings
	return nil
}

// sanitize replaces out-of-range enum values and numbers with defaults.
func (s *RenderingSettings) sanitize() {
	d := DefaultRenderingSettings()
	if !s.RendererMode.Valid() {
		s.RendererMode = d.RendererMode
	}
	switch s.AntiAliasing {
	case AntiAliasingNone, AntiAliasingMSAA, AntiAliasingFXAA, AntiAliasingSMAA, AntiAliasingTAA:
	default:
		s.AntiAliasing = d.AntiAliasing
	}
	if !s.SMAAQuality.valid() {
		s.SMAAQuality = d.SMAAQuality
	}
	if !s.AOQuality.valid() {
		s.AOQuality = d.AOQuality
	}
	switch s.TextureFiltering {
	case FilteringLinear, FilteringTrilinear, FilteringAnisotropic:
	default:
		s.TextureFiltering = d.TextureFiltering
	}
	switch s.ShadowType {
	case ShadowBasic, ShadowPCF, ShadowPCFSoft, ShadowVSM:
	default:
		s.ShadowType = d.ShadowType
	}
	switch s.MSAASamples {
	case 2, 4, 8:
	default:
		s.MSAASamples = d.MSAASamples
	}
	if s.TAASamples < 1 {
		s.TAASamples = 1
	}
	if s.Anisotropy < 1 {
		s.Anisotropy = 1
	}
	if s.AORadius < 0 {
		s.AORadius = 0
	}
}

func (s *SceneSettings) sanitize() {
	switch s.ToneMapping {
	case ToneMappingNone, ToneMappingLinear, ToneMappingReinhard, ToneMappingCineon, ToneMappingACES, ToneMappingNeutral:
	default:
		s.ToneMapping = DefaultSceneSettings().ToneMapping
	}
	if s.EnvironmentIntensity < 0 {
		s.EnvironmentIntensity = 0
	}
	if s.Exposure < 0 {
		s.Exposure = 0
	}
}

func (q QualityLevel) valid() bool {
	return q == QualityLow || q == QualityMedium || q == QualityHigh
}
