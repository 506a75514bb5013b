package support

import (
	"fmt"
	"strings"

	"GopherTestbed/internal/settings"
)

// UnsupportedLabel summarizes every requested control the backend cannot
// run. ok is false when nothing requested is unsupported.
func UnsupportedLabel(s *settings.RenderingSettings, backend settings.RendererMode, label string) (string, bool) {
	support := GetAvailability(backend, s)
	var names []string
	if !support.AntiAliasingAvailable(s.AntiAliasing) {
		names = append(names, s.AntiAliasing.Label())
	}
	for _, k := range Controls {
		if k.Get(s) && !support.Available(k) {
			names = append(names, k.Label())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	return fmt.Sprintf("Unsupported in %s: %s", label, strings.Join(names, ", ")), true
}

// FeatureSupport is one row of the capabilities panel.
type FeatureSupport struct {
	Key       ControlKey `json:"key"`
	Label     string     `json:"label"`
	Supported bool       `json:"supported"`
	Detail    string     `json:"detail,omitempty"`
}

// Features lists every control with its availability and hint.
func Features(support RenderingSupport) []FeatureSupport {
	out := make([]FeatureSupport, 0, len(Controls))
	for _, k := range Controls {
		out = append(out, FeatureSupport{
			Key:       k,
			Label:     k.Label(),
			Supported: support.Available(k),
			Detail:    support.Hint(k),
		})
	}
	return out
}
