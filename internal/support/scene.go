package support

import "GopherTestbed/internal/scene"

const (
	hintNoReflectiveFloor = "Current scene has no reflective floor"
	hintNoPrimaryLight    = "Current scene has no primary light"
)

// SceneControlConstraints inspects the loaded scene for content the
// controls depend on. A nil scene imposes no constraints.
func SceneControlConstraints(s *scene.Scene) ControlConstraints {
	if s == nil {
		return ControlConstraints{}
	}
	reflective := len(scene.FindTagged(s.Root(), scene.TagReflectiveFloor)) > 0 ||
		len(scene.FindTagged(s.Root(), scene.TagReflectiveProxy)) > 0
	var directional bool
	scene.Walk(s.Root(), scene.LightVisitor(func(l *scene.Light) {
		if l.LightKind == scene.LightDirectional {
			directional = true
		}
	}))

	out := ControlConstraints{}
	if !reflective {
		out[ScreenSpaceReflections] = ControlConstraint{Supported: false, Hint: hintNoReflectiveFloor}
	}
	if !directional {
		out[LensFlares] = ControlConstraint{Supported: false, Hint: hintNoPrimaryLight}
	}
	return out
}
