// Package pipeline describes the deferred planet pipeline without touching
// OpenGL: the pass order, which textures each pass samples and on which
// unit, the uniform names every shader shares, and the render targets that
// must exist before a frame is drawn. The GL backend consumes these tables
// so that a single definition governs both sides.
package pipeline

import "fmt"

// TextureUnit is a fixed texture image unit. Every pass that samples a given
// texture binds it on the same unit.
type TextureUnit uint32

const (
	UnitPosition TextureUnit = iota
	UnitNormal
	UnitMaterial
	UnitLighting
	UnitAtmosphere
	UnitCloud
	UnitViewData
	UnitCloudCoverage
	UnitCloudShape

	numUnits
)

var samplerNames = [numUnits]string{
	UnitPosition:      "gPositionHeight",
	UnitNormal:        "gNormalFlags",
	UnitMaterial:      "gMaterial",
	UnitLighting:      "lightingTex",
	UnitAtmosphere:    "atmosphereTex",
	UnitCloud:         "cloudTex",
	UnitViewData:      "gViewData",
	UnitCloudCoverage: "cloudCoverageTex",
	UnitCloudShape:    "cloudShapeTex",
}

// Sampler is the GLSL sampler uniform bound to u.
func (u TextureUnit) Sampler() string {
	if u >= numUnits {
		return fmt.Sprintf("unit%d", uint32(u))
	}
	return samplerNames[u]
}

func (u TextureUnit) String() string { return u.Sampler() }

// Units lists every unit in the binding table in ascending order.
func Units() []TextureUnit {
	out := make([]TextureUnit, 0, numUnits)
	for u := TextureUnit(0); u < numUnits; u++ {
		out = append(out, u)
	}
	return out
}
