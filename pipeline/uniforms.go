package pipeline

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform names shared by every pass shader. A shader that does not declare
// one of these simply ignores it.
const (
	UniformCamPos     = "camPos"
	UniformCamForward = "camForward"
	UniformCamRight   = "camRight"
	UniformCamUp      = "camUp"

	UniformSunDir           = "sunDir"
	UniformSunPower         = "sunPower"
	UniformPlanetRadius     = "planetRadius"
	UniformAtmosphereRadius = "atmosphereRadius"
	UniformHeightScale      = "heightScale"
	UniformMaxRayDistance   = "maxRayDistance"
	UniformSeaLevel         = "seaLevel"
	UniformWaterColor       = "waterColor"
	UniformWaterAbsorption  = "waterAbsorption"
	UniformWaterScattering  = "waterScattering"

	UniformCloudBaseAltitude   = "cloudBaseAltitude"
	UniformCloudLayerThickness = "cloudLayerThickness"
	UniformCloudCoverage       = "cloudCoverage"
	UniformCloudDensity        = "cloudDensity"
	UniformCloudLightColor     = "cloudLightColor"
	UniformCloudAnimationSpeed = "cloudAnimationSpeed"
	UniformCloudMaxSteps       = "cloudMaxSteps"
	UniformCloudExtinction     = "cloudExtinction"
	UniformCloudPhaseExponent  = "cloudPhaseExponent"

	UniformPlanetMaxSteps      = "planetMaxSteps"
	UniformPlanetStepScale     = "planetStepScale"
	UniformPlanetMinStepFactor = "planetMinStepFactor"

	UniformResolution    = "resolution"
	UniformAspect        = "aspect"
	UniformTime          = "time"
	UniformPlanetToWorld = "planetToWorld"
	UniformWorldToPlanet = "worldToPlanet"

	UniformDebugLevel = "debugLevel"
	UniformLayerMode  = "layerMode"
)

// ShowLayerUniform is the name of element i of the showLayer array.
func ShowLayerUniform(i int) string {
	return fmt.Sprintf("showLayer[%d]", i)
}

// UniformWriter sets uniforms on the currently bound program.
type UniformWriter interface {
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec2(name string, v mgl32.Vec2)
	SetVec3(name string, v mgl32.Vec3)
	SetMat3(name string, m mgl32.Mat3)
}

// BindFrameUniforms writes the full shared contract for one frame. Every
// pass calls it so that all shaders see identical values.
func BindFrameUniforms(w UniformWriter, fc *FrameContext) {
	p := &fc.Params

	w.SetVec3(UniformCamPos, fc.Camera.Position)
	w.SetVec3(UniformCamForward, fc.Camera.Forward)
	w.SetVec3(UniformCamRight, fc.Camera.Right)
	w.SetVec3(UniformCamUp, fc.Camera.Up)

	w.SetVec3(UniformSunDir, fc.SunDirection)
	w.SetFloat(UniformSunPower, float32(p.SunPower))
	w.SetFloat(UniformPlanetRadius, float32(p.PlanetRadius))
	w.SetFloat(UniformAtmosphereRadius, float32(p.AtmosphereRadius))
	w.SetFloat(UniformHeightScale, float32(p.HeightScale))
	w.SetFloat(UniformMaxRayDistance, float32(p.MaxRayDistance))
	w.SetFloat(UniformSeaLevel, float32(p.SeaLevel))
	w.SetVec3(UniformWaterColor, p.WaterColor)
	w.SetFloat(UniformWaterAbsorption, float32(p.WaterAbsorption))
	w.SetFloat(UniformWaterScattering, float32(p.WaterScattering))

	w.SetFloat(UniformCloudBaseAltitude, float32(p.CloudBaseAltitude))
	w.SetFloat(UniformCloudLayerThickness, float32(p.CloudLayerThickness))
	w.SetFloat(UniformCloudCoverage, float32(p.CloudCoverage))
	w.SetFloat(UniformCloudDensity, float32(p.CloudDensity))
	w.SetVec3(UniformCloudLightColor, p.CloudLightColor)
	w.SetFloat(UniformCloudAnimationSpeed, float32(p.CloudAnimationSpeed))
	w.SetInt(UniformCloudMaxSteps, int32(p.CloudMaxSteps))
	w.SetFloat(UniformCloudExtinction, float32(p.CloudExtinction))
	w.SetFloat(UniformCloudPhaseExponent, float32(p.CloudPhaseExponent))

	w.SetInt(UniformPlanetMaxSteps, int32(p.PlanetMaxSteps))
	w.SetFloat(UniformPlanetStepScale, float32(p.PlanetStepScale))
	w.SetFloat(UniformPlanetMinStepFactor, float32(p.PlanetMinStepFactor))

	w.SetVec2(UniformResolution, mgl32.Vec2{float32(fc.Width), float32(fc.Height)})
	w.SetFloat(UniformAspect, fc.Aspect())
	w.SetFloat(UniformTime, fc.Time)
	w.SetMat3(UniformPlanetToWorld, fc.Orientation.PlanetToWorld)
	w.SetMat3(UniformWorldToPlanet, fc.Orientation.WorldToPlanet)
}

// BindLayerSelector writes the composite pass's layer controls.
func BindLayerSelector(w UniformWriter, l LayerSelector) {
	w.SetInt(UniformLayerMode, int32(l.Mode))
	w.SetInt(UniformDebugLevel, int32(l.Level))
	for i, visible := range l.Visible {
		v := int32(0)
		if visible {
			v = 1
		}
		w.SetInt(ShowLayerUniform(i), v)
	}
}

// BindSamplers points each sampler uniform at its fixed unit.
func BindSamplers(w UniformWriter, units []TextureUnit) {
	for _, u := range units {
		w.SetInt(u.Sampler(), int32(u))
	}
}
