// Package planet holds the tunable parameter set shared by every render pass
// and the surface query contract used by the host for collision and gravity.
package planet

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidParameters is returned by Validate.
var ErrInvalidParameters = errors.New("invalid planet parameters")

// Baseline values. Distances are kilometres.
const (
	DefaultSunPower                   = 1.5
	DefaultPlanetRadius               = 6371.0
	DefaultAtmosphereThicknessPercent = 4.0
	DefaultCloudBasePercent           = 45.0
	DefaultCloudLayerThicknessPercent = 35.0
	DefaultHeightScale                = 432.2
	DefaultSeaLevel                   = 0.0
	DefaultWaterAbsorption            = 0.74
	DefaultWaterScattering            = 0.24
	DefaultMaxRayDistanceFactor       = 3.0
	DefaultCloudCoverage              = 0.44
	DefaultCloudDensity               = 0.45
	DefaultPlanetMaxSteps             = 320
	DefaultPlanetStepScale            = 0.17
	DefaultPlanetMinStepFactor        = 0.5
	DefaultCloudMaxSteps              = 48
	DefaultCloudExtinction            = 0.55
	DefaultCloudPhaseExponent         = 2.5
	DefaultCloudAnimationSpeed        = 0.006
	DefaultTiltDegrees                = 23.5
	DefaultTimeSpeed                  = 240.0
)

var (
	DefaultSunDirection    = mgl32.Vec3{0.22, 0.22, 0.71}
	DefaultWaterColor      = mgl32.Vec3{0.02, 0.16, 0.24}
	DefaultCloudLightColor = mgl32.Vec3{1.0, 0.97, 0.94}
)

// Parameters is the full set of values the passes read as uniforms. The
// percent fields are inputs; AtmosphereRadius, CloudBaseAltitude and
// CloudLayerThickness are derived by ScaleWithPlanetRadius.
type Parameters struct {
	SunDirection mgl32.Vec3 `yaml:"sun_direction" json:"sun_direction"`
	SunPower     float64    `yaml:"sun_power" json:"sun_power"`

	PlanetRadius               float64 `yaml:"planet_radius" json:"planet_radius"`
	AtmosphereThicknessPercent float64 `yaml:"atmosphere_thickness_percent" json:"atmosphere_thickness_percent"`
	CloudBasePercent           float64 `yaml:"cloud_base_percent" json:"cloud_base_percent"`
	CloudLayerThicknessPercent float64 `yaml:"cloud_layer_thickness_percent" json:"cloud_layer_thickness_percent"`
	AtmosphereRadius           float64 `yaml:"atmosphere_radius" json:"atmosphere_radius"`

	HeightScale     float64    `yaml:"height_scale" json:"height_scale"`
	SeaLevel        float64    `yaml:"sea_level" json:"sea_level"`
	WaterColor      mgl32.Vec3 `yaml:"water_color" json:"water_color"`
	WaterAbsorption float64    `yaml:"water_absorption" json:"water_absorption"`
	WaterScattering float64    `yaml:"water_scattering" json:"water_scattering"`
	MaxRayDistance  float64    `yaml:"max_ray_distance" json:"max_ray_distance"`

	CloudBaseAltitude   float64    `yaml:"cloud_base_altitude" json:"cloud_base_altitude"`
	CloudLayerThickness float64    `yaml:"cloud_layer_thickness" json:"cloud_layer_thickness"`
	CloudCoverage       float64    `yaml:"cloud_coverage" json:"cloud_coverage"`
	CloudDensity        float64    `yaml:"cloud_density" json:"cloud_density"`
	CloudLightColor     mgl32.Vec3 `yaml:"cloud_light_color" json:"cloud_light_color"`
	CloudAnimationSpeed float64    `yaml:"cloud_animation_speed" json:"cloud_animation_speed"`

	PlanetMaxSteps      int     `yaml:"planet_max_steps" json:"planet_max_steps"`
	PlanetStepScale     float64 `yaml:"planet_step_scale" json:"planet_step_scale"`
	PlanetMinStepFactor float64 `yaml:"planet_min_step_factor" json:"planet_min_step_factor"`
	CloudMaxSteps       int     `yaml:"cloud_max_steps" json:"cloud_max_steps"`
	CloudExtinction     float64 `yaml:"cloud_extinction" json:"cloud_extinction"`
	CloudPhaseExponent  float64 `yaml:"cloud_phase_exponent" json:"cloud_phase_exponent"`

	TiltDegrees float64 `yaml:"tilt_degrees" json:"tilt_degrees"`
	TimeSpeed   float64 `yaml:"time_speed" json:"time_speed"`
}

// Baseline returns the raw defaults without deriving the dependent fields.
func Baseline() Parameters {
	return Parameters{
		SunDirection:               DefaultSunDirection.Normalize(),
		SunPower:                   DefaultSunPower,
		PlanetRadius:               DefaultPlanetRadius,
		AtmosphereThicknessPercent: DefaultAtmosphereThicknessPercent,
		CloudBasePercent:           DefaultCloudBasePercent,
		CloudLayerThicknessPercent: DefaultCloudLayerThicknessPercent,
		AtmosphereRadius:           DefaultPlanetRadius * (1 + DefaultAtmosphereThicknessPercent/100),
		HeightScale:                DefaultHeightScale,
		SeaLevel:                   DefaultSeaLevel,
		WaterColor:                 DefaultWaterColor,
		WaterAbsorption:            DefaultWaterAbsorption,
		WaterScattering:            DefaultWaterScattering,
		MaxRayDistance:             DefaultPlanetRadius * DefaultMaxRayDistanceFactor,
		CloudCoverage:              DefaultCloudCoverage,
		CloudDensity:               DefaultCloudDensity,
		CloudLightColor:            DefaultCloudLightColor,
		CloudAnimationSpeed:        DefaultCloudAnimationSpeed,
		PlanetMaxSteps:             DefaultPlanetMaxSteps,
		PlanetStepScale:            DefaultPlanetStepScale,
		PlanetMinStepFactor:        DefaultPlanetMinStepFactor,
		CloudMaxSteps:              DefaultCloudMaxSteps,
		CloudExtinction:            DefaultCloudExtinction,
		CloudPhaseExponent:         DefaultCloudPhaseExponent,
		TiltDegrees:                DefaultTiltDegrees,
		TimeSpeed:                  DefaultTimeSpeed,
	}
}

// Default returns the baseline with derived fields computed.
func Default() Parameters {
	p := Baseline()
	p.ScaleWithPlanetRadius()
	return p
}

// AtmosphereThickness is the shell depth implied by the radius and percent.
func (p Parameters) AtmosphereThickness() float64 {
	return p.PlanetRadius * p.AtmosphereThicknessPercent / 100
}

// ScaleWithPlanetRadius recomputes every field that depends on the planet
// radius or the percentage inputs. The cloud band is kept inside the shell:
// both ratios are clamped to [0,1] and the thickness ratio is capped at
// 1 - base. MaxRayDistance keeps its current ratio to the radius.
func (p *Parameters) ScaleWithPlanetRadius() {
	thickness := p.AtmosphereThickness()
	p.AtmosphereRadius = p.PlanetRadius + thickness

	baseRatio := clamp01(p.CloudBasePercent / 100)
	thickRatio := clamp01(p.CloudLayerThicknessPercent / 100)
	thickRatio = math.Min(thickRatio, math.Max(0, 1-baseRatio))

	p.CloudBaseAltitude = thickness * baseRatio
	p.CloudLayerThickness = thickness * thickRatio

	factor := DefaultMaxRayDistanceFactor
	if p.PlanetRadius > 0 {
		factor = p.MaxRayDistance / p.PlanetRadius
	}
	p.MaxRayDistance = p.PlanetRadius * factor
}

// Validate checks the relationships the passes rely on.
func (p Parameters) Validate() error {
	switch {
	case !(p.PlanetRadius > 0):
		return fmt.Errorf("%w: planet radius %v must be positive", ErrInvalidParameters, p.PlanetRadius)
	case !(p.AtmosphereRadius > p.PlanetRadius):
		return fmt.Errorf("%w: atmosphere radius %v must exceed planet radius %v",
			ErrInvalidParameters, p.AtmosphereRadius, p.PlanetRadius)
	case p.PlanetMaxSteps < 1:
		return fmt.Errorf("%w: planet max steps %d must be at least 1", ErrInvalidParameters, p.PlanetMaxSteps)
	case p.CloudMaxSteps < 1:
		return fmt.Errorf("%w: cloud max steps %d must be at least 1", ErrInvalidParameters, p.CloudMaxSteps)
	case p.CloudBaseAltitude+p.CloudLayerThickness > p.AtmosphereRadius-p.PlanetRadius+1e-9:
		return fmt.Errorf("%w: cloud band %v+%v exceeds atmosphere thickness %v",
			ErrInvalidParameters, p.CloudBaseAltitude, p.CloudLayerThickness, p.AtmosphereRadius-p.PlanetRadius)
	case p.TimeSpeed < 0:
		return fmt.Errorf("%w: time speed %v must not be negative", ErrInvalidParameters, p.TimeSpeed)
	}
	return nil
}

// Clone returns an independent copy. Every field is a value type.
func (p Parameters) Clone() Parameters {
	return p
}

// SetSunDirection normalizes v and stores it; near-zero input is ignored.
func (p *Parameters) SetSunDirection(v mgl32.Vec3) bool {
	if v.Len() <= 1e-5 {
		return false
	}
	p.SunDirection = v.Normalize()
	return true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
