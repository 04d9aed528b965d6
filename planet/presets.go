package planet

import (
	"fmt"
	"strings"
)

// Preset is a named raymarch quality level.
type Preset int

const (
	PresetLow Preset = iota
	PresetMedium
	PresetHigh
)

func (p Preset) String() string {
	switch p {
	case PresetLow:
		return "low"
	case PresetMedium:
		return "medium"
	case PresetHigh:
		return "high"
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// ParsePreset accepts the preset names case-insensitively.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PresetLow, nil
	case "medium", "med":
		return PresetMedium, nil
	case "high":
		return PresetHigh, nil
	}
	return PresetMedium, fmt.Errorf("unknown quality preset %q", s)
}

type presetValues struct {
	planetMaxSteps       int
	planetStepScale      float64
	planetMinStepFactor  float64
	cloudMaxSteps        int
	cloudExtinction      float64
	cloudPhaseExponent   float64
	maxRayDistanceFactor float64
}

var presets = map[Preset]presetValues{
	PresetLow:    {124, 0.2, 0.2, 28, 0.65, 2.1, 2},
	PresetMedium: {128, 0.2, 0.1, 48, 0.55, 2.5, 3},
	PresetHigh:   {256, 0.1, 0.1, 48, 0.45, 3.0, 3},
}

// ApplyPreset overwrites the step budgets, cloud extinction, phase exponent
// and ray distance. It reports false for an unknown preset and leaves p
// untouched.
func ApplyPreset(p *Parameters, preset Preset) bool {
	v, ok := presets[preset]
	if !ok {
		return false
	}
	p.PlanetMaxSteps = v.planetMaxSteps
	p.PlanetStepScale = v.planetStepScale
	p.PlanetMinStepFactor = v.planetMinStepFactor
	p.CloudMaxSteps = v.cloudMaxSteps
	p.CloudExtinction = v.cloudExtinction
	p.CloudPhaseExponent = v.cloudPhaseExponent
	p.MaxRayDistance = p.PlanetRadius * v.maxRayDistanceFactor
	return true
}
