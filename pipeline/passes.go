package pipeline

import (
	"errors"
	"fmt"
)

// PassID names one of the fullscreen passes.
type PassID int

const (
	PassGBuffer PassID = iota
	PassLighting
	PassAtmosphere
	PassClouds
	PassComposite
)

func (p PassID) String() string {
	switch p {
	case PassGBuffer:
		return "gbuffer"
	case PassLighting:
		return "lighting"
	case PassAtmosphere:
		return "atmosphere"
	case PassClouds:
		return "clouds"
	case PassComposite:
		return "composite"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// TargetID names a render destination.
type TargetID int

const (
	TargetGBuffer TargetID = iota
	TargetLighting
	TargetAtmosphere
	TargetCloud
	TargetScreen
)

func (t TargetID) String() string {
	switch t {
	case TargetGBuffer:
		return "gbuffer"
	case TargetLighting:
		return "lighting"
	case TargetAtmosphere:
		return "atmosphere"
	case TargetCloud:
		return "cloud"
	case TargetScreen:
		return "screen"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// Pass is one step of the frame.
type Pass struct {
	ID         PassID
	Target     TargetID
	Inputs     []TextureUnit
	DepthTest  bool
	ClearDepth bool
	// ViewData marks passes that also sample the G-buffer view-data
	// attachment when it is enabled.
	ViewData bool
}

// Samples returns the pass inputs, adding the view-data unit when enabled.
func (p Pass) Samples(viewData bool) []TextureUnit {
	if !viewData || !p.ViewData {
		return p.Inputs
	}
	out := make([]TextureUnit, 0, len(p.Inputs)+1)
	out = append(out, p.Inputs...)
	return append(out, UnitViewData)
}

// Name is the pass name used in logs and timing records.
func (p Pass) Name() string { return p.ID.String() }

// targetOutputs maps each offscreen target to the units its textures feed.
var targetOutputs = map[TargetID][]TextureUnit{
	TargetGBuffer:    {UnitPosition, UnitNormal, UnitMaterial, UnitViewData},
	TargetLighting:   {UnitLighting},
	TargetAtmosphere: {UnitAtmosphere},
	TargetCloud:      {UnitCloud},
}

// Outputs lists the texture units the target feeds.
func (t TargetID) Outputs() []TextureUnit {
	return targetOutputs[t]
}

// NoiseUnits are produced once by the cloud noise compute job rather than by
// a pass.
var NoiseUnits = []TextureUnit{UnitCloudCoverage, UnitCloudShape}

var passes = []Pass{
	{
		ID:         PassGBuffer,
		Target:     TargetGBuffer,
		DepthTest:  true,
		ClearDepth: true,
	},
	{
		ID:       PassLighting,
		Target:   TargetLighting,
		Inputs:   []TextureUnit{UnitPosition, UnitNormal, UnitMaterial},
		ViewData: true,
	},
	{
		ID:       PassAtmosphere,
		Target:   TargetAtmosphere,
		Inputs:   []TextureUnit{UnitPosition, UnitNormal},
		ViewData: true,
	},
	{
		ID:       PassClouds,
		Target:   TargetCloud,
		Inputs:   []TextureUnit{UnitPosition, UnitNormal, UnitMaterial, UnitCloudCoverage, UnitCloudShape},
		ViewData: true,
	},
	{
		ID:         PassComposite,
		Target:     TargetScreen,
		Inputs:     []TextureUnit{UnitPosition, UnitNormal, UnitMaterial, UnitLighting, UnitAtmosphere, UnitCloud},
		ClearDepth: true,
		ViewData:   true,
	},
}

// Passes returns the frame's passes in execution order.
func Passes() []Pass {
	out := make([]Pass, len(passes))
	copy(out, passes)
	return out
}

var errTopology = errors.New("invalid pass topology")

// ValidateTopology checks that every pass only samples textures written by an
// earlier pass or by the noise job, and that only the G-buffer pass depth
// tests.
func ValidateTopology(ps []Pass) error {
	available := make(map[TextureUnit]bool)
	for _, u := range NoiseUnits {
		available[u] = true
	}

	for i, p := range ps {
		if p.DepthTest && p.ID != PassGBuffer {
			return fmt.Errorf("%w: pass %s enables depth testing", errTopology, p.Name())
		}
		for _, in := range p.Samples(true) {
			if !available[in] {
				return fmt.Errorf("%w: pass %d (%s) samples %s before it is written",
					errTopology, i, p.Name(), in.Sampler())
			}
		}
		for _, out := range p.Target.Outputs() {
			available[out] = true
		}
	}
	return nil
}
