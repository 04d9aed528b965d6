package planet

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestDefaultDerivedValues(t *testing.T) {
	p := Default()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"atmosphere radius", p.AtmosphereRadius, 6625.84},
		{"atmosphere thickness", p.AtmosphereThickness(), 254.84},
		{"cloud base altitude", p.CloudBaseAltitude, 114.678},
		{"cloud layer thickness", p.CloudLayerThickness, 89.194},
		{"max ray distance", p.MaxRayDistance, 3 * 6371},
	}
	for _, tt := range tests {
		if !scalar.EqualWithinAbs(tt.got, tt.want, 1e-6) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}

	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if l := p.SunDirection.Len(); !scalar.EqualWithinAbs(float64(l), 1, 1e-6) {
		t.Errorf("sun direction should be unit length, got %v", l)
	}
}

func TestScaleWithPlanetRadius(t *testing.T) {
	p := Default()
	p.PlanetRadius = 1000
	p.ScaleWithPlanetRadius()

	if !scalar.EqualWithinAbs(p.AtmosphereRadius, 1040, 1e-9) {
		t.Errorf("atmosphere radius: expected 1040, got %v", p.AtmosphereRadius)
	}
	// The ratio is taken against the new radius, so the distance survives.
	if !scalar.EqualWithinAbs(p.MaxRayDistance, 3*6371, 1e-9) {
		t.Errorf("max ray distance: expected %v, got %v", 3*6371, p.MaxRayDistance)
	}
}

func TestScaleClampsCloudBand(t *testing.T) {
	tests := []struct {
		name             string
		base, thick      float64
		wantBase, wantTh float64
	}{
		{"within shell", 45, 35, 0.45, 0.35},
		{"thickness capped", 80, 50, 0.80, 0.20},
		{"base above shell", 150, 20, 1, 0},
		{"negative inputs", -10, -5, 0, 0},
	}

	for _, tt := range tests {
		p := Default()
		p.CloudBasePercent = tt.base
		p.CloudLayerThicknessPercent = tt.thick
		p.ScaleWithPlanetRadius()

		shell := p.AtmosphereThickness()
		if !scalar.EqualWithinAbs(p.CloudBaseAltitude, shell*tt.wantBase, 1e-9) {
			t.Errorf("%s: base expected %v, got %v", tt.name, shell*tt.wantBase, p.CloudBaseAltitude)
		}
		if !scalar.EqualWithinAbs(p.CloudLayerThickness, shell*tt.wantTh, 1e-9) {
			t.Errorf("%s: thickness expected %v, got %v", tt.name, shell*tt.wantTh, p.CloudLayerThickness)
		}
		if p.CloudBaseAltitude+p.CloudLayerThickness > shell+1e-9 {
			t.Errorf("%s: cloud band leaves the atmosphere", tt.name)
		}
	}
}

func TestScaleWithZeroRadius(t *testing.T) {
	p := Default()
	p.PlanetRadius = 0
	p.ScaleWithPlanetRadius()
	if p.MaxRayDistance != 0 {
		t.Errorf("expected zero ray distance for zero radius, got %v", p.MaxRayDistance)
	}
	if err := p.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"no planet steps", func(p *Parameters) { p.PlanetMaxSteps = 0 }},
		{"no cloud steps", func(p *Parameters) { p.CloudMaxSteps = -1 }},
		{"atmosphere inside planet", func(p *Parameters) { p.AtmosphereRadius = p.PlanetRadius }},
		{"cloud band too thick", func(p *Parameters) { p.CloudLayerThickness = 1e6 }},
		{"negative time speed", func(p *Parameters) { p.TimeSpeed = -1 }},
	}

	for _, tt := range tests {
		p := Default()
		tt.mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("%s: expected ErrInvalidParameters, got %v", tt.name, err)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := Default()
	c := p.Clone()
	c.WaterColor[0] = 0.9
	c.PlanetMaxSteps = 1

	if p.WaterColor[0] == 0.9 || p.PlanetMaxSteps == 1 {
		t.Error("mutating the clone changed the original")
	}
}

func TestSetSunDirection(t *testing.T) {
	p := Default()
	before := p.SunDirection

	if p.SetSunDirection(mgl32.Vec3{0, 1e-7, 0}) {
		t.Error("near-zero direction should be rejected")
	}
	if p.SunDirection != before {
		t.Error("rejected direction should leave the old value")
	}

	if !p.SetSunDirection(mgl32.Vec3{0, 3, 4}) {
		t.Fatal("expected direction to be accepted")
	}
	want := mgl32.Vec3{0, 0.6, 0.8}
	for i := range want {
		if !scalar.EqualWithinAbs(float64(p.SunDirection[i]), float64(want[i]), 1e-6) {
			t.Errorf("component %d: expected %v, got %v", i, want[i], p.SunDirection[i])
		}
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset      Preset
		planetSteps int
		cloudSteps  int
		extinction  float64
		rayFactor   float64
	}{
		{PresetLow, 124, 28, 0.65, 2},
		{PresetMedium, 128, 48, 0.55, 3},
		{PresetHigh, 256, 48, 0.45, 3},
	}

	for _, tt := range tests {
		p := Default()
		if !ApplyPreset(&p, tt.preset) {
			t.Fatalf("%v: preset not applied", tt.preset)
		}
		if p.PlanetMaxSteps != tt.planetSteps || p.CloudMaxSteps != tt.cloudSteps {
			t.Errorf("%v: steps expected %d/%d, got %d/%d",
				tt.preset, tt.planetSteps, tt.cloudSteps, p.PlanetMaxSteps, p.CloudMaxSteps)
		}
		if p.CloudExtinction != tt.extinction {
			t.Errorf("%v: extinction expected %v, got %v", tt.preset, tt.extinction, p.CloudExtinction)
		}
		if !scalar.EqualWithinAbs(p.MaxRayDistance, p.PlanetRadius*tt.rayFactor, 1e-9) {
			t.Errorf("%v: ray distance expected %v, got %v", tt.preset, p.PlanetRadius*tt.rayFactor, p.MaxRayDistance)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%v: preset result should validate: %v", tt.preset, err)
		}
	}

	p := Default()
	if ApplyPreset(&p, Preset(42)) {
		t.Error("unknown preset should not apply")
	}
	if p != Default() {
		t.Error("unknown preset modified parameters")
	}
}

func TestParsePreset(t *testing.T) {
	for _, s := range []string{"low", "Medium", " HIGH "} {
		if _, err := ParsePreset(s); err != nil {
			t.Errorf("%q: unexpected error %v", s, err)
		}
	}
	if _, err := ParsePreset("ultra"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
