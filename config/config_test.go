package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"sdf-planet/orbit"
	"sdf-planet/pipeline"
	"sdf-planet/planet"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsMatchPlanetDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := planet.Default()
	got := cfg.Planet
	if got.PlanetRadius != want.PlanetRadius || got.PlanetMaxSteps != want.PlanetMaxSteps {
		t.Errorf("planet section drifted from the package defaults: %+v", got)
	}
	if !scalar.EqualWithinAbs(got.AtmosphereRadius, 6625.84, 1e-6) {
		t.Errorf("atmosphere radius: expected 6625.84, got %v", got.AtmosphereRadius)
	}
	if !scalar.EqualWithinAbs(got.MaxRayDistance, want.MaxRayDistance, 1e-6) {
		t.Errorf("max ray distance: expected %v, got %v", want.MaxRayDistance, got.MaxRayDistance)
	}
	if !scalar.EqualWithinAbs(float64(got.SunDirection.Len()), 1, 1e-6) {
		t.Errorf("sun direction not normalized: %v", got.SunDirection)
	}

	if cfg.Window.Width != 1366 || cfg.Window.Height != 768 || cfg.Window.Title != "SDF Planet Demo" {
		t.Errorf("unexpected window %+v", cfg.Window)
	}
	if cfg.Derived.HasPreset {
		t.Error("no preset expected by default")
	}
	if cfg.Derived.Layers != pipeline.DebugLevel(9) {
		t.Errorf("expected final composite, got %v", cfg.Derived.Layers)
	}
	if cfg.Derived.OrbitalModel != orbit.ModelTiltSpin {
		t.Errorf("expected tilt_spin, got %v", cfg.Derived.OrbitalModel)
	}
	if p := cfg.StartPosition(); !scalar.EqualWithinAbs(float64(p[2]), 6371*1.6, 1e-2) {
		t.Errorf("start position %v", p)
	}
}

func TestUserFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
planet:
  planet_radius: 1000
render:
  quality: low
  layer_mode: visibility
  orbital_model: tilt
camera:
  gravity: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Planet.PlanetRadius != 1000 {
		t.Errorf("radius not overridden: %v", cfg.Planet.PlanetRadius)
	}
	if !scalar.EqualWithinAbs(cfg.Planet.AtmosphereRadius, 1040, 1e-9) {
		t.Errorf("derived atmosphere radius: got %v", cfg.Planet.AtmosphereRadius)
	}
	if cfg.Planet.PlanetMaxSteps != 124 || cfg.Planet.CloudMaxSteps != 28 {
		t.Errorf("low preset not applied: %d/%d", cfg.Planet.PlanetMaxSteps, cfg.Planet.CloudMaxSteps)
	}
	if !scalar.EqualWithinAbs(cfg.Planet.MaxRayDistance, 2000, 1e-9) {
		t.Errorf("max ray distance: expected 2000, got %v", cfg.Planet.MaxRayDistance)
	}
	if cfg.Derived.Layers.Mode != pipeline.LayerModeVisibility || !cfg.Derived.Layers.Visible[8] {
		t.Errorf("expected visibility mode showing the final image, got %v", cfg.Derived.Layers)
	}
	if cfg.Derived.OrbitalModel != orbit.ModelTiltOnly {
		t.Errorf("expected tilt model")
	}
	if !cfg.Camera.Gravity || cfg.Camera.BaseSpeed != 60 {
		t.Errorf("camera overlay: %+v", cfg.Camera)
	}
	if cfg.Window.Width != 1366 {
		t.Error("untouched sections should keep defaults")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad preset", "render:\n  quality: ultra\n"},
		{"bad layer mode", "render:\n  layer_mode: stacked\n"},
		{"bad model", "render:\n  orbital_model: elliptic\n"},
		{"zero radius", "planet:\n  planet_radius: 0\n"},
		{"no steps", "planet:\n  cloud_max_steps: 0\n"},
		{"bad window", "window:\n  width: 0\n"},
		{"bad yaml", "planet: [\n"},
	}
	for _, tt := range tests {
		if _, err := Load(writeConfig(t, tt.body)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestInvalidPlanetWrapsSentinel(t *testing.T) {
	_, err := Load(writeConfig(t, "planet:\n  planet_radius: -5\n"))
	if !errors.Is(err, planet.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, "render:\n  quality: high\n"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Planet.PlanetMaxSteps != cfg.Planet.PlanetMaxSteps || again.Render.Quality != "high" {
		t.Errorf("snapshot lost values: %+v", again.Render)
	}
}
