// Package config provides configuration loading for the planet viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sdf-planet/orbit"
	"sdf-planet/pipeline"
	"sdf-planet/planet"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the application.
type Config struct {
	Window    WindowConfig      `yaml:"window"`
	Planet    planet.Parameters `yaml:"planet"`
	Render    RenderConfig      `yaml:"render"`
	Camera    CameraConfig      `yaml:"camera"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`

	Derived DerivedConfig `yaml:"-"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

// RenderConfig holds pipeline settings.
type RenderConfig struct {
	Quality         string `yaml:"quality"`           // quality preset applied over the planet values
	LayerMode       string `yaml:"layer_mode"`        // debug_level or visibility
	DebugLevel      int    `yaml:"debug_level"`       // 1..9
	OrbitalModel    string `yaml:"orbital_model"`     // tilt_spin or tilt
	SunFromCalendar bool   `yaml:"sun_from_calendar"` // false uses planet.sun_direction
	ViewData        bool   `yaml:"view_data"`
	ShaderDir       string `yaml:"shader_dir"`
	NoiseResolution int    `yaml:"noise_resolution"`
	NoiseSeed       int32  `yaml:"noise_seed"`
	TerrainSeed     int64  `yaml:"terrain_seed"` // CPU reference terrain
	GPUTimings      bool   `yaml:"gpu_timings"`
}

// CameraConfig holds the first-person controller settings.
type CameraConfig struct {
	StartDistanceFactor float64 `yaml:"start_distance_factor"`
	StartYaw            float32 `yaml:"start_yaw"`
	StartPitch          float32 `yaml:"start_pitch"`
	FOV                 float32 `yaml:"fov"`
	BaseSpeed           float64 `yaml:"base_speed"`
	FastMultiplier      float64 `yaml:"fast_multiplier"`
	Sensitivity         float32 `yaml:"sensitivity"`
	Gravity             bool    `yaml:"gravity"`
	GravityAcceleration float64 `yaml:"gravity_acceleration"`
	MinGroundClearance  float32 `yaml:"min_ground_clearance"`
	BookmarkPath        string  `yaml:"bookmark_path"`
}

// TelemetryConfig holds frame timing output settings.
type TelemetryConfig struct {
	OutputDir    string `yaml:"output_dir"`
	WindowFrames int    `yaml:"window_frames"`
	StreamAddr   string `yaml:"stream_addr"`
}

// DerivedConfig holds values parsed from the string settings.
type DerivedConfig struct {
	Preset       planet.Preset
	HasPreset    bool
	Layers       pipeline.LayerSelector
	OrbitalModel orbit.Model
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{Planet: planet.Baseline()}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) computeDerived() error {
	if !c.Planet.SetSunDirection(c.Planet.SunDirection) {
		c.Planet.SunDirection = planet.DefaultSunDirection.Normalize()
	}

	if c.Render.Quality != "" {
		preset, err := planet.ParsePreset(c.Render.Quality)
		if err != nil {
			return fmt.Errorf("render.quality: %w", err)
		}
		planet.ApplyPreset(&c.Planet, preset)
		c.Derived.Preset = preset
		c.Derived.HasPreset = true
	}
	c.Planet.ScaleWithPlanetRadius()
	if err := c.Planet.Validate(); err != nil {
		return fmt.Errorf("planet: %w", err)
	}

	mode, err := pipeline.ParseLayerMode(c.Render.LayerMode)
	if err != nil {
		return fmt.Errorf("render.layer_mode: %w", err)
	}
	if mode == pipeline.LayerModeVisibility {
		c.Derived.Layers = pipeline.VisibilityMask()
		c.Derived.Layers.Visible[pipeline.NumLayers-1] = true
	} else {
		c.Derived.Layers = pipeline.DebugLevel(c.Render.DebugLevel)
	}

	model, err := orbit.ParseModel(c.Render.OrbitalModel)
	if err != nil {
		return fmt.Errorf("render.orbital_model: %w", err)
	}
	c.Derived.OrbitalModel = model

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Render.NoiseResolution <= 0 {
		return fmt.Errorf("render.noise_resolution %d must be positive", c.Render.NoiseResolution)
	}
	return nil
}

// StartPosition is where the camera spawns.
func (c *Config) StartPosition() [3]float32 {
	return [3]float32{0, 0, float32(c.Planet.PlanetRadius * c.Camera.StartDistanceFactor)}
}

// WriteYAML saves the current configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
