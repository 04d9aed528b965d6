// Package renderer drives one planet frame: it advances simulated time,
// derives the planet's orientation and sun direction, builds the frame
// context and hands it to the GL passes.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/internal/opengl"
	"sdf-planet/orbit"
	"sdf-planet/pipeline"
	"sdf-planet/planet"
	"sdf-planet/shaders"
)

// ErrNoGPU is returned by Render when InitGL has not been called.
var ErrNoGPU = errors.New("renderer: GL backend not initialised")

// Options configures NewEngine.
type Options struct {
	Model orbit.Model
	// SunFromCalendar derives the sun direction from the calendar each frame.
	// When false the sun_direction parameter is used as is.
	SunFromCalendar bool
	StartElapsed    float64
	Layers          pipeline.LayerSelector
	// Height is the terrain used by the CPU surface query when no GPU query
	// is available. Nil means a smooth sphere.
	Height planet.HeightFunc
	Logger *slog.Logger
}

// gpuSurface is the GPU surface query as the engine uses it.
type gpuSurface interface {
	planet.Querier
	SetFrame(p planet.Parameters, o orbit.Orientation)
	Err() error
}

// Engine owns all per-session state. It is not safe for concurrent use,
// except for Staging which may be edited from other goroutines.
type Engine struct {
	calendar *orbit.Calendar
	staging  *planet.Staging
	model    orbit.Model
	sunCal   bool
	layers   pipeline.LayerSelector

	state      orbit.CalendarState
	orient     orbit.Orientation
	prevOrient orbit.Orientation
	clock      float64

	gl        *opengl.PlanetRenderer
	surface   gpuSurface
	reference *planet.ReferenceQuerier
	logger    *slog.Logger
}

// NewEngine validates p and sets up a headless engine. Call InitGL once a
// GL context is current to enable rendering and the GPU surface query.
func NewEngine(p planet.Parameters, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p.ScaleWithPlanetRadius()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		calendar: orbit.NewCalendar(opts.StartElapsed),
		staging:  planet.NewStaging(p, logger),
		model:    opts.Model,
		sunCal:   opts.SunFromCalendar,
		layers:   opts.Layers,
		logger:   logger,
	}
	if e.layers == (pipeline.LayerSelector{}) {
		e.layers = pipeline.DebugLevel(pipeline.NumLayers)
	}

	e.state = e.calendar.State()
	e.orient = orbit.OrientationAt(e.model, e.state, p.TiltDegrees)
	e.prevOrient = e.orient

	e.reference = planet.NewReferenceQuerier(p)
	e.reference.Orientation = e.orient
	e.reference.Height = opts.Height

	logger.Info("engine created",
		"model", e.model.String(),
		"planet_radius", p.PlanetRadius,
		"day", e.state.DayIndex)
	return e, nil
}

// InitGL compiles the passes. It must run on the thread that owns the GL
// context.
func (e *Engine) InitGL(src shaders.Sources, opts opengl.Options) error {
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	r, err := opengl.NewPlanetRenderer(src, opts)
	if err != nil {
		return fmt.Errorf("init GL renderer: %w", err)
	}
	e.gl = r
	e.surface = r.Surface()
	return nil
}

// Advance moves simulated time by dt wall-clock seconds scaled by the live
// time_speed and recomputes the orientation.
func (e *Engine) Advance(dt float64) orbit.CalendarState {
	live := e.staging.Live()
	if dt > 0 {
		e.clock += dt
	}
	e.state = e.calendar.Advance(dt, live.TimeSpeed)
	e.prevOrient = e.orient
	e.orient = orbit.OrientationAt(e.model, e.state, live.TiltDegrees)
	return e.state
}

// Frame builds the context every pass of this frame reads.
func (e *Engine) Frame(cam pipeline.Camera, width, height int) *pipeline.FrameContext {
	live := e.staging.Live()
	return &pipeline.FrameContext{
		Camera:       cam,
		Params:       live,
		Calendar:     e.state,
		Orientation:  e.orient,
		SunDirection: e.sunDirection(live),
		Width:        width,
		Height:       height,
		Time:         float32(e.clock),
		Layers:       e.layers,
	}
}

func (e *Engine) sunDirection(p planet.Parameters) mgl32.Vec3 {
	if e.sunCal {
		return orbit.SunDirectionAt(e.state, p.TiltDegrees)
	}
	return p.SunDirection
}

// Render runs the passes for fc.
func (e *Engine) Render(fc *pipeline.FrameContext) error {
	if e.gl == nil {
		return ErrNoGPU
	}
	return e.gl.Render(fc)
}

// QuerySurface evaluates the terrain under worldPos with the live
// parameters and the current orientation. The GPU query is used when GL is
// up; otherwise the CPU reference. Once the GPU query has failed it reports
// ok=false and Err returns the failure.
func (e *Engine) QuerySurface(worldPos mgl32.Vec3, minAltitudeOffset float32) (planet.SurfaceInfo, bool) {
	live := e.staging.Live()
	if e.surface != nil {
		if e.surface.Err() != nil {
			return planet.SurfaceInfo{}, false
		}
		e.surface.SetFrame(live, e.orient)
		info, ok := e.surface.QuerySurface(worldPos, minAltitudeOffset)
		if !ok || e.surface.Err() != nil {
			return planet.SurfaceInfo{}, false
		}
		return info, true
	}
	e.reference.Params = live
	e.reference.Orientation = e.orient
	return e.reference.QuerySurface(worldPos, minAltitudeOffset)
}

// Err returns the first GPU query error, if any. Callers treat it as fatal.
func (e *Engine) Err() error {
	if e.surface == nil {
		return nil
	}
	return e.surface.Err()
}

// Staging gives access to the parameter edit buffer.
func (e *Engine) Staging() *planet.Staging { return e.staging }

// Commit makes staged edits live. Only call between frames.
func (e *Engine) Commit() error {
	prev := e.staging.Live()
	next, err := e.staging.Commit()
	if err != nil {
		e.logger.Warn("parameter commit rejected", "err", err)
		return err
	}
	if next.TiltDegrees != prev.TiltDegrees {
		e.orient = orbit.OrientationAt(e.model, e.state, next.TiltDegrees)
		e.prevOrient = e.orient
	}
	return nil
}

// Reset discards staged edits.
func (e *Engine) Reset() { e.staging.Reset() }

// ApplyPreset stages a quality preset and commits it.
func (e *Engine) ApplyPreset(preset planet.Preset) error {
	applied := false
	e.staging.Stage(func(p *planet.Parameters) {
		applied = planet.ApplyPreset(p, preset)
	})
	if !applied {
		return fmt.Errorf("unknown preset %v", preset)
	}
	e.logger.Info("preset applied", "preset", preset.String())
	return e.Commit()
}

// Calendar returns the current calendar state.
func (e *Engine) Calendar() orbit.CalendarState { return e.state }

// SetElapsed jumps simulated time and recomputes the orientation without
// producing a spin delta.
func (e *Engine) SetElapsed(seconds float64) {
	e.calendar.SetElapsed(seconds)
	e.state = e.calendar.State()
	e.orient = orbit.OrientationAt(e.model, e.state, e.staging.Live().TiltDegrees)
	e.prevOrient = e.orient
}

// Orientation is the planet frame for the current frame.
func (e *Engine) Orientation() orbit.Orientation { return e.orient }

// SpinDelta is the rotation the planet made during the last Advance.
func (e *Engine) SpinDelta() mgl32.Mat3 {
	return orbit.SpinDelta(e.prevOrient, e.orient)
}

// Model is the orbital model in use.
func (e *Engine) Model() orbit.Model { return e.model }

// Layers returns the current layer selection.
func (e *Engine) Layers() pipeline.LayerSelector { return e.layers }

// SetLayers replaces the layer selection for subsequent frames.
func (e *Engine) SetLayers(l pipeline.LayerSelector) { e.layers = l }

// Timings returns per-pass GPU times for the last frame, nil when disabled
// or headless.
func (e *Engine) Timings() []opengl.PassTiming {
	if e.gl == nil {
		return nil
	}
	return e.gl.Timings()
}

// ReseedNoise steps the cloud noise seed by one and returns the new seed.
// Without GL it returns ErrNoGPU.
func (e *Engine) ReseedNoise() (int32, error) {
	if e.gl == nil {
		return 0, ErrNoGPU
	}
	seed := e.gl.NoiseSeed() + 1
	e.gl.ReseedNoise(seed)
	return seed, nil
}

// Delete releases every GL resource.
func (e *Engine) Delete() {
	if e.gl != nil {
		e.gl.Delete()
		e.gl = nil
		e.surface = nil
	}
}
