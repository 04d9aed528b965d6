package opengl

import (
	"fmt"
	"log/slog"
	"time"

	gl "github.com/go-gl/gl/v4.3-core/gl"

	"sdf-planet/pipeline"
	"sdf-planet/shaders"
)

// timerSets is how many frames of timer queries are in flight.
const timerSets = 2

// PassTiming is the GPU time one pass took in the last frame.
type PassTiming struct {
	Pass pipeline.PassID
	GPU  time.Duration
}

// Options configures NewPlanetRenderer.
type Options struct {
	ViewData        bool // allocate and sample the view-data attachment
	NoiseResolution int
	NoiseSeed       int32
	Timings         bool // measure per-pass GPU time with timer queries
	Logger          *slog.Logger
}

// PlanetRenderer runs the five fullscreen passes. It owns the programs, the
// quad, the render targets and the cloud noise volumes.
type PlanetRenderer struct {
	passes   []pipeline.Pass
	programs map[pipeline.PassID]*Program
	quad     *Quad
	targets  *pipeline.TargetManager
	noise    *CloudNoise
	surface  *SurfaceQuery
	viewData bool
	logger   *slog.Logger

	timers  *pipeline.TimerRing
	timings []PassTiming
}

// NewPlanetRenderer compiles every program. Any compile or link error is
// returned with the full log and is fatal for the caller.
func NewPlanetRenderer(src shaders.Sources, opts Options) (*PlanetRenderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	passes := pipeline.Passes()
	if err := pipeline.ValidateTopology(passes); err != nil {
		return nil, err
	}

	r := &PlanetRenderer{
		passes:   passes,
		programs: make(map[pipeline.PassID]*Program, len(passes)),
		viewData: opts.ViewData,
		logger:   logger,
	}

	frags := map[pipeline.PassID]string{
		pipeline.PassGBuffer:    src.GBuffer,
		pipeline.PassLighting:   src.Lighting,
		pipeline.PassAtmosphere: src.Atmosphere,
		pipeline.PassClouds:     src.Clouds,
		pipeline.PassComposite:  src.Composite,
	}
	for _, p := range passes {
		prog, err := NewProgram(p.Name(), src.Vertex, frags[p.ID])
		if err != nil {
			r.Delete()
			return nil, err
		}
		r.programs[p.ID] = prog
	}

	noiseProg, err := NewComputeProgram("cloud_noise", src.CloudNoise)
	if err != nil {
		r.Delete()
		return nil, err
	}
	r.noise = NewCloudNoise(noiseProg, opts.NoiseResolution, opts.NoiseSeed, logger)

	surfaceProg, err := NewComputeProgram("surface_info", src.SurfaceInfo)
	if err != nil {
		r.Delete()
		return nil, err
	}
	r.surface = NewSurfaceQuery(surfaceProg)

	r.quad = NewQuad()
	r.targets = pipeline.NewTargetManager(Allocator{}, opts.ViewData, logger)

	if opts.Timings {
		sets := make([][]uint32, timerSets)
		for i := range sets {
			sets[i] = make([]uint32, len(passes))
			gl.GenQueries(int32(len(passes)), &sets[i][0])
		}
		r.timers = pipeline.NewTimerRing(sets...)
	}

	if err := CheckError("renderer init"); err != nil {
		r.Delete()
		return nil, err
	}
	logger.Info("planet renderer ready", "passes", len(passes), "view_data", opts.ViewData)
	return r, nil
}

// Surface returns the GPU surface query.
func (r *PlanetRenderer) Surface() *SurfaceQuery { return r.surface }

// ReseedNoise regenerates the cloud volumes with a new seed on the next
// frame.
func (r *PlanetRenderer) ReseedNoise(seed int32) {
	r.noise.Reseed(seed)
	r.logger.Info("cloud noise reseeded", "seed", seed)
}

// NoiseSeed is the current cloud noise seed.
func (r *PlanetRenderer) NoiseSeed() int32 { return r.noise.Seed() }

// Timings returns per-pass GPU times of the most recent frame whose results
// were ready, nil when disabled.
func (r *PlanetRenderer) Timings() []PassTiming { return r.timings }

// Render draws one frame. Targets are sized first; a pass either completes
// or the frame is abandoned with an error.
func (r *PlanetRenderer) Render(fc *pipeline.FrameContext) error {
	if err := r.noise.Ensure(); err != nil {
		return err
	}
	if err := r.targets.Ensure(fc.Width, fc.Height); err != nil {
		return err
	}

	queries := r.timers.Issue()
	for i, p := range r.passes {
		if queries != nil {
			gl.BeginQuery(gl.TIME_ELAPSED, queries[i])
		}
		err := r.runPass(p, fc)
		if queries != nil {
			gl.EndQuery(gl.TIME_ELAPSED)
		}
		if err != nil {
			return err
		}
	}

	gl.BindVertexArray(0)
	if queries != nil {
		r.timers.Advance()
		r.collectTimings()
	}
	return nil
}

func (r *PlanetRenderer) runPass(p pipeline.Pass, fc *pipeline.FrameContext) error {
	fb, ok := r.targets.Framebuffer(p.Target)
	if !ok {
		return fmt.Errorf("pass %s: target %s not allocated", p.Name(), p.Target)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.Viewport(0, 0, int32(fc.Width), int32(fc.Height))

	if p.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	gl.ClearColor(0, 0, 0, 1)
	mask := uint32(gl.COLOR_BUFFER_BIT)
	if p.ClearDepth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)

	prog := r.programs[p.ID]
	prog.Use()
	pipeline.BindFrameUniforms(prog, fc)

	samples := p.Samples(r.viewData)
	for _, u := range samples {
		if err := r.bindUnit(u); err != nil {
			return fmt.Errorf("pass %s: %w", p.Name(), err)
		}
	}
	pipeline.BindSamplers(prog, samples)
	if p.ID == pipeline.PassComposite {
		pipeline.BindLayerSelector(prog, fc.Layers)
	}

	r.quad.Draw()
	return CheckError("pass " + p.Name())
}

func (r *PlanetRenderer) bindUnit(u pipeline.TextureUnit) error {
	target := uint32(gl.TEXTURE_2D)
	tex, ok := r.targets.Texture(u)
	if !ok {
		tex, ok = r.noise.Texture(u)
		target = gl.TEXTURE_3D
	}
	if !ok {
		return fmt.Errorf("no texture bound to %s", u.Sampler())
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(u))
	gl.BindTexture(target, tex)
	return nil
}

// collectTimings reads the set issued timerSets-1 frames ago if the GPU has
// finished it. Otherwise the previous timings are kept.
func (r *PlanetRenderer) collectTimings() {
	queries, ok := r.timers.Pending()
	if !ok {
		return
	}
	var available int32
	gl.GetQueryObjectiv(queries[len(queries)-1], gl.QUERY_RESULT_AVAILABLE, &available)
	if available == gl.FALSE {
		return
	}

	r.timings = r.timings[:0]
	for i, q := range queries {
		var ns uint64
		gl.GetQueryObjectui64v(q, gl.QUERY_RESULT, &ns)
		r.timings = append(r.timings, PassTiming{Pass: r.passes[i].ID, GPU: time.Duration(ns)})
	}
}

// Delete frees every GPU object the renderer owns.
func (r *PlanetRenderer) Delete() {
	for id, prog := range r.programs {
		prog.Delete()
		delete(r.programs, id)
	}
	if r.noise != nil {
		r.noise.Delete()
	}
	if r.surface != nil {
		r.surface.Delete()
	}
	if r.targets != nil {
		r.targets.Release()
	}
	if r.quad != nil {
		r.quad.Delete()
	}
	for _, set := range r.timers.Sets() {
		gl.DeleteQueries(int32(len(set)), &set[0])
	}
	r.timers = nil
}
