// Package telemetry collects frame timings and calendar snapshots, writes
// them as CSV and streams them to websocket clients.
package telemetry

import (
	"log/slog"
	"time"

	"sdf-planet/pipeline"
)

// CPU phase names for one frame.
const (
	PhaseAdvance = "advance"
	PhaseInput   = "input"
	PhasePhysics = "physics"
	PhaseRender  = "render"
	PhasePresent = "present"
)

var phases = []string{PhaseAdvance, PhaseInput, PhasePhysics, PhaseRender, PhasePresent}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
	GPU           map[pipeline.PassID]time.Duration
}

// PerfCollector tracks frame timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	currentGPU    map[pipeline.PassID]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		currentGPU:    make(map[pipeline.PassID]time.Duration),
		now:           time.Now,
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.currentGPU = make(map[pipeline.PassID]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts the next.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// RecordGPU stores the GPU time of one pass for the current frame.
func (p *PerfCollector) RecordGPU(pass pipeline.PassID, d time.Duration) {
	p.currentGPU[pass] += d
}

// EndFrame closes the frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
		GPU:           p.currentGPU,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// Full reports whether a whole window has been recorded since the last Reset.
func (p *PerfCollector) Full() bool {
	return p.sampleCount == p.windowSize
}

// Reset drops every sample.
func (p *PerfCollector) Reset() {
	p.writeIndex = 0
	p.sampleCount = 0
}

// PerfStats holds aggregated frame statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration
	FPS              float64

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
	GPUAvg   map[pipeline.PassID]time.Duration
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		GPUAvg:   make(map[pipeline.PassID]time.Duration),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	gpuSum := make(map[pipeline.PassID]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration
		if i == 0 || s.FrameDuration < stats.MinFrameDuration {
			stats.MinFrameDuration = s.FrameDuration
		}
		if s.FrameDuration > stats.MaxFrameDuration {
			stats.MaxFrameDuration = s.FrameDuration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
		for pass, d := range s.GPU {
			gpuSum[pass] += d
		}
	}

	n := time.Duration(p.sampleCount)
	stats.AvgFrameDuration = total / n
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / n
		if stats.AvgFrameDuration > 0 {
			stats.PhasePct[phase] = float64(stats.PhaseAvg[phase]) / float64(stats.AvgFrameDuration) * 100
		}
	}
	for pass, sum := range gpuSum {
		stats.GPUAvg[pass] = sum / n
	}
	if stats.AvgFrameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(stats.AvgFrameDuration)
	}
	return stats
}

// GPUTotal is the summed average GPU time of every pass.
func (s PerfStats) GPUTotal() time.Duration {
	var total time.Duration
	for _, d := range s.GPUAvg {
		total += d
	}
	return total
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("fps", s.FPS),
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	for _, pass := range pipeline.Passes() {
		if d, ok := s.GPUAvg[pass.ID]; ok {
			attrs = append(attrs, slog.Int64(pass.ID.String()+"_gpu_us", d.Microseconds()))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export.
type PerfStatsCSV struct {
	WindowEnd       int64   `csv:"window_end"`
	AvgFrameUS      int64   `csv:"avg_frame_us"`
	MinFrameUS      int64   `csv:"min_frame_us"`
	MaxFrameUS      int64   `csv:"max_frame_us"`
	FPS             float64 `csv:"fps"`
	AdvancePct      float64 `csv:"advance_pct"`
	InputPct        float64 `csv:"input_pct"`
	PhysicsPct      float64 `csv:"physics_pct"`
	RenderPct       float64 `csv:"render_pct"`
	PresentPct      float64 `csv:"present_pct"`
	GBufferGPUUS    int64   `csv:"gbuffer_gpu_us"`
	LightingGPUUS   int64   `csv:"lighting_gpu_us"`
	AtmosphereGPUUS int64   `csv:"atmosphere_gpu_us"`
	CloudsGPUUS     int64   `csv:"clouds_gpu_us"`
	CompositeGPUUS  int64   `csv:"composite_gpu_us"`
}

// ToCSV flattens the stats for the window ending at frame windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgFrameUS:      s.AvgFrameDuration.Microseconds(),
		MinFrameUS:      s.MinFrameDuration.Microseconds(),
		MaxFrameUS:      s.MaxFrameDuration.Microseconds(),
		FPS:             s.FPS,
		AdvancePct:      s.PhasePct[PhaseAdvance],
		InputPct:        s.PhasePct[PhaseInput],
		PhysicsPct:      s.PhasePct[PhasePhysics],
		RenderPct:       s.PhasePct[PhaseRender],
		PresentPct:      s.PhasePct[PhasePresent],
		GBufferGPUUS:    s.GPUAvg[pipeline.PassGBuffer].Microseconds(),
		LightingGPUUS:   s.GPUAvg[pipeline.PassLighting].Microseconds(),
		AtmosphereGPUUS: s.GPUAvg[pipeline.PassAtmosphere].Microseconds(),
		CloudsGPUUS:     s.GPUAvg[pipeline.PassClouds].Microseconds(),
		CompositeGPUUS:  s.GPUAvg[pipeline.PassComposite].Microseconds(),
	}
}
