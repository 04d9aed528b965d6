// Command planet opens a window and renders the SDF planet with a
// first-person camera, or runs the simulation headless.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/config"
	"sdf-planet/core"
	"sdf-planet/internal/opengl"
	planetio "sdf-planet/io"
	"sdf-planet/planet"
	"sdf-planet/renderer"
	"sdf-planet/scene"
	"sdf-planet/shaders"
	"sdf-planet/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window; surface queries use the CPU terrain")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Directory for perf.csv, frames.csv and the config snapshot")
	streamAddr := flag.String("stream-addr", "", "Serve the websocket telemetry stream on this address")
	shaderDir := flag.String("shader-dir", "", "Directory of GLSL overrides")
	quality := flag.String("quality", "", "Quality preset: low, medium or high")
	logJSON := flag.Bool("log-json", false, "Log as JSON instead of text")
	dumpConfig := flag.String("dump-config", "", "Write the effective config to this path and exit")

	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *streamAddr != "" {
		cfg.Telemetry.StreamAddr = *streamAddr
	}
	if *shaderDir != "" {
		cfg.Render.ShaderDir = *shaderDir
	}
	if *quality != "" {
		preset, err := planet.ParsePreset(*quality)
		if err != nil {
			slog.Error("invalid quality flag", "error", err)
			os.Exit(1)
		}
		planet.ApplyPreset(&cfg.Planet, preset)
		cfg.Render.Quality = preset.String()
		cfg.Derived.Preset, cfg.Derived.HasPreset = preset, true
	}

	if *dumpConfig != "" {
		if err := cfg.WriteYAML(*dumpConfig); err != nil {
			slog.Error("failed to write config", "error", err)
			os.Exit(1)
		}
		return
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	if *headless {
		err = a.runHeadless(*maxFrames)
	} else {
		err = a.runWindowed(*maxFrames)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		a.close()
		os.Exit(1)
	}
}

// app holds the session: engine, camera, physics and telemetry sinks.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	engine   *renderer.Engine
	camera   *scene.Camera
	physics  *Physics
	controls *Controls

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager
	stream *telemetry.Stream

	window   *core.Window
	captured bool
	frame    int64
	last     StepResult
	closed   bool
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	engine, err := renderer.NewEngine(cfg.Planet, renderer.Options{
		Model:           cfg.Derived.OrbitalModel,
		SunFromCalendar: cfg.Render.SunFromCalendar,
		Layers:          cfg.Derived.Layers,
		Height:          planet.NoiseHeight(cfg.Render.TerrainSeed),
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	live := engine.Staging().Live()
	cam := scene.NewCamera(planetio.ArrayToVec3(cfg.StartPosition()), cfg.Camera.StartYaw, cfg.Camera.StartPitch)
	cam.FOV = cfg.Camera.FOV
	cam.Sensitivity = cfg.Camera.Sensitivity

	a := &app{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		camera: cam,
		physics: &Physics{
			Gravity:          cfg.Camera.Gravity,
			Acceleration:     float32(cfg.Camera.GravityAcceleration),
			MinClearance:     cfg.Camera.MinGroundClearance,
			BaseSpeed:        cfg.Camera.BaseSpeed,
			FastMultiplier:   cfg.Camera.FastMultiplier,
			PlanetRadius:     live.PlanetRadius,
			AtmosphereRadius: live.AtmosphereRadius,
		},
		controls: NewControls(),
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.WindowFrames),
	}

	a.output, err = telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := a.output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Telemetry.StreamAddr != "" {
		a.stream = telemetry.NewStream(engine.Staging(), logger)
		if err := a.stream.Start(cfg.Telemetry.StreamAddr); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true

	if a.stream != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.stream.Close(ctx); err != nil {
			a.logger.Warn("closing telemetry stream", "error", err)
		}
		cancel()
	}
	if err := a.output.Close(); err != nil {
		a.logger.Warn("closing telemetry output", "error", err)
	}
	a.engine.Delete()
	if a.window != nil {
		a.window.Destroy()
	}
}

func (a *app) runWindowed(maxFrames int) error {
	wc := core.DefaultWindowConfig()
	wc.Width, wc.Height = a.cfg.Window.Width, a.cfg.Window.Height
	wc.Title = a.cfg.Window.Title
	wc.VSync = a.cfg.Window.VSync
	window, err := core.NewWindow(wc)
	if err != nil {
		return err
	}
	a.window = window

	if _, err := opengl.Init(a.logger); err != nil {
		return err
	}
	src, err := shaders.Load(a.cfg.Render.ShaderDir)
	if err != nil {
		return err
	}
	if err := a.engine.InitGL(src, opengl.Options{
		ViewData:        a.cfg.Render.ViewData,
		NoiseResolution: a.cfg.Render.NoiseResolution,
		NoiseSeed:       a.cfg.Render.NoiseSeed,
		Timings:         a.cfg.Render.GPUTimings,
		Logger:          a.logger,
	}); err != nil {
		return err
	}

	a.setCaptured(true)
	a.logger.Info("controls",
		"move", "WASD (Shift = fast)",
		"look", "mouse",
		"layers", "1-9",
		"gravity", "G",
		"cursor", "Space",
		"bookmark", "F5 save / F9 load",
		"params", "C commit / R reset / P next preset",
		"clouds", "N reseed noise")

	timer := core.NewDeltaTimer()
	for !window.ShouldClose() {
		a.perf.StartFrame()

		a.perf.StartPhase(telemetry.PhaseAdvance)
		dt := timer.Delta()
		a.engine.Advance(dt)
		a.applyRequests()

		a.perf.StartPhase(telemetry.PhaseInput)
		window.PollEvents()
		act := a.controls.Poll(window, a.captured)
		if act.Quit {
			window.SetShouldClose(true)
			break
		}
		a.handleActions(act)
		if a.captured {
			a.camera.ProcessMouse(act.MouseDX, act.MouseDY)
		}

		a.perf.StartPhase(telemetry.PhasePhysics)
		a.last = a.physics.Step(a.camera, a.engine, a.engine.SpinDelta(), act.Move, float32(dt))
		if err := a.engine.Err(); err != nil {
			return fmt.Errorf("surface query: %w", err)
		}

		a.perf.StartPhase(telemetry.PhaseRender)
		w, h := window.GetFramebufferSize()
		if err := a.engine.Render(a.engine.Frame(a.camera.Basis(), w, h)); err != nil {
			return err
		}
		for _, t := range a.engine.Timings() {
			a.perf.RecordGPU(t.Pass, t.GPU)
		}

		a.perf.StartPhase(telemetry.PhasePresent)
		window.SwapBuffers()
		a.perf.EndFrame()

		if err := a.report(); err != nil {
			return err
		}
		if maxFrames > 0 && a.frame >= int64(maxFrames) {
			break
		}
	}
	return nil
}

// runHeadless steps time, physics and telemetry without a GL context. The
// camera falls under gravity when enabled; otherwise it holds position.
func (a *app) runHeadless(maxFrames int) error {
	a.logger.Info("starting headless run",
		"max_frames", maxFrames,
		"gravity", a.physics.Gravity)

	const dt = 1.0 / 60
	for maxFrames == 0 || a.frame < int64(maxFrames) {
		a.perf.StartFrame()

		a.perf.StartPhase(telemetry.PhaseAdvance)
		a.engine.Advance(dt)
		a.applyRequests()

		a.perf.StartPhase(telemetry.PhasePhysics)
		a.last = a.physics.Step(a.camera, a.engine, a.engine.SpinDelta(), MoveInput{}, dt)
		a.perf.EndFrame()

		if err := a.report(); err != nil {
			return err
		}
	}
	a.logger.Info("max frames reached", "frame", a.frame,
		"calendar", telemetry.FormatCalendar(a.engine.Calendar()),
		"altitude", a.last.Altitude)
	return nil
}

// applyRequests runs the queued stream commands between frames.
func (a *app) applyRequests() {
	if a.stream == nil {
		return
	}
	for _, r := range a.stream.Drain() {
		switch r.Type {
		case telemetry.MsgCommit:
			a.commit()
		case telemetry.MsgReset:
			a.engine.Reset()
		case telemetry.MsgPreset:
			if err := a.engine.ApplyPreset(r.Preset); err == nil {
				a.afterCommit()
			}
		case telemetry.MsgElapsed:
			a.engine.SetElapsed(r.Seconds)
		}
	}
}

func (a *app) commit() {
	if err := a.engine.Commit(); err != nil {
		return
	}
	a.afterCommit()
}

// afterCommit picks up new radii and re-grounds the camera on the new
// terrain.
func (a *app) afterCommit() {
	live := a.engine.Staging().Live()
	a.physics.PlanetRadius = live.PlanetRadius
	a.physics.AtmosphereRadius = live.AtmosphereRadius
	a.last = a.physics.Clamp(a.camera, a.engine)
	if a.stream != nil {
		a.stream.BroadcastParams()
	}
}

func (a *app) handleActions(act Actions) {
	if act.ToggleCursor {
		a.setCaptured(!a.captured)
	}
	if act.ToggleGravity {
		a.physics.Gravity = !a.physics.Gravity
		if !a.physics.Gravity {
			a.camera.Velocity = mgl32.Vec3{}
		}
		a.logger.Info("gravity toggled", "enabled", a.physics.Gravity)
	}
	if act.Layer > 0 {
		layers := a.engine.Layers()
		if layers.Select(act.Layer) {
			a.engine.SetLayers(layers)
			a.logger.Info("layers", "selection", layers.String())
		}
	}
	if act.SaveBookmark {
		path := a.cfg.Camera.BookmarkPath
		if err := planetio.SaveBookmark(path, a.camera.ToBookmark()); err != nil {
			a.logger.Warn("failed to save camera bookmark", "error", err)
		} else {
			a.logger.Info("camera bookmark saved", "path", path)
		}
	}
	if act.LoadBookmark {
		path := a.cfg.Camera.BookmarkPath
		if b, ok := planetio.LoadBookmark(path); ok {
			a.camera.FromBookmark(b)
			a.logger.Info("camera bookmark loaded", "path", path)
		} else {
			a.logger.Warn("camera bookmark missing or invalid", "path", path)
		}
	}
	if act.Commit {
		a.commit()
	}
	if act.Reset {
		a.engine.Reset()
	}
	if act.CyclePreset {
		next := planet.PresetLow
		if a.cfg.Derived.HasPreset {
			next = (a.cfg.Derived.Preset + 1) % (planet.PresetHigh + 1)
		}
		if err := a.engine.ApplyPreset(next); err == nil {
			a.cfg.Derived.Preset, a.cfg.Derived.HasPreset = next, true
			a.afterCommit()
		}
	}
	if act.ReseedNoise {
		if _, err := a.engine.ReseedNoise(); err != nil {
			a.logger.Warn("cannot reseed cloud noise", "error", err)
		}
	}
}

func (a *app) setCaptured(captured bool) {
	a.captured = captured
	if a.window != nil {
		a.window.SetCursorCaptured(captured)
	}
}

// report updates the title and writes telemetry once per stats window.
func (a *app) report() error {
	a.frame++
	cal := a.engine.Calendar()
	if a.window != nil {
		a.window.SetTitle(fmt.Sprintf("%s | %s", a.cfg.Window.Title, telemetry.FormatCalendar(cal)))
	}
	if !a.perf.Full() {
		return nil
	}

	stats := a.perf.Stats()
	a.perf.Reset()
	snap := telemetry.NewSnapshot(a.frame, cal, a.camera.Position, a.last.Altitude,
		a.physics.Gravity, a.engine.Layers().String(), stats)

	a.logger.Debug("perf", "stats", stats)
	if err := a.output.WritePerf(stats, a.frame); err != nil {
		return fmt.Errorf("write perf: %w", err)
	}
	if err := a.output.WriteSnapshot(snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if a.stream != nil {
		a.stream.Broadcast(snap)
	}
	return nil
}
