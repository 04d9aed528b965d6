package telemetry

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/config"
	"sdf-planet/orbit"
	"sdf-planet/pipeline"
)

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(4)
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	pc.now = clock.now

	// Every clock read advances 1ms: each frame spans 3ms with 1ms per phase.
	for i := 0; i < 3; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseAdvance)
		pc.StartPhase(PhaseRender)
		pc.RecordGPU(pipeline.PassGBuffer, 2*time.Millisecond)
		pc.RecordGPU(pipeline.PassClouds, 500*time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration != 3*time.Millisecond {
		t.Errorf("expected 3ms frames, got %v", stats.AvgFrameDuration)
	}
	if stats.PhaseAvg[PhaseAdvance] != time.Millisecond || stats.PhaseAvg[PhaseRender] != time.Millisecond {
		t.Errorf("unexpected phase averages %v", stats.PhaseAvg)
	}
	if stats.GPUAvg[pipeline.PassGBuffer] != 2*time.Millisecond {
		t.Errorf("gbuffer gpu: got %v", stats.GPUAvg[pipeline.PassGBuffer])
	}
	if stats.GPUTotal() != 2500*time.Microsecond {
		t.Errorf("gpu total: got %v", stats.GPUTotal())
	}
	if int(stats.FPS) != 333 {
		t.Errorf("expected ~333 fps, got %v", stats.FPS)
	}
	if pc.Full() {
		t.Error("window of 4 should not be full after 3 frames")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(2)
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc.now = clock.now

	for _, step := range []time.Duration{10, 10, 1, 1} {
		clock.step = step * time.Millisecond
		pc.StartFrame()
		pc.EndFrame()
	}
	stats := pc.Stats()
	if stats.MaxFrameDuration != time.Millisecond {
		t.Errorf("old samples should have rolled out, max %v", stats.MaxFrameDuration)
	}
	if !pc.Full() {
		t.Error("expected a full window")
	}
	pc.Reset()
	if pc.Stats().AvgFrameDuration != 0 {
		t.Error("reset left samples")
	}
}

func TestEmptyStats(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.FPS != 0 || stats.PhaseAvg == nil || stats.GPUAvg == nil {
		t.Errorf("unexpected empty stats %+v", stats)
	}
}

func TestSnapshotAndCalendarFormat(t *testing.T) {
	cal := orbit.StateFromElapsed(11*orbit.SecondsPerDay + 8*3600 + 13*60 + 5)
	if got := FormatCalendar(cal); got != "Day 12 / 365  08:13:05" {
		t.Errorf("unexpected calendar %q", got)
	}

	s := NewSnapshot(42, cal, mgl32.Vec3{1, 2, 3}, -4, true, "level 9 (final)", PerfStats{FPS: 60})
	if s.Altitude != 0 {
		t.Errorf("negative altitude should report 0, got %v", s.Altitude)
	}
	if s.Day != 12 || s.Clock != "08:13:05" || s.CameraZ != 3 || !s.Gravity || s.FPS != 60 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	stats := PerfStats{
		AvgFrameDuration: 4 * time.Millisecond,
		FPS:              250,
		GPUAvg:           map[pipeline.PassID]time.Duration{pipeline.PassClouds: 1500 * time.Microsecond},
	}
	for i := int64(1); i <= 3; i++ {
		if err := om.WritePerf(stats, i*120); err != nil {
			t.Fatal(err)
		}
		if err := om.WriteSnapshot(Snapshot{Frame: i, Clock: "00:00:00"}); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, filepath.Join(dir, "perf.csv"))
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	col := indexOf(rows[0], "clouds_gpu_us")
	if col < 0 || rows[1][col] != "1500" {
		t.Errorf("clouds_gpu_us column wrong: header %v row %v", rows[0], rows[1])
	}
	if frames := readCSV(t, filepath.Join(dir, "frames.csv")); len(frames) != 4 {
		t.Errorf("expected header + 3 frames, got %d", len(frames))
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func indexOf(row []string, name string) int {
	for i, v := range row {
		if v == name {
			return i
		}
	}
	return -1
}
