package telemetry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/orbit"
)

// Snapshot is the per-frame state reported to clients and to frames.csv.
type Snapshot struct {
	Frame          int64   `json:"frame" csv:"frame"`
	Day            int     `json:"day" csv:"day"`
	Clock          string  `json:"clock" csv:"clock"`
	ElapsedSeconds float64 `json:"elapsed_seconds" csv:"elapsed_seconds"`
	YearFraction   float64 `json:"year_fraction" csv:"year_fraction"`
	CameraX        float32 `json:"camera_x" csv:"camera_x"`
	CameraY        float32 `json:"camera_y" csv:"camera_y"`
	CameraZ        float32 `json:"camera_z" csv:"camera_z"`
	Altitude       float32 `json:"altitude" csv:"altitude"`
	Gravity        bool    `json:"gravity" csv:"gravity"`
	Layers         string  `json:"layers" csv:"layers"`
	FPS            float64 `json:"fps" csv:"fps"`
	GPUMillis      float64 `json:"gpu_ms" csv:"gpu_ms"`
}

// NewSnapshot fills a snapshot from the frame's state. Negative altitudes
// report as zero, like the player height readout.
func NewSnapshot(frame int64, cal orbit.CalendarState, camera mgl32.Vec3, altitude float32, gravity bool, layers string, stats PerfStats) Snapshot {
	if altitude < 0 {
		altitude = 0
	}
	return Snapshot{
		Frame:          frame,
		Day:            cal.DayIndex + 1,
		Clock:          FormatClock(cal),
		ElapsedSeconds: cal.ElapsedSeconds,
		YearFraction:   cal.YearFraction,
		CameraX:        camera[0],
		CameraY:        camera[1],
		CameraZ:        camera[2],
		Altitude:       altitude,
		Gravity:        gravity,
		Layers:         layers,
		FPS:            stats.FPS,
		GPUMillis:      float64(stats.GPUTotal().Microseconds()) / 1000,
	}
}

// FormatClock renders hh:mm:ss.
func FormatClock(cal orbit.CalendarState) string {
	return fmt.Sprintf("%02d:%02d:%02d", cal.Hour, cal.Minute, cal.Second)
}

// FormatCalendar renders "Day N / 365  hh:mm:ss" with a 1-based day.
func FormatCalendar(cal orbit.CalendarState) string {
	return fmt.Sprintf("Day %d / %d  %s", cal.DayIndex+1, orbit.DaysPerYear, FormatClock(cal))
}
