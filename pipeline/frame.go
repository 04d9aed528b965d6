package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/orbit"
	"sdf-planet/planet"
)

// Camera is the view basis the raymarcher builds primary rays from.
type Camera struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Right    mgl32.Vec3
	Up       mgl32.Vec3
}

// FrameContext is everything a pass needs for one frame. It is built fresh
// each frame, handed to every pass by pointer and dropped afterwards.
type FrameContext struct {
	Camera       Camera
	Params       planet.Parameters
	Calendar     orbit.CalendarState
	Orientation  orbit.Orientation
	SunDirection mgl32.Vec3
	Width        int
	Height       int
	Time         float32 // seconds since start, drives cloud animation
	Layers       LayerSelector
}

// Aspect is width/height, or 1 for a degenerate size.
func (fc *FrameContext) Aspect() float32 {
	if fc.Height <= 0 {
		return 1
	}
	return float32(fc.Width) / float32(fc.Height)
}
