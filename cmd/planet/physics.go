package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/planet"
	"sdf-planet/scene"
)

const (
	minSpeedFactor = 0.15
	maxSpeedFactor = 4.0
)

// MoveInput is the movement keys held this frame.
type MoveInput struct {
	Forward, Backward, Left, Right bool
	Fast                           bool
}

func (m MoveInput) any() bool {
	return m.Forward || m.Backward || m.Left || m.Right
}

// Physics moves the camera over the planet. With gravity on and the camera
// inside the atmosphere it walks on the tangent plane, falls toward the
// surface and is carried along by the planet's spin.
type Physics struct {
	Gravity          bool
	Acceleration     float32
	MinClearance     float32
	BaseSpeed        float64
	FastMultiplier   float64
	PlanetRadius     float64
	AtmosphereRadius float64
}

// StepResult reports the camera's relation to the ground after a step.
type StepResult struct {
	Altitude     float32 // never negative
	InAtmosphere bool
	Grounded     bool
	Surface      planet.SurfaceInfo
	HasSurface   bool
}

// AdaptiveSpeed scales base by the camera's distance to the planet centre:
// slow near the surface, fast far away.
func AdaptiveSpeed(pos mgl32.Vec3, base, radius float64) float64 {
	if radius <= 0 {
		return base
	}
	ratio := float64(pos.Len()) / radius
	factor := math.Max(minSpeedFactor, math.Min(maxSpeedFactor, minSpeedFactor+ratio*(1-minSpeedFactor)))
	return base * factor
}

// ProjectToPlane removes the component of v along the unit normal n.
func ProjectToPlane(v, n mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// TangentBasis returns forward and right vectors lying in the plane
// orthogonal to normal. When the camera looks straight along the normal the
// right vector supplies the forward direction instead.
func TangentBasis(front, right, normal mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	fwd := ProjectToPlane(front, normal)
	if fwd.Len() < 1e-5 {
		fwd = ProjectToPlane(right, normal)
	}
	fwd = fwd.Normalize()
	return fwd, fwd.Cross(normal).Normalize()
}

func (ph *Physics) inAtmosphere(pos mgl32.Vec3) bool {
	return float64(pos.Len()) <= ph.AtmosphereRadius
}

// Step advances the camera by dt. spin is the planet's rotation over the
// same interval.
func (ph *Physics) Step(cam *scene.Camera, q planet.Querier, spin mgl32.Mat3, in MoveInput, dt float32) StepResult {
	info, ok := q.QuerySurface(cam.Position, ph.MinClearance)
	inAtm := ph.inAtmosphere(cam.Position)
	walking := ph.Gravity && inAtm

	if walking {
		cam.Position = spin.Mul3x1(cam.Position)
		cam.Velocity = spin.Mul3x1(cam.Velocity)
		info, ok = q.QuerySurface(cam.Position, ph.MinClearance)
	}
	ph.orient(cam, info, ok && walking)

	speed := AdaptiveSpeed(cam.Position, ph.BaseSpeed, ph.PlanetRadius)
	if in.Fast {
		speed *= ph.FastMultiplier
	}
	cam.Speed = float32(speed)

	if walking && ok {
		ph.walk(cam, info.Normal, in, dt)
	} else {
		ph.fly(cam, in, dt)
	}

	if walking && ok {
		cam.Velocity = cam.Velocity.Add(info.Normal.Mul(-ph.Acceleration * dt))
		cam.Position = cam.Position.Add(cam.Velocity.Mul(dt))
	} else {
		cam.Velocity = mgl32.Vec3{}
	}

	res := ph.Clamp(cam, q)
	walking = ph.Gravity && res.InAtmosphere
	ph.orient(cam, res.Surface, res.HasSurface && walking)
	return res
}

// Clamp lifts the camera back above the minimum clearance. With gravity on
// the radial part of the velocity is removed so the camera lands.
func (ph *Physics) Clamp(cam *scene.Camera, q planet.Querier) StepResult {
	info, ok := q.QuerySurface(cam.Position, ph.MinClearance)
	res := StepResult{Surface: info, HasSurface: ok}
	if ok && info.Altitude < ph.MinClearance {
		cam.Position = info.GroundPosition()
		res.Grounded = true
		if ph.Gravity {
			radial := cam.Velocity.Dot(info.Normal)
			cam.Velocity = cam.Velocity.Sub(info.Normal.Mul(radial))
		}
	}
	if ok {
		res.Altitude = float32(math.Max(float64(info.Altitude), 0))
	}
	res.InAtmosphere = ph.inAtmosphere(cam.Position)
	return res
}

func (ph *Physics) orient(cam *scene.Camera, info planet.SurfaceInfo, onSurface bool) {
	if onSurface {
		cam.SetReferenceUp(info.Normal)
	} else {
		cam.SetReferenceUp(scene.WorldUp)
	}
	cam.UpdateVectors()
}

func (ph *Physics) walk(cam *scene.Camera, normal mgl32.Vec3, in MoveInput, dt float32) {
	if !in.any() {
		return
	}
	fwd, right := TangentBasis(cam.Front, cam.Right, normal)

	var dir mgl32.Vec3
	if in.Forward {
		dir = dir.Add(fwd)
	}
	if in.Backward {
		dir = dir.Sub(fwd)
	}
	if in.Left {
		dir = dir.Sub(right)
	}
	if in.Right {
		dir = dir.Add(right)
	}
	if dir.Len() > 1e-6 {
		cam.Position = cam.Position.Add(dir.Normalize().Mul(cam.Speed * dt))
	}
}

func (ph *Physics) fly(cam *scene.Camera, in MoveInput, dt float32) {
	if in.Forward {
		cam.Move(scene.Forward, dt)
	}
	if in.Backward {
		cam.Move(scene.Backward, dt)
	}
	if in.Left {
		cam.Move(scene.Left, dt)
	}
	if in.Right {
		cam.Move(scene.Right, dt)
	}
}
