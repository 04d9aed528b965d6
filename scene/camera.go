package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	planetio "sdf-planet/io"
	"sdf-planet/orbit"
	"sdf-planet/pipeline"
)

const (
	DefaultFOV         = 60
	DefaultSensitivity = 0.1
	MaxPitch           = 89
)

// WorldUp is the reference up when the camera is not standing on terrain.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Direction is a movement key.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

// Camera is a first-person camera. Yaw and pitch are measured in a frame
// whose Y axis is the reference up, so standing on a tilted patch of terrain
// keeps the horizon level. Angles are degrees.
type Camera struct {
	Position    mgl32.Vec3
	Velocity    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Roll        float32
	FOV         float32
	Speed       float32
	Sensitivity float32

	Front mgl32.Vec3
	Right mgl32.Vec3
	Up    mgl32.Vec3

	referenceUp mgl32.Vec3
}

func NewCamera(position mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position:    position,
		Yaw:         yaw,
		Pitch:       pitch,
		FOV:         DefaultFOV,
		Speed:       5,
		Sensitivity: DefaultSensitivity,
		referenceUp: WorldUp,
	}
	c.UpdateVectors()
	return c
}

// ReferenceUp is the up vector yaw and pitch are measured against.
func (c *Camera) ReferenceUp() mgl32.Vec3 { return c.referenceUp }

// SetReferenceUp changes the up vector. Near-zero input is ignored.
// UpdateVectors must be called afterwards.
func (c *Camera) SetReferenceUp(up mgl32.Vec3) {
	if up.Len() < 1e-6 {
		return
	}
	c.referenceUp = up.Normalize()
}

// UpdateVectors recomputes Front, Right and Up from the angles and the
// reference up.
func (c *Camera) UpdateVectors() {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))

	local := mgl64.Vec3{
		math.Cos(yaw) * math.Cos(pitch),
		math.Sin(pitch),
		math.Sin(yaw) * math.Cos(pitch),
	}
	align := orbit.AlignVectors(vec64(WorldUp), vec64(c.referenceUp))

	c.Front = vec32(align.Mul3x1(local)).Normalize()
	right := c.Front.Cross(c.referenceUp)
	if right.Len() < 1e-6 {
		right = vec32(align.Mul3x1(mgl64.Vec3{1, 0, 0}))
	}
	c.Right = right.Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()

	if c.Roll != 0 {
		q := mgl32.QuatRotate(mgl32.DegToRad(c.Roll), c.Front)
		c.Right = q.Rotate(c.Right).Normalize()
		c.Up = q.Rotate(c.Up).Normalize()
	}
}

// ProcessMouse turns the camera by a cursor offset in pixels. Positive dy
// looks up.
func (c *Camera) ProcessMouse(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch += dy * c.Sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, -MaxPitch, MaxPitch)
	c.UpdateVectors()
}

// Move translates along the camera basis by Speed·dt.
func (c *Camera) Move(dir Direction, dt float32) {
	step := c.Speed * dt
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Front.Mul(step))
	case Backward:
		c.Position = c.Position.Sub(c.Front.Mul(step))
	case Left:
		c.Position = c.Position.Sub(c.Right.Mul(step))
	case Right:
		c.Position = c.Position.Add(c.Right.Mul(step))
	case Up:
		c.Position = c.Position.Add(c.Up.Mul(step))
	case Down:
		c.Position = c.Position.Sub(c.Up.Mul(step))
	}
}

// Basis is the view basis the passes build rays from.
func (c *Camera) Basis() pipeline.Camera {
	return pipeline.Camera{
		Position: c.Position,
		Forward:  c.Front,
		Right:    c.Right,
		Up:       c.Up,
	}
}

// ToBookmark captures the pose.
func (c *Camera) ToBookmark() planetio.Bookmark {
	return planetio.Bookmark{
		Position: planetio.Vec3ToArray(c.Position),
		Yaw:      c.Yaw,
		Pitch:    c.Pitch,
		Roll:     c.Roll,
		FOV:      c.FOV,
	}
}

// FromBookmark restores a pose and stops the camera.
func (c *Camera) FromBookmark(b planetio.Bookmark) {
	c.Position = planetio.ArrayToVec3(b.Position)
	c.Yaw = b.Yaw
	c.Pitch = mgl32.Clamp(b.Pitch, -MaxPitch, MaxPitch)
	c.Roll = b.Roll
	if b.FOV > 0 {
		c.FOV = b.FOV
	}
	c.Velocity = mgl32.Vec3{}
	c.UpdateVectors()
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
