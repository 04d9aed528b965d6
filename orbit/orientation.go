package orbit

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Model selects how the planet frame is derived from the calendar.
type Model int

const (
	// ModelTiltSpin tilts the planet about world X and spins it about its
	// own (tilted) Y axis once per simulated day.
	ModelTiltSpin Model = iota
	// ModelTiltOnly keeps the planet fixed apart from the axial tilt; the
	// day/night cycle then comes from the sun direction alone.
	ModelTiltOnly
)

func (m Model) String() string {
	switch m {
	case ModelTiltOnly:
		return "tilt"
	default:
		return "tilt_spin"
	}
}

// ParseModel accepts "tilt" or "tilt_spin" (case-insensitive).
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tilt_spin", "tilt-spin", "spin":
		return ModelTiltSpin, nil
	case "tilt", "tilt_only", "tilt-only":
		return ModelTiltOnly, nil
	}
	return ModelTiltSpin, fmt.Errorf("unknown orbital model %q", s)
}

// Orientation is the planet's rotation relative to world space for one frame.
// WorldToPlanet is always the transpose of PlanetToWorld.
type Orientation struct {
	PlanetToWorld mgl32.Mat3
	WorldToPlanet mgl32.Mat3
	SpinAngle     float64 // radians, zero for ModelTiltOnly
}

// IdentityOrientation is the untilted, unspun frame.
func IdentityOrientation() Orientation {
	return Orientation{
		PlanetToWorld: mgl32.Ident3(),
		WorldToPlanet: mgl32.Ident3(),
	}
}

// TiltMatrix rotates about world X by tiltDegrees.
func TiltMatrix(tiltDegrees float64) mgl64.Mat3 {
	return mgl64.Rotate3DX(mgl64.DegToRad(tiltDegrees))
}

// SpinAngle maps a day fraction to the planet's rotation about its axis.
func SpinAngle(dayFraction float64) float64 {
	return 2 * math.Pi * dayFraction
}

// NewOrientation builds the frame matrices for the given model. The
// composition is done in float64 and narrowed once; the inverse is taken as
// the transpose of the narrowed matrix so the pair stays exactly consistent.
func NewOrientation(model Model, tiltDegrees, dayFraction float64) Orientation {
	p2w := TiltMatrix(tiltDegrees)
	spin := 0.0
	if model == ModelTiltSpin {
		spin = SpinAngle(dayFraction)
		p2w = p2w.Mul3(mgl64.Rotate3DY(spin))
	}

	m := mat3To32(p2w)
	return Orientation{
		PlanetToWorld: m,
		WorldToPlanet: m.Transpose(),
		SpinAngle:     spin,
	}
}

// OrientationAt is NewOrientation evaluated for a calendar state.
func OrientationAt(model Model, state CalendarState, tiltDegrees float64) Orientation {
	return NewOrientation(model, tiltDegrees, state.DayFraction)
}

// ToPlanet maps a world-space vector into the planet frame.
func (o Orientation) ToPlanet(v mgl32.Vec3) mgl32.Vec3 {
	return o.WorldToPlanet.Mul3x1(v)
}

// ToWorld maps a planet-frame vector into world space.
func (o Orientation) ToWorld(v mgl32.Vec3) mgl32.Vec3 {
	return o.PlanetToWorld.Mul3x1(v)
}

// SpinDelta is the world-space rotation the planet underwent between two
// frames. Applying it to a point resting on the surface keeps the point
// attached to the same terrain.
func SpinDelta(prev, cur Orientation) mgl32.Mat3 {
	return cur.PlanetToWorld.Mul3(prev.WorldToPlanet)
}

// alignEpsilon bounds |from × to| below which the vectors count as parallel.
const alignEpsilon = 1e-6

// AlignVectors returns the rotation taking unit vector from onto unit vector
// to. Parallel inputs give the identity; anti-parallel inputs give a half turn
// about an axis perpendicular to from.
func AlignVectors(from, to mgl64.Vec3) mgl64.Mat3 {
	from = from.Normalize()
	to = to.Normalize()

	axis := from.Cross(to)
	sinAngle := axis.Len()
	cosAngle := from.Dot(to)

	if sinAngle < alignEpsilon {
		if cosAngle > 0 {
			return mgl64.Ident3()
		}
		return mgl64.QuatRotate(math.Pi, perpendicular(from)).Mat4().Mat3()
	}

	angle := math.Atan2(sinAngle, cosAngle)
	return mgl64.QuatRotate(angle, axis.Mul(1/sinAngle)).Mat4().Mat3()
}

// perpendicular picks any unit vector orthogonal to v, crossing with the
// world axis v is least aligned with.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(v[0]) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(ref).Normalize()
}

func mat3To32(m mgl64.Mat3) mgl32.Mat3 {
	var out mgl32.Mat3
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
