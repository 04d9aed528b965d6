package planet

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"sdf-planet/orbit"
)

// normalStep is the angular offset in radians used for finite-difference
// normals on the sphere.
const normalStep = 1e-4

// ReferenceQuerier evaluates surface queries on the CPU. It honours the same
// contract as the compute shader path and serves headless runs, tests and
// machines without compute support.
type ReferenceQuerier struct {
	Params      Parameters
	Orientation orbit.Orientation
	Height      HeightFunc // nil means a flat sphere
}

// NewReferenceQuerier returns a querier for a flat sphere at identity
// orientation.
func NewReferenceQuerier(p Parameters) *ReferenceQuerier {
	return &ReferenceQuerier{Params: p, Orientation: orbit.IdentityOrientation()}
}

// QuerySurface implements Querier. It always succeeds.
func (q *ReferenceQuerier) QuerySurface(worldPos mgl32.Vec3, offset float32) (SurfaceInfo, bool) {
	local := toVec64(q.Orientation.ToPlanet(worldPos))
	dist := local.Len()

	dir := mgl64.Vec3{0, 1, 0}
	if dist > 1e-9 {
		dir = local.Mul(1 / dist)
	}

	h := q.height(dir)
	surfaceRadius := q.Params.PlanetRadius + h

	normal := dir
	if q.Height != nil {
		normal = q.gradientNormal(dir)
	}

	off := float64(offset)
	info := SurfaceInfo{
		Normal:        q.Orientation.ToWorld(toVec32(normal)).Normalize(),
		SurfaceRadius: float32(surfaceRadius),
		Altitude:      float32(dist - surfaceRadius - off),
		TerrainHeight: float32(h),
		ClampedRadius: float32(math.Max(surfaceRadius+off, q.Params.PlanetRadius)),
	}
	return info, true
}

func (q *ReferenceQuerier) height(dir mgl64.Vec3) float64 {
	h := 0.0
	if q.Height != nil {
		h = q.Height(dir, q.Params)
	}
	return math.Max(h, q.Params.SeaLevel)
}

// gradientNormal differentiates the displaced surface along two tangents.
func (q *ReferenceQuerier) gradientNormal(dir mgl64.Vec3) mgl64.Vec3 {
	t1 := dir.Cross(mgl64.Vec3{0, 1, 0})
	if t1.Len() < 1e-6 {
		t1 = dir.Cross(mgl64.Vec3{1, 0, 0})
	}
	t1 = t1.Normalize()
	t2 := dir.Cross(t1).Normalize()

	surface := func(d mgl64.Vec3) mgl64.Vec3 {
		d = d.Normalize()
		return d.Mul(q.Params.PlanetRadius + q.height(d))
	}

	du := surface(dir.Add(t1.Mul(normalStep))).Sub(surface(dir.Sub(t1.Mul(normalStep))))
	dv := surface(dir.Add(t2.Mul(normalStep))).Sub(surface(dir.Sub(t2.Mul(normalStep))))
	n := du.Cross(dv)
	if n.Len() < 1e-12 {
		return dir
	}
	n = n.Normalize()
	if n.Dot(dir) < 0 {
		n = n.Mul(-1)
	}
	return n
}

func toVec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func toVec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
