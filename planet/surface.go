package planet

import "github.com/go-gl/mathgl/mgl32"

// SurfaceBufferFloats is the size of the surface query result record shared
// with the compute shader: [nx, ny, nz, surface_radius, altitude,
// terrain_height, clamped_radius, reserved].
const SurfaceBufferFloats = 8

// SurfaceInfo describes the terrain directly below a world position.
type SurfaceInfo struct {
	Normal        mgl32.Vec3 // world space, unit length
	SurfaceRadius float32    // distance from the planet centre to the surface
	Altitude      float32    // |pos| - SurfaceRadius - offset, negative below ground
	TerrainHeight float32    // surface height above PlanetRadius
	ClampedRadius float32    // max(SurfaceRadius + offset, PlanetRadius)
}

// DecodeSurfaceInfo unpacks the compute shader's output record.
func DecodeSurfaceInfo(buf [SurfaceBufferFloats]float32) SurfaceInfo {
	return SurfaceInfo{
		Normal:        mgl32.Vec3{buf[0], buf[1], buf[2]},
		SurfaceRadius: buf[3],
		Altitude:      buf[4],
		TerrainHeight: buf[5],
		ClampedRadius: buf[6],
	}
}

// Encode packs s in the compute shader's layout.
func (s SurfaceInfo) Encode() [SurfaceBufferFloats]float32 {
	return [SurfaceBufferFloats]float32{
		s.Normal[0], s.Normal[1], s.Normal[2],
		s.SurfaceRadius,
		s.Altitude,
		s.TerrainHeight,
		s.ClampedRadius,
		0,
	}
}

// GroundPosition is the point on the clamped shell directly below the query.
func (s SurfaceInfo) GroundPosition() mgl32.Vec3 {
	return s.Normal.Mul(s.ClampedRadius)
}

// Querier answers surface queries for a world-space position. ok is false
// only when the mechanism itself is unavailable, never for positions that
// happen to be underground.
type Querier interface {
	QuerySurface(worldPos mgl32.Vec3, minAltitudeOffset float32) (info SurfaceInfo, ok bool)
}
