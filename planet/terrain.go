package planet

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"
)

// HeightFunc returns terrain height above PlanetRadius for a unit direction
// in the planet frame.
type HeightFunc func(planetDir mgl64.Vec3, p Parameters) float64

// FlatHeight is a perfectly smooth sphere.
func FlatHeight(mgl64.Vec3, Parameters) float64 { return 0 }

const (
	terrainOctaves   = 5
	terrainWarpFreq  = 1.15
	terrainWarpAmp   = 0.06
	terrainFrequency = 8.0
	terrainDetail    = 2.5
	terrainBias      = 0.42
)

var terrainWarpOffsets = [3]mgl64.Vec3{
	{11.7, 0, 0},
	{3.9, 17.2, 5.1},
	{-7.5, 0, 0},
}

// NoiseHeight builds a domain-warped fBm height field. Values are centred so
// roughly 40% of the surface sits below zero before sea level is applied.
func NoiseHeight(seed int64) HeightFunc {
	noise := opensimplex.NewNormalized(seed)

	fbm := func(p mgl64.Vec3) float64 {
		v, a := 0.0, 0.5
		for i := 0; i < terrainOctaves; i++ {
			v += a * noise.Eval3(p[0], p[1], p[2])
			p = p.Mul(2)
			a *= 0.5
		}
		return v
	}

	return func(dir mgl64.Vec3, params Parameters) float64 {
		var warp mgl64.Vec3
		for i, off := range terrainWarpOffsets {
			warp[i] = fbm(dir.Mul(terrainWarpFreq).Add(off))
		}
		warped := dir.Mul(terrainFrequency).Add(
			warp.Sub(mgl64.Vec3{0.5, 0.5, 0.5}).Mul(2 * terrainWarpAmp))

		base := fbm(warped)
		detail := fbm(warped.Mul(terrainDetail)) * 0.35
		normalized := base*0.62 + detail*0.38
		return (normalized - terrainBias) * params.HeightScale
	}
}
