package orbit

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// SunDirection returns the unit vector toward the sun for a circular orbit
// with axial tilt. No eccentricity is modelled.
//
// declination = tilt·sin(2π·yearFraction)
// hourAngle   = 2π·(dayFraction − 0.5)
func SunDirection(dayFraction, yearFraction, tiltDegrees float64) mgl32.Vec3 {
	tilt := mgl64.DegToRad(tiltDegrees)
	declination := tilt * math.Sin(2*math.Pi*yearFraction)
	hourAngle := 2 * math.Pi * (dayFraction - 0.5)

	dir := mgl64.Vec3{
		math.Cos(declination) * math.Cos(hourAngle),
		math.Sin(declination),
		math.Cos(declination) * math.Sin(hourAngle),
	}.Normalize()
	return vec3To32(dir)
}

// SunDirectionAt is SunDirection evaluated for a calendar state.
func SunDirectionAt(state CalendarState, tiltDegrees float64) mgl32.Vec3 {
	return SunDirection(state.DayFraction, state.YearFraction, tiltDegrees)
}

func vec3To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
