package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/orbit"
	"sdf-planet/pipeline"
	"sdf-planet/planet"
)

// SurfaceQuery evaluates the terrain under a point with a single compute
// invocation and reads the 8-float result back synchronously. Every call
// stalls until the GPU has finished the dispatch.
type SurfaceQuery struct {
	prog   *Program
	ssbo   uint32
	params planet.Parameters
	orient orbit.Orientation
	err    error
}

var _ planet.Querier = (*SurfaceQuery)(nil)

// NewSurfaceQuery allocates the result buffer for prog.
func NewSurfaceQuery(prog *Program) *SurfaceQuery {
	q := &SurfaceQuery{prog: prog, orient: orbit.IdentityOrientation()}
	gl.GenBuffers(1, &q.ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, q.ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, planet.SurfaceBufferFloats*4, nil, gl.DYNAMIC_READ)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return q
}

// SetFrame sets the parameters and orientation queries are evaluated with.
func (q *SurfaceQuery) SetFrame(p planet.Parameters, o orbit.Orientation) {
	if q == nil {
		return
	}
	q.params = p
	q.orient = o
}

// Err returns the first GL error seen by a query, which callers treat as
// fatal.
func (q *SurfaceQuery) Err() error {
	if q == nil {
		return nil
	}
	return q.err
}

// QuerySurface implements planet.Querier. A nil or deleted query reports
// ok=false, as does every query once a GL error has been recorded.
func (q *SurfaceQuery) QuerySurface(worldPos mgl32.Vec3, offset float32) (planet.SurfaceInfo, bool) {
	if q == nil || q.prog == nil || q.prog.ID == 0 || q.ssbo == 0 || q.err != nil {
		return planet.SurfaceInfo{}, false
	}

	q.prog.Use()
	q.prog.SetVec3("queryPos", worldPos)
	q.prog.SetFloat("minAltitudeOffset", offset)
	q.prog.SetFloat(pipeline.UniformPlanetRadius, float32(q.params.PlanetRadius))
	q.prog.SetFloat(pipeline.UniformHeightScale, float32(q.params.HeightScale))
	q.prog.SetFloat(pipeline.UniformSeaLevel, float32(q.params.SeaLevel))
	q.prog.SetMat3(pipeline.UniformWorldToPlanet, q.orient.WorldToPlanet)
	q.prog.SetMat3(pipeline.UniformPlanetToWorld, q.orient.PlanetToWorld)

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, q.ssbo)
	gl.DispatchCompute(1, 1, 1)
	gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT | gl.SHADER_STORAGE_BARRIER_BIT)

	var buf [planet.SurfaceBufferFloats]float32
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, q.ssbo)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(buf)*4, gl.Ptr(&buf[0]))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	if err := CheckError("surface query"); err != nil {
		q.err = fmt.Errorf("surface query at %v: %w", worldPos, err)
		return planet.SurfaceInfo{}, false
	}
	return planet.DecodeSurfaceInfo(buf), true
}

// Delete frees the buffer and program.
func (q *SurfaceQuery) Delete() {
	if q == nil {
		return
	}
	if q.ssbo != 0 {
		gl.DeleteBuffers(1, &q.ssbo)
		q.ssbo = 0
	}
	q.prog.Delete()
}
