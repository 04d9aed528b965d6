package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"sdf-planet/orbit"
	"sdf-planet/planet"
)

type fakeAllocator struct {
	next     uint32
	allocs   int
	releases int
	live     map[uint32]bool
	failNext error
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{next: 1, live: make(map[uint32]bool)}
}

func (f *fakeAllocator) handle() uint32 {
	h := f.next
	f.next++
	f.live[h] = true
	return h
}

func (f *fakeAllocator) AllocGBuffer(w, h int, withViewData bool) (GBuffer, error) {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return GBuffer{}, err
	}
	f.allocs++
	gb := GBuffer{
		Framebuffer:  f.handle(),
		DepthStencil: f.handle(),
		Position:     f.handle(),
		Normal:       f.handle(),
		Material:     f.handle(),
		Width:        w,
		Height:       h,
	}
	if withViewData {
		gb.ViewData = f.handle()
	}
	return gb, nil
}

func (f *fakeAllocator) AllocColorTarget(w, h int) (ColorTarget, error) {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return ColorTarget{}, err
	}
	f.allocs++
	return ColorTarget{Framebuffer: f.handle(), Texture: f.handle(), Width: w, Height: h}, nil
}

func (f *fakeAllocator) ReleaseGBuffer(gb GBuffer) {
	f.releases++
	for _, h := range []uint32{gb.Framebuffer, gb.DepthStencil, gb.Position, gb.Normal, gb.Material, gb.ViewData} {
		delete(f.live, h)
	}
}

func (f *fakeAllocator) ReleaseColorTarget(ct ColorTarget) {
	f.releases++
	delete(f.live, ct.Framebuffer)
	delete(f.live, ct.Texture)
}

func TestEnsureSameSizeIsNoOp(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewTargetManager(alloc, true, nil)

	if err := m.Ensure(1366, 768); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if alloc.allocs != 4 {
		t.Fatalf("expected 4 allocations, got %d", alloc.allocs)
	}
	gb1, _ := m.GBuffer()
	light1, _ := m.ColorTarget(TargetLighting)

	if err := m.Ensure(1366, 768); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	gb2, _ := m.GBuffer()
	light2, _ := m.ColorTarget(TargetLighting)

	if alloc.allocs != 4 || alloc.releases != 0 {
		t.Errorf("same-size ensure reallocated: allocs=%d releases=%d", alloc.allocs, alloc.releases)
	}
	if gb1 != gb2 || light1 != light2 {
		t.Error("handles changed on same-size ensure")
	}
}

func TestEnsureResizeReleasesOld(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewTargetManager(alloc, false, nil)

	if err := m.Ensure(800, 600); err != nil {
		t.Fatal(err)
	}
	old, _ := m.GBuffer()

	if err := m.Ensure(1024, 600); err != nil {
		t.Fatal(err)
	}
	gb, _ := m.GBuffer()
	if gb.Width != 1024 || gb.Height != 600 {
		t.Errorf("expected 1024x600, got %dx%d", gb.Width, gb.Height)
	}
	if alloc.live[old.Framebuffer] {
		t.Error("old gbuffer framebuffer was not released")
	}
	if alloc.releases != 4 {
		t.Errorf("expected 4 releases, got %d", alloc.releases)
	}
	for _, id := range []TargetID{TargetLighting, TargetAtmosphere, TargetCloud} {
		ct, ok := m.ColorTarget(id)
		if !ok || ct.Width != 1024 {
			t.Errorf("%v: not resized: %+v", id, ct)
		}
	}
	if gb.ViewData != 0 {
		t.Error("view data allocated although disabled")
	}
}

func TestEnsurePropagatesIncompleteFramebuffer(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewTargetManager(alloc, true, nil)
	alloc.failNext = fmt.Errorf("status 0x8CD6: %w", ErrIncompleteFramebuffer)

	err := m.Ensure(640, 480)
	if !errors.Is(err, ErrIncompleteFramebuffer) {
		t.Fatalf("expected ErrIncompleteFramebuffer, got %v", err)
	}
	if _, ok := m.GBuffer(); ok {
		t.Error("failed allocation left a gbuffer behind")
	}
}

func TestEnsureColorTargetsFailureReleasesPartial(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewTargetManager(alloc, true, nil)
	if err := m.EnsureGBuffer(320, 200); err != nil {
		t.Fatal(err)
	}

	calls := 0
	failing := &countingAllocator{fakeAllocator: alloc, failAt: 2, calls: &calls}
	m.alloc = failing

	if err := m.EnsureColorTargets(320, 200); !errors.Is(err, ErrIncompleteFramebuffer) {
		t.Fatalf("expected ErrIncompleteFramebuffer, got %v", err)
	}
	for _, id := range []TargetID{TargetLighting, TargetAtmosphere, TargetCloud} {
		if _, ok := m.ColorTarget(id); ok {
			t.Errorf("%v left allocated after failure", id)
		}
	}
}

type countingAllocator struct {
	*fakeAllocator
	failAt int
	calls  *int
}

func (c *countingAllocator) AllocColorTarget(w, h int) (ColorTarget, error) {
	*c.calls++
	if *c.calls == c.failAt {
		return ColorTarget{}, ErrIncompleteFramebuffer
	}
	return c.fakeAllocator.AllocColorTarget(w, h)
}

func TestEnsureRejectsBadSize(t *testing.T) {
	m := NewTargetManager(newFakeAllocator(), true, nil)
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		if err := m.Ensure(size[0], size[1]); err == nil {
			t.Errorf("%v: expected error", size)
		}
	}
}

func TestTextureLookup(t *testing.T) {
	m := NewTargetManager(newFakeAllocator(), true, nil)
	if _, ok := m.Texture(UnitPosition); ok {
		t.Error("texture resolved before allocation")
	}
	if err := m.Ensure(64, 64); err != nil {
		t.Fatal(err)
	}

	seen := make(map[uint32]TextureUnit)
	for _, u := range []TextureUnit{UnitPosition, UnitNormal, UnitMaterial, UnitViewData, UnitLighting, UnitAtmosphere, UnitCloud} {
		h, ok := m.Texture(u)
		if !ok || h == 0 {
			t.Fatalf("%v: no texture", u)
		}
		if prev, dup := seen[h]; dup {
			t.Fatalf("%v and %v share handle %d", prev, u, h)
		}
		seen[h] = u
	}
	if _, ok := m.Texture(UnitCloudShape); ok {
		t.Error("noise unit should not resolve through the target manager")
	}
	if fb, ok := m.Framebuffer(TargetScreen); !ok || fb != 0 {
		t.Errorf("screen framebuffer: got %d, %v", fb, ok)
	}

	m.Release()
	if _, ok := m.GBuffer(); ok {
		t.Error("gbuffer survived release")
	}
}

func TestPassOrderAndTopology(t *testing.T) {
	ps := Passes()
	want := []PassID{PassGBuffer, PassLighting, PassAtmosphere, PassClouds, PassComposite}
	if len(ps) != len(want) {
		t.Fatalf("expected %d passes, got %d", len(want), len(ps))
	}
	for i, p := range ps {
		if p.ID != want[i] {
			t.Errorf("pass %d: expected %v, got %v", i, want[i], p.ID)
		}
		if p.DepthTest != (p.ID == PassGBuffer) {
			t.Errorf("%v: depth test %v", p.ID, p.DepthTest)
		}
	}
	if ps[len(ps)-1].Target != TargetScreen {
		t.Error("last pass must draw to the screen")
	}
	if err := ValidateTopology(ps); err != nil {
		t.Errorf("default topology invalid: %v", err)
	}

	swapped := Passes()
	swapped[1], swapped[4] = swapped[4], swapped[1]
	if err := ValidateTopology(swapped); err == nil {
		t.Error("expected error when composite runs before lighting")
	}

	depth := Passes()
	depth[2].DepthTest = true
	if err := ValidateTopology(depth); err == nil {
		t.Error("expected error for depth test outside the gbuffer pass")
	}
}

func TestBindingTableIsUnique(t *testing.T) {
	names := make(map[string]bool)
	for i, u := range Units() {
		if int(u) != i {
			t.Errorf("unit %v out of order", u)
		}
		if names[u.Sampler()] {
			t.Errorf("sampler %q bound twice", u.Sampler())
		}
		names[u.Sampler()] = true
	}
	if UnitPosition != 0 || UnitNormal != 1 || UnitMaterial != 2 {
		t.Error("G-buffer units must be 0, 1, 2")
	}
}

type recordingWriter struct {
	ints   map[string]int32
	floats map[string]float32
	vec2s  map[string]mgl32.Vec2
	vec3s  map[string]mgl32.Vec3
	mat3s  map[string]mgl32.Mat3
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{
		ints:   make(map[string]int32),
		floats: make(map[string]float32),
		vec2s:  make(map[string]mgl32.Vec2),
		vec3s:  make(map[string]mgl32.Vec3),
		mat3s:  make(map[string]mgl32.Mat3),
	}
}

func (r *recordingWriter) SetInt(n string, v int32) { r.ints[n] = v }
func (r *recordingWriter) SetFloat(n string, v float32) { r.floats[n] = v }
func (r *recordingWriter) SetVec2(n string, v mgl32.Vec2) { r.vec2s[n] = v }
func (r *recordingWriter) SetVec3(n string, v mgl32.Vec3) { r.vec3s[n] = v }
func (r *recordingWriter) SetMat3(n string, m mgl32.Mat3) { r.mat3s[n] = m }

func testFrame() *FrameContext {
	params := planet.Default()
	cal := orbit.StateFromElapsed(3 * orbit.SecondsPerDay)
	return &FrameContext{
		Camera: Camera{
			Position: mgl32.Vec3{0, 0, 10000},
			Forward:  mgl32.Vec3{0, 0, -1},
			Right:    mgl32.Vec3{1, 0, 0},
			Up:       mgl32.Vec3{0, 1, 0},
		},
		Params:       params,
		Calendar:     cal,
		Orientation:  orbit.OrientationAt(orbit.ModelTiltSpin, cal, params.TiltDegrees),
		SunDirection: orbit.SunDirectionAt(cal, params.TiltDegrees),
		Width:        1366,
		Height:       768,
		Time:         12.5,
		Layers:       DebugLevel(9),
	}
}

func TestBindFrameUniforms(t *testing.T) {
	fc := testFrame()
	w := newRecordingWriter()
	BindFrameUniforms(w, fc)

	if w.vec3s[UniformCamPos] != fc.Camera.Position {
		t.Errorf("camPos: %v", w.vec3s[UniformCamPos])
	}
	if w.floats[UniformPlanetRadius] != 6371 {
		t.Errorf("planetRadius: %v", w.floats[UniformPlanetRadius])
	}
	if w.ints[UniformPlanetMaxSteps] != int32(fc.Params.PlanetMaxSteps) {
		t.Errorf("planetMaxSteps: %v", w.ints[UniformPlanetMaxSteps])
	}
	if w.vec2s[UniformResolution] != (mgl32.Vec2{1366, 768}) {
		t.Errorf("resolution: %v", w.vec2s[UniformResolution])
	}
	if w.floats[UniformAspect] != float32(1366)/768 {
		t.Errorf("aspect: %v", w.floats[UniformAspect])
	}
	if w.mat3s[UniformWorldToPlanet] != w.mat3s[UniformPlanetToWorld].Transpose() {
		t.Error("worldToPlanet is not the transpose of planetToWorld")
	}

	required := []string{
		UniformCamForward, UniformCamRight, UniformCamUp, UniformSunDir,
		UniformWaterColor, UniformCloudLightColor,
	}
	for _, name := range required {
		if _, ok := w.vec3s[name]; !ok {
			t.Errorf("%s not written", name)
		}
	}
	for _, name := range []string{
		UniformSunPower, UniformAtmosphereRadius, UniformHeightScale, UniformMaxRayDistance,
		UniformSeaLevel, UniformCloudBaseAltitude, UniformCloudLayerThickness,
		UniformCloudCoverage, UniformCloudDensity, UniformCloudExtinction,
		UniformCloudPhaseExponent, UniformTime,
	} {
		if _, ok := w.floats[name]; !ok {
			t.Errorf("%s not written", name)
		}
	}
}

func TestBindLayerSelector(t *testing.T) {
	w := newRecordingWriter()
	BindLayerSelector(w, VisibilityMask(true, false, true))

	if w.ints[UniformLayerMode] != int32(LayerModeVisibility) {
		t.Errorf("layerMode: %v", w.ints[UniformLayerMode])
	}
	for i := 0; i < NumLayers; i++ {
		want := int32(0)
		if i == 0 || i == 2 {
			want = 1
		}
		got, ok := w.ints[ShowLayerUniform(i)]
		if !ok || got != want {
			t.Errorf("showLayer[%d]: expected %d, got %d (written %v)", i, want, got, ok)
		}
	}
}

func TestBindSamplers(t *testing.T) {
	w := newRecordingWriter()
	ps := Passes()
	BindSamplers(w, ps[3].Samples(true))

	if w.ints["cloudShapeTex"] != 8 || w.ints["gPositionHeight"] != 0 || w.ints["gViewData"] != 6 {
		t.Errorf("unexpected sampler bindings: %v", w.ints)
	}
	if _, ok := w.ints["lightingTex"]; ok {
		t.Error("cloud pass should not bind the lighting texture")
	}
}

func TestLayerSelector(t *testing.T) {
	s := DebugLevel(0)
	if s.Level != NumLayers {
		t.Errorf("out-of-range level should clamp to final, got %d", s.Level)
	}
	if !s.Select(3) || s.Level != 3 {
		t.Errorf("select 3: got level %d", s.Level)
	}
	if s.Select(10) {
		t.Error("select 10 should be rejected")
	}

	v := VisibilityMask()
	v.Select(5)
	v.Select(5)
	v.Select(2)
	if v.Visible[4] || !v.Visible[1] {
		t.Errorf("unexpected mask %v", v.Visible)
	}
	if LayerName(9) != "final" {
		t.Errorf("layer 9 name: %q", LayerName(9))
	}
}
