package opengl

import (
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.3-core/gl"

	"sdf-planet/pipeline"
)

const (
	// DefaultNoiseResolution is the edge length of both cloud noise volumes.
	DefaultNoiseResolution = 128
	// DefaultNoiseSeed seeds the gradient lattice.
	DefaultNoiseSeed = 1337

	noiseWorkgroupSize = 8
)

// CloudNoise owns the two cubic R16F volumes (coverage and shape) that the
// cloud pass samples. They are computed once by a compute dispatch and kept
// until Invalidate.
type CloudNoise struct {
	prog       *Program
	resolution int
	seed       int32
	logger     *slog.Logger

	coverage uint32
	shape    uint32
	ready    bool
}

// NewCloudNoise wraps an already built compute program.
func NewCloudNoise(prog *Program, resolution int, seed int32, logger *slog.Logger) *CloudNoise {
	if resolution <= 0 {
		resolution = DefaultNoiseResolution
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudNoise{prog: prog, resolution: resolution, seed: seed, logger: logger}
}

// Ensure computes the volumes if they are missing. The memory barrier after
// the dispatch makes the image writes visible to later texture fetches.
func (n *CloudNoise) Ensure() error {
	if n.ready {
		return nil
	}

	n.coverage = newVolume(n.resolution)
	n.shape = newVolume(n.resolution)

	n.prog.Use()
	gl.BindImageTexture(0, n.coverage, 0, true, 0, gl.WRITE_ONLY, gl.R16F)
	gl.BindImageTexture(1, n.shape, 0, true, 0, gl.WRITE_ONLY, gl.R16F)
	n.prog.SetInt("volumeSize", int32(n.resolution))
	n.prog.SetInt("seed", n.seed)

	groups := uint32((n.resolution + noiseWorkgroupSize - 1) / noiseWorkgroupSize)
	gl.DispatchCompute(groups, groups, groups)
	gl.MemoryBarrier(gl.TEXTURE_FETCH_BARRIER_BIT | gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	if err := CheckError("cloud noise dispatch"); err != nil {
		n.release()
		return fmt.Errorf("compute cloud noise: %w", err)
	}
	n.ready = true
	n.logger.Info("cloud noise computed", "resolution", n.resolution, "seed", n.seed, "groups", groups)
	return nil
}

// Texture returns the volume behind a noise unit.
func (n *CloudNoise) Texture(u pipeline.TextureUnit) (uint32, bool) {
	if !n.ready {
		return 0, false
	}
	switch u {
	case pipeline.UnitCloudCoverage:
		return n.coverage, true
	case pipeline.UnitCloudShape:
		return n.shape, true
	}
	return 0, false
}

// Invalidate drops the volumes; the next Ensure recomputes them.
func (n *CloudNoise) Invalidate() {
	n.release()
}

// Reseed changes the seed and invalidates the volumes.
func (n *CloudNoise) Reseed(seed int32) {
	n.seed = seed
	n.Invalidate()
}

// Seed is the seed the volumes are computed with.
func (n *CloudNoise) Seed() int32 { return n.seed }

// Delete frees the volumes and the program.
func (n *CloudNoise) Delete() {
	n.release()
	n.prog.Delete()
}

func (n *CloudNoise) release() {
	deleteTextures(n.coverage, n.shape)
	n.coverage, n.shape = 0, 0
	n.ready = false
}

func newVolume(size int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_3D, tex)
	gl.TexStorage3D(gl.TEXTURE_3D, 1, gl.R16F, int32(size), int32(size), int32(size))
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_R, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return tex
}
