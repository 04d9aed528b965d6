package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.3-core/gl"

	"sdf-planet/pipeline"
)

// Allocator creates the planet pipeline's framebuffers. G-buffer attachments
// are RGBA32F so unbounded positions and heights survive; the radiance
// targets are RGBA16F.
type Allocator struct{}

var _ pipeline.Allocator = Allocator{}

// AllocGBuffer creates the geometry framebuffer with three or four colour
// attachments and a depth/stencil renderbuffer.
func (Allocator) AllocGBuffer(width, height int, withViewData bool) (pipeline.GBuffer, error) {
	gb := pipeline.GBuffer{Width: width, Height: height}

	gl.GenFramebuffers(1, &gb.Framebuffer)
	gl.BindFramebuffer(gl.FRAMEBUFFER, gb.Framebuffer)

	gb.Position = attachTexture(width, height, gl.COLOR_ATTACHMENT0, gl.RGBA32F)
	gb.Normal = attachTexture(width, height, gl.COLOR_ATTACHMENT1, gl.RGBA32F)
	gb.Material = attachTexture(width, height, gl.COLOR_ATTACHMENT2, gl.RGBA32F)
	attachments := []uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1, gl.COLOR_ATTACHMENT2}
	if withViewData {
		gb.ViewData = attachTexture(width, height, gl.COLOR_ATTACHMENT3, gl.RGBA32F)
		attachments = append(attachments, gl.COLOR_ATTACHMENT3)
	}

	gl.GenRenderbuffers(1, &gb.DepthStencil)
	gl.BindRenderbuffer(gl.RENDERBUFFER, gb.DepthStencil)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, gb.DepthStencil)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.DrawBuffers(int32(len(attachments)), &attachments[0])

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		Allocator{}.ReleaseGBuffer(gb)
		return pipeline.GBuffer{}, fmt.Errorf("gbuffer status=0x%X: %w", status, pipeline.ErrIncompleteFramebuffer)
	}
	return gb, nil
}

// AllocColorTarget creates a single-attachment RGBA16F framebuffer.
func (Allocator) AllocColorTarget(width, height int) (pipeline.ColorTarget, error) {
	ct := pipeline.ColorTarget{Width: width, Height: height}

	gl.GenFramebuffers(1, &ct.Framebuffer)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ct.Framebuffer)
	ct.Texture = attachTexture(width, height, gl.COLOR_ATTACHMENT0, gl.RGBA16F)
	drawBuf := uint32(gl.COLOR_ATTACHMENT0)
	gl.DrawBuffers(1, &drawBuf)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		Allocator{}.ReleaseColorTarget(ct)
		return pipeline.ColorTarget{}, fmt.Errorf("color target status=0x%X: %w", status, pipeline.ErrIncompleteFramebuffer)
	}
	return ct, nil
}

func (Allocator) ReleaseGBuffer(gb pipeline.GBuffer) {
	deleteFramebuffer(gb.Framebuffer)
	if gb.DepthStencil != 0 {
		gl.DeleteRenderbuffers(1, &gb.DepthStencil)
	}
	deleteTextures(gb.Position, gb.Normal, gb.Material, gb.ViewData)
}

func (Allocator) ReleaseColorTarget(ct pipeline.ColorTarget) {
	deleteFramebuffer(ct.Framebuffer)
	deleteTextures(ct.Texture)
}

// attachTexture creates a float texture and attaches it to the bound
// framebuffer.
func attachTexture(width, height int, attachment uint32, internalFormat int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat,
		int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, tex, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func deleteFramebuffer(fb uint32) {
	if fb != 0 {
		gl.DeleteFramebuffers(1, &fb)
	}
}

func deleteTextures(texs ...uint32) {
	for _, t := range texs {
		if t != 0 {
			gl.DeleteTextures(1, &t)
		}
	}
}
