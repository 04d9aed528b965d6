package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrIncompleteFramebuffer is returned when a freshly allocated framebuffer
// fails its completeness check. The renderer cannot continue without it.
var ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

// GBuffer is the geometry target: three RGBA32F colour attachments, an
// optional fourth view-data attachment and a depth/stencil renderbuffer.
type GBuffer struct {
	Framebuffer  uint32
	DepthStencil uint32
	Position     uint32
	Normal       uint32
	Material     uint32
	ViewData     uint32 // zero when disabled
	Width        int
	Height       int
}

// ColorTarget is a framebuffer with a single RGBA16F colour texture.
type ColorTarget struct {
	Framebuffer uint32
	Texture     uint32
	Width       int
	Height      int
}

// Allocator creates and destroys GPU render targets.
type Allocator interface {
	AllocGBuffer(width, height int, withViewData bool) (GBuffer, error)
	AllocColorTarget(width, height int) (ColorTarget, error)
	ReleaseGBuffer(GBuffer)
	ReleaseColorTarget(ColorTarget)
}

// TargetManager keeps the offscreen targets sized to the framebuffer. Ensure
// calls with an unchanged size are free; a size change releases the old
// targets before allocating new ones.
type TargetManager struct {
	alloc        Allocator
	withViewData bool
	logger       *slog.Logger

	gbuffer    *GBuffer
	lighting   *ColorTarget
	atmosphere *ColorTarget
	cloud      *ColorTarget
}

// NewTargetManager returns a manager with nothing allocated.
func NewTargetManager(alloc Allocator, withViewData bool, logger *slog.Logger) *TargetManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TargetManager{alloc: alloc, withViewData: withViewData, logger: logger}
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render target size %dx%d must be positive", width, height)
	}
	return nil
}

// EnsureGBuffer makes sure the G-buffer exists at width×height.
func (m *TargetManager) EnsureGBuffer(width, height int) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	if m.gbuffer != nil && m.gbuffer.Width == width && m.gbuffer.Height == height {
		return nil
	}

	if m.gbuffer != nil {
		m.alloc.ReleaseGBuffer(*m.gbuffer)
		m.gbuffer = nil
	}
	gb, err := m.alloc.AllocGBuffer(width, height, m.withViewData)
	if err != nil {
		return fmt.Errorf("allocate gbuffer %dx%d: %w", width, height, err)
	}
	m.gbuffer = &gb
	m.logger.Info("gbuffer allocated", "width", width, "height", height, "view_data", m.withViewData)
	return nil
}

// EnsureColorTargets makes sure the lighting, atmosphere and cloud targets
// exist at width×height. They are always resized together.
func (m *TargetManager) EnsureColorTargets(width, height int) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	if m.lighting != nil && m.lighting.Width == width && m.lighting.Height == height {
		return nil
	}

	m.releaseColor()
	slots := []**ColorTarget{&m.lighting, &m.atmosphere, &m.cloud}
	for _, slot := range slots {
		ct, err := m.alloc.AllocColorTarget(width, height)
		if err != nil {
			m.releaseColor()
			return fmt.Errorf("allocate color target %dx%d: %w", width, height, err)
		}
		*slot = &ct
	}
	m.logger.Info("color targets allocated", "width", width, "height", height)
	return nil
}

// Ensure sizes every offscreen target.
func (m *TargetManager) Ensure(width, height int) error {
	if err := m.EnsureGBuffer(width, height); err != nil {
		return err
	}
	return m.EnsureColorTargets(width, height)
}

// GBuffer returns the current G-buffer, or false before the first Ensure.
func (m *TargetManager) GBuffer() (GBuffer, bool) {
	if m.gbuffer == nil {
		return GBuffer{}, false
	}
	return *m.gbuffer, true
}

// ColorTarget returns the colour target behind id.
func (m *TargetManager) ColorTarget(id TargetID) (ColorTarget, bool) {
	var ct *ColorTarget
	switch id {
	case TargetLighting:
		ct = m.lighting
	case TargetAtmosphere:
		ct = m.atmosphere
	case TargetCloud:
		ct = m.cloud
	}
	if ct == nil {
		return ColorTarget{}, false
	}
	return *ct, true
}

// Texture resolves a texture unit to the handle currently backing it. Units
// not owned by the manager, such as the noise volumes, report false.
func (m *TargetManager) Texture(u TextureUnit) (uint32, bool) {
	if m.gbuffer != nil {
		switch u {
		case UnitPosition:
			return m.gbuffer.Position, true
		case UnitNormal:
			return m.gbuffer.Normal, true
		case UnitMaterial:
			return m.gbuffer.Material, true
		case UnitViewData:
			return m.gbuffer.ViewData, m.gbuffer.ViewData != 0
		}
	}
	var id TargetID
	switch u {
	case UnitLighting:
		id = TargetLighting
	case UnitAtmosphere:
		id = TargetAtmosphere
	case UnitCloud:
		id = TargetCloud
	default:
		return 0, false
	}
	ct, ok := m.ColorTarget(id)
	return ct.Texture, ok
}

// Framebuffer resolves a pass target to a framebuffer handle. TargetScreen is
// the default framebuffer, 0.
func (m *TargetManager) Framebuffer(id TargetID) (uint32, bool) {
	switch id {
	case TargetScreen:
		return 0, true
	case TargetGBuffer:
		if m.gbuffer == nil {
			return 0, false
		}
		return m.gbuffer.Framebuffer, true
	}
	ct, ok := m.ColorTarget(id)
	return ct.Framebuffer, ok
}

// Release frees every target.
func (m *TargetManager) Release() {
	if m.gbuffer != nil {
		m.alloc.ReleaseGBuffer(*m.gbuffer)
		m.gbuffer = nil
	}
	m.releaseColor()
}

func (m *TargetManager) releaseColor() {
	for _, slot := range []**ColorTarget{&m.lighting, &m.atmosphere, &m.cloud} {
		if *slot != nil {
			m.alloc.ReleaseColorTarget(**slot)
			*slot = nil
		}
	}
}
