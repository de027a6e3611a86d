// Package texture constructs the GPU-side artifacts that turn a platform
// buffer surface into a material-sampled video texture.
package texture

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/render"
)

// Material parameter names the binder publishes to.
const (
	// ParamVideoTexture receives the external-sampler texture.
	ParamVideoTexture = "videoTexture"
	// ParamAspectRatio receives the signed aspect ratio.
	ParamAspectRatio = "aspectRatio"
)

// videoSampler is the fixed sampler published with the video texture.
var videoSampler = render.Sampler{
	Filter: render.FilterLinear,
	Wrap:   render.WrapClampToEdge,
}

// StreamBinding owns, in construction order, a platform buffer surface, a
// renderer stream wrapping it and an external-sampler texture fed by the
// stream. The consumer material holds only a non-owning reference to the
// texture.
type StreamBinding struct {
	surface  platform.Surface
	stream   render.Stream
	tex      render.Texture
	released atomic.Bool
}

// Surface returns the platform surface frames are captured into. Valid as
// a capture-session target for the lifetime of the binding.
func (b *StreamBinding) Surface() platform.Surface { return b.surface }

// Release destroys the chain in reverse construction order: texture,
// stream, surface. Idempotent. Destroying the texture revokes the
// material's non-owning reference.
func (b *StreamBinding) Release() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.tex != nil {
		b.tex.Destroy()
	}
	if b.stream != nil {
		b.stream.Destroy()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	slog.Debug("texture: stream binding released")
}

// Binder builds StreamBindings against one engine/material pair.
type Binder struct {
	system   platform.System
	engine   render.Engine
	material render.Material
}

// NewBinder creates a binder. All three collaborators are required.
func NewBinder(sys platform.System, eng render.Engine, mat render.Material) (*Binder, error) {
	if sys == nil {
		return nil, fmt.Errorf("texture: platform system is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("texture: render engine is required")
	}
	if mat == nil {
		return nil, fmt.Errorf("texture: consumer material is required")
	}
	return &Binder{system: sys, engine: eng, material: mat}, nil
}

// Bind allocates the surface, builds the stream and texture on top of it
// and publishes the texture plus the signed aspect ratio to the material.
// Each step is a precondition for the next; on failure everything built
// so far is released and the error propagates to the caller.
//
// The publish is the single side-effecting boundary visible to the
// renderer: exactly one ParamVideoTexture and one ParamAspectRatio write
// per successful call. After Bind returns, frames landing in the surface
// reach the material asynchronously with no further signaling.
func (b *Binder) Bind(res platform.Resolution, aspect float64) (*StreamBinding, error) {
	surface, err := b.system.NewSurface(res)
	if err != nil {
		return nil, fmt.Errorf("texture: surface allocation failed: %w", err)
	}

	// The renderer's own context consumes the surface; it must not stay
	// owned by the default graphics context.
	if err := surface.DetachFromGraphicsContext(); err != nil {
		surface.Release()
		return nil, fmt.Errorf("texture: surface detach failed: %w", err)
	}

	stream, err := b.engine.NewStream(surface)
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("texture: stream construction failed: %w", err)
	}

	tex, err := b.engine.NewExternalTexture(render.FormatRGBA8)
	if err != nil {
		stream.Destroy()
		surface.Release()
		return nil, fmt.Errorf("texture: texture construction failed: %w", err)
	}

	if err := tex.SetExternalStream(stream); err != nil {
		tex.Destroy()
		stream.Destroy()
		surface.Release()
		return nil, fmt.Errorf("texture: stream attach failed: %w", err)
	}

	b.material.SetTextureParameter(ParamVideoTexture, tex, videoSampler)
	b.material.SetFloatParameter(ParamAspectRatio, aspect)

	slog.Info("texture: stream binding published",
		"resolution", res.String(),
		"aspect_ratio", aspect,
	)

	return &StreamBinding{surface: surface, stream: stream, tex: tex}, nil
}
