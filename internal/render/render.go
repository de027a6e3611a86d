// Package render defines the renderer-side contract the binding core
// drives: external streams, external-sampler textures and the consumer
// material. The renderer's internals are out of scope; the core only
// issues construction and binding calls against these interfaces.
package render

import (
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
)

// PixelFormat is the internal pixel format of an external texture.
type PixelFormat int

const (
	// FormatRGBA8 is the fixed format used for video textures.
	FormatRGBA8 PixelFormat = iota
)

// Filter is a texture sampling filter.
type Filter int

const (
	// FilterLinear is bilinear sampling.
	FilterLinear Filter = iota
	// FilterNearest is point sampling.
	FilterNearest
)

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	// WrapClampToEdge clamps coordinates to the texture edge.
	WrapClampToEdge Wrap = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// Sampler is an immutable sampler configuration published alongside a
// texture parameter.
type Sampler struct {
	Filter Filter
	Wrap   Wrap
}

// Stream is a renderer stream fed by a platform surface. Frames landing
// in the surface become texture updates without any CPU copy.
type Stream interface {
	// Destroy releases the stream. The surface outlives the stream and is
	// released separately.
	Destroy()
}

// Texture is an external-sampler texture: it samples directly from a
// platform-native buffer stream rather than from uploaded pixel data.
type Texture interface {
	// SetExternalStream attaches the stream the texture samples from.
	SetExternalStream(s Stream) error
	// Destroy releases the texture. Any material still referencing it
	// stops receiving updates; the reference is non-owning.
	Destroy()
}

// Engine constructs renderer-side resources. Construction failures are
// not locally recoverable and propagate to the caller.
type Engine interface {
	// NewStream wraps a detached platform surface in a renderer stream.
	NewStream(s platform.Surface) (Stream, error)
	// NewExternalTexture creates an external-sampler texture with the
	// given internal format.
	NewExternalTexture(format PixelFormat) (Texture, error)
}

// Material is the consumer of the published texture and aspect ratio.
// It holds only a non-owning reference to the texture.
type Material interface {
	// SetTextureParameter publishes a texture under a named parameter.
	SetTextureParameter(name string, tex Texture, s Sampler)
	// SetFloatParameter publishes a scalar under a named parameter.
	SetFloatParameter(name string, value float64)
}
