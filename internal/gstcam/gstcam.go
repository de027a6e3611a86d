// Package gstcam implements the platform camera contract on top of
// GStreamer V4L2 capture (via go-gst). It is the production adapter for
// Linux deployments: each configured /dev/video* device becomes an
// enumerable camera, a capture session becomes a live pipeline and a
// surface becomes an appsink frames are delivered to.
//
// Requires the gstreamer1.0 runtime with the good plugin set (v4l2src).
package gstcam

import (
	"fmt"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
)

// Size is one advertised output size in a device spec.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DeviceSpec describes one V4L2 device to expose. V4L2 has no portable
// facing or size negotiation query, so deployments declare both.
type DeviceSpec struct {
	// Path is the device node, e.g. /dev/video0. Doubles as the ID.
	Path string `yaml:"path"`
	// Facing is "back", "front" or "external".
	Facing string `yaml:"facing"`
	// Sizes lists the output sizes the device supports.
	Sizes []Size `yaml:"sizes"`
}

// ParseFacing maps a spec facing string to the platform enum. Unknown
// strings map to external, the common case for V4L2 webcams.
func ParseFacing(s string) platform.Facing {
	switch s {
	case "back":
		return platform.FacingBack
	case "front":
		return platform.FacingFront
	default:
		return platform.FacingExternal
	}
}

func (d DeviceSpec) descriptor() platform.Descriptor {
	sizes := make([]platform.Resolution, 0, len(d.Sizes))
	for _, s := range d.Sizes {
		sizes = append(sizes, platform.Resolution{Width: s.Width, Height: s.Height})
	}
	return platform.Descriptor{
		ID:     d.Path,
		Facing: ParseFacing(d.Facing),
		Sizes:  sizes,
	}
}

// System exposes a fixed set of configured V4L2 devices as a
// platform.System.
type System struct {
	mu    sync.Mutex
	specs map[string]DeviceSpec
	order []string
}

// NewSystem initializes GStreamer and validates the device specs.
// Fail-fast: an empty or duplicated spec set is a configuration error.
func NewSystem(specs []DeviceSpec) (*System, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("gstcam: no camera devices configured")
	}

	s := &System{specs: make(map[string]DeviceSpec, len(specs))}
	for _, spec := range specs {
		if spec.Path == "" {
			return nil, fmt.Errorf("gstcam: device spec without a path")
		}
		if _, dup := s.specs[spec.Path]; dup {
			return nil, fmt.Errorf("gstcam: duplicate device path %q", spec.Path)
		}
		s.specs[spec.Path] = spec
		s.order = append(s.order, spec.Path)
	}

	// Safe to call multiple times.
	gst.Init(nil)
	return s, nil
}

// Descriptors enumerates the configured devices in declaration order.
func (s *System) Descriptors() ([]platform.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	descs := make([]platform.Descriptor, 0, len(s.order))
	for _, path := range s.order {
		descs = append(descs, s.specs[path].descriptor())
	}
	return descs, nil
}

// Open resolves the device spec and delivers the opened handle on q. A
// synchronous error means the open was never issued; actual device access
// happens at session creation, so open failures for a present node
// surface later as device errors.
func (s *System) Open(id string, obs platform.DeviceObserver, q platform.Queue) error {
	s.mu.Lock()
	spec, ok := s.specs[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("gstcam: unknown device %q", id)
	}

	dev := &Device{spec: spec, obs: obs, q: q}
	if err := q.Submit(func() { obs.OnOpened(dev) }); err != nil {
		return fmt.Errorf("gstcam: delivering open result: %w", err)
	}
	return nil
}

// NewSurface allocates an appsink-backed surface. The sink keeps only the
// latest frame and drops older ones so a slow consumer never builds up
// latency.
func (s *System) NewSurface(res platform.Resolution) (platform.Surface, error) {
	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)
	sink.SetProperty("qos", true)

	return &Surface{res: res, sink: sink}, nil
}

// Surface is an appsink-backed frame sink. The owning pipeline consumes
// the sink element when a session is created over this surface.
type Surface struct {
	res  platform.Resolution
	sink *app.Sink
}

// Resolution returns the size the surface was allocated with.
func (s *Surface) Resolution() platform.Resolution { return s.res }

// DetachFromGraphicsContext is a no-op: V4L2 surfaces are never owned by
// a default graphics context.
func (s *Surface) DetachFromGraphicsContext() error { return nil }

// Release frees the surface. The sink element itself is torn down with
// the owning pipeline; nothing to do when no session ever consumed it.
func (s *Surface) Release() {}

// Sink exposes the appsink for pipeline assembly and for renderer
// adapters that pull frames from it.
func (s *Surface) Sink() *app.Sink { return s.sink }
