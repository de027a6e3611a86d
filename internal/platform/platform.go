// Package platform defines the contract between the binding core and the
// host camera stack: device enumeration, device open, capture sessions,
// buffer surfaces, permissions and display orientation.
//
// The binding core never talks to hardware directly. Production deployments
// provide an adapter (see internal/gstcam); tests provide in-memory fakes.
package platform

import "fmt"

// Facing describes which way a camera points.
type Facing int

const (
	// FacingBack is the world-facing camera (preferred for capture).
	FacingBack Facing = iota
	// FacingFront is the user-facing camera.
	FacingFront
	// FacingExternal is a detachable camera (USB webcam etc).
	FacingExternal
)

// String returns a human-readable string representation of the facing.
func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	case FacingExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Resolution is one advertised camera output size.
type Resolution struct {
	Width  int
	Height int
}

// Area returns the pixel area of the resolution.
func (r Resolution) Area() int { return r.Width * r.Height }

// String returns the resolution as "WxH".
func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// Descriptor describes one enumerated camera device. Immutable once queried.
type Descriptor struct {
	// ID is the platform identifier used to open the device.
	ID string
	// Facing is the camera direction.
	Facing Facing
	// Sizes is the ordered set of supported output sizes. An empty set
	// means the device's configuration map was unavailable; callers skip
	// such devices and fall through to the next one.
	Sizes []Resolution
}

// Queue is a single-consumer execution context. All asynchronous platform
// callbacks for a device are dispatched through one Queue, which guarantees
// in-order, non-concurrent delivery.
//
// Implemented by internal/worker.Worker.
type Queue interface {
	// Submit enqueues fn for execution. Returns an error if the queue has
	// been closed or is full; fn is not run in that case.
	Submit(fn func()) error
}

// DeviceObserver receives device-level state events. All methods are
// invoked on the Queue passed to System.Open, never inline.
type DeviceObserver interface {
	// OnOpened delivers the opened device handle.
	OnOpened(dev Device)
	// OnDisconnected reports that the platform lost the device.
	OnDisconnected()
	// OnError reports an unrecoverable hardware/driver error.
	OnError(code int)
}

// SessionObserver receives capture-session negotiation events on the Queue
// passed to Device.CreateSession.
type SessionObserver interface {
	// OnConfigured reports that the session is ready to accept requests.
	OnConfigured(sess CaptureSession)
	// OnConfigureFailed reports that session negotiation failed.
	OnConfigureFailed(reason string)
}

// System is the entry point into the host camera stack.
type System interface {
	// Descriptors enumerates the available camera devices.
	Descriptors() ([]Descriptor, error)

	// Open asynchronously opens the device with the given ID. The result
	// (opened, disconnected or error) arrives on q via obs. A synchronous
	// error means the open was never issued.
	Open(id string, obs DeviceObserver, q Queue) error

	// NewSurface allocates a buffer surface sized to res. The surface is
	// the sink for captured frames and the source for the renderer stream.
	NewSurface(res Resolution) (Surface, error)
}

// Surface is a platform buffer surface that camera frames land in.
type Surface interface {
	// Resolution returns the size the surface was allocated with.
	Resolution() Resolution

	// DetachFromGraphicsContext releases the surface from any default
	// graphics context ownership so the renderer's own context can
	// consume it. Must be called before the surface is wrapped in a
	// renderer stream.
	DetachFromGraphicsContext() error

	// Release frees the surface. No frames are delivered afterwards.
	Release()
}

// Template selects the base capture request configuration.
type Template int

const (
	// TemplateRecord is the continuous-recording template used for the
	// steady frame stream.
	TemplateRecord Template = iota
	// TemplatePreview is a lower-latency preview template.
	TemplatePreview
)

// AutofocusMode selects the focus control applied to a capture request.
type AutofocusMode int

const (
	// AutofocusOff disables autofocus.
	AutofocusOff AutofocusMode = iota
	// AutofocusContinuousVideo is the fixed continuous-autofocus mode
	// used for video capture.
	AutofocusContinuousVideo
)

// Request is an immutable capture instruction. A repeating request is
// resubmitted continuously by the platform until replaced or the session
// closes.
type Request interface {
	// Template returns the template the request was built from.
	Template() Template
}

// RequestBuilder assembles a Request. Not safe for concurrent use.
type RequestBuilder interface {
	// AddTarget adds a surface the request delivers frames to.
	AddTarget(s Surface)
	// SetAutofocus sets the focus control.
	SetAutofocus(mode AutofocusMode)
	// Build finalizes the request. The builder must not be reused.
	Build() Request
}

// Device is an open camera device handle. Exclusively owned by the
// lifecycle manager; closed exactly once.
type Device interface {
	// ID returns the platform identifier the device was opened with.
	ID() string

	// NewRequest returns a builder seeded from the given template.
	NewRequest(t Template) RequestBuilder

	// CreateSession asynchronously negotiates a capture session targeting
	// the given surfaces. The outcome arrives on q via obs.
	CreateSession(surfaces []Surface, obs SessionObserver, q Queue) error

	// Close releases the device. Safe to call once; pending callbacks for
	// the device may still be in flight on the queue and must be guarded
	// by the caller's generation check.
	Close()
}

// CaptureSession is a configured capture session.
type CaptureSession interface {
	// SetRepeating submits req as the session's repeating request,
	// producing a steady frame stream until the session closes.
	SetRepeating(req Request) error
	// Close stops the stream and releases the session.
	Close()
}

// PermissionCamera is the camera access permission identifier.
const PermissionCamera = "camera"

// Permissions is the host permission subsystem.
type Permissions interface {
	// Granted reports whether the permission is currently granted.
	Granted(permission string) bool
	// Request issues an asynchronous permission request. The result is
	// delivered back to the host, which forwards it to the binding via
	// OnRequestPermissionsResult.
	Request(permissions []string, requestCode int)
}

// Display reports the host UI orientation. Used only to sign the
// published aspect ratio.
type Display interface {
	Landscape() bool
}
