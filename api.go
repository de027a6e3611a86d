package camerabinding

import (
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/lifecycle"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/render"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/texture"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/worker"
)

// Public API - Re-export internal types as stable contract

// Resolution is one camera output size.
type Resolution = platform.Resolution

// CameraDescriptor describes one enumerated camera device.
type CameraDescriptor = platform.Descriptor

// Facing describes which way a camera points.
type Facing = platform.Facing

const (
	// FacingBack is the world-facing camera.
	FacingBack = platform.FacingBack
	// FacingFront is the user-facing camera.
	FacingFront = platform.FacingFront
	// FacingExternal is a detachable camera.
	FacingExternal = platform.FacingExternal
)

// Camera platform contract, implemented by adapters (see internal/gstcam
// for the GStreamer-backed one) or by test fakes.
type (
	// System is the entry point into the host camera stack.
	System = platform.System
	// Device is an open camera device handle.
	Device = platform.Device
	// CaptureSession is a configured capture session.
	CaptureSession = platform.CaptureSession
	// Request is an immutable capture instruction.
	Request = platform.Request
	// RequestBuilder assembles a Request.
	RequestBuilder = platform.RequestBuilder
	// Surface is a platform buffer surface frames land in.
	Surface = platform.Surface
	// DeviceObserver receives device state events on the worker queue.
	DeviceObserver = platform.DeviceObserver
	// SessionObserver receives session negotiation events on the worker queue.
	SessionObserver = platform.SessionObserver
	// Queue is the single-consumer execution context callbacks run on.
	Queue = platform.Queue
	// Permissions is the host permission subsystem.
	Permissions = platform.Permissions
	// Display reports the host UI orientation.
	Display = platform.Display
)

// Template selects the base capture request configuration.
type Template = platform.Template

const (
	// TemplateRecord is the continuous-recording template.
	TemplateRecord = platform.TemplateRecord
	// TemplatePreview is a lower-latency preview template.
	TemplatePreview = platform.TemplatePreview
)

// AutofocusMode selects the focus control applied to a capture request.
type AutofocusMode = platform.AutofocusMode

const (
	// AutofocusOff disables autofocus.
	AutofocusOff = platform.AutofocusOff
	// AutofocusContinuousVideo is the fixed continuous-autofocus mode.
	AutofocusContinuousVideo = platform.AutofocusContinuousVideo
)

// PermissionCamera is the camera access permission identifier.
const PermissionCamera = platform.PermissionCamera

// Renderer contract, implemented by the consuming engine.
type (
	// Engine constructs renderer-side resources.
	Engine = render.Engine
	// Material consumes the published texture and aspect ratio.
	Material = render.Material
	// Texture is an external-sampler texture.
	Texture = render.Texture
	// Stream is a renderer stream fed by a platform surface.
	Stream = render.Stream
	// Sampler is an immutable sampler configuration.
	Sampler = render.Sampler
	// PixelFormat is the internal pixel format of an external texture.
	PixelFormat = render.PixelFormat
)

const (
	// FormatRGBA8 is the fixed video texture format.
	FormatRGBA8 = render.FormatRGBA8
	// FilterLinear is bilinear sampling.
	FilterLinear = render.FilterLinear
	// WrapClampToEdge clamps coordinates to the texture edge.
	WrapClampToEdge = render.WrapClampToEdge
)

// StreamBinding owns the surface -> stream -> texture chain of one bind.
type StreamBinding = texture.StreamBinding

// Material parameter names published by a successful bind.
const (
	// ParamVideoTexture receives the external-sampler texture.
	ParamVideoTexture = texture.ParamVideoTexture
	// ParamAspectRatio receives the signed aspect ratio.
	ParamAspectRatio = texture.ParamAspectRatio
)

// State is the lifecycle state of the managed camera handle.
type State = lifecycle.State

const (
	// StateClosed means no device is held; the only state an open may
	// start from.
	StateClosed = lifecycle.Closed
	// StateOpening means an open is in flight and the gate is held.
	StateOpening = lifecycle.Opening
	// StateOpened means the device handle is stored.
	StateOpened = lifecycle.Opened
	// StateConfiguringSession means session negotiation is in flight.
	StateConfiguringSession = lifecycle.ConfiguringSession
	// StateStreaming means the repeating request is active.
	StateStreaming = lifecycle.Streaming
	// StateError means a worker-side failure left the session unusable;
	// Release is required before a new open.
	StateError = lifecycle.Error
)

// Public API errors - Re-export internal errors as stable contract
var (
	// ErrGateTimeout means the exclusivity gate was not acquired within
	// the bounded wait. Fatal for that OpenCamera call only.
	ErrGateTimeout = lifecycle.ErrGateTimeout
	// ErrNotClosed means the handle has not reached Closed since the
	// previous session; Release first.
	ErrNotClosed = lifecycle.ErrNotClosed
	// ErrWorkerClosed is returned by the queue after deactivation.
	ErrWorkerClosed = worker.ErrClosed
	// ErrQueueFull means the bounded callback queue rejected a job.
	ErrQueueFull = worker.ErrQueueFull
)
