package camerabinding

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/lifecycle"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/session"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/texture"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/worker"
)

// Sentinel results of OpenCamera.
var (
	// ErrPermissionPending means the camera permission is not granted
	// yet: a permission request was issued instead of an open, state is
	// unchanged, and the call should be re-issued once the permission
	// flow completes. A deferral, not a failure.
	ErrPermissionPending = errors.New("camera-binding: camera permission pending")

	// ErrNotActive means the background execution context is not
	// running; call OnResume first.
	ErrNotActive = errors.New("camera-binding: background context not active")
)

// Platform bundles the host-side collaborators a feed consumes.
type Platform struct {
	Camera      System
	Permissions Permissions
	Display     Display
}

// Renderer bundles the renderer-side collaborators a feed drives.
type Renderer struct {
	Engine   Engine
	Material Material
}

// CameraFeed implements Feed: it bridges one camera device into the
// renderer's texture pipeline with no CPU-side pixel copy.
//
// Two execution contexts touch a feed: the caller context (OpenCamera,
// OnResume/OnPause, State) and one dedicated background worker that
// receives every asynchronous platform callback. Cross-context state
// lives behind the lifecycle machine's lock; the caller never observes a
// torn binding.
type CameraFeed struct {
	cfg  Config
	plat Platform
	rend Renderer

	machine *lifecycle.Machine
	binder  *texture.Binder
	coord   *session.Coordinator

	mu            sync.Mutex
	wrk           *worker.Worker
	binding       *texture.StreamBinding
	pendingRes    platform.Resolution
	pendingAspect float64

	// Statistics (atomic for thread-safety)
	opens             atomic.Uint64
	binds             atomic.Uint64
	disconnects       atomic.Uint64
	deviceErrors      atomic.Uint64
	configureFailures atomic.Uint64
}

var _ Feed = (*CameraFeed)(nil)

// New creates a CameraFeed with fail-fast validation of the configuration
// and collaborators. The feed starts inactive and Closed; call OnResume
// before OpenCamera.
func New(cfg Config, p Platform, r Renderer) (*CameraFeed, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if p.Camera == nil {
		return nil, fmt.Errorf("camera-binding: camera system is required")
	}
	if p.Permissions == nil {
		return nil, fmt.Errorf("camera-binding: permission subsystem is required")
	}
	if p.Display == nil {
		return nil, fmt.Errorf("camera-binding: display is required")
	}

	binder, err := texture.NewBinder(p.Camera, r.Engine, r.Material)
	if err != nil {
		return nil, fmt.Errorf("camera-binding: %w", err)
	}

	f := &CameraFeed{
		cfg:     cfg,
		plat:    p,
		rend:    r,
		machine: lifecycle.NewMachine(cfg.GateTimeout),
		binder:  binder,
	}
	f.coord = &session.Coordinator{
		Resolve:     f.machine.DeviceIfCurrent,
		OnStreaming: f.handleStreaming,
		OnFailed:    f.handleConfigureFailed,
	}

	slog.Info("camera-binding: feed created",
		"gate_timeout", cfg.GateTimeout,
		"queue_size", cfg.QueueSize,
	)
	return f, nil
}

// OnResume activates the background execution context: one dedicated
// worker goroutine receiving all platform callbacks for this feed.
// Must alternate strictly with OnPause.
func (f *CameraFeed) OnResume() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.wrk != nil {
		return fmt.Errorf("camera-binding: already active")
	}
	f.wrk = worker.New(f.cfg.QueueSize)
	slog.Debug("camera-binding: background context started")
	return nil
}

// OnPause deactivates the feed. The worker is signalled, drained and
// joined before any state is torn down, so no callback ever executes
// against state being destroyed. Idempotent: calling it while already
// inactive is a no-op.
func (f *CameraFeed) OnPause() {
	f.mu.Lock()
	w := f.wrk
	f.wrk = nil
	f.mu.Unlock()

	if w == nil {
		slog.Debug("camera-binding: already inactive, nothing to pause")
		return
	}

	// Quiesce first: after Close returns, the worker has fully exited.
	w.Close()

	f.machine.Release()
	f.releaseBinding()
	slog.Info("camera-binding: deactivated", "state", f.machine.State().String())
}

// Release tears down the session, device and stream binding and returns
// the lifecycle to Closed without deactivating the worker.
//
// Precondition: must not run concurrently with an in-flight OpenCamera on
// the caller context; the gate does not protect that case.
func (f *CameraFeed) Release() {
	f.machine.Release()
	f.releaseBinding()
}

// OpenCamera chooses a device, selects its operating resolution and
// issues the platform open. See Feed.OpenCamera for the outcome
// contract. Blocks at most the configured gate timeout.
func (f *CameraFeed) OpenCamera() error {
	f.mu.Lock()
	w := f.wrk
	f.mu.Unlock()
	if w == nil {
		return ErrNotActive
	}

	if !f.plat.Permissions.Granted(PermissionCamera) {
		f.plat.Permissions.Request([]string{PermissionCamera}, f.cfg.PermissionCode)
		slog.Info("camera-binding: open deferred, permission requested",
			"request_code", f.cfg.PermissionCode,
		)
		return ErrPermissionPending
	}

	descs, err := f.plat.Camera.Descriptors()
	if err != nil {
		return fmt.Errorf("camera-binding: device enumeration failed: %w", err)
	}
	desc, err := ChooseDescriptor(descs)
	if err != nil {
		return err
	}
	res, err := SelectResolution(desc.Sizes)
	if err != nil {
		return err
	}
	aspect := AspectRatio(res, f.plat.Display.Landscape())

	gen, err := f.machine.BeginOpen()
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.pendingRes = res
	f.pendingAspect = aspect
	f.mu.Unlock()

	obs := &deviceObserver{feed: f, gen: gen}
	if err := f.plat.Camera.Open(desc.ID, obs, w); err != nil {
		f.machine.AbortOpen(gen)
		return fmt.Errorf("camera-binding: device open failed: %w", err)
	}

	f.opens.Add(1)
	slog.Info("camera-binding: opening device",
		"id", desc.ID,
		"facing", desc.Facing.String(),
		"resolution", res.String(),
		"aspect_ratio", aspect,
	)
	return nil
}

// OnRequestPermissionsResult consumes the host's asynchronous permission
// result when the request code matches. The caller re-invokes OpenCamera
// after a grant; denial leaves the feed Closed.
func (f *CameraFeed) OnRequestPermissionsResult(requestCode int, grantResults []bool) bool {
	if requestCode != f.cfg.PermissionCode {
		return false
	}

	granted := len(grantResults) > 0
	for _, g := range grantResults {
		if !g {
			granted = false
			break
		}
	}

	if granted {
		slog.Info("camera-binding: camera permission granted, re-invoke OpenCamera")
	} else {
		slog.Warn("camera-binding: camera permission denied")
	}
	return true
}

// State returns the current lifecycle state.
func (f *CameraFeed) State() State { return f.machine.State() }

// Stats returns a snapshot of feed counters.
func (f *CameraFeed) Stats() FeedStats {
	f.mu.Lock()
	active := f.wrk != nil
	f.mu.Unlock()

	return FeedStats{
		State:             f.machine.State(),
		Active:            active,
		HandleID:          f.machine.HandleID(),
		Opens:             f.opens.Load(),
		Binds:             f.binds.Load(),
		Disconnects:       f.disconnects.Load(),
		DeviceErrors:      f.deviceErrors.Load(),
		ConfigureFailures: f.configureFailures.Load(),
	}
}

// releaseBinding drops the current stream binding, if any.
func (f *CameraFeed) releaseBinding() {
	f.mu.Lock()
	b := f.binding
	f.binding = nil
	f.mu.Unlock()

	if b != nil {
		b.Release()
	}
}

// deviceObserver forwards device events for one open attempt. All methods
// run on the background worker.
type deviceObserver struct {
	feed *CameraFeed
	gen  uint64
}

func (o *deviceObserver) OnOpened(dev Device) { o.feed.handleOpened(o.gen, dev) }
func (o *deviceObserver) OnDisconnected()     { o.feed.handleDisconnected(o.gen) }
func (o *deviceObserver) OnError(code int)    { o.feed.handleDeviceError(o.gen, code) }

// handleOpened stores the device, constructs the GPU binding and kicks
// off session configuration. Runs on the worker.
func (f *CameraFeed) handleOpened(gen uint64, dev Device) {
	if !f.machine.HandleOpened(gen, dev) {
		// Opened after teardown: the machine never owned this handle.
		dev.Close()
		return
	}

	f.mu.Lock()
	res := f.pendingRes
	aspect := f.pendingAspect
	w := f.wrk
	f.mu.Unlock()

	if w == nil {
		// Deactivation is in progress; OnPause's release closes the
		// device once the drain completes.
		return
	}

	binding, err := f.binder.Bind(res, aspect)
	if err != nil {
		// Renderer-side construction failure is not recoverable here.
		// Never thrown across the context boundary: it becomes the
		// Error state plus this log record.
		slog.Error("camera-binding: stream binding failed", "error", err)
		f.machine.Fail(gen)
		return
	}

	f.mu.Lock()
	f.binding = binding
	f.mu.Unlock()
	f.binds.Add(1)

	if !f.machine.BeginConfiguring(gen) {
		f.releaseBinding()
		return
	}
	if err := f.coord.Start(dev, gen, binding.Surface(), w); err != nil {
		slog.Error("camera-binding: session start failed", "error", err)
		f.machine.Fail(gen)
		f.releaseBinding()
	}
}

// handleDisconnected recovers to Closed. No automatic retry; the caller
// must re-invoke OpenCamera. Runs on the worker.
func (f *CameraFeed) handleDisconnected(gen uint64) {
	if !f.machine.HandleDisconnected(gen) {
		return
	}
	f.disconnects.Add(1)
	f.releaseBinding()
	slog.Warn("camera-binding: device disconnected", "generation", gen)
}

// handleDeviceError treats a device error as a disconnect plus a fatal
// escalation to the hosting context. Runs on the worker.
func (f *CameraFeed) handleDeviceError(gen uint64, code int) {
	if !f.machine.HandleError(gen) {
		return
	}
	f.deviceErrors.Add(1)
	f.releaseBinding()
	slog.Error("camera-binding: device error, session unrecoverable",
		"generation", gen,
		"code", code,
	)
	if f.cfg.OnDeviceFatal != nil {
		f.cfg.OnDeviceFatal(code)
	}
}

// handleStreaming records the active session once the repeating request
// is flowing. Runs on the worker.
func (f *CameraFeed) handleStreaming(gen uint64, sess CaptureSession) {
	if !f.machine.HandleStreamStarted(gen, sess) {
		// Race with teardown; the session has no owner anymore.
		sess.Close()
		return
	}
	slog.Info("camera-binding: streaming", "generation", gen)
}

// handleConfigureFailed counts a failed session configuration. The state
// is left in place; the caller may Release and re-attempt a full
// OpenCamera cycle. Runs on the worker.
func (f *CameraFeed) handleConfigureFailed(gen uint64, reason string) {
	f.configureFailures.Add(1)
	slog.Warn("camera-binding: session configuration failed",
		"generation", gen,
		"reason", reason,
	)
}
