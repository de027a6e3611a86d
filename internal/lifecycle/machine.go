// Package lifecycle implements the open/close state machine for a single
// camera device handle.
//
// The machine owns the device and session handles exclusively and is the
// single synchronization point between the caller context (open/release
// commands) and the background worker (hardware callbacks). Each platform
// event maps to exactly one transition table entry, so the machine is
// testable without a real camera.
//
// Late callbacks from a superseded open attempt are detected by a
// generation counter: every BeginOpen bumps the generation, and every
// event handler ignores events carrying a stale generation.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
)

// State is the lifecycle state of a managed camera handle.
type State int

const (
	// Closed means no device is held. Terminal for a session; the only
	// state an open attempt may start from.
	Closed State = iota
	// Opening means an open was issued and the gate is held.
	Opening
	// Opened means the device handle is stored and the gate released.
	Opened
	// ConfiguringSession means capture-session negotiation is in flight.
	ConfiguringSession
	// Streaming means the repeating request is active and frames flow.
	Streaming
	// Error means a worker-side failure left the session unusable.
	// Terminal for a session; requires an explicit Release then re-open.
	Error
)

// String returns a human-readable string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Opened:
		return "opened"
	case ConfiguringSession:
		return "configuring-session"
	case Streaming:
		return "streaming"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a lifecycle transition trigger.
type Event int

const (
	// EventOpen starts an open attempt (gate already held).
	EventOpen Event = iota
	// EventOpened delivers the device handle.
	EventOpened
	// EventDisconnected reports platform device loss.
	EventDisconnected
	// EventError reports an unrecoverable device error.
	EventError
	// EventConfigure starts capture-session negotiation.
	EventConfigure
	// EventStreamStarted reports the repeating request is active.
	EventStreamStarted
	// EventFail marks a worker-side failure (binding construction etc).
	EventFail
	// EventRelease is the explicit teardown command.
	EventRelease
)

// String returns a human-readable string representation of the event.
func (e Event) String() string {
	switch e {
	case EventOpen:
		return "open"
	case EventOpened:
		return "opened"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "device-error"
	case EventConfigure:
		return "configure"
	case EventStreamStarted:
		return "stream-started"
	case EventFail:
		return "fail"
	case EventRelease:
		return "release"
	default:
		return "unknown"
	}
}

// transition describes the single table entry an event maps to.
type transition struct {
	from []State
	to   State
}

// transitions is the complete lifecycle transition table.
var transitions = map[Event]transition{
	EventOpen:          {from: []State{Closed}, to: Opening},
	EventOpened:        {from: []State{Opening}, to: Opened},
	EventDisconnected:  {from: []State{Opening, Opened, ConfiguringSession, Streaming}, to: Closed},
	EventError:         {from: []State{Opening, Opened, ConfiguringSession, Streaming}, to: Closed},
	EventConfigure:     {from: []State{Opened}, to: ConfiguringSession},
	EventStreamStarted: {from: []State{ConfiguringSession}, to: Streaming},
	EventFail:          {from: []State{Opening, Opened, ConfiguringSession, Streaming}, to: Error},
	EventRelease:       {from: []State{Closed, Opening, Opened, ConfiguringSession, Streaming, Error}, to: Closed},
}

// ErrNotClosed is returned by BeginOpen when the handle has not reached
// Closed since the previous session. The caller must Release first.
var ErrNotClosed = errors.New("lifecycle: camera handle not closed")

// Handle identifies one live device handle. The generation counter
// detects late callbacks from a superseded open attempt.
type Handle struct {
	ID         string
	Generation uint64
}

// Machine is the lifecycle state machine for one camera handle.
//
// Thread-safety: all methods are safe for concurrent use. BeginOpen may
// block up to the gate timeout; everything else is non-blocking apart
// from the platform Close calls made while tearing down.
type Machine struct {
	gate *Gate

	mu         sync.Mutex
	state      State
	gateHeld   bool
	generation uint64
	handle     *Handle // nil while no device is held
	device     platform.Device
	session    platform.CaptureSession
}

// NewMachine creates a machine in the Closed state with a fresh gate.
func NewMachine(gateTimeout time.Duration) *Machine {
	return &Machine{
		gate:  NewGate(gateTimeout),
		state: Closed,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Generation returns the current open-attempt generation.
func (m *Machine) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// DeviceIfCurrent returns the held device when gen is still the live
// generation, nil otherwise. The nil return is how session callbacks
// detect a race with teardown and abort silently.
func (m *Machine) DeviceIfCurrent(gen uint64) platform.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil || m.handle.Generation != gen {
		return nil
	}
	return m.device
}

// BeginOpen acquires the gate within the bounded wait and moves
// Closed -> Opening. Returns the generation of the new attempt.
//
// Two concurrent BeginOpen calls contend on the gate: exactly one
// proceeds, the other waits up to the bound and fails with
// ErrGateTimeout. A call after a previous session that never reached
// Closed fails with ErrNotClosed.
func (m *Machine) BeginOpen() (uint64, error) {
	if err := m.gate.Acquire(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Closed {
		m.gate.TryRelease()
		return 0, fmt.Errorf("%w (state %s)", ErrNotClosed, m.state)
	}

	m.gateHeld = true
	m.generation++
	m.apply(EventOpen)
	return m.generation, nil
}

// AbortOpen reverts Opening -> Closed after a synchronous open failure.
// No-op when gen is stale.
func (m *Machine) AbortOpen(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state != Opening {
		return
	}
	m.apply(EventDisconnected)
	m.releaseGateLocked()
}

// HandleOpened stores the device handle, releases the gate and moves
// Opening -> Opened. Reports false for a stale generation, in which case
// the caller owns closing the late device.
func (m *Machine) HandleOpened(gen uint64, dev platform.Device) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state != Opening {
		slog.Debug("lifecycle: ignoring opened callback for superseded attempt",
			"generation", gen,
			"current_generation", m.generation,
			"state", m.state.String(),
		)
		return false
	}

	m.apply(EventOpened)
	m.device = dev
	m.handle = &Handle{ID: uuid.NewString(), Generation: gen}
	m.releaseGateLocked()
	slog.Info("lifecycle: device handle stored",
		"handle_id", m.handle.ID,
		"device", dev.ID(),
		"generation", gen,
	)
	return true
}

// HandleID returns the identifier of the live device handle, empty when no
// device is held. Stable for the duration of one open attempt, so log
// lines and Stats snapshots carrying it are correlatable.
func (m *Machine) HandleID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return ""
	}
	return m.handle.ID
}

// HandleDisconnected recovers to Closed: closes and clears the device
// handle and releases the gate if this attempt still held it. There is no
// automatic retry; the caller must re-invoke the open. Reports whether
// the event was current.
func (m *Machine) HandleDisconnected(gen uint64) bool {
	return m.dropDevice(gen, EventDisconnected)
}

// HandleError treats a device error as a disconnect. Reports whether the
// event was current so the caller can escalate the fatal signal exactly
// once.
func (m *Machine) HandleError(gen uint64) bool {
	return m.dropDevice(gen, EventError)
}

// BeginConfiguring moves Opened -> ConfiguringSession. Reports false for
// a stale generation or wrong state.
func (m *Machine) BeginConfiguring(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state != Opened {
		return false
	}
	m.apply(EventConfigure)
	return true
}

// HandleStreamStarted stores the active session and moves
// ConfiguringSession -> Streaming. Reports false for a stale generation,
// in which case the caller owns closing the late session.
func (m *Machine) HandleStreamStarted(gen uint64, sess platform.CaptureSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state != ConfiguringSession {
		return false
	}
	m.apply(EventStreamStarted)
	m.session = sess
	return true
}

// Fail moves a live state to Error after a worker-side failure (for
// example renderer resource construction). The device and session are
// torn down; the caller must Release before any new open.
func (m *Machine) Fail(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || !m.isLiveLocked() {
		return false
	}
	m.apply(EventFail)
	m.teardownLocked()
	m.releaseGateLocked()
	return true
}

// Release is the explicit teardown command: closes the session and device
// and moves to Closed from any state.
//
// Precondition: must not be invoked concurrently with an in-flight
// BeginOpen on the caller context; the gate does not protect that case.
func (m *Machine) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Closed && m.handle == nil {
		return
	}
	if m.handle != nil {
		slog.Debug("lifecycle: releasing device handle", "handle_id", m.handle.ID)
	}
	m.apply(EventRelease)
	m.teardownLocked()
	m.releaseGateLocked()
	// Invalidate any callbacks still queued for the torn-down attempt.
	m.generation++
}

// dropDevice applies a disconnect-class event and clears the handle.
func (m *Machine) dropDevice(gen uint64, ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || !m.isLiveLocked() {
		slog.Debug("lifecycle: ignoring stale device event",
			"event", ev.String(),
			"generation", gen,
			"current_generation", m.generation,
			"state", m.state.String(),
		)
		return false
	}

	if m.handle != nil {
		slog.Info("lifecycle: dropping device handle",
			"event", ev.String(),
			"handle_id", m.handle.ID,
			"generation", gen,
		)
	}
	m.apply(ev)
	m.teardownLocked()
	m.releaseGateLocked()
	return true
}

// isLiveLocked reports whether the state admits device events.
func (m *Machine) isLiveLocked() bool {
	switch m.state {
	case Opening, Opened, ConfiguringSession, Streaming:
		return true
	default:
		return false
	}
}

// teardownLocked closes and clears the session and device handles in
// reverse acquisition order.
func (m *Machine) teardownLocked() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	if m.device != nil {
		m.device.Close()
		m.device = nil
	}
	m.handle = nil
}

// releaseGateLocked returns the permit at most once per open attempt.
func (m *Machine) releaseGateLocked() {
	if !m.gateHeld {
		return
	}
	m.gateHeld = false
	if !m.gate.TryRelease() {
		slog.Error("lifecycle: gate permit already free on release, this is a bug")
	}
}

// apply performs the single transition table entry for ev. Invalid
// transitions indicate a bug in the caller's guards and are logged, not
// propagated.
func (m *Machine) apply(ev Event) {
	tr, ok := transitions[ev]
	if !ok {
		slog.Error("lifecycle: unknown event", "event", ev)
		return
	}
	for _, s := range tr.from {
		if m.state == s {
			slog.Debug("lifecycle: transition",
				"event", ev.String(),
				"from", m.state.String(),
				"to", tr.to.String(),
			)
			m.state = tr.to
			return
		}
	}
	slog.Error("lifecycle: invalid transition",
		"event", ev.String(),
		"state", m.state.String(),
	)
}
