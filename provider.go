package camerabinding

// Feed defines the contract for a camera-to-renderer texture binding
//
// Implementations must guarantee:
//   - OpenCamera() blocks at most the configured gate timeout
//   - OnResume()/OnPause() are called in strict alternation by one caller
//   - OnPause() when already inactive is a safe no-op
//   - State() and Stats() are thread-safe (any goroutine)
//   - no platform callback runs after OnPause() returns
type Feed interface {
	// OpenCamera starts the open -> bind -> stream sequence for the
	// chosen camera device.
	//
	// The call returns before the device is open; progress is observable
	// via State(). Outcomes:
	//   - nil: open issued, callbacks will drive the lifecycle forward
	//   - ErrPermissionPending: permission request issued instead, state
	//     unchanged; re-invoke after the permission flow completes
	//   - ErrGateTimeout: another open/close attempt holds the gate;
	//     fatal for this call only
	//   - ErrNotClosed: previous session not released yet
	//   - ErrNotActive: OnResume has not been called
	OpenCamera() error

	// OnResume activates the background execution context. Must not be
	// called while already active.
	OnResume() error

	// OnPause deactivates the binding: drains and joins the background
	// worker, tears down the session, device and stream binding, and
	// leaves the lifecycle Closed. Idempotent. Re-activation requires
	// OnResume followed by a fresh OpenCamera; old worker and session
	// objects are never reused.
	OnPause()

	// OnRequestPermissionsResult feeds the host's asynchronous permission
	// result back in. Returns whether this component consumed the result
	// (the request code matched).
	OnRequestPermissionsResult(requestCode int, grantResults []bool) bool

	// Release tears down the session, device and stream binding without
	// deactivating the worker. Must not be invoked concurrently with an
	// in-flight OpenCamera; the gate does not protect that case.
	Release()

	// State returns the current lifecycle state.
	State() State

	// Stats returns a snapshot of feed counters.
	Stats() FeedStats
}
