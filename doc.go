// Package camerabinding bridges a camera device into a renderer's texture
// pipeline using a zero-copy external texture stream.
//
// This module is part of Orion 2.0 and implements Bounded Context "Camera
// Binding" (Sprint 1.3). It manages the full device lifecycle (selection,
// exclusive open, GPU surface binding, capture session, teardown) so frames
// land directly in a renderer texture with no CPU-side pixel copy.
//
// # Quick Start
//
// The simplest way to bind a camera to a material:
//
//	feed, err := camerabinding.New(camerabinding.Config{},
//	    camerabinding.Platform{
//	        Camera:      system,      // platform.System adapter
//	        Permissions: permissions, // host permission subsystem
//	        Display:     display,     // orientation source
//	    },
//	    camerabinding.Renderer{
//	        Engine:   engine,   // render.Engine adapter
//	        Material: material, // consumer of videoTexture / aspectRatio
//	    },
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := feed.OnResume(); err != nil {
//	    log.Fatal(err)
//	}
//	defer feed.OnPause()
//
//	switch err := feed.OpenCamera(); {
//	case err == nil:
//	    // Callbacks drive the lifecycle forward; poll State() or render.
//	case errors.Is(err, camerabinding.ErrPermissionPending):
//	    // Permission flow running; re-invoke OpenCamera after the grant.
//	default:
//	    log.Fatal(err)
//	}
//
// Once State() reaches StateStreaming the material's "videoTexture"
// parameter samples live camera frames and "aspectRatio" carries the
// signed width/height ratio.
//
// # Features
//
//   - Automatic device selection (prefers world-facing over user-facing)
//   - Maximum-area resolution selection from the device's advertised sizes
//   - Exclusive open with a bounded gate (second attempt fails fast)
//   - Zero-copy binding: surface -> renderer stream -> external texture
//   - Single background worker for all platform callbacks (in-order,
//     non-concurrent delivery)
//   - Generation-checked callbacks: events from a superseded open attempt
//     are detected and ignored
//   - Deterministic teardown in reverse construction order
//   - Thread-safe statistics access
//
// # Lifecycle
//
// The device handle moves through an explicit state machine:
//
//	Closed -> Opening -> Opened -> ConfiguringSession -> Streaming
//
// Device loss or a device error from any live state recovers to Closed
// after a full teardown; there is no automatic retry. A worker-side
// failure (renderer resource construction, session start) parks the
// machine in StateError until Release is called.
//
// # Execution Contexts
//
// Two contexts touch a feed:
//
//   - Caller context: OpenCamera, OnResume/OnPause, Release, State, Stats
//   - Background worker: every asynchronous platform callback (device
//     opened/disconnected/error, session configured/failed)
//
// OnPause drains and joins the worker before tearing anything down, so no
// callback ever executes against state being destroyed. Worker-side
// failures are never propagated across the context boundary; they become
// a state transition plus a log record.
//
// # Permissions
//
// OpenCamera checks the camera permission first. When not granted it
// issues an asynchronous permission request and returns
// ErrPermissionPending without touching the lifecycle; the host forwards
// the result to OnRequestPermissionsResult and the caller re-invokes
// OpenCamera after a grant.
//
// # Error Handling
//
// Caller-context failures are explicit error returns:
//
//   - ErrPermissionPending: deferral, not a failure; state unchanged
//   - ErrGateTimeout: another open/close attempt holds the gate
//   - ErrNotClosed: previous session not released yet
//   - ErrNotActive: OnResume has not been called
//
// Worker-context failures surface as StateError or a recovery to
// StateClosed plus counters in Stats(). A fatal device error additionally
// invokes Config.OnDeviceFatal so the hosting context can terminate.
//
// # Configuration
//
// Config is immutable after construction. Zero values take the package
// defaults (2.5s gate timeout, 32-slot worker queue). A YAML file can
// provide the same fields via LoadConfig:
//
//	gate_timeout: 2500ms
//	queue_size: 32
//	permission_code: 200
//
// # Production Adapter
//
// internal/gstcam provides a GStreamer-backed platform.System for Linux
// deployments (V4L2 devices via go-gst). GStreamer 1.x must be installed:
//
//	# Ubuntu/Debian
//	sudo apt-get install \
//	    gstreamer1.0-tools \
//	    gstreamer1.0-plugins-base \
//	    gstreamer1.0-plugins-good
//
// Tests and embedding renderers supply their own System/Engine fakes; the
// core never talks to hardware directly.
//
// # Thread Safety
//
// All public methods are thread-safe:
//
//   - OpenCamera() blocks at most the configured gate timeout
//   - OnPause() is idempotent and can be called from any goroutine
//   - State() and Stats() are safe from any goroutine
//
// OnResume/OnPause must alternate strictly under one owning caller.
//
// # Design Philosophy
//
// This module follows Orion's core principle: "Complejidad por diseño, no
// por accidente"
//
//   - Bounded waits: the exclusivity gate fails fast instead of deadlocking
//   - Fail-fast validation: configuration errors detected at construction
//   - Generation counters: stale callbacks detected, not raced
//   - Quiesce before teardown: the worker is joined before state dies
//
// # Examples
//
// A complete working example is available in the examples/ directory:
//
//   - examples/simple/: full lifecycle against in-memory fakes
//
// A command-line demo against the GStreamer adapter is provided:
//
//	make feed-demo
//	./bin/feed-demo --config config.yaml
//
// # Limitations
//
//   - One device per CameraFeed instance
//   - Fixed RGBA8 texture format
//   - Record template with continuous video autofocus only
//   - No frame access on the CPU side (zero-copy by design)
//
// # Project Context
//
// This module is part of Orion, a real-time AI inference system for geriatric
// patient monitoring. It operates as a "smart sensor" following the philosophy:
// "Orión Ve, No Interpreta" (Orion Sees, Doesn't Interpret).
//
// Repository: https://github.com/e7canasta/orion-care-sensor
// License: Proprietary (Visiona Health)
package camerabinding
