// Package session drives platform capture-session negotiation and keeps
// the repeating capture request flowing once configuration succeeds.
package session

import (
	"fmt"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
)

// Coordinator starts capture sessions against a bound surface.
//
// The asynchronous configured/configure-failed callbacks arrive on the
// queue passed to Start, so everything the observer does - including
// submitting the repeating request - already runs on the background
// execution context.
type Coordinator struct {
	// Resolve returns the device for gen if that open attempt is still
	// current, nil otherwise. A nil return means the device closed while
	// configuration was in flight; the callback aborts silently.
	Resolve func(gen uint64) platform.Device

	// OnStreaming receives the configured session after the repeating
	// request was submitted.
	OnStreaming func(gen uint64, sess platform.CaptureSession)

	// OnFailed receives session-configuration failures. No retry is
	// attempted here; the cause (surface revoked vs transient
	// contention) is not locally distinguishable.
	OnFailed func(gen uint64, reason string)
}

// Start requests session configuration on dev targeting surface. The
// outcome arrives asynchronously on q. A synchronous error means no
// session was requested.
func (c *Coordinator) Start(dev platform.Device, gen uint64, surface platform.Surface, q platform.Queue) error {
	obs := &observer{coord: c, gen: gen, surface: surface}
	if err := dev.CreateSession([]platform.Surface{surface}, obs, q); err != nil {
		return fmt.Errorf("session: configuration request failed: %w", err)
	}
	slog.Debug("session: configuration requested",
		"device", dev.ID(),
		"generation", gen,
	)
	return nil
}

// observer receives the session callbacks for one configuration attempt.
type observer struct {
	coord   *Coordinator
	gen     uint64
	surface platform.Surface
}

// OnConfigured builds the repeating capture request from the fixed
// continuous-recording template, applies continuous autofocus and submits
// it. Runs on the background worker.
func (o *observer) OnConfigured(sess platform.CaptureSession) {
	dev := o.coord.Resolve(o.gen)
	if dev == nil {
		// Race with teardown, not an error: the device closed while the
		// platform was configuring. Drop the orphaned session quietly.
		slog.Debug("session: device closed before configuration completed, aborting",
			"generation", o.gen,
		)
		sess.Close()
		return
	}

	builder := dev.NewRequest(platform.TemplateRecord)
	builder.AddTarget(o.surface)
	builder.SetAutofocus(platform.AutofocusContinuousVideo)
	req := builder.Build()

	if err := sess.SetRepeating(req); err != nil {
		slog.Error("session: repeating request submission failed",
			"device", dev.ID(),
			"generation", o.gen,
			"error", err,
		)
		sess.Close()
		o.coord.OnFailed(o.gen, err.Error())
		return
	}

	slog.Info("session: repeating capture request active",
		"device", dev.ID(),
		"generation", o.gen,
	)
	o.coord.OnStreaming(o.gen, sess)
}

// OnConfigureFailed logs and reports the failure. Runs on the background
// worker.
func (o *observer) OnConfigureFailed(reason string) {
	slog.Error("session: configuration failed",
		"generation", o.gen,
		"reason", reason,
	)
	o.coord.OnFailed(o.gen, reason)
}
