package gstcam

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/platform"
)

// Device is an open handle on one configured V4L2 device.
type Device struct {
	spec   DeviceSpec
	obs    platform.DeviceObserver
	q      platform.Queue
	closed atomic.Bool
}

// ID returns the device node path the handle was opened with.
func (d *Device) ID() string { return d.spec.Path }

// NewRequest returns a builder seeded from the template.
func (d *Device) NewRequest(t platform.Template) platform.RequestBuilder {
	return &requestBuilder{tmpl: t}
}

// CreateSession assembles the capture pipeline over the target surfaces
// and delivers the configured session on q.
//
// Pipeline structure:
//
//	v4l2src → videoconvert → videoscale → capsfilter → appsink
//
// The pipeline is configured but NOT started; SetRepeating moves it to
// PLAYING. A synchronous error means no session was created.
func (d *Device) CreateSession(surfaces []platform.Surface, obs platform.SessionObserver, q platform.Queue) error {
	if d.closed.Load() {
		return fmt.Errorf("gstcam: device %s is closed", d.spec.Path)
	}
	if len(surfaces) != 1 {
		return fmt.Errorf("gstcam: exactly one target surface supported, got %d", len(surfaces))
	}
	surface, ok := surfaces[0].(*Surface)
	if !ok {
		return fmt.Errorf("gstcam: surface was not allocated by this system")
	}

	pipeline, err := buildPipeline(d.spec.Path, surface)
	if err != nil {
		return err
	}

	sess := &Session{dev: d, pipeline: pipeline}
	if err := q.Submit(func() { obs.OnConfigured(sess) }); err != nil {
		pipeline.SetState(gst.StateNull)
		return fmt.Errorf("gstcam: delivering session result: %w", err)
	}
	return nil
}

// Close marks the handle closed. The live pipeline, if any, is owned and
// stopped by its session.
func (d *Device) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	slog.Debug("gstcam: device closed", "path", d.spec.Path)
}

func buildPipeline(path string, surface *Surface) (*gst.Pipeline, error) {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", path)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0)

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create videoscale: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("gstcam: failed to create capsfilter: %w", err)
	}
	res := surface.Resolution()
	capsStr := fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", res.Width, res.Height)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	sink := surface.Sink()

	pipeline.AddMany(src, converter, scaler, capsfilter, sink.Element)
	if err := gst.ElementLinkMany(src, converter, scaler, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("gstcam: failed to link pipeline elements: %w", err)
	}

	return pipeline, nil
}

// Session is a configured capture pipeline for one device.
type Session struct {
	dev      *Device
	pipeline *gst.Pipeline
	cancel   context.CancelFunc
	closed   atomic.Bool
}

// SetRepeating starts the pipeline. The template and autofocus mode in
// req were fixed at build time; V4L2 exposes no per-request controls, so
// the request only gates that a built request exists.
func (s *Session) SetRepeating(req platform.Request) error {
	if s.closed.Load() {
		return fmt.Errorf("gstcam: session is closed")
	}
	if req == nil {
		return fmt.Errorf("gstcam: nil capture request")
	}

	if err := s.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstcam: failed to start pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.monitor(ctx)

	slog.Info("gstcam: capture started",
		"path", s.dev.spec.Path,
		"template", req.Template(),
	)
	return nil
}

// Close stops the pipeline and its bus monitor. Idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		slog.Warn("gstcam: failed to stop pipeline", "error", err)
	}
	slog.Debug("gstcam: session closed", "path", s.dev.spec.Path)
}

// monitor polls the pipeline bus and forwards EOS and errors to the
// device observer on the callback queue.
func (s *Session) monitor(ctx context.Context) {
	bus := s.pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("gstcam: bus monitor stopped", "path", s.dev.spec.Path)
			return

		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Warn("gstcam: end of stream", "path", s.dev.spec.Path)
				s.deliver(func() { s.dev.obs.OnDisconnected() })
				return

			case gst.MessageError:
				gerr := msg.ParseError()
				code := Classify(gerr)
				slog.Error("gstcam: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"code", code,
					"path", s.dev.spec.Path,
				)
				s.deliver(func() { s.dev.obs.OnError(code) })
				return

			case gst.MessageStateChanged:
				if msg.Source() == s.pipeline.GetName() {
					old, new := msg.ParseStateChanged()
					slog.Debug("gstcam: pipeline state changed",
						"from", old,
						"to", new,
					)
				}
			}
		}
	}
}

// deliver forwards a device event via the callback queue. A full or
// closed queue during teardown is expected and only logged.
func (s *Session) deliver(fn func()) {
	if err := s.dev.q.Submit(fn); err != nil {
		slog.Debug("gstcam: dropping device event", "error", err)
	}
}

type request struct {
	tmpl platform.Template
}

func (r *request) Template() platform.Template { return r.tmpl }

type requestBuilder struct {
	tmpl    platform.Template
	targets []platform.Surface
	af      platform.AutofocusMode
}

func (b *requestBuilder) AddTarget(s platform.Surface)          { b.targets = append(b.targets, s) }
func (b *requestBuilder) SetAutofocus(m platform.AutofocusMode) { b.af = m }
func (b *requestBuilder) Build() platform.Request               { return &request{tmpl: b.tmpl} }
