// Command feed-demo binds a V4L2 camera to a console renderer and reports
// lifecycle state and frame throughput. It exercises the full open ->
// bind -> stream -> teardown cycle against the GStreamer adapter without
// needing a GPU.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
	"gopkg.in/yaml.v3"

	camerabinding "github.com/e7canasta/orion-care-sensor/modules/camera-binding"
	"github.com/e7canasta/orion-care-sensor/modules/camera-binding/internal/gstcam"
)

// Version information
const version = "v0.1.0"

// demoConfig is the YAML layout read from --config.
type demoConfig struct {
	Feed    camerabinding.Config `yaml:"feed"`
	Cameras []gstcam.DeviceSpec  `yaml:"cameras"`
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "YAML config file with feed settings and camera specs (required)")
	duration := flag.Duration("duration", 0, "How long to stream (0 = until interrupted)")
	landscape := flag.Bool("landscape", false, "Report a landscape display orientation")
	statsInterval := flag.Int("stats-interval", 10, "Seconds between stats reports")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("feed-demo %s\n", version)
		os.Exit(0)
	}

	// Validate required flags
	if *configPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --config flag is required\n\n")
		fmt.Fprintf(os.Stderr, "Usage example:\n")
		fmt.Fprintf(os.Stderr, "  feed-demo --config config.yaml\n")
		fmt.Fprintf(os.Stderr, "  feed-demo --config config.yaml --duration 30s --landscape\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := loadDemoConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create the GStreamer-backed camera system
	system, err := gstcam.NewSystem(cfg.Cameras)
	if err != nil {
		log.Fatalf("Failed to create camera system: %v", err)
	}

	// Console renderer: counts frames instead of drawing them
	material := &consoleMaterial{}
	engine := &consoleEngine{}

	feed, err := camerabinding.New(cfg.Feed,
		camerabinding.Platform{
			Camera:      system,
			Permissions: grantedPermissions{},
			Display:     fixedDisplay{landscape: *landscape},
		},
		camerabinding.Renderer{
			Engine:   engine,
			Material: material,
		},
	)
	if err != nil {
		log.Fatalf("Failed to create feed: %v", err)
	}

	if err := feed.OnResume(); err != nil {
		log.Fatalf("Failed to activate feed: %v", err)
	}
	defer feed.OnPause()

	switch err := feed.OpenCamera(); {
	case err == nil:
	case errors.Is(err, camerabinding.ErrPermissionPending):
		log.Fatal("Permission pending despite auto-grant, this is a bug")
	default:
		log.Fatalf("Failed to open camera: %v", err)
	}

	// Wait for streaming (or a terminal state)
	if !waitForStreaming(feed, 10*time.Second) {
		log.Fatalf("Camera never reached streaming, state: %s", feed.State())
	}
	slog.Info("Streaming started")

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}
	ticker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			slog.Info("Signal received, shutting down", "signal", sig)
			printStats(feed, engine)
			return

		case <-deadline:
			slog.Info("Duration elapsed, shutting down")
			printStats(feed, engine)
			return

		case <-ticker.C:
			printStats(feed, engine)
		}
	}
}

func loadDemoConfig(path string) (demoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return demoConfig{}, err
	}
	var cfg demoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return demoConfig{}, err
	}
	return cfg, nil
}

func waitForStreaming(feed *camerabinding.CameraFeed, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		switch feed.State() {
		case camerabinding.StateStreaming:
			return true
		case camerabinding.StateError, camerabinding.StateClosed:
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func printStats(feed *camerabinding.CameraFeed, engine *consoleEngine) {
	st := feed.Stats()
	slog.Info("Feed stats",
		"state", st.State.String(),
		"frames", engine.frames.Load(),
		"opens", st.Opens,
		"binds", st.Binds,
		"disconnects", st.Disconnects,
		"device_errors", st.DeviceErrors,
		"configure_failures", st.ConfigureFailures,
	)
}

// grantedPermissions auto-grants everything; the demo runs as a plain
// process with no permission broker.
type grantedPermissions struct{}

func (grantedPermissions) Granted(string) bool   { return true }
func (grantedPermissions) Request([]string, int) {}

// fixedDisplay reports the orientation given on the command line.
type fixedDisplay struct{ landscape bool }

func (d fixedDisplay) Landscape() bool { return d.landscape }

// consoleEngine implements the renderer contract headlessly: streams pull
// frames from the capture surface and count them.
type consoleEngine struct {
	frames atomic.Uint64
}

func (e *consoleEngine) NewStream(s camerabinding.Surface) (camerabinding.Stream, error) {
	gs, ok := s.(*gstcam.Surface)
	if !ok {
		return nil, fmt.Errorf("surface was not allocated by the gstcam system")
	}

	gs.Sink().SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			if sample := sink.PullSample(); sample != nil {
				e.frames.Add(1)
			}
			return gst.FlowOK
		},
	})
	return &consoleStream{}, nil
}

func (e *consoleEngine) NewExternalTexture(camerabinding.PixelFormat) (camerabinding.Texture, error) {
	return &consoleTexture{}, nil
}

type consoleStream struct{}

func (s *consoleStream) Destroy() {}

type consoleTexture struct{}

func (t *consoleTexture) SetExternalStream(camerabinding.Stream) error { return nil }
func (t *consoleTexture) Destroy()                                     {}

// consoleMaterial logs parameter publishes instead of shading with them.
type consoleMaterial struct{}

func (m *consoleMaterial) SetTextureParameter(name string, _ camerabinding.Texture, _ camerabinding.Sampler) {
	slog.Info("Material parameter published", "name", name, "kind", "texture")
}

func (m *consoleMaterial) SetFloatParameter(name string, value float64) {
	slog.Info("Material parameter published", "name", name, "value", value)
}
