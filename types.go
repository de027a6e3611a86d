package camerabinding

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Config.withDefaults.
const (
	// DefaultGateTimeout is the bounded wait on the exclusivity gate.
	DefaultGateTimeout = 2500 * time.Millisecond
	// DefaultQueueSize is the background worker queue capacity.
	DefaultQueueSize = 32
	// DefaultPermissionCode tags camera permission requests.
	DefaultPermissionCode = 200
)

// Config is the immutable configuration of a CameraFeed, passed once at
// construction. Zero values take the defaults above.
type Config struct {
	// GateTimeout bounds the wait for the exclusivity gate during
	// OpenCamera. A second open while one is in flight fails with
	// ErrGateTimeout after this long instead of blocking indefinitely.
	GateTimeout time.Duration `yaml:"gate_timeout"`

	// QueueSize is the capacity of the background worker's bounded
	// callback queue.
	QueueSize int `yaml:"queue_size"`

	// PermissionCode tags permission requests issued by OpenCamera so
	// OnRequestPermissionsResult can recognize the matching result.
	PermissionCode int `yaml:"permission_code"`

	// OnDeviceFatal, when set, receives the platform error code after a
	// device error. The hosting context is expected to terminate or
	// fully reset; the device is not recoverable for this session.
	OnDeviceFatal func(code int) `yaml:"-"`
}

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.GateTimeout == 0 {
		c.GateTimeout = DefaultGateTimeout
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.PermissionCode == 0 {
		c.PermissionCode = DefaultPermissionCode
	}
	return c
}

// validate rejects configurations that cannot work.
func (c Config) validate() error {
	if c.GateTimeout < 0 {
		return fmt.Errorf("camera-binding: negative gate timeout %v", c.GateTimeout)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("camera-binding: negative queue size %d", c.QueueSize)
	}
	return nil
}

// LoadConfig reads a Config from a YAML file. Missing fields take the
// package defaults at construction time.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("camera-binding: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("camera-binding: parsing config: %w", err)
	}
	return cfg, nil
}

// FeedStats is a point-in-time snapshot of feed counters.
//
// Thread-safe to request from any goroutine; counters are atomic.
type FeedStats struct {
	// State is the current lifecycle state.
	State State
	// Active reports whether the background worker is running
	// (between OnResume and OnPause).
	Active bool
	// HandleID identifies the live device handle, empty when no device is
	// held. Matches the handle_id field of the lifecycle log lines, so a
	// snapshot is correlatable to the logs of its open attempt.
	HandleID string
	// Opens is the number of open attempts issued to the platform.
	Opens uint64
	// Binds is the number of successful texture bindings published.
	Binds uint64
	// Disconnects is the number of device-loss events handled.
	Disconnects uint64
	// DeviceErrors is the number of fatal device errors handled.
	DeviceErrors uint64
	// ConfigureFailures is the number of failed session configurations.
	ConfigureFailures uint64
}
