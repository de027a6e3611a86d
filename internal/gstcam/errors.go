package gstcam

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// Device error codes delivered to DeviceObserver.OnError. Modeled on the
// fatal error taxonomy of mobile camera stacks so hosting contexts can
// react uniformly across adapters.
const (
	// CodeInUse means another client holds the device.
	CodeInUse = 1
	// CodeDisabled means access was denied by policy or permissions.
	CodeDisabled = 3
	// CodeDevice means the device itself failed (gone, ioctl error).
	CodeDevice = 4
	// CodeService means an unclassified capture stack failure.
	CodeService = 5
)

// Classify maps a GStreamer error to a device error code.
//
// Classification is based on message heuristics; go-gst's GError does not
// expose a domain, so we rely on string matching the way capture error
// telemetry does.
func Classify(gerr *gst.GError) int {
	if gerr == nil {
		return CodeService
	}
	return classifyMessage(strings.ToLower(gerr.Error()), strings.ToLower(gerr.DebugString()))
}

func classifyMessage(errMsg, debugStr string) int {
	combined := errMsg + " " + debugStr

	// Priority 1: exclusive access conflicts (most actionable).
	for _, kw := range []string{"busy", "in use", "resource busy"} {
		if strings.Contains(combined, kw) {
			return CodeInUse
		}
	}

	// Priority 2: policy/permission denials.
	for _, kw := range []string{"permission", "access denied", "not permitted"} {
		if strings.Contains(combined, kw) {
			return CodeDisabled
		}
	}

	// Priority 3: device-level failures.
	for _, kw := range []string{
		"no such device",
		"not found",
		"could not open",
		"cannot open",
		"v4l2",
		"ioctl",
		"disconnected",
		"removed",
	} {
		if strings.Contains(combined, kw) {
			return CodeDevice
		}
	}

	return CodeService
}
