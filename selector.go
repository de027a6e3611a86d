package camerabinding

import (
	"fmt"
	"log/slog"
)

// ChooseDescriptor picks the camera device to open from the enumerated
// descriptors.
//
// Policy: first non-front-facing device with a usable size set wins; a
// front-facing device is only selected when no other candidate exists.
// Devices advertising no output sizes (configuration map unavailable) are
// skipped and the next enumerated device is considered.
func ChooseDescriptor(descs []CameraDescriptor) (CameraDescriptor, error) {
	var front *CameraDescriptor
	for i := range descs {
		d := descs[i]
		if len(d.Sizes) == 0 {
			slog.Debug("camera-binding: skipping device without size set", "id", d.ID)
			continue
		}
		if d.Facing != FacingFront {
			return d, nil
		}
		if front == nil {
			front = &d
		}
	}
	if front != nil {
		return *front, nil
	}
	return CameraDescriptor{}, fmt.Errorf("camera-binding: no usable camera device")
}

// SelectResolution deterministically picks one operating resolution from a
// device's advertised output sizes: the maximum-area candidate, with area
// ties resolved to the first-enumerated one.
func SelectResolution(sizes []Resolution) (Resolution, error) {
	if len(sizes) == 0 {
		return Resolution{}, fmt.Errorf("camera-binding: device advertises no output sizes")
	}
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Area() > best.Area() {
			best = s
		}
	}
	return best, nil
}

// AspectRatio derives the signed aspect ratio published to the material:
// width/height, negated when the host UI is in landscape orientation at
// bind time. The sign is a display hint, not a geometry property.
func AspectRatio(r Resolution, landscape bool) float64 {
	ratio := float64(r.Width) / float64(r.Height)
	if landscape {
		return -ratio
	}
	return ratio
}
