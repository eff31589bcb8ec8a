package device

import (
	"context"
	"image"
)

// Facing is the preferred camera direction
type Facing int

const (
	// FacingUser is the front camera
	FacingUser Facing = iota
	// FacingEnvironment is the rear camera
	FacingEnvironment
)

func (f Facing) String() string {
	if f == FacingUser {
		return "user"
	}
	return "environment"
}

// Constraints is what a session asks of the device. Ideal sizes are hints;
// the stream reports the resolution it actually delivers.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
}

// Device is a capture device that can be opened into a live stream.
// Open is the one blocking acquisition step; errors are typed app errors
// (device unavailable, permission denied, busy, unsupported).
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live video source
type Stream interface {
	// Frame returns the current frame. Callers must not modify it.
	Frame() (image.Image, error)
	// Dimensions returns the native frame size, zero while unknown
	Dimensions() (width, height int)
	// Close releases the device. It is safe to call more than once.
	Close() error
}
