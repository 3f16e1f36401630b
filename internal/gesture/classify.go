package gesture

import (
	"math"

	"github.com/desertthunder/swipearr/internal/models"
)

const (
	// SwipeThreshold is the displacement, in gesture units, a drag must exceed to commit.
	SwipeThreshold = 100.0

	// SwipeVelocity is the release velocity, in units per millisecond, that commits a flick.
	SwipeVelocity = 0.5

	// RotationDivisor maps horizontal displacement to card rotation in degrees.
	RotationDivisor = 15.0

	// ExitDistance is how far off screen a committed card travels.
	ExitDistance = 500.0
)

// Release is the state of a drag at the moment the pointer is released.
//
// MX and MY are total displacement from the drag origin (positive is right and down).
// VX and VY are release speeds in units per millisecond and are treated as magnitudes.
// DX and DY are the signs (-1, 0, 1) of the most recent movement.
type Release struct {
	MX, MY float64
	VX, VY float64
	DX, DY float64
}

// Classify returns the decision for a released drag, or [models.SwipeNone] to snap back.
//
// Rules are checked down, then right, then left; the first rule whose trigger matches decides,
// and a right or left trigger only commits if the net displacement agrees with it.
func Classify(r Release) models.SwipeDirection {
	vx := math.Abs(r.VX)

	switch {
	case r.MY > SwipeThreshold && r.VY > SwipeVelocity && r.MY > 0:
		return models.SwipeDown
	case r.MX > SwipeThreshold || (vx > SwipeVelocity && r.DX > 0):
		if r.MX > 0 {
			return models.SwipeRight
		}
	case r.MX < -SwipeThreshold || (vx > SwipeVelocity && r.DX < 0):
		if r.MX < 0 {
			return models.SwipeLeft
		}
	}
	return models.SwipeNone
}
