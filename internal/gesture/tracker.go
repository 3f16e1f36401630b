package gesture

import (
	"math"
	"time"
)

// Default cell sizes in gesture units. A terminal cell is about twice as tall as it is wide.
const (
	DefaultCellWidth  = 10.0
	DefaultCellHeight = 20.0
)

// velocityWindow is how far back release velocity looks.
const velocityWindow = 100 * time.Millisecond

// Sample is a pointer position at an instant, in cells.
type Sample struct {
	X, Y float64
	At   time.Time
}

// Tracker accumulates the samples of one drag.
type Tracker struct {
	cellW, cellH float64
	samples      []Sample
}

// NewTracker returns a tracker scaling cells by the given sizes. Non-positive sizes use the defaults.
func NewTracker(cellWidth, cellHeight float64) *Tracker {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	return &Tracker{cellW: cellWidth, cellH: cellHeight}
}

// Scale converts a cell offset to gesture units.
func (t *Tracker) Scale(cols, rows float64) (float64, float64) {
	return cols * t.cellW, rows * t.cellH
}

// Active reports whether a drag is in progress.
func (t *Tracker) Active() bool { return len(t.samples) > 0 }

// Begin starts a drag at (x, y), discarding any previous samples.
func (t *Tracker) Begin(x, y float64, at time.Time) {
	t.samples = append(t.samples[:0], Sample{X: x, Y: y, At: at})
}

// Move records a sample and returns the displacement from the drag origin.
func (t *Tracker) Move(x, y float64, at time.Time) (mx, my float64) {
	if !t.Active() {
		t.Begin(x, y, at)
		return 0, 0
	}
	t.samples = append(t.samples, Sample{X: x, Y: y, At: at})
	return t.movement()
}

// End records the final sample, returns the release and resets the tracker.
func (t *Tracker) End(x, y float64, at time.Time) Release {
	if !t.Active() {
		return Release{}
	}
	t.samples = append(t.samples, Sample{X: x, Y: y, At: at})

	r := Release{}
	r.MX, r.MY = t.movement()
	r.VX, r.VY, r.DX, r.DY = t.velocity()

	t.samples = t.samples[:0]
	return r
}

// Cancel drops the current drag.
func (t *Tracker) Cancel() { t.samples = t.samples[:0] }

func (t *Tracker) movement() (float64, float64) {
	first, last := t.samples[0], t.samples[len(t.samples)-1]
	return t.Scale(last.X-first.X, last.Y-first.Y)
}

// velocity returns speeds over the trailing window and the signs of the last movement.
func (t *Tracker) velocity() (vx, vy, dx, dy float64) {
	last := t.samples[len(t.samples)-1]

	from := last
	for i := len(t.samples) - 2; i >= 0; i-- {
		if last.At.Sub(t.samples[i].At) > velocityWindow {
			break
		}
		from = t.samples[i]
	}

	for i := len(t.samples) - 1; i > 0; i-- {
		ddx, ddy := t.samples[i].X-t.samples[i-1].X, t.samples[i].Y-t.samples[i-1].Y
		if ddx != 0 || ddy != 0 {
			dx, dy = sign(ddx), sign(ddy)
			break
		}
	}

	ms := float64(last.At.Sub(from.At)) / float64(time.Millisecond)
	if ms <= 0 {
		return 0, 0, dx, dy
	}

	ux, uy := t.Scale(last.X-from.X, last.Y-from.Y)
	return math.Abs(ux) / ms, math.Abs(uy) / ms, dx, dy
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
