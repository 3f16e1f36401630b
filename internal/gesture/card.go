package gesture

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/desertthunder/swipearr/internal/models"
)

// FPS is the animation frame rate [Card.Step] is tuned for.
const FPS = 60

const (
	dragScale = 1.02
	exitScale = 0.8

	// maxFrames is the longest an animation runs before it is forced to its target.
	maxFrames = 2 * FPS

	posEpsilon = 0.5
	velEpsilon = 0.5
)

// Pose is the rendered transform of a card.
type Pose struct {
	X, Y   float64
	Rotate float64
	Scale  float64
}

// Rest is the untouched card pose.
var Rest = Pose{Scale: 1}

// ExitPose returns the off-screen target for a committed direction.
func ExitPose(dir models.SwipeDirection) Pose {
	p := Pose{Scale: exitScale}
	switch dir {
	case models.SwipeRight:
		p.X = ExitDistance
	case models.SwipeLeft:
		p.X = -ExitDistance
	case models.SwipeDown:
		p.Y = ExitDistance
	}
	p.Rotate = p.X / 10
	return p
}

// Phase is the card's gesture lifecycle position.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Settling
	Exiting
	Done
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Settling:
		return "settling"
	case Exiting:
		return "exiting"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

// Card is the gesture state of one card instance.
//
// Once a decision is committed the card ignores further input.
type Card struct {
	pose     Pose
	velocity Pose
	target   Pose
	phase    Phase
	frames   int
	decision models.SwipeDirection
	locked   bool
	fired    bool

	settle harmonica.Spring
	exit   harmonica.Spring

	// OnSwipe is called once, after the exit animation completes.
	OnSwipe func(models.SwipeDirection)
}

// NewCard returns a card at rest.
func NewCard(onSwipe func(models.SwipeDirection)) *Card {
	return &Card{
		pose:    Rest,
		target:  Rest,
		settle:  harmonica.NewSpring(harmonica.FPS(FPS), 17.0, 0.6),
		exit:    harmonica.NewSpring(harmonica.FPS(FPS), 14.0, 0.9),
		OnSwipe: onSwipe,
	}
}

// Pose returns the current transform.
func (c *Card) Pose() Pose { return c.pose }

// Phase returns the lifecycle position.
func (c *Card) Phase() Phase { return c.phase }

// Locked reports whether a decision has been committed.
func (c *Card) Locked() bool { return c.locked }

// Decision returns the committed direction, or [models.SwipeNone].
func (c *Card) Decision() models.SwipeDirection { return c.decision }

// Animating reports whether [Card.Step] still has frames to run.
func (c *Card) Animating() bool {
	return c.phase == Settling || c.phase == Exiting
}

// Drag moves the card to the raw pointer displacement. Ignored once locked.
func (c *Card) Drag(mx, my float64) {
	if c.locked {
		return
	}
	c.phase = Dragging
	c.pose = Pose{X: mx, Y: my, Rotate: mx / RotationDivisor, Scale: dragScale}
	c.velocity = Pose{}
}

// Release classifies the drag. A decision locks the card and starts the exit
// animation; otherwise the card settles back to [Rest]. Ignored once locked.
func (c *Card) Release(r Release) models.SwipeDirection {
	if c.locked {
		return models.SwipeNone
	}

	dir := Classify(r)
	if dir == models.SwipeNone {
		c.start(Settling, Rest)
		return dir
	}
	c.Commit(dir)
	return dir
}

// Commit locks the card with dir without a drag, as keyboard actions do.
// It reports false if the card was already locked.
func (c *Card) Commit(dir models.SwipeDirection) bool {
	if c.locked || dir == models.SwipeNone {
		return false
	}
	c.locked = true
	c.decision = dir
	c.start(Exiting, ExitPose(dir))
	return true
}

func (c *Card) start(phase Phase, target Pose) {
	c.phase = phase
	c.target = target
	c.frames = 0
}

// Step advances the animation by one frame and reports whether it is still running.
//
// When an exit animation reaches its target the card moves to [Done] and OnSwipe fires.
func (c *Card) Step() bool {
	if !c.Animating() {
		return false
	}

	spring := c.settle
	if c.phase == Exiting {
		spring = c.exit
	}

	c.pose.X, c.velocity.X = spring.Update(c.pose.X, c.velocity.X, c.target.X)
	c.pose.Y, c.velocity.Y = spring.Update(c.pose.Y, c.velocity.Y, c.target.Y)
	c.pose.Rotate, c.velocity.Rotate = spring.Update(c.pose.Rotate, c.velocity.Rotate, c.target.Rotate)
	c.pose.Scale, c.velocity.Scale = spring.Update(c.pose.Scale, c.velocity.Scale, c.target.Scale)
	c.frames++

	if !c.settled() && c.frames < maxFrames {
		return true
	}

	c.pose = c.target
	c.velocity = Pose{}
	if c.phase == Settling {
		c.phase = Idle
		return false
	}

	c.phase = Done
	if !c.fired && c.OnSwipe != nil {
		c.fired = true
		c.OnSwipe(c.decision)
	}
	return false
}

func (c *Card) settled() bool {
	near := func(a, b float64) bool { return math.Abs(a-b) < posEpsilon }
	slow := func(v float64) bool { return math.Abs(v) < velEpsilon }

	return near(c.pose.X, c.target.X) && near(c.pose.Y, c.target.Y) &&
		near(c.pose.Rotate, c.target.Rotate) && math.Abs(c.pose.Scale-c.target.Scale) < 0.01 &&
		slow(c.velocity.X) && slow(c.velocity.Y) && slow(c.velocity.Rotate)
}
