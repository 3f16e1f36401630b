// Package gesture turns pointer drags into swipe decisions.
//
// [Classify] decides a direction from a released drag. [Card] holds the per-card drag pose,
// locks after the first committed decision and animates the card back to rest or off screen.
// The decision callback fires only when the exit animation completes.
// [Tracker] converts timestamped pointer samples (terminal mouse events) into the
// displacement and velocity values [Classify] expects.
package gesture
