// Package ramp is the duty-cycle ramp controller: on every periodic event it
// steps the duty value by one, and on each boundary check reverses direction
// and flips the companion output when the duty value sits at an extreme.
package ramp

import "fadecode-go/services/fade/hal"

// Direction is the sign applied to the duty value on each event.
type Direction int8

const (
	Rising  Direction = +1
	Falling Direction = -1
)

func (d Direction) String() string {
	if d == Falling {
		return "falling"
	}
	return "rising"
}

// Transition reports what a boundary check decided.
type Transition uint8

const (
	None Transition = iota
	ToFalling
	ToRising
)

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Duty      hal.Duty
	Direction Direction
	Elapsed   uint16
	Companion bool
}

// Controller owns the ramp state. After Reset it is mutated only by
// OnPeriodicEvent, which must never run concurrently with itself.
type Controller struct {
	cfg       Config
	pw        hal.PulseWidth
	companion hal.DigitalOutput

	duty     int16
	dir      Direction
	elapsed  uint16
	companOn bool
}

// New returns a controller for cfg, or errcode.Misconfigured when cfg breaks
// the max == threshold precondition. The outputs are not touched until Reset,
// so New may run before the peripherals are configured.
func New(cfg Config, pw hal.PulseWidth, companion hal.DigitalOutput) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newController(cfg, pw, companion), nil
}

// newController skips validation. The state starts at the initial values but
// nothing is written until Reset.
func newController(cfg Config, pw hal.PulseWidth, companion hal.DigitalOutput) *Controller {
	return &Controller{
		cfg:       cfg,
		pw:        pw,
		companion: companion,
		dir:       Rising,
		companOn:  true,
	}
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config { return c.cfg }

// Reset restores the initial state (duty 0, rising, counter 0, companion on)
// and writes both outputs. Call it only while event delivery is disabled.
func (c *Controller) Reset() {
	c.duty = 0
	c.dir = Rising
	c.elapsed = 0
	c.companOn = true
	c.pw.SetPulseWidth(0)
	c.companion.Set(true)
}

// OnPeriodicEvent advances the ramp by one event.
func (c *Controller) OnPeriodicEvent() Transition {
	c.elapsed++
	c.duty += int16(c.dir)
	c.pw.SetPulseWidth(hal.Duty(c.duty))

	if c.elapsed != c.cfg.Threshold {
		return None
	}
	c.elapsed = 0

	switch {
	case c.duty >= int16(c.cfg.Max):
		c.dir = Falling
		c.setCompanion(false)
		return ToFalling
	case c.duty <= 0:
		c.dir = Rising
		c.setCompanion(true)
		return ToRising
	}
	return None
}

func (c *Controller) setCompanion(on bool) {
	c.companOn = on
	c.companion.Set(on)
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Duty:      hal.Duty(c.duty),
		Direction: c.dir,
		Elapsed:   c.elapsed,
		Companion: c.companOn,
	}
}
