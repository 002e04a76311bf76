package ramp

import (
	"time"

	"fadecode-go/errcode"
	"fadecode-go/services/fade/hal"
)

// Reference timing. A 16 MHz clock through the /1024 prescaler, wrapping
// after 125 counts, gives one event every 8 ms; 125 of those are one second.
// The ramp climbs one step per event, so MAX must equal the number of events
// per boundary check or the check lands mid-ramp.
const (
	ClockHz   = 16_000_000
	Prescaler = 1024
	Counts    = 125

	Max             hal.Duty = Counts
	CyclesPerSecond uint16   = Counts

	// Period is Prescaler*Counts/ClockHz.
	Period = 8 * time.Millisecond
)

// Config is the fixed shape of the ramp.
type Config struct {
	Max       hal.Duty
	Threshold uint16
	Period    time.Duration
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{Max: Max, Threshold: CyclesPerSecond, Period: Period}
}

// Validate checks the precondition the controller relies on: the ramp reaches
// an extreme on exactly the event that closes a boundary window.
func (c Config) Validate() error {
	const op = "ramp.Config.Validate"
	switch {
	case c.Max == 0:
		return errcode.New(errcode.Misconfigured, op, "max is zero")
	case c.Period <= 0:
		return errcode.New(errcode.Misconfigured, op, "period must be positive")
	case uint16(c.Max) != c.Threshold:
		return errcode.New(errcode.Misconfigured, op, "max and threshold differ")
	}
	return nil
}
