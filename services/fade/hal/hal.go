// Package hal is the peripheral contract the fade controller is written
// against, plus one backend per supported target.
//
// The controller sees three narrow handles and an interrupt mask:
//
//   - PeriodicSource delivers the recurring timer event.
//   - PulseWidth receives the duty value once per event.
//   - DigitalOutput drives the companion line.
//   - InterruptMask brackets one-time configuration.
//
// Backends are selected by build tags: atmega328p (Arduino Uno Timer2),
// rp2040 (PWM wrap interrupt) and ordinary Go builds (ticker source with
// periph.io pins or simulated outputs).
package hal

import (
	"io"
	"time"

	"fadecode-go/errcode"
)

// Duty is a pulse-width count in [0, top]. Backends never clamp it: an
// out-of-range value is a caller bug.
type Duty uint8

// PeriodicSource produces the recurring event that paces the controller.
//
// Handler invocations never overlap. A port whose hardware can nest or queue
// deliveries must serialize them inside its PeriodicSource.
type PeriodicSource interface {
	// Configure programs a recurring event every period and installs handler.
	// Delivery stays disabled until Enable. Call with interrupts masked.
	Configure(period time.Duration, handler func()) error
	// Enable unmasks event delivery. It is the last configuration step.
	Enable() error
}

// PulseWidth is the register the peripheral samples every period to shape
// the brightness output. A write takes effect before the next event. Writes
// made before ConfigurePulseWidth are dropped.
type PulseWidth interface {
	// ConfigurePulseWidth sets the value that means "fully on".
	ConfigurePulseWidth(top Duty) error
	SetPulseWidth(d Duty)
}

// DigitalOutput is a binary line.
type DigitalOutput interface {
	ConfigureOutput(initial bool) error
	Set(on bool)
}

// InterruptMask masks event delivery globally until restore is called.
type InterruptMask interface {
	Mask() (restore func())
}

// Platform bundles the handles of one target.
type Platform struct {
	Name      string
	Source    PeriodicSource
	Ramp      PulseWidth
	Companion DigitalOutput
	Mask      InterruptMask

	// Telemetry is an optional serial link for state lines; nil if absent.
	Telemetry io.Writer
	// Release frees host resources; nil on firmware targets.
	Release func() error
}

// Validate reports a missing handle.
func (p Platform) Validate() error {
	switch {
	case p.Source == nil:
		return errcode.New(errcode.InvalidParams, "hal.Platform", "missing periodic source")
	case p.Ramp == nil:
		return errcode.New(errcode.InvalidParams, "hal.Platform", "missing pulse-width output")
	case p.Companion == nil:
		return errcode.New(errcode.InvalidParams, "hal.Platform", "missing companion output")
	case p.Mask == nil:
		return errcode.New(errcode.InvalidParams, "hal.Platform", "missing interrupt mask")
	}
	return nil
}

// NoMask is the InterruptMask of targets whose event source is a goroutine:
// ordering comes from Enable starting that goroutine.
type NoMask struct{}

func (NoMask) Mask() func() { return func() {} }
