//go:build !tinygo

package hal

import (
	"fmt"
	"sync/atomic"

	"fadecode-go/errcode"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultPWMFrequency is the carrier used for periph PWM pins.
const DefaultPWMFrequency = physic.KiloHertz

// PeriphPWM drives a periph.io pin with native PWM, mapping [0, top] onto
// [0, gpio.DutyMax].
type PeriphPWM struct {
	pin  gpio.PinOut
	freq physic.Frequency
	top  Duty

	errs uint32
}

func NewPeriphPWM(pin gpio.PinOut, freq physic.Frequency) *PeriphPWM {
	if freq == 0 {
		freq = DefaultPWMFrequency
	}
	return &PeriphPWM{pin: pin, freq: freq}
}

func (p *PeriphPWM) ConfigurePulseWidth(top Duty) error {
	if top == 0 {
		return errcode.New(errcode.InvalidParams, "hal.PeriphPWM", "zero top")
	}
	p.top = top
	if err := p.pin.PWM(0, p.freq); err != nil {
		return fmt.Errorf("hal: %s: pwm: %w", p.pin.Name(), err)
	}
	return nil
}

// SetPulseWidth cannot report failure to the controller; failed writes are
// counted instead.
func (p *PeriphPWM) SetPulseWidth(d Duty) {
	if p.top == 0 {
		return
	}
	if err := p.pin.PWM(p.duty(d), p.freq); err != nil {
		atomic.AddUint32(&p.errs, 1)
	}
}

func (p *PeriphPWM) duty(d Duty) gpio.Duty {
	return gpio.Duty(int64(d) * int64(gpio.DutyMax) / int64(p.top))
}

// Errors returns the number of failed writes.
func (p *PeriphPWM) Errors() uint32 { return atomic.LoadUint32(&p.errs) }

// PeriphOut drives a periph.io pin as a plain output.
type PeriphOut struct {
	pin  gpio.PinOut
	errs uint32
}

func NewPeriphOut(pin gpio.PinOut) *PeriphOut { return &PeriphOut{pin: pin} }

func (o *PeriphOut) ConfigureOutput(initial bool) error {
	if err := o.pin.Out(gpio.Level(initial)); err != nil {
		return fmt.Errorf("hal: %s: out: %w", o.pin.Name(), err)
	}
	return nil
}

func (o *PeriphOut) Set(on bool) {
	if err := o.pin.Out(gpio.Level(on)); err != nil {
		atomic.AddUint32(&o.errs, 1)
	}
}

// Errors returns the number of failed writes.
func (o *PeriphOut) Errors() uint32 { return atomic.LoadUint32(&o.errs) }
