//go:build !tinygo

package hal

import (
	"fmt"

	"fadecode-go/drivers/pca9633"
	"fadecode-go/errcode"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Ramp output drivers.
const (
	DriverNative  = "native"
	DriverPCA9633 = "pca9633"
)

// HostConfig selects the pins of a Linux single-board computer.
type HostConfig struct {
	// Driver is DriverNative (a periph PWM pin) or DriverPCA9633.
	Driver       string
	RampPin      string
	PWMFrequency physic.Frequency

	// PCA9633 ramp output.
	I2CBus  string
	I2CAddr uint16
	Channel uint8
	Invert  bool

	// CompanionPin is a periph pin name. When CompanionChip is set the
	// companion is line CompanionLine of that GPIO character device instead.
	CompanionPin  string
	CompanionChip string
	CompanionLine int
}

// Host initialises periph and builds a platform from cfg. The periodic
// source is a TickerSource; Release stops it and frees the buses.
func Host(cfg HostConfig) (Platform, error) {
	if _, err := host.Init(); err != nil {
		return Platform{}, fmt.Errorf("hal: host init: %w", err)
	}

	var closers []func() error
	release := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	fail := func(err error) (Platform, error) {
		_ = release()
		return Platform{}, err
	}

	if cfg.Driver == "" {
		cfg.Driver = DriverNative
	}
	var ramp PulseWidth
	switch cfg.Driver {
	case DriverNative:
		p := gpioreg.ByName(cfg.RampPin)
		if p == nil {
			return fail(errcode.New(errcode.UnknownPin, "hal.Host", "ramp pin "+cfg.RampPin))
		}
		ramp = NewPeriphPWM(p, cfg.PWMFrequency)
	case DriverPCA9633:
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return fail(errcode.Wrap(errcode.UnknownBus, "hal.Host", err))
		}
		closers = append(closers, bus.Close)
		dev := pca9633.New(bus)
		if err := dev.Configure(pca9633.Config{Address: cfg.I2CAddr, Invert: cfg.Invert}); err != nil {
			return fail(fmt.Errorf("hal: pca9633: %w", err))
		}
		closers = append(closers, dev.Sleep)
		ramp = NewPCA9633Sink(&dev, cfg.Channel)
	default:
		return fail(errcode.New(errcode.InvalidParams, "hal.Host", "unknown driver "+cfg.Driver))
	}

	var companion DigitalOutput
	if cfg.CompanionChip != "" {
		o, err := OpenGpiodOut(cfg.CompanionChip, cfg.CompanionLine)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, o.Close)
		companion = o
	} else {
		p := gpioreg.ByName(cfg.CompanionPin)
		if p == nil {
			return fail(errcode.New(errcode.UnknownPin, "hal.Host", "companion pin "+cfg.CompanionPin))
		}
		companion = NewPeriphOut(p)
		closers = append(closers, func() error { return p.Out(gpio.Low) })
	}

	src := NewTickerSource()
	closers = append(closers, src.Close)

	return Platform{
		Name:      "host/" + cfg.Driver,
		Source:    src,
		Ramp:      ramp,
		Companion: companion,
		Mask:      NoMask{},
		Release:   release,
	}, nil
}
