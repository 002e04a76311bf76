// Package pca9633 drives the NXP PCA9633 four-channel I2C LED controller.
//
// Each channel has an 8-bit PWM register sampled by the chip's own 97 kHz
// oscillator, so a host without hardware PWM can still ramp an LED by
// writing one register per step.
package pca9633

import (
	"errors"

	"fadecode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// Address is the default 7-bit address of the 8-pin variants.
const Address = 0x62

// Registers.
const (
	regMode1   = 0x00
	regMode2   = 0x01
	regPWM0    = 0x02
	regGrpPWM  = 0x06
	regGrpFreq = 0x07
	regLEDOut  = 0x08

	autoIncAll = 0x80
)

// MODE1/MODE2 bits.
const (
	mode1Sleep   = 1 << 4
	mode1AllCall = 1 << 0

	mode2Invert = 1 << 4
	mode2OutDrv = 1 << 2 // totem pole; open drain when clear
)

// Channels per device.
const Channels = 4

// LEDMode is the two-bit LEDOUT state of one channel.
type LEDMode uint8

const (
	LEDOff   LEDMode = 0b00
	LEDOn    LEDMode = 0b01
	LEDPWM   LEDMode = 0b10
	LEDGroup LEDMode = 0b11 // individual PWM scaled by GRPPWM
)

var ErrChannel = errors.New("pca9633: channel out of range")

// Config controls output stage wiring. The zero value is a push-pull,
// non-inverted device at Address.
type Config struct {
	// Address defaults to 0x62 if zero.
	Address uint16
	// Invert flips output polarity, for LEDs wired to the supply.
	Invert bool
	// OpenDrain selects open-drain outputs instead of totem pole.
	OpenDrain bool
}

// Device wraps an I2C connection to a PCA9633.
type Device struct {
	bus     drivers.I2C
	Address uint16

	ledout uint8
	buf    [Channels + 1]byte
}

// New creates a Device. The I2C bus must already be configured; nothing is
// written until Configure.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure wakes the oscillator, applies the output stage and puts every
// channel in individual PWM mode at zero.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	var mode2 uint8
	if !cfg.OpenDrain {
		mode2 |= mode2OutDrv
	}
	if cfg.Invert {
		mode2 |= mode2Invert
	}
	if err := d.write(regMode1, mode1AllCall&^mode1Sleep); err != nil {
		return err
	}
	if err := d.write(regMode2, mode2); err != nil {
		return err
	}
	if err := d.SetAllPWM(0); err != nil {
		return err
	}
	d.ledout = 0
	for ch := uint8(0); ch < Channels; ch++ {
		d.ledout |= uint8(LEDPWM) << (2 * ch)
	}
	return d.write(regLEDOut, d.ledout)
}

// SetMode changes the LEDOUT state of one channel.
func (d *Device) SetMode(ch uint8, m LEDMode) error {
	if !mathx.Between(ch, 0, Channels-1) {
		return ErrChannel
	}
	shift := 2 * ch
	d.ledout = d.ledout&^(0b11<<shift) | uint8(m&0b11)<<shift
	return d.write(regLEDOut, d.ledout)
}

// SetPWM writes the duty register of one channel.
func (d *Device) SetPWM(ch uint8, v uint8) error {
	if !mathx.Between(ch, 0, Channels-1) {
		return ErrChannel
	}
	return d.write(regPWM0+ch, v)
}

// SetAllPWM writes all four duty registers in one auto-incremented burst.
func (d *Device) SetAllPWM(v uint8) error {
	d.buf[0] = autoIncAll | regPWM0
	for i := 1; i < len(d.buf); i++ {
		d.buf[i] = v
	}
	return d.bus.Tx(d.Address, d.buf[:], nil)
}

// SetGroup sets the group duty applied to LEDGroup channels.
func (d *Device) SetGroup(duty, freq uint8) error {
	if err := d.write(regGrpPWM, duty); err != nil {
		return err
	}
	return d.write(regGrpFreq, freq)
}

// Sleep stops the oscillator; outputs hold their LEDOUT off/on states.
func (d *Device) Sleep() error {
	return d.write(regMode1, mode1AllCall|mode1Sleep)
}

func (d *Device) write(reg, v uint8) error {
	d.buf[0], d.buf[1] = reg, v
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}
