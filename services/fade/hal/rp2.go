//go:build rp2040

package hal

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
	"time"

	"fadecode-go/errcode"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

const (
	rampPin       = machine.GP15 // slice 7, channel B
	rampSlice     = 7
	telemetryBaud = 115200
)

// wrapHandler is installed by Configure and read only by the wrap ISR.
var wrapHandler func()

func pwmWrap(interrupt.Interrupt) {
	// Acknowledge first so a slow handler cannot lose the next wrap.
	rp.PWM.INTR.Set(1 << rampSlice)
	if h := wrapHandler; h != nil {
		h()
	}
}

// rp2Slice uses one PWM slice for both roles: its counter wrap paces the
// controller and its compare channel shapes the ramp output.
type rp2Slice struct {
	ctrl  pwmCtrl
	pin   machine.Pin
	chIdx uint8

	reqTop uint32 // logical resolution
	hwTop  uint32 // ctrl.Top() after Configure
	intr   interrupt.Interrupt
}

func (s *rp2Slice) ConfigurePulseWidth(top Duty) error {
	if top == 0 {
		return errcode.New(errcode.InvalidParams, "hal.rp2Slice", "zero top")
	}
	ch, err := s.ctrl.Channel(s.pin)
	if err != nil {
		return errcode.Wrap(errcode.UnknownPin, "hal.rp2Slice", err)
	}
	s.pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	s.chIdx = ch
	s.reqTop = uint32(top)
	return nil
}

// SetPulseWidth scales [0, reqTop] onto the hardware counter range. Writes
// before Configure are dropped.
func (s *rp2Slice) SetPulseWidth(d Duty) {
	if s.hwTop == 0 || s.reqTop == 0 {
		return
	}
	s.ctrl.Set(s.chIdx, uint32(d)*s.hwTop/s.reqTop)
}

func (s *rp2Slice) Configure(period time.Duration, handler func()) error {
	if period <= 0 {
		return errcode.New(errcode.InvalidParams, "hal.rp2Slice", "period must be positive")
	}
	rp.PWM.INTE.ClearBits(1 << rampSlice)
	if err := s.ctrl.Configure(machine.PWMConfig{Period: uint64(period)}); err != nil {
		return errcode.Wrap(errcode.Error, "hal.rp2Slice", err)
	}
	s.hwTop = s.ctrl.Top()

	wrapHandler = handler
	s.intr = interrupt.New(rp.IRQ_PWM_IRQ_WRAP, pwmWrap)
	return nil
}

func (s *rp2Slice) Enable() error {
	rp.PWM.INTR.Set(1 << rampSlice)
	rp.PWM.INTE.SetBits(1 << rampSlice)
	s.intr.Enable()
	return nil
}

type rp2Pin struct{ p machine.Pin }

func (o rp2Pin) ConfigureOutput(initial bool) error {
	o.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.p.Set(initial)
	return nil
}

func (o rp2Pin) Set(on bool) { o.p.Set(on) }

// Default returns the Pico platform: ramp on GP15, companion on the on-board
// LED (GP25), state lines on UART0.
func Default() (Platform, error) {
	s := &rp2Slice{ctrl: machine.PWM7, pin: rampPin}
	if err := uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: telemetryBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		return Platform{}, errcode.Wrap(errcode.Error, "hal.Default", err)
	}
	return Platform{
		Name:      "rp2040",
		Source:    s,
		Ramp:      s,
		Companion: rp2Pin{p: machine.LED},
		Mask:      mcuMask{},
		Telemetry: uartx.UART0,
	}, nil
}
