//go:build atmega328p

package hal

import (
	"device/avr"
	"machine"
	"runtime/interrupt"
	"time"

	"fadecode-go/errcode"
	"fadecode-go/x/timex"
)

// Timer2 register bits (ATmega328P datasheet, section 18.11).
const (
	com2b1 = 1 << 5 // TCCR2A: clear OC2B on compare match, set at BOTTOM
	wgm21  = 1 << 1 // TCCR2A
	wgm20  = 1 << 0 // TCCR2A
	wgm22  = 1 << 3 // TCCR2B: with WGM21:20, fast PWM with TOP = OCR2A

	cs1024 = 0b111 // TCCR2B: clk/1024

	toie2 = 1 << 0 // TIMSK2: overflow interrupt enable

	timer2Prescaler = 1024
)

// timer2Handler is installed by Configure and read only by the overflow ISR.
var timer2Handler func()

func timer2Overflow(interrupt.Interrupt) {
	if h := timer2Handler; h != nil {
		h()
	}
}

// avrTimer2 drives OC2B (PD3, Arduino D3) in fast PWM and raises the overflow
// interrupt once per period.
type avrTimer2 struct {
	pin     machine.Pin
	top     uint8
	maxDuty Duty
}

func (t *avrTimer2) ConfigurePulseWidth(top Duty) error {
	t.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	avr.TCCR2A.Set(com2b1 | wgm21 | wgm20)
	avr.OCR2B.Set(0)
	t.maxDuty = top
	return nil
}

func (t *avrTimer2) SetPulseWidth(d Duty) {
	if t.maxDuty == 0 {
		return
	}
	avr.OCR2B.Set(uint8(d))
}

func (t *avrTimer2) Configure(period time.Duration, handler func()) error {
	counts := timex.TimerCounts(machine.CPUFrequency(), timer2Prescaler, period)
	if counts == 0 || counts > 256 {
		return errcode.New(errcode.InvalidParams, "hal.avrTimer2", "period out of Timer2 range")
	}
	// A duty of counts keeps OC2B high for the whole period.
	if uint32(t.maxDuty) > counts {
		return errcode.New(errcode.InvalidParams, "hal.avrTimer2", "ramp top exceeds timer TOP")
	}
	t.top = uint8(counts - 1)

	avr.TIMSK2.ClearBits(toie2)
	timer2Handler = handler
	interrupt.New(avr.IRQ_TIMER2_OVF, timer2Overflow)

	avr.OCR2A.Set(t.top)
	avr.TCNT2.Set(0)
	avr.TCCR2B.Set(wgm22 | cs1024)
	return nil
}

func (t *avrTimer2) Enable() error {
	avr.TIFR2.Set(toie2) // discard an overflow latched during configuration
	avr.TIMSK2.SetBits(toie2)
	return nil
}

// avrPin is a plain push-pull output.
type avrPin struct{ p machine.Pin }

func (o avrPin) ConfigureOutput(initial bool) error {
	o.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.p.Set(initial)
	return nil
}

func (o avrPin) Set(on bool) { o.p.Set(on) }

// Default returns the Arduino Uno platform: ramp on D3 (OC2B), companion on
// the on-board LED (D13, PB5).
func Default() (Platform, error) {
	t := &avrTimer2{pin: machine.D3}
	return Platform{
		Name:      "atmega328p",
		Source:    t,
		Ramp:      t,
		Companion: avrPin{p: machine.LED},
		Mask:      mcuMask{},
	}, nil
}
