//go:build linux && !tinygo

package hal

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/gpiod"
)

// GpiodOut drives a line of a GPIO character device.
type GpiodOut struct {
	chip   *gpiod.Chip
	offset int
	line   *gpiod.Line
	errs   uint32
}

// OpenGpiodOut opens chip (for example "gpiochip0"). The line is requested
// by ConfigureOutput.
func OpenGpiodOut(chip string, offset int) (*GpiodOut, error) {
	c, err := gpiod.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("hal: open %s: %w", chip, err)
	}
	return &GpiodOut{chip: c, offset: offset}, nil
}

func (o *GpiodOut) ConfigureOutput(initial bool) error {
	l, err := o.chip.RequestLine(o.offset, gpiod.AsOutput(level(initial)))
	if err != nil {
		return fmt.Errorf("hal: request line %d: %w", o.offset, err)
	}
	o.line = l
	return nil
}

func (o *GpiodOut) Set(on bool) {
	if o.line == nil {
		atomic.AddUint32(&o.errs, 1)
		return
	}
	if err := o.line.SetValue(level(on)); err != nil {
		atomic.AddUint32(&o.errs, 1)
	}
}

// Errors returns the number of failed writes.
func (o *GpiodOut) Errors() uint32 { return atomic.LoadUint32(&o.errs) }

// Close releases the line and the chip.
func (o *GpiodOut) Close() error {
	if o.line != nil {
		_ = o.line.Close()
	}
	return o.chip.Close()
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
