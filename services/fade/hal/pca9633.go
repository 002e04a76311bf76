package hal

import (
	"sync/atomic"

	"fadecode-go/drivers/pca9633"
	"fadecode-go/errcode"
	"fadecode-go/x/mathx"
)

// PCA9633Sink drives one PCA9633 channel as the ramp output, mapping
// [0, top] onto the chip's 8-bit duty register.
type PCA9633Sink struct {
	dev  *pca9633.Device
	ch   uint8
	top  Duty
	errs uint32
}

// NewPCA9633Sink wraps a configured device.
func NewPCA9633Sink(dev *pca9633.Device, ch uint8) *PCA9633Sink {
	return &PCA9633Sink{dev: dev, ch: ch}
}

func (s *PCA9633Sink) ConfigurePulseWidth(top Duty) error {
	if top == 0 {
		return errcode.New(errcode.InvalidParams, "hal.PCA9633Sink", "zero top")
	}
	if s.ch >= pca9633.Channels {
		return errcode.Wrap(errcode.UnknownPin, "hal.PCA9633Sink", pca9633.ErrChannel)
	}
	s.top = top
	if err := s.dev.SetPWM(s.ch, 0); err != nil {
		return errcode.Wrap(errcode.Error, "hal.PCA9633Sink", err)
	}
	return nil
}

func (s *PCA9633Sink) SetPulseWidth(d Duty) {
	if s.top == 0 {
		return
	}
	v := mathx.MapU16(uint16(d), 0, uint16(s.top), 0, 255)
	if err := s.dev.SetPWM(s.ch, uint8(v)); err != nil {
		atomic.AddUint32(&s.errs, 1)
	}
}

// Errors returns the number of failed register writes.
func (s *PCA9633Sink) Errors() uint32 { return atomic.LoadUint32(&s.errs) }
