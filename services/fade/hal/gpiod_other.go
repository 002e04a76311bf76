//go:build !linux && !tinygo

package hal

import "fadecode-go/errcode"

// GpiodOut is only available on Linux.
type GpiodOut struct{}

func OpenGpiodOut(string, int) (*GpiodOut, error) {
	return nil, errcode.New(errcode.Unsupported, "hal.OpenGpiodOut", "gpio character devices need linux")
}

func (*GpiodOut) ConfigureOutput(bool) error { return errcode.Unsupported }
func (*GpiodOut) Set(bool)                   {}
func (*GpiodOut) Errors() uint32             { return 0 }
func (*GpiodOut) Close() error               { return nil }
