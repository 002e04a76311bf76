//go:build atmega328p || rp2040

package hal

import "runtime/interrupt"

// mcuMask disables interrupts globally on the single core that runs the
// controller.
type mcuMask struct{}

func (mcuMask) Mask() func() {
	state := interrupt.Disable()
	return func() { interrupt.Restore(state) }
}
