//go:build tinygo && !(atmega328p || rp2040)

package hal

import "fadecode-go/errcode"

// Default reports that this target has no fade backend.
func Default() (Platform, error) {
	return Platform{}, errcode.New(errcode.Unsupported, "hal.Default", "no fade backend for this target")
}
