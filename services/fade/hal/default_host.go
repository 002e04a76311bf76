//go:build !tinygo

package hal

// Default returns the simulated platform without a console.
func Default() (Platform, error) {
	p, _ := Simulated(nil)
	return p, nil
}
