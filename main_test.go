//go:build !tinygo

package main

import (
	"testing"
	"time"
)

func TestBootDelayCoversUSBEnumeration(t *testing.T) {
	if bootDelay != 2*time.Second {
		t.Fatalf("bootDelay %v, want 2s on USB CDC targets", bootDelay)
	}
}
