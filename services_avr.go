//go:build atmega328p

package main

import (
	"context"

	"fadecode-go/bus"
	"fadecode-go/services/fade/hal"
)

// bootDelay is zero: the Uno prints over its hardware UART, which needs no
// enumeration.
const bootDelay = 0

// startServices is empty on the Uno: 2 KB of RAM leaves room for the
// controller and the bus only.
func startServices(context.Context, *bus.Bus, hal.Platform) {}
