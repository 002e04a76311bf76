//go:build !atmega328p

package main

import (
	"context"
	"time"

	"fadecode-go/bus"
	"fadecode-go/services/fade/hal"
	"fadecode-go/services/heartbeat"
	"fadecode-go/services/telemetry"
)

// bootDelay lets the Pico's USB CDC port enumerate before the first print.
const bootDelay = 2 * time.Second

// startServices runs the observers that need more memory than an Uno has.
func startServices(ctx context.Context, b *bus.Bus, p hal.Platform) {
	if err := heartbeat.New().Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("Error: heartbeat:", err.Error())
	}
	if p.Telemetry == nil {
		return
	}
	sink := telemetry.NewWriterSink(p.Telemetry)
	if err := telemetry.New(sink).Start(ctx, b.NewConnection("telemetry")); err != nil {
		println("Error: telemetry:", err.Error())
	}
}
