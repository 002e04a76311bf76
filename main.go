package main

import (
	"context"
	"time"

	"fadecode-go/bus"
	"fadecode-go/services/fade"
	"fadecode-go/services/fade/hal"
)

func main() {
	if bootDelay > 0 {
		time.Sleep(bootDelay)
	}
	println("boot")

	p, err := hal.Default()
	if err != nil {
		halt(err)
	}

	ctx := context.Background()
	b := bus.NewBus(4)
	startServices(ctx, b, p)

	svc, err := fade.New(p)
	if err != nil {
		halt(err)
	}
	if err := svc.Start(ctx, b.NewConnection("fade")); err != nil {
		halt(err)
	}

	// Everything from here on is driven by the periodic event.
	select {}
}

// halt reports a start-up failure forever; there is nothing to fall back to.
func halt(err error) {
	for {
		println("Error:", err.Error())
		time.Sleep(5 * time.Second)
	}
}
