//go:build !tinygo

// Package trace drives the ramp controller offline against simulated outputs
// and summarises or plots what the outputs saw.
package trace

import (
	"io"

	"fadecode-go/errcode"
	"fadecode-go/services/fade/hal"
	"fadecode-go/services/fade/internal/ramp"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/stat"
)

// Sample is the output state after one periodic event.
type Sample struct {
	Event     int
	Duty      hal.Duty
	Companion bool
	Flip      bool
}

// Run feeds n events to a controller with the fixed configuration.
func Run(n int) ([]Sample, error) {
	if n <= 0 {
		return nil, errcode.New(errcode.InvalidParams, "trace.Run", "event count must be positive")
	}
	sim := hal.NewSim(nil)
	ctrl, err := ramp.New(ramp.DefaultConfig(), sim, sim.Companion())
	if err != nil {
		return nil, err
	}
	if err := sim.ConfigurePulseWidth(ctrl.Config().Max); err != nil {
		return nil, err
	}
	if err := sim.Companion().ConfigureOutput(true); err != nil {
		return nil, err
	}
	ctrl.Reset()

	out := make([]Sample, 0, n)
	for i := 1; i <= n; i++ {
		tr := ctrl.OnPeriodicEvent()
		st := sim.State()
		out = append(out, Sample{Event: i, Duty: st.Duty, Companion: st.Companion, Flip: tr != ramp.None})
	}
	return out, nil
}

// Summary describes a run.
type Summary struct {
	Events      int
	Flips       int
	MeanDuty    float64
	StdDevDuty  float64
	CompanionOn float64 // fraction of events with the companion on
}

func Summarize(samples []Sample) Summary {
	s := Summary{Events: len(samples)}
	if len(samples) == 0 {
		return s
	}
	duty := make([]float64, len(samples))
	on := 0
	for i, x := range samples {
		duty[i] = float64(x.Duty)
		if x.Companion {
			on++
		}
		if x.Flip {
			s.Flips++
		}
	}
	s.MeanDuty, s.StdDevDuty = stat.MeanStdDev(duty, nil)
	s.CompanionOn = float64(on) / float64(len(samples))
	return s
}

// Plot draws the duty trace over a band showing the companion output and
// encodes it as PNG.
func Plot(w io.Writer, samples []Sample, width, height int) error {
	if len(samples) == 0 || width < 16 || height < 32 {
		return errcode.New(errcode.InvalidParams, "trace.Plot", "nothing to draw")
	}
	const band = 10.0
	const margin = 4.0
	fw, fh := float64(width), float64(height)
	top := float64(ramp.Max)
	plotH := fh - band - 3*margin
	dx := (fw - 2*margin) / float64(len(samples))

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.08, 0.08, 0.08)
	dc.Clear()

	// Companion band.
	dc.SetRGB(0.1, 0.8, 0.2)
	for i, s := range samples {
		if s.Companion {
			dc.DrawRectangle(margin+float64(i)*dx, fh-margin-band, dx, band)
		}
	}
	dc.Fill()

	// Duty trace.
	y := func(d hal.Duty) float64 { return margin + plotH*(1-float64(d)/top) }
	dc.SetRGB(1, 0.75, 0)
	dc.SetLineWidth(1.5)
	dc.MoveTo(margin, y(samples[0].Duty))
	for i, s := range samples[1:] {
		dc.LineTo(margin+float64(i+1)*dx, y(s.Duty))
	}
	dc.Stroke()

	sum := Summarize(samples)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawString(formatSummary(sum), margin+2, margin+13)

	return dc.EncodePNG(w)
}
