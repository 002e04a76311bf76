//go:build !tinygo

package hal

import "sync"

// SimState is what the simulated outputs last saw.
type SimState struct {
	Top       Duty
	Duty      Duty
	Companion bool
	Writes    int // pulse-width writes
	Edges     int // companion level changes
}

// Sim records both outputs in memory and optionally draws them on a Console.
type Sim struct {
	mu      sync.Mutex
	st      SimState
	console *Console
}

func NewSim(console *Console) *Sim { return &Sim{console: console} }

func (s *Sim) ConfigurePulseWidth(top Duty) error {
	s.mu.Lock()
	s.st.Top = top
	s.mu.Unlock()
	return nil
}

func (s *Sim) SetPulseWidth(d Duty) {
	s.mu.Lock()
	if s.st.Top == 0 {
		s.mu.Unlock()
		return
	}
	s.st.Duty = d
	s.st.Writes++
	st := s.st
	s.mu.Unlock()
	s.draw(st)
}

// State returns a copy of the recorded outputs.
func (s *Sim) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Companion returns the companion half of the simulation.
func (s *Sim) Companion() DigitalOutput { return simCompanion{s} }

func (s *Sim) setCompanion(on bool, initial bool) {
	s.mu.Lock()
	if !initial && on != s.st.Companion {
		s.st.Edges++
	}
	s.st.Companion = on
	st := s.st
	s.mu.Unlock()
	s.draw(st)
}

func (s *Sim) draw(st SimState) {
	if s.console == nil || st.Top == 0 {
		return
	}
	_ = s.console.Draw(st.Duty, st.Top, st.Companion)
}

type simCompanion struct{ s *Sim }

func (c simCompanion) ConfigureOutput(initial bool) error {
	c.s.setCompanion(initial, true)
	return nil
}

func (c simCompanion) Set(on bool) { c.s.setCompanion(on, false) }

// Simulated returns a platform paced by a TickerSource whose outputs are
// recorded by the returned Sim. console may be nil.
func Simulated(console *Console) (Platform, *Sim) {
	src := NewTickerSource()
	sim := NewSim(console)
	release := func() error {
		err := src.Close()
		if console != nil {
			_ = console.Halt()
		}
		return err
	}
	return Platform{
		Name:      "sim",
		Source:    src,
		Ramp:      sim,
		Companion: sim.Companion(),
		Mask:      NoMask{},
		Release:   release,
	}, sim
}
