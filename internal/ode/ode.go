// Package ode integrates small dynamical systems with a fixed-step
// fourth-order Runge-Kutta scheme. It exists to cross-check the closed-form
// oscillator solutions against an independent numerical trajectory.
package ode

import (
	"math"

	"github.com/phys-praktikum/fplab/internal/oscillator"
)

// State is a flat vector of dynamical variables.
type State []float64

// System yields the time derivative of a state vector.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// RK4 is a classical fourth-order Runge-Kutta stepper. The zero value is
// ready to use; scratch buffers are allocated on first step.
type RK4 struct {
	k1, k2, k3, k4 State
	scratch        State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(State, n)
		r.k2 = make(State, n)
		r.k3 = make(State, n)
		r.k4 = make(State, n)
		r.scratch = make(State, n)
	}
}

// Step advances x by one increment dt starting at time t and returns the new
// state. The input state is not modified.
func (r *RK4) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derive(x, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derive(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, sys.Derive(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, sys.Derive(r.scratch, t+dt))

	result := make(State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// Integrate advances sys from x0 over steps increments of dt and returns the
// trajectory including the initial state, so the result has steps+1 entries.
func Integrate(sys System, x0 State, t0, dt float64, steps int) []State {
	integ := NewRK4()
	traj := make([]State, 0, steps+1)
	traj = append(traj, append(State(nil), x0...))

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, t0+float64(i)*dt, dt)
		traj = append(traj, x)
	}
	return traj
}

// OscillatorSystem adapts an oscillator to the [System] interface. The state
// is (position, velocity) and the equation of motion is
//
//	x'' = -2*delta*x' - omega0^2*x + force(t)
//
// with force an optional driving term.
type OscillatorSystem struct {
	Osc   oscillator.Oscillator
	Force func(t float64) float64
}

func (s *OscillatorSystem) Dim() int { return 2 }

func (s *OscillatorSystem) Derive(x State, t float64) State {
	acc := -2*s.Osc.Delta*x[1] - s.Osc.Omega0*s.Osc.Omega0*x[0]
	if s.Force != nil {
		acc += s.Force(t)
	}
	return State{x[1], acc}
}

// FreeInitialState returns the (position, velocity) pair that matches the
// closed-form free solution of osc at t = 0.
func FreeInitialState(osc oscillator.Oscillator) State {
	pos := osc.A0 * math.Cos(osc.Phi)
	vel := -osc.A0 * (osc.Delta*math.Cos(osc.Phi) + osc.OmegaD()*math.Sin(osc.Phi))
	return State{pos, vel}
}
